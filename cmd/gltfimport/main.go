// Copyright 2016, Timothy Bogdala <tdb@animal-machine.com>
// See the LICENSE file for more details.

/*

gltfimport converts a glTF 2.0 document's first skin and first animation
into a rig.Pose/rig.Animation pair and writes it as a gombz asset via
rigasset. It stands in for the FBX importer the original tool used: the
spec places "importing scenes from the industry exchange format" out of
scope for the core (spec §1), so this tool, like the FBX loader it
replaces, lives entirely outside rig/skeleton/retarget/track/mathx and
only hands them already-decoded data.

*/

package main

import (
	"errors"
	"fmt"
	"os"

	mgl "github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"github.com/tbogdala/groggy"
	kingpin "gopkg.in/alecthomas/kingpin.v2"

	"github.com/tbogdala/retarget/rig"
	"github.com/tbogdala/retarget/rigasset"
)

var (
	versionString = "v0.1.0 DEVELOPMENT"
	appFlags      = kingpin.New("gltfimport", "converts a glTF skin+animation to a gombz asset.")
	flagInput     = appFlags.Arg("input", "path to a .gltf or .glb file").Required().String()
	flagOutput    = appFlags.Arg("output", "path to write the .gombz asset to").Required().String()
)

var errNoSkin = errors.New("gltfimport: document has no skins")

func main() {
	appFlags.Version(versionString)
	kingpin.MustParse(appFlags.Parse(os.Args[1:]))

	groggy.Register("DEBUG", groggy.DefaultSyncHandler)
	groggy.Register("ERROR", groggy.DefaultSyncHandler)

	doc, err := gltf.Open(*flagInput)
	if err != nil {
		groggy.Logsf("ERROR", "failed to open %q: %v", *flagInput, err)
		os.Exit(1)
	}

	pose, animation, err := convert(doc)
	if err != nil {
		groggy.Logsf("ERROR", "failed to convert %q: %v", *flagInput, err)
		os.Exit(1)
	}

	if err := rigasset.Save(*flagOutput, pose, animation); err != nil {
		groggy.Logsf("ERROR", "%v", err)
		os.Exit(1)
	}

	groggy.Logsf("DEBUG", "gltfimport: wrote %q (%d bones)", *flagOutput, len(pose.Bones))
}

// convert reads the document's first skin as the skeleton (joint order
// becomes bone order, dense and topologically sorted the same way the
// skin's joint list already is for any well-formed rig) and its first
// animation, if present, as the single animation transferred onto that
// skeleton.
func convert(doc *gltf.Document) (rig.Pose, rig.Animation, error) {
	if len(doc.Skins) == 0 {
		return rig.Pose{}, rig.Animation{}, errNoSkin
	}
	skin := doc.Skins[0]

	jointIndex := make(map[uint32]int, len(skin.Joints))
	for i, nodeIndex := range skin.Joints {
		jointIndex[nodeIndex] = i
	}

	pose := rig.Pose{Bones: make([]rig.PoseBone, len(skin.Joints))}
	for i, nodeIndex := range skin.Joints {
		node := doc.Nodes[nodeIndex]

		parent := rig.NoParent
		for candidateIndex, candidate := range doc.Nodes {
			for _, childIndex := range candidate.Children {
				if childIndex == nodeIndex {
					if p, ok := jointIndex[uint32(candidateIndex)]; ok {
						parent = p
					}
				}
			}
		}

		translation, rotation, scale := nodeTRS(node)
		pose.Bones[i] = rig.PoseBone{
			Name:        nodeName(node, i),
			Parent:      parent,
			Scale:       scale,
			Rotation:    rotation,
			Translation: translation,
		}
	}

	animation := rig.Animation{Bones: make([]rig.AnimatedBone, len(pose.Bones))}
	if len(doc.Animations) > 0 {
		if err := fillAnimation(doc, doc.Animations[0], jointIndex, &animation); err != nil {
			return rig.Pose{}, rig.Animation{}, err
		}
	}

	return pose, animation, nil
}

func nodeName(node *gltf.Node, fallbackIndex int) string {
	if node.Name != "" {
		return node.Name
	}
	return fmt.Sprintf("joint%d", fallbackIndex)
}

// nodeTRS reads a node's local transform, falling back to glTF's defined
// defaults (identity rotation, unit scale, zero translation) for any
// component the document left unset.
func nodeTRS(node *gltf.Node) (translation mgl.Vec3, rotation mgl.Quat, scale mgl.Vec3) {
	t := node.TranslationOrDefault()
	r := node.RotationOrDefault()
	s := node.ScaleOrDefault()
	return mgl.Vec3{float32(t[0]), float32(t[1]), float32(t[2])},
		mgl.Quat{W: float32(r[3]), V: mgl.Vec3{float32(r[0]), float32(r[1]), float32(r[2])}},
		mgl.Vec3{float32(s[0]), float32(s[1]), float32(s[2])}
}

// fillAnimation decodes each channel of a glTF animation into the
// matching bone's track, keyed by the channel's target node via
// jointIndex. Channels targeting a node outside the skin are ignored.
func fillAnimation(doc *gltf.Document, anim *gltf.Animation, jointIndex map[uint32]int, out *rig.Animation) error {
	for _, channel := range anim.Channels {
		if channel.Target.Node == nil {
			continue
		}
		boneIndex, ok := jointIndex[*channel.Target.Node]
		if !ok {
			continue
		}

		sampler := anim.Samplers[channel.Sampler]

		times, err := readFloatAccessor(doc, sampler.Input)
		if err != nil {
			return err
		}

		switch channel.Target.Path {
		case gltf.TRSTranslation:
			values, err := readVec3Accessor(doc, sampler.Output)
			if err != nil {
				return err
			}
			out.Bones[boneIndex].Translations = zipVec3(times, values)
		case gltf.TRSScale:
			values, err := readVec3Accessor(doc, sampler.Output)
			if err != nil {
				return err
			}
			out.Bones[boneIndex].Scales = zipVec3(times, values)
		case gltf.TRSRotation:
			values, err := readQuatAccessor(doc, sampler.Output)
			if err != nil {
				return err
			}
			out.Bones[boneIndex].Rotations = zipQuat(times, values)
		}
	}
	return nil
}

func readFloatAccessor(doc *gltf.Document, accessorIndex uint32) ([]float32, error) {
	var out []float32
	if _, err := modeler.ReadAccessor(doc, doc.Accessors[accessorIndex], &out); err != nil {
		return nil, err
	}
	return out, nil
}

func readVec3Accessor(doc *gltf.Document, accessorIndex uint32) ([]mgl.Vec3, error) {
	var raw [][3]float32
	if _, err := modeler.ReadAccessor(doc, doc.Accessors[accessorIndex], &raw); err != nil {
		return nil, err
	}
	out := make([]mgl.Vec3, len(raw))
	for i, v := range raw {
		out[i] = mgl.Vec3{v[0], v[1], v[2]}
	}
	return out, nil
}

func readQuatAccessor(doc *gltf.Document, accessorIndex uint32) ([]mgl.Quat, error) {
	var raw [][4]float32
	if _, err := modeler.ReadAccessor(doc, doc.Accessors[accessorIndex], &raw); err != nil {
		return nil, err
	}
	out := make([]mgl.Quat, len(raw))
	for i, v := range raw {
		out[i] = mgl.Quat{W: v[3], V: mgl.Vec3{v[0], v[1], v[2]}}
	}
	return out, nil
}

func zipVec3(times []float32, values []mgl.Vec3) []rig.Keyframe[mgl.Vec3] {
	n := len(times)
	if len(values) < n {
		n = len(values)
	}
	out := make([]rig.Keyframe[mgl.Vec3], n)
	for i := 0; i < n; i++ {
		out[i] = rig.Keyframe[mgl.Vec3]{Time: float64(times[i]), Value: values[i]}
	}
	return out
}

func zipQuat(times []float32, values []mgl.Quat) []rig.Keyframe[mgl.Quat] {
	n := len(times)
	if len(values) < n {
		n = len(values)
	}
	out := make([]rig.Keyframe[mgl.Quat], n)
	for i := 0; i < n; i++ {
		out[i] = rig.Keyframe[mgl.Quat]{Time: float64(times[i]), Value: values[i]}
	}
	return out
}
