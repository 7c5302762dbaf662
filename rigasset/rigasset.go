// Copyright 2016, Timothy Bogdala <tdb@animal-machine.com>
// See the LICENSE file for more details.

// Package rigasset bridges rig.Pose/rig.Animation to the teacher's own
// binary mesh/animation interchange format (github.com/tbogdala/gombz,
// bson encoded and zlib compressed). It performs no scene import itself
// — gombz.Mesh is already "the in-memory data model an external importer
// yields" (spec §1); this package only reshapes it into and out of the
// rig types the retargeter and skeleton evaluator speak.
package rigasset

import (
	"fmt"
	"os"

	mgl "github.com/go-gl/mathgl/mgl32"
	"github.com/tbogdala/gombz"
	"github.com/tbogdala/groggy"

	"github.com/tbogdala/retarget/mathx"
	"github.com/tbogdala/retarget/rig"
)

// FromGombz converts a decoded gombz.Mesh's bones and first animation
// (if any) into a rig.Pose and rig.Animation. Animation channels are
// matched to bones by name, the same correspondence the retargeter
// itself uses, rather than by gombz's numeric bone id, since bone id
// assignment is an importer-internal detail.
func FromGombz(mesh *gombz.Mesh) (rig.Pose, rig.Animation) {
	pose := rig.Pose{Bones: make([]rig.PoseBone, len(mesh.Bones))}
	for i, b := range mesh.Bones {
		scale, rotation, translation := mathx.DecomposeAffine(b.Transform)
		parent := int(b.Parent)
		if parent < 0 {
			parent = rig.NoParent
		}
		pose.Bones[i] = rig.PoseBone{
			Name:        b.Name,
			Parent:      parent,
			Scale:       scale,
			Rotation:    rotation,
			Translation: translation,
		}
	}

	animation := rig.Animation{Bones: make([]rig.AnimatedBone, len(mesh.Bones))}
	if len(mesh.Animations) > 0 {
		channelsByName := make(map[string]*gombz.AnimationChannel, len(mesh.Animations[0].Channels))
		for i := range mesh.Animations[0].Channels {
			c := &mesh.Animations[0].Channels[i]
			channelsByName[c.Name] = c
		}

		for i, b := range mesh.Bones {
			channel, ok := channelsByName[b.Name]
			if !ok {
				groggy.Logsf("DEBUG", "rigasset: bone %q has no animation channel", b.Name)
				continue
			}
			animation.Bones[i] = rig.AnimatedBone{
				Scales:       vec3Keys(channel.ScaleKeys),
				Rotations:    quatKeys(channel.RotationKeys),
				Translations: vec3Keys(channel.PositionKeys),
			}
		}
	}

	return pose, animation
}

func vec3Keys(keys []gombz.AnimationVec3Key) []rig.Keyframe[mgl.Vec3] {
	out := make([]rig.Keyframe[mgl.Vec3], len(keys))
	for i, k := range keys {
		out[i] = rig.Keyframe[mgl.Vec3]{Time: float64(k.Time), Value: k.Key}
	}
	return out
}

func quatKeys(keys []gombz.AnimationQuatKey) []rig.Keyframe[mgl.Quat] {
	out := make([]rig.Keyframe[mgl.Quat], len(keys))
	for i, k := range keys {
		out[i] = rig.Keyframe[mgl.Quat]{Time: float64(k.Time), Value: k.Key}
	}
	return out
}

// ToGombz packages a rig.Pose/rig.Animation pair as a gombz.Mesh carrying
// no geometry, only bones and a single animation — a bone-and-animation-
// only asset, encoded with the same bson+zlib container gombz uses for
// full meshes.
func ToGombz(pose rig.Pose, animation rig.Animation) (*gombz.Mesh, error) {
	if len(animation.Bones) != len(pose.Bones) {
		return nil, fmt.Errorf("rigasset: pose has %d bones but animation has %d: %w",
			len(pose.Bones), len(animation.Bones), rig.ErrSizeMismatch)
	}

	mesh := &gombz.Mesh{
		BoneCount: uint32(len(pose.Bones)),
		Bones:     make([]gombz.Bone, len(pose.Bones)),
	}

	channels := make([]gombz.AnimationChannel, len(pose.Bones))

	for i, pb := range pose.Bones {
		parent := int32(pb.Parent)
		if pb.Parent == rig.NoParent {
			parent = -1
		}
		mesh.Bones[i] = gombz.Bone{
			Name:      pb.Name,
			Id:        int32(i),
			Parent:    parent,
			Transform: mathx.ComposeAffine(pb.Scale, pb.Rotation, pb.Translation),
		}

		ab := animation.Bones[i]
		channels[i] = gombz.AnimationChannel{
			Name:         pb.Name,
			PositionKeys: toVec3Keys(ab.Translations),
			ScaleKeys:    toVec3Keys(ab.Scales),
			RotationKeys: toQuatKeys(ab.Rotations),
		}
	}

	mesh.Animations = []gombz.Animation{{
		Name:     "retargeted",
		Channels: channels,
	}}

	return mesh, nil
}

func toVec3Keys(keyframes []rig.Keyframe[mgl.Vec3]) []gombz.AnimationVec3Key {
	out := make([]gombz.AnimationVec3Key, len(keyframes))
	for i, kf := range keyframes {
		out[i] = gombz.AnimationVec3Key{Time: float32(kf.Time), Key: kf.Value}
	}
	return out
}

func toQuatKeys(keyframes []rig.Keyframe[mgl.Quat]) []gombz.AnimationQuatKey {
	out := make([]gombz.AnimationQuatKey, len(keyframes))
	for i, kf := range keyframes {
		out[i] = gombz.AnimationQuatKey{Time: float32(kf.Time), Key: kf.Value}
	}
	return out
}

// Load reads a gombz-encoded file from disk and decodes it into a
// rig.Pose/rig.Animation pair.
func Load(filename string) (rig.Pose, rig.Animation, error) {
	bs, err := os.ReadFile(filename)
	if err != nil {
		return rig.Pose{}, rig.Animation{}, fmt.Errorf("rigasset: failed to read %q: %w", filename, err)
	}

	mesh, err := gombz.DecodeMesh(bs)
	if err != nil {
		return rig.Pose{}, rig.Animation{}, fmt.Errorf("rigasset: failed to decode %q: %w", filename, err)
	}

	groggy.Logsf("DEBUG", "rigasset: loaded %q (%d bones)", filename, len(mesh.Bones))
	pose, animation := FromGombz(mesh)
	return pose, animation, nil
}

// Save encodes a rig.Pose/rig.Animation pair and writes it to filename.
func Save(filename string, pose rig.Pose, animation rig.Animation) error {
	mesh, err := ToGombz(pose, animation)
	if err != nil {
		return err
	}

	bs, err := mesh.Encode()
	if err != nil {
		return fmt.Errorf("rigasset: failed to encode %q: %w", filename, err)
	}

	if err := os.WriteFile(filename, bs, 0o644); err != nil {
		return fmt.Errorf("rigasset: failed to write %q: %w", filename, err)
	}

	groggy.Logsf("DEBUG", "rigasset: saved %q (%d bones)", filename, len(pose.Bones))
	return nil
}
