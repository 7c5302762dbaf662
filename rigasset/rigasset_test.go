// Copyright 2016, Timothy Bogdala <tdb@animal-machine.com>
// See the LICENSE file for more details.

package rigasset

import (
	"testing"

	mgl "github.com/go-gl/mathgl/mgl32"

	"github.com/tbogdala/retarget/rig"
)

const epsilon = 1e-4

func almostEqualV3(a, b mgl.Vec3) bool {
	return a.Sub(b).Len() < epsilon
}

func samplePose() rig.Pose {
	return rig.Pose{Bones: []rig.PoseBone{
		{Name: "root", Parent: rig.NoParent, Scale: mgl.Vec3{1, 1, 1}, Rotation: mgl.QuatIdent(), Translation: mgl.Vec3{0, 0, 0}},
		{Name: "spine", Parent: 0, Scale: mgl.Vec3{1, 1, 1}, Rotation: mgl.QuatRotate(0.3, mgl.Vec3{0, 1, 0}), Translation: mgl.Vec3{0, 1, 0}},
	}}
}

func sampleAnimation() rig.Animation {
	return rig.Animation{Bones: []rig.AnimatedBone{
		{},
		{Translations: []rig.Keyframe[mgl.Vec3]{
			{Time: 0, Value: mgl.Vec3{0, 1, 0}},
			{Time: 1, Value: mgl.Vec3{0, 2, 0}},
		}},
	}}
}

// P9: gombz round-trip reproduces pose/animation value-for-value.
func TestToFromGombzRoundTrip(t *testing.T) {
	pose := samplePose()
	animation := sampleAnimation()

	mesh, err := ToGombz(pose, animation)
	if err != nil {
		t.Fatal(err)
	}

	gotPose, gotAnimation := FromGombz(mesh)

	for i := range pose.Bones {
		if gotPose.Bones[i].Name != pose.Bones[i].Name {
			t.Errorf("bone %d name = %q, want %q", i, gotPose.Bones[i].Name, pose.Bones[i].Name)
		}
		if gotPose.Bones[i].Parent != pose.Bones[i].Parent {
			t.Errorf("bone %d parent = %d, want %d", i, gotPose.Bones[i].Parent, pose.Bones[i].Parent)
		}
		if !almostEqualV3(gotPose.Bones[i].Translation, pose.Bones[i].Translation) {
			t.Errorf("bone %d translation = %v, want %v", i, gotPose.Bones[i].Translation, pose.Bones[i].Translation)
		}
		if gotPose.Bones[i].Rotation.Dot(pose.Bones[i].Rotation) < 1-epsilon {
			t.Errorf("bone %d rotation = %v, want %v", i, gotPose.Bones[i].Rotation, pose.Bones[i].Rotation)
		}
	}

	spineTranslations := gotAnimation.Bones[1].Translations
	if len(spineTranslations) != 2 {
		t.Fatalf("spine has %d translation keys, want 2", len(spineTranslations))
	}
	if !almostEqualV3(spineTranslations[1].Value, mgl.Vec3{0, 2, 0}) {
		t.Errorf("spine key 1 = %v, want (0,2,0)", spineTranslations[1].Value)
	}
	if !gotAnimation.Bones[0].IsEmpty() {
		t.Error("root animated bone should be empty")
	}
}

func TestSizeMismatchOnToGombz(t *testing.T) {
	pose := samplePose()
	_, err := ToGombz(pose, rig.Animation{Bones: []rig.AnimatedBone{{}}})
	if err == nil {
		t.Fatal("expected an error for mismatched bone counts")
	}
}
