// Copyright 2016, Timothy Bogdala <tdb@animal-machine.com>
// See the LICENSE file for more details.

// Package rig defines the bone/pose/animation data model shared by the
// skeleton evaluator and the retargeter. Every type here is plain data:
// nothing in this package touches a GPU, a window, or a file.
package rig

import (
	"errors"

	mgl "github.com/go-gl/mathgl/mgl32"
)

// NoParent is the sentinel parent index for a root bone.
const NoParent = -1

// Sentinel error kinds. ValidatePose returns ErrInvalidPose as is; other
// producing sites wrap these with fmt.Errorf and "%w". Either way callers
// can tell them apart with errors.Is.
var (
	// ErrSizeMismatch is returned when a source animation's bone count
	// does not match its associated source pose's bone count.
	ErrSizeMismatch = errors.New("rig: animation bone count does not match pose bone count")

	// ErrLengthMismatch is returned when a value slice handed to
	// Track.SetValues does not match the track's keyframe count, or
	// when an animation's bone count does not match a skeleton's.
	ErrLengthMismatch = errors.New("rig: length mismatch")

	// ErrInvalidPose is returned when a pose violates the topological-
	// order or unique-name invariants.
	ErrInvalidPose = errors.New("rig: invalid pose")

	// ErrEmptyTrack is returned by Track.Evaluate when the track has no
	// keyframes and no default value was supplied.
	ErrEmptyTrack = errors.New("rig: evaluate called on an empty track")
)

// Keyframe is a single (time, value) sample of an animation channel.
type Keyframe[V any] struct {
	Time  float64
	Value V
}

// PoseBone is one bone's bind-pose data: its name, its parent (by index,
// never by pointer — this is what makes Pose serializable), and its local
// bind scale/rotation/translation.
type PoseBone struct {
	Name   string
	Parent int

	Scale       mgl.Vec3
	Rotation    mgl.Quat
	Translation mgl.Vec3
}

// Pose is an ordered sequence of bones in topological order (parents
// strictly precede children).
type Pose struct {
	Bones []PoseBone
}

// Clone returns a deep copy of the pose.
func (p Pose) Clone() Pose {
	out := Pose{Bones: make([]PoseBone, len(p.Bones))}
	copy(out.Bones, p.Bones)
	return out
}

// AnimatedBone holds the three keyframe channels for one bone. Any of the
// three may be empty, meaning the bone is static for that channel.
type AnimatedBone struct {
	Scales       []Keyframe[mgl.Vec3]
	Rotations    []Keyframe[mgl.Quat]
	Translations []Keyframe[mgl.Vec3]
}

// IsEmpty reports whether all three channels are empty.
func (b AnimatedBone) IsEmpty() bool {
	return len(b.Scales) == 0 && len(b.Rotations) == 0 && len(b.Translations) == 0
}

// Animation is an ordered sequence of animated bones, index-aligned with
// the Pose it was authored against.
type Animation struct {
	Bones []AnimatedBone
}

// RetargetResult is the output of Retarget: an animation and a bind pose,
// matching in length and bone order.
type RetargetResult struct {
	Animation Animation
	BindPose  Pose
}

// ValidatePose checks the invariants from spec §3: bones are in
// topological order (every non-sentinel parent index is strictly less
// than the bone's own index) and names are unique. It does not check
// quaternion normalization; callers that construct PoseBone by hand are
// expected to supply unit quaternions, and every core operation that
// derives a rotation (QuatBetween, Slerp, bake-rotations' products of
// unit quaternions) preserves that invariant by construction.
func ValidatePose(pose Pose) error {
	seen := make(map[string]struct{}, len(pose.Bones))
	for i, bone := range pose.Bones {
		if bone.Name == "" {
			return ErrInvalidPose
		}
		if bone.Parent != NoParent && bone.Parent >= i {
			return ErrInvalidPose
		}
		if _, dup := seen[bone.Name]; dup {
			return ErrInvalidPose
		}
		seen[bone.Name] = struct{}{}
	}
	return nil
}

// BoneByName returns the index of the bone with the given name, or -1 if
// no bone in the pose has that name. Matching is case-sensitive and
// total-string: trimming of namespace prefixes or other import-time
// hygiene is the importer's responsibility, not this package's.
func (p Pose) BoneByName(name string) int {
	for i, bone := range p.Bones {
		if bone.Name == name {
			return i
		}
	}
	return -1
}
