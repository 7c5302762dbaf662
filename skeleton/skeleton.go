// Copyright 2016, Timothy Bogdala <tdb@animal-machine.com>
// See the LICENSE file for more details.

// Package skeleton holds a bone hierarchy and per-bone animation tracks
// and, on each tick, computes per-bone global and skinning transforms.
// This generalizes the teacher's Skeleton type (bones, animation,
// per-frame pose/local/global transforms) from a single hardcoded
// animation to arbitrary installed tracks, and from pointer-chased
// parents to index-based ones, per spec §9.
package skeleton

import (
	"fmt"

	mgl "github.com/go-gl/mathgl/mgl32"
	"github.com/tbogdala/groggy"

	"github.com/tbogdala/retarget/mathx"
	"github.com/tbogdala/retarget/rig"
	"github.com/tbogdala/retarget/track"
)

// bone is the skeleton's internal, evaluator-owned bone record: pose data
// plus the per-tick derived state. The skeleton exclusively owns its
// bones; nothing outside this package ever holds a pointer to one.
type bone struct {
	name   string
	parent int

	bindScale       mgl.Vec3
	bindRotation    mgl.Quat
	bindTranslation mgl.Vec3

	scaleTrack       track.Track[mgl.Vec3]
	rotationTrack    track.Track[mgl.Quat]
	translationTrack track.Track[mgl.Vec3]

	inverseBind mgl.Mat4
	global      mgl.Mat4
	skinning    mgl.Mat4
}

// Skeleton is a long-lived bone hierarchy whose per-frame outputs are
// re-derived from its tracks and the current time on every Tick.
type Skeleton struct {
	bones []bone

	warnedPastDuration bool
}

// New constructs a skeleton from a bind pose. It is equivalent to
// creating a zero-value Skeleton and calling InstallBindPose.
func New(pose rig.Pose) (*Skeleton, error) {
	s := &Skeleton{}
	if err := s.InstallBindPose(pose); err != nil {
		return nil, err
	}
	return s, nil
}

// BoneCount returns the number of bones in the skeleton.
func (s *Skeleton) BoneCount() int {
	return len(s.bones)
}

// InstallBindPose sets each bone's local bind scale/rotation/translation
// from pose, then recomputes every bone's global bind transform in
// topological order and caches each inverse-bind transform. It fails
// with rig.ErrInvalidPose if pose violates the topological-order or
// unique-name invariants.
func (s *Skeleton) InstallBindPose(pose rig.Pose) error {
	if err := rig.ValidatePose(pose); err != nil {
		return fmt.Errorf("skeleton: install bind pose: %w", err)
	}

	bones := make([]bone, len(pose.Bones))
	for i, pb := range pose.Bones {
		bones[i] = bone{
			name:            pb.Name,
			parent:          pb.Parent,
			bindScale:       pb.Scale,
			bindRotation:    pb.Rotation,
			bindTranslation: pb.Translation,
		}
	}

	for i := range bones {
		local := mathx.ComposeAffine(bones[i].bindScale, bones[i].bindRotation, bones[i].bindTranslation)

		var global mgl.Mat4
		if bones[i].parent == rig.NoParent {
			global = local
		} else {
			global = bones[bones[i].parent].global.Mul4(local)
		}

		bones[i].global = global
		bones[i].inverseBind = global.Inv()
	}

	s.bones = bones
	s.warnedPastDuration = false
	return nil
}

// InstallAnimation replaces every bone's three tracks with new tracks
// built from animation's keyframes, times and values both; keyframe times
// the previous tracks had are not kept. Tracks start empty until the
// first call. It fails with rig.ErrLengthMismatch if animation's bone
// count differs from the skeleton's.
func (s *Skeleton) InstallAnimation(animation rig.Animation) error {
	if len(animation.Bones) != len(s.bones) {
		return fmt.Errorf("skeleton: install animation: have %d bones, got %d: %w",
			len(s.bones), len(animation.Bones), rig.ErrLengthMismatch)
	}

	for i, ab := range animation.Bones {
		s.bones[i].scaleTrack = track.New(ab.Scales, track.LerpVec3)
		s.bones[i].rotationTrack = track.New(ab.Rotations, track.SlerpQuat)
		s.bones[i].translationTrack = track.New(ab.Translations, track.LerpVec3)

		if ab.IsEmpty() {
			groggy.Logsf("DEBUG", "skeleton: bone %q has no animation track, will hold its bind pose", s.bones[i].name)
		}
	}

	return nil
}

// ExtractPose returns the skeleton's current bind pose.
func (s *Skeleton) ExtractPose() rig.Pose {
	pose := rig.Pose{Bones: make([]rig.PoseBone, len(s.bones))}
	for i, b := range s.bones {
		pose.Bones[i] = rig.PoseBone{
			Name:        b.name,
			Parent:      b.parent,
			Scale:       b.bindScale,
			Rotation:    b.bindRotation,
			Translation: b.bindTranslation,
		}
	}
	return pose
}

// ExtractAnimation returns the skeleton's currently installed animation.
func (s *Skeleton) ExtractAnimation() rig.Animation {
	animation := rig.Animation{Bones: make([]rig.AnimatedBone, len(s.bones))}
	for i, b := range s.bones {
		animation.Bones[i] = rig.AnimatedBone{
			Scales:       b.scaleTrack.Keyframes(),
			Rotations:    b.rotationTrack.Keyframes(),
			Translations: b.translationTrack.Keyframes(),
		}
	}
	return animation
}

// maxDuration returns the longest track duration across every bone and
// channel, used only to decide whether to log the one-time past-duration
// warning in Tick.
func (s *Skeleton) maxDuration() float64 {
	max := 0.0
	for _, b := range s.bones {
		for _, d := range [3]float64{b.scaleTrack.Duration(), b.rotationTrack.Duration(), b.translationTrack.Duration()} {
			if d > max {
				max = d
			}
		}
	}
	return max
}

// Tick evaluates every bone's tracks at time and recomputes local,
// global and skinning transforms in topological order. Looping is the
// caller's responsibility: Tick does not wrap time against track
// duration, per spec §4.3.
func (s *Skeleton) Tick(time float64) {
	if !s.warnedPastDuration && time > s.maxDuration() {
		groggy.Logsf("WARN", "skeleton: tick time %v is past every track's duration (%v); caller is responsible for looping", time, s.maxDuration())
		s.warnedPastDuration = true
	}

	for i := range s.bones {
		b := &s.bones[i]

		scale := b.scaleTrack.EvaluateDefault(time, b.bindScale)
		rotation := b.rotationTrack.EvaluateDefault(time, b.bindRotation)
		translation := b.translationTrack.EvaluateDefault(time, b.bindTranslation)

		local := mathx.ComposeAffine(scale, rotation, translation)

		if b.parent == rig.NoParent {
			b.global = local
		} else {
			b.global = s.bones[b.parent].global.Mul4(local)
		}

		b.skinning = b.global.Mul4(b.inverseBind)
	}
}

// SkinningMatrices returns the dense, bone-id-indexed array of skinning
// matrices computed by the last Tick call. This is what an external
// renderer consumes.
func (s *Skeleton) SkinningMatrices() []mgl.Mat4 {
	out := make([]mgl.Mat4, len(s.bones))
	for i, b := range s.bones {
		out[i] = b.skinning
	}
	return out
}

// GlobalTransforms returns the dense, bone-id-indexed array of global
// transforms computed by the last Tick call (or InstallBindPose, before
// the first Tick).
func (s *Skeleton) GlobalTransforms() []mgl.Mat4 {
	out := make([]mgl.Mat4, len(s.bones))
	for i, b := range s.bones {
		out[i] = b.global
	}
	return out
}
