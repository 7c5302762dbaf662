// Copyright 2016, Timothy Bogdala <tdb@animal-machine.com>
// See the LICENSE file for more details.

// Package track implements the keyframed, time-indexed animation channel
// described in spec §4.2: construction from sorted keyframes, duration,
// evaluation at an arbitrary time with clamping at the ends, and
// value-only extraction/replacement (Values, SetValues).
package track

import (
	"fmt"

	mgl "github.com/go-gl/mathgl/mgl32"

	"github.com/tbogdala/retarget/mathx"
	"github.com/tbogdala/retarget/rig"
)

// Interpolator blends two values of a track's value type. Vec3 tracks use
// linear interpolation; quaternion tracks use slerp. This is the "tagged
// value kind" design note from spec §9 expressed as a constructor
// parameter rather than a type switch, so Track[V] stays a single
// generic type for both channel kinds.
type Interpolator[V any] func(a, b V, u float32) V

// Track is a keyframed, time-indexed sequence of values of a single
// value type V (mgl.Vec3 or mgl.Quat in practice).
type Track[V any] struct {
	keyframes   []rig.Keyframe[V]
	interpolate Interpolator[V]
}

// LerpVec3 linearly interpolates two 3-vectors; the Interpolator for
// translation and scale tracks.
func LerpVec3(a, b mgl.Vec3, u float32) mgl.Vec3 {
	return mathx.Lerp(a, b, u)
}

// SlerpQuat spherically interpolates two unit quaternions; the
// Interpolator for rotation tracks.
func SlerpQuat(a, b mgl.Quat, u float32) mgl.Quat {
	return mathx.Slerp(a, b, u)
}

// New constructs a track from a keyframe list. Times are assumed strictly
// increasing, or the slice may be empty (a static bone for this channel).
// Times are never validated here — the importer is trusted to have sorted
// them, per spec §6.
func New[V any](keyframes []rig.Keyframe[V], interpolate Interpolator[V]) Track[V] {
	return Track[V]{keyframes: keyframes, interpolate: interpolate}
}

// IsEmpty reports whether the track has no keyframes.
func (t Track[V]) IsEmpty() bool {
	return len(t.keyframes) == 0
}

// Len returns the number of keyframes.
func (t Track[V]) Len() int {
	return len(t.keyframes)
}

// Duration returns the last keyframe's time, or zero if the track is
// empty.
func (t Track[V]) Duration() float64 {
	if len(t.keyframes) == 0 {
		return 0
	}
	return t.keyframes[len(t.keyframes)-1].Time
}

// Evaluate returns the interpolated value at the given time. It fails
// with rig.ErrEmptyTrack if the track has no keyframes.
func (t Track[V]) Evaluate(time float64) (V, error) {
	if len(t.keyframes) == 0 {
		var zero V
		return zero, fmt.Errorf("track: evaluate at t=%v: %w", time, rig.ErrEmptyTrack)
	}
	return t.evaluateNonEmpty(time), nil
}

// EvaluateDefault returns def when the track is empty, otherwise the
// interpolated value at time — equivalent to Evaluate but never fails.
func (t Track[V]) EvaluateDefault(time float64, def V) V {
	if len(t.keyframes) == 0 {
		return def
	}
	return t.evaluateNonEmpty(time)
}

// evaluateNonEmpty implements the interpolation rule from spec §4.2:
// find the first keyframe whose time is >= the query time. If that's the
// first keyframe, clamp to it. If none qualifies, clamp to the last
// keyframe. Otherwise interpolate between the neighboring pair.
func (t Track[V]) evaluateNonEmpty(time float64) V {
	end := -1
	for i, kf := range t.keyframes {
		if kf.Time >= time {
			end = i
			break
		}
	}

	if end == -1 {
		return t.keyframes[len(t.keyframes)-1].Value
	}
	if end == 0 {
		return t.keyframes[0].Value
	}

	start := t.keyframes[end-1]
	stop := t.keyframes[end]

	u := float32((time - start.Time) / (stop.Time - start.Time))
	if u < 0 {
		u = 0
	} else if u > 1 {
		u = 1
	}

	return t.interpolate(start.Value, stop.Value, u)
}

// Values returns the ordered sequence of keyframe values, times
// discarded.
func (t Track[V]) Values() []V {
	values := make([]V, len(t.keyframes))
	for i, kf := range t.keyframes {
		values[i] = kf.Value
	}
	return values
}

// Times returns the ordered sequence of keyframe times, values discarded.
// Retargeting never changes these; this accessor exists so callers can
// assert track-time preservation (spec §8, invariant 3).
func (t Track[V]) Times() []float64 {
	times := make([]float64, len(t.keyframes))
	for i, kf := range t.keyframes {
		times[i] = kf.Time
	}
	return times
}

// SetValues replaces each keyframe's value in index order, leaving times
// untouched. It fails with rig.ErrLengthMismatch if len(values) does not
// match the keyframe count.
func (t *Track[V]) SetValues(values []V) error {
	if len(values) != len(t.keyframes) {
		return fmt.Errorf("track: set values: have %d keyframes, got %d values: %w",
			len(t.keyframes), len(values), rig.ErrLengthMismatch)
	}
	for i, v := range values {
		t.keyframes[i].Value = v
	}
	return nil
}

// Keyframes returns the track's keyframe slice: the one given at
// construction time, with any values SetValues has replaced since.
func (t Track[V]) Keyframes() []rig.Keyframe[V] {
	return t.keyframes
}
