// Copyright 2016, Timothy Bogdala <tdb@animal-machine.com>
// See the LICENSE file for more details.

package track

import (
	"errors"
	"testing"

	mgl "github.com/go-gl/mathgl/mgl32"

	"github.com/tbogdala/retarget/rig"
)

func vec3Track(pairs ...any) Track[mgl.Vec3] {
	keyframes := make([]rig.Keyframe[mgl.Vec3], 0, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		keyframes = append(keyframes, rig.Keyframe[mgl.Vec3]{
			Time:  pairs[i].(float64),
			Value: pairs[i+1].(mgl.Vec3),
		})
	}
	return New(keyframes, LerpVec3)
}

func TestEmptyTrackEvaluateFails(t *testing.T) {
	var empty Track[mgl.Vec3]
	_, err := empty.Evaluate(0)
	if !errors.Is(err, rig.ErrEmptyTrack) {
		t.Fatalf("Evaluate on empty track: got err=%v, want ErrEmptyTrack", err)
	}
	if !empty.IsEmpty() {
		t.Fatal("expected IsEmpty true")
	}
}

func TestEvaluateDefaultOnEmpty(t *testing.T) {
	var empty Track[mgl.Vec3]
	def := mgl.Vec3{1, 2, 3}
	got := empty.EvaluateDefault(5, def)
	if got != def {
		t.Fatalf("EvaluateDefault = %v, want %v", got, def)
	}
}

func TestClampBeforeFirstKeyframe(t *testing.T) {
	tr := vec3Track(1.0, mgl.Vec3{1, 0, 0}, 2.0, mgl.Vec3{2, 0, 0})
	got, err := tr.Evaluate(0)
	if err != nil {
		t.Fatal(err)
	}
	if want := (mgl.Vec3{1, 0, 0}); got != want {
		t.Errorf("Evaluate before first key = %v, want %v", got, want)
	}
}

func TestClampAfterLastKeyframe(t *testing.T) {
	tr := vec3Track(1.0, mgl.Vec3{1, 0, 0}, 2.0, mgl.Vec3{2, 0, 0})
	got, err := tr.Evaluate(10)
	if err != nil {
		t.Fatal(err)
	}
	if want := (mgl.Vec3{2, 0, 0}); got != want {
		t.Errorf("Evaluate after last key = %v, want %v", got, want)
	}
}

func TestInterpolateMidway(t *testing.T) {
	tr := vec3Track(0.0, mgl.Vec3{0, 0, 0}, 2.0, mgl.Vec3{2, 0, 0})
	got, err := tr.Evaluate(1)
	if err != nil {
		t.Fatal(err)
	}
	if want := (mgl.Vec3{1, 0, 0}); got != want {
		t.Errorf("Evaluate midway = %v, want %v", got, want)
	}
}

func TestSingleKeyframeReturnsItRegardlessOfTime(t *testing.T) {
	tr := vec3Track(5.0, mgl.Vec3{9, 9, 9})
	for _, query := range []float64{-100, 0, 5, 100} {
		got, err := tr.Evaluate(query)
		if err != nil {
			t.Fatal(err)
		}
		if want := (mgl.Vec3{9, 9, 9}); got != want {
			t.Errorf("Evaluate(%v) = %v, want %v", query, got, want)
		}
	}
}

func TestSetValuesLengthMismatch(t *testing.T) {
	tr := vec3Track(0.0, mgl.Vec3{}, 1.0, mgl.Vec3{})
	err := tr.SetValues([]mgl.Vec3{{1, 1, 1}})
	if !errors.Is(err, rig.ErrLengthMismatch) {
		t.Fatalf("SetValues with wrong length: got err=%v, want ErrLengthMismatch", err)
	}
}

func TestSetValuesPreservesTimes(t *testing.T) {
	tr := vec3Track(0.0, mgl.Vec3{0, 0, 0}, 1.0, mgl.Vec3{1, 1, 1})
	wantTimes := tr.Times()

	err := tr.SetValues([]mgl.Vec3{{5, 5, 5}, {6, 6, 6}})
	if err != nil {
		t.Fatal(err)
	}
	if got := tr.Times(); got[0] != wantTimes[0] || got[1] != wantTimes[1] {
		t.Errorf("SetValues changed times: got %v, want %v", got, wantTimes)
	}
	if got := tr.Values(); got[0] != (mgl.Vec3{5, 5, 5}) || got[1] != (mgl.Vec3{6, 6, 6}) {
		t.Errorf("SetValues did not apply new values: got %v", got)
	}
}

func TestDurationOfEmptyTrackIsZero(t *testing.T) {
	var empty Track[mgl.Vec3]
	if empty.Duration() != 0 {
		t.Errorf("Duration of empty track = %v, want 0", empty.Duration())
	}
}

func TestQuatTrackSlerps(t *testing.T) {
	q0 := mgl.QuatIdent()
	q1 := mgl.QuatRotate(3.14159/2, mgl.Vec3{0, 1, 0})
	tr := New([]rig.Keyframe[mgl.Quat]{
		{Time: 0, Value: q0},
		{Time: 1, Value: q1},
	}, SlerpQuat)

	mid, err := tr.Evaluate(0.5)
	if err != nil {
		t.Fatal(err)
	}
	if mid.Dot(q0) < 0.5 || mid.Dot(q1) < 0.5 {
		t.Errorf("midpoint slerp %v is not between q0 and q1", mid)
	}
}
