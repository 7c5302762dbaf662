// Copyright 2016, Timothy Bogdala <tdb@animal-machine.com>
// See the LICENSE file for more details.

// Package mathx is the math kernel: quaternion/vector/matrix operations
// needed by the track, skeleton and retarget packages. It is a thin
// wrapper over github.com/go-gl/mathgl/mgl32, the same vector math
// dependency the original skeleton evaluator used, rather than a
// reimplementation of linear algebra from scratch.
package mathx

import (
	"math"

	mgl "github.com/go-gl/mathgl/mgl32"
)

// parallelEpsilon is how close two normalized vectors' dot product needs
// to be to +/-1 to be treated as parallel/antiparallel.
const parallelEpsilon = 1e-6

// QuatBetween returns the unit quaternion that rotates a onto b. Both
// vectors are normalized internally; they must be non-zero. If a and b
// are parallel, the identity quaternion is returned. If they are
// antiparallel, a 180 degree rotation about the axis most orthogonal to a
// is returned — chosen deterministically so ties resolve the same way on
// every call.
func QuatBetween(a, b mgl.Vec3) mgl.Quat {
	an := a.Normalize()
	bn := b.Normalize()

	dot := an.Dot(bn)
	switch {
	case dot >= 1-parallelEpsilon:
		return mgl.QuatIdent()
	case dot <= -1+parallelEpsilon:
		axis := orthogonalAxis(an)
		return mgl.QuatRotate(math.Pi, axis)
	}

	return mgl.QuatBetweenVectors(an, bn)
}

// orthogonalAxis returns a unit vector orthogonal to v, chosen
// deterministically: the world axis least aligned with v is crossed with
// v to produce the rotation axis for the antiparallel case of
// QuatBetween.
func orthogonalAxis(v mgl.Vec3) mgl.Vec3 {
	axes := [3]mgl.Vec3{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}

	best := 0
	bestAbsDot := float32(math.MaxFloat32)
	for i, axis := range axes {
		d := float32(math.Abs(float64(v.Dot(axis))))
		if d < bestAbsDot {
			bestAbsDot = d
			best = i
		}
	}

	return v.Cross(axes[best]).Normalize()
}

// Slerp performs shortest-arc spherical linear interpolation between two
// unit quaternions. t is not required to be pre-clamped; callers that
// need clamping (e.g. track evaluation) clamp before calling.
func Slerp(q0, q1 mgl.Quat, t float32) mgl.Quat {
	if q0.Dot(q1) < 0 {
		q1 = q1.Scale(-1)
	}
	return mgl.QuatSlerp(q0, q1, t)
}

// Lerp performs componentwise linear interpolation between two vectors.
func Lerp(a, b mgl.Vec3, t float32) mgl.Vec3 {
	return a.Add(b.Sub(a).Mul(t))
}

// ComposeAffine builds the 4x4 affine matrix T*R*S: translate after
// rotate after scale.
func ComposeAffine(scale mgl.Vec3, rotation mgl.Quat, translation mgl.Vec3) mgl.Mat4 {
	s := mgl.Scale3D(scale.X(), scale.Y(), scale.Z())
	r := rotation.Mat4()
	t := mgl.Translate3D(translation.X(), translation.Y(), translation.Z())
	return t.Mul4(r).Mul4(s)
}

// DecomposeAffine extracts (scale, rotation, translation) from an affine
// matrix with no shear or projection, such that
// ComposeAffine(scale, rotation, translation) reproduces m.
func DecomposeAffine(m mgl.Mat4) (scale mgl.Vec3, rotation mgl.Quat, translation mgl.Vec3) {
	translation = mgl.Vec3{m[12], m[13], m[14]}

	col0 := mgl.Vec3{m[0], m[1], m[2]}
	col1 := mgl.Vec3{m[4], m[5], m[6]}
	col2 := mgl.Vec3{m[8], m[9], m[10]}

	scale = mgl.Vec3{col0.Len(), col1.Len(), col2.Len()}

	if scale.X() != 0 {
		col0 = col0.Mul(1 / scale.X())
	}
	if scale.Y() != 0 {
		col1 = col1.Mul(1 / scale.Y())
	}
	if scale.Z() != 0 {
		col2 = col2.Mul(1 / scale.Z())
	}

	rotMat := mgl.Mat3{
		col0.X(), col0.Y(), col0.Z(),
		col1.X(), col1.Y(), col1.Z(),
		col2.X(), col2.Y(), col2.Z(),
	}
	rotation = mgl.Mat3ToQuat(rotMat)

	return scale, rotation, translation
}

// RotateByQuat rotates a vector by a unit quaternion.
func RotateByQuat(q mgl.Quat, v mgl.Vec3) mgl.Vec3 {
	return q.Rotate(v)
}
