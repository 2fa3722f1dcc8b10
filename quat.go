package dollygrip

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// Quaternion helpers for spherical spline (squad) interpolation. mathgl
// covers the algebra (products, inverses, normalization); the spline-specific
// pieces - sign-aware slerp, log/exp maps, squad and its tangents - live
// here.

const quatEpsilon = 1e-6

// slerp spherically interpolates from a to b at parameter t.
//
// When allowFlip is set, b is negated if that gives the shorter arc. Squad
// tangent interpolation must not flip: the orientation continuity pass has
// already chosen a consistent sign for the whole sequence, and flipping
// per-call would reintroduce the discontinuity it removed.
func slerp(a, b mgl32.Quat, t float32, allowFlip bool) mgl32.Quat {
	cosAngle := a.Dot(b)

	var c1, c2 float32
	// Near-aligned quaternions: linear blend avoids sin(angle) ~ 0.
	if 1.0-math32.Abs(cosAngle) < 0.01 {
		c1 = 1.0 - t
		c2 = t
	} else {
		angle := math32.Acos(math32.Abs(cosAngle))
		sinAngle := math32.Sin(angle)
		c1 = math32.Sin(angle*(1.0-t)) / sinAngle
		c2 = math32.Sin(angle*t) / sinAngle
	}

	if allowFlip && cosAngle < 0 {
		c2 = -c2
	}

	return mgl32.Quat{
		W: c1*a.W + c2*b.W,
		V: a.V.Mul(c1).Add(b.V.Mul(c2)),
	}
}

// quatLog maps a unit quaternion to its tangent-space vector (a pure
// quaternion with zero scalar part).
func quatLog(q mgl32.Quat) mgl32.Quat {
	length := q.V.Len()
	if length < quatEpsilon {
		return mgl32.Quat{W: 0, V: q.V}
	}
	coef := math32.Acos(mgl32.Clamp(q.W, -1, 1)) / length
	return mgl32.Quat{W: 0, V: q.V.Mul(coef)}
}

// quatExp maps a tangent-space vector back to a unit quaternion.
func quatExp(q mgl32.Quat) mgl32.Quat {
	theta := q.V.Len()
	if theta < quatEpsilon {
		return mgl32.Quat{W: math32.Cos(theta), V: q.V}
	}
	coef := math32.Sin(theta) / theta
	return mgl32.Quat{W: math32.Cos(theta), V: q.V.Mul(coef)}
}

// logDif returns log(a^-1 * b), the rotation carrying a onto b expressed in
// tangent space.
func logDif(a, b mgl32.Quat) mgl32.Quat {
	dif := a.Inverse().Mul(b)
	return quatLog(dif.Normalize())
}

// squadTangent computes the squad control quaternion at center given its
// neighbors, the standard intermediate
//
//	center * exp(-(log(center^-1 before) + log(center^-1 after)) / 4)
//
// which yields C1 continuity across segments.
func squadTangent(before, center, after mgl32.Quat) mgl32.Quat {
	l1 := logDif(center, before)
	l2 := logDif(center, after)
	e := mgl32.Quat{
		W: -(l1.W + l2.W) / 4,
		V: l1.V.Add(l2.V).Mul(-0.25),
	}
	return center.Mul(quatExp(e))
}

// squad performs spherical quadrangle interpolation between a and b with
// control quaternions tgA and tgB at parameter t in [0,1].
func squad(a, tgA, tgB, b mgl32.Quat, t float32) mgl32.Quat {
	ab := slerp(a, b, t, true)
	tg := slerp(tgA, tgB, t, false)
	return slerp(ab, tg, 2*t*(1-t), false)
}

// negated returns -q, the same rotation with the opposite sign.
func negated(q mgl32.Quat) mgl32.Quat {
	return q.Scale(-1)
}
