package dollygrip

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// timeEpsilon guards the interpolation parameter against coincident keyframe
// times.
const timeEpsilon = 1e-6

// bracket holds the four keyframe indices feeding one spline evaluation:
// k1 and k2 bracket the query time, k0 and k3 are their outer neighbors,
// all clamped to the sequence bounds.
type bracket struct {
	k0, k1, k2, k3 int
}

// relatedKeyFrames locates the bracketing keyframes for time t.
//
// The search walks from hint: backward while the keyframe time exceeds t,
// then forward while it is below t. During a full sampling pass queries
// arrive in increasing time order, so passing the previous result's k1 as
// the hint makes each step O(1).
//
// Assumes keys is non-empty and time-monotonic.
func relatedKeyFrames(keys []KeyFrame, t float32, hint int) bracket {
	last := len(keys) - 1

	i := hint
	if i < 0 {
		i = 0
	}
	if i > last {
		i = last
	}

	for i > 0 && keys[i].Time > t {
		i--
	}

	j := i
	for j < last && keys[j].Time < t {
		j++
	}

	i = j
	if i > 0 && t < keys[j].Time {
		i--
	}

	k0 := i
	if k0 > 0 {
		k0--
	}
	k3 := j
	if k3 < last {
		k3++
	}

	return bracket{k0: k0, k1: i, k2: j, k3: k3}
}

// splineControl computes the cubic Hermite control vectors for the segment
// between k1 and k2:
//
//	v1 = 3*delta - 2*T1 - T2
//	v2 = -2*delta + T1 + T2
func splineControl(k1, k2 *KeyFrame) (v1, v2 mgl32.Vec3) {
	delta := k2.Position.Sub(k1.Position)
	v1 = delta.Mul(3).Sub(k1.tangentPos.Mul(2)).Sub(k2.tangentPos)
	v2 = k1.tangentPos.Add(k2.tangentPos).Sub(delta.Mul(2))
	return v1, v2
}

// poseAtTime evaluates the spline at time t within the given bracket: cubic
// Hermite in Horner form for position, squad for orientation.
func poseAtTime(keys []KeyFrame, t float32, br bracket) Pose {
	k1 := &keys[br.k1]
	k2 := &keys[br.k2]

	v1, v2 := splineControl(k1, k2)

	var alpha float32
	dt := k2.Time - k1.Time
	if math32.Abs(dt) >= timeEpsilon {
		alpha = (t - k1.Time) / dt
	}

	pos := k1.Position.Add(
		k1.tangentPos.Add(v1.Add(v2.Mul(alpha)).Mul(alpha)).Mul(alpha))
	q := squad(k1.Orientation, k1.tangentQuat, k2.tangentQuat, k2.Orientation, alpha)

	return Pose{Position: pos, Orientation: q}
}

// updateTangents rewrites the derived state of every keyframe: one pass to
// pick a continuous orientation sign, one pass to compute tangents with
// clamped endpoint neighbors.
func updateTangents(keys []KeyFrame) {
	if len(keys) == 0 {
		return
	}

	prevQ := keys[0].Orientation
	for i := range keys {
		keys[i].flipOrientationIfNeeded(prevQ)
		prevQ = keys[i].Orientation
	}

	last := len(keys) - 1
	for i := range keys {
		prev := i - 1
		if prev < 0 {
			prev = 0
		}
		next := i + 1
		if next > last {
			next = last
		}
		keys[i].computeTangent(&keys[prev], &keys[next])
	}
}
