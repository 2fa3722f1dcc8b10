package dollygrip

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// KeyFrame is a pose pinned to a point in time, plus the derived tangents
// that shape the curve through it.
//
// Tangents are never supplied by callers; they are recomputed for the whole
// sequence whenever neighboring keyframes change. KeyFrames are owned by
// value inside a Track and are not aliased externally.
type KeyFrame struct {
	Position    mgl32.Vec3
	Orientation mgl32.Quat
	Time        float32

	tangentPos  mgl32.Vec3
	tangentQuat mgl32.Quat
}

func newKeyFrame(pose Pose, time float32) KeyFrame {
	return KeyFrame{
		Position:    pose.Position,
		Orientation: pose.Orientation,
		Time:        time,
		tangentQuat: mgl32.QuatIdent(),
	}
}

// Pose returns the keyframe's pose without its derived state.
func (k *KeyFrame) Pose() Pose {
	return Pose{Position: k.Position, Orientation: k.Orientation}
}

// flipOrientationIfNeeded negates the orientation when it sits on the
// opposite hemisphere from prev. q and -q encode the same rotation, but
// squad needs a continuous choice of sign or the path takes the long way
// around.
func (k *KeyFrame) flipOrientationIfNeeded(prev mgl32.Quat) {
	if prev.Dot(k.Orientation) < 0 {
		k.Orientation = negated(k.Orientation)
	}
}

// computeTangent derives the position and orientation tangents from the two
// neighbors. Endpoints pass themselves as the missing neighbor, which clamps
// the tangent naturally.
//
// Consecutive segments can differ a lot in length. The raw Catmull-Rom
// tangent 0.5*(next-prev) overshoots on the short side, so the farther
// neighbor is replaced by a virtual point at the shorter segment's distance
// along the same direction before the tangent is taken.
func (k *KeyFrame) computeTangent(prev, next *KeyFrame) {
	sdPrev := sqDist(prev.Position, k.Position)
	sdNext := sqDist(next.Position, k.Position)

	if sdPrev < sdNext {
		virtualNext := k.Position.Add(direction(k.Position, next.Position).Mul(math32.Sqrt(sdPrev)))
		k.tangentPos = virtualNext.Sub(prev.Position).Mul(0.5)
	} else {
		virtualPrev := k.Position.Add(direction(k.Position, prev.Position).Mul(math32.Sqrt(sdNext)))
		k.tangentPos = next.Position.Sub(virtualPrev).Mul(0.5)
	}

	k.tangentQuat = squadTangent(prev.Orientation, k.Orientation, next.Orientation)
}

func sqDist(a, b mgl32.Vec3) float32 {
	d := a.Sub(b)
	return d.Dot(d)
}

func dist(a, b mgl32.Vec3) float32 {
	return math32.Sqrt(sqDist(a, b))
}

// direction returns the unit vector from a towards b, or the zero vector for
// coincident points. The zero fallback keeps coincident keyframes from
// producing NaN tangents.
func direction(a, b mgl32.Vec3) mgl32.Vec3 {
	d := b.Sub(a)
	length := d.Len()
	if length < quatEpsilon {
		return mgl32.Vec3{}
	}
	return d.Mul(1 / length)
}
