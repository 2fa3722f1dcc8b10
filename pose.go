package dollygrip

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Pose is a rigid transform: a position and a unit orientation quaternion.
//
// Poses are what the interpolator consumes as keyframe input and produces as
// dense path output. A pose composes into a 4x4 transform for consumers that
// drive a camera or scene-graph node directly.
type Pose struct {
	Position    mgl32.Vec3
	Orientation mgl32.Quat
}

// IdentityPose returns a pose at the origin with no rotation.
func IdentityPose() Pose {
	return Pose{Orientation: mgl32.QuatIdent()}
}

// Matrix composes the pose into a 4x4 transform (rotation then translation).
func (p Pose) Matrix() mgl32.Mat4 {
	t := p.Position
	return mgl32.Translate3D(t.X(), t.Y(), t.Z()).Mul4(p.Orientation.Mat4())
}

// PoseSink receives poses streamed by the playback driver.
//
// The sink is called once per delivered frame on the playback worker
// goroutine, never on the caller's goroutine. Implementations that touch
// shared state must synchronize internally.
type PoseSink interface {
	SetPose(position mgl32.Vec3, orientation mgl32.Quat)
}

// PoseSinkFunc adapts a plain function to the PoseSink interface.
type PoseSinkFunc func(position mgl32.Vec3, orientation mgl32.Quat)

// SetPose calls the wrapped function.
func (f PoseSinkFunc) SetPose(position mgl32.Vec3, orientation mgl32.Quat) {
	f(position, orientation)
}
