// Package dollygrip drives a virtual camera along a smooth path through
// timed keyframe poses.
//
// Like its namesake crew member - the dolly grip who pushes the camera
// smoothly down the track while the operator frames the shot - the package
// takes a handful of marks (keyframes) and turns them into one continuous,
// evenly paced move. Positions follow a piecewise cubic Catmull-Rom-style
// spline with per-segment tangent compensation; orientations follow
// spherical quadrangle (squad) interpolation. The dense path is re-sampled
// once through a smoothing pass and cached until a keyframe or a pacing
// setting changes.
//
// Basic usage:
//
//	grip := dollygrip.NewInterpolator().
//		WithFrameRate(30).
//		WithSpeed(1.0)
//
//	grip.AddKeyFrame(poseA) // auto-timed, distance-proportional
//	grip.AddKeyFrame(poseB)
//	grip.AddKeyFrame(poseC)
//
//	path := grip.Interpolate() // dense pose sequence, cached
//
// For real-time playback into a pose sink:
//
//	grip.OnPlaybackStopped(func() { close(done) })
//	grip.Play(camera) // delivers poses on a worker goroutine
//	...
//	grip.Stop() // resume later from the same frame with Play
package dollygrip

import (
	"log/slog"
	"sync"
	"time"

	"github.com/teranos/dollygrip/trip"
)

// Config configures an Interpolator's pacing and logging.
//
// Example usage:
//
//	config := dollygrip.Config{
//		FrameRate: 60,  // dense sampling at 60 fps
//		Speed:     2.0, // play the move at double pace
//	}
//	grip := dollygrip.NewInterpolatorWithConfig(config)
type Config struct {
	// FrameRate is the nominal playback rate in frames per second. It also
	// sets the dense sampling period. Must be positive.
	FrameRate int
	// Speed scales playback pace; higher is faster. Must be positive.
	Speed float32
	// Logger receives rejection and degeneracy reports. Defaults to
	// slog.Default().
	Logger *slog.Logger
}

// DefaultConfig returns a Config with the stock 30 fps frame rate and unit
// speed.
func DefaultConfig() Config {
	return Config{
		FrameRate: 30,
		Speed:     1.0,
	}
}

// Interpolator owns a keyframe track and produces the dense interpolated
// path, serving both one-shot interpolation and timed playback.
//
// The dense path is computed lazily and cached; any keyframe mutation or
// pacing change invalidates it. Playback runs on a dedicated worker
// goroutine (see Play). The path cache, resume index, and running flag are
// the only state shared with that worker and are mutex-guarded; concurrent
// keyframe mutation from multiple goroutines is the caller's to serialize.
type Interpolator struct {
	mu    sync.RWMutex
	track *Track

	frameRate int
	speed     float32

	path      []Pose
	pathValid bool

	// Playback state
	playing     bool
	resumeIndex int
	cancelPlay  func()
	playDone    chan struct{}

	onFrame   func(index int, pose Pose)
	onStopped func()

	logger *slog.Logger
	trips  *trip.Handler
}

// NewInterpolator creates an Interpolator with DefaultConfig.
func NewInterpolator() *Interpolator {
	return NewInterpolatorWithConfig(DefaultConfig())
}

// NewInterpolatorWithConfig creates an Interpolator with a custom config.
// Non-positive frame rate or speed fall back to the defaults.
func NewInterpolatorWithConfig(config Config) *Interpolator {
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	i := &Interpolator{
		track:     newTrack(logger),
		frameRate: 30,
		speed:     1.0,
		logger:    logger,
		trips:     trip.NewHandler("interpolator", nil),
	}

	if config.FrameRate > 0 {
		i.frameRate = config.FrameRate
	}
	if config.Speed > 0 {
		i.speed = config.Speed
	}

	return i
}

// WithFrameRate sets the frame rate and returns the interpolator for
// chaining. Invalid values are rejected and logged.
func (i *Interpolator) WithFrameRate(fps int) *Interpolator {
	i.SetFrameRate(fps)
	return i
}

// WithSpeed sets the playback speed and returns the interpolator for
// chaining. Invalid values are rejected and logged.
func (i *Interpolator) WithSpeed(speed float32) *Interpolator {
	i.SetSpeed(speed)
	return i
}

// WithLogger replaces the logger and returns the interpolator for chaining.
func (i *Interpolator) WithLogger(logger *slog.Logger) *Interpolator {
	if logger == nil {
		return i
	}
	i.mu.Lock()
	i.logger = logger
	i.track.logger = logger
	i.mu.Unlock()
	return i
}

// SetFrameRate changes the nominal frame rate, invalidating the cached path
// and rewinding the resume index (the new path renumbers every frame).
// Non-positive rates are rejected.
func (i *Interpolator) SetFrameRate(fps int) error {
	if fps <= 0 {
		err := trip.NewTrip(trip.KindPlayback, "frame rate must be positive", trip.Context{"fps": fps})
		i.trips.Record(err)
		i.logger.Error("rejected frame rate", "fps", fps)
		return err
	}
	i.mu.Lock()
	i.frameRate = fps
	i.invalidateLocked()
	i.mu.Unlock()
	return nil
}

// SetSpeed changes the playback speed multiplier, invalidating the cached
// path and rewinding the resume index. Non-positive speeds are rejected.
func (i *Interpolator) SetSpeed(speed float32) error {
	if speed <= 0 {
		err := trip.NewTrip(trip.KindPlayback, "speed must be positive", trip.Context{"speed": speed})
		i.trips.Record(err)
		i.logger.Error("rejected speed", "speed", speed)
		return err
	}
	i.mu.Lock()
	i.speed = speed
	i.invalidateLocked()
	i.mu.Unlock()
	return nil
}

// FrameRate returns the nominal playback rate in frames per second.
func (i *Interpolator) FrameRate() int {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.frameRate
}

// Speed returns the playback speed multiplier.
func (i *Interpolator) Speed() float32 {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.speed
}

// periodMillis is the nominal inter-frame interval in milliseconds.
func (i *Interpolator) periodMillis() float32 {
	return 1000.0 / float32(i.frameRate)
}

// sampleInterval is the dense sampling step in seconds of keyframe time.
func (i *Interpolator) sampleInterval() float32 {
	return (i.periodMillis() / 1000.0) / i.speed
}

// frameSleep is the real-time pause between delivered frames. The 0.9
// factor compensates for scheduling overhead so the realized rate tracks
// the nominal one.
func (i *Interpolator) frameSleep() time.Duration {
	return time.Duration(i.periodMillis() / i.speed * 0.9 * float32(time.Millisecond))
}

// AddKeyFrame appends an auto-timed keyframe: the first at time 0, the
// second at 1.0, later ones spaced proportionally to travel distance (see
// Track.Add). On success it invalidates the cached path and stops any
// running playback; a rejected keyframe leaves all state unchanged.
func (i *Interpolator) AddKeyFrame(pose Pose) error {
	i.mu.Lock()
	if err := i.track.Add(pose); err != nil {
		i.mu.Unlock()
		return err
	}
	i.mu.Unlock()

	i.stopAndInvalidate()
	return nil
}

// AddKeyFrameAt appends a keyframe at an explicit time, which must be
// strictly after the last keyframe's. On success it invalidates the cached
// path and stops any running playback; a rejected keyframe leaves all state
// unchanged.
func (i *Interpolator) AddKeyFrameAt(pose Pose, t float32) error {
	i.mu.Lock()
	if err := i.track.AddAt(pose, t); err != nil {
		i.mu.Unlock()
		return err
	}
	i.mu.Unlock()

	i.stopAndInvalidate()
	return nil
}

// RemoveLastKeyFrame drops the tail keyframe, stopping playback and
// invalidating the cached path. No-op on an empty track.
func (i *Interpolator) RemoveLastKeyFrame() {
	i.mu.Lock()
	i.track.RemoveLast()
	i.mu.Unlock()

	i.stopAndInvalidate()
}

// ClearKeyFrames stops playback and releases all keyframes and the cached
// path.
func (i *Interpolator) ClearKeyFrames() {
	i.mu.Lock()
	i.track.Clear()
	i.path = nil
	i.mu.Unlock()

	i.stopAndInvalidate()
}

// invalidateLocked marks the cached path stale and rewinds playback.
// Callers hold i.mu.
func (i *Interpolator) invalidateLocked() {
	i.pathValid = false
	i.resumeIndex = 0
}

// stopAndInvalidate winds down any running playback, then invalidates the
// cache. The order matters: the playback worker persists its own resume
// index as it exits, so invalidating first would be overwritten.
func (i *Interpolator) stopAndInvalidate() {
	i.Stop()
	i.mu.Lock()
	i.invalidateLocked()
	i.mu.Unlock()
}

// KeyFrameCount returns the number of keyframes on the track.
func (i *Interpolator) KeyFrameCount() int {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.track.Len()
}

// KeyFramePose returns the pose of the keyframe at index.
func (i *Interpolator) KeyFramePose(index int) (Pose, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.track.PoseAt(index)
}

// KeyFrameTime returns the time of the keyframe at index.
func (i *Interpolator) KeyFrameTime(index int) (float32, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.track.TimeAt(index)
}

// KeyFramePoses returns the keyframe poses in sequence order.
func (i *Interpolator) KeyFramePoses() []Pose {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.track.Poses()
}

// FirstTime returns the first keyframe's time, or 0 when empty.
func (i *Interpolator) FirstTime() float32 {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.track.FirstTime()
}

// LastTime returns the last keyframe's time, or 0 when empty.
func (i *Interpolator) LastTime() float32 {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.track.LastTime()
}

// Duration returns the keyframe time span.
func (i *Interpolator) Duration() float32 {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.track.Duration()
}

// Trips returns the handler collecting this interpolator's recorded issues.
func (i *Interpolator) Trips() *trip.Handler {
	return i.trips
}

// Interpolate returns the dense interpolated path, recomputing it if any
// keyframe or pacing setting changed since the last call.
//
// The path holds one pose per sampling step from the first to the last
// keyframe time inclusive, after a single smoothing pass. Fewer than two
// keyframes yield an empty path - a soft failure the caller should treat as
// nothing to draw or play. The returned slice is the cache itself; callers
// must not mutate it.
func (i *Interpolator) Interpolate() []Pose {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.interpolateLocked()
}

// interpolateLocked rebuilds the cache if stale. Callers hold i.mu.
func (i *Interpolator) interpolateLocked() []Pose {
	if i.pathValid {
		return i.path
	}

	if i.track.Len() > 2 {
		i.logger.Info("interpolating keyframes", "count", i.track.Len())
	}

	i.path = i.samplePath(i.track.keys)
	i.path = i.smooth(i.path, i.track.Duration())
	i.pathValid = true

	if i.track.Len() > 2 {
		i.logger.Info("keyframe interpolation done", "frames", len(i.path))
	}
	return i.path
}

// samplePath evaluates the spline across the whole time range of keys at
// the configured sampling interval. The loop overshoots the last time by a
// half step so floating accumulation cannot drop the final keyframe's
// sample.
func (i *Interpolator) samplePath(keys []KeyFrame) []Pose {
	if len(keys) < 2 {
		return nil
	}

	updateTangents(keys)

	interval := i.sampleInterval()
	first := keys[0].Time
	last := keys[len(keys)-1].Time

	var path []Pose
	hint := 0
	for t := first; t < last+interval*0.5; t += interval {
		br := relatedKeyFrames(keys, t, hint)
		hint = br.k1
		path = append(path, poseAtTime(keys, t, br))
	}
	return path
}

// smooth re-treats the dense path as a synthetic keyframe sequence with
// distance-proportional times, rescales those times so the total duration
// matches the original, and samples it once more. Exactly one pass is
// applied; further passes were found not to improve the result.
//
// A degenerate synthetic sequence (zero reference distance or zero
// duration) would produce a NaN rescale ratio; the pass is skipped instead,
// logged, and the unsmoothed path returned unchanged.
func (i *Interpolator) smooth(path []Pose, originalDuration float32) []Pose {
	if len(path) < 2 {
		return path
	}

	interval := i.sampleInterval()

	var referenceDistance float32
	synthetic := make([]KeyFrame, 0, len(path))
	for n, pose := range path {
		var t float32
		switch n {
		case 0:
			t = 0
		case 1:
			t = interval
			referenceDistance = dist(path[0].Position, pose.Position)
		default:
			if referenceDistance < quatEpsilon {
				i.trips.Record(trip.Degenerate("smooth",
					"zero reference distance over dense samples, skipping smoothing pass", nil))
				i.logger.Error("smoothing skipped: reference distance is zero")
				return path
			}
			prev := &synthetic[len(synthetic)-1]
			t = prev.Time + interval*dist(prev.Position, pose.Position)/referenceDistance
		}
		synthetic = append(synthetic, newKeyFrame(pose, t))
	}

	newDuration := synthetic[len(synthetic)-1].Time - synthetic[0].Time
	if newDuration < timeEpsilon {
		i.trips.Record(trip.Degenerate("smooth",
			"synthetic duration is zero, skipping smoothing pass", nil))
		i.logger.Error("smoothing skipped: duration is 0")
		return path
	}

	ratio := originalDuration / newDuration
	for n := range synthetic {
		synthetic[n].Time *= ratio
	}

	return i.samplePath(synthetic)
}
