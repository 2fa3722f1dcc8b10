package dollygrip

import (
	"log/slog"

	"github.com/teranos/dollygrip/trip"
)

// Track is the ordered keyframe sequence a move is laid out on - the dolly
// track the camera runs along.
//
// The sequence is either empty or strictly increasing in time; appends that
// violate monotonicity are rejected and logged, leaving the track unchanged.
// Keyframes are removed only from the tail, or wholesale via Clear.
//
// A Track on its own does not invalidate any cached path; use it through an
// Interpolator when playback and dense-path caching are in play.
type Track struct {
	keys []KeyFrame

	// Distance between the first two keyframes, recorded when the second
	// keyframe lands and used to scale auto-derived segment times. Reset on
	// Clear.
	referenceDistance float32

	logger *slog.Logger
	trips  *trip.Handler
}

// NewTrack creates an empty track logging through slog.Default().
func NewTrack() *Track {
	return newTrack(slog.Default())
}

func newTrack(logger *slog.Logger) *Track {
	return &Track{
		logger: logger,
		trips:  trip.NewHandler("track", nil),
	}
}

// AddAt appends a keyframe at an explicit time.
//
// The time must be strictly greater than the last keyframe's time; otherwise
// the keyframe is discarded, the rejection is logged, and a
// trip.KindKeyFrame error is returned with the track unchanged.
func (t *Track) AddAt(pose Pose, time float32) error {
	if len(t.keys) > 0 && time <= t.keys[len(t.keys)-1].Time {
		err := trip.NonMonotonicTime(t.keys[len(t.keys)-1].Time, time)
		t.trips.Record(err)
		t.logger.Error("keyframe rejected: time is not monotone",
			"attempted_time", time, "last_time", t.keys[len(t.keys)-1].Time)
		return err
	}

	t.keys = append(t.keys, newKeyFrame(pose, time))
	return nil
}

// Add appends a keyframe with an automatically derived time.
//
// The first keyframe lands at time 0 and the second at 1.0, recording the
// distance between them as the track's reference distance. Every later
// segment's duration is that segment's travel distance divided by the
// reference distance, so per-segment duration stays proportional to travel
// and the first segment takes one time unit.
//
// A zero reference distance (coincident first two keyframes) would divide by
// zero; instead the segment falls back to a fixed 1.0 duration and the
// degeneracy is logged and recorded as a stumble. No NaN time ever enters
// the sequence.
func (t *Track) Add(pose Pose) error {
	var time float32
	switch len(t.keys) {
	case 0:
		time = 0
	case 1:
		time = 1.0
		t.referenceDistance = dist(t.keys[0].Position, pose.Position)
	default:
		last := &t.keys[len(t.keys)-1]
		if t.referenceDistance < quatEpsilon {
			t.trips.Record(trip.Degenerate("auto-time",
				"reference distance is zero, using unit segment duration", nil))
			t.logger.Error("auto-time keyframe with zero reference distance, falling back to unit duration")
			time = last.Time + 1.0
		} else {
			time = last.Time + 1.0*dist(last.Position, pose.Position)/t.referenceDistance
		}
	}

	return t.AddAt(pose, time)
}

// RemoveLast drops the tail keyframe. Removing from an empty track is a
// no-op.
func (t *Track) RemoveLast() {
	if len(t.keys) == 0 {
		return
	}
	t.keys = t.keys[:len(t.keys)-1]
}

// Clear removes all keyframes and resets the reference distance.
func (t *Track) Clear() {
	t.keys = nil
	t.referenceDistance = 0
}

// Len returns the number of keyframes on the track.
func (t *Track) Len() int {
	return len(t.keys)
}

// PoseAt returns the pose of the keyframe at index.
func (t *Track) PoseAt(index int) (Pose, error) {
	if index < 0 || index >= len(t.keys) {
		err := trip.IndexOutOfRange(index, len(t.keys))
		t.trips.Record(err)
		return Pose{}, err
	}
	return t.keys[index].Pose(), nil
}

// TimeAt returns the time of the keyframe at index.
func (t *Track) TimeAt(index int) (float32, error) {
	if index < 0 || index >= len(t.keys) {
		err := trip.IndexOutOfRange(index, len(t.keys))
		t.trips.Record(err)
		return 0, err
	}
	return t.keys[index].Time, nil
}

// FirstTime returns the first keyframe's time, or 0 for an empty track.
func (t *Track) FirstTime() float32 {
	if len(t.keys) == 0 {
		return 0
	}
	return t.keys[0].Time
}

// LastTime returns the last keyframe's time, or 0 for an empty track.
func (t *Track) LastTime() float32 {
	if len(t.keys) == 0 {
		return 0
	}
	return t.keys[len(t.keys)-1].Time
}

// Duration returns LastTime minus FirstTime.
func (t *Track) Duration() float32 {
	return t.LastTime() - t.FirstTime()
}

// Poses returns the keyframe poses in sequence order. The slice is a copy.
func (t *Track) Poses() []Pose {
	poses := make([]Pose, len(t.keys))
	for i := range t.keys {
		poses[i] = t.keys[i].Pose()
	}
	return poses
}

// Trips returns the handler collecting this track's recorded issues.
func (t *Track) Trips() *trip.Handler {
	return t.trips
}
