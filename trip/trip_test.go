package trip

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNonMonotonicTime(t *testing.T) {
	tr := NonMonotonicTime(2.5, 1.0)

	assert.Equal(t, KindKeyFrame, tr.Type)
	assert.Equal(t, Error, tr.Severity)
	assert.Contains(t, tr.Error(), "keyframe time 1 is not after the last keyframe time 2.5")

	last, ok := tr.GetContext("last_time")
	require.True(t, ok)
	assert.Equal(t, float32(2.5), last)
}

func TestIndexOutOfRange(t *testing.T) {
	tr := IndexOutOfRange(7, 3)

	assert.Equal(t, KindAccessor, tr.Type)
	assert.Contains(t, tr.Message, "index 7")
	assert.Contains(t, tr.Message, "count 3")
}

func TestIOFailure(t *testing.T) {
	cause := errors.New("permission denied")
	tr := IOFailure("open", "/tmp/move.kf", cause)

	assert.Equal(t, KindIO, tr.Type)
	assert.Contains(t, tr.Message, "open")
	assert.Contains(t, tr.Message, "/tmp/move.kf")

	got, ok := tr.GetContext("cause")
	require.True(t, ok)
	assert.Equal(t, cause, got)
}

func TestDegenerateIsRecoverableStumble(t *testing.T) {
	tr := Degenerate("auto-time", "reference distance is zero", Context{"distance": 0.0})

	assert.Equal(t, KindInterpolation, tr.Type)
	assert.Equal(t, Stumble, tr.Severity)
	assert.True(t, tr.CanRecover())
	assert.False(t, tr.IsFall())

	stage, ok := tr.GetContext("stage")
	require.True(t, ok)
	assert.Equal(t, "auto-time", stage)
}

func TestDegenerateNilContext(t *testing.T) {
	tr := Degenerate("smooth", "duration is zero", nil)
	stage, ok := tr.GetContext("stage")
	require.True(t, ok)
	assert.Equal(t, "smooth", stage)
}

func TestSeverityString(t *testing.T) {
	assert.Equal(t, "stumble", Stumble.String())
	assert.Equal(t, "error", Error.String())
	assert.Equal(t, "fall", Fall.String())
	assert.Equal(t, "unknown", Severity(99).String())
}

func TestWithSeverity(t *testing.T) {
	tr := NewTrip(KindPlayback, "worker lagging", nil).WithSeverity(Fall)
	assert.True(t, tr.IsFall())
	assert.Contains(t, tr.Error(), "[playback:fall]")
}

func TestTripImplementsError(t *testing.T) {
	var err error = NewTrip(KindKeyFrame, "bad keyframe", nil)
	assert.Contains(t, err.Error(), "[keyframe:error] bad keyframe")
}

func TestDetailedStringIncludesContext(t *testing.T) {
	tr := NewTrip(KindIO, "unable to open file", Context{"file": "move.kf"})

	detail := tr.DetailedString()
	assert.Contains(t, detail, "unable to open file")
	assert.Contains(t, detail, "Context:")
	assert.Contains(t, detail, "file: move.kf")
}

func TestHandlerSeparatesTripsFromStumbles(t *testing.T) {
	h := NewHandler("track", nil)
	assert.False(t, h.HasTrips())
	assert.False(t, h.HasStumbles())

	h.Record(NonMonotonicTime(1, 0.5))
	h.Record(Degenerate("auto-time", "coincident keyframes", nil))

	assert.True(t, h.HasTrips())
	assert.True(t, h.HasStumbles())
	assert.Len(t, h.GetTrips(), 1)
	assert.Len(t, h.GetStumbles(), 1)
}

func TestHandlerShouldContinue(t *testing.T) {
	h := NewHandler("interpolator", nil)
	assert.True(t, h.ShouldContinue())

	// Errors don't stop the take.
	h.Record(NonMonotonicTime(1, 0.5))
	assert.True(t, h.ShouldContinue())

	// Falls do, under the default policy.
	h.Record(NewFall(KindIO, "corrupted keyframe data", nil))
	assert.False(t, h.ShouldContinue())
}

func TestHandlerStumbleLimit(t *testing.T) {
	h := NewHandler("interpolator", &Policy{MaxStumbles: 3})

	for n := 0; n < 3; n++ {
		h.Record(Degenerate("smooth", fmt.Sprintf("stumble %d", n), nil))
	}
	assert.True(t, h.ShouldContinue())

	h.Record(Degenerate("smooth", "one too many", nil))
	assert.False(t, h.ShouldContinue())
}

func TestHandlerIgnoresFallsWhenPolicyAllows(t *testing.T) {
	h := NewHandler("playback", &Policy{StopOnFall: false, MaxStumbles: 10})
	h.Record(NewFall(KindPlayback, "sink gone", nil))
	assert.True(t, h.ShouldContinue())
}

func TestHandlerCanRecover(t *testing.T) {
	h := NewHandler("interpolator", nil)
	assert.True(t, h.CanRecover(KindInterpolation))
	assert.True(t, h.CanRecover(KindPlayback))
	assert.False(t, h.CanRecover(KindIO))
}

func TestHandlerSummary(t *testing.T) {
	h := NewHandler("track", nil)
	assert.Contains(t, h.Summary(), "No issues")

	h.Record(NonMonotonicTime(1, 0.5))
	h.Record(Degenerate("auto-time", "coincident keyframes", nil))
	assert.Contains(t, h.Summary(), "1 trips, 1 stumbles")
}

func TestHandlerDetailedReport(t *testing.T) {
	h := NewHandler("track", nil)
	h.Record(NonMonotonicTime(3, 2))
	h.Record(Degenerate("auto-time", "coincident keyframes", nil))

	report := h.DetailedReport()
	assert.True(t, strings.HasPrefix(report, "=== track Component Report ==="))
	assert.Contains(t, report, "Trips:")
	assert.Contains(t, report, "Stumbles:")
	assert.Contains(t, report, "not after the last keyframe time")
}
