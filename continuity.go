package dollygrip

import (
	"fmt"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// ScriptSupervisor ensures continuity between takes of the same move.
//
// Given a baseline path and a current path - typically a recorded move
// replayed after edits, or the smoothed path against its raw input - the
// supervisor measures how far the two drift apart and flags moves that
// exceed tolerance.
type ScriptSupervisor struct {
	tolerance float32 // Maximum acceptable position deviation
}

// ContinuityReport summarizes how two dense paths compare.
type ContinuityReport struct {
	Samples          int     // Samples compared
	MaxDeviation     float32 // Largest position distance between matched samples
	MeanDeviation    float32 // Average position distance
	MaxAngle         float32 // Largest orientation difference in radians
	SampleCountDelta int     // current length minus baseline length
}

// NewScriptSupervisor creates a continuity validator with the given
// position tolerance (in world units).
func NewScriptSupervisor(tolerance float32) *ScriptSupervisor {
	return &ScriptSupervisor{tolerance: tolerance}
}

// Compare measures the deviation between a baseline and a current path.
//
// Paths of different lengths are aligned by normalized parameter: each
// current sample is matched with the baseline sample at the same fraction
// of the move. Empty inputs yield a zero report.
func (ss *ScriptSupervisor) Compare(baseline, current []Pose) ContinuityReport {
	report := ContinuityReport{
		SampleCountDelta: len(current) - len(baseline),
	}
	if len(baseline) == 0 || len(current) == 0 {
		return report
	}

	var sum float32
	for n := range current {
		m := matchedIndex(n, len(current), len(baseline))
		d := dist(current[n].Position, baseline[m].Position)
		sum += d
		if d > report.MaxDeviation {
			report.MaxDeviation = d
		}

		angle := orientationAngle(current[n], baseline[m])
		if angle > report.MaxAngle {
			report.MaxAngle = angle
		}
	}

	report.Samples = len(current)
	report.MeanDeviation = sum / float32(len(current))
	return report
}

// ValidateContinuity compares the two paths and returns an error when the
// current take drifts past tolerance from the baseline.
func (ss *ScriptSupervisor) ValidateContinuity(baseline, current []Pose) error {
	report := ss.Compare(baseline, current)
	if report.MaxDeviation > ss.tolerance {
		return fmt.Errorf("continuity break: max deviation %g exceeds tolerance %g (mean %g over %d samples)",
			report.MaxDeviation, ss.tolerance, report.MeanDeviation, report.Samples)
	}
	return nil
}

// matchedIndex maps index n of a length-lenC path onto a length-lenB path
// at the same normalized parameter.
func matchedIndex(n, lenC, lenB int) int {
	if lenC <= 1 {
		return 0
	}
	m := (n*(lenB-1) + (lenC-1)/2) / (lenC - 1)
	if m > lenB-1 {
		m = lenB - 1
	}
	return m
}

// orientationAngle returns the rotation angle in radians between two poses'
// orientations, insensitive to quaternion sign.
func orientationAngle(a, b Pose) float32 {
	d := math32.Abs(a.Orientation.Dot(b.Orientation))
	return 2 * math32.Acos(mgl32.Clamp(d, 0, 1))
}
