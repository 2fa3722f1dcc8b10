// Package trip provides error handling for dollygrip camera moves.
//
// The trip package uses stumbling metaphors for move error handling - when a
// take encounters issues, the crew "trips up" or "stumbles", then needs to
// recover gracefully rather than abandoning the whole production.
package trip

import (
	"fmt"
	"strings"
	"time"
)

// Error categories used across the dollygrip module.
//
// Categories group related failures so handlers and callers can treat them
// systematically:
//   - KindKeyFrame: keyframe sequence violations (non-monotonic times)
//   - KindAccessor: out-of-range keyframe access
//   - KindIO: keyframe file load/save failures
//   - KindInterpolation: degenerate interpolation input (zero reference
//     distance, zero duration)
//   - KindPlayback: playback driver coordination issues
const (
	KindKeyFrame      = "keyframe"
	KindAccessor      = "accessor"
	KindIO            = "io"
	KindInterpolation = "interpolation"
	KindPlayback      = "playback"
)

// Trip represents an error during a camera move with rich context.
//
// Trips categorize the different ways a move can go wrong, providing
// structured context for debugging without aborting the take. All trips are
// recoverable at the call site; none are process-fatal.
//
// Example usage:
//
//	err := trip.NonMonotonicTime(2.5, 1.0)
//	if t, ok := err.(*trip.Trip); ok && t.CanRecover() {
//	    // keep shooting despite this stumble
//	}
type Trip struct {
	Type      string    // Error category for systematic handling
	Message   string    // Human-readable description
	Context   Context   // Additional debugging information
	Timestamp time.Time // When the error occurred
	Severity  Severity  // How serious this error is
}

// Context provides structured debugging information for trips.
//
// Context captures the state of the move when an error occurs: the offending
// time values, file paths, indices, and whatever else helps reconstruct the
// failure.
type Context map[string]interface{}

// Severity indicates how serious a trip is and how it should be handled.
type Severity int

const (
	// Stumble indicates a minor issue that doesn't affect move validity.
	// Examples: degenerate reference distance handled by fallback timing,
	// a skipped smoothing pass
	Stumble Severity = iota

	// Error indicates a significant issue that may affect the move.
	// Examples: rejected keyframes, unreadable keyframe files
	Error

	// Fall indicates a serious issue that invalidates the move.
	// Examples: corrupted keyframe data mid-file
	Fall
)

func (s Severity) String() string {
	switch s {
	case Stumble:
		return "stumble"
	case Error:
		return "error"
	case Fall:
		return "fall"
	default:
		return "unknown"
	}
}

// NewTrip creates a new trip with the current timestamp.
func NewTrip(errorType, message string, context Context) *Trip {
	return &Trip{
		Type:      errorType,
		Message:   message,
		Context:   context,
		Timestamp: time.Now(),
		Severity:  Error, // Default severity
	}
}

// NewStumble creates a new trip with Stumble severity.
func NewStumble(errorType, message string, context Context) *Trip {
	t := NewTrip(errorType, message, context)
	t.Severity = Stumble
	return t
}

// NewFall creates a new trip with Fall severity.
func NewFall(errorType, message string, context Context) *Trip {
	t := NewTrip(errorType, message, context)
	t.Severity = Fall
	return t
}

// NonMonotonicTime reports a keyframe appended at or before the tail time.
// The keyframe is discarded by the caller; the sequence is unchanged.
func NonMonotonicTime(lastTime, attemptedTime float32) *Trip {
	return NewTrip(KindKeyFrame,
		fmt.Sprintf("keyframe time %g is not after the last keyframe time %g", attemptedTime, lastTime),
		Context{"last_time": lastTime, "attempted_time": attemptedTime})
}

// IndexOutOfRange reports keyframe access outside the sequence bounds.
func IndexOutOfRange(index, count int) *Trip {
	return NewTrip(KindAccessor,
		fmt.Sprintf("keyframe index %d out of range (count %d)", index, count),
		Context{"index": index, "count": count})
}

// IOFailure reports a keyframe file that could not be opened or parsed.
func IOFailure(op, filename string, err error) *Trip {
	return NewTrip(KindIO,
		fmt.Sprintf("unable to %s '%s': %v", op, filename, err),
		Context{"op": op, "file": filename, "cause": err})
}

// Degenerate reports interpolation input the solver cannot use as-is. The
// caller falls back to a safe default (unit timing, skipped smoothing pass)
// instead of propagating NaN.
func Degenerate(stage, message string, context Context) *Trip {
	if context == nil {
		context = Context{}
	}
	context["stage"] = stage
	return NewStumble(KindInterpolation, message, context)
}

// WithSeverity sets the severity level for this error.
func (t *Trip) WithSeverity(severity Severity) *Trip {
	t.Severity = severity
	return t
}

// Error implements the error interface.
func (t *Trip) Error() string {
	return fmt.Sprintf("[%s:%s] %s", t.Type, t.Severity, t.Message)
}

// CanRecover returns true if the move can continue despite this error.
func (t *Trip) CanRecover() bool {
	return t.Severity == Stumble
}

// IsFall returns true if this error invalidates the move.
func (t *Trip) IsFall() bool {
	return t.Severity == Fall
}

// GetContext returns a specific context value if it exists.
func (t *Trip) GetContext(key string) (interface{}, bool) {
	if t.Context == nil {
		return nil, false
	}
	val, exists := t.Context[key]
	return val, exists
}

// DetailedString returns a comprehensive error description with context.
func (t *Trip) DetailedString() string {
	var details strings.Builder

	details.WriteString(fmt.Sprintf("[%s:%s] %s", t.Type, t.Severity, t.Message))
	details.WriteString(fmt.Sprintf("\n  Time: %s", t.Timestamp.Format("15:04:05.000")))

	if len(t.Context) > 0 {
		details.WriteString("\n  Context:")
		for key, value := range t.Context {
			details.WriteString(fmt.Sprintf("\n    %s: %v", key, value))
		}
	}

	return details.String()
}

// Handler manages error collection and reporting for one component of a move.
//
// The handler provides component-specific error management that allows
// different kinds of failures to be handled appropriately. Degenerate-input
// stumbles don't stop a take, while falls do.
type Handler struct {
	component string  // Component name (e.g., "track", "interpolator")
	trips     []*Trip // Collected errors in chronological order
	stumbles  []*Trip // Collected minor issues in chronological order
	policy    *Policy // How to handle different error types
}

// Policy defines how different types and severities of errors should be handled.
type Policy struct {
	// StopOnFall determines if the take should stop immediately on fall errors
	StopOnFall bool

	// MaxStumbles sets a limit on accumulated stumbles before treating as trip
	MaxStumbles int

	// RecoverableTypes lists error types that are considered recoverable
	RecoverableTypes []string
}

// DefaultPolicy returns a sensible default error handling policy.
func DefaultPolicy() *Policy {
	return &Policy{
		StopOnFall:       true,
		MaxStumbles:      10,
		RecoverableTypes: []string{KindInterpolation, KindPlayback},
	}
}

// NewHandler creates a new error handler for a specific component.
func NewHandler(component string, policy *Policy) *Handler {
	if policy == nil {
		policy = DefaultPolicy()
	}

	return &Handler{
		component: component,
		trips:     make([]*Trip, 0),
		stumbles:  make([]*Trip, 0),
		policy:    policy,
	}
}

// Record adds an error to the handler's collection.
func (h *Handler) Record(trip *Trip) {
	if trip.Severity == Stumble {
		h.stumbles = append(h.stumbles, trip)
	} else {
		h.trips = append(h.trips, trip)
	}
}

// ShouldContinue determines if the take should continue based on current errors.
func (h *Handler) ShouldContinue() bool {
	// Stop on fall errors if policy requires it
	if h.policy.StopOnFall {
		for _, trip := range h.trips {
			if trip.IsFall() {
				return false
			}
		}
	}

	// Stop if too many stumbles have accumulated
	if h.policy.MaxStumbles > 0 && len(h.stumbles) > h.policy.MaxStumbles {
		return false
	}

	return true
}

// HasTrips returns true if any errors (non-stumbles) have been recorded.
func (h *Handler) HasTrips() bool {
	return len(h.trips) > 0
}

// HasStumbles returns true if any stumbles have been recorded.
func (h *Handler) HasStumbles() bool {
	return len(h.stumbles) > 0
}

// GetTrips returns all recorded errors.
func (h *Handler) GetTrips() []*Trip {
	return h.trips
}

// GetStumbles returns all recorded stumbles.
func (h *Handler) GetStumbles() []*Trip {
	return h.stumbles
}

// CanRecover returns true if the given error type is considered recoverable.
func (h *Handler) CanRecover(errorType string) bool {
	for _, recoverableType := range h.policy.RecoverableTypes {
		if recoverableType == errorType {
			return true
		}
	}
	return false
}

// Summary provides a concise overview of all errors and stumbles.
func (h *Handler) Summary() string {
	if len(h.trips) == 0 && len(h.stumbles) == 0 {
		return fmt.Sprintf("[%s] No issues during the move", h.component)
	}

	return fmt.Sprintf("[%s] %d trips, %d stumbles",
		h.component, len(h.trips), len(h.stumbles))
}

// DetailedReport provides a comprehensive report of all issues.
func (h *Handler) DetailedReport() string {
	var report strings.Builder

	report.WriteString(fmt.Sprintf("=== %s Component Report ===\n", h.component))
	report.WriteString(h.Summary() + "\n")

	if len(h.trips) > 0 {
		report.WriteString("\nTrips:\n")
		for i, trip := range h.trips {
			report.WriteString(fmt.Sprintf("%d. %s\n", i+1, trip.DetailedString()))
		}
	}

	if len(h.stumbles) > 0 {
		report.WriteString("\nStumbles:\n")
		for i, stumble := range h.stumbles {
			report.WriteString(fmt.Sprintf("%d. %s\n", i+1, stumble.DetailedString()))
		}
	}

	return report.String()
}
