// Package media wraps the speech-rendering and transcription collaborators.
// Both are best-effort side effects: a failure here is logged and the
// interview continues without audio.
package media

import "errors"

var (
	// ErrPermissionDenied reports the browser denied microphone or camera
	// access. Unlike collaborator failures this is surfaced to the caller,
	// since no automatic recovery is possible.
	ErrPermissionDenied = errors.New("media permission denied")
	// ErrDeviceMissing reports no usable capture device was found.
	ErrDeviceMissing = errors.New("media device missing")
)

// ConditionFromReport maps a browser getUserMedia error name to a media
// condition. Returns nil for names that do not block the candidate.
func ConditionFromReport(name string) error {
	switch name {
	case "NotAllowedError", "PermissionDeniedError", "SecurityError":
		return ErrPermissionDenied
	case "NotFoundError", "DevicesNotFoundError", "OverconstrainedError":
		return ErrDeviceMissing
	default:
		return nil
	}
}
