package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrDiscovery     = errors.New("ffprobe not found")
	ErrInvalidInput  = errors.New("invalid input")
	ErrLaunch        = errors.New("launch failure")
	ErrDecode        = errors.New("decode failure")
	ErrToolReported  = errors.New("tool reported error")
	ErrPrecondition  = errors.New("aggregation precondition")
	ErrConfiguration = errors.New("configuration error")
)

// ToolReport is implemented by errors that carry a failure reported by the
// external tool itself rather than by the process plumbing around it.
type ToolReport interface {
	error
	ToolCode() int
	ToolMessage() string
}

// Wrap builds an error message that includes component context while tagging
// it with the provided marker for later classification. The marker should be
// one of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrLaunch
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Kind returns the marker an error was tagged with, or nil when it carries none.
func Kind(err error) error {
	for _, marker := range []error{
		ErrToolReported,
		ErrInvalidInput,
		ErrDiscovery,
		ErrDecode,
		ErrLaunch,
		ErrPrecondition,
		ErrConfiguration,
	} {
		if errors.Is(err, marker) {
			return marker
		}
	}
	return nil
}

// Describe renders a user-facing message for err. Each error kind maps to its
// own wording because the remediation differs: a tool-reported error points
// at the input file, launch and decode failures point at the tool.
func Describe(err error) string {
	if err == nil {
		return ""
	}
	switch Kind(err) {
	case ErrToolReported:
		var report ToolReport
		if errors.As(err, &report) {
			return fmt.Sprintf("ffprobe could not read the file (code %d): %s", report.ToolCode(), report.ToolMessage())
		}
		return "ffprobe could not read the file: " + rootMessage(err)
	case ErrInvalidInput:
		return "Cannot open file: " + rootMessage(err)
	case ErrDiscovery:
		return "ffprobe is not available; install FFmpeg or place ffprobe next to bitgraph"
	case ErrLaunch:
		return "Failed to run ffprobe: " + rootMessage(err)
	case ErrDecode:
		return "ffprobe produced output bitgraph could not understand: " + rootMessage(err)
	case ErrPrecondition:
		return "Cannot draw a bitrate graph: " + rootMessage(err)
	case ErrConfiguration:
		return "Configuration problem: " + rootMessage(err)
	default:
		return err.Error()
	}
}

// rootMessage strips the marker prefix so messages don't repeat the kind.
func rootMessage(err error) string {
	msg := err.Error()
	if marker := Kind(err); marker != nil {
		msg = strings.TrimPrefix(msg, marker.Error()+": ")
	}
	return msg
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "failure"
	}
	return strings.Join(parts, ": ")
}
