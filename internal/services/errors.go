package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrAlignment           = errors.New("caption alignment failed")
	ErrDateParse           = errors.New("date parse failure")
	ErrFetch               = errors.New("fetch failure")
	ErrResolution          = errors.New("resolution gap")
	ErrMalformedAnnotation = errors.New("malformed annotation")
	ErrExternalTool        = errors.New("external tool error")
	ErrValidation          = errors.New("validation error")
	ErrConfiguration       = errors.New("configuration error")
	ErrNotFound            = errors.New("not found")
	ErrTimeout             = errors.New("timeout")
	ErrTransient           = errors.New("transient failure")
)

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// IsFatal reports whether err must abort the whole video run rather than
// degrade a single event.
func IsFatal(err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, ErrAlignment), errors.Is(err, ErrConfiguration), errors.Is(err, ErrExternalTool):
		return true
	default:
		return false
	}
}

// Kind returns a short label for the marker carried by err. It is used as a
// metrics label and log field.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrAlignment):
		return "alignment"
	case errors.Is(err, ErrMalformedAnnotation):
		return "malformed_annotation"
	case errors.Is(err, ErrDateParse):
		return "date_parse"
	case errors.Is(err, ErrResolution):
		return "resolution"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrTimeout):
		return "timeout"
	case errors.Is(err, ErrFetch):
		return "fetch"
	case errors.Is(err, ErrExternalTool):
		return "external_tool"
	case errors.Is(err, ErrConfiguration):
		return "configuration"
	case errors.Is(err, ErrValidation):
		return "validation"
	default:
		return "transient"
	}
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
