// Package faults defines the error markers shared by the organize and sync
// pipelines.
//
// Errors are tagged with one of the sentinel markers below so the CLI can tell
// operator mistakes (bad roots, invalid config) from I/O failures without
// string matching. The attribute marker is the only recoverable class; callers
// that see it retry with a plain copy.
package faults

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrValidation            = errors.New("validation error")
	ErrConfiguration         = errors.New("configuration error")
	ErrIO                    = errors.New("i/o error")
	ErrAttributesUnsupported = errors.New("attribute preservation unsupported")
	ErrLocked                = errors.New("root locked by another run")
)

// Wrap builds an error message that includes component context while tagging
// it with the provided marker for later classification. The marker should be
// one of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrIO
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Recoverable reports whether err belongs to the only class a run may continue
// past.
func Recoverable(err error) bool {
	return errors.Is(err, ErrAttributesUnsupported)
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
		return "operation failed"
	}
	return strings.Join(parts, ": ")
}
