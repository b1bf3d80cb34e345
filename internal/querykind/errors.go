package querykind

import (
	"fmt"
	"strings"
)

// ValidationError is returned when required parameters are missing.
type ValidationError struct {
	Kind    Kind
	Missing []Param
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Missing))
	for _, p := range e.Missing {
		names = append(names, string(p))
	}

	if len(names) == 1 {
		return fmt.Sprintf("missing required field: %s", names[0])
	}

	return fmt.Sprintf("missing required fields: %s", strings.Join(names, ", "))
}
