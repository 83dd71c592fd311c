package schema

import (
	"fmt"
	"strings"
)

// SchemaError reports required feature columns that are entirely absent after
// alias resolution.
type SchemaError struct {
	Missing []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("missing required columns: %s", strings.Join(e.Missing, ", "))
}

// EmptyResultError reports that every row was dropped for missing required
// values.
type EmptyResultError struct{}

func (e *EmptyResultError) Error() string {
	return "no valid rows for inference (all rows have missing values in required features)"
}
