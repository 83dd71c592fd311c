package model

import "fmt"

// AssetMissingError reports the first model asset that could not be located
// at load time.
type AssetMissingError struct {
	Kind string // "model", "scaler" or "features"
	Path string
}

func (e *AssetMissingError) Error() string {
	return fmt.Sprintf("%s file not found: %s", e.Kind, e.Path)
}
