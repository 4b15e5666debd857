package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/Michael-F-Bryan/protodef/internal/spec"
)

// LoadError represents an error that occurred while reading command input.
type LoadError struct {
	Code    string
	Message string
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// LoadSpec reads a protocol spec file and decodes it into a spec tree.
// The format is chosen by extension: .yaml/.yml are YAML, everything else
// is JSON.
func LoadSpec(path string) (*spec.Value, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("spec file not found: %s", path)}
		}
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("reading %s: %v", path, err)}
	}

	var doc *spec.Value
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		doc, err = spec.DecodeYAML(data)
	default:
		doc, err = spec.DecodeJSON(data)
	}
	if err != nil {
		return nil, &LoadError{Code: ErrCodeParseFailed, Message: fmt.Sprintf("parsing %s: %v", path, err)}
	}
	return doc, nil
}

// LoadProfile resolves the --profile flag: the built-in table when empty,
// otherwise the TOML file extending it.
func LoadProfile(path string) (*spec.Profile, error) {
	if path == "" {
		return spec.DefaultProfile(), nil
	}
	profile, err := spec.LoadProfile(path)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeProfileFailed, Message: err.Error()}
	}
	return profile, nil
}
