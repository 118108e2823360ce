package taskdoc

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	taskerrors "github.com/vinayprograms/conclave/internal/errors"
)

// Parse unmarshals a task document from raw YAML bytes and validates
// it. baseDir is used to resolve relative `file` context paths.
func Parse(data []byte, baseDir string) (*Task, error) {
	var t Task
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, &taskerrors.ConfigError{
			Kind:   taskerrors.ConfigMalformedDocument,
			Detail: err.Error(),
		}
	}
	t.BaseDir = baseDir
	applyDefaults(&t)
	if err := Validate(&t); err != nil {
		return nil, err
	}
	return &t, nil
}

// LoadFile reads and parses a task document from disk.
func LoadFile(path string) (*Task, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &taskerrors.ConfigError{
			Kind:   taskerrors.ConfigMalformedDocument,
			Detail: fmt.Sprintf("reading %s: %v", path, err),
		}
	}
	return Parse(data, filepath.Dir(path))
}

func applyDefaults(t *Task) {
	if t.Parameters.RevisionBudget <= 0 {
		t.Parameters.RevisionBudget = 5
	}
	if t.Parameters.TurnLimit <= 0 {
		t.Parameters.TurnLimit = 20
	}
	if t.Output.Format == "" {
		t.Output.Format = OutputMarkdown
	}
}
