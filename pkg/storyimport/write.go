package storyimport

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"narrascroll/pkg/model"
	"narrascroll/pkg/registry"
)

// Write validates the story and encodes it as a story file.
func Write(w io.Writer, story *model.Story) error {
	if _, err := registry.New(story); err != nil {
		return err
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(story); err != nil {
		return fmt.Errorf("failed to encode story: %w", err)
	}
	return enc.Close()
}
