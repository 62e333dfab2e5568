package action

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// Supported output formats.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// render writes v in the requested format. YAML output goes through JSON
// first so field names match the Jenkins API.
func render(w io.Writer, format string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")

	if err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}

	switch format {
	case "", FormatJSON:
		_, err := fmt.Fprintln(w, string(data))
		return err
	case FormatYAML:
		var generic interface{}

		if err := json.Unmarshal(data, &generic); err != nil {
			return fmt.Errorf("failed to convert output: %w", err)
		}

		encoder := yaml.NewEncoder(w)
		encoder.SetIndent(2)

		if err := encoder.Encode(generic); err != nil {
			return fmt.Errorf("failed to encode output: %w", err)
		}

		return encoder.Close()
	}

	return fmt.Errorf("unknown output format %q", format)
}
