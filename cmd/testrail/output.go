package testrail

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

const (
	OutputJSON = "json"
	OutputYAML = "yaml"
)

// printResult writes v to w as indented JSON or as YAML. Raw TestRail
// documents are printed without re-ordering their keys.
func printResult(w io.Writer, format string, v interface{}) error {
	data, err := toJSON(v)
	if err != nil {
		return err
	}

	switch format {
	case "", OutputJSON:
		var buf bytes.Buffer
		if err := json.Indent(&buf, data, "", "  "); err != nil {
			return fmt.Errorf("failed to format output: %w", err)
		}
		buf.WriteByte('\n')
		_, err := buf.WriteTo(w)
		return err
	case OutputYAML:
		var node yaml.Node
		if err := yaml.Unmarshal(data, &node); err != nil {
			return fmt.Errorf("failed to convert output to YAML: %w", err)
		}
		blockStyle(&node)
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(&node); err != nil {
			return fmt.Errorf("failed to write YAML output: %w", err)
		}
		return enc.Close()
	default:
		return fmt.Errorf("unsupported output format %q (use %s or %s)", format, OutputJSON, OutputYAML)
	}
}

func toJSON(v interface{}) ([]byte, error) {
	if raw, ok := v.(json.RawMessage); ok {
		if len(bytes.TrimSpace(raw)) == 0 {
			return []byte("null"), nil
		}
		return raw, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode output: %w", err)
	}
	return data, nil
}

// blockStyle drops the flow and quoting styles a JSON document parses into
func blockStyle(n *yaml.Node) {
	n.Style = 0
	for _, c := range n.Content {
		blockStyle(c)
	}
}
