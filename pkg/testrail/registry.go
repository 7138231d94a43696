package testrail

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"
)

// Param describes one argument of a tool
type Param struct {
	Name        string `json:"name" yaml:"name"`
	Type        string `json:"type" yaml:"type"`
	Required    bool   `json:"required" yaml:"required"`
	Description string `json:"description" yaml:"description"`
}

// Handler runs a tool with its JSON-encoded arguments
type Handler func(ctx context.Context, args json.RawMessage) (interface{}, error)

// Tool is an operation exposed to a tool host
type Tool struct {
	Name        string  `json:"name" yaml:"name"`
	Description string  `json:"description" yaml:"description"`
	Params      []Param `json:"params" yaml:"params"`
	Handler     Handler `json:"-" yaml:"-"`
}

// Registry maps tool names to their handlers and parameter schemas
type Registry struct {
	tools map[string]Tool
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

// Register adds a tool; names must be unique
func (r *Registry) Register(tool Tool) error {
	if tool.Name == "" {
		return fmt.Errorf("tool name must not be empty")
	}
	if tool.Handler == nil {
		return fmt.Errorf("tool %s has no handler", tool.Name)
	}
	if _, exists := r.tools[tool.Name]; exists {
		return fmt.Errorf("tool %s is already registered", tool.Name)
	}
	r.tools[tool.Name] = tool
	return nil
}

// MustRegister is Register for static tool tables
func (r *Registry) MustRegister(tools ...Tool) {
	for _, tool := range tools {
		if err := r.Register(tool); err != nil {
			panic(err)
		}
	}
}

// Get returns the tool registered under name
func (r *Registry) Get(name string) (Tool, bool) {
	tool, ok := r.tools[name]
	return tool, ok
}

// Names returns the registered tool names in sorted order
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Tools returns the registered tools sorted by name
func (r *Registry) Tools() []Tool {
	tools := make([]Tool, 0, len(r.tools))
	for _, name := range r.Names() {
		tools = append(tools, r.tools[name])
	}
	return tools
}

// Call checks the required arguments of the named tool and runs it
func (r *Registry) Call(ctx context.Context, name string, args json.RawMessage) (interface{}, error) {
	tool, ok := r.tools[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}

	present := map[string]json.RawMessage{}
	if !isEmptyArgs(args) {
		if err := json.Unmarshal(args, &present); err != nil {
			return nil, fmt.Errorf("%w: %s: arguments must be a JSON object: %v", ErrInvalidArgs, name, err)
		}
	}
	for _, p := range tool.Params {
		if !p.Required {
			continue
		}
		if v, ok := present[p.Name]; !ok || string(bytes.TrimSpace(v)) == "null" {
			return nil, fmt.Errorf("%w: %s: missing required parameter %q", ErrInvalidArgs, name, p.Name)
		}
	}

	return tool.Handler(ctx, args)
}

func isEmptyArgs(args json.RawMessage) bool {
	trimmed := bytes.TrimSpace(args)
	return len(trimmed) == 0 || string(trimmed) == "null"
}

// typed adapts fn to a Handler, decoding the arguments into T. Unknown
// argument names are rejected.
func typed[T any](fn func(ctx context.Context, args T) (interface{}, error)) Handler {
	return func(ctx context.Context, raw json.RawMessage) (interface{}, error) {
		var args T
		if !isEmptyArgs(raw) {
			dec := json.NewDecoder(bytes.NewReader(raw))
			dec.DisallowUnknownFields()
			if err := dec.Decode(&args); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrInvalidArgs, err)
			}
		}
		return fn(ctx, args)
	}
}
