package domain

// ParameterSchema is the JSON schema of an operation's arguments.
type ParameterSchema struct {
	Type       string                       `json:"type"`
	Properties map[string]ParameterProperty `json:"properties"`
	Required   []string                     `json:"required,omitempty"`
}

// ParameterProperty describes one named parameter.
type ParameterProperty struct {
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
}

// Operation is an immutable catalog entry the resolver may select.
type Operation struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  ParameterSchema `json:"parameters"`
}

// EmptyParameters returns the schema of an operation without arguments.
func EmptyParameters() ParameterSchema {
	return ParameterSchema{Type: "object", Properties: map[string]ParameterProperty{}}
}

// ResolvedIntent is the resolver's reading of one prompt: either plain
// text, or an operation with its arguments.
type ResolvedIntent struct {
	Text      string
	Operation string
	Arguments map[string]any
}

// Selected reports whether the resolver chose an operation.
func (r ResolvedIntent) Selected() bool {
	return r.Operation != ""
}

// StringArg returns a string argument, or "" when absent or not a string.
func (r ResolvedIntent) StringArg(name string) string {
	if r.Arguments == nil {
		return ""
	}
	s, _ := r.Arguments[name].(string)
	return s
}
