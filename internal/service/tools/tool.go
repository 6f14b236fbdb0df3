package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/schema"
)

// Args holds decoded tool arguments.
type Args map[string]any

// Text returns a trimmed string argument, empty when absent.
func (a Args) Text(name string) string {
	s, _ := a[name].(string)
	return strings.TrimSpace(s)
}

// List returns a string-list argument, skipping blanks.
func (a Args) List(name string) []string {
	list, _ := a[name].([]any)
	out := make([]string, 0, len(list))
	for _, item := range list {
		if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
			out = append(out, strings.TrimSpace(s))
		}
	}
	return out
}

// Func executes a tool once its arguments are validated.
type Func func(ctx context.Context, args Args) (any, error)

// Tool binds a Spec to its executor and satisfies eino's InvokableTool.
type Tool struct {
	spec Spec
	run  Func
}

var _ tool.InvokableTool = (*Tool)(nil)

// New creates a tool from its declaration and executor.
func New(spec Spec, run Func) *Tool {
	return &Tool{spec: spec, run: run}
}

// Spec returns the tool declaration.
func (t *Tool) Spec() Spec {
	return t.spec
}

// Info implements tool.BaseTool.
func (t *Tool) Info(_ context.Context) (*schema.ToolInfo, error) {
	return t.spec.ToolInfo(), nil
}

// InvokableRun decodes and validates the JSON arguments, executes the tool
// and returns its result serialized as JSON.
func (t *Tool) InvokableRun(ctx context.Context, argumentsInJSON string, _ ...tool.Option) (string, error) {
	args, err := DecodeArgs(argumentsInJSON)
	if err != nil {
		return "", err
	}
	if err := t.spec.Validate(args); err != nil {
		return "", err
	}

	result, err := t.run(ctx, args)
	if err != nil {
		return "", err
	}

	switch v := result.(type) {
	case json.RawMessage:
		return string(v), nil
	case []byte:
		return string(v), nil
	}

	encoded, err := json.Marshal(result)
	if err != nil {
		return "", fmt.Errorf("encode %s result: %w", t.spec.Name, err)
	}
	return string(encoded), nil
}

// DecodeArgs parses the model-provided argument string. An empty string is an empty object.
func DecodeArgs(argumentsInJSON string) (Args, error) {
	args := Args{}
	trimmed := strings.TrimSpace(argumentsInJSON)
	if trimmed == "" {
		return args, nil
	}
	if err := json.Unmarshal([]byte(trimmed), &args); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArguments, err)
	}
	return args, nil
}
