package tools

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/cloudwego/eino/schema"

	"github.com/dalio-ai/dalio/backend/internal/model/market"
)

// ErrInvalidArguments wraps every argument validation failure.
var ErrInvalidArguments = errors.New("invalid tool arguments")

// Param declares one argument of a tool.
type Param struct {
	Name     string
	Type     schema.DataType
	ElemType schema.DataType
	Desc     string
	Enum     []string
	Required bool
}

// Spec is the static declaration of a tool: name, description and parameters.
type Spec struct {
	Name   market.ToolName
	Desc   string
	Params []Param
}

// ToolInfo converts the declaration into the eino form bound to chat models.
func (s Spec) ToolInfo() *schema.ToolInfo {
	params := make(map[string]*schema.ParameterInfo, len(s.Params))
	for _, p := range s.Params {
		info := &schema.ParameterInfo{
			Type:     p.Type,
			Desc:     p.Desc,
			Enum:     p.Enum,
			Required: p.Required,
		}
		if p.Type == schema.Array && p.ElemType != "" {
			info.ElemInfo = &schema.ParameterInfo{Type: p.ElemType}
		}
		params[p.Name] = info
	}
	return &schema.ToolInfo{
		Name:        string(s.Name),
		Desc:        s.Desc,
		ParamsOneOf: schema.NewParamsOneOfByParams(params),
	}
}

// JSONSchema renders the parameters as a JSON Schema object.
func (s Spec) JSONSchema() map[string]any {
	properties := make(map[string]any, len(s.Params))
	required := make([]string, 0, len(s.Params))
	for _, p := range s.Params {
		prop := map[string]any{
			"type":        string(p.Type),
			"description": p.Desc,
		}
		if len(p.Enum) > 0 {
			prop["enum"] = p.Enum
		}
		if p.Type == schema.Array && p.ElemType != "" {
			prop["items"] = map[string]any{"type": string(p.ElemType)}
		}
		properties[p.Name] = prop
		if p.Required {
			required = append(required, p.Name)
		}
	}
	return map[string]any{
		"type":       "object",
		"properties": properties,
		"required":   required,
	}
}

// Validate checks required fields and primitive types of decoded arguments.
func (s Spec) Validate(args map[string]any) error {
	for _, p := range s.Params {
		value, ok := args[p.Name]
		if !ok || value == nil {
			if p.Required {
				return fmt.Errorf("%w: missing required field %s", ErrInvalidArguments, p.Name)
			}
			continue
		}
		if err := validateType(value, p.Type); err != nil {
			return fmt.Errorf("%w: field %s: %v", ErrInvalidArguments, p.Name, err)
		}
		if p.Type == schema.Array && p.ElemType != "" {
			for i, item := range value.([]any) {
				if err := validateType(item, p.ElemType); err != nil {
					return fmt.Errorf("%w: field %s[%d]: %v", ErrInvalidArguments, p.Name, i, err)
				}
			}
		}
		if len(p.Enum) > 0 {
			str, _ := value.(string)
			if !contains(p.Enum, str) {
				return fmt.Errorf("%w: field %s: %q is not one of %v", ErrInvalidArguments, p.Name, str, p.Enum)
			}
		}
	}
	return nil
}

func validateType(value any, expected schema.DataType) error {
	switch expected {
	case schema.String:
		if _, ok := value.(string); ok {
			return nil
		}
	case schema.Number:
		if _, ok := value.(float64); ok {
			return nil
		}
		if n, ok := value.(json.Number); ok {
			if _, err := n.Float64(); err == nil {
				return nil
			}
		}
	case schema.Integer:
		if f, ok := value.(float64); ok && math.Trunc(f) == f {
			return nil
		}
		if n, ok := value.(json.Number); ok {
			if _, err := n.Int64(); err == nil {
				return nil
			}
		}
	case schema.Boolean:
		if _, ok := value.(bool); ok {
			return nil
		}
	case schema.Array:
		if _, ok := value.([]any); ok {
			return nil
		}
	case schema.Object:
		if _, ok := value.(map[string]any); ok {
			return nil
		}
	default:
		return fmt.Errorf("unsupported schema type %q", expected)
	}
	return fmt.Errorf("expected %s but got %T", expected, value)
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
