package etherscan

import (
	"fmt"
	"slices"
)

var (
	memberFields    = []string{"anonymous", "constant", "inputs", "name", "outputs", "payable", "stateMutability", "type"}
	parameterFields = []string{"components", "indexed", "name", "type"}
)

// Validate checks a decoded JSON tree against the contract ABI shape and
// returns the typed ABI. Unknown fields are accepted and kept in Extra.
// Every violation is reported, not just the first.
func Validate(address string, tree any) (ContractABI, error) {
	abi, violations := ValidateTree(tree)
	if len(violations) > 0 {
		return nil, &SchemaError{Address: address, Violations: violations}
	}
	return abi, nil
}

func ValidateTree(tree any) (ContractABI, []Violation) {
	v := &validator{}
	abi := v.abi(tree)
	return abi, v.violations
}

type validator struct {
	violations []Violation
}

func (v *validator) fail(path, format string, args ...any) {
	v.violations = append(v.violations, Violation{Path: path, Message: fmt.Sprintf(format, args...)})
}

func (v *validator) abi(node any) ContractABI {
	items, ok := node.([]any)
	if !ok {
		v.fail("", "must be an array, got %s", kindOf(node))
		return nil
	}

	abi := make(ContractABI, 0, len(items))
	for i, item := range items {
		abi = append(abi, v.member(fmt.Sprintf("[%d]", i), item))
	}
	return abi
}

func (v *validator) member(path string, node any) ContractMember {
	obj, ok := node.(map[string]any)
	if !ok {
		v.fail(path, "must be an object, got %s", kindOf(node))
		return ContractMember{}
	}

	m := ContractMember{Extra: extraFields(obj, memberFields)}
	if _, present := obj["type"]; !present {
		v.fail(join(path, "type"), "is required")
	} else {
		m.Type = v.str(path, obj, "type", false)
	}
	m.Name = v.str(path, obj, "name", true)
	m.StateMutability = v.str(path, obj, "stateMutability", false)
	m.Constant = v.boolean(path, obj, "constant")
	m.Payable = v.boolean(path, obj, "payable")
	m.Anonymous = v.boolean(path, obj, "anonymous")
	if raw, present := obj["inputs"]; present {
		m.Inputs = v.parameters(join(path, "inputs"), raw)
	}
	if raw, present := obj["outputs"]; present {
		m.Outputs = v.parameters(join(path, "outputs"), raw)
	}
	return m
}

func (v *validator) parameters(path string, node any) []Parameter {
	items, ok := node.([]any)
	if !ok {
		v.fail(path, "must be an array, got %s", kindOf(node))
		return nil
	}

	params := make([]Parameter, 0, len(items))
	for i, item := range items {
		params = append(params, v.parameter(fmt.Sprintf("%s[%d]", path, i), item))
	}
	return params
}

func (v *validator) parameter(path string, node any) Parameter {
	obj, ok := node.(map[string]any)
	if !ok {
		v.fail(path, "must be an object, got %s", kindOf(node))
		return Parameter{}
	}

	p := Parameter{Extra: extraFields(obj, parameterFields)}
	p.Name = v.str(path, obj, "name", true)
	p.Type = v.str(path, obj, "type", false)
	p.Indexed = v.boolean(path, obj, "indexed")

	raw, present := obj["components"]
	if present {
		p.Components = v.parameters(join(path, "components"), raw)
	}
	if p.Type == "tuple" {
		switch {
		case !present:
			v.fail(join(path, "components"), "is required for tuple parameters")
		case p.Components != nil && len(p.Components) == 0:
			v.fail(join(path, "components"), "must contain at least 1 item")
		}
	}
	return p
}

// str reads an optional string field. An absent field yields "".
func (v *validator) str(path string, obj map[string]any, key string, allowEmpty bool) string {
	raw, present := obj[key]
	if !present {
		return ""
	}
	s, ok := raw.(string)
	if !ok {
		v.fail(join(path, key), "must be a string, got %s", kindOf(raw))
		return ""
	}
	if s == "" && !allowEmpty {
		v.fail(join(path, key), "is not allowed to be empty")
	}
	return s
}

func (v *validator) boolean(path string, obj map[string]any, key string) *bool {
	raw, present := obj[key]
	if !present {
		return nil
	}
	b, ok := raw.(bool)
	if !ok {
		v.fail(join(path, key), "must be a boolean, got %s", kindOf(raw))
		return nil
	}
	return &b
}

func extraFields(obj map[string]any, known []string) map[string]any {
	var extra map[string]any
	for k, val := range obj {
		if slices.Contains(known, k) {
			continue
		}
		if extra == nil {
			extra = make(map[string]any)
		}
		extra[k] = val
	}
	return extra
}

func join(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}

func kindOf(node any) string {
	switch node.(type) {
	case nil:
		return "null"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	case string:
		return "string"
	case bool:
		return "boolean"
	case float64:
		return "number"
	default:
		return fmt.Sprintf("%T", node)
	}
}
