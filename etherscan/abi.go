package etherscan

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Parameter is an input, output or tuple component of a contract member.
// A parameter of type "tuple" always carries at least one component.
type Parameter struct {
	Name       string
	Type       string
	Indexed    *bool
	Components []Parameter

	// Extra holds fields the validator does not know about, e.g. internalType.
	Extra map[string]any
}

// ContractMember is one function, event, constructor, fallback or error
// entry of an ABI.
type ContractMember struct {
	Name            string
	Type            string
	Inputs          []Parameter
	Outputs         []Parameter
	Constant        *bool
	Payable         *bool
	StateMutability string
	Anonymous       *bool

	Extra map[string]any
}

// ContractABI keeps members in declaration order.
type ContractABI []ContractMember

func (p Parameter) MarshalJSON() ([]byte, error) {
	out := withExtra(p.Extra)
	out["name"] = p.Name
	if p.Type != "" {
		out["type"] = p.Type
	}
	if p.Indexed != nil {
		out["indexed"] = *p.Indexed
	}
	if p.Components != nil {
		out["components"] = p.Components
	}
	return json.Marshal(out)
}

func (m ContractMember) MarshalJSON() ([]byte, error) {
	out := withExtra(m.Extra)
	out["type"] = m.Type
	if m.Name != "" {
		out["name"] = m.Name
	}
	if m.Inputs != nil {
		out["inputs"] = m.Inputs
	}
	if m.Outputs != nil {
		out["outputs"] = m.Outputs
	}
	if m.Constant != nil {
		out["constant"] = *m.Constant
	}
	if m.Payable != nil {
		out["payable"] = *m.Payable
	}
	if m.StateMutability != "" {
		out["stateMutability"] = m.StateMutability
	}
	if m.Anonymous != nil {
		out["anonymous"] = *m.Anonymous
	}
	return json.Marshal(out)
}

func withExtra(extra map[string]any) map[string]any {
	out := make(map[string]any, len(extra)+4)
	for k, v := range extra {
		out[k] = v
	}
	return out
}

// ParseABI decodes raw ABI JSON and validates its structure.
func ParseABI(address string, raw []byte) (ContractABI, error) {
	var tree any
	if err := json.Unmarshal(raw, &tree); err != nil {
		return nil, &ABIParseError{Address: address, Err: err}
	}
	return Validate(address, tree)
}

type lookupOutcome int

const (
	outcomeFound lookupOutcome = iota
	outcomeNotVerified
)

// decodeABI interprets a contract_getabi envelope. The not-verified sentinel
// is recognised here and nowhere else.
func decodeABI(envelope *Envelope, address string) (any, lookupOutcome, error) {
	var result *string
	if err := json.Unmarshal(envelope.Result, &result); err != nil {
		return nil, outcomeFound, &ABIParseError{
			Address: address,
			Err:     fmt.Errorf("result is not a string: %w", err),
		}
	}
	if result == nil {
		return nil, outcomeFound, &ABIParseError{Address: address, Err: errors.New("result is null")}
	}

	if envelope.Message == "NOTOK" && envelope.Status == "0" && *result == "" {
		return nil, outcomeNotVerified, nil
	}

	var tree any
	if err := json.Unmarshal([]byte(*result), &tree); err != nil {
		return nil, outcomeFound, &ABIParseError{Address: address, Err: err}
	}
	return tree, outcomeFound, nil
}
