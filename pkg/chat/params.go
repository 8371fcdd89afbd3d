package chat

import (
	"encoding/json"
	"fmt"
)

// ParamKind discriminates the value held by a Param.
type ParamKind int

const (
	ParamString ParamKind = iota
	ParamNumber
	ParamBool
	ParamMap
)

// Param is a tagged value carried in a request's additional parameters.
// Keeping the union explicit (rather than map[string]any) lets callers
// dispatch on kind without type switches over arbitrary values.
type Param struct {
	kind ParamKind
	str  string
	num  float64
	b    bool
	m    map[string]Param
}

// Params is the open additional-parameters bag passed through to agents.
type Params map[string]Param

func StringParam(s string) Param  { return Param{kind: ParamString, str: s} }
func NumberParam(n float64) Param { return Param{kind: ParamNumber, num: n} }
func BoolParam(b bool) Param      { return Param{kind: ParamBool, b: b} }

func MapParam(m map[string]Param) Param {
	cp := make(map[string]Param, len(m))
	for k, v := range m {
		cp[k] = v
	}
	return Param{kind: ParamMap, m: cp}
}

func (p Param) Kind() ParamKind { return p.kind }

func (p Param) String() (string, bool) {
	return p.str, p.kind == ParamString
}

func (p Param) Number() (float64, bool) {
	return p.num, p.kind == ParamNumber
}

func (p Param) Bool() (bool, bool) {
	return p.b, p.kind == ParamBool
}

func (p Param) Map() (map[string]Param, bool) {
	if p.kind != ParamMap {
		return nil, false
	}
	cp := make(map[string]Param, len(p.m))
	for k, v := range p.m {
		cp[k] = v
	}
	return cp, true
}

// MarshalJSON encodes the param as the plain JSON value it wraps.
func (p Param) MarshalJSON() ([]byte, error) {
	switch p.kind {
	case ParamString:
		return json.Marshal(p.str)
	case ParamNumber:
		return json.Marshal(p.num)
	case ParamBool:
		return json.Marshal(p.b)
	case ParamMap:
		return json.Marshal(p.m)
	default:
		return nil, fmt.Errorf("unknown param kind %d", p.kind)
	}
}

// UnmarshalJSON decodes a plain JSON value into the matching kind.
// Arrays and null are not part of the supported union.
func (p *Param) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	switch v := raw.(type) {
	case string:
		*p = StringParam(v)
	case float64:
		*p = NumberParam(v)
	case bool:
		*p = BoolParam(v)
	case map[string]any:
		m := make(map[string]Param, len(v))
		for key, val := range v {
			encoded, err := json.Marshal(val)
			if err != nil {
				return err
			}
			var nested Param
			if err := nested.UnmarshalJSON(encoded); err != nil {
				return fmt.Errorf("param %q: %w", key, err)
			}
			m[key] = nested
		}
		*p = Param{kind: ParamMap, m: m}
	default:
		return fmt.Errorf("unsupported param value %T", raw)
	}
	return nil
}
