package types

import (
	"encoding/json"
	"fmt"
	"strconv"
)

type ValueKind byte

const (
	Categorical ValueKind = iota
	Numeric
)

// Value is a single feature value. Whether a value is numeric or categorical
// is decided once, when the value enters the pipeline; consumers dispatch on
// Kind instead of re-coercing raw interface{} data.
type Value struct {
	kind ValueKind
	num  float64
	cat  string
}

func Num(v float64) Value {
	return Value{kind: Numeric, num: v}
}

func Cat(s string) Value {
	return Value{kind: Categorical, cat: s}
}

func (v Value) Kind() ValueKind {
	return v.kind
}

// Numeric returns the numeric reading of the value. Categorical values that
// parse as floats still coerce: the binner treats "12" and 12 the same way.
func (v Value) Numeric() (float64, bool) {
	if v.kind == Numeric {
		return v.num, true
	}
	f, err := strconv.ParseFloat(v.cat, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func (v Value) String() string {
	if v.kind == Numeric {
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	}
	return v.cat
}

func (v Value) MarshalJSON() ([]byte, error) {
	if v.kind == Numeric {
		return json.Marshal(v.num)
	}
	return json.Marshal(v.cat)
}

func (v *Value) UnmarshalJSON(data []byte) error {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch typed := raw.(type) {
	case float64:
		*v = Num(typed)
	case string:
		*v = Cat(typed)
	case bool:
		*v = Cat(strconv.FormatBool(typed))
	case nil:
		*v = Cat("")
	default:
		return fmt.Errorf("unsupported feature value %v", raw)
	}
	return nil
}

// Token holds the feature dictionary of a single token position.
type Token map[string]Value

// Example is one ordered token sequence to be tagged.
type Example struct {
	Tokens []string `json:"tokens"`
}
