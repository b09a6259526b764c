package model

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// Kind identifies which member of the Value union is populated.
type Kind uint8

const (
	KindNull Kind = iota
	KindString
	KindNumber
	KindBool
	KindDate
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "boolean"
	case KindDate:
		return "date"
	default:
		return "unknown"
	}
}

// DateLayout is the canonical text form of KindDate values.
const DateLayout = "2006-01-02"

// Value is a submitted form value. The zero Value is Null.
type Value struct {
	kind Kind
	str  string // string payload, or the literal text of a number
	num  float64
	b    bool
	t    time.Time
}

// Null returns the null value.
func Null() Value { return Value{} }

// String wraps a string.
func String(s string) Value { return Value{kind: KindString, str: s} }

// Number wraps a float.
func Number(f float64) Value { return Value{kind: KindNumber, num: f} }

// NumberLiteral parses a numeric literal and keeps its text for display.
func NumberLiteral(raw string) (Value, error) {
	trimmed := strings.TrimSpace(raw)
	f, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return Value{}, fmt.Errorf("model: invalid number literal %q", raw)
	}
	return Value{kind: KindNumber, num: f, str: trimmed}, nil
}

// Bool wraps a boolean.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Date wraps a calendar date. Only the year, month and day are significant.
func Date(t time.Time) Value { return Value{kind: KindDate, t: t} }

// FromAny converts decoded JSON/YAML scalars and common Go types into a Value.
// Objects and arrays are rejected.
func FromAny(raw any) (Value, error) {
	switch v := raw.(type) {
	case nil:
		return Null(), nil
	case Value:
		return v, nil
	case string:
		return String(v), nil
	case bool:
		return Bool(v), nil
	case float64:
		return Number(v), nil
	case float32:
		return Number(float64(v)), nil
	case int:
		return Value{kind: KindNumber, num: float64(v), str: strconv.Itoa(v)}, nil
	case int64:
		return Value{kind: KindNumber, num: float64(v), str: strconv.FormatInt(v, 10)}, nil
	case int32:
		return Value{kind: KindNumber, num: float64(v), str: strconv.FormatInt(int64(v), 10)}, nil
	case uint:
		return Value{kind: KindNumber, num: float64(v), str: strconv.FormatUint(uint64(v), 10)}, nil
	case uint64:
		return Value{kind: KindNumber, num: float64(v), str: strconv.FormatUint(v, 10)}, nil
	case time.Time:
		return Date(v), nil
	case *time.Time:
		if v == nil {
			return Null(), nil
		}
		return Date(*v), nil
	case interface {
		Float64() (float64, error)
		String() string
	}:
		// json.Number from either encoding/json or goccy/go-json.
		return NumberLiteral(v.String())
	default:
		return Value{}, fmt.Errorf("model: unsupported value type %T", raw)
	}
}

// MustFromAny is FromAny for literals known to be valid, mostly in tests and
// fixtures.
func MustFromAny(raw any) Value {
	v, err := FromAny(raw)
	if err != nil {
		panic(err)
	}
	return v
}

func (v Value) Kind() Kind    { return v.kind }
func (v Value) IsNull() bool  { return v.kind == KindNull }
func (v Value) IsEmpty() bool { return v.kind == KindNull || (v.kind == KindString && v.str == "") }

// Text returns the string payload when the value is a string.
func (v Value) Text() (string, bool) {
	if v.kind != KindString {
		return "", false
	}
	return v.str, true
}

// Float returns the numeric payload when the value is a number.
func (v Value) Float() (float64, bool) {
	if v.kind != KindNumber {
		return 0, false
	}
	return v.num, true
}

// Boolean returns the boolean payload when the value is a boolean.
func (v Value) Boolean() (bool, bool) {
	if v.kind != KindBool {
		return false, false
	}
	return v.b, true
}

// Time returns the date payload when the value is a date.
func (v Value) Time() (time.Time, bool) {
	if v.kind != KindDate {
		return time.Time{}, false
	}
	return v.t, true
}

// String returns the plain text form: empty for null, the literal text for
// numbers, true/false for booleans and YYYY-MM-DD for dates.
func (v Value) String() string {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		if v.str != "" {
			return v.str
		}
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindDate:
		return v.t.Format(DateLayout)
	default:
		return ""
	}
}

// Truthy follows the usual dynamic-language rules: null, empty string, zero
// and false are falsy; whitespace-only strings are truthy.
func (v Value) Truthy() bool {
	switch v.kind {
	case KindString:
		return v.str != ""
	case KindNumber:
		return v.num != 0
	case KindBool:
		return v.b
	case KindDate:
		return !v.t.IsZero()
	default:
		return false
	}
}

// Equal compares kind and payload. Numbers compare by value, so 1 and 1.0
// are equal; values of different kinds never are.
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindString:
		return v.str == other.str
	case KindNumber:
		return v.num == other.num
	case KindBool:
		return v.b == other.b
	case KindDate:
		y1, m1, d1 := v.t.Date()
		y2, m2, d2 := other.t.Date()
		return y1 == y2 && m1 == m2 && d1 == d2
	default:
		return false
	}
}

// Interface returns the value as a plain Go scalar (nil, string, float64,
// bool or time.Time).
func (v Value) Interface() any {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		return v.num
	case KindBool:
		return v.b
	case KindDate:
		return v.t
	default:
		return nil
	}
}

// MarshalJSON implements json.Marshaler.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindNull:
		return []byte("null"), nil
	case KindNumber:
		if math.IsNaN(v.num) || math.IsInf(v.num, 0) {
			return nil, fmt.Errorf("model: cannot encode %v as JSON", v.num)
		}
		return []byte(v.String()), nil
	case KindBool:
		return []byte(strconv.FormatBool(v.b)), nil
	default:
		return json.Marshal(v.String())
	}
}

// UnmarshalJSON implements json.Unmarshaler. Numbers keep their literal text.
func (v *Value) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return fmt.Errorf("model: decode value: %w", err)
	}
	parsed, err := FromAny(raw)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (v Value) MarshalYAML() (any, error) {
	if v.kind == KindDate {
		return v.String(), nil
	}
	return v.Interface(), nil
}

// UnmarshalYAML implements yaml.Unmarshaler. Timestamps stay strings so date
// fields see the same text a JSON submission would carry.
func (v *Value) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.AliasNode && node.Alias != nil {
		return v.UnmarshalYAML(node.Alias)
	}
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("model: line %d: form values must be scalars", node.Line)
	}

	switch node.ShortTag() {
	case "!!null":
		*v = Null()
	case "!!bool":
		var b bool
		if err := node.Decode(&b); err != nil {
			return fmt.Errorf("model: line %d: %w", node.Line, err)
		}
		*v = Bool(b)
	case "!!int", "!!float":
		var f float64
		if err := node.Decode(&f); err != nil {
			return fmt.Errorf("model: line %d: %w", node.Line, err)
		}
		if parsed, err := NumberLiteral(node.Value); err == nil {
			*v = parsed
			return nil
		}
		*v = Number(f)
	default:
		*v = String(node.Value)
	}
	return nil
}
