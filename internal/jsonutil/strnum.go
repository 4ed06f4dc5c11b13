package jsonutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
)

// NotAvailable is the sentinel ffprobe emits for values it cannot determine.
const NotAvailable = "N/A"

// Numeric lists the target types the string decoders can produce.
type Numeric interface {
	~int | ~int32 | ~int64 | ~uint | ~uint32 | ~uint64 | ~float32 | ~float64
}

// ParseString parses s using the standard textual form of T.
func ParseString[T Numeric](s string) (T, error) {
	typ := reflect.TypeFor[T]()
	switch typ.Kind() {
	case reflect.Int, reflect.Int32, reflect.Int64:
		v, err := strconv.ParseInt(s, 10, typ.Bits())
		if err != nil {
			return 0, err
		}
		return T(v), nil
	case reflect.Uint, reflect.Uint32, reflect.Uint64:
		v, err := strconv.ParseUint(s, 10, typ.Bits())
		if err != nil {
			return 0, err
		}
		return T(v), nil
	case reflect.Float32, reflect.Float64:
		v, err := strconv.ParseFloat(s, typ.Bits())
		if err != nil {
			return 0, err
		}
		return T(v), nil
	default:
		return 0, fmt.Errorf("unsupported numeric kind %s", typ.Kind())
	}
}

// Number decodes a JSON string holding a value of type T.
type Number[T Numeric] struct {
	Value T
	Set   bool
}

// UnmarshalJSON implements json.Unmarshaler.
func (n *Number[T]) UnmarshalJSON(data []byte) error {
	s, err := stringValue[T](data)
	if err != nil {
		return err
	}
	v, err := ParseString[T](s)
	if err != nil {
		return typeError[T]("string " + strconv.Quote(s))
	}
	n.Value = v
	n.Set = true
	return nil
}

// MarshalJSON writes the value back in its string-encoded form.
func (n Number[T]) MarshalJSON() ([]byte, error) {
	return json.Marshal(formatNumber(n.Value))
}

// Required returns the decoded value or an error naming the missing field.
func (n Number[T]) Required(field string) (T, error) {
	if !n.Set {
		return n.Value, fmt.Errorf("missing field %q", field)
	}
	return n.Value, nil
}

// Optional decodes either the "N/A" sentinel or a JSON string holding a T.
// A field that is absent from the document also decodes as not valid.
type Optional[T Numeric] struct {
	Value T
	Valid bool
}

// UnmarshalJSON implements json.Unmarshaler.
func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	s, err := stringValue[T](data)
	if err != nil {
		return err
	}
	if s == NotAvailable {
		var zero T
		o.Value = zero
		o.Valid = false
		return nil
	}
	var n Number[T]
	if err := n.UnmarshalJSON(data); err != nil {
		return err
	}
	o.Value = n.Value
	o.Valid = true
	return nil
}

// MarshalJSON writes "N/A" for absent values and a quoted number otherwise.
func (o Optional[T]) MarshalJSON() ([]byte, error) {
	if !o.Valid {
		return json.Marshal(NotAvailable)
	}
	return json.Marshal(formatNumber(o.Value))
}

// Get returns the value and whether it was present.
func (o Optional[T]) Get() (T, bool) {
	return o.Value, o.Valid
}

// Ptr returns a pointer to a copy of the value, or nil when absent.
func (o Optional[T]) Ptr() *T {
	if !o.Valid {
		return nil
	}
	v := o.Value
	return &v
}

func stringValue[T Numeric](data []byte) (string, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '"' {
		return "", typeError[T](describeLiteral(data))
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return "", err
	}
	return s, nil
}

func describeLiteral(data []byte) string {
	if len(data) == 0 {
		return "empty value"
	}
	switch data[0] {
	case '{':
		return "object"
	case '[':
		return "array"
	case 't', 'f':
		return "bool " + string(data)
	case 'n':
		return "null"
	default:
		return "number " + string(data)
	}
}

func typeError[T Numeric](value string) error {
	return &json.UnmarshalTypeError{
		Value: value,
		Type:  reflect.TypeFor[T](),
	}
}

func formatNumber[T Numeric](v T) string {
	switch reflect.TypeFor[T]().Kind() {
	case reflect.Float32, reflect.Float64:
		return strconv.FormatFloat(float64(v), 'f', -1, reflect.TypeFor[T]().Bits())
	case reflect.Uint, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(uint64(v), 10)
	default:
		return strconv.FormatInt(int64(v), 10)
	}
}
