package app

import (
	"encoding"
	"encoding/json"
	"math/big"
	"reflect"
	"strconv"
	"strings"
)

// maxSafeInteger is the largest integer a float64-based JSON consumer
// can represent exactly (2^53 - 1).
const maxSafeInteger = 1<<53 - 1

var (
	bigIntType     = reflect.TypeOf(big.Int{})
	jsonMarshalerT = reflect.TypeOf((*json.Marshaler)(nil)).Elem()
	textMarshalerT = reflect.TypeOf((*encoding.TextMarshaler)(nil)).Elem()
	rawMessageType = reflect.TypeOf(json.RawMessage(nil))
)

// EncodeSafe returns a JSON-ready copy of v in which every big.Int, and
// every 64-bit integer beyond 2^53-1, is replaced by its decimal string.
// Structs become maps keyed by their json tags.
func EncodeSafe(v any) any {
	if v == nil {
		return nil
	}
	return encodeValue(reflect.ValueOf(v))
}

func encodeValue(v reflect.Value) any {
	if !v.IsValid() {
		return nil
	}
	switch v.Kind() {
	case reflect.Pointer:
		if v.IsNil() {
			return nil
		}
		if v.Type().Elem() == bigIntType {
			return v.Interface().(*big.Int).String()
		}
		return encodeValue(v.Elem())
	case reflect.Interface:
		if v.IsNil() {
			return nil
		}
		return encodeValue(v.Elem())
	}

	t := v.Type()
	if t == bigIntType {
		if v.CanAddr() {
			return v.Addr().Interface().(*big.Int).String()
		}
		return ptrTo(v).Interface().(*big.Int).String()
	}
	if t == rawMessageType || t.Implements(jsonMarshalerT) || t.Implements(textMarshalerT) {
		return v.Interface()
	}

	switch v.Kind() {
	case reflect.Int, reflect.Int64:
		n := v.Int()
		if n > maxSafeInteger || n < -maxSafeInteger {
			return strconv.FormatInt(n, 10)
		}
		return v.Interface()
	case reflect.Uint, reflect.Uint64, reflect.Uintptr:
		n := v.Uint()
		if n > maxSafeInteger {
			return strconv.FormatUint(n, 10)
		}
		return v.Interface()
	case reflect.Map:
		if v.IsNil() {
			return nil
		}
		if t.Key().Kind() != reflect.String {
			return v.Interface()
		}
		out := make(map[string]any, v.Len())
		iter := v.MapRange()
		for iter.Next() {
			out[iter.Key().String()] = encodeValue(iter.Value())
		}
		return out
	case reflect.Slice:
		if v.IsNil() {
			return nil
		}
		if t.Elem().Kind() == reflect.Uint8 {
			return v.Interface()
		}
		return encodeSequence(v)
	case reflect.Array:
		if t.Elem().Kind() == reflect.Uint8 {
			return v.Interface()
		}
		return encodeSequence(v)
	case reflect.Struct:
		return encodeStruct(v)
	default:
		return v.Interface()
	}
}

func encodeSequence(v reflect.Value) []any {
	out := make([]any, v.Len())
	for i := range out {
		out[i] = encodeValue(v.Index(i))
	}
	return out
}

func encodeStruct(v reflect.Value) map[string]any {
	out := make(map[string]any, v.NumField())
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}
		name, omitEmpty, skip := jsonFieldName(field)
		if skip {
			continue
		}
		fv := v.Field(i)
		if field.Anonymous && field.Tag.Get("json") == "" {
			inner := fv
			if inner.Kind() == reflect.Pointer {
				if inner.IsNil() {
					continue
				}
				inner = inner.Elem()
			}
			if inner.Kind() == reflect.Struct && inner.Type() != bigIntType {
				for k, val := range encodeStruct(inner) {
					if _, exists := out[k]; !exists {
						out[k] = val
					}
				}
				continue
			}
		}
		if omitEmpty && isEmptyValue(fv) {
			continue
		}
		out[name] = encodeValue(fv)
	}
	return out
}

func jsonFieldName(field reflect.StructField) (name string, omitEmpty, skip bool) {
	tag := field.Tag.Get("json")
	if tag == "-" {
		return "", false, true
	}
	name, opts, _ := strings.Cut(tag, ",")
	if name == "" {
		name = field.Name
	}
	for _, opt := range strings.Split(opts, ",") {
		if opt == "omitempty" {
			omitEmpty = true
		}
	}
	return name, omitEmpty, false
}

func isEmptyValue(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Array, reflect.Map, reflect.Slice, reflect.String:
		return v.Len() == 0
	case reflect.Bool:
		return !v.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int() == 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return v.Uint() == 0
	case reflect.Float32, reflect.Float64:
		return v.Float() == 0
	case reflect.Interface, reflect.Pointer:
		return v.IsNil()
	default:
		return false
	}
}

// ptrTo copies an unaddressable value so pointer-receiver methods can run.
func ptrTo(v reflect.Value) reflect.Value {
	p := reflect.New(v.Type())
	p.Elem().Set(v)
	return p
}
