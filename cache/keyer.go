package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"sort"
	"strconv"
)

// MaxDepth bounds how deeply arguments may nest. Deeper values, including
// self-referencing maps and slices, are rejected as unhashable.
const MaxDepth = 64

// Keyer derives deterministic cache keys from a call's identity.
//
// Contract:
// - Determinism: same inputs must produce the same key, regardless of map
// iteration order or keyword-argument order.
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: unsupported argument values yield ErrUnhashableArgument.
type Keyer interface {
	// Derive returns the key for op called with args and kwargs.
	Derive(op string, args []any, kwargs map[string]any) (Key, error)
}

// DefaultKeyer derives SHA-256 keys over a canonical JSON encoding of
// [op, [args...], [[name, value]...]] with keyword arguments sorted by name.
//
// Hashable values are nil, bool, string, every integer kind, finite floats,
// json.Number, slices and arrays of hashable values, and maps with string
// keys and hashable values. Named types are accepted by their kind.
// Integral floats encode like integers, so 1 and 1.0 share a key. A nil
// slice or map encodes like an empty one.
type DefaultKeyer struct{}

// NewDefaultKeyer creates a new default keyer.
func NewDefaultKeyer() *DefaultKeyer {
	return &DefaultKeyer{}
}

// Derive generates a deterministic cache key.
func (k *DefaultKeyer) Derive(op string, args []any, kwargs map[string]any) (Key, error) {
	canonical, err := Canonicalize(op, args, kwargs)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(canonical)
	return Key(hex.EncodeToString(sum[:])), nil
}

// Canonicalize returns the canonical byte form hashed by DefaultKeyer.
func Canonicalize(op string, args []any, kwargs map[string]any) ([]byte, error) {
	if op == "" {
		return nil, ErrInvalidOperation
	}

	buf := make([]byte, 0, 64)
	buf = append(buf, '[')
	buf = appendString(buf, op)

	buf = append(buf, ",["...)
	for i, arg := range args {
		if i > 0 {
			buf = append(buf, ',')
		}
		var err error
		buf, err = appendValue(buf, reflect.ValueOf(arg), "args["+strconv.Itoa(i)+"]", 1)
		if err != nil {
			return nil, err
		}
	}

	buf = append(buf, "],["...)
	names := make([]string, 0, len(kwargs))
	for name := range kwargs {
		names = append(names, name)
	}
	sort.Strings(names)
	for i, name := range names {
		if i > 0 {
			buf = append(buf, ',')
		}
		buf = append(buf, '[')
		buf = appendString(buf, name)
		buf = append(buf, ',')
		var err error
		buf, err = appendValue(buf, reflect.ValueOf(kwargs[name]), "kwargs["+strconv.Quote(name)+"]", 1)
		if err != nil {
			return nil, err
		}
		buf = append(buf, ']')
	}
	buf = append(buf, "]]"...)

	return buf, nil
}

var numberType = reflect.TypeOf(json.Number(""))

func unhashable(path, reason string) error {
	return fmt.Errorf("%w: %s: %s", ErrUnhashableArgument, path, reason)
}

func appendValue(buf []byte, v reflect.Value, path string, depth int) ([]byte, error) {
	if depth > MaxDepth {
		return nil, unhashable(path, "nesting exceeds max depth")
	}
	if !v.IsValid() {
		return append(buf, "null"...), nil
	}
	if v.Type() == numberType {
		return appendNumber(buf, json.Number(v.String()), path)
	}

	switch v.Kind() {
	case reflect.Interface:
		if v.IsNil() {
			return append(buf, "null"...), nil
		}
		return appendValue(buf, v.Elem(), path, depth)

	case reflect.Bool:
		return strconv.AppendBool(buf, v.Bool()), nil

	case reflect.String:
		return appendString(buf, v.String()), nil

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.AppendInt(buf, v.Int(), 10), nil

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return strconv.AppendUint(buf, v.Uint(), 10), nil

	case reflect.Float32, reflect.Float64:
		return appendFloat(buf, v.Float(), path)

	case reflect.Slice, reflect.Array:
		buf = append(buf, '[')
		for i := 0; i < v.Len(); i++ {
			if i > 0 {
				buf = append(buf, ',')
			}
			var err error
			buf, err = appendValue(buf, v.Index(i), path+"["+strconv.Itoa(i)+"]", depth+1)
			if err != nil {
				return nil, err
			}
		}
		return append(buf, ']'), nil

	case reflect.Map:
		if v.Type().Key().Kind() != reflect.String {
			return nil, unhashable(path, "map key type "+v.Type().Key().String()+" is not a string")
		}
		keys := v.MapKeys()
		sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
		buf = append(buf, '{')
		for i, mk := range keys {
			if i > 0 {
				buf = append(buf, ',')
			}
			buf = appendString(buf, mk.String())
			buf = append(buf, ':')
			var err error
			buf, err = appendValue(buf, v.MapIndex(mk), path+"["+strconv.Quote(mk.String())+"]", depth+1)
			if err != nil {
				return nil, err
			}
		}
		return append(buf, '}'), nil

	default:
		return nil, unhashable(path, "unsupported type "+v.Type().String())
	}
}

func appendFloat(buf []byte, f float64, path string) ([]byte, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, unhashable(path, "non-finite float")
	}
	if f == 0 {
		return append(buf, '0'), nil
	}
	if f == math.Trunc(f) && math.Abs(f) < 1e21 {
		return strconv.AppendFloat(buf, f, 'f', -1, 64), nil
	}
	return strconv.AppendFloat(buf, f, 'g', -1, 64), nil
}

func appendNumber(buf []byte, n json.Number, path string) ([]byte, error) {
	if i, err := strconv.ParseInt(string(n), 10, 64); err == nil {
		return strconv.AppendInt(buf, i, 10), nil
	}
	if u, err := strconv.ParseUint(string(n), 10, 64); err == nil {
		return strconv.AppendUint(buf, u, 10), nil
	}
	f, err := strconv.ParseFloat(string(n), 64)
	if err != nil {
		return nil, unhashable(path, "malformed json.Number "+strconv.Quote(string(n)))
	}
	return appendFloat(buf, f, path)
}

func appendString(buf []byte, s string) []byte {
	// json.Marshal of a string cannot fail.
	b, _ := json.Marshal(s)
	return append(buf, b...)
}

// Ensure DefaultKeyer implements Keyer
var _ Keyer = (*DefaultKeyer)(nil)
