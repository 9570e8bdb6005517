package cache

import (
	"encoding/json"
	"errors"
	"math"
	"strings"
	"testing"
)

func mustDerive(t *testing.T, op string, args []any, kwargs map[string]any) Key {
	t.Helper()
	key, err := NewDefaultKeyer().Derive(op, args, kwargs)
	if err != nil {
		t.Fatalf("Derive() error = %v", err)
	}
	return key
}

func TestKeyer_KwargOrderIndependent(t *testing.T) {
	// Same content, different insertion order
	kw1 := map[string]any{"b": 2, "a": 1, "c": 3}
	kw2 := map[string]any{"a": 1, "c": 3, "b": 2}
	kw3 := map[string]any{"c": 3, "b": 2, "a": 1}

	key1 := mustDerive(t, "events", []any{"octocat"}, kw1)
	key2 := mustDerive(t, "events", []any{"octocat"}, kw2)
	key3 := mustDerive(t, "events", []any{"octocat"}, kw3)

	if key1 != key2 {
		t.Errorf("Keys should be equal for same content:\n  key1=%s\n  key2=%s", key1, key2)
	}
	if key2 != key3 {
		t.Errorf("Keys should be equal for same content:\n  key2=%s\n  key3=%s", key2, key3)
	}
}

func TestKeyer_NestedMapsSorted(t *testing.T) {
	a := map[string]any{"filter": map[string]any{"type": "PushEvent", "repo": "x"}}
	b := map[string]any{"filter": map[string]any{"repo": "x", "type": "PushEvent"}}

	if mustDerive(t, "op", nil, a) != mustDerive(t, "op", nil, b) {
		t.Error("nested map order should not affect the key")
	}
}

func TestKeyer_ArrayOrderPreserved(t *testing.T) {
	key1 := mustDerive(t, "op", []any{[]any{1, 2, 3}}, nil)
	key2 := mustDerive(t, "op", []any{[]any{3, 2, 1}}, nil)

	if key1 == key2 {
		t.Errorf("Keys should differ for different array order:\n  key1=%s\n  key2=%s", key1, key2)
	}
}

func TestKeyer_Discrimination(t *testing.T) {
	base := mustDerive(t, "github.events", []any{"octocat"}, map[string]any{"page": 1})

	tests := []struct {
		name   string
		op     string
		args   []any
		kwargs map[string]any
	}{
		{"different op", "github.repos", []any{"octocat"}, map[string]any{"page": 1}},
		{"different arg", "github.events", []any{"torvalds"}, map[string]any{"page": 1}},
		{"extra arg", "github.events", []any{"octocat", 2}, map[string]any{"page": 1}},
		{"different kwarg value", "github.events", []any{"octocat"}, map[string]any{"page": 2}},
		{"different kwarg name", "github.events", []any{"octocat"}, map[string]any{"per_page": 1}},
		{"kwarg moved to arg", "github.events", []any{"octocat", 1}, nil},
		{"string vs number", "github.events", []any{"octocat"}, map[string]any{"page": "1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := mustDerive(t, tt.op, tt.args, tt.kwargs); got == base {
				t.Errorf("key should differ from base, both = %s", got)
			}
		})
	}
}

func TestKeyer_SameInputsSameKey(t *testing.T) {
	args := []any{"octocat", []string{"a", "b"}}
	kwargs := map[string]any{"query": "test", "limit": 10}

	keys := make([]Key, 5)
	for i := range keys {
		keys[i] = mustDerive(t, "search", args, kwargs)
	}
	for i := 1; i < len(keys); i++ {
		if keys[i] != keys[0] {
			t.Errorf("Key should be consistent across calls:\n  keys[0]=%s\n  keys[%d]=%s", keys[0], i, keys[i])
		}
	}
}

func TestKeyer_Format(t *testing.T) {
	key := mustDerive(t, "op", []any{"x"}, nil)

	if len(key) != KeyLength {
		t.Errorf("key length = %d, want %d", len(key), KeyLength)
	}
	if err := ValidateKey(key); err != nil {
		t.Errorf("ValidateKey(%s) = %v", key, err)
	}
	if strings.ToLower(string(key)) != string(key) {
		t.Errorf("key should be lowercase hex: %s", key)
	}
}

func TestKeyer_KnownDigest(t *testing.T) {
	canonical, err := Canonicalize("op", []any{"x", 1}, map[string]any{"b": true, "a": nil})
	if err != nil {
		t.Fatalf("Canonicalize() error = %v", err)
	}
	want := `["op",["x",1],[["a",null],["b",true]]]`
	if string(canonical) != want {
		t.Errorf("canonical = %s, want %s", canonical, want)
	}
}

func TestKeyer_NumericEquivalence(t *testing.T) {
	tests := []struct {
		name string
		a, b any
	}{
		{"int and float", 1, 1.0},
		{"int64 and uint8", int64(7), uint8(7)},
		{"float32 and int", float32(2), 2},
		{"json.Number int", json.Number("42"), 42},
		{"json.Number float", json.Number("1.0"), 1},
		{"negative zero", math.Copysign(0, -1), 0},
		{"nil and empty slice", []any(nil), []any{}},
		{"nil and empty map", map[string]any(nil), map[string]any{}},
		{"typed and untyped slice", []string{"a"}, []any{"a"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ka := mustDerive(t, "op", []any{tt.a}, nil)
			kb := mustDerive(t, "op", []any{tt.b}, nil)
			if ka != kb {
				t.Errorf("keys differ for %v (%T) and %v (%T)", tt.a, tt.a, tt.b, tt.b)
			}
		})
	}
}

func TestKeyer_NonIntegralFloatsDistinct(t *testing.T) {
	if mustDerive(t, "op", []any{1.5}, nil) == mustDerive(t, "op", []any{1}, nil) {
		t.Error("1.5 and 1 should not share a key")
	}
}

type namedString string

func TestKeyer_NamedTypesByKind(t *testing.T) {
	if mustDerive(t, "op", []any{namedString("x")}, nil) != mustDerive(t, "op", []any{"x"}, nil) {
		t.Error("named string should hash like its underlying kind")
	}
}

func TestKeyer_Unhashable(t *testing.T) {
	x := 1
	cyclic := map[string]any{}
	cyclic["self"] = cyclic

	tests := []struct {
		name     string
		args     []any
		kwargs   map[string]any
		wantPath string
	}{
		{"func", []any{func() {}}, nil, "args[0]"},
		{"channel", []any{"ok", make(chan int)}, nil, "args[1]"},
		{"pointer", []any{&x}, nil, "args[0]"},
		{"struct", []any{struct{ A int }{1}}, nil, "args[0]"},
		{"complex", []any{complex(1, 2)}, nil, "args[0]"},
		{"NaN", []any{math.NaN()}, nil, "args[0]"},
		{"infinity", nil, map[string]any{"limit": math.Inf(1)}, `kwargs["limit"]`},
		{"non-string map key", []any{map[int]string{1: "a"}}, nil, "args[0]"},
		{"nested func", []any{[]any{1, map[string]any{"f": func() {}}}}, nil, `args[0][1]["f"]`},
		{"malformed json.Number", []any{json.Number("12abc")}, nil, "args[0]"},
		{"cycle", []any{cyclic}, nil, "args[0]"},
	}

	keyer := NewDefaultKeyer()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := keyer.Derive("op", tt.args, tt.kwargs)
			if !errors.Is(err, ErrUnhashableArgument) {
				t.Fatalf("Derive() error = %v, want ErrUnhashableArgument", err)
			}
			if !strings.Contains(err.Error(), tt.wantPath) {
				t.Errorf("error %q should name path %q", err, tt.wantPath)
			}
		})
	}
}

func TestKeyer_EmptyOperation(t *testing.T) {
	_, err := NewDefaultKeyer().Derive("", nil, nil)
	if !errors.Is(err, ErrInvalidOperation) {
		t.Errorf("Derive(\"\") error = %v, want ErrInvalidOperation", err)
	}
}

func TestValidateKey(t *testing.T) {
	tests := []struct {
		name    string
		key     Key
		wantErr bool
	}{
		{"valid", Key(strings.Repeat("ab", 32)), false},
		{"empty", "", true},
		{"short", "abc", true},
		{"uppercase", Key(strings.Repeat("AB", 32)), true},
		{"non-hex", Key(strings.Repeat("zz", 32)), true},
		{"too long", Key(strings.Repeat("a", 65)), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateKey(tt.key)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateKey() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidKey) {
				t.Errorf("ValidateKey() error = %v, want ErrInvalidKey", err)
			}
		})
	}
}
