package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalCanonicalBasic(t *testing.T) {
	tests := []struct {
		name     string
		input    Value
		expected string
	}{
		{"string", String("hello"), `"hello"`},
		{"empty string", String(""), `""`},
		{"int", Int(42), "42"},
		{"negative int", Int(-100), "-100"},
		{"decimal literal kept", Number("1.50"), "1.50"},
		{"bool true", Bool(true), "true"},
		{"null", Null{}, "null"},
		{"empty list", List{}, "[]"},
		{"empty object", Object{}, "{}"},
		{"list", List{Int(1), String("two"), Null{}}, `[1,"two",null]`},
		{"simple object", Object{"a": Int(1)}, `{"a":1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := MarshalCanonical(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, string(result))
		})
	}
}

func TestMarshalCanonicalRejectsBadInput(t *testing.T) {
	_, err := MarshalCanonical(nil)
	assert.Error(t, err)

	_, err = MarshalCanonical(Number("1e"))
	assert.Error(t, err)

	_, err = MarshalCanonical(Object{"a": List{nil}})
	assert.Error(t, err)
}

func TestMarshalCanonicalSortedKeys(t *testing.T) {
	obj := Object{
		"z": Object{"b": Int(1), "a": Int(2)},
		"a": Int(3),
	}

	result, err := MarshalCanonical(obj)
	require.NoError(t, err)
	assert.Equal(t, `{"a":3,"z":{"a":2,"b":1}}`, string(result))
}

func TestMarshalCanonicalUTF16Ordering(t *testing.T) {
	// U+10000 encodes as surrogate 0xD800 and sorts before U+E000 in UTF-16,
	// the reverse of UTF-8 byte order.
	obj := Object{
		"\uE000":     Int(1),
		"\U00010000": Int(2),
	}

	result, err := MarshalCanonical(obj)
	require.NoError(t, err)
	assert.Equal(t, "{\"\U00010000\":2,\"\uE000\":1}", string(result))
}

func TestMarshalCanonicalNoHTMLEscape(t *testing.T) {
	result, err := MarshalCanonical(Object{"label": String("<a & b>")})
	require.NoError(t, err)
	assert.Equal(t, `{"label":"<a & b>"}`, string(result))
}

func TestMarshalCanonicalNFC(t *testing.T) {
	decomposed := String("Cafe\u0301")

	result, err := MarshalCanonical(decomposed)
	require.NoError(t, err)
	assert.Equal(t, "\"Caf\u00e9\"", string(result))

	keyed, err := MarshalCanonical(Object{"e\u0301": Int(1)})
	require.NoError(t, err)
	assert.Equal(t, "{\"\u00e9\":1}", string(keyed))
}

func TestMarshalCanonicalStringEscaping(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"newline", "a\nb", `"a\nb"`},
		{"tab", "a\tb", `"a\tb"`},
		{"quote", `a"b`, `"a\"b"`},
		{"backslash", `a\b`, `"a\\b"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := MarshalCanonical(String(tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.expected, string(result))
		})
	}
}

func TestMarshalCanonicalLineSeparators(t *testing.T) {
	result, err := MarshalCanonical(String("a\u2028b\u2029c"))
	require.NoError(t, err)
	assert.Equal(t, "\"a\u2028b\u2029c\"", string(result))

	// A literal backslash followed by the text u2028 stays escaped text.
	literal, err := MarshalCanonical(String(`\u2028`))
	require.NoError(t, err)
	assert.Equal(t, `"\\u2028"`, string(literal))
}

func TestMarshalCanonicalIdempotent(t *testing.T) {
	inputs := []Value{
		Object{"b": List{Int(1), Object{"y": Bool(false), "x": Null{}}}, "a": String("<x>")},
		List{String("\u2028"), Number("-0.5")},
	}

	for _, original := range inputs {
		first, err := MarshalCanonical(original)
		require.NoError(t, err)

		decoded, err := DecodeValue(first)
		require.NoError(t, err)

		second, err := MarshalCanonical(decoded)
		require.NoError(t, err)
		assert.Equal(t, string(first), string(second))
	}
}
