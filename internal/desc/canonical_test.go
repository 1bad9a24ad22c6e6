package desc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalCanonicalBasic(t *testing.T) {
	tests := []struct {
		name     string
		input    any
		expected string
	}{
		{"null", nil, "null"},
		{"string", "hello", `"hello"`},
		{"int", 42, "42"},
		{"integral float", 4.0, "4"},
		{"fraction", 0.5, "0.5"},
		{"negative", -10, "-10"},
		{"bool", true, "true"},
		{"empty array", []any{}, "[]"},
		{"empty object", Object{}, "{}"},
		{"floats", []float64{10, 20}, "[10,20]"},
		{"no html escape", "<a&b>", `"<a&b>"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := MarshalCanonical(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, string(result))
		})
	}
}

func TestMarshalCanonicalSortedKeys(t *testing.T) {
	obj := map[string]any{
		"zebra": 1,
		"alpha": Object{"b": 1, "a": 2},
		"beta":  []any{"x"},
	}

	result, err := MarshalCanonical(obj)
	require.NoError(t, err)
	assert.Equal(t, `{"alpha":{"a":2,"b":1},"beta":["x"],"zebra":1}`, string(result))
}

func TestMarshalCanonicalNFC(t *testing.T) {
	decomposed := "e\u0301"
	result, err := MarshalCanonical(decomposed)
	require.NoError(t, err)
	assert.Equal(t, "\"\u00e9\"", string(result))
}

func TestMarshalCanonicalRejectsFunc(t *testing.T) {
	_, err := MarshalCanonical(Object{"listener": func() {}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "listener")
}

func TestHashDomainSeparated(t *testing.T) {
	a, err := Hash("call", Object{"x": 1})
	require.NoError(t, err)
	b, err := Hash("session", Object{"x": 1})
	require.NoError(t, err)
	c, err := Hash("call", Object{"x": 1.0})
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	assert.Equal(t, a, c)
	assert.Len(t, a, 64)
}
