package memory_test

import (
	"testing"

	"github.com/HendryAvila/mnemo/internal/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRawValue_PreservedVerbatim(t *testing.T) {
	doc := `{"b": 2, "a": 1}`
	v, err := memory.RawValue(doc)
	require.NoError(t, err)

	// Already-serialized content is stored as-is, never re-wrapped.
	assert.Equal(t, doc, v.JSON())
}

func TestRawValue_RejectsNonJSON(t *testing.T) {
	_, err := memory.RawValue("not json at all {")
	var verr *memory.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "value", verr.Field)
}

func TestTypedValue_SerializedOnce(t *testing.T) {
	v, err := memory.TypedValue(map[string]any{"name": "dark", "level": 3})
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, v.Decode(&decoded))
	assert.Equal(t, "dark", decoded["name"])
}

func TestStringValue_NotDoubleEncoded(t *testing.T) {
	v := memory.StringValue("dark")
	assert.Equal(t, `"dark"`, v.JSON())

	var s string
	require.NoError(t, v.Decode(&s))
	assert.Equal(t, "dark", s)
}

func TestNormalized_StringsLowerCased(t *testing.T) {
	a := memory.StringValue("Dark Mode")
	b := memory.StringValue("dark mode")
	assert.Equal(t, a.Normalized(), b.Normalized())
}

func TestNormalized_ObjectKeysSorted(t *testing.T) {
	a, err := memory.RawValue(`{"b": 2, "a": 1}`)
	require.NoError(t, err)
	b, err := memory.RawValue(`{"a": 1, "b": 2}`)
	require.NoError(t, err)

	assert.Equal(t, a.Normalized(), b.Normalized())
}

func TestNormalized_DistinctValuesStayDistinct(t *testing.T) {
	a := memory.StringValue("dark")
	b := memory.StringValue("light")
	assert.NotEqual(t, a.Normalized(), b.Normalized())
}

func TestNormalized_NestedObjects(t *testing.T) {
	a, err := memory.RawValue(`{"outer": {"y": "B", "x": "A"}}`)
	require.NoError(t, err)
	b, err := memory.RawValue(`{"outer": {"x": "a", "y": "b"}}`)
	require.NoError(t, err)

	// Nested keys sort and nested strings lower-case too.
	assert.Equal(t, a.Normalized(), b.Normalized())
}
