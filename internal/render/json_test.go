package render

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderJSONRoundTrip(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		doc  string
	}{
		{name: "null", doc: `null`},
		{name: "bool", doc: `true`},
		{name: "number", doc: `42.5`},
		{name: "string", doc: `"hello \"world\""`},
		{name: "empty object", doc: `{}`},
		{name: "empty array", doc: `[]`},
		{name: "flat object", doc: `{"a":1,"b":"two","c":null}`},
		{name: "nested", doc: `{"metadata":{"name":"srv","labels":{"app":"x"}},"spec":{"replicas":3,"ports":[8080,9090]}}`},
		{name: "array of objects", doc: `[{"x":1},{"y":[]},[1,[2,3]]]`},
		{name: "unicode and escapes", doc: `{"msg":"line\nbreak é"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			v, err := ParseJSON([]byte(tt.doc))
			require.NoError(t, err)

			rendered := RenderJSON(v)

			var want, got any
			require.NoError(t, json.Unmarshal([]byte(tt.doc), &want))
			require.NoError(t, json.Unmarshal([]byte(rendered), &got))
			assert.Equal(t, want, got)
		})
	}
}

func TestRenderJSONLayout(t *testing.T) {
	t.Parallel()

	v, err := ParseJSON([]byte(`{"x":{"y":1},"z":[]}`))
	require.NoError(t, err)

	want := "{\n  \"x\": {\n    \"y\": 1\n  },\n  \"z\": []\n}"
	assert.Equal(t, want, RenderJSON(v))
}

func TestRenderJSONPreservesKeyOrder(t *testing.T) {
	t.Parallel()

	v, err := ParseJSON([]byte(`{"zebra":1,"apple":2,"mango":3}`))
	require.NoError(t, err)

	out := RenderJSON(v)
	assert.Less(t, strings.Index(out, "zebra"), strings.Index(out, "apple"))
	assert.Less(t, strings.Index(out, "apple"), strings.Index(out, "mango"))
}

func TestRenderJSONPreservesNumberText(t *testing.T) {
	t.Parallel()

	v, err := ParseJSON([]byte(`{"a":1.50,"b":1e3}`))
	require.NoError(t, err)

	out := RenderJSON(v)
	assert.Contains(t, out, "1.50")
	assert.Contains(t, out, "1e3")
}

func TestParseJSONRejectsTrailingContent(t *testing.T) {
	t.Parallel()

	_, err := ParseJSON([]byte(`{} garbage`))
	assert.Error(t, err)
}
