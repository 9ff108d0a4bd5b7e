package jsonvalue

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantKind Kind
		wantLen  int
		wantErr  bool
	}{
		{name: "object", input: `{"id":1,"name":"Leanne Graham"}`, wantKind: KindObject, wantLen: 2},
		{name: "array", input: `[1, 2, 3]`, wantKind: KindArray, wantLen: 3},
		{name: "string", input: `"hello"`, wantKind: KindString},
		{name: "number", input: `12.5`, wantKind: KindNumber},
		{name: "bool", input: `true`, wantKind: KindBool},
		{name: "null", input: `null`, wantKind: KindNull},
		{name: "surrounding whitespace", input: "  {}\n", wantKind: KindObject},
		{name: "invalid json", input: `{"id":`, wantErr: true},
		{name: "trailing data", input: `{} {}`, wantErr: true},
		{name: "empty", input: ``, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse([]byte(tt.input))
			if tt.wantErr {
				require.Error(t, err)
				assert.False(t, got.IsValid())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantKind, got.Kind())
			assert.Equal(t, tt.wantLen, got.Len())
		})
	}
}

func TestFromAny(t *testing.T) {
	t.Run("nested values", func(t *testing.T) {
		got, err := FromAny(map[string]any{
			"id":    1,
			"tags":  []any{"a", true, nil},
			"score": 1.5,
		})
		require.NoError(t, err)
		assert.Equal(t, KindObject, got.Kind())
		tags, ok := got.Field("tags")
		require.True(t, ok)
		assert.Equal(t, 3, tags.Len())
		assert.Equal(t, KindNull, tags.Items()[2].Kind())
	})

	t.Run("unsupported type", func(t *testing.T) {
		_, err := FromAny(map[string]any{"ch": make(chan int)})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "ch")
	})
}

func TestValue_Lookup(t *testing.T) {
	value, err := Parse([]byte(`{
		"id": 1,
		"user.name": "Leanne",
		"meta.v1": {"owner": "ops"},
		"address": {"city": "Gwenborough", "geo": {"lat": "-37.3159"}},
		"items": [{"id": 10}, {"id": 11, "a.b": true}]
	}`))
	require.NoError(t, err)

	tests := []struct {
		path   string
		wantOK bool
	}{
		{path: "id", wantOK: true},
		{path: "address.city", wantOK: true},
		{path: "address.geo.lat", wantOK: true},
		{path: "items.1.id", wantOK: true},
		{path: "items.2.id", wantOK: false},
		{path: "items.x", wantOK: false},
		{path: "id.value", wantOK: false},
		{path: "username", wantOK: false},
		{path: "", wantOK: false},
		{path: "user.name", wantOK: true},
		{path: "user", wantOK: false},
		{path: "meta.v1.owner", wantOK: true},
		{path: "meta.v1.team", wantOK: false},
		{path: "items.1.a.b", wantOK: true},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			_, ok := value.Lookup(tt.path)
			assert.Equal(t, tt.wantOK, ok)
		})
	}
}

func TestValue_MissingFields(t *testing.T) {
	value, err := Parse([]byte(`{"id":1,"name":"Leanne Graham","email":"[email protected]"}`))
	require.NoError(t, err)

	assert.Equal(t, []string{"username"}, value.MissingFields([]string{"id", "name", "email", "username"}))
	assert.Equal(t, []string{"phone", "username"}, value.MissingFields([]string{"phone", "id", "username"}))
	assert.Empty(t, value.MissingFields(nil))
	assert.Equal(t, []string{"id"}, String("x").MissingFields([]string{"id"}))

	dotted, err := Parse([]byte(`{"id":1,"user.name":"Leanne"}`))
	require.NoError(t, err)
	assert.Empty(t, dotted.MissingFields([]string{"id", "user.name"}))
}

func TestValue_MarshalJSON(t *testing.T) {
	input := `{"id":1,"name":"Leanne Graham","tags":["a","b"],"ok":true,"none":null,"ratio":0.25}`
	value, err := Parse([]byte(input))
	require.NoError(t, err)

	got, err := json.Marshal(value)
	require.NoError(t, err)
	assert.JSONEq(t, input, string(got))

	var zero Value
	assert.Equal(t, "null", zero.String())
}

func TestValue_UnmarshalYAML(t *testing.T) {
	var doc struct {
		Payload Value `yaml:"payload"`
	}
	err := yaml.Unmarshal([]byte(`
payload:
  title: AI Test
  userId: 1
  nested:
    enabled: true
`), &doc)
	require.NoError(t, err)

	assert.Equal(t, KindObject, doc.Payload.Kind())
	enabled, ok := doc.Payload.Lookup("nested.enabled")
	require.True(t, ok)
	assert.True(t, enabled.Bool())
	userID, ok := doc.Payload.Field("userId")
	require.True(t, ok)
	assert.Equal(t, float64(1), userID.Float())
}
