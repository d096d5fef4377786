package collector

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlatStringifier(t *testing.T) {
	s := FlatStringifier{}

	tests := []struct {
		name  string
		value any
		want  string
	}{
		{name: "nil", value: nil, want: "null"},
		{name: "string", value: "abc", want: "abc"},
		{name: "bool", value: true, want: "true"},
		{name: "float", value: 1.5, want: "1.5"},
		{name: "empty header", value: http.Header{}, want: "[]"},
		{
			name: "header sorted with multi values",
			value: http.Header{
				"X-Opaque-Id":  {"req_1"},
				"Accept":       {"application/json", "text/plain"},
				"Content-Type": {"application/json"},
			},
			want: "[Accept => [application/json, text/plain], Content-Type => application/json, X-Opaque-Id => req_1]",
		},
		{name: "string map", value: map[string]string{"b": "2", "a": "1"}, want: "[a => 1, b => 2]"},
		{
			name:  "nested generic",
			value: map[string]any{"q": []any{"x", 1.0, nil}, "n": map[string]any{"k": false}},
			want:  "[n => [k => false], q => [x, 1, null]]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, s.Stringify(tt.value))
		})
	}
}

func TestDumpStringifier(t *testing.T) {
	out := DumpStringifier{}.Stringify(map[string][]string{"Accept": {"application/json"}})
	assert.Equal(t, "{\n  \"Accept\": [\n    \"application/json\"\n  ]\n}", out)

	tabbed := DumpStringifier{Indent: "\t"}.Stringify([]string{"a"})
	assert.Equal(t, "[\n\t\"a\"\n]", tabbed)

	// Unencodable values fall back to fmt
	assert.NotEmpty(t, DumpStringifier{}.Stringify(make(chan int)))
}

func TestStringifierByName(t *testing.T) {
	s, err := StringifierByName("")
	require.NoError(t, err)
	assert.IsType(t, FlatStringifier{}, s)

	s, err = StringifierByName(StringifierDump)
	require.NoError(t, err)
	assert.IsType(t, DumpStringifier{}, s)

	_, err = StringifierByName("var_export")
	assert.Error(t, err)
}
