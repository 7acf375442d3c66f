package shark

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestSchema_Check(t *testing.T) {
	s := object(
		key("name", str()),
		key("count", integer()),
		key("ratio", number().opt()),
		key("state", enumOf("on", "off")),
		key("note", str().opt().null()),
		key("tags", arrayOf(str()).opt()),
		key("value", union(str(), boolean())),
	)

	tests := []struct {
		name string
		body string
		want []string
	}{
		{
			name: "valid with unknown keys",
			body: `{"name":"a","count":1,"state":"on","value":true,"extra":[1,2]}`,
		},
		{
			name: "null allowed on nullable",
			body: `{"name":"a","count":1,"state":"off","note":null,"value":"x"}`,
		},
		{
			name: "missing required keys",
			body: `{"count":1,"state":"on"}`,
			want: []string{"name: required", "value: required"},
		},
		{
			name: "wrong types",
			body: `{"name":5,"count":"1","ratio":"x","state":"on","value":1}`,
			want: []string{
				"name: expected string, received number",
				"count: expected integer, received string",
				"ratio: expected number, received string",
				"value: expected string | boolean, received number",
			},
		},
		{
			name: "fractional integer",
			body: `{"name":"a","count":1.5,"state":"on","value":"x"}`,
			want: []string{"count: expected integer, received 1.5"},
		},
		{
			name: "enum miss",
			body: `{"name":"a","count":1,"state":"dim","value":"x"}`,
			want: []string{`state: expected one of on | off, received "dim"`},
		},
		{
			name: "null on optional but not nullable",
			body: `{"name":"a","count":1,"state":"on","value":"x","ratio":null}`,
			want: []string{"ratio: expected number, received null"},
		},
		{
			name: "first bad element only",
			body: `{"name":"a","count":1,"state":"on","value":"x","tags":["ok",1,2]}`,
			want: []string{"tags[1]: expected string, received number"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := decodeJSON([]byte(tt.body))
			if err != nil {
				t.Fatalf("decodeJSON: %v", err)
			}
			errs := s.validate(v)
			got := make([]string, len(errs))
			for i, e := range errs {
				got[i] = e.String()
			}
			if strings.Join(got, "\n") != strings.Join(tt.want, "\n") {
				t.Errorf("validate() =\n%s\nwant\n%s", strings.Join(got, "\n"), strings.Join(tt.want, "\n"))
			}
		})
	}
}

func TestSchema_Refine(t *testing.T) {
	calls := 0
	s := object(key("n", integer())).refined(func(path string, v any) []FieldError {
		calls++
		return []FieldError{{Path: joinPath(path, "n"), Reason: "refused"}}
	})

	if errs := s.validate(map[string]any{"n": "x"}); len(errs) != 1 || calls != 0 {
		t.Errorf("refine ran after structural failure: errs=%v calls=%d", errs, calls)
	}
	if errs := s.validate(map[string]any{"n": json.Number("1")}); len(errs) != 1 || errs[0].Reason != "refused" || calls != 1 {
		t.Errorf("refine not applied: errs=%v calls=%d", errs, calls)
	}
}

func TestSchema_RootMismatch(t *testing.T) {
	errs := arrayOf(object()).validate(map[string]any{})
	if len(errs) != 1 || errs[0].Path != "" || errs[0].Reason != "expected array, received object" {
		t.Errorf("validate() = %v", errs)
	}
	if errs := anyValue().validate(nil); errs != nil {
		t.Errorf("any rejected null: %v", errs)
	}
}

func TestTruncatePreview(t *testing.T) {
	if got := truncatePreview([]byte("short")); got != "short" {
		t.Errorf("truncatePreview(short) = %q", got)
	}
	long := strings.Repeat("x", 250)
	if got := truncatePreview([]byte(long)); len(got) != 203 || !strings.HasSuffix(got, "...") {
		t.Errorf("truncatePreview(long) has length %d", len(got))
	}
}
