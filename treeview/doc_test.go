package treeview

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestParse_PreservesKeyOrder(t *testing.T) {
	// A raw map would shuffle these; the whole point of Doc is that it
	// does not.
	data := []byte(`{"zebra": 1, "apple": 2, "mango": 3}`)

	v, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	doc, ok := v.(Doc)
	if !ok {
		t.Fatalf("Parse returned %T, want Doc", v)
	}

	expected := []string{"zebra", "apple", "mango"}
	if !reflect.DeepEqual(doc.Keys(), expected) {
		t.Errorf("Keys() = %v, expected %v", doc.Keys(), expected)
	}
}

func TestParse_NumbersKeepSourceText(t *testing.T) {
	testCases := []struct {
		input    string
		expected string
	}{
		{`30`, "30"},
		{`30.0`, "30.0"},
		{`3.14`, "3.14"},
		{`1e10`, "1e10"},
		{`-0.5`, "-0.5"},
	}

	for _, tc := range testCases {
		v, err := Parse([]byte(tc.input))
		if err != nil {
			t.Fatalf("Parse(%q) failed: %v", tc.input, err)
		}
		n, ok := v.(json.Number)
		if !ok {
			t.Fatalf("Parse(%q) returned %T, want json.Number", tc.input, v)
		}
		if n.String() != tc.expected {
			t.Errorf("Parse(%q) = %q, expected %q", tc.input, n.String(), tc.expected)
		}
	}
}

func TestParse_Nested(t *testing.T) {
	data := []byte(`{"user": {"name": "Ada", "tags": ["x", null, true]}}`)

	v, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	doc := v.(Doc)
	userVal, ok := doc.Get("user")
	if !ok {
		t.Fatal("user not found")
	}
	user, ok := userVal.(Doc)
	if !ok {
		t.Fatalf("user is %T, want Doc", userVal)
	}

	tagsVal, _ := user.Get("tags")
	tags, ok := tagsVal.(Arr)
	if !ok {
		t.Fatalf("tags is %T, want Arr", tagsVal)
	}
	if len(tags) != 3 {
		t.Fatalf("len(tags) = %d, want 3", len(tags))
	}
	if tags[0] != "x" || tags[1] != nil || tags[2] != true {
		t.Errorf("tags = %v, expected [x <nil> true]", tags)
	}
}

func TestParse_DuplicateKeyKeepsFirstPosition(t *testing.T) {
	data := []byte(`{"a": 1, "b": 2, "a": 3}`)

	v, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	doc := v.(Doc)
	expected := []string{"a", "b"}
	if !reflect.DeepEqual(doc.Keys(), expected) {
		t.Errorf("Keys() = %v, expected %v", doc.Keys(), expected)
	}

	val, _ := doc.Get("a")
	if val.(json.Number).String() != "3" {
		t.Errorf("a = %v, expected the later value 3", val)
	}
}

func TestParse_Errors(t *testing.T) {
	testCases := []struct {
		name  string
		input string
	}{
		{"empty input", ``},
		{"bare garbage", `{]`},
		{"unterminated object", `{"a": 1`},
		{"trailing data", `{"a": 1} extra`},
		{"two values", `1 2`},
	}

	for _, tc := range testCases {
		if _, err := Parse([]byte(tc.input)); err == nil {
			t.Errorf("Parse(%s) succeeded, expected error", tc.name)
		}
	}
}

func TestDocGet_Missing(t *testing.T) {
	doc := Doc{{Key: "a", Value: 1}}

	if _, ok := doc.Get("b"); ok {
		t.Error("Get(b) reported present, expected missing")
	}
}
