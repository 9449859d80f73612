package jsonvalue

import (
	"encoding/json"
	"testing"
)

func TestUnmarshalClassifiesShapes(t *testing.T) {
	for input, want := range map[string]Kind{
		"null":        KindNull,
		"true":        KindBool,
		"42":          KindNumber,
		`"hello"`:     KindString,
		"[1,2]":       KindArray,
		`{"a":1}`:     KindObject,
		"3.5":         KindNumber,
		`{"a":[{}]}`:  KindObject,
		`[null,true]`: KindArray,
	} {
		var value Value
		if err := json.Unmarshal([]byte(input), &value); err != nil {
			t.Fatalf("expected %q to unmarshal, got %v", input, err)
		}
		if got := value.Kind(); got != want {
			t.Fatalf("expected %q to be %s, got %s", input, want, got)
		}
	}
}

func TestAccessorsRejectWrongKind(t *testing.T) {
	value := String("hello")

	if _, ok := value.AsBool(); ok {
		t.Fatal("expected AsBool to fail on a string")
	}
	if _, ok := value.AsNumber(); ok {
		t.Fatal("expected AsNumber to fail on a string")
	}
	if text, ok := value.AsString(); !ok || text != "hello" {
		t.Fatalf("expected AsString to return hello, got %q (%v)", text, ok)
	}
}

func TestLargeIntegerSurvivesRoundTrip(t *testing.T) {
	const input = `{"id":9007199254740993}`

	var value Value
	if err := json.Unmarshal([]byte(input), &value); err != nil {
		t.Fatalf("expected the object to unmarshal, got %v", err)
	}

	data, err := json.Marshal(value)
	if err != nil {
		t.Fatalf("expected the value to marshal, got %v", err)
	}
	if string(data) != input {
		t.Fatalf("expected the integer to keep its precision, got %s", data)
	}
}

func TestZeroValueIsNull(t *testing.T) {
	var value Value

	if !value.IsNull() {
		t.Fatal("expected the zero value to be null")
	}

	data, err := json.Marshal(value)
	if err != nil {
		t.Fatalf("expected the zero value to marshal, got %v", err)
	}
	if string(data) != "null" {
		t.Fatalf("expected null, got %s", data)
	}
}

func TestNestedAccess(t *testing.T) {
	var value Value
	if err := json.Unmarshal([]byte(`{"tags":["a","b"],"count":2}`), &value); err != nil {
		t.Fatalf("expected the object to unmarshal, got %v", err)
	}

	fields, ok := value.AsObject()
	if !ok {
		t.Fatal("expected an object")
	}

	tags, ok := fields["tags"].AsArray()
	if !ok || len(tags) != 2 {
		t.Fatalf("expected two tags, got %v (%v)", tags, ok)
	}
	if text, _ := tags[0].AsString(); text != "a" {
		t.Fatalf("expected first tag a, got %q", text)
	}

	count, ok := fields["count"].AsNumber()
	if !ok || count != 2 {
		t.Fatalf("expected count 2, got %v (%v)", count, ok)
	}
}
