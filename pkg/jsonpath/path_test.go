package jsonpath

import "testing"

func TestSetCreatesIntermediateObjectsAndArrays(t *testing.T) {
	root := map[string]interface{}{}
	if err := Set(root, "a.b.0.c", "paris"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, ok := Get(root, "a.b.0.c")
	if !ok || got != "paris" {
		t.Fatalf("got %v ok=%v", got, ok)
	}
}

func TestSetAutoExtendsArrays(t *testing.T) {
	root := map[string]interface{}{}
	if err := Set(root, "tools.2.name", "lookup"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	arr := root["tools"].([]interface{})
	if len(arr) != 3 {
		t.Fatalf("expected array length 3, got %d", len(arr))
	}
	if arr[0] != nil || arr[1] != nil {
		t.Fatalf("expected nil padding, got %v", arr)
	}
	got, ok := Get(root, "tools.2.name")
	if !ok || got != "lookup" {
		t.Fatalf("got %v ok=%v", got, ok)
	}
}

func TestSetCollisionWithNonObjectIntermediate(t *testing.T) {
	root := map[string]interface{}{"a": "scalar"}
	if err := Set(root, "a.b", 1); err == nil {
		t.Fatalf("expected error on collision")
	}
}

func TestGetMissingPathReturnsFalse(t *testing.T) {
	root := map[string]interface{}{"a": map[string]interface{}{}}
	if _, ok := Get(root, "a.b.c"); ok {
		t.Fatalf("expected not found")
	}
}

func TestGetDollarPrefixStripped(t *testing.T) {
	root := map[string]interface{}{"choices": []interface{}{
		map[string]interface{}{"delta": map[string]interface{}{"content": "hi"}},
	}}
	got, ok := Get(root, "$.choices.0.delta.content")
	if !ok || got != "hi" {
		t.Fatalf("got %v ok=%v", got, ok)
	}
}

func TestRoundTripSetThenGet(t *testing.T) {
	root := map[string]interface{}{}
	paths := map[string]interface{}{
		"model":             "gpt-4",
		"temperature":       0.7,
		"messages.0.role":   "user",
		"messages.0.content": "hi",
	}
	for p, v := range paths {
		if err := Set(root, p, v); err != nil {
			t.Fatalf("Set(%s): %v", p, err)
		}
	}
	for p, want := range paths {
		got, ok := Get(root, p)
		if !ok || got != want {
			t.Fatalf("Get(%s) = %v, want %v", p, got, want)
		}
	}
}
