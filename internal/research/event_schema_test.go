package research

import "testing"

func TestEventSchemaDeclaresWireFields(t *testing.T) {
	s, err := EventSchema()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	props, ok := s["properties"].(map[string]any)
	if !ok {
		t.Fatal("expected schema to have a properties map")
	}

	for _, field := range []string{"type", "timestamp", "seq", "data"} {
		if _, ok := props[field]; !ok {
			t.Errorf("expected event schema to declare field %q", field)
		}
	}
}
