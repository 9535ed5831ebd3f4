package llm

import (
	"errors"
	"testing"
)

func planSchema() *Schema {
	return &Schema{
		Name: "test-plan",
		Key:  "plan",
		Definition: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"plan": map[string]any{
					"type":     "array",
					"minItems": 1,
					"items": map[string]any{
						"type": "object",
						"properties": map[string]any{
							"day":      map[string]any{"type": "integer", "minimum": 1},
							"topic":    map[string]any{"type": "string"},
							"activity": map[string]any{"type": "string"},
						},
						"required": []any{"day", "topic", "activity"},
					},
				},
			},
			"required": []any{"plan"},
		},
	}
}

func TestValidateResponse(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr bool
	}{
		{"valid", `{"plan":[{"day":1,"topic":"Brüche","activity":"Üben"}]}`, false},
		{"extra fields allowed", `{"plan":[{"day":1,"topic":"a","activity":"b","note":"x"}],"tips":[]}`, false},
		{"missing required key", `{"days":[]}`, true},
		{"empty plan", `{"plan":[]}`, true},
		{"wrong item type", `{"plan":[{"day":"eins","topic":"a","activity":"b"}]}`, true},
		{"day below minimum", `{"plan":[{"day":0,"topic":"a","activity":"b"}]}`, true},
		{"malformed", `{not json}`, true},
		{"empty", ``, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateResponse(planSchema(), []byte(tt.raw))
			if (err != nil) != tt.wantErr {
				t.Fatalf("validateResponse() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				var invErr *ErrInvalidResponse
				if !errors.As(err, &invErr) {
					t.Fatalf("expected ErrInvalidResponse, got: %T", err)
				}
			}
		})
	}
}

func TestValidateResponse_NilSchema(t *testing.T) {
	if err := validateResponse(nil, []byte(`{"anything":"goes"}`)); err != nil {
		t.Fatalf("expected no error with nil schema, got: %v", err)
	}
}

func TestGetCompiledSchema_Cached(t *testing.T) {
	s := planSchema()
	s.Name = "test-plan-cache"

	first, err := getCompiledSchema(s)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	second, err := getCompiledSchema(s)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if first != second {
		t.Fatal("expected the cached schema on the second lookup")
	}
}
