package cache

import (
	"strings"
	"testing"
)

func TestDefaultKeyer_Deterministic(t *testing.T) {
	keyer := NewDefaultKeyer()

	input := map[string]any{
		"domain":       "example.com",
		"num_keywords": 10,
	}

	k1, err := keyer.Key("GSCTool", input)
	if err != nil {
		t.Fatalf("Key failed: %v", err)
	}

	// Same logical map, different construction order.
	input2 := map[string]any{
		"num_keywords": 10,
		"domain":       "example.com",
	}
	k2, err := keyer.Key("GSCTool", input2)
	if err != nil {
		t.Fatalf("Key failed: %v", err)
	}

	if k1 != k2 {
		t.Errorf("keys differ for identical inputs: %q vs %q", k1, k2)
	}
}

func TestDefaultKeyer_ToolIdentityIsolation(t *testing.T) {
	keyer := NewDefaultKeyer()
	input := map[string]any{"location": "london"}

	k1, err := keyer.Key("WeatherTool", input)
	if err != nil {
		t.Fatalf("Key failed: %v", err)
	}
	k2, err := keyer.Key("KeywordSearchTool", input)
	if err != nil {
		t.Fatalf("Key failed: %v", err)
	}

	if k1 == k2 {
		t.Error("identical argument signatures across tool classes must not share a key")
	}
}

func TestDefaultKeyer_DifferentInputsDifferentKeys(t *testing.T) {
	keyer := NewDefaultKeyer()

	k1, _ := keyer.Key("WeatherTool", map[string]any{"location": "london"})
	k2, _ := keyer.Key("WeatherTool", map[string]any{"location": "tokyo"})

	if k1 == k2 {
		t.Error("different inputs should produce different keys")
	}
}

func TestDefaultKeyer_Format(t *testing.T) {
	keyer := NewDefaultKeyer()

	key, err := keyer.Key("WeatherTool", "london")
	if err != nil {
		t.Fatalf("Key failed: %v", err)
	}

	if !strings.HasPrefix(key, "cache:WeatherTool:") {
		t.Errorf("key %q missing cache:<toolID>: prefix", key)
	}
	parts := strings.Split(key, ":")
	if len(parts) != 3 {
		t.Fatalf("key %q has %d parts, want 3", key, len(parts))
	}
	if len(parts[2]) != 16 {
		t.Errorf("hash part %q has length %d, want 16", parts[2], len(parts[2]))
	}
}

func TestDefaultKeyer_NilAndNested(t *testing.T) {
	keyer := NewDefaultKeyer()

	if _, err := keyer.Key("t", nil); err != nil {
		t.Errorf("nil input should be keyable: %v", err)
	}

	nested := map[string]any{
		"a": []any{1, "two", map[string]any{"z": true, "a": false}},
	}
	k1, err := keyer.Key("t", nested)
	if err != nil {
		t.Fatalf("Key failed: %v", err)
	}
	k2, _ := keyer.Key("t", nested)
	if k1 != k2 {
		t.Error("nested input keys should be stable")
	}
}

func TestValidateKey(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		wantErr error
	}{
		{"valid", "cache:tool:abc", nil},
		{"empty", "", ErrInvalidKey},
		{"whitespace", "   ", ErrInvalidKey},
		{"newline", "a\nb", ErrInvalidKey},
		{"too long", strings.Repeat("x", MaxKeyLength+1), ErrKeyTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateKey(tt.key)
			if err != tt.wantErr {
				t.Errorf("ValidateKey(%q) = %v, want %v", tt.key, err, tt.wantErr)
			}
		})
	}
}
