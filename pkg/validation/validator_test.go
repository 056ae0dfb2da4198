package validation

import (
	"strings"
	"testing"
)

// TestValidateVertexRecord tests vertex row validation
func TestValidateVertexRecord(t *testing.T) {
	tests := []struct {
		name        string
		rec         VertexRecord
		expectError bool
		errorField  string
	}{
		{
			name: "Valid vertex record",
			rec: VertexRecord{
				ID:         "alice",
				Label:      "Person",
				Properties: map[string]string{"name": "Alice", "age": "30"},
			},
		},
		{
			name: "Label is optional",
			rec:  VertexRecord{ID: "1"},
		},
		{
			name: "Namespaced label",
			rec:  VertexRecord{ID: "1", Label: "schema:Person"},
		},
		{
			name:        "Missing id - invalid",
			rec:         VertexRecord{Label: "Person"},
			expectError: true,
			errorField:  "ID",
		},
		{
			name:        "Label with spaces - invalid",
			rec:         VertexRecord{ID: "1", Label: "Big Person"},
			expectError: true,
			errorField:  "Label",
		},
		{
			name:        "Label too long - invalid",
			rec:         VertexRecord{ID: "1", Label: strings.Repeat("a", 129)},
			expectError: true,
			errorField:  "Label",
		},
		{
			name: "Property key starting with digit - invalid",
			rec: VertexRecord{
				ID:         "1",
				Properties: map[string]string{"1st": "x"},
			},
			expectError: true,
			errorField:  "Properties",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateVertexRecord(&tt.rec)

			if tt.expectError {
				if err == nil {
					t.Fatal("Expected error, got nil")
				}
				if !strings.HasPrefix(err.Error(), tt.errorField) {
					t.Errorf("Expected error for field %s, got: %v", tt.errorField, err)
				}
				return
			}
			if err != nil {
				t.Errorf("Expected no error, got: %v", err)
			}
		})
	}
}

// TestValidateEdgeRecord tests edge row validation
func TestValidateEdgeRecord(t *testing.T) {
	tests := []struct {
		name        string
		rec         EdgeRecord
		expectError bool
		errorField  string
	}{
		{
			name: "Valid edge record",
			rec:  EdgeRecord{From: "a", To: "b", Label: "KNOWS"},
		},
		{
			name: "Edge with id and properties",
			rec: EdgeRecord{
				ID:         "e1",
				From:       "a",
				To:         "b",
				Label:      "knows",
				Properties: map[string]string{"since": "2020"},
			},
		},
		{
			name:        "Missing from - invalid",
			rec:         EdgeRecord{To: "b", Label: "KNOWS"},
			expectError: true,
			errorField:  "From",
		},
		{
			name:        "Missing to - invalid",
			rec:         EdgeRecord{From: "a", Label: "KNOWS"},
			expectError: true,
			errorField:  "To",
		},
		{
			name:        "Missing label - invalid",
			rec:         EdgeRecord{From: "a", To: "b"},
			expectError: true,
			errorField:  "Label",
		},
		{
			name:        "Label with invalid characters",
			rec:         EdgeRecord{From: "a", To: "b", Label: "knows!"},
			expectError: true,
			errorField:  "Label",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateEdgeRecord(&tt.rec)

			if tt.expectError {
				if err == nil {
					t.Fatal("Expected error, got nil")
				}
				if !strings.HasPrefix(err.Error(), tt.errorField) {
					t.Errorf("Expected error for field %s, got: %v", tt.errorField, err)
				}
				return
			}
			if err != nil {
				t.Errorf("Expected no error, got: %v", err)
			}
		})
	}
}

func TestValidateNilRecords(t *testing.T) {
	if err := ValidateVertexRecord(nil); err == nil {
		t.Error("Expected error for nil vertex record")
	}
	if err := ValidateEdgeRecord(nil); err == nil {
		t.Error("Expected error for nil edge record")
	}
}

func TestValidatePropertyKey(t *testing.T) {
	tests := []struct {
		key     string
		wantErr bool
	}{
		{"name", false},
		{"_private", false},
		{"created-at", false},
		{"geo.lat", false},
		{"", true},
		{"9lives", true},
		{"has space", true},
		{strings.Repeat("k", 129), true},
	}

	for _, tt := range tests {
		err := ValidatePropertyKey(tt.key)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidatePropertyKey(%q) error = %v, wantErr %v", tt.key, err, tt.wantErr)
		}
	}
}
