package parser

import "testing"

func characterSchema() []Field {
	return []Field{
		{Name: "name", Label: "Name", Required: true},
		{Name: "age_range", Label: "Age Range", Required: true},
		{Name: "role", Label: "Role", Required: true},
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		name           string
		text           string
		asked          string
		wantFields     map[string]string
		wantConfidence float64
		wantMissing    int
	}{
		{
			name:           "labeled single field matching asked",
			text:           "Name: Sarah",
			asked:          "name",
			wantFields:     map[string]string{"name": "Sarah"},
			wantConfidence: ExactAnswerConfidence,
			wantMissing:    2,
		},
		{
			name:           "whole reply fallback for asked field",
			text:           "Sarah, mid-30s",
			asked:          "name",
			wantFields:     map[string]string{"name": "Sarah, mid-30s"},
			wantConfidence: WholeReplyConfidence,
			wantMissing:    2,
		},
		{
			name:  "multiple labeled fields volunteered",
			text:  "Name: Sarah\nAge Range: mid-30s\nRole: protagonist",
			asked: "name",
			wantFields: map[string]string{
				"name": "Sarah", "age_range": "mid-30s", "role": "protagonist",
			},
			wantConfidence: MultiFieldConfidence,
			wantMissing:    0,
		},
		{
			name:           "volunteered different field only",
			text:           "Role: antagonist",
			asked:          "name",
			wantFields:     map[string]string{"role": "antagonist"},
			wantConfidence: VolunteeredConfidence,
			wantMissing:    2,
		},
		{
			name:           "bulleted markdown labels",
			text:           "- **Name**: Sarah\n- **Age Range**: mid-30s",
			asked:          "",
			wantFields:     map[string]string{"name": "Sarah", "age_range": "mid-30s"},
			wantConfidence: MultiFieldConfidence,
			wantMissing:    1,
		},
		{
			name:           "label synonym via underscores",
			text:           "age_range: late 20s",
			asked:          "age_range",
			wantFields:     map[string]string{"age_range": "late 20s"},
			wantConfidence: ExactAnswerConfidence,
			wantMissing:    2,
		},
		{
			name:           "unknown labels fall back to asked field",
			text:           "Note: this one is tricky",
			asked:          "name",
			wantFields:     map[string]string{"name": "Note: this one is tricky"},
			wantConfidence: WholeReplyConfidence,
			wantMissing:    2,
		},
		{
			name:           "empty reply yields nothing",
			text:           "   \n  ",
			asked:          "name",
			wantFields:     map[string]string{},
			wantConfidence: 0,
			wantMissing:    3,
		},
		{
			name:           "no asked field and no labels yields nothing",
			text:           "I am not sure what you mean.",
			asked:          "",
			wantFields:     map[string]string{},
			wantConfidence: 0,
			wantMissing:    3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Parse(tt.text, characterSchema(), tt.asked)

			if len(got.ExtractedFields) != len(tt.wantFields) {
				t.Fatalf("ExtractedFields = %v, want %v", got.ExtractedFields, tt.wantFields)
			}
			for k, v := range tt.wantFields {
				if got.ExtractedFields[k] != v {
					t.Errorf("ExtractedFields[%q] = %q, want %q", k, got.ExtractedFields[k], v)
				}
			}
			if got.Confidence != tt.wantConfidence {
				t.Errorf("Confidence = %v, want %v", got.Confidence, tt.wantConfidence)
			}
			if len(got.MissingRequiredFields) != tt.wantMissing {
				t.Errorf("MissingRequiredFields = %v, want %d entries", got.MissingRequiredFields, tt.wantMissing)
			}
		})
	}
}

func TestParseSingleOutstandingFieldMeetsThreshold(t *testing.T) {
	// The panel accepts silently at or above SingleFieldThreshold.
	got := Parse("Sarah, mid-30s", characterSchema(), "name")
	if got.Confidence < SingleFieldThreshold {
		t.Errorf("Confidence = %v, want >= %v", got.Confidence, SingleFieldThreshold)
	}
	if got.ExtractedFields["name"] != "Sarah, mid-30s" {
		t.Errorf("name = %q, want %q", got.ExtractedFields["name"], "Sarah, mid-30s")
	}
}

func TestParseFirstOccurrenceWins(t *testing.T) {
	got := Parse("Name: Sarah\nName: Clara", characterSchema(), "name")
	if got.ExtractedFields["name"] != "Sarah" {
		t.Errorf("name = %q, want first occurrence %q", got.ExtractedFields["name"], "Sarah")
	}
}

func TestResultUsable(t *testing.T) {
	empty := Parse("", characterSchema(), "")
	if empty.Usable() {
		t.Error("empty result reported usable")
	}

	ok := Parse("Name: Sarah", characterSchema(), "name")
	if !ok.Usable() {
		t.Error("extracted result reported unusable")
	}
}
