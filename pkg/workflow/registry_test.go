package workflow

import (
	"errors"
	"testing"
)

func TestRegistryGet(t *testing.T) {
	r := NewRegistry()

	for _, kind := range []string{KindCharacter, KindLocation, KindScene} {
		def, err := r.Get(kind)
		if err != nil {
			t.Fatalf("Get(%q) error = %v", kind, err)
		}
		if def.EntityKind != kind {
			t.Errorf("EntityKind = %q, want %q", def.EntityKind, kind)
		}
		if len(def.Questions) == 0 {
			t.Errorf("Get(%q) returned no questions", kind)
		}
	}

	_, err := r.Get("vehicle")
	if !errors.Is(err, ErrWorkflowNotFound) {
		t.Errorf("Get(vehicle) error = %v, want ErrWorkflowNotFound", err)
	}
}

func TestCharacterWorkflowHasEightQuestions(t *testing.T) {
	def, err := NewRegistry().Get(KindCharacter)
	if err != nil {
		t.Fatal(err)
	}
	if len(def.Questions) != 8 {
		t.Errorf("character questions = %d, want 8", len(def.Questions))
	}
}

func TestNextQuestion(t *testing.T) {
	def, _ := NewRegistry().Get(KindCharacter)

	tests := []struct {
		name      string
		answers   map[string]string
		wantField string
		wantNil   bool
	}{
		{
			name:      "empty answers yields first question",
			answers:   map[string]string{},
			wantField: "name",
		},
		{
			name:      "answered fields are skipped",
			answers:   map[string]string{"name": "Sarah", "age_range": "mid-30s"},
			wantField: "role",
		},
		{
			name: "skip predicate suppresses backstory for background role",
			answers: map[string]string{
				"name": "Extra #3", "age_range": "40s", "role": "background",
				"appearance": "weathered coat", "personality": "quiet",
			},
			wantField: "voice", // backstory and motivation both skipped
		},
		{
			name: "all satisfied returns nil",
			answers: map[string]string{
				"name": "Sarah", "age_range": "mid-30s", "role": "protagonist",
				"appearance": "tall", "personality": "driven", "backstory": "ex-pilot",
				"motivation": "redemption", "voice": "clipped",
			},
			wantNil: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := NextQuestion(def, tt.answers)
			if tt.wantNil {
				if q != nil {
					t.Fatalf("NextQuestion = %v, want nil", q.TargetField)
				}
				return
			}
			if q == nil {
				t.Fatal("NextQuestion = nil, want question")
			}
			if q.TargetField != tt.wantField {
				t.Errorf("TargetField = %q, want %q", q.TargetField, tt.wantField)
			}
		})
	}
}

func TestNextQuestionIsDeterministic(t *testing.T) {
	def, _ := NewRegistry().Get(KindScene)
	answers := map[string]string{"title": "Rooftop Chase", "location": "downtown"}

	first := NextQuestion(def, answers)
	for i := 0; i < 10; i++ {
		q := NextQuestion(def, answers)
		if q == nil || q.TargetField != first.TargetField || q.Index != first.Index {
			t.Fatalf("iteration %d: NextQuestion not stable: got %+v, want %+v", i, q, first)
		}
	}
}

func TestMissingRequired(t *testing.T) {
	def, _ := NewRegistry().Get(KindLocation)

	missing := MissingRequired(def, map[string]string{"name": "The Lighthouse"})
	want := []string{"setting", "era", "atmosphere", "visual_details"}
	if len(missing) != len(want) {
		t.Fatalf("missing = %v, want %v", missing, want)
	}
	for i := range want {
		if missing[i] != want[i] {
			t.Errorf("missing[%d] = %q, want %q", i, missing[i], want[i])
		}
	}

	// Optional soundscape is never reported, answered or not.
	complete := map[string]string{
		"name": "The Lighthouse", "setting": "exterior", "era": "1920s",
		"atmosphere": "stormy", "visual_details": "rusted lamp housing",
	}
	if got := MissingRequired(def, complete); len(got) != 0 {
		t.Errorf("MissingRequired(complete) = %v, want empty", got)
	}
}
