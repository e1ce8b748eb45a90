package workflow

// Entity kinds with a registered interview workflow
const (
	KindCharacter = "character"
	KindLocation  = "location"
	KindScene     = "scene"
)

// Predicate decides whether a question should be skipped given the answers
// collected so far. Predicates must be pure: same answers, same result.
type Predicate func(answers map[string]string) bool

// Question is one step of an interview.
type Question struct {
	Index       int
	Prompt      string
	TargetField string
	Required    bool
	SkipIf      Predicate
}

// FieldSpec describes one field of the structured entity the interview builds.
type FieldSpec struct {
	Name     string
	Label    string // human label as it appears in assistant replies ("Age Range: ...")
	Required bool
}

// Definition is a full interview workflow for one entity kind. Static data,
// loaded at startup, never mutated.
type Definition struct {
	ID           string
	EntityKind   string
	Questions    []Question
	OutputSchema []FieldSpec
}

// Field returns the spec for a field name, or nil.
func (d Definition) Field(name string) *FieldSpec {
	for i := range d.OutputSchema {
		if d.OutputSchema[i].Name == name {
			return &d.OutputSchema[i]
		}
	}
	return nil
}

// RemainingSchema returns the output fields that have no answer yet.
func (d Definition) RemainingSchema(answers map[string]string) []FieldSpec {
	var remaining []FieldSpec
	for _, f := range d.OutputSchema {
		if _, ok := answers[f.Name]; !ok {
			remaining = append(remaining, f)
		}
	}
	return remaining
}
