package workflow

import (
	"errors"
	"fmt"
)

// ErrWorkflowNotFound is returned when no workflow is registered for a kind.
var ErrWorkflowNotFound = errors.New("workflow not found")

// Registry is the static catalog of interview definitions. Pure data lookup,
// no side effects.
type Registry struct {
	defs map[string]Definition
}

// NewRegistry builds a registry with the built-in definitions.
func NewRegistry() *Registry {
	r := &Registry{defs: make(map[string]Definition)}
	for _, def := range builtinDefinitions() {
		r.defs[def.EntityKind] = def
	}
	return r
}

// Get returns the workflow for an entity kind.
func (r *Registry) Get(entityKind string) (Definition, error) {
	def, ok := r.defs[entityKind]
	if !ok {
		return Definition{}, fmt.Errorf("%w: %s", ErrWorkflowNotFound, entityKind)
	}
	return def, nil
}

// Kinds lists the registered entity kinds in definition order.
func (r *Registry) Kinds() []string {
	return []string{KindCharacter, KindLocation, KindScene}
}

// NextQuestion returns the lowest-index unanswered question whose SkipIf
// predicate (evaluated against answers so far) is false or absent. Returns nil
// when every applicable question is satisfied, signaling completion.
// Re-evaluating with the same answers always yields the same question.
func NextQuestion(def Definition, answers map[string]string) *Question {
	for i := range def.Questions {
		q := &def.Questions[i]
		if _, answered := answers[q.TargetField]; answered {
			continue
		}
		if q.SkipIf != nil && q.SkipIf(answers) {
			continue
		}
		return q
	}
	return nil
}

// MissingRequired returns the required fields whose question has not been
// skipped and that have no answer yet. Empty means the interview may complete.
func MissingRequired(def Definition, answers map[string]string) []string {
	var missing []string
	for i := range def.Questions {
		q := &def.Questions[i]
		if !q.Required {
			continue
		}
		if q.SkipIf != nil && q.SkipIf(answers) {
			continue
		}
		if _, ok := answers[q.TargetField]; !ok {
			missing = append(missing, q.TargetField)
		}
	}
	return missing
}
