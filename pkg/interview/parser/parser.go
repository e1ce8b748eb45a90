// Package parser extracts typed entity fields from free-form assistant text.
// It never fails: malformed input degrades to an empty result, and the caller
// decides what to do with low confidence.
package parser

import (
	"regexp"
	"strings"
)

// Confidence levels produced by Parse. These are heuristic signals for the
// state machine, not hard gates: only UnusableFloor blocks acceptance.
const (
	// ExactAnswerConfidence: the reply answered exactly the asked field.
	ExactAnswerConfidence = 1.0

	// WholeReplyConfidence: no labels found, the entire reply was taken as
	// the value of the single currently-asked field.
	WholeReplyConfidence = 0.95

	// SingleFieldThreshold: at or above this the answer is accepted silently.
	SingleFieldThreshold = 0.9

	// MultiFieldConfidence: several candidate fields detected in one reply.
	MultiFieldConfidence = 0.7

	// VolunteeredConfidence: labels matched, but not the asked field.
	VolunteeredConfidence = 0.6

	// UnusableFloor: below this the state machine re-asks the same question
	// verbatim. Nothing usable was found in the reply.
	UnusableFloor = 0.25
)

// Field is the parsing view of an output schema entry.
type Field struct {
	Name     string
	Label    string
	Required bool
}

// Result is what one assistant turn yielded against the target schema.
// Consumed immediately by the state machine, never persisted.
type Result struct {
	ExtractedFields       map[string]string
	MissingRequiredFields []string
	Confidence            float64
}

// Usable reports whether the result carries at least one accepted field.
func (r Result) Usable() bool {
	return len(r.ExtractedFields) > 0 && r.Confidence >= UnusableFloor
}

// labeledLine matches "Name: Sarah" style lines, tolerating bullets and
// markdown bold around the label.
var labeledLine = regexp.MustCompile(`^\s*(?:[-*•]\s*)?(?:\*\*)?([A-Za-z][A-Za-z0-9 _/-]{0,40}?)(?:\*\*)?\s*[:：]\s*(.+?)\s*$`)

// Parse extracts fields from assistantText against the target schema.
// askedField is the field of the question that was just asked, or empty when
// the whole remaining schema is the target. Parse never returns an error:
// unstructured text yields whatever could be confidently matched and flags
// the rest as missing.
func Parse(assistantText string, schema []Field, askedField string) Result {
	result := Result{ExtractedFields: make(map[string]string)}

	text := strings.TrimSpace(assistantText)
	if text == "" {
		result.MissingRequiredFields = missingRequired(schema, result.ExtractedFields)
		return result
	}

	labels := labelIndex(schema)

	for _, line := range strings.Split(text, "\n") {
		m := labeledLine.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		field, ok := labels[normalizeLabel(m[1])]
		if !ok {
			continue
		}
		value := strings.Trim(m[2], `"' `)
		if value == "" {
			continue
		}
		// First occurrence wins; replies sometimes echo fields twice.
		if _, seen := result.ExtractedFields[field]; !seen {
			result.ExtractedFields[field] = value
		}
	}

	switch {
	case len(result.ExtractedFields) == 0 && askedField != "":
		// Heuristic fallback: treat the entire reply as the value of the
		// currently-asked field.
		result.ExtractedFields[askedField] = text
		result.Confidence = WholeReplyConfidence
	case len(result.ExtractedFields) == 1:
		if _, hasAsked := result.ExtractedFields[askedField]; hasAsked || askedField == "" {
			result.Confidence = ExactAnswerConfidence
		} else {
			result.Confidence = VolunteeredConfidence
		}
	case len(result.ExtractedFields) > 1:
		result.Confidence = MultiFieldConfidence
	default:
		result.Confidence = 0
	}

	result.MissingRequiredFields = missingRequired(schema, result.ExtractedFields)
	return result
}

func labelIndex(schema []Field) map[string]string {
	idx := make(map[string]string, len(schema)*2)
	for _, f := range schema {
		idx[normalizeLabel(f.Name)] = f.Name
		if f.Label != "" {
			idx[normalizeLabel(f.Label)] = f.Name
		}
	}
	return idx
}

func normalizeLabel(label string) string {
	label = strings.ToLower(strings.TrimSpace(label))
	label = strings.ReplaceAll(label, "-", " ")
	label = strings.ReplaceAll(label, "_", " ")
	return strings.Join(strings.Fields(label), " ")
}

func missingRequired(schema []Field, extracted map[string]string) []string {
	var missing []string
	for _, f := range schema {
		if !f.Required {
			continue
		}
		if _, ok := extracted[f.Name]; !ok {
			missing = append(missing, f.Name)
		}
	}
	return missing
}
