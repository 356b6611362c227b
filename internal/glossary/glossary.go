// Package glossary models user-preferred terms and their JSON persistence.
package glossary

import (
	"strings"
)

// Term is one user-defined vocabulary entry used to bias transcript
// correction. Description is optional; order across a list is display order.
type Term struct {
	Term        string `json:"term"`
	Description string `json:"description"`
}

// Normalize trims surrounding whitespace and drops entries whose term is
// empty, preserving the original order of the remainder.
func Normalize(terms []Term) []Term {
	out := make([]Term, 0, len(terms))
	for _, t := range terms {
		term := strings.TrimSpace(t.Term)
		if term == "" {
			continue
		}
		out = append(out, Term{
			Term:        term,
			Description: strings.TrimSpace(t.Description),
		})
	}
	return out
}

// Block renders terms one per line for embedding into an assistant prompt:
// "- term: description" or "- term" when the description is empty.
func Block(terms []Term) string {
	lines := make([]string, 0, len(terms))
	for _, t := range terms {
		if t.Description != "" {
			lines = append(lines, "- "+t.Term+": "+t.Description)
		} else {
			lines = append(lines, "- "+t.Term)
		}
	}
	return strings.Join(lines, "\n")
}
