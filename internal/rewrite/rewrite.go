// Package rewrite corrects transcripts against a user glossary via the
// external assistant.
package rewrite

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/whisperclip/whisperclip/internal/glossary"
)

// Asker is the assistant call surface consumed by the rewriter.
type Asker interface {
	Ask(ctx context.Context, query string) (string, error)
}

// Rewriter asks the assistant to substitute misrecognized words with
// glossary terms where the context fits.
type Rewriter struct {
	asker  Asker
	logger *slog.Logger
}

// New constructs a Rewriter backed by the given assistant client.
func New(asker Asker, logger *slog.Logger) *Rewriter {
	return &Rewriter{asker: asker, logger: logger}
}

// Rewrite corrects text against terms and reports the elapsed wall time. An
// empty or whitespace-only assistant response means "no change" and returns
// the original text, never an error; process-level assistant failures are
// returned as errors and the caller is expected to fall back to the
// uncorrected transcript.
func (r *Rewriter) Rewrite(ctx context.Context, text string, terms []glossary.Term) (string, time.Duration, error) {
	start := time.Now()

	answer, err := r.asker.Ask(ctx, buildQuery(text, terms))
	if err != nil {
		return "", time.Since(start), fmt.Errorf("glossary rewrite: %w", err)
	}

	cleaned := strings.TrimSpace(answer)
	if cleaned == "" {
		cleaned = text
	}

	if r.logger != nil {
		r.logger.Debug("glossary rewrite complete",
			"input_length", len(text),
			"output_length", len(cleaned),
			"terms", len(terms),
		)
	}

	return cleaned, time.Since(start), nil
}

// buildQuery embeds the transcript and glossary into a correction
// instruction that asks for the corrected transcript and nothing else.
func buildQuery(text string, terms []glossary.Term) string {
	return "You will receive a transcript and a glossary of preferred terms. " +
		"Replace likely misrecognized words with glossary terms when the context fits. " +
		"If no changes are needed, return the transcript unchanged. " +
		"Return only the corrected transcript without explanations.\n\n" +
		"Transcript:\n" + text + "\n\n" +
		"Glossary terms:\n" + glossary.Block(terms)
}
