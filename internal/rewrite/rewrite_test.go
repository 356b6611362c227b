package rewrite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/whisperclip/whisperclip/internal/glossary"
)

type fakeAsker struct {
	answer string
	err    error
	query  string
}

func (f *fakeAsker) Ask(_ context.Context, query string) (string, error) {
	f.query = query
	return f.answer, f.err
}

func TestRewriteReturnsCorrectedText(t *testing.T) {
	asker := &fakeAsker{answer: "I use Kubernetes for deployments"}
	r := New(asker, nil)

	terms := []glossary.Term{{Term: "Kubernetes", Description: "container orchestration"}}
	text, elapsed, err := r.Rewrite(context.Background(), "I use koo-bernetti for deployments", terms)
	require.NoError(t, err)
	require.Equal(t, "I use Kubernetes for deployments", text)
	require.GreaterOrEqual(t, elapsed, time.Duration(0))

	require.Contains(t, asker.query, "Transcript:\nI use koo-bernetti for deployments")
	require.Contains(t, asker.query, "- Kubernetes: container orchestration")
	require.Contains(t, asker.query, "Return only the corrected transcript")
}

func TestRewriteWhitespaceAnswerMeansNoChange(t *testing.T) {
	r := New(&fakeAsker{answer: "  \n\t "}, nil)

	text, _, err := r.Rewrite(context.Background(), "original text", nil)
	require.NoError(t, err)
	require.Equal(t, "original text", text)
}

func TestRewritePropagatesAssistantFailure(t *testing.T) {
	r := New(&fakeAsker{err: errors.New("assistant timed out")}, nil)

	_, _, err := r.Rewrite(context.Background(), "original text", nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "glossary rewrite")
	require.Contains(t, err.Error(), "assistant timed out")
}

func TestRewriteTrimsAnswer(t *testing.T) {
	r := New(&fakeAsker{answer: "\n corrected \n"}, nil)

	text, _, err := r.Rewrite(context.Background(), "x", nil)
	require.NoError(t, err)
	require.Equal(t, "corrected", text)
}
