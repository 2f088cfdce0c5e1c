package generatealerts

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dark-devil9/Krishi-Mitra/internal/assistant"
	"github.com/dark-devil9/Krishi-Mitra/internal/common/logger"
)

type stubRunner struct {
	summary assistant.AlertRunSummary
	err     error
	runs    int
}

func (s *stubRunner) Run(ctx context.Context) (assistant.AlertRunSummary, error) {
	s.runs++
	return s.summary, s.err
}

func newTestHandler(t *testing.T, runner AlertRunner) *Handler {
	t.Helper()
	return NewHandler(LoadConfig(), runner, logger.NewTestLogger(t))
}

func TestExecuteReportsBatchSummary(t *testing.T) {
	runner := &stubRunner{summary: assistant.AlertRunSummary{
		Subscribers: 5, Sent: 3, Skipped: 1, Failed: 1,
	}}
	h := newTestHandler(t, runner)

	out, err := h.Execute(context.Background(), &Input{})
	require.NoError(t, err)

	assert.Equal(t, 5, out.Subscribers)
	assert.Equal(t, 3, out.Sent)
	assert.Equal(t, 1, out.Skipped)
	assert.Equal(t, 1, out.Failed)
	assert.Equal(t, 1, runner.runs)
}

func TestExecutePartialFailuresDoNotFailTheJob(t *testing.T) {
	runner := &stubRunner{summary: assistant.AlertRunSummary{
		Subscribers: 2, Failed: 2,
	}}
	h := newTestHandler(t, runner)

	out, err := h.Execute(context.Background(), &Input{})
	require.NoError(t, err)
	assert.Equal(t, 2, out.Failed)
}

func TestExecuteBatchFailure(t *testing.T) {
	runner := &stubRunner{err: errors.New("profile store down")}
	h := newTestHandler(t, runner)

	_, err := h.Execute(context.Background(), &Input{})
	assert.ErrorIs(t, err, ErrAlertBatchFailed)
}
