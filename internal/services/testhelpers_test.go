package services

import (
  "context"
  "testing"

  "github.com/agent-sparta/sparta-backend/internal/logger"
)

func newTestLogger(t *testing.T) *logger.Logger {
  t.Helper()
  log, err := logger.New("development")
  if err != nil {
    t.Fatalf("failed to build test logger: %v", err)
  }
  return log
}

// fakeLLM answers every completion with a fixed response or error and
// records the messages it was called with.
type fakeLLM struct {
  response string
  err      error
  calls    [][]LLMMessage
}

func (f *fakeLLM) Complete(ctx context.Context, messages []LLMMessage) (string, error) {
  f.calls = append(f.calls, messages)
  if f.err != nil {
    return "", f.err
  }
  return f.response, nil
}
