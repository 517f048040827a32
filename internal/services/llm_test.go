package services

import (
  "context"
  "encoding/json"
  "errors"
  "net/http"
  "net/http/httptest"
  "testing"
)

func newTestLLM(t *testing.T, handler http.HandlerFunc) LLMService {
  t.Helper()
  srv := httptest.NewServer(handler)
  t.Cleanup(srv.Close)
  t.Setenv("LLM_API_URL", srv.URL)
  t.Setenv("LLM_API_KEY", "test-key")
  svc, err := NewLLMService(newTestLogger(t))
  if err != nil {
    t.Fatalf("failed to build llm service: %v", err)
  }
  return svc
}

func TestComplete(t *testing.T) {
  ctx := context.Background()
  messages := []LLMMessage{{Role: "user", Content: "halo"}}

  t.Run("parses the choices shape", func(t *testing.T) {
    svc := newTestLLM(t, func(w http.ResponseWriter, r *http.Request) {
      if got := r.Header.Get("x-api-key"); got != "test-key" {
        t.Errorf("x-api-key = %q, want test-key", got)
      }
      var req struct {
        Model    string       `json:"model"`
        Messages []LLMMessage `json:"messages"`
      }
      if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
        t.Errorf("failed to decode request: %v", err)
      }
      if len(req.Messages) != 1 || req.Messages[0].Content != "halo" {
        t.Errorf("unexpected messages: %v", req.Messages)
      }
      w.Write([]byte(`{"choices":[{"message":{"content":"Halo juga!"}}]}`))
    })
    got, err := svc.Complete(ctx, messages)
    if err != nil {
      t.Fatalf("unexpected error: %v", err)
    }
    if got != "Halo juga!" {
      t.Fatalf("got %q", got)
    }
  })

  t.Run("parses the flat response shape", func(t *testing.T) {
    svc := newTestLLM(t, func(w http.ResponseWriter, r *http.Request) {
      w.Write([]byte(`{"response":"Baik, saya bantu."}`))
    })
    got, err := svc.Complete(ctx, messages)
    if err != nil {
      t.Fatalf("unexpected error: %v", err)
    }
    if got != "Baik, saya bantu." {
      t.Fatalf("got %q", got)
    }
  })

  t.Run("401 maps to unauthorized", func(t *testing.T) {
    svc := newTestLLM(t, func(w http.ResponseWriter, r *http.Request) {
      w.WriteHeader(http.StatusUnauthorized)
    })
    if _, err := svc.Complete(ctx, messages); !errors.Is(err, ErrLLMUnauthorized) {
      t.Fatalf("got %v, want ErrLLMUnauthorized", err)
    }
  })

  t.Run("429 maps to rate limited", func(t *testing.T) {
    svc := newTestLLM(t, func(w http.ResponseWriter, r *http.Request) {
      w.WriteHeader(http.StatusTooManyRequests)
    })
    if _, err := svc.Complete(ctx, messages); !errors.Is(err, ErrLLMRateLimited) {
      t.Fatalf("got %v, want ErrLLMRateLimited", err)
    }
  })

  t.Run("5xx is a plain error", func(t *testing.T) {
    svc := newTestLLM(t, func(w http.ResponseWriter, r *http.Request) {
      w.WriteHeader(http.StatusBadGateway)
    })
    _, err := svc.Complete(ctx, messages)
    if err == nil {
      t.Fatalf("expected an error")
    }
    if errors.Is(err, ErrLLMUnauthorized) || errors.Is(err, ErrLLMRateLimited) {
      t.Fatalf("5xx should not map to a sentinel, got %v", err)
    }
  })

  t.Run("empty completion is an error", func(t *testing.T) {
    svc := newTestLLM(t, func(w http.ResponseWriter, r *http.Request) {
      w.Write([]byte(`{"choices":[]}`))
    })
    if _, err := svc.Complete(ctx, messages); err == nil {
      t.Fatalf("expected an error")
    }
  })

  t.Run("missing configuration is unavailable", func(t *testing.T) {
    t.Setenv("LLM_API_URL", "")
    t.Setenv("LLM_API_KEY", "")
    svc, err := NewLLMService(newTestLogger(t))
    if err != nil {
      t.Fatalf("failed to build llm service: %v", err)
    }
    if _, err := svc.Complete(ctx, messages); !errors.Is(err, ErrLLMUnavailable) {
      t.Fatalf("got %v, want ErrLLMUnavailable", err)
    }
  })
}

func TestFallbackText(t *testing.T) {
  cases := []struct {
    name string
    err  error
    want string
  }{
    {"unavailable", ErrLLMUnavailable, llmMsgUnavailable},
    {"unauthorized", ErrLLMUnauthorized, llmMsgUnauthorized},
    {"rate limited", ErrLLMRateLimited, llmMsgRateLimited},
    {"timeout", ErrLLMTimeout, llmMsgTimeout},
    {"anything else", errors.New("boom"), llmMsgGeneric},
  }
  for _, tc := range cases {
    t.Run(tc.name, func(t *testing.T) {
      if got := FallbackText(tc.err); got != tc.want {
        t.Fatalf("got %q, want %q", got, tc.want)
      }
    })
  }
}
