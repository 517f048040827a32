package services

import (
  "bytes"
  "context"
  "encoding/json"
  "errors"
  "fmt"
  "io"
  "net/http"
  "os"
  "time"

  "github.com/agent-sparta/sparta-backend/internal/logger"
  "github.com/agent-sparta/sparta-backend/internal/utils"
)

// Failure taxonomy of the completion collaborator. Callers map each to a
// fixed user-facing sentence via FallbackText instead of surfacing the
// raw error to the user.
var (
  ErrLLMUnavailable  = errors.New("llm service not configured")
  ErrLLMUnauthorized = errors.New("llm api key rejected")
  ErrLLMRateLimited  = errors.New("llm rate limited")
  ErrLLMTimeout      = errors.New("llm request timed out")
)

const (
  llmMsgUnavailable  = "Maaf, layanan AI sedang tidak tersedia. Silakan coba lagi nanti."
  llmMsgUnauthorized = "Maaf, API key tidak valid. Silakan hubungi administrator."
  llmMsgRateLimited  = "Maaf, terlalu banyak permintaan. Silakan coba lagi dalam beberapa saat."
  llmMsgTimeout      = "Maaf, permintaan timeout. Silakan coba lagi."
  llmMsgGeneric      = "Maaf, terjadi kesalahan dalam menghubungi layanan AI. Silakan coba lagi."
)

type LLMMessage struct {
  Role    string `json:"role"`
  Content string `json:"content"`
}

type LLMService interface {
  Complete(ctx context.Context, messages []LLMMessage) (string, error)
}

type llmService struct {
  log         *logger.Logger
  client      *http.Client
  apiURL      string
  apiKey      string
  model       string
  maxTokens   int
  temperature float64
}

type llmChatRequest struct {
  Model       string        `json:"model"`
  Messages    []LLMMessage  `json:"messages"`
  MaxTokens   int           `json:"max_tokens"`
  Temperature float64       `json:"temperature"`
}

type llmChatResponse struct {
  Choices []struct {
    Message struct {
      Content string `json:"content"`
    } `json:"message"`
  } `json:"choices"`
  Response string `json:"response"`
  Message  string `json:"message"`
}

func NewLLMService(log *logger.Logger) (LLMService, error) {
  serviceLog := log.With("service", "LLMService")
  apiURL := os.Getenv("LLM_API_URL")
  apiKey := os.Getenv("LLM_API_KEY")
  if apiURL == "" || apiKey == "" {
    serviceLog.Warn("LLM_API_URL or LLM_API_KEY not set; completions will return the unavailable fallback")
  }
  timeoutSec := utils.GetEnvAsInt("LLM_TIMEOUT_SECONDS", 30, log)
  return &llmService{
    log:         serviceLog,
    client:      &http.Client{Timeout: time.Duration(timeoutSec) * time.Second},
    apiURL:      apiURL,
    apiKey:      apiKey,
    model:       utils.GetEnv("LLM_MODEL", "telkom-ai", log),
    maxTokens:   utils.GetEnvAsInt("LLM_MAX_TOKENS", 2000, log),
    temperature: 0.1,
  }, nil
}

func (ls *llmService) Complete(ctx context.Context, messages []LLMMessage) (string, error) {
  if ls.apiURL == "" || ls.apiKey == "" {
    return "", ErrLLMUnavailable
  }

  payload := llmChatRequest{
    Model:       ls.model,
    Messages:    messages,
    MaxTokens:   ls.maxTokens,
    Temperature: ls.temperature,
  }
  body, err := json.Marshal(payload)
  if err != nil {
    return "", fmt.Errorf("failed to marshal llm request: %w", err)
  }

  req, err := http.NewRequestWithContext(ctx, http.MethodPost, ls.apiURL, bytes.NewReader(body))
  if err != nil {
    ls.log.Warn("failed to build llm request", "error", err)
    return "", err
  }
  req.Header.Set("Content-Type", "application/json")
  req.Header.Set("x-api-key", ls.apiKey)

  resp, err := ls.client.Do(req)
  if err != nil {
    if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
      ls.log.Warn("llm request timed out", "error", err)
      return "", ErrLLMTimeout
    }
    ls.log.Warn("failed to call llm api", "error", err)
    return "", err
  }
  defer resp.Body.Close()

  switch {
  case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
    return "", ErrLLMUnauthorized
  case resp.StatusCode == http.StatusTooManyRequests:
    return "", ErrLLMRateLimited
  case resp.StatusCode < 200 || resp.StatusCode > 299:
    bodyBytes, _ := io.ReadAll(resp.Body)
    ls.log.Warn("llm api responded with non-2xx", "statusCode", resp.StatusCode, "body", string(bodyBytes))
    return "", fmt.Errorf("llm api HTTP %d", resp.StatusCode)
  }

  bodyBytes, err := io.ReadAll(resp.Body)
  if err != nil {
    ls.log.Warn("failed to read llm response body", "error", err)
    return "", err
  }
  var parsed llmChatResponse
  if err := json.Unmarshal(bodyBytes, &parsed); err != nil {
    ls.log.Warn("failed to decode llm response", "error", err)
    return "", err
  }
  // The upstream API has answered with several shapes over time; take
  // whichever field actually carries text.
  if len(parsed.Choices) > 0 && parsed.Choices[0].Message.Content != "" {
    return parsed.Choices[0].Message.Content, nil
  }
  if parsed.Response != "" {
    return parsed.Response, nil
  }
  if parsed.Message != "" {
    return parsed.Message, nil
  }
  return "", fmt.Errorf("llm api returned an empty completion")
}

func isTimeout(err error) bool {
  type timeout interface{ Timeout() bool }
  var te timeout
  if errors.As(err, &te) {
    return te.Timeout()
  }
  return false
}

// FallbackText maps a completion failure to the fixed sentence shown to
// the user in place of a reply.
func FallbackText(err error) string {
  switch {
  case errors.Is(err, ErrLLMUnavailable):
    return llmMsgUnavailable
  case errors.Is(err, ErrLLMUnauthorized):
    return llmMsgUnauthorized
  case errors.Is(err, ErrLLMRateLimited):
    return llmMsgRateLimited
  case errors.Is(err, ErrLLMTimeout):
    return llmMsgTimeout
  default:
    return llmMsgGeneric
  }
}
