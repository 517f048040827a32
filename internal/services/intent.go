package services

import (
  "context"
  "encoding/json"
  "fmt"

  "github.com/agent-sparta/sparta-backend/internal/logger"
)

const (
  IntentCreateSPH           = "create_sph"
  IntentGeneralConversation = "general_conversation"
)

type definedIntent struct {
  Intent      string   `json:"intent"`
  Description string   `json:"description"`
  Keywords    []string `json:"keywords"`
}

// definedIntents is the closed set the router may answer with. New intents
// are added here and handled in the assistant switch.
var definedIntents = []definedIntent{
  {
    Intent:      IntentCreateSPH,
    Description: "Niat untuk membuat atau menanyakan tentang Surat Penawaran Harga (SPH), quotation, atau penawaran harga.",
    Keywords:    []string{"buatkan SPH", "penawaran harga", "quotation", "surat penawaran"},
  },
  {
    Intent:      IntentGeneralConversation,
    Description: "Percakapan umum, sapaan, atau pertanyaan yang tidak terkait dengan pembuatan dokumen.",
    Keywords:    []string{"halo", "siapa kamu", "terima kasih", "apa kabar"},
  },
}

type IntentService interface {
  ClassifyIntent(ctx context.Context, message string) string
}

type intentService struct {
  log *logger.Logger
  llm LLMService
}

func NewIntentService(log *logger.Logger, llm LLMService) IntentService {
  return &intentService{
    log: log.With("service", "IntentService"),
    llm: llm,
  }
}

// ClassifyIntent routes one message into exactly one defined intent. Any
// failure (network, malformed output, unknown intent name) degrades to
// general_conversation; the call never errors and is attempted once.
func (is *intentService) ClassifyIntent(ctx context.Context, message string) string {
  intentList, err := json.MarshalIndent(definedIntents, "", "  ")
  if err != nil {
    is.log.Warn("failed to marshal intent list", "error", err)
    return IntentGeneralConversation
  }

  prompt := fmt.Sprintf(`Anda adalah sebuah AI router yang bertugas untuk mengklasifikasikan niat pengguna.
Berdasarkan pesan pengguna, tentukan niatnya dari daftar berikut.
Hanya berikan jawaban dalam format JSON.

Daftar Niat:
%s

Pesan Pengguna: "%s"

Respon JSON:
{
  "intent": "nama_intent_yang_paling_sesuai"
}`, string(intentList), message)

  response, err := is.llm.Complete(ctx, []LLMMessage{
    {Role: "user", Content: prompt},
  })
  if err != nil {
    is.log.Warn("intent classification call failed, falling back", "error", err)
    return IntentGeneralConversation
  }

  raw := extractJSONObject(response)
  if raw == "" {
    is.log.Warn("no JSON object in intent response, falling back", "response", response)
    return IntentGeneralConversation
  }
  var parsed struct {
    Intent string `json:"intent"`
  }
  if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
    is.log.Warn("failed to parse intent JSON, falling back", "error", err)
    return IntentGeneralConversation
  }
  for _, di := range definedIntents {
    if di.Intent == parsed.Intent {
      is.log.Info("Intent detected", "intent", parsed.Intent)
      return parsed.Intent
    }
  }
  is.log.Warn("LLM returned an undefined intent, falling back", "intent", parsed.Intent)
  return IntentGeneralConversation
}
