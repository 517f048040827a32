package services

import (
  "context"
  "encoding/json"
  "fmt"
  "strings"

  "github.com/google/uuid"

  "github.com/agent-sparta/sparta-backend/internal/logger"
  "github.com/agent-sparta/sparta-backend/internal/repos"
  "github.com/agent-sparta/sparta-backend/internal/types"
)

const assistantApology = "Maaf, terjadi kesalahan dalam memproses pesan Anda. Silakan coba lagi."

const generalSystemPrompt = `Anda adalah asisten AI untuk tim sales perusahaan penyedia layanan internet. Anda membantu menjawab pertanyaan seputar produk, harga, dan proses penawaran. Jawab dalam Bahasa Indonesia yang sopan dan ringkas. Jika pengguna ingin membuat Surat Penawaran Harga (SPH), minta mereka menyebutkan nama pelanggan, layanan, jumlah sambungan, dan biaya.`

// AssistantReply is what both channels deliver back to the user: the
// text itself plus a metadata map whose "type" tag tells the channel
// what kind of reply it is carrying.
type AssistantReply struct {
  Content  string
  Metadata map[string]interface{}
}

type AssistantService interface {
  ProcessMessage(ctx context.Context, message string, userID uuid.UUID) *AssistantReply
}

type assistantService struct {
  log       *logger.Logger
  llm       LLMService
  intent    IntentService
  extractor ExtractorService
  renderer  RendererService
  docRepo   repos.DocumentRepo
}

func NewAssistantService(log *logger.Logger, llm LLMService, intent IntentService, extractor ExtractorService, renderer RendererService, docRepo repos.DocumentRepo) AssistantService {
  return &assistantService{
    log:       log.With("service", "AssistantService"),
    llm:       llm,
    intent:    intent,
    extractor: extractor,
    renderer:  renderer,
    docRepo:   docRepo,
  }
}

// ProcessMessage routes one user message through intent classification
// and, for quotation requests, the extract-validate-render-persist
// pipeline. It always produces a reply; failures inside any path
// collapse to a fixed apology instead of escaping to the caller.
func (as *assistantService) ProcessMessage(ctx context.Context, message string, userID uuid.UUID) (reply *AssistantReply) {
  defer func() {
    if r := recover(); r != nil {
      as.log.Error("panic while processing message", "panic", r)
      reply = &AssistantReply{
        Content:  assistantApology,
        Metadata: map[string]interface{}{"type": types.MetaTypeError},
      }
    }
  }()

  intent := as.intent.ClassifyIntent(ctx, message)
  as.log.Debug("classified message intent", "intent", intent, "userID", userID)

  if intent == IntentCreateSPH {
    return as.processSPHRequest(ctx, message, userID)
  }
  return as.processGeneralConversation(ctx, message)
}

func (as *assistantService) processGeneralConversation(ctx context.Context, message string) *AssistantReply {
  response, err := as.llm.Complete(ctx, []LLMMessage{
    {Role: "system", Content: generalSystemPrompt},
    {Role: "user", Content: message},
  })
  if err != nil {
    as.log.Warn("LLM completion failed for general conversation", "error", err)
    return &AssistantReply{
      Content:  FallbackText(err),
      Metadata: map[string]interface{}{"type": types.MetaTypeError},
    }
  }
  return &AssistantReply{
    Content:  response,
    Metadata: map[string]interface{}{"type": types.MetaTypeGeneral},
  }
}

func (as *assistantService) processSPHRequest(ctx context.Context, message string, userID uuid.UUID) *AssistantReply {
  data, err := as.extractor.ExtractSPH(ctx, message)
  if err != nil {
    if err == ErrExtractParse {
      return &AssistantReply{
        Content:  "Maaf, saya kesulitan memahami detail permintaan SPH Anda. Mohon tulis ulang dengan menyebutkan nama pelanggan, layanan, jumlah sambungan, dan biayanya.",
        Metadata: map[string]interface{}{"type": types.MetaTypeError},
      }
    }
    as.log.Warn("LLM completion failed for SPH extraction", "error", err)
    return &AssistantReply{
      Content:  FallbackText(err),
      Metadata: map[string]interface{}{"type": types.MetaTypeError},
    }
  }

  if !data.IsComplete {
    return guidanceReply(MissingSPHFields(data))
  }

  // Validation runs on the raw extraction; only a valid result is sanitized.
  validation := ValidateSPHData(data)
  if !validation.IsValid {
    return validationReply(validation)
  }
  SanitizeSPHData(data)

  doc := &types.Document{
    ID:     uuid.New(),
    UserID: userID,
    Type:   types.DocumentTypeSPH,
    Title:  fmt.Sprintf("SPH - %s - %s", derefString(data.CustomerName), derefString(data.SPHDate)),
    Status: types.DocumentStatusGenerated,
  }

  rendered, err := as.renderer.GenerateSPHDocument(ctx, doc.ID, data)
  if err != nil {
    as.log.Error("failed to render SPH document", "error", err, "userID", userID)
    return &AssistantReply{
      Content:  "Maaf, terjadi kesalahan saat membuat dokumen SPH. Silakan coba lagi.",
      Metadata: map[string]interface{}{"type": types.MetaTypeError},
    }
  }

  serialized, err := json.Marshal(data)
  if err != nil {
    as.log.Error("failed to serialize SPH data", "error", err)
    return &AssistantReply{
      Content:  assistantApology,
      Metadata: map[string]interface{}{"type": types.MetaTypeError},
    }
  }
  doc.Content = rendered.HTML
  doc.Data = serialized
  doc.FilePath = rendered.PDFPath

  if _, err := as.docRepo.CreateDocument(ctx, nil, doc); err != nil {
    as.log.Error("failed to persist SPH document", "error", err, "userID", userID)
    return &AssistantReply{
      Content:  "Maaf, dokumen SPH gagal disimpan. Silakan coba lagi.",
      Metadata: map[string]interface{}{"type": types.MetaTypeError},
    }
  }

  var b strings.Builder
  fmt.Fprintf(&b, "SPH untuk %s berhasil dibuat!\n\n", derefString(data.CustomerName))
  fmt.Fprintf(&b, "ID Dokumen: %s\n", doc.ID)
  fmt.Fprintf(&b, "Lihat dokumen: /documents/%s\n", doc.ID)
  fmt.Fprintf(&b, "Unduh PDF: %s\n", rendered.PDFPath)
  fmt.Fprintf(&b, "Lihat HTML: %s", rendered.HTMLPath)
  if len(validation.Warnings) > 0 {
    b.WriteString("\n\nPerhatian:")
    for _, w := range validation.Warnings {
      b.WriteString("\n- ")
      b.WriteString(w)
    }
  }

  return &AssistantReply{
    Content: b.String(),
    Metadata: map[string]interface{}{
      "type":       types.MetaTypeSPHGenerated,
      "documentId": doc.ID.String(),
      "pdfPath":    rendered.PDFPath,
      "htmlPath":   rendered.HTMLPath,
    },
  }
}

func guidanceReply(missing []string) *AssistantReply {
  var b strings.Builder
  if len(missing) == 0 {
    b.WriteString("Baik, saya akan membantu membuat SPH. Namun, informasi yang Anda berikan belum lengkap. Mohon lengkapi detail permintaan Anda agar SPH dapat dibuat.")
  } else {
    b.WriteString("Baik, saya akan membantu membuat SPH. Namun, informasi berikut masih kurang:\n")
    for _, field := range missing {
      b.WriteString("- ")
      b.WriteString(field)
      b.WriteString("\n")
    }
    b.WriteString("\nMohon lengkapi informasi di atas agar SPH dapat dibuat.")
  }
  return &AssistantReply{
    Content: b.String(),
    Metadata: map[string]interface{}{
      "type":          types.MetaTypeGuidanceNeeded,
      "missingFields": missing,
    },
  }
}

func validationReply(validation types.ValidationResult) *AssistantReply {
  var b strings.Builder
  b.WriteString("SPH tidak dapat dibuat karena data belum valid:\n")
  for _, e := range validation.Errors {
    b.WriteString("- ")
    b.WriteString(e)
    b.WriteString("\n")
  }
  if len(validation.Warnings) > 0 {
    b.WriteString("\nPerhatian:\n")
    for _, w := range validation.Warnings {
      b.WriteString("- ")
      b.WriteString(w)
      b.WriteString("\n")
    }
  }
  b.WriteString("\nMohon perbaiki data tersebut lalu kirim ulang permintaan Anda.")
  return &AssistantReply{
    Content: b.String(),
    Metadata: map[string]interface{}{
      "type":     types.MetaTypeValidationError,
      "errors":   validation.Errors,
      "warnings": validation.Warnings,
    },
  }
}

func derefString(s *string) string {
  if s == nil {
    return ""
  }
  return *s
}
