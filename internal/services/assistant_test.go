package services

import (
  "context"
  "errors"
  "strings"
  "testing"

  "github.com/google/uuid"
  "gorm.io/gorm"

  "github.com/agent-sparta/sparta-backend/internal/types"
)

type fakeIntent struct {
  intent string
}

func (f *fakeIntent) ClassifyIntent(ctx context.Context, message string) string {
  return f.intent
}

type fakeExtractor struct {
  data *types.SPHData
  err  error
}

func (f *fakeExtractor) ExtractSPH(ctx context.Context, message string) (*types.SPHData, error) {
  return f.data, f.err
}

type fakeRenderer struct {
  result *RenderResult
  err    error
  calls  int
}

func (f *fakeRenderer) GenerateSPHDocument(ctx context.Context, docID uuid.UUID, data *types.SPHData) (*RenderResult, error) {
  f.calls++
  if f.err != nil {
    return nil, f.err
  }
  return f.result, nil
}

func (f *fakeRenderer) RegeneratePDF(ctx context.Context, docID uuid.UUID, html string) (*RenderResult, error) {
  return f.result, f.err
}

type fakeDocumentRepo struct {
  created   []*types.Document
  createErr error
}

func (f *fakeDocumentRepo) CreateDocument(ctx context.Context, tx *gorm.DB, doc *types.Document) (*types.Document, error) {
  if f.createErr != nil {
    return nil, f.createErr
  }
  f.created = append(f.created, doc)
  return doc, nil
}

func (f *fakeDocumentRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID, userID uuid.UUID) (*types.Document, error) {
  return nil, gorm.ErrRecordNotFound
}

func (f *fakeDocumentRepo) GetUserDocuments(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Document, error) {
  return nil, nil
}

func (f *fakeDocumentRepo) UpdateContent(ctx context.Context, tx *gorm.DB, id uuid.UUID, userID uuid.UUID, content string, data []byte) error {
  return nil
}

func (f *fakeDocumentRepo) UpdateFilePath(ctx context.Context, tx *gorm.DB, id uuid.UUID, userID uuid.UUID, filePath string) error {
  return nil
}

func (f *fakeDocumentRepo) UpdateStatus(ctx context.Context, tx *gorm.DB, id uuid.UUID, userID uuid.UUID, status string) error {
  return nil
}

func (f *fakeDocumentRepo) DeleteByID(ctx context.Context, tx *gorm.DB, id uuid.UUID, userID uuid.UUID) error {
  return nil
}

type assistantFixture struct {
  llm       *fakeLLM
  intent    *fakeIntent
  extractor *fakeExtractor
  renderer  *fakeRenderer
  docRepo   *fakeDocumentRepo
  svc       AssistantService
}

func newAssistantFixture(t *testing.T) *assistantFixture {
  t.Helper()
  f := &assistantFixture{
    llm:       &fakeLLM{response: "Halo! Ada yang bisa saya bantu?"},
    intent:    &fakeIntent{intent: IntentGeneralConversation},
    extractor: &fakeExtractor{},
    renderer:  &fakeRenderer{result: &RenderResult{HTML: "<html></html>", HTMLPath: "/uploads/sph.html", PDFPath: "/uploads/sph.pdf"}},
    docRepo:   &fakeDocumentRepo{},
  }
  f.svc = NewAssistantService(newTestLogger(t), f.llm, f.intent, f.extractor, f.renderer, f.docRepo)
  return f
}

func metaType(t *testing.T, reply *AssistantReply) string {
  t.Helper()
  typ, ok := reply.Metadata["type"].(string)
  if !ok {
    t.Fatalf("reply metadata has no type tag: %v", reply.Metadata)
  }
  return typ
}

func TestProcessMessage(t *testing.T) {
  ctx := context.Background()
  userID := uuid.New()

  t.Run("general conversation echoes the model", func(t *testing.T) {
    f := newAssistantFixture(t)
    reply := f.svc.ProcessMessage(ctx, "halo", userID)
    if reply.Content != "Halo! Ada yang bisa saya bantu?" {
      t.Fatalf("unexpected content: %q", reply.Content)
    }
    if metaType(t, reply) != types.MetaTypeGeneral {
      t.Fatalf("unexpected metadata: %v", reply.Metadata)
    }
  })

  t.Run("general conversation degrades to a fixed sentence on LLM failure", func(t *testing.T) {
    f := newAssistantFixture(t)
    f.llm.err = ErrLLMRateLimited
    reply := f.svc.ProcessMessage(ctx, "halo", userID)
    if reply.Content != FallbackText(ErrLLMRateLimited) {
      t.Fatalf("unexpected content: %q", reply.Content)
    }
    if metaType(t, reply) != types.MetaTypeError {
      t.Fatalf("unexpected metadata: %v", reply.Metadata)
    }
  })

  t.Run("incomplete extraction asks for the missing fields", func(t *testing.T) {
    f := newAssistantFixture(t)
    f.intent.intent = IntentCreateSPH
    data := validSPHData()
    data.IsComplete = false
    data.Services[0].ConnectionCount = nil
    f.extractor.data = data

    reply := f.svc.ProcessMessage(ctx, "buatkan SPH untuk PT Maju Jaya", userID)
    if metaType(t, reply) != types.MetaTypeGuidanceNeeded {
      t.Fatalf("unexpected metadata: %v", reply.Metadata)
    }
    if !strings.Contains(reply.Content, "Jumlah Sambungan") {
      t.Fatalf("guidance does not name the gap: %q", reply.Content)
    }
    if len(f.docRepo.created) != 0 {
      t.Fatalf("no document should be persisted for guidance")
    }
  })

  t.Run("incomplete flag alone still asks for completion", func(t *testing.T) {
    f := newAssistantFixture(t)
    f.intent.intent = IntentCreateSPH
    data := validSPHData()
    data.IsComplete = false
    f.extractor.data = data

    reply := f.svc.ProcessMessage(ctx, "buatkan SPH", userID)
    if metaType(t, reply) != types.MetaTypeGuidanceNeeded {
      t.Fatalf("unexpected metadata: %v", reply.Metadata)
    }
    if !strings.Contains(reply.Content, "belum lengkap") {
      t.Fatalf("unexpected content: %q", reply.Content)
    }
    if len(f.docRepo.created) != 0 || f.renderer.calls != 0 {
      t.Fatalf("incomplete extraction must not render or persist")
    }
  })

  t.Run("non-positive connection count is rejected, not repaired", func(t *testing.T) {
    f := newAssistantFixture(t)
    f.intent.intent = IntentCreateSPH
    data := validSPHData()
    data.Services[0].ConnectionCount = intPtr(-2)
    f.extractor.data = data

    reply := f.svc.ProcessMessage(ctx, "buatkan SPH", userID)
    if metaType(t, reply) != types.MetaTypeValidationError {
      t.Fatalf("unexpected metadata: %v", reply.Metadata)
    }
    if !strings.Contains(reply.Content, "Jumlah sambungan harus lebih dari 0") {
      t.Fatalf("validation reply missing the error: %q", reply.Content)
    }
    if len(f.docRepo.created) != 0 || f.renderer.calls != 0 {
      t.Fatalf("invalid data must not render or persist")
    }
  })

  t.Run("stated discount percentage is checked before sanitizing drops it", func(t *testing.T) {
    f := newAssistantFixture(t)
    f.intent.intent = IntentCreateSPH
    data := validSPHData()
    data.Services[0].DiscountPercentage = floatPtr(50)
    f.extractor.data = data

    reply := f.svc.ProcessMessage(ctx, "buatkan SPH diskon 50 persen", userID)
    if metaType(t, reply) != types.MetaTypeSPHGenerated {
      t.Fatalf("unexpected metadata: %v", reply.Metadata)
    }
    if !strings.Contains(reply.Content, "Persentase diskon") {
      t.Fatalf("reply missing the percentage warning: %q", reply.Content)
    }
  })

  t.Run("invalid date blocks generation with a validation reply", func(t *testing.T) {
    f := newAssistantFixture(t)
    f.intent.intent = IntentCreateSPH
    data := validSPHData()
    data.SPHDate = strPtr("besok sore")
    f.extractor.data = data

    reply := f.svc.ProcessMessage(ctx, "buatkan SPH", userID)
    if metaType(t, reply) != types.MetaTypeValidationError {
      t.Fatalf("unexpected metadata: %v", reply.Metadata)
    }
    if !strings.Contains(reply.Content, "Format tanggal SPH tidak valid") {
      t.Fatalf("validation reply missing the error: %q", reply.Content)
    }
    if len(f.docRepo.created) != 0 {
      t.Fatalf("no document should be persisted for invalid data")
    }
  })

  t.Run("valid request renders and persists the document", func(t *testing.T) {
    f := newAssistantFixture(t)
    f.intent.intent = IntentCreateSPH
    f.extractor.data = validSPHData()

    reply := f.svc.ProcessMessage(ctx, "buatkan SPH", userID)
    if metaType(t, reply) != types.MetaTypeSPHGenerated {
      t.Fatalf("unexpected metadata: %v", reply.Metadata)
    }
    if len(f.docRepo.created) != 1 {
      t.Fatalf("expected one persisted document, got %d", len(f.docRepo.created))
    }
    doc := f.docRepo.created[0]
    if doc.UserID != userID {
      t.Fatalf("document owned by %s, want %s", doc.UserID, userID)
    }
    if doc.Type != types.DocumentTypeSPH || doc.Status != types.DocumentStatusGenerated {
      t.Fatalf("unexpected type/status: %s/%s", doc.Type, doc.Status)
    }
    if !strings.HasPrefix(doc.Title, "SPH - PT Maju Jaya - ") {
      t.Fatalf("unexpected title: %q", doc.Title)
    }
    if doc.Content == "" || len(doc.Data) == 0 {
      t.Fatalf("document missing rendered content or data")
    }
    if reply.Metadata["documentId"] != doc.ID.String() {
      t.Fatalf("metadata documentId mismatch: %v", reply.Metadata)
    }
    if !strings.Contains(reply.Content, "berhasil dibuat") {
      t.Fatalf("unexpected content: %q", reply.Content)
    }
  })

  t.Run("warnings survive into a successful reply", func(t *testing.T) {
    f := newAssistantFixture(t)
    f.intent.intent = IntentCreateSPH
    data := validSPHData()
    data.Services[0].PSBFee = intPtr(0)
    f.extractor.data = data

    reply := f.svc.ProcessMessage(ctx, "buatkan SPH psb gratis", userID)
    if metaType(t, reply) != types.MetaTypeSPHGenerated {
      t.Fatalf("unexpected metadata: %v", reply.Metadata)
    }
    if !strings.Contains(reply.Content, "Perhatian:") || !strings.Contains(reply.Content, "gratis") {
      t.Fatalf("reply missing warnings: %q", reply.Content)
    }
  })

  t.Run("extraction parse failure asks for a rewrite", func(t *testing.T) {
    f := newAssistantFixture(t)
    f.intent.intent = IntentCreateSPH
    f.extractor.err = ErrExtractParse

    reply := f.svc.ProcessMessage(ctx, "buatkan SPH", userID)
    if metaType(t, reply) != types.MetaTypeError {
      t.Fatalf("unexpected metadata: %v", reply.Metadata)
    }
    if !strings.Contains(reply.Content, "kesulitan memahami") {
      t.Fatalf("unexpected content: %q", reply.Content)
    }
  })

  t.Run("render failure reports an error and persists nothing", func(t *testing.T) {
    f := newAssistantFixture(t)
    f.intent.intent = IntentCreateSPH
    f.extractor.data = validSPHData()
    f.renderer.err = errors.New("chrome crashed")

    reply := f.svc.ProcessMessage(ctx, "buatkan SPH", userID)
    if metaType(t, reply) != types.MetaTypeError {
      t.Fatalf("unexpected metadata: %v", reply.Metadata)
    }
    if len(f.docRepo.created) != 0 {
      t.Fatalf("no document should be persisted when rendering fails")
    }
  })

  t.Run("persist failure reports an error", func(t *testing.T) {
    f := newAssistantFixture(t)
    f.intent.intent = IntentCreateSPH
    f.extractor.data = validSPHData()
    f.docRepo.createErr = errors.New("db down")

    reply := f.svc.ProcessMessage(ctx, "buatkan SPH", userID)
    if metaType(t, reply) != types.MetaTypeError {
      t.Fatalf("unexpected metadata: %v", reply.Metadata)
    }
    if !strings.Contains(reply.Content, "gagal disimpan") {
      t.Fatalf("unexpected content: %q", reply.Content)
    }
  })

  t.Run("a panic inside the pipeline becomes the apology", func(t *testing.T) {
    f := newAssistantFixture(t)
    f.intent.intent = IntentCreateSPH
    // nil extraction data with no error forces a nil dereference.
    f.extractor.data = nil
    f.extractor.err = nil

    reply := f.svc.ProcessMessage(ctx, "buatkan SPH", userID)
    if reply == nil {
      t.Fatalf("expected a reply despite the panic")
    }
    if reply.Content != assistantApology {
      t.Fatalf("unexpected content: %q", reply.Content)
    }
    if metaType(t, reply) != types.MetaTypeError {
      t.Fatalf("unexpected metadata: %v", reply.Metadata)
    }
  })
}
