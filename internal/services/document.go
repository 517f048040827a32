package services

import (
  "context"
  "fmt"

  "github.com/google/uuid"
  "gorm.io/gorm"

  "github.com/agent-sparta/sparta-backend/internal/errordata"
  "github.com/agent-sparta/sparta-backend/internal/logger"
  "github.com/agent-sparta/sparta-backend/internal/repos"
  "github.com/agent-sparta/sparta-backend/internal/requestdata"
  "github.com/agent-sparta/sparta-backend/internal/sse"
  "github.com/agent-sparta/sparta-backend/internal/ssedata"
  "github.com/agent-sparta/sparta-backend/internal/types"
)

// DocumentsChannel is the SSE channel document lifecycle changes are
// announced on.
const DocumentsChannel = "documents"

type DocumentService interface {
  GetUserDocuments(ctx context.Context) ([]*types.Document, error)
  GetDocument(ctx context.Context, id uuid.UUID) (*types.Document, error)
  UpdateContent(ctx context.Context, id uuid.UUID, content string) (*types.Document, error)
  UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
  RegeneratePDF(ctx context.Context, id uuid.UUID) (*types.Document, error)
  DeleteDocument(ctx context.Context, id uuid.UUID) error
}

type documentService struct {
  log      *logger.Logger
  docRepo  repos.DocumentRepo
  renderer RendererService
}

func NewDocumentService(log *logger.Logger, docRepo repos.DocumentRepo, renderer RendererService) DocumentService {
  return &documentService{
    log:      log.With("service", "DocumentService"),
    docRepo:  docRepo,
    renderer: renderer,
  }
}

func (ds *documentService) GetUserDocuments(ctx context.Context) ([]*types.Document, error) {
  rd := requestdata.GetRequestData(ctx)
  if rd == nil || rd.UserID == uuid.Nil {
    return nil, fmt.Errorf("no authenticated user in context")
  }
  return ds.docRepo.GetUserDocuments(ctx, nil, rd.UserID)
}

func (ds *documentService) GetDocument(ctx context.Context, id uuid.UUID) (*types.Document, error) {
  rd := requestdata.GetRequestData(ctx)
  if rd == nil || rd.UserID == uuid.Nil {
    return nil, fmt.Errorf("no authenticated user in context")
  }
  return ds.docRepo.GetByID(ctx, nil, id, rd.UserID)
}

// UpdateContent stores an edited HTML body and re-prints the PDF so
// the file pair never drifts from the stored content.
func (ds *documentService) UpdateContent(ctx context.Context, id uuid.UUID, content string) (*types.Document, error) {
  rd := requestdata.GetRequestData(ctx)
  if rd == nil || rd.UserID == uuid.Nil {
    return nil, fmt.Errorf("no authenticated user in context")
  }
  doc, err := ds.docRepo.GetByID(ctx, nil, id, rd.UserID)
  if err != nil {
    return nil, err
  }
  if err := ds.docRepo.UpdateContent(ctx, nil, id, rd.UserID, content, doc.Data); err != nil {
    return nil, err
  }
  rendered, err := ds.renderer.RegeneratePDF(ctx, id, content)
  if err != nil {
    ds.log.Warn("failed to re-render PDF after content update", "error", err, "documentID", id)
    return nil, fmt.Errorf("content saved but PDF regeneration failed: %w", err)
  }
  if err := ds.docRepo.UpdateFilePath(ctx, nil, id, rd.UserID, rendered.PDFPath); err != nil {
    return nil, err
  }
  return ds.docRepo.GetByID(ctx, nil, id, rd.UserID)
}

// UpdateStatus moves a document along its lifecycle. The lifecycle
// only moves forward; any backward or unknown transition is rejected.
func (ds *documentService) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
  rd := requestdata.GetRequestData(ctx)
  if rd == nil || rd.UserID == uuid.Nil {
    return fmt.Errorf("no authenticated user in context")
  }
  if !types.ValidDocumentStatus(status) {
    if ed := errordata.GetErrorData(ctx); ed != nil {
      ed.SetMessage(fmt.Sprintf("Status dokumen '%s' tidak dikenal", status))
    }
    return fmt.Errorf("unknown document status: '%s'", status)
  }
  doc, err := ds.docRepo.GetByID(ctx, nil, id, rd.UserID)
  if err != nil {
    return err
  }
  if !types.CanAdvanceDocumentStatus(doc.Status, status) {
    if ed := errordata.GetErrorData(ctx); ed != nil {
      ed.SetMessage(fmt.Sprintf("Status dokumen tidak bisa diubah dari '%s' ke '%s'", doc.Status, status))
    }
    return fmt.Errorf("cannot change document status from '%s' to '%s'", doc.Status, status)
  }
  if err := ds.docRepo.UpdateStatus(ctx, nil, id, rd.UserID, status); err != nil {
    return err
  }
  if ssd := ssedata.GetSSEData(ctx); ssd != nil {
    ssd.AppendMessage(sse.SSEMessage{
      Channel: DocumentsChannel,
      Event:   "document_status",
      Data:    map[string]interface{}{"documentId": id.String(), "status": status},
    })
  }
  return nil
}

func (ds *documentService) RegeneratePDF(ctx context.Context, id uuid.UUID) (*types.Document, error) {
  rd := requestdata.GetRequestData(ctx)
  if rd == nil || rd.UserID == uuid.Nil {
    return nil, fmt.Errorf("no authenticated user in context")
  }
  doc, err := ds.docRepo.GetByID(ctx, nil, id, rd.UserID)
  if err != nil {
    return nil, err
  }
  if doc.Content == "" {
    return nil, fmt.Errorf("document has no stored content to render")
  }
  rendered, err := ds.renderer.RegeneratePDF(ctx, id, doc.Content)
  if err != nil {
    return nil, err
  }
  if err := ds.docRepo.UpdateFilePath(ctx, nil, id, rd.UserID, rendered.PDFPath); err != nil {
    return nil, err
  }
  ds.log.Info("Regenerated document PDF", "documentID", id)
  return ds.docRepo.GetByID(ctx, nil, id, rd.UserID)
}

func (ds *documentService) DeleteDocument(ctx context.Context, id uuid.UUID) error {
  rd := requestdata.GetRequestData(ctx)
  if rd == nil || rd.UserID == uuid.Nil {
    return fmt.Errorf("no authenticated user in context")
  }
  if err := ds.docRepo.DeleteByID(ctx, nil, id, rd.UserID); err != nil {
    if err == gorm.ErrRecordNotFound {
      return fmt.Errorf("document not found")
    }
    return err
  }
  return nil
}
