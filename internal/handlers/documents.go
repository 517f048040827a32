package handlers

import (
  "net/http"

  "github.com/gin-gonic/gin"
  "github.com/google/uuid"

  "github.com/agent-sparta/sparta-backend/internal/errordata"
  "github.com/agent-sparta/sparta-backend/internal/requestdata"
  "github.com/agent-sparta/sparta-backend/internal/services"
  "github.com/agent-sparta/sparta-backend/internal/sse"
  "github.com/agent-sparta/sparta-backend/internal/ssedata"
)

type DocumentsHandler struct {
  documentService  services.DocumentService
  assistantService services.AssistantService
  sseHub           *sse.SSEHub
}

func NewDocumentsHandler(documentService services.DocumentService, assistantService services.AssistantService, sseHub *sse.SSEHub) *DocumentsHandler {
  return &DocumentsHandler{documentService: documentService, assistantService: assistantService, sseHub: sseHub}
}

func (dh *DocumentsHandler) List(c *gin.Context) {
  docs, err := dh.documentService.GetUserDocuments(c.Request.Context())
  if err != nil {
    c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
    return
  }
  c.JSON(http.StatusOK, gin.H{"documents": docs})
}

func (dh *DocumentsHandler) Get(c *gin.Context) {
  id, err := uuid.Parse(c.Param("id"))
  if err != nil {
    c.JSON(http.StatusBadRequest, gin.H{"error": "invalid document id"})
    return
  }
  doc, err := dh.documentService.GetDocument(c.Request.Context(), id)
  if err != nil {
    c.JSON(http.StatusNotFound, gin.H{"error": "document not found"})
    return
  }
  c.JSON(http.StatusOK, doc)
}

func (dh *DocumentsHandler) UpdateContent(c *gin.Context) {
  id, err := uuid.Parse(c.Param("id"))
  if err != nil {
    c.JSON(http.StatusBadRequest, gin.H{"error": "invalid document id"})
    return
  }
  var req struct {
    Content string `json:"content"`
  }
  if err := c.ShouldBindJSON(&req); err != nil || req.Content == "" {
    c.JSON(http.StatusBadRequest, gin.H{"error": "content is required"})
    return
  }
  doc, err := dh.documentService.UpdateContent(c.Request.Context(), id, req.Content)
  if err != nil {
    c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
    return
  }
  c.JSON(http.StatusOK, doc)
}

func (dh *DocumentsHandler) UpdateStatus(c *gin.Context) {
  id, err := uuid.Parse(c.Param("id"))
  if err != nil {
    c.JSON(http.StatusBadRequest, gin.H{"error": "invalid document id"})
    return
  }
  var req struct {
    Status string `json:"status"`
  }
  if err := c.ShouldBindJSON(&req); err != nil || req.Status == "" {
    c.JSON(http.StatusBadRequest, gin.H{"error": "status is required"})
    return
  }
  ctx := c.Request.Context()
  if err := dh.documentService.UpdateStatus(ctx, id, req.Status); err != nil {
    if ed := errordata.GetErrorData(ctx); ed != nil && ed.HasMessage() {
      c.JSON(http.StatusBadRequest, gin.H{"error": ed.Message})
      return
    }
    c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
    return
  }
  if ssd := ssedata.GetSSEData(ctx); ssd != nil && len(ssd.Messages) > 0 {
    for _, msg := range ssd.Messages {
      dh.sseHub.Broadcast(msg)
    }
    ssd.Messages = nil
  }
  c.JSON(http.StatusOK, gin.H{"success": true})
}

func (dh *DocumentsHandler) Regenerate(c *gin.Context) {
  id, err := uuid.Parse(c.Param("id"))
  if err != nil {
    c.JSON(http.StatusBadRequest, gin.H{"error": "invalid document id"})
    return
  }
  doc, err := dh.documentService.RegeneratePDF(c.Request.Context(), id)
  if err != nil {
    c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
    return
  }
  c.JSON(http.StatusOK, doc)
}

func (dh *DocumentsHandler) Delete(c *gin.Context) {
  id, err := uuid.Parse(c.Param("id"))
  if err != nil {
    c.JSON(http.StatusBadRequest, gin.H{"error": "invalid document id"})
    return
  }
  if err := dh.documentService.DeleteDocument(c.Request.Context(), id); err != nil {
    c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
    return
  }
  c.JSON(http.StatusOK, gin.H{"success": true})
}

// GenerateSPH runs the quotation pipeline directly from the web UI,
// outside any chat session.
func (dh *DocumentsHandler) GenerateSPH(c *gin.Context) {
  rd := requestdata.GetRequestData(c.Request.Context())
  if rd == nil {
    c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
    return
  }
  var req struct {
    Message string `json:"message"`
  }
  if err := c.ShouldBindJSON(&req); err != nil || req.Message == "" {
    c.JSON(http.StatusBadRequest, gin.H{"error": "message is required"})
    return
  }
  reply := dh.assistantService.ProcessMessage(c.Request.Context(), req.Message, rd.UserID)
  c.JSON(http.StatusOK, gin.H{"content": reply.Content, "metadata": reply.Metadata})
}
