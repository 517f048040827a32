package handlers

import (
  "net/http"

  "github.com/gin-gonic/gin"

  "github.com/agent-sparta/sparta-backend/internal/services"
  "github.com/agent-sparta/sparta-backend/internal/wagateway"
)

type WhatsAppHandler struct {
  gateway       *wagateway.Gateway
  numberService services.AllowedNumberService
}

func NewWhatsAppHandler(gateway *wagateway.Gateway, numberService services.AllowedNumberService) *WhatsAppHandler {
  return &WhatsAppHandler{gateway: gateway, numberService: numberService}
}

func (wh *WhatsAppHandler) Status(c *gin.Context) {
  c.JSON(http.StatusOK, wh.gateway.Status())
}

func (wh *WhatsAppHandler) Connect(c *gin.Context) {
  if err := wh.gateway.Connect(c.Request.Context()); err != nil {
    c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
    return
  }
  c.JSON(http.StatusOK, wh.gateway.Status())
}

func (wh *WhatsAppHandler) Disconnect(c *gin.Context) {
  if err := wh.gateway.Disconnect(); err != nil {
    c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
    return
  }
  c.JSON(http.StatusOK, gin.H{"success": true})
}

func (wh *WhatsAppHandler) SendMessage(c *gin.Context) {
  var req struct {
    ChatID  string `json:"chatId"`
    Message string `json:"message"`
  }
  if err := c.ShouldBindJSON(&req); err != nil || req.ChatID == "" || req.Message == "" {
    c.JSON(http.StatusBadRequest, gin.H{"error": "chatId and message are required"})
    return
  }
  if err := wh.gateway.SendMessage(c.Request.Context(), req.ChatID, req.Message); err != nil {
    c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
    return
  }
  c.JSON(http.StatusOK, gin.H{"success": true})
}

func (wh *WhatsAppHandler) Chats(c *gin.Context) {
  chats, err := wh.gateway.GetChats(c.Request.Context())
  if err != nil {
    c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
    return
  }
  c.JSON(http.StatusOK, gin.H{"chats": chats})
}

func (wh *WhatsAppHandler) RegisterNumber(c *gin.Context) {
  var req struct {
    Phone       string `json:"phone"`
    DisplayName string `json:"displayName,omitempty"`
  }
  if err := c.ShouldBindJSON(&req); err != nil || req.Phone == "" {
    c.JSON(http.StatusBadRequest, gin.H{"error": "phone is required"})
    return
  }
  number, err := wh.numberService.RegisterNumber(c.Request.Context(), req.Phone, req.DisplayName)
  if err != nil {
    c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
    return
  }
  c.JSON(http.StatusOK, number)
}

func (wh *WhatsAppHandler) ListNumbers(c *gin.Context) {
  numbers, err := wh.numberService.GetAllNumbers(c.Request.Context())
  if err != nil {
    c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
    return
  }
  c.JSON(http.StatusOK, gin.H{"numbers": numbers})
}

func (wh *WhatsAppHandler) ApproveNumber(c *gin.Context) {
  phone := c.Param("phone")
  if err := wh.numberService.ApproveNumber(c.Request.Context(), phone); err != nil {
    c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
    return
  }
  c.JSON(http.StatusOK, gin.H{"success": true})
}

func (wh *WhatsAppHandler) RejectNumber(c *gin.Context) {
  phone := c.Param("phone")
  if err := wh.numberService.RejectNumber(c.Request.Context(), phone); err != nil {
    c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
    return
  }
  c.JSON(http.StatusOK, gin.H{"success": true})
}
