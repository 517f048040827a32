package server

import (
  "github.com/gin-contrib/cors"
  "github.com/gin-gonic/gin"

  "github.com/agent-sparta/sparta-backend/internal/handlers"
  "github.com/agent-sparta/sparta-backend/internal/middleware"
)

type RouterConfig struct {
  AuthHandler      *handlers.AuthHandler
  AuthMiddleware   *middleware.AuthMiddleware
  AiHandler        *handlers.AiHandler
  DocumentsHandler *handlers.DocumentsHandler
  ProductsHandler  *handlers.ProductsHandler
  WhatsAppHandler  *handlers.WhatsAppHandler
  SSEHandler       *handlers.SSEHandler
  WsHandler        gin.HandlerFunc
  UploadsDir       string
}

func NewRouter(cfg RouterConfig) *gin.Engine {
  router := gin.Default()

  //-----------------------------------------
  // Cors Setup
  //-----------------------------------------
  router.Use(cors.New(cors.Config{
    AllowOrigins: []string{
      "http://localhost:3000",
      "http://localhost:5173",
    },
    AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
    AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
    AllowCredentials: true,
  }))
  router.Use(middleware.AttachRequestContext())

  //-----------------------------------------
  // Health Routes
  //-----------------------------------------
  router.GET("/healthz", handlers.Healthz)

  //-----------------------------------------
  // Static Artifacts
  //-----------------------------------------
  if cfg.UploadsDir != "" {
    router.Static("/uploads", cfg.UploadsDir)
  }

  //-----------------------------------------
  // Public Routes
  //-----------------------------------------
  api := router.Group("/api")
  {
    api.POST("/register", cfg.AuthHandler.Register)
    api.POST("/login", cfg.AuthHandler.Login)
    api.POST("/whatsapp/numbers/register", cfg.WhatsAppHandler.RegisterNumber)
  }

  //------------------------------------------
  // Protected Routes
  //------------------------------------------
  protected := api.Group("/")
  protected.Use(cfg.AuthMiddleware.RequireAuth())
  protected.GET("/ws", cfg.WsHandler)

  //AI Chat
  protected.POST("/ai/sessions", cfg.AiHandler.StartSession)
  protected.GET("/ai/sessions", cfg.AiHandler.GetSessions)
  protected.GET("/ai/sessions/:sessionID/messages", cfg.AiHandler.GetMessages)
  protected.POST("/ai/sessions/:sessionID/messages", cfg.AiHandler.SendMessage)

  //Documents
  protected.GET("/documents", cfg.DocumentsHandler.List)
  protected.GET("/documents/:id", cfg.DocumentsHandler.Get)
  protected.PUT("/documents/:id/content", cfg.DocumentsHandler.UpdateContent)
  protected.PUT("/documents/:id/status", cfg.DocumentsHandler.UpdateStatus)
  protected.POST("/documents/:id/regenerate", cfg.DocumentsHandler.Regenerate)
  protected.DELETE("/documents/:id", cfg.DocumentsHandler.Delete)
  protected.POST("/documents/generate-sph", cfg.DocumentsHandler.GenerateSPH)

  //Products
  protected.GET("/products", cfg.ProductsHandler.List)
  protected.GET("/products/:id", cfg.ProductsHandler.Get)
  protected.POST("/products", cfg.ProductsHandler.Create)
  protected.PUT("/products/:id", cfg.ProductsHandler.Update)
  protected.DELETE("/products/:id", cfg.ProductsHandler.Delete)

  //WhatsApp
  protected.GET("/whatsapp/status", cfg.WhatsAppHandler.Status)
  protected.POST("/whatsapp/connect", cfg.WhatsAppHandler.Connect)
  protected.POST("/whatsapp/disconnect", cfg.WhatsAppHandler.Disconnect)
  protected.POST("/whatsapp/send-message", cfg.WhatsAppHandler.SendMessage)
  protected.GET("/whatsapp/chats", cfg.WhatsAppHandler.Chats)
  protected.GET("/whatsapp/events", cfg.SSEHandler.WhatsAppEvents)
  protected.GET("/whatsapp/numbers", cfg.WhatsAppHandler.ListNumbers)

  //Admin-only number registry actions
  admin := protected.Group("/")
  admin.Use(cfg.AuthMiddleware.RequireAdmin())
  admin.POST("/whatsapp/numbers/:phone/approve", cfg.WhatsAppHandler.ApproveNumber)
  admin.POST("/whatsapp/numbers/:phone/reject", cfg.WhatsAppHandler.RejectNumber)

  return router
}
