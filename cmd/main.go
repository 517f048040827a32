package main

import (
  "context"
  "fmt"
  "os"
  "time"

  "github.com/joho/godotenv"

  "github.com/agent-sparta/sparta-backend/internal/db"
  "github.com/agent-sparta/sparta-backend/internal/handlers"
  "github.com/agent-sparta/sparta-backend/internal/logger"
  "github.com/agent-sparta/sparta-backend/internal/middleware"
  "github.com/agent-sparta/sparta-backend/internal/repos"
  "github.com/agent-sparta/sparta-backend/internal/seed"
  "github.com/agent-sparta/sparta-backend/internal/server"
  "github.com/agent-sparta/sparta-backend/internal/services"
  "github.com/agent-sparta/sparta-backend/internal/socket"
  "github.com/agent-sparta/sparta-backend/internal/sse"
  "github.com/agent-sparta/sparta-backend/internal/utils"
  "github.com/agent-sparta/sparta-backend/internal/wagateway"
)

func main() {
  _ = godotenv.Load()

  // Logger Setup
  logMode := os.Getenv("LOG_MODE")
  if logMode == "" {
    logMode = "development"
  }
  log, err := logger.New(logMode)
  if err != nil {
    fmt.Printf("failed to init logger: %v\n", err)
    os.Exit(1)
  }
  defer log.Sync()

  // Environment Variables
  log.Info("Attempting to load environment variables for Main now...")
  jwtSecretKey := utils.GetEnv("JWT_SECRET_KEY", "defaultsecret", log)
  accessTokenTTL := utils.GetEnvAsInt("ACCESS_TOKEN_TTL", 3600, log)
  redisAddress := utils.GetEnv("REDIS_ADDRESS", "localhost:6379", log)
  redisPassword := utils.GetEnv("REDIS_PASSWORD", "", log)
  waInitTimeout := utils.GetEnvAsInt("WHATSAPP_INIT_TIMEOUT_SECONDS", 60, log)
  uploadsDir := utils.GetEnv("UPLOADS_DIR", "uploads", log)

  // Postgres Setup
  log.Info("Setting Up Postgres from Main now...")
  postgresService, err := db.NewPostgresService(log)
  if err != nil {
    log.Error("DB init failed", "error", err)
    os.Exit(1)
  }
  if err = postgresService.AutoMigrateAll(); err != nil {
    log.Warn("Postgres auto migration failed", "error", err)
  }
  thePG := postgresService.DB()
  log.Info("Postgres Setup From Main Successful :)")

  // Repositories Setup
  log.Info("Setting Up Repositories from Main now...")
  userRepo := repos.NewUserRepo(thePG, log)
  sessionRepo := repos.NewChatSessionRepo(thePG, log)
  messageRepo := repos.NewChatMessageRepo(thePG, log)
  documentRepo := repos.NewDocumentRepo(thePG, log)
  numberRepo := repos.NewAllowedNumberRepo(thePG, log)
  productRepo := repos.NewServiceProductRepo(thePG, log)
  log.Info("Repositories Set Up From Main Successful :)")

  // Seed Setup
  log.Info("Attempting to Seed The Postgres From Main now...")
  if err := seed.SeedAll(thePG, userRepo, productRepo, log); err != nil {
    log.Warn("Failed to seed data :(", "error", err)
  }
  log.Info("Seeding of Postgres From Main Successful :)")

  // Websocket Setup
  wsHub := socket.NewHub(log)

  // Redis PubSub
  redisChanName := "sparta_hub_broadcast"
  redisPubSub, err := socket.NewRedisPubSub(log, redisAddress, redisPassword, redisChanName)
  if err != nil {
    log.Warn("Failed to init redis pubsub", "error", err)
  } else {
    if err := redisPubSub.StartSubscriber(wsHub); err != nil {
      log.Warn("Failed to subscribe to Redis pub/sub", "error", err)
    } else {
      wsHub.SetRedisPubSub(redisPubSub)
      log.Info("Redis pubsub is active!")
    }
  }

  // SSE Hub
  sseHub := sse.NewSSEHub(log)

  // Services Setup
  log.Info("Setting up Services from Main now...")
  emailService, err := services.NewEmailService(log)
  if err != nil {
    log.Warn("Could not init EmailService", "error", err)
  }
  textService, err := services.NewTextService(log)
  if err != nil {
    log.Warn("Could not init TextService", "error", err)
  }
  bucketService, err := services.NewBucketService(context.Background(), log)
  if err != nil {
    log.Warn("Could not init BucketService", "error", err)
    bucketService = nil
  }
  llmService, err := services.NewLLMService(log)
  if err != nil {
    log.Error("Fatal error: Cannot init LLMService", "error", err)
    os.Exit(1)
  }
  intentService := services.NewIntentService(log, llmService)
  extractorService := services.NewExtractorService(log, llmService)
  rendererService, err := services.NewRendererService(log, bucketService)
  if err != nil {
    log.Error("Fatal error: Cannot init RendererService", "error", err)
    os.Exit(1)
  }
  assistantService := services.NewAssistantService(log, llmService, intentService, extractorService, rendererService, documentRepo)
  aiChatService := services.NewAiChatService(log, assistantService, sessionRepo, messageRepo, wsHub)
  documentService := services.NewDocumentService(log, documentRepo, rendererService)
  productService := services.NewProductService(log, productRepo)
  numberService := services.NewAllowedNumberService(log, numberRepo, emailService, textService)
  authService := services.NewAuthService(thePG, log, userRepo, jwtSecretKey, time.Duration(accessTokenTTL)*time.Second)
  log.Info("Services Set Up From Main Successful :)")

  // WhatsApp Gateway Setup
  log.Info("Setting Up WhatsApp Gateway from Main now...")
  transport, err := wagateway.NewWhatsmeowTransport(log, postgresDSN(log))
  if err != nil {
    log.Error("Fatal error: Cannot init WhatsApp transport", "error", err)
    os.Exit(1)
  }
  gateway := wagateway.NewGateway(log, transport, assistantService, numberService, userRepo, sseHub, wsHub, time.Duration(waInitTimeout)*time.Second)
  log.Info("WhatsApp Gateway Set Up From Main Successful :)")

  // Handler Setup
  log.Info("Setting Up Handlers from Main now...")
  authHandler := handlers.NewAuthHandler(authService)
  aiHandler := handlers.NewAiHandler(aiChatService)
  documentsHandler := handlers.NewDocumentsHandler(documentService, assistantService, sseHub)
  productsHandler := handlers.NewProductsHandler(productService)
  whatsAppHandler := handlers.NewWhatsAppHandler(gateway, numberService)
  sseHandler := handlers.NewSSEHandler(log, sseHub, gateway)
  wsHandler := handlers.WsHandler(wsHub, log)
  log.Info("Handlers Set Up From Main Successful :)")

  // MiddleWare Setup
  authMiddleware := middleware.NewAuthMiddleware(log, authService)

  // Router Setup
  router := server.NewRouter(server.RouterConfig{
    AuthHandler:      authHandler,
    AuthMiddleware:   authMiddleware,
    AiHandler:        aiHandler,
    DocumentsHandler: documentsHandler,
    ProductsHandler:  productsHandler,
    WhatsAppHandler:  whatsAppHandler,
    SSEHandler:       sseHandler,
    WsHandler:        wsHandler,
    UploadsDir:       uploadsDir,
  })

  port := utils.GetEnv("PORT", "8080", log)
  fmt.Printf("Server listening on :%s\n", port)
  if err := router.Run(":" + port); err != nil {
    log.Warn("Server failed", "error", err)
  }

  // On Shutdown
  _ = gateway.Disconnect()
  if redisPubSub != nil {
    redisPubSub.Stop()
  }
}

func postgresDSN(log *logger.Logger) string {
  host := utils.GetEnv("POSTGRES_HOST", "localhost", log)
  port := utils.GetEnv("POSTGRES_PORT", "5432", log)
  user := utils.GetEnv("POSTGRES_USER", "postgres", log)
  password := utils.GetEnv("POSTGRES_PASSWORD", "postgres", log)
  dbname := utils.GetEnv("POSTGRES_NAME", "sparta", log)
  return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", user, password, host, port, dbname)
}
