package services

import (
  "context"
  "fmt"
  "io"
  "os"
  "time"

  "cloud.google.com/go/storage"
  "google.golang.org/api/option"

  "github.com/agent-sparta/sparta-backend/internal/logger"
)

// BucketService mirrors rendered documents into cloud storage so they
// survive instance restarts. A nil BucketService just means local-only.
type BucketService interface {
  UploadFile(ctx context.Context, localPath string, key string) error
  GetPublicURL(key string) string
  Close() error
}

type bucketService struct {
  log        *logger.Logger
  client     *storage.Client
  bucketName string
}

func NewBucketService(ctx context.Context, log *logger.Logger) (BucketService, error) {
  serviceLog := log.With("service", "BucketService")
  bucketName := os.Getenv("GCS_BUCKET_NAME")
  if bucketName == "" {
    return nil, fmt.Errorf("Missing GCS_BUCKET_NAME environment variable")
  }
  var opts []option.ClientOption
  if creds := os.Getenv("GCS_CREDENTIALS_FILE"); creds != "" {
    opts = append(opts, option.WithCredentialsFile(creds))
  }
  client, err := storage.NewClient(ctx, opts...)
  if err != nil {
    return nil, fmt.Errorf("failed to create storage client: %w", err)
  }
  return &bucketService{
    log:        serviceLog,
    client:     client,
    bucketName: bucketName,
  }, nil
}

func (bs *bucketService) UploadFile(ctx context.Context, localPath string, key string) error {
  f, err := os.Open(localPath)
  if err != nil {
    return fmt.Errorf("failed to open %s: %w", localPath, err)
  }
  defer f.Close()

  uploadCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
  defer cancel()

  w := bs.client.Bucket(bs.bucketName).Object(key).NewWriter(uploadCtx)
  if _, err := io.Copy(w, f); err != nil {
    w.Close()
    return fmt.Errorf("failed to upload %s: %w", key, err)
  }
  if err := w.Close(); err != nil {
    return fmt.Errorf("failed to finalize upload of %s: %w", key, err)
  }
  bs.log.Info("Uploaded file to bucket", "key", key)
  return nil
}

func (bs *bucketService) GetPublicURL(key string) string {
  return fmt.Sprintf("https://storage.googleapis.com/%s/%s", bs.bucketName, key)
}

func (bs *bucketService) Close() error {
  return bs.client.Close()
}
