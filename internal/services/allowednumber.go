package services

import (
  "context"
  "errors"
  "fmt"
  "os"
  "strings"

  "gorm.io/gorm"

  "github.com/agent-sparta/sparta-backend/internal/logger"
  "github.com/agent-sparta/sparta-backend/internal/repos"
  "github.com/agent-sparta/sparta-backend/internal/types"
)

type AllowedNumberService interface {
  RegisterNumber(ctx context.Context, phone string, displayName string) (*types.AllowedNumber, error)
  GetAllNumbers(ctx context.Context) ([]*types.AllowedNumber, error)
  ApproveNumber(ctx context.Context, phone string) error
  RejectNumber(ctx context.Context, phone string) error
  ResolveNumber(ctx context.Context, phone string) (*types.AllowedNumber, error)
}

type allowedNumberService struct {
  log        *logger.Logger
  numberRepo repos.AllowedNumberRepo
  email      EmailService
  text       TextService
  adminEmail string
}

// NewAllowedNumberService wires the registry to its notification
// channels. email and text may be nil; registration and approval then
// proceed without notifying anyone.
func NewAllowedNumberService(log *logger.Logger, numberRepo repos.AllowedNumberRepo, email EmailService, text TextService) AllowedNumberService {
  return &allowedNumberService{
    log:        log.With("service", "AllowedNumberService"),
    numberRepo: numberRepo,
    email:      email,
    text:       text,
    adminEmail: os.Getenv("ADMIN_NOTIFY_EMAIL"),
  }
}

// NormalizePhone strips everything but digits so the same number in
// "+62 812-3456" and "628123456" form maps to one registry row.
func NormalizePhone(phone string) string {
  var b strings.Builder
  for _, r := range phone {
    if r >= '0' && r <= '9' {
      b.WriteRune(r)
    }
  }
  return b.String()
}

func (ans *allowedNumberService) RegisterNumber(ctx context.Context, phone string, displayName string) (*types.AllowedNumber, error) {
  normalized := NormalizePhone(phone)
  if len(normalized) < 8 {
    return nil, fmt.Errorf("phone number is too short")
  }
  exists, err := ans.numberRepo.PhoneExists(ctx, nil, normalized)
  if err != nil {
    return nil, err
  }
  if exists {
    return nil, fmt.Errorf("phone number '%s' is already registered", normalized)
  }
  number := &types.AllowedNumber{
    Phone:       normalized,
    DisplayName: strings.TrimSpace(displayName),
    Status:      types.AllowedNumberStatusPending,
  }
  created, err := ans.numberRepo.CreateNumber(ctx, nil, number)
  if err != nil {
    return nil, err
  }
  ans.log.Info("Registered new WhatsApp number", "phone", normalized)

  if ans.email != nil && ans.adminEmail != "" {
    subject := "Pendaftaran nomor WhatsApp baru"
    body := fmt.Sprintf("Nomor %s (%s) mendaftar untuk akses asisten WhatsApp dan menunggu persetujuan.", normalized, created.DisplayName)
    if err := ans.email.SendEmail(ctx, ans.adminEmail, subject, body, "<p>"+body+"</p>", "notification"); err != nil {
      ans.log.Warn("failed to notify admin about number registration", "error", err)
    }
  }
  return created, nil
}

func (ans *allowedNumberService) GetAllNumbers(ctx context.Context) ([]*types.AllowedNumber, error) {
  return ans.numberRepo.GetAll(ctx, nil)
}

func (ans *allowedNumberService) ApproveNumber(ctx context.Context, phone string) error {
  normalized := NormalizePhone(phone)
  if err := ans.numberRepo.UpdateStatusByPhone(ctx, nil, normalized, types.AllowedNumberStatusApproved); err != nil {
    return err
  }
  ans.log.Info("Approved WhatsApp number", "phone", normalized)
  if ans.text != nil {
    body := "Nomor Anda telah disetujui. Anda sekarang dapat menggunakan asisten WhatsApp kami."
    if err := ans.text.SendText(ctx, "+"+normalized, body); err != nil {
      ans.log.Warn("failed to send approval text", "error", err, "phone", normalized)
    }
  }
  return nil
}

func (ans *allowedNumberService) RejectNumber(ctx context.Context, phone string) error {
  normalized := NormalizePhone(phone)
  if err := ans.numberRepo.UpdateStatusByPhone(ctx, nil, normalized, types.AllowedNumberStatusRejected); err != nil {
    return err
  }
  ans.log.Info("Rejected WhatsApp number", "phone", normalized)
  return nil
}

// ResolveNumber looks a sender up by its normalized phone. A nil
// result with nil error means the number is unknown.
func (ans *allowedNumberService) ResolveNumber(ctx context.Context, phone string) (*types.AllowedNumber, error) {
  normalized := NormalizePhone(phone)
  number, err := ans.numberRepo.GetByPhone(ctx, nil, normalized)
  if err != nil {
    if errors.Is(err, gorm.ErrRecordNotFound) {
      return nil, nil
    }
    return nil, err
  }
  return number, nil
}
