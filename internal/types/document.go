package types

import (
  "time"

  "gorm.io/datatypes"
  "gorm.io/gorm"
  "github.com/google/uuid"
)

const (
  DocumentTypeSPH      = "sph"
  DocumentTypeContract = "contract"
  DocumentTypeInvoice  = "invoice"
)

const (
  DocumentStatusDraft     = "draft"
  DocumentStatusGenerated = "generated"
  DocumentStatusSigned    = "signed"
  DocumentStatusSent      = "sent"
)

type Document struct {
  gorm.Model

  ID          uuid.UUID         `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
  UserID      uuid.UUID         `gorm:"index;not null" json:"userID"`
  Type        string            `gorm:"column:type;not null;index" json:"type"`
  Title       string            `gorm:"column:title;not null" json:"title"`
  Content     string            `gorm:"column:content;type:text" json:"content,omitempty"`
  Data        datatypes.JSON    `gorm:"column:data" json:"data,omitempty"`
  Status      string            `gorm:"column:status;not null;default:'draft';index" json:"status"`
  FilePath    string            `gorm:"column:file_path" json:"filePath,omitempty"`
  CreatedAt   time.Time         `gorm:"not null;default:now()" json:"createdAt"`
  UpdatedAt   time.Time         `gorm:"not null;default:now()" json:"updatedAt"`
}

func (Document) TableName() string {
  return "document"
}

// documentStatusRank orders the lifecycle. Transitions may only move forward;
// there is no defined backward transition.
var documentStatusRank = map[string]int{
  DocumentStatusDraft:     0,
  DocumentStatusGenerated: 1,
  DocumentStatusSigned:    2,
  DocumentStatusSent:      3,
}

func ValidDocumentStatus(status string) bool {
  _, ok := documentStatusRank[status]
  return ok
}

func CanAdvanceDocumentStatus(from, to string) bool {
  fromRank, okFrom := documentStatusRank[from]
  toRank, okTo := documentStatusRank[to]
  return okFrom && okTo && toRank > fromRank
}
