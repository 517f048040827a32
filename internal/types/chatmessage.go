package types

import (
  "time"

  "gorm.io/datatypes"
  "gorm.io/gorm"
  "github.com/google/uuid"
)

const (
  ChatRoleUser      = "user"
  ChatRoleAssistant = "assistant"
)

// Metadata "type" tags written by the assistant pipeline.
const (
  MetaTypeGeneral         = "general"
  MetaTypeError           = "error"
  MetaTypeSPHGenerated    = "sph_generated"
  MetaTypeSPHGuidance     = "sph_guidance"
  MetaTypeGuidanceNeeded  = "sph_guidance_needed"
  MetaTypeValidationError = "sph_validation_error"
)

// ChatMessage rows are append-only; nothing in the codebase updates one
// after creation.
type ChatMessage struct {
  gorm.Model

  ID          uuid.UUID         `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
  SessionID   uuid.UUID         `gorm:"index;not null" json:"sessionID"`
  Role        string            `gorm:"column:role;not null" json:"role"`
  Content     string            `gorm:"column:content;type:text;not null" json:"content"`
  Metadata    datatypes.JSON    `gorm:"column:metadata" json:"metadata,omitempty"`
  CreatedAt   time.Time         `gorm:"not null;default:now()" json:"createdAt"`
  UpdatedAt   time.Time         `gorm:"not null;default:now()" json:"updatedAt"`
}

func (ChatMessage) TableName() string {
  return "chat_message"
}
