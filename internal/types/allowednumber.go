package types

import (
  "time"

  "gorm.io/gorm"
  "github.com/google/uuid"
)

const (
  AllowedNumberStatusPending  = "pending"
  AllowedNumberStatusApproved = "approved"
  AllowedNumberStatusRejected = "rejected"
)

// AllowedNumber is the WhatsApp allow-list entry. Phone is stored
// digits-only; rows are approved/rejected by an admin, never deleted by
// the gateway.
type AllowedNumber struct {
  gorm.Model

  ID            uuid.UUID       `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
  Phone         string          `gorm:"column:phone;uniqueIndex;not null" json:"phone"`
  DisplayName   string          `gorm:"column:display_name" json:"displayName,omitempty"`
  UserID        *uuid.UUID      `gorm:"index" json:"userID,omitempty"`
  Status        string          `gorm:"column:status;not null;default:'pending'" json:"status"`
  CreatedAt     time.Time       `gorm:"not null;default:now()" json:"createdAt"`
  UpdatedAt     time.Time       `gorm:"not null;default:now()" json:"updatedAt"`
}

func (AllowedNumber) TableName() string {
  return "whatsapp_allowed_number"
}
