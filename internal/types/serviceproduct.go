package types

import (
  "time"

  "gorm.io/gorm"
  "github.com/google/uuid"
)

// ServiceProduct is a catalog entry for an offered internet service.
type ServiceProduct struct {
  gorm.Model

  ID                  uuid.UUID     `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
  Name                string        `gorm:"column:name;not null" json:"name"`
  SpeedMbps           int           `gorm:"column:speed_mbps" json:"speedMbps"`
  InstallationFee     int64         `gorm:"column:installation_fee;not null;default:0" json:"installationFee"`
  MonthlyFee          int64         `gorm:"column:monthly_fee;not null;default:0" json:"monthlyFee"`
  Description         string        `gorm:"column:description;type:text" json:"description,omitempty"`
  Active              bool          `gorm:"column:active;not null;default:true" json:"active"`
  CreatedAt           time.Time     `gorm:"not null;default:now()" json:"createdAt"`
  UpdatedAt           time.Time     `gorm:"not null;default:now()" json:"updatedAt"`
}

func (ServiceProduct) TableName() string {
  return "service_product"
}
