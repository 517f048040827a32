package types

import (
  "time"

  "gorm.io/gorm"
  "github.com/google/uuid"
)

const (
  UserRoleAdmin = "admin"
  UserRoleUser  = "user"
)

type User struct {
  gorm.Model

  ID          uuid.UUID       `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
  Username    string          `gorm:"column:username;uniqueIndex;not null" json:"username"`
  Email       string          `gorm:"column:email;uniqueIndex;not null" json:"email"`
  Password    string          `gorm:"column:password;not null" json:"-"`
  Role        string          `gorm:"column:role;not null;default:'user'" json:"role"`
  CreatedAt   time.Time       `gorm:"not null;default:now()" json:"createdAt"`
  UpdatedAt   time.Time       `gorm:"not null;default:now()" json:"updatedAt"`
}

func (User) TableName() string {
  return "user"
}
