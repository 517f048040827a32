package repos

import (
    "context"
    "time"

    "github.com/google/uuid"
    "gorm.io/gorm"

    "github.com/agent-sparta/sparta-backend/internal/logger"
    "github.com/agent-sparta/sparta-backend/internal/types"
)

type AllowedNumberRepo interface {
    CreateNumber(ctx context.Context, tx *gorm.DB, number *types.AllowedNumber) (*types.AllowedNumber, error)
    GetByPhone(ctx context.Context, tx *gorm.DB, phone string) (*types.AllowedNumber, error)
    PhoneExists(ctx context.Context, tx *gorm.DB, phone string) (bool, error)
    GetAll(ctx context.Context, tx *gorm.DB) ([]*types.AllowedNumber, error)
    UpdateStatusByPhone(ctx context.Context, tx *gorm.DB, phone string, status string) error
}

type allowedNumberRepo struct {
    db  *gorm.DB
    log *logger.Logger
}

func NewAllowedNumberRepo(db *gorm.DB, baseLog *logger.Logger) AllowedNumberRepo {
    return &allowedNumberRepo{
        db:  db,
        log: baseLog.With("repo", "AllowedNumberRepo"),
    }
}

func (anr *allowedNumberRepo) CreateNumber(ctx context.Context, tx *gorm.DB, number *types.AllowedNumber) (*types.AllowedNumber, error) {
    if tx == nil {
        tx = anr.db
    }
    if number.ID == uuid.Nil {
        number.ID = uuid.New()
    }
    if err := tx.WithContext(ctx).Create(number).Error; err != nil {
        anr.log.Error("failed to create allowed number", "error", err, "phone", number.Phone)
        return nil, err
    }
    return number, nil
}

func (anr *allowedNumberRepo) GetByPhone(ctx context.Context, tx *gorm.DB, phone string) (*types.AllowedNumber, error) {
    if tx == nil {
        tx = anr.db
    }
    var n types.AllowedNumber
    if err := tx.WithContext(ctx).
        Where("phone = ?", phone).
        First(&n).Error; err != nil {
        return nil, err
    }
    return &n, nil
}

func (anr *allowedNumberRepo) PhoneExists(ctx context.Context, tx *gorm.DB, phone string) (bool, error) {
    if tx == nil {
        tx = anr.db
    }
    var count int64
    if err := tx.WithContext(ctx).
        Model(&types.AllowedNumber{}).
        Where("phone = ?", phone).
        Count(&count).Error; err != nil {
        return false, err
    }
    return count > 0, nil
}

func (anr *allowedNumberRepo) GetAll(ctx context.Context, tx *gorm.DB) ([]*types.AllowedNumber, error) {
    if tx == nil {
        tx = anr.db
    }
    var numbers []*types.AllowedNumber
    if err := tx.WithContext(ctx).
        Order("updated_at DESC").
        Find(&numbers).Error; err != nil {
        anr.log.Error("failed to list allowed numbers", "error", err)
        return nil, err
    }
    return numbers, nil
}

func (anr *allowedNumberRepo) UpdateStatusByPhone(ctx context.Context, tx *gorm.DB, phone string, status string) error {
    if tx == nil {
        tx = anr.db
    }
    result := tx.WithContext(ctx).
        Model(&types.AllowedNumber{}).
        Where("phone = ?", phone).
        Updates(map[string]interface{}{"status": status, "updated_at": time.Now()})
    if result.Error != nil {
        anr.log.Error("failed to update allowed number status", "error", result.Error, "phone", phone)
        return result.Error
    }
    if result.RowsAffected == 0 {
        return gorm.ErrRecordNotFound
    }
    return nil
}
