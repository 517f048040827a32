package repos

import (
    "context"

    "github.com/google/uuid"
    "gorm.io/gorm"

    "github.com/agent-sparta/sparta-backend/internal/logger"
    "github.com/agent-sparta/sparta-backend/internal/types"
)

type ServiceProductRepo interface {
    CreateProduct(ctx context.Context, tx *gorm.DB, product *types.ServiceProduct) (*types.ServiceProduct, error)
    GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.ServiceProduct, error)
    GetAll(ctx context.Context, tx *gorm.DB, activeOnly bool) ([]*types.ServiceProduct, error)
    UpdateProduct(ctx context.Context, tx *gorm.DB, product *types.ServiceProduct) error
    DeleteByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
}

type serviceProductRepo struct {
    db  *gorm.DB
    log *logger.Logger
}

func NewServiceProductRepo(db *gorm.DB, baseLog *logger.Logger) ServiceProductRepo {
    return &serviceProductRepo{
        db:  db,
        log: baseLog.With("repo", "ServiceProductRepo"),
    }
}

func (spr *serviceProductRepo) CreateProduct(ctx context.Context, tx *gorm.DB, product *types.ServiceProduct) (*types.ServiceProduct, error) {
    if tx == nil {
        tx = spr.db
    }
    if product.ID == uuid.Nil {
        product.ID = uuid.New()
    }
    if err := tx.WithContext(ctx).Create(product).Error; err != nil {
        spr.log.Error("failed to create service product", "error", err)
        return nil, err
    }
    return product, nil
}

func (spr *serviceProductRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.ServiceProduct, error) {
    if tx == nil {
        tx = spr.db
    }
    var p types.ServiceProduct
    if err := tx.WithContext(ctx).
        Where("id = ?", id).
        First(&p).Error; err != nil {
        return nil, err
    }
    return &p, nil
}

func (spr *serviceProductRepo) GetAll(ctx context.Context, tx *gorm.DB, activeOnly bool) ([]*types.ServiceProduct, error) {
    if tx == nil {
        tx = spr.db
    }
    query := tx.WithContext(ctx).Order("name ASC")
    if activeOnly {
        query = query.Where("active = ?", true)
    }
    var products []*types.ServiceProduct
    if err := query.Find(&products).Error; err != nil {
        spr.log.Error("failed to list service products", "error", err)
        return nil, err
    }
    return products, nil
}

func (spr *serviceProductRepo) UpdateProduct(ctx context.Context, tx *gorm.DB, product *types.ServiceProduct) error {
    if tx == nil {
        tx = spr.db
    }
    if err := tx.WithContext(ctx).Save(product).Error; err != nil {
        spr.log.Error("failed to update service product", "error", err, "productID", product.ID)
        return err
    }
    return nil
}

func (spr *serviceProductRepo) DeleteByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
    if tx == nil {
        tx = spr.db
    }
    if err := tx.WithContext(ctx).
        Where("id = ?", id).
        Delete(&types.ServiceProduct{}).Error; err != nil {
        spr.log.Error("failed to delete service product", "error", err, "productID", id)
        return err
    }
    return nil
}
