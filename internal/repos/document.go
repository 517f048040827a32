package repos

import (
    "context"
    "time"

    "github.com/google/uuid"
    "gorm.io/gorm"

    "github.com/agent-sparta/sparta-backend/internal/logger"
    "github.com/agent-sparta/sparta-backend/internal/types"
)

type DocumentRepo interface {
    CreateDocument(ctx context.Context, tx *gorm.DB, doc *types.Document) (*types.Document, error)
    GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID, userID uuid.UUID) (*types.Document, error)
    GetUserDocuments(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Document, error)
    UpdateContent(ctx context.Context, tx *gorm.DB, id uuid.UUID, userID uuid.UUID, content string, data []byte) error
    UpdateFilePath(ctx context.Context, tx *gorm.DB, id uuid.UUID, userID uuid.UUID, filePath string) error
    UpdateStatus(ctx context.Context, tx *gorm.DB, id uuid.UUID, userID uuid.UUID, status string) error
    DeleteByID(ctx context.Context, tx *gorm.DB, id uuid.UUID, userID uuid.UUID) error
}

type documentRepo struct {
    db  *gorm.DB
    log *logger.Logger
}

func NewDocumentRepo(db *gorm.DB, baseLog *logger.Logger) DocumentRepo {
    return &documentRepo{
        db:  db,
        log: baseLog.With("repo", "DocumentRepo"),
    }
}

func (dr *documentRepo) CreateDocument(ctx context.Context, tx *gorm.DB, doc *types.Document) (*types.Document, error) {
    if tx == nil {
        tx = dr.db
    }
    if doc.ID == uuid.Nil {
        doc.ID = uuid.New()
    }
    if err := tx.WithContext(ctx).Create(doc).Error; err != nil {
        dr.log.Error("failed to create document", "error", err)
        return nil, err
    }
    dr.log.Info("Successfully created document", "documentID", doc.ID, "type", doc.Type)
    return doc, nil
}

func (dr *documentRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID, userID uuid.UUID) (*types.Document, error) {
    if tx == nil {
        tx = dr.db
    }
    var doc types.Document
    if err := tx.WithContext(ctx).
        Where("id = ? AND user_id = ?", id, userID).
        First(&doc).Error; err != nil {
        return nil, err
    }
    return &doc, nil
}

func (dr *documentRepo) GetUserDocuments(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Document, error) {
    if tx == nil {
        tx = dr.db
    }
    var docs []*types.Document
    if err := tx.WithContext(ctx).
        Where("user_id = ?", userID).
        Order("created_at DESC").
        Find(&docs).Error; err != nil {
        dr.log.Error("failed to get documents by userID", "error", err)
        return nil, err
    }
    return docs, nil
}

func (dr *documentRepo) UpdateContent(ctx context.Context, tx *gorm.DB, id uuid.UUID, userID uuid.UUID, content string, data []byte) error {
    if tx == nil {
        tx = dr.db
    }
    updates := map[string]interface{}{
        "content":    content,
        "updated_at": time.Now(),
    }
    if data != nil {
        updates["data"] = data
    }
    result := tx.WithContext(ctx).
        Model(&types.Document{}).
        Where("id = ? AND user_id = ?", id, userID).
        Updates(updates)
    if result.Error != nil {
        return result.Error
    }
    if result.RowsAffected == 0 {
        return gorm.ErrRecordNotFound
    }
    return nil
}

func (dr *documentRepo) UpdateFilePath(ctx context.Context, tx *gorm.DB, id uuid.UUID, userID uuid.UUID, filePath string) error {
    if tx == nil {
        tx = dr.db
    }
    result := tx.WithContext(ctx).
        Model(&types.Document{}).
        Where("id = ? AND user_id = ?", id, userID).
        Updates(map[string]interface{}{"file_path": filePath, "updated_at": time.Now()})
    if result.Error != nil {
        return result.Error
    }
    if result.RowsAffected == 0 {
        return gorm.ErrRecordNotFound
    }
    return nil
}

func (dr *documentRepo) UpdateStatus(ctx context.Context, tx *gorm.DB, id uuid.UUID, userID uuid.UUID, status string) error {
    if tx == nil {
        tx = dr.db
    }
    result := tx.WithContext(ctx).
        Model(&types.Document{}).
        Where("id = ? AND user_id = ?", id, userID).
        Updates(map[string]interface{}{"status": status, "updated_at": time.Now()})
    if result.Error != nil {
        return result.Error
    }
    if result.RowsAffected == 0 {
        return gorm.ErrRecordNotFound
    }
    return nil
}

func (dr *documentRepo) DeleteByID(ctx context.Context, tx *gorm.DB, id uuid.UUID, userID uuid.UUID) error {
    if tx == nil {
        tx = dr.db
    }
    result := tx.WithContext(ctx).
        Where("id = ? AND user_id = ?", id, userID).
        Delete(&types.Document{})
    if result.Error != nil {
        dr.log.Error("failed to delete document", "error", result.Error, "documentID", id)
        return result.Error
    }
    if result.RowsAffected == 0 {
        return gorm.ErrRecordNotFound
    }
    return nil
}
