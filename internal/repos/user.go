package repos

import (
    "context"
    "fmt"

    "github.com/google/uuid"
    "gorm.io/gorm"

    "github.com/agent-sparta/sparta-backend/internal/logger"
    "github.com/agent-sparta/sparta-backend/internal/requestdata"
    "github.com/agent-sparta/sparta-backend/internal/types"
)

type UserRepo interface {
    // CREATE
    Create(ctx context.Context, tx *gorm.DB, users []*types.User) ([]*types.User, error)

    // READ
    GetByID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.User, error)
    GetByUsername(ctx context.Context, tx *gorm.DB, username string) (*types.User, error)
    UsernameExists(ctx context.Context, tx *gorm.DB, username string) (bool, error)
    EmailExists(ctx context.Context, tx *gorm.DB, userEmail string) (bool, error)
    GetEarliestByRole(ctx context.Context, tx *gorm.DB, role string) (*types.User, error)
    GetEarliest(ctx context.Context, tx *gorm.DB) (*types.User, error)

    // MISC
    GetMe(ctx context.Context, tx *gorm.DB) (*types.User, error)
}

type userRepo struct {
    db  *gorm.DB
    log *logger.Logger
}

func NewUserRepo(db *gorm.DB, baseLog *logger.Logger) UserRepo {
    repoLog := baseLog.With("repo", "UserRepo")
    return &userRepo{db: db, log: repoLog}
}

func (ur *userRepo) Create(ctx context.Context, tx *gorm.DB, users []*types.User) ([]*types.User, error) {
    transaction := tx
    if transaction == nil {
        transaction = ur.db
    }
    if len(users) == 0 {
        return []*types.User{}, nil
    }
    if err := transaction.WithContext(ctx).Create(&users).Error; err != nil {
        ur.log.Error("Failed to create users", "error", err)
        return nil, err
    }
    ur.log.Info("Successfully created users", "count", len(users))
    return users, nil
}

func (ur *userRepo) GetByID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.User, error) {
    transaction := tx
    if transaction == nil {
        transaction = ur.db
    }
    var user types.User
    if err := transaction.WithContext(ctx).
        Where("id = ?", userID).
        First(&user).Error; err != nil {
        return nil, err
    }
    return &user, nil
}

func (ur *userRepo) GetByUsername(ctx context.Context, tx *gorm.DB, username string) (*types.User, error) {
    transaction := tx
    if transaction == nil {
        transaction = ur.db
    }
    var user types.User
    if err := transaction.WithContext(ctx).
        Where("username = ?", username).
        First(&user).Error; err != nil {
        return nil, err
    }
    return &user, nil
}

func (ur *userRepo) UsernameExists(ctx context.Context, tx *gorm.DB, username string) (bool, error) {
    transaction := tx
    if transaction == nil {
        transaction = ur.db
    }
    var count int64
    if err := transaction.WithContext(ctx).
        Model(&types.User{}).
        Where("username = ?", username).
        Count(&count).Error; err != nil {
        ur.log.Error("Failed to count users by username", "error", err)
        return false, err
    }
    return count > 0, nil
}

func (ur *userRepo) EmailExists(ctx context.Context, tx *gorm.DB, userEmail string) (bool, error) {
    transaction := tx
    if transaction == nil {
        transaction = ur.db
    }
    var count int64
    if err := transaction.WithContext(ctx).
        Model(&types.User{}).
        Where("email = ?", userEmail).
        Count(&count).Error; err != nil {
        ur.log.Error("Failed to count users by email", "error", err)
        return false, err
    }
    return count > 0, nil
}

// GetEarliestByRole returns the oldest user carrying the given role,
// used by the WhatsApp gateway owner-resolution fallback chain.
func (ur *userRepo) GetEarliestByRole(ctx context.Context, tx *gorm.DB, role string) (*types.User, error) {
    transaction := tx
    if transaction == nil {
        transaction = ur.db
    }
    var user types.User
    if err := transaction.WithContext(ctx).
        Where("role = ?", role).
        Order("created_at ASC").
        First(&user).Error; err != nil {
        return nil, err
    }
    return &user, nil
}

func (ur *userRepo) GetEarliest(ctx context.Context, tx *gorm.DB) (*types.User, error) {
    transaction := tx
    if transaction == nil {
        transaction = ur.db
    }
    var user types.User
    if err := transaction.WithContext(ctx).
        Order("created_at ASC").
        First(&user).Error; err != nil {
        return nil, err
    }
    return &user, nil
}

func (ur *userRepo) GetMe(ctx context.Context, tx *gorm.DB) (*types.User, error) {
    transaction := tx
    if transaction == nil {
        transaction = ur.db
    }
    rd := requestdata.GetRequestData(ctx)
    if rd == nil {
        ur.log.Error("No request data in context, cannot get me!")
        return nil, fmt.Errorf("no request data found in context")
    }
    var user types.User
    if err := transaction.WithContext(ctx).
        Where("id = ?", rd.UserID).
        First(&user).Error; err != nil {
        ur.log.Error("Failed to fetch current user (GetMe)", "error", err, "userID", rd.UserID)
        return nil, err
    }
    return &user, nil
}
