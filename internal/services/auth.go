package services

import (
  "context"
  "fmt"
  "strings"
  "time"

  "golang.org/x/crypto/bcrypt"
  "gorm.io/gorm"

  "github.com/golang-jwt/jwt/v5"
  "github.com/google/uuid"

  "github.com/agent-sparta/sparta-backend/internal/logger"
  "github.com/agent-sparta/sparta-backend/internal/repos"
  "github.com/agent-sparta/sparta-backend/internal/requestdata"
  "github.com/agent-sparta/sparta-backend/internal/types"
)

type JWTClaims struct {
  jwt.RegisteredClaims
  Username string `json:"username,omitempty"`
  Role     string `json:"role,omitempty"`
}

type AuthService interface {
  RegisterUser(ctx context.Context, user *types.User) error
  Login(ctx context.Context, username, password string) (string, *types.User, error)

  SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error)

  GetAccessTTL() time.Duration
}

type authService struct {
  db           *gorm.DB
  log          *logger.Logger
  userRepo     repos.UserRepo
  jwtSecretKey string
  accessTTL    time.Duration
}

func NewAuthService(db *gorm.DB, log *logger.Logger, userRepo repos.UserRepo, jwtSecretKey string, accessTTL time.Duration) AuthService {
  serviceLog := log.With("service", "AuthService")
  return &authService{
    db:           db,
    log:          serviceLog,
    userRepo:     userRepo,
    jwtSecretKey: jwtSecretKey,
    accessTTL:    accessTTL,
  }
}

func (as *authService) RegisterUser(ctx context.Context, user *types.User) error {
  as.log.Info("Starting Register User now...")
  user.Username = strings.ToLower(strings.TrimSpace(user.Username))
  user.Email = strings.ToLower(strings.TrimSpace(user.Email))

  if user.Username == "" {
    return fmt.Errorf("username cannot be empty")
  }
  if user.Email == "" || !strings.Contains(user.Email, "@") {
    return fmt.Errorf("a valid email is required")
  }
  if len(user.Password) < 6 {
    return fmt.Errorf("password must be at least 6 characters")
  }
  if user.Role == "" {
    user.Role = types.UserRoleUser
  }
  if user.Role != types.UserRoleAdmin && user.Role != types.UserRoleUser {
    return fmt.Errorf("Invalid user role: '%s'", user.Role)
  }

  hashed, err := bcrypt.GenerateFromPassword([]byte(user.Password), bcrypt.DefaultCost)
  if err != nil {
    return fmt.Errorf("failed to hash password: %w", err)
  }
  user.Password = string(hashed)

  return as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
    usernameTaken, err := as.userRepo.UsernameExists(ctx, tx, user.Username)
    if err != nil {
      return err
    }
    if usernameTaken {
      return fmt.Errorf("username '%s' is already taken", user.Username)
    }
    emailTaken, err := as.userRepo.EmailExists(ctx, tx, user.Email)
    if err != nil {
      return err
    }
    if emailTaken {
      return fmt.Errorf("email '%s' is already registered", user.Email)
    }
    if _, err := as.userRepo.Create(ctx, tx, []*types.User{user}); err != nil {
      return err
    }
    return nil
  })
}

func (as *authService) Login(ctx context.Context, username, password string) (string, *types.User, error) {
  username = strings.ToLower(strings.TrimSpace(username))
  user, err := as.userRepo.GetByUsername(ctx, nil, username)
  if err != nil {
    return "", nil, fmt.Errorf("invalid username or password")
  }
  if hErr := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); hErr != nil {
    return "", nil, fmt.Errorf("invalid username or password")
  }
  token, err := as.generateAccessToken(user)
  if err != nil {
    return "", nil, fmt.Errorf("failed to generate access token: %w", err)
  }
  as.log.Info("User logged in :)", "userID", user.ID, "username", user.Username)
  return token, user, nil
}

func (as *authService) generateAccessToken(user *types.User) (string, error) {
  claims := JWTClaims{
    RegisteredClaims: jwt.RegisteredClaims{
      Subject:   user.ID.String(),
      ExpiresAt: jwt.NewNumericDate(time.Now().Add(as.accessTTL)),
      IssuedAt:  jwt.NewNumericDate(time.Now()),
    },
    Username: user.Username,
    Role:     user.Role,
  }
  token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
  return token.SignedString([]byte(as.jwtSecretKey))
}

func (as *authService) SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error) {
  if tokenString == "" {
    return ctx, nil
  }
  parsedToken, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
    return []byte(as.jwtSecretKey), nil
  })
  if err != nil {
    return ctx, fmt.Errorf("failed to parse token: %w", err)
  }
  claims, ok := parsedToken.Claims.(*JWTClaims)
  if !ok || !parsedToken.Valid {
    return ctx, fmt.Errorf("invalid or expired JWT token")
  }
  userID, err := uuid.Parse(claims.Subject)
  if err != nil {
    return ctx, fmt.Errorf("invalid user ID in token: %w", err)
  }
  rd := &requestdata.RequestData{
    TokenString: tokenString,
    UserID:      userID,
    Username:    claims.Username,
    Role:        claims.Role,
  }
  ctx = requestdata.WithRequestData(ctx, rd)
  return ctx, nil
}

func (as *authService) GetAccessTTL() time.Duration {
  return as.accessTTL
}
