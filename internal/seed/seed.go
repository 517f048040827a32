package seed

import (
	"context"
	"fmt"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/agent-sparta/sparta-backend/internal/repos"
	"github.com/agent-sparta/sparta-backend/internal/types"
	"github.com/agent-sparta/sparta-backend/internal/utils"
	"github.com/agent-sparta/sparta-backend/internal/logger"
)

// SeedAll makes sure a default admin account and a starter product
// catalog exist. Both are no-ops when rows are already present.
func SeedAll(db *gorm.DB, userRepo repos.UserRepo, productRepo repos.ServiceProductRepo, log *logger.Logger) error {
	fmt.Println("Running SeedAll... seeding admin user and products")
	ctx := context.Background()

	if err := seedAdmin(ctx, userRepo, log); err != nil {
		return fmt.Errorf("failed to seed admin user: %w", err)
	}
	if err := seedProducts(ctx, productRepo); err != nil {
		return fmt.Errorf("failed to seed products: %w", err)
	}

	fmt.Println("SeedAll Complete!")
	return nil
}

func seedAdmin(ctx context.Context, userRepo repos.UserRepo, log *logger.Logger) error {
	username := utils.GetEnv("ADMIN_USERNAME", "admin", log)
	exists, err := userRepo.UsernameExists(ctx, nil, username)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	password := utils.GetEnv("ADMIN_PASSWORD", "admin123", log)
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	admin := &types.User{
		Username: username,
		Email:    utils.GetEnv("ADMIN_EMAIL", "admin@sparta.co.id", log),
		Password: string(hashed),
		Role:     types.UserRoleAdmin,
	}
	_, err = userRepo.Create(ctx, nil, []*types.User{admin})
	return err
}

func seedProducts(ctx context.Context, productRepo repos.ServiceProductRepo) error {
	existing, err := productRepo.GetAll(ctx, nil, false)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}
	defaults := []*types.ServiceProduct{
		{Name: "Internet 20 Mbps", SpeedMbps: 20, InstallationFee: 250000, MonthlyFee: 350000, Active: true},
		{Name: "Internet 50 Mbps", SpeedMbps: 50, InstallationFee: 250000, MonthlyFee: 650000, Active: true},
		{Name: "Internet 100 Mbps", SpeedMbps: 100, InstallationFee: 0, MonthlyFee: 1000000, Active: true},
	}
	for _, product := range defaults {
		if _, err := productRepo.CreateProduct(ctx, nil, product); err != nil {
			return err
		}
	}
	return nil
}
