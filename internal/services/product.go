package services

import (
  "context"
  "fmt"
  "strings"

  "github.com/google/uuid"

  "github.com/agent-sparta/sparta-backend/internal/logger"
  "github.com/agent-sparta/sparta-backend/internal/repos"
  "github.com/agent-sparta/sparta-backend/internal/requestdata"
  "github.com/agent-sparta/sparta-backend/internal/types"
)

type ProductService interface {
  CreateProduct(ctx context.Context, product *types.ServiceProduct) (*types.ServiceProduct, error)
  GetProducts(ctx context.Context, activeOnly bool) ([]*types.ServiceProduct, error)
  GetProduct(ctx context.Context, id uuid.UUID) (*types.ServiceProduct, error)
  UpdateProduct(ctx context.Context, product *types.ServiceProduct) error
  DeleteProduct(ctx context.Context, id uuid.UUID) error
}

type productService struct {
  log         *logger.Logger
  productRepo repos.ServiceProductRepo
}

func NewProductService(log *logger.Logger, productRepo repos.ServiceProductRepo) ProductService {
  return &productService{
    log:         log.With("service", "ProductService"),
    productRepo: productRepo,
  }
}

func requireAdmin(ctx context.Context) error {
  rd := requestdata.GetRequestData(ctx)
  if rd == nil || rd.UserID == uuid.Nil {
    return fmt.Errorf("no authenticated user in context")
  }
  if rd.Role != types.UserRoleAdmin {
    return fmt.Errorf("admin role required")
  }
  return nil
}

func (ps *productService) CreateProduct(ctx context.Context, product *types.ServiceProduct) (*types.ServiceProduct, error) {
  if err := requireAdmin(ctx); err != nil {
    return nil, err
  }
  product.Name = strings.TrimSpace(product.Name)
  if product.Name == "" {
    return nil, fmt.Errorf("product name cannot be empty")
  }
  if product.MonthlyFee < 0 || product.InstallationFee < 0 {
    return nil, fmt.Errorf("product fees cannot be negative")
  }
  return ps.productRepo.CreateProduct(ctx, nil, product)
}

func (ps *productService) GetProducts(ctx context.Context, activeOnly bool) ([]*types.ServiceProduct, error) {
  return ps.productRepo.GetAll(ctx, nil, activeOnly)
}

func (ps *productService) GetProduct(ctx context.Context, id uuid.UUID) (*types.ServiceProduct, error) {
  return ps.productRepo.GetByID(ctx, nil, id)
}

func (ps *productService) UpdateProduct(ctx context.Context, product *types.ServiceProduct) error {
  if err := requireAdmin(ctx); err != nil {
    return err
  }
  if product.ID == uuid.Nil {
    return fmt.Errorf("product id is required")
  }
  return ps.productRepo.UpdateProduct(ctx, nil, product)
}

func (ps *productService) DeleteProduct(ctx context.Context, id uuid.UUID) error {
  if err := requireAdmin(ctx); err != nil {
    return err
  }
  return ps.productRepo.DeleteByID(ctx, nil, id)
}
