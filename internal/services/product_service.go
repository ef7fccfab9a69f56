package services

import (
	"context"
	"strings"

	"billdesk/internal/common"
	"billdesk/internal/logger"
	"billdesk/internal/models"
	"billdesk/internal/repositories"

	"github.com/google/uuid"
)

type ProductService interface {
	Create(ctx context.Context, companyID uuid.UUID, req *models.ProductRequest) (*models.Product, error)
	GetByID(ctx context.Context, companyID, id uuid.UUID) (*models.Product, error)
	List(ctx context.Context, companyID uuid.UUID, limit, offset int) ([]*models.Product, error)
	Update(ctx context.Context, companyID, id uuid.UUID, req *models.ProductRequest) (*models.Product, error)
	Delete(ctx context.Context, companyID, id uuid.UUID) error
}

type productService struct {
	productRepo repositories.ProductRepository
	log         *logger.Logger
}

func NewProductService(productRepo repositories.ProductRepository, log *logger.Logger) ProductService {
	return &productService{productRepo: productRepo, log: log}
}

// checkUnique rejects a name or code already used by a product other than self.
func (s *productService) checkUnique(ctx context.Context, companyID uuid.UUID, self uuid.UUID, name string, code *string) error {
	byName, err := s.productRepo.FindByName(ctx, companyID, name)
	if err != nil {
		return err
	}
	if byName != nil && byName.ID != self {
		return common.NewError("product name taken").
			WithHint(common.MsgProductExists).
			Mark(common.ErrResourceConflict)
	}

	if code == nil {
		return nil
	}
	byCode, err := s.productRepo.FindByCode(ctx, companyID, *code)
	if err != nil {
		return err
	}
	if byCode != nil && byCode.ID != self {
		return common.NewError("product code taken").
			WithHint(common.MsgProductCodeExists).
			Mark(common.ErrResourceConflict)
	}
	return nil
}

func (s *productService) Create(ctx context.Context, companyID uuid.UUID, req *models.ProductRequest) (*models.Product, error) {
	name := strings.TrimSpace(req.Name)
	code := common.OptionalString(req.Code)
	if err := s.checkUnique(ctx, companyID, uuid.Nil, name, code); err != nil {
		return nil, err
	}

	product := &models.Product{
		CompanyID: companyID,
		Code:      code,
		Name:      name,
		Price:     req.Price.Round(2),
	}
	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, err
	}
	s.log.Infow("Product created", "company_id", companyID, "product_id", product.ID)
	return product, nil
}

func (s *productService) GetByID(ctx context.Context, companyID, id uuid.UUID) (*models.Product, error) {
	return s.productRepo.GetByID(ctx, companyID, id)
}

func (s *productService) List(ctx context.Context, companyID uuid.UUID, limit, offset int) ([]*models.Product, error) {
	return s.productRepo.List(ctx, companyID, limit, offset)
}

func (s *productService) Update(ctx context.Context, companyID, id uuid.UUID, req *models.ProductRequest) (*models.Product, error) {
	product, err := s.productRepo.GetByID(ctx, companyID, id)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(req.Name)
	code := common.OptionalString(req.Code)
	if err := s.checkUnique(ctx, companyID, product.ID, name, code); err != nil {
		return nil, err
	}

	product.Name = name
	product.Code = code
	product.Price = req.Price.Round(2)
	if err := s.productRepo.Update(ctx, product); err != nil {
		return nil, err
	}
	return product, nil
}

func (s *productService) Delete(ctx context.Context, companyID, id uuid.UUID) error {
	if _, err := s.productRepo.GetByID(ctx, companyID, id); err != nil {
		return err
	}
	return s.productRepo.Delete(ctx, companyID, id)
}
