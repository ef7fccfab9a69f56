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

type CustomerService interface {
	Create(ctx context.Context, companyID uuid.UUID, req *models.CustomerRequest) (*models.Customer, error)
	GetByID(ctx context.Context, companyID, id uuid.UUID) (*models.Customer, error)
	List(ctx context.Context, companyID uuid.UUID, limit, offset int) ([]*models.Customer, error)
	Update(ctx context.Context, companyID, id uuid.UUID, req *models.CustomerRequest) (*models.Customer, error)
	Delete(ctx context.Context, companyID, id uuid.UUID) error
	ResolveOrCreate(ctx context.Context, companyID uuid.UUID, name string, address, email *string) (*models.Customer, error)
}

type customerService struct {
	customerRepo repositories.CustomerRepository
	log          *logger.Logger
}

func NewCustomerService(customerRepo repositories.CustomerRepository, log *logger.Logger) CustomerService {
	return &customerService{customerRepo: customerRepo, log: log}
}

func (s *customerService) Create(ctx context.Context, companyID uuid.UUID, req *models.CustomerRequest) (*models.Customer, error) {
	name := strings.TrimSpace(req.Name)
	existing, err := s.customerRepo.FindByName(ctx, companyID, name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, common.NewError("customer name taken").
			WithHint(common.MsgCustomerExists).
			Mark(common.ErrResourceConflict)
	}

	customer := &models.Customer{
		CompanyID: companyID,
		Name:      name,
		Email:     common.OptionalString(req.Email),
		Address:   common.OptionalString(req.Address),
	}
	if err := s.customerRepo.Create(ctx, customer); err != nil {
		return nil, err
	}
	return customer, nil
}

func (s *customerService) GetByID(ctx context.Context, companyID, id uuid.UUID) (*models.Customer, error) {
	return s.customerRepo.GetByID(ctx, companyID, id)
}

func (s *customerService) List(ctx context.Context, companyID uuid.UUID, limit, offset int) ([]*models.Customer, error) {
	return s.customerRepo.List(ctx, companyID, limit, offset)
}

func (s *customerService) Update(ctx context.Context, companyID, id uuid.UUID, req *models.CustomerRequest) (*models.Customer, error) {
	customer, err := s.customerRepo.GetByID(ctx, companyID, id)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(req.Name)
	if !strings.EqualFold(name, customer.Name) {
		other, err := s.customerRepo.FindByName(ctx, companyID, name)
		if err != nil {
			return nil, err
		}
		if other != nil && other.ID != customer.ID {
			return nil, common.NewError("customer name taken").
				WithHint(common.MsgCustomerExists).
				Mark(common.ErrResourceConflict)
		}
	}

	customer.Name = name
	customer.Email = common.OptionalString(req.Email)
	customer.Address = common.OptionalString(req.Address)
	if err := s.customerRepo.Update(ctx, customer); err != nil {
		return nil, err
	}
	return customer, nil
}

func (s *customerService) Delete(ctx context.Context, companyID, id uuid.UUID) error {
	if _, err := s.customerRepo.GetByID(ctx, companyID, id); err != nil {
		return err
	}
	return s.customerRepo.Delete(ctx, companyID, id)
}

func (s *customerService) ResolveOrCreate(ctx context.Context, companyID uuid.UUID, name string, address, email *string) (*models.Customer, error) {
	return resolveCustomer(ctx, s.customerRepo, companyID, name, address, email)
}

// resolveCustomer returns the company's customer whose name matches
// case-insensitively, creating it from the given fields on a miss. An
// existing customer is returned unchanged.
func resolveCustomer(ctx context.Context, repo repositories.CustomerRepository, companyID uuid.UUID, name string, address, email *string) (*models.Customer, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, common.NewError("blank customer name").
			WithHint("Customer name is required").
			Mark(common.ErrInvalidField)
	}

	existing, err := repo.FindByName(ctx, companyID, name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	customer := &models.Customer{
		CompanyID: companyID,
		Name:      name,
		Email:     common.OptionalString(email),
		Address:   common.OptionalString(address),
	}
	if err := repo.Create(ctx, customer); err != nil {
		return nil, err
	}
	return customer, nil
}
