package services

import (
	"context"
	"strings"
	"time"

	"billdesk/internal/caching"
	"billdesk/internal/common"
	"billdesk/internal/logger"
	"billdesk/internal/models"
	"billdesk/internal/repositories"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// MaxLogoSize is the largest accepted logo upload.
const MaxLogoSize = 2 << 20

const companyCacheTTL = 10 * time.Minute

type CompanyService interface {
	Get(ctx context.Context, id uuid.UUID) (*models.Company, error)
	UpdateName(ctx context.Context, id uuid.UUID, name string) (*models.Company, error)
	UpdateEmail(ctx context.Context, id uuid.UUID, email string) (*models.Company, error)
	UpdateAddress(ctx context.Context, id uuid.UUID, address string) (*models.Company, error)
	UpdatePassword(ctx context.Context, id uuid.UUID, current, next string) error
	Delete(ctx context.Context, id uuid.UUID) error
	UploadLogo(ctx context.Context, id uuid.UUID, contentType string, data []byte) (*models.Company, error)
	LogoURL(ctx context.Context, id uuid.UUID) (string, error)
}

type companyService struct {
	companyRepo repositories.CompanyRepository
	storage     StorageService
	cache       caching.CacheService
	presignTTL  time.Duration
	log         *logger.Logger
}

func NewCompanyService(companyRepo repositories.CompanyRepository, storage StorageService, cache caching.CacheService, presignTTL time.Duration, log *logger.Logger) CompanyService {
	return &companyService{
		companyRepo: companyRepo,
		storage:     storage,
		cache:       cache,
		presignTTL:  presignTTL,
		log:         log,
	}
}

// Get serves the company profile from cache when possible. The cached copy
// carries no secrets.
func (s *companyService) Get(ctx context.Context, id uuid.UUID) (*models.Company, error) {
	if cached, err := s.cache.GetCompany(ctx, id); err == nil && cached != nil {
		return cached, nil
	}

	company, err := s.companyRepo.GetByID(ctx, id)
	if err != nil {
		if common.IsNotFound(err) {
			return nil, common.WithError(err).WithHint(common.MsgCompanyNotFound).Mark(common.ErrNotFound)
		}
		return nil, err
	}
	if err := s.cache.SetCompany(ctx, company, companyCacheTTL); err != nil {
		s.log.Warnw("Failed to cache company", "company_id", id, "error", err)
	}
	return company, nil
}

func (s *companyService) invalidate(ctx context.Context, id uuid.UUID) {
	if err := s.cache.InvalidateCompanyCache(ctx, id); err != nil {
		s.log.Warnw("Failed to invalidate company cache", "company_id", id, "error", err)
	}
}

func (s *companyService) reload(ctx context.Context, id uuid.UUID) (*models.Company, error) {
	s.invalidate(ctx, id)
	return s.Get(ctx, id)
}

func (s *companyService) UpdateName(ctx context.Context, id uuid.UUID, name string) (*models.Company, error) {
	name = strings.TrimSpace(name)
	taken, err := s.companyRepo.ExistsByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, common.NewError("company name taken").
			WithHint("A company with that name already exists").
			Mark(common.ErrResourceConflict)
	}
	if err := s.companyRepo.UpdateName(ctx, id, name); err != nil {
		return nil, err
	}
	return s.reload(ctx, id)
}

func (s *companyService) UpdateEmail(ctx context.Context, id uuid.UUID, email string) (*models.Company, error) {
	email = strings.TrimSpace(email)
	taken, err := s.companyRepo.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, common.NewError("company email taken").
			WithHint("That email is already registered").
			Mark(common.ErrResourceConflict)
	}
	if err := s.companyRepo.UpdateEmail(ctx, id, email); err != nil {
		return nil, err
	}
	return s.reload(ctx, id)
}

func (s *companyService) UpdateAddress(ctx context.Context, id uuid.UUID, address string) (*models.Company, error) {
	if err := s.companyRepo.UpdateAddress(ctx, id, strings.TrimSpace(address)); err != nil {
		return nil, err
	}
	return s.reload(ctx, id)
}

func (s *companyService) UpdatePassword(ctx context.Context, id uuid.UUID, current, next string) error {
	company, err := s.companyRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(company.PasswordHash), []byte(current)) != nil {
		return common.NewError("wrong current password").
			WithHint("The current password is incorrect").
			Mark(common.ErrBadCredentials)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(next), bcrypt.DefaultCost)
	if err != nil {
		return common.WithError(err).WithMessage("hash password").Mark(common.ErrInternal)
	}
	return s.companyRepo.UpdatePassword(ctx, id, string(hash))
}

func (s *companyService) Delete(ctx context.Context, id uuid.UUID) error {
	company, err := s.companyRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.companyRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx, id)
	if company.LogoPath != nil {
		if err := s.storage.Delete(ctx, *company.LogoPath); err != nil {
			s.log.Warnw("Failed to delete company logo", "company_id", id, "error", err)
		}
	}
	s.log.Infow("Company deleted", "company_id", id)
	return nil
}

// UploadLogo stores a PNG or JPEG logo and replaces the previous one.
func (s *companyService) UploadLogo(ctx context.Context, id uuid.UUID, contentType string, data []byte) (*models.Company, error) {
	if len(data) == 0 || len(data) > MaxLogoSize {
		return nil, common.NewError("logo size").
			WithHint("The logo must be between 1 byte and 2 MiB").
			Mark(common.ErrInvalidField)
	}

	company, err := s.companyRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	objectName, err := s.storage.UploadLogo(ctx, id, contentType, data)
	if err != nil {
		return nil, err
	}
	if err := s.companyRepo.UpdateLogo(ctx, id, objectName); err != nil {
		return nil, err
	}
	if company.LogoPath != nil {
		if err := s.storage.Delete(ctx, *company.LogoPath); err != nil {
			s.log.Warnw("Failed to delete previous logo", "company_id", id, "error", err)
		}
	}
	return s.reload(ctx, id)
}

func (s *companyService) LogoURL(ctx context.Context, id uuid.UUID) (string, error) {
	company, err := s.Get(ctx, id)
	if err != nil {
		return "", err
	}
	if company.LogoPath == nil {
		return "", common.NewError("company has no logo").
			WithHint("The company has no logo").
			Mark(common.ErrNotFound)
	}
	return s.storage.GetPresignedURL(ctx, *company.LogoPath, s.presignTTL)
}
