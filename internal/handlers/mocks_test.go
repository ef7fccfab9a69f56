package handlers

import (
	"context"
	"time"

	"billdesk/internal/models"
	"billdesk/internal/services"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) SignUp(ctx context.Context, req *models.SignUpRequest) (*models.AuthResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AuthResponse), args.Error(1)
}

func (m *MockAuthService) Verify(ctx context.Context, token string) (bool, error) {
	args := m.Called(ctx, token)
	return args.Bool(0), args.Error(1)
}

func (m *MockAuthService) LogIn(ctx context.Context, req *models.LogInRequest) (*models.AuthResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AuthResponse), args.Error(1)
}

func (m *MockAuthService) ValidateToken(token, purpose string) (*services.TokenClaims, error) {
	args := m.Called(token, purpose)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.TokenClaims), args.Error(1)
}

type MockBillService struct {
	mock.Mock
}

func (m *MockBillService) Create(ctx context.Context, companyID uuid.UUID, req *models.CreateBillRequest) (*models.Bill, error) {
	args := m.Called(ctx, companyID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Bill), args.Error(1)
}

func (m *MockBillService) GetByID(ctx context.Context, companyID, id uuid.UUID) (*models.Bill, error) {
	args := m.Called(ctx, companyID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Bill), args.Error(1)
}

func (m *MockBillService) List(ctx context.Context, companyID uuid.UUID, limit, offset int) ([]*models.Bill, error) {
	args := m.Called(ctx, companyID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Bill), args.Error(1)
}

func (m *MockBillService) GetPDF(ctx context.Context, companyID, id uuid.UUID) ([]byte, string, error) {
	args := m.Called(ctx, companyID, id)
	if args.Get(0) == nil {
		return nil, "", args.Error(2)
	}
	return args.Get(0).([]byte), args.String(1), args.Error(2)
}

func (m *MockBillService) GetPDFURL(ctx context.Context, companyID, id uuid.UUID) (string, error) {
	args := m.Called(ctx, companyID, id)
	return args.String(0), args.Error(1)
}

func (m *MockBillService) RetryFailedRenders(ctx context.Context, limit int) (int, error) {
	args := m.Called(ctx, limit)
	return args.Int(0), args.Error(1)
}

type MockCustomerService struct {
	mock.Mock
}

func (m *MockCustomerService) Create(ctx context.Context, companyID uuid.UUID, req *models.CustomerRequest) (*models.Customer, error) {
	args := m.Called(ctx, companyID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Customer), args.Error(1)
}

func (m *MockCustomerService) GetByID(ctx context.Context, companyID, id uuid.UUID) (*models.Customer, error) {
	args := m.Called(ctx, companyID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Customer), args.Error(1)
}

func (m *MockCustomerService) List(ctx context.Context, companyID uuid.UUID, limit, offset int) ([]*models.Customer, error) {
	args := m.Called(ctx, companyID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Customer), args.Error(1)
}

func (m *MockCustomerService) Update(ctx context.Context, companyID, id uuid.UUID, req *models.CustomerRequest) (*models.Customer, error) {
	args := m.Called(ctx, companyID, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Customer), args.Error(1)
}

func (m *MockCustomerService) Delete(ctx context.Context, companyID, id uuid.UUID) error {
	return m.Called(ctx, companyID, id).Error(0)
}

func (m *MockCustomerService) ResolveOrCreate(ctx context.Context, companyID uuid.UUID, name string, address, email *string) (*models.Customer, error) {
	args := m.Called(ctx, companyID, name, address, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Customer), args.Error(1)
}

type MockCompanyService struct {
	mock.Mock
}

func (m *MockCompanyService) company(args mock.Arguments) (*models.Company, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Company), args.Error(1)
}

func (m *MockCompanyService) Get(ctx context.Context, id uuid.UUID) (*models.Company, error) {
	return m.company(m.Called(ctx, id))
}

func (m *MockCompanyService) UpdateName(ctx context.Context, id uuid.UUID, name string) (*models.Company, error) {
	return m.company(m.Called(ctx, id, name))
}

func (m *MockCompanyService) UpdateEmail(ctx context.Context, id uuid.UUID, email string) (*models.Company, error) {
	return m.company(m.Called(ctx, id, email))
}

func (m *MockCompanyService) UpdateAddress(ctx context.Context, id uuid.UUID, address string) (*models.Company, error) {
	return m.company(m.Called(ctx, id, address))
}

func (m *MockCompanyService) UpdatePassword(ctx context.Context, id uuid.UUID, current, next string) error {
	return m.Called(ctx, id, current, next).Error(0)
}

func (m *MockCompanyService) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockCompanyService) UploadLogo(ctx context.Context, id uuid.UUID, contentType string, data []byte) (*models.Company, error) {
	return m.company(m.Called(ctx, id, contentType, data))
}

func (m *MockCompanyService) LogoURL(ctx context.Context, id uuid.UUID) (string, error) {
	args := m.Called(ctx, id)
	return args.String(0), args.Error(1)
}

type MockPaymentLinkService struct {
	mock.Mock
}

func (m *MockPaymentLinkService) CreatePaymentLink(ctx context.Context, company *models.Company, amount decimal.Decimal) (string, error) {
	args := m.Called(ctx, company, amount)
	return args.String(0), args.Error(1)
}

func (m *MockPaymentLinkService) ConnectURL(ctx context.Context, companyID uuid.UUID) (string, error) {
	args := m.Called(ctx, companyID)
	return args.String(0), args.Error(1)
}

func (m *MockPaymentLinkService) CompleteConnect(ctx context.Context, state, code string) (uuid.UUID, error) {
	args := m.Called(ctx, state, code)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

func (m *MockPaymentLinkService) RefreshExpiring(ctx context.Context, horizon time.Duration, limit int) (int, error) {
	args := m.Called(ctx, horizon, limit)
	return args.Int(0), args.Error(1)
}

type stubPinger struct{ err error }

func (s stubPinger) Ping(context.Context) error { return s.err }

func (s stubPinger) EnsureBucketExists(context.Context) error { return s.err }

type stubCache struct{ pingErr error }

func (s stubCache) GetCompany(context.Context, uuid.UUID) (*models.Company, error) { return nil, nil }
func (s stubCache) SetCompany(context.Context, *models.Company, time.Duration) error {
	return nil
}
func (s stubCache) GetLogo(context.Context, uuid.UUID) ([]byte, error) { return nil, nil }
func (s stubCache) SetLogo(context.Context, uuid.UUID, []byte, time.Duration) error {
	return nil
}
func (s stubCache) InvalidateCompanyCache(context.Context, uuid.UUID) error { return nil }
func (s stubCache) IsRateLimited(context.Context, string, int, time.Duration) (bool, error) {
	return false, nil
}
func (s stubCache) SetOAuthState(context.Context, string, uuid.UUID, time.Duration) error {
	return nil
}
func (s stubCache) ConsumeOAuthState(context.Context, string) (uuid.UUID, bool, error) {
	return uuid.Nil, false, nil
}
func (s stubCache) Ping(context.Context) error { return s.pingErr }
