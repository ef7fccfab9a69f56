package services

import (
	"context"
	"time"

	"billdesk/internal/models"
	"billdesk/internal/repositories"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"gopkg.in/gomail.v2"
)

type MockCompanyRepository struct {
	mock.Mock
}

func (m *MockCompanyRepository) Create(ctx context.Context, company *models.Company) error {
	args := m.Called(ctx, company)
	return args.Error(0)
}

func (m *MockCompanyRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Company, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Company), args.Error(1)
}

func (m *MockCompanyRepository) GetByEmail(ctx context.Context, email string) (*models.Company, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Company), args.Error(1)
}

func (m *MockCompanyRepository) GetByNameOrEmail(ctx context.Context, identifier string) (*models.Company, error) {
	args := m.Called(ctx, identifier)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Company), args.Error(1)
}

func (m *MockCompanyRepository) ExistsByName(ctx context.Context, name string) (bool, error) {
	args := m.Called(ctx, name)
	return args.Bool(0), args.Error(1)
}

func (m *MockCompanyRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

func (m *MockCompanyRepository) UpdateName(ctx context.Context, id uuid.UUID, name string) error {
	return m.Called(ctx, id, name).Error(0)
}

func (m *MockCompanyRepository) UpdateEmail(ctx context.Context, id uuid.UUID, email string) error {
	return m.Called(ctx, id, email).Error(0)
}

func (m *MockCompanyRepository) UpdateAddress(ctx context.Context, id uuid.UUID, address string) error {
	return m.Called(ctx, id, address).Error(0)
}

func (m *MockCompanyRepository) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	return m.Called(ctx, id, passwordHash).Error(0)
}

func (m *MockCompanyRepository) UpdateLogo(ctx context.Context, id uuid.UUID, logoPath string) error {
	return m.Called(ctx, id, logoPath).Error(0)
}

func (m *MockCompanyRepository) MarkVerified(ctx context.Context, id uuid.UUID) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockCompanyRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockCompanyRepository) GetPaymentCredential(ctx context.Context, companyID uuid.UUID) (*models.PaymentCredential, error) {
	args := m.Called(ctx, companyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PaymentCredential), args.Error(1)
}

func (m *MockCompanyRepository) SavePaymentCredential(ctx context.Context, cred *models.PaymentCredential) error {
	return m.Called(ctx, cred).Error(0)
}

func (m *MockCompanyRepository) ListCredentialsExpiringBefore(ctx context.Context, before time.Time, limit int) ([]*models.PaymentCredential, error) {
	args := m.Called(ctx, before, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.PaymentCredential), args.Error(1)
}

type MockCustomerRepository struct {
	mock.Mock
}

func (m *MockCustomerRepository) Create(ctx context.Context, customer *models.Customer) error {
	args := m.Called(ctx, customer)
	if args.Error(0) == nil && customer.ID == uuid.Nil {
		customer.ID = uuid.New()
	}
	return args.Error(0)
}

func (m *MockCustomerRepository) GetByID(ctx context.Context, companyID, id uuid.UUID) (*models.Customer, error) {
	args := m.Called(ctx, companyID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Customer), args.Error(1)
}

func (m *MockCustomerRepository) FindByName(ctx context.Context, companyID uuid.UUID, name string) (*models.Customer, error) {
	args := m.Called(ctx, companyID, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Customer), args.Error(1)
}

func (m *MockCustomerRepository) List(ctx context.Context, companyID uuid.UUID, limit, offset int) ([]*models.Customer, error) {
	args := m.Called(ctx, companyID, limit, offset)
	return args.Get(0).([]*models.Customer), args.Error(1)
}

func (m *MockCustomerRepository) Update(ctx context.Context, customer *models.Customer) error {
	return m.Called(ctx, customer).Error(0)
}

func (m *MockCustomerRepository) Delete(ctx context.Context, companyID, id uuid.UUID) error {
	return m.Called(ctx, companyID, id).Error(0)
}

type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) Create(ctx context.Context, product *models.Product) error {
	return m.Called(ctx, product).Error(0)
}

func (m *MockProductRepository) GetByID(ctx context.Context, companyID, id uuid.UUID) (*models.Product, error) {
	args := m.Called(ctx, companyID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Product), args.Error(1)
}

func (m *MockProductRepository) FindByName(ctx context.Context, companyID uuid.UUID, name string) (*models.Product, error) {
	args := m.Called(ctx, companyID, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Product), args.Error(1)
}

func (m *MockProductRepository) FindByCode(ctx context.Context, companyID uuid.UUID, code string) (*models.Product, error) {
	args := m.Called(ctx, companyID, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Product), args.Error(1)
}

func (m *MockProductRepository) List(ctx context.Context, companyID uuid.UUID, limit, offset int) ([]*models.Product, error) {
	args := m.Called(ctx, companyID, limit, offset)
	return args.Get(0).([]*models.Product), args.Error(1)
}

func (m *MockProductRepository) Update(ctx context.Context, product *models.Product) error {
	return m.Called(ctx, product).Error(0)
}

func (m *MockProductRepository) Delete(ctx context.Context, companyID, id uuid.UUID) error {
	return m.Called(ctx, companyID, id).Error(0)
}

type MockBillRepository struct {
	mock.Mock
}

func (m *MockBillRepository) NextBillNumber(ctx context.Context, companyID uuid.UUID) (int64, error) {
	args := m.Called(ctx, companyID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockBillRepository) Create(ctx context.Context, bill *models.Bill) error {
	return m.Called(ctx, bill).Error(0)
}

func (m *MockBillRepository) GetByID(ctx context.Context, companyID, id uuid.UUID) (*models.Bill, error) {
	args := m.Called(ctx, companyID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Bill), args.Error(1)
}

func (m *MockBillRepository) List(ctx context.Context, companyID uuid.UUID, limit, offset int) ([]*models.Bill, error) {
	args := m.Called(ctx, companyID, limit, offset)
	return args.Get(0).([]*models.Bill), args.Error(1)
}

func (m *MockBillRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status models.BillStatus) error {
	return m.Called(ctx, id, status).Error(0)
}

func (m *MockBillRepository) AttachPDF(ctx context.Context, id uuid.UUID, pdfPath string) error {
	return m.Called(ctx, id, pdfPath).Error(0)
}

func (m *MockBillRepository) MarkFailed(ctx context.Context, id uuid.UUID, stage models.BillStage, reason string) error {
	return m.Called(ctx, id, stage, reason).Error(0)
}

func (m *MockBillRepository) ListFailed(ctx context.Context, stage models.BillStage, limit int) ([]*models.Bill, error) {
	args := m.Called(ctx, stage, limit)
	return args.Get(0).([]*models.Bill), args.Error(1)
}

type MockBillLineRepository struct {
	mock.Mock
}

func (m *MockBillLineRepository) Create(ctx context.Context, line *models.BillLine) error {
	args := m.Called(ctx, line)
	if args.Error(0) == nil && line.ID == uuid.Nil {
		line.ID = uuid.New()
	}
	return args.Error(0)
}

func (m *MockBillLineRepository) ListByBill(ctx context.Context, billID uuid.UUID) ([]*models.BillLine, error) {
	args := m.Called(ctx, billID)
	return args.Get(0).([]*models.BillLine), args.Error(1)
}

func (m *MockBillLineRepository) ListByBills(ctx context.Context, billIDs []uuid.UUID) (map[uuid.UUID][]*models.BillLine, error) {
	args := m.Called(ctx, billIDs)
	return args.Get(0).(map[uuid.UUID][]*models.BillLine), args.Error(1)
}

// fakeTxRunner runs the unit of work against the mocked store and counts runs.
type fakeTxRunner struct {
	store *repositories.Store
	runs  int
}

func (f *fakeTxRunner) RunInTx(ctx context.Context, fn func(store *repositories.Store) error) error {
	f.runs++
	return fn(f.store)
}

type MockRenderer struct {
	mock.Mock
}

func (m *MockRenderer) Render(ctx context.Context, bill *models.Bill, logo, qr []byte) ([]byte, error) {
	args := m.Called(ctx, bill, logo, qr)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockRenderer) LineCapacity() int {
	return m.Called().Int(0)
}

type MockStorageService struct {
	mock.Mock
}

func (m *MockStorageService) UploadBillPDF(ctx context.Context, bill *models.Bill, data []byte) (string, error) {
	args := m.Called(ctx, bill, data)
	return args.String(0), args.Error(1)
}

func (m *MockStorageService) UploadLogo(ctx context.Context, companyID uuid.UUID, contentType string, data []byte) (string, error) {
	args := m.Called(ctx, companyID, contentType, data)
	return args.String(0), args.Error(1)
}

func (m *MockStorageService) Download(ctx context.Context, objectName string) ([]byte, error) {
	args := m.Called(ctx, objectName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockStorageService) GetPresignedURL(ctx context.Context, objectName string, expiry time.Duration) (string, error) {
	args := m.Called(ctx, objectName, expiry)
	return args.String(0), args.Error(1)
}

func (m *MockStorageService) Delete(ctx context.Context, objectName string) error {
	return m.Called(ctx, objectName).Error(0)
}

func (m *MockStorageService) EnsureBucketExists(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

type MockCacheService struct {
	mock.Mock
}

func (m *MockCacheService) GetCompany(ctx context.Context, companyID uuid.UUID) (*models.Company, error) {
	args := m.Called(ctx, companyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Company), args.Error(1)
}

func (m *MockCacheService) SetCompany(ctx context.Context, company *models.Company, ttl time.Duration) error {
	return m.Called(ctx, company, ttl).Error(0)
}

func (m *MockCacheService) GetLogo(ctx context.Context, companyID uuid.UUID) ([]byte, error) {
	args := m.Called(ctx, companyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockCacheService) SetLogo(ctx context.Context, companyID uuid.UUID, data []byte, ttl time.Duration) error {
	return m.Called(ctx, companyID, data, ttl).Error(0)
}

func (m *MockCacheService) InvalidateCompanyCache(ctx context.Context, companyID uuid.UUID) error {
	return m.Called(ctx, companyID).Error(0)
}

func (m *MockCacheService) IsRateLimited(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	args := m.Called(ctx, key, limit, window)
	return args.Bool(0), args.Error(1)
}

func (m *MockCacheService) SetOAuthState(ctx context.Context, nonce string, companyID uuid.UUID, ttl time.Duration) error {
	return m.Called(ctx, nonce, companyID, ttl).Error(0)
}

func (m *MockCacheService) ConsumeOAuthState(ctx context.Context, nonce string) (uuid.UUID, bool, error) {
	args := m.Called(ctx, nonce)
	return args.Get(0).(uuid.UUID), args.Bool(1), args.Error(2)
}

func (m *MockCacheService) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
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

type MockQRService struct {
	mock.Mock
}

func (m *MockQRService) Encode(content string) ([]byte, error) {
	args := m.Called(content)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

type MockEmailService struct {
	mock.Mock
}

func (m *MockEmailService) SendBill(ctx context.Context, to, companyName, filename string, pdf []byte) error {
	return m.Called(ctx, to, companyName, filename, pdf).Error(0)
}

func (m *MockEmailService) SendVerification(ctx context.Context, to, companyName, verifyURL string) error {
	return m.Called(ctx, to, companyName, verifyURL).Error(0)
}

type MockMercadoPagoService struct {
	mock.Mock
}

func (m *MockMercadoPagoService) AuthorizationURL(state string) string {
	return m.Called(state).String(0)
}

func (m *MockMercadoPagoService) ExchangeCode(ctx context.Context, code string) (*OAuthToken, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*OAuthToken), args.Error(1)
}

func (m *MockMercadoPagoService) RefreshToken(ctx context.Context, refreshToken string) (*OAuthToken, error) {
	args := m.Called(ctx, refreshToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*OAuthToken), args.Error(1)
}

func (m *MockMercadoPagoService) CreatePreference(ctx context.Context, accessToken, title string, amount decimal.Decimal) (string, error) {
	args := m.Called(ctx, accessToken, title, amount)
	return args.String(0), args.Error(1)
}

// recordingMailer keeps every message instead of dialing SMTP.
type recordingMailer struct {
	sent []*gomail.Message
	err  error
}

func (r *recordingMailer) DialAndSend(m ...*gomail.Message) error {
	if r.err != nil {
		return r.err
	}
	r.sent = append(r.sent, m...)
	return nil
}
