package services

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"billdesk/internal/common"
	"billdesk/internal/logger"
	"billdesk/internal/models"
	"billdesk/internal/repositories"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type BillServiceTestSuite struct {
	suite.Suite
	companies *MockCompanyRepository
	customers *MockCustomerRepository
	products  *MockProductRepository
	bills     *MockBillRepository
	lines     *MockBillLineRepository
	tx        *fakeTxRunner
	renderer  *MockRenderer
	storage   *MockStorageService
	cache     *MockCacheService
	payments  *MockPaymentLinkService
	qr        *MockQRService
	email     *MockEmailService
	service   *billService
	ctx       context.Context
	company   *models.Company
	now       time.Time
}

const storedPDF = "bills/company/00000001_20240305_ABCDEF012345.pdf"

func (suite *BillServiceTestSuite) SetupTest() {
	suite.companies = new(MockCompanyRepository)
	suite.customers = new(MockCustomerRepository)
	suite.products = new(MockProductRepository)
	suite.bills = new(MockBillRepository)
	suite.lines = new(MockBillLineRepository)
	suite.renderer = new(MockRenderer)
	suite.storage = new(MockStorageService)
	suite.cache = new(MockCacheService)
	suite.payments = new(MockPaymentLinkService)
	suite.qr = new(MockQRService)
	suite.email = new(MockEmailService)

	store := &repositories.Store{
		Companies: suite.companies,
		Customers: suite.customers,
		Products:  suite.products,
		Bills:     suite.bills,
		BillLines: suite.lines,
	}
	suite.tx = &fakeTxRunner{store: store}
	suite.ctx = context.Background()
	suite.now = time.Date(2024, 3, 5, 10, 30, 0, 0, time.UTC)
	suite.company = &models.Company{
		ID:      uuid.New(),
		Name:    "Acme Supplies",
		Email:   "billing@acme.test",
		Address: lo.ToPtr("1 Main St"),
	}

	svc := NewBillService(store, suite.tx, NewBillLineBuilder(), suite.renderer, suite.storage, suite.cache,
		suite.payments, suite.qr, suite.email, 15*time.Minute, logger.NewNop())
	suite.service = svc.(*billService)
	suite.service.now = func() time.Time { return suite.now }

	suite.renderer.On("LineCapacity").Return(20).Maybe()
}

func (suite *BillServiceTestSuite) TearDownTest() {
	suite.companies.AssertExpectations(suite.T())
	suite.bills.AssertExpectations(suite.T())
	suite.renderer.AssertExpectations(suite.T())
	suite.storage.AssertExpectations(suite.T())
	suite.email.AssertExpectations(suite.T())
}

func TestBillServiceTestSuite(t *testing.T) {
	suite.Run(t, new(BillServiceTestSuite))
}

func lineReq(name string, code *string, qty int, price string) models.BillLineRequest {
	return models.BillLineRequest{Name: name, Code: code, Quantity: qty, Price: decimal.RequireFromString(price)}
}

func (suite *BillServiceTestSuite) request(lines ...models.BillLineRequest) *models.CreateBillRequest {
	return &models.CreateBillRequest{CustomerName: "Acme", Lines: lines}
}

// expectPersisted sets up a successful transaction for a new customer.
func (suite *BillServiceTestSuite) expectPersisted(number int64) {
	suite.companies.On("GetByID", mock.Anything, suite.company.ID).Return(suite.company, nil).Once()
	suite.products.On("FindByCode", mock.Anything, suite.company.ID, mock.Anything).Return(nil, nil).Maybe()
	suite.customers.On("FindByName", mock.Anything, suite.company.ID, "Acme").Return(nil, nil).Maybe()
	suite.customers.On("Create", mock.Anything, mock.AnythingOfType("*models.Customer")).Return(nil).Maybe()
	suite.bills.On("NextBillNumber", mock.Anything, suite.company.ID).Return(number, nil).Once()
	suite.bills.On("Create", mock.Anything, mock.AnythingOfType("*models.Bill")).Return(nil).Once()
	suite.products.On("FindByName", mock.Anything, suite.company.ID, mock.Anything).Return(nil, nil).Maybe()
	suite.lines.On("Create", mock.Anything, mock.AnythingOfType("*models.BillLine")).Return(nil).Maybe()
	suite.bills.On("UpdateStatus", mock.Anything, mock.Anything, models.BillStatusLinesAttached).Return(nil).Once()
}

func (suite *BillServiceTestSuite) expectRendered() {
	suite.renderer.On("Render", mock.Anything, mock.AnythingOfType("*models.Bill"), mock.Anything, mock.Anything).
		Return([]byte("%PDF-1.7"), nil).Once()
	suite.storage.On("UploadBillPDF", mock.Anything, mock.AnythingOfType("*models.Bill"), []byte("%PDF-1.7")).
		Return(storedPDF, nil).Once()
	suite.bills.On("AttachPDF", mock.Anything, mock.Anything, storedPDF).Return(nil).Once()
}

func (suite *BillServiceTestSuite) TestCreateComputesExactTotal() {
	suite.expectPersisted(1)
	suite.expectRendered()

	bill, err := suite.service.Create(suite.ctx, suite.company.ID, suite.request(
		lineReq("Widget", nil, 2, "10.00"),
		lineReq("Gadget", nil, 3, "5.00"),
	))

	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), "35.00", bill.TotalAmount.StringFixed(2))
	assert.True(suite.T(), bill.TotalAmount.Equal(bill.LinesTotal()))
	require.Len(suite.T(), bill.Lines, 2)
	assert.Equal(suite.T(), 1, bill.Lines[0].Position)
	assert.Equal(suite.T(), "20.00", bill.Lines[0].Total.StringFixed(2))
	assert.Equal(suite.T(), 2, bill.Lines[1].Position)
	assert.Equal(suite.T(), "15.00", bill.Lines[1].Total.StringFixed(2))
	assert.Equal(suite.T(), models.BillStatusRendered, bill.Status)
	assert.Equal(suite.T(), storedPDF, *bill.PDFPath)
	assert.Equal(suite.T(), "Acme Supplies", bill.CompanyName)
	assert.Equal(suite.T(), "billing@acme.test", *bill.CompanyEmail)
	assert.Nil(suite.T(), bill.DueDate)
	assert.Nil(suite.T(), bill.PaymentURL)
	assert.NotNil(suite.T(), bill.CustomerID)
	assert.Equal(suite.T(), 1, suite.tx.runs)
	suite.payments.AssertNotCalled(suite.T(), "CreatePaymentLink", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *BillServiceTestSuite) TestCreateAvoidsBinaryFloatDrift() {
	suite.expectPersisted(1)
	suite.expectRendered()

	bill, err := suite.service.Create(suite.ctx, suite.company.ID, suite.request(
		lineReq("Widget", nil, 3, "0.10"),
		lineReq("Gadget", nil, 1, "0.20"),
	))

	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), "0.50", bill.TotalAmount.StringFixed(2))
}

func (suite *BillServiceTestSuite) TestCreateLinksCatalogProduct() {
	product := &models.Product{ID: uuid.New(), CompanyID: suite.company.ID, Name: "Widget"}
	suite.products.On("FindByName", mock.Anything, suite.company.ID, "Widget").Return(product, nil).Once()
	suite.expectPersisted(1)
	suite.expectRendered()

	bill, err := suite.service.Create(suite.ctx, suite.company.ID, suite.request(
		lineReq("Widget", nil, 1, "10.00"),
		lineReq("Gadget", nil, 1, "5.00"),
	))

	require.NoError(suite.T(), err)
	require.NotNil(suite.T(), bill.Lines[0].ProductID)
	assert.Equal(suite.T(), product.ID, *bill.Lines[0].ProductID)
	assert.Nil(suite.T(), bill.Lines[1].ProductID)
}

func (suite *BillServiceTestSuite) TestCreateRejectsDuplicateName() {
	suite.companies.On("GetByID", mock.Anything, suite.company.ID).Return(suite.company, nil).Once()

	_, err := suite.service.Create(suite.ctx, suite.company.ID, suite.request(
		lineReq("Widget", nil, 1, "1.00"),
		lineReq("widget", nil, 1, "2.00"),
	))

	require.Error(suite.T(), err)
	assert.True(suite.T(), errors.Is(err, common.ErrInvalidField))
	assert.Equal(suite.T(), common.MsgDuplicateLineName, common.DisplayMessage(err))
	assert.Equal(suite.T(), 0, suite.tx.runs)
	suite.bills.AssertNotCalled(suite.T(), "Create", mock.Anything, mock.Anything)
}

func (suite *BillServiceTestSuite) TestCreateRejectsDuplicateCode() {
	suite.companies.On("GetByID", mock.Anything, suite.company.ID).Return(suite.company, nil).Once()
	suite.products.On("FindByCode", mock.Anything, suite.company.ID, "A1").Return(nil, nil).Once()

	_, err := suite.service.Create(suite.ctx, suite.company.ID, suite.request(
		lineReq("Widget", lo.ToPtr("A1"), 1, "1.00"),
		lineReq("Gadget", lo.ToPtr("a1"), 1, "2.00"),
	))

	require.Error(suite.T(), err)
	assert.True(suite.T(), errors.Is(err, common.ErrInvalidField))
	assert.Equal(suite.T(), common.MsgDuplicateLineCode, common.DisplayMessage(err))
	assert.Equal(suite.T(), 0, suite.tx.runs)
}

func (suite *BillServiceTestSuite) TestCreateRejectsCodeOfAnotherProduct() {
	suite.companies.On("GetByID", mock.Anything, suite.company.ID).Return(suite.company, nil).Once()
	suite.products.On("FindByCode", mock.Anything, suite.company.ID, "A1").
		Return(&models.Product{ID: uuid.New(), Name: "Widget", Code: lo.ToPtr("A1")}, nil).Once()

	_, err := suite.service.Create(suite.ctx, suite.company.ID, suite.request(
		lineReq("Gadget", lo.ToPtr("A1"), 1, "1.00"),
	))

	require.Error(suite.T(), err)
	assert.True(suite.T(), common.IsConflict(err))
	assert.Equal(suite.T(), fmt.Sprintf(common.MsgCodeAssigned, "A1", "Widget"), common.DisplayMessage(err))
	assert.Equal(suite.T(), 0, suite.tx.runs)
}

func (suite *BillServiceTestSuite) TestCreateAcceptsCodeOfSameProduct() {
	suite.products.On("FindByCode", mock.Anything, suite.company.ID, "A1").
		Return(&models.Product{ID: uuid.New(), Name: "Widget", Code: lo.ToPtr("A1")}, nil).Once()
	suite.expectPersisted(1)
	suite.expectRendered()

	bill, err := suite.service.Create(suite.ctx, suite.company.ID, suite.request(
		lineReq("widget", lo.ToPtr("A1"), 1, "1.00"),
	))

	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), "A1", *bill.Lines[0].Code)
}

func (suite *BillServiceTestSuite) TestCreateRejectsMoreLinesThanTemplate() {
	suite.companies.On("GetByID", mock.Anything, suite.company.ID).Return(suite.company, nil).Once()
	lines := make([]models.BillLineRequest, 21)
	for i := range lines {
		lines[i] = lineReq(fmt.Sprintf("Item %d", i), nil, 1, "1.00")
	}

	_, err := suite.service.Create(suite.ctx, suite.company.ID, suite.request(lines...))

	require.Error(suite.T(), err)
	assert.True(suite.T(), errors.Is(err, common.ErrInvalidField))
	assert.Equal(suite.T(), fmt.Sprintf(common.MsgTemplateCapacityExceeded, 21, 20), common.DisplayMessage(err))
	assert.Equal(suite.T(), 0, suite.tx.runs)
}

func (suite *BillServiceTestSuite) TestCreateFullTemplateAtMaximumPrices() {
	suite.expectPersisted(1)
	suite.expectRendered()
	lines := make([]models.BillLineRequest, 20)
	for i := range lines {
		lines[i] = lineReq(fmt.Sprintf("Item %02d", i), nil, 10000, "10000000.00")
	}

	bill, err := suite.service.Create(suite.ctx, suite.company.ID, suite.request(lines...))

	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), "2000000000000.00", bill.TotalAmount.StringFixed(2))
	assert.True(suite.T(), bill.TotalAmount.LessThanOrEqual(models.MaxBillTotal))
}

func (suite *BillServiceTestSuite) TestCreateRejectsTotalAboveColumnLimit() {
	suite.renderer.ExpectedCalls = nil
	suite.renderer.On("LineCapacity").Return(200000).Maybe()
	suite.companies.On("GetByID", mock.Anything, suite.company.ID).Return(suite.company, nil).Once()
	lines := make([]models.BillLineRequest, 100000)
	for i := range lines {
		lines[i] = lineReq(fmt.Sprintf("Item %06d", i), nil, 10000, "10000000.00")
	}
	req := suite.request(lines...)
	req.IncludeQR = true

	_, err := suite.service.Create(suite.ctx, suite.company.ID, req)

	require.Error(suite.T(), err)
	assert.True(suite.T(), errors.Is(err, common.ErrInvalidField))
	assert.Equal(suite.T(),
		fmt.Sprintf(common.MsgBillTotalTooLarge, "10000000000000000.00", "9999999999999999.99"),
		common.DisplayMessage(err))
	suite.payments.AssertNotCalled(suite.T(), "CreatePaymentLink", mock.Anything, mock.Anything, mock.Anything)
	assert.Equal(suite.T(), 0, suite.tx.runs)
}

func (suite *BillServiceTestSuite) TestCreateRejectsNonPositivePrice() {
	suite.companies.On("GetByID", mock.Anything, suite.company.ID).Return(suite.company, nil).Once()

	_, err := suite.service.Create(suite.ctx, suite.company.ID, suite.request(lineReq("Widget", nil, 1, "0")))

	require.Error(suite.T(), err)
	assert.True(suite.T(), errors.Is(err, common.ErrInvalidField))
}

func (suite *BillServiceTestSuite) TestCreateUnknownCompany() {
	suite.companies.On("GetByID", mock.Anything, suite.company.ID).
		Return(nil, common.NewError("no rows").Mark(common.ErrNotFound)).Once()

	_, err := suite.service.Create(suite.ctx, suite.company.ID, suite.request(lineReq("Widget", nil, 1, "1.00")))

	require.Error(suite.T(), err)
	assert.True(suite.T(), common.IsNotFound(err))
	assert.Equal(suite.T(), common.MsgCompanyNotFound, common.DisplayMessage(err))
}

func (suite *BillServiceTestSuite) TestCustomerResolvedCaseInsensitively() {
	var created *models.Customer
	suite.companies.On("GetByID", mock.Anything, suite.company.ID).Return(suite.company, nil).Twice()
	suite.customers.On("FindByName", mock.Anything, suite.company.ID, "Acme").Return(nil, nil).Once()
	suite.customers.On("Create", mock.Anything, mock.AnythingOfType("*models.Customer")).
		Run(func(args mock.Arguments) { created = args.Get(1).(*models.Customer) }).
		Return(nil).Once()
	suite.bills.On("NextBillNumber", mock.Anything, suite.company.ID).Return(int64(1), nil).Once()
	suite.bills.On("NextBillNumber", mock.Anything, suite.company.ID).Return(int64(2), nil).Once()
	suite.bills.On("Create", mock.Anything, mock.AnythingOfType("*models.Bill")).Return(nil).Twice()
	suite.products.On("FindByName", mock.Anything, suite.company.ID, mock.Anything).Return(nil, nil)
	suite.lines.On("Create", mock.Anything, mock.AnythingOfType("*models.BillLine")).Return(nil)
	suite.bills.On("UpdateStatus", mock.Anything, mock.Anything, models.BillStatusLinesAttached).Return(nil).Twice()
	suite.renderer.On("Render", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return([]byte("%PDF-1.7"), nil).Twice()
	suite.storage.On("UploadBillPDF", mock.Anything, mock.Anything, mock.Anything).Return(storedPDF, nil).Twice()
	suite.bills.On("AttachPDF", mock.Anything, mock.Anything, storedPDF).Return(nil).Twice()

	first, err := suite.service.Create(suite.ctx, suite.company.ID, suite.request(lineReq("Widget", nil, 1, "1.00")))
	require.NoError(suite.T(), err)
	require.NotNil(suite.T(), created)

	suite.customers.On("FindByName", mock.Anything, suite.company.ID, "ACME").Return(created, nil).Once()
	req := suite.request(lineReq("Widget", nil, 1, "1.00"))
	req.CustomerName = "ACME"
	second, err := suite.service.Create(suite.ctx, suite.company.ID, req)
	require.NoError(suite.T(), err)

	assert.Equal(suite.T(), created.ID, *first.CustomerID)
	assert.Equal(suite.T(), created.ID, *second.CustomerID)
	assert.Equal(suite.T(), int64(1), first.BillNumber)
	assert.Equal(suite.T(), int64(2), second.BillNumber)
	suite.customers.AssertNumberOfCalls(suite.T(), "Create", 1)
}

func (suite *BillServiceTestSuite) TestCreateWithQRSetsDueDate() {
	paymentURL := "https://www.mercadopago.com/checkout/v1/redirect?pref_id=123"
	suite.expectPersisted(7)
	suite.payments.On("CreatePaymentLink", mock.Anything, suite.company,
		mock.MatchedBy(func(d decimal.Decimal) bool { return d.Equal(decimal.RequireFromString("20")) })).
		Return(paymentURL, nil).Once()
	suite.qr.On("Encode", paymentURL).Return([]byte("qr-png"), nil).Once()
	suite.renderer.On("Render", mock.Anything, mock.Anything, mock.Anything, []byte("qr-png")).
		Return([]byte("%PDF-1.7"), nil).Once()
	suite.storage.On("UploadBillPDF", mock.Anything, mock.Anything, mock.Anything).Return(storedPDF, nil).Once()
	suite.bills.On("AttachPDF", mock.Anything, mock.Anything, storedPDF).Return(nil).Once()

	req := suite.request(lineReq("Widget", nil, 2, "10.00"))
	req.IncludeQR = true
	bill, err := suite.service.Create(suite.ctx, suite.company.ID, req)

	require.NoError(suite.T(), err)
	require.NotNil(suite.T(), bill.DueDate)
	assert.Equal(suite.T(), suite.now.AddDate(0, 0, 30), *bill.DueDate)
	assert.Equal(suite.T(), suite.now, bill.IssueDate)
	assert.Equal(suite.T(), paymentURL, *bill.PaymentURL)
	suite.payments.AssertExpectations(suite.T())
	suite.qr.AssertExpectations(suite.T())
}

func (suite *BillServiceTestSuite) TestCreatePaymentFailurePersistsNothing() {
	suite.companies.On("GetByID", mock.Anything, suite.company.ID).Return(suite.company, nil).Once()
	suite.payments.On("CreatePaymentLink", mock.Anything, suite.company, mock.Anything).
		Return("", common.NewError("upstream").WithHint(common.MsgPaymentGateway).Mark(common.ErrBadGateway)).Once()

	req := suite.request(lineReq("Widget", nil, 1, "10.00"))
	req.IncludeQR = true
	_, err := suite.service.Create(suite.ctx, suite.company.ID, req)

	require.Error(suite.T(), err)
	assert.Equal(suite.T(), 502, common.HTTPStatus(err))
	assert.Equal(suite.T(), 0, suite.tx.runs)
	suite.qr.AssertNotCalled(suite.T(), "Encode", mock.Anything)
}

func (suite *BillServiceTestSuite) TestCreateRenderFailureMarksBill() {
	suite.expectPersisted(1)
	suite.renderer.On("Render", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, errors.New("broken template")).Once()
	suite.bills.On("MarkFailed", mock.Anything, mock.Anything, models.BillStageRender,
		mock.MatchedBy(func(reason string) bool { return strings.Contains(reason, "broken template") })).
		Return(nil).Once()

	_, err := suite.service.Create(suite.ctx, suite.company.ID, suite.request(lineReq("Widget", nil, 1, "1.00")))

	require.Error(suite.T(), err)
	assert.Equal(suite.T(), 500, common.HTTPStatus(err))
	assert.Equal(suite.T(), common.MsgPDFGeneration, common.DisplayMessage(err))
	suite.storage.AssertNotCalled(suite.T(), "UploadBillPDF", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *BillServiceTestSuite) TestCreateSendsEmail() {
	suite.expectPersisted(1)
	suite.expectRendered()
	suite.storage.On("Download", mock.Anything, storedPDF).Return([]byte("%PDF-1.7"), nil).Once()
	suite.email.On("SendBill", mock.Anything, "jane@example.com", "Acme Supplies",
		"00000001_20240305_ABCDEF012345.pdf", []byte("%PDF-1.7")).Return(nil).Once()
	suite.bills.On("UpdateStatus", mock.Anything, mock.Anything, models.BillStatusDelivered).Return(nil).Once()

	req := suite.request(lineReq("Widget", nil, 1, "1.00"))
	req.SendEmail = true
	req.CustomerEmail = lo.ToPtr("jane@example.com")
	bill, err := suite.service.Create(suite.ctx, suite.company.ID, req)

	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), models.BillStatusDelivered, bill.Status)
}

func (suite *BillServiceTestSuite) TestCreateSkipsEmailWithoutAddress() {
	suite.expectPersisted(1)
	suite.expectRendered()

	req := suite.request(lineReq("Widget", nil, 1, "1.00"))
	req.SendEmail = true
	req.CustomerEmail = lo.ToPtr("   ")
	bill, err := suite.service.Create(suite.ctx, suite.company.ID, req)

	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), models.BillStatusRendered, bill.Status)
	suite.email.AssertNotCalled(suite.T(), "SendBill", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *BillServiceTestSuite) TestCreateEmailFailureMarksDelivery() {
	suite.expectPersisted(1)
	suite.expectRendered()
	suite.storage.On("Download", mock.Anything, storedPDF).Return([]byte("%PDF-1.7"), nil).Once()
	suite.email.On("SendBill", mock.Anything, "jane@example.com", mock.Anything, mock.Anything, mock.Anything).
		Return(common.NewError("smtp down").WithHint(common.MsgEmailDelivery).Mark(common.ErrInternal)).Once()
	suite.bills.On("MarkFailed", mock.Anything, mock.Anything, models.BillStageDelivery, mock.Anything).Return(nil).Once()

	req := suite.request(lineReq("Widget", nil, 1, "1.00"))
	req.SendEmail = true
	req.CustomerEmail = lo.ToPtr("jane@example.com")
	_, err := suite.service.Create(suite.ctx, suite.company.ID, req)

	require.Error(suite.T(), err)
	assert.Equal(suite.T(), common.MsgEmailDelivery, common.DisplayMessage(err))
	suite.bills.AssertNotCalled(suite.T(), "UpdateStatus", mock.Anything, mock.Anything, models.BillStatusDelivered)
}

func (suite *BillServiceTestSuite) TestCreateUsesCachedLogo() {
	suite.company.LogoPath = lo.ToPtr("logos/acme.png")
	suite.expectPersisted(1)
	suite.cache.On("GetLogo", mock.Anything, suite.company.ID).Return([]byte("logo"), nil).Once()
	suite.renderer.On("Render", mock.Anything, mock.Anything, []byte("logo"), mock.Anything).Return([]byte("%PDF-1.7"), nil).Once()
	suite.storage.On("UploadBillPDF", mock.Anything, mock.Anything, mock.Anything).Return(storedPDF, nil).Once()
	suite.bills.On("AttachPDF", mock.Anything, mock.Anything, storedPDF).Return(nil).Once()

	_, err := suite.service.Create(suite.ctx, suite.company.ID, suite.request(lineReq("Widget", nil, 1, "1.00")))

	require.NoError(suite.T(), err)
	suite.storage.AssertNotCalled(suite.T(), "Download", mock.Anything, "logos/acme.png")
}

func (suite *BillServiceTestSuite) TestGetByIDOfAnotherCompany() {
	billID := uuid.New()
	suite.bills.On("GetByID", mock.Anything, suite.company.ID, billID).
		Return(nil, common.NewError("owned by another company").WithHint(common.MsgAccessDeniedRead).Mark(common.ErrAccessDenied)).Once()

	_, err := suite.service.GetByID(suite.ctx, suite.company.ID, billID)

	require.Error(suite.T(), err)
	assert.True(suite.T(), common.IsAccessDenied(err))
	assert.False(suite.T(), common.IsNotFound(err))
}

func (suite *BillServiceTestSuite) TestGetByIDLoadsLines() {
	bill := &models.Bill{ID: uuid.New(), CompanyID: suite.company.ID}
	lines := []*models.BillLine{{ID: uuid.New(), BillID: bill.ID, Position: 1}}
	suite.bills.On("GetByID", mock.Anything, suite.company.ID, bill.ID).Return(bill, nil).Once()
	suite.lines.On("ListByBill", mock.Anything, bill.ID).Return(lines, nil).Once()

	got, err := suite.service.GetByID(suite.ctx, suite.company.ID, bill.ID)

	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), lines, got.Lines)
}

func (suite *BillServiceTestSuite) TestGetPDFWithoutDocument() {
	bill := &models.Bill{ID: uuid.New(), CompanyID: suite.company.ID}
	suite.bills.On("GetByID", mock.Anything, suite.company.ID, bill.ID).Return(bill, nil).Once()

	_, _, err := suite.service.GetPDF(suite.ctx, suite.company.ID, bill.ID)

	require.Error(suite.T(), err)
	assert.True(suite.T(), common.IsNotFound(err))
	assert.Equal(suite.T(), common.MsgPDFNotFound, common.DisplayMessage(err))
}

func (suite *BillServiceTestSuite) TestRetryFailedRenders() {
	paymentURL := "https://mp.test/init"
	failed := &models.Bill{ID: uuid.New(), CompanyID: suite.company.ID, PaymentURL: &paymentURL, Status: models.BillStatusFailed}
	broken := &models.Bill{ID: uuid.New(), CompanyID: suite.company.ID, Status: models.BillStatusFailed}
	lines := map[uuid.UUID][]*models.BillLine{failed.ID: {{ID: uuid.New(), Position: 1}}}

	suite.bills.On("ListFailed", mock.Anything, models.BillStageRender, 10).Return([]*models.Bill{failed, broken}, nil).Once()
	suite.lines.On("ListByBills", mock.Anything, []uuid.UUID{failed.ID, broken.ID}).Return(lines, nil).Once()
	suite.companies.On("GetByID", mock.Anything, suite.company.ID).Return(suite.company, nil).Once()
	suite.qr.On("Encode", paymentURL).Return([]byte("qr-png"), nil).Once()
	suite.renderer.On("Render", mock.Anything, failed, mock.Anything, []byte("qr-png")).Return([]byte("%PDF-1.7"), nil).Once()
	suite.renderer.On("Render", mock.Anything, broken, mock.Anything, mock.Anything).Return(nil, errors.New("still broken")).Once()
	suite.storage.On("UploadBillPDF", mock.Anything, failed, mock.Anything).Return(storedPDF, nil).Once()
	suite.bills.On("AttachPDF", mock.Anything, failed.ID, storedPDF).Return(nil).Once()
	suite.bills.On("MarkFailed", mock.Anything, broken.ID, models.BillStageRender, mock.Anything).Return(nil).Once()

	recovered, err := suite.service.RetryFailedRenders(suite.ctx, 10)

	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), 1, recovered)
	assert.Equal(suite.T(), models.BillStatusRendered, failed.Status)
	assert.Len(suite.T(), failed.Lines, 1)
	assert.Equal(suite.T(), models.BillStatusFailed, broken.Status)
}
