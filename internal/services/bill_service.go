package services

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"billdesk/internal/caching"
	"billdesk/internal/common"
	"billdesk/internal/logger"
	"billdesk/internal/models"
	"billdesk/internal/repositories"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

const logoCacheTTL = time.Hour

// BillRenderer fills the bill template. *pdf.Renderer implements it.
type BillRenderer interface {
	Render(ctx context.Context, bill *models.Bill, logo, qr []byte) ([]byte, error)
	LineCapacity() int
}

type BillService interface {
	Create(ctx context.Context, companyID uuid.UUID, req *models.CreateBillRequest) (*models.Bill, error)
	GetByID(ctx context.Context, companyID, id uuid.UUID) (*models.Bill, error)
	List(ctx context.Context, companyID uuid.UUID, limit, offset int) ([]*models.Bill, error)
	GetPDF(ctx context.Context, companyID, id uuid.UUID) ([]byte, string, error)
	GetPDFURL(ctx context.Context, companyID, id uuid.UUID) (string, error)
	RetryFailedRenders(ctx context.Context, limit int) (int, error)
}

type billService struct {
	store      *repositories.Store
	tx         repositories.TxRunner
	lines      BillLineBuilder
	renderer   BillRenderer
	storage    StorageService
	cache      caching.CacheService
	payments   PaymentLinkService
	qr         QRService
	email      EmailService
	presignTTL time.Duration
	log        *logger.Logger
	now        func() time.Time
}

func NewBillService(
	store *repositories.Store,
	tx repositories.TxRunner,
	lines BillLineBuilder,
	renderer BillRenderer,
	storage StorageService,
	cache caching.CacheService,
	payments PaymentLinkService,
	qr QRService,
	email EmailService,
	presignTTL time.Duration,
	log *logger.Logger,
) BillService {
	return &billService{
		store:      store,
		tx:         tx,
		lines:      lines,
		renderer:   renderer,
		storage:    storage,
		cache:      cache,
		payments:   payments,
		qr:         qr,
		email:      email,
		presignTTL: presignTTL,
		log:        log,
		now:        time.Now,
	}
}

// Create runs the bill saga. Validation and the payment link happen before
// anything is written; customer, number, bill and lines commit together;
// rendering and delivery then advance the status or mark the bill failed at
// their stage.
func (s *billService) Create(ctx context.Context, companyID uuid.UUID, req *models.CreateBillRequest) (*models.Bill, error) {
	company, err := s.store.Companies.GetByID(ctx, companyID)
	if err != nil {
		if common.IsNotFound(err) {
			return nil, common.WithError(err).WithHint(common.MsgCompanyNotFound).Mark(common.ErrNotFound)
		}
		return nil, err
	}

	if err := s.validateLines(ctx, companyID, req.Lines); err != nil {
		return nil, err
	}
	total := requestTotal(req.Lines)

	issued := s.now()
	bill := &models.Bill{
		ID:              uuid.New(),
		CompanyID:       companyID,
		IssueDate:       issued,
		TotalAmount:     total,
		CompanyName:     company.Name,
		CompanyEmail:    common.OptionalString(&company.Email),
		CompanyAddress:  company.Address,
		CustomerName:    strings.TrimSpace(req.CustomerName),
		CustomerEmail:   common.OptionalString(req.CustomerEmail),
		CustomerAddress: common.OptionalString(req.CustomerAddress),
		Status:          models.BillStatusDraft,
	}

	var qr []byte
	if req.IncludeQR {
		paymentURL, err := s.payments.CreatePaymentLink(ctx, company, total)
		if err != nil {
			return nil, err
		}
		if qr, err = s.qr.Encode(paymentURL); err != nil {
			return nil, err
		}
		due := issued.AddDate(0, 0, models.PaymentDueDays)
		bill.DueDate = &due
		bill.PaymentURL = &paymentURL
	}

	err = s.tx.RunInTx(ctx, func(store *repositories.Store) error {
		customer, err := resolveCustomer(ctx, store.Customers, companyID, req.CustomerName, req.CustomerAddress, req.CustomerEmail)
		if err != nil {
			return err
		}
		bill.CustomerID = &customer.ID

		if bill.BillNumber, err = store.Bills.NextBillNumber(ctx, companyID); err != nil {
			return err
		}
		if err := store.Bills.Create(ctx, bill); err != nil {
			return err
		}

		bill.Lines = make([]*models.BillLine, 0, len(req.Lines))
		for i, lineReq := range req.Lines {
			line, err := s.lines.Build(ctx, store, bill, i+1, lineReq)
			if err != nil {
				return err
			}
			bill.Lines = append(bill.Lines, line)
		}
		if !bill.LinesTotal().Equal(bill.TotalAmount) {
			return common.NewError(fmt.Sprintf("bill total %s differs from line sum %s", bill.TotalAmount, bill.LinesTotal())).
				Mark(common.ErrInternal)
		}

		if err := store.Bills.UpdateStatus(ctx, bill.ID, models.BillStatusLinesAttached); err != nil {
			return err
		}
		bill.Status = models.BillStatusLinesAttached
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Infow("Bill created", "company_id", companyID, "bill_id", bill.ID, "bill_number", bill.BillNumber)

	if err := s.renderAndStore(ctx, company, bill, qr); err != nil {
		return nil, err
	}

	if req.SendEmail && bill.CustomerEmail != nil {
		if err := s.deliver(ctx, bill); err != nil {
			return nil, err
		}
	}
	return bill, nil
}

// validateLines rejects, in request order, invalid pricing, repeated names,
// repeated codes and codes the catalog assigns to a differently named product,
// then a total the bills table cannot store.
func (s *billService) validateLines(ctx context.Context, companyID uuid.UUID, lines []models.BillLineRequest) error {
	if len(lines) == 0 {
		return common.NewError("bill without lines").
			WithHint("A bill needs at least one line").
			Mark(common.ErrInvalidField)
	}
	if capacity := s.renderer.LineCapacity(); len(lines) > capacity {
		return common.NewError("template capacity exceeded").
			WithHintf(common.MsgTemplateCapacityExceeded, len(lines), capacity).
			Mark(common.ErrInvalidField)
	}

	names := make(map[string]struct{}, len(lines))
	codes := make(map[string]struct{}, len(lines))
	for _, line := range lines {
		if err := checkLinePricing(line.Price, line.Quantity); err != nil {
			return err
		}

		name := strings.TrimSpace(line.Name)
		if name == "" {
			return common.NewError("blank line name").
				WithHint("Product name is required").
				Mark(common.ErrInvalidField)
		}
		if _, dup := names[strings.ToLower(name)]; dup {
			return common.NewError("duplicate line name").
				WithHint(common.MsgDuplicateLineName).
				Mark(common.ErrInvalidField)
		}
		names[strings.ToLower(name)] = struct{}{}

		code := common.OptionalString(line.Code)
		if code == nil {
			continue
		}
		if _, dup := codes[strings.ToLower(*code)]; dup {
			return common.NewError("duplicate line code").
				WithHint(common.MsgDuplicateLineCode).
				Mark(common.ErrInvalidField)
		}
		codes[strings.ToLower(*code)] = struct{}{}

		product, err := s.store.Products.FindByCode(ctx, companyID, *code)
		if err != nil {
			return err
		}
		if product != nil && !strings.EqualFold(product.Name, name) {
			return common.NewError("code assigned to another product").
				WithHintf(common.MsgCodeAssigned, *code, product.Name).
				Mark(common.ErrResourceConflict)
		}
	}

	if total := requestTotal(lines); total.GreaterThan(models.MaxBillTotal) {
		return common.NewError("bill total too large").
			WithHintf(common.MsgBillTotalTooLarge, total.StringFixed(2), models.MaxBillTotal.StringFixed(2)).
			Mark(common.ErrInvalidField)
	}
	return nil
}

func requestTotal(lines []models.BillLineRequest) decimal.Decimal {
	return lo.Reduce(lines, func(total decimal.Decimal, line models.BillLineRequest, _ int) decimal.Decimal {
		return total.Add(models.LineTotal(line.Price, line.Quantity))
	}, decimal.Zero)
}

// renderAndStore renders the bill, uploads it and records the object name.
func (s *billService) renderAndStore(ctx context.Context, company *models.Company, bill *models.Bill, qr []byte) error {
	doc, err := s.renderer.Render(ctx, bill, s.logo(ctx, company), qr)
	if err != nil {
		return s.fail(ctx, bill, models.BillStageRender, common.WithError(err).
			WithMessagef("render bill %s", bill.ID).
			WithHint(common.MsgPDFGeneration).
			Mark(common.ErrInternal))
	}

	objectName, err := s.storage.UploadBillPDF(ctx, bill, doc)
	if err != nil {
		return s.fail(ctx, bill, models.BillStageRender, err)
	}
	if err := s.store.Bills.AttachPDF(ctx, bill.ID, objectName); err != nil {
		return s.fail(ctx, bill, models.BillStageRender, err)
	}

	bill.PDFPath = &objectName
	bill.Status = models.BillStatusRendered
	bill.FailedStage = nil
	bill.FailureReason = nil
	s.log.Infow("Bill rendered", "bill_id", bill.ID, "pdf_path", objectName)
	return nil
}

// deliver mails the stored PDF to the customer.
func (s *billService) deliver(ctx context.Context, bill *models.Bill) error {
	doc, err := s.storage.Download(ctx, *bill.PDFPath)
	if err != nil {
		return s.fail(ctx, bill, models.BillStageDelivery, common.NewError(fmt.Sprintf("fetch %s: %v", *bill.PDFPath, err)).
			WithHint(common.MsgEmailDelivery).
			Mark(common.ErrInternal))
	}

	filename := path.Base(*bill.PDFPath)
	if err := s.email.SendBill(ctx, *bill.CustomerEmail, bill.CompanyName, filename, doc); err != nil {
		return s.fail(ctx, bill, models.BillStageDelivery, err)
	}

	if err := s.store.Bills.UpdateStatus(ctx, bill.ID, models.BillStatusDelivered); err != nil {
		return err
	}
	bill.Status = models.BillStatusDelivered
	s.log.Infow("Bill delivered", "bill_id", bill.ID, "to", *bill.CustomerEmail)
	return nil
}

// fail records the failed stage and returns cause unchanged.
func (s *billService) fail(ctx context.Context, bill *models.Bill, stage models.BillStage, cause error) error {
	reason := cause.Error()
	if err := s.store.Bills.MarkFailed(context.WithoutCancel(ctx), bill.ID, stage, reason); err != nil {
		s.log.Errorw("Failed to mark bill as failed", "bill_id", bill.ID, "stage", stage, "error", err)
	}
	bill.Status = models.BillStatusFailed
	bill.FailedStage = &stage
	bill.FailureReason = &reason
	s.log.Errorw("Bill stage failed", "bill_id", bill.ID, "bill_number", bill.BillNumber, "stage", stage, "error", cause)
	return cause
}

// logo returns the company logo bytes or nil. Failures only cost the logo.
func (s *billService) logo(ctx context.Context, company *models.Company) []byte {
	if company.LogoPath == nil {
		return nil
	}
	data, err := s.cache.GetLogo(ctx, company.ID)
	if err != nil {
		s.log.Warnw("Logo cache read failed", "company_id", company.ID, "error", err)
	}
	if data != nil {
		return data
	}

	data, err = s.storage.Download(ctx, *company.LogoPath)
	if err != nil {
		s.log.Warnw("Logo download failed, rendering without logo", "company_id", company.ID, "error", err)
		return nil
	}
	if err := s.cache.SetLogo(ctx, company.ID, data, logoCacheTTL); err != nil {
		s.log.Warnw("Logo cache write failed", "company_id", company.ID, "error", err)
	}
	return data
}

func (s *billService) GetByID(ctx context.Context, companyID, id uuid.UUID) (*models.Bill, error) {
	bill, err := s.store.Bills.GetByID(ctx, companyID, id)
	if err != nil {
		if common.IsNotFound(err) {
			return nil, common.WithError(err).WithHint(common.MsgBillNotFound).Mark(common.ErrNotFound)
		}
		return nil, err
	}
	if bill.Lines, err = s.store.BillLines.ListByBill(ctx, bill.ID); err != nil {
		return nil, err
	}
	return bill, nil
}

func (s *billService) List(ctx context.Context, companyID uuid.UUID, limit, offset int) ([]*models.Bill, error) {
	bills, err := s.store.Bills.List(ctx, companyID, limit, offset)
	if err != nil {
		return nil, err
	}
	lines, err := s.store.BillLines.ListByBills(ctx, lo.Map(bills, func(b *models.Bill, _ int) uuid.UUID { return b.ID }))
	if err != nil {
		return nil, err
	}
	for _, bill := range bills {
		bill.Lines = lines[bill.ID]
	}
	return bills, nil
}

func (s *billService) pdfPath(ctx context.Context, companyID, id uuid.UUID) (string, error) {
	bill, err := s.store.Bills.GetByID(ctx, companyID, id)
	if err != nil {
		if common.IsNotFound(err) {
			return "", common.WithError(err).WithHint(common.MsgBillNotFound).Mark(common.ErrNotFound)
		}
		return "", err
	}
	if bill.PDFPath == nil {
		return "", common.NewError("bill has no pdf").
			WithHint(common.MsgPDFNotFound).
			Mark(common.ErrNotFound)
	}
	return *bill.PDFPath, nil
}

// GetPDF returns the stored document and its file name.
func (s *billService) GetPDF(ctx context.Context, companyID, id uuid.UUID) ([]byte, string, error) {
	objectName, err := s.pdfPath(ctx, companyID, id)
	if err != nil {
		return nil, "", err
	}
	doc, err := s.storage.Download(ctx, objectName)
	if err != nil {
		return nil, "", err
	}
	return doc, path.Base(objectName), nil
}

func (s *billService) GetPDFURL(ctx context.Context, companyID, id uuid.UUID) (string, error) {
	objectName, err := s.pdfPath(ctx, companyID, id)
	if err != nil {
		return "", err
	}
	return s.storage.GetPresignedURL(ctx, objectName, s.presignTTL)
}

// RetryFailedRenders re-renders up to limit bills that failed at the render
// stage and returns how many now have a PDF. The QR is rebuilt from the stored
// payment URL so no new payment link is created.
func (s *billService) RetryFailedRenders(ctx context.Context, limit int) (int, error) {
	bills, err := s.store.Bills.ListFailed(ctx, models.BillStageRender, limit)
	if err != nil {
		return 0, err
	}
	if len(bills) == 0 {
		return 0, nil
	}
	lines, err := s.store.BillLines.ListByBills(ctx, lo.Map(bills, func(b *models.Bill, _ int) uuid.UUID { return b.ID }))
	if err != nil {
		return 0, err
	}

	companies := make(map[uuid.UUID]*models.Company)
	recovered := 0
	for _, bill := range bills {
		if ctx.Err() != nil {
			return recovered, ctx.Err()
		}
		bill.Lines = lines[bill.ID]

		company, ok := companies[bill.CompanyID]
		if !ok {
			if company, err = s.store.Companies.GetByID(ctx, bill.CompanyID); err != nil {
				s.log.Errorw("Skipping bill recovery, company lookup failed", "bill_id", bill.ID, "error", err)
				continue
			}
			companies[bill.CompanyID] = company
		}

		var qr []byte
		if bill.PaymentURL != nil {
			if qr, err = s.qr.Encode(*bill.PaymentURL); err != nil {
				s.log.Errorw("Skipping bill recovery, QR encoding failed", "bill_id", bill.ID, "error", err)
				continue
			}
		}
		if err := s.renderAndStore(ctx, company, bill, qr); err != nil {
			continue
		}
		recovered++
	}
	return recovered, nil
}
