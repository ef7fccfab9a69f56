package common

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/cockroachdb/errors"
)

// Sentinel kinds. Errors returned by repositories and services are marked
// with exactly one of these so handlers can map them to a status code.
var (
	ErrNotFound         = errors.New("not found")
	ErrAccessDenied     = errors.New("access denied")
	ErrInvalidField     = errors.New("invalid field")
	ErrValidation       = errors.New("validation error")
	ErrResourceConflict = errors.New("resource conflict")
	ErrBadCredentials   = errors.New("bad credentials")
	ErrUnprocessable    = errors.New("unprocessable entity")
	ErrBadGateway       = errors.New("bad gateway")
	ErrInternal         = errors.New("internal server error")
)

type errorKind struct {
	sentinel error
	status   int
	code     string
}

// ordered: a more specific kind must be checked before ErrInternal
var errorKinds = []errorKind{
	{ErrNotFound, http.StatusNotFound, "NOT_FOUND"},
	{ErrAccessDenied, http.StatusForbidden, "ACCESS_DENIED"},
	{ErrValidation, http.StatusBadRequest, "VALIDATION_ERROR"},
	{ErrInvalidField, http.StatusBadRequest, "INVALID_FIELD"},
	{ErrResourceConflict, http.StatusConflict, "RESOURCE_CONFLICT"},
	{ErrBadCredentials, http.StatusUnauthorized, "BAD_CREDENTIALS"},
	{ErrUnprocessable, http.StatusUnprocessableEntity, "UNPROCESSABLE"},
	{ErrBadGateway, http.StatusBadGateway, "BAD_GATEWAY"},
	{ErrInternal, http.StatusInternalServerError, "SERVER_ERROR"},
}

// User-facing messages for the named failures of the bill pipeline.
const (
	MsgCompanyNotFound          = "Company not found"
	MsgBillNotFound             = "Bill not found"
	MsgBillLineNotFound         = "Bill line not found"
	MsgCustomerNotFound         = "Customer not found"
	MsgProductNotFound          = "Product not found"
	MsgPDFNotFound              = "PDF not found"
	MsgAccessDeniedRead         = "You do not have permission to read this resource"
	MsgAccessDeniedUpdate       = "You do not have permission to update this resource"
	MsgAccessDeniedDelete       = "You do not have permission to delete this resource"
	MsgDuplicateLineName        = "Duplicate product in bill"
	MsgDuplicateLineCode        = "Duplicate code in bill"
	MsgCodeAssigned             = "Code %s is already in use, assigned to: %s"
	MsgCustomerExists           = "A customer with that name already exists"
	MsgProductExists            = "A product with that name already exists"
	MsgProductCodeExists        = "A product with that code already exists"
	MsgTemplateCapacityExceeded = "The bill has %d lines, the template supports at most %d"
	MsgBillTotalTooLarge        = "The bill total %s exceeds the maximum of %s"
	MsgPaymentNotLinked         = "The company is not linked to MercadoPago"
	MsgPaymentGateway           = "Could not create the payment link"
	MsgQRGeneration             = "Could not generate the QR code"
	MsgPDFGeneration            = "Could not generate the bill PDF"
	MsgEmailDelivery            = "The bill was created but the email could not be sent"
)

// ErrorBuilder chains context onto an error. Mark must be the last call.
type ErrorBuilder struct {
	err error
}

// NewError starts a builder from a fresh internal message.
func NewError(msg string) *ErrorBuilder {
	return &ErrorBuilder{err: errors.New(msg)}
}

// WithError starts a builder from an existing error.
func WithError(err error) *ErrorBuilder {
	return &ErrorBuilder{err: err}
}

// WithMessage adds internal context, never shown to clients.
func (b *ErrorBuilder) WithMessage(msg string) *ErrorBuilder {
	b.err = errors.WithMessage(b.err, msg)
	return b
}

func (b *ErrorBuilder) WithMessagef(format string, args ...any) *ErrorBuilder {
	b.err = errors.WithMessagef(b.err, format, args...)
	return b
}

// WithHint sets the message shown to clients.
func (b *ErrorBuilder) WithHint(hint string) *ErrorBuilder {
	b.err = errors.WithHint(b.err, hint)
	return b
}

func (b *ErrorBuilder) WithHintf(format string, args ...any) *ErrorBuilder {
	b.err = errors.WithHintf(b.err, format, args...)
	return b
}

// WithDetails attaches a field → message map rendered in the error envelope.
func (b *ErrorBuilder) WithDetails(details map[string]string) *ErrorBuilder {
	marshaled, err := json.Marshal(details)
	if err != nil {
		return b
	}
	b.err = errors.WithSafeDetails(b.err, "__json__:%s", errors.Safe(string(marshaled)))
	return b
}

func (b *ErrorBuilder) Mark(reference error) error {
	b.err = errors.Mark(b.err, reference)
	return b.err
}

func IsNotFound(err error) bool     { return errors.Is(err, ErrNotFound) }
func IsAccessDenied(err error) bool { return errors.Is(err, ErrAccessDenied) }
func IsConflict(err error) bool     { return errors.Is(err, ErrResourceConflict) }

// HTTPStatus maps a marked error to its status code, 500 when unmarked.
func HTTPStatus(err error) int {
	return kindOf(err).status
}

func kindOf(err error) errorKind {
	for _, k := range errorKinds {
		if errors.Is(err, k.sentinel) {
			return k
		}
	}
	return errorKinds[len(errorKinds)-1]
}

// DisplayMessage returns the first non-empty hint of err.
func DisplayMessage(err error) string {
	for _, hint := range errors.GetAllHints(err) {
		if hint = strings.TrimSpace(hint); hint != "" {
			return hint
		}
	}
	return "An unexpected error occurred"
}

// ErrorDetails collects every map attached with WithDetails.
func ErrorDetails(err error) map[string]string {
	var details map[string]string
	for _, sdp := range errors.GetAllSafeDetails(err) {
		for _, payload := range sdp.SafeDetails {
			jsonStr, ok := strings.CutPrefix(payload, "__json__:")
			if !ok {
				continue
			}
			var m map[string]string
			if json.Unmarshal([]byte(jsonStr), &m) != nil {
				continue
			}
			if details == nil {
				details = make(map[string]string, len(m))
			}
			for k, v := range m {
				details[k] = v
			}
		}
	}
	return details
}
