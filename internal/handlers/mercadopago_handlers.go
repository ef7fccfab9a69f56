package handlers

import (
	"net/http"

	"billdesk/internal/common"
	"billdesk/internal/logger"
	"billdesk/internal/services"

	"github.com/labstack/echo/v4"
)

// linkedPage tells the opener window that the account was linked, then closes itself.
const linkedPage = `<html>
<body>
<script>
if (window.opener) {
	window.opener.postMessage({ mpLinked: true }, "*");
}
window.close();
</script>
</body>
</html>`

// MercadoPagoHandlers links a company's MercadoPago account over OAuth.
type MercadoPagoHandlers struct {
	payments services.PaymentLinkService
	log      *logger.Logger
}

func NewMercadoPagoHandlers(payments services.PaymentLinkService, log *logger.Logger) *MercadoPagoHandlers {
	return &MercadoPagoHandlers{payments: payments, log: log}
}

// Connect handles GET /mp/connect
func (h *MercadoPagoHandlers) Connect(c echo.Context) error {
	companyID, ok := companyFromContext(c)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	link, err := h.payments.ConnectURL(c.Request().Context(), companyID)
	if err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"url": link})
}

// Callback handles GET /mp/callback. It is public: the signed state carries the company.
func (h *MercadoPagoHandlers) Callback(c echo.Context) error {
	code := c.QueryParam("code")
	state := c.QueryParam("state")
	if code == "" || state == "" {
		return common.SendClientError(c, "code and state are required")
	}

	companyID, err := h.payments.CompleteConnect(c.Request().Context(), state, code)
	if err != nil {
		h.log.Warnw("MercadoPago callback failed", "error", err)
		return common.SendError(c, err)
	}
	h.log.Infow("MercadoPago account linked", "company_id", companyID)
	return c.HTML(http.StatusOK, linkedPage)
}
