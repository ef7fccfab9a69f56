package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"billdesk/internal/common"
	"billdesk/internal/config"
	"billdesk/internal/httpclient"

	"github.com/shopspring/decimal"
)

// MercadoPagoService talks to the MercadoPago OAuth and checkout APIs.
type MercadoPagoService interface {
	AuthorizationURL(state string) string
	ExchangeCode(ctx context.Context, code string) (*OAuthToken, error)
	RefreshToken(ctx context.Context, refreshToken string) (*OAuthToken, error)
	CreatePreference(ctx context.Context, accessToken, title string, amount decimal.Decimal) (string, error)
}

type OAuthToken struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

func (t *OAuthToken) Lifetime() time.Duration {
	return time.Duration(t.ExpiresIn) * time.Second
}

type preferenceItem struct {
	Title     string      `json:"title"`
	Quantity  int         `json:"quantity"`
	UnitPrice json.Number `json:"unit_price"`
}

type preferenceRequest struct {
	Items []preferenceItem `json:"items"`
}

type preferenceResponse struct {
	ID        string `json:"id"`
	InitPoint string `json:"init_point"`
}

type mercadoPagoService struct {
	cfg    config.MercadoPagoConfig
	client httpclient.Client
}

func NewMercadoPagoService(cfg config.MercadoPagoConfig, client httpclient.Client) MercadoPagoService {
	return &mercadoPagoService{cfg: cfg, client: client}
}

func (s *mercadoPagoService) AuthorizationURL(state string) string {
	q := url.Values{}
	q.Set("client_id", s.cfg.ClientID)
	q.Set("response_type", "code")
	q.Set("platform_id", "mp")
	q.Set("state", state)
	q.Set("redirect_uri", s.cfg.RedirectURI)
	return s.cfg.AuthURL + "?" + q.Encode()
}

func (s *mercadoPagoService) ExchangeCode(ctx context.Context, code string) (*OAuthToken, error) {
	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("client_id", s.cfg.ClientID)
	form.Set("client_secret", s.cfg.ClientSecret)
	form.Set("code", code)
	form.Set("redirect_uri", s.cfg.RedirectURI)
	return s.token(ctx, form)
}

func (s *mercadoPagoService) RefreshToken(ctx context.Context, refreshToken string) (*OAuthToken, error) {
	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("client_id", s.cfg.ClientID)
	form.Set("client_secret", s.cfg.ClientSecret)
	form.Set("refresh_token", refreshToken)
	return s.token(ctx, form)
}

func (s *mercadoPagoService) token(ctx context.Context, form url.Values) (*OAuthToken, error) {
	resp, err := s.client.Send(ctx, &httpclient.Request{
		Method: http.MethodPost,
		URL:    strings.TrimSuffix(s.cfg.APIURL, "/") + "/oauth/token",
		Headers: map[string]string{
			"Content-Type": "application/x-www-form-urlencoded",
			"Accept":       "application/json",
		},
		Body: []byte(form.Encode()),
	})
	if err != nil {
		return nil, common.WithError(err).
			WithMessage("mercadopago token request").
			WithHint("Could not obtain MercadoPago credentials").
			Mark(common.ErrBadGateway)
	}

	var tok OAuthToken
	if err := json.Unmarshal(resp.Body, &tok); err != nil {
		return nil, common.WithError(err).
			WithMessage("decode mercadopago token").
			WithHint("Could not obtain MercadoPago credentials").
			Mark(common.ErrBadGateway)
	}
	if tok.AccessToken == "" || tok.RefreshToken == "" || tok.ExpiresIn <= 0 {
		return nil, common.NewError("incomplete mercadopago token response").
			WithHint("Could not obtain MercadoPago credentials").
			Mark(common.ErrBadGateway)
	}
	return &tok, nil
}

// CreatePreference creates a one-item checkout preference and returns its
// init_point URL.
func (s *mercadoPagoService) CreatePreference(ctx context.Context, accessToken, title string, amount decimal.Decimal) (string, error) {
	body, err := json.Marshal(preferenceRequest{
		Items: []preferenceItem{{
			Title:     title,
			Quantity:  1,
			UnitPrice: json.Number(amount.StringFixed(2)),
		}},
	})
	if err != nil {
		return "", common.WithError(err).Mark(common.ErrInternal)
	}

	resp, err := s.client.Send(ctx, &httpclient.Request{
		Method: http.MethodPost,
		URL:    strings.TrimSuffix(s.cfg.APIURL, "/") + "/checkout/preferences",
		Headers: map[string]string{
			"Authorization": "Bearer " + accessToken,
			"Accept":        "application/json",
		},
		Body: body,
	})
	if err != nil {
		return "", common.WithError(err).
			WithMessage("mercadopago preference request").
			WithHint(common.MsgPaymentGateway).
			Mark(common.ErrBadGateway)
	}

	var pref preferenceResponse
	if err := json.Unmarshal(resp.Body, &pref); err != nil || pref.InitPoint == "" {
		return "", common.NewError("mercadopago preference without init_point").
			WithHint(common.MsgPaymentGateway).
			Mark(common.ErrBadGateway)
	}
	return pref.InitPoint, nil
}
