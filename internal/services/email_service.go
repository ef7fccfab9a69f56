package services

import (
	"context"
	"fmt"
	"html"
	"io"
	"net/url"

	"billdesk/internal/common"
	"billdesk/internal/config"
	"billdesk/internal/logger"

	"gopkg.in/gomail.v2"
)

// EmailService delivers rendered bills and account mails over SMTP.
type EmailService interface {
	SendBill(ctx context.Context, to, companyName, filename string, pdf []byte) error
	SendVerification(ctx context.Context, to, companyName, verifyURL string) error
}

// mailer is the part of *gomail.Dialer the service needs.
type mailer interface {
	DialAndSend(m ...*gomail.Message) error
}

type emailService struct {
	mailer  mailer
	from    string
	enabled bool
	log     *logger.Logger
}

func NewEmailService(cfg config.SMTPConfig, log *logger.Logger) EmailService {
	return &emailService{
		mailer:  gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:    cfg.From,
		enabled: cfg.Enabled,
		log:     log,
	}
}

func newEmailServiceWithMailer(m mailer, from string, log *logger.Logger) EmailService {
	return &emailService{mailer: m, from: from, enabled: true, log: log}
}

func (s *emailService) send(ctx context.Context, m *gomail.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !s.enabled {
		s.log.Debugw("SMTP disabled, dropping email", "to", m.GetHeader("To"), "subject", m.GetHeader("Subject"))
		return nil
	}
	return s.mailer.DialAndSend(m)
}

// SendBill mails the PDF as an attachment. The send is synchronous and not retried.
func (s *emailService) SendBill(ctx context.Context, to, companyName, filename string, pdf []byte) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", "Invoice from "+companyName)
	m.SetBody("text/plain", "PDF: "+filename)
	m.Attach(filename,
		gomail.SetCopyFunc(func(w io.Writer) error {
			_, err := w.Write(pdf)
			return err
		}),
		gomail.SetHeader(map[string][]string{"Content-Type": {pdfContentType}}),
	)

	if err := s.send(ctx, m); err != nil {
		return common.WithError(err).
			WithMessagef("send bill %s", filename).
			WithHint(common.MsgEmailDelivery).
			Mark(common.ErrInternal)
	}
	return nil
}

func (s *emailService) SendVerification(ctx context.Context, to, companyName, verifyURL string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", "Verify your account")
	m.SetBody("text/html", fmt.Sprintf(
		`<p>Hello %s,</p><p>Confirm your email address by following <a href="%s">this link</a>.</p>`,
		html.EscapeString(companyName), html.EscapeString(verifyURL)))

	if err := s.send(ctx, m); err != nil {
		return common.WithError(err).
			WithMessage("send verification email").
			Mark(common.ErrInternal)
	}
	return nil
}

// VerificationURL is the public link embedded in the verification email.
func VerificationURL(publicURL, token string) string {
	return publicURL + "/auth/verify?token=" + url.QueryEscape(token)
}
