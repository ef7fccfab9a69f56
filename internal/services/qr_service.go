package services

import (
	"billdesk/internal/common"

	"github.com/skip2/go-qrcode"
)

// QRSize is the edge length in pixels of generated payment QR codes.
const QRSize = 200

type QRService interface {
	Encode(content string) ([]byte, error)
}

type qrService struct {
	size int
}

func NewQRService() QRService {
	return &qrService{size: QRSize}
}

// Encode returns a PNG of content with medium error correction.
func (s *qrService) Encode(content string) ([]byte, error) {
	png, err := qrcode.Encode(content, qrcode.Medium, s.size)
	if err != nil {
		return nil, common.WithError(err).
			WithMessage("encode qr").
			WithHint(common.MsgQRGeneration).
			Mark(common.ErrInternal)
	}
	return png, nil
}
