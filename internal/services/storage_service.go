package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"billdesk/internal/common"
	"billdesk/internal/models"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const pdfContentType = "application/pdf"

// StorageService keeps rendered bills and company logos in an S3 compatible bucket.
type StorageService interface {
	UploadBillPDF(ctx context.Context, bill *models.Bill, data []byte) (string, error)
	UploadLogo(ctx context.Context, companyID uuid.UUID, contentType string, data []byte) (string, error)
	Download(ctx context.Context, objectName string) ([]byte, error)
	GetPresignedURL(ctx context.Context, objectName string, expiry time.Duration) (string, error)
	Delete(ctx context.Context, objectName string) error
	EnsureBucketExists(ctx context.Context) error
}

type minioStorage struct {
	client *minio.Client
	bucket string
}

func NewStorageService(endpoint, accessKey, secretKey, bucket string, useSSL bool) (StorageService, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, err
	}
	return &minioStorage{client: client, bucket: bucket}, nil
}

// BillPDFName is bills/<company>/<number>_<yyyymmdd>_<suffix>.pdf where the
// suffix is the last group of a random UUID.
func BillPDFName(bill *models.Bill) string {
	id := uuid.NewString()
	suffix := strings.ToUpper(id[strings.LastIndex(id, "-")+1:])
	return fmt.Sprintf("bills/%s/%08d_%s_%s.pdf", bill.CompanyID, bill.BillNumber, bill.IssueDate.Format("20060102"), suffix)
}

func logoExtension(contentType string) (string, bool) {
	switch contentType {
	case "image/png":
		return "png", true
	case "image/jpeg":
		return "jpg", true
	}
	return "", false
}

func (m *minioStorage) put(ctx context.Context, objectName, contentType string, data []byte) error {
	_, err := m.client.PutObject(ctx, m.bucket, objectName, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return common.WithError(err).
			WithMessagef("upload %s", objectName).
			Mark(common.ErrInternal)
	}
	return nil
}

func (m *minioStorage) UploadBillPDF(ctx context.Context, bill *models.Bill, data []byte) (string, error) {
	name := BillPDFName(bill)
	if err := m.put(ctx, name, pdfContentType, data); err != nil {
		return "", err
	}
	return name, nil
}

func (m *minioStorage) UploadLogo(ctx context.Context, companyID uuid.UUID, contentType string, data []byte) (string, error) {
	ext, ok := logoExtension(contentType)
	if !ok {
		return "", common.NewError("unsupported logo type").
			WithHint("The logo must be a PNG or JPEG image").
			Mark(common.ErrInvalidField)
	}
	name := fmt.Sprintf("logos/%s/%s.%s", companyID, uuid.NewString(), ext)
	if err := m.put(ctx, name, contentType, data); err != nil {
		return "", err
	}
	return name, nil
}

func (m *minioStorage) Download(ctx context.Context, objectName string) ([]byte, error) {
	obj, err := m.client.GetObject(ctx, m.bucket, objectName, minio.GetObjectOptions{})
	if err != nil {
		return nil, common.WithError(err).WithMessagef("download %s", objectName).Mark(common.ErrInternal)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, common.WithError(err).
				WithHint(common.MsgPDFNotFound).
				Mark(common.ErrNotFound)
		}
		return nil, common.WithError(err).WithMessagef("download %s", objectName).Mark(common.ErrInternal)
	}
	return data, nil
}

func (m *minioStorage) GetPresignedURL(ctx context.Context, objectName string, expiry time.Duration) (string, error) {
	url, err := m.client.PresignedGetObject(ctx, m.bucket, objectName, expiry, nil)
	if err != nil {
		return "", common.WithError(err).WithMessagef("presign %s", objectName).Mark(common.ErrInternal)
	}
	return url.String(), nil
}

func (m *minioStorage) Delete(ctx context.Context, objectName string) error {
	return m.client.RemoveObject(ctx, m.bucket, objectName, minio.RemoveObjectOptions{})
}

func (m *minioStorage) EnsureBucketExists(ctx context.Context) error {
	found, err := m.client.BucketExists(ctx, m.bucket)
	if err != nil {
		return err
	}
	if !found {
		return m.client.MakeBucket(ctx, m.bucket, minio.MakeBucketOptions{})
	}
	return nil
}
