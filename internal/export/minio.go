// Package export writes complaint tables to MinIO and hands out presigned download links.
package export

import (
	"bytes"
	"civicdesk/backend/internal/config"
	"civicdesk/backend/internal/models"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// ObjectStore is the part of *minio.Client the exporter uses.
type ObjectStore interface {
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	PresignedGetObject(ctx context.Context, bucketName, objectName string, expires time.Duration, reqParams url.Values) (*url.URL, error)
}

// Header is the first row of every export.
var Header = []string{
	"id", "category", "severity", "status", "priorityScore", "supporters",
	"userName", "description", "createdAt", "resolvedAt", "resolvedBy",
	"latitude", "longitude",
}

// CSVExporter uploads complaint tables to one bucket.
type CSVExporter struct {
	Store  ObjectStore
	Bucket string
	Expiry time.Duration

	mu    sync.Mutex
	ready bool
}

// NewMinioClient connects to a MinIO or S3 endpoint with static credentials.
func NewMinioClient(endpoint, accessKey, secretKey string, useSSL bool) (*minio.Client, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}
	return client, nil
}

// NewCSVExporter returns an exporter whose links expire after config.ExportURLExpiry.
func NewCSVExporter(store ObjectStore, bucket string) *CSVExporter {
	return &CSVExporter{Store: store, Bucket: bucket, Expiry: config.ExportURLExpiry}
}

// ExportCSV uploads complaints as name and returns a presigned GET URL.
func (e *CSVExporter) ExportCSV(ctx context.Context, name string, complaints []models.Complaint) (string, error) {
	if err := e.ensureBucket(ctx); err != nil {
		return "", err
	}

	data, err := Encode(complaints)
	if err != nil {
		return "", err
	}

	_, err = e.Store.PutObject(ctx, e.Bucket, name, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType:        "text/csv; charset=utf-8",
		ContentDisposition: fmt.Sprintf("attachment; filename=%q", name),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", name, err)
	}

	link, err := e.Store.PresignedGetObject(ctx, e.Bucket, name, e.Expiry, nil)
	if err != nil {
		return "", fmt.Errorf("failed to presign %s: %w", name, err)
	}
	return link.String(), nil
}

// ensureBucket creates the bucket on first use. A failure is retried by the next export.
func (e *CSVExporter) ensureBucket(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.ready {
		return nil
	}

	exists, err := e.Store.BucketExists(ctx, e.Bucket)
	if err == nil && !exists {
		err = e.Store.MakeBucket(ctx, e.Bucket, minio.MakeBucketOptions{})
	}
	if err != nil {
		return fmt.Errorf("failed to prepare bucket %s: %w", e.Bucket, err)
	}
	e.ready = true
	return nil
}

// Encode renders complaints in the order given.
func Encode(complaints []models.Complaint) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(Header); err != nil {
		return nil, err
	}
	for _, c := range complaints {
		if err := w.Write(row(c)); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("failed to encode csv: %w", err)
	}
	return buf.Bytes(), nil
}

func row(c models.Complaint) []string {
	return []string{
		c.ID,
		c.Category,
		string(c.Severity),
		string(c.Status),
		strconv.Itoa(c.PriorityScore),
		strconv.Itoa(len(c.Supporters)),
		c.UserName,
		strings.ReplaceAll(c.Description, "\r\n", "\n"),
		timestamp(c.CreatedAt),
		timestamp(c.ResolvedAt),
		c.ResolvedBy,
		coordinate(c.Latitude),
		coordinate(c.Longitude),
	}
}

func timestamp(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func coordinate(f *float64) string {
	if f == nil {
		return ""
	}
	return strconv.FormatFloat(*f, 'f', -1, 64)
}
