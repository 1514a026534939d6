// Package storage keeps uploaded attachment bytes outside the record store. Records only
// carry the location string returned by Save.
package storage

import (
	"context"
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"strings"

	"requisition-form-api-server/config"
)

type AttachmentStore interface {
	Save(ctx context.Context, key string, r io.Reader, contentType string) (string, error)
	Open(ctx context.Context, location string) (io.ReadCloser, error)
}

func New(cfg config.Config) (AttachmentStore, error) {
	switch strings.ToLower(cfg.Storage.Driver) {
	case "s3":
		return NewS3Store(cfg.S3)
	case "", "local":
		return NewLocalStore(cfg.Storage.LocalDir), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}

// AttachmentKey builds "<requestNumber>_<filename>", dropping any directory part of filename.
func AttachmentKey(requestNumber, filename string) string {
	base := filepath.Base(strings.ReplaceAll(filename, "\\", "/"))
	if base == "." || base == "/" || base == "" {
		base = "attachment"
	}
	return requestNumber + "_" + base
}

// ContentType đoán MIME type theo phần mở rộng của file.
func ContentType(filename string) string {
	if ct := mime.TypeByExtension(strings.ToLower(filepath.Ext(filename))); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
