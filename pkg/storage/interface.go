package storage

import (
	"context"
	"fmt"
	"io"
)

// StorageProvider stores product images and returns their public URLs.
type StorageProvider interface {
	Upload(ctx context.Context, request *UploadRequest) (*UploadResponse, error)
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	URL(key string) string
}

type UploadRequest struct {
	Key          string            `json:"key"`
	Reader       io.Reader         `json:"-"`
	ContentType  string            `json:"content_type"`
	Size         int64             `json:"size"`
	Metadata     map[string]string `json:"metadata"`
	CacheControl string            `json:"cache_control"`
}

type UploadResponse struct {
	Key  string `json:"key"`
	URL  string `json:"url"`
	Size int64  `json:"size"`
	ETag string `json:"etag"`
}

type Settings struct {
	Provider           string
	LocalPath          string
	LocalURL           string
	AWSRegion          string
	AWSBucket          string
	AWSCDNDomain       string
	GCPBucket          string
	GCPCredentialsFile string
	GCPCDNDomain       string
}

func NewProvider(ctx context.Context, settings Settings) (StorageProvider, error) {
	switch settings.Provider {
	case "local", "":
		return NewLocalStorage(settings.LocalPath, settings.LocalURL)
	case "s3", "aws":
		return NewAWSS3Storage(ctx, settings.AWSRegion, settings.AWSBucket, settings.AWSCDNDomain)
	case "gcs", "gcp":
		return NewGCPStorage(ctx, settings.GCPBucket, settings.GCPCredentialsFile, settings.GCPCDNDomain)
	default:
		return nil, fmt.Errorf("unknown storage provider %q", settings.Provider)
	}
}
