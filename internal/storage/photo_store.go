package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
	"go.uber.org/zap"

	"github.com/spec-kit/civic-issue-service/internal/config"
)

// PhotoStore uploads issue photos and returns their public URL.
type PhotoStore interface {
	Upload(ctx context.Context, key string, body io.Reader, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
}

type blobPhotoStore struct {
	client    *azblob.Client
	container string
	logger    *zap.Logger
}

// NewPhotoStore connects to blob storage and ensures the photo container
// exists. Returns nil when no connection string is configured; photo uploads
// are then disabled.
func NewPhotoStore(ctx context.Context, cfg config.StorageConfig, logger *zap.Logger) (PhotoStore, error) {
	if cfg.ConnectionString == "" {
		logger.Warn("AZURE_STORAGE_CONNECTION_STRING not provided; photo uploads disabled")
		return nil, nil
	}

	client, err := azblob.NewClientFromConnectionString(cfg.ConnectionString, nil)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}

	if _, err := client.CreateContainer(ctx, cfg.Container, nil); err != nil {
		if !bloberror.HasCode(err, bloberror.ContainerAlreadyExists) {
			return nil, fmt.Errorf("create photo container: %w", err)
		}
	}

	logger.Info("photo container ready", zap.String("container", cfg.Container))
	return &blobPhotoStore{client: client, container: cfg.Container, logger: logger}, nil
}

func (s *blobPhotoStore) Upload(ctx context.Context, key string, body io.Reader, contentType string) (string, error) {
	opts := &azblob.UploadStreamOptions{
		HTTPHeaders: &blob.HTTPHeaders{
			BlobContentType: &contentType,
		},
	}
	if _, err := s.client.UploadStream(ctx, s.container, key, body, opts); err != nil {
		return "", fmt.Errorf("upload photo %s: %w", key, err)
	}
	return fmt.Sprintf("%s%s/%s", s.client.URL(), s.container, key), nil
}

func (s *blobPhotoStore) Delete(ctx context.Context, key string) error {
	if _, err := s.client.DeleteBlob(ctx, s.container, key, nil); err != nil {
		if bloberror.HasCode(err, bloberror.BlobNotFound) {
			return nil
		}
		return fmt.Errorf("delete photo %s: %w", key, err)
	}
	return nil
}

// PhotoKey derives the blob key for an issue photo, keeping the original file
// extension.
func PhotoKey(issueID, fileName string) string {
	ext := strings.ToLower(path.Ext(fileName))
	if ext == "" {
		ext = ".jpg"
	}
	return fmt.Sprintf("issues/%s%s", issueID, ext)
}
