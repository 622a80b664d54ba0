package minio

import (
	"bytes"
	"context"

	"github.com/minio/minio-go/v7"

	"github.com/turtacn/foia-tracker/internal/application/ports"
	"github.com/turtacn/foia-tracker/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/foia-tracker/pkg/errors"
)

var (
	ErrInvalidKey = errors.New(errors.ErrCodeValidation, "object key required")
)

// DocumentStore keeps request text and appeal packets under their keys in the
// configured bucket.
type DocumentStore struct {
	client *MinIOClient
	logger logging.Logger
}

var _ ports.DocumentStore = (*DocumentStore)(nil)

func NewDocumentStore(client *MinIOClient, log logging.Logger) *DocumentStore {
	return &DocumentStore{client: client, logger: log}
}

func (s *DocumentStore) PutDocument(ctx context.Context, key, contentType string, body []byte) error {
	if key == "" {
		return ErrInvalidKey
	}
	if s.client.isClosed() {
		return ErrMinIOClientClosed
	}

	opts := minio.PutObjectOptions{ContentType: contentType}
	info, err := s.client.GetClient().PutObject(ctx, s.client.Bucket(), key, bytes.NewReader(body), int64(len(body)), opts)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeStorageError, "upload failed").WithDetail("key=" + key)
	}
	s.logger.Debug("Document stored",
		logging.String("key", key),
		logging.Int64("size", info.Size))
	return nil
}

func (s *DocumentStore) GetDocument(ctx context.Context, key string) ([]byte, error) {
	if key == "" {
		return nil, ErrInvalidKey
	}
	if s.client.isClosed() {
		return nil, ErrMinIOClientClosed
	}

	data, _, err := s.client.GetClient().ReadObject(ctx, s.client.Bucket(), key)
	if err != nil {
		if isNoSuchKey(err) {
			return nil, errors.NotFound("document not found").WithDetail("key=" + key)
		}
		return nil, errors.Wrap(err, errors.ErrCodeStorageError, "download failed").WithDetail("key=" + key)
	}
	return data, nil
}

func isNoSuchKey(err error) bool {
	return minio.ToErrorResponse(err).Code == "NoSuchKey"
}

//Personal.AI order the ending
