package minio

import (
	"context"
	"errors"
	"testing"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/turtacn/foia-tracker/internal/infrastructure/monitoring/logging"
	pkgerrors "github.com/turtacn/foia-tracker/pkg/errors"
)

type DocumentStoreTestSuite struct {
	suite.Suite
	api    *MockMinIOAPI
	client *MinIOClient
	store  *DocumentStore
}

func (s *DocumentStoreTestSuite) SetupTest() {
	s.api = new(MockMinIOAPI)
	s.api.On("BucketExists", mock.Anything, "docs").Return(true, nil).Once()

	log := logging.NewNopLogger()
	var err error
	s.client, err = NewMinIOClientWithAPI(context.Background(), s.api, &MinIOConfig{Bucket: "docs"}, log)
	s.Require().NoError(err)
	s.store = NewDocumentStore(s.client, log)
}

func (s *DocumentStoreTestSuite) TearDownTest() {
	s.api.AssertExpectations(s.T())
}

func (s *DocumentStoreTestSuite) TestPutDocument() {
	s.api.On("PutObject", mock.Anything, "docs", "requests/r1.txt", "Dear FOIA officer", int64(17),
		minio.PutObjectOptions{ContentType: "text/plain; charset=utf-8"}).
		Return(minio.UploadInfo{Bucket: "docs", Key: "requests/r1.txt", Size: 17}, nil)

	err := s.store.PutDocument(context.Background(), "requests/r1.txt", "text/plain; charset=utf-8", []byte("Dear FOIA officer"))
	s.NoError(err)
}

func (s *DocumentStoreTestSuite) TestPutDocument_Failure() {
	s.api.On("PutObject", mock.Anything, "docs", "k", "x", int64(1), mock.Anything).
		Return(minio.UploadInfo{}, errors.New("quota exceeded"))

	err := s.store.PutDocument(context.Background(), "k", "", []byte("x"))
	s.True(pkgerrors.IsCode(err, pkgerrors.ErrCodeStorageError))
}

func (s *DocumentStoreTestSuite) TestPutDocument_EmptyKey() {
	s.ErrorIs(s.store.PutDocument(context.Background(), "", "", nil), ErrInvalidKey)
}

func (s *DocumentStoreTestSuite) TestGetDocument() {
	s.api.On("ReadObject", mock.Anything, "docs", "appeals/r1/round-1.json").Return([]byte(`{"round":1}`), nil)

	data, err := s.store.GetDocument(context.Background(), "appeals/r1/round-1.json")
	s.Require().NoError(err)
	s.JSONEq(`{"round":1}`, string(data))
}

func (s *DocumentStoreTestSuite) TestGetDocument_NotFound() {
	s.api.On("ReadObject", mock.Anything, "docs", "missing").Return(nil, minio.ErrorResponse{Code: "NoSuchKey"})

	_, err := s.store.GetDocument(context.Background(), "missing")
	s.True(pkgerrors.IsNotFound(err))
}

func (s *DocumentStoreTestSuite) TestGetDocument_Failure() {
	s.api.On("ReadObject", mock.Anything, "docs", "k").Return(nil, errors.New("connection reset"))

	_, err := s.store.GetDocument(context.Background(), "k")
	s.True(pkgerrors.IsCode(err, pkgerrors.ErrCodeStorageError))
}

func (s *DocumentStoreTestSuite) TestClosedClient() {
	s.Require().NoError(s.client.Close())
	s.ErrorIs(s.store.PutDocument(context.Background(), "k", "", []byte("x")), ErrMinIOClientClosed)
	_, err := s.store.GetDocument(context.Background(), "k")
	s.ErrorIs(err, ErrMinIOClientClosed)
}

func TestDocumentStoreTestSuite(t *testing.T) {
	suite.Run(t, new(DocumentStoreTestSuite))
}

//Personal.AI order the ending
