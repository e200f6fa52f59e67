package storage

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockS3 struct {
	mock.Mock
}

func (m *MockS3) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*s3.PutObjectOutput), args.Error(1)
}

func (m *MockS3) DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*s3.DeleteObjectOutput), args.Error(1)
}

func TestS3StoragePut(t *testing.T) {
	api := new(MockS3)
	s := &S3Storage{client: api, bucket: "evidence", publicBaseURL: "https://cdn.example.com"}

	api.On("PutObject", mock.Anything, mock.MatchedBy(func(in *s3.PutObjectInput) bool {
		return *in.Bucket == "evidence" && *in.Key == "u/s/1-a.png" && *in.ContentType == "image/png" && *in.ContentLength == 3
	})).Return(&s3.PutObjectOutput{}, nil)

	uri, err := s.Put(context.Background(), "u/s/1-a.png", strings.NewReader("abc"), 3, "image/png")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/u/s/1-a.png", uri)
	api.AssertExpectations(t)
}

func TestS3StorageURIWithoutPublicBase(t *testing.T) {
	api := new(MockS3)
	s := &S3Storage{client: api, bucket: "evidence"}
	api.On("PutObject", mock.Anything, mock.Anything).Return(&s3.PutObjectOutput{}, nil)

	uri, err := s.Put(context.Background(), "k.png", strings.NewReader("abc"), -1, "")
	require.NoError(t, err)
	assert.Equal(t, "s3://evidence/k.png", uri)
}

func TestS3StorageErrors(t *testing.T) {
	api := new(MockS3)
	s := &S3Storage{client: api, bucket: "evidence"}

	api.On("PutObject", mock.Anything, mock.Anything).Return(nil, errors.New("timeout"))
	api.On("DeleteObject", mock.Anything, mock.Anything).Return(nil, errors.New("denied"))

	_, err := s.Put(context.Background(), "k", strings.NewReader("x"), 1, "")
	assert.ErrorContains(t, err, "timeout")
	assert.ErrorContains(t, s.Delete(context.Background(), "k"), "denied")
	assert.ErrorIs(t, s.Delete(context.Background(), ""), ErrInvalidKey)
}
