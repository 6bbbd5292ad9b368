package storage

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePutter struct {
	input *s3.PutObjectInput
	body  []byte
	err   error
}

func (f *fakePutter) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.input = in
	f.body, _ = io.ReadAll(in.Body)
	return &s3.PutObjectOutput{}, f.err
}

// Smallest valid PNG header is enough for content sniffing.
var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R'}

func TestUploadImage(t *testing.T) {
	fake := &fakePutter{}
	s := newS3Storage(fake, "cards", "https://cdn.example.com/")
	s.newKey = func() string { return "fixed" }

	url, err := s.UploadImage(context.Background(), "uid-1", pngHeader)
	require.NoError(t, err)

	assert.Equal(t, "https://cdn.example.com/users/uid-1/fixed.png", url)
	assert.Equal(t, "cards", *fake.input.Bucket)
	assert.Equal(t, "users/uid-1/fixed.png", *fake.input.Key)
	assert.Equal(t, "image/png", *fake.input.ContentType)
	assert.Equal(t, pngHeader, fake.body)
}

func TestUploadImageRejectsNonImages(t *testing.T) {
	fake := &fakePutter{}
	s := newS3Storage(fake, "cards", "https://cdn.example.com")

	_, err := s.UploadImage(context.Background(), "uid-1", []byte("just some text"))
	assert.ErrorIs(t, err, ErrNotAnImage)
	assert.Nil(t, fake.input)
}

func TestUploadImagePropagatesStoreErrors(t *testing.T) {
	fake := &fakePutter{err: errors.New("boom")}
	s := newS3Storage(fake, "cards", "https://cdn.example.com")

	_, err := s.UploadImage(context.Background(), "uid-1", pngHeader)
	assert.Error(t, err)
}
