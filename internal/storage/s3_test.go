package storage

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/require"
)

type fakeUploader struct {
	input *s3.PutObjectInput
	body  string
	err   error
}

func (f *fakeUploader) Upload(_ context.Context, input *s3.PutObjectInput, _ ...func(*manager.Uploader)) (*manager.UploadOutput, error) {
	f.input = input
	if input.Body != nil {
		data, _ := io.ReadAll(input.Body)
		f.body = string(data)
	}
	if f.err != nil {
		return nil, f.err
	}
	return &manager.UploadOutput{Location: "https://bucket.s3.amazonaws.com/" + aws.ToString(input.Key)}, nil
}

type fakeRemover struct {
	input *s3.DeleteObjectInput
	err   error
}

func (f *fakeRemover) DeleteObject(_ context.Context, input *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.input = input
	if f.err != nil {
		return nil, f.err
	}
	return &s3.DeleteObjectOutput{}, nil
}

func TestS3StorageSave(t *testing.T) {
	up := &fakeUploader{}
	store := newS3Storage(up, &fakeRemover{}, "media", "https://cdn.example.com/")

	url, err := store.Save(context.Background(), "/videos/clip.mp4", strings.NewReader("data"), "video/mp4")
	require.NoError(t, err)
	require.Equal(t, "https://cdn.example.com/videos/clip.mp4", url)
	require.Equal(t, "media", aws.ToString(up.input.Bucket))
	require.Equal(t, "videos/clip.mp4", aws.ToString(up.input.Key))
	require.Equal(t, "video/mp4", aws.ToString(up.input.ContentType))
	require.Equal(t, s3types.ObjectCannedACLPublicRead, up.input.ACL)
	require.Equal(t, "data", up.body)
}

func TestS3StorageFallsBackToUploadLocation(t *testing.T) {
	store := newS3Storage(&fakeUploader{}, &fakeRemover{}, "media", "")

	url, err := store.Save(context.Background(), "avatars/a.png", strings.NewReader("x"), "")
	require.NoError(t, err)
	require.Equal(t, "https://bucket.s3.amazonaws.com/avatars/a.png", url)
}

func TestS3StorageErrors(t *testing.T) {
	store := newS3Storage(&fakeUploader{err: errors.New("denied")}, &fakeRemover{}, "media", "")

	_, err := store.Save(context.Background(), "/", strings.NewReader("x"), "")
	require.ErrorContains(t, err, "empty key")

	_, err = store.Save(context.Background(), "a.png", strings.NewReader("x"), "")
	require.ErrorContains(t, err, "denied")
}

func TestS3StorageDelete(t *testing.T) {
	rm := &fakeRemover{}
	store := newS3Storage(&fakeUploader{}, rm, "media", "")

	require.NoError(t, store.Delete(context.Background(), "/avatars/a.png"))
	require.Equal(t, "media", aws.ToString(rm.input.Bucket))
	require.Equal(t, "avatars/a.png", aws.ToString(rm.input.Key))

	require.ErrorContains(t, store.Delete(context.Background(), "/"), "empty key")

	rm.err = errors.New("denied")
	require.ErrorContains(t, store.Delete(context.Background(), "avatars/a.png"), "denied")
}

func TestUnavailable(t *testing.T) {
	_, err := Unavailable{}.Save(context.Background(), "a", strings.NewReader(""), "")
	require.ErrorIs(t, err, ErrUnavailable)
	require.ErrorIs(t, Unavailable{}.Delete(context.Background(), "a"), ErrUnavailable)
}

func TestKey(t *testing.T) {
	key := Key("/avatars/", "Me.PNG")
	require.True(t, strings.HasPrefix(key, "avatars/"))
	require.True(t, strings.HasSuffix(key, ".png"))
	require.NotEqual(t, key, Key("avatars", "Me.PNG"))
}
