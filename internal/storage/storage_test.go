package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recipeapp/internal/config"
)

func TestFileName(t *testing.T) {
	now := time.UnixMilli(1700000000123)

	tests := []struct {
		name     string
		original string
		want     string
	}{
		{"plain", "soup.png", "1700000000123_soup.png"},
		{"unix path", "../../etc/passwd", "1700000000123_passwd"},
		{"windows path", `C:\Users\me\cake.jpg`, "1700000000123_cake.jpg"},
		{"empty", "", "1700000000123_image"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FileName(tt.original, now))
		})
	}
}

func TestNameFromPath(t *testing.T) {
	assert.Equal(t, "1_soup.png", NameFromPath("/uploads/1_soup.png"))
	assert.Equal(t, "/uploads/1_soup.png", ImagePath("1_soup.png"))
}

func TestNew_UnknownDriver(t *testing.T) {
	_, err := New(context.Background(), config.StorageConfig{Driver: "ftp"}, t.TempDir())
	assert.Error(t, err)
}

func TestLocalStore_Lifecycle(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "uploads")
	store, err := NewLocalStore(dir)
	require.NoError(t, err)

	imagePath, err := store.Save(ctx, "soup.png", strings.NewReader("png-bytes"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(imagePath, URLPrefix))
	assert.True(t, strings.HasSuffix(imagePath, "_soup.png"))

	onDisk := filepath.Join(dir, NameFromPath(imagePath))
	data, err := os.ReadFile(onDisk)
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(data))

	rc, err := store.Open(ctx, NameFromPath(imagePath))
	require.NoError(t, err)
	body, _ := io.ReadAll(rc)
	rc.Close()
	assert.Equal(t, "png-bytes", string(body))

	deleted, err := store.Delete(ctx, imagePath)
	require.NoError(t, err)
	assert.True(t, deleted)
	assert.NoFileExists(t, onDisk)

	deleted, err = store.Delete(ctx, imagePath)
	require.NoError(t, err)
	assert.False(t, deleted, "already gone is not an error")

	_, err = store.Open(ctx, NameFromPath(imagePath))
	assert.ErrorIs(t, err, ErrNotExist)
}

func TestLocalStore_SameMillisecondUploadsDoNotCollide(t *testing.T) {
	ctx := context.Background()
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)
	fixed := time.UnixMilli(42)
	store.now = func() time.Time { return fixed }

	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		paths = map[string]bool{}
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p, err := store.Save(ctx, "same.png", strings.NewReader("x"))
			require.NoError(t, err)
			mu.Lock()
			paths[p] = true
			mu.Unlock()
		}()
	}
	wg.Wait()
	assert.Len(t, paths, 8)
}

type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newFakeS3() *fakeS3 { return &fakeS3{objects: map[string][]byte{}} }

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[aws.ToString(in.Key)] = data
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (f *fakeS3) HeadObject(_ context.Context, in *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.objects[aws.ToString(in.Key)]; !ok {
		return nil, &types.NotFound{}
	}
	return &s3.HeadObjectOutput{}, nil
}

func (f *fakeS3) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func TestS3Store_Lifecycle(t *testing.T) {
	ctx := context.Background()
	fake := newFakeS3()
	store := newS3Store(fake, "bucket", "/recipes/")

	imagePath, err := store.Save(ctx, "cake.jpg", strings.NewReader("jpeg"))
	require.NoError(t, err)
	name := NameFromPath(imagePath)
	assert.Contains(t, fake.objects, "recipes/"+name)

	rc, err := store.Open(ctx, name)
	require.NoError(t, err)
	body, _ := io.ReadAll(rc)
	assert.Equal(t, "jpeg", string(body))

	deleted, err := store.Delete(ctx, imagePath)
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = store.Delete(ctx, imagePath)
	require.NoError(t, err)
	assert.False(t, deleted)

	_, err = store.Open(ctx, name)
	assert.True(t, errors.Is(err, ErrNotExist))
}

func TestNewS3Store_RequiresBucket(t *testing.T) {
	_, err := NewS3Store(context.Background(), config.StorageConfig{Driver: "s3"})
	assert.Error(t, err)
}
