package gcptest

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/yungbote/materials-registry/internal/platform/dbctx"
	"github.com/yungbote/materials-registry/internal/platform/gcp"
)

// MemoryBucket is an in-process gcp.BucketService for tests.
type MemoryBucket struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string

	// FailUpload makes UploadFile fail for keys it returns true for.
	FailUpload func(key string) bool
	// FailDelete makes DeleteFile fail for keys it returns true for.
	FailDelete func(key string) bool

	Uploads int
	Deletes int
}

var _ gcp.BucketService = (*MemoryBucket)(nil)

func NewMemoryBucket() *MemoryBucket {
	return &MemoryBucket{objects: map[string][]byte{}, types: map[string]string{}}
}

func (b *MemoryBucket) UploadFile(dbc dbctx.Context, key string, file io.Reader, contentType string) error {
	if err := dbc.Context().Err(); err != nil {
		return err
	}
	if b.FailUpload != nil && b.FailUpload(key) {
		return fmt.Errorf("injected upload failure for %q", key)
	}
	raw, err := io.ReadAll(file)
	if err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.objects[key] = raw
	b.types[key] = contentType
	b.Uploads++
	return nil
}

func (b *MemoryBucket) DeleteFile(_ dbctx.Context, key string) error {
	if b.FailDelete != nil && b.FailDelete(key) {
		return fmt.Errorf("injected delete failure for %q", key)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.objects[key]; !ok {
		return fmt.Errorf("object %q not found", key)
	}
	delete(b.objects, key)
	delete(b.types, key)
	b.Deletes++
	return nil
}

func (b *MemoryBucket) DownloadFile(_ context.Context, key string) (io.ReadCloser, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	raw, ok := b.objects[key]
	if !ok {
		return nil, fmt.Errorf("object %q not found", key)
	}
	return io.NopCloser(bytes.NewReader(raw)), nil
}

func (b *MemoryBucket) ListKeys(_ context.Context, prefix string) ([]string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	var keys []string
	for k := range b.objects {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (b *MemoryBucket) DeletePrefix(ctx context.Context, prefix string) error {
	keys, _ := b.ListKeys(ctx, prefix)
	for _, k := range keys {
		if err := b.DeleteFile(dbctx.Context{Ctx: ctx}, k); err != nil {
			return err
		}
	}
	return nil
}

func (b *MemoryBucket) GetPublicURL(key string) string {
	return gcp.ObjectPublicPath("https://storage.test/bucket", key)
}

// Has reports whether key is stored.
func (b *MemoryBucket) Has(key string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.objects[key]
	return ok
}

// Len returns the number of stored objects.
func (b *MemoryBucket) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.objects)
}
