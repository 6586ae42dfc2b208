package gcp

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"

	"github.com/Lllllllleong/pdfsuite/internal/models"
)

type fakeWriter struct {
	bytes.Buffer
	closeErr error
	done     func(*fakeWriter)
}

func (w *fakeWriter) Close() error {
	if w.closeErr == nil {
		w.done(w)
	}
	return w.closeErr
}

type fakeBucket struct {
	mu       sync.Mutex
	objects  map[string][]byte
	attempts map[string]int
	failures map[string]int
	closeErr error
}

func newFakeBucket() *fakeBucket {
	return &fakeBucket{objects: map[string][]byte{}, attempts: map[string]int{}, failures: map[string]int{}}
}

// save mirrors SaveToGCSAtomically with the fake writer in place of a
// conditional object writer.
func (b *fakeBucket) save(ctx context.Context, object string, content []byte) error {
	return writeOnce(b.writer(ctx, object), object, content)
}

func (b *fakeBucket) writer(_ context.Context, object string) io.WriteCloser {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.attempts[object]++
	w := &fakeWriter{closeErr: b.closeErr, done: func(w *fakeWriter) {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.objects[object] = w.Bytes()
	}}
	if b.failures[object] > 0 {
		b.failures[object]--
		w.closeErr = errors.New("transient")
	}
	return w
}

func testConfig() BucketConfig {
	return BucketConfig{Bucket: "results", Prefix: "job-1", InitialBackoff: time.Millisecond, MaxRetries: 3}
}

func TestParseURI(t *testing.T) {
	bucket, object, ok := ParseURI("gs://docs/in/report.pdf")
	assert.True(t, ok)
	assert.Equal(t, "docs", bucket)
	assert.Equal(t, "in/report.pdf", object)

	for _, bad := range []string{"report.pdf", "gs://", "gs://docs", "gs:///x", "s3://a/b"} {
		_, _, ok := ParseURI(bad)
		assert.False(t, ok, bad)
	}
}

func TestGetEnv(t *testing.T) {
	t.Setenv("PDFSUITE_TEST_VALUE", "set")
	assert.Equal(t, "set", GetEnv("PDFSUITE_TEST_VALUE", "fallback"))
	assert.Equal(t, "fallback", GetEnv("PDFSUITE_TEST_UNSET", "fallback"))
}

func TestBucketExporter_Uploads(t *testing.T) {
	b := newFakeBucket()
	e := newBucketExporter(testConfig(), b.save)

	uris, err := e.Export(context.Background(), []models.Output{
		{Name: "a.pdf", Data: []byte("A")},
		{Name: "b.pdf", Data: []byte("B")},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"gs://results/job-1/a.pdf", "gs://results/job-1/b.pdf"}, uris)
	assert.Equal(t, []byte("A"), b.objects["job-1/a.pdf"])
	assert.Equal(t, []byte("B"), b.objects["job-1/b.pdf"])
}

func TestBucketExporter_RetriesTransientFailures(t *testing.T) {
	b := newFakeBucket()
	b.failures["job-1/a.pdf"] = 2
	e := newBucketExporter(testConfig(), b.save)

	_, err := e.Export(context.Background(), []models.Output{{Name: "a.pdf", Data: []byte("A")}})
	require.NoError(t, err)
	assert.Equal(t, 3, b.attempts["job-1/a.pdf"])
	assert.Equal(t, []byte("A"), b.objects["job-1/a.pdf"])
}

func TestBucketExporter_GivesUp(t *testing.T) {
	b := newFakeBucket()
	b.failures["job-1/a.pdf"] = 10
	e := newBucketExporter(testConfig(), b.save)

	_, err := e.Export(context.Background(), []models.Output{{Name: "a.pdf", Data: []byte("A")}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed after all retries")
	assert.Equal(t, 3, b.attempts["job-1/a.pdf"])
}

func TestBucketExporter_ExistingObjectIsNotAnError(t *testing.T) {
	b := newFakeBucket()
	b.closeErr = &googleapi.Error{Code: http.StatusPreconditionFailed}
	e := newBucketExporter(testConfig(), b.save)

	_, err := e.Export(context.Background(), []models.Output{{Name: "a.pdf", Data: []byte("A")}})
	require.NoError(t, err)
	assert.Equal(t, 1, b.attempts["job-1/a.pdf"])
}
