package worker

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Lllllllleong/pdfsuite/internal/models"
	"github.com/Lllllllleong/pdfsuite/internal/services"
	"github.com/Lllllllleong/pdfsuite/internal/testpdf"
)

func upload(name string, pages int) models.UploadedFile {
	f := models.NewUploadedFile(name, name, testpdf.Build(testpdf.Pages(name, 300, pages)...))
	f.PageCount = pages
	return f
}

func collect(t *testing.T, replies <-chan Message) []Message {
	t.Helper()
	var msgs []Message
	for m := range replies {
		msgs = append(msgs, m)
	}
	require.NotEmpty(t, msgs)
	return msgs
}

func TestWorker_Merge(t *testing.T) {
	w := Start(services.DefaultToolkitConfig())
	defer w.Close()

	replies, err := w.Submit(context.Background(), Job{
		ID:    "job-1",
		Kind:  KindMerge,
		Files: []models.UploadedFile{upload("a.pdf", 2), upload("b.pdf", 1)},
	})
	require.NoError(t, err)
	msgs := collect(t, replies)

	last := msgs[len(msgs)-1]
	require.True(t, last.Terminal())
	assert.Equal(t, EventSucceeded, last.Event.Type())
	assert.Equal(t, "job-1", last.Event.Subject())
	assert.Equal(t, eventSource, last.Event.Source())

	payload, err := last.Succeeded()
	require.NoError(t, err)
	assert.Equal(t, "job-1", payload.JobID)
	require.Len(t, payload.Outputs, 1)
	assert.Equal(t, services.MergedName, payload.Outputs[0].Name)

	require.Len(t, last.Outputs, 1)
	assert.Equal(t, payload.Outputs[0].Size, last.Outputs[0].Size())

	prev := -1.0
	for _, m := range msgs[:len(msgs)-1] {
		assert.Equal(t, EventProgress, m.Event.Type())
		p, err := m.Progress()
		require.NoError(t, err)
		assert.GreaterOrEqual(t, p.Progress, prev)
		assert.NotEmpty(t, p.Message)
		prev = p.Progress
	}
}

func TestWorker_Failure(t *testing.T) {
	w := Start(services.DefaultToolkitConfig())
	defer w.Close()

	replies, err := w.Submit(context.Background(), Job{Kind: KindMerge, Files: []models.UploadedFile{upload("a.pdf", 1)}})
	require.NoError(t, err)
	msgs := collect(t, replies)

	last := msgs[len(msgs)-1]
	assert.Equal(t, EventFailed, last.Event.Type())
	assert.Nil(t, last.Outputs)
	payload, err := last.Failed()
	require.NoError(t, err)
	assert.NotEmpty(t, payload.JobID)
	assert.Contains(t, payload.Reason, "at least two PDF files are required")
}

func TestWorker_SplitAndCompressRunInOrder(t *testing.T) {
	w := Start(services.DefaultToolkitConfig())
	defer w.Close()

	src := upload("r.pdf", 3)
	split, err := w.Submit(context.Background(), Job{Kind: KindSplitPages, Files: []models.UploadedFile{src}})
	require.NoError(t, err)
	splitMsgs := collect(t, split)

	compress, err := w.Submit(context.Background(), Job{Kind: KindCompress, Files: []models.UploadedFile{src}})
	require.NoError(t, err)
	compressMsgs := collect(t, compress)

	assert.Len(t, splitMsgs[len(splitMsgs)-1].Outputs, 3)
	assert.Len(t, compressMsgs[len(compressMsgs)-1].Outputs, 1)
}

func TestWorker_UnknownKind(t *testing.T) {
	w := Start(services.DefaultToolkitConfig())
	defer w.Close()

	replies, err := w.Submit(context.Background(), Job{Kind: "ocr", Files: []models.UploadedFile{upload("a.pdf", 1)}})
	require.NoError(t, err)
	msgs := collect(t, replies)
	require.Len(t, msgs, 1)
	assert.Equal(t, EventFailed, msgs[0].Event.Type())
}

func TestWorker_SubmitAfterClose(t *testing.T) {
	w := Start(services.DefaultToolkitConfig())
	w.Close()
	w.Close()

	_, err := w.Submit(context.Background(), Job{Kind: KindCompress})
	assert.ErrorIs(t, err, ErrClosed)
}

func TestWorker_AbandonedRepliesDoNotStallClose(t *testing.T) {
	w := Start(services.DefaultToolkitConfig())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	replies, err := w.Submit(ctx, Job{Kind: KindSplitPages, Files: []models.UploadedFile{upload("big.pdf", 40)}})
	require.NoError(t, err)

	// Nobody reads until the progress buffer is full and the worker is stuck
	// on the final message.
	require.Eventually(t, func() bool { return len(replies) == cap(replies) }, 10*time.Second, time.Millisecond)
	cancel()

	closed := make(chan struct{})
	go func() {
		w.Close()
		close(closed)
	}()
	select {
	case <-closed:
	case <-time.After(10 * time.Second):
		t.Fatal("Close did not return")
	}

	for m := range replies {
		assert.False(t, m.Terminal())
	}
}
