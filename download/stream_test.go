package download_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/fwojciec/rill"
	"github.com/fwojciec/rill/control"
	"github.com/fwojciec/rill/download"
	"github.com/fwojciec/rill/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type finished struct {
	model string
	state rill.DownloadState
	err   error
}

type recorder struct {
	progress []rill.EventProgress
	finished []finished
}

func (r *recorder) observer() *mock.DownloadObserver {
	return &mock.DownloadObserver{
		DownloadProgressFn: func(_ string, p rill.EventProgress) {
			r.progress = append(r.progress, p)
		},
		DownloadFinishedFn: func(model string, state rill.DownloadState, err error) {
			r.finished = append(r.finished, finished{model: model, state: state, err: err})
		},
	}
}

func serve(body string) *mock.ModelService {
	return &mock.ModelService{
		PullModelFn: func(context.Context, string) (io.ReadCloser, error) {
			return io.NopCloser(strings.NewReader(body)), nil
		},
	}
}

func run(svc rill.ModelService, rec *recorder, model string) (*download.Stream, error) {
	op := control.NewOperation(context.Background(), rill.KindDownload)
	s := download.New(op, svc, rec.observer(), download.WithBufferSize(7))
	return s, s.Run(model)
}

func TestStream_SucceedsExactlyOnceAfterProgress(t *testing.T) {
	t.Parallel()
	for _, n := range []int{0, 1, 5, 50} {
		t.Run(fmt.Sprintf("%d progress events", n), func(t *testing.T) {
			t.Parallel()
			var b strings.Builder
			for i := range n {
				fmt.Fprintf(&b, "data: {\"status\":\"pulling\",\"digest\":\"sha256:aa\",\"total\":%d,\"completed\":%d}\n\n", n, i+1)
			}
			b.WriteString("data: {\"status\":\"success\"}\n\n")
			b.WriteString("data: {\"status\":\"success\"}\n\n")

			rec := &recorder{}
			s, err := run(serve(b.String()), rec, "llama3.2:3b")

			require.NoError(t, err)
			assert.Equal(t, rill.DownloadSucceeded, s.State())
			assert.Len(t, rec.progress, n)
			require.Len(t, rec.finished, 1)
			assert.Equal(t, finished{model: "llama3.2:3b", state: rill.DownloadSucceeded}, rec.finished[0])
		})
	}
}

func TestStream_ProgressIsSurfacedVerbatim(t *testing.T) {
	t.Parallel()
	rec := &recorder{}
	s, err := run(serve(
		"data: {\"status\":\"pulling manifest\"}\n"+
			"data: {\"status\":\"downloading\",\"total\":2000000000,\"completed\":1500000000}\n"+
			"data: {\"status\":\"verifying sha256 digest\"}\n"+
			"data: {\"status\":\"success\"}\n",
	), rec, "qwen2.5:7b")

	require.NoError(t, err)
	require.Len(t, rec.progress, 3)
	assert.Equal(t, "pulling manifest", rec.progress[0].Status)
	assert.InDelta(t, 0.75, rec.progress[1].Percent(), 1e-9)
	assert.Equal(t, "verifying sha256 digest", s.Progress().Status)
}

func TestStream_ServerError(t *testing.T) {
	t.Parallel()
	rec := &recorder{}
	s, err := run(serve("data: {\"status\":\"pulling\"}\ndata: {\"error\":\"file does not exist\"}\n"), rec, "nope:1b")

	var appErr *rill.ApplicationError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "file does not exist", appErr.Message)
	assert.Equal(t, rill.DownloadFailed, s.State())
	require.Len(t, rec.finished, 1)
	assert.Equal(t, rill.DownloadFailed, rec.finished[0].state)
}

func TestStream_EOFWithoutSuccessFails(t *testing.T) {
	t.Parallel()
	rec := &recorder{}
	_, err := run(serve("data: {\"status\":\"pulling\"}\n"), rec, "m")

	assert.ErrorIs(t, err, rill.ErrUnexpectedEOF)
	require.Len(t, rec.finished, 1)
	assert.ErrorIs(t, rec.finished[0].err, rill.ErrUnexpectedEOF)
}

func TestStream_PullRequestFails(t *testing.T) {
	t.Parallel()
	svc := &mock.ModelService{
		PullModelFn: func(context.Context, string) (io.ReadCloser, error) {
			return nil, &rill.TransportError{Op: "pull", StatusCode: 404, Err: errors.New("model not found")}
		},
	}
	rec := &recorder{}
	_, err := run(svc, rec, "m")

	var te *rill.TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, 404, te.StatusCode)
}

func TestStream_AbandonWhileBlocked(t *testing.T) {
	t.Parallel()
	pr, pw := io.Pipe()
	defer pw.Close()
	svc := &mock.ModelService{
		PullModelFn: func(context.Context, string) (io.ReadCloser, error) { return pr, nil },
	}
	rec := &recorder{}
	op := control.NewOperation(context.Background(), rill.KindDownload)
	s := download.New(op, svc, rec.observer())

	go func() {
		_, _ = pw.Write([]byte("data: {\"status\":\"pulling\",\"total\":10,\"completed\":1}\n"))
		time.Sleep(10 * time.Millisecond)
		op.Abort()
	}()
	err := s.Run("big:70b")

	assert.ErrorIs(t, err, rill.ErrAborted)
	assert.Equal(t, rill.DownloadFailed, s.State())
	require.Len(t, rec.finished, 1)
	assert.ErrorIs(t, rec.finished[0].err, rill.ErrAborted)
	assert.Len(t, rec.progress, 1)
}
