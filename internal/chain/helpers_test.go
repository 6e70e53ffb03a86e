package chain

import (
	"context"
	"net/http"
	"sync"
	"testing"

	"go.uber.org/mock/gomock"

	"github.com/oshokin/fetchchain/internal/fetch"
	mock_fetch "github.com/oshokin/fetchchain/internal/fetch/mocks"
)

// fetchCall is one recorded transport call.
type fetchCall struct {
	url  string
	opts fetch.Options
}

// recorder collects transport calls made from dispatch goroutines.
type recorder struct {
	mu    sync.Mutex
	calls []fetchCall
}

func (r *recorder) add(url string, opts fetch.Options) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.calls = append(r.calls, fetchCall{url: url, opts: opts})
}

func (r *recorder) all() []fetchCall {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]fetchCall(nil), r.calls...)
}

// replyTransport expects times calls and answers each with status and body.
func replyTransport(t *testing.T, times, status int, body string) (*mock_fetch.MockTransport, *recorder) {
	t.Helper()

	ctrl := gomock.NewController(t)
	transport := mock_fetch.NewMockTransport(ctrl)
	rec := &recorder{}

	transport.EXPECT().
		Fetch(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, url string, opts fetch.Options) (fetch.Response, error) {
			rec.add(url, opts)

			return fetch.NewBytesResponse(status, http.Header{"Content-Type": []string{"text/plain"}}, []byte(body)), nil
		}).
		Times(times)

	return transport, rec
}

// newTestBuilder creates a builder with isolated settings.
func newTestBuilder(url string, transport fetch.Transport, opts ...Option) *Builder {
	opts = append([]Option{WithSettings(NewSettings()), WithTransport(transport)}, opts...)

	return New(url, opts...)
}
