package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/oshokin/fetchchain/internal/chain"
	"github.com/oshokin/fetchchain/internal/config"
	"github.com/oshokin/fetchchain/internal/fetch"
	"github.com/oshokin/fetchchain/internal/logger"
	http_transport "github.com/oshokin/fetchchain/internal/transport/http"
	"github.com/oshokin/fetchchain/internal/utils"
)

// ErrRequestsFailed indicates that at least one URL did not succeed.
var ErrRequestsFailed = errors.New("requests failed")

// App runs requests described by command line flags.
type App struct {
	cfg       *config.Config
	settings  *chain.Settings
	transport fetch.Transport
	colors    *ColorScheme
	stdout    io.Writer
	stderr    io.Writer
}

// Option configures an App.
type Option func(*App)

// WithTransport replaces the net/http transport built from the config.
func WithTransport(t fetch.Transport) Option {
	return func(a *App) {
		a.transport = t
	}
}

// WithSettings makes the App configure s instead of chain.Global().
func WithSettings(s *chain.Settings) Option {
	return func(a *App) {
		a.settings = s
	}
}

// WithOutput redirects the body and status streams.
func WithOutput(stdout, stderr io.Writer) Option {
	return func(a *App) {
		a.stdout = stdout
		a.stderr = stderr
	}
}

// New creates an App from a validated config.
// The config headers and error mode become the chain defaults.
func New(cfg *config.Config, opts ...Option) *App {
	a := &App{
		cfg:      cfg,
		settings: chain.Global(),
		stdout:   os.Stdout,
		stderr:   os.Stderr,
	}

	for _, opt := range opts {
		opt(a)
	}

	if a.transport == nil {
		a.transport = http_transport.NewFetcher(http_transport.NewClient(http_transport.ClientOptions{
			Timeout:      cfg.ParsedTimeout,
			UserAgent:    cfg.UserAgent,
			MaxLogLength: cfg.ParsedMaxLogLength,
		}))
	}

	if cfg.NoColor {
		a.colors = NoColorScheme()
	} else {
		a.colors = DefaultColorScheme()
	}

	// Viper lowercases map keys, so config headers are stored canonical
	// to line up with the names set on the builder.
	defaults := fetch.Options{}
	if len(cfg.Headers) > 0 {
		headers := make(map[string]any, len(cfg.Headers))
		for name, value := range cfg.Headers {
			headers[name] = value
		}

		defaults[fetch.KeyHeaders] = fetch.CanonicalHeaders(headers)
	}

	a.settings.SetDefaults(defaults)
	a.settings.SetErrorMode(cfg.ParsedErrorMode)

	return a
}

// ExecuteRequestCommand is the entry point of the verb commands.
func ExecuteRequestCommand(ctx context.Context, cfg *config.Config, method string, urls []string, flags RequestFlags) {
	if err := New(cfg).Run(ctx, method, urls, flags); err != nil {
		logger.Fatalf(ctx, "%v", err)
	}
}

// Run fetches every URL with method and prints the replies in argument order.
func (a *App) Run(ctx context.Context, method string, urls []string, flags RequestFlags) error {
	plan, err := newRequestPlan(method, flags)
	if err != nil {
		return err
	}

	if flags.InputFile != "" {
		listed, readErr := utils.ReadUniqueLinesFromFile(flags.InputFile)
		if readErr != nil {
			return fmt.Errorf("failed to read input file: %w", readErr)
		}

		urls = append(urls, listed...)
	}

	switch {
	case len(urls) == 0:
		return ErrNoURLs
	case plan.output != "" && len(urls) > 1:
		return ErrOutputWithManyURLs
	}

	replies := make([]*reply, len(urls))

	var g errgroup.Group

	g.SetLimit(int(a.cfg.MaxConcurrentRequests))

	for i, rawURL := range urls {
		g.Go(func() error {
			replies[i] = a.fetchOne(ctx, rawURL, plan)

			return nil
		})
	}

	_ = g.Wait()

	showProgress := logger.Level() <= zap.InfoLevel && len(urls) == 1
	failures := 0

	for i, r := range replies {
		if err = a.emit(ctx, r, plan, urls[i], showProgress); err != nil {
			logger.Errorf(ctx, "Failed to write reply for %s: %v", r.url, err)

			failures++

			continue
		}

		if r.err != nil || (r.failed && plan.fail) {
			failures++
		}
	}

	if failures > 0 {
		return fmt.Errorf("%w: %d of %d", ErrRequestsFailed, failures, len(urls))
	}

	return nil
}

// fetchOne dispatches one URL and waits for its reply.
func (a *App) fetchOne(ctx context.Context, rawURL string, plan *requestPlan) *reply {
	var (
		b             = a.buildChain(rawURL, plan)
		started       = time.Now()
		renderFailure = func(err *chain.DispatchError) (any, error) {
			return failureReply(err), nil
		}
	)

	result := send(ctx, b, plan).
		BadRequest(renderFailure).
		Unauthorized(renderFailure).
		Forbidden(renderFailure).
		NotFound(renderFailure).
		Timeout(renderFailure).
		InternalError(renderFailure)

	// Res stops waiting when ctx ends, leaving the body to Close.
	defer result.Close(ctx) //nolint:errcheck // The reply already carries any error.

	value, err := result.Res(ctx, func(resp fetch.Response) (any, error) {
		return decodeReply(resp, plan)
	})

	r, ok := value.(*reply)

	switch {
	case err != nil:
		if dispatchErr, isDispatch := chain.AsDispatchError(err); isDispatch {
			r = failureReply(dispatchErr)
		} else {
			r = &reply{err: err}
		}
	case !ok:
		r = &reply{err: fmt.Errorf("unexpected reply type %T", value)}
	}

	r.method = plan.method
	r.url = b.GetURL()
	r.duration = time.Since(started)

	logger.DebugKV(ctx, "Reply rendered",
		"method", r.method,
		"url", r.url,
		"status", r.status,
		"size", len(r.body),
		"failed", r.failed)

	return r
}

// emit prints the status line and sends the body to stdout or a file.
func (a *App) emit(ctx context.Context, r *reply, plan *requestPlan, rawURL string, showProgress bool) error {
	a.printStatus(a.stderr, r)

	path := outputPath(plan, rawURL)
	if path == "" || r.err != nil || r.failed {
		return printBody(a.stdout, r, plan.shape)
	}

	if exists, err := utils.IsFileExist(path); err == nil && exists {
		logger.Warnf(ctx, "Overwriting existing file '%s'", path)
	}

	return writeOutput(path, r.body, showProgress)
}
