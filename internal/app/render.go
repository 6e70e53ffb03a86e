package app

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/schollz/progressbar/v3"
	"github.com/tidwall/gjson"

	"github.com/oshokin/fetchchain/internal/chain"
	"github.com/oshokin/fetchchain/internal/constants"
	"github.com/oshokin/fetchchain/internal/fetch"
	"github.com/oshokin/fetchchain/internal/utils"
)

// ErrSelectNoMatch indicates that --select matched nothing in the body.
var ErrSelectNoMatch = errors.New("path not found")

// reply is the rendered outcome of one URL.
type reply struct {
	method   string
	url      string
	status   int
	body     []byte
	duration time.Duration
	// failed is set for non-2xx responses.
	failed bool
	// err is set when no usable response was obtained.
	err error
}

// decodeReply reads resp in the requested shape and renders it to bytes.
func decodeReply(resp fetch.Response, plan *requestPlan) (*reply, error) {
	result := &reply{status: resp.Status()}

	if plan.selectPath != "" {
		data, err := resp.ArrayBuffer()
		if err != nil {
			return nil, err
		}

		selected := gjson.GetBytes(data, plan.selectPath)
		if !selected.Exists() {
			return nil, fmt.Errorf("%w: %s", ErrSelectNoMatch, plan.selectPath)
		}

		if selected.Type == gjson.String {
			result.body = []byte(selected.String())
		} else {
			result.body = []byte(selected.Raw)
		}

		return result, nil
	}

	var err error

	switch plan.shape {
	case ShapeJSON:
		var value any

		if value, err = resp.JSON(); err == nil {
			result.body, err = json.MarshalIndent(value, "", "  ")
		}
	case ShapeBlob:
		var blob *fetch.Blob

		if blob, err = resp.Blob(); err == nil {
			result.body = blob.Data
		}
	case ShapeForm:
		var form fetch.FormData

		if form, err = resp.FormData(); err == nil {
			result.body = renderForm(form)
		}
	case ShapeBytes:
		result.body, err = resp.ArrayBuffer()
	default:
		var text string

		if text, err = resp.Text(); err == nil {
			result.body = []byte(text)
		}
	}

	if err != nil {
		return nil, err
	}

	return result, nil
}

func renderForm(form fetch.FormData) []byte {
	var buf bytes.Buffer

	for _, field := range form {
		buf.WriteString(field.Key)
		buf.WriteByte('=')
		buf.WriteString(field.Value)
		buf.WriteByte('\n')
	}

	return buf.Bytes()
}

// failureReply renders a DispatchError body as the reply.
func failureReply(err *chain.DispatchError) *reply {
	return &reply{
		status: err.Status,
		body:   []byte(err.Body()),
		failed: true,
	}
}

// printStatus writes the status line of r to w.
func (a *App) printStatus(w io.Writer, r *reply) {
	method := a.colors.Method.Sprint(r.method)
	url := a.colors.URL.Sprint(r.url)

	if r.err != nil {
		_, _ = fmt.Fprintf(w, "%s %s %s\n", method, url, a.colors.StatusError.Sprintf("error: %v", r.err))

		return
	}

	status := a.colors.Status(r.status).Sprintf("%d %s", r.status, http.StatusText(r.status))
	detail := a.colors.Detail.Sprintf("(%s, %s)",
		humanize.Bytes(uint64(len(r.body))),
		r.duration.Round(time.Millisecond))

	_, _ = fmt.Fprintf(w, "%s %s %s %s\n", method, url, status, detail)
}

// printBody writes the body of r to w, ending text output with a newline.
func printBody(w io.Writer, r *reply, shape Shape) error {
	if r.err != nil || len(r.body) == 0 {
		return nil
	}

	if _, err := w.Write(r.body); err != nil {
		return err
	}

	if shape == ShapeBlob || shape == ShapeBytes || bytes.HasSuffix(r.body, []byte("\n")) {
		return nil
	}

	_, err := io.WriteString(w, "\n")

	return err
}

// outputPath returns the file the body of rawURL goes to, or "" for stdout.
func outputPath(plan *requestPlan, rawURL string) string {
	switch {
	case plan.output != "":
		return plan.output
	case plan.remoteName:
		return utils.RemoteFilename(rawURL)
	default:
		return ""
	}
}

// writeOutput saves data to path. A progress bar is drawn when showProgress is set.
func writeOutput(path string, data []byte, showProgress bool) (err error) {
	if dir := filepath.Dir(path); dir != "." {
		if err = os.MkdirAll(dir, constants.DefaultFolderPermissions); err != nil {
			return fmt.Errorf("failed to create output folder: %w", err)
		}
	}

	f, err := os.OpenFile(filepath.Clean(path), os.O_CREATE|os.O_WRONLY|os.O_TRUNC, constants.DefaultFilePermissions)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}

	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close output file: %w", closeErr)
		}
	}()

	var (
		writer io.Writer = f
		size             = uint64(len(data))
	)

	if showProgress {
		bar := progressbar.DefaultBytes(utils.SafeUint64ToInt64(size), "Saving "+strings.TrimSpace(filepath.Base(path)))
		writer = io.MultiWriter(f, bar)
	}

	if _, err = io.Copy(writer, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}

	return nil
}
