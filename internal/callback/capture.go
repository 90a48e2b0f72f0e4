package callback

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	"benefits-setup/internal/logger"
)

// ErrTimeout is returned by Await when no producer delivered a code in time.
var ErrTimeout = errors.New("timed out waiting for callback")

// Source tells which producer delivered a code.
type Source string

const (
	SourceRedirect Source = "redirect"
	SourcePasted   Source = "pasted"
)

// Capture is the value producers race to deliver.
type Capture struct {
	Code   string
	Source Source
}

// Producer delivers at most one Capture into result and returns when it has
// done so, when it gives up, or when ctx ends.
type Producer func(ctx context.Context, result *Future[Capture]) error

// LineReader returns the next line typed by the user.
type LineReader func(ctx context.Context) (string, error)

// Await waits for the first Capture any producer delivers into result. The
// losing producers see their context cancelled. A Server bound to result
// needs no Producer of its own.
func Await(ctx context.Context, timeout time.Duration, result *Future[Capture], producers ...Producer) (Capture, error) {
	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	for _, produce := range producers {
		go func() {
			if err := produce(waitCtx, result); err != nil && waitCtx.Err() == nil {
				logger.Debug("[DEBUG] Callback producer stopped: %v\n", err)
			}
		}()
	}

	capture, err := result.Wait(waitCtx)
	if err != nil {
		if ctx.Err() != nil {
			return Capture{}, ctx.Err()
		}
		return Capture{}, ErrTimeout
	}
	return capture, nil
}

// FromLines returns a Producer that reads pasted redirect URLs until one
// carries a code. A URL whose state parameter does not match state is ignored.
func FromLines(read LineReader, state string) Producer {
	return func(ctx context.Context, result *Future[Capture]) error {
		for {
			line, err := read(ctx)
			if err != nil {
				return err
			}
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			code, gotState, ok := CodeFromURL(line)
			if !ok {
				logger.Warn("[WARN] No code found in the pasted text, paste the full URL from the address bar\n")
				continue
			}
			if state != "" && gotState != "" && gotState != state {
				logger.Warn("[WARN] The pasted URL belongs to another request (state mismatch)\n")
				continue
			}
			result.Resolve(Capture{Code: code, Source: SourcePasted})
			return nil
		}
	}
}

// CodeFromURL extracts the code and state query parameters from a full
// redirect URL or from a bare query string.
func CodeFromURL(raw string) (code, state string, ok bool) {
	raw = strings.TrimSpace(raw)
	query := raw
	if i := strings.IndexByte(raw, '?'); i >= 0 {
		query = raw[i+1:]
	}
	if i := strings.IndexByte(query, '#'); i >= 0 {
		query = query[:i]
	}
	values, err := url.ParseQuery(query)
	if err != nil {
		return "", "", false
	}
	code = values.Get("code")
	return code, values.Get("state"), code != ""
}
