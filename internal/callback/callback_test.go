package callback

import (
	"context"
	"errors"
	"io"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFutureSingleAssignment(t *testing.T) {
	f := NewFuture[string]()
	_, ok := f.Value()
	assert.False(t, ok)

	assert.True(t, f.Resolve("first"))
	assert.False(t, f.Resolve("second"))

	v, err := f.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "first", v)
}

func TestFutureConcurrentResolve(t *testing.T) {
	f := NewFuture[int]()
	var wg sync.WaitGroup
	var mu sync.Mutex
	winners := 0
	for i := range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if f.Resolve(i) {
				mu.Lock()
				winners++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, winners)
}

func TestFutureWaitHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewFuture[int]().Wait(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCodeFromURL(t *testing.T) {
	cases := []struct {
		in, code, state string
		ok              bool
	}{
		{"http://localhost:3456/?code=abc&state=s1", "abc", "s1", true},
		{"  http://localhost:3456?code=abc  ", "abc", "", true},
		{"code=xyz", "xyz", "", true},
		{"http://localhost:3456/?code=abc#frag", "abc", "", true},
		{"http://localhost:3456/", "", "", false},
		{"hello", "", "", false},
		{"http://localhost:3456/?code=", "", "", false},
	}
	for _, c := range cases {
		code, state, ok := CodeFromURL(c.in)
		assert.Equal(t, c.ok, ok, c.in)
		assert.Equal(t, c.code, code, c.in)
		assert.Equal(t, c.state, state, c.in)
	}
}

// lines feeds canned input to FromLines, then blocks until ctx ends.
func lines(input ...string) LineReader {
	ch := make(chan string, len(input))
	for _, l := range input {
		ch <- l
	}
	return func(ctx context.Context) (string, error) {
		select {
		case l := <-ch:
			return l, nil
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
}

func TestFromLinesSkipsUnusableInput(t *testing.T) {
	result := NewFuture[Capture]()
	read := lines("", "not a url", "http://localhost:3456/?code=bad&state=other", "http://localhost:3456/?code=good&state=s1")

	require.NoError(t, FromLines(read, "s1")(context.Background(), result))

	v, ok := result.Value()
	require.True(t, ok)
	assert.Equal(t, Capture{Code: "good", Source: SourcePasted}, v)
}

func TestAwaitTimesOut(t *testing.T) {
	result := NewFuture[Capture]()
	_, err := Await(context.Background(), 20*time.Millisecond, result, FromLines(lines(), ""))
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestAwaitReturnsParentCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Await(ctx, time.Second, NewFuture[Capture]())
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, ErrTimeout)
}

func TestAwaitFirstProducerWins(t *testing.T) {
	result := NewFuture[Capture]()
	slowStopped := make(chan struct{})
	slow := func(ctx context.Context, f *Future[Capture]) error {
		defer close(slowStopped)
		<-ctx.Done()
		return ctx.Err()
	}

	got, err := Await(context.Background(), time.Second, result, slow, FromLines(lines("code=fast"), ""))
	require.NoError(t, err)
	assert.Equal(t, Capture{Code: "fast", Source: SourcePasted}, got)

	select {
	case <-slowStopped:
	case <-time.After(time.Second):
		t.Fatal("losing producer was not cancelled")
	}
}

func listen(t *testing.T, state string) (*Server, *Future[Capture]) {
	t.Helper()
	result := NewFuture[Capture]()
	srv, err := Listen("127.0.0.1:0", state, result)
	require.NoError(t, err)
	srv.renderWait = 2 * time.Second
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return srv, result
}

func get(t *testing.T, url string) (int, string) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func TestServerRejectsMissingCode(t *testing.T) {
	srv, result := listen(t, "s1")

	status, body := get(t, srv.URL()+"/?state=s1")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, body, "Missing code")

	_, ok := result.Value()
	assert.False(t, ok)
}

func TestServerRejectsStateMismatch(t *testing.T) {
	srv, result := listen(t, "s1")

	status, _ := get(t, srv.URL()+"/?code=abc&state=forged")
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = get(t, srv.URL()+"/?code=abc")
	assert.Equal(t, http.StatusBadRequest, status)

	_, ok := result.Value()
	assert.False(t, ok)
}

func TestServerRendersOutcome(t *testing.T) {
	srv, result := listen(t, "s1")

	go func() {
		capture, err := result.Wait(context.Background())
		if err == nil && capture.Code == "abc" {
			srv.Complete(Outcome{
				OK:       true,
				Title:    "Done",
				Details:  []string{"App: <bot> (ID: 7)"},
				Link:     "https://github.com/settings/apps/bot/installations",
				LinkText: "Install the app",
			})
		}
	}()

	status, body := get(t, srv.URL()+"/?code=abc&state=s1")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "<h1>Done</h1>")
	assert.Contains(t, body, "App: &lt;bot&gt; (ID: 7)")
	assert.Contains(t, body, `href="https://github.com/settings/apps/bot/installations"`)

	v, _ := result.Value()
	assert.Equal(t, SourceRedirect, v.Source)
}

func TestServerRendersFailure(t *testing.T) {
	srv, _ := listen(t, "")
	srv.Complete(Outcome{Title: "Failed"})

	status, body := get(t, srv.URL()+"/?code=abc")
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Contains(t, body, "Failed")
}

func TestServerAnswersLaterRequestsWithConflict(t *testing.T) {
	srv, result := listen(t, "")
	require.True(t, result.Resolve(Capture{Code: "pasted", Source: SourcePasted}))

	status, _ := get(t, srv.URL()+"/?code=abc")
	assert.Equal(t, http.StatusConflict, status)

	v, _ := result.Value()
	assert.Equal(t, "pasted", v.Code)
}

func TestServerFallsBackWhenNoOutcomeArrives(t *testing.T) {
	srv, _ := listen(t, "")
	srv.renderWait = 10 * time.Millisecond

	status, body := get(t, srv.URL()+"/?code=abc")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "return to the terminal")
}

func TestListenFailsOnBusyPort(t *testing.T) {
	srv, _ := listen(t, "")
	_, err := Listen(srv.Addr(), "", NewFuture[Capture]())
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrTimeout))
}
