package prompt

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/term"
)

func TestReadLineStripsLineEndings(t *testing.T) {
	p := New(strings.NewReader("first\r\nsecond\nlast"), io.Discard)

	for _, want := range []string{"first", "second", "last"} {
		got, err := p.ReadLine(context.Background())
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := p.ReadLine(context.Background())
	assert.ErrorIs(t, err, io.EOF)
}

func TestReadLineCancelledKeepsLineForNextRead(t *testing.T) {
	pr, pw := io.Pipe()
	p := New(pr, io.Discard)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := p.ReadLine(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	go func() { _, _ = io.WriteString(pw, "late\n") }()

	got, err := p.ReadLine(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "late", got)
}

func TestAskTrimsAndPrintsLabel(t *testing.T) {
	var out bytes.Buffer
	p := New(strings.NewReader("  abc123  \n"), &out)

	got, err := p.Ask(context.Background(), "Client ID")
	require.NoError(t, err)
	assert.Equal(t, "abc123", got)
	assert.Equal(t, "Client ID: ", out.String())
}

func TestAskSecretFallsBackWithoutTerminal(t *testing.T) {
	p := New(strings.NewReader("s3cret\n"), io.Discard)
	assert.False(t, p.Interactive())

	got, err := p.AskSecret(context.Background(), "Secret")
	require.NoError(t, err)
	assert.Equal(t, "s3cret", got)
}

// fakeTerminal blocks password reads until release is closed and records restores.
type fakeTerminal struct {
	state    *term.State
	release  chan struct{}
	restored chan *term.State
}

func newFakeTerminal() *fakeTerminal {
	return &fakeTerminal{
		state:    &term.State{},
		release:  make(chan struct{}),
		restored: make(chan *term.State, 1),
	}
}

func (f *fakeTerminal) install(p *Prompter) {
	p.fd = 0
	p.tty = terminal{
		isTerminal: func(int) bool { return true },
		readPassword: func(int) ([]byte, error) {
			<-f.release
			return []byte(" typed \n"), nil
		},
		getState: func(int) (*term.State, error) { return f.state, nil },
		restore: func(_ int, st *term.State) error {
			f.restored <- st
			return nil
		},
	}
}

func TestAskSecretReadsWithoutEcho(t *testing.T) {
	tty := newFakeTerminal()
	var out bytes.Buffer
	p := New(strings.NewReader(""), &out)
	tty.install(p)
	close(tty.release)

	got, err := p.AskSecret(context.Background(), "Client secret")
	require.NoError(t, err)
	assert.Equal(t, "typed", got)
	assert.Equal(t, "Client secret: \n", out.String())
	assert.Empty(t, tty.restored, "a finished read restores the terminal itself")
}

func TestAskSecretCancelledRestoresTerminal(t *testing.T) {
	tty := newFakeTerminal()
	defer close(tty.release)
	p := New(strings.NewReader(""), io.Discard)
	tty.install(p)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := p.AskSecret(ctx, "Client secret")
	require.ErrorIs(t, err, context.DeadlineExceeded)

	select {
	case st := <-tty.restored:
		assert.Same(t, tty.state, st)
	default:
		t.Fatal("terminal state was not restored before returning")
	}
}

func TestAskSecretFailsWithoutTerminalState(t *testing.T) {
	tty := newFakeTerminal()
	p := New(strings.NewReader(""), io.Discard)
	tty.install(p)
	p.tty.getState = func(int) (*term.State, error) { return nil, errors.New("not a tty") }

	_, err := p.AskSecret(context.Background(), "Client secret")
	assert.ErrorContains(t, err, "read terminal state")
}

func TestWaitEnterTreatsClosedInputAsEnter(t *testing.T) {
	p := New(strings.NewReader(""), io.Discard)
	assert.NoError(t, p.WaitEnter(context.Background(), "Press Enter..."))
}

func TestOpenBrowserFallsBackToPrinting(t *testing.T) {
	var out bytes.Buffer
	p := New(strings.NewReader(""), &out)
	p.Open = func(string) error { return errors.New("no display") }

	p.OpenBrowser("https://www.reddit.com/prefs/apps")
	assert.Contains(t, out.String(), "https://www.reddit.com/prefs/apps")

	out.Reset()
	var opened string
	p.Open = func(u string) error { opened = u; return nil }
	p.OpenBrowser("https://example.com")
	assert.Equal(t, "https://example.com", opened)
	assert.Empty(t, out.String())
}

func TestPanelHelpers(t *testing.T) {
	assert.Equal(t, "Name:     bot\nHomepage: https://x\n", KeyValues([2]string{"Name", "bot"}, [2]string{"Homepage", "https://x"}))
	assert.Equal(t, "1. one\n2. two\n", Numbered("one", "two"))

	panel := Panel("Configuration", "Name: bot\n", AccentInfo)
	assert.Contains(t, panel, "Configuration")
	assert.Contains(t, panel, "Name: bot")
}
