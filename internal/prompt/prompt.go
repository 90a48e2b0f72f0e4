// Package prompt handles the interactive side of the setup walkthroughs:
// cancellable line input, Enter-to-continue pauses, hidden secret input and
// launching the user's browser.
package prompt

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/pkg/browser"
	"golang.org/x/term"

	"benefits-setup/internal/logger"
)

// terminal is the slice of golang.org/x/term the Prompter uses.
type terminal struct {
	isTerminal   func(fd int) bool
	readPassword func(fd int) ([]byte, error)
	getState     func(fd int) (*term.State, error)
	restore      func(fd int, state *term.State) error
}

var stdTerminal = terminal{
	isTerminal:   term.IsTerminal,
	readPassword: term.ReadPassword,
	getState:     term.GetState,
	restore:      term.Restore,
}

type lineResult struct {
	line string
	err  error
}

// Prompter reads from one input and writes prompts to one output.
//
// Reads happen on a single background goroutine so a caller can stop waiting
// when its context ends. A read abandoned that way is not lost: its line is
// returned by the next ReadLine.
type Prompter struct {
	in  io.Reader
	out io.Writer
	fd  int
	tty terminal

	// Open launches a browser. Tests replace it.
	Open func(url string) error

	startOnce sync.Once
	requests  chan struct{}
	results   chan lineResult

	mu      sync.Mutex
	pending bool
}

// New returns a Prompter over in and out.
func New(in io.Reader, out io.Writer) *Prompter {
	fd := -1
	if f, ok := in.(*os.File); ok {
		fd = int(f.Fd())
	}
	return &Prompter{
		in:       in,
		out:      out,
		fd:       fd,
		tty:      stdTerminal,
		Open:     browser.OpenURL,
		requests: make(chan struct{}, 1),
		results:  make(chan lineResult, 1),
	}
}

// Stdio returns a Prompter over the process's stdin and stdout.
func Stdio() *Prompter {
	browser.Stdout = io.Discard
	browser.Stderr = io.Discard
	return New(os.Stdin, os.Stdout)
}

// Out is the writer prompts go to.
func (p *Prompter) Out() io.Writer {
	return p.out
}

// Interactive reports whether input comes from a terminal.
func (p *Prompter) Interactive() bool {
	return p.fd >= 0 && p.tty.isTerminal(p.fd)
}

// Printf writes to the prompt output.
func (p *Prompter) Printf(format string, a ...any) {
	fmt.Fprintf(p.out, format, a...)
}

func (p *Prompter) start() {
	p.startOnce.Do(func() {
		go func() {
			r := bufio.NewReader(p.in)
			for range p.requests {
				line, err := r.ReadString('\n')
				if errors.Is(err, io.EOF) && line != "" {
					err = nil
				}
				p.results <- lineResult{line: strings.TrimRight(line, "\r\n"), err: err}
			}
		}()
	})
}

// ReadLine returns the next input line without its line ending.
func (p *Prompter) ReadLine(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	p.start()

	p.mu.Lock()
	if !p.pending {
		p.pending = true
		p.requests <- struct{}{}
	}
	p.mu.Unlock()

	select {
	case r := <-p.results:
		p.mu.Lock()
		p.pending = false
		p.mu.Unlock()
		return r.line, r.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// WaitEnter prints msg and blocks until a line is entered. Closed input
// counts as Enter so piped runs do not stall.
func (p *Prompter) WaitEnter(ctx context.Context, msg string) error {
	fmt.Fprint(p.out, msg)
	_, err := p.ReadLine(ctx)
	if errors.Is(err, io.EOF) {
		fmt.Fprintln(p.out)
		return nil
	}
	return err
}

// Ask prints label and returns the trimmed answer.
func (p *Prompter) Ask(ctx context.Context, label string) (string, error) {
	fmt.Fprintf(p.out, "%s: ", label)
	line, err := p.ReadLine(ctx)
	if errors.Is(err, io.EOF) {
		return strings.TrimSpace(line), nil
	}
	return strings.TrimSpace(line), err
}

// AskSecret is Ask without echo when input is a terminal. If ctx ends first
// the terminal is restored to its previous mode before returning.
func (p *Prompter) AskSecret(ctx context.Context, label string) (string, error) {
	p.mu.Lock()
	busy := p.pending
	p.mu.Unlock()
	if busy || !p.Interactive() {
		return p.Ask(ctx, label)
	}

	saved, err := p.tty.getState(p.fd)
	if err != nil {
		return "", fmt.Errorf("read terminal state: %w", err)
	}

	fmt.Fprintf(p.out, "%s: ", label)
	done := make(chan lineResult, 1)
	go func() {
		b, err := p.tty.readPassword(p.fd)
		done <- lineResult{line: string(b), err: err}
	}()
	select {
	case r := <-done:
		fmt.Fprintln(p.out)
		return strings.TrimSpace(r.line), r.err
	case <-ctx.Done():
		if err := p.tty.restore(p.fd, saved); err != nil {
			logger.Debug("[DEBUG] Could not restore terminal: %v\n", err)
		}
		fmt.Fprintln(p.out)
		return "", ctx.Err()
	}
}

// OpenBrowser opens url, printing it for manual use when no browser starts.
func (p *Prompter) OpenBrowser(url string) {
	if err := p.Open(url); err != nil {
		logger.Warn("[WARN] Could not open a browser (%v). Open this URL manually:\n", err)
		fmt.Fprintf(p.out, "  %s\n", url)
		return
	}
	logger.Debug("[DEBUG] Opened %s\n", url)
}
