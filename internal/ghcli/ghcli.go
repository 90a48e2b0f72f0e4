// Package ghcli drives the GitHub CLI (gh) for the few operations the setup
// commands need: checking authentication, storing repository secrets and
// calling the REST API with the user's credentials.
package ghcli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os/exec"
	"strings"
	"time"

	"benefits-setup/internal/logger"
)

var (
	// ErrNotInstalled means the gh binary is not on PATH.
	ErrNotInstalled = errors.New("gh CLI not found in PATH")
	// ErrNotAuthenticated means `gh auth status` failed.
	ErrNotAuthenticated = errors.New("gh CLI is not authenticated")
)

const (
	authTimeout   = 5 * time.Second
	secretTimeout = 10 * time.Second
	apiTimeout    = 30 * time.Second
)

// Runner executes a command and returns its captured output.
type Runner interface {
	Run(ctx context.Context, stdin io.Reader, name string, args ...string) (stdout, stderr []byte, err error)
}

// ExecRunner runs real subprocesses.
type ExecRunner struct{}

// Run implements Runner with os/exec.
func (ExecRunner) Run(ctx context.Context, stdin io.Reader, name string, args ...string) ([]byte, []byte, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdin = stdin
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if errors.Is(err, exec.ErrNotFound) {
		err = ErrNotInstalled
	}
	return stdout.Bytes(), stderr.Bytes(), err
}

// CLI wraps the gh binary.
type CLI struct {
	runner Runner
	bin    string
	repo   string
}

// New returns a CLI using real subprocesses. repo ("owner/name") is passed as
// --repo to secret commands; empty means the repository of the working directory.
func New(repo string) *CLI {
	return NewWithRunner(ExecRunner{}, repo)
}

// NewWithRunner returns a CLI that executes through r.
func NewWithRunner(r Runner, repo string) *CLI {
	return &CLI{runner: r, bin: "gh", repo: repo}
}

// Authenticated reports whether `gh auth status` succeeds within five seconds.
func (c *CLI) Authenticated(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, authTimeout)
	defer cancel()

	_, stderr, err := c.runner.Run(ctx, nil, c.bin, "auth", "status")
	if err != nil {
		logger.Debug("[DEBUG] gh auth status failed: %v %s\n", err, strings.TrimSpace(string(stderr)))
		return false
	}
	return true
}

// SetSecret stores value as the repository secret name. The value is passed
// on stdin so it never appears in the process list.
func (c *CLI) SetSecret(ctx context.Context, name, value string) error {
	ctx, cancel := context.WithTimeout(ctx, secretTimeout)
	defer cancel()

	args := []string{"secret", "set", name}
	if c.repo != "" {
		args = append(args, "--repo", c.repo)
	}
	_, stderr, err := c.runner.Run(ctx, strings.NewReader(value), c.bin, args...)
	if err != nil {
		return commandError("gh secret set "+name, err, stderr)
	}
	logger.Debug("[DEBUG] Secret %s stored\n", name)
	return nil
}

// ConvertManifest exchanges a GitHub App manifest code for the new app's
// credentials and returns the raw JSON response.
func (c *CLI) ConvertManifest(ctx context.Context, code string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, apiTimeout)
	defer cancel()

	path := "/app-manifests/" + url.PathEscape(code) + "/conversions"
	stdout, stderr, err := c.runner.Run(ctx, nil, c.bin, "api", path, "-X", "POST")
	if err != nil {
		return nil, commandError("gh api "+path, err, stderr)
	}
	return stdout, nil
}

func commandError(what string, err error, stderr []byte) error {
	if errors.Is(err, ErrNotInstalled) {
		return err
	}
	if msg := strings.TrimSpace(string(stderr)); msg != "" {
		return fmt.Errorf("%s: %w: %s", what, err, msg)
	}
	return fmt.Errorf("%s: %w", what, err)
}
