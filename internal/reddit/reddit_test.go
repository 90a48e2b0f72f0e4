package reddit

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"benefits-setup/internal/config"
	"benefits-setup/internal/prompt"
)

type fakeSecrets struct {
	authed bool
	err    error
	stored map[string]string
}

func (f *fakeSecrets) Authenticated(context.Context) bool { return f.authed }

func (f *fakeSecrets) SetSecret(_ context.Context, name, value string) error {
	if f.err != nil {
		return f.err
	}
	if f.stored == nil {
		f.stored = map[string]string{}
	}
	f.stored[name] = value
	return nil
}

func walkthrough(secrets *fakeSecrets, input string, out *bytes.Buffer) (*Walkthrough, *string) {
	p := prompt.New(strings.NewReader(input), out)
	opened := new(string)
	p.Open = func(u string) error { *opened = u; return nil }
	return &Walkthrough{
		Settings:   config.Default().Reddit,
		Secrets:    secrets,
		Prompt:     p,
		AutoSecret: true,
	}, opened
}

func TestWalkthroughStoresSecrets(t *testing.T) {
	secrets := &fakeSecrets{authed: true}
	var out bytes.Buffer
	w, opened := walkthrough(secrets, "\n\n abc123 \nshh\n", &out)

	stored, err := w.Run(context.Background())
	require.NoError(t, err)
	assert.True(t, stored)
	assert.Equal(t, PrefsURL, *opened)
	assert.Equal(t, map[string]string{"REDDIT_CLIENT_ID": "abc123", "REDDIT_CLIENT_SECRET": "shh"}, secrets.stored)

	text := out.String()
	assert.Contains(t, text, "student-benefits-hub")
	assert.Contains(t, text, "https://localhost")
	assert.Contains(t, text, `1. Scroll down and click "create another app..."`)
	assert.Contains(t, text, `5. Click "create app"`)
	assert.NotContains(t, text, "gh secret set")
}

func TestWalkthroughBlankIDPrintsManualCommands(t *testing.T) {
	secrets := &fakeSecrets{authed: true}
	var out bytes.Buffer
	w, _ := walkthrough(secrets, "\n\n\n", &out)

	stored, err := w.Run(context.Background())
	require.NoError(t, err)
	assert.False(t, stored)
	assert.Empty(t, secrets.stored)
	assert.Contains(t, out.String(), "gh secret set REDDIT_CLIENT_ID")
	assert.Contains(t, out.String(), "gh secret set REDDIT_CLIENT_SECRET")
}

func TestWalkthroughWithoutGhAuth(t *testing.T) {
	secrets := &fakeSecrets{}
	var out bytes.Buffer
	w, _ := walkthrough(secrets, "\n\nabc\nshh\n", &out)

	stored, err := w.Run(context.Background())
	require.NoError(t, err)
	assert.False(t, stored)
	assert.NotContains(t, out.String(), "client_id (blank to skip)")
	assert.Contains(t, out.String(), "gh secret set REDDIT_CLIENT_ID")
}

func TestWalkthroughSecretFailureFallsBack(t *testing.T) {
	secrets := &fakeSecrets{authed: true, err: errors.New("HTTP 403")}
	var out bytes.Buffer
	w, _ := walkthrough(secrets, "\n\nabc\nshh\n", &out)

	stored, err := w.Run(context.Background())
	require.NoError(t, err)
	assert.False(t, stored)
	assert.Contains(t, out.String(), "gh secret set REDDIT_CLIENT_SECRET")
}

func TestWalkthroughCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	w, _ := walkthrough(&fakeSecrets{}, "", &bytes.Buffer{})

	_, err := w.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
