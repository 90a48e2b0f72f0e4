package githubapp

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"benefits-setup/internal/callback"
	"benefits-setup/internal/config"
	"benefits-setup/internal/logger"
	"benefits-setup/internal/prompt"
)

// GitHub is what the flow needs from the gh CLI.
type GitHub interface {
	Authenticated(ctx context.Context) bool
	SetSecret(ctx context.Context, name, value string) error
	ConvertManifest(ctx context.Context, code string) ([]byte, error)
}

// Flow walks the user through app creation.
type Flow struct {
	Settings config.GitHubAppSettings
	GitHub   GitHub
	Prompt   *prompt.Prompter
	// AutoSecret stores the credentials with gh; when false they are printed.
	AutoSecret bool
	// ListenAddr overrides localhost:<callback port>.
	ListenAddr string
	// Timeout overrides Settings.CallbackTimeout.
	Timeout time.Duration
	// NewState returns the anti-forgery nonce; uuid by default.
	NewState func() string
}

// Run creates the app. It returns nil credentials and a nil error when no
// callback arrived in time; the manual steps have been printed by then.
func (f *Flow) Run(ctx context.Context) (*Credentials, error) {
	newState := f.NewState
	if newState == nil {
		newState = uuid.NewString
	}
	state := newState()

	addr := f.ListenAddr
	redirect := fmt.Sprintf("http://localhost:%d", f.Settings.CallbackPort)
	if addr == "" {
		addr = fmt.Sprintf("localhost:%d", f.Settings.CallbackPort)
	}

	result := callback.NewFuture[callback.Capture]()
	srv, err := callback.Listen(addr, state, result)
	if err != nil {
		return nil, err
	}
	stopListening := sync.OnceFunc(func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	})
	defer stopListening()
	if f.ListenAddr != "" {
		redirect = srv.URL()
	}

	manifest := NewManifest(f.Settings, redirect)
	regURL, err := RegistrationURL(manifest, state)
	if err != nil {
		return nil, err
	}

	f.printConfiguration(manifest)
	if err := f.Prompt.WaitEnter(ctx, "Press Enter to open browser..."); err != nil {
		return nil, err
	}

	f.Prompt.Printf("\nWaiting for callback on %s\n", redirect)
	f.Prompt.Printf("After clicking 'Create GitHub App', your browser will redirect here.\n\n")
	f.Prompt.Printf("If the redirect fails, copy the URL from your browser's address bar\n")
	f.Prompt.Printf("and paste it here (or Ctrl+C to cancel):\n\n")
	f.Prompt.OpenBrowser(regURL)

	timeout := f.Timeout
	if timeout <= 0 {
		timeout = time.Duration(f.Settings.CallbackTimeout) * time.Second
	}
	capture, err := callback.Await(ctx, timeout, result, callback.FromLines(f.Prompt.ReadLine, state))
	if errors.Is(err, callback.ErrTimeout) {
		f.printManualSteps()
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	logger.Debug("[DEBUG] Received code via %s\n", capture.Source)
	if capture.Source == callback.SourcePasted {
		// No browser is waiting on the callback page.
		stopListening()
	}

	creds, err := f.exchange(ctx, capture.Code)
	if err != nil {
		srv.Complete(callback.Outcome{Title: "Failed", Details: []string{err.Error()}})
		return nil, err
	}

	stored := f.storeSecrets(ctx, creds)
	install := InstallURL(creds.Slug)
	f.Prompt.Printf("\nInstall the app on your repository:\n  %s\n", install)

	details := []string{fmt.Sprintf("App: %s (ID: %d)", creds.Name, creds.ID)}
	if stored {
		details = append(details, "Secrets added to repo.")
	} else {
		details = append(details, "Add the secrets shown in the terminal.")
	}
	srv.Complete(callback.Outcome{OK: true, Title: "Done", Details: details, Link: install, LinkText: "Install the app"})
	return &creds, nil
}

func (f *Flow) exchange(ctx context.Context, code string) (Credentials, error) {
	logger.Info("[INFO] Exchanging code for app credentials...\n")
	raw, err := f.GitHub.ConvertManifest(ctx, code)
	if err != nil {
		return Credentials{}, fmt.Errorf("exchange manifest code: %w", err)
	}
	creds, err := ParseCredentials(raw)
	if err != nil {
		return Credentials{}, err
	}
	logger.Mask(creds.ClientSecret)
	logger.Mask(creds.WebhookSecret)
	logger.Success("[OK] App created: %s (ID: %d)\n", creds.Name, creds.ID)
	return creds, nil
}

// storeSecrets writes APP_ID and the private key with gh, printing both for
// manual entry when that is disabled or fails.
func (f *Flow) storeSecrets(ctx context.Context, creds Credentials) bool {
	idName, keyName := f.Settings.AppIDSecret, f.Settings.PrivateKey

	if f.AutoSecret && f.GitHub.Authenticated(ctx) {
		logger.Info("[INFO] Saving %s and %s secrets...\n", idName, keyName)
		err := f.GitHub.SetSecret(ctx, idName, strconv.FormatInt(creds.ID, 10))
		if err == nil {
			err = f.GitHub.SetSecret(ctx, keyName, creds.PEM)
		}
		if err == nil {
			logger.Success("[OK] Secrets added to the repository\n")
			return true
		}
		logger.Warn("[WARN] Could not add secrets automatically: %v\n", err)
	} else if f.AutoSecret {
		logger.Warn("[WARN] gh is not installed or not authenticated, skipping automatic secrets\n")
	}

	f.Prompt.Printf("\nAdd these repository secrets manually:\n\n")
	f.Prompt.Printf("%s: %d\n\n", idName, creds.ID)
	f.Prompt.Printf("%s:\n%s\n", keyName, strings.TrimRight(creds.PEM, "\n"))
	return false
}

func (f *Flow) printConfiguration(m Manifest) {
	f.Prompt.Printf("Creating GitHub App: %s\n\n", m.Name)
	body := prompt.KeyValues(
		[2]string{"Name", m.Name},
		[2]string{"Homepage", m.URL},
		[2]string{"Webhook", "Disabled"},
		[2]string{"Callback", m.RedirectURL},
	)
	body += "\nPermissions:\n"
	for _, p := range m.Permissions() {
		body += "  " + p + "\n"
	}
	f.Prompt.Printf("%s\n", prompt.Panel("Configuration", body, prompt.AccentInfo))
}

func (f *Flow) printManualSteps() {
	steps := prompt.Numbered(
		"Go to https://github.com/settings/apps",
		"Click on your app",
		"Note the App ID",
		"Generate a private key",
		"Run:\n   gh secret set "+f.Settings.AppIDSecret+"\n   gh secret set "+f.Settings.PrivateKey+" < private-key.pem",
	)
	logger.Warn("[WARN] No callback received.\n")
	f.Prompt.Printf("%s", prompt.Panel("If you created the app manually", steps, prompt.AccentWarning))
}
