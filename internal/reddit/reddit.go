// Package reddit guides the user through creating a Reddit "script" app and
// saves the resulting client credentials as repository secrets.
package reddit

import (
	"context"

	"benefits-setup/internal/config"
	"benefits-setup/internal/logger"
	"benefits-setup/internal/prompt"
)

// PrefsURL is where Reddit apps are created.
const PrefsURL = "https://www.reddit.com/prefs/apps"

// SecretStore stores repository secrets.
type SecretStore interface {
	Authenticated(ctx context.Context) bool
	SetSecret(ctx context.Context, name, value string) error
}

// Walkthrough prints the steps and collects the credentials.
type Walkthrough struct {
	Settings config.RedditSettings
	Secrets  SecretStore
	Prompt   *prompt.Prompter
	// AutoSecret asks for the credentials and stores them with gh.
	AutoSecret bool
}

// Run executes the walkthrough. It reports whether the secrets were stored.
func (w *Walkthrough) Run(ctx context.Context) (bool, error) {
	s := w.Settings
	p := w.Prompt

	p.Printf("Reddit API Setup for Student Benefits Hub\n\n")
	p.Printf("This creates a Reddit 'script' app for server-side API access.\n")
	p.Printf("No user login required, it uses the client credentials flow.\n\n")
	p.Printf("%s\n", prompt.Panel("Configuration to use", prompt.KeyValues(
		[2]string{"Name", s.AppName},
		[2]string{"Type", "script (personal use)"},
		[2]string{"Redirect URI", s.RedirectURI},
	), prompt.AccentInfo))

	if err := p.WaitEnter(ctx, "Press Enter to open reddit.com/prefs/apps..."); err != nil {
		return false, err
	}
	p.OpenBrowser(PrefsURL)

	p.Printf("\n%s\n", prompt.Panel("In the browser", prompt.Numbered(
		`Scroll down and click "create another app..."`,
		"Enter name: "+s.AppName,
		`Select "script" (for personal use)`,
		"Enter redirect URI: "+s.RedirectURI,
		`Click "create app"`,
	), prompt.AccentSteps))

	if err := p.WaitEnter(ctx, "Press Enter after creating the app..."); err != nil {
		return false, err
	}

	p.Printf("\nNow copy the credentials from the app you just created:\n")
	p.Printf("  - client_id: shown under the app name (short string)\n")
	p.Printf("  - client_secret: labeled 'secret'\n\n")

	if !w.AutoSecret {
		w.printManual()
		return false, nil
	}
	if !w.Secrets.Authenticated(ctx) {
		logger.Warn("[WARN] gh is not installed or not authenticated, skipping automatic secrets\n")
		w.printManual()
		return false, nil
	}

	clientID, err := p.Ask(ctx, "client_id (blank to skip)")
	if err != nil {
		return false, err
	}
	if clientID == "" {
		w.printManual()
		return false, nil
	}
	clientSecret, err := p.AskSecret(ctx, "client_secret")
	if err != nil {
		return false, err
	}
	if clientSecret == "" {
		w.printManual()
		return false, nil
	}
	logger.Mask(clientSecret)

	if err := w.Secrets.SetSecret(ctx, s.ClientIDSecret, clientID); err != nil {
		logger.Warn("[WARN] Could not save %s: %v\n", s.ClientIDSecret, err)
		w.printManual()
		return false, nil
	}
	if err := w.Secrets.SetSecret(ctx, s.ClientSecretSecret, clientSecret); err != nil {
		logger.Warn("[WARN] Could not save %s: %v\n", s.ClientSecretSecret, err)
		w.printManual()
		return false, nil
	}
	logger.Success("[OK] Secrets %s and %s added to GitHub\n", s.ClientIDSecret, s.ClientSecretSecret)
	return true, nil
}

func (w *Walkthrough) printManual() {
	p := w.Prompt
	p.Printf("Run these commands to save them as GitHub secrets:\n\n")
	for _, name := range []string{w.Settings.ClientIDSecret, w.Settings.ClientSecretSecret} {
		p.Printf("   gh secret set %s\n", name)
		p.Printf("   # paste the value, press Enter, then Ctrl+D\n\n")
	}
}

