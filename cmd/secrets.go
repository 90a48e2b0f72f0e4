package cmd

import (
	"context"
	"fmt"

	"benefits-setup/internal/ghcli"
	"benefits-setup/internal/logger"
)

// storeSecret saves value as a repository secret with gh, or prints it with
// instructions when that is disabled or fails. It reports whether gh stored it.
func storeSecret(ctx context.Context, name, value string) bool {
	if !noAutoSecret {
		gh := ghcli.New(cfg.Repo)
		if gh.Authenticated(ctx) {
			err := gh.SetSecret(ctx, name, value)
			if err == nil {
				logger.Success("[OK] Secret %s added to GitHub\n", name)
				return true
			}
			logger.Warn("[WARN] Could not add secret %s: %v\n", name, err)
		} else {
			logger.Warn("[WARN] gh is not installed or not authenticated, skipping automatic secret\n")
		}
	}

	fmt.Printf("\nAdd this value as GitHub secret %s:\n", name)
	fmt.Println(value)
	return false
}
