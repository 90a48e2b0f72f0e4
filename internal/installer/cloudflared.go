// Package installer downloads tools from GitHub releases and places their
// executables in a bin directory, recording what it installed in the state file.
package installer

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/blang/semver"

	"benefits-setup/internal/logger"
	"benefits-setup/internal/state"
)

const (
	// CloudflaredTool is the state key and executable name of the connector.
	CloudflaredTool = "cloudflared"
	// CloudflaredRepo hosts the connector releases.
	CloudflaredRepo = "cloudflare/cloudflared"
)

// Options selects what to install and where.
type Options struct {
	// Version is a release tag or "latest".
	Version string
	BinDir  string
	// GOOS and GOARCH default to the running platform.
	GOOS   string
	GOARCH string
	// Force reinstalls even when the recorded version is current.
	Force bool
}

// Installer installs release binaries.
type Installer struct {
	Releases *Releases
}

// New returns an Installer backed by the public GitHub API.
func New() *Installer {
	return &Installer{Releases: NewReleases()}
}

// Result describes the outcome of an install.
type Result struct {
	Tool    state.ToolState
	Skipped bool
}

// InstallCloudflared installs the cloudflared connector and records it in st.
// An install is skipped when st already records a version at least as new as
// the requested release and the recorded binary still exists.
func (in *Installer) InstallCloudflared(ctx context.Context, opts Options, st *state.State) (Result, error) {
	return in.install(ctx, CloudflaredTool, CloudflaredRepo, opts, st)
}

func (in *Installer) install(ctx context.Context, tool, repo string, opts Options, st *state.State) (Result, error) {
	if opts.GOOS == "" {
		opts.GOOS = runtime.GOOS
	}
	if opts.GOARCH == "" {
		opts.GOARCH = runtime.GOARCH
	}
	if opts.BinDir == "" {
		return Result{}, errors.New("bin directory is required")
	}

	release, err := in.Releases.Fetch(ctx, repo, opts.Version)
	if err != nil {
		return Result{}, err
	}

	if current, ok := st.Tools[tool]; ok && !opts.Force && upToDate(current, release.TagName) {
		logger.Info("[INFO] %s version %s is current. Skipping.\n", tool, current.Version)
		return Result{Tool: current, Skipped: true}, nil
	}

	asset, err := SelectAsset(release, tool, opts.GOOS, opts.GOARCH)
	if err != nil {
		return Result{}, err
	}

	workDir, err := os.MkdirTemp("", tool+"-install-")
	if err != nil {
		return Result{}, fmt.Errorf("create work directory: %w", err)
	}
	defer os.RemoveAll(workDir)

	downloaded := filepath.Join(workDir, filepath.Base(asset.Name))
	logger.Info("[INFO] Downloading asset %s\n", asset.Name)
	if err := downloadFile(ctx, in.Releases.HTTP, asset.BrowserDownloadURL, downloaded); err != nil {
		return Result{}, err
	}

	binary := downloaded
	if IsArchive(asset.Name) {
		extractDir := filepath.Join(workDir, "extracted")
		if err := ExtractArchive(downloaded, extractDir); err != nil {
			return Result{}, fmt.Errorf("failed to extract archive: %w", err)
		}
		if binary, err = findExecutable(extractDir, tool); err != nil {
			return Result{}, err
		}
	}

	name := tool
	if opts.GOOS == "windows" {
		name += ".exe"
	}
	target := filepath.Join(opts.BinDir, name)
	if err := copyFile(binary, target, 0o755); err != nil {
		return Result{}, fmt.Errorf("install %s: %w", target, err)
	}

	ts := state.ToolState{
		Version:             release.TagName,
		InstallPath:         target,
		InstalledByDevSetup: true,
	}
	st.Tools[tool] = ts
	logger.Success("[OK] Installed %s@%s to %s\n", tool, release.TagName, target)
	return Result{Tool: ts}, nil
}

// upToDate reports whether the recorded install satisfies the wanted tag.
func upToDate(current state.ToolState, wanted string) bool {
	if _, err := os.Stat(current.InstallPath); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			logger.Debug("[DEBUG] stat %s: %v\n", current.InstallPath, err)
		}
		return false
	}
	if current.Version == wanted {
		return true
	}
	have, err1 := semver.ParseTolerant(current.Version)
	want, err2 := semver.ParseTolerant(wanted)
	if err1 != nil || err2 != nil {
		return false
	}
	return have.GTE(want)
}

// Uninstall removes a tool this program installed and forgets it. Tools not
// installed by benefits-setup are only forgotten.
func Uninstall(tool string, st *state.State) error {
	ts, ok := st.Tools[tool]
	if !ok {
		return fmt.Errorf("%s is not recorded in the state file", tool)
	}
	if ts.InstalledByDevSetup && strings.TrimSpace(ts.InstallPath) != "" {
		logger.Info("[INFO] Removing %s\n", ts.InstallPath)
		if err := os.Remove(ts.InstallPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("remove %s: %w", ts.InstallPath, err)
		}
	} else {
		logger.Warn("[WARN] %s was not installed by benefits-setup, leaving %s in place\n", tool, ts.InstallPath)
	}
	delete(st.Tools, tool)
	return nil
}
