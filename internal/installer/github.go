package installer

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"benefits-setup/internal/logger"
)

// DefaultAPIBase is the GitHub REST API root used for release lookups.
const DefaultAPIBase = "https://api.github.com"

// GitHubRelease represents the structure of a GitHub release JSON response.
type GitHubRelease struct {
	TagName string  `json:"tag_name"` // The release tag (e.g., 2024.10.1)
	Assets  []Asset `json:"assets"`
}

// Asset is one downloadable file of a release.
type Asset struct {
	Name               string `json:"name"`
	BrowserDownloadURL string `json:"browser_download_url"`
	Size               int64  `json:"size"`
}

// Releases fetches release metadata and assets from GitHub.
type Releases struct {
	HTTP    *http.Client
	APIBase string
}

// NewReleases returns a client for the public GitHub API.
func NewReleases() *Releases {
	return &Releases{HTTP: &http.Client{Timeout: 5 * time.Minute}, APIBase: DefaultAPIBase}
}

// Fetch returns the release of repo ("owner/name") tagged tag, or the latest
// release when tag is empty or "latest".
func (r *Releases) Fetch(ctx context.Context, repo, tag string) (GitHubRelease, error) {
	endpoint := fmt.Sprintf("%s/repos/%s/releases/latest", r.APIBase, repo)
	if tag != "" && tag != "latest" {
		endpoint = fmt.Sprintf("%s/repos/%s/releases/tags/%s", r.APIBase, repo, url.PathEscape(tag))
	}
	logger.Debug("[DEBUG] Fetching GitHub release from URL: %s\n", endpoint)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return GitHubRelease{}, err
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("User-Agent", "benefits-setup")

	resp, err := r.HTTP.Do(req)
	if err != nil {
		return GitHubRelease{}, fmt.Errorf("fetch release %s@%s: %w", repo, tagOrLatest(tag), err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			logger.Warn("[WARN] Failed to close HTTP response body: %v\n", cerr)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return GitHubRelease{}, fmt.Errorf("GitHub release fetch failed for %s@%s: HTTP status %d", repo, tagOrLatest(tag), resp.StatusCode)
	}

	var release GitHubRelease
	if err := json.NewDecoder(resp.Body).Decode(&release); err != nil {
		return GitHubRelease{}, fmt.Errorf("failed to decode GitHub release JSON for %s: %w", repo, err)
	}
	logger.Debug("[DEBUG] Release tag: %s with %d assets\n", release.TagName, len(release.Assets))
	return release, nil
}

func tagOrLatest(tag string) string {
	if tag == "" {
		return "latest"
	}
	return tag
}

// assetSuffixes lists, per OS, the asset suffixes tried in order. An empty
// suffix is the bare executable.
var assetSuffixes = map[string][]string{
	"darwin":  {".tgz", ".tar.gz", ".zip", ""},
	"linux":   {"", ".tar.gz", ".tgz", ".tar.xz", ".tar.bz2", ".zip", ".7z"},
	"windows": {".exe", ".zip", ".7z"},
}

// SelectAsset picks the asset named "<tool>-<goos>-<goarch><suffix>" that
// best fits the platform. Package formats (.deb, .rpm, .msi, .pkg) are never
// selected.
func SelectAsset(release GitHubRelease, tool, goos, goarch string) (Asset, error) {
	suffixes, ok := assetSuffixes[goos]
	if !ok {
		return Asset{}, fmt.Errorf("unsupported OS %s", goos)
	}
	base := strings.ToLower(fmt.Sprintf("%s-%s-%s", tool, goos, goarch))

	for _, suffix := range suffixes {
		for _, asset := range release.Assets {
			if strings.ToLower(asset.Name) == base+suffix {
				logger.Debug("[DEBUG] Found matching asset: %s\n", asset.Name)
				return asset, nil
			}
		}
	}
	return Asset{}, fmt.Errorf("no matching asset found for OS=%s ARCH=%s in release %s", goos, goarch, release.TagName)
}
