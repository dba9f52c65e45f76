// Package update checks a GitHub-style release feed for a newer build and
// can replace the running executable in place. The previous binary is kept
// next to the new one with a ".old" suffix until the swap succeeds.
package update

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"go.uber.org/zap"

	"github.com/mkade/ytgrab"
	"github.com/mkade/ytgrab/util"
)

// DefaultFeedURL is the "latest release" endpoint for the project.
const DefaultFeedURL = "https://api.github.com/repos/mkade/ytgrab/releases/latest"

const checkTimeout = 10 * time.Second

var ErrNoAsset = errors.New("release has no downloadable asset")

// Release describes a newer build found on the feed.
type Release struct {
	// Version is the release tag with any leading "v" stripped.
	Version string
	// AssetURL is the direct download URL of the release's first asset.
	AssetURL string
}

type releaseFeed struct {
	TagName string `json:"tag_name"`
	Assets  []struct {
		BrowserDownloadURL string `json:"browser_download_url"`
	} `json:"assets"`
}

type Checker struct {
	// FeedURL defaults to DefaultFeedURL.
	FeedURL string
	// Client defaults to http.DefaultClient.
	Client *http.Client
	// CurrentVersion defaults to the built-in version constant.
	CurrentVersion string

	log *zap.SugaredLogger
}

func NewChecker() *Checker {
	return &Checker{log: zap.S().Named("update")}
}

// Check fetches the feed and returns the newest release, or nil when the
// running build is already current.
func (c *Checker) Check(ctx context.Context) (*Release, error) {
	feedURL := c.FeedURL
	if feedURL == "" {
		feedURL = DefaultFeedURL
	}
	client := c.Client
	if client == nil {
		client = http.DefaultClient
	}
	current := c.CurrentVersion
	if current == "" {
		current = ytgrab.Version
	}

	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("update check failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("update check failed: unexpected status %s", resp.Status)
	}

	var feed releaseFeed
	if err := json.NewDecoder(resp.Body).Decode(&feed); err != nil {
		return nil, fmt.Errorf("update check failed: %w", err)
	}

	latest := strings.TrimPrefix(strings.TrimSpace(feed.TagName), "v")
	if latest == "" || latest == current {
		return nil, nil
	}
	if c.log != nil {
		c.log.Infof("new version available: %s (running %s)", latest, current)
	}
	if len(feed.Assets) == 0 {
		return nil, ErrNoAsset
	}
	return &Release{Version: latest, AssetURL: feed.Assets[0].BrowserDownloadURL}, nil
}

// Install downloads the release asset and swaps it in for the running
// executable. The old binary is renamed aside first and restored if anything
// after that point fails.
func Install(ctx context.Context, client *http.Client, release *Release) error {
	if client == nil {
		client = http.DefaultClient
	}
	exe, err := os.Executable()
	if err != nil {
		return err
	}
	exe, err = filepath.EvalSymlinks(exe)
	if err != nil {
		return err
	}

	tmpPath, err := download(ctx, client, release.AssetURL)
	if err != nil {
		return err
	}
	defer os.Remove(tmpPath)

	oldPath := exe + ".old"
	if err := os.Rename(exe, oldPath); err != nil {
		return fmt.Errorf("failed to move old executable aside: %w", err)
	}
	if err := replace(tmpPath, exe); err != nil {
		// Put the original binary back so a failed update leaves a working
		// installation behind.
		if restoreErr := os.Rename(oldPath, exe); restoreErr != nil {
			err = multierror.Append(err, fmt.Errorf("failed to restore old executable: %w", restoreErr))
		}
		return err
	}
	os.Remove(oldPath)
	return nil
}

func download(ctx context.Context, client *http.Client, assetURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, assetURL, nil)
	if err != nil {
		return "", err
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to download release: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("failed to download release: unexpected status %s", resp.Status)
	}

	name, err := util.FilenameFromURLString(assetURL)
	if err != nil {
		name = ytgrab.Name
	}
	f, err := os.CreateTemp("", name+"-*")
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("failed to download release: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", err
	}
	return f.Name(), nil
}

func replace(srcPath, dstPath string) error {
	src, err := os.Open(srcPath)
	if err != nil {
		return err
	}
	defer src.Close()
	dst, err := os.OpenFile(dstPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o755)
	if err != nil {
		return err
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return err
	}
	return dst.Close()
}
