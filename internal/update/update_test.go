package update

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func feedServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		fmt.Fprint(w, body)
	}))
	t.Cleanup(server.Close)
	return server
}

func TestCheckFindsNewerRelease(t *testing.T) {
	assert := assert.New(t)
	server := feedServer(t, http.StatusOK, `{
		"tag_name": "v2.1.0",
		"assets": [{"browser_download_url": "https://example.com/ytgrab-2.1.0"}]
	}`)

	checker := NewChecker()
	checker.FeedURL = server.URL
	checker.CurrentVersion = "1.0.0"
	release, err := checker.Check(context.Background())
	require.NoError(t, err)
	require.NotNil(t, release)
	assert.Equal("2.1.0", release.Version)
	assert.Equal("https://example.com/ytgrab-2.1.0", release.AssetURL)
}

func TestCheckReturnsNilWhenCurrent(t *testing.T) {
	server := feedServer(t, http.StatusOK, `{"tag_name": "v1.0.0", "assets": []}`)

	checker := NewChecker()
	checker.FeedURL = server.URL
	checker.CurrentVersion = "1.0.0"
	release, err := checker.Check(context.Background())
	require.NoError(t, err)
	assert.Nil(t, release)
}

func TestCheckMissingAsset(t *testing.T) {
	server := feedServer(t, http.StatusOK, `{"tag_name": "v3.0.0", "assets": []}`)

	checker := NewChecker()
	checker.FeedURL = server.URL
	checker.CurrentVersion = "1.0.0"
	_, err := checker.Check(context.Background())
	assert.ErrorIs(t, err, ErrNoAsset)
}

func TestCheckRejectsBadStatus(t *testing.T) {
	server := feedServer(t, http.StatusForbidden, `{"message": "rate limited"}`)

	checker := NewChecker()
	checker.FeedURL = server.URL
	_, err := checker.Check(context.Background())
	assert.ErrorContains(t, err, "unexpected status")
}

func TestCheckRejectsEmptyTag(t *testing.T) {
	server := feedServer(t, http.StatusOK, `{"tag_name": "  ", "assets": []}`)

	checker := NewChecker()
	checker.FeedURL = server.URL
	checker.CurrentVersion = "1.0.0"
	release, err := checker.Check(context.Background())
	require.NoError(t, err)
	assert.Nil(t, release)
}

func TestDownloadWritesAsset(t *testing.T) {
	assert := assert.New(t)
	server := feedServer(t, http.StatusOK, "binary-payload")

	path, err := download(context.Background(), http.DefaultClient, server.URL+"/ytgrab-linux-amd64")
	require.NoError(t, err)
	defer os.Remove(path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal("binary-payload", string(data))
}

func TestDownloadRejectsBadStatus(t *testing.T) {
	server := feedServer(t, http.StatusNotFound, "gone")

	_, err := download(context.Background(), http.DefaultClient, server.URL+"/missing")
	assert.ErrorContains(t, err, "unexpected status")
}

func TestReplaceCopiesExecutable(t *testing.T) {
	assert := assert.New(t)
	dir := t.TempDir()
	src := dir + "/new"
	dst := dir + "/current"
	require.NoError(t, os.WriteFile(src, []byte("new build"), 0o644))
	require.NoError(t, os.WriteFile(dst, []byte("old build"), 0o755))

	require.NoError(t, replace(src, dst))

	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal("new build", string(data))
	info, err := os.Stat(dst)
	require.NoError(t, err)
	assert.NotZero(info.Mode() & 0o100)
}
