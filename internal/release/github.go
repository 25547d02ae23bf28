package release

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"

	"github.com/pkg/errors"

	"github.com/thunderstore/tcli/internal/ts"
)

const (
	githubAPIBase    = "https://api.github.com"
	githubUploadBase = "https://uploads.github.com"
)

// GitHub is a minimal client for the GitHub releases REST API.
type GitHub struct {
	apiBase    string
	uploadBase string
	token      string
	http       ts.HTTPDoer
}

// GitHubOption configures a GitHub client.
type GitHubOption func(*GitHub)

// WithGitHubBaseURLs overrides the API endpoints, mainly for tests.
func WithGitHubBaseURLs(api, upload string) GitHubOption {
	return func(g *GitHub) {
		g.apiBase = api
		g.uploadBase = upload
	}
}

// WithGitHubHTTPClient overrides the HTTP client used for requests.
func WithGitHubHTTPClient(doer ts.HTTPDoer) GitHubOption {
	return func(g *GitHub) {
		g.http = doer
	}
}

// NewGitHub creates a client authenticating with the given token.
func NewGitHub(token string, opts ...GitHubOption) *GitHub {
	g := &GitHub{
		apiBase:    githubAPIBase,
		uploadBase: githubUploadBase,
		token:      token,
		http:       http.DefaultClient,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Release is the subset of a GitHub release tcli uses.
type Release struct {
	ID      int64  `json:"id"`
	TagName string `json:"tag_name"`
	HTMLURL string `json:"html_url"`
	Draft   bool   `json:"draft"`
}

// createReleaseRequest is the POST /releases body.
type createReleaseRequest struct {
	TagName              string `json:"tag_name"`
	TargetCommitish      string `json:"target_commitish,omitempty"`
	Name                 string `json:"name"`
	Draft                bool   `json:"draft"`
	Prerelease           bool   `json:"prerelease"`
	GenerateReleaseNotes bool   `json:"generate_release_notes"`
}

// CreateDraftPrerelease creates a draft, prerelease release for the tag,
// with GitHub generating the release notes.
func (g *GitHub) CreateDraftPrerelease(ctx context.Context, owner, repo, tag, commitish string) (*Release, error) {
	body := createReleaseRequest{
		TagName:              tag,
		TargetCommitish:      commitish,
		Name:                 tag,
		Draft:                true,
		Prerelease:           true,
		GenerateReleaseNotes: true,
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, errors.Wrap(err, "encoding release request")
	}

	url := fmt.Sprintf("%s/repos/%s/%s/releases", g.apiBase, owner, repo)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, errors.Wrap(err, "building release request")
	}
	req.Header.Set("Content-Type", "application/json")

	var release Release
	if err := g.do(req, &release); err != nil {
		return nil, errors.Wrapf(err, "creating release %s", tag)
	}
	return &release, nil
}

// UploadAsset attaches a file to a release under the given asset name.
func (g *GitHub) UploadAsset(ctx context.Context, owner, repo string, releaseID int64, name, path string) error {
	file, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "opening asset %s", path)
	}
	defer file.Close() //nolint:errcheck

	info, err := file.Stat()
	if err != nil {
		return errors.Wrapf(err, "inspecting asset %s", path)
	}

	uploadURL := fmt.Sprintf("%s/repos/%s/%s/releases/%d/assets?name=%s",
		g.uploadBase, owner, repo, releaseID, url.QueryEscape(name))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, uploadURL, file)
	if err != nil {
		return errors.Wrap(err, "building upload request")
	}
	req.Header.Set("Content-Type", "application/octet-stream")
	req.ContentLength = info.Size()

	if err := g.do(req, nil); err != nil {
		return errors.Wrapf(err, "uploading asset %s", name)
	}
	return nil
}

func (g *GitHub) do(req *http.Request, out any) error {
	req.Header.Set("Accept", "application/vnd.github+json")
	if g.token != "" {
		req.Header.Set("Authorization", "Bearer "+g.token)
	}

	resp, err := g.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return errors.Errorf("github responded with %d: %s", resp.StatusCode, bytes.TrimSpace(body))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrap(err, "parsing github response")
	}
	return nil
}
