package release

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func TestCreateDraftPrerelease(t *testing.T) {
	var gotBody createReleaseRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/repos/thunderstore/tcli/releases" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer token-1" {
			t.Errorf("Authorization = %q", got)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Error(err)
		}
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(Release{
			ID:      42,
			TagName: gotBody.TagName,
			HTMLURL: "https://github.com/thunderstore/tcli/releases/v1.2.3",
			Draft:   true,
		})
	}))
	defer server.Close()

	gh := NewGitHub("token-1", WithGitHubBaseURLs(server.URL, server.URL))
	release, err := gh.CreateDraftPrerelease(t.Context(), "thunderstore", "tcli", "v1.2.3", "abc123")
	if err != nil {
		t.Fatal(err)
	}

	if release.ID != 42 || !release.Draft {
		t.Errorf("release = %+v", release)
	}
	if !gotBody.Draft || !gotBody.Prerelease || !gotBody.GenerateReleaseNotes {
		t.Errorf("request body = %+v, want draft prerelease with generated notes", gotBody)
	}
	if gotBody.TargetCommitish != "abc123" {
		t.Errorf("TargetCommitish = %q", gotBody.TargetCommitish)
	}
}

func TestUploadAsset(t *testing.T) {
	var gotName string
	var gotContents []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/repos/thunderstore/tcli/releases/42/assets" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		gotName = r.URL.Query().Get("name")
		var err error
		gotContents, err = io.ReadAll(r.Body)
		if err != nil {
			t.Error(err)
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	asset := filepath.Join(t.TempDir(), "tcli-1.2.3.tar.gz")
	if err := os.WriteFile(asset, []byte("archive bytes"), 0o644); err != nil {
		t.Fatal(err)
	}

	gh := NewGitHub("token-1", WithGitHubBaseURLs(server.URL, server.URL))
	if err := gh.UploadAsset(t.Context(), "thunderstore", "tcli", 42, "tcli-1.2.3.tar.gz", asset); err != nil {
		t.Fatal(err)
	}

	if gotName != "tcli-1.2.3.tar.gz" {
		t.Errorf("asset name = %q", gotName)
	}
	if string(gotContents) != "archive bytes" {
		t.Errorf("asset contents = %q", gotContents)
	}
}

func TestGitHub_ErrorResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"message": "Validation Failed"}`))
	}))
	defer server.Close()

	gh := NewGitHub("token-1", WithGitHubBaseURLs(server.URL, server.URL))
	if _, err := gh.CreateDraftPrerelease(t.Context(), "o", "r", "v1.0.0", ""); err == nil {
		t.Fatal("CreateDraftPrerelease swallowed a 422")
	}
}
