package strategy

import (
	"context"
	"encoding/json"
	"testing"

	verrors "github.com/verscout/verscout/pkg/errors"
)

// fakeFetcher serves canned JSON or text per URL and records the URLs probed.
type fakeFetcher struct {
	json  map[string]string
	text  map[string]string
	err   error
	calls []string
}

func (f *fakeFetcher) GetJSON(_ context.Context, url string, v any) error {
	f.calls = append(f.calls, url)
	if f.err != nil {
		return f.err
	}
	body, ok := f.json[url]
	if !ok {
		return verrors.New(verrors.ErrCodeNotFound, "status 404")
	}
	return json.Unmarshal([]byte(body), v)
}

func (f *fakeFetcher) GetText(_ context.Context, url string) (string, error) {
	f.calls = append(f.calls, url)
	if f.err != nil {
		return "", f.err
	}
	body, ok := f.text[url]
	if !ok {
		return "", verrors.New(verrors.ErrCodeNotFound, "status 404")
	}
	return body, nil
}

func TestGitHubMatches(t *testing.T) {
	s := NewGitHub(&fakeFetcher{})
	tests := []struct {
		entry SoftwareEntry
		want  bool
	}{
		{SoftwareEntry{Name: "VS Code", URL: "https://github.com/microsoft/vscode"}, true},
		{SoftwareEntry{Name: "Tool", Hints: Hints{Repo: "owner/tool"}}, true},
		{SoftwareEntry{Name: "Tool", Hints: Hints{SourceFamily: "github"}}, true},
		{SoftwareEntry{Name: "Tool", URL: "https://example.com", Hints: Hints{SourceFamily: "chrome"}}, false},
		{SoftwareEntry{Name: "Zoom", URL: "https://zoom.us/download"}, false},
	}
	for _, tt := range tests {
		if got := s.Matches(tt.entry); got != tt.want {
			t.Errorf("Matches(%+v) = %v, want %v", tt.entry, got, tt.want)
		}
	}
}

func TestGitHubDetect(t *testing.T) {
	f := &fakeFetcher{json: map[string]string{
		"https://api.github.com/repos/microsoft/vscode/releases/latest": `{
			"tag_name": "1.85.1",
			"html_url": "https://github.com/microsoft/vscode/releases/tag/1.85.1",
			"published_at": "2023-12-13T10:00:00Z",
			"assets": [{"browser_download_url": "https://github.com/microsoft/vscode/releases/download/1.85.1/code.zip"}]
		}`,
	}}
	s := NewGitHub(f)

	d, err := s.Detect(context.Background(), SoftwareEntry{
		Name: "VS Code",
		URL:  "https://github.com/microsoft/vscode",
	})
	if err != nil {
		t.Fatalf("Detect error: %v", err)
	}
	if d.Version != "1.85.1" {
		t.Errorf("Version = %q, want 1.85.1", d.Version)
	}
	if d.DownloadURL != "https://github.com/microsoft/vscode/releases/download/1.85.1/code.zip" {
		t.Errorf("DownloadURL = %q", d.DownloadURL)
	}
	if d.ReleasedAt.IsZero() {
		t.Error("ReleasedAt should be set")
	}
}

func TestGitHubDetectRepoHint(t *testing.T) {
	f := &fakeFetcher{json: map[string]string{
		"https://api.github.com/repos/owner/tool/releases/latest": `{"tag_name": "v2.0.0"}`,
	}}
	s := NewGitHub(f)

	d, err := s.Detect(context.Background(), SoftwareEntry{
		Name:  "Tool",
		URL:   "https://tool.example.com",
		Hints: Hints{Repo: "owner/tool"},
	})
	if err != nil {
		t.Fatalf("Detect error: %v", err)
	}
	if d.Version != "v2.0.0" {
		t.Errorf("Version = %q, want v2.0.0", d.Version)
	}
}

func TestGitHubDetectBadURL(t *testing.T) {
	s := NewGitHub(&fakeFetcher{})
	_, err := s.Detect(context.Background(), SoftwareEntry{
		Name: "Broken",
		URL:  "https://github.com/onlyowner",
	})
	if !verrors.Is(err, verrors.ErrCodeInvalidInput) {
		t.Errorf("want INVALID_INPUT for underivable repo, got %v", err)
	}
}

func TestChromeDetect(t *testing.T) {
	f := &fakeFetcher{json: map[string]string{
		chromeVersionURL: `{"versions": [{"version": "120.0.6099.109"}]}`,
	}}
	s := NewChrome(f)

	entry := SoftwareEntry{Name: "Chrome", URL: "https://www.google.com/chrome/"}
	if !s.Matches(entry) {
		t.Fatal("Chrome strategy should match the Chrome entry")
	}
	d, err := s.Detect(context.Background(), entry)
	if err != nil {
		t.Fatalf("Detect error: %v", err)
	}
	if d.Version != "120.0.6099.109" {
		t.Errorf("Version = %q, want 120.0.6099.109", d.Version)
	}
}

func TestFirefoxDetect(t *testing.T) {
	f := &fakeFetcher{json: map[string]string{
		firefoxVersionsURL: `{"LATEST_FIREFOX_VERSION": "121.0"}`,
	}}
	s := NewFirefox(f)

	entry := SoftwareEntry{Name: "Firefox", URL: "https://www.mozilla.org/firefox/"}
	if !s.Matches(entry) {
		t.Fatal("Firefox strategy should match the Firefox entry")
	}
	d, err := s.Detect(context.Background(), entry)
	if err != nil {
		t.Fatalf("Detect error: %v", err)
	}
	if d.Version != "121.0" {
		t.Errorf("Version = %q, want 121.0", d.Version)
	}
}

func TestJetBrainsDetect(t *testing.T) {
	f := &fakeFetcher{json: map[string]string{
		jetbrainsReleasesURL + "?code=GO&latest=true&type=release": `{
			"GO": [{
				"version": "2023.3.2",
				"date": "2023-12-21",
				"downloads": {"windows": {"link": "https://download.jetbrains.com/go/goland-2023.3.2.exe"}}
			}]
		}`,
	}}
	s := NewJetBrains(f)

	entry := SoftwareEntry{Name: "GoLand", URL: "https://www.jetbrains.com/go/"}
	if !s.Matches(entry) {
		t.Fatal("JetBrains strategy should match GoLand")
	}
	d, err := s.Detect(context.Background(), entry)
	if err != nil {
		t.Fatalf("Detect error: %v", err)
	}
	if d.Version != "2023.3.2" {
		t.Errorf("Version = %q, want 2023.3.2", d.Version)
	}
	if d.DownloadURL == "" {
		t.Error("DownloadURL should come from the windows download entry")
	}
	if d.ReleasedAt.IsZero() {
		t.Error("ReleasedAt should be parsed from the release date")
	}
}

func TestGenericDetect(t *testing.T) {
	f := &fakeFetcher{text: map[string]string{
		"https://example.com/download": `<html>Download FooTool Version 3.14.1 for Windows</html>`,
	}}
	s := NewGeneric(f)

	d, err := s.Detect(context.Background(), SoftwareEntry{
		Name: "FooTool",
		URL:  "https://example.com/download",
	})
	if err != nil {
		t.Fatalf("Detect error: %v", err)
	}
	if d.Version != "3.14.1" {
		t.Errorf("Version = %q, want 3.14.1", d.Version)
	}
}

func TestGenericDetectNoVersion(t *testing.T) {
	f := &fakeFetcher{text: map[string]string{
		"https://example.com": `<html>nothing to see here</html>`,
	}}
	s := NewGeneric(f)

	_, err := s.Detect(context.Background(), SoftwareEntry{Name: "X", URL: "https://example.com"})
	if !verrors.Is(err, verrors.ErrCodeNotFound) {
		t.Errorf("want NOT_FOUND for a versionless page, got %v", err)
	}
}
