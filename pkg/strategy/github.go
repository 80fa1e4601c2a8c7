package strategy

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	verrors "github.com/verscout/verscout/pkg/errors"
	"github.com/verscout/verscout/pkg/fetch"
)

const githubAPIBase = "https://api.github.com"

// GitHub detects versions through the GitHub releases API. It handles entries
// whose URL lives on github.com or that carry an "owner/name" repo hint.
type GitHub struct {
	fetcher fetch.Fetcher
	hosts   hostMatcher
}

// NewGitHub creates the GitHub strategy. Authentication, when needed, is the
// fetcher's concern (an Authorization default header).
func NewGitHub(f fetch.Fetcher) *GitHub {
	return &GitHub{
		fetcher: f,
		hosts:   newHostMatcher("github.com", "*.github.com"),
	}
}

func (s *GitHub) Descriptor() Descriptor {
	return Descriptor{
		ID:           "github",
		Priority:     10,
		Capability:   CapabilityAPI,
		SourceFamily: "github",
		Host:         "api.github.com",
	}
}

func (s *GitHub) Matches(entry SoftwareEntry) bool {
	if entry.Hints.SourceFamily != "" {
		return entry.Hints.SourceFamily == "github"
	}
	return entry.Hints.Repo != "" || s.hosts.match(entry.URL)
}

// githubRelease is the subset of the releases API payload we read.
type githubRelease struct {
	TagName     string    `json:"tag_name"`
	Name        string    `json:"name"`
	HTMLURL     string    `json:"html_url"`
	Prerelease  bool      `json:"prerelease"`
	PublishedAt time.Time `json:"published_at"`
	Assets      []struct {
		BrowserDownloadURL string `json:"browser_download_url"`
	} `json:"assets"`
}

func (s *GitHub) Detect(ctx context.Context, entry SoftwareEntry) (Detection, error) {
	repo, err := s.repo(entry)
	if err != nil {
		return Detection{}, err
	}

	var rel githubRelease
	endpoint := fmt.Sprintf("%s/repos/%s/releases/latest", githubAPIBase, repo)
	if err := s.fetcher.GetJSON(ctx, endpoint, &rel); err != nil {
		return Detection{}, err
	}

	raw := rel.TagName
	if raw == "" {
		raw = rel.Name
	}
	if raw == "" {
		return Detection{}, verrors.New(verrors.ErrCodeNotFound,
			"no release tag for %s", repo)
	}

	d := Detection{Version: raw, DownloadURL: rel.HTMLURL, ReleasedAt: rel.PublishedAt}
	if len(rel.Assets) > 0 {
		d.DownloadURL = rel.Assets[0].BrowserDownloadURL
	}
	return d, nil
}

func (s *GitHub) ExtractDownloadLocation(entry SoftwareEntry) string {
	repo, err := s.repo(entry)
	if err != nil {
		return ""
	}
	return fmt.Sprintf("https://github.com/%s/releases/latest", repo)
}

// repo resolves the "owner/name" identifier from the hint or the entry URL
// path.
func (s *GitHub) repo(entry SoftwareEntry) (string, error) {
	if entry.Hints.Repo != "" {
		return entry.Hints.Repo, nil
	}

	u, err := url.Parse(entry.URL)
	if err != nil {
		return "", verrors.Wrap(verrors.ErrCodeInvalidURL, err, "parse %s", entry.URL)
	}
	parts := strings.SplitN(strings.Trim(u.Path, "/"), "/", 3)
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return "", verrors.New(verrors.ErrCodeInvalidInput,
			"cannot derive repository from %s", entry.URL)
	}
	return parts[0] + "/" + parts[1], nil
}

var _ Strategy = (*GitHub)(nil)
