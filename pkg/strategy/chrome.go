package strategy

import (
	"context"

	verrors "github.com/verscout/verscout/pkg/errors"
	"github.com/verscout/verscout/pkg/fetch"
)

const chromeVersionURL = "https://versionhistory.googleapis.com/v1/chrome/platforms/win/channels/stable/versions?pageSize=1"

// Chrome detects the current stable Chrome version through Google's version
// history API. Probing the API instead of the marketing page sidesteps its
// anti-scraping posture entirely.
type Chrome struct {
	fetcher fetch.Fetcher
	hosts   hostMatcher
}

func NewChrome(f fetch.Fetcher) *Chrome {
	return &Chrome{
		fetcher: f,
		hosts:   newHostMatcher("www.google.com", "chrome.google.com"),
	}
}

func (s *Chrome) Descriptor() Descriptor {
	return Descriptor{
		ID:           "chrome",
		Priority:     10,
		Capability:   CapabilityAPI,
		SourceFamily: "chrome",
		Host:         "versionhistory.googleapis.com",
	}
}

func (s *Chrome) Matches(entry SoftwareEntry) bool {
	if entry.Hints.SourceFamily != "" {
		return entry.Hints.SourceFamily == "chrome"
	}
	return nameContains(entry, "chrome") || s.hosts.match(entry.URL)
}

func (s *Chrome) Detect(ctx context.Context, entry SoftwareEntry) (Detection, error) {
	var payload struct {
		Versions []struct {
			Version string `json:"version"`
		} `json:"versions"`
	}
	if err := s.fetcher.GetJSON(ctx, chromeVersionURL, &payload); err != nil {
		return Detection{}, err
	}
	if len(payload.Versions) == 0 || payload.Versions[0].Version == "" {
		return Detection{}, verrors.New(verrors.ErrCodeNotFound, "version history is empty")
	}
	return Detection{
		Version:     payload.Versions[0].Version,
		DownloadURL: s.ExtractDownloadLocation(entry),
	}, nil
}

func (s *Chrome) ExtractDownloadLocation(SoftwareEntry) string {
	return "https://www.google.com/chrome/"
}

var _ Strategy = (*Chrome)(nil)
