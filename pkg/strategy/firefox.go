package strategy

import (
	"context"

	verrors "github.com/verscout/verscout/pkg/errors"
	"github.com/verscout/verscout/pkg/fetch"
)

const firefoxVersionsURL = "https://product-details.mozilla.org/1.0/firefox_versions.json"

// Firefox detects the current release through Mozilla's product-details feed.
type Firefox struct {
	fetcher fetch.Fetcher
	hosts   hostMatcher
}

func NewFirefox(f fetch.Fetcher) *Firefox {
	return &Firefox{
		fetcher: f,
		hosts:   newHostMatcher("www.mozilla.org", "*.mozilla.org"),
	}
}

func (s *Firefox) Descriptor() Descriptor {
	return Descriptor{
		ID:           "firefox",
		Priority:     10,
		Capability:   CapabilityAPI,
		SourceFamily: "firefox",
		Host:         "product-details.mozilla.org",
	}
}

func (s *Firefox) Matches(entry SoftwareEntry) bool {
	if entry.Hints.SourceFamily != "" {
		return entry.Hints.SourceFamily == "firefox"
	}
	return nameContains(entry, "firefox") || s.hosts.match(entry.URL)
}

func (s *Firefox) Detect(ctx context.Context, entry SoftwareEntry) (Detection, error) {
	var payload struct {
		LatestVersion string `json:"LATEST_FIREFOX_VERSION"`
	}
	if err := s.fetcher.GetJSON(ctx, firefoxVersionsURL, &payload); err != nil {
		return Detection{}, err
	}
	if payload.LatestVersion == "" {
		return Detection{}, verrors.New(verrors.ErrCodeNotFound, "product details carry no release version")
	}
	return Detection{
		Version:     payload.LatestVersion,
		DownloadURL: s.ExtractDownloadLocation(entry),
	}, nil
}

func (s *Firefox) ExtractDownloadLocation(SoftwareEntry) string {
	return "https://www.mozilla.org/firefox/download/"
}

var _ Strategy = (*Firefox)(nil)
