package strategy

import (
	"context"

	verrors "github.com/verscout/verscout/pkg/errors"
	"github.com/verscout/verscout/pkg/fetch"
	"github.com/verscout/verscout/pkg/version"
)

// Generic is the catch-all fallback: it fetches the entry's own URL as text
// and scans it for a version-like token. It matches every entry and always
// runs after any source-specific strategy.
type Generic struct {
	fetcher fetch.Fetcher
}

func NewGeneric(f fetch.Fetcher) *Generic {
	return &Generic{fetcher: f}
}

func (s *Generic) Descriptor() Descriptor {
	return Descriptor{
		ID:           "generic",
		Priority:     100,
		Capability:   CapabilityScraping,
		SourceFamily: "generic",
		CatchAll:     true,
	}
}

func (s *Generic) Matches(entry SoftwareEntry) bool {
	return entry.URL != ""
}

func (s *Generic) Detect(ctx context.Context, entry SoftwareEntry) (Detection, error) {
	text, err := s.fetcher.GetText(ctx, entry.URL)
	if err != nil {
		return Detection{}, err
	}

	v, ok := version.Scan(text)
	if !ok {
		// The page answered but shows nothing version-like. Permanent.
		return Detection{}, verrors.New(verrors.ErrCodeNotFound,
			"no version found on %s", entry.URL)
	}
	return Detection{Version: v.String(), DownloadURL: entry.URL}, nil
}

func (s *Generic) ExtractDownloadLocation(entry SoftwareEntry) string {
	return entry.URL
}

var _ Strategy = (*Generic)(nil)
