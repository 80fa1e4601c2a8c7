package config

import (
	"github.com/BurntSushi/toml"

	verrors "github.com/verscout/verscout/pkg/errors"
	"github.com/verscout/verscout/pkg/strategy"
)

// watchlist is the TOML shape of a watchlist file:
//
//	[[software]]
//	name = "Chrome"
//	url = "https://www.google.com/chrome/"
//
//	[[software]]
//	name = "VS Code"
//	url = "https://github.com/microsoft/vscode"
//	repo = "microsoft/vscode"
type watchlist struct {
	Software []watchEntry `toml:"software"`
}

type watchEntry struct {
	Name         string `toml:"name"`
	URL          string `toml:"url"`
	SourceFamily string `toml:"source_family"`
	Repo         string `toml:"repo"`
}

// LoadWatchlist reads a TOML watchlist file into software entries, preserving
// file order. Entries without a name are rejected.
func LoadWatchlist(path string) ([]strategy.SoftwareEntry, error) {
	var wl watchlist
	if _, err := toml.DecodeFile(path, &wl); err != nil {
		return nil, verrors.Wrap(verrors.ErrCodeInvalidInput, err, "load watchlist %s", path)
	}
	if len(wl.Software) == 0 {
		return nil, verrors.New(verrors.ErrCodeInvalidInput, "watchlist %s lists no software", path)
	}

	entries := make([]strategy.SoftwareEntry, 0, len(wl.Software))
	for i, w := range wl.Software {
		if w.Name == "" {
			return nil, verrors.New(verrors.ErrCodeInvalidInput,
				"watchlist %s: entry %d has no name", path, i+1)
		}
		entries = append(entries, strategy.SoftwareEntry{
			Name: w.Name,
			URL:  w.URL,
			Hints: strategy.Hints{
				SourceFamily: w.SourceFamily,
				Repo:         w.Repo,
			},
		})
	}
	return entries, nil
}
