package strategy

import (
	"context"
	"fmt"
	"strings"
	"time"

	verrors "github.com/verscout/verscout/pkg/errors"
	"github.com/verscout/verscout/pkg/fetch"
)

const jetbrainsReleasesURL = "https://data.services.jetbrains.com/products/releases"

// jetbrainsProducts maps lowercase product names to JetBrains product codes.
var jetbrainsProducts = map[string]string{
	"intellij idea": "IIU",
	"intellij":      "IIU",
	"pycharm":       "PCP",
	"webstorm":      "WS",
	"phpstorm":      "PS",
	"goland":        "GO",
	"clion":         "CL",
	"rider":         "RD",
	"rubymine":      "RM",
	"datagrip":      "DG",
}

// JetBrains detects IDE versions through the JetBrains releases API.
type JetBrains struct {
	fetcher fetch.Fetcher
	hosts   hostMatcher
}

func NewJetBrains(f fetch.Fetcher) *JetBrains {
	return &JetBrains{
		fetcher: f,
		hosts:   newHostMatcher("www.jetbrains.com", "*.jetbrains.com"),
	}
}

func (s *JetBrains) Descriptor() Descriptor {
	return Descriptor{
		ID:           "jetbrains",
		Priority:     10,
		Capability:   CapabilityAPI,
		SourceFamily: "jetbrains",
		Host:         "data.services.jetbrains.com",
	}
}

func (s *JetBrains) Matches(entry SoftwareEntry) bool {
	if entry.Hints.SourceFamily != "" {
		return entry.Hints.SourceFamily == "jetbrains"
	}
	return s.productCode(entry) != "" || s.hosts.match(entry.URL)
}

// jetbrainsRelease is one entry of the releases API payload.
type jetbrainsRelease struct {
	Version   string `json:"version"`
	Date      string `json:"date"`
	Downloads map[string]struct {
		Link string `json:"link"`
	} `json:"downloads"`
}

func (s *JetBrains) Detect(ctx context.Context, entry SoftwareEntry) (Detection, error) {
	code := s.productCode(entry)
	if code == "" {
		return Detection{}, verrors.New(verrors.ErrCodeInvalidInput,
			"no JetBrains product code for %q", entry.Name)
	}

	endpoint := fmt.Sprintf("%s?code=%s&latest=true&type=release", jetbrainsReleasesURL, code)
	payload := make(map[string][]jetbrainsRelease)
	if err := s.fetcher.GetJSON(ctx, endpoint, &payload); err != nil {
		return Detection{}, err
	}

	releases := payload[code]
	if len(releases) == 0 || releases[0].Version == "" {
		return Detection{}, verrors.New(verrors.ErrCodeNotFound,
			"no release listed for product %s", code)
	}

	rel := releases[0]
	d := Detection{Version: rel.Version}
	if dl, ok := rel.Downloads["windows"]; ok {
		d.DownloadURL = dl.Link
	} else {
		for _, dl := range rel.Downloads {
			d.DownloadURL = dl.Link
			break
		}
	}
	if t, err := time.Parse("2006-01-02", rel.Date); err == nil {
		d.ReleasedAt = t
	}
	return d, nil
}

func (s *JetBrains) ExtractDownloadLocation(entry SoftwareEntry) string {
	return "https://www.jetbrains.com/products/"
}

// productCode resolves the entry name against the known product table.
func (s *JetBrains) productCode(entry SoftwareEntry) string {
	name := strings.ToLower(strings.TrimSpace(entry.Name))
	if code, ok := jetbrainsProducts[name]; ok {
		return code
	}
	for product, code := range jetbrainsProducts {
		if strings.Contains(name, product) {
			return code
		}
	}
	return ""
}

var _ Strategy = (*JetBrains)(nil)
