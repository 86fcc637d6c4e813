package loader

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"sort"
	"strings"

	"github.com/biter777/countries"
	json "github.com/goccy/go-json"

	"github.com/vanderheijden86/mhviz/pkg/config"
	"github.com/vanderheijden86/mhviz/pkg/metrics"
	"github.com/vanderheijden86/mhviz/pkg/model"
)

// Metadata is the country list behind the continent and country dropdowns
// and the code -> continent map used for continent highlighting.
type Metadata struct {
	Countries  []model.CountryInfo // sorted by name
	Continents []string            // sorted, de-duplicated

	byAlpha3 map[string]model.CountryInfo
}

// NewMetadata indexes a country list.
func NewMetadata(list []model.CountryInfo) *Metadata {
	m := &Metadata{byAlpha3: make(map[string]model.CountryInfo, len(list))}
	seen := make(map[string]bool)
	for _, c := range list {
		c.Alpha3 = strings.ToUpper(c.Alpha3)
		c.Alpha2 = strings.ToUpper(c.Alpha2)
		if c.Alpha3 == "" {
			continue
		}
		if _, dup := m.byAlpha3[c.Alpha3]; dup {
			continue
		}
		m.byAlpha3[c.Alpha3] = c
		m.Countries = append(m.Countries, c)
		if c.Continent != "" && !seen[c.Continent] {
			seen[c.Continent] = true
			m.Continents = append(m.Continents, c.Continent)
		}
	}
	sort.Slice(m.Countries, func(i, j int) bool { return m.Countries[i].Name < m.Countries[j].Name })
	sort.Strings(m.Continents)
	return m
}

// Empty reports whether no countries are known.
func (m *Metadata) Empty() bool {
	return m == nil || len(m.Countries) == 0
}

// Lookup returns the metadata for an ISO3 code.
func (m *Metadata) Lookup(alpha3 string) (model.CountryInfo, bool) {
	if m == nil {
		return model.CountryInfo{}, false
	}
	c, ok := m.byAlpha3[strings.ToUpper(alpha3)]
	return c, ok
}

// ContinentMap returns ISO3 code -> continent.
func (m *Metadata) ContinentMap() map[string]string {
	out := make(map[string]string)
	if m == nil {
		return out
	}
	for code, c := range m.byAlpha3 {
		if c.Continent != "" {
			out[code] = c.Continent
		}
	}
	return out
}

// CountriesIn returns the countries of a continent; "" or "All" returns every
// country.
func (m *Metadata) CountriesIn(continent string) []model.CountryInfo {
	if m == nil {
		return nil
	}
	if continent == "" || strings.EqualFold(continent, "All") {
		return m.Countries
	}
	var out []model.CountryInfo
	for _, c := range m.Countries {
		if strings.EqualFold(c.Continent, continent) {
			out = append(out, c)
		}
	}
	return out
}

// Alpha2 converts an ISO3 code to ISO2 for flag URLs, preferring fetched
// metadata and falling back to the built-in country table.
func (m *Metadata) Alpha2(alpha3 string) string {
	if c, ok := m.Lookup(alpha3); ok && c.Alpha2 != "" {
		return c.Alpha2
	}
	return Alpha2For(alpha3)
}

// Alpha2For converts an ISO3 code to ISO2 with the built-in country table.
// Unknown codes yield "".
func Alpha2For(alpha3 string) string {
	c := countries.ByName(strings.ToUpper(strings.TrimSpace(alpha3)))
	if c == countries.Unknown {
		return ""
	}
	return c.Alpha2()
}

// FallbackMetadata builds metadata from the built-in country table, with
// regions mapped onto the REST countries region names.
func FallbackMetadata() *Metadata {
	all := countries.All()
	list := make([]model.CountryInfo, 0, len(all))
	for _, c := range all {
		list = append(list, model.CountryInfo{
			Name:      c.String(),
			Alpha2:    c.Alpha2(),
			Alpha3:    c.Alpha3(),
			Continent: restRegion(c.Region().String()),
		})
	}
	return NewMetadata(list)
}

func restRegion(r string) string {
	switch r {
	case "North America", "South America":
		return "Americas"
	case "Antarctica":
		return "Antarctic"
	case "None", "Unknown":
		return ""
	default:
		return r
	}
}

// restCountry is one element of the REST countries response.
type restCountry struct {
	Name struct {
		Common string `json:"common"`
	} `json:"name"`
	CCA2   string `json:"cca2"`
	CCA3   string `json:"cca3"`
	Region string `json:"region"`
}

// ParseMetadata decodes a REST countries response body.
func ParseMetadata(r io.Reader) (*Metadata, error) {
	var raw []restCountry
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decoding country metadata: %w", err)
	}
	list := make([]model.CountryInfo, 0, len(raw))
	for _, c := range raw {
		list = append(list, model.CountryInfo{
			Name:      c.Name.Common,
			Alpha2:    c.CCA2,
			Alpha3:    c.CCA3,
			Continent: c.Region,
		})
	}
	return NewMetadata(list), nil
}

// MetadataClient fetches country metadata from the REST countries API.
type MetadataClient struct {
	cfg    config.MetadataConfig
	client *http.Client
	logger *log.Logger
}

// NewMetadataClient creates a client with the configured timeout.
func NewMetadataClient(cfg config.MetadataConfig) *MetadataClient {
	return &MetadataClient{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		logger: log.New(io.Discard, "", 0),
	}
}

// SetLogger sets a custom logger for error reporting
func (c *MetadataClient) SetLogger(logger *log.Logger) {
	c.logger = logger
}

// SetHTTPClient replaces the HTTP client. Used by tests.
func (c *MetadataClient) SetHTTPClient(hc *http.Client) {
	c.client = hc
}

// Fetch downloads and decodes the country list. No retries.
func (c *MetadataClient) Fetch(ctx context.Context) (*Metadata, error) {
	defer metrics.Timer(metrics.MetadataFetch)()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("building metadata request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching country metadata: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching country metadata: unexpected status %s", resp.Status)
	}
	return ParseMetadata(resp.Body)
}

// Resolve fetches metadata and never fails: on error it logs and returns
// the built-in table when OfflineFallback is set, otherwise empty metadata
// (empty dropdowns, no continent highlighting).
func (c *MetadataClient) Resolve(ctx context.Context) *Metadata {
	if c.cfg.Disabled {
		if c.cfg.OfflineFallback {
			return FallbackMetadata()
		}
		return NewMetadata(nil)
	}
	md, err := c.Fetch(ctx)
	if err == nil {
		return md
	}
	c.logger.Printf("WARNING: %v", err)
	if c.cfg.OfflineFallback {
		c.logger.Printf("using built-in country table")
		return FallbackMetadata()
	}
	return NewMetadata(nil)
}
