// Package catalog holds the listing targets and the slug to code tables used to name output files.
package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/user/annuaire-crawler/internal/entity"
	"github.com/user/annuaire-crawler/pkg/utils"
)

// UnknownCode names output files whose slug is missing from the tables.
const UnknownCode = "XX"

// Catalogue validation errors.
var (
	ErrNoTargets          = errors.New("at least one target is required")
	ErrTargetMissingURL   = errors.New("target url is required")
	ErrInvalidTargetURL   = errors.New("target url must be an absolute http(s) url")
	ErrUnknownKind        = errors.New("target url must end with /mairie or /epci")
	ErrInvalidCode        = errors.New("codes must be 2 or 3 characters of digits, 2A or 2B")
	ErrNegativeLimit      = errors.New("target limit must be non-negative")
	ErrTargetNotInCatalog = errors.New("target is not in the catalogue")
)

var codePattern = regexp.MustCompile(`^(\d{2,3}|2A|2B)$`)

//go:embed catalog.yaml
var defaultCatalog []byte

// Catalog is the parsed YAML catalogue.
type Catalog struct {
	BaseURL     string            `yaml:"base_url"`
	Regions     map[string]string `yaml:"regions"`
	Departments map[string]string `yaml:"departments"`
	Targets     []TargetConfig    `yaml:"targets"`
}

// TargetConfig is one listing entry of the catalogue.
type TargetConfig struct {
	URL      string `yaml:"url"`
	Limit    int    `yaml:"limit"`
	Disabled bool   `yaml:"disabled"`
}

// Default returns the embedded catalogue.
func Default() (*Catalog, error) {
	return Parse(defaultCatalog)
}

// Load reads a catalogue file, or the embedded one when path is empty.
func Load(filepath string) (*Catalog, error) {
	if filepath == "" {
		return Default()
	}
	data, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalogue file: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a catalogue document.
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("catalogue validation failed: %w", err)
	}
	return &c, nil
}

// Validate checks the tables and every target.
func (c *Catalog) Validate() error {
	if len(c.Targets) == 0 {
		return ErrNoTargets
	}
	for slug, code := range c.Regions {
		if !codePattern.MatchString(code) {
			return fmt.Errorf("%w: region %q", ErrInvalidCode, slug)
		}
	}
	for slug, code := range c.Departments {
		if !codePattern.MatchString(code) {
			return fmt.Errorf("%w: department %q", ErrInvalidCode, slug)
		}
	}
	for i, t := range c.Targets {
		if t.URL == "" {
			return fmt.Errorf("%w: targets[%d]", ErrTargetMissingURL, i)
		}
		if t.Limit < 0 {
			return fmt.Errorf("%w: targets[%d]", ErrNegativeLimit, i)
		}
		if _, err := kindOf(t.URL); err != nil {
			return fmt.Errorf("%w: targets[%d]", err, i)
		}
	}
	return nil
}

// Resolve turns a listing URL into a target, whether or not the catalogue lists it.
// Paths starting with "/" are resolved against the catalogue's base URL.
func (c *Catalog) Resolve(rawURL string) (entity.Target, error) {
	if strings.HasPrefix(rawURL, "/") && c.BaseURL != "" {
		abs, err := utils.ToAbsoluteURL(c.BaseURL, rawURL)
		if err != nil {
			return entity.Target{}, fmt.Errorf("%w: %v", ErrInvalidTargetURL, err)
		}
		rawURL = abs
	}
	kind, err := kindOf(rawURL)
	if err != nil {
		return entity.Target{}, err
	}
	slug := utils.ListingSlug(rawURL)

	table := c.Departments
	if kind == entity.KindEPCI {
		table = c.Regions
	}
	code, ok := table[slug]
	if !ok {
		code = UnknownCode
	}

	return entity.Target{
		URL:        rawURL,
		Kind:       kind,
		Slug:       slug,
		Code:       code,
		OutputFile: OutputFile(kind, slug, code),
	}, nil
}

// Enabled resolves every target not marked disabled, in catalogue order.
func (c *Catalog) Enabled() ([]entity.Target, error) {
	targets := make([]entity.Target, 0, len(c.Targets))
	for _, tc := range c.Targets {
		if tc.Disabled {
			continue
		}
		t, err := c.Resolve(tc.URL)
		if err != nil {
			return nil, err
		}
		t.Limit = tc.Limit
		targets = append(targets, t)
	}
	return targets, nil
}

// Select returns the enabled targets whose code or slug is in keys. An empty keys selects all.
func (c *Catalog) Select(keys []string) ([]entity.Target, error) {
	all, err := c.Enabled()
	if err != nil || len(keys) == 0 {
		return all, err
	}
	want := make(map[string]bool, len(keys))
	for _, k := range keys {
		want[strings.ToLower(k)] = true
	}
	var selected []entity.Target
	for _, t := range all {
		if want[strings.ToLower(t.Code)] || want[t.Slug] {
			selected = append(selected, t)
		}
	}
	if len(selected) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrTargetNotInCatalog, strings.Join(keys, ","))
	}
	return selected, nil
}

// OutputFile derives the JSONL file name for a target.
func OutputFile(kind entity.Kind, slug, code string) string {
	label := "mairies"
	if kind == entity.KindEPCI {
		label = "epci"
	}
	return fmt.Sprintf("%s_%s_%s.jsonl", code, label, strings.ReplaceAll(slug, "-", "_"))
}

func kindOf(rawURL string) (entity.Kind, error) {
	u, err := url.Parse(rawURL)
	if err != nil || !u.IsAbs() || (u.Scheme != "http" && u.Scheme != "https") {
		return "", ErrInvalidTargetURL
	}
	switch entity.Kind(path.Base(strings.TrimSuffix(u.Path, "/"))) {
	case entity.KindMairie:
		return entity.KindMairie, nil
	case entity.KindEPCI:
		return entity.KindEPCI, nil
	}
	return "", ErrUnknownKind
}
