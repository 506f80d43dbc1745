// Package geoapi is a client for the French geographic reference API (geo.api.gouv.fr).
package geoapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"

	"github.com/user/annuaire-crawler/pkg/metrics"
)

var (
	ErrLookupFailed = errors.New("geo api lookup failed")
	ErrNoResult     = errors.New("geo api returned no result")
)

const (
	communeFieldsByPostalCode = "nom,code,codeEpci,siren,population,surface"
	communeFieldsByName       = "nom,code,population,codeEpci"
	epciFields                = "nom,code,codesDepartements,codesRegions,population"
	memberFields              = "nom,code,codeDepartement,codeRegion,codesPostaux,population"
)

// Commune is the subset of the commune resource the enrichers read.
type Commune struct {
	Nom             string   `json:"nom"`
	Code            string   `json:"code"`
	CodeEpci        string   `json:"codeEpci"`
	Siren           string   `json:"siren"`
	Population      *int     `json:"population"`
	Surface         *float64 `json:"surface"`
	CodeDepartement string   `json:"codeDepartement"`
	CodeRegion      string   `json:"codeRegion"`
	CodesPostaux    []string `json:"codesPostaux"`
}

// EPCI is the inter-municipal body resource.
type EPCI struct {
	Nom               string   `json:"nom"`
	Code              string   `json:"code"`
	CodesDepartements []string `json:"codesDepartements"`
	CodesRegions      []string `json:"codesRegions"`
	Population        *int     `json:"population"`
}

// Client issues one request at a time, spaced by the configured interval.
type Client struct {
	http    *resty.Client
	limiter *rate.Limiter
	mu      sync.Mutex
}

// NewClient creates a client for baseURL. A zero interval disables pacing.
func NewClient(baseURL string, interval, timeout time.Duration) *Client {
	metrics.Init()

	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}

	rc := resty.New()
	rc.SetBaseURL(baseURL)
	rc.SetTimeout(timeout)
	rc.SetHeader("Accept", "application/json")
	rc.SetHeader("User-Agent", "annuaire-crawler/1.0")

	return &Client{
		http:    rc,
		limiter: rate.NewLimiter(limit, 1),
	}
}

// CommunesByPostalCode lists the communes served by a postal code.
func (c *Client) CommunesByPostalCode(ctx context.Context, postalCode string) ([]Commune, error) {
	var out []Commune
	err := c.get(ctx, "communes_by_postal_code", "/communes", map[string]string{
		"codePostal": postalCode,
		"fields":     communeFieldsByPostalCode,
	}, nil, &out)
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: codePostal=%s", ErrNoResult, postalCode)
	}
	return out, nil
}

// CommunesByName searches communes by name within a department.
func (c *Client) CommunesByName(ctx context.Context, name, departmentCode string) ([]Commune, error) {
	params := map[string]string{
		"nom":    name,
		"fields": communeFieldsByName,
		"format": "json",
	}
	if departmentCode != "" {
		params["codeDepartement"] = departmentCode
	}

	var out []Commune
	if err := c.get(ctx, "communes_by_name", "/communes", params, nil, &out); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: nom=%s codeDepartement=%s", ErrNoResult, name, departmentCode)
	}
	return out, nil
}

// EPCI fetches one inter-municipal body by SIREN code.
func (c *Client) EPCI(ctx context.Context, code string) (*EPCI, error) {
	var out EPCI
	err := c.get(ctx, "epci", "/epcis/{code}", map[string]string{"fields": epciFields},
		map[string]string{"code": code}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// EPCICommunes lists the member communes of an inter-municipal body.
func (c *Client) EPCICommunes(ctx context.Context, code string) ([]Commune, error) {
	var out []Commune
	err := c.get(ctx, "epci_communes", "/epcis/{code}/communes", map[string]string{"fields": memberFields},
		map[string]string{"code": code}, &out)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) get(ctx context.Context, endpoint, path string, query, pathParams map[string]string, out any) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(query).
		SetPathParams(pathParams).
		Get(path)
	if err != nil {
		metrics.GeoLookups.WithLabelValues(endpoint, "error").Inc()
		return fmt.Errorf("%w: %v", ErrLookupFailed, err)
	}
	if resp.IsError() {
		metrics.GeoLookups.WithLabelValues(endpoint, "http_error").Inc()
		return fmt.Errorf("%w: %s returned HTTP %d", ErrLookupFailed, resp.Request.URL, resp.StatusCode())
	}
	if err := json.Unmarshal(resp.Body(), out); err != nil {
		metrics.GeoLookups.WithLabelValues(endpoint, "decode_error").Inc()
		return fmt.Errorf("%w: decode %s: %v", ErrLookupFailed, endpoint, err)
	}

	metrics.GeoLookups.WithLabelValues(endpoint, "ok").Inc()
	return nil
}
