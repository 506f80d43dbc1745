// Package extractor turns a rendered directory detail page into a raw record.
// Every selector the crawler depends on lives in this file.
package extractor

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/user/annuaire-crawler/internal/entity"
	"github.com/user/annuaire-crawler/internal/repository"
	"github.com/user/annuaire-crawler/pkg/utils"
)

const (
	// ListingLinkSelector matches the result links of a listing page.
	ListingLinkSelector = `#results-list a[data-test="href-link-annuaire"]`
	// LoadMoreSelector matches the pagination control of a listing page.
	LoadMoreSelector = `#btn-add-next20`

	selTitle      = `#titlePage`
	selEPCIType   = `[data-test="epci-type"]`
	selStreet     = `[itemprop="streetAddress"]`
	selPostalCode = `[itemprop="postalCode"]`
	selLocality   = `[itemprop="addressLocality"]`
	selCountry    = `[itemprop="addressCountry"]`
	selHours      = `[data-test="heure-d-ouverture"]`
	selEmail      = `.send-mail`
	selPhone      = `#contentPhone_1`
	selWebsite    = `li[data-test="websites"] a`
	selMapLink    = `[data-test="link-voir-sur-une-carte"]`
	selBreadcrumb = `.fr-breadcrumb__list a.fr-breadcrumb__link`
)

var (
	titlePrefix = regexp.MustCompile(`(?i)^\s*(mairie|epci)\s*-\s*`)
	deptPattern = regexp.MustCompile(`^(?P<name>.+?)\s*-\s*(?P<code>\d[0-9AB]?\d?)\s*$`)
	latPattern  = regexp.MustCompile(`mlat=([0-9.+-]+)`)
	lonPattern  = regexp.MustCompile(`mlon=([0-9.+-]+)`)
)

// Extract parses a detail page of the given kind.
func Extract(kind entity.Kind, page *entity.DetailPage) (*entity.RawRecord, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page.HTML))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", repository.ErrExtractionFailed, err)
	}

	pageURL := page.FinalURL
	if pageURL == "" {
		pageURL = page.URL
	}

	street := text(doc.Find(selStreet))
	postalCode := text(doc.Find(selPostalCode))
	locality := text(doc.Find(selLocality))
	country := text(doc.Find(selCountry))

	rec := &entity.RawRecord{
		Nom:        titlePrefix.ReplaceAllString(text(doc.Find(selTitle)), ""),
		Adresse:    joinNonEmpty(", ", street, postalCode, locality, country),
		CodePostal: postalCode,
		Horaires:   hours(doc),
		Email:      email(doc),
		Telephone:  text(doc.Find(selPhone)),
		Website:    website(doc, pageURL),
		URL:        pageURL,
	}
	rec.Latitude, rec.Longitude = coordinates(doc)

	loc := Breadcrumb(doc)
	rec.Region = loc.Region
	rec.Departement, rec.DepartementCode = SplitDepartment(loc.Department)

	if kind == entity.KindEPCI {
		rec.Type = text(doc.Find(selEPCIType))
		rec.City = locality
		rec.Country = country
		if rec.Country == "" {
			rec.Country = "France"
		}
		rec.Contacts = &entity.Contacts{Email: rec.Email, Telephone: rec.Telephone}
	}

	return rec, nil
}

// Location is the administrative hierarchy read from the breadcrumb.
type Location struct {
	Region     string
	Department string
}

// Breadcrumb classifies each crumb by its link target rather than its position:
// /navigation/<region> is the region, /navigation/<region>/<department> the department.
// A crumb whose text reads "Name - Code" is also taken as the department.
func Breadcrumb(doc *goquery.Document) Location {
	var loc Location
	doc.Find(selBreadcrumb).Each(func(_ int, s *goquery.Selection) {
		label := text(s)
		href, _ := s.Attr("href")
		segs := navigationSegments(href)

		switch {
		case len(segs) == 1 && !isListingKind(segs[0]):
			if loc.Region == "" {
				loc.Region = label
			}
		case len(segs) == 2 && !isListingKind(segs[1]):
			if loc.Department == "" {
				loc.Department = label
			}
		case deptPattern.MatchString(label):
			if loc.Department == "" {
				loc.Department = label
			}
		}
	})
	return loc
}

// SplitDepartment reads "Haute-Garonne - 31" as name and code.
// Unmatched text is returned whole with an empty code.
func SplitDepartment(raw string) (name, code string) {
	m := deptPattern.FindStringSubmatch(raw)
	if m == nil {
		return raw, ""
	}
	return m[deptPattern.SubexpIndex("name")], m[deptPattern.SubexpIndex("code")]
}

func navigationSegments(href string) []string {
	u, err := url.Parse(href)
	if err != nil {
		return nil
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	for i, p := range parts {
		if p == "navigation" {
			return parts[i+1:]
		}
	}
	return nil
}

func isListingKind(seg string) bool {
	return seg == string(entity.KindMairie) || seg == string(entity.KindEPCI)
}

func hours(doc *goquery.Document) string {
	var slots []string
	doc.Find(selHours).Each(func(_ int, s *goquery.Selection) {
		items := s.Find("li")
		if items.Length() == 0 {
			if t := text(s); t != "" {
				slots = append(slots, t)
			}
			return
		}
		items.Each(func(_ int, li *goquery.Selection) {
			if t := text(li); t != "" {
				slots = append(slots, t)
			}
		})
	})
	return strings.Join(slots, " | ")
}

func email(doc *goquery.Document) string {
	s := doc.Find(selEmail).First()
	if t := text(s); t != "" {
		return t
	}
	href, _ := s.Attr("href")
	return strings.TrimSpace(strings.TrimPrefix(href, "mailto:"))
}

func website(doc *goquery.Document, base string) string {
	links := doc.Find(selWebsite)
	link := links.Filter(`[itemprop="url"]`).First()
	if link.Length() == 0 {
		link = links.First()
	}
	href, ok := link.Attr("href")
	if !ok {
		return ""
	}
	abs, err := utils.ToAbsoluteURL(base, href)
	if err != nil {
		return strings.TrimSpace(href)
	}
	return abs
}

// coordinates returns both values or neither.
func coordinates(doc *goquery.Document) (*float64, *float64) {
	href, ok := doc.Find(selMapLink).First().Attr("href")
	if !ok {
		return nil, nil
	}
	lat, okLat := parseCoord(latPattern, href)
	lon, okLon := parseCoord(lonPattern, href)
	if !okLat || !okLon {
		return nil, nil
	}
	return &lat, &lon
}

func parseCoord(re *regexp.Regexp, href string) (float64, bool) {
	m := re.FindStringSubmatch(href)
	if m == nil {
		return 0, false
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func text(s *goquery.Selection) string {
	return strings.Join(strings.Fields(s.First().Text()), " ")
}

func joinNonEmpty(sep string, parts ...string) string {
	kept := parts[:0]
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}
