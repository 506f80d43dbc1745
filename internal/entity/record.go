package entity

// Kind of collectivity a listing target enumerates.
type Kind string

const (
	KindMairie Kind = "mairie"
	KindEPCI   Kind = "epci"
)

const (
	TypeCommune = "Commune"
	TypeEPCI    = "EPCI"
)

// Contacts groups the contact channels published on a detail page.
type Contacts struct {
	Email     string `json:"email"`
	Telephone string `json:"telephone"`
}

// RawRecord is one detail page as extracted by the crawler, written verbatim as a JSONL line.
type RawRecord struct {
	Nom             string    `json:"nom"`
	Type            string    `json:"type,omitempty"`
	Adresse         string    `json:"adresse"`
	CodePostal      string    `json:"codePostal"`
	City            string    `json:"city,omitempty"`
	Country         string    `json:"country,omitempty"`
	Region          string    `json:"region"`
	Departement     string    `json:"departement"`
	DepartementCode string    `json:"departementCode"`
	Horaires        string    `json:"horaires"`
	Email           string    `json:"email"`
	Telephone       string    `json:"telephone"`
	Contacts        *Contacts `json:"contacts,omitempty"`
	Latitude        *float64  `json:"latitude"`
	Longitude       *float64  `json:"longitude"`
	Website         string    `json:"website"`
	URL             string    `json:"url"`
}

// Address is the structured form of the comma-joined address string.
type Address struct {
	Street     string `json:"street"`
	PostalCode string `json:"postalCode"`
	City       string `json:"city"`
	Country    string `json:"country"`
}

// EPCIRef links a commune to its inter-municipal body.
type EPCIRef struct {
	Nom  string `json:"nom"`
	Code string `json:"code"`
}

// Record is the canonical collectivity. Enrichment fields stay absent until a lookup sets them.
type Record struct {
	Nom              string   `json:"nom"`
	NomNormalise     string   `json:"nomNormalise"`
	TypeCollectivite string   `json:"typeCollectivite"`
	TypeEpci         string   `json:"typeEpci,omitempty"`
	Region           string   `json:"region"`
	Departement      string   `json:"departement"`
	DepartementCode  string   `json:"departementCode"`
	Adresse          Address  `json:"adresse"`
	Contacts         Contacts `json:"contacts"`
	Horaires         string   `json:"horaires"`
	Latitude         *float64 `json:"latitude"`
	Longitude        *float64 `json:"longitude"`
	Website          string   `json:"website"`
	HasWebsite       bool     `json:"hasWebsite"`
	HasHoraires      bool     `json:"hasHoraires"`
	URL              string   `json:"url"`

	CodeInsee       string   `json:"codeInsee,omitempty"`
	CodeEpci        string   `json:"codeEpci,omitempty"`
	SirenEpci       string   `json:"sirenEpci,omitempty"`
	Population      *int     `json:"population,omitempty"`
	Surface         *float64 `json:"surface,omitempty"`
	HasEmail        *bool    `json:"hasEmail,omitempty"`
	CommercialScore *float64 `json:"commercialScore,omitempty"`
	EPCI            *EPCIRef `json:"epci,omitempty"`
}

// HasCoordinates reports whether both coordinates are present.
func (r *Record) HasCoordinates() bool {
	return r.Latitude != nil && r.Longitude != nil
}

// MemberCommune is one commune belonging to an EPCI.
type MemberCommune struct {
	Nom             string   `json:"nom"`
	Code            string   `json:"code"`
	CodeDepartement string   `json:"codeDepartement"`
	CodeRegion      string   `json:"codeRegion"`
	CodesPostaux    []string `json:"codesPostaux"`
	Population      *int     `json:"population"`
}

// EPCIRecord is the flattened output of EPCI enrichment.
type EPCIRecord struct {
	Nom               string          `json:"nom"`
	Code              string          `json:"code"`
	CodesDepartements []string        `json:"codesDepartements"`
	CodesRegions      []string        `json:"codesRegions"`
	Population        *int            `json:"population"`
	Communes          []MemberCommune `json:"communes"`
}

// NewEPCIRecord returns a record carrying only the base fields, with empty lists.
func NewEPCIRecord(base EPCIRef) *EPCIRecord {
	return &EPCIRecord{
		Nom:               base.Nom,
		Code:              base.Code,
		CodesDepartements: []string{},
		CodesRegions:      []string{},
		Communes:          []MemberCommune{},
	}
}
