package usecase

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/user/annuaire-crawler/internal/entity"
	"github.com/user/annuaire-crawler/pkg/utils"
)

var postalCodePattern = regexp.MustCompile(`^\d{5}$`)

// SplitAddress reads "street, postal code, city, country". Empty parts are dropped before
// positions are taken, and the country defaults to France.
func SplitAddress(s string) entity.Address {
	var parts []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	at := func(n int, fallback string) string {
		if n < len(parts) {
			return parts[n]
		}
		return fallback
	}

	addr := entity.Address{
		Street:  at(0, ""),
		City:    at(2, ""),
		Country: at(3, "France"),
	}
	for _, p := range parts {
		if postalCodePattern.MatchString(p) {
			addr.PostalCode = p
			break
		}
	}
	return addr
}

// CleanPhone keeps digits only.
func CleanPhone(s string) string {
	return utils.DigitsOnly(s)
}

// normalizerInput accepts raw crawler lines and already-normalized lines alike.
type normalizerInput struct {
	entity.Record
	Adresse    json.RawMessage  `json:"adresse"`
	Contacts   *entity.Contacts `json:"contacts"`
	CodePostal string           `json:"codePostal"`
	PostalCode string           `json:"postalCode"`
	Email      string           `json:"email"`
	Telephone  string           `json:"telephone"`
	Type       string           `json:"type"`
}

// NormalizeRecord converts one JSON line into the canonical record. kind decides the
// collectivity type when the line does not carry one.
func NormalizeRecord(line []byte, kind entity.Kind) (*entity.Record, error) {
	var in normalizerInput
	if err := json.Unmarshal(line, &in); err != nil {
		return nil, err
	}

	rec := in.Record
	rec.Nom = strings.TrimSpace(rec.Nom)
	rec.NomNormalise = utils.NormalizeName(rec.Nom)

	switch {
	case rec.TypeCollectivite != "":
	case kind == entity.KindEPCI || in.Type != "":
		rec.TypeCollectivite = entity.TypeEPCI
	default:
		rec.TypeCollectivite = entity.TypeCommune
	}
	if rec.TypeEpci == "" {
		rec.TypeEpci = strings.TrimSpace(in.Type)
	}

	addr, err := decodeAddress(in.Adresse)
	if err != nil {
		return nil, err
	}
	if addr.PostalCode == "" {
		addr.PostalCode = strings.TrimSpace(firstNonEmpty(in.CodePostal, in.PostalCode))
	}
	rec.Adresse = addr

	email, phone := in.Email, in.Telephone
	if in.Contacts != nil {
		email = firstNonEmpty(in.Contacts.Email, email)
		phone = firstNonEmpty(in.Contacts.Telephone, phone)
	}
	rec.Contacts = entity.Contacts{
		Email:     strings.TrimSpace(email),
		Telephone: CleanPhone(phone),
	}

	rec.Horaires = strings.TrimSpace(rec.Horaires)
	if rec.Latitude == nil || rec.Longitude == nil {
		rec.Latitude, rec.Longitude = nil, nil
	}
	rec.HasWebsite = rec.Website != ""
	rec.HasHoraires = rec.Horaires != ""

	return &rec, nil
}

// decodeAddress accepts the crawler's comma-joined string or an already structured address.
func decodeAddress(raw json.RawMessage) (entity.Address, error) {
	raw = bytes.TrimSpace(raw)
	switch {
	case len(raw) == 0 || bytes.Equal(raw, []byte("null")):
		return SplitAddress(""), nil
	case raw[0] == '{':
		var a entity.Address
		if err := json.Unmarshal(raw, &a); err != nil {
			return entity.Address{}, err
		}
		if a.Country == "" {
			a.Country = "France"
		}
		return a, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return entity.Address{}, fmt.Errorf("adresse: %w", err)
	}
	return SplitAddress(s), nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// FileStats counts what a line-oriented stage did to one file.
type FileStats struct {
	Input       string
	Output      string
	Lines       int
	Transformed int
	PassedOn    int
}

// Normalizer rewrites crawler output into canonical records, one line in, one line out.
type Normalizer struct {
	logger *zap.Logger
}

// NewNormalizer creates a Normalizer.
func NewNormalizer(logger *zap.Logger) *Normalizer {
	return &Normalizer{logger: logger}
}

// NormalizeFile writes one output line per non-blank input line, in order.
// A line that cannot be parsed is logged and written unchanged.
func (n *Normalizer) NormalizeFile(inPath, outPath string) (*FileStats, error) {
	kind := kindFromFileName(inPath)
	stats := &FileStats{Input: inPath, Output: outPath}

	f, w, err := createOutput(outPath)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", outPath, err)
	}

	err = eachFileLine(inPath, func(lineNo int, line []byte) error {
		stats.Lines++
		out := line
		rec, err := NormalizeRecord(line, kind)
		if err != nil {
			n.logger.Warn("malformed line passed through",
				zap.String("file", inPath), zap.Int("line", lineNo), zap.Error(err))
			stats.PassedOn++
		} else {
			if out, err = json.Marshal(rec); err != nil {
				return err
			}
			stats.Transformed++
		}
		if _, err := w.Write(out); err != nil {
			return err
		}
		return w.WriteByte('\n')
	})
	if cerr := closeOutput(f, w); err == nil {
		err = cerr
	}
	if err != nil {
		return nil, err
	}

	n.logger.Info("file normalized",
		zap.String("file", filepath.Base(inPath)),
		zap.Int("lines", stats.Lines),
		zap.Int("passed_on", stats.PassedOn))
	return stats, nil
}

// NormalizeDir normalizes every *.jsonl of inDir into outDir as <name>_clean.jsonl.
func (n *Normalizer) NormalizeDir(inDir, outDir string) ([]*FileStats, error) {
	files, err := listJSONL(inDir)
	if err != nil {
		return nil, err
	}
	var all []*FileStats
	for _, in := range files {
		if strings.HasSuffix(in, "_clean.jsonl") {
			continue
		}
		out := filepath.Join(outDir, strings.TrimSuffix(filepath.Base(in), ".jsonl")+"_clean.jsonl")
		stats, err := n.NormalizeFile(in, out)
		if err != nil {
			return all, err
		}
		all = append(all, stats)
	}
	return all, nil
}

func kindFromFileName(path string) entity.Kind {
	if strings.Contains(filepath.Base(path), "_epci_") {
		return entity.KindEPCI
	}
	return entity.KindMairie
}
