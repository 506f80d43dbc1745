package usecase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/antzucaro/matchr"
	"go.uber.org/zap"

	"github.com/user/annuaire-crawler/internal/adapter/geoapi"
	"github.com/user/annuaire-crawler/internal/entity"
	"github.com/user/annuaire-crawler/pkg/utils"
)

var ErrNoPostalCode = errors.New("record has no postal code")

// GeoClient is the part of the geographic reference API the enrichers use.
type GeoClient interface {
	CommunesByPostalCode(ctx context.Context, postalCode string) ([]geoapi.Commune, error)
	CommunesByName(ctx context.Context, name, departmentCode string) ([]geoapi.Commune, error)
	EPCI(ctx context.Context, code string) (*geoapi.EPCI, error)
	EPCICommunes(ctx context.Context, code string) ([]geoapi.Commune, error)
}

// Enricher adds reference data to normalized records.
type Enricher struct {
	geo    GeoClient
	logger *zap.Logger
}

// NewEnricher creates an Enricher.
func NewEnricher(geo GeoClient, logger *zap.Logger) *Enricher {
	return &Enricher{geo: geo, logger: logger}
}

// EnrichCommune looks the record up by postal code and always sets the local derived fields.
// The returned error only reports why the lookup part was skipped; rec is usable either way.
func (e *Enricher) EnrichCommune(ctx context.Context, rec *entity.Record) error {
	err := e.lookupByPostalCode(ctx, rec)
	applyCommercialScore(rec)
	return err
}

func (e *Enricher) lookupByPostalCode(ctx context.Context, rec *entity.Record) error {
	cp := strings.TrimSpace(rec.Adresse.PostalCode)
	if cp == "" {
		return ErrNoPostalCode
	}
	communes, err := e.geo.CommunesByPostalCode(ctx, cp)
	if err != nil {
		return err
	}
	if len(communes) == 0 {
		return fmt.Errorf("%w: codePostal=%s", geoapi.ErrNoResult, cp)
	}

	c := e.pick(rec, communes)
	rec.CodeInsee = c.Code
	rec.CodeEpci = c.CodeEpci
	rec.SirenEpci = c.Siren
	rec.Population = c.Population
	rec.Surface = c.Surface
	return nil
}

// pick prefers the commune whose normalized name equals the record's, else the first result.
func (e *Enricher) pick(rec *entity.Record, communes []geoapi.Commune) geoapi.Commune {
	want := rec.NomNormalise
	if want == "" {
		want = utils.NormalizeName(rec.Nom)
	}
	for _, c := range communes {
		if utils.NormalizeName(c.Nom) == want {
			return c
		}
	}

	first := communes[0]
	if len(communes) > 1 {
		e.logger.Warn("no exact commune match, using first result",
			zap.String("nom", rec.Nom),
			zap.String("picked", first.Nom),
			zap.Int("candidates", len(communes)),
			zap.Float64("similarity", matchr.JaroWinkler(want, utils.NormalizeName(first.Nom), false)),
		)
	}
	return first
}

func applyCommercialScore(rec *entity.Record) {
	rec.HasWebsite = rec.Website != ""
	hasEmail := strings.Contains(rec.Contacts.Email, "@")
	rec.HasEmail = &hasEmail

	score := 0.0
	if rec.Population != nil {
		score = float64(*rec.Population) / 1000
	}
	if rec.HasWebsite {
		score++
	}
	if hasEmail {
		score++
	}
	rec.CommercialScore = &score
}

// EPCIIndex maps EPCI SIREN codes to their name.
type EPCIIndex map[string]entity.EPCIRef

// LoadEPCIIndex reads an EPCI enrichment file. Flattened lines and the older
// {"epci": {...}, "communes": [...]} lines are both accepted.
func LoadEPCIIndex(path string) (EPCIIndex, error) {
	idx := EPCIIndex{}
	err := eachFileLine(path, func(lineNo int, line []byte) error {
		var v struct {
			entity.EPCIRef
			EPCI *entity.EPCIRef `json:"epci"`
		}
		if err := json.Unmarshal(line, &v); err != nil {
			return fmt.Errorf("line %d: %w", lineNo, err)
		}
		ref := v.EPCIRef
		if v.EPCI != nil {
			ref = *v.EPCI
		}
		if ref.Code != "" {
			idx[ref.Code] = ref
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return idx, nil
}

// LinkEPCI looks the commune up by name and department, then attaches its EPCI from idx.
// Records that cannot be found are returned unchanged with the error.
func (e *Enricher) LinkEPCI(ctx context.Context, rec *entity.Record, idx EPCIIndex) error {
	communes, err := e.geo.CommunesByName(ctx, rec.Nom, rec.DepartementCode)
	if err != nil {
		return err
	}
	if len(communes) == 0 {
		return fmt.Errorf("%w: nom=%s", geoapi.ErrNoResult, rec.Nom)
	}
	c := e.pick(rec, communes)
	rec.CodeInsee = c.Code
	rec.Population = c.Population
	if c.CodeEpci != "" {
		rec.CodeEpci = c.CodeEpci
	}
	if ref, ok := idx[c.CodeEpci]; ok {
		rec.EPCI = &entity.EPCIRef{Nom: ref.Nom, Code: ref.Code}
	}
	return nil
}

// EnrichEPCI fetches the details and member communes of one EPCI.
// On failure the base fields are still returned, alongside the error.
func (e *Enricher) EnrichEPCI(ctx context.Context, base entity.EPCIRef) (*entity.EPCIRecord, error) {
	out := entity.NewEPCIRecord(base)

	details, err := e.geo.EPCI(ctx, base.Code)
	if err != nil {
		return out, err
	}
	members, err := e.geo.EPCICommunes(ctx, base.Code)
	if err != nil {
		return out, err
	}

	out.Nom = details.Nom
	out.Code = details.Code
	out.Population = details.Population
	if details.CodesDepartements != nil {
		out.CodesDepartements = details.CodesDepartements
	}
	if details.CodesRegions != nil {
		out.CodesRegions = details.CodesRegions
	}
	for _, m := range members {
		codesPostaux := m.CodesPostaux
		if codesPostaux == nil {
			codesPostaux = []string{}
		}
		out.Communes = append(out.Communes, entity.MemberCommune{
			Nom:             m.Nom,
			Code:            m.Code,
			CodeDepartement: m.CodeDepartement,
			CodeRegion:      m.CodeRegion,
			CodesPostaux:    codesPostaux,
			Population:      m.Population,
		})
	}
	return out, nil
}

// EnrichFile enriches every line of in into out, one output line per input line.
func (e *Enricher) EnrichFile(ctx context.Context, inPath, outPath string) (*FileStats, error) {
	return e.rewriteRecords(ctx, inPath, outPath, func(rec *entity.Record) error {
		return e.EnrichCommune(ctx, rec)
	})
}

// EnrichDir enriches every *.jsonl of inDir into outDir under the same name.
func (e *Enricher) EnrichDir(ctx context.Context, inDir, outDir string) ([]*FileStats, error) {
	files, err := listJSONL(inDir)
	if err != nil {
		return nil, err
	}
	var all []*FileStats
	for _, in := range files {
		stats, err := e.EnrichFile(ctx, in, filepath.Join(outDir, filepath.Base(in)))
		if err != nil {
			return all, err
		}
		all = append(all, stats)
	}
	return all, nil
}

// LinkEPCIFile attaches EPCI membership to every record of in.
func (e *Enricher) LinkEPCIFile(ctx context.Context, inPath, outPath string, idx EPCIIndex) (*FileStats, error) {
	return e.rewriteRecords(ctx, inPath, outPath, func(rec *entity.Record) error {
		return e.LinkEPCI(ctx, rec, idx)
	})
}

// EnrichEPCIs reads a JSON array of {code, nom} and writes one flattened EPCI record per entry.
func (e *Enricher) EnrichEPCIs(ctx context.Context, inPath, outPath string) (*FileStats, error) {
	data, err := os.ReadFile(inPath)
	if err != nil {
		return nil, err
	}
	var bases []entity.EPCIRef
	if err := json.Unmarshal(data, &bases); err != nil {
		return nil, fmt.Errorf("decode %s: %w", inPath, err)
	}

	f, w, err := createOutput(outPath)
	if err != nil {
		return nil, err
	}
	stats := &FileStats{Input: inPath, Output: outPath}
	for i, base := range bases {
		if err := ctx.Err(); err != nil {
			closeOutput(f, w)
			return stats, err
		}
		stats.Lines++
		rec, lookupErr := e.EnrichEPCI(ctx, base)
		if lookupErr != nil {
			e.logger.Warn("EPCI lookup failed", zap.String("code", base.Code), zap.String("nom", base.Nom), zap.Error(lookupErr))
			stats.PassedOn++
		} else {
			stats.Transformed++
		}
		if err := writeJSONLine(w, rec); err != nil {
			closeOutput(f, w)
			return stats, err
		}
		e.logger.Info("EPCI enriched", zap.Int("index", i+1), zap.Int("total", len(bases)), zap.String("nom", rec.Nom))
	}
	return stats, closeOutput(f, w)
}

// rewriteRecords applies fn to each record line. Lookup failures are logged and the record is
// written as fn left it; lines that are not records are written unchanged.
func (e *Enricher) rewriteRecords(ctx context.Context, inPath, outPath string, fn func(*entity.Record) error) (*FileStats, error) {
	f, w, err := createOutput(outPath)
	if err != nil {
		return nil, err
	}
	stats := &FileStats{Input: inPath, Output: outPath}

	err = eachFileLine(inPath, func(lineNo int, line []byte) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		stats.Lines++

		var rec entity.Record
		obj, err := readObject(json.NewDecoder(bytes.NewReader(line)))
		if err == nil {
			err = json.Unmarshal(line, &rec)
		}
		if err != nil {
			e.logger.Warn("malformed line passed through", zap.String("file", inPath), zap.Int("line", lineNo), zap.Error(err))
			stats.PassedOn++
			if _, err := w.Write(line); err != nil {
				return err
			}
			return w.WriteByte('\n')
		}

		if err := fn(&rec); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			e.logger.Warn("lookup failed", zap.String("nom", rec.Nom), zap.String("postal_code", rec.Adresse.PostalCode), zap.Error(err))
			stats.PassedOn++
		} else {
			stats.Transformed++
		}
		merged, err := overlayEnriched(obj, &rec)
		if err != nil {
			return err
		}
		return writeJSONLine(w, merged)
	})
	if cerr := closeOutput(f, w); err == nil {
		err = cerr
	}
	if err != nil {
		return nil, err
	}

	e.logger.Info("file enriched",
		zap.String("file", filepath.Base(inPath)),
		zap.Int("lines", stats.Lines),
		zap.Int("enriched", stats.Transformed),
		zap.Int("not_enriched", stats.PassedOn))
	return stats, nil
}

// enrichedKeys are the record keys the enrichers own. Every other key of an input line is
// written back exactly as read.
var enrichedKeys = map[string]bool{
	"hasWebsite":      true,
	"codeInsee":       true,
	"codeEpci":        true,
	"sirenEpci":       true,
	"population":      true,
	"surface":         true,
	"hasEmail":        true,
	"commercialScore": true,
	"epci":            true,
}

// overlayEnriched sets the enriched keys of rec onto the original line, keeping its key order.
func overlayEnriched(obj orderedObject, rec *entity.Record) (orderedObject, error) {
	b, err := json.Marshal(rec)
	if err != nil {
		return nil, err
	}
	typed, err := readObject(json.NewDecoder(bytes.NewReader(b)))
	if err != nil {
		return nil, err
	}
	for _, f := range typed {
		if enrichedKeys[f.key] {
			obj = obj.set(f.key, f.value)
		}
	}
	return obj, nil
}

func writeJSONLine(w interface {
	Write([]byte) (int, error)
	WriteByte(byte) error
}, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if _, err := w.Write(b); err != nil {
		return err
	}
	return w.WriteByte('\n')
}
