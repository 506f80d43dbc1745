package usecase

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"go.uber.org/zap"

	"github.com/user/annuaire-crawler/internal/entity"
)

const unknownType = "Inconnu"

// Stats are data-quality counters over a set of records.
type Stats struct {
	Total           int            `json:"total"`
	NoEmail         int            `json:"noEmail"`
	NoTelephone     int            `json:"noTelephone"`
	NoWebsite       int            `json:"noWebsite"`
	NoLatLng        int            `json:"noLatLng"`
	NoContactAtAll  int            `json:"noContactAtAll"`
	EmptyPageLikely int            `json:"emptyPageLikely"`
	ByType          map[string]int `json:"byType"`
}

func newStats() *Stats {
	return &Stats{ByType: map[string]int{}}
}

// reportRecord reads both raw and normalized lines.
type reportRecord struct {
	Email     string           `json:"email"`
	Telephone string           `json:"telephone"`
	Contacts  *entity.Contacts `json:"contacts"`
	Website   string           `json:"website"`
	Horaires  string           `json:"horaires"`
	Latitude  *float64         `json:"latitude"`
	Longitude *float64         `json:"longitude"`
	TypeEpci  string           `json:"typeEpci"`
	Type      string           `json:"type"`

	TypeCollectivite string `json:"typeCollectivite"`
}

// Add counts one record.
func (s *Stats) Add(r *reportRecord) {
	email, tel := r.Email, r.Telephone
	if r.Contacts != nil {
		if r.Contacts.Email != "" {
			email = r.Contacts.Email
		}
		if r.Contacts.Telephone != "" {
			tel = r.Contacts.Telephone
		}
	}
	hasEmail := strings.TrimSpace(email) != ""
	hasTel := strings.TrimSpace(tel) != ""
	hasWebsite := strings.TrimSpace(r.Website) != ""
	hasLatLng := r.Latitude != nil && r.Longitude != nil

	s.Total++
	if !hasEmail {
		s.NoEmail++
	}
	if !hasTel {
		s.NoTelephone++
	}
	if !hasWebsite {
		s.NoWebsite++
	}
	if !hasLatLng {
		s.NoLatLng++
	}
	if !hasEmail && !hasTel && !hasWebsite {
		s.NoContactAtAll++
		if strings.TrimSpace(r.Horaires) == "" && !hasLatLng {
			s.EmptyPageLikely++
		}
	}

	typ := r.TypeEpci
	if typ == "" {
		typ = r.Type
	}
	if typ == "" {
		typ = r.TypeCollectivite
	}
	if typ == "" {
		typ = unknownType
	}
	s.ByType[typ]++
}

// Merge adds other's counters into s.
func (s *Stats) Merge(other *Stats) {
	s.Total += other.Total
	s.NoEmail += other.NoEmail
	s.NoTelephone += other.NoTelephone
	s.NoWebsite += other.NoWebsite
	s.NoLatLng += other.NoLatLng
	s.NoContactAtAll += other.NoContactAtAll
	s.EmptyPageLikely += other.EmptyPageLikely
	for k, v := range other.ByType {
		s.ByType[k] += v
	}
}

// Pct formats n as a percentage of total with two decimals.
func Pct(n, total int) string {
	if total == 0 {
		return "0.00"
	}
	return fmt.Sprintf("%.2f", float64(n)/float64(total)*100)
}

// FileReport holds the stats of one input file.
type FileReport struct {
	File      string `json:"file"`
	Stats     *Stats `json:"stats"`
	Malformed int    `json:"malformed"`
}

// Report is the per-file and global quality report of a directory.
type Report struct {
	GeneratedAt time.Time     `json:"generatedAt"`
	Files       []*FileReport `json:"files"`
	Global      *Stats        `json:"global"`
}

// BuildReport computes stats for every *.jsonl file of dir. Malformed lines are logged and skipped.
func BuildReport(dir string, logger *zap.Logger) (*Report, error) {
	files, err := listJSONL(dir)
	if err != nil {
		return nil, err
	}

	rep := &Report{GeneratedAt: time.Now(), Global: newStats()}
	for _, path := range files {
		fr := &FileReport{File: filepath.Base(path), Stats: newStats()}
		err := eachFileLine(path, func(lineNo int, line []byte) error {
			var r reportRecord
			if err := json.Unmarshal(line, &r); err != nil {
				logger.Warn("skipping malformed line", zap.String("file", fr.File), zap.Int("line", lineNo), zap.Error(err))
				fr.Malformed++
				return nil
			}
			fr.Stats.Add(&r)
			return nil
		})
		if err != nil {
			return nil, err
		}
		rep.Global.Merge(fr.Stats)
		rep.Files = append(rep.Files, fr)
	}
	return rep, nil
}

// RenderMarkdown renders one section per file followed by the global section.
func RenderMarkdown(rep *Report) string {
	var b strings.Builder
	b.WriteString("# Rapport qualité des données\n\n")
	fmt.Fprintf(&b, "Généré le %s\n\n---\n", rep.GeneratedAt.Format("2006-01-02 15:04:05"))

	for _, fr := range rep.Files {
		writeSection(&b, "Fichier "+fr.File, fr.Stats)
		if fr.Malformed > 0 {
			fmt.Fprintf(&b, "\n_%d ligne(s) illisible(s) ignorée(s)_\n", fr.Malformed)
		}
		b.WriteString("\n---\n")
	}

	b.WriteString("\n# GLOBAL\n")
	writeSection(&b, "Toutes les collectivités", rep.Global)
	return b.String()
}

// WriteReport renders rep to path.
func WriteReport(rep *Report, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(RenderMarkdown(rep)), 0o644)
}

func writeSection(b *strings.Builder, title string, s *Stats) {
	fmt.Fprintf(b, "\n## %s\n\n- **Total** : %d\n\n", title, s.Total)

	indicators := table.NewWriter()
	indicators.AppendHeader(table.Row{"Indicateur", "Nombre", "%"})
	indicators.AppendRows([]table.Row{
		{"Sans email", s.NoEmail, Pct(s.NoEmail, s.Total)},
		{"Sans téléphone", s.NoTelephone, Pct(s.NoTelephone, s.Total)},
		{"Sans site web", s.NoWebsite, Pct(s.NoWebsite, s.Total)},
		{"Sans GPS", s.NoLatLng, Pct(s.NoLatLng, s.Total)},
		{"Sans aucun contact", s.NoContactAtAll, Pct(s.NoContactAtAll, s.Total)},
		{"Pages probablement vides", s.EmptyPageLikely, Pct(s.EmptyPageLikely, s.Total)},
	})
	b.WriteString(indicators.RenderMarkdown())
	b.WriteString("\n\n")

	types := make([]string, 0, len(s.ByType))
	for k := range s.ByType {
		types = append(types, k)
	}
	sort.Strings(types)

	byType := table.NewWriter()
	byType.AppendHeader(table.Row{"Type", "Nombre", "%"})
	for _, k := range types {
		byType.AppendRow(table.Row{k, s.ByType[k], Pct(s.ByType[k], s.Total)})
	}
	b.WriteString(byType.RenderMarkdown())
	b.WriteString("\n")
}
