package usecase

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/user/annuaire-crawler/internal/entity"
)

const rawMairieLine = `{"nom":" Saint-Étienne ","adresse":"2 place de l'Hôtel de Ville, 42000, Saint-Étienne, France","codePostal":"42000","region":"Auvergne-Rhône-Alpes","departement":"Loire","departementCode":"42","horaires":" Lundi : 08h00 - 17h00 ","email":" mairie@saint-etienne.fr ","telephone":"04 77 48 77 48","latitude":45.43,"longitude":4.39,"website":"https://www.saint-etienne.fr","url":"https://example.org/saint-etienne"}`

func TestSplitAddress(t *testing.T) {
	tests := []struct {
		in   string
		want entity.Address
	}{
		{
			in:   "1 place du Capitole, 31000, Toulouse, France",
			want: entity.Address{Street: "1 place du Capitole", PostalCode: "31000", City: "Toulouse", Country: "France"},
		},
		{
			in:   "Le Bourg, , 46100, Figeac",
			want: entity.Address{Street: "Le Bourg", PostalCode: "46100", City: "Figeac", Country: "France"},
		},
		{
			in:   "Rue haute, CEDEX 12",
			want: entity.Address{Street: "Rue haute", Country: "France"},
		},
		{
			in:   "",
			want: entity.Address{Country: "France"},
		},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, SplitAddress(tt.in), tt.in)
	}
}

func TestNormalizeRecord(t *testing.T) {
	rec, err := NormalizeRecord([]byte(rawMairieLine), entity.KindMairie)
	require.NoError(t, err)

	require.Equal(t, "Saint-Étienne", rec.Nom)
	require.Equal(t, "saintetienne", rec.NomNormalise)
	require.Equal(t, entity.TypeCommune, rec.TypeCollectivite)
	require.Equal(t, entity.Address{
		Street: "2 place de l'Hôtel de Ville", PostalCode: "42000", City: "Saint-Étienne", Country: "France",
	}, rec.Adresse)
	require.Equal(t, entity.Contacts{Email: "mairie@saint-etienne.fr", Telephone: "0477487748"}, rec.Contacts)
	require.Equal(t, "Lundi : 08h00 - 17h00", rec.Horaires)
	require.True(t, rec.HasWebsite)
	require.True(t, rec.HasHoraires)
	require.True(t, rec.HasCoordinates())
}

func TestNormalizeRecordIsIdempotent(t *testing.T) {
	first, err := NormalizeRecord([]byte(rawMairieLine), entity.KindMairie)
	require.NoError(t, err)
	once, err := json.Marshal(first)
	require.NoError(t, err)

	second, err := NormalizeRecord(once, entity.KindMairie)
	require.NoError(t, err)
	twice, err := json.Marshal(second)
	require.NoError(t, err)

	require.JSONEq(t, string(once), string(twice))
}

func TestNormalizeRecordEPCIShape(t *testing.T) {
	line := `{"nom":"CC du Grand Figeac","type":"Communauté de communes","adresse":"35 allée Victor Hugo, 46100, Figeac, France","postalCode":"46100","contacts":{"email":"accueil@grand-figeac.fr","telephone":"05.65.11.22.78"},"latitude":44.6,"longitude":null,"website":"","url":"https://example.org/epci"}`

	rec, err := NormalizeRecord([]byte(line), entity.KindMairie)
	require.NoError(t, err)

	require.Equal(t, entity.TypeEPCI, rec.TypeCollectivite)
	require.Equal(t, "Communauté de communes", rec.TypeEpci)
	require.Equal(t, "accueil@grand-figeac.fr", rec.Contacts.Email)
	require.Equal(t, "0565112278", rec.Contacts.Telephone)
	require.Equal(t, "46100", rec.Adresse.PostalCode)
	require.False(t, rec.HasWebsite)

	// Partial coordinates are dropped together.
	require.Nil(t, rec.Latitude)
	require.Nil(t, rec.Longitude)
}

func TestNormalizeRecordFallsBackToRawPostalCode(t *testing.T) {
	rec, err := NormalizeRecord([]byte(`{"nom":"X","adresse":"Mairie, Le Bourg","codePostal":" 12345 "}`), entity.KindMairie)
	require.NoError(t, err)
	require.Equal(t, "12345", rec.Adresse.PostalCode)
	require.Empty(t, rec.Contacts.Email)
	require.Empty(t, rec.Contacts.Telephone)
}

func TestNormalizeFilePreservesLines(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "42_mairies_loire.jsonl")
	content := rawMairieLine + "\n\n{not json}\n" + `{"nom":"Roanne","adresse":"Place de l'Hôtel de Ville, 42300, Roanne"}` + "\n"
	require.NoError(t, os.WriteFile(in, []byte(content), 0o644))

	n := NewNormalizer(zap.NewNop())
	stats, err := n.NormalizeDir(dir, filepath.Join(dir, "clean"))
	require.NoError(t, err)
	require.Len(t, stats, 1)
	require.Equal(t, 3, stats[0].Lines)
	require.Equal(t, 1, stats[0].PassedOn)

	out, err := os.ReadFile(filepath.Join(dir, "clean", "42_mairies_loire_clean.jsonl"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSuffix(string(out), "\n"), "\n")
	require.Len(t, lines, 3)
	require.Contains(t, lines[0], `"nomNormalise":"saintetienne"`)
	require.Equal(t, "{not json}", lines[1])
	require.Contains(t, lines[2], `"nom":"Roanne"`)
}
