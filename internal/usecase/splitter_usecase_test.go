package usecase

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestSplitByDepartment(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "collectivites.json")
	content := `[
		{"nom":"Figeac","codePostal":"46100","email":"a@b.fr","population":9800,"contacts":{"tel":"05"}},
		{"nom":"Rodez","codePostal":"12000","email":null,"population":24000},
		{"nom":"Cahors \"centre\"","codePostal":"46000","population":null,"email":"c@d.fr"},
		{"nom":"Sans code","codePostal":""},
		{"nom":"Absent"}
	]`
	require.NoError(t, os.WriteFile(in, []byte(content), 0o644))

	out := filepath.Join(dir, "csv")
	res, err := SplitByDepartment(in, out, zap.NewNop())
	require.NoError(t, err)
	require.Equal(t, 2, res.Skipped)
	require.Equal(t, map[string]int{"46": 2, "12": 1}, res.Rows)

	lot, err := os.ReadFile(filepath.Join(out, "collectivites_46.csv"))
	require.NoError(t, err)
	require.Equal(t,
		"nom;codePostal;email;population;contacts\n"+
			`"Figeac";"46100";"a@b.fr";"9800";"{""tel"":""05""}"`+"\n"+
			`"Cahors ""centre""";"46000";"c@d.fr";"";""`+"\n",
		string(lot))

	aveyron, err := os.ReadFile(filepath.Join(out, "collectivites_12.csv"))
	require.NoError(t, err)
	require.Equal(t, "nom;codePostal;email;population\n\"Rodez\";\"12000\";\"\";\"24000\"\n", string(aveyron))
}

func TestSplitByDepartmentRejectsNonArray(t *testing.T) {
	in := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(in, []byte(`{"nom":"x"}`), 0o644))

	_, err := SplitByDepartment(in, t.TempDir(), zap.NewNop())
	require.ErrorIs(t, err, ErrNotArray)
}
