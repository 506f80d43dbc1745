package extractor

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"

	"github.com/user/annuaire-crawler/internal/entity"
)

const mairiePage = `<!DOCTYPE html>
<html><body>
<nav><ol class="fr-breadcrumb__list">
  <li><a class="fr-breadcrumb__link" href="/">Accueil</a></li>
  <li><a class="fr-breadcrumb__link" href="/navigation/mairie">Mairies</a></li>
  <li><a class="fr-breadcrumb__link" href="/navigation/occitanie">Occitanie</a></li>
  <li><a class="fr-breadcrumb__link" href="/navigation/occitanie/haute-garonne">Haute-Garonne - 31</a></li>
  <li><a class="fr-breadcrumb__link" aria-current="page">Mairie - Toulouse</a></li>
</ol></nav>
<h1 id="titlePage">Mairie - Toulouse</h1>
<div itemscope>
  <span itemprop="streetAddress">1 place du Capitole</span>
  <span itemprop="postalCode"> 31000 </span>
  <span itemprop="addressLocality">Toulouse</span>
  <span itemprop="addressCountry">France</span>
</div>
<a data-test="link-voir-sur-une-carte" href="https://www.openstreetmap.org/?mlat=43.604&amp;mlon=1.4437#map=17">Voir sur une carte</a>
<p data-test="heure-d-ouverture">Lundi : 08h30 - 17h00</p>
<p data-test="heure-d-ouverture">
   Samedi : 09h00 - 12h00
</p>
<a class="send-mail" href="mailto:contact@mairie-toulouse.fr">contact@mairie-toulouse.fr</a>
<span id="contentPhone_1">05 61 22 29 22</span>
<ul><li data-test="websites"><a itemprop="url" href="https://www.toulouse.fr">toulouse.fr</a></li></ul>
</body></html>`

const epciPage = `<html><body>
<ol class="fr-breadcrumb__list">
  <li><a class="fr-breadcrumb__link" href="/">Accueil</a></li>
  <li><a class="fr-breadcrumb__link" href="/navigation/bretagne">Bretagne</a></li>
  <li><a class="fr-breadcrumb__link" href="/navigation/bretagne/epci">EPCI</a></li>
</ol>
<h1 id="titlePage">EPCI - Rennes Métropole</h1>
<p data-test="epci-type">Métropole</p>
<span itemprop="streetAddress">4 avenue Henri Fréville</span>
<span itemprop="postalCode">35200</span>
<span itemprop="addressLocality">Rennes</span>
<ul data-test="heure-d-ouverture">
  <li>Du lundi au vendredi :
      08h30 - 17h30</li>
  <li>Samedi : fermé</li>
</ul>
<span class="send-mail"></span>
<ul><li data-test="websites"><a href="/go?site=metropole.rennes.fr">site</a></li></ul>
<a data-test="link-voir-sur-une-carte" href="https://www.openstreetmap.org/?mlat=48.09">carte</a>
</body></html>`

func TestExtractMairie(t *testing.T) {
	rec, err := Extract(entity.KindMairie, &entity.DetailPage{
		URL:      "https://lannuaire.service-public.gouv.fr/occitanie/haute-garonne/mairie-31555",
		FinalURL: "https://lannuaire.service-public.gouv.fr/occitanie/haute-garonne/mairie-31555-01",
		HTML:     mairiePage,
	})
	require.NoError(t, err)

	require.Equal(t, "Toulouse", rec.Nom)
	require.Equal(t, "1 place du Capitole, 31000, Toulouse, France", rec.Adresse)
	require.Equal(t, "31000", rec.CodePostal)
	require.Equal(t, "Occitanie", rec.Region)
	require.Equal(t, "Haute-Garonne", rec.Departement)
	require.Equal(t, "31", rec.DepartementCode)
	require.Equal(t, "Lundi : 08h30 - 17h00 | Samedi : 09h00 - 12h00", rec.Horaires)
	require.Equal(t, "contact@mairie-toulouse.fr", rec.Email)
	require.Equal(t, "05 61 22 29 22", rec.Telephone)
	require.Equal(t, "https://www.toulouse.fr", rec.Website)
	require.Equal(t, "https://lannuaire.service-public.gouv.fr/occitanie/haute-garonne/mairie-31555-01", rec.URL)
	require.NotNil(t, rec.Latitude)
	require.NotNil(t, rec.Longitude)
	require.InDelta(t, 43.604, *rec.Latitude, 1e-9)
	require.InDelta(t, 1.4437, *rec.Longitude, 1e-9)
	require.Nil(t, rec.Contacts)
	require.Empty(t, rec.Type)
}

func TestExtractEPCI(t *testing.T) {
	rec, err := Extract(entity.KindEPCI, &entity.DetailPage{
		URL:  "https://lannuaire.service-public.gouv.fr/bretagne/epci-243500139",
		HTML: epciPage,
	})
	require.NoError(t, err)

	require.Equal(t, "Rennes Métropole", rec.Nom)
	require.Equal(t, "Métropole", rec.Type)
	require.Equal(t, "Bretagne", rec.Region)
	require.Empty(t, rec.Departement)
	require.Empty(t, rec.DepartementCode)
	require.Equal(t, "Rennes", rec.City)
	require.Equal(t, "France", rec.Country)
	require.Equal(t, "Du lundi au vendredi : 08h30 - 17h30 | Samedi : fermé", rec.Horaires)
	require.Equal(t, "https://lannuaire.service-public.gouv.fr/go?site=metropole.rennes.fr", rec.Website)
	require.NotNil(t, rec.Contacts)
	require.Empty(t, rec.Contacts.Email)

	// A map link with only a latitude yields no coordinates at all.
	require.Nil(t, rec.Latitude)
	require.Nil(t, rec.Longitude)
}

func TestExtractEmptyPage(t *testing.T) {
	rec, err := Extract(entity.KindMairie, &entity.DetailPage{URL: "https://example.org/x", HTML: "<html></html>"})
	require.NoError(t, err)
	require.Empty(t, rec.Nom)
	require.Empty(t, rec.Adresse)
	require.Nil(t, rec.Latitude)
	require.Equal(t, "https://example.org/x", rec.URL)
}

func TestSplitDepartment(t *testing.T) {
	tests := []struct {
		raw, name, code string
	}{
		{"Haute-Garonne - 31", "Haute-Garonne", "31"},
		{"Corse-du-Sud - 2A", "Corse-du-Sud", "2A"},
		{"La Réunion - 974", "La Réunion", "974"},
		{"Haute-Garonne", "Haute-Garonne", ""},
		{"", "", ""},
	}
	for _, tt := range tests {
		name, code := SplitDepartment(tt.raw)
		require.Equal(t, tt.name, name, tt.raw)
		require.Equal(t, tt.code, code, tt.raw)
	}
}

func TestBreadcrumbByText(t *testing.T) {
	html := `<ol class="fr-breadcrumb__list">
  <li><a class="fr-breadcrumb__link" href="/">Accueil</a></li>
  <li><a class="fr-breadcrumb__link" href="/somewhere">Grand Est</a></li>
  <li><a class="fr-breadcrumb__link" href="/elsewhere">Meuse - 55</a></li>
</ol>`
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)

	loc := Breadcrumb(doc)
	require.Empty(t, loc.Region)
	require.Equal(t, "Meuse - 55", loc.Department)
}
