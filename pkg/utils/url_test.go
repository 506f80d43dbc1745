package utils

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHashURL(t *testing.T) {
	a := HashURL("https://example.org/a")
	require.Len(t, a, 64)
	require.Equal(t, a, HashURL("https://example.org/a"))
	require.NotEqual(t, a, HashURL("https://example.org/b"))
}

func TestToAbsoluteURL(t *testing.T) {
	base := "https://lannuaire.service-public.gouv.fr/navigation/occitanie/lot/mairie"
	tests := []struct {
		ref, want string
	}{
		{"/occitanie/lot/mairie-46102", "https://lannuaire.service-public.gouv.fr/occitanie/lot/mairie-46102"},
		{"https://www.ville-figeac.fr", "https://www.ville-figeac.fr"},
		{"  ", ""},
	}
	for _, tt := range tests {
		got, err := ToAbsoluteURL(base, tt.ref)
		require.NoError(t, err)
		require.Equal(t, tt.want, got)
	}
}

func TestListingSlug(t *testing.T) {
	require.Equal(t, "haute-garonne", ListingSlug("https://lannuaire.service-public.gouv.fr/navigation/occitanie/haute-garonne/mairie"))
	require.Equal(t, "occitanie", ListingSlug("https://lannuaire.service-public.gouv.fr/navigation/occitanie/epci/"))
	require.Empty(t, ListingSlug("https://example.org/mairie"))
}
