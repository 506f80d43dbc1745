package jsonl

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/user/annuaire-crawler/internal/entity"
)

func TestSinkAppendsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "data", "31_mairies_haute_garonne.jsonl")

	sink, err := OpenSink(path)
	require.NoError(t, err)
	require.NoError(t, sink.Append(ctx, &entity.RawRecord{Nom: "Toulouse", URL: "https://example.org/1"}))
	require.NoError(t, sink.Close())

	// Reopening appends rather than truncating.
	sink, err = OpenSink(path)
	require.NoError(t, err)
	require.NoError(t, sink.Append(ctx, &entity.RawRecord{Nom: "Blagnac", URL: "https://example.org/2"}))
	require.NoError(t, sink.Close())
	require.NoError(t, sink.Close())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var names []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var raw map[string]any
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &raw))
		require.Contains(t, raw, "latitude")
		require.Nil(t, raw["latitude"])
		names = append(names, raw["nom"].(string))
	}
	require.NoError(t, scanner.Err())
	require.Equal(t, []string{"Toulouse", "Blagnac"}, names)
}

func TestSinkAppendAfterClose(t *testing.T) {
	sink, err := OpenSink(filepath.Join(t.TempDir(), "out.jsonl"))
	require.NoError(t, err)
	require.NoError(t, sink.Close())

	err = sink.Append(context.Background(), &entity.RawRecord{})
	require.ErrorIs(t, err, os.ErrClosed)
}
