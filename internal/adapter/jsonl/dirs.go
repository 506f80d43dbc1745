package jsonl

import (
	"path/filepath"

	"github.com/user/annuaire-crawler/internal/entity"
	"github.com/user/annuaire-crawler/internal/repository"
)

// Dirs places each target's output file by kind.
type Dirs struct {
	Mairie string
	EPCI   string
}

// Path returns the output path of t.
func (d Dirs) Path(t entity.Target) string {
	dir := d.Mairie
	if t.Kind == entity.KindEPCI {
		dir = d.EPCI
	}
	return filepath.Join(dir, t.OutputFile)
}

// Open opens the sink of t. Its signature matches the crawler's sink factory.
func (d Dirs) Open(t entity.Target) (repository.RecordSink, error) {
	return OpenSink(d.Path(t))
}
