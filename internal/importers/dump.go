package importers

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/mrlokans/eknihy-sync/internal/entities"
)

// ReadDump decodes a JSON array of works as written by WriteDump.
func ReadDump(r io.Reader) ([]*entities.Work, error) {
	var works []*entities.Work
	if err := json.NewDecoder(r).Decode(&works); err != nil {
		return nil, fmt.Errorf("decode dump: %w", err)
	}
	return works, nil
}

// LoadDumpFile reads a dump from disk.
func LoadDumpFile(path string) ([]*entities.Work, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dump: %w", err)
	}
	defer f.Close()
	return ReadDump(f)
}

// WriteDump encodes works as an indented JSON array. Non-ASCII text is kept
// readable.
func WriteDump(w io.Writer, works []*entities.Work) error {
	if works == nil {
		works = []*entities.Work{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(works); err != nil {
		return fmt.Errorf("encode dump: %w", err)
	}
	return nil
}

// SaveDumpFile writes a dump to path, replacing any existing file.
func SaveDumpFile(path string, works []*entities.Work) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create dump: %w", err)
	}
	if err := WriteDump(f, works); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
