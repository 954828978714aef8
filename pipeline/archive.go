package pipeline

import (
	"archive/zip"
	"fmt"
	"os"
)

// archiveEntry is one file inside a result archive.
type archiveEntry struct {
	Name string
	Data []byte
}

// writeArchive writes entries into a zip file at path, in slice order.
func writeArchive(path string, entries []archiveEntry) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	for _, entry := range entries {
		w, err := zw.Create(entry.Name)
		if err != nil {
			return fmt.Errorf("adding %s: %w", entry.Name, err)
		}
		if _, err := w.Write(entry.Data); err != nil {
			return fmt.Errorf("writing %s: %w", entry.Name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return err
	}
	return f.Close()
}
