package fetcher

import (
	"archive/zip"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
)

// leadExtensions are the parseable formats inside a zip, in preference order.
var leadExtensions = []string{".csv", ".tsv", ".xlsx", ".json"}

// extractLeadFile pulls the single lead file out of a zip archive into a temp
// directory. The returned cleanup removes the extracted copy.
func extractLeadFile(zipPath string) (string, func(), error) {
	r, err := zip.OpenReader(zipPath)
	if err != nil {
		return "", nil, eris.Wrap(err, "zip: open archive")
	}
	defer r.Close()

	entry, err := findLeadEntry(r.File)
	if err != nil {
		return "", nil, err
	}

	destDir, err := os.MkdirTemp("", "leads-zip-")
	if err != nil {
		return "", nil, eris.Wrap(err, "zip: create temp dir")
	}
	cleanup := func() { os.RemoveAll(destDir) }

	// Flatten the entry name so archive paths cannot escape destDir.
	destPath := filepath.Join(destDir, filepath.Base(entry.Name))
	if err := extractEntry(entry, destPath); err != nil {
		cleanup()
		return "", nil, err
	}
	return destPath, cleanup, nil
}

func findLeadEntry(files []*zip.File) (*zip.File, error) {
	var candidates []*zip.File
	for _, f := range files {
		if f.FileInfo().IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(f.Name))
		for _, want := range leadExtensions {
			if ext == want {
				candidates = append(candidates, f)
				break
			}
		}
	}
	switch len(candidates) {
	case 0:
		return nil, eris.New("zip: no lead file in archive")
	case 1:
		return candidates[0], nil
	default:
		return nil, eris.Errorf("zip: expected exactly 1 lead file, got %d", len(candidates))
	}
}

func extractEntry(f *zip.File, destPath string) error {
	rc, err := f.Open()
	if err != nil {
		return eris.Wrap(err, "zip: open entry")
	}
	defer rc.Close()

	out, err := os.Create(destPath)
	if err != nil {
		return eris.Wrap(err, "zip: create file")
	}
	defer out.Close()

	if _, err := io.Copy(out, rc); err != nil {
		return eris.Wrap(err, "zip: write file")
	}
	return nil
}
