// Package fetcher ingests company lead lists from local files, HTTP, and FTP
// sources in CSV, XLSX, JSON, and zipped form.
package fetcher

import (
	"context"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/leadlab/enrich-cli/internal/model"
)

// Fetcher downloads remote lead files.
type Fetcher interface {
	// Download fetches the URL and returns the response body.
	Download(ctx context.Context, url string) (io.ReadCloser, error)

	// DownloadToFile fetches the URL and writes it to the given path.
	// Returns bytes written.
	DownloadToFile(ctx context.Context, url string, path string) (int64, error)
}

// Options configures lead-list loading.
type Options struct {
	// Charset names the CSV text encoding ("utf-8", "shift_jis", ...).
	// Empty means UTF-8.
	Charset string

	// Sheet selects the XLSX sheet by name; empty means the first sheet.
	Sheet string
}

// forURL picks a fetcher for the source's scheme.
func forURL(rawURL string) (Fetcher, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, eris.Wrapf(err, "fetcher: parse source %s", rawURL)
	}
	switch u.Scheme {
	case "http", "https":
		return NewHTTPFetcher(HTTPOptions{}), nil
	case "ftp":
		return NewFTPFetcher(FTPOptions{}), nil
	default:
		return nil, eris.Errorf("fetcher: unsupported scheme %q", u.Scheme)
	}
}

// LoadLeads reads company inputs from a local path or URL, choosing the
// parser by file extension. Remote sources are downloaded to a temp file
// first; zips must contain exactly one lead file.
func LoadLeads(ctx context.Context, source string, opts Options) ([]model.CompanyInput, error) {
	path := source
	if strings.Contains(source, "://") {
		f, err := forURL(source)
		if err != nil {
			return nil, err
		}
		tmp, err := os.CreateTemp("", "leads-*"+filepath.Ext(source))
		if err != nil {
			return nil, eris.Wrap(err, "fetcher: create temp file")
		}
		tmp.Close()
		defer os.Remove(tmp.Name())

		if _, err := f.DownloadToFile(ctx, source, tmp.Name()); err != nil {
			return nil, err
		}
		path = tmp.Name()
	}

	return parseLeadFile(ctx, path, opts)
}

func parseLeadFile(ctx context.Context, path string, opts Options) ([]model.CompanyInput, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".tsv":
		f, err := os.Open(path)
		if err != nil {
			return nil, eris.Wrapf(err, "fetcher: open %s", path)
		}
		defer f.Close()
		return ParseCSVLeads(ctx, f, opts)
	case ".xlsx":
		return ParseXLSXLeads(path, opts)
	case ".json":
		f, err := os.Open(path)
		if err != nil {
			return nil, eris.Wrapf(err, "fetcher: open %s", path)
		}
		defer f.Close()
		return ParseJSONLeads(f)
	case ".zip":
		inner, cleanup, err := extractLeadFile(path)
		if err != nil {
			return nil, err
		}
		defer cleanup()
		return parseLeadFile(ctx, inner, opts)
	default:
		return nil, eris.Errorf("fetcher: unsupported lead file %s", filepath.Base(path))
	}
}
