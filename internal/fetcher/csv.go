package fetcher

import (
	"bytes"
	"context"
	"encoding/csv"
	"io"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"

	"github.com/leadlab/enrich-cli/internal/model"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ParseCSVLeads reads a lead list from CSV or TSV. The first row must be a
// header naming at least the website and company name columns. Rows without a
// website are dropped.
func ParseCSVLeads(ctx context.Context, r io.Reader, opts Options) ([]model.CompanyInput, error) {
	decoded, err := decodeCharset(r, opts.Charset)
	if err != nil {
		return nil, err
	}

	reader := csv.NewReader(decoded)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, eris.New("csv: empty file")
	}
	if err != nil {
		return nil, eris.Wrap(err, "csv: read header")
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], string(utf8BOM))
	}
	// Retry as TSV when the header came back as a single cell.
	if len(header) == 1 && strings.Contains(header[0], "\t") {
		reader.Comma = '\t'
		header = strings.Split(header[0], "\t")
	}

	cols := mapHeader(header)
	if !cols.valid() {
		return nil, eris.Errorf("csv: header %v missing website or name column", header)
	}

	var leads []model.CompanyInput
	for {
		if ctx.Err() != nil {
			return nil, eris.Wrap(ctx.Err(), "csv: canceled")
		}
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrap(err, "csv: read row")
		}
		if in, ok := cols.rowToInput(row); ok {
			leads = append(leads, in)
		}
	}
	return leads, nil
}

// decodeCharset wraps r with a decoder for the named encoding. UTF-8 input
// passes through with any BOM stripped.
func decodeCharset(r io.Reader, charset string) (io.Reader, error) {
	charset = strings.ToLower(strings.TrimSpace(charset))
	if charset == "" || charset == "utf-8" || charset == "utf8" {
		buffered := make([]byte, len(utf8BOM))
		n, _ := io.ReadFull(r, buffered)
		head := buffered[:n]
		if bytes.Equal(head, utf8BOM) {
			return r, nil
		}
		return io.MultiReader(bytes.NewReader(head), r), nil
	}

	enc, err := htmlindex.Get(charset)
	if err != nil {
		return nil, eris.Wrapf(err, "csv: unknown charset %q", charset)
	}
	return transform.NewReader(r, enc.NewDecoder()), nil
}
