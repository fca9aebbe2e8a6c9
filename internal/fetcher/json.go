package fetcher

import (
	"encoding/json"
	"io"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/leadlab/enrich-cli/internal/model"
)

// ParseJSONLeads reads a lead list from a JSON array of company objects.
// Rows without a website are dropped.
func ParseJSONLeads(r io.Reader) ([]model.CompanyInput, error) {
	var raw []model.CompanyInput
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, eris.Wrap(err, "json: decode leads")
	}

	leads := make([]model.CompanyInput, 0, len(raw))
	for _, in := range raw {
		in.Website = strings.TrimSpace(in.Website)
		in.Name = strings.TrimSpace(in.Name)
		if in.Website == "" {
			continue
		}
		leads = append(leads, in)
	}
	return leads, nil
}
