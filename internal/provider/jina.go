package provider

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/leadlab/enrich-cli/pkg/jina"
)

const jinaName = "jina"

// Jina implements SearchProvider on the Jina search API.
type Jina struct {
	client jina.Client
	guard  *Guard
}

// NewJina wires a Jina search provider through the shared guard.
func NewJina(client jina.Client, guard *Guard) *Jina {
	return &Jina{client: client, guard: guard}
}

func (j *Jina) Search(ctx context.Context, query string, maxResults int) ([]SearchHit, error) {
	resp, err := call(ctx, j.guard, jinaName, "search", "s.jina.ai",
		func(ctx context.Context) (*jina.SearchResponse, error) {
			return j.client.Search(ctx, query)
		})
	if err != nil {
		return nil, eris.Wrap(err, "provider: jina search")
	}

	hits := make([]SearchHit, 0, len(resp.Data))
	for _, r := range resp.Data {
		if r.URL == "" {
			continue
		}
		hits = append(hits, SearchHit{Title: r.Title, URL: r.URL, Snippet: r.Description})
		if len(hits) >= maxResults {
			break
		}
	}
	return hits, nil
}
