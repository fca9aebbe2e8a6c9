package provider

import (
	"sort"

	"github.com/rotisserie/eris"
)

// Compile-time checks that every implementation satisfies its role.
var (
	_ SearchProvider     = (*Perplexity)(nil)
	_ ExtractionProvider = (*Perplexity)(nil)
	_ SearchProvider     = (*Jina)(nil)
	_ ExtractionProvider = (*Local)(nil)
	_ SynthesisProvider  = (*Anthropic)(nil)
	_ SynthesisProvider  = (*OpenAI)(nil)
)

// Registry holds the configured provider implementations by name so the
// pipeline can be assembled from config strings.
type Registry struct {
	search     map[string]SearchProvider
	extraction map[string]ExtractionProvider
	synthesis  map[string]SynthesisProvider
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		search:     make(map[string]SearchProvider),
		extraction: make(map[string]ExtractionProvider),
		synthesis:  make(map[string]SynthesisProvider),
	}
}

// RegisterSearch adds a search provider under name.
func (r *Registry) RegisterSearch(name string, p SearchProvider) {
	r.search[name] = p
}

// RegisterExtraction adds an extraction provider under name.
func (r *Registry) RegisterExtraction(name string, p ExtractionProvider) {
	r.extraction[name] = p
}

// RegisterSynthesis adds a synthesis provider under name.
func (r *Registry) RegisterSynthesis(name string, p SynthesisProvider) {
	r.synthesis[name] = p
}

// Search resolves a search provider by name.
func (r *Registry) Search(name string) (SearchProvider, error) {
	p, ok := r.search[name]
	if !ok {
		return nil, eris.Errorf("provider: unknown search provider %q (have %v)", name, keys(r.search))
	}
	return p, nil
}

// Extraction resolves an extraction provider by name.
func (r *Registry) Extraction(name string) (ExtractionProvider, error) {
	p, ok := r.extraction[name]
	if !ok {
		return nil, eris.Errorf("provider: unknown extraction provider %q (have %v)", name, keys(r.extraction))
	}
	return p, nil
}

// Synthesis resolves a synthesis provider by name.
func (r *Registry) Synthesis(name string) (SynthesisProvider, error) {
	p, ok := r.synthesis[name]
	if !ok {
		return nil, eris.Errorf("provider: unknown synthesis provider %q (have %v)", name, keys(r.synthesis))
	}
	return p, nil
}

func keys[T any](m map[string]T) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
