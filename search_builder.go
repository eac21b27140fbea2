package flowdex

import "context"

// SearchBuilder is a fluent builder for search queries.
type SearchBuilder struct {
	client *Client
	query  string
	opts   SearchOptions
}

// Service adds a required service (any one of the added services must match).
func (b *SearchBuilder) Service(name string) *SearchBuilder {
	b.opts.Services = append(b.opts.Services, name)
	return b
}

// Category restricts results to one category.
func (b *SearchBuilder) Category(c string) *SearchBuilder {
	b.opts.Category = c
	return b
}

// Complexity restricts results to one complexity tag.
func (b *SearchBuilder) Complexity(c string) *SearchBuilder {
	b.opts.Complexity = c
	return b
}

// Limit sets the maximum number of results.
func (b *SearchBuilder) Limit(n int) *SearchBuilder {
	b.opts.Limit = n
	return b
}

// Explain includes per-signal scores and ranks in each hit.
func (b *SearchBuilder) Explain() *SearchBuilder {
	b.opts.Explain = true
	return b
}

// Do executes the search and returns the hits.
func (b *SearchBuilder) Do(ctx context.Context) ([]Hit, error) {
	resp, err := b.client.Search(ctx, b.query, &b.opts)
	if err != nil {
		return nil, err
	}
	return resp.Hits, nil
}
