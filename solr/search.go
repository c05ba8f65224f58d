package solr

import (
	"context"
	"net/url"
	"strings"
)

// DefaultSearchHandler is the handler Search uses when none is given.
const DefaultSearchHandler = "select"

// SearchOptions tune one Search call.
type SearchOptions struct {
	// Handler overrides the search handler, default "select".
	Handler string
	// Params are extra engine parameters passed through verbatim, e.g.
	// rows, fl, sort, hl, facet.field.
	Params url.Values
}

// Search runs a query and returns the results.
//
//	// All docs.
//	res, err := client.Search(ctx, "*:*", nil)
//
//	// Search with highlighting.
//	res, err := client.Search(ctx, "ponies", &solr.SearchOptions{
//	    Params: url.Values{"hl": {"true"}, "hl.fragsize": {"10"}},
//	})
//
// Short parameter sets go out as GET; long ones as a form POST.
func (c *Client) Search(ctx context.Context, query string, opts *SearchOptions) (*Results, error) {
	if opts == nil {
		opts = &SearchOptions{}
	}
	handler := opts.Handler
	if handler == "" {
		handler = DefaultSearchHandler
	}

	params := clone(opts.Params)
	params.Set("q", query)

	body, err := c.query(ctx, handler, params)
	if err != nil {
		return nil, err
	}
	return c.wrapResults(body, "search")
}

// MoreLikeThis finds documents similar to those matched by query, using
// the named fields for similarity. Requires the MLT handler to be enabled
// on the core.
func (c *Client) MoreLikeThis(ctx context.Context, query string, fields []string, params url.Values) (*Results, error) {
	p := clone(params)
	p.Set("q", query)
	p.Set("mlt.fl", strings.Join(fields, ","))

	body, err := c.getJSON(ctx, "mlt", p)
	if err != nil {
		return nil, err
	}
	return c.wrapResults(body, "more-like-this")
}

func (c *Client) wrapResults(body, op string) (*Results, error) {
	decoded, err := c.decode([]byte(body))
	if err != nil {
		return nil, err
	}
	res := c.results(decoded)
	c.log.Debug().Int("hits", res.Hits).Str("op", op).Msg("query results")
	return res, nil
}

// TermCount is one suggested term with its document count.
type TermCount struct {
	Term  string
	Count int
}

// SuggestTerms asks the terms handler for indexed terms with the given
// prefix in each of the named fields. The result maps field name to
// (term, count) pairs in engine order.
func (c *Client) SuggestTerms(ctx context.Context, fields []string, prefix string, params url.Values) (map[string][]TermCount, error) {
	p := clone(params)
	for _, f := range fields {
		p.Add("terms.fl", f)
	}
	p.Set("terms.prefix", prefix)

	body, err := c.getJSON(ctx, "terms", p)
	if err != nil {
		return nil, err
	}
	decoded, err := c.decode([]byte(body))
	if err != nil {
		return nil, err
	}

	res := normalizeTerms(decoded["terms"])
	total := 0
	for _, pairs := range res {
		total += len(pairs)
	}
	c.log.Debug().Int("suggestions", total).Msg("term suggestions")
	return res, nil
}

// normalizeTerms accepts both shapes the terms handler has produced over
// the years: a flat alternating list
//
//	["field_name", ["dance",23,"dancers",10], ...]
//
// and a map
//
//	{"field_name": ["dance",23,"dancers",10]}
func normalizeTerms(section any) map[string][]TermCount {
	byField := map[string]any{}
	switch t := section.(type) {
	case []any:
		for i := 0; i+1 < len(t); i += 2 {
			if name, ok := t[i].(string); ok {
				byField[name] = t[i+1]
			}
		}
	case map[string]any:
		byField = t
	}

	out := map[string][]TermCount{}
	for field, v := range byField {
		values, ok := v.([]any)
		if !ok {
			out[field] = nil
			continue
		}
		pairs := make([]TermCount, 0, len(values)/2)
		for i := 0; i+1 < len(values); i += 2 {
			term, ok := values[i].(string)
			if !ok {
				continue
			}
			count, _ := values[i+1].(float64)
			pairs = append(pairs, TermCount{Term: term, Count: int(count)})
		}
		out[field] = pairs
	}
	return out
}

func clone(params url.Values) url.Values {
	out := url.Values{}
	for k, vs := range params {
		for _, v := range vs {
			out.Add(k, v)
		}
	}
	return out
}
