package solr

// Results is an immutable snapshot of a decoded query response. Docs holds
// the returned page of documents; Hits is the engine-side match count,
// which exceeds len(Docs) under pagination. The pass-through maps default
// to empty, never nil, so callers can index them without checks.
//
// Ranging over Docs gives fresh forward iteration on every traversal:
//
//	res, _ := client.Search(ctx, "ponies", nil)
//	for _, doc := range res.Docs {
//	    fmt.Println(doc["id"])
//	}
type Results struct {
	Docs []map[string]any
	Hits int

	Debug        map[string]any
	Highlighting map[string]any
	Facets       map[string]any
	Spellcheck   map[string]any
	Stats        map[string]any
	Grouped      map[string]any

	// QTime is the engine-reported query time in milliseconds, -1 when the
	// response carried none.
	QTime int

	// NextCursorMark is the opaque deep-pagination token, empty when the
	// query did not ask for cursor pagination.
	NextCursorMark string
}

// NewResults projects a decoded response into a Results value. The
// top-level "response" section may be absent or null; every part defaults
// independently.
func NewResults(decoded map[string]any) *Results {
	response, _ := decoded["response"].(map[string]any)

	r := &Results{
		Debug:        mapSection(decoded, "debug"),
		Highlighting: mapSection(decoded, "highlighting"),
		Facets:       mapSection(decoded, "facet_counts"),
		Spellcheck:   mapSection(decoded, "spellcheck"),
		Stats:        mapSection(decoded, "stats"),
		Grouped:      mapSection(decoded, "grouped"),
		QTime:        -1,
	}

	if docs, ok := response["docs"].([]any); ok {
		r.Docs = make([]map[string]any, 0, len(docs))
		for _, d := range docs {
			if m, ok := d.(map[string]any); ok {
				r.Docs = append(r.Docs, m)
			}
		}
	}
	if hits, ok := response["numFound"].(float64); ok {
		r.Hits = int(hits)
	}

	if header, ok := decoded["responseHeader"].(map[string]any); ok {
		if qtime, ok := header["QTime"].(float64); ok {
			r.QTime = int(qtime)
		}
	}
	if mark, ok := decoded["nextCursorMark"].(string); ok {
		r.NextCursorMark = mark
	}
	return r
}

// Len is the number of returned documents, distinct from Hits.
func (r *Results) Len() int { return len(r.Docs) }

func mapSection(decoded map[string]any, key string) map[string]any {
	if m, ok := decoded[key].(map[string]any); ok && m != nil {
		return m
	}
	return map[string]any{}
}
