package wire

import (
	"encoding/xml"
	"fmt"
	"sort"
	"strconv"
)

// Reserved document key carrying the document-level boost weight.
const boostKey = "boost"

type fieldElem struct {
	XMLName xml.Name `xml:"field"`
	Name    string   `xml:"name,attr"`
	Update  string   `xml:"update,attr,omitempty"`
	Boost   string   `xml:"boost,attr,omitempty"`
	Value   string   `xml:",chardata"`
}

type docElem struct {
	XMLName xml.Name `xml:"doc"`
	Boost   *string  `xml:"boost,attr,omitempty"`
	Fields  []fieldElem
}

type addElem struct {
	XMLName      xml.Name `xml:"add"`
	CommitWithin string   `xml:"commitWithin,attr,omitempty"`
	Docs         []docElem
}

// BuildUpdate assembles the <add> message for a batch of documents.
// commitWithinMS, when positive, becomes the commitWithin attribute.
// fieldBoosts and fieldUpdates apply per field name across all documents.
func BuildUpdate(docs []map[string]any, fieldBoosts map[string]float64, fieldUpdates map[string]string, commitWithinMS int) (string, error) {
	add := addElem{}
	if commitWithinMS > 0 {
		add.CommitWithin = strconv.Itoa(commitWithinMS)
	}
	for _, doc := range docs {
		add.Docs = append(add.Docs, buildDoc(doc, fieldBoosts, fieldUpdates))
	}
	out, err := xml.Marshal(add)
	if err != nil {
		return "", fmt.Errorf("marshal update message: %w", err)
	}
	return string(out), nil
}

// buildDoc emits one <doc> element. Sequence values produce one <field> per
// element, in order; entries whose value is null are skipped. The document
// boost, taken from the reserved "boost" key, is always emitted when
// present, null or not. Field names are sorted for deterministic output.
func buildDoc(doc map[string]any, fieldBoosts map[string]float64, fieldUpdates map[string]string) docElem {
	elem := docElem{}

	keys := make([]string, 0, len(doc))
	for k := range doc {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		value := doc[key]
		if key == boostKey {
			b := fmt.Sprintf("%v", value)
			elem.Boost = &b
			continue
		}

		for _, bit := range sequence(value) {
			if IsNull(bit) {
				continue
			}
			field := fieldElem{
				Name:  key,
				Value: ToWire(bit),
			}
			if mod, ok := fieldUpdates[key]; ok {
				field.Update = mod
			}
			if boost, ok := fieldBoosts[key]; ok {
				field.Boost = strconv.FormatFloat(boost, 'g', -1, 64)
			}
			elem.Fields = append(elem.Fields, field)
		}
	}
	return elem
}

// sequence views any value as an ordered slice so scalars and multi-valued
// fields share one code path.
func sequence(v any) []any {
	switch t := v.(type) {
	case []any:
		return t
	case []string:
		out := make([]any, len(t))
		for i, s := range t {
			out[i] = s
		}
		return out
	case []int:
		out := make([]any, len(t))
		for i, n := range t {
			out[i] = n
		}
		return out
	case []float64:
		out := make([]any, len(t))
		for i, f := range t {
			out[i] = f
		}
		return out
	default:
		return []any{v}
	}
}
