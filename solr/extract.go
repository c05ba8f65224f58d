package solr

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
)

// ExtractOptions tune one Extract call.
type ExtractOptions struct {
	// Index, when true, inserts the extracted document directly into the
	// index instead of returning it. The default extract-only mode hands
	// content and metadata back so the caller can build its own record.
	Index bool
	// Params are extra parameters for the extraction handler.
	Params url.Values
}

// ExtractResult carries what the extraction handler pulled out of a file.
type ExtractResult struct {
	// Contents is the extracted full-text content, if applicable.
	Contents string
	// Metadata holds the file's metadata as key to value-list pairs.
	Metadata map[string]any
	// Raw is the rest of the decoded response, e.g. the response header.
	Raw map[string]any
}

// Extract posts a file to the extraction endpoint (backed by Apache Tika)
// and returns its text content and metadata. The file must have a name;
// it is sent verbatim since the extractor may use it as a file type hint.
func (c *Client) Extract(ctx context.Context, file NamedFile, opts *ExtractOptions) (*ExtractResult, error) {
	if file == nil || file.Name() == "" {
		return nil, ErrUnnamedFile
	}
	if opts == nil {
		opts = &ExtractOptions{}
	}

	fields := clone(opts.Params)
	fields.Set("extractOnly", fmt.Sprintf("%t", !opts.Index))
	fields.Set("lowernames", "true")
	fields.Set("wt", "json")

	body, err := c.send(ctx, request{
		method: http.MethodPost,
		path:   "update/extract",
		fields: fields,
		files:  []NamedFile{file},
	})
	if err != nil {
		c.log.Error().Err(err).Str("file", file.Name()).Msg("failed to extract document metadata")
		return nil, err
	}

	var data map[string]any
	if err := json.Unmarshal([]byte(body), &data); err != nil {
		c.log.Error().Err(err).Msg("failed to decode extract response")
		return nil, fmt.Errorf("%w: %v", ErrExtractDecode, err)
	}

	res := &ExtractResult{Metadata: map[string]any{}}

	// The extracted content is keyed by the file's own name.
	if contents, ok := data[file.Name()].(string); ok {
		res.Contents = contents
	}
	delete(data, file.Name())

	metaKey := file.Name() + "_metadata"
	if blob, ok := data[metaKey].([]any); ok {
		res.Metadata = unpackMetadata(blob)
	}
	delete(data, metaKey)

	res.Raw = data
	return res, nil
}

// unpackMetadata flattens the extraction handler's metadata shape: a flat
// list of alternating keys and value lists, consumed two items at a time
// from the end.
func unpackMetadata(blob []any) map[string]any {
	meta := map[string]any{}
	for len(blob) >= 2 {
		value := blob[len(blob)-1]
		key := blob[len(blob)-2]
		blob = blob[:len(blob)-2]
		meta[fmt.Sprint(key)] = value
	}
	return meta
}
