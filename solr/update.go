package solr

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/solrhq/gosolr/solr/internal/wire"
)

const xmlContentType = "text/xml; charset=utf-8"

// Bool gives a *bool for the optional update flags.
func Bool(b bool) *bool { return &b }

// UpdateFlags are the per-call commit knobs appended to the update path.
// Each flag is rendered as lower-case "true"/"false" only when explicitly
// set; a nil field leaves the engine default in force. Commit takes
// precedence over SoftCommit when both are set.
type UpdateFlags struct {
	Commit       *bool
	SoftCommit   *bool
	WaitFlush    *bool
	WaitSearcher *bool
	Overwrite    *bool
}

// updatePath renders "update/" plus the explicitly-set flags. Appending
// commit=true to the URL makes the commit happen without a second request.
func updatePath(flags UpdateFlags) string {
	var vars []string
	appendFlag := func(name string, v *bool) {
		if v != nil {
			vars = append(vars, fmt.Sprintf("%s=%t", name, *v))
		}
	}

	if flags.Commit != nil {
		appendFlag("commit", flags.Commit)
	} else {
		appendFlag("softCommit", flags.SoftCommit)
	}
	appendFlag("waitFlush", flags.WaitFlush)
	appendFlag("overwrite", flags.Overwrite)
	appendFlag("waitSearcher", flags.WaitSearcher)

	if len(vars) == 0 {
		return "update/"
	}
	return "update/?" + strings.Join(vars, "&")
}

// update posts an XML message to the update handler. The message is
// stripped of control characters first; Solr refuses to parse XML
// containing them.
func (c *Client) update(ctx context.Context, message string, flags UpdateFlags) (string, error) {
	return c.send(ctx, request{
		method:  http.MethodPost,
		path:    updatePath(flags),
		body:    wire.Sanitize(message),
		headers: map[string]string{"Content-Type": xmlContentType},
	})
}

// AddOptions tune one Add call.
type AddOptions struct {
	// FieldBoosts applies a per-field index-time boost across all documents.
	FieldBoosts map[string]float64
	// FieldUpdates turns the add into an atomic update using the given
	// modifier ("set", "add", "inc") per field.
	FieldUpdates map[string]string
	// CommitWithin asks the engine to commit within this window.
	CommitWithin time.Duration

	UpdateFlags
}

// Add indexes or replaces documents as one update message.
//
//	_, err := client.Add(ctx, []solr.Document{
//	    {"id": "doc_1", "title": "A test document"},
//	    {"id": "doc_2", "title": "The Banana: Tasty or Dangerous?"},
//	}, &solr.AddOptions{UpdateFlags: solr.UpdateFlags{Commit: solr.Bool(true)}})
func (c *Client) Add(ctx context.Context, docs []Document, opts *AddOptions) (string, error) {
	if opts == nil {
		opts = &AddOptions{}
	}

	start := time.Now()
	c.log.Debug().Int("docs", len(docs)).Msg("building add request")

	raw := make([]map[string]any, len(docs))
	for i, d := range docs {
		raw[i] = d
	}
	message, err := wire.BuildUpdate(raw, opts.FieldBoosts, opts.FieldUpdates, int(opts.CommitWithin.Milliseconds()))
	if err != nil {
		return "", err
	}

	c.log.Debug().Int("docs", len(docs)).Dur("elapsed", time.Since(start)).Msg("built add request")
	return c.update(ctx, message, opts.UpdateFlags)
}

// CommitOptions tune one Commit call.
type CommitOptions struct {
	// ExpungeDeletes asks the engine to merge segments with deletes away.
	ExpungeDeletes *bool

	SoftCommit   *bool
	WaitFlush    *bool
	WaitSearcher *bool
}

// Commit makes recent writes visible to search.
func (c *Client) Commit(ctx context.Context, opts *CommitOptions) (string, error) {
	if opts == nil {
		opts = &CommitOptions{}
	}
	msg := "<commit />"
	if opts.ExpungeDeletes != nil {
		msg = fmt.Sprintf(`<commit expungeDeletes="%t" />`, *opts.ExpungeDeletes)
	}
	return c.update(ctx, msg, UpdateFlags{
		SoftCommit:   opts.SoftCommit,
		WaitFlush:    opts.WaitFlush,
		WaitSearcher: opts.WaitSearcher,
	})
}

// OptimizeOptions tune one Optimize call.
type OptimizeOptions struct {
	// MaxSegments bounds the segment count after optimization; zero leaves
	// the engine default.
	MaxSegments int

	WaitFlush    *bool
	WaitSearcher *bool
}

// Optimize streamlines the number of index segments, essentially a
// defragmentation operation.
func (c *Client) Optimize(ctx context.Context, opts *OptimizeOptions) (string, error) {
	if opts == nil {
		opts = &OptimizeOptions{}
	}
	msg := "<optimize />"
	if opts.MaxSegments > 0 {
		msg = fmt.Sprintf(`<optimize maxSegments="%d" />`, opts.MaxSegments)
	}
	return c.update(ctx, msg, UpdateFlags{
		WaitFlush:    opts.WaitFlush,
		WaitSearcher: opts.WaitSearcher,
	})
}

// DeleteRequest names the documents to delete: exactly one of ID or Query
// must be set. ID removes one document; Query is a Lucene-style query
// matching a collection of documents.
type DeleteRequest struct {
	ID    string
	Query string

	Commit       *bool
	WaitFlush    *bool
	WaitSearcher *bool
}

// Delete removes documents.
//
//	_, err := client.Delete(ctx, solr.DeleteRequest{ID: "doc_12"})
//	_, err := client.Delete(ctx, solr.DeleteRequest{Query: "*:*"})
func (c *Client) Delete(ctx context.Context, req DeleteRequest) (string, error) {
	if (req.ID == "") == (req.Query == "") {
		return "", ErrDeleteTarget
	}

	var msg string
	if req.ID != "" {
		msg = fmt.Sprintf("<delete><id>%s</id></delete>", xmlEscape(req.ID))
	} else {
		msg = fmt.Sprintf("<delete><query>%s</query></delete>", xmlEscape(req.Query))
	}
	return c.update(ctx, msg, UpdateFlags{
		Commit:       req.Commit,
		WaitFlush:    req.WaitFlush,
		WaitSearcher: req.WaitSearcher,
	})
}

func xmlEscape(s string) string {
	var b strings.Builder
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}
