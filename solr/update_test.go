package solr

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

// updateRecorder captures what the update handler received.
type updateRecorder struct {
	path        string
	query       string
	contentType string
	body        string
}

func newUpdateServer(t *testing.T, rec *updateRecorder) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec.path = r.URL.Path
		rec.query = r.URL.RawQuery
		rec.contentType = r.Header.Get("Content-Type")
		b, _ := io.ReadAll(r.Body)
		rec.body = string(b)
		_, _ = io.WriteString(w, `{"responseHeader":{"status":0}}`)
	}))
}

func TestAddBuildsUpdateMessage(t *testing.T) {
	var rec updateRecorder
	srv := newUpdateServer(t, &rec)
	defer srv.Close()

	c := New(srv.URL)
	_, err := c.Add(context.Background(), []Document{
		{"id": "doc_1", "title": "A test document"},
		{"id": "doc_2", "empty": ""},
	}, &AddOptions{
		CommitWithin: 5 * time.Second,
		UpdateFlags:  UpdateFlags{Commit: Bool(true)},
	})
	if err != nil {
		t.Fatalf("Add error: %v", err)
	}

	if rec.path != "/update/" {
		t.Fatalf("unexpected path %q", rec.path)
	}
	if rec.query != "commit=true" {
		t.Fatalf("unexpected query %q", rec.query)
	}
	if rec.contentType != xmlContentType {
		t.Fatalf("unexpected content type %q", rec.contentType)
	}
	want := `<add commitWithin="5000">` +
		`<doc><field name="id">doc_1</field><field name="title">A test document</field></doc>` +
		`<doc><field name="id">doc_2</field></doc>` +
		`</add>`
	if rec.body != want {
		t.Fatalf("unexpected message:\n got %s\nwant %s", rec.body, want)
	}
}

func TestAddSanitizesControlCharacters(t *testing.T) {
	var rec updateRecorder
	srv := newUpdateServer(t, &rec)
	defer srv.Close()

	c := New(srv.URL)
	if _, err := c.Add(context.Background(), []Document{{"id": "a\x02b"}}, nil); err != nil {
		t.Fatalf("Add error: %v", err)
	}
	if strings.Contains(rec.body, "\x02") {
		t.Fatalf("control character leaked into message: %q", rec.body)
	}
}

func TestDeleteValidation(t *testing.T) {
	var rec updateRecorder
	srv := newUpdateServer(t, &rec)
	defer srv.Close()
	c := New(srv.URL)

	cases := []struct {
		name    string
		req     DeleteRequest
		wantErr bool
		body    string
	}{
		{"neither", DeleteRequest{}, true, ""},
		{"both", DeleteRequest{ID: "x", Query: "y"}, true, ""},
		{"id only", DeleteRequest{ID: "x"}, false, "<delete><id>x</id></delete>"},
		{"query only", DeleteRequest{Query: "title:y"}, false, "<delete><query>title:y</query></delete>"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := c.Delete(context.Background(), tc.req)
			if tc.wantErr {
				if !errors.Is(err, ErrDeleteTarget) {
					t.Fatalf("expected ErrDeleteTarget, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Delete error: %v", err)
			}
			if rec.body != tc.body {
				t.Fatalf("unexpected message %q, want %q", rec.body, tc.body)
			}
		})
	}
}

func TestCommitMessages(t *testing.T) {
	var rec updateRecorder
	srv := newUpdateServer(t, &rec)
	defer srv.Close()
	c := New(srv.URL)

	if _, err := c.Commit(context.Background(), nil); err != nil {
		t.Fatalf("Commit error: %v", err)
	}
	if rec.body != "<commit />" || rec.query != "" {
		t.Fatalf("unexpected commit: body=%q query=%q", rec.body, rec.query)
	}

	_, err := c.Commit(context.Background(), &CommitOptions{
		ExpungeDeletes: Bool(true),
		SoftCommit:     Bool(true),
		WaitSearcher:   Bool(false),
	})
	if err != nil {
		t.Fatalf("Commit error: %v", err)
	}
	if rec.body != `<commit expungeDeletes="true" />` {
		t.Fatalf("unexpected commit message %q", rec.body)
	}
	if rec.query != "softCommit=true&waitSearcher=false" {
		t.Fatalf("unexpected flags %q", rec.query)
	}
}

func TestOptimizeMessages(t *testing.T) {
	var rec updateRecorder
	srv := newUpdateServer(t, &rec)
	defer srv.Close()
	c := New(srv.URL)

	if _, err := c.Optimize(context.Background(), nil); err != nil {
		t.Fatalf("Optimize error: %v", err)
	}
	if rec.body != "<optimize />" {
		t.Fatalf("unexpected optimize message %q", rec.body)
	}

	if _, err := c.Optimize(context.Background(), &OptimizeOptions{MaxSegments: 2}); err != nil {
		t.Fatalf("Optimize error: %v", err)
	}
	if rec.body != `<optimize maxSegments="2" />` {
		t.Fatalf("unexpected optimize message %q", rec.body)
	}
}

func TestUpdatePathFlagRendering(t *testing.T) {
	cases := []struct {
		name  string
		flags UpdateFlags
		want  string
	}{
		{"none", UpdateFlags{}, "update/"},
		{"commit true", UpdateFlags{Commit: Bool(true)}, "update/?commit=true"},
		{"commit false", UpdateFlags{Commit: Bool(false)}, "update/?commit=false"},
		{"soft commit alone", UpdateFlags{SoftCommit: Bool(true)}, "update/?softCommit=true"},
		{
			"commit beats soft commit",
			UpdateFlags{Commit: Bool(true), SoftCommit: Bool(true)},
			"update/?commit=true",
		},
		{
			"all the rest",
			UpdateFlags{WaitFlush: Bool(true), Overwrite: Bool(false), WaitSearcher: Bool(true)},
			"update/?waitFlush=true&overwrite=false&waitSearcher=true",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := updatePath(tc.flags); got != tc.want {
				t.Fatalf("updatePath = %q, want %q", got, tc.want)
			}
		})
	}
}
