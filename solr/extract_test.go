package solr

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"
)

type memFile struct {
	io.Reader
	name string
}

func (f memFile) Name() string { return f.name }

func TestExtract(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("not a multipart request: %v", err)
		}
		if got := r.FormValue("extractOnly"); got != "true" {
			t.Errorf("extractOnly = %q, want true", got)
		}
		if got := r.FormValue("lowernames"); got != "true" {
			t.Errorf("lowernames = %q, want true", got)
		}
		file, _, err := r.FormFile("notes.txt")
		if err != nil {
			t.Errorf("file part missing: %v", err)
		} else {
			content, _ := io.ReadAll(file)
			if string(content) != "file payload" {
				t.Errorf("unexpected file content %q", content)
			}
		}
		_, _ = io.WriteString(w, `{
			"responseHeader":{"status":0},
			"notes.txt":"extracted text",
			"notes.txt_metadata":["stream_size","42","content_type",["text/plain"]]
		}`)
	}))
	defer srv.Close()

	c := New(srv.URL)
	res, err := c.Extract(context.Background(), memFile{strings.NewReader("file payload"), "notes.txt"}, nil)
	if err != nil {
		t.Fatalf("Extract error: %v", err)
	}
	if res.Contents != "extracted text" {
		t.Fatalf("unexpected contents %q", res.Contents)
	}
	if got := res.Metadata["stream_size"]; got != "42" {
		t.Fatalf("unexpected stream_size %v", got)
	}
	if _, ok := res.Metadata["content_type"]; !ok {
		t.Fatal("content_type metadata missing")
	}
	if _, ok := res.Raw["responseHeader"]; !ok {
		t.Fatal("response header should remain in Raw")
	}
	if _, ok := res.Raw["notes.txt"]; ok {
		t.Fatal("contents key should be consumed")
	}
}

func TestExtractRequiresNamedFile(t *testing.T) {
	c := New("http://unused")
	_, err := c.Extract(context.Background(), memFile{strings.NewReader("x"), ""}, nil)
	if !errors.Is(err, ErrUnnamedFile) {
		t.Fatalf("expected ErrUnnamedFile, got %v", err)
	}
	_, err = c.Extract(context.Background(), nil, nil)
	if !errors.Is(err, ErrUnnamedFile) {
		t.Fatalf("expected ErrUnnamedFile, got %v", err)
	}
}

func TestExtractMalformedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "not json at all")
	}))
	defer srv.Close()

	c := New(srv.URL)
	_, err := c.Extract(context.Background(), memFile{strings.NewReader("x"), "f.txt"}, nil)
	if !errors.Is(err, ErrExtractDecode) {
		t.Fatalf("expected ErrExtractDecode, got %v", err)
	}
}

func TestUnpackMetadata(t *testing.T) {
	got := unpackMetadata([]any{"a", "1", "b", "2"})
	want := map[string]any{"a": "1", "b": "2"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected metadata %v, want %v", got, want)
	}

	// An odd leftover element is dropped, not paired.
	got = unpackMetadata([]any{"orphan", "a", "1"})
	if !reflect.DeepEqual(got, map[string]any{"a": "1"}) {
		t.Fatalf("unexpected metadata %v", got)
	}
}
