package solr

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"
	"syscall"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/solrhq/gosolr/solr/internal/diag"
)

// NamedFile is a readable file with a declared name. *os.File satisfies
// it; the name travels to the server as the multipart part name and serves
// as a file-type hint there.
type NamedFile interface {
	io.Reader
	Name() string
}

const formContentType = "application/x-www-form-urlencoded; charset=utf-8"

// maxGetQueryLen is the encoded-length threshold above which query
// submission switches from GET to POST. Callers must not assume a fixed
// verb.
const maxGetQueryLen = 1024

// request is one dispatch unit, built and consumed per call.
type request struct {
	method  string
	path    string
	body    string
	headers map[string]string
	fields  url.Values  // multipart scalar fields, used with files
	files   []NamedFile // attached files; triggers a multipart body
}

// send issues one HTTP request under the client's per-attempt timeout and
// returns the response body as text. Transport failures come back as
// *TransportError, non-200 statuses as *ProtocolError with the reason and
// detail already extracted. JSON decoding is the caller's responsibility.
func (c *Client) send(ctx context.Context, req request) (string, error) {
	if c.isClosed() {
		return "", ErrClientClosed
	}

	target := joinURL(c.baseURL, req.path)
	reqID := uuid.NewString()

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var body io.Reader
	contentType := ""
	if len(req.files) > 0 {
		buf, ct, err := multipartBody(req.fields, req.files)
		if err != nil {
			return "", err
		}
		body = buf
		contentType = ct
	} else if req.body != "" {
		body = strings.NewReader(req.body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, target, body)
	if err != nil {
		return "", err
	}
	for k, v := range req.headers {
		httpReq.Header.Set(k, v)
	}
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	httpReq.Header.Set("X-Request-Id", reqID)

	c.log.Debug().
		Str("request_id", reqID).
		Str("method", req.method).
		Str("url", target).
		Str("body_prefix", prefix(req.body, 10)).
		Msg("starting request")
	start := time.Now()

	resp, err := c.http.Do(httpReq)
	if err != nil {
		terr := classifyTransport(err, target)
		transportFailuresTotal.WithLabelValues(terr.Kind.String()).Inc()
		c.log.Error().Err(terr.Err).
			Str("request_id", reqID).
			Str("url", target).
			Str("kind", terr.Kind.String()).
			Msg("request failed")
		return "", terr
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		terr := classifyTransport(err, target)
		transportFailuresTotal.WithLabelValues(terr.Kind.String()).Inc()
		return "", terr
	}

	requestDuration.WithLabelValues(req.method).Observe(time.Since(start).Seconds())
	requestsTotal.WithLabelValues(req.method, statusLabel(resp.StatusCode)).Inc()
	c.log.Info().
		Str("request_id", reqID).
		Str("method", req.method).
		Str("url", target).
		Dur("elapsed", time.Since(start)).
		Msg("finished request")

	if resp.StatusCode != http.StatusOK {
		perr := &ProtocolError{StatusCode: resp.StatusCode, URL: target}
		// A machine-readable reason header wins over body scraping.
		if reason := resp.Header.Get("Reason"); reason != "" {
			perr.Reason = reason
		} else {
			desc := diag.Extract(c.log, resp.Header, raw)
			perr.Reason = desc.Reason
			perr.Detail = desc.Detail
		}
		c.log.Error().
			Str("request_id", reqID).
			Int("status", resp.StatusCode).
			Str("reason", perr.Reason).
			Msg("engine returned an error")
		return "", perr
	}

	return strings.ToValidUTF8(string(raw), string(utf8.RuneError)), nil
}

// query encodes params into a query string under the named search handler,
// always requesting JSON. Short queries go out as GET; anything at or over
// the threshold is POSTed as a form body.
func (c *Client) query(ctx context.Context, handler string, params url.Values) (string, error) {
	params.Set("wt", "json")
	encoded := params.Encode()

	if len(encoded) < maxGetQueryLen {
		return c.send(ctx, request{
			method: http.MethodGet,
			path:   handler + "/?" + encoded,
		})
	}
	return c.send(ctx, request{
		method:  http.MethodPost,
		path:    handler + "/",
		body:    encoded,
		headers: map[string]string{"Content-Type": formContentType},
	})
}

// getJSON issues a plain GET against a handler with wt=json set; used by
// the handlers that never need the POST fallback.
func (c *Client) getJSON(ctx context.Context, handler string, params url.Values) (string, error) {
	params.Set("wt", "json")
	return c.send(ctx, request{
		method: http.MethodGet,
		path:   handler + "/?" + params.Encode(),
	})
}

func multipartBody(fields url.Values, files []NamedFile) (*bytes.Buffer, string, error) {
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)
	for k, vs := range fields {
		for _, v := range vs {
			if err := w.WriteField(k, v); err != nil {
				return nil, "", err
			}
		}
	}
	for _, f := range files {
		part, err := w.CreateFormFile(f.Name(), f.Name())
		if err != nil {
			return nil, "", err
		}
		if _, err := io.Copy(part, f); err != nil {
			return nil, "", err
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf, w.FormDataContentType(), nil
}

// classifyTransport sorts a transport fault into timeout, connection or
// generic. Timeouts cover both the per-attempt context deadline and
// net-level timeouts; connection failures are dial errors and reset or
// refused connections.
func classifyTransport(err error, target string) *TransportError {
	var cause error = err
	var uerr *url.Error
	if errors.As(err, &uerr) {
		cause = uerr.Err
	}

	kind := TransportGeneric
	var nerr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		kind = TransportTimeout
	case errors.As(err, &nerr) && nerr.Timeout():
		kind = TransportTimeout
	case errors.Is(err, syscall.ECONNREFUSED),
		errors.Is(err, syscall.ECONNRESET),
		errors.Is(err, syscall.EPIPE),
		isDialError(err):
		kind = TransportConnection
	}
	return &TransportError{Kind: kind, URL: target, Err: cause}
}

func isDialError(err error) bool {
	var oerr *net.OpError
	return errors.As(err, &oerr) && oerr.Op == "dial"
}

func joinURL(base, path string) string {
	if path == "" {
		return base
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/")
}

func prefix(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// --------------------------------------------------------------------
// debugTransport – optional HTTP round-trip dumper
// --------------------------------------------------------------------

type debugTransport struct {
	base http.RoundTripper
	log  *zerolog.Logger
}

func (dt *debugTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if reqDump, err := httputil.DumpRequestOut(req, true); err == nil {
		dt.log.Debug().
			Str("method", req.Method).
			Str("url", req.URL.String()).
			Str("request_dump", string(reqDump)).
			Msg("HTTP request")
	}

	resp, err := dt.base.RoundTrip(req)
	if err != nil {
		dt.log.Error().Err(err).
			Str("method", req.Method).
			Str("url", req.URL.String()).
			Msg("HTTP request failed")
		return nil, err
	}

	if respDump, err := httputil.DumpResponse(resp, true); err == nil {
		dt.log.Debug().
			Str("method", req.Method).
			Str("url", req.URL.String()).
			Int("status_code", resp.StatusCode).
			Str("response_dump", string(respDump)).
			Msg("HTTP response")
	}
	return resp, nil
}
