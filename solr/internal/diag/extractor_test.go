package diag

import (
	"net/http"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func extract(t *testing.T, server, body string) Descriptor {
	t.Helper()
	headers := http.Header{}
	if server != "" {
		headers.Set("Server", server)
	}
	return Extract(zerolog.Nop(), headers, []byte(body))
}

func TestExtractJSONErrorMessage(t *testing.T) {
	d := extract(t, "", `{"error":{"msg":"X"}}`)
	assert.Equal(t, "X", d.Reason)
	assert.Empty(t, d.Detail)
}

func TestExtractJSONUnexpectedShape(t *testing.T) {
	body := `{"status":"everything is broken"}`
	d := extract(t, "", body)
	assert.Empty(t, d.Reason)
	assert.Equal(t, body, d.Detail)
}

func TestExtractJettyPre(t *testing.T) {
	d := extract(t, "Jetty(9.4.41.v20210516)", "<html><body><pre>broke</pre></body></html>")
	assert.Equal(t, "broke", d.Reason)
	assert.Equal(t, "", d.Detail)
}

func TestExtractStrictXMLShortCircuit(t *testing.T) {
	body := `<?xml version="1.0" encoding="UTF-8"?>
<response>
  <lst name="responseHeader"><int name="status">400</int></lst>
  <lst name="error">
    <str name="msg">undefined field text</str>
    <str name="trace">org.apache.solr.common.SolrException
	at org.apache.solr.schema.IndexSchema.getField</str>
  </lst>
</response>`
	d := extract(t, "Jetty(9.4)", body)
	assert.Equal(t, "undefined field text", d.Reason)
	// The short-circuit keeps the trace verbatim, line breaks included.
	assert.Contains(t, d.Detail, "SolrException\n")
}

func TestExtractStrictXMLTraceOnly(t *testing.T) {
	body := `<?xml version="1.0"?><response><lst name="error"><str name="trace">the trace</str></lst></response>`
	d := extract(t, "", body)
	assert.Equal(t, "the trace", d.Reason)
	assert.Equal(t, "the trace", d.Detail)
}

func TestExtractStrictXMLMessageOnly(t *testing.T) {
	body := `<?xml version="1.0"?><response><lst name="error"><str name="msg">boom</str></lst></response>`

	// Generic flavor: the heuristics find nothing further; the strict-parse
	// reason survives with no detail.
	d := extract(t, "", body)
	assert.Equal(t, "boom", d.Reason)
	assert.Equal(t, "", d.Detail)

	// Tomcat flavor: the heading regex misses and the whole body becomes
	// the detail.
	d = extract(t, "Apache-Coyote/1.1", body)
	assert.Equal(t, "boom", d.Reason)
	assert.NotEmpty(t, d.Detail)
}

func TestExtractTomcatHeading(t *testing.T) {
	d := extract(t, "Apache-Coyote/1.1", `<html><head></head><body><h1 class="err">HTTP Status 500 - oops</h1></body></html>`)
	assert.Equal(t, "HTTP Status 500 - oops", d.Reason)
	assert.Equal(t, "", d.Detail)
}

func TestExtractTomcatNoHeading(t *testing.T) {
	d := extract(t, "Apache-Coyote/1.1", "a &amp; b &#65; &#x42;\nnext line")
	assert.Empty(t, d.Reason)
	// Newlines stripped, then numeric and named entity references decoded.
	assert.Equal(t, "a & b A Bnext line", d.Detail)
}

func TestExtractGenericTitle(t *testing.T) {
	d := extract(t, "nginx/1.25.0", "<html><head><title>502 Bad Gateway</title></head><body>nope</body></html>")
	assert.Equal(t, "502 Bad Gateway", d.Reason)
}

func TestExtractMalformedMarkup(t *testing.T) {
	body := "line one\nline two >><<\r\nline three"
	d := extract(t, "", body)
	assert.Empty(t, d.Reason)
	assert.Equal(t, "line oneline two >><<line three", d.Detail)
}

func TestExtractBreakTagsStripped(t *testing.T) {
	d := extract(t, "Apache-Coyote/1.1", "first<br/>second<br />third")
	assert.Equal(t, "firstsecondthird", d.Detail)
}

func TestSniffFlavor(t *testing.T) {
	assert.Equal(t, flavorJetty, sniffFlavor("Jetty(9.4.z)"))
	assert.Equal(t, flavorTomcat, sniffFlavor("Apache-Coyote/1.1"))
	assert.Equal(t, flavorGeneric, sniffFlavor("nginx"))
	assert.Equal(t, flavorGeneric, sniffFlavor(""))
}

func TestFormatMessage(t *testing.T) {
	assert.Equal(t, "[Reason: boom]", FormatMessage(Descriptor{Reason: "boom"}))
	assert.Equal(t, "[Reason: None]\nthe detail", FormatMessage(Descriptor{Detail: "the detail"}))
}
