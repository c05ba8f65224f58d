// Package diag extracts a human-readable reason and detail from non-2xx
// Solr responses. The bodies are heterogeneous: JSON from recent Solr,
// well-formed error XML from older releases, or whatever HTML the servlet
// container emits when the core never saw the request. Extraction is
// fail-soft; the worst malformed input yields no reason and the raw body
// as detail.
package diag

import (
	"encoding/json"
	"encoding/xml"
	"errors"
	"html"
	"io"
	"net/http"
	"regexp"
	"strings"

	"github.com/rs/zerolog"
)

// Descriptor is the outcome of error extraction. An empty Reason means no
// reason could be determined; Detail then carries whatever context exists.
type Descriptor struct {
	Reason string
	Detail string
}

// flavor is the inferred kind of web server that produced the response,
// sniffed from the Server header. It only selects a scraping strategy;
// generic is the safe default and the set should not grow without evidence.
type flavor int

const (
	flavorGeneric flavor = iota
	flavorJetty
	flavorTomcat
)

func sniffFlavor(server string) flavor {
	server = strings.ToLower(server)
	switch {
	case strings.Contains(server, "jetty"):
		return flavorJetty
	case strings.Contains(server, "coyote"):
		return flavorTomcat
	default:
		return flavorGeneric
	}
}

// Extract derives a Descriptor from the headers and body of a failed
// response. JSON bodies are probed first; anything that does not decode is
// treated as markup and scraped according to the server flavor.
func Extract(logger zerolog.Logger, headers http.Header, body []byte) Descriptor {
	var decoded map[string]any
	if err := json.Unmarshal(body, &decoded); err == nil {
		if msg := errorMsg(decoded); msg != "" {
			return Descriptor{Reason: msg}
		}
		// Parsed, but not the expected {"error": {"msg": ...}} shape.
		return Descriptor{Detail: string(body)}
	}

	reason, detail := scrape(logger, headers.Get("Server"), string(body))
	return Descriptor{Reason: reason, Detail: html.UnescapeString(detail)}
}

func errorMsg(decoded map[string]any) string {
	errSection, ok := decoded["error"].(map[string]any)
	if !ok {
		return ""
	}
	msg, _ := errSection["msg"].(string)
	return msg
}

// tomcatHeadingRE pulls the text of the first level-1 heading out of the
// inconsistent HTML Tomcat error pages are made of.
var tomcatHeadingRE = regexp.MustCompile(`(?is)<h1[^>]*>\s*(.+?)\s*</h1>`)

func scrape(logger zerolog.Logger, server, body string) (reason, detail string) {
	serverType := sniffFlavor(server)

	if strings.HasPrefix(body, "<?xml") {
		// Solr's own error XML carries the message and stack trace under
		// <lst name="error">. A strict parse either finds them or we fall
		// back to the container-specific heuristics below.
		if msg, trace, ok := parseErrorXML(body); ok {
			if msg != "" {
				reason = msg
			}
			if trace != "" {
				detail = trace
				if reason == "" {
					reason = detail
				}
			}
			// A precise match on both short-circuits the container
			// heuristics; the detail keeps its original line structure.
			if reason != "" && detail != "" {
				return reason, detail
			}
		}
	}

	if serverType == flavorTomcat {
		if m := tomcatHeadingRE.FindStringSubmatch(body); m != nil {
			reason = m[1]
		} else {
			detail = body
		}
	} else {
		text, err := scrapeMarkup(serverType, body)
		switch {
		case err != nil:
			logger.Warn().Err(err).Msg("unable to extract error message from invalid markup")
			detail = body
		case text != "":
			reason = text
		case reason == "":
			detail = body
		}
	}

	return reason, normalizeDetail(detail)
}

func parseErrorXML(body string) (msg, trace string, ok bool) {
	var root xmlNode
	if err := xml.Unmarshal([]byte(body), &root); err != nil {
		return "", "", false
	}
	for _, lst := range root.children("lst", "error") {
		for _, node := range lst.children("str", "msg") {
			msg = strings.TrimSpace(node.Text)
		}
		for _, node := range lst.children("str", "trace") {
			trace = strings.TrimSpace(node.Text)
		}
	}
	return msg, trace, true
}

type xmlNode struct {
	XMLName xml.Name
	Attrs   []xml.Attr `xml:",any,attr"`
	Nodes   []xmlNode  `xml:",any"`
	Text    string     `xml:",chardata"`
}

func (n xmlNode) children(local, nameAttr string) []xmlNode {
	var out []xmlNode
	for _, c := range n.Nodes {
		if c.XMLName.Local != local {
			continue
		}
		for _, a := range c.Attrs {
			if a.Name.Local == "name" && a.Value == nameAttr {
				out = append(out, c)
				break
			}
		}
	}
	return out
}

// scrapeMarkup runs a lenient parse over a container error page and
// returns the text at the flavor's known location: Jetty puts the message
// in body/pre, others in head/title. An empty string means the page parsed
// but held no message; a non-nil error means the body was not markup at
// all.
func scrapeMarkup(serverType flavor, body string) (string, error) {
	target := []string{"head", "title"}
	if serverType == flavorJetty {
		target = []string{"body", "pre"}
	}

	dec := xml.NewDecoder(strings.NewReader(body))
	dec.Strict = false
	dec.AutoClose = xml.HTMLAutoClose
	dec.Entity = xml.HTMLEntity

	var stack []string
	var found string
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return found, nil
		}
		if err != nil {
			return "", err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			stack = append(stack, t.Name.Local)
		case xml.EndElement:
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		case xml.CharData:
			if found == "" && atPath(stack, target) {
				found = string(t)
			}
		}
	}
}

// atPath reports whether the element stack is exactly the document root
// followed by the target path.
func atPath(stack, target []string) bool {
	if len(stack) != len(target)+1 {
		return false
	}
	for i, name := range target {
		if stack[i+1] != name {
			return false
		}
	}
	return true
}

func normalizeDetail(s string) string {
	s = strings.ReplaceAll(s, "\n", "")
	s = strings.ReplaceAll(s, "\r", "")
	s = strings.ReplaceAll(s, "<br/>", "")
	s = strings.ReplaceAll(s, "<br />", "")
	return strings.TrimSpace(s)
}

// FormatMessage renders a Descriptor the way it appears inside a protocol
// error: the reason in brackets, with the detail appended on its own line
// only when no reason was found.
func FormatMessage(d Descriptor) string {
	if d.Reason == "" {
		return "[Reason: None]\n" + d.Detail
	}
	return "[Reason: " + d.Reason + "]"
}
