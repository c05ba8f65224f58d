// Package wire converts native Go values to and from the textual field
// representation Solr expects inside update messages and returns inside
// decoded query responses.
package wire

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

// timestampRE matches the strict subset of ISO-8601 Solr emits for date
// fields: 4-digit year, 2-digit components, optional fraction, literal Z.
var timestampRE = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})T(\d{2}):(\d{2}):(\d{2})(\.\d+)?Z$`)

// Date is a calendar date with no time component. On the wire it becomes
// midnight UTC, e.g. 2024-03-01T00:00:00Z.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02dT00:00:00Z", d.Year, d.Month, d.Day)
}

// IsNull reports whether a value should be omitted from an update message
// entirely. Only a nil value and a zero-length string are null; zero, false
// and empty sequences are real values.
func IsNull(v any) bool {
	if v == nil {
		return true
	}
	if s, ok := v.(string); ok && len(s) == 0 {
		return true
	}
	return false
}

// ToWire renders a native value as Solr field text. Timestamps become
// ISO-8601 with a trailing Z, booleans become "true"/"false", raw bytes are
// decoded with invalid sequences replaced, everything else takes its
// default string form. The result is filtered down to XML-valid runes.
func ToWire(v any) string {
	var s string
	switch t := v.(type) {
	case time.Time:
		s = formatTime(t)
	case Date:
		s = t.String()
	case bool:
		if t {
			s = "true"
		} else {
			s = "false"
		}
	case []byte:
		s = strings.ToValidUTF8(string(t), string(utf8.RuneError))
	default:
		s = fmt.Sprintf("%v", v)
	}
	return CleanString(s)
}

func formatTime(t time.Time) string {
	t = t.UTC()
	if t.Nanosecond() != 0 {
		return t.Format("2006-01-02T15:04:05.000000Z")
	}
	return t.Format("2006-01-02T15:04:05Z")
}

// FromWire converts a decoded response value back to a native one. Numbers
// pass through, sequences collapse to their first element, "true"/"false"
// become booleans, strings matching the strict timestamp pattern become
// time.Time. Anything else goes through a best-effort literal parse kept
// for compatibility with legacy string-typed indexes; schema-declared field
// typing should eventually replace it.
func FromWire(v any) any {
	switch t := v.(type) {
	case nil:
		return nil
	case bool, int, int32, int64, float32, float64, json.Number:
		return v
	case []any:
		if len(t) == 0 {
			return t
		}
		return FromWire(t[0])
	case []byte:
		return fromWireString(strings.ToValidUTF8(string(t), string(utf8.RuneError)))
	case string:
		return fromWireString(t)
	default:
		return v
	}
}

func fromWireString(s string) any {
	switch s {
	case "true":
		return true
	case "false":
		return false
	}

	if m := timestampRE.FindStringSubmatch(s); m != nil {
		year, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		day, _ := strconv.Atoi(m[3])
		hour, _ := strconv.Atoi(m[4])
		minute, _ := strconv.Atoi(m[5])
		second, _ := strconv.Atoi(m[6])
		return time.Date(year, time.Month(month), day, hour, minute, second, 0, time.UTC)
	}

	if v, ok := parseLiteral(s); ok {
		return v
	}
	return s
}

// parseLiteral is a small literal-structure parser covering numbers, None,
// True/False, quoted strings and (possibly nested) lists and tuples. It
// mirrors what a permissive eval of a stringified value would accept; on
// anything else it reports failure and the caller keeps the raw string.
func parseLiteral(s string) (any, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, false
	}

	switch s {
	case "None":
		return nil, true
	case "True":
		return true, true
	case "False":
		return false, true
	}

	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i, true
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f, true
	}

	if len(s) >= 2 {
		if (s[0] == '\'' && s[len(s)-1] == '\'') || (s[0] == '"' && s[len(s)-1] == '"') {
			inner := s[1 : len(s)-1]
			if !strings.ContainsRune(inner, rune(s[0])) {
				return inner, true
			}
			return nil, false
		}
		if (s[0] == '[' && s[len(s)-1] == ']') || (s[0] == '(' && s[len(s)-1] == ')') {
			return parseSequence(s[1 : len(s)-1])
		}
	}
	return nil, false
}

func parseSequence(body string) (any, bool) {
	body = strings.TrimSpace(body)
	if body == "" {
		return []any{}, true
	}
	// Trailing comma is legal in tuple syntax.
	body = strings.TrimSuffix(body, ",")

	out := []any{}
	for _, part := range splitTopLevel(body) {
		v, ok := parseLiteral(part)
		if !ok {
			return nil, false
		}
		out = append(out, v)
	}
	return out, true
}

// splitTopLevel splits on commas that are not inside brackets or quotes.
func splitTopLevel(s string) []string {
	var parts []string
	depth := 0
	var quote byte
	start := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '\'' || c == '"':
			quote = c
		case c == '[' || c == '(':
			depth++
		case c == ']' || c == ')':
			depth--
		case c == ',' && depth == 0:
			parts = append(parts, s[start:i])
			start = i + 1
		}
	}
	parts = append(parts, s[start:])
	return parts
}

// CleanString drops runes that are not legal in an XML document.
//
//	Char ::= #x9 | #xA | #xD | [#x20-#xD7FF] | [#xE000-#xFFFD] | [#x10000-#x10FFFF]
func CleanString(s string) string {
	return strings.Map(func(r rune) rune {
		if validXMLRune(r) {
			return r
		}
		return -1
	}, s)
}

func validXMLRune(r rune) bool {
	return 0x20 <= r && r <= 0xD7FF ||
		r == 0x9 || r == 0xA || r == 0xD ||
		0xE000 <= r && r <= 0xFFFD ||
		0x10000 <= r && r <= 0x10FFFF
}

// Sanitize strips the C0 control characters (except tab, LF and CR) from a
// complete update message. Solr rejects XML containing them.
func Sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 0x20 && r != 0x9 && r != 0xA && r != 0xD {
			return -1
		}
		return r
	}, s)
}
