package structured

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/pfrederiksen/eventscrape/internal/document"
)

// jsonLD collects Event-typed objects from every JSON-LD block, including @graph
// members, item lists and nested subEvents. Blocks that fail to decode are skipped.
func (e *Extractor) jsonLD(doc *document.RawDocument) ([]candidate, int) {
	var (
		out       []candidate
		inspected int
	)
	doc.Doc.Find(`script[type="application/ld+json"], script[type="application/json+ld"]`).Each(func(_ int, s *goquery.Selection) {
		inspected++
		content := trimJSONWrapper(s.Text())
		if content == "" {
			return
		}
		var data any
		if err := json.Unmarshal([]byte(content), &data); err != nil {
			return
		}
		walkJSONLD(data, 0, func(obj map[string]any) {
			out = append(out, fromJSONLD(obj))
		})
	})
	return out, inspected
}

// trimJSONWrapper drops CDATA and HTML comment wrappers some CMSes emit
func trimJSONWrapper(s string) string {
	s = strings.TrimSpace(s)
	for _, pair := range [][2]string{{"<![CDATA[", "]]>"}, {"<!--", "-->"}, {"//<![CDATA[", "//]]>"}} {
		if strings.HasPrefix(s, pair[0]) && strings.HasSuffix(s, pair[1]) {
			s = strings.TrimSpace(s[len(pair[0]) : len(s)-len(pair[1])])
		}
	}
	return strings.TrimSuffix(s, ";")
}

const maxJSONDepth = 32

func walkJSONLD(v any, depth int, visit func(map[string]any)) {
	if depth > maxJSONDepth {
		return
	}
	switch val := v.(type) {
	case []any:
		for _, item := range val {
			walkJSONLD(item, depth+1, visit)
		}
	case map[string]any:
		if isEventType(val["@type"]) {
			visit(val)
		}
		for key, child := range val {
			switch key {
			case "@context", "location", "offers", "organizer", "performer", "image", "address":
				continue
			}
			walkJSONLD(child, depth+1, visit)
		}
	}
}

// isEventType matches "Event" and any schema.org subtype ending in Event
func isEventType(t any) bool {
	switch v := t.(type) {
	case string:
		name := v
		if i := strings.LastIndexAny(name, "/:#"); i >= 0 {
			name = name[i+1:]
		}
		return strings.HasSuffix(name, "Event")
	case []any:
		for _, item := range v {
			if isEventType(item) {
				return true
			}
		}
	}
	return false
}

func fromJSONLD(obj map[string]any) candidate {
	c := candidate{
		name:  str(obj["name"]),
		start: str(obj["startDate"]),
		end:   str(obj["endDate"]),
		url:   str(obj["url"]),
	}
	if c.name == "" {
		c.name = str(obj["headline"])
	}
	c.location, c.address = location(obj["location"])
	return c
}

// location maps a schema.org location: a plain string, a Place with a PostalAddress,
// a VirtualLocation, or a list of those (first wins).
func location(v any) (name, address string) {
	switch val := v.(type) {
	case string:
		return val, ""
	case []any:
		for _, item := range val {
			if n, a := location(item); n != "" || a != "" {
				return n, a
			}
		}
	case map[string]any:
		name = str(val["name"])
		address = postalAddress(val["address"])
		if isType(val["@type"], "VirtualLocation") && name == "" {
			name = "Online"
			if address == "" {
				address = str(val["url"])
			}
		}
		return name, address
	}
	return "", ""
}

func postalAddress(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case []any:
		if len(val) > 0 {
			return postalAddress(val[0])
		}
	case map[string]any:
		var parts []string
		for _, key := range []string{"streetAddress", "addressLocality", "addressRegion", "postalCode", "addressCountry"} {
			if s := strings.TrimSpace(str(val[key])); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ", ")
	}
	return ""
}

func isType(t any, want string) bool {
	switch v := t.(type) {
	case string:
		return strings.EqualFold(v, want) || strings.HasSuffix(v, "/"+want)
	case []any:
		for _, item := range v {
			if isType(item, want) {
				return true
			}
		}
	}
	return false
}

// str flattens a JSON-LD value to a string: strings as-is, the first element of a
// list, the name or @id of an object, numbers in their plain form.
func str(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case []any:
		for _, item := range val {
			if s := str(item); s != "" {
				return s
			}
		}
		return ""
	case map[string]any:
		for _, key := range []string{"name", "@value", "@id", "url"} {
			if s := str(val[key]); s != "" {
				return s
			}
		}
		return ""
	case float64:
		return fmt.Sprintf("%g", val)
	case bool:
		return ""
	}
	return ""
}
