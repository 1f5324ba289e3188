// Package frontmatter parses and serializes the YAML metadata block at the
// head of content files.
//
// Parsing accepts any valid YAML between the --- delimiters, so hand-edited
// files load fine. Serialization is hand-ordered: keys are written in the
// schema-defined order (yaml.v3 would sort them), strings are double-quoted,
// arrays use inline flow style, and empty values are omitted.
package frontmatter

import (
	"bytes"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const delim = "---"

// Parse separates the frontmatter block (between leading --- delimiters)
// from the Markdown body. If no frontmatter is found, or the block is not
// valid YAML, the entire content is treated as body.
func Parse(data []byte) (map[string]any, string) {
	trimmed := bytes.TrimLeft(data, "\n\r")

	if !bytes.HasPrefix(trimmed, []byte(delim)) {
		return nil, string(data)
	}

	rest := trimmed[len(delim):]
	idx := bytes.Index(rest, []byte("\n"+delim))
	if idx < 0 {
		return nil, string(data)
	}

	yamlBlock := rest[:idx]
	afterDelim := rest[idx+1+len(delim):]
	body := strings.TrimLeft(string(afterDelim), "\n\r")

	var fm map[string]any
	if err := yaml.Unmarshal(yamlBlock, &fm); err != nil {
		return nil, string(data)
	}

	return fm, body
}

// Serialize writes a frontmatter block with keys in the given order,
// followed by a blank line and the body. Keys absent from fm, and keys whose
// value is empty (nil, blank string, empty array), are omitted entirely.
// Keys present in fm but not in order (hand-edited or hook-added) are kept,
// written after the ordered keys in sorted order so rewrites stay stable.
func Serialize(order []string, fm map[string]any, body string) []byte {
	var b bytes.Buffer
	b.WriteString(delim + "\n")

	ordered := make(map[string]struct{}, len(order))
	for _, key := range order {
		ordered[key] = struct{}{}
		value, ok := fm[key]
		if !ok {
			continue
		}
		line, ok := formatValue(value)
		if !ok {
			continue
		}
		fmt.Fprintf(&b, "%s: %s\n", key, line)
	}

	var extras []string
	for key := range fm {
		if _, ok := ordered[key]; !ok {
			extras = append(extras, key)
		}
	}
	sort.Strings(extras)
	for _, key := range extras {
		if line, ok := formatValue(fm[key]); ok {
			fmt.Fprintf(&b, "%s: %s\n", key, line)
		}
	}

	b.WriteString(delim + "\n")
	if body != "" {
		b.WriteString("\n")
		b.WriteString(body)
		if !strings.HasSuffix(body, "\n") {
			b.WriteString("\n")
		}
	}
	return b.Bytes()
}

// formatValue renders a scalar or array value. ok=false means the value is
// empty and the key should be omitted.
func formatValue(value any) (string, bool) {
	switch v := value.(type) {
	case nil:
		return "", false
	case string:
		if v == "" {
			return "", false
		}
		return strconv.Quote(v), true
	case bool:
		return strconv.FormatBool(v), true
	case int:
		return strconv.Itoa(v), true
	case int64:
		return strconv.FormatInt(v, 10), true
	case float64:
		if v == float64(int64(v)) {
			return strconv.FormatInt(int64(v), 10), true
		}
		return strconv.FormatFloat(v, 'g', -1, 64), true
	case time.Time:
		return strconv.Quote(v.UTC().Format(time.RFC3339)), true
	case []string:
		if len(v) == 0 {
			return "", false
		}
		parts := make([]string, len(v))
		for i, s := range v {
			parts[i] = strconv.Quote(s)
		}
		return "[" + strings.Join(parts, ", ") + "]", true
	case []any:
		if len(v) == 0 {
			return "", false
		}
		parts := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := formatValue(item); ok {
				parts = append(parts, s)
			}
		}
		return "[" + strings.Join(parts, ", ") + "]", true
	default:
		return strconv.Quote(fmt.Sprintf("%v", v)), true
	}
}
