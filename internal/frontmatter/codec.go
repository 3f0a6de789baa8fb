// Package frontmatter converts between a persisted document (a delimited
// YAML metadata block followed by body text) and its (metadata, body) pair.
package frontmatter

import (
	"errors"
	"fmt"
	"reflect"
	"slices"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Delimiter bounds the metadata block above and below.
const Delimiter = "---"

// ErrUnterminated is reported when the opening delimiter has no partner.
var ErrUnterminated = errors.New("frontmatter: missing closing delimiter")

// Metadata is the decoded metadata block. Values carry the types yaml.v3
// decodes into: int, float64, bool, string, []any and map[string]any.
// Serialize also accepts typed slices and maps; Normalize shows what Parse
// will return for them.
type Metadata map[string]any

// Normalize returns a copy of meta with every value converted to the types
// Parse produces, so that Parse(Serialize(body, meta)).Metadata equals
// Normalize(meta).
func Normalize(meta Metadata) Metadata {
	out := make(Metadata, len(meta))
	for k, v := range meta {
		out[k] = normalizeValue(reflect.ValueOf(v))
	}
	return out
}

func normalizeValue(v reflect.Value) any {
	if !v.IsValid() {
		return nil
	}
	switch v.Kind() {
	case reflect.Interface, reflect.Pointer:
		if v.IsNil() {
			return nil
		}
		return normalizeValue(v.Elem())
	case reflect.Slice, reflect.Array:
		if v.Kind() == reflect.Slice && v.IsNil() {
			return nil
		}
		out := make([]any, v.Len())
		for i := range out {
			out[i] = normalizeValue(v.Index(i))
		}
		return out
	case reflect.Map:
		if v.IsNil() {
			return nil
		}
		out := make(map[string]any, v.Len())
		iter := v.MapRange()
		for iter.Next() {
			out[fmt.Sprint(iter.Key().Interface())] = normalizeValue(iter.Value())
		}
		return out
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return int(v.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return int(v.Uint())
	case reflect.Float32, reflect.Float64:
		return v.Float()
	case reflect.Bool:
		return v.Bool()
	case reflect.String:
		return v.String()
	}
	return v.Interface()
}

// Result holds the output of Parse.
type Result struct {
	Metadata Metadata
	Body     string
	// HasBlock is true when a well-formed metadata block was found.
	HasBlock bool
	// Err describes a malformed block. Parsing still succeeds: Metadata is
	// empty and Body holds the whole input.
	Err error
}

// keyOrder fixes the position of recognised chapter keys; other keys follow
// alphabetically.
var keyOrder = []string{"order", "title", "tags", "characters", "location"}

// Parse splits raw into metadata and body. A missing or malformed block is
// never fatal: the metadata is empty and the body is the entire input.
func Parse(raw string) Result {
	block, body, found, err := split(raw)
	if !found {
		return Result{Metadata: Metadata{}, Body: raw, Err: err}
	}

	var fm map[string]any
	if err := yaml.Unmarshal([]byte(block), &fm); err != nil {
		return Result{Metadata: Metadata{}, Body: raw, Err: fmt.Errorf("frontmatter: %w", err)}
	}
	if fm == nil {
		fm = map[string]any{}
	}
	return Result{Metadata: fm, Body: body, HasBlock: true}
}

// split locates the block between an opening delimiter on the first line and
// the next line consisting of the delimiter alone. One blank line after the
// closing delimiter belongs to the envelope, not the body.
func split(raw string) (block, body string, found bool, err error) {
	open := Delimiter + "\n"
	if !strings.HasPrefix(raw, open) {
		return "", "", false, nil
	}
	rest := raw[len(open):]

	var after string
	switch {
	case rest == Delimiter:
		after = ""
	case strings.HasPrefix(rest, open):
		after = rest[len(open):]
	default:
		closeAt := -1
		for from := 0; ; {
			i := strings.Index(rest[from:], "\n"+Delimiter)
			if i < 0 {
				break
			}
			i += from
			end := i + 1 + len(Delimiter)
			if end == len(rest) || rest[end] == '\n' {
				closeAt = i
				break
			}
			from = i + 1
		}
		if closeAt < 0 {
			return "", "", false, ErrUnterminated
		}
		block = rest[:closeAt]
		after = rest[closeAt+1+len(Delimiter):]
		after = strings.TrimPrefix(after, "\n")
	}
	return block, strings.TrimPrefix(after, "\n"), true, nil
}

// Serialize renders body under a metadata block so that Parse returns meta
// and body unchanged. Lists are written in flow style and strings are
// double-quoted.
func Serialize(body string, meta Metadata) (string, error) {
	var sb strings.Builder
	sb.WriteString(Delimiter + "\n")
	if len(meta) > 0 {
		doc := &yaml.Node{Kind: yaml.MappingNode}
		norm := Normalize(meta)
		for _, k := range orderedKeys(norm) {
			var v yaml.Node
			if err := v.Encode(norm[k]); err != nil {
				return "", fmt.Errorf("frontmatter: encode %q: %w", k, err)
			}
			styleValue(&v)
			doc.Content = append(doc.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: k}, &v)
		}
		out, err := yaml.Marshal(doc)
		if err != nil {
			return "", fmt.Errorf("frontmatter: marshal: %w", err)
		}
		sb.Write(out)
	}
	sb.WriteString(Delimiter + "\n\n")
	sb.WriteString(body)
	return sb.String(), nil
}

func orderedKeys(meta Metadata) []string {
	keys := make([]string, 0, len(meta))
	var rest []string
	for _, k := range keyOrder {
		if _, ok := meta[k]; ok {
			keys = append(keys, k)
		}
	}
	for k := range meta {
		if !slices.Contains(keyOrder, k) {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	return append(keys, rest...)
}

func styleValue(n *yaml.Node) {
	switch n.Kind {
	case yaml.SequenceNode:
		n.Style = yaml.FlowStyle
	case yaml.ScalarNode:
		if n.Tag == "!!str" {
			n.Style = yaml.DoubleQuotedStyle
		}
	}
	for _, c := range n.Content {
		styleValue(c)
	}
}
