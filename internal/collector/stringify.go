package collector

import (
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/bytedance/sonic"
)

// Stringifier renders a structured value, such as a header map, for display.
// A collector holds exactly one for its whole lifetime.
type Stringifier interface {
	Stringify(v any) string
}

// StringifierFunc adapts a plain function to Stringifier.
type StringifierFunc func(v any) string

// Stringify implements Stringifier.
func (f StringifierFunc) Stringify(v any) string { return f(v) }

// FlatStringifier renders values on a single line, maps as
// "[Key => value, ...]" with keys sorted. Single-element string lists are
// shown as their only element, which keeps header maps readable.
type FlatStringifier struct{}

// Stringify implements Stringifier.
func (FlatStringifier) Stringify(v any) string {
	var sb strings.Builder
	writeFlat(&sb, v)
	return sb.String()
}

func writeFlat(sb *strings.Builder, v any) {
	switch val := v.(type) {
	case nil:
		sb.WriteString("null")
	case string:
		sb.WriteString(val)
	case bool:
		sb.WriteString(strconv.FormatBool(val))
	case float64:
		sb.WriteString(strconv.FormatFloat(val, 'g', -1, 64))
	case int:
		sb.WriteString(strconv.Itoa(val))
	case http.Header:
		writeFlat(sb, map[string][]string(val))
	case map[string][]string:
		keys := sortedKeys(val)
		sb.WriteByte('[')
		for i, k := range keys {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(k)
			sb.WriteString(" => ")
			writeFlat(sb, val[k])
		}
		sb.WriteByte(']')
	case map[string]string:
		keys := sortedKeys(val)
		sb.WriteByte('[')
		for i, k := range keys {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(k)
			sb.WriteString(" => ")
			sb.WriteString(val[k])
		}
		sb.WriteByte(']')
	case map[string]any:
		keys := sortedKeys(val)
		sb.WriteByte('[')
		for i, k := range keys {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(k)
			sb.WriteString(" => ")
			writeFlat(sb, val[k])
		}
		sb.WriteByte(']')
	case []string:
		if len(val) == 1 {
			sb.WriteString(val[0])
			return
		}
		sb.WriteByte('[')
		sb.WriteString(strings.Join(val, ", "))
		sb.WriteByte(']')
	case []any:
		sb.WriteByte('[')
		for i, item := range val {
			if i > 0 {
				sb.WriteString(", ")
			}
			writeFlat(sb, item)
		}
		sb.WriteByte(']')
	default:
		fmt.Fprintf(sb, "%v", val)
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// DumpStringifier renders values as indented JSON, the richer form used by
// the profiler's expandable panels.
type DumpStringifier struct {
	Indent string
}

// Stringify implements Stringifier.
func (d DumpStringifier) Stringify(v any) string {
	indent := d.Indent
	if indent == "" {
		indent = "  "
	}
	out, err := sonic.ConfigStd.MarshalIndent(v, "", indent)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(out)
}

// Stringifier names accepted by StringifierByName.
const (
	StringifierFlat = "flat"
	StringifierDump = "dump"
)

// StringifierByName returns the stringifier selected in configuration.
func StringifierByName(name string) (Stringifier, error) {
	switch name {
	case StringifierFlat, "":
		return FlatStringifier{}, nil
	case StringifierDump:
		return DumpStringifier{}, nil
	default:
		return nil, fmt.Errorf("unknown stringifier %q", name)
	}
}
