package corpusfs

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/flowdex/internal/domain/document"
)

// Field aliases accepted in record files, in lookup order.
var (
	titleKeys    = []string{"title", "name"}
	serviceKeys  = []string{"services", "integrations", "nodes"}
	keywordKeys  = []string{"keywords", "tags"}
	actionKeys   = []string{"actions", "steps"}
	idKeys       = []string{"id", "workflow_id"}
	describeKeys = []string{"description", "summary"}
)

// toRaw maps a decoded record object onto a document.Raw.
func toRaw(obj map[string]any) document.Raw {
	return document.Raw{
		SourceID:    scalar(lookup(obj, idKeys)),
		Title:       scalar(lookup(obj, titleKeys)),
		Description: scalar(lookup(obj, describeKeys)),
		Services:    list(lookup(obj, serviceKeys)),
		Actions:     list(lookup(obj, actionKeys)),
		Keywords:    list(lookup(obj, keywordKeys)),
		Complexity:  scalar(obj["complexity"]),
	}
}

func lookup(obj map[string]any, keys []string) any {
	for _, k := range keys {
		if v, ok := obj[k]; ok && v != nil {
			return v
		}
	}
	return nil
}

func scalar(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case float64, int, int64, bool:
		return fmt.Sprint(t)
	default:
		return ""
	}
}

// list accepts a sequence, a comma-separated string or a single object.
// Objects contribute their name (or type) field, e.g. n8n nodes.
func list(v any) []string {
	switch t := v.(type) {
	case nil:
		return nil
	case string:
		var out []string
		for _, part := range strings.Split(t, ",") {
			if s := strings.TrimSpace(part); s != "" {
				out = append(out, s)
			}
		}
		return out
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			if s := itemName(item); s != "" {
				out = append(out, s)
			}
		}
		return out
	case map[string]any:
		if s := itemName(t); s != "" {
			return []string{s}
		}
		return nil
	default:
		if s := scalar(t); s != "" {
			return []string{s}
		}
		return nil
	}
}

func itemName(item any) string {
	if obj, ok := item.(map[string]any); ok {
		if s := scalar(obj["name"]); s != "" {
			return s
		}
		return scalar(obj["type"])
	}
	return scalar(item)
}
