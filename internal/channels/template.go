package channels

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ApplyTemplate replaces every ${key} in tmpl with data[key] and returns data
// plus the rendered text under "message". Unknown placeholders are left as-is.
func ApplyTemplate(tmpl string, data map[string]any) map[string]any {
	pairs := make([]string, 0, len(data)*2)
	for k, v := range data {
		pairs = append(pairs, "${"+k+"}", templateValue(v))
	}
	rendered := strings.NewReplacer(pairs...).Replace(tmpl)

	out := make(map[string]any, len(data)+1)
	for k, v := range data {
		out[k] = v
	}
	out["message"] = rendered
	return out
}

func templateValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case map[string]any, []any:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(b)
	default:
		return fmt.Sprint(t)
	}
}
