package transform

import (
	"encoding/json"
	"mime"
	"path"
	"strings"
	"time"
)

func asObject(v any) (map[string]any, bool) {
	obj, ok := v.(map[string]any)
	return obj, ok
}

func asArray(v any) []any {
	arr, _ := v.([]any)
	return arr
}

func stringField(obj map[string]any, keys ...string) string {
	for _, key := range keys {
		if s, ok := obj[key].(string); ok && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s)
		}
	}
	return ""
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

// unixField reads the first present epoch-seconds field.
func unixField(obj map[string]any, keys ...string) (time.Time, bool) {
	for _, key := range keys {
		if secs, ok := number(obj[key]); ok && secs > 0 {
			return time.Unix(int64(secs), 0).UTC(), true
		}
	}
	return time.Time{}, false
}

func unixMillisField(obj map[string]any, key string) (time.Time, bool) {
	if ms, ok := number(obj[key]); ok && ms > 0 {
		return time.UnixMilli(int64(ms)).UTC(), true
	}
	return time.Time{}, false
}

func (t *Transformer) contentType(uri string) (string, int64) {
	if t.catalog != nil {
		if size, ct, ok := t.catalog.LookupMedia(uri); ok {
			return ct, size
		}
	}
	ext := strings.ToLower(path.Ext(uri))
	if ct, ok := videoTypes[ext]; ok {
		return ct, 0
	}
	if ct := mime.TypeByExtension(ext); ct != "" {
		return ct, 0
	}
	return "application/octet-stream", 0
}

var videoTypes = map[string]string{
	".mp4":  "video/mp4",
	".m4v":  "video/x-m4v",
	".mov":  "video/quicktime",
	".webm": "video/webm",
	".avi":  "video/x-msvideo",
}

func mediaType(contentType string) string {
	if strings.HasPrefix(contentType, "video/") {
		return "video"
	}
	return "photo"
}
