package proxy

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/sweetxhasan/TIKTOK-SAVER-PRO/internal/models"
)

// DownloadPath is the route that serves rewritten media links
const DownloadPath = "/api/proxy/download"

const defaultBaseFilename = "tiktok_video"

// mediaKeys are the object keys whose http(s) string values are media links
var mediaKeys = map[string]bool{
	"url":       true,
	"thumbnail": true,
	"avatar":    true,
	"cover":     true,
}

// Rewriter turns media URLs into links served by this service's media proxy
type Rewriter struct {
	origin string
}

// NewRewriter creates a rewriter for links rooted at origin, e.g.
// "https://example.com".
func NewRewriter(origin string) *Rewriter {
	return &Rewriter{origin: strings.TrimRight(origin, "/")}
}

// Rewrite returns a deep copy of a generic JSON tree (as produced by
// encoding/json) with every media link replaced by a proxy link. The input
// is not modified. Applying it twice encodes the links twice.
func (r *Rewriter) Rewrite(tree any) any {
	base := defaultBaseFilename
	if root, ok := tree.(map[string]any); ok {
		if f, ok := root["filename"].(string); ok && f != "" {
			base = f
		}
	}
	return r.walk(tree, base, "")
}

// RewriteResult applies Rewrite to a MediaResult
func (r *Rewriter) RewriteResult(m *models.MediaResult) (*models.MediaResult, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("failed to encode media result: %w", err)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var tree any
	if err := dec.Decode(&tree); err != nil {
		return nil, fmt.Errorf("failed to decode media result: %w", err)
	}

	data, err = json.Marshal(r.Rewrite(tree))
	if err != nil {
		return nil, fmt.Errorf("failed to encode rewritten result: %w", err)
	}
	var out models.MediaResult
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("failed to decode rewritten result: %w", err)
	}
	return &out, nil
}

// walk copies node. parent is the key under which node was found.
func (r *Rewriter) walk(node any, base, parent string) any {
	switch v := node.(type) {
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, child := range v {
			if s, ok := child.(string); ok && mediaKeys[k] && isHTTPURL(s) {
				out[k] = r.link(s, base+"_"+label(v, k, parent))
				continue
			}
			out[k] = r.walk(child, base, k)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, child := range v {
			out[i] = r.walk(child, base, parent)
		}
		return out
	default:
		return v
	}
}

// label names the link for the download filename: the entry type
// ("hd", "audio"), "image_<id>" for photo entries, the parent key for a
// bare "url" and the key itself otherwise.
func label(obj map[string]any, key, parent string) string {
	if t, ok := obj["type"].(string); ok && t != "" {
		return t
	}
	if parent == "images" {
		if id, ok := numberString(obj["id"]); ok {
			return "image_" + id
		}
	}
	if key == "url" && parent != "" {
		return parent
	}
	return key
}

func numberString(v any) (string, bool) {
	switch n := v.(type) {
	case json.Number:
		return n.String(), true
	case float64:
		return fmt.Sprintf("%d", int64(n)), true
	case int:
		return fmt.Sprintf("%d", n), true
	default:
		return "", false
	}
}

func (r *Rewriter) link(raw, filename string) string {
	return r.origin + DownloadPath + "?url=" + url.QueryEscape(raw) + "&filename=" + url.QueryEscape(filename)
}

func isHTTPURL(s string) bool {
	lower := strings.ToLower(s)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}
