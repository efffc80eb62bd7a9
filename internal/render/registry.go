package render

import (
	"context"
	"regexp"
	"sort"
	"strings"
)

// ShortcodeFunc renders one shortcode occurrence to HTML
type ShortcodeFunc func(ctx context.Context, attrs Attrs) string

// Registry maps shortcode names to their render functions
type Registry struct {
	handlers map[string]ShortcodeFunc
}

// NewRegistry registers every procore_* shortcode served by r
func NewRegistry(r *Renderer) *Registry {
	reg := &Registry{handlers: make(map[string]ShortcodeFunc)}
	reg.Register("procore_project", r.Project)
	reg.Register("procore_team", r.Team)
	reg.Register("procore_featured_image", r.FeaturedImage)
	reg.Register("procore_drawings", r.Drawings)
	reg.Register("procore_specifications", r.Specifications)
	reg.Register("procore_project_data", r.ProjectData)
	return reg
}

// Register adds or replaces a shortcode
func (reg *Registry) Register(name string, fn ShortcodeFunc) {
	reg.handlers[name] = timed(name, fn)
}

// Has reports whether name is registered
func (reg *Registry) Has(name string) bool {
	_, ok := reg.handlers[name]
	return ok
}

// Names returns the registered shortcode names, sorted
func (reg *Registry) Names() []string {
	names := make([]string, 0, len(reg.handlers))
	for name := range reg.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Render renders a single shortcode. ok is false when name is not registered.
func (reg *Registry) Render(ctx context.Context, name string, attrs Attrs) (html string, ok bool) {
	fn, ok := reg.handlers[name]
	if !ok {
		return "", false
	}
	if attrs == nil {
		attrs = Attrs{}
	}
	return fn(ctx, attrs), true
}

// shortcodeRegex matches [name attrs] and [name attrs /]. A doubled bracket
// ([[name]]) is an escaped tag and is captured so it can be unwrapped.
var shortcodeRegex = regexp.MustCompile(`(\[?)\[([A-Za-z0-9_-]+)((?:\s[^\]]*?)?)\s*/?\](\]?)`)

// attrRegex matches name="value", name='value' and name=value
var attrRegex = regexp.MustCompile(`([\w-]+)\s*=\s*(?:"([^"]*)"|'([^']*)'|([^\s"']+))`)

// Expand replaces every registered shortcode in content with its rendered HTML.
// Unregistered tags are left as they are; [[tag]] renders as the literal [tag].
func (reg *Registry) Expand(ctx context.Context, content string) string {
	return shortcodeRegex.ReplaceAllStringFunc(content, func(match string) string {
		m := shortcodeRegex.FindStringSubmatch(match)
		open, name, rawAttrs, close := m[1], m[2], m[3], m[4]

		if !reg.Has(name) {
			return match
		}
		if open == "[" && close == "]" {
			return match[1 : len(match)-1]
		}

		html, _ := reg.Render(ctx, name, ParseAttrs(rawAttrs))
		return open + html + close
	})
}

// ParseAttrs parses a shortcode attribute string. Names are lower-cased.
func ParseAttrs(raw string) Attrs {
	attrs := Attrs{}
	for _, m := range attrRegex.FindAllStringSubmatch(raw, -1) {
		name := strings.ToLower(m[1])
		switch {
		case m[2] != "" || strings.Contains(m[0], `"`):
			attrs[name] = m[2]
		case m[3] != "" || strings.Contains(m[0], `'`):
			attrs[name] = m[3]
		default:
			attrs[name] = m[4]
		}
	}
	return attrs
}
