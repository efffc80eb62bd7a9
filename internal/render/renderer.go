// Package render turns Procore project data into the HTML fragments behind
// the procore_* shortcodes, and expands those shortcodes inside content.
package render

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/devilmonastery/procorepress/internal/pkg/logger"
	"github.com/devilmonastery/procorepress/internal/pkg/metrics"
	"github.com/devilmonastery/procorepress/internal/pkg/textutil"
	"github.com/devilmonastery/procorepress/internal/procore"
)

// ProjectSource fetches project data. *procore.Client implements it.
type ProjectSource interface {
	GetProject(ctx context.Context, projectID, companyID string) (procore.Object, error)
	GetProjectTeam(ctx context.Context, projectID, companyID string) ([]procore.Object, error)
	GetProjectDrawings(ctx context.Context, projectID, companyID string) ([]procore.Object, error)
	GetProjectSpecifications(ctx context.Context, projectID, companyID string) ([]procore.Object, error)
	GetProjectImage(ctx context.Context, projectID, companyID string) (string, error)
}

// Attrs are shortcode attributes, keyed by lower-case name
type Attrs map[string]string

// Get returns the attribute value or def when it is absent
func (a Attrs) Get(key, def string) string {
	if v, ok := a[key]; ok {
		return v
	}
	return def
}

// Renderer renders individual shortcodes
type Renderer struct {
	source    ProjectSource
	templates *TemplateSet
	markdown  bool
	log       *slog.Logger
}

// Option configures a Renderer
type Option func(*Renderer)

// WithMarkdownDescriptions renders drawing and specification descriptions as sanitized markdown
func WithMarkdownDescriptions(enabled bool) Option {
	return func(r *Renderer) {
		r.markdown = enabled
	}
}

// WithLogger sets the logger
func WithLogger(l *slog.Logger) Option {
	return func(r *Renderer) {
		if l != nil {
			r.log = l
		}
	}
}

// NewRenderer creates a renderer backed by source
func NewRenderer(source ProjectSource, opts ...Option) (*Renderer, error) {
	templates, err := LoadTemplates()
	if err != nil {
		return nil, err
	}
	r := &Renderer{
		source:    source,
		templates: templates,
		log:       slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.log = logger.WithComponent(r.log, "render")
	return r, nil
}

type projectView struct {
	Name           string
	Address        string
	City           string
	State          string
	Zip            string
	StartDate      string
	CompletionDate string
	Active         bool
}

type memberView struct {
	Name  string
	Email string
	Role  string
}

type drawingView struct {
	Name        string
	Description string
}

type specView struct {
	Number      string
	Title       string
	Description string
}

type listView[T any] struct {
	Items    []T
	Markdown bool
}

type imageView struct {
	URL    string
	Width  string
	Height string
}

type dataView struct {
	Field string
	Label string
	Value string
}

// Project renders [procore_project id="..."]
func (r *Renderer) Project(ctx context.Context, attrs Attrs) string {
	id := attrs.Get("id", "")
	if id == "" {
		return r.errorHTML("Project ID is required")
	}

	project, err := r.source.GetProject(ctx, id, attrs.Get("company_id", ""))
	if err != nil {
		return r.fetchError("procore_project", id, err)
	}

	return r.execute("procore_project", projectView{
		Name:           project.String("name"),
		Address:        project.String("address"),
		City:           project.String("city"),
		State:          project.String("state_code"),
		Zip:            project.String("zip"),
		StartDate:      project.StringOr("start_date", "N/A"),
		CompletionDate: project.StringOr("completion_date", "N/A"),
		Active:         project.Bool("active"),
	})
}

// Team renders [procore_team id="..."]
func (r *Renderer) Team(ctx context.Context, attrs Attrs) string {
	id := attrs.Get("id", "")
	if id == "" {
		return r.errorHTML("Project ID is required")
	}

	team, err := r.source.GetProjectTeam(ctx, id, attrs.Get("company_id", ""))
	if err != nil {
		return r.fetchError("procore_team", id, err)
	}
	if len(team) == 0 {
		return r.notice("No team members found for this project.")
	}

	members := make([]memberView, 0, len(team))
	for _, m := range team {
		members = append(members, memberView{
			Name:  m.String("name"),
			Email: m.String("email"),
			Role:  m.String("role"),
		})
	}
	return r.execute("procore_team", members)
}

// FeaturedImage renders [procore_featured_image id="..." width="300" height="auto"]
func (r *Renderer) FeaturedImage(ctx context.Context, attrs Attrs) string {
	id := attrs.Get("id", "")
	if id == "" {
		return r.errorHTML("Project ID is required")
	}

	url, err := r.source.GetProjectImage(ctx, id, attrs.Get("company_id", ""))
	if err != nil {
		return r.fetchError("procore_featured_image", id, err)
	}
	if url == "" {
		return r.notice("No featured image available for this project.")
	}

	return r.execute("procore_featured_image", imageView{
		URL:    url,
		Width:  attrs.Get("width", "300"),
		Height: attrs.Get("height", "auto"),
	})
}

// Drawings renders [procore_drawings id="..." limit="10"]
func (r *Renderer) Drawings(ctx context.Context, attrs Attrs) string {
	id := attrs.Get("id", "")
	if id == "" {
		return r.errorHTML("Project ID is required")
	}

	drawings, err := r.source.GetProjectDrawings(ctx, id, attrs.Get("company_id", ""))
	if err != nil {
		return r.fetchError("procore_drawings", id, err)
	}
	if len(drawings) == 0 {
		return r.notice("No drawings found for this project.")
	}

	drawings = limit(drawings, attrs.Get("limit", "10"))
	view := listView[drawingView]{Markdown: r.markdown}
	for _, d := range drawings {
		v := drawingView{Name: d.String("name")}
		if d.Bool("description") {
			v.Description = d.String("description")
		}
		view.Items = append(view.Items, v)
	}
	return r.execute("procore_drawings", view)
}

// Specifications renders [procore_specifications id="..." limit="10"]
func (r *Renderer) Specifications(ctx context.Context, attrs Attrs) string {
	id := attrs.Get("id", "")
	if id == "" {
		return r.errorHTML("Project ID is required")
	}

	specs, err := r.source.GetProjectSpecifications(ctx, id, attrs.Get("company_id", ""))
	if err != nil {
		return r.fetchError("procore_specifications", id, err)
	}
	if len(specs) == 0 {
		return r.notice("No specifications found for this project.")
	}

	specs = limit(specs, attrs.Get("limit", "10"))
	view := listView[specView]{Markdown: r.markdown}
	for _, s := range specs {
		v := specView{Number: s.String("number"), Title: s.String("title")}
		if s.Bool("description") {
			v.Description = s.String("description")
		}
		view.Items = append(view.Items, v)
	}
	return r.execute("procore_specifications", view)
}

// ProjectData renders [procore_project_data id="..." field="..." label="..."]
func (r *Renderer) ProjectData(ctx context.Context, attrs Attrs) string {
	id := attrs.Get("id", "")
	if id == "" {
		return r.errorHTML("Project ID is required")
	}
	field := attrs.Get("field", "")
	if field == "" {
		return r.errorHTML("Field name is required")
	}

	project, err := r.source.GetProject(ctx, id, attrs.Get("company_id", ""))
	if err != nil {
		return r.fetchError("procore_project_data", id, err)
	}

	raw, _ := project.Field(field)
	value, ok := FormatValue(raw)
	if !ok {
		return r.execute("no_field_data", field)
	}

	label := attrs.Get("label", "")
	if label == "" {
		label = textutil.HumanizeField(field)
	}
	return r.execute("procore_project_data", dataView{Field: field, Label: label, Value: value})
}

// FormatValue formats a project field for display. It reports false when the
// value counts as no data: absent, null, "", or an empty array or object.
func FormatValue(v any) (string, bool) {
	switch t := v.(type) {
	case nil:
		return "", false
	case string:
		return t, t != ""
	case bool:
		if t {
			return "Yes", true
		}
		return "No", true
	case []any:
		if len(t) == 0 {
			return "", false
		}
		parts := make([]string, 0, len(t))
		for _, item := range t {
			s, _ := FormatValue(item)
			parts = append(parts, s)
		}
		return strings.Join(parts, ", "), true
	case map[string]any:
		if len(t) == 0 {
			return "", false
		}
		data, err := json.Marshal(t)
		if err != nil {
			return "", false
		}
		return string(data), true
	default:
		return procore.FormatScalar(t), true
	}
}

// limit truncates items to the integer prefix of raw when it is positive
func limit(items []procore.Object, raw string) []procore.Object {
	n := leadingInt(raw)
	if n > 0 && len(items) > n {
		return items[:n]
	}
	return items
}

// leadingInt parses an optional sign and leading digits, ignoring the rest ("5px" is 5)
func leadingInt(s string) int {
	s = strings.TrimSpace(s)
	sign := 1
	if strings.HasPrefix(s, "-") || strings.HasPrefix(s, "+") {
		if s[0] == '-' {
			sign = -1
		}
		s = s[1:]
	}
	n := 0
	for _, c := range s {
		if c < '0' || c > '9' {
			break
		}
		n = n*10 + int(c-'0')
		if n > 1<<20 {
			break
		}
	}
	return sign * n
}

func (r *Renderer) execute(name string, data any) string {
	out, err := r.templates.String(name, data)
	if err != nil {
		r.log.Error("template execution failed", slog.String("template", name), slog.String("error", err.Error()))
		return r.errorHTML("failed to render " + name)
	}
	return out
}

func (r *Renderer) errorHTML(message string) string {
	out, err := r.templates.String("error", message)
	if err != nil {
		return `<p class="error">Error</p>`
	}
	return out
}

func (r *Renderer) notice(message string) string {
	return r.execute("notice", message)
}

func (r *Renderer) fetchError(shortcode, projectID string, err error) string {
	logger.WithProject(logger.WithShortcode(r.log, shortcode), projectID, "").Warn("shortcode fetch failed",
		slog.String("kind", procore.KindOf(err).String()),
		slog.String("error", err.Error()))
	return r.errorHTML(err.Error())
}

// timed wraps a shortcode func with render metrics
func timed(name string, fn ShortcodeFunc) ShortcodeFunc {
	return func(ctx context.Context, attrs Attrs) string {
		start := time.Now()
		out := fn(ctx, attrs)
		metrics.RecordShortcodeRender(name, time.Since(start), strings.HasPrefix(out, `<p class="error">`))
		return out
	}
}
