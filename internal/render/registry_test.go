package render

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devilmonastery/procorepress/internal/procore"
)

func TestParseAttrs(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want Attrs
	}{
		{name: "double quoted", raw: ` id="123" field="start_date"`, want: Attrs{"id": "123", "field": "start_date"}},
		{name: "single quoted", raw: ` id='123'`, want: Attrs{"id": "123"}},
		{name: "bare", raw: ` id=123 limit=5`, want: Attrs{"id": "123", "limit": "5"}},
		{name: "upper case names", raw: ` ID="9"`, want: Attrs{"id": "9"}},
		{name: "empty value", raw: ` label=""`, want: Attrs{"label": ""}},
		{name: "spaces in value", raw: ` label="Kick off"`, want: Attrs{"label": "Kick off"}},
		{name: "none", raw: ``, want: Attrs{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseAttrs(tt.raw))
		})
	}
}

func newTestRegistry(t *testing.T) (*Registry, *fakeSource) {
	t.Helper()
	src := &fakeSource{project: procore.Object{"name": "Tower", "start_date": "2024-01-01"}}
	r, err := NewRenderer(src)
	require.NoError(t, err)
	return NewRegistry(r), src
}

func TestRegistryNames(t *testing.T) {
	reg, _ := newTestRegistry(t)
	assert.Equal(t, []string{
		"procore_drawings",
		"procore_featured_image",
		"procore_project",
		"procore_project_data",
		"procore_specifications",
		"procore_team",
	}, reg.Names())
}

func TestRegistryRender(t *testing.T) {
	reg, _ := newTestRegistry(t)

	out, ok := reg.Render(context.Background(), "procore_project_data", Attrs{"id": "1", "field": "start_date"})
	require.True(t, ok)
	assert.Contains(t, out, "2024-01-01")

	_, ok = reg.Render(context.Background(), "procore_unknown", nil)
	assert.False(t, ok)

	out, ok = reg.Render(context.Background(), "procore_project", nil)
	require.True(t, ok)
	assert.Contains(t, out, "Project ID is required")
}

func TestExpand(t *testing.T) {
	reg, src := newTestRegistry(t)
	ctx := context.Background()

	tests := []struct {
		name        string
		content     string
		contains    []string
		notContains []string
	}{
		{
			name:     "single tag",
			content:  `<p>Start: [procore_project_data id="1" field="start_date"]</p>`,
			contains: []string{"<p>Start: <div class=\"procore-project-data", "2024-01-01"},
		},
		{
			name:     "self closing",
			content:  `[procore_project id="1" /]`,
			contains: []string{"<h2>Tower</h2>"},
		},
		{
			name:     "unknown tag untouched",
			content:  `[gallery ids="1,2"] and [procore_nope id="1"]`,
			contains: []string{`[gallery ids="1,2"]`, `[procore_nope id="1"]`},
		},
		{
			name:        "escaped tag",
			content:     `Use [[procore_project id="1"]] to show a project`,
			contains:    []string{`Use [procore_project id="1"] to show`},
			notContains: []string{"<h2>"},
		},
		{
			name:     "multiple tags",
			content:  "[procore_project id=1]\n[procore_project_data id=1 field=start_date label=Start]",
			contains: []string{"<h2>Tower</h2>", "Start: </span>"},
		},
		{
			name:     "plain content",
			content:  "no shortcodes here [1]",
			contains: []string{"no shortcodes here [1]"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := reg.Expand(ctx, tt.content)
			for _, want := range tt.contains {
				assert.Contains(t, out, want)
			}
			for _, unwanted := range tt.notContains {
				assert.NotContains(t, out, unwanted)
			}
		})
	}

	assert.NotEmpty(t, src.companies)
}

func TestTemplateSet(t *testing.T) {
	ts, err := LoadTemplates()
	require.NoError(t, err)

	for _, name := range []string{"error", "notice", "procore_project", "procore_team", "procore_project_data"} {
		assert.True(t, ts.Has(name), name)
	}
	assert.Contains(t, ts.Names(), "procore_drawings")
	assert.NotContains(t, ts.Names(), "error.html")

	_, err = ts.String("missing", nil)
	assert.Error(t, err)
}

func TestFuncMapHelpers(t *testing.T) {
	funcs := funcMap()
	assert.Len(t, funcs, 2)

	describe, ok := funcs["description"].(func(bool, string) any)
	require.True(t, ok)
	assert.Equal(t, "plain *text*", describe(false, "plain *text*"))
	assert.Contains(t, describe(true, "*text*"), "<em>text</em>")

	fieldClass, ok := funcs["fieldClass"].(func(string) string)
	require.True(t, ok)
	assert.Equal(t, "procore-field-start-date", fieldClass("start_date"))
}
