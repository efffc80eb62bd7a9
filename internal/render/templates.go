package render

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"sort"
	"strings"

	"github.com/devilmonastery/procorepress/internal/pkg/textutil"
)

//go:embed templates/*.html
var templateFS embed.FS

// TemplateSet holds the parsed shortcode templates.
// Each shortcode is a named {{define}} block in templates/.
type TemplateSet struct {
	tmpl *template.Template
}

// Execute renders the named template
func (ts *TemplateSet) Execute(w io.Writer, name string, data any) error {
	if !ts.Has(name) {
		return fmt.Errorf("template %q not found", name)
	}
	return ts.tmpl.ExecuteTemplate(w, name, data)
}

// String renders the named template to a string
func (ts *TemplateSet) String(name string, data any) (string, error) {
	var b strings.Builder
	if err := ts.Execute(&b, name, data); err != nil {
		return "", err
	}
	return b.String(), nil
}

// Has checks if a template exists
func (ts *TemplateSet) Has(name string) bool {
	return ts.tmpl.Lookup(name) != nil
}

// Names returns all defined template names, sorted
func (ts *TemplateSet) Names() []string {
	var names []string
	for _, t := range ts.tmpl.Templates() {
		if t.Name() == ts.tmpl.Name() || strings.HasSuffix(t.Name(), ".html") {
			continue
		}
		names = append(names, t.Name())
	}
	sort.Strings(names)
	return names
}

func funcMap() template.FuncMap {
	return template.FuncMap{
		"description": func(markdown bool, text string) any {
			if markdown {
				return Markdown(text)
			}
			return text
		},
		"fieldClass": textutil.FieldClass,
	}
}

// LoadTemplates parses the embedded shortcode templates
func LoadTemplates() (*TemplateSet, error) {
	tmpl, err := template.New("shortcodes").Funcs(funcMap()).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse shortcode templates: %w", err)
	}
	return &TemplateSet{tmpl: tmpl}, nil
}
