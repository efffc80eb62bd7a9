package textutil

import "testing"

func TestHumanizeField(t *testing.T) {
	tests := []struct {
		name  string
		field string
		want  string
	}{
		{name: "snake case", field: "start_date", want: "Start Date"},
		{name: "single word", field: "name", want: "Name"},
		{name: "already spaced", field: "project number", want: "Project Number"},
		{name: "hyphen kept", field: "logo-url", want: "Logo-url"},
		{name: "repeated underscores", field: "a__b", want: "A  B"},
		{name: "mixed case kept", field: "zip_codeValue", want: "Zip CodeValue"},
		{name: "leading underscore", field: "_id", want: " Id"},
		{name: "empty", field: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HumanizeField(tt.field); got != tt.want {
				t.Errorf("HumanizeField(%q) = %q, want %q", tt.field, got, tt.want)
			}
		})
	}
}

func TestFieldClass(t *testing.T) {
	tests := []struct {
		field string
		want  string
	}{
		{"start_date", "procore-field-start-date"},
		{"Project Number", "procore-field-project-number"},
		{"", "procore-field"},
	}

	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			if got := FieldClass(tt.field); got != tt.want {
				t.Errorf("FieldClass(%q) = %q, want %q", tt.field, got, tt.want)
			}
		})
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		s    string
		max  int
		want string
	}{
		{"short", 10, "short"},
		{"exactly ten", 11, "exactly ten"},
		{"a longer sentence", 10, "a longe..."},
		{"abcdef", 2, "ab"},
		{"anything", 0, "anything"},
	}

	for _, tt := range tests {
		t.Run(tt.s, func(t *testing.T) {
			if got := Truncate(tt.s, tt.max); got != tt.want {
				t.Errorf("Truncate(%q, %d) = %q, want %q", tt.s, tt.max, got, tt.want)
			}
		})
	}
}
