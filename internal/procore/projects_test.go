package procore

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetProject_UsesDefaultCompany(t *testing.T) {
	srv, reqs := newAPIServer(t, http.StatusOK, `{"id":123,"name":"Tower","active":true}`)
	c := newTestClient(srv.URL, "456", &staticTokens{token: "T"})

	project, err := c.GetProject(context.Background(), "123", "")
	require.NoError(t, err)
	assert.Equal(t, "/rest/v1.0/projects/123?company_id=456", (*reqs)[0].uri)
	assert.Equal(t, "Tower", project.String("name"))
	assert.Equal(t, "123", project.String("id"))
	assert.True(t, project.Bool("active"))
}

func TestGetProject_WrongShapeIsEmpty(t *testing.T) {
	srv, _ := newAPIServer(t, http.StatusOK, `[1,2,3]`)
	c := newTestClient(srv.URL, "", &staticTokens{token: "T"})

	project, err := c.GetProject(context.Background(), "1", "")
	require.NoError(t, err)
	assert.Empty(t, project)
}

func TestListEndpoints(t *testing.T) {
	tests := []struct {
		name    string
		call    func(c *Client) ([]Object, error)
		wantURI string
	}{
		{
			name:    "projects",
			call:    func(c *Client) ([]Object, error) { return c.GetProjects(context.Background(), "9") },
			wantURI: "/rest/v1.0/projects?company_id=9",
		},
		{
			name:    "team",
			call:    func(c *Client) ([]Object, error) { return c.GetProjectTeam(context.Background(), "5", "9") },
			wantURI: "/rest/v1.0/projects/5/users?company_id=9",
		},
		{
			name:    "drawings",
			call:    func(c *Client) ([]Object, error) { return c.GetProjectDrawings(context.Background(), "5", "9") },
			wantURI: "/rest/v1.0/projects/5/drawing_areas?company_id=9",
		},
		{
			name:    "specifications",
			call:    func(c *Client) ([]Object, error) { return c.GetProjectSpecifications(context.Background(), "5", "9") },
			wantURI: "/rest/v1.0/projects/5/specification_sections?company_id=9",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, reqs := newAPIServer(t, http.StatusOK, `[{"id":1,"name":"A"},"skip",{"id":2,"name":"B"}]`)
			c := newTestClient(srv.URL, "", &staticTokens{token: "T"})

			list, err := tt.call(c)
			require.NoError(t, err)
			assert.Equal(t, tt.wantURI, (*reqs)[0].uri)
			require.Len(t, list, 2)
			assert.Equal(t, "A", list[0].String("name"))
			assert.Equal(t, "B", list[1].String("name"))
		})
	}
}

func TestListEndpoints_ObjectPayloadIsEmpty(t *testing.T) {
	srv, _ := newAPIServer(t, http.StatusOK, `{"message":"weird"}`)
	c := newTestClient(srv.URL, "", &staticTokens{token: "T"})

	list, err := c.GetProjectTeam(context.Background(), "1", "")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestGetProjectImage(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{name: "logo present", body: `{"logo_url":"https://cdn.example/logo.png"}`, want: "https://cdn.example/logo.png"},
		{name: "logo absent", body: `{"name":"x"}`, want: ""},
		{name: "logo null", body: `{"logo_url":null}`, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newAPIServer(t, http.StatusOK, tt.body)
			c := newTestClient(srv.URL, "", &staticTokens{token: "T"})

			got, err := c.GetProjectImage(context.Background(), "1", "")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGetProjectImage_PropagatesError(t *testing.T) {
	srv, _ := newAPIServer(t, http.StatusNotFound, `{"message":"Not Found"}`)
	c := newTestClient(srv.URL, "", &staticTokens{token: "T"})

	_, err := c.GetProjectImage(context.Background(), "1", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
	assert.Contains(t, err.Error(), "Not Found")
}

func TestObjectAccessors(t *testing.T) {
	obj := Object{
		"name":   "Tower",
		"zero":   float64(0),
		"ratio":  1.5,
		"off":    false,
		"empty":  "",
		"strz":   "0",
		"list":   []any{},
		"null":   nil,
		"nested": map[string]any{"a": 1},
	}

	assert.Equal(t, "Tower", obj.String("name"))
	assert.Equal(t, "0", obj.String("zero"))
	assert.Equal(t, "1.5", obj.String("ratio"))
	assert.Equal(t, "false", obj.String("off"))
	assert.Equal(t, "", obj.String("nested"))

	assert.Equal(t, "N/A", obj.StringOr("missing", "N/A"))
	assert.Equal(t, "N/A", obj.StringOr("null", "N/A"))
	assert.Equal(t, "", obj.StringOr("empty", "N/A"))

	assert.False(t, obj.Bool("zero"))
	assert.False(t, obj.Bool("off"))
	assert.False(t, obj.Bool("empty"))
	assert.False(t, obj.Bool("strz"))
	assert.False(t, obj.Bool("list"))
	assert.False(t, obj.Bool("null"))
	assert.True(t, obj.Bool("name"))
	assert.True(t, obj.Bool("nested"))

	assert.True(t, obj.Has("zero"))
	assert.False(t, obj.Has("null"))
}

func TestCredentialsBaseURL(t *testing.T) {
	assert.Equal(t, DefaultAPIBaseURL, Credentials{}.BaseURL())
	assert.Equal(t, "https://sandbox.procore.com", Credentials{APIBaseURL: "https://sandbox.procore.com/"}.BaseURL())
}
