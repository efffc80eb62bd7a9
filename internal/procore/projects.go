package procore

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/devilmonastery/procorepress/internal/pkg/urlutil"
)

const projectsEndpoint = "/rest/v1.0/projects"

func projectEndpoint(projectID, suffix string) string {
	return projectsEndpoint + "/" + urlutil.PathSegment(projectID) + suffix
}

// GetProject fetches a single project
func (c *Client) GetProject(ctx context.Context, projectID, companyID string) (Object, error) {
	payload, err := c.Request(ctx, projectEndpoint(projectID, ""), http.MethodGet, nil, companyID)
	if err != nil {
		return nil, err
	}
	return asObject(payload), nil
}

// GetProjects lists the projects visible to the company
func (c *Client) GetProjects(ctx context.Context, companyID string) ([]Object, error) {
	return c.getList(ctx, projectsEndpoint, companyID)
}

// GetProjectTeam lists the users on a project
func (c *Client) GetProjectTeam(ctx context.Context, projectID, companyID string) ([]Object, error) {
	return c.getList(ctx, projectEndpoint(projectID, "/users"), companyID)
}

// GetProjectDrawings lists a project's drawing areas
func (c *Client) GetProjectDrawings(ctx context.Context, projectID, companyID string) ([]Object, error) {
	return c.getList(ctx, projectEndpoint(projectID, "/drawing_areas"), companyID)
}

// GetProjectSpecifications lists a project's specification sections
func (c *Client) GetProjectSpecifications(ctx context.Context, projectID, companyID string) ([]Object, error) {
	return c.getList(ctx, projectEndpoint(projectID, "/specification_sections"), companyID)
}

// GetProjectImage returns the project's logo_url, or "" when the project has none.
func (c *Client) GetProjectImage(ctx context.Context, projectID, companyID string) (string, error) {
	project, err := c.GetProject(ctx, projectID, companyID)
	if err != nil {
		return "", err
	}
	return project.String("logo_url"), nil
}

func (c *Client) getList(ctx context.Context, endpoint, companyID string) ([]Object, error) {
	payload, err := c.Request(ctx, endpoint, http.MethodGet, nil, companyID)
	if err != nil {
		return nil, err
	}
	list := asList(payload)
	c.log.Debug("fetched list", slog.String("endpoint", endpoint), slog.Int("count", len(list)))
	return list, nil
}
