package core

import (
	"context"
	"log/slog"
	"net/url"
	"strconv"
	"strings"

	"github.com/trackhub/trackhub/internal/youtrack"
)

const (
	projectFields    = "id,name,shortName,description,archived"
	projectFieldMeta = "id,field(name),canBeEmpty,emptyFieldText"
	userFields       = "id,login,fullName,email"
	defaultPageSize  = 50
	maxPageSize      = 500
)

// Service exposes every tracker operation behind the scope boundary. All
// project-scoped calls go through the resolver before any network I/O.
type Service struct {
	backend  Backend
	resolver *Resolver
	applier  *Applier
	workflow *CreationWorkflow
	logger   *slog.Logger
}

func NewService(backend Backend, resolver *Resolver, logger *slog.Logger) *Service {
	applier := NewApplier(backend, logger)
	return &Service{
		backend:  backend,
		resolver: resolver,
		applier:  applier,
		workflow: NewCreationWorkflow(backend, applier, logger),
		logger:   logger,
	}
}

// Scope exposes the resolver for collaborators that build their own scoped
// queries, such as the notification poller.
func (s *Service) Scope() *Resolver { return s.resolver }

// ListProjects returns the projects visible to the caller. With an enforced
// project configured the listing collapses to that single project: the scope
// boundary applies to reads as much as writes.
func (s *Service) ListProjects(ctx context.Context) ([]youtrack.Project, error) {
	if enforced := s.resolver.Enforced(); enforced != "" {
		p, err := s.fetchProject(ctx, enforced)
		if err != nil {
			return nil, err
		}
		return []youtrack.Project{*p}, nil
	}

	params := url.Values{
		"fields": {projectFields},
		"$top":   {strconv.Itoa(maxPageSize)},
	}
	var projects []youtrack.Project
	if err := s.backend.Get(ctx, "admin/projects", params, &projects); err != nil {
		return nil, err
	}
	return projects, nil
}

func (s *Service) GetProject(ctx context.Context, project string) (*youtrack.Project, error) {
	id, err := s.resolver.Resolve(project)
	if err != nil {
		return nil, err
	}
	return s.fetchProject(ctx, id)
}

func (s *Service) fetchProject(ctx context.Context, id string) (*youtrack.Project, error) {
	var p youtrack.Project
	params := url.Values{"fields": {projectFields}}
	if err := s.backend.Get(ctx, "admin/projects/"+url.PathEscape(id), params, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// ProjectFields lists the custom fields attached to the scoped project, with
// whether each may be left empty. Callers use this to learn which values a
// creation command may set.
func (s *Service) ProjectFields(ctx context.Context, project string) ([]youtrack.ProjectCustomField, error) {
	id, err := s.resolver.Resolve(project)
	if err != nil {
		return nil, err
	}
	params := url.Values{
		"fields": {projectFieldMeta},
		"$top":   {strconv.Itoa(maxPageSize)},
	}
	var fields []youtrack.ProjectCustomField
	if err := s.backend.Get(ctx, "admin/projects/"+url.PathEscape(id)+"/customFields", params, &fields); err != nil {
		return nil, err
	}
	return fields, nil
}

// Me returns the user the configured token authenticates as.
func (s *Service) Me(ctx context.Context) (*youtrack.User, error) {
	var u youtrack.User
	if err := s.backend.Get(ctx, "users/me", url.Values{"fields": {userFields}}, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *Service) SearchUsers(ctx context.Context, query string, top int) ([]youtrack.User, error) {
	params := url.Values{
		"fields": {userFields},
		"$top":   {strconv.Itoa(clampTop(top))},
	}
	if q := strings.TrimSpace(query); q != "" {
		params.Set("query", q)
	}
	var users []youtrack.User
	if err := s.backend.Get(ctx, "users", params, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// Ping verifies the backend is reachable and the token works. Used by the
// readiness probe.
func (s *Service) Ping(ctx context.Context) error {
	_, err := s.Me(ctx)
	return err
}

func clampTop(top int) int {
	if top <= 0 {
		return defaultPageSize
	}
	if top > maxPageSize {
		return maxPageSize
	}
	return top
}

// scopedQuery pins a free-text query to the enforced project when one is
// configured. In multi-project mode the query itself carries the scope and
// must not be empty.
func (s *Service) scopedQuery(query string) (string, error) {
	enforced := s.resolver.Enforced()
	if enforced == "" {
		if strings.TrimSpace(query) == "" {
			return "", &MissingScopeError{}
		}
		return query, nil
	}
	return s.resolver.RewriteQuery(query, enforced), nil
}
