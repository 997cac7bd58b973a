package core

import (
	"log/slog"
	"regexp"
	"strings"

	"github.com/trackhub/trackhub/internal/telemetry"
)

// ScopeConfig restricts project-scoped operations to one configured project,
// regardless of caller-supplied identifiers. Loaded once at startup and
// immutable thereafter.
type ScopeConfig struct {
	// EnforcedProject pins every call to this project. Empty means
	// multi-project mode: each call must name its project explicitly.
	EnforcedProject string
	// Strict rejects calls naming a different project instead of silently
	// substituting the enforced one.
	Strict bool
}

// Resolver decides, per call, which project identifier is authoritative.
type Resolver struct {
	cfg    ScopeConfig
	logger *slog.Logger
}

func NewResolver(cfg ScopeConfig, logger *slog.Logger) *Resolver {
	cfg.EnforcedProject = strings.TrimSpace(cfg.EnforcedProject)
	return &Resolver{cfg: cfg, logger: logger}
}

// Enforced returns the pinned project id, or empty in multi-project mode.
func (r *Resolver) Enforced() string { return r.cfg.EnforcedProject }

// Resolve picks the authoritative project for one call. With an enforced
// project configured it always wins; a differing caller value is a scope
// violation (logged, or rejected in strict mode). Without one, the caller
// must name a project.
func (r *Resolver) Resolve(provided string) (string, error) {
	return r.ResolveOverride(provided, false)
}

// ResolveOverride is Resolve with an explicit acknowledgement flag: when
// allowOverride is true a differing caller value is not treated as a
// violation. The enforced project still wins either way.
func (r *Resolver) ResolveOverride(provided string, allowOverride bool) (string, error) {
	provided = strings.TrimSpace(provided)

	if r.cfg.EnforcedProject == "" {
		if provided == "" {
			return "", &MissingScopeError{}
		}
		return provided, nil
	}

	if provided != "" && !strings.EqualFold(provided, r.cfg.EnforcedProject) && !allowOverride {
		if r.cfg.Strict {
			telemetry.IncScopeViolation()
			return "", &ScopeViolationError{Provided: provided, Enforced: r.cfg.EnforcedProject}
		}
		telemetry.IncScopeSubstitution()
		r.logger.Warn("attempted scope violation, substituting enforced project",
			"provided", provided,
			"enforced", r.cfg.EnforcedProject)
	}
	return r.cfg.EnforcedProject, nil
}

var projectClauseRe = regexp.MustCompile(`(?i)project:\s*(\{[^}]*\}|[^\s{]+)`)

// RewriteQuery pins a free-text search query to the resolved project. An
// existing project clause is rewritten — free text must not smuggle a
// different project past the resolver — and a missing one is prepended.
func (r *Resolver) RewriteQuery(query, project string) string {
	project = strings.TrimSpace(project)
	if project == "" {
		return query
	}
	clause := "project: " + projectClauseValue(project)

	if matches := projectClauseRe.FindStringSubmatch(query); matches != nil {
		existing := strings.TrimSpace(strings.Trim(matches[1], "{}"))
		if !strings.EqualFold(existing, project) {
			r.logger.Warn("project filter in query rewritten to resolved project",
				"found", existing,
				"project", project)
		}
		return projectClauseRe.ReplaceAllLiteralString(query, clause)
	}

	query = strings.TrimSpace(query)
	if query == "" {
		return clause
	}
	return clause + " " + query
}

// projectClauseValue braces a project containing spaces so the query parser
// treats it as one value.
func projectClauseValue(project string) string {
	if strings.ContainsAny(project, " \t") {
		return "{" + project + "}"
	}
	return project
}
