package core

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/trackhub/trackhub/internal/youtrack"
)

const (
	issueFields = "id,idReadable,summary,description,project(id,name,shortName)," +
		"reporter(id,login,fullName),created,updated,resolved," +
		"customFields(id,name,value(name,login,fullName,presentation,minutes)),tags(id,name)"
	issueListFields = "id,idReadable,summary,project(id,shortName),reporter(login)," +
		"created,updated,resolved,customFields(name,value(name,login,fullName,presentation,minutes))"
	commentFields  = "id,text,author(id,login,fullName),created"
	linkTypeFields = "id,name,sourceToTarget,targetToSource"
)

// DefaultLinkType connects two issues when the caller does not name a
// direction.
const DefaultLinkType = "relates to"

// UpdateResult reports what an update actually changed. Command failures are
// isolated per field and surfaced here as metadata, never as a failed call.
type UpdateResult struct {
	Issue           *youtrack.Issue `json:"issue,omitempty"`
	AppliedCommands int             `json:"appliedCommands"`
	CommandErrors   []string        `json:"commandErrors,omitempty"`
	WriteErrors     []string        `json:"writeErrors,omitempty"`
}

// CreateIssue resolves the project scope, validates the request, and runs the
// draft-submit workflow.
func (s *Service) CreateIssue(ctx context.Context, req CreateIssueRequest) (*CreateResult, error) {
	project, err := s.resolver.Resolve(req.Project)
	if err != nil {
		return nil, err
	}
	req.Project = project
	if err := ValidateCreateIssue(req); err != nil {
		return nil, err
	}
	return s.workflow.Create(ctx, req)
}

func (s *Service) GetIssue(ctx context.Context, issueID string) (*youtrack.Issue, error) {
	issueID = strings.TrimSpace(issueID)
	if issueID == "" {
		return nil, &ValidationError{Field: "issueId", Reason: "is required"}
	}
	var issue youtrack.Issue
	params := url.Values{"fields": {issueFields}}
	if err := s.backend.Get(ctx, "issues/"+url.PathEscape(issueID), params, &issue); err != nil {
		return nil, err
	}
	return &issue, nil
}

// UpdateIssue applies each synthesized command in its own call so one bad
// enum value cannot block the rest. Summary, description, and tags go through
// direct writes, isolated the same way. The issue is re-fetched afterwards
// for the authoritative state.
func (s *Service) UpdateIssue(ctx context.Context, issueID string, req UpdateIssueRequest) (*UpdateResult, error) {
	issueID = strings.TrimSpace(issueID)
	if issueID == "" {
		return nil, &ValidationError{Field: "issueId", Reason: "is required"}
	}
	if err := ValidateUpdateIssue(req); err != nil {
		return nil, err
	}

	result := &UpdateResult{}
	writesApplied := 0

	if req.Summary != "" || req.Description != "" {
		body := map[string]any{}
		if req.Summary != "" {
			body["summary"] = strings.TrimSpace(req.Summary)
		}
		if req.Description != "" {
			body["description"] = SanitizeDescription(req.Description)
		}
		if err := s.backend.Post(ctx, "issues/"+url.PathEscape(issueID), body, nil); err != nil {
			result.WriteErrors = append(result.WriteErrors, fmt.Sprintf("text fields: %v", err))
		} else {
			writesApplied++
		}
	}

	cmdResults := s.applier.ApplyEach(ctx, issueID, SynthesizeUpdate(req))
	result.AppliedCommands = len(cmdResults)
	commandsSucceeded := 0
	for _, cr := range cmdResults {
		if cr.Succeeded {
			commandsSucceeded++
			continue
		}
		// cr.Error is already "<command>: <message>".
		result.CommandErrors = append(result.CommandErrors, cr.Error)
	}

	for _, tag := range req.Tags {
		if err := s.backend.Post(ctx, "issues/"+url.PathEscape(issueID)+"/tags", map[string]string{"name": tag}, nil); err != nil {
			result.WriteErrors = append(result.WriteErrors, fmt.Sprintf("tag %q: %v", tag, err))
		} else {
			writesApplied++
		}
	}

	issue, err := s.GetIssue(ctx, issueID)
	if err != nil {
		// Nothing landed and the issue cannot be read back: the id itself is
		// the problem, so surface that instead of an empty success.
		if commandsSucceeded == 0 && writesApplied == 0 {
			return nil, err
		}
		s.logger.Warn("issue re-fetch after update failed", "issue", issueID, "err", err)
	} else {
		result.Issue = issue
	}
	return result, nil
}

func (s *Service) DeleteIssue(ctx context.Context, issueID string) error {
	issueID = strings.TrimSpace(issueID)
	if issueID == "" {
		return &ValidationError{Field: "issueId", Reason: "is required"}
	}
	return s.backend.Delete(ctx, "issues/"+url.PathEscape(issueID))
}

func (s *Service) AddComment(ctx context.Context, issueID, text string) (*youtrack.Comment, error) {
	issueID = strings.TrimSpace(issueID)
	if issueID == "" {
		return nil, &ValidationError{Field: "issueId", Reason: "is required"}
	}
	if err := ValidateComment(text); err != nil {
		return nil, err
	}
	var comment youtrack.Comment
	path := "issues/" + url.PathEscape(issueID) + "/comments?fields=" + url.QueryEscape(commentFields)
	if err := s.backend.Post(ctx, path, map[string]string{"text": text}, &comment); err != nil {
		return nil, err
	}
	return &comment, nil
}

func (s *Service) ListComments(ctx context.Context, issueID string, top int) ([]youtrack.Comment, error) {
	issueID = strings.TrimSpace(issueID)
	if issueID == "" {
		return nil, &ValidationError{Field: "issueId", Reason: "is required"}
	}
	params := url.Values{
		"fields": {commentFields},
		"$top":   {strconv.Itoa(clampTop(top))},
	}
	var comments []youtrack.Comment
	if err := s.backend.Get(ctx, "issues/"+url.PathEscape(issueID)+"/comments", params, &comments); err != nil {
		return nil, err
	}
	return comments, nil
}

// LinkIssues connects two issues with a directed link command. The link type
// is matched against the server's link-type metadata so callers may use
// either the type name or a directed phrase.
func (s *Service) LinkIssues(ctx context.Context, issueID, targetID, linkType string) error {
	issueID = strings.TrimSpace(issueID)
	targetID = strings.TrimSpace(targetID)
	if issueID == "" {
		return &ValidationError{Field: "issueId", Reason: "is required"}
	}
	if targetID == "" {
		return &ValidationError{Field: "targetId", Reason: "is required"}
	}
	linkType = strings.TrimSpace(linkType)
	if linkType == "" {
		linkType = DefaultLinkType
	}
	return s.applier.Apply(ctx, issueID, PhraseCommand(s.linkPhrase(ctx, linkType)+" "+targetID))
}

// linkPhrase maps a caller-supplied link type onto a phrase the command
// parser accepts. Unknown values pass through unchanged so the command
// endpoint produces the authoritative error.
func (s *Service) linkPhrase(ctx context.Context, linkType string) string {
	var types []youtrack.IssueLinkType
	if err := s.backend.Get(ctx, "issueLinkTypes", url.Values{"fields": {linkTypeFields}}, &types); err != nil {
		s.logger.Debug("link type lookup failed, using caller value", "err", err)
		return linkType
	}
	for _, t := range types {
		for _, phrase := range []string{t.SourceToTarget, t.TargetToSource, t.Name} {
			if phrase != "" && strings.EqualFold(phrase, linkType) {
				return phrase
			}
		}
	}
	return linkType
}

// SearchIssues runs a free-text query pinned to the enforced project when one
// is configured. In multi-project mode the query itself must carry the scope.
func (s *Service) SearchIssues(ctx context.Context, query string, top, skip int) ([]youtrack.Issue, error) {
	if err := ValidateQuery(query); err != nil {
		return nil, err
	}
	q, err := s.scopedQuery(query)
	if err != nil {
		return nil, err
	}
	params := url.Values{
		"query":  {q},
		"fields": {issueListFields},
		"$top":   {strconv.Itoa(clampTop(top))},
	}
	if skip > 0 {
		params.Set("$skip", strconv.Itoa(skip))
	}
	var issues []youtrack.Issue
	if err := s.backend.Get(ctx, "issues", params, &issues); err != nil {
		return nil, err
	}
	return issues, nil
}
