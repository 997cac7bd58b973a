package core

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/trackhub/trackhub/internal/telemetry"
	"github.com/trackhub/trackhub/internal/youtrack"
)

// internalIDRe matches the backend's internal entity ids ("0-12", "81-5").
var internalIDRe = regexp.MustCompile(`^\d+-\d+$`)

// CreateResult reports what one creation call actually produced: the issue
// identifiers, plus recoverable sub-failures. The "continue anyway" policy
// is visible here instead of hiding in error control flow.
type CreateResult struct {
	IssueID       string          `json:"issueId,omitempty"`
	IDReadable    string          `json:"idReadable,omitempty"`
	DraftID       string          `json:"draftId,omitempty"`
	FieldErrors   []CommandResult `json:"fieldErrors,omitempty"`
	PostFixErrors []string        `json:"postFixErrors,omitempty"`
}

// CreationWorkflow drives the multi-step sequence the backend requires to
// create a fully specified issue: draft, field commands, submission,
// post-submission fixes. One instance serves all calls but keeps no state
// between them; every step's output feeds the next, strictly sequential.
type CreationWorkflow struct {
	backend Backend
	applier *Applier
	logger  *slog.Logger
}

func NewCreationWorkflow(backend Backend, applier *Applier, logger *slog.Logger) *CreationWorkflow {
	return &CreationWorkflow{backend: backend, applier: applier, logger: logger}
}

// Create runs the full sequence. Draft creation and submission failures are
// fatal; a failed field application is recorded and the workflow proceeds,
// because losing the draft entirely serves the caller worse than submitting
// a partially configured issue. Post-submission steps are best-effort.
func (w *CreationWorkflow) Create(ctx context.Context, req CreateIssueRequest) (*CreateResult, error) {
	projectID := w.internalProjectID(ctx, req.Project)

	draft, err := w.createDraft(ctx, projectID, strings.TrimSpace(req.Summary), SanitizeDescription(req.Description))
	if err != nil {
		telemetry.IncIssueCreation("draft_failed")
		return nil, &WorkflowError{Step: "draft creation", Cause: err}
	}
	result := &CreateResult{DraftID: draft.ID}

	if cmds := SynthesizeCreate(req); len(cmds) > 0 {
		if err := w.applier.ApplyCombined(ctx, draft.ID, cmds); err != nil {
			w.logger.Warn("field application failed, submitting draft anyway",
				"draft", draft.ID,
				"err", err)
			result.FieldErrors = append(result.FieldErrors, CommandResult{
				Command:   JoinCommands(cmds),
				Succeeded: false,
				Error:     err.Error(),
			})
		}
	}

	issue, err := w.submitDraft(ctx, draft.ID)
	if err != nil {
		telemetry.IncIssueCreation("submit_failed")
		return nil, &WorkflowError{Step: "submission", DraftID: draft.ID, Cause: err}
	}
	result.IssueID = issue.ID
	result.IDReadable = issue.IDReadable

	if req.BusinessProc != "" {
		if err := w.setBusinessProc(ctx, issue.ID, req.BusinessProc); err != nil {
			// Best-effort enrichment: the command grammar cannot express
			// this field, so a double failure is logged, never fatal.
			w.logger.Warn("business process not set",
				"issue", issue.IDReadable,
				"err", err)
		}
	}
	if req.DueDate != "" {
		if err := w.setDueDate(ctx, issue.ID, req.DueDate); err != nil {
			w.logger.Warn("due date not set", "issue", issue.IDReadable, "err", err)
			result.PostFixErrors = append(result.PostFixErrors, fmt.Sprintf("due date: %v", err))
		}
	}
	if len(req.Tags) > 0 {
		if err := w.addTags(ctx, issue.ID, req.Tags); err != nil {
			w.logger.Warn("tags not fully applied", "issue", issue.IDReadable, "err", err)
			result.PostFixErrors = append(result.PostFixErrors, fmt.Sprintf("tags: %v", err))
		}
	}

	telemetry.IncIssueCreation("created")
	return result, nil
}

// internalProjectID maps a human-readable short name to the backend's
// internal id. Values already shaped like an internal id pass through;
// lookup failures fall back to the original value. This step never fails
// the workflow.
func (w *CreationWorkflow) internalProjectID(ctx context.Context, project string) string {
	if internalIDRe.MatchString(project) {
		return project
	}
	params := url.Values{}
	params.Set("fields", "id,name,shortName")

	var p youtrack.Project
	if err := w.backend.Get(ctx, "admin/projects/"+url.PathEscape(project), params, &p); err != nil || p.ID == "" {
		w.logger.Debug("project id lookup failed, using provided value",
			"project", project,
			"err", err)
		return project
	}
	return p.ID
}

func (w *CreationWorkflow) createDraft(ctx context.Context, projectID, summary, description string) (*youtrack.Draft, error) {
	body := map[string]any{
		"project": map[string]string{"id": projectID},
		"summary": summary,
	}
	if description != "" {
		body["description"] = description
	}

	var draft youtrack.Draft
	if err := w.backend.Post(ctx, "users/me/drafts?fields=id", body, &draft); err != nil {
		return nil, err
	}
	if draft.ID == "" {
		return nil, fmt.Errorf("draft response carries no id")
	}
	return &draft, nil
}

// submitDraft promotes the draft to a real issue in a single write keyed by
// draft id, requesting both identifiers needed to address the new resource.
func (w *CreationWorkflow) submitDraft(ctx context.Context, draftID string) (*youtrack.Issue, error) {
	path := "issues?draftId=" + url.QueryEscape(draftID) + "&fields=id,idReadable"

	var issue youtrack.Issue
	if err := w.backend.Post(ctx, path, map[string]any{}, &issue); err != nil {
		return nil, err
	}
	if issue.ID == "" && issue.IDReadable == "" {
		return nil, fmt.Errorf("submission response carries no issue id")
	}
	return &issue, nil
}

// setBusinessProc applies the business-process value via a targeted command,
// falling back to a direct custom-field write matched by display name.
func (w *CreationWorkflow) setBusinessProc(ctx context.Context, issueID, value string) error {
	cmdErr := w.applier.Apply(ctx, issueID, FieldCommand("Business Process", value))
	if cmdErr == nil {
		return nil
	}
	if err := w.setCustomField(ctx, issueID, "Business Process", value); err != nil {
		return fmt.Errorf("command failed (%v); direct write failed: %w", cmdErr, err)
	}
	return nil
}

// setCustomField looks up the field on the issue by display name and writes
// the value with the field's own type, so enum and state bundles both work.
func (w *CreationWorkflow) setCustomField(ctx context.Context, issueID, name, value string) error {
	params := url.Values{}
	params.Set("fields", "id,name,$type")

	var fields []youtrack.CustomField
	if err := w.backend.Get(ctx, "issues/"+issueID+"/customFields", params, &fields); err != nil {
		return fmt.Errorf("list custom fields: %w", err)
	}
	for _, f := range fields {
		if !strings.EqualFold(f.Name, name) {
			continue
		}
		body := map[string]any{
			"customFields": []map[string]any{{
				"name":  f.Name,
				"$type": f.Type,
				"value": map[string]string{"name": value},
			}},
		}
		return w.backend.Post(ctx, "issues/"+issueID, body, nil)
	}
	return fmt.Errorf("custom field %q not found on issue", name)
}

func (w *CreationWorkflow) setDueDate(ctx context.Context, issueID, due string) error {
	day, err := time.Parse("2006-01-02", due)
	if err != nil {
		return fmt.Errorf("parse due date: %w", err)
	}
	body := map[string]any{
		"customFields": []map[string]any{{
			"name":  "Due Date",
			"$type": "DateIssueCustomField",
			"value": day.UnixMilli(),
		}},
	}
	return w.backend.Post(ctx, "issues/"+issueID, body, nil)
}

func (w *CreationWorkflow) addTags(ctx context.Context, issueID string, tags []string) error {
	for _, tag := range tags {
		body := map[string]string{"name": tag}
		if err := w.backend.Post(ctx, "issues/"+issueID+"/tags", body, nil); err != nil {
			return fmt.Errorf("tag %q: %w", tag, err)
		}
	}
	return nil
}
