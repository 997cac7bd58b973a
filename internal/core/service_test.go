package core

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"testing"

	"github.com/trackhub/trackhub/internal/youtrack"
)

func newTestService(fb *fakeBackend, cfg ScopeConfig) *Service {
	return NewService(fb, NewResolver(cfg, testLogger()), testLogger())
}

func commandQueryOf(t *testing.T, body any) string {
	t.Helper()
	req, ok := body.(youtrack.CommandRequest)
	if !ok {
		t.Fatalf("body = %T, want youtrack.CommandRequest", body)
	}
	return req.Query
}

func TestUpdateIssueIsolatesCommandFailures(t *testing.T) {
	fb := &fakeBackend{
		postFn: func(path string, body, out any) error {
			if path != "commands" {
				return nil
			}
			cmd := commandQueryOf(t, body)
			if strings.HasPrefix(cmd, "Priority:") {
				return errors.New("POST commands HTTP 400: value Urgent-ish not found")
			}
			return nil
		},
		getFn: func(path string, _ url.Values, out any) error {
			fill(t, out, `{"id":"2-9","idReadable":"DEMO-9","summary":"s"}`)
			return nil
		},
	}
	svc := newTestService(fb, ScopeConfig{})

	result, err := svc.UpdateIssue(context.Background(), "DEMO-9", UpdateIssueRequest{
		State:    "In Progress",
		Priority: "Urgent-ish",
		Assignee: "alice",
	})
	if err != nil {
		t.Fatalf("UpdateIssue: %v", err)
	}
	if result.AppliedCommands != 3 {
		t.Fatalf("AppliedCommands = %d, want 3", result.AppliedCommands)
	}
	if len(result.CommandErrors) != 1 {
		t.Fatalf("CommandErrors = %v, want exactly one", result.CommandErrors)
	}
	if !strings.HasPrefix(result.CommandErrors[0], "Priority: Urgent-ish: ") {
		t.Fatalf("error not keyed by command: %q", result.CommandErrors[0])
	}
	if result.Issue == nil || result.Issue.IDReadable != "DEMO-9" {
		t.Fatalf("issue not re-fetched: %+v", result.Issue)
	}

	// All three command POSTs happened despite the middle failure.
	commandCalls := 0
	for _, c := range fb.calls {
		if c == "POST commands" {
			commandCalls++
		}
	}
	if commandCalls != 3 {
		t.Fatalf("command calls = %d, want 3", commandCalls)
	}
}

func TestUpdateIssueEmptyRequestRejected(t *testing.T) {
	fb := &fakeBackend{}
	svc := newTestService(fb, ScopeConfig{})

	_, err := svc.UpdateIssue(context.Background(), "DEMO-1", UpdateIssueRequest{})
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("error = %v, want *ValidationError", err)
	}
	if len(fb.calls) != 0 {
		t.Fatalf("network calls before validation: %v", fb.calls)
	}
}

func TestSearchIssuesRequiresScope(t *testing.T) {
	fb := &fakeBackend{}
	svc := newTestService(fb, ScopeConfig{})

	_, err := svc.SearchIssues(context.Background(), "", 0, 0)
	var mErr *MissingScopeError
	if !errors.As(err, &mErr) {
		t.Fatalf("error = %v, want *MissingScopeError", err)
	}
	if len(fb.calls) != 0 {
		t.Fatalf("network calls before scope check: %v", fb.calls)
	}
}

func TestSearchIssuesPinsEnforcedProject(t *testing.T) {
	var gotQuery string
	fb := &fakeBackend{
		getFn: func(path string, params url.Values, out any) error {
			gotQuery = params.Get("query")
			fill(t, out, `[]`)
			return nil
		},
	}
	svc := newTestService(fb, ScopeConfig{EnforcedProject: "TEAM"})

	if _, err := svc.SearchIssues(context.Background(), "project: OTHER #Unresolved", 0, 0); err != nil {
		t.Fatalf("SearchIssues: %v", err)
	}
	if gotQuery != "project: TEAM #Unresolved" {
		t.Fatalf("query = %q, want the project clause rewritten to TEAM", gotQuery)
	}
}

func TestListProjectsCollapsesToEnforced(t *testing.T) {
	fb := &fakeBackend{
		getFn: func(path string, _ url.Values, out any) error {
			if path != "admin/projects/TEAM" {
				t.Fatalf("GET %s, want the enforced project only", path)
			}
			fill(t, out, `{"id":"0-7","shortName":"TEAM","name":"Team"}`)
			return nil
		},
	}
	svc := newTestService(fb, ScopeConfig{EnforcedProject: "TEAM"})

	projects, err := svc.ListProjects(context.Background())
	if err != nil {
		t.Fatalf("ListProjects: %v", err)
	}
	if len(projects) != 1 || projects[0].ShortName != "TEAM" {
		t.Fatalf("projects = %+v, want just TEAM", projects)
	}
}

func TestCreateIssueEnforcesScopeBeforeValidation(t *testing.T) {
	fb := &fakeBackend{}
	svc := newTestService(fb, ScopeConfig{EnforcedProject: "0-7"})

	// A differing project is substituted; the missing summary still fails
	// validation before any network call.
	_, err := svc.CreateIssue(context.Background(), CreateIssueRequest{Project: "OTHER"})
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("error = %v, want *ValidationError", err)
	}
	if vErr.Field != "summary" {
		t.Fatalf("field = %q, want summary", vErr.Field)
	}
	if len(fb.calls) != 0 {
		t.Fatalf("network calls before validation: %v", fb.calls)
	}
}

func TestLinkIssuesUsesDirectedPhrase(t *testing.T) {
	var gotCommand string
	fb := &fakeBackend{
		getFn: func(path string, _ url.Values, out any) error {
			if path != "issueLinkTypes" {
				t.Fatalf("unexpected GET %s", path)
			}
			fill(t, out, `[{"id":"1","name":"Depend","sourceToTarget":"is required for","targetToSource":"depends on"}]`)
			return nil
		},
		postFn: func(path string, body, _ any) error {
			gotCommand = commandQueryOf(t, body)
			return nil
		},
	}
	svc := newTestService(fb, ScopeConfig{})

	if err := svc.LinkIssues(context.Background(), "DEMO-1", "DEMO-2", "depends on"); err != nil {
		t.Fatalf("LinkIssues: %v", err)
	}
	if gotCommand != "depends on DEMO-2" {
		t.Fatalf("command = %q", gotCommand)
	}
}

func TestLinkIssuesDefaultsToRelatesTo(t *testing.T) {
	var gotCommand string
	fb := &fakeBackend{
		getFn: func(path string, _ url.Values, out any) error {
			fill(t, out, `[]`)
			return nil
		},
		postFn: func(path string, body, _ any) error {
			gotCommand = commandQueryOf(t, body)
			return nil
		},
	}
	svc := newTestService(fb, ScopeConfig{})

	if err := svc.LinkIssues(context.Background(), "DEMO-1", "DEMO-2", ""); err != nil {
		t.Fatalf("LinkIssues: %v", err)
	}
	if gotCommand != "relates to DEMO-2" {
		t.Fatalf("command = %q", gotCommand)
	}
}
