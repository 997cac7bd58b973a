package core

import (
	"errors"
	"fmt"
	"testing"
)

type testStatusError struct {
	status int
	msg    string
}

func (e *testStatusError) Error() string   { return e.msg }
func (e *testStatusError) HTTPStatus() int { return e.status }

func TestClassifyTypedErrors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode string
	}{
		{name: "validation", err: &ValidationError{Field: "summary", Reason: "is required"}, wantCode: "validation_failed"},
		{name: "missing scope", err: &MissingScopeError{}, wantCode: "scope_missing"},
		{name: "scope violation", err: &ScopeViolationError{Provided: "OTHER", Enforced: "TEAM"}, wantCode: "scope_violation"},
		{name: "command rejected", err: &CommandError{Command: "Priority: Urgentt", Cause: errors.New("POST commands HTTP 400: unknown value")}, wantCode: "command_rejected"},
		{name: "workflow failed", err: &WorkflowError{Step: "draft creation", Cause: errors.New("POST users/me/drafts HTTP 500: boom")}, wantCode: "workflow_failed"},
		{name: "wrapped validation", err: fmt.Errorf("create issue: %w", &ValidationError{Field: "project", Reason: "is required"}), wantCode: "validation_failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.err)
			if got.Code != tt.wantCode {
				t.Fatalf("want code %q, got %q", tt.wantCode, got.Code)
			}
			if got.Message == "" {
				t.Fatal("message must not be empty")
			}
		})
	}
}

func TestClassifyBackendStatus(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode string
	}{
		{name: "status 404", err: &testStatusError{status: 404, msg: "GET issues/DEMO-9 HTTP 404: not found"}, wantCode: "not_found"},
		{name: "status 403", err: &testStatusError{status: 403, msg: "POST commands HTTP 403: forbidden"}, wantCode: "permission_denied"},
		{name: "status 401", err: &testStatusError{status: 401, msg: "GET users/me HTTP 401: unauthorized"}, wantCode: "permission_denied"},
		{name: "status 400 query", err: &testStatusError{status: 400, msg: "GET issues HTTP 400: bad query: unknown attribute"}, wantCode: "query_syntax_invalid"},
		{name: "status 400 other", err: &testStatusError{status: 400, msg: "POST issues HTTP 400: malformed"}, wantCode: "backend_error"},
		{name: "status 500", err: &testStatusError{status: 500, msg: "GET issues HTTP 500: oops"}, wantCode: "backend_error"},
		{name: "wrapped status", err: fmt.Errorf("fetch issue: %w", &testStatusError{status: 404, msg: "HTTP 404"}), wantCode: "not_found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.err)
			if got.Code != tt.wantCode {
				t.Fatalf("want code %q, got %q", tt.wantCode, got.Code)
			}
		})
	}
}

func TestClassifySubstrings(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode string
	}{
		{name: "text 404", err: errors.New("GET issues/DEMO-9 HTTP 404: Issue not found"), wantCode: "not_found"},
		{name: "text 403", err: errors.New("POST commands HTTP 403: no permission"), wantCode: "permission_denied"},
		{name: "text 400 query", err: errors.New("GET issues HTTP 400: invalid query"), wantCode: "query_syntax_invalid"},
		{name: "connection refused", err: errors.New(`Get "https://yt.example.com/api/issues": dial tcp: connection refused`), wantCode: "network_unreachable"},
		{name: "dns failure", err: errors.New(`Get "https://yt.example.com/api/issues": dial tcp: lookup yt.example.com: no such host`), wantCode: "network_unreachable"},
		{name: "client timeout", err: errors.New(`Get "https://yt.example.com/api/issues": context deadline exceeded`), wantCode: "network_unreachable"},
		{name: "unknown", err: errors.New("something odd"), wantCode: "internal_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.err)
			if got.Code != tt.wantCode {
				t.Fatalf("want code %q, got %q", tt.wantCode, got.Code)
			}
		})
	}
}

func TestClassifyGuidanceNamesField(t *testing.T) {
	got := Classify(&ValidationError{Field: "summary", Reason: "is required"})
	if want := "fix the summary argument and retry"; got.Guidance != want {
		t.Fatalf("want guidance %q, got %q", want, got.Guidance)
	}
}

func TestFailureEnvelopeCarriesContext(t *testing.T) {
	env := Failure(&MissingScopeError{}, map[string]string{"tool": "yt_issues", "action": "search"})
	if env.OK {
		t.Fatal("failure envelope must not be ok")
	}
	if env.Error == nil {
		t.Fatal("failure envelope must carry an error")
	}
	if env.Error.Code != "scope_missing" {
		t.Fatalf("want code scope_missing, got %q", env.Error.Code)
	}
	if env.Error.Context["action"] != "search" {
		t.Fatalf("context not preserved: %+v", env.Error.Context)
	}
}

func TestSuccessEnvelope(t *testing.T) {
	env := Success("issue created", map[string]string{"id": "DEMO-1"})
	if !env.OK || env.Error != nil {
		t.Fatalf("unexpected envelope: %+v", env)
	}
	if env.Message != "issue created" {
		t.Fatalf("message = %q", env.Message)
	}
}
