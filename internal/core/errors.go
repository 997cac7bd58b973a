package core

import (
	"errors"
	"fmt"
	"strings"
)

// ValidationError reports bad or missing caller input, detected before any
// network call. Field names the offending argument.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string { return e.Field + " " + e.Reason }

// MissingScopeError reports a project-scoped call with no project to act on.
type MissingScopeError struct{}

func (e *MissingScopeError) Error() string {
	return "no project in scope: supply a project argument or configure an enforced project"
}

// ScopeViolationError is raised only in strict mode when a caller-supplied
// project differs from the enforced one. Non-strict mode substitutes and
// logs instead.
type ScopeViolationError struct {
	Provided string
	Enforced string
}

func (e *ScopeViolationError) Error() string {
	return fmt.Sprintf("project %q is outside the enforced scope %q", e.Provided, e.Enforced)
}

// CommandError reports one synthesized command rejected by the backend.
type CommandError struct {
	Command string
	Cause   error
}

func (e *CommandError) Error() string { return fmt.Sprintf("%s: %v", e.Command, e.Cause) }
func (e *CommandError) Unwrap() error { return e.Cause }

// WorkflowError reports a creation step beyond recovery, i.e. draft creation
// or submission. DraftID carries whatever existed before the failure so the
// caller can pick up from there.
type WorkflowError struct {
	Step    string
	DraftID string
	Cause   error
}

func (e *WorkflowError) Error() string { return fmt.Sprintf("%s failed: %v", e.Step, e.Cause) }
func (e *WorkflowError) Unwrap() error { return e.Cause }

type ErrorInfo struct {
	Code     string
	Message  string
	Guidance string
}

// Classify maps any error to a stable code plus actionable guidance. Typed
// domain errors are matched first; backend failures are recognized by their
// HTTP status or, for wrapped errors, by substrings of the error text.
func Classify(err error) ErrorInfo {
	if err == nil {
		return ErrorInfo{Code: "internal_error", Message: "internal error"}
	}

	msg := err.Error()
	lower := strings.ToLower(msg)

	var vErr *ValidationError
	if errors.As(err, &vErr) {
		return ErrorInfo{Code: "validation_failed", Message: msg,
			Guidance: "fix the " + vErr.Field + " argument and retry"}
	}
	var mErr *MissingScopeError
	if errors.As(err, &mErr) {
		return ErrorInfo{Code: "scope_missing", Message: msg,
			Guidance: "pass a project argument or set an enforced project at startup"}
	}
	var sErr *ScopeViolationError
	if errors.As(err, &sErr) {
		return ErrorInfo{Code: "scope_violation", Message: msg,
			Guidance: "this server is locked to project " + sErr.Enforced + "; drop the project argument or use that id"}
	}
	var wErr *WorkflowError
	if errors.As(err, &wErr) {
		return ErrorInfo{Code: "workflow_failed", Message: msg,
			Guidance: "creation did not complete; anything already created is listed in the error context"}
	}
	var cErr *CommandError
	if errors.As(err, &cErr) {
		return ErrorInfo{Code: "command_rejected", Message: msg,
			Guidance: "check the field value against the values this project allows"}
	}

	var status interface{ HTTPStatus() int }
	if errors.As(err, &status) {
		return classifyStatus(status.HTTPStatus(), msg, lower)
	}

	switch {
	case strings.Contains(lower, "http 404"):
		return notFoundInfo(msg)
	case strings.Contains(lower, "http 403"), strings.Contains(lower, "http 401"):
		return permissionInfo(msg)
	case strings.Contains(lower, "http 400") && strings.Contains(lower, "query"):
		return querySyntaxInfo(msg)
	case isNetworkFailure(lower):
		return ErrorInfo{Code: "network_unreachable", Message: msg,
			Guidance: "check the YouTrack base URL and network connectivity, then retry"}
	default:
		return ErrorInfo{Code: "internal_error", Message: msg,
			Guidance: "unexpected failure; check the server logs for this trace id"}
	}
}

func classifyStatus(code int, msg, lower string) ErrorInfo {
	switch {
	case code == 404:
		return notFoundInfo(msg)
	case code == 403 || code == 401:
		return permissionInfo(msg)
	case code == 400 && strings.Contains(lower, "query"):
		return querySyntaxInfo(msg)
	case code == 400:
		return ErrorInfo{Code: "backend_error", Message: msg,
			Guidance: "the backend rejected the request; check the argument values"}
	default:
		return ErrorInfo{Code: "backend_error", Message: msg,
			Guidance: "the backend failed to process the request; retry later"}
	}
}

func notFoundInfo(msg string) ErrorInfo {
	return ErrorInfo{Code: "not_found", Message: msg,
		Guidance: "check the identifier; the resource may not exist or the token may not see its project"}
}

func permissionInfo(msg string) ErrorInfo {
	return ErrorInfo{Code: "permission_denied", Message: msg,
		Guidance: "the configured token lacks permission for this operation; review its YouTrack role"}
}

func querySyntaxInfo(msg string) ErrorInfo {
	return ErrorInfo{Code: "query_syntax_invalid", Message: msg,
		Guidance: "fix the search query; see the YouTrack query reference for valid attributes"}
}

func isNetworkFailure(lower string) bool {
	for _, s := range []string{
		"connection refused",
		"no such host",
		"i/o timeout",
		"context deadline exceeded",
		"network is unreachable",
		"connection reset",
		"tls handshake",
	} {
		if strings.Contains(lower, s) {
			return true
		}
	}
	return false
}
