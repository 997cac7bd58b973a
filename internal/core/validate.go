package core

import (
	"fmt"
	"strings"
	"time"
)

const (
	MaxSummaryLen     = 512
	MaxDescriptionLen = 65536
	MaxCommentLen     = 65536
	MaxQueryLen       = 2048
	MaxTags           = 20
	MaxTagLen         = 50
)

// ValidateCreateIssue checks a creation request before any network call.
// The returned ValidationError names the offending field.
func ValidateCreateIssue(req CreateIssueRequest) error {
	if strings.TrimSpace(req.Summary) == "" {
		return &ValidationError{Field: "summary", Reason: "is required"}
	}
	if len(req.Summary) > MaxSummaryLen {
		return &ValidationError{Field: "summary", Reason: fmt.Sprintf("exceeds %d characters", MaxSummaryLen)}
	}
	if len(req.Description) > MaxDescriptionLen {
		return &ValidationError{Field: "description", Reason: fmt.Sprintf("exceeds %d characters", MaxDescriptionLen)}
	}
	if err := validateTags(req.Tags); err != nil {
		return err
	}
	if req.Sorting != nil && *req.Sorting < 0 {
		return &ValidationError{Field: "sorting", Reason: "must not be negative"}
	}
	if req.DueDate != "" {
		if _, err := time.Parse("2006-01-02", req.DueDate); err != nil {
			return &ValidationError{Field: "dueDate", Reason: "must be a YYYY-MM-DD date"}
		}
	}
	return nil
}

// ValidateUpdateIssue checks an update request. An update naming no fields
// is rejected rather than silently doing nothing.
func ValidateUpdateIssue(req UpdateIssueRequest) error {
	if req.Empty() {
		return &ValidationError{Field: "update", Reason: "must supply at least one field to change"}
	}
	if len(req.Summary) > MaxSummaryLen {
		return &ValidationError{Field: "summary", Reason: fmt.Sprintf("exceeds %d characters", MaxSummaryLen)}
	}
	if len(req.Description) > MaxDescriptionLen {
		return &ValidationError{Field: "description", Reason: fmt.Sprintf("exceeds %d characters", MaxDescriptionLen)}
	}
	if err := validateTags(req.Tags); err != nil {
		return err
	}
	if req.EstimationMinutes != nil && *req.EstimationMinutes < 0 {
		return &ValidationError{Field: "estimationMinutes", Reason: "must not be negative"}
	}
	return nil
}

// Empty reports whether the update names no fields at all.
func (r UpdateIssueRequest) Empty() bool {
	return r.Summary == "" && r.Description == "" && r.State == "" &&
		r.Priority == "" && r.Type == "" && r.Assignee == "" &&
		r.Subsystem == "" && r.EstimationMinutes == nil && len(r.Tags) == 0
}

func ValidateComment(text string) error {
	if strings.TrimSpace(text) == "" {
		return &ValidationError{Field: "text", Reason: "is required"}
	}
	if len(text) > MaxCommentLen {
		return &ValidationError{Field: "text", Reason: fmt.Sprintf("exceeds %d characters", MaxCommentLen)}
	}
	return nil
}

func ValidateQuery(query string) error {
	if len(query) > MaxQueryLen {
		return &ValidationError{Field: "query", Reason: fmt.Sprintf("exceeds %d characters", MaxQueryLen)}
	}
	return nil
}

func validateTags(tags []string) error {
	if len(tags) > MaxTags {
		return &ValidationError{Field: "tags", Reason: fmt.Sprintf("exceed %d items", MaxTags)}
	}
	for _, tag := range tags {
		if strings.TrimSpace(tag) == "" {
			return &ValidationError{Field: "tags", Reason: "must not contain empty values"}
		}
		if len(tag) > MaxTagLen {
			return &ValidationError{Field: "tags", Reason: fmt.Sprintf("contain a tag exceeding %d characters", MaxTagLen)}
		}
	}
	return nil
}

// SanitizeDescription normalizes line endings and strips control characters
// the backend rejects in draft bodies. Newlines and tabs survive.
func SanitizeDescription(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r == '\n' || r == '\t' || (r >= 0x20 && r != 0x7f) {
			b.WriteRune(r)
		}
	}
	return strings.TrimRight(b.String(), " \n\t")
}
