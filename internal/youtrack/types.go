package youtrack

import "strings"

// Project is a YouTrack project as returned by the admin projects API.
type Project struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	ShortName   string `json:"shortName"`
	Description string `json:"description,omitempty"`
	Archived    bool   `json:"archived,omitempty"`
}

// User is a YouTrack user. Login is what commands and queries address.
type User struct {
	ID       string `json:"id"`
	Login    string `json:"login"`
	FullName string `json:"fullName,omitempty"`
	Email    string `json:"email,omitempty"`
}

// CustomField is a name/value pair attached to an issue. Value shapes vary
// by field type (enum bundles, users, periods), so it stays untyped here.
type CustomField struct {
	ID    string `json:"id,omitempty"`
	Name  string `json:"name"`
	Type  string `json:"$type,omitempty"`
	Value any    `json:"value"`
}

// Issue is a YouTrack issue. ID is the internal database id ("2-123");
// IDReadable is the human-facing key ("TEAM-123").
type Issue struct {
	ID           string        `json:"id"`
	IDReadable   string        `json:"idReadable"`
	Summary      string        `json:"summary"`
	Description  string        `json:"description,omitempty"`
	Project      *Project      `json:"project,omitempty"`
	Reporter     *User         `json:"reporter,omitempty"`
	CustomFields []CustomField `json:"customFields,omitempty"`
	Tags         []Tag         `json:"tags,omitempty"`
	Created      int64         `json:"created,omitempty"`
	Updated      int64         `json:"updated,omitempty"`
	Resolved     int64         `json:"resolved,omitempty"`
}

// FieldValue returns the display name of a custom field value, or "" when
// the field is absent or unset. Handles both single values and the first
// element of multi-value fields.
func (i *Issue) FieldValue(name string) string {
	for _, f := range i.CustomFields {
		if !strings.EqualFold(f.Name, name) {
			continue
		}
		return customFieldName(f.Value)
	}
	return ""
}

func customFieldName(v any) string {
	switch val := v.(type) {
	case map[string]any:
		if n, ok := val["name"].(string); ok {
			return n
		}
		if n, ok := val["login"].(string); ok {
			return n
		}
	case []any:
		if len(val) > 0 {
			return customFieldName(val[0])
		}
	}
	return ""
}

// Tag is an issue tag.
type Tag struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name"`
}

// Draft identifies a not-yet-submitted issue owned by the current user.
type Draft struct {
	ID string `json:"id"`
}

// Comment is an issue comment.
type Comment struct {
	ID      string `json:"id"`
	Text    string `json:"text"`
	Author  *User  `json:"author,omitempty"`
	Created int64  `json:"created,omitempty"`
}

// AgileBoard is an agile board that carries sprints.
type AgileBoard struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Projects []Project `json:"projects,omitempty"`
	Sprints  []Sprint  `json:"sprints,omitempty"`
}

// Sprint is one sprint of an agile board.
type Sprint struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Goal     string `json:"goal,omitempty"`
	Start    int64  `json:"start,omitempty"`
	Finish   int64  `json:"finish,omitempty"`
	Archived bool   `json:"archived,omitempty"`
}

// Duration is a work-item duration; YouTrack stores minutes and renders a
// presentation like "1h 30m".
type Duration struct {
	Minutes      int    `json:"minutes"`
	Presentation string `json:"presentation,omitempty"`
}

// WorkItem is one time-tracking entry on an issue.
type WorkItem struct {
	ID       string   `json:"id,omitempty"`
	Date     int64    `json:"date,omitempty"`
	Duration Duration `json:"duration"`
	Author   *User    `json:"author,omitempty"`
	Text     string   `json:"text,omitempty"`
	Type     *struct {
		Name string `json:"name"`
	} `json:"type,omitempty"`
}

// IssueLinkType describes a directed link kind ("Subtask", "Depend", ...).
type IssueLinkType struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	SourceToTarget string `json:"sourceToTarget,omitempty"`
	TargetToSource string `json:"targetToSource,omitempty"`
}

// Article is a knowledge-base article.
type Article struct {
	ID         string   `json:"id"`
	IDReadable string   `json:"idReadable"`
	Summary    string   `json:"summary"`
	Content    string   `json:"content,omitempty"`
	Project    *Project `json:"project,omitempty"`
	Updated    int64    `json:"updated,omitempty"`
}

// ProjectCustomField is a field attached to a project, used to discover
// display names and bundle values.
type ProjectCustomField struct {
	ID    string `json:"id"`
	Field struct {
		Name string `json:"name"`
	} `json:"field"`
	CanBeEmpty bool   `json:"canBeEmpty,omitempty"`
	EmptyText  string `json:"emptyFieldText,omitempty"`
}

// CommandRequest is the body of the command endpoint: one query string
// applied to one or more issues.
type CommandRequest struct {
	Query  string     `json:"query"`
	Issues []IssueRef `json:"issues"`
}

// IssueRef addresses an issue (or draft) by internal id.
type IssueRef struct {
	ID string `json:"id"`
}
