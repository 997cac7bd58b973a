package core

import (
	"strconv"
	"strings"
)

// CreateIssueRequest is the transient parameter bag for one creation call,
// validated and consumed once. JSON tags mirror the tool argument names.
type CreateIssueRequest struct {
	Project      string   `json:"project"`
	Summary      string   `json:"summary"`
	Description  string   `json:"description,omitempty"`
	Type         string   `json:"type,omitempty"`
	Priority     string   `json:"priority,omitempty"`
	Assignee     string   `json:"assignee,omitempty"`
	DueDate      string   `json:"dueDate,omitempty"`
	Tags         []string `json:"tags,omitempty"`
	ParentID     string   `json:"parentId,omitempty"`
	DevTeam      string   `json:"devTeam,omitempty"`
	BusinessProc string   `json:"businessProc,omitempty"`
	Sorting      *int     `json:"sorting,omitempty"`
}

// UpdateIssueRequest carries one update call; only supplied fields act, no
// defaults are applied.
type UpdateIssueRequest struct {
	Summary           string   `json:"summary,omitempty"`
	Description       string   `json:"description,omitempty"`
	State             string   `json:"state,omitempty"`
	Priority          string   `json:"priority,omitempty"`
	Type              string   `json:"type,omitempty"`
	Assignee          string   `json:"assignee,omitempty"`
	Subsystem         string   `json:"subsystem,omitempty"`
	EstimationMinutes *int     `json:"estimationMinutes,omitempty"`
	Tags              []string `json:"tags,omitempty"`
}

// Command is one backend instruction: a field assignment rendered as
// "Field: value", or a free-form phrase like "subtask of DEMO-12".
// Commands are synthesized fresh per call and serialized to text only at
// the boundary.
type Command struct {
	Field string
	Value string
}

func FieldCommand(field, value string) Command {
	return Command{Field: field, Value: value}
}

func PhraseCommand(text string) Command {
	return Command{Value: text}
}

func (c Command) String() string {
	if c.Field == "" {
		return c.Value
	}
	return c.Field + ": " + c.Value
}

// JoinCommands renders a batch as the single combined string the backend
// applies left to right.
func JoinCommands(cmds []Command) string {
	parts := make([]string, 0, len(cmds))
	for _, c := range cmds {
		parts = append(parts, c.String())
	}
	return strings.Join(parts, " ")
}

// SynthesizeCreate builds the creation command sequence. Pure and
// deterministic; the backend applies commands left to right, so the field
// ordering below is a fixed contract:
//
//	parent link, type, priority, sorting, dev team, assignee.
//
// BusinessProc never appears here — the command grammar does not cover it;
// the creation workflow sets it in a separate post-submission step.
func SynthesizeCreate(req CreateIssueRequest) []Command {
	cmds := make([]Command, 0, 6)

	if req.ParentID != "" {
		cmds = append(cmds, PhraseCommand("subtask of "+req.ParentID))
	}
	if req.Type != "" {
		cmds = append(cmds, FieldCommand("Type", req.Type))
	}

	priority := req.Priority
	if priority == "" {
		priority = "Normal"
	}
	cmds = append(cmds, FieldCommand("Priority", priority))

	if sortingEligible(req.Type) {
		n := 0
		if req.Sorting != nil {
			n = *req.Sorting
		}
		cmds = append(cmds, FieldCommand("Sorting", strconv.Itoa(n)))
	}
	if devTeamEligible(req.Type) && req.DevTeam != "" {
		cmds = append(cmds, FieldCommand("Dev_Team", req.DevTeam))
	}
	if req.Assignee != "" {
		cmds = append(cmds, FieldCommand("Assignee", req.Assignee))
	}
	return cmds
}

// SynthesizeUpdate builds commands for the supplied fields only. Summary,
// description and tags are not commands; they go through direct writes.
func SynthesizeUpdate(req UpdateIssueRequest) []Command {
	cmds := make([]Command, 0, 6)

	if req.State != "" {
		cmds = append(cmds, FieldCommand("State", req.State))
	}
	if req.Priority != "" {
		cmds = append(cmds, FieldCommand("Priority", req.Priority))
	}
	if req.Type != "" {
		cmds = append(cmds, FieldCommand("Type", req.Type))
	}
	if req.Assignee != "" {
		cmds = append(cmds, FieldCommand("Assignee", req.Assignee))
	}
	if req.Subsystem != "" {
		cmds = append(cmds, FieldCommand("Subsystem", req.Subsystem))
	}
	if req.EstimationMinutes != nil {
		cmds = append(cmds, PhraseCommand("Estimation "+FormatEstimation(*req.EstimationMinutes)))
	}
	return cmds
}

// sortingEligible: Sorting applies to planning-level types (and untyped
// issues), never to task/bug/devops.
func sortingEligible(issueType string) bool {
	switch strings.ToLower(strings.TrimSpace(issueType)) {
	case "":
		return true
	case "epic", "user story", "feature":
		return true
	default:
		return false
	}
}

// devTeamEligible: Dev_Team exists only on execution-level types.
func devTeamEligible(issueType string) bool {
	switch strings.ToLower(strings.TrimSpace(issueType)) {
	case "task", "feature", "bug", "devops":
		return true
	default:
		return false
	}
}

// FormatEstimation renders a minute count as the backend's compact duration
// expression: an "h" token only when hours are non-zero, an "m" token only
// when minutes remain, "0m" when both are zero.
func FormatEstimation(minutes int) string {
	if minutes <= 0 {
		return "0m"
	}
	hours := minutes / 60
	rem := minutes % 60

	parts := make([]string, 0, 2)
	if hours > 0 {
		parts = append(parts, strconv.Itoa(hours)+"h")
	}
	if rem > 0 {
		parts = append(parts, strconv.Itoa(rem)+"m")
	}
	return strings.Join(parts, " ")
}
