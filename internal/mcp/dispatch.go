package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/trackhub/trackhub/internal/core"
	"github.com/trackhub/trackhub/internal/telemetry"
)

// Router validates tool arguments, resolves scope through the service, and
// routes each action to the right operation. Every call gets a trace id; all
// outcomes are normalized into one response envelope.
type Router struct {
	svc    *core.Service
	logger *slog.Logger
}

func NewRouter(svc *core.Service, logger *slog.Logger) *Router {
	return &Router{svc: svc, logger: logger}
}

// handlerFunc produces the envelope for one validated call.
type handlerFunc func(ctx context.Context) core.ToolEnvelope

// run wraps one tool invocation: trace id, duration metric, structured log,
// envelope serialization. Handlers never surface raw errors to the caller.
func (r *Router) run(ctx context.Context, tool, action string, fn handlerFunc) (*mcp.CallToolResult, error) {
	traceID := uuid.New().String()
	start := time.Now()

	env := fn(ctx)

	status := "ok"
	if !env.OK {
		status = "error"
	}
	telemetry.IncToolCall(tool, status)
	telemetry.ObserveToolDuration(tool, time.Since(start))

	log := r.logger.Info
	if !env.OK {
		log = r.logger.Warn
	}
	attrs := []any{
		"trace_id", traceID,
		"tool", tool,
		"action", action,
		"status", status,
		"duration_ms", time.Since(start).Milliseconds(),
	}
	if env.Error != nil {
		attrs = append(attrs, "code", env.Error.Code, "err", env.Error.Message)
	}
	log("tool call completed", attrs...)

	body, err := json.Marshal(env)
	if err != nil {
		return mcp.NewToolResultError("encode response: " + err.Error()), nil
	}
	return mcp.NewToolResultText(string(body)), nil
}

// unknownAction builds the validation envelope for an unrecognized action,
// proposing the closest known one instead of failing silently.
func unknownAction(field, value string, known []string) core.ToolEnvelope {
	reason := fmt.Sprintf("%q is not one of %s", value, strings.Join(known, ", "))
	if hint := suggestAction(value, known); hint != "" {
		reason += fmt.Sprintf(" (did you mean %q?)", hint)
	}
	return core.Failure(&core.ValidationError{Field: field, Reason: reason},
		map[string]string{field: value})
}

func requireArg(req mcp.CallToolRequest, key string) (string, *core.ValidationError) {
	v := strings.TrimSpace(req.GetString(key, ""))
	if v == "" {
		return "", &core.ValidationError{Field: key, Reason: "is required for this action"}
	}
	return v, nil
}

// optionalInt distinguishes "absent" from zero: the synthesizer treats a
// supplied zero differently from no value at all.
func optionalInt(req mcp.CallToolRequest, key string) *int {
	if _, ok := req.GetArguments()[key]; !ok {
		return nil
	}
	n := req.GetInt(key, 0)
	return &n
}

var projectsActions = []string{"list", "get", "fields"}

func (r *Router) HandleProjects(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	action := strings.ToLower(strings.TrimSpace(req.GetString("action", "")))
	return r.run(ctx, "yt_projects", action, func(ctx context.Context) core.ToolEnvelope {
		project := req.GetString("project", "")
		switch action {
		case "list":
			projects, err := r.svc.ListProjects(ctx)
			if err != nil {
				return core.Failure(err, map[string]string{"action": action})
			}
			return core.Success(fmt.Sprintf("%d projects", len(projects)), projects)
		case "get":
			p, err := r.svc.GetProject(ctx, project)
			if err != nil {
				return core.Failure(err, map[string]string{"action": action, "project": project})
			}
			return core.Success("project "+p.ShortName, p)
		case "fields":
			fields, err := r.svc.ProjectFields(ctx, project)
			if err != nil {
				return core.Failure(err, map[string]string{"action": action, "project": project})
			}
			return core.Success(fmt.Sprintf("%d custom fields", len(fields)), fields)
		default:
			return unknownAction("action", action, projectsActions)
		}
	})
}

var issuesActions = []string{"get", "create", "update", "delete", "comment", "comments", "link", "search"}

func (r *Router) HandleIssues(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	action := strings.ToLower(strings.TrimSpace(req.GetString("action", "")))
	return r.run(ctx, "yt_issues", action, func(ctx context.Context) core.ToolEnvelope {
		switch action {
		case "get":
			return r.issueGet(ctx, req)
		case "create":
			return r.issueCreate(ctx, req)
		case "update":
			return r.issueUpdate(ctx, req)
		case "delete":
			return r.issueDelete(ctx, req)
		case "comment":
			return r.issueComment(ctx, req)
		case "comments":
			return r.issueComments(ctx, req)
		case "link":
			return r.issueLink(ctx, req)
		case "search":
			return r.issueSearch(ctx, req)
		default:
			return unknownAction("action", action, issuesActions)
		}
	})
}

func (r *Router) issueGet(ctx context.Context, req mcp.CallToolRequest) core.ToolEnvelope {
	issueID, vErr := requireArg(req, "issueId")
	if vErr != nil {
		return core.Failure(vErr, nil)
	}
	issue, err := r.svc.GetIssue(ctx, issueID)
	if err != nil {
		return core.Failure(err, map[string]string{"action": "get", "issueId": issueID})
	}
	return core.Success("issue "+issue.IDReadable, issue)
}

func (r *Router) issueCreate(ctx context.Context, req mcp.CallToolRequest) core.ToolEnvelope {
	in := core.CreateIssueRequest{
		Project:      req.GetString("project", ""),
		Summary:      req.GetString("summary", ""),
		Description:  req.GetString("description", ""),
		Type:         req.GetString("type", ""),
		Priority:     req.GetString("priority", ""),
		Assignee:     req.GetString("assignee", ""),
		DueDate:      req.GetString("dueDate", ""),
		Tags:         req.GetStringSlice("tags", nil),
		ParentID:     req.GetString("parentId", ""),
		DevTeam:      req.GetString("devTeam", ""),
		BusinessProc: req.GetString("businessProc", ""),
		Sorting:      optionalInt(req, "sorting"),
	}
	result, err := r.svc.CreateIssue(ctx, in)
	if err != nil {
		ctxMap := map[string]string{"action": "create", "project": in.Project}
		var wErr *core.WorkflowError
		if errors.As(err, &wErr) && wErr.DraftID != "" {
			ctxMap["draftId"] = wErr.DraftID
		}
		return core.Failure(err, ctxMap)
	}

	msg := "created issue " + result.IDReadable
	if len(result.FieldErrors) > 0 || len(result.PostFixErrors) > 0 {
		msg += " (some fields were not applied; see fieldErrors and postFixErrors)"
	}
	return core.Success(msg, result)
}

func (r *Router) issueUpdate(ctx context.Context, req mcp.CallToolRequest) core.ToolEnvelope {
	issueID, vErr := requireArg(req, "issueId")
	if vErr != nil {
		return core.Failure(vErr, nil)
	}
	in := core.UpdateIssueRequest{
		Summary:           req.GetString("summary", ""),
		Description:       req.GetString("description", ""),
		State:             req.GetString("state", ""),
		Priority:          req.GetString("priority", ""),
		Type:              req.GetString("type", ""),
		Assignee:          req.GetString("assignee", ""),
		Subsystem:         req.GetString("subsystem", ""),
		EstimationMinutes: optionalInt(req, "estimationMinutes"),
		Tags:              req.GetStringSlice("tags", nil),
	}
	result, err := r.svc.UpdateIssue(ctx, issueID, in)
	if err != nil {
		return core.Failure(err, map[string]string{"action": "update", "issueId": issueID})
	}

	msg := "updated issue " + issueID
	if len(result.CommandErrors) > 0 || len(result.WriteErrors) > 0 {
		msg = fmt.Sprintf("updated issue %s with %d of %d commands rejected; see commandErrors",
			issueID, len(result.CommandErrors), result.AppliedCommands)
	}
	return core.Success(msg, result)
}

func (r *Router) issueDelete(ctx context.Context, req mcp.CallToolRequest) core.ToolEnvelope {
	issueID, vErr := requireArg(req, "issueId")
	if vErr != nil {
		return core.Failure(vErr, nil)
	}
	if err := r.svc.DeleteIssue(ctx, issueID); err != nil {
		return core.Failure(err, map[string]string{"action": "delete", "issueId": issueID})
	}
	return core.Success("deleted issue "+issueID, nil)
}

func (r *Router) issueComment(ctx context.Context, req mcp.CallToolRequest) core.ToolEnvelope {
	issueID, vErr := requireArg(req, "issueId")
	if vErr != nil {
		return core.Failure(vErr, nil)
	}
	comment, err := r.svc.AddComment(ctx, issueID, req.GetString("text", ""))
	if err != nil {
		return core.Failure(err, map[string]string{"action": "comment", "issueId": issueID})
	}
	return core.Success("comment added to "+issueID, comment)
}

func (r *Router) issueComments(ctx context.Context, req mcp.CallToolRequest) core.ToolEnvelope {
	issueID, vErr := requireArg(req, "issueId")
	if vErr != nil {
		return core.Failure(vErr, nil)
	}
	comments, err := r.svc.ListComments(ctx, issueID, req.GetInt("top", 0))
	if err != nil {
		return core.Failure(err, map[string]string{"action": "comments", "issueId": issueID})
	}
	return core.Success(fmt.Sprintf("%d comments on %s", len(comments), issueID), comments)
}

func (r *Router) issueLink(ctx context.Context, req mcp.CallToolRequest) core.ToolEnvelope {
	issueID, vErr := requireArg(req, "issueId")
	if vErr != nil {
		return core.Failure(vErr, nil)
	}
	targetID, vErr := requireArg(req, "targetId")
	if vErr != nil {
		return core.Failure(vErr, nil)
	}
	linkType := req.GetString("linkType", "")
	if err := r.svc.LinkIssues(ctx, issueID, targetID, linkType); err != nil {
		return core.Failure(err, map[string]string{
			"action": "link", "issueId": issueID, "targetId": targetID,
		})
	}
	return core.Success(fmt.Sprintf("linked %s to %s", issueID, targetID), nil)
}

func (r *Router) issueSearch(ctx context.Context, req mcp.CallToolRequest) core.ToolEnvelope {
	query := req.GetString("query", "")
	issues, err := r.svc.SearchIssues(ctx, query, req.GetInt("top", 0), req.GetInt("skip", 0))
	if err != nil {
		return core.Failure(err, map[string]string{"action": "search", "query": query})
	}
	return core.Success(fmt.Sprintf("%d issues", len(issues)), issues)
}

var boardsActions = []string{"list", "get", "sprints", "sprint"}

func (r *Router) HandleBoards(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	action := strings.ToLower(strings.TrimSpace(req.GetString("action", "")))
	return r.run(ctx, "yt_boards", action, func(ctx context.Context) core.ToolEnvelope {
		boardID := req.GetString("boardId", "")
		switch action {
		case "list":
			boards, err := r.svc.ListBoards(ctx)
			if err != nil {
				return core.Failure(err, map[string]string{"action": action})
			}
			return core.Success(fmt.Sprintf("%d boards", len(boards)), boards)
		case "get":
			if boardID == "" {
				return core.Failure(&core.ValidationError{Field: "boardId", Reason: "is required for this action"}, nil)
			}
			board, err := r.svc.GetBoard(ctx, boardID)
			if err != nil {
				return core.Failure(err, map[string]string{"action": action, "boardId": boardID})
			}
			return core.Success("board "+board.Name, board)
		case "sprints":
			if boardID == "" {
				return core.Failure(&core.ValidationError{Field: "boardId", Reason: "is required for this action"}, nil)
			}
			sprints, err := r.svc.BoardSprints(ctx, boardID)
			if err != nil {
				return core.Failure(err, map[string]string{"action": action, "boardId": boardID})
			}
			return core.Success(fmt.Sprintf("%d sprints", len(sprints)), sprints)
		case "sprint":
			if boardID == "" {
				return core.Failure(&core.ValidationError{Field: "boardId", Reason: "is required for this action"}, nil)
			}
			sprintID, vErr := requireArg(req, "sprintId")
			if vErr != nil {
				return core.Failure(vErr, nil)
			}
			sprint, err := r.svc.GetSprint(ctx, boardID, sprintID)
			if err != nil {
				return core.Failure(err, map[string]string{"action": action, "boardId": boardID, "sprintId": sprintID})
			}
			return core.Success("sprint "+sprint.Name, sprint)
		default:
			return unknownAction("action", action, boardsActions)
		}
	})
}

var timeOperations = []string{"log", "list", "report"}

func (r *Router) HandleTime(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	operation := strings.ToLower(strings.TrimSpace(req.GetString("operation", "")))
	return r.run(ctx, "yt_time", operation, func(ctx context.Context) core.ToolEnvelope {
		switch operation {
		case "log":
			issueID, vErr := requireArg(req, "issueId")
			if vErr != nil {
				return core.Failure(vErr, nil)
			}
			item, err := r.svc.LogWork(ctx, core.LogWorkRequest{
				IssueID:  issueID,
				Date:     req.GetString("date", ""),
				Minutes:  req.GetInt("minutes", 0),
				Text:     req.GetString("text", ""),
				WorkType: req.GetString("workType", ""),
			})
			if err != nil {
				return core.Failure(err, map[string]string{"operation": operation, "issueId": issueID})
			}
			return core.Success("work logged on "+issueID, item)
		case "list":
			issueID, vErr := requireArg(req, "issueId")
			if vErr != nil {
				return core.Failure(vErr, nil)
			}
			items, err := r.svc.ListWork(ctx, issueID, req.GetInt("top", 0))
			if err != nil {
				return core.Failure(err, map[string]string{"operation": operation, "issueId": issueID})
			}
			return core.Success(fmt.Sprintf("%d work items on %s", len(items), issueID), items)
		case "report":
			query := req.GetString("query", "")
			report, err := r.svc.TimeReport(ctx, query)
			if err != nil {
				return core.Failure(err, map[string]string{"operation": operation, "query": query})
			}
			return core.Success("total spent "+report.TotalSpent, report)
		default:
			return unknownAction("operation", operation, timeOperations)
		}
	})
}

var reportTypes = []string{"status", "assignee", "type", "timeline"}

func (r *Router) HandleReports(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	reportType := strings.ToLower(strings.TrimSpace(req.GetString("reportType", "")))
	return r.run(ctx, "yt_reports", reportType, func(ctx context.Context) core.ToolEnvelope {
		query := req.GetString("query", "")
		ctxMap := map[string]string{"reportType": reportType, "query": query}
		switch reportType {
		case "status":
			report, err := r.svc.StatusReport(ctx, query)
			if err != nil {
				return core.Failure(err, ctxMap)
			}
			return core.Success(fmt.Sprintf("%d issues by state", report.Total), report)
		case "assignee":
			report, err := r.svc.AssigneeReport(ctx, query)
			if err != nil {
				return core.Failure(err, ctxMap)
			}
			return core.Success(fmt.Sprintf("%d issues by assignee", report.Total), report)
		case "type":
			report, err := r.svc.TypeReport(ctx, query)
			if err != nil {
				return core.Failure(err, ctxMap)
			}
			return core.Success(fmt.Sprintf("%d issues by type", report.Total), report)
		case "timeline":
			report, err := r.svc.TimelineReport(ctx, query)
			if err != nil {
				return core.Failure(err, ctxMap)
			}
			return core.Success(fmt.Sprintf("%d issues over %d weeks", report.Total, len(report.Points)), report)
		default:
			return unknownAction("reportType", reportType, reportTypes)
		}
	})
}

var knowledgeActions = []string{"list", "get"}

func (r *Router) HandleKnowledge(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	action := strings.ToLower(strings.TrimSpace(req.GetString("action", "")))
	return r.run(ctx, "yt_knowledge", action, func(ctx context.Context) core.ToolEnvelope {
		switch action {
		case "list":
			project := req.GetString("project", "")
			articles, err := r.svc.ListArticles(ctx, project, req.GetInt("top", 0))
			if err != nil {
				return core.Failure(err, map[string]string{"action": action, "project": project})
			}
			return core.Success(fmt.Sprintf("%d articles", len(articles)), articles)
		case "get":
			articleID, vErr := requireArg(req, "articleId")
			if vErr != nil {
				return core.Failure(vErr, nil)
			}
			article, err := r.svc.GetArticle(ctx, articleID)
			if err != nil {
				return core.Failure(err, map[string]string{"action": action, "articleId": articleID})
			}
			return core.Success("article "+article.IDReadable, article)
		default:
			return unknownAction("action", action, knowledgeActions)
		}
	})
}

var usersActions = []string{"me", "search"}

func (r *Router) HandleUsers(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	action := strings.ToLower(strings.TrimSpace(req.GetString("action", "")))
	return r.run(ctx, "yt_users", action, func(ctx context.Context) core.ToolEnvelope {
		switch action {
		case "me":
			me, err := r.svc.Me(ctx)
			if err != nil {
				return core.Failure(err, map[string]string{"action": action})
			}
			return core.Success("authenticated as "+me.Login, me)
		case "search":
			query := req.GetString("query", "")
			users, err := r.svc.SearchUsers(ctx, query, req.GetInt("top", 0))
			if err != nil {
				return core.Failure(err, map[string]string{"action": action, "query": query})
			}
			return core.Success(fmt.Sprintf("%d users", len(users)), users)
		default:
			return unknownAction("action", action, usersActions)
		}
	})
}
