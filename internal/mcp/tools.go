package mcp

import "github.com/mark3labs/mcp-go/mcp"

// Tool declarations. Each tool carries an action enum plus action-specific
// fields; the router's validation mirrors every schema's required set, so a
// call missing a required argument fails with a structured validation error
// before any network I/O.

func projectsTool() mcp.Tool {
	return mcp.NewTool("yt_projects",
		mcp.WithDescription("Work with YouTrack projects: list visible projects, fetch one project, or list its custom fields. When the server is locked to one project, listing returns only that project."),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{
			Title:        "YouTrack projects",
			ReadOnlyHint: mcp.ToBoolPtr(true),
		}),
		mcp.WithString("action",
			mcp.Required(),
			mcp.Description("What to do: 'list' all projects, 'get' one project, 'fields' for its custom field schema"),
			mcp.Enum("list", "get", "fields"),
		),
		mcp.WithString("project",
			mcp.Description("Project id or short name. Required for 'get' and 'fields' unless the server enforces a project."),
		),
	)
}

func issuesTool() mcp.Tool {
	return mcp.NewTool("yt_issues",
		mcp.WithDescription("Work with YouTrack issues: get, create, update, delete, comment, list comments, link two issues, or search with a YouTrack query. Creation runs the full draft-and-submit workflow and reports partial failures per field."),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{
			Title: "YouTrack issues",
		}),
		mcp.WithString("action",
			mcp.Required(),
			mcp.Description("What to do with issues"),
			mcp.Enum("get", "create", "update", "delete", "comment", "comments", "link", "search"),
		),
		mcp.WithString("issueId",
			mcp.Description("Issue id, e.g. 'TEAM-123'. Required for get, update, delete, comment, comments, link."),
		),
		mcp.WithString("project",
			mcp.Description("Project for 'create'. Ignored when the server enforces a project."),
		),
		mcp.WithString("summary", mcp.Description("Issue summary. Required for 'create'.")),
		mcp.WithString("description", mcp.Description("Issue description (markdown).")),
		mcp.WithString("type", mcp.Description("Issue type, e.g. Task, Bug, Epic, User Story, Feature, DevOps.")),
		mcp.WithString("priority", mcp.Description("Priority name. Creation defaults to Normal.")),
		mcp.WithString("assignee", mcp.Description("Assignee login.")),
		mcp.WithString("state", mcp.Description("State name, for 'update'.")),
		mcp.WithString("subsystem", mcp.Description("Subsystem name, for 'update'.")),
		mcp.WithNumber("estimationMinutes", mcp.Description("Estimation in minutes, for 'update'.")),
		mcp.WithString("dueDate", mcp.Description("Due date YYYY-MM-DD, for 'create'.")),
		mcp.WithArray("tags", mcp.Description("Tag names to add."), mcp.Items(map[string]any{"type": "string"})),
		mcp.WithString("parentId", mcp.Description("Parent issue id; the new issue becomes its subtask.")),
		mcp.WithString("devTeam", mcp.Description("Dev team value. Applies to Task, Feature, Bug, DevOps types.")),
		mcp.WithString("businessProc", mcp.Description("Business process value, set after submission.")),
		mcp.WithNumber("sorting", mcp.Description("Sorting order. Applies to Epic, User Story, Feature, or untyped issues.")),
		mcp.WithString("text", mcp.Description("Comment text. Required for 'comment'.")),
		mcp.WithString("targetId", mcp.Description("Other issue id for 'link'.")),
		mcp.WithString("linkType", mcp.Description("Link type or directed phrase, e.g. 'relates to', 'depends on'. Defaults to 'relates to'.")),
		mcp.WithString("query", mcp.Description("YouTrack query for 'search'. The server pins it to the enforced project.")),
		mcp.WithNumber("top", mcp.Description("Page size for 'search' and 'comments' (default 50, max 500).")),
		mcp.WithNumber("skip", mcp.Description("Results to skip, for 'search' paging.")),
	)
}

func boardsTool() mcp.Tool {
	return mcp.NewTool("yt_boards",
		mcp.WithDescription("Read agile boards and sprints: list boards, fetch one board, list a board's sprints, or fetch one sprint."),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{
			Title:        "YouTrack agile boards",
			ReadOnlyHint: mcp.ToBoolPtr(true),
		}),
		mcp.WithString("action",
			mcp.Required(),
			mcp.Description("What to read"),
			mcp.Enum("list", "get", "sprints", "sprint"),
		),
		mcp.WithString("boardId", mcp.Description("Board id. Required for get, sprints, sprint.")),
		mcp.WithString("sprintId", mcp.Description("Sprint id. Required for 'sprint'.")),
	)
}

func timeTool() mcp.Tool {
	return mcp.NewTool("yt_time",
		mcp.WithDescription("Track spent time: log work on an issue, list an issue's work items, or aggregate spent time per author for a query."),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{
			Title: "YouTrack time tracking",
		}),
		mcp.WithString("operation",
			mcp.Required(),
			mcp.Description("What to do"),
			mcp.Enum("log", "list", "report"),
		),
		mcp.WithString("issueId", mcp.Description("Issue id. Required for 'log' and 'list'.")),
		mcp.WithNumber("minutes", mcp.Description("Minutes spent. Required for 'log'.")),
		mcp.WithString("date", mcp.Description("Work date YYYY-MM-DD. Defaults to today.")),
		mcp.WithString("text", mcp.Description("Work item comment.")),
		mcp.WithString("workType", mcp.Description("Work type name, e.g. Development.")),
		mcp.WithString("query", mcp.Description("Issue query for 'report'. Pinned to the enforced project.")),
		mcp.WithNumber("top", mcp.Description("Page size for 'list'.")),
	)
}

func reportsTool() mcp.Tool {
	return mcp.NewTool("yt_reports",
		mcp.WithDescription("Aggregate issues matching a query: distribution by state, assignee, or type, or a weekly created/resolved timeline."),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{
			Title:        "YouTrack reports",
			ReadOnlyHint: mcp.ToBoolPtr(true),
		}),
		mcp.WithString("reportType",
			mcp.Required(),
			mcp.Description("Which aggregation to run"),
			mcp.Enum("status", "assignee", "type", "timeline"),
		),
		mcp.WithString("query", mcp.Description("Issue query to aggregate. Pinned to the enforced project; may be empty when one is enforced.")),
	)
}

func knowledgeTool() mcp.Tool {
	return mcp.NewTool("yt_knowledge",
		mcp.WithDescription("Read the knowledge base: list a project's articles or fetch one article with content."),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{
			Title:        "YouTrack knowledge base",
			ReadOnlyHint: mcp.ToBoolPtr(true),
		}),
		mcp.WithString("action",
			mcp.Required(),
			mcp.Description("What to read"),
			mcp.Enum("list", "get"),
		),
		mcp.WithString("project", mcp.Description("Project for 'list'. Ignored when the server enforces a project.")),
		mcp.WithString("articleId", mcp.Description("Article id, e.g. 'TEAM-A-1'. Required for 'get'.")),
		mcp.WithNumber("top", mcp.Description("Page size for 'list'.")),
	)
}

func usersTool() mcp.Tool {
	return mcp.NewTool("yt_users",
		mcp.WithDescription("Look up users: the user the token authenticates as, or search the user directory."),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{
			Title:        "YouTrack users",
			ReadOnlyHint: mcp.ToBoolPtr(true),
		}),
		mcp.WithString("action",
			mcp.Required(),
			mcp.Description("What to look up"),
			mcp.Enum("me", "search"),
		),
		mcp.WithString("query", mcp.Description("Login or name fragment for 'search'.")),
		mcp.WithNumber("top", mcp.Description("Page size for 'search'.")),
	)
}
