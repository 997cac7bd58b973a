// Package mcp exposes YouTrack operations as MCP tools. This file is the
// composition root: it builds the server, registers every tool against the
// router, and owns nothing else.
package mcp

import (
	"fmt"
	"log/slog"

	"github.com/mark3labs/mcp-go/server"

	"github.com/trackhub/trackhub/internal/core"
)

// NewServer assembles the MCP server with all tools registered. The server
// speaks over stdio; Serve blocks until the transport closes.
func NewServer(svc *core.Service, logger *slog.Logger, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"trackhub",
		version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(instructions(svc)),
	)

	r := NewRouter(svc, logger)
	s.AddTool(projectsTool(), r.HandleProjects)
	s.AddTool(issuesTool(), r.HandleIssues)
	s.AddTool(boardsTool(), r.HandleBoards)
	s.AddTool(timeTool(), r.HandleTime)
	s.AddTool(reportsTool(), r.HandleReports)
	s.AddTool(knowledgeTool(), r.HandleKnowledge)
	s.AddTool(usersTool(), r.HandleUsers)
	return s
}

// Serve runs the server on stdin/stdout. Logging goes to stderr; stdout
// belongs to the protocol.
func Serve(s *server.MCPServer) error {
	return server.ServeStdio(s)
}

func instructions(svc *core.Service) string {
	base := "TrackHub exposes a YouTrack instance as tools. " +
		"Every response is a JSON envelope: ok, message, result, and on failure " +
		"an error with a stable code and guidance. Issue creation runs a " +
		"multi-step workflow; when some fields could not be applied the issue " +
		"is still created and the envelope lists what is missing."
	if enforced := svc.Scope().Enforced(); enforced != "" {
		base += fmt.Sprintf(" This server is locked to project %q: project "+
			"arguments naming anything else are ignored.", enforced)
	}
	return base
}
