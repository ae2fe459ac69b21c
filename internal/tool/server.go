// Package tool exposes the agent operations as MCP tools.
package tool

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// NewServer creates an MCP server with the mail agent tools. The host is
// expected to get user approval before calling send_email.
func NewServer(exec executor, res resolver) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{Name: "mail-agent", Version: "v1.0.0"}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "send_email",
		Description: "Send a plain text email from the configured account",
	}, NewSendEmail(exec).SendEmail)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "summarize_latest_email",
		Description: "Summarize the latest unread email in the inbox",
	}, NewSummarizeLatest(exec).SummarizeLatest)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "resolve_instruction",
		Description: "Classify a natural language instruction into send_email, summarize_latest_email, ask_missing_info or none without executing it",
	}, NewResolveInstruction(res).ResolveInstruction)

	return server
}
