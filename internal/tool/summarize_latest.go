package tool

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hal9000y/mail-agent/internal/agent"
	"github.com/hal9000y/mail-agent/internal/intent"
)

// SummarizeLatestRequest takes no arguments.
type SummarizeLatestRequest struct{}

// SummarizeLatestResponse contains the summary, if there was an unread email.
type SummarizeLatestResponse struct {
	Found   bool   `json:"found" jsonschema:"whether an unread email was found"`
	Summary string `json:"summary,omitempty" jsonschema:"summary of the latest unread email"`
	Message string `json:"message,omitempty" jsonschema:"explanation when nothing was summarized"`
}

// NewSummarizeLatest creates a new SummarizeLatest tool.
func NewSummarizeLatest(exec executor) *SummarizeLatest {
	return &SummarizeLatest{exec: exec}
}

// SummarizeLatest summarizes the newest unread email.
type SummarizeLatest struct {
	exec executor
}

// SummarizeLatest fetches and summarizes the latest unread email.
func (t *SummarizeLatest) SummarizeLatest(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ SummarizeLatestRequest,
) (*mcp.CallToolResult, SummarizeLatestResponse, error) {
	report, err := t.exec.Execute(ctx, intent.SummarizeLatest{})
	if err != nil {
		return nil, SummarizeLatestResponse{}, fmt.Errorf("summarize latest email failed: %w", err)
	}

	if report.Title != agent.SummaryTitle {
		return nil, SummarizeLatestResponse{Message: report.Text}, nil
	}

	return nil, SummarizeLatestResponse{Found: true, Summary: report.Text}, nil
}
