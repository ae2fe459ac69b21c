package tool

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hal9000y/mail-agent/internal/intent"
)

// ResolveInstructionRequest contains a natural language instruction.
type ResolveInstructionRequest struct {
	Instruction string `json:"instruction" jsonschema:"what the user wants, in their own words"`
}

// ResolveInstructionResponse is the decoded directive.
type ResolveInstructionResponse struct {
	Function string          `json:"function" jsonschema:"one of send_email, summarize_latest_email, ask_missing_info, none"`
	Args     *EmailArguments `json:"args,omitempty" jsonschema:"email arguments for send_email"`
	Missing  []string        `json:"missing,omitempty" jsonschema:"fields to ask the user for, for ask_missing_info"`
}

// NewResolveInstruction creates a new ResolveInstruction tool.
func NewResolveInstruction(res resolver) *ResolveInstruction {
	return &ResolveInstruction{res: res}
}

// ResolveInstruction classifies instructions without executing them.
type ResolveInstruction struct {
	res resolver
}

// ResolveInstruction classifies input.Instruction.
func (t *ResolveInstruction) ResolveInstruction(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ResolveInstructionRequest,
) (*mcp.CallToolResult, ResolveInstructionResponse, error) {
	d, err := t.res.Resolve(ctx, input.Instruction)
	if err != nil {
		return nil, ResolveInstructionResponse{}, fmt.Errorf("res.Resolve failed: %w", err)
	}

	var out responseBuilder
	if err := d.Apply(ctx, &out); err != nil {
		return nil, ResolveInstructionResponse{}, err
	}

	return nil, out.resp, nil
}

type responseBuilder struct {
	resp ResolveInstructionResponse
}

func (b *responseBuilder) SendEmail(_ context.Context, d intent.SendEmail) error {
	b.resp = ResolveInstructionResponse{
		Function: d.Name(),
		Args:     newEmailArguments(d.Email),
	}
	return nil
}

func (b *responseBuilder) SummarizeLatest(_ context.Context, d intent.SummarizeLatest) error {
	b.resp = ResolveInstructionResponse{Function: d.Name()}
	return nil
}

func (b *responseBuilder) AskMissingInfo(_ context.Context, d intent.AskMissingInfo) error {
	missing := make([]string, 0, len(d.Missing))
	for _, f := range d.Missing {
		missing = append(missing, string(f))
	}
	b.resp = ResolveInstructionResponse{Function: d.Name(), Missing: missing}
	return nil
}

func (b *responseBuilder) None(_ context.Context, d intent.None) error {
	b.resp = ResolveInstructionResponse{Function: d.Name()}
	return nil
}
