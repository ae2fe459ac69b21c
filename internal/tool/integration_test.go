package tool_test

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/hal9000y/mail-agent/internal/agent"
	"github.com/hal9000y/mail-agent/internal/config"
	"github.com/hal9000y/mail-agent/internal/intent"
	"github.com/hal9000y/mail-agent/internal/llm"
	"github.com/hal9000y/mail-agent/internal/tool"
)

// TestIntegrationResolveInstruction classifies instructions with the real
// inference service. Mail transports are mocked, nothing is sent.
func TestIntegrationResolveInstruction(t *testing.T) {
	if os.Getenv("MAIL_AGENT_INTEGRATION") == "" {
		t.Skip("Skipping integration test: MAIL_AGENT_INTEGRATION env var must be set")
	}

	cfg, err := config.Load(config.Options{EnvFile: os.Getenv("ENV_FILE")})
	if err != nil {
		t.Skipf("Skipping integration test: %v", err)
	}
	if cfg.LLM.Provider != config.ProviderOpenAI {
		t.Skip("Skipping integration test: only the openai provider is exercised")
	}

	model, err := llm.NewOpenAI(llm.OpenAIConfig{
		APIKey:  cfg.LLM.APIKey,
		Model:   cfg.LLM.Model,
		BaseURL: cfg.LLM.BaseURL,
	})
	require.NoError(t, err)

	log := zaptest.NewLogger(t)
	exec := agent.NewExecutor(&senderMock{}, &readerMock{}, model, agent.AutoConfirm, log)
	server := tool.NewServer(exec, intent.NewResolver(model, log))

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client"}, nil)
	clientTransport, serverTransport := mcp.NewInMemoryTransports()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	serverSession, err := server.Connect(ctx, serverTransport, nil)
	require.NoError(t, err)
	defer serverSession.Close()

	clientSession, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	defer clientSession.Close()

	cases := []struct {
		instruction string
		function    string
	}{
		{instruction: "send an email to a@b.com saying hi", function: "send_email"},
		{instruction: "summarize my latest email", function: "summarize_latest_email"},
		{instruction: "book me a flight", function: "none"},
	}

	for _, tc := range cases {
		t.Run(tc.instruction, func(t *testing.T) {
			result, err := clientSession.CallTool(ctx, &mcp.CallToolParams{
				Name:      "resolve_instruction",
				Arguments: tool.ResolveInstructionRequest{Instruction: tc.instruction},
			})
			require.NoError(t, err)
			require.False(t, result.IsError, "resolve failed: %v", result.Content)

			var resp tool.ResolveInstructionResponse
			require.NoError(t, json.Unmarshal([]byte(result.Content[0].(*mcp.TextContent).Text), &resp))

			t.Logf("%q -> %+v", tc.instruction, resp)
			assert.Equal(t, tc.function, resp.Function)
			if resp.Args != nil {
				assert.Equal(t, "a@b.com", resp.Args.Recipient)
			}
		})
	}
}
