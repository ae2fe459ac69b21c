// mail-agent sends and summarizes email from natural language instructions.
package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hal9000y/mail-agent/internal/agent"
	"github.com/hal9000y/mail-agent/internal/config"
	"github.com/hal9000y/mail-agent/internal/draft"
	"github.com/hal9000y/mail-agent/internal/intent"
	"github.com/hal9000y/mail-agent/internal/tool"
)

type options struct {
	envFile    string
	configFile string
}

type mcpOptions struct {
	transport string
	httpAddr  string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:           "mail-agent",
		Short:         "Send and summarize email with natural language instructions",
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runREPL(cmd, opts)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&opts.envFile, "env-file", "", "Path to env file (defaults to ./.env when present)")
	pf.StringVar(&opts.configFile, "config", "", "Path to a yaml, toml or json config file")
	pf.String("log-level", "info", "Log level: debug, info, warn or error")
	pf.String("log-format", "console", "Log format: console or json")
	pf.String("log-file", "", "Path to log file")
	pf.String("metrics-addr", "", "Serve Prometheus metrics on this address, empty to disable")

	root.AddCommand(newMCPCmd(opts))

	return root
}

func newMCPCmd(opts *options) *cobra.Command {
	mopts := &mcpOptions{}

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Serve the agent operations as MCP tools",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runMCP(cmd, opts, mopts)
		},
	}

	cmd.Flags().StringVar(&mopts.transport, "transport", "stdio", "MCP transport: stdio or http")
	cmd.Flags().StringVar(&mopts.httpAddr, "http-addr", "localhost:8080", "Listen address of the http transport")

	return cmd
}

func runREPL(cmd *cobra.Command, opts *options) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cmd, opts, false)
	if err != nil {
		return err
	}
	defer a.Close()

	p := agent.NewPrompter(cmd.InOrStdin(), cmd.OutOrStdout())
	exec := agent.NewExecutor(a.sender, a.reader, a.model, p, a.log)
	session := agent.NewSession(
		intent.NewResolver(a.model, a.log),
		draft.NewRegenerator(a.model, a.log),
		exec, p, a.metrics, a.log,
	)

	done := make(chan error, 1)
	go func() {
		done <- session.Run(ctx)
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		// Run may be blocked reading stdin.
		p.Println("")
		p.Println(agent.Farewell)
		return nil
	case err := <-a.serveErr:
		return err
	}
}

func runMCP(cmd *cobra.Command, opts *options, mopts *mcpOptions) error {
	if mopts.transport != "stdio" && mopts.transport != "http" {
		return fmt.Errorf("unsupported --transport %q", mopts.transport)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cmd, opts, mopts.transport == "stdio")
	if err != nil {
		return err
	}
	defer a.Close()

	exec := agent.NewExecutor(a.sender, a.reader, a.model, agent.AutoConfirm, a.log)
	srv := tool.NewServer(exec, intent.NewResolver(a.model, a.log))

	var errCh <-chan error
	if mopts.transport == "stdio" {
		var stopStdio func()
		stopStdio, errCh = serveStdio(ctx, srv, a.log)
		defer stopStdio()
	} else {
		ln, err := net.Listen("tcp", mopts.httpAddr)
		if err != nil {
			return fmt.Errorf("net.Listen failed: %w", err)
		}
		mux := http.NewServeMux()
		mux.Handle("/mcp", mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server { return srv }, nil))

		var stopHTTP func()
		stopHTTP, errCh = serveHTTP(&http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}, ln, "mcp", a.log)
		defer stopHTTP()
	}

	select {
	case err, ok := <-errCh:
		if ok && err != nil {
			a.log.Error("mcp transport failed", zap.Error(err))
			return err
		}
		return nil
	case err := <-a.serveErr:
		return err
	case <-ctx.Done():
		a.log.Info("shutdown signal received")
		return nil
	}
}

func serveStdio(ctx context.Context, srv *mcp.Server, log *zap.Logger) (func(), <-chan error) {
	errStdioCh := make(chan error, 1)
	ctx, cancel := context.WithCancel(ctx)
	go func() {
		defer close(errStdioCh)
		log.Info("starting stdio transport")

		if err := srv.Run(ctx, &mcp.StdioTransport{}); err != nil && !errors.Is(err, context.Canceled) {
			errStdioCh <- fmt.Errorf("srv.Run failed: %w", err)
		}
	}()

	return func() {
		cancel()

		<-errStdioCh
		log.Info("stdio transport stopped")
	}, errStdioCh
}

func serveHTTP(srv *http.Server, ln net.Listener, name string, log *zap.Logger) (func(), <-chan error) {
	errHTTPCh := make(chan error, 1)
	log = log.With(zap.String("server", name), zap.String("addr", ln.Addr().String()))
	go func() {
		defer close(errHTTPCh)

		log.Info("starting http server")

		err := srv.Serve(ln)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			err = fmt.Errorf("srv.Serve failed: %w", err)
			log.Error("http server failed", zap.Error(err))
			errHTTPCh <- err
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Warn("srv.Shutdown failed", zap.Error(err))
		}

		<-errHTTPCh
		log.Info("http server stopped")
	}, errHTTPCh
}

func loadConfig(cmd *cobra.Command, opts *options) (*config.Config, error) {
	cfg, err := config.Load(config.Options{
		EnvFile:    opts.envFile,
		ConfigFile: opts.configFile,
		Flags:      cmd.Flags(),
	})
	if err != nil {
		return nil, fmt.Errorf("config.Load failed: %w", err)
	}
	return cfg, nil
}
