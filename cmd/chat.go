package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/teemow/slotkeeper/internal/dialogue"
	"github.com/teemow/slotkeeper/internal/instrumentation"
)

const chatGreeting = "Hi! I can check your calendar, list free slots and book events. Type 'exit' to quit."

func newChatCmd() *cobra.Command {
	var (
		readOnly    bool
		metricsAddr string
	)

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Talk to the booking assistant",
		Long: `Start an interactive chat with the booking assistant. Each line you type is
sent to an OpenAI-compatible model which checks availability, lists free
slots and books events through the calendar tools.

The API key is read from llm.api_key or SLOTKEEPER_LLM_API_KEY. Set
llm.base_url to use another OpenAI-compatible endpoint.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat(cmd, readOnly, metricsAddr)
		},
	}

	cmd.Flags().String("model", "", "Chat model (config: llm.model)")
	cmd.Flags().BoolVar(&readOnly, "read-only", false, "Do not offer the booking tool to the model")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address while chatting (e.g. :9090)")

	return cmd
}

func runChat(cmd *cobra.Command, readOnly bool, metricsAddr string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	logger := newLogger(cmd.ErrOrStderr())

	provider, shutdownProvider, err := newInstrumentation(ctx, logger)
	if err != nil {
		return err
	}
	defer shutdownProvider()

	if metricsAddr != "" && provider.Enabled() {
		metricsServer, err := startMetricsServer(metricsAddr, provider, logger)
		if err != nil {
			return err
		}
		defer func() { _ = metricsServer.Shutdown(context.Background()) }()
	}

	a, err := newApp(ctx, cmd.Flags(), logger, provider.Metrics())
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	if err := a.cfg.ValidateLLM(); err != nil {
		return err
	}

	// tool calls are audited on stderr only in debug mode
	var audit *instrumentation.AuditLogger
	if debugMode {
		audit = provider.AuditLogger(logger)
	}

	assistant, err := dialogue.NewAssistant(dialogue.Config{
		Client:       dialogue.NewClient(a.cfg.LLM.APIKey, a.cfg.LLM.BaseURL, a.cfg.LLM.Timeout),
		Executor:     a.orchestrator,
		Model:        a.cfg.LLM.Model,
		Temperature:  a.cfg.LLM.Temperature,
		History:      a.cfg.LLM.History,
		ReadOnly:     readOnly,
		CalendarHash: a.calendarHash,
		Audit:        audit,
		Metrics:      provider.Metrics(),
		Logger:       logger,
	})
	if err != nil {
		return fmt.Errorf("failed to create assistant: %w", err)
	}

	sessions := dialogue.NewSessions(provider.Metrics())
	sess := sessions.Start(ctx)
	defer sessions.End(ctx, sess.ID)

	return chatLoop(ctx, cmd.InOrStdin(), cmd.OutOrStdout(), assistant, sess)
}

// chatLoop answers one line at a time until exit, end of input or
// cancellation.
func chatLoop(ctx context.Context, in io.Reader, out io.Writer, assistant *dialogue.Assistant, sess *dialogue.Session) error {
	fmt.Fprintln(out, chatGreeting)

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}

		line := strings.TrimSpace(scanner.Text())
		switch strings.ToLower(line) {
		case "":
			continue
		case "exit", "quit", "bye":
			fmt.Fprintln(out, "Goodbye!")
			return nil
		}

		fmt.Fprintln(out, assistant.Reply(ctx, sess, line))

		if ctx.Err() != nil {
			return nil
		}
	}
}
