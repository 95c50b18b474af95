// Package dialogue is the chat front end. It sends user text to an
// OpenAI-compatible chat-completions API with the booking operations
// declared as function tools, runs the tool calls the model makes and
// returns the model's final answer.
package dialogue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/teemow/slotkeeper/internal/booking"
	"github.com/teemow/slotkeeper/internal/instrumentation"
	"github.com/teemow/slotkeeper/internal/logging"
)

// SystemPrompt frames every conversation.
const SystemPrompt = "You are a helpful AI assistant that helps users book and check calendar events. " +
	"Use the tools to check availability, list free slots and book events. " +
	"Pass times to the tools the way the user said them. " +
	"Never claim an event was booked unless the booking tool said so."

// Defaults.
const (
	DefaultTemperature   = 0.4
	DefaultHistory       = 20
	DefaultMaxToolRounds = 5
)

// ErrTooManyToolRounds is returned when the model keeps calling tools.
var ErrTooManyToolRounds = errors.New("too many tool rounds")

// Executor runs typed commands. *booking.Orchestrator implements it.
type Executor interface {
	Run(ctx context.Context, cmd booking.Command) booking.Outcome
}

// Config wires an Assistant.
type Config struct {
	Client   Completer
	Executor Executor

	Model       string
	Temperature float32
	// History bounds the transcript kept per session, in messages.
	History       int
	MaxToolRounds int
	ReadOnly      bool

	// CalendarHash tags audit records.
	CalendarHash string

	Metrics *instrumentation.Metrics
	Audit   *instrumentation.AuditLogger
	Logger  *slog.Logger
}

// Assistant answers chat turns.
type Assistant struct {
	client        Completer
	executor      Executor
	model         string
	temperature   float32
	history       int
	maxToolRounds int
	tools         []openai.Tool
	calendarHash  string
	metrics       *instrumentation.Metrics
	audit         *instrumentation.AuditLogger
	logger        *slog.Logger
}

// NewAssistant creates an Assistant.
func NewAssistant(cfg Config) (*Assistant, error) {
	if cfg.Client == nil {
		return nil, fmt.Errorf("chat client cannot be nil")
	}
	if cfg.Executor == nil {
		return nil, fmt.Errorf("executor cannot be nil")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.History <= 0 {
		cfg.History = DefaultHistory
	}
	if cfg.MaxToolRounds <= 0 {
		cfg.MaxToolRounds = DefaultMaxToolRounds
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &Assistant{
		client:        cfg.Client,
		executor:      cfg.Executor,
		model:         cfg.Model,
		temperature:   cfg.Temperature,
		history:       cfg.History,
		maxToolRounds: cfg.MaxToolRounds,
		tools:         Tools(cfg.ReadOnly),
		calendarHash:  cfg.CalendarHash,
		metrics:       cfg.Metrics,
		audit:         cfg.Audit,
		logger:        logging.WithService(cfg.Logger, instrumentation.ServiceLLM),
	}, nil
}

// Reply runs one turn of sess and returns the text to show the user. Model
// failures are reported in the text; the turn is then dropped from the
// transcript.
func (a *Assistant) Reply(ctx context.Context, sess *Session, input string) string {
	sess.mu.Lock()
	defer sess.mu.Unlock()

	logger := logging.WithSession(a.logger, sess.ID)

	turn := make([]openai.ChatCompletionMessage, 0, len(sess.transcript)+1)
	turn = append(turn, sess.transcript...)
	turn = append(turn, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: input,
	})

	answer, turn, err := a.converse(ctx, sess.ID, turn)
	if err != nil {
		logger.WarnContext(ctx, "chat turn failed", logging.Err(err))
		return "Sorry, I encountered an error: " + err.Error()
	}

	sess.transcript = trim(turn, a.history)
	return answer
}

func (a *Assistant) converse(ctx context.Context, session string, turn []openai.ChatCompletionMessage) (string, []openai.ChatCompletionMessage, error) {
	for round := 0; round < a.maxToolRounds; round++ {
		msg, err := a.complete(ctx, turn)
		if err != nil {
			return "", nil, err
		}
		turn = append(turn, msg)

		if len(msg.ToolCalls) == 0 {
			return msg.Content, turn, nil
		}

		for _, tc := range msg.ToolCalls {
			turn = append(turn, openai.ChatCompletionMessage{
				Role:       openai.ChatMessageRoleTool,
				Content:    a.runTool(ctx, session, tc),
				Name:       tc.Function.Name,
				ToolCallID: tc.ID,
			})
		}
	}
	return "", nil, ErrTooManyToolRounds
}

func (a *Assistant) complete(ctx context.Context, turn []openai.ChatCompletionMessage) (openai.ChatCompletionMessage, error) {
	ctx, span := instrumentation.StartLLMSpan(ctx, a.model)
	defer span.End()

	messages := make([]openai.ChatCompletionMessage, 0, len(turn)+1)
	messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: SystemPrompt})
	messages = append(messages, turn...)

	start := time.Now()
	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       a.model,
		Temperature: a.temperature,
		Messages:    messages,
		Tools:       a.tools,
	})
	if err == nil && len(resp.Choices) == 0 {
		err = errors.New("empty response from model")
	}

	status := instrumentation.StatusSuccess
	if err != nil {
		status = instrumentation.StatusError
		instrumentation.SetSpanError(span, err)
	}
	a.metrics.RecordLLMRequest(ctx, a.model, status, time.Since(start))

	if err != nil {
		return openai.ChatCompletionMessage{}, fmt.Errorf("chat completion failed: %w", err)
	}

	a.logger.DebugContext(ctx, "chat completion",
		slog.Int("tool_calls", len(resp.Choices[0].Message.ToolCalls)),
		slog.Int("tokens", resp.Usage.TotalTokens))

	return resp.Choices[0].Message, nil
}

// runTool executes one tool call. Errors go back to the model as text.
func (a *Assistant) runTool(ctx context.Context, session string, tc openai.ToolCall) string {
	inv := instrumentation.NewToolInvocation(tc.Function.Name).
		WithSession(session).
		WithCalendar(a.calendarHash)

	cmd, err := DecodeCommand(tc.Function.Name, tc.Function.Arguments)
	if err == nil && !a.declared(cmd.Name()) {
		err = fmt.Errorf("tool %s is not available", cmd.Name())
	}
	if err != nil {
		a.audit.LogToolInvocation(inv.WithSpanContext(ctx).CompleteWithError(err))
		return "Error: " + err.Error()
	}

	out := a.executor.Run(ctx, cmd)
	if b, ok := out.(booking.BookOutcome); ok {
		inv.WithBooking(b.Summary, b.Interval.String()).WithOutcome(b.State.String())
	}
	inv.WithSpanContext(ctx)
	if err := booking.OutcomeError(out); err != nil {
		inv.CompleteWithError(err)
	} else {
		inv.CompleteSuccess()
	}
	a.audit.LogToolInvocation(inv)

	return booking.Format(out)
}

func (a *Assistant) declared(name string) bool {
	for _, t := range a.tools {
		if t.Function != nil && t.Function.Name == name {
			return true
		}
	}
	return false
}
