package dialogue

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/slotkeeper/internal/booking"
)

// fakeChatAPI serves scripted chat-completion responses in order.
type fakeChatAPI struct {
	mu       sync.Mutex
	replies  []openai.ChatCompletionMessage
	repeat   bool
	status   int
	requests []openai.ChatCompletionRequest
}

func (f *fakeChatAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/v1/chat/completions" {
		http.NotFound(w, r)
		return
	}

	var req openai.ChatCompletionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)

	w.Header().Set("Content-Type", "application/json")
	if f.status != 0 {
		w.WriteHeader(f.status)
		_, _ = w.Write([]byte(`{"error":{"message":"model overloaded","type":"server_error"}}`))
		return
	}

	if len(f.replies) == 0 {
		http.Error(w, "no scripted reply", http.StatusInternalServerError)
		return
	}
	msg := f.replies[0]
	if !f.repeat {
		f.replies = f.replies[1:]
	}

	_ = json.NewEncoder(w).Encode(openai.ChatCompletionResponse{
		ID:      "chatcmpl-test",
		Object:  "chat.completion",
		Model:   req.Model,
		Choices: []openai.ChatCompletionChoice{{Index: 0, Message: msg}},
	})
}

func (f *fakeChatAPI) request(i int) openai.ChatCompletionRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[i]
}

func (f *fakeChatAPI) requestCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

// fakeExecutor records commands and answers every one with the same outcome.
type fakeExecutor struct {
	mu       sync.Mutex
	outcome  booking.Outcome
	commands []booking.Command
}

func (e *fakeExecutor) Run(_ context.Context, cmd booking.Command) booking.Outcome {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.commands = append(e.commands, cmd)
	return e.outcome
}

func assistantMsg(content string) openai.ChatCompletionMessage {
	return openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: content}
}

func toolCallMsg(id, name, args string) openai.ChatCompletionMessage {
	return openai.ChatCompletionMessage{
		Role: openai.ChatMessageRoleAssistant,
		ToolCalls: []openai.ToolCall{{
			ID:       id,
			Type:     openai.ToolTypeFunction,
			Function: openai.FunctionCall{Name: name, Arguments: args},
		}},
	}
}

func newTestAssistant(t *testing.T, api *fakeChatAPI, exec Executor, readOnly bool) *Assistant {
	t.Helper()

	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	a, err := NewAssistant(Config{
		Client:      NewClient("test-key", srv.URL+"/v1", 5*time.Second),
		Executor:    exec,
		Model:       "test-model",
		Temperature: DefaultTemperature,
		ReadOnly:    readOnly,
	})
	require.NoError(t, err)
	return a
}

func TestNewAssistant_Validation(t *testing.T) {
	_, err := NewAssistant(Config{Executor: &fakeExecutor{}})
	assert.Error(t, err)

	_, err = NewAssistant(Config{Client: NewClient("k", "", 0)})
	assert.Error(t, err)
}

func TestReply_PlainAnswer(t *testing.T) {
	api := &fakeChatAPI{replies: []openai.ChatCompletionMessage{assistantMsg("Hello! How can I help?")}}
	a := newTestAssistant(t, api, &fakeExecutor{}, false)
	sess := NewSessions(nil).Start(context.Background())

	got := a.Reply(context.Background(), sess, "hi")
	assert.Equal(t, "Hello! How can I help?", got)

	req := api.request(0)
	assert.Equal(t, "test-model", req.Model)
	require.Len(t, req.Messages, 2)
	assert.Equal(t, openai.ChatMessageRoleSystem, req.Messages[0].Role)
	assert.Equal(t, "hi", req.Messages[1].Content)
	assert.Len(t, req.Tools, 4)

	assert.Len(t, sess.Transcript(), 2)
}

func TestReply_ToolCall(t *testing.T) {
	api := &fakeChatAPI{replies: []openai.ChatCompletionMessage{
		toolCallMsg("call_1", booking.NameCheckAvailability, `{"time":"2025-07-03 15:00"}`),
		assistantMsg("Yes, 3pm on July 3 is free."),
	}}
	exec := &fakeExecutor{outcome: booking.CheckOutcome{Available: true}}
	a := newTestAssistant(t, api, exec, false)
	sess := NewSessions(nil).Start(context.Background())

	got := a.Reply(context.Background(), sess, "Am I free July 3 at 3pm?")
	assert.Equal(t, "Yes, 3pm on July 3 is free.", got)

	require.Len(t, exec.commands, 1)
	assert.Equal(t, booking.CheckAvailability{TimeText: "2025-07-03 15:00"}, exec.commands[0])

	require.Equal(t, 2, api.requestCount())
	second := api.request(1)
	last := second.Messages[len(second.Messages)-1]
	assert.Equal(t, openai.ChatMessageRoleTool, last.Role)
	assert.Equal(t, "call_1", last.ToolCallID)
	assert.Equal(t, booking.MsgAvailable, last.Content)

	// user, assistant tool call, tool result, final answer
	assert.Len(t, sess.Transcript(), 4)
}

func TestReply_TranscriptCarriesOver(t *testing.T) {
	api := &fakeChatAPI{replies: []openai.ChatCompletionMessage{
		assistantMsg("first"),
		assistantMsg("second"),
	}}
	a := newTestAssistant(t, api, &fakeExecutor{}, false)
	sess := NewSessions(nil).Start(context.Background())

	a.Reply(context.Background(), sess, "one")
	a.Reply(context.Background(), sess, "two")

	req := api.request(1)
	require.Len(t, req.Messages, 4)
	assert.Equal(t, "one", req.Messages[1].Content)
	assert.Equal(t, "first", req.Messages[2].Content)
	assert.Equal(t, "two", req.Messages[3].Content)
}

func TestReply_ReadOnlyRefusesBooking(t *testing.T) {
	api := &fakeChatAPI{replies: []openai.ChatCompletionMessage{
		toolCallMsg("call_1", booking.NameBookEvent, `{"summary":"Sync","start":"tomorrow 10am"}`),
		assistantMsg("I can't book events right now."),
	}}
	exec := &fakeExecutor{}
	a := newTestAssistant(t, api, exec, true)
	sess := NewSessions(nil).Start(context.Background())

	got := a.Reply(context.Background(), sess, "book a sync tomorrow 10am")
	assert.Equal(t, "I can't book events right now.", got)
	assert.Empty(t, exec.commands)

	for _, tool := range api.request(0).Tools {
		assert.NotEqual(t, booking.NameBookEvent, tool.Function.Name)
	}
	second := api.request(1)
	assert.Equal(t, "Error: tool book_event is not available", second.Messages[len(second.Messages)-1].Content)
}

func TestReply_ModelError(t *testing.T) {
	api := &fakeChatAPI{status: http.StatusInternalServerError}
	a := newTestAssistant(t, api, &fakeExecutor{}, false)
	sess := NewSessions(nil).Start(context.Background())

	got := a.Reply(context.Background(), sess, "hi")
	assert.Contains(t, got, "Sorry, I encountered an error: ")
	assert.Contains(t, got, "model overloaded")
	assert.Empty(t, sess.Transcript(), "a failed turn is not kept")
}

func TestReply_TooManyToolRounds(t *testing.T) {
	api := &fakeChatAPI{
		replies: []openai.ChatCompletionMessage{toolCallMsg("call_x", booking.NameTodayDate, `{}`)},
		repeat:  true,
	}
	exec := &fakeExecutor{outcome: booking.TodayOutcome{Now: time.Date(2025, time.July, 1, 9, 0, 0, 0, time.UTC)}}
	a := newTestAssistant(t, api, exec, false)
	sess := NewSessions(nil).Start(context.Background())

	got := a.Reply(context.Background(), sess, "what day is it")
	assert.Equal(t, "Sorry, I encountered an error: "+ErrTooManyToolRounds.Error(), got)
	assert.Equal(t, DefaultMaxToolRounds, api.requestCount())
	assert.Len(t, exec.commands, DefaultMaxToolRounds)
}
