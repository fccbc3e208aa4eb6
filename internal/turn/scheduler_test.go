package turn

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/erg0nix/gnomegpt/internal/assembler"
	"github.com/erg0nix/gnomegpt/internal/commands"
	"github.com/erg0nix/gnomegpt/internal/conversation"
	"github.com/erg0nix/gnomegpt/internal/core"
	"github.com/erg0nix/gnomegpt/internal/markup"
	"github.com/erg0nix/gnomegpt/internal/providers"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeProvider struct {
	mu       sync.Mutex
	tokens   []string
	err      error
	panicMsg string
	requests []providers.Request
	release  chan struct{}
	active   atomic.Int32
	overlap  atomic.Bool
}

func (p *fakeProvider) Name() providers.Name { return "fake" }
func (p *fakeProvider) DefaultModel() string { return "fake-model" }

func (p *fakeProvider) Chat(ctx context.Context, req providers.Request) (string, error) {
	return strings.Join(p.tokens, ""), p.err
}

func (p *fakeProvider) IsAvailable(context.Context) bool { return true }

func (p *fakeProvider) ChatStream(_ context.Context, req providers.Request, handler providers.StreamHandler) {
	if p.active.Add(1) > 1 {
		p.overlap.Store(true)
	}
	defer p.active.Add(-1)

	p.mu.Lock()
	p.requests = append(p.requests, req)
	p.mu.Unlock()

	if p.panicMsg != "" {
		panic(p.panicMsg)
	}
	if p.release != nil {
		<-p.release
	}
	if p.err != nil {
		handler.OnError(p.err)
		return
	}

	var full strings.Builder
	for _, token := range p.tokens {
		full.WriteString(token)
		handler.OnToken(token)
	}
	handler.OnComplete(full.String())
}

func (p *fakeProvider) requestCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.requests)
}

type fakeGateway struct {
	provider    *fakeProvider
	validateErr error
	checkErr    error
}

func (g *fakeGateway) Validate() error { return g.validateErr }

func (g *fakeGateway) Check(context.Context) error { return g.checkErr }

func (g *fakeGateway) Active() (providers.Provider, string) {
	return g.provider, g.provider.DefaultModel()
}

type fakeAssembler struct{}

func (fakeAssembler) Assemble(_ context.Context, utterance string, _ assembler.Options) []core.ContextBlock {
	return []core.ContextBlock{{Source: core.SourceWiki, Text: "wiki about " + utterance, Priority: core.SourceWiki.Priority()}}
}

func newTestScheduler(t *testing.T, provider *fakeProvider, checkErr error) *Scheduler {
	t.Helper()
	return newSchedulerWithGateway(t, &fakeGateway{provider: provider, checkErr: checkErr})
}

func newSchedulerWithGateway(t *testing.T, gateway *fakeGateway) *Scheduler {
	t.Helper()

	s := New(Config{
		Gateway:   gateway,
		Assembler: fakeAssembler{},
		Commands:  commands.NewDefault(commands.Deps{}),
		Segmenter: markup.NewSegmenter("https://wiki.test"),
		History:   conversation.NewHistory(conversation.DefaultCapacity),
		Settings:  Settings{SystemPrompt: "You are a gnome."},
	})
	t.Cleanup(s.Close)
	return s
}

func collect(t *testing.T, events <-chan Event) []Event {
	t.Helper()

	var out []Event
	timeout := time.After(5 * time.Second)
	for {
		select {
		case event, ok := <-events:
			if !ok {
				return out
			}
			out = append(out, event)
		case <-timeout:
			t.Fatal("timed out waiting for events")
			return out
		}
	}
}

func types(events []Event) []EventType {
	out := make([]EventType, len(events))
	for i, event := range events {
		out[i] = event.Type
	}
	return out
}

func last(events []Event) Event {
	return events[len(events)-1]
}

func TestTurnStreamsAndCompletes(t *testing.T) {
	provider := &fakeProvider{tokens: []string{"Get a **fire", " cape** at [[TzHaar", " Fight Cave]]."}}
	s := newTestScheduler(t, provider, nil)

	events := collect(t, s.Submit("how do I get a fire cape"))

	want := []EventType{EvtTurnQueued, EvtTurnStarted, EvtTokenDelta, EvtTokenDelta, EvtTokenDelta, EvtTurnCompleted}
	if strings.Join(toStrings(types(events)), ",") != strings.Join(toStrings(want), ",") {
		t.Fatalf("events = %v, want %v", types(events), want)
	}

	if events[2].Text != "Get a **fire" {
		t.Errorf("first delta text = %q", events[2].Text)
	}
	if got := events[2].Segments; len(got) != 1 || got[0].Kind != markup.Plain {
		t.Errorf("unterminated bold should stay plain while streaming: %+v", got)
	}

	final := last(events)
	if final.Text != "Get a **fire cape** at [[TzHaar Fight Cave]]." {
		t.Errorf("final text = %q", final.Text)
	}
	if final.Reply != ReplyOK {
		t.Errorf("reply kind = %q, want ok", final.Reply)
	}
	if got := markup.Text(final.Segments); got != "Get a fire cape at TzHaar Fight Cave." {
		t.Errorf("final segments text = %q", got)
	}

	lastDelta := events[len(events)-2].Segments
	if markup.Text(lastDelta) != markup.Text(final.Segments) || len(lastDelta) != len(final.Segments) {
		t.Errorf("live and final segments differ: %+v vs %+v", lastDelta, final.Segments)
	}

	messages := s.History().Messages
	if len(messages) != 2 || messages[0].Role != core.RoleUser || messages[1].Role != core.RoleAssistant {
		t.Fatalf("history = %+v", messages)
	}

	req := provider.requests[0]
	if !strings.HasPrefix(req.SystemPrompt, "You are a gnome.") || !strings.Contains(req.SystemPrompt, "wiki about how do I get a fire cape") {
		t.Errorf("system prompt = %q", req.SystemPrompt)
	}
	if len(req.Messages) != 1 || req.Model != "fake-model" {
		t.Errorf("request = %+v", req)
	}
}

func toStrings(in []EventType) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = string(v)
	}
	return out
}

func TestCommandBypassesProvider(t *testing.T) {
	provider := &fakeProvider{tokens: []string{"hi"}}
	s := newTestScheduler(t, provider, nil)

	events := collect(t, s.Submit("/teleport"))
	if len(events) != 1 || events[0].Type != EvtCommandReply {
		t.Fatalf("events = %+v", events)
	}
	if !strings.HasPrefix(events[0].Text, "Unknown command: /teleport") {
		t.Errorf("text = %q", events[0].Text)
	}
	if provider.requestCount() != 0 || len(s.History().Messages) != 0 {
		t.Error("command reached provider or history")
	}
}

func TestClearIsQueuedBehindTurn(t *testing.T) {
	provider := &fakeProvider{tokens: []string{"answer"}, release: make(chan struct{})}
	s := newTestScheduler(t, provider, nil)

	turn := s.Submit("question")
	cleared := s.Submit("/clear")

	close(provider.release)
	turnEvents := collect(t, turn)
	clearEvents := collect(t, cleared)

	if last(turnEvents).Type != EvtTurnCompleted {
		t.Fatalf("turn ended with %q", last(turnEvents).Type)
	}
	if len(clearEvents) != 1 || clearEvents[0].Type != EvtHistoryCleared {
		t.Fatalf("clear events = %+v", clearEvents)
	}
	if n := len(s.History().Messages); n != 0 {
		t.Errorf("history len = %d after clear, want 0", n)
	}
}

func TestCredentialFailureSkipsNetwork(t *testing.T) {
	provider := &fakeProvider{tokens: []string{"never"}}
	keyErr := &providers.Error{Kind: providers.KindMissingCredential, Provider: providers.OpenAI, Message: "Need an OpenAI API key to work my magic."}
	s := newSchedulerWithGateway(t, &fakeGateway{provider: provider, validateErr: keyErr})

	events := collect(t, s.Submit("hello"))
	if len(events) != 1 {
		t.Fatalf("events = %+v, want a single failure before queueing", events)
	}
	final := events[0]

	if final.Type != EvtTurnFailed || final.Text != "Error: Need an OpenAI API key to work my magic." || final.Reply != ReplyError {
		t.Errorf("final = %+v", final)
	}
	if provider.requestCount() != 0 {
		t.Error("provider called despite failed check")
	}

	s.Close()
	messages := s.History().Messages
	if len(messages) != 1 || messages[0].Role != core.RoleUser {
		t.Errorf("history = %+v, want only the user message", messages)
	}
}

func TestRejectedTurnKeepsHistoryOrder(t *testing.T) {
	release := make(chan struct{})
	provider := &fakeProvider{tokens: []string{"first reply"}, release: release}
	gateway := &fakeGateway{provider: provider}
	s := newSchedulerWithGateway(t, gateway)

	first := s.Submit("first")
	for event := range first {
		if event.Type == EvtTurnStarted {
			break
		}
	}

	gateway.validateErr = &providers.Error{Kind: providers.KindMissingCredential, Provider: providers.OpenAI, Message: "no key"}
	collect(t, s.Submit("second"))

	close(release)
	collect(t, first)
	s.Close()

	var texts []string
	for _, message := range s.History().Messages {
		texts = append(texts, message.Content)
	}
	if got := strings.Join(texts, "|"); got != "first|first reply|second" {
		t.Errorf("history = %q", got)
	}
}

func TestUnavailableBackendFailsTurn(t *testing.T) {
	provider := &fakeProvider{tokens: []string{"never"}}
	checkErr := &providers.Error{Kind: providers.KindBackendUnreachable, Provider: providers.Ollama, Message: "Ollama is not running."}
	s := newTestScheduler(t, provider, checkErr)

	events := collect(t, s.Submit("hello"))
	want := []EventType{EvtTurnQueued, EvtTurnStarted, EvtTurnFailed}
	if strings.Join(toStrings(types(events)), ",") != strings.Join(toStrings(want), ",") {
		t.Errorf("events = %v, want %v", types(events), want)
	}
	if final := last(events); final.Text != "Error: Ollama is not running." {
		t.Errorf("text = %q", final.Text)
	}
	if provider.requestCount() != 0 {
		t.Error("provider called while unavailable")
	}
}

func TestProviderErrorNotStoredInHistory(t *testing.T) {
	provider := &fakeProvider{err: &providers.Error{Kind: providers.KindUpstream, Message: "OpenAI API error (503)"}}
	s := newTestScheduler(t, provider, nil)

	final := last(collect(t, s.Submit("hello")))
	if final.Text != "Error: OpenAI API error (503)" {
		t.Errorf("text = %q", final.Text)
	}
	if n := len(s.History().Messages); n != 1 {
		t.Errorf("history len = %d, want 1", n)
	}
}

func TestUnexpectedErrorAndPanic(t *testing.T) {
	provider := &fakeProvider{err: errors.New("boom")}
	s := newTestScheduler(t, provider, nil)

	final := last(collect(t, s.Submit("hello")))
	if final.Text != "Something went wrong: boom" || final.Reply != ReplyUnexpected {
		t.Errorf("final = %+v", final)
	}

	provider.err = nil
	provider.panicMsg = "kaboom"
	final = last(collect(t, s.Submit("again")))
	if final.Type != EvtTurnFailed || final.Text != "Something went wrong: kaboom" {
		t.Errorf("panic final = %+v", final)
	}

	provider.panicMsg = ""
	provider.tokens = []string{"recovered"}
	if final = last(collect(t, s.Submit("third"))); final.Text != "recovered" {
		t.Errorf("scheduler did not recover: %+v", final)
	}
}

func TestTurnsNeverOverlap(t *testing.T) {
	provider := &fakeProvider{tokens: []string{"a", "b"}, release: make(chan struct{})}
	s := newTestScheduler(t, provider, nil)

	first := s.Submit("one")
	second := s.Submit("two")

	go func() {
		provider.release <- struct{}{}
		provider.release <- struct{}{}
	}()

	collect(t, first)
	collect(t, second)

	if provider.overlap.Load() {
		t.Error("provider calls overlapped")
	}
	if provider.requestCount() != 2 {
		t.Fatalf("requests = %d, want 2", provider.requestCount())
	}
	if n := len(provider.requests[1].Messages); n != 3 {
		t.Errorf("second request has %d messages, want 3 (user, assistant, user)", n)
	}
}

func TestHistoryStaysBounded(t *testing.T) {
	provider := &fakeProvider{tokens: []string{"ok"}}
	s := newTestScheduler(t, provider, nil)

	for i := 0; i < 13; i++ {
		collect(t, s.Submit("question"))
	}

	if n := len(s.History().Messages); n != conversation.DefaultCapacity {
		t.Errorf("history len = %d, want %d", n, conversation.DefaultCapacity)
	}
}

func TestSubmitAfterClose(t *testing.T) {
	s := New(Config{Gateway: &fakeGateway{provider: &fakeProvider{}}})
	s.Close()

	events := collect(t, s.Submit("hello"))
	if len(events) != 1 || events[0].Type != EvtTurnFailed || !strings.Contains(events[0].Text, ErrClosed.Error()) {
		t.Errorf("events = %+v", events)
	}
}

func TestBlankUtterance(t *testing.T) {
	s := newTestScheduler(t, &fakeProvider{}, nil)
	if events := collect(t, s.Submit("   ")); len(events) != 0 {
		t.Errorf("events = %+v, want none", events)
	}
}

func TestClassifyReply(t *testing.T) {
	tests := map[string]ReplyKind{
		"Error: Invalid API key.":    ReplyError,
		"Something went wrong: boom": ReplyUnexpected,
		"Buy a fire cape.":           ReplyOK,
		"An Error: in the middle":    ReplyOK,
	}
	for text, want := range tests {
		if got := ClassifyReply(text); got != want {
			t.Errorf("ClassifyReply(%q) = %q, want %q", text, got, want)
		}
	}
}

func TestSettingsUpdate(t *testing.T) {
	provider := &fakeProvider{tokens: []string{"ok"}}
	s := newTestScheduler(t, provider, nil)

	s.SetSettings(Settings{SystemPrompt: "You are Hans."})
	collect(t, s.Submit("hello"))

	if !strings.HasPrefix(provider.requests[0].SystemPrompt, "You are Hans.") {
		t.Errorf("system prompt = %q", provider.requests[0].SystemPrompt)
	}
}
