// Package turn runs conversational turns one at a time over a bounded history.
package turn

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/erg0nix/gnomegpt/internal/assembler"
	"github.com/erg0nix/gnomegpt/internal/commands"
	"github.com/erg0nix/gnomegpt/internal/conversation"
	"github.com/erg0nix/gnomegpt/internal/core"
	"github.com/erg0nix/gnomegpt/internal/markup"
	"github.com/erg0nix/gnomegpt/internal/providers"
)

const (
	defaultQueueSize = 16
	eventBufferSize  = 64
)

// ErrClosed is reported for utterances submitted after Close.
var ErrClosed = errors.New("scheduler is closed")

// Gateway selects and checks the chat backend; *providers.Router satisfies it.
// Validate must not touch the network.
type Gateway interface {
	Validate() error
	Check(ctx context.Context) error
	Active() (providers.Provider, string)
}

type ContextAssembler interface {
	Assemble(ctx context.Context, utterance string, opts assembler.Options) []core.ContextBlock
}

type CommandDispatcher interface {
	Dispatch(ctx context.Context, line string) (commands.Result, bool)
	IsClear(line string) bool
}

// Settings are the per-turn values that follow configuration reloads.
type Settings struct {
	SystemPrompt string
	Context      assembler.Options
}

type Config struct {
	Gateway   Gateway
	Assembler ContextAssembler
	Commands  CommandDispatcher
	Segmenter *markup.Segmenter
	History   *conversation.History
	Settings  Settings
	QueueSize int
}

type task struct {
	id        core.TurnID
	utterance string
	clear     bool
	// rejected turns only record the utterance; their events are already closed.
	rejected bool
	events   chan Event
}

// Scheduler owns the conversation history and processes queued turns on a
// single worker goroutine, so provider calls never overlap.
type Scheduler struct {
	gateway   Gateway
	assembler ContextAssembler
	commands  CommandDispatcher
	segmenter *markup.Segmenter
	history   *conversation.History

	settingsMu sync.RWMutex
	settings   Settings

	submitMu sync.Mutex
	closed   bool
	tasks    chan task

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// New starts the worker. Close must be called to stop it.
func New(cfg Config) *Scheduler {
	if cfg.Segmenter == nil {
		cfg.Segmenter = markup.NewSegmenter("")
	}
	if cfg.History == nil {
		cfg.History = conversation.NewHistory(conversation.DefaultCapacity)
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = defaultQueueSize
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		gateway:   cfg.Gateway,
		assembler: cfg.Assembler,
		commands:  cfg.Commands,
		segmenter: cfg.Segmenter,
		history:   cfg.History,
		settings:  cfg.Settings,
		tasks:     make(chan task, cfg.QueueSize),
		ctx:       ctx,
		cancel:    cancel,
		done:      make(chan struct{}),
	}

	go s.run()
	return s
}

// Submit hands an utterance to the scheduler and returns its event stream,
// which is closed after the terminal event. Commands other than /clear and
// turns whose backend credential is invalid are answered right away;
// everything else waits its turn in the queue. Callers must drain the channel.
func (s *Scheduler) Submit(utterance string) <-chan Event {
	utterance = strings.TrimSpace(utterance)
	events := make(chan Event, eventBufferSize)

	if utterance == "" {
		close(events)
		return events
	}

	isClear := s.commands != nil && s.commands.IsClear(utterance)
	if s.commands != nil && !isClear {
		if result, handled := s.commands.Dispatch(s.ctx, utterance); handled {
			events <- s.commandReply(result)
			close(events)
			return events
		}
	}

	t := task{id: core.NewTurnID(), utterance: utterance, clear: isClear, events: events}

	s.submitMu.Lock()
	defer s.submitMu.Unlock()

	if s.closed {
		events <- s.failure(t.id, ErrClosed)
		close(events)
		return events
	}

	if !isClear && s.gateway != nil {
		if err := s.gateway.Validate(); err != nil {
			slog.Warn("turn rejected", "turn_id", t.id, "error", err)
			events <- s.failure(t.id, err)
			close(events)
			s.tasks <- task{id: t.id, utterance: utterance, rejected: true}
			return events
		}
	}

	if !isClear {
		events <- Event{Type: EvtTurnQueued, TurnID: t.id}
	}
	s.tasks <- t
	return events
}

func (s *Scheduler) commandReply(result commands.Result) Event {
	if result.Clear {
		s.history.Clear()
		return Event{Type: EvtHistoryCleared, Reply: ReplyOK}
	}
	return Event{
		Type:     EvtCommandReply,
		Text:     result.Text,
		Segments: s.segmenter.Segment(result.Text),
		Reply:    ClassifyReply(result.Text),
	}
}

// SetSettings replaces the settings used by turns that start after the call.
func (s *Scheduler) SetSettings(settings Settings) {
	s.settingsMu.Lock()
	s.settings = settings
	s.settingsMu.Unlock()
}

func (s *Scheduler) Settings() Settings {
	s.settingsMu.RLock()
	defer s.settingsMu.RUnlock()
	return s.settings
}

// History returns a copy of the conversation so far.
func (s *Scheduler) History() conversation.Snapshot {
	return s.history.Snapshot()
}

// Close stops accepting utterances and waits for queued turns to finish.
func (s *Scheduler) Close() {
	s.submitMu.Lock()
	if !s.closed {
		s.closed = true
		close(s.tasks)
	}
	s.submitMu.Unlock()

	<-s.done
	s.cancel()
}

func (s *Scheduler) run() {
	defer close(s.done)

	for t := range s.tasks {
		s.process(t)
	}
}

func (s *Scheduler) process(t task) {
	if t.rejected {
		s.history.Append(core.NewMessage(core.RoleUser, t.utterance))
		return
	}

	defer close(t.events)
	defer func() {
		if r := recover(); r != nil {
			slog.Error("turn panicked", "turn_id", t.id, "panic", r)
			t.events <- s.failure(t.id, fmt.Errorf("%v", r))
		}
	}()

	if t.clear {
		s.history.Clear()
		t.events <- Event{Type: EvtHistoryCleared, TurnID: t.id, Reply: ReplyOK}
		return
	}

	t.events <- Event{Type: EvtTurnStarted, TurnID: t.id}
	slog.Debug("turn started", "turn_id", t.id)

	reply, err := s.converse(t)
	if err != nil {
		slog.Warn("turn failed", "turn_id", t.id, "error", err)
		t.events <- s.failure(t.id, err)
		return
	}

	s.history.Append(core.NewMessage(core.RoleAssistant, reply))
	t.events <- Event{
		Type:     EvtTurnCompleted,
		TurnID:   t.id,
		Text:     reply,
		Segments: s.segmenter.Segment(reply),
		Reply:    ReplyOK,
	}
	slog.Debug("turn completed", "turn_id", t.id, "chars", len(reply))
}

// converse runs one provider exchange for the turn and returns the full reply.
func (s *Scheduler) converse(t task) (string, error) {
	s.history.Append(core.NewMessage(core.RoleUser, t.utterance))

	if s.gateway == nil {
		return "", errors.New("no chat provider configured")
	}
	if err := s.gateway.Check(s.ctx); err != nil {
		return "", err
	}

	settings := s.Settings()

	var blocks []core.ContextBlock
	if s.assembler != nil {
		blocks = s.assembler.Assemble(s.ctx, t.utterance, settings.Context)
	}

	provider, model := s.gateway.Active()
	request := conversation.BuildRequest(settings.SystemPrompt, blocks, s.history.Messages(), model)
	slog.Debug("sending turn", "turn_id", t.id, "provider", provider.Name(), "model", model, "context_blocks", len(blocks))

	render := NewRenderState(s.segmenter)

	var (
		full     string
		finished bool
		failed   error
	)

	provider.ChatStream(s.ctx, request, providers.StreamHandler{
		OnToken: func(token string) {
			segments := render.Append(token)
			t.events <- Event{Type: EvtTokenDelta, TurnID: t.id, Token: token, Text: render.Text(), Segments: segments}
		},
		OnComplete: func(text string) {
			full, finished = text, true
		},
		OnError: func(err error) {
			failed = err
		},
	})

	switch {
	case failed != nil:
		return "", failed
	case !finished:
		return "", errors.New("provider returned without a reply")
	case full == "":
		return render.Text(), nil
	default:
		return full, nil
	}
}

// failure builds the terminal event for err. Gateway errors carry the
// user-facing message; anything else is reported as unexpected.
func (s *Scheduler) failure(id core.TurnID, err error) Event {
	text := ReplyText(err)
	return Event{
		Type:     EvtTurnFailed,
		TurnID:   id,
		Text:     text,
		Segments: s.segmenter.Segment(text),
		Reply:    ClassifyReply(text),
	}
}

// ReplyText is the assistant line shown for a failed turn.
func ReplyText(err error) string {
	var gatewayErr *providers.Error
	if errors.As(err, &gatewayErr) {
		return ErrorPrefix + gatewayErr.Error()
	}
	return UnexpectedPrefix + err.Error()
}
