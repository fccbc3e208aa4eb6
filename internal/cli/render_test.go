package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/erg0nix/gnomegpt/internal/markup"
	"github.com/erg0nix/gnomegpt/internal/turn"
)

func TestRenderLinesSplitsOnNewlines(t *testing.T) {
	segmenter := markup.NewSegmenter("")
	segments := segmenter.Segment("Bring:\n- **Antifire**\n- [[Ruby bolts (e)]]")

	lines := renderLines(segments, turn.ReplyOK)
	if len(lines) != 3 {
		t.Fatalf("lines = %q, want 3", lines)
	}
	if !strings.Contains(lines[1], "Antifire") || !strings.Contains(lines[2], "Ruby bolts (e)") {
		t.Errorf("lines = %q", lines)
	}
	if strings.Contains(strings.Join(lines, ""), "**") || strings.Contains(strings.Join(lines, ""), "[[") {
		t.Errorf("markup leaked into output: %q", lines)
	}
}

func TestLiveWriterNonInteractivePrintsFinalOnly(t *testing.T) {
	var out bytes.Buffer
	w := newLiveWriter(&out, false)
	segmenter := markup.NewSegmenter("")

	w.Handle(turn.Event{Type: turn.EvtTokenDelta, Segments: segmenter.Segment("Hello")})
	if out.Len() != 0 {
		t.Errorf("non-interactive writer printed a delta: %q", out.String())
	}

	w.Handle(turn.Event{Type: turn.EvtTurnCompleted, Segments: segmenter.Segment("Hello\nthere"), Reply: turn.ReplyOK})
	if got := out.String(); !strings.Contains(got, "Hello\n") || !strings.HasSuffix(got, "there\n") {
		t.Errorf("output = %q", got)
	}
}

func TestLiveWriterCommitsFinishedLines(t *testing.T) {
	var out bytes.Buffer
	w := newLiveWriter(&out, true)
	segmenter := markup.NewSegmenter("")

	w.Handle(turn.Event{Type: turn.EvtTokenDelta, Segments: segmenter.Segment("one\ntw")})
	w.Handle(turn.Event{Type: turn.EvtTokenDelta, Segments: segmenter.Segment("one\ntwo")})
	w.Handle(turn.Event{Type: turn.EvtTurnCompleted, Segments: segmenter.Segment("one\ntwo"), Reply: turn.ReplyOK})

	got := out.String()
	if strings.Count(got, "one") != 1 {
		t.Errorf("finished line printed more than once: %q", got)
	}
	if !strings.HasSuffix(got, "two\n") {
		t.Errorf("output = %q", got)
	}
}
