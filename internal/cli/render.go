package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/erg0nix/gnomegpt/internal/markup"
	"github.com/erg0nix/gnomegpt/internal/turn"
)

// renderLines styles segments and splits the result into terminal lines.
// Error replies are colored as a whole.
func renderLines(segments []markup.Segment, reply turn.ReplyKind) []string {
	lines := []string{""}

	for _, seg := range segments {
		for i, part := range strings.Split(seg.Text, "\n") {
			if i > 0 {
				lines = append(lines, "")
			}
			if part == "" {
				continue
			}
			lines[len(lines)-1] += styleSegment(seg.Kind, part, reply)
		}
	}
	return lines
}

func styleSegment(kind markup.Kind, text string, reply turn.ReplyKind) string {
	switch reply {
	case turn.ReplyError:
		return styleError.Render(text)
	case turn.ReplyUnexpected:
		return styleWarning.Render(text)
	}

	switch kind {
	case markup.Bold:
		return styleBold.Render(text)
	case markup.Bullet:
		return styleBullet.Render(text)
	case markup.Link:
		return styleLink.Render(text)
	default:
		return text
	}
}

// liveWriter prints a streaming reply. Finished lines are printed once; the
// line still being written is redrawn in place on every delta.
type liveWriter struct {
	out         io.Writer
	interactive bool
	committed   int
	pending     bool
}

func newLiveWriter(out io.Writer, interactive bool) *liveWriter {
	return &liveWriter{out: out, interactive: interactive}
}

func (w *liveWriter) Handle(event turn.Event) {
	switch event.Type {
	case turn.EvtTokenDelta:
		if w.interactive {
			w.draw(renderLines(event.Segments, turn.ReplyOK), false)
		}
	case turn.EvtTurnCompleted, turn.EvtTurnFailed, turn.EvtCommandReply:
		w.draw(renderLines(event.Segments, event.Reply), true)
		w.committed, w.pending = 0, false
	case turn.EvtHistoryCleared:
		fmt.Fprintln(w.out, styleDim.Render("Chat history cleared."))
	}
}

func (w *liveWriter) draw(lines []string, final bool) {
	for i := w.committed; i < len(lines); i++ {
		last := i == len(lines)-1

		if w.pending && w.interactive {
			fmt.Fprint(w.out, "\r\033[K")
		}
		fmt.Fprint(w.out, lines[i])

		if !last || final {
			fmt.Fprintln(w.out)
			w.committed = i + 1
			w.pending = false
			continue
		}
		w.pending = true
	}
}
