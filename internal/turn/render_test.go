package turn

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/erg0nix/gnomegpt/internal/markup"
)

func TestRenderStateMatchesFinalSegmentation(t *testing.T) {
	segmenter := markup.NewSegmenter("https://wiki.test")
	reply := "Bring:\n- **Anti-dragon shield**\n- [[Stamina potion]]s\nSee https://wiki.test/w/Vorkath."

	render := NewRenderState(segmenter)
	var live []markup.Segment
	for _, r := range reply {
		live = render.Append(string(r))
	}

	if diff := cmp.Diff(segmenter.Segment(reply), live); diff != "" {
		t.Errorf("live segments differ from final (-final +live):\n%s", diff)
	}
	if render.Text() != reply {
		t.Errorf("Text() = %q, want %q", render.Text(), reply)
	}
}

func TestRenderStateUnclosedMarkersStayPlain(t *testing.T) {
	render := NewRenderState(markup.NewSegmenter(""))

	got := render.Append("see [[Zul")
	want := []markup.Segment{{Kind: markup.Plain, Text: "see [[Zul"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("partial link (-want +got):\n%s", diff)
	}

	got = render.Append("rah]]")
	if len(got) != 2 || got[1].Kind != markup.Link || got[1].Text != "Zulrah" {
		t.Errorf("closed link = %+v", got)
	}

	render.Reset()
	if render.Text() != "" {
		t.Errorf("Text() after Reset = %q", render.Text())
	}
}
