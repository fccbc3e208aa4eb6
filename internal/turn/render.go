package turn

import (
	"strings"

	"github.com/erg0nix/gnomegpt/internal/markup"
)

// RenderState accumulates the streamed reply of the turn in flight. Every
// token re-segments the whole buffer, so the live view and the final view
// come from the same function.
type RenderState struct {
	segmenter *markup.Segmenter
	buf       strings.Builder
}

func NewRenderState(segmenter *markup.Segmenter) *RenderState {
	return &RenderState{segmenter: segmenter}
}

// Append adds token and returns the segments of everything received so far.
func (r *RenderState) Append(token string) []markup.Segment {
	r.buf.WriteString(token)
	return r.segmenter.Segment(r.buf.String())
}

func (r *RenderState) Text() string {
	return r.buf.String()
}

func (r *RenderState) Reset() {
	r.buf.Reset()
}
