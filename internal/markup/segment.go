// Package markup splits assistant reply text into typed segments for rendering.
//
// The same Segment call serves both the live buffer of a streaming reply and
// the final text, so a reply rendered incrementally always ends in the same
// segment list as one rendered in a single pass.
package markup

import (
	"net/url"
	"regexp"
	"strings"
)

const DefaultWikiBase = "https://oldschool.runescape.wiki"

type Kind int

const (
	Plain Kind = iota
	Bold
	Bullet
	Link
)

func (k Kind) String() string {
	switch k {
	case Bold:
		return "bold"
	case Bullet:
		return "bullet"
	case Link:
		return "link"
	default:
		return "plain"
	}
}

// BulletText is the normalized text of every bullet segment.
const BulletText = "• "

type Segment struct {
	Kind Kind   `json:"kind"`
	Text string `json:"text"`
	URL  string `json:"url,omitempty"`
}

var urlPattern = regexp.MustCompile(`\Ahttps?://[\w\-._~:/?#\[\]@!$&'()*+,;=%]+`)

var bulletMarkers = []string{"- ", "* ", BulletText}

type Segmenter struct {
	wikiBase string
}

func NewSegmenter(wikiBase string) *Segmenter {
	if wikiBase == "" {
		wikiBase = DefaultWikiBase
	}
	return &Segmenter{wikiBase: strings.TrimRight(wikiBase, "/")}
}

// WikiURL returns the wiki page address for a bracketed term.
func (s *Segmenter) WikiURL(term string) string {
	return s.wikiBase + "/w/" + url.PathEscape(strings.ReplaceAll(strings.TrimSpace(term), " ", "_"))
}

// Segment scans text once, left to right. Openers without a matching closer
// stay in the surrounding plain text.
func (s *Segmenter) Segment(text string) []Segment {
	var out []Segment
	plainStart := 0
	i := 0

	for i < len(text) {
		next := nextMarker(text, i)
		if next < 0 {
			break
		}
		i = next

		seg, width, ok := s.matchAt(text, i)
		if !ok {
			i += openerWidth(text, i)
			continue
		}

		out = appendPlain(out, text, plainStart, i)
		out = append(out, seg)
		i += width
		plainStart = i
	}

	return appendPlain(out, text, plainStart, len(text))
}

func (s *Segmenter) matchAt(text string, i int) (Segment, int, bool) {
	rest := text[i:]

	switch {
	case strings.HasPrefix(rest, "[["):
		end := strings.Index(rest[2:], "]]")
		if end < 0 {
			return Segment{}, 0, false
		}
		term := rest[2 : 2+end]
		if strings.TrimSpace(term) == "" || strings.Contains(term, "]") {
			return Segment{}, 0, false
		}
		return Segment{Kind: Link, Text: strings.TrimSpace(term), URL: s.WikiURL(term)}, end + 4, true

	case strings.HasPrefix(rest, "**"):
		end := strings.Index(rest[2:], "**")
		if end <= 0 {
			return Segment{}, 0, false
		}
		return Segment{Kind: Bold, Text: rest[2 : 2+end]}, end + 4, true
	}

	match := urlPattern.FindString(rest)
	match = strings.TrimRight(match, ".,;:!?")
	if !strings.Contains(match, "://") || strings.HasSuffix(match, "://") {
		return Segment{}, 0, false
	}
	return Segment{Kind: Link, Text: match, URL: match}, len(match), true
}

func nextMarker(text string, from int) int {
	for j := from; j < len(text); j++ {
		switch text[j] {
		case '[':
			if j+1 < len(text) && text[j+1] == '[' {
				return j
			}
		case '*':
			if j+1 < len(text) && text[j+1] == '*' {
				return j
			}
		case 'h':
			rest := text[j:]
			if strings.HasPrefix(rest, "http://") || strings.HasPrefix(rest, "https://") {
				return j
			}
		}
	}
	return -1
}

func openerWidth(text string, i int) int {
	if strings.HasPrefix(text[i:], "[[") || strings.HasPrefix(text[i:], "**") {
		return 2
	}
	return 1
}

// appendPlain emits text[start:end] as plain segments, splitting out bullet
// markers found at the beginning of a line.
func appendPlain(out []Segment, text string, start, end int) []Segment {
	spanStart := start
	lineStart := start

	for lineStart < end {
		if lineStart == 0 || text[lineStart-1] == '\n' {
			indent := lineStart
			for indent < end && (text[indent] == ' ' || text[indent] == '\t') {
				indent++
			}
			if marker := bulletAt(text[indent:end]); marker != "" {
				out = appendText(out, text[spanStart:indent])
				out = append(out, Segment{Kind: Bullet, Text: BulletText})
				spanStart = indent + len(marker)
			}
		}

		nl := strings.IndexByte(text[lineStart:end], '\n')
		if nl < 0 {
			break
		}
		lineStart += nl + 1
	}

	return appendText(out, text[spanStart:end])
}

func bulletAt(s string) string {
	for _, marker := range bulletMarkers {
		if strings.HasPrefix(s, marker) {
			return marker
		}
	}
	return ""
}

func appendText(out []Segment, s string) []Segment {
	if s == "" {
		return out
	}
	if n := len(out); n > 0 && out[n-1].Kind == Plain {
		out[n-1].Text += s
		return out
	}
	return append(out, Segment{Kind: Plain, Text: s})
}

// Text concatenates segment texts, ignoring kind.
func Text(segments []Segment) string {
	var sb strings.Builder
	for _, seg := range segments {
		sb.WriteString(seg.Text)
	}
	return sb.String()
}
