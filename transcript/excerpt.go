package transcript

import (
	"fmt"
	"strings"
)

// Excerpt renders sentences [anchor-window, anchor+window] clamped to the
// stream, marking the anchor line with ">>>".
func Excerpt(sentences []Sentence, anchor, window int) string {
	if len(sentences) == 0 {
		return ""
	}
	lo := max(0, anchor-window)
	hi := min(len(sentences)-1, anchor+window)

	var b strings.Builder
	for i := lo; i <= hi; i++ {
		s := sentences[i]
		mark := "   "
		if i == anchor {
			mark = ">>>"
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%s [%.1fs] (%s): %s", mark, s.Start, s.Speaker(), strings.TrimSpace(s.Text))
	}
	return b.String()
}
