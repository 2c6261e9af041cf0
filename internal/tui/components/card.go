package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"github.com/mmcdole/moviesearch/internal/domain"
	"github.com/mmcdole/moviesearch/internal/search"
	"github.com/mmcdole/moviesearch/internal/tui/styles"
)

// Card layout
const (
	CardContentLines = 4 // title, year/rating, two overview lines
	CardBorder       = 2
	CardPadding      = 2
	CardHeight       = CardContentLines + CardBorder
	MinCardWidth     = 16
)

// renderCard renders one movie card at the given outer width
func renderCard(m domain.Movie, matched []int, selected bool, width int) string {
	inner := max(width-CardBorder-CardPadding, 1)

	lines := []string{
		renderCardTitle(m.Title, matched, inner),
		renderCardMeta(m),
	}
	overview := wrapLines(m.Overview, inner, 2)
	for len(overview) < 2 {
		overview = append(overview, "")
	}
	for _, l := range overview {
		lines = append(lines, styles.SubtitleStyle.Render(l))
	}

	style := styles.CardStyle
	if selected {
		style = styles.CardSelectedStyle
	}
	return style.Width(width - CardBorder).Height(CardContentLines).Render(strings.Join(lines, "\n"))
}

func renderCardTitle(title string, matched []int, width int) string {
	if title == "" {
		title = "Untitled"
	}
	title = styles.Truncate(title, width)
	if len(matched) == 0 {
		return styles.TitleStyle.Render(title)
	}

	var b strings.Builder
	for _, seg := range search.Highlight(title, matched) {
		if seg.Matched {
			b.WriteString(styles.MatchHighlightStyle.Render(seg.Text))
		} else {
			b.WriteString(styles.TitleStyle.Render(seg.Text))
		}
	}
	return b.String()
}

func renderCardMeta(m domain.Movie) string {
	year := styles.DimStyle.Render(m.ReleaseYear())
	if !m.HasRating() {
		return year + "  " + styles.DimStyle.Render("NR")
	}
	return year + "  " + styles.RatingStyle(m.VoteAverage).Render("★ "+m.FormattedRating())
}

// renderSkeleton renders a placeholder card while the first page loads
func renderSkeleton(width int) string {
	inner := max(width-CardBorder-CardPadding, 1)
	bar := func(frac int) string {
		return styles.SkeletonStyle.Render(strings.Repeat("░", max(inner*frac/4, 1)))
	}
	lines := []string{bar(3), bar(1), bar(4), bar(2)}
	return styles.CardStyle.Width(width - CardBorder).Height(CardContentLines).Render(strings.Join(lines, "\n"))
}

// joinRow places cards side by side
func joinRow(cards []string) string {
	return lipgloss.JoinHorizontal(lipgloss.Top, cards...)
}

// wrapLines word-wraps text to width display cells. When maxLines > 0
// the output is cut to that many lines and the last one gets an ellipsis.
func wrapLines(text string, width, maxLines int) []string {
	if width <= 0 {
		return nil
	}

	var lines []string
	var cur strings.Builder
	curLen := 0

	for _, word := range strings.Fields(text) {
		w := runewidth.StringWidth(word)
		if w > width {
			word = runewidth.Truncate(word, width, "…")
			w = runewidth.StringWidth(word)
		}
		if curLen > 0 && curLen+1+w > width {
			lines = append(lines, cur.String())
			cur.Reset()
			curLen = 0
		}
		if curLen > 0 {
			cur.WriteByte(' ')
			curLen++
		}
		cur.WriteString(word)
		curLen += w
	}
	if curLen > 0 {
		lines = append(lines, cur.String())
	}

	if maxLines > 0 && len(lines) > maxLines {
		last := lines[maxLines-1]
		if runewidth.StringWidth(last)+1 > width {
			last = runewidth.Truncate(last, width-1, "")
		}
		lines = append(lines[:maxLines-1], last+"…")
	}
	return lines
}
