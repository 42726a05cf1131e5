package tui

import (
	"fmt"
	"strings"

	"github.com/Joseda-hg/lazyboard/internal/model"
)

const minColumnWidth = 24

// columnWindow is the horizontal slice of lists that fits on screen.
type columnWindow struct {
	first int
	count int
	width int
}

func computeColumns(width, lists, selected int) columnWindow {
	if lists <= 0 || width <= 0 {
		return columnWindow{}
	}
	visible := lists
	if width/lists < minColumnWidth {
		visible = max(width/minColumnWidth, 1)
	}
	first := 0
	if selected >= visible {
		first = selected - visible + 1
	}
	if first+visible > lists {
		first = max(lists-visible, 0)
	}
	return columnWindow{first: first, count: visible, width: width / visible}
}

func listViewName(id model.ID) string {
	return "list:" + id
}

func formatCardSummary(card model.Card) string {
	summary := card.Title
	if summary == "" {
		summary = "(untitled)"
	}
	if n := len(card.CommentIDs); n > 0 {
		summary = fmt.Sprintf("%s [%d]", summary, n)
	}
	if strings.TrimSpace(card.Description) != "" {
		summary += " +"
	}
	return summary
}

func formatComment(comment model.Comment) string {
	return fmt.Sprintf("%s  %s", comment.CreatedAt.Local().Format("2006-01-02 15:04"), comment.Text)
}

func truncate(value string, width int) string {
	runes := []rune(value)
	if width <= 0 || len(runes) <= width {
		return value
	}
	if width == 1 {
		return string(runes[:1])
	}
	return string(runes[:width-1]) + "…"
}
