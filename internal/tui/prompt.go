package tui

import (
	"strings"

	"github.com/Joseda-hg/lazyboard/internal/model"
)

type promptKind int

const (
	promptAddCard promptKind = iota
	promptAddList
	promptCardTitle
	promptListTitle
	promptDescription
	promptComment
	promptBoardTitle
)

// promptState is the single-line input popup. targetID names the list or
// card the submitted value applies to.
type promptState struct {
	kind     promptKind
	title    string
	targetID model.ID
	value    string
}

func (u *UI) openPrompt(kind promptKind, title string, targetID model.ID, value string) {
	u.prompt = &promptState{kind: kind, title: title, targetID: targetID, value: value}
	u.status = ""
}

// applyPrompt runs the store mutation for the open prompt and reports the
// outcome in the status line.
func (u *UI) applyPrompt(raw string) {
	p := u.prompt
	if p == nil {
		return
	}
	value := strings.TrimSpace(raw)

	switch p.kind {
	case promptAddCard:
		if value == "" {
			u.status = "card title is empty"
			return
		}
		id, ok := u.store.AddCard(p.targetID, value)
		u.refresh()
		if !ok {
			u.status = "list no longer exists"
			return
		}
		u.selectCard(id)
		u.status = "added card " + value
	case promptAddList:
		if value == "" {
			u.status = "list title is empty"
			return
		}
		id := u.store.AddList(value)
		u.refresh()
		u.selectList(id)
		u.status = "added list " + value
	case promptCardTitle:
		u.report(u.store.UpdateCardTitle(p.targetID, value), "renamed card", "card no longer exists")
	case promptListTitle:
		u.report(u.store.UpdateListTitle(p.targetID, value), "renamed list", "list no longer exists")
	case promptDescription:
		u.report(u.store.UpdateCardDescription(p.targetID, value), "updated description", "card no longer exists")
	case promptComment:
		_, ok := u.store.AddComment(p.targetID, value)
		u.report(ok, "added comment", "comment is empty")
	case promptBoardTitle:
		u.report(u.store.RenameBoard(value), "renamed board", "")
	}
}

func (u *UI) report(changed bool, done, skipped string) {
	u.refresh()
	if changed {
		u.status = done
		return
	}
	u.status = skipped
}
