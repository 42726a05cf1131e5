package tui

import (
	"fmt"
	"strings"

	goerrors "github.com/go-errors/errors"
	"github.com/jesseduffield/gocui"
	log "github.com/sirupsen/logrus"

	"github.com/Joseda-hg/lazyboard/internal/board"
	"github.com/Joseda-hg/lazyboard/internal/dnd"
	"github.com/Joseda-hg/lazyboard/internal/model"
	"github.com/Joseda-hg/lazyboard/internal/ordering"
)

const (
	viewHeader = "header"
	viewFooter = "footer"
	viewDetail = "detail"
	viewPrompt = "prompt"
	viewHelp   = "help"
)

const detailHeight = 8

type UI struct {
	store  *board.Store
	gui    *gocui.Gui
	logger *log.Entry

	snapshot     model.Snapshot
	selectedList int
	selectedCard map[model.ID]int

	// held is the item picked up with space, waiting to be dropped.
	held *dnd.Item

	listViews map[string]bool
	bound     map[string]bool

	prompt     *promptState
	helpActive bool
	status     string
}

func newUI(store *board.Store, logger *log.Entry) *UI {
	if logger == nil {
		logger = log.WithField("component", "tui")
	}
	u := &UI{
		store:        store,
		logger:       logger,
		selectedCard: make(map[model.ID]int),
		listViews:    make(map[string]bool),
		bound:        make(map[string]bool),
	}
	u.refresh()
	return u
}

func Run(store *board.Store, logger *log.Entry) error {
	gui, err := gocui.NewGui(gocui.NewGuiOpts{OutputMode: gocui.OutputNormal})
	if err != nil {
		return err
	}
	defer gui.Close()

	ui := newUI(store, logger)
	ui.gui = gui
	gui.Mouse = true

	// Changes made through the web server arrive here from another goroutine.
	store.Subscribe(func(model.Snapshot) {
		gui.Update(ui.boardChanged)
	})

	gui.SetManagerFunc(ui.layout)
	if err := ui.bindKeys(gui); err != nil {
		return err
	}

	if err := gui.MainLoop(); err != nil && err != gocui.ErrQuit {
		return err
	}

	return nil
}

type binding struct {
	key     interface{}
	handler func(*gocui.Gui, *gocui.View) error
}

func (u *UI) bindKeys(gui *gocui.Gui) error {
	global := []binding{
		{gocui.KeyCtrlC, u.quit},
		{'q', u.quit},
		{'?', u.toggleHelp},
		{gocui.KeyEsc, u.cancel},
		{'a', u.addCard},
		{'A', u.addList},
		{'e', u.editCardTitle},
		{'E', u.editListTitle},
		{'D', u.editDescription},
		{'c', u.addComment},
		{'t', u.renameBoard},
		{'x', u.removeList},
	}
	for _, b := range global {
		if err := gui.SetKeybinding("", b.key, gocui.ModNone, b.handler); err != nil {
			return err
		}
	}

	if err := gui.SetKeybinding(viewPrompt, gocui.KeyEnter, gocui.ModNone, u.submitPrompt); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewPrompt, gocui.KeyEsc, gocui.ModNone, u.cancelPrompt); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewHelp, gocui.KeyEsc, gocui.ModNone, u.closeHelp); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewHelp, 'q', gocui.ModNone, u.closeHelp); err != nil {
		return err
	}
	return nil
}

// bindListView registers navigation on a list column. Space and the arrows
// are bound per view so they keep working as plain input inside the prompt.
func (u *UI) bindListView(gui *gocui.Gui, name string, listID model.ID) error {
	if u.bound[name] {
		return nil
	}
	u.bound[name] = true

	local := []binding{
		{gocui.KeyArrowLeft, u.prevList},
		{'h', u.prevList},
		{gocui.KeyArrowRight, u.nextList},
		{'l', u.nextList},
		{gocui.KeyArrowUp, u.moveUp},
		{'k', u.moveUp},
		{gocui.KeyArrowDown, u.moveDown},
		{'j', u.moveDown},
		{gocui.KeySpace, u.pickOrDrop},
		{'<', u.moveListLeft},
		{'>', u.moveListRight},
	}
	for _, b := range local {
		if err := gui.SetKeybinding(name, b.key, gocui.ModNone, b.handler); err != nil {
			return err
		}
	}
	return gui.SetViewClickBinding(&gocui.ViewMouseBinding{ViewName: name, Key: gocui.MouseLeft, Handler: func(opts gocui.ViewMouseBindingOpts) error {
		return u.onListClick(gui, name, listID, opts)
	}})
}

func (u *UI) layout(gui *gocui.Gui) error {
	maxX, maxY := gui.Size()
	if maxX <= 0 || maxY <= 0 {
		return nil
	}

	headerView, err := gui.SetView(viewHeader, 0, 0, maxX-1, 1, 0)
	if err != nil && !goerrors.Is(err, gocui.ErrUnknownView) {
		return err
	}
	headerView.Frame = false
	headerView.FgColor = gocui.ColorDefault | gocui.AttrBold
	u.renderHeader(headerView)

	footerY1 := max(maxY-1, 2)
	footerY0 := max(footerY1-2, 1)
	footerView, err := gui.SetView(viewFooter, 0, footerY0, maxX-1, footerY1, 0)
	if err != nil && !goerrors.Is(err, gocui.ErrUnknownView) {
		return err
	}
	footerView.Frame = false
	footerView.Wrap = true
	footerView.FgColor = gocui.ColorDefault | gocui.AttrDim
	u.renderFooter(footerView)

	detailY1 := footerY0 - 1
	detailY0 := max(detailY1-detailHeight, 2)
	detailView, err := gui.SetView(viewDetail, 0, detailY0, maxX-1, detailY1, 0)
	if err != nil && !goerrors.Is(err, gocui.ErrUnknownView) {
		return err
	}
	if goerrors.Is(err, gocui.ErrUnknownView) {
		detailView.Title = "Card"
		detailView.Wrap = true
	}
	applyViewStyle(detailView, false)
	u.renderDetail(detailView)

	if err := u.layoutLists(gui, maxX, 1, detailY0-1); err != nil {
		return err
	}

	_, _ = gui.SetViewOnTop(viewHeader)
	_, _ = gui.SetViewOnTop(viewFooter)

	if u.prompt != nil {
		if err := u.showPrompt(gui); err != nil {
			return err
		}
	} else {
		_ = gui.DeleteView(viewPrompt)
	}

	if u.helpActive {
		if err := u.showHelp(gui); err != nil {
			return err
		}
	} else {
		_ = gui.DeleteView(viewHelp)
	}

	if u.prompt == nil && !u.helpActive {
		if name := u.currentListView(); name != "" {
			_, _ = gui.SetCurrentView(name)
		}
	}

	gui.Cursor = u.prompt != nil

	return nil
}

func (u *UI) layoutLists(gui *gocui.Gui, width, top, bottom int) error {
	order := u.snapshot.Board.ListOrder
	window := computeColumns(width, len(order), u.selectedList)

	visible := make(map[string]bool, window.count)
	if bottom > top {
		for i := window.first; i < window.first+window.count && i < len(order); i++ {
			listID := order[i]
			name := listViewName(listID)
			visible[name] = true

			x0 := (i - window.first) * window.width
			x1 := x0 + window.width - 1
			view, err := gui.SetView(name, x0, top, x1, bottom, 0)
			if err != nil && !goerrors.Is(err, gocui.ErrUnknownView) {
				return err
			}
			if err := u.bindListView(gui, name, listID); err != nil {
				return err
			}
			u.listViews[name] = true

			focused := i == u.selectedList
			applyViewStyle(view, focused)
			u.renderList(view, listID, focused, window.width-3)
		}
	}

	for name := range u.listViews {
		if visible[name] {
			continue
		}
		_ = gui.DeleteView(name)
		delete(u.listViews, name)
	}
	return nil
}

func (u *UI) renderHeader(view *gocui.View) {
	view.Clear()
	fmt.Fprintf(view, " %s", u.snapshot.Board.Title)
	if u.held != nil {
		fmt.Fprintf(view, "  | holding %s %q (space to drop, esc to cancel)", u.held.Data.Type, u.heldTitle())
	}
}

func (u *UI) renderFooter(view *gocui.View) {
	view.Clear()
	fmt.Fprintln(view, "space pick/drop | < > move list | a card | A list | e/E rename | D describe | c comment | t board | x remove list | ? help | q quit")
	if u.status != "" {
		fmt.Fprint(view, u.status)
	}
}

func (u *UI) renderList(view *gocui.View, listID model.ID, focused bool, width int) {
	view.Clear()
	list := u.snapshot.ListsByID[listID]
	cards := u.snapshot.CardsOf(listID)
	view.Title = fmt.Sprintf(" %s (%d) ", list.Title, len(cards))
	if u.held != nil && u.held.Data.Type == dnd.TypeList && u.held.ID == listID {
		view.Title = "*" + view.Title
	}

	selected := u.selectedCard[listID]
	for i, card := range cards {
		prefix := " "
		if i == selected {
			if focused {
				prefix = ">"
			} else {
				prefix = "·"
			}
		}
		if u.held != nil && u.held.ID == card.ID {
			prefix = "*"
		}
		fmt.Fprintf(view, "%s %s\n", prefix, truncate(formatCardSummary(card), width))
	}
	if len(cards) == 0 {
		fmt.Fprint(view, "  (empty)")
	}
	if focused && len(cards) > 0 {
		view.SetCursor(0, min(selected, len(cards)-1))
	}
}

func (u *UI) renderDetail(view *gocui.View) {
	view.Clear()
	card, ok := u.selectedCardValue()
	if !ok {
		view.Title = "Card"
		fmt.Fprint(view, "No card selected")
		return
	}
	view.Title = " " + card.Title + " "
	description := strings.TrimSpace(card.Description)
	if description == "" {
		description = "(no description, D to add one)"
	}
	fmt.Fprintln(view, description)

	comments := u.snapshot.CommentsOf(card.ID)
	fmt.Fprintf(view, "\nComments (%d)\n", len(comments))
	for _, comment := range comments {
		fmt.Fprintln(view, formatComment(comment))
	}
}

func (u *UI) onListClick(gui *gocui.Gui, viewName string, listID model.ID, opts gocui.ViewMouseBindingOpts) error {
	if u.inputActive() {
		return nil
	}
	index := ordering.IndexOf(u.snapshot.Board.ListOrder, listID)
	if index < 0 {
		return nil
	}
	u.selectedList = index

	view, err := gui.View(viewName)
	if err != nil {
		return nil
	}
	_, y0, _, _ := view.Dimensions()
	_, oy := view.Origin()
	row := max(opts.Y-y0-1+oy, 0)
	if cards := u.snapshot.ListsByID[listID].CardIDs; len(cards) > 0 {
		u.selectedCard[listID] = min(row, len(cards)-1)
	}
	return nil
}

// boardChanged runs on the gui goroutine after a store change. Updates may be
// delivered out of order, so it rereads the store instead of trusting the
// snapshot the observer was handed.
func (u *UI) boardChanged(*gocui.Gui) error {
	u.refresh()
	return nil
}

func (u *UI) refresh() {
	u.snapshot = u.store.Snapshot()
	u.clampSelection()
}

func (u *UI) clampSelection() {
	order := u.snapshot.Board.ListOrder
	u.selectedList = ordering.Clamp(u.selectedList, max(len(order)-1, 0))
	for listID, index := range u.selectedCard {
		list, ok := u.snapshot.ListsByID[listID]
		if !ok {
			delete(u.selectedCard, listID)
			continue
		}
		u.selectedCard[listID] = ordering.Clamp(index, max(len(list.CardIDs)-1, 0))
	}
	if u.held != nil && !u.holdingLiveItem() {
		u.held = nil
	}
}

func (u *UI) holdingLiveItem() bool {
	switch u.held.Data.Type {
	case dnd.TypeList:
		_, ok := u.snapshot.ListsByID[u.held.ID]
		return ok
	case dnd.TypeCard:
		_, ok := u.snapshot.CardsByID[u.held.ID]
		return ok
	}
	return false
}

func (u *UI) currentListID() (model.ID, bool) {
	order := u.snapshot.Board.ListOrder
	if u.selectedList < 0 || u.selectedList >= len(order) {
		return "", false
	}
	return order[u.selectedList], true
}

func (u *UI) currentListView() string {
	listID, ok := u.currentListID()
	if !ok {
		return ""
	}
	return listViewName(listID)
}

func (u *UI) selectedCardID() (model.ID, bool) {
	listID, ok := u.currentListID()
	if !ok {
		return "", false
	}
	cards := u.snapshot.ListsByID[listID].CardIDs
	index := u.selectedCard[listID]
	if index < 0 || index >= len(cards) {
		return "", false
	}
	return cards[index], true
}

func (u *UI) selectedCardValue() (model.Card, bool) {
	id, ok := u.selectedCardID()
	if !ok {
		return model.Card{}, false
	}
	card, ok := u.snapshot.CardsByID[id]
	return card, ok
}

func (u *UI) selectList(listID model.ID) {
	if index := ordering.IndexOf(u.snapshot.Board.ListOrder, listID); index >= 0 {
		u.selectedList = index
	}
}

func (u *UI) selectCard(cardID model.ID) {
	for i, listID := range u.snapshot.Board.ListOrder {
		if index := ordering.IndexOf(u.snapshot.ListsByID[listID].CardIDs, cardID); index >= 0 {
			u.selectedList = i
			u.selectedCard[listID] = index
			return
		}
	}
}

func (u *UI) heldTitle() string {
	if u.held == nil {
		return ""
	}
	if u.held.Data.Type == dnd.TypeList {
		return u.snapshot.ListsByID[u.held.ID].Title
	}
	return u.snapshot.CardsByID[u.held.ID].Title
}

func (u *UI) prevList(_ *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	if u.selectedList > 0 {
		u.selectedList--
	}
	return nil
}

func (u *UI) nextList(_ *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	if u.selectedList < len(u.snapshot.Board.ListOrder)-1 {
		u.selectedList++
	}
	return nil
}

func (u *UI) moveUp(_ *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	listID, ok := u.currentListID()
	if !ok {
		return nil
	}
	if u.selectedCard[listID] > 0 {
		u.selectedCard[listID]--
	}
	return nil
}

func (u *UI) moveDown(_ *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	listID, ok := u.currentListID()
	if !ok {
		return nil
	}
	if u.selectedCard[listID] < len(u.snapshot.ListsByID[listID].CardIDs)-1 {
		u.selectedCard[listID]++
	}
	return nil
}

// pickOrDrop picks up the selected card, or the list when its column is
// empty. With something already held it drops it over the selection.
func (u *UI) pickOrDrop(_ *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	if u.held == nil {
		u.pickUp()
		return nil
	}
	u.drop()
	return nil
}

func (u *UI) pickUp() {
	listID, ok := u.currentListID()
	if !ok {
		return
	}
	if cardID, ok := u.selectedCardID(); ok {
		u.held = &dnd.Item{ID: cardID, Data: &dnd.Data{Type: dnd.TypeCard, ListID: listID}}
	} else {
		u.held = &dnd.Item{ID: listID, Data: &dnd.Data{Type: dnd.TypeList}}
	}
	u.status = "picked up " + u.heldTitle()
}

func (u *UI) drop() {
	listID, ok := u.currentListID()
	if !ok {
		return
	}
	over := dnd.Item{ID: listID, Data: &dnd.Data{Type: dnd.TypeList}}
	if cardID, ok := u.selectedCardID(); ok && u.held.Data.Type == dnd.TypeCard {
		over = dnd.Item{ID: cardID, Data: &dnd.Data{Type: dnd.TypeCard, ListID: listID}}
	}

	held := *u.held
	u.held = nil
	u.resolve(dnd.Event{Active: held, Over: &over})
}

func (u *UI) moveListLeft(_ *gocui.Gui, _ *gocui.View) error {
	return u.shiftList(-1)
}

func (u *UI) moveListRight(_ *gocui.Gui, _ *gocui.View) error {
	return u.shiftList(1)
}

func (u *UI) shiftList(delta int) error {
	if u.inputActive() {
		return nil
	}
	order := u.snapshot.Board.ListOrder
	target := u.selectedList + delta
	if u.selectedList < 0 || u.selectedList >= len(order) || target < 0 || target >= len(order) {
		return nil
	}
	u.resolve(dnd.Event{
		Active: dnd.Item{ID: order[u.selectedList], Data: &dnd.Data{Type: dnd.TypeList}},
		Over:   &dnd.Item{ID: order[target], Data: &dnd.Data{Type: dnd.TypeList}},
	})
	return nil
}

// resolve feeds a finished gesture through the drag-end resolver and keeps
// the moved item selected.
func (u *UI) resolve(event dnd.Event) {
	outcome, changed := dnd.Resolve(event, dnd.StateFrom(u.store.Snapshot()), u.store)
	u.refresh()

	if !changed {
		u.logger.WithFields(log.Fields{"active": event.Active.ID, "kind": outcome.Kind}).Debug("drop ignored")
		u.status = "nothing to move"
		return
	}
	switch outcome.Kind {
	case dnd.OutcomeReorderLists:
		u.selectList(event.Active.ID)
		u.status = "moved list"
	case dnd.OutcomeMoveCard:
		u.selectCard(outcome.CardID)
		u.status = "moved card"
	}
}

func (u *UI) cancel(_ *gocui.Gui, _ *gocui.View) error {
	if u.held != nil {
		u.held = nil
		u.status = "drop cancelled"
	}
	return nil
}

func (u *UI) addCard(_ *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	listID, ok := u.currentListID()
	if !ok {
		u.status = "add a list first (A)"
		return nil
	}
	u.openPrompt(promptAddCard, "New card in "+u.snapshot.ListsByID[listID].Title, listID, "")
	return nil
}

func (u *UI) addList(_ *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	u.openPrompt(promptAddList, "New list", "", "")
	return nil
}

func (u *UI) editCardTitle(_ *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	card, ok := u.selectedCardValue()
	if !ok {
		return nil
	}
	u.openPrompt(promptCardTitle, "Card title", card.ID, card.Title)
	return nil
}

func (u *UI) editListTitle(_ *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	listID, ok := u.currentListID()
	if !ok {
		return nil
	}
	u.openPrompt(promptListTitle, "List title", listID, u.snapshot.ListsByID[listID].Title)
	return nil
}

func (u *UI) editDescription(_ *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	card, ok := u.selectedCardValue()
	if !ok {
		return nil
	}
	u.openPrompt(promptDescription, "Description", card.ID, card.Description)
	return nil
}

func (u *UI) addComment(_ *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	card, ok := u.selectedCardValue()
	if !ok {
		return nil
	}
	u.openPrompt(promptComment, "Comment on "+card.Title, card.ID, "")
	return nil
}

func (u *UI) renameBoard(_ *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	u.openPrompt(promptBoardTitle, "Board title", u.snapshot.Board.ID, u.snapshot.Board.Title)
	return nil
}

func (u *UI) removeList(_ *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	listID, ok := u.currentListID()
	if !ok {
		return nil
	}
	title := u.snapshot.ListsByID[listID].Title
	u.report(u.store.RemoveList(listID), "removed list "+title, "")
	delete(u.selectedCard, listID)
	return nil
}

func (u *UI) showPrompt(gui *gocui.Gui) error {
	maxX, maxY := gui.Size()
	width := max(40, maxX/2)
	height := 2
	x0 := (maxX - width) / 2
	y0 := (maxY - height) / 2

	view, err := gui.SetView(viewPrompt, x0, y0, x0+width, y0+height, 0)
	if err != nil && !goerrors.Is(err, gocui.ErrUnknownView) {
		return err
	}
	if goerrors.Is(err, gocui.ErrUnknownView) {
		view.Clear()
		fmt.Fprint(view, u.prompt.value)
		view.SetCursor(len([]rune(u.prompt.value)), 0)
	}
	view.Title = " " + u.prompt.title + " "
	view.Editable = true
	view.Editor = gocui.DefaultEditor
	_, _ = gui.SetCurrentView(viewPrompt)
	return nil
}

func (u *UI) submitPrompt(gui *gocui.Gui, view *gocui.View) error {
	if u.prompt == nil {
		return nil
	}
	value := u.prompt.value
	if view != nil {
		value = view.Buffer()
	}
	u.applyPrompt(value)
	u.closePrompt(gui)
	return nil
}

func (u *UI) cancelPrompt(gui *gocui.Gui, _ *gocui.View) error {
	u.closePrompt(gui)
	return nil
}

func (u *UI) closePrompt(gui *gocui.Gui) {
	u.prompt = nil
	if gui == nil {
		return
	}
	_ = gui.DeleteView(viewPrompt)
	if name := u.currentListView(); name != "" {
		_, _ = gui.SetCurrentView(name)
	}
}

func (u *UI) toggleHelp(_ *gocui.Gui, _ *gocui.View) error {
	if u.prompt != nil {
		return nil
	}
	u.helpActive = !u.helpActive
	return nil
}

func (u *UI) closeHelp(gui *gocui.Gui, _ *gocui.View) error {
	u.helpActive = false
	if gui != nil {
		_ = gui.DeleteView(viewHelp)
	}
	return nil
}

func (u *UI) showHelp(gui *gocui.Gui) error {
	maxX, maxY := gui.Size()
	width := max(60, maxX/2)
	height := 16
	x0 := (maxX - width) / 2
	y0 := (maxY - height) / 2

	view, err := gui.SetView(viewHelp, x0, y0, x0+width, y0+height, 0)
	if err != nil && !goerrors.Is(err, gocui.ErrUnknownView) {
		return err
	}
	if goerrors.Is(err, gocui.ErrUnknownView) {
		view.Title = "Help"
		view.Wrap = true
	}
	view.Clear()
	fmt.Fprint(view, helpText())
	_, _ = gui.SetCurrentView(viewHelp)
	return nil
}

func (u *UI) inputActive() bool {
	return u.prompt != nil || u.helpActive
}

func (u *UI) quit(_ *gocui.Gui, _ *gocui.View) error {
	if u.prompt != nil {
		return nil
	}
	return gocui.ErrQuit
}

func helpText() string {
	return strings.Join([]string{
		"Navigation:",
		"  h/l or left/right switch list",
		"  j/k or up/down select card",
		"  mouse click to select",
		"",
		"Drag and drop:",
		"  space pick up the selected card (the list, if it is empty)",
		"  space again drops it over the selection",
		"  cards dropped on a card take its place, on an empty list they are appended",
		"  < > move the selected list left/right",
		"  esc cancel",
		"",
		"Editing:",
		"  a add card | A add list | e card title | E list title",
		"  D description | c comment | t board title | x remove list",
		"",
		"Other:",
		"  ? help | esc/q close help | q quit",
	}, "\n")
}

func applyViewStyle(view *gocui.View, focused bool) {
	view.Frame = true
	view.Highlight = focused
	view.HighlightInactive = false
	view.SelBgColor = gocui.ColorBlue
	view.SelFgColor = gocui.ColorBlack
	view.InactiveViewSelBgColor = gocui.ColorDefault
	if focused {
		view.FrameColor = gocui.ColorCyan
		view.TitleColor = gocui.ColorCyan
	} else {
		view.FrameColor = gocui.ColorDefault
		view.TitleColor = gocui.ColorDefault
	}
}
