// Package dnd turns a finished drag gesture into a board mutation.
//
// A drag ends with an active item dropped over an optional target. Lists are
// reordered by dropping one list over another; cards move when dropped over a
// card (taking that card's position) or over a list container (appending).
package dnd

import (
	"sort"

	"github.com/Joseda-hg/lazyboard/internal/model"
	"github.com/Joseda-hg/lazyboard/internal/ordering"
)

type ItemType string

const (
	TypeList ItemType = "list"
	TypeCard ItemType = "card"
)

// Data tags a draggable or droppable item. ListID is only meaningful for
// cards and names the list that owns the card.
type Data struct {
	Type   ItemType `json:"type"`
	ListID string   `json:"listId,omitempty"`
}

type Item struct {
	ID   string `json:"id"`
	Data *Data  `json:"data,omitempty"`
}

func (i Item) typ() ItemType {
	if i.Data == nil {
		return ""
	}
	return i.Data.Type
}

func (i Item) listID() string {
	if i.Data == nil {
		return ""
	}
	return i.Data.ListID
}

// Event is a finished drag. A nil Over means the drag was cancelled.
type Event struct {
	Active Item  `json:"active"`
	Over   *Item `json:"over,omitempty"`
}

// State is the part of the board the resolver reads: list order and the card
// ids of each list.
type State struct {
	ListOrder []string
	ListsByID map[string][]string
}

// StateFrom extracts the resolver's view of a snapshot.
func StateFrom(snapshot model.Snapshot) State {
	lists := make(map[string][]string, len(snapshot.ListsByID))
	for id, list := range snapshot.ListsByID {
		lists[id] = list.CardIDs
	}
	return State{ListOrder: snapshot.Board.ListOrder, ListsByID: lists}
}

// Actions are the two store mutations a drop can trigger.
type Actions interface {
	ReorderLists(from, to int) bool
	MoveCard(cardID, fromListID, toListID string, toIndex int) bool
}

// ListMover is implemented by actions that can recheck which list sits at
// from before reordering. Resolve prefers it over ReorderLists so a drop
// computed from a stale State cannot move a different list.
type ListMover interface {
	MoveList(listID string, from, to int) bool
}

// ActionsFunc adapts two functions to Actions. Nil fields are ignored.
type ActionsFunc struct {
	Reorder func(from, to int)
	Move    func(cardID, fromListID, toListID string, toIndex int)
}

func (a ActionsFunc) ReorderLists(from, to int) bool {
	if a.Reorder == nil {
		return false
	}
	a.Reorder(from, to)
	return true
}

func (a ActionsFunc) MoveCard(cardID, fromListID, toListID string, toIndex int) bool {
	if a.Move == nil {
		return false
	}
	a.Move(cardID, fromListID, toListID, toIndex)
	return true
}

type OutcomeKind string

const (
	OutcomeNone         OutcomeKind = "none"
	OutcomeReorderLists OutcomeKind = "reorderLists"
	OutcomeMoveCard     OutcomeKind = "moveCard"
)

// Outcome is the action a drop resolves to.
type Outcome struct {
	Kind       OutcomeKind `json:"kind"`
	ListID     string      `json:"listId,omitempty"`
	From       int         `json:"from"`
	To         int         `json:"to"`
	CardID     string      `json:"cardId,omitempty"`
	FromListID string      `json:"fromListId,omitempty"`
	ToListID   string      `json:"toListId,omitempty"`
	ToIndex    int         `json:"toIndex"`
}

var none = Outcome{Kind: OutcomeNone}

// Resolve applies the action event resolves to, if any, and returns it along
// with whether the board changed. It calls at most one action and never
// modifies event or state.
func Resolve(event Event, state State, actions Actions) (Outcome, bool) {
	outcome := Describe(event, state)
	switch outcome.Kind {
	case OutcomeReorderLists:
		if mover, ok := actions.(ListMover); ok {
			return outcome, mover.MoveList(outcome.ListID, outcome.From, outcome.To)
		}
		return outcome, actions.ReorderLists(outcome.From, outcome.To)
	case OutcomeMoveCard:
		return outcome, actions.MoveCard(outcome.CardID, outcome.FromListID, outcome.ToListID, outcome.ToIndex)
	default:
		return outcome, false
	}
}

// Describe reports what Resolve would do for event without doing it.
func Describe(event Event, state State) Outcome {
	if event.Over == nil {
		return none
	}
	active, over := event.Active, *event.Over

	switch active.typ() {
	case TypeList:
		return describeListDrop(active, over, state)
	case TypeCard:
		return describeCardDrop(active, over, state)
	default:
		return none
	}
}

func describeListDrop(active, over Item, state State) Outcome {
	from := ordering.IndexOf(state.ListOrder, active.ID)
	to := ordering.IndexOf(state.ListOrder, over.ID)
	if from == -1 || to == -1 || from == to {
		return none
	}
	return Outcome{Kind: OutcomeReorderLists, ListID: active.ID, From: from, To: to}
}

func describeCardDrop(active, over Item, state State) Outcome {
	fromListID := owningList(active, state)
	if fromListID == "" {
		return none
	}
	fromIndex := ordering.IndexOf(state.ListsByID[fromListID], active.ID)
	if fromIndex == -1 {
		return none
	}

	if over.typ() == TypeCard {
		toListID := owningList(over, state)
		if toListID == "" {
			return none
		}
		toIndex := ordering.IndexOf(state.ListsByID[toListID], over.ID)
		if toIndex == -1 {
			return none
		}
		if fromListID == toListID && fromIndex == toIndex {
			return none
		}
		return moveOutcome(active.ID, fromListID, toListID, toIndex)
	}

	_, known := state.ListsByID[over.ID]
	if over.typ() != TypeList && !known {
		return none
	}
	return moveOutcome(active.ID, fromListID, over.ID, len(state.ListsByID[over.ID]))
}

func moveOutcome(cardID, fromListID, toListID string, toIndex int) Outcome {
	return Outcome{
		Kind:       OutcomeMoveCard,
		CardID:     cardID,
		FromListID: fromListID,
		ToListID:   toListID,
		ToIndex:    toIndex,
	}
}

// owningList prefers the list id carried by the item and otherwise searches
// every list for the item's id.
func owningList(item Item, state State) string {
	if listID := item.listID(); listID != "" {
		return listID
	}
	return findListForCard(state, item.ID)
}

// findListForCard scans lists in board order, then any lists missing from the
// order, so the first match is deterministic.
func findListForCard(state State, cardID string) string {
	seen := make(map[string]struct{}, len(state.ListOrder))
	for _, listID := range state.ListOrder {
		seen[listID] = struct{}{}
		if ordering.IndexOf(state.ListsByID[listID], cardID) != -1 {
			return listID
		}
	}

	rest := make([]string, 0, len(state.ListsByID))
	for listID := range state.ListsByID {
		if _, ok := seen[listID]; !ok {
			rest = append(rest, listID)
		}
	}
	sort.Strings(rest)
	for _, listID := range rest {
		if ordering.IndexOf(state.ListsByID[listID], cardID) != -1 {
			return listID
		}
	}
	return ""
}
