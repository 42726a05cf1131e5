package model

import (
	"fmt"
	"time"
)

// ID identifies a board entity. IDs are opaque and stable for the entity's lifetime.
type ID = string

type Board struct {
	ID        ID     `json:"id"`
	Title     string `json:"title"`
	ListOrder []ID   `json:"listOrder"`
}

type List struct {
	ID      ID     `json:"id"`
	Title   string `json:"title"`
	CardIDs []ID   `json:"cardIds"`
}

type Card struct {
	ID          ID     `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	CommentIDs  []ID   `json:"commentIds"`
}

type Comment struct {
	ID        ID        `json:"id"`
	CardID    ID        `json:"cardId"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}

// Snapshot is the complete normalized board state. Containment is expressed
// only through the id sequences on Board, List and Card.
type Snapshot struct {
	Board        Board          `json:"board"`
	ListsByID    map[ID]List    `json:"listsById"`
	CardsByID    map[ID]Card    `json:"cardsById"`
	CommentsByID map[ID]Comment `json:"commentsById"`
}

// Clone returns a deep copy that shares no slices or maps with s.
func (s Snapshot) Clone() Snapshot {
	out := Snapshot{
		Board: Board{
			ID:        s.Board.ID,
			Title:     s.Board.Title,
			ListOrder: cloneIDs(s.Board.ListOrder),
		},
	}
	if s.ListsByID != nil {
		out.ListsByID = make(map[ID]List, len(s.ListsByID))
		for id, list := range s.ListsByID {
			list.CardIDs = cloneIDs(list.CardIDs)
			out.ListsByID[id] = list
		}
	}
	if s.CardsByID != nil {
		out.CardsByID = make(map[ID]Card, len(s.CardsByID))
		for id, card := range s.CardsByID {
			card.CommentIDs = cloneIDs(card.CommentIDs)
			out.CardsByID[id] = card
		}
	}
	if s.CommentsByID != nil {
		out.CommentsByID = make(map[ID]Comment, len(s.CommentsByID))
		for id, comment := range s.CommentsByID {
			out.CommentsByID[id] = comment
		}
	}
	return out
}

// Validate checks the reference invariants between the board, its lists,
// cards and comments. It reports the first violation found.
func (s Snapshot) Validate() error {
	if s.Board.ID == "" {
		return fmt.Errorf("board id is empty")
	}

	seenLists := make(map[ID]struct{}, len(s.Board.ListOrder))
	for _, listID := range s.Board.ListOrder {
		if _, dup := seenLists[listID]; dup {
			return fmt.Errorf("list %q appears twice in listOrder", listID)
		}
		seenLists[listID] = struct{}{}
		if _, ok := s.ListsByID[listID]; !ok {
			return fmt.Errorf("listOrder references unknown list %q", listID)
		}
	}

	seenCards := make(map[ID]ID)
	for listID, list := range s.ListsByID {
		if list.ID != listID {
			return fmt.Errorf("list keyed %q has id %q", listID, list.ID)
		}
		for _, cardID := range list.CardIDs {
			if owner, dup := seenCards[cardID]; dup {
				return fmt.Errorf("card %q is contained by lists %q and %q", cardID, owner, listID)
			}
			seenCards[cardID] = listID
			if _, ok := s.CardsByID[cardID]; !ok {
				return fmt.Errorf("list %q references unknown card %q", listID, cardID)
			}
		}
	}

	for cardID, card := range s.CardsByID {
		if card.ID != cardID {
			return fmt.Errorf("card keyed %q has id %q", cardID, card.ID)
		}
		for _, commentID := range card.CommentIDs {
			comment, ok := s.CommentsByID[commentID]
			if !ok {
				return fmt.Errorf("card %q references unknown comment %q", cardID, commentID)
			}
			if comment.CardID != cardID {
				return fmt.Errorf("comment %q belongs to card %q, not %q", commentID, comment.CardID, cardID)
			}
		}
	}

	return nil
}

// Lists returns the board's lists in display order.
func (s Snapshot) Lists() []List {
	lists := make([]List, 0, len(s.Board.ListOrder))
	for _, id := range s.Board.ListOrder {
		if list, ok := s.ListsByID[id]; ok {
			lists = append(lists, list)
		}
	}
	return lists
}

// CardsOf returns the cards of a list in display order.
func (s Snapshot) CardsOf(listID ID) []Card {
	list, ok := s.ListsByID[listID]
	if !ok {
		return nil
	}
	cards := make([]Card, 0, len(list.CardIDs))
	for _, id := range list.CardIDs {
		if card, ok := s.CardsByID[id]; ok {
			cards = append(cards, card)
		}
	}
	return cards
}

// CommentsOf returns the comments of a card in display order.
func (s Snapshot) CommentsOf(cardID ID) []Comment {
	card, ok := s.CardsByID[cardID]
	if !ok {
		return nil
	}
	comments := make([]Comment, 0, len(card.CommentIDs))
	for _, id := range card.CommentIDs {
		if comment, ok := s.CommentsByID[id]; ok {
			comments = append(comments, comment)
		}
	}
	return comments
}

func cloneIDs(ids []ID) []ID {
	if ids == nil {
		return nil
	}
	out := make([]ID, len(ids))
	copy(out, ids)
	return out
}
