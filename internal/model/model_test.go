package model

import (
	"testing"
	"time"
)

func validSnapshot() Snapshot {
	return Snapshot{
		Board: Board{ID: "b1", Title: "Board", ListOrder: []ID{"l1", "l2"}},
		ListsByID: map[ID]List{
			"l1": {ID: "l1", Title: "To Do", CardIDs: []ID{"c1"}},
			"l2": {ID: "l2", Title: "Done", CardIDs: []ID{}},
		},
		CardsByID: map[ID]Card{
			"c1": {ID: "c1", Title: "Card", CommentIDs: []ID{"m1"}},
		},
		CommentsByID: map[ID]Comment{
			"m1": {ID: "m1", CardID: "c1", Text: "hi", CreatedAt: time.Unix(0, 0).UTC()},
		},
	}
}

func TestCloneIsIndependent(t *testing.T) {
	original := validSnapshot()
	clone := original.Clone()

	clone.Board.ListOrder[0] = "changed"
	clone.ListsByID["l1"].CardIDs[0] = "changed"
	clone.CardsByID["c1"] = Card{ID: "c1", Title: "changed"}
	delete(clone.CommentsByID, "m1")

	if original.Board.ListOrder[0] != "l1" {
		t.Fatalf("expected list order to be untouched, got %v", original.Board.ListOrder)
	}
	if original.ListsByID["l1"].CardIDs[0] != "c1" {
		t.Fatalf("expected card ids to be untouched")
	}
	if original.CardsByID["c1"].Title != "Card" {
		t.Fatalf("expected card to be untouched")
	}
	if _, ok := original.CommentsByID["m1"]; !ok {
		t.Fatalf("expected comment to be untouched")
	}
}

func TestValidate(t *testing.T) {
	if err := validSnapshot().Validate(); err != nil {
		t.Fatalf("expected valid snapshot, got %v", err)
	}

	cases := map[string]func(*Snapshot){
		"empty board id": func(s *Snapshot) { s.Board.ID = "" },
		"duplicate list": func(s *Snapshot) { s.Board.ListOrder = []ID{"l1", "l1"} },
		"unknown list":   func(s *Snapshot) { s.Board.ListOrder = append(s.Board.ListOrder, "l9") },
		"list key mismatch": func(s *Snapshot) {
			s.ListsByID["l2"] = List{ID: "other", CardIDs: []ID{}}
		},
		"card in two lists": func(s *Snapshot) {
			s.ListsByID["l2"] = List{ID: "l2", CardIDs: []ID{"c1"}}
		},
		"unknown card": func(s *Snapshot) {
			s.ListsByID["l2"] = List{ID: "l2", CardIDs: []ID{"c9"}}
		},
		"unknown comment": func(s *Snapshot) {
			s.CardsByID["c1"] = Card{ID: "c1", CommentIDs: []ID{"m9"}}
		},
		"comment on other card": func(s *Snapshot) {
			s.CommentsByID["m1"] = Comment{ID: "m1", CardID: "c2"}
		},
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			snapshot := validSnapshot()
			mutate(&snapshot)
			if err := snapshot.Validate(); err == nil {
				t.Fatalf("expected %s to be rejected", name)
			}
		})
	}
}

func TestOrderedAccessors(t *testing.T) {
	snapshot := validSnapshot()
	snapshot.Board.ListOrder = []ID{"l2", "l1"}

	lists := snapshot.Lists()
	if len(lists) != 2 || lists[0].ID != "l2" || lists[1].ID != "l1" {
		t.Fatalf("expected lists in board order, got %+v", lists)
	}
	if cards := snapshot.CardsOf("l1"); len(cards) != 1 || cards[0].ID != "c1" {
		t.Fatalf("expected c1 in l1, got %+v", cards)
	}
	if cards := snapshot.CardsOf("missing"); cards != nil {
		t.Fatalf("expected nil for unknown list, got %+v", cards)
	}
	if comments := snapshot.CommentsOf("c1"); len(comments) != 1 || comments[0].Text != "hi" {
		t.Fatalf("expected one comment, got %+v", comments)
	}
}
