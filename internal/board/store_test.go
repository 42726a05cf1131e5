package board

import (
	"context"
	"reflect"
	"slices"
	"testing"
	"time"

	"github.com/Joseda-hg/lazyboard/internal/model"
)

var fixedNow = time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)

func TestDemoSnapshotShape(t *testing.T) {
	store := newTestStore(t)
	snapshot := store.Snapshot()

	if snapshot.Board.Title != "Demo Board" {
		t.Fatalf("expected title 'Demo Board', got %q", snapshot.Board.Title)
	}
	if len(snapshot.Board.ListOrder) != 3 {
		t.Fatalf("expected 3 lists, got %d", len(snapshot.Board.ListOrder))
	}
	if len(snapshot.CardsByID) != 3 {
		t.Fatalf("expected 3 cards, got %d", len(snapshot.CardsByID))
	}
	if err := snapshot.Validate(); err != nil {
		t.Fatalf("expected demo snapshot to be valid: %v", err)
	}

	descriptions := map[string]string{}
	for _, card := range snapshot.CardsByID {
		descriptions[card.Title] = card.Description
	}
	want := map[string]string{
		"Set up project":     "Initialize repository and tooling",
		"Design board state": "Define types and store",
		"Implement basic UI": "Render lists and cards",
	}
	if !reflect.DeepEqual(descriptions, want) {
		t.Fatalf("expected seed descriptions %v, got %v", want, descriptions)
	}
}

func TestRenameBoardAcceptsEmptyTitle(t *testing.T) {
	store := newTestStore(t)

	if !store.RenameBoard("New Title") {
		t.Fatalf("expected rename to change state")
	}
	if got := store.Snapshot().Board.Title; got != "New Title" {
		t.Fatalf("expected title 'New Title', got %q", got)
	}

	if !store.RenameBoard("") {
		t.Fatalf("expected empty rename to change state")
	}
	if got := store.Snapshot().Board.Title; got != "" {
		t.Fatalf("expected empty title, got %q", got)
	}
}

func TestAddAndRemoveList(t *testing.T) {
	store := newTestStore(t)
	before := len(store.Snapshot().Board.ListOrder)

	listID := store.AddList("New List")
	snapshot := store.Snapshot()
	if len(snapshot.Board.ListOrder) != before+1 {
		t.Fatalf("expected %d lists, got %d", before+1, len(snapshot.Board.ListOrder))
	}
	if last := snapshot.Board.ListOrder[len(snapshot.Board.ListOrder)-1]; last != listID {
		t.Fatalf("expected new list %q to be appended, got %q", listID, last)
	}
	if list := snapshot.ListsByID[listID]; list.Title != "New List" || len(list.CardIDs) != 0 {
		t.Fatalf("unexpected new list: %#v", list)
	}

	if !store.RemoveList(listID) {
		t.Fatalf("expected remove to change state")
	}
	if got := len(store.Snapshot().Board.ListOrder); got != before {
		t.Fatalf("expected %d lists after remove, got %d", before, got)
	}
}

func TestRemoveListCascadesToCardsAndComments(t *testing.T) {
	store := newTestStore(t)
	snapshot := store.Snapshot()
	listID := snapshot.Board.ListOrder[0]
	cardIDs := snapshot.ListsByID[listID].CardIDs
	commentID, ok := store.AddComment(cardIDs[0], "soon gone")
	if !ok {
		t.Fatalf("expected comment to be added")
	}

	if !store.RemoveList(listID) {
		t.Fatalf("expected remove to change state")
	}

	after := store.Snapshot()
	if slices.Contains(after.Board.ListOrder, listID) {
		t.Fatalf("expected list %q to be gone from listOrder", listID)
	}
	if _, ok := after.ListsByID[listID]; ok {
		t.Fatalf("expected list %q to be gone from listsById", listID)
	}
	for _, cardID := range cardIDs {
		if _, ok := after.CardsByID[cardID]; ok {
			t.Fatalf("expected card %q to be deleted", cardID)
		}
	}
	if _, ok := after.CommentsByID[commentID]; ok {
		t.Fatalf("expected comment %q to be purged", commentID)
	}
	if err := after.Validate(); err != nil {
		t.Fatalf("expected valid snapshot after remove: %v", err)
	}
}

func TestUnknownIDsAreNoOps(t *testing.T) {
	var notified int
	store := newTestStore(t, WithObserver(func(model.Snapshot) { notified++ }))
	before := store.Snapshot()

	if store.UpdateListTitle("missing", "x") {
		t.Fatalf("expected updateListTitle on unknown list to be a no-op")
	}
	if store.RemoveList("missing") {
		t.Fatalf("expected removeList on unknown list to be a no-op")
	}
	if _, ok := store.AddCard("missing", "x"); ok {
		t.Fatalf("expected addCard on unknown list to be a no-op")
	}
	if store.UpdateCardTitle("missing", "x") {
		t.Fatalf("expected updateCardTitle on unknown card to be a no-op")
	}
	if store.UpdateCardDescription("missing", "x") {
		t.Fatalf("expected updateCardDescription on unknown card to be a no-op")
	}
	if _, ok := store.AddComment("missing", "x"); ok {
		t.Fatalf("expected addComment on unknown card to be a no-op")
	}
	if store.ReorderLists(0, 0) || store.ReorderLists(-1, 1) || store.ReorderLists(0, 3) {
		t.Fatalf("expected invalid reorders to be no-ops")
	}

	if notified != 0 {
		t.Fatalf("expected no notifications, got %d", notified)
	}
	if !reflect.DeepEqual(before, store.Snapshot()) {
		t.Fatalf("expected state to be unchanged")
	}
}

func TestReorderListsScenario(t *testing.T) {
	store := newTestStore(t)
	order := store.Snapshot().Board.ListOrder
	l1, l2, l3 := order[0], order[1], order[2]

	if !store.ReorderLists(0, 2) {
		t.Fatalf("expected reorder to change state")
	}
	got := store.Snapshot().Board.ListOrder
	want := []model.ID{l2, l3, l1}
	if !slices.Equal(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestMoveListRechecksPosition(t *testing.T) {
	store := newTestStore(t)
	order := store.Snapshot().Board.ListOrder
	l1, l2, l3 := order[0], order[1], order[2]

	if store.MoveList(l2, 0, 2) {
		t.Fatalf("expected move of a list not at index 0 to be a no-op")
	}
	if store.MoveList(l1, 5, 0) {
		t.Fatalf("expected out of range index to be a no-op")
	}
	if !store.MoveList(l1, 0, 2) {
		t.Fatalf("expected move to change state")
	}
	got := store.Snapshot().Board.ListOrder
	want := []model.ID{l2, l3, l1}
	if !slices.Equal(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestAddAndUpdateCard(t *testing.T) {
	store := newTestStore(t)
	listID := store.Snapshot().Board.ListOrder[0]

	cardID, ok := store.AddCard(listID, "New Card")
	if !ok {
		t.Fatalf("expected card to be added")
	}
	snapshot := store.Snapshot()
	ids := snapshot.ListsByID[listID].CardIDs
	if ids[len(ids)-1] != cardID {
		t.Fatalf("expected card %q appended, got %v", cardID, ids)
	}
	card := snapshot.CardsByID[cardID]
	if card.Description != "" || len(card.CommentIDs) != 0 {
		t.Fatalf("expected empty description and comments, got %#v", card)
	}

	store.UpdateCardTitle(cardID, "Updated Title")
	store.UpdateCardDescription(cardID, "Some details")
	card = store.Snapshot().CardsByID[cardID]
	if card.Title != "Updated Title" {
		t.Fatalf("expected title 'Updated Title', got %q", card.Title)
	}
	if card.Description != "Some details" {
		t.Fatalf("expected description 'Some details', got %q", card.Description)
	}
}

func TestMoveCardWithinList(t *testing.T) {
	store := newTestStore(t, WithInitial(fixture(map[string][]string{"l1": {"c1", "c2", "c3"}}, "l1")))

	if !store.MoveCard("c1", "l1", "l1", 2) {
		t.Fatalf("expected move to change state")
	}
	got := store.Snapshot().ListsByID["l1"].CardIDs
	if want := []model.ID{"c2", "c3", "c1"}; !slices.Equal(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}

	if store.MoveCard("c1", "l1", "l1", 2) {
		t.Fatalf("expected move onto the same index to be a no-op")
	}
	if store.MoveCard("c1", "l1", "l1", 3) {
		t.Fatalf("expected out of range move within a list to be a no-op")
	}
}

func TestMoveCardAcrossListsClampsIndex(t *testing.T) {
	cases := []struct {
		name    string
		toIndex int
		want    []model.ID
	}{
		{"front", 0, []model.ID{"c1", "c2", "c3"}},
		{"middle", 1, []model.ID{"c2", "c1", "c3"}},
		{"end", 2, []model.ID{"c2", "c3", "c1"}},
		{"past end", 9, []model.ID{"c2", "c3", "c1"}},
		{"negative", -5, []model.ID{"c1", "c2", "c3"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := newTestStore(t, WithInitial(fixture(map[string][]string{"l1": {"c1"}, "l2": {"c2", "c3"}}, "l1", "l2")))

			if !store.MoveCard("c1", "l1", "l2", tc.toIndex) {
				t.Fatalf("expected move to change state")
			}
			snapshot := store.Snapshot()
			if got := snapshot.ListsByID["l1"].CardIDs; len(got) != 0 {
				t.Fatalf("expected source list to be empty, got %v", got)
			}
			if got := snapshot.ListsByID["l2"].CardIDs; !slices.Equal(got, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
			if count := countCard(snapshot, "c1"); count != 1 {
				t.Fatalf("expected card in exactly one list, found %d", count)
			}
		})
	}
}

func TestMoveCardNoOps(t *testing.T) {
	store := newTestStore(t, WithInitial(fixture(map[string][]string{"l1": {"c1"}, "l2": {"c2"}}, "l1", "l2")))

	if store.MoveCard("c1", "missing", "l2", 0) {
		t.Fatalf("expected unknown source list to be a no-op")
	}
	if store.MoveCard("c1", "l1", "missing", 0) {
		t.Fatalf("expected unknown destination list to be a no-op")
	}
	if store.MoveCard("c2", "l1", "l2", 0) {
		t.Fatalf("expected card outside source list to be a no-op")
	}
}

func TestAddComment(t *testing.T) {
	store := newTestStore(t)
	snapshot := store.Snapshot()
	cardID := snapshot.ListsByID[snapshot.Board.ListOrder[0]].CardIDs[0]

	commentID, ok := store.AddComment(cardID, "Hello world")
	if !ok {
		t.Fatalf("expected comment to be added")
	}

	after := store.Snapshot()
	card := after.CardsByID[cardID]
	if len(card.CommentIDs) != 1 || card.CommentIDs[0] != commentID {
		t.Fatalf("expected comment ids [%s], got %v", commentID, card.CommentIDs)
	}
	comment := after.CommentsByID[commentID]
	if comment.Text != "Hello world" || comment.CardID != cardID {
		t.Fatalf("unexpected comment: %#v", comment)
	}
	if !comment.CreatedAt.Equal(fixedNow) {
		t.Fatalf("expected createdAt %v, got %v", fixedNow, comment.CreatedAt)
	}
}

func TestAddCommentIgnoresBlankText(t *testing.T) {
	store := newTestStore(t)
	snapshot := store.Snapshot()
	cardID := snapshot.ListsByID[snapshot.Board.ListOrder[0]].CardIDs[0]

	for _, text := range []string{"", "   ", "\n\t "} {
		if _, ok := store.AddComment(cardID, text); ok {
			t.Fatalf("expected blank comment %q to be ignored", text)
		}
	}
	if got := store.Snapshot().CardsByID[cardID].CommentIDs; len(got) != 0 {
		t.Fatalf("expected no comments, got %v", got)
	}
}

func TestOlderSnapshotsAreNotAliased(t *testing.T) {
	store := newTestStore(t, WithInitial(fixture(map[string][]string{"l1": {"c1", "c2"}, "l2": {}}, "l1", "l2")))
	before := store.Snapshot()
	beforeCopy := before.Clone()

	store.AddCard("l1", "c3")
	store.MoveCard("c1", "l1", "l2", 0)
	store.ReorderLists(0, 1)
	store.AddList("l3")

	if !reflect.DeepEqual(before, beforeCopy) {
		t.Fatalf("expected earlier snapshot to stay unchanged")
	}
}

func TestObserversSeeEveryChange(t *testing.T) {
	var seen []model.Snapshot
	store := newTestStore(t, WithObserver(func(s model.Snapshot) { seen = append(seen, s) }))

	listID := store.AddList("Later")
	store.AddCard(listID, "Card")
	store.UpdateListTitle("missing", "ignored")

	if len(seen) != 2 {
		t.Fatalf("expected 2 notifications, got %d", len(seen))
	}
	if got := seen[1].ListsByID[listID].CardIDs; len(got) != 1 {
		t.Fatalf("expected observer to see the new card, got %v", got)
	}
}

func TestOpenPrefersPersistedSnapshot(t *testing.T) {
	persisted := fixture(map[string][]string{"l1": {"c1"}}, "l1")
	persister := &recordingPersister{stored: map[string]model.Snapshot{"board": persisted}}

	store := Open(context.Background(), persister, "board", WithIDGenerator(NewSequenceGenerator("id_")))
	if !reflect.DeepEqual(store.Snapshot(), persisted) {
		t.Fatalf("expected persisted snapshot to supersede the seed")
	}

	store.RenameBoard("Saved")
	if persister.saves != 1 {
		t.Fatalf("expected 1 save, got %d", persister.saves)
	}
	if got := persister.stored["board"].Board.Title; got != "Saved" {
		t.Fatalf("expected saved title 'Saved', got %q", got)
	}
}

func TestOpenFallsBackToSeed(t *testing.T) {
	persister := &recordingPersister{stored: map[string]model.Snapshot{}}

	store := Open(context.Background(), persister, "board", WithIDGenerator(NewSequenceGenerator("id_")))
	if got := store.Snapshot().Board.Title; got != "Demo Board" {
		t.Fatalf("expected demo board, got %q", got)
	}
	if persister.saves != 0 {
		t.Fatalf("expected no save before the first change, got %d", persister.saves)
	}
}

type recordingPersister struct {
	stored map[string]model.Snapshot
	saves  int
}

func (p *recordingPersister) Load(_ context.Context, key string) (model.Snapshot, bool) {
	snapshot, ok := p.stored[key]
	return snapshot, ok
}

func (p *recordingPersister) Save(_ context.Context, key string, snapshot model.Snapshot) {
	p.saves++
	p.stored[key] = snapshot
}

func newTestStore(t *testing.T, opts ...Option) *Store {
	t.Helper()
	base := []Option{
		WithIDGenerator(NewSequenceGenerator("id_")),
		WithClock(func() time.Time { return fixedNow }),
	}
	return New(append(base, opts...)...)
}

// fixture builds a snapshot whose cards are named after their ids.
func fixture(cardsByList map[string][]string, order ...string) model.Snapshot {
	snapshot := model.Snapshot{
		Board:        model.Board{ID: "b1", Title: "Fixture", ListOrder: order},
		ListsByID:    map[model.ID]model.List{},
		CardsByID:    map[model.ID]model.Card{},
		CommentsByID: map[model.ID]model.Comment{},
	}
	for _, listID := range order {
		cardIDs := append([]model.ID{}, cardsByList[listID]...)
		snapshot.ListsByID[listID] = model.List{ID: listID, Title: listID, CardIDs: cardIDs}
		for _, cardID := range cardIDs {
			snapshot.CardsByID[cardID] = model.Card{ID: cardID, Title: cardID, CommentIDs: []model.ID{}}
		}
	}
	return snapshot
}

func countCard(snapshot model.Snapshot, cardID model.ID) int {
	count := 0
	for _, list := range snapshot.ListsByID {
		for _, id := range list.CardIDs {
			if id == cardID {
				count++
			}
		}
	}
	return count
}
