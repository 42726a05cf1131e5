package board

import (
	"context"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/Joseda-hg/lazyboard/internal/model"
	"github.com/Joseda-hg/lazyboard/internal/ordering"
)

const defaultSaveTimeout = 2 * time.Second

// Observer is called with the new snapshot after every change, while the
// store is still locked. Observers must not call back into the store.
type Observer func(model.Snapshot)

// Persister loads and saves whole snapshots. Both operations are best-effort:
// Load reports absence instead of failing and Save never fails.
type Persister interface {
	Load(ctx context.Context, key string) (model.Snapshot, bool)
	Save(ctx context.Context, key string, snapshot model.Snapshot)
}

// Store owns the normalized board state. Mutations that do not apply leave
// the state untouched and return false; all others install a new snapshot
// and notify observers.
type Store struct {
	mu        sync.Mutex
	state     model.Snapshot
	ids       IDGenerator
	now       func() time.Time
	observers []Observer
	logger    *log.Entry

	initial     *model.Snapshot
	saveTimeout time.Duration
}

type Option func(*Store)

func WithIDGenerator(ids IDGenerator) Option {
	return func(s *Store) { s.ids = ids }
}

func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithInitial starts the store from snapshot instead of the demo board.
func WithInitial(snapshot model.Snapshot) Option {
	return func(s *Store) {
		clone := snapshot.Clone()
		s.initial = &clone
	}
}

func WithObserver(observer Observer) Option {
	return func(s *Store) { s.observers = append(s.observers, observer) }
}

func WithLogger(logger *log.Entry) Option {
	return func(s *Store) { s.logger = logger }
}

func WithSaveTimeout(timeout time.Duration) Option {
	return func(s *Store) { s.saveTimeout = timeout }
}

func New(opts ...Option) *Store {
	s := &Store{
		ids:         UUIDGenerator{},
		now:         time.Now,
		logger:      log.WithField("component", "board"),
		saveTimeout: defaultSaveTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.initial != nil {
		s.state = *s.initial
		s.initial = nil
	} else {
		s.state = DemoSnapshot(s.ids)
	}
	ensureMaps(&s.state)
	return s
}

// Open consults persister under key first and falls back to the demo board.
// Every later change is saved under the same key.
func Open(ctx context.Context, persister Persister, key string, opts ...Option) *Store {
	if snapshot, ok := persister.Load(ctx, key); ok {
		opts = append([]Option{WithInitial(snapshot)}, opts...)
	}

	s := New(opts...)
	s.logger.WithField("key", key).Debug("board store opened")
	s.Subscribe(func(snapshot model.Snapshot) {
		saveCtx, cancel := context.WithTimeout(context.Background(), s.saveTimeout)
		defer cancel()
		persister.Save(saveCtx, key, snapshot)
	})
	return s
}

// Subscribe registers observer for every subsequent change.
func (s *Store) Subscribe(observer Observer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, observer)
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() model.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

func (s *Store) RenameBoard(title string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.state
	next.Board.Title = title
	s.commit("renameBoard", next)
	return true
}

func (s *Store) AddList(title string) model.ID {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.ids.NewID()
	next := s.state
	next.ListsByID = withList(s.state.ListsByID, model.List{ID: id, Title: title, CardIDs: []model.ID{}})
	next.Board.ListOrder = appendID(s.state.Board.ListOrder, id)
	s.commit("addList", next)
	return id
}

func (s *Store) UpdateListTitle(listID model.ID, title string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	list, ok := s.state.ListsByID[listID]
	if !ok {
		return s.skip("updateListTitle", "unknown list")
	}
	list.Title = title

	next := s.state
	next.ListsByID = withList(s.state.ListsByID, list)
	s.commit("updateListTitle", next)
	return true
}

// RemoveList deletes the list, its cards and the comments of those cards.
func (s *Store) RemoveList(listID model.ID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed, ok := s.state.ListsByID[listID]
	if !ok {
		return s.skip("removeList", "unknown list")
	}

	lists := make(map[model.ID]model.List, len(s.state.ListsByID))
	for id, list := range s.state.ListsByID {
		if id != listID {
			lists[id] = list
		}
	}

	cards := copyCards(s.state.CardsByID)
	comments := copyComments(s.state.CommentsByID)
	for _, cardID := range removed.CardIDs {
		if card, ok := cards[cardID]; ok {
			for _, commentID := range card.CommentIDs {
				delete(comments, commentID)
			}
		}
		delete(cards, cardID)
	}

	next := s.state
	next.ListsByID = lists
	next.CardsByID = cards
	next.CommentsByID = comments
	next.Board.ListOrder = ordering.Remove(s.state.Board.ListOrder, listID)
	s.commit("removeList", next)
	return true
}

func (s *Store) ReorderLists(from, to int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reorderLists("reorderLists", from, to)
}

// MoveList reorders like ReorderLists but only while listID still sits at
// from, so callers holding an older snapshot cannot move the wrong list.
func (s *Store) MoveList(listID model.ID, from, to int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	order := s.state.Board.ListOrder
	if from < 0 || from >= len(order) || order[from] != listID {
		return s.skip("moveList", "list no longer at index")
	}
	return s.reorderLists("moveList", from, to)
}

func (s *Store) reorderLists(op string, from, to int) bool {
	order := ordering.Reorder(s.state.Board.ListOrder, from, to)
	if ordering.Same(order, s.state.Board.ListOrder) {
		return s.skip(op, "index out of range or unchanged")
	}

	next := s.state
	next.Board.ListOrder = order
	s.commit(op, next)
	return true
}

func (s *Store) AddCard(listID model.ID, title string) (model.ID, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	list, ok := s.state.ListsByID[listID]
	if !ok {
		return "", s.skip("addCard", "unknown list")
	}

	id := s.ids.NewID()
	list.CardIDs = appendID(list.CardIDs, id)

	next := s.state
	next.CardsByID = withCard(s.state.CardsByID, model.Card{ID: id, Title: title, Description: "", CommentIDs: []model.ID{}})
	next.ListsByID = withList(s.state.ListsByID, list)
	s.commit("addCard", next)
	return id, true
}

func (s *Store) UpdateCardTitle(cardID model.ID, title string) bool {
	return s.updateCard("updateCardTitle", cardID, func(card *model.Card) { card.Title = title })
}

func (s *Store) UpdateCardDescription(cardID model.ID, description string) bool {
	return s.updateCard("updateCardDescription", cardID, func(card *model.Card) { card.Description = description })
}

func (s *Store) updateCard(op string, cardID model.ID, apply func(*model.Card)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	card, ok := s.state.CardsByID[cardID]
	if !ok {
		return s.skip(op, "unknown card")
	}
	apply(&card)

	next := s.state
	next.CardsByID = withCard(s.state.CardsByID, card)
	s.commit(op, next)
	return true
}

// MoveCard repositions cardID. Within one list toIndex must be a valid
// position; across lists it is clamped to [0, len(destination)].
func (s *Store) MoveCard(cardID, fromListID, toListID model.ID, toIndex int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	fromList, okFrom := s.state.ListsByID[fromListID]
	toList, okTo := s.state.ListsByID[toListID]
	if !okFrom || !okTo {
		return s.skip("moveCard", "unknown list")
	}

	fromIndex := ordering.IndexOf(fromList.CardIDs, cardID)
	if fromIndex == -1 {
		return s.skip("moveCard", "card not in source list")
	}

	next := s.state
	if fromListID == toListID {
		ids := ordering.Reorder(fromList.CardIDs, fromIndex, toIndex)
		if ordering.Same(ids, fromList.CardIDs) {
			return s.skip("moveCard", "index out of range or unchanged")
		}
		fromList.CardIDs = ids
		next.ListsByID = withList(s.state.ListsByID, fromList)
		s.commit("moveCard", next)
		return true
	}

	fromList.CardIDs, toList.CardIDs = ordering.MoveBetween(fromList.CardIDs, toList.CardIDs, fromIndex, ordering.Clamp(toIndex, len(toList.CardIDs)))
	next.ListsByID = withList(withList(s.state.ListsByID, fromList), toList)
	s.commit("moveCard", next)
	return true
}

// AddComment appends a comment to cardID. Blank text is ignored.
func (s *Store) AddComment(cardID model.ID, text string) (model.ID, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	card, ok := s.state.CardsByID[cardID]
	if !ok {
		return "", s.skip("addComment", "unknown card")
	}
	if strings.TrimSpace(text) == "" {
		return "", s.skip("addComment", "blank text")
	}

	id := s.ids.NewID()
	card.CommentIDs = appendID(card.CommentIDs, id)

	next := s.state
	next.CommentsByID = withComment(s.state.CommentsByID, model.Comment{
		ID:        id,
		CardID:    cardID,
		Text:      text,
		CreatedAt: s.now().UTC(),
	})
	next.CardsByID = withCard(s.state.CardsByID, card)
	s.commit("addComment", next)
	return id, true
}

func (s *Store) commit(op string, next model.Snapshot) {
	s.state = next
	s.logger.WithField("op", op).Debug("board changed")
	if len(s.observers) == 0 {
		return
	}
	snapshot := s.state.Clone()
	for _, observer := range s.observers {
		observer(snapshot)
	}
}

func (s *Store) skip(op, reason string) bool {
	s.logger.WithFields(log.Fields{"op": op, "reason": reason}).Debug("board unchanged")
	return false
}

func ensureMaps(state *model.Snapshot) {
	if state.ListsByID == nil {
		state.ListsByID = map[model.ID]model.List{}
	}
	if state.CardsByID == nil {
		state.CardsByID = map[model.ID]model.Card{}
	}
	if state.CommentsByID == nil {
		state.CommentsByID = map[model.ID]model.Comment{}
	}
}

// appendID never writes into the backing array of ids, which may be shared
// with older snapshots.
func appendID(ids []model.ID, more ...model.ID) []model.ID {
	next := make([]model.ID, 0, len(ids)+len(more))
	next = append(next, ids...)
	return append(next, more...)
}

func withList(lists map[model.ID]model.List, list model.List) map[model.ID]model.List {
	next := make(map[model.ID]model.List, len(lists)+1)
	for id, existing := range lists {
		next[id] = existing
	}
	next[list.ID] = list
	return next
}

func withCard(cards map[model.ID]model.Card, card model.Card) map[model.ID]model.Card {
	next := copyCards(cards)
	next[card.ID] = card
	return next
}

func withComment(comments map[model.ID]model.Comment, comment model.Comment) map[model.ID]model.Comment {
	next := copyComments(comments)
	next[comment.ID] = comment
	return next
}

func copyCards(cards map[model.ID]model.Card) map[model.ID]model.Card {
	next := make(map[model.ID]model.Card, len(cards)+1)
	for id, card := range cards {
		next[id] = card
	}
	return next
}

func copyComments(comments map[model.ID]model.Comment) map[model.ID]model.Comment {
	next := make(map[model.ID]model.Comment, len(comments)+1)
	for id, comment := range comments {
		next[id] = comment
	}
	return next
}
