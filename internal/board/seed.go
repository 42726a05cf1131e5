package board

import "github.com/Joseda-hg/lazyboard/internal/model"

// DemoSnapshot builds the board shown when nothing has been persisted yet.
func DemoSnapshot(ids IDGenerator) model.Snapshot {
	todoID := ids.NewID()
	inProgressID := ids.NewID()
	doneID := ids.NewID()

	setupID := ids.NewID()
	designID := ids.NewID()
	uiID := ids.NewID()

	return model.Snapshot{
		Board: model.Board{
			ID:        ids.NewID(),
			Title:     "Demo Board",
			ListOrder: []model.ID{todoID, inProgressID, doneID},
		},
		ListsByID: map[model.ID]model.List{
			todoID:       {ID: todoID, Title: "To Do", CardIDs: []model.ID{setupID, designID}},
			inProgressID: {ID: inProgressID, Title: "In Progress", CardIDs: []model.ID{uiID}},
			doneID:       {ID: doneID, Title: "Done", CardIDs: []model.ID{}},
		},
		CardsByID: map[model.ID]model.Card{
			setupID: {
				ID:          setupID,
				Title:       "Set up project",
				Description: "Initialize repository and tooling",
				CommentIDs:  []model.ID{},
			},
			designID: {
				ID:          designID,
				Title:       "Design board state",
				Description: "Define types and store",
				CommentIDs:  []model.ID{},
			},
			uiID: {
				ID:          uiID,
				Title:       "Implement basic UI",
				Description: "Render lists and cards",
				CommentIDs:  []model.ID{},
			},
		},
		CommentsByID: map[model.ID]model.Comment{},
	}
}
