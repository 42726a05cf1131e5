package web

import (
	"embed"
	"html/template"
	"io"
	"net/http"

	"github.com/bytedance/sonic"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	log "github.com/sirupsen/logrus"

	"github.com/Joseda-hg/lazyboard/internal/board"
	"github.com/Joseda-hg/lazyboard/internal/dnd"
	"github.com/Joseda-hg/lazyboard/internal/model"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var indexTemplate = template.Must(template.ParseFS(templateFS, "templates/index.tmpl"))

const maxBodySize = 64 << 10

type Server struct {
	store  *board.Store
	logger *log.Entry
}

type column struct {
	List  model.List
	Cards []model.Card
}

type mutationResponse struct {
	Changed bool           `json:"changed"`
	ID      string         `json:"id,omitempty"`
	Board   model.Snapshot `json:"board"`
}

type dropResponse struct {
	Outcome dnd.Outcome    `json:"outcome"`
	Changed bool           `json:"changed"`
	Board   model.Snapshot `json:"board"`
}

func NewServer(store *board.Store, logger *log.Entry) *Server {
	if logger == nil {
		logger = log.WithField("component", "web")
	}
	return &Server{store: store, logger: logger}
}

func (s *Server) Handler() http.Handler {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.JSONSerializer = sonicSerializer{}
	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogValuesFunc: func(_ echo.Context, v middleware.RequestLoggerValues) error {
			s.logger.WithFields(log.Fields{
				"method":  v.Method,
				"uri":     v.URI,
				"status":  v.Status,
				"latency": v.Latency,
			}).Debug("request")
			return nil
		},
	}))
	s.Register(e)
	return e
}

// Register wires up the board page and JSON API on e.
func (s *Server) Register(e *echo.Echo) {
	e.GET("/", s.index())
	e.GET("/api/board", s.getBoard())
	e.PUT("/api/board/title", s.renameBoard())
	e.POST("/api/lists", s.addList())
	e.POST("/api/lists/reorder", s.reorderLists())
	e.PUT("/api/lists/:id/title", s.updateListTitle())
	e.DELETE("/api/lists/:id", s.removeList())
	e.POST("/api/lists/:id/cards", s.addCard())
	e.PUT("/api/cards/:id/title", s.updateCardTitle())
	e.PUT("/api/cards/:id/description", s.updateCardDescription())
	e.POST("/api/cards/:id/move", s.moveCard())
	e.POST("/api/cards/:id/comments", s.addComment())
	e.POST("/api/dnd", s.drop())
}

func (s *Server) index() echo.HandlerFunc {
	return func(c echo.Context) error {
		snapshot := s.store.Snapshot()
		lists := snapshot.Lists()
		columns := make([]column, 0, len(lists))
		for _, list := range lists {
			columns = append(columns, column{List: list, Cards: snapshot.CardsOf(list.ID)})
		}

		data := struct {
			Title   string
			Columns []column
		}{Title: snapshot.Board.Title, Columns: columns}

		c.Response().Header().Set(echo.HeaderContentType, echo.MIMETextHTMLCharsetUTF8)
		c.Response().WriteHeader(http.StatusOK)
		return indexTemplate.Execute(c.Response(), data)
	}
}

func (s *Server) getBoard() echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.JSON(http.StatusOK, s.store.Snapshot())
	}
}

type titleRequest struct {
	Title string `json:"title"`
}

func (s *Server) renameBoard() echo.HandlerFunc {
	return func(c echo.Context) error {
		var req titleRequest
		if err := decodeBody(c, &req); err != nil {
			return err
		}
		return s.respond(c, s.store.RenameBoard(req.Title), "")
	}
}

func (s *Server) addList() echo.HandlerFunc {
	return func(c echo.Context) error {
		var req titleRequest
		if err := decodeBody(c, &req); err != nil {
			return err
		}
		return s.respond(c, true, s.store.AddList(req.Title))
	}
}

func (s *Server) updateListTitle() echo.HandlerFunc {
	return func(c echo.Context) error {
		var req titleRequest
		if err := decodeBody(c, &req); err != nil {
			return err
		}
		return s.respond(c, s.store.UpdateListTitle(c.Param("id"), req.Title), "")
	}
}

func (s *Server) removeList() echo.HandlerFunc {
	return func(c echo.Context) error {
		return s.respond(c, s.store.RemoveList(c.Param("id")), "")
	}
}

func (s *Server) reorderLists() echo.HandlerFunc {
	return func(c echo.Context) error {
		var req struct {
			From *int `json:"from"`
			To   *int `json:"to"`
		}
		if err := decodeBody(c, &req); err != nil {
			return err
		}
		if req.From == nil || req.To == nil {
			return echo.NewHTTPError(http.StatusBadRequest, "from and to are required")
		}
		return s.respond(c, s.store.ReorderLists(*req.From, *req.To), "")
	}
}

func (s *Server) addCard() echo.HandlerFunc {
	return func(c echo.Context) error {
		var req titleRequest
		if err := decodeBody(c, &req); err != nil {
			return err
		}
		id, ok := s.store.AddCard(c.Param("id"), req.Title)
		return s.respond(c, ok, id)
	}
}

func (s *Server) updateCardTitle() echo.HandlerFunc {
	return func(c echo.Context) error {
		var req titleRequest
		if err := decodeBody(c, &req); err != nil {
			return err
		}
		return s.respond(c, s.store.UpdateCardTitle(c.Param("id"), req.Title), "")
	}
}

func (s *Server) updateCardDescription() echo.HandlerFunc {
	return func(c echo.Context) error {
		var req struct {
			Description string `json:"description"`
		}
		if err := decodeBody(c, &req); err != nil {
			return err
		}
		return s.respond(c, s.store.UpdateCardDescription(c.Param("id"), req.Description), "")
	}
}

func (s *Server) moveCard() echo.HandlerFunc {
	return func(c echo.Context) error {
		var req struct {
			FromListID string `json:"fromListId"`
			ToListID   string `json:"toListId"`
			ToIndex    *int   `json:"toIndex"`
		}
		if err := decodeBody(c, &req); err != nil {
			return err
		}
		if req.ToIndex == nil {
			return echo.NewHTTPError(http.StatusBadRequest, "toIndex is required")
		}
		return s.respond(c, s.store.MoveCard(c.Param("id"), req.FromListID, req.ToListID, *req.ToIndex), "")
	}
}

func (s *Server) addComment() echo.HandlerFunc {
	return func(c echo.Context) error {
		var req struct {
			Text string `json:"text"`
		}
		if err := decodeBody(c, &req); err != nil {
			return err
		}
		id, ok := s.store.AddComment(c.Param("id"), req.Text)
		return s.respond(c, ok, id)
	}
}

func (s *Server) drop() echo.HandlerFunc {
	return func(c echo.Context) error {
		var event dnd.Event
		if err := decodeBody(c, &event); err != nil {
			return err
		}

		outcome, changed := dnd.Resolve(event, dnd.StateFrom(s.store.Snapshot()), s.store)
		if !changed {
			s.logger.WithFields(log.Fields{"active": event.Active.ID, "kind": outcome.Kind}).Debug("drop ignored")
		}
		return c.JSON(http.StatusOK, dropResponse{Outcome: outcome, Changed: changed, Board: s.store.Snapshot()})
	}
}

func (s *Server) respond(c echo.Context, changed bool, id model.ID) error {
	resp := mutationResponse{Changed: changed, Board: s.store.Snapshot()}
	if changed {
		resp.ID = id
	}
	return c.JSON(http.StatusOK, resp)
}

func decodeBody(c echo.Context, v any) error {
	lr := io.LimitReader(c.Request().Body, maxBodySize)
	if err := sonic.ConfigStd.NewDecoder(lr).Decode(v); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body").SetInternal(err)
	}
	return nil
}
