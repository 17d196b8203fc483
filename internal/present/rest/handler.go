package rest

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/phlask/resource-registry/internal/domain"
	"github.com/phlask/resource-registry/internal/present/rest/presenter"
	"github.com/phlask/resource-registry/internal/usecase"
)

// ChangeFeed streams committed change batches to output until ctx is done.
// Nil means no feed is configured and /realtime reports unavailable.
type ChangeFeed interface {
	Realtime(ctx context.Context, output chan<- []domain.ChangeRecord)
}

type Handler struct {
	resources   *usecase.ResourceUsecase
	changelog   *usecase.ChangelogUsecase
	suggestions *usecase.SuggestionUsecase
	signal      ChangeFeed
}

func NewHandler(
	resources *usecase.ResourceUsecase,
	changelog *usecase.ChangelogUsecase,
	suggestions *usecase.SuggestionUsecase,
	signal ChangeFeed,
) *Handler {
	return &Handler{
		resources:   resources,
		changelog:   changelog,
		suggestions: suggestions,
		signal:      signal,
	}
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/api/v1/resources", h.handleList)
	e.GET("/api/v1/resources/nearby", h.handleNearby)
	e.GET("/api/v1/resources/:id", h.handleGet)
	e.POST("/api/v1/resources", h.handleCreate)
	e.PATCH("/api/v1/resources/:id", h.handleUpdate)
	e.DELETE("/api/v1/resources/:id", h.handleDelete)
	e.PUT("/api/v1/resources/:id/status", h.handleSetStatus)
	e.PUT("/api/v1/resources/:id/verification", h.handleVerify)
	e.GET("/api/v1/resources/:id/changes", h.handleListChanges)
	e.POST("/api/v1/changes/:id/rollback", h.handleRollback)
	e.POST("/api/v1/resources/:id/suggestions", h.handleSubmitSuggestion)
	e.GET("/api/v1/suggestions", h.handleListSuggestions)
	e.GET("/api/v1/suggestions/:id", h.handleGetSuggestion)
	e.POST("/api/v1/suggestions/:id/approve", h.handleApproveSuggestion)
	e.POST("/api/v1/suggestions/:id/dismiss", h.handleDismissSuggestion)
	e.GET("/realtime", h.handleRealtime)
}

// pagination reads the page window from the query string. The result is
// windowed only when both limit and offset are present; either one alone is an
// error, neither means the whole set.
func pagination(c echo.Context) (domain.Pagination, bool) {
	limitStr := c.QueryParam("limit")
	offsetStr := c.QueryParam("offset")
	if limitStr == "" && offsetStr == "" {
		return domain.Unbounded(), true
	}
	if limitStr == "" || offsetStr == "" {
		return domain.Pagination{}, false
	}
	limit, err := strconv.Atoi(limitStr)
	if err != nil || limit < 0 {
		return domain.Pagination{}, false
	}
	offset, err := strconv.Atoi(offsetStr)
	if err != nil || offset < 0 {
		return domain.Pagination{}, false
	}
	return domain.PageWindow(limit, offset), true
}

func resourceFilter(c echo.Context) domain.ResourceFilter {
	var filter domain.ResourceFilter
	if rt := c.QueryParam("resourceType"); rt != "" {
		t := domain.ResourceType(rt)
		filter.ResourceType = &t
	}
	if st := c.QueryParam("status"); st != "" {
		s := domain.ResourceStatus(st)
		filter.Status = &s
	}
	return filter
}

// actor returns the authenticated identity set by the auth middleware.
func actor(c echo.Context) (string, bool) {
	v, ok := c.Request().Context().Value(domain.ActorCtxKey).(string)
	return v, ok && v != ""
}

func (h *Handler) handleList(c echo.Context) error {
	ctx := c.Request().Context()

	page, ok := pagination(c)
	if !ok {
		return presenter.BadRequestMessage(c, "limit and offset must be supplied together as non-negative integers")
	}

	result, err := h.resources.List(ctx, resourceFilter(c), page)
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.OK(c, result)
}

func (h *Handler) handleNearby(c echo.Context) error {
	ctx := c.Request().Context()

	lat, err := strconv.ParseFloat(c.QueryParam("lat"), 64)
	if err != nil {
		return presenter.BadRequestMessage(c, "invalid lat parameter")
	}
	lon, err := strconv.ParseFloat(c.QueryParam("lon"), 64)
	if err != nil {
		return presenter.BadRequestMessage(c, "invalid lon parameter")
	}
	radius, err := strconv.ParseFloat(c.QueryParam("radius"), 64)
	if err != nil {
		return presenter.BadRequestMessage(c, "invalid radius parameter")
	}

	matches, err := h.resources.Nearby(ctx, lat, lon, radius, resourceFilter(c))
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.OK(c, matches)
}

func (h *Handler) handleGet(c echo.Context) error {
	ctx := c.Request().Context()

	entry, err := h.resources.GetByID(ctx, c.Param("id"))
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.OK(c, entry)
}

func (h *Handler) handleCreate(c echo.Context) error {
	ctx := c.Request().Context()

	who, ok := actor(c)
	if !ok {
		return presenter.Unauthorized(c, "actor identity required")
	}

	var entry domain.ResourceEntry
	if err := c.Bind(&entry); err != nil {
		return presenter.BadRequest(c, err)
	}

	created, err := h.resources.Create(ctx, entry, who)
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.Created(c, created)
}

type updateRequest struct {
	Fields map[string]any `json:"fields"`
	Reason string         `json:"reason"`
}

func (h *Handler) handleUpdate(c echo.Context) error {
	ctx := c.Request().Context()

	who, ok := actor(c)
	if !ok {
		return presenter.Unauthorized(c, "actor identity required")
	}

	var req updateRequest
	if err := c.Bind(&req); err != nil {
		return presenter.BadRequest(c, err)
	}

	updated, err := h.resources.UpdateByID(ctx, c.Param("id"), req.Fields, who, req.Reason)
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.OK(c, updated)
}

func (h *Handler) handleDelete(c echo.Context) error {
	ctx := c.Request().Context()

	if _, ok := actor(c); !ok {
		return presenter.Unauthorized(c, "actor identity required")
	}

	if err := h.resources.DeleteByID(ctx, c.Param("id")); err != nil {
		return presenter.Error(c, err)
	}
	return presenter.OK(c, echo.Map{"status": "ok"})
}

type statusRequest struct {
	Status domain.ResourceStatus `json:"status"`
}

func (h *Handler) handleSetStatus(c echo.Context) error {
	ctx := c.Request().Context()

	who, ok := actor(c)
	if !ok {
		return presenter.Unauthorized(c, "actor identity required")
	}

	var req statusRequest
	if err := c.Bind(&req); err != nil {
		return presenter.BadRequest(c, err)
	}

	updated, err := h.resources.SetStatus(ctx, c.Param("id"), req.Status, who)
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.OK(c, updated)
}

type verifyRequest struct {
	Verified bool `json:"verified"`
}

func (h *Handler) handleVerify(c echo.Context) error {
	ctx := c.Request().Context()

	who, ok := actor(c)
	if !ok {
		return presenter.Unauthorized(c, "actor identity required")
	}

	var req verifyRequest
	if err := c.Bind(&req); err != nil {
		return presenter.BadRequest(c, err)
	}

	updated, err := h.resources.Verify(ctx, c.Param("id"), req.Verified, who)
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.OK(c, updated)
}

func (h *Handler) handleListChanges(c echo.Context) error {
	ctx := c.Request().Context()

	page, ok := pagination(c)
	if !ok {
		return presenter.BadRequestMessage(c, "limit and offset must be supplied together as non-negative integers")
	}

	result, err := h.changelog.ListChanges(ctx, c.Param("id"), page)
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.OK(c, result)
}

func (h *Handler) handleRollback(c echo.Context) error {
	ctx := c.Request().Context()

	who, ok := actor(c)
	if !ok {
		return presenter.Unauthorized(c, "actor identity required")
	}

	restored, err := h.changelog.Rollback(ctx, c.Param("id"), who)
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.OK(c, restored)
}

type suggestionRequest struct {
	Fields map[string]any `json:"fields"`
}

func (h *Handler) handleSubmitSuggestion(c echo.Context) error {
	ctx := c.Request().Context()

	who, ok := actor(c)
	if !ok {
		return presenter.Unauthorized(c, "actor identity required")
	}

	var req suggestionRequest
	if err := c.Bind(&req); err != nil {
		return presenter.BadRequest(c, err)
	}

	s, err := h.suggestions.Submit(ctx, c.Param("id"), who, req.Fields)
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.Created(c, s)
}

func (h *Handler) handleListSuggestions(c echo.Context) error {
	ctx := c.Request().Context()

	page, ok := pagination(c)
	if !ok {
		return presenter.BadRequestMessage(c, "limit and offset must be supplied together as non-negative integers")
	}

	var filter domain.SuggestionFilter
	if rid := c.QueryParam("resourceId"); rid != "" {
		filter.ResourceID = &rid
	}
	if st := c.QueryParam("status"); st != "" {
		s := domain.SuggestionStatus(st)
		filter.Status = &s
	}

	result, err := h.suggestions.List(ctx, filter, page)
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.OK(c, result)
}

func (h *Handler) handleGetSuggestion(c echo.Context) error {
	ctx := c.Request().Context()

	s, err := h.suggestions.Get(ctx, c.Param("id"))
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.OK(c, s)
}

func (h *Handler) handleApproveSuggestion(c echo.Context) error {
	ctx := c.Request().Context()

	who, ok := actor(c)
	if !ok {
		return presenter.Unauthorized(c, "actor identity required")
	}

	s, err := h.suggestions.Approve(ctx, c.Param("id"), who)
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.OK(c, s)
}

type dismissRequest struct {
	Reason string `json:"reason"`
}

func (h *Handler) handleDismissSuggestion(c echo.Context) error {
	ctx := c.Request().Context()

	who, ok := actor(c)
	if !ok {
		return presenter.Unauthorized(c, "actor identity required")
	}

	var req dismissRequest
	if err := c.Bind(&req); err != nil {
		return presenter.BadRequest(c, err)
	}

	s, err := h.suggestions.Dismiss(ctx, c.Param("id"), who, req.Reason)
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.OK(c, s)
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

func (h *Handler) handleRealtime(c echo.Context) error {
	if h.signal == nil {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "realtime feed is not configured"})
	}

	ws, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		slog.Error(
			"Failed to upgrade WebSocket",
			slog.String("error", err.Error()),
			slog.String("module", "socket"),
		)
		return err
	}
	defer func() {
		ws.Close()
	}()

	ctx := c.Request().Context()

	output := make(chan []domain.ChangeRecord)
	go h.signal.Realtime(ctx, output)

	// Buffered: the reader must not block on a send after a write error has
	// already ended the select loop below.
	quit := make(chan struct{}, 1)

	go func() {
		for {
			// Clients only ever send heartbeats; reading drives close detection.
			if _, _, err := ws.ReadMessage(); err != nil {
				wsErr, ok := err.(*websocket.CloseError)
				if ok {
					if !(wsErr.Code == websocket.CloseNormalClosure || wsErr.Code == websocket.CloseGoingAway) {
						slog.DebugContext(
							ctx, "WebSocket closed",
							slog.String("error", wsErr.Error()),
							slog.String("module", "socket"),
						)
					}
				} else {
					slog.ErrorContext(
						ctx, "Error reading message",
						slog.String("error", err.Error()),
						slog.String("module", "socket"),
					)
				}

				quit <- struct{}{}
				break
			}
		}
	}()

	for {
		select {
		case <-quit:
			return nil
		case records := <-output:
			if err := ws.WriteJSON(records); err != nil {
				slog.ErrorContext(
					ctx, "Error writing message",
					slog.String("error", err.Error()),
					slog.String("module", "socket"),
				)
				return nil
			}
		}
	}
}
