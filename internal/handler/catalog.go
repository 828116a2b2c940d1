package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/samajapp/catalog-sync/internal/repository"
	"github.com/samajapp/catalog-sync/internal/syncer"
)

// CatalogHandler serves the cached catalog to app clients. Reads always
// answer from the local store; the per-event endpoints refresh their slice
// of the cache on demand first, but a refresh failure still yields the
// cached rows plus a last_error message. Stale data beats a blank screen.
type CatalogHandler struct {
	Snapshot *syncer.Snapshot
	Coord    *syncer.Coordinator
	Store    *repository.Store

	// SubLoadTimeout caps the caller-specified ?timeout= on the per-event
	// endpoints and is the default when none is given.
	SubLoadTimeout time.Duration
}

// GetEvents returns the bounded snapshot. ?limit=N trims the response to at
// most N events; the projection itself is already bounded and sorted (date
// descending, "to be announced" first).
func (h *CatalogHandler) GetEvents(c echo.Context) error {
	limit := 0
	if s := c.QueryParam("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid limit"})
		}
		limit = n
	}

	state := h.Snapshot.Get(limit)
	if !state.Loaded {
		// Cold start: the process restarted but the cache may be populated.
		if err := h.Snapshot.Reload(c.Request().Context()); err == nil {
			state = h.Snapshot.Get(limit)
		}
	}

	return c.JSON(http.StatusOK, echo.Map{
		"items":      state.Events,
		"loading":    state.Loading,
		"version":    state.Version,
		"last_error": h.Coord.LastError(syncer.FamilyEvents),
	})
}

// GetTicketTypes refreshes and returns the ticket types of one event.
func (h *CatalogHandler) GetTicketTypes(c echo.Context) error {
	eventID, ok, err := h.requireEvent(c)
	if !ok {
		return err
	}
	ctx, cancel := h.subContext(c)
	defer cancel()

	_, syncErr := h.Coord.SyncTicketTypes(ctx, eventID)
	items, err := h.Store.TicketTypes.ListByEvent(c.Request().Context(), eventID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"items":      items,
		"last_error": errMsg(syncErr),
	})
}

// GetSlots refreshes and returns the slot inventory of one event.
func (h *CatalogHandler) GetSlots(c echo.Context) error {
	eventID, ok, err := h.requireEvent(c)
	if !ok {
		return err
	}
	ctx, cancel := h.subContext(c)
	defer cancel()

	_, syncErr := h.Coord.SyncSlots(ctx, eventID)
	items, err := h.Store.Slots.ListByEvent(c.Request().Context(), eventID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"items":      items,
		"last_error": errMsg(syncErr),
	})
}

// GetPrograms refreshes and returns the sub-programs of one event.
func (h *CatalogHandler) GetPrograms(c echo.Context) error {
	eventID, ok, err := h.requireEvent(c)
	if !ok {
		return err
	}
	ctx, cancel := h.subContext(c)
	defer cancel()

	_, syncErr := h.Coord.SyncPrograms(ctx, eventID)
	items, err := h.Store.Programs.ListByEvent(c.Request().Context(), eventID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"items":      items,
		"last_error": errMsg(syncErr),
	})
}

// requireEvent validates the :id parameter against the cache. Sub-resources
// hang off a cached event; an unknown ID is a 404, not a remote lookup.
func (h *CatalogHandler) requireEvent(c echo.Context) (string, bool, error) {
	eventID := c.Param("id")
	if eventID == "" {
		return "", false, c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	if _, err := h.Store.Events.GetByID(c.Request().Context(), eventID); err != nil {
		if errors.Is(err, repository.ErrEventNotFound) {
			return "", false, c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
		}
		return "", false, c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return eventID, true, nil
}

// subContext derives the context for an on-demand sub-resource refresh. An
// optional ?timeout= duration ("5s", "500ms") is honored up to the
// configured cap; on expiry the in-flight fetch is abandoned and nothing is
// merged.
func (h *CatalogHandler) subContext(c echo.Context) (context.Context, context.CancelFunc) {
	timeout := h.SubLoadTimeout
	if s := c.QueryParam("timeout"); s != "" {
		if d, err := time.ParseDuration(s); err == nil && d > 0 && (timeout <= 0 || d < timeout) {
			timeout = d
		}
	}
	if timeout <= 0 {
		return context.WithCancel(c.Request().Context())
	}
	return context.WithTimeout(c.Request().Context(), timeout)
}

func errMsg(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
