package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/samajapp/catalog-sync/internal/syncer"
)

// SyncHandler exposes the sync trigger endpoints. Errors are reported inside
// the JSON payload rather than as HTTP failures: a failed sync is a normal,
// recoverable condition for callers holding stale data, not an exceptional
// server state.
type SyncHandler struct {
	Coord *syncer.Coordinator
}

// Trigger runs one delta sync of the events family. A run already in flight
// makes this a no-op reported as "busy".
func (h *SyncHandler) Trigger(c echo.Context) error {
	return h.run(c, false)
}

// TriggerFull runs one forced full resync: the watermark is ignored and the
// complete catalog is fetched and merged. Reached only through the
// admin-token route.
func (h *SyncHandler) TriggerFull(c echo.Context) error {
	return h.run(c, true)
}

func (h *SyncHandler) run(c echo.Context, forceFull bool) error {
	out, err := h.Coord.SyncEvents(c.Request().Context(), forceFull)
	switch {
	case err == nil && out.Busy:
		return c.JSON(http.StatusOK, echo.Map{"status": "busy"})
	case err == nil:
		return c.JSON(http.StatusOK, echo.Map{
			"status":  "committed",
			"applied": out.Applied,
			"deleted": out.Deleted,
		})
	default:
		body := echo.Map{"status": "failed", "error": err.Error()}
		var se *syncer.StoreError
		if errors.As(err, &se) {
			// A broken local store will not heal through plain retries.
			body["retry_with_full_resync"] = true
		}
		return c.JSON(http.StatusOK, body)
	}
}
