package stock

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/nordwind-erp/nordwind-erp/internal/platform/httpx"
)

// Handler wires the read-only HTTP surface for levels and the journal.
type Handler struct {
	logger  *slog.Logger
	queries *QueryService
}

// NewHandler constructs stock handler.
func NewHandler(logger *slog.Logger, queries *QueryService) *Handler {
	return &Handler{logger: logger, queries: queries}
}

// MountRoutes registers stock routes.
func (h *Handler) MountRoutes(r chi.Router) {
	if h == nil {
		return
	}
	r.Get("/stock/levels", h.handleListLevels)
	r.Get("/stock/levels/{itemCode}/{warehouseID}", h.handleGetLevel)
	r.Get("/stock/movements", h.handleListMovements)
}

func (h *Handler) handleListLevels(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := LevelFilter{
		ItemCode: q.Get("item"),
		BelowMin: q.Get("below_min") == "true",
		AboveMax: q.Get("above_max") == "true",
		Negative: q.Get("negative") == "true",
	}
	if raw := q.Get("warehouse_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "warehouse_id must be an integer")
			return
		}
		filter.WarehouseID = id
	}
	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "limit must be an integer")
			return
		}
		filter.Limit = limit
	}

	levels, err := h.queries.Levels(r.Context(), filter)
	if err != nil {
		h.logger.Error("list stock levels", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"levels": levels})
}

func (h *Handler) handleGetLevel(w http.ResponseWriter, r *http.Request) {
	itemCode := chi.URLParam(r, "itemCode")
	warehouseID, err := strconv.ParseInt(chi.URLParam(r, "warehouseID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "warehouse id must be an integer")
		return
	}
	level, err := h.queries.Level(r.Context(), itemCode, warehouseID)
	if err != nil {
		if errors.Is(err, ErrLevelNotFound) {
			httpx.Problem(w, http.StatusNotFound, "Not Found", "no stock level for item/warehouse")
			return
		}
		h.logger.Error("get stock level", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, level)
}

func (h *Handler) handleListMovements(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := MovementFilter{
		ItemCode:  q.Get("item"),
		Reference: q.Get("reference"),
	}
	if raw := q.Get("warehouse_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "warehouse_id must be an integer")
			return
		}
		filter.WarehouseID = id
	}
	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "limit must be an integer")
			return
		}
		filter.Limit = limit
	}

	entries, err := h.queries.Movements(r.Context(), filter)
	if err != nil {
		h.logger.Error("list movements", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"movements": entries})
}
