package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/safaria/booking-server/internal/config"
	"github.com/safaria/booking-server/internal/model"
	"github.com/safaria/booking-server/internal/repository"
)

// CatalogHandler serves the public read path over the three catalog
// types.  Writes to the catalogs are an operator concern and have no
// endpoint here.
type CatalogHandler struct {
	Cfg     config.Config
	Catalog *repository.CatalogRepo
}

func NewCatalogHandler(cfg config.Config, catalog *repository.CatalogRepo) *CatalogHandler {
	if catalog == nil {
		panic("nil repository passed to NewCatalogHandler")
	}
	return &CatalogHandler{Cfg: cfg, Catalog: catalog}
}

// catalogItemResp is the public shape of a catalog row.  Prices are
// exposed in centimes, matching what the payment flow charges.
type catalogItemResp struct {
	ID          uint64 `json:"id"`
	Type        string `json:"type"`
	Name        string `json:"name"`
	City        string `json:"city"`
	PriceCents  int64  `json:"price_cents"`
	Description string `json:"description"`
	MaxGuests   uint32 `json:"max_guests"`
}

func toCatalogResp(it model.CatalogItem) catalogItemResp {
	return catalogItemResp{
		ID:          it.ID,
		Type:        string(it.Type),
		Name:        it.Name,
		City:        it.City,
		PriceCents:  it.PriceCents,
		Description: it.Description,
		MaxGuests:   it.MaxGuests,
	}
}

// List handles GET /v1/catalog/:type.  The optional ?city= query
// narrows results to one city.
func (h *CatalogHandler) List(c echo.Context) error {
	t, err := model.ParseItemType(c.Param("type"))
	if err != nil {
		return respondError(c, http.StatusBadRequest, "unknown catalog type", nil, h.Cfg.IsProd())
	}
	items, err := h.Catalog.List(c.Request().Context(), t, c.QueryParam("city"))
	if err != nil {
		return respondError(c, http.StatusInternalServerError, "catalog query failed", err, h.Cfg.IsProd())
	}
	out := make([]catalogItemResp, 0, len(items))
	for _, it := range items {
		out = append(out, toCatalogResp(it))
	}
	return respond(c, http.StatusOK, "ok", echo.Map{"items": out})
}

// Get handles GET /v1/catalog/:type/:id.
func (h *CatalogHandler) Get(c echo.Context) error {
	t, err := model.ParseItemType(c.Param("type"))
	if err != nil {
		return respondError(c, http.StatusBadRequest, "unknown catalog type", nil, h.Cfg.IsProd())
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return respondError(c, http.StatusBadRequest, "invalid item id", nil, h.Cfg.IsProd())
	}
	item, err := h.Catalog.GetItem(c.Request().Context(), t, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return respondError(c, http.StatusNotFound, "catalog item not found", nil, h.Cfg.IsProd())
		}
		return respondError(c, http.StatusInternalServerError, "catalog query failed", err, h.Cfg.IsProd())
	}
	return respond(c, http.StatusOK, "ok", echo.Map{"item": toCatalogResp(*item)})
}
