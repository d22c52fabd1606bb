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

// AdminReservationHandler owns the post-creation lifecycle of a
// reservation: status transitions and explicit deletes.  The payment
// flow only ever creates reservations; everything afterwards goes
// through here, behind the ADMIN role.
type AdminReservationHandler struct {
	Cfg          config.Config
	Reservations *repository.ReservationRepo
}

func NewAdminReservationHandler(cfg config.Config, r *repository.ReservationRepo) *AdminReservationHandler {
	if r == nil {
		panic("nil repository passed to NewAdminReservationHandler")
	}
	return &AdminReservationHandler{Cfg: cfg, Reservations: r}
}

// Get handles GET /v1/admin/reservations/:id.
func (h *AdminReservationHandler) Get(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return respondError(c, http.StatusBadRequest, "invalid reservation id", nil, h.Cfg.IsProd())
	}
	res, err := h.Reservations.GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return respondError(c, http.StatusNotFound, "reservation not found", nil, h.Cfg.IsProd())
		}
		return respondError(c, http.StatusInternalServerError, "reservation lookup failed", err, h.Cfg.IsProd())
	}
	return respond(c, http.StatusOK, "ok", echo.Map{"reservation": res})
}

// UpdateStatus handles PATCH /v1/admin/reservations/:id/status with
// body {"status": "..."}.
func (h *AdminReservationHandler) UpdateStatus(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return respondError(c, http.StatusBadRequest, "invalid reservation id", nil, h.Cfg.IsProd())
	}
	var body struct {
		Status string `json:"status"`
	}
	if err := c.Bind(&body); err != nil {
		return respondError(c, http.StatusBadRequest, "invalid request body", nil, h.Cfg.IsProd())
	}
	switch body.Status {
	case model.ReservationPending, model.ReservationConfirmed,
		model.ReservationCancelled, model.ReservationCompleted:
	default:
		return respondError(c, http.StatusBadRequest, "invalid status", nil, h.Cfg.IsProd())
	}
	if err := h.Reservations.UpdateStatus(c.Request().Context(), id, body.Status); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return respondError(c, http.StatusNotFound, "reservation not found", nil, h.Cfg.IsProd())
		}
		return respondError(c, http.StatusInternalServerError, "status update failed", err, h.Cfg.IsProd())
	}
	return respond(c, http.StatusOK, "status updated", echo.Map{"id": id, "status": body.Status})
}

// Delete handles DELETE /v1/admin/reservations/:id.  The payment row
// cascades at the database layer, keeping the no-orphans invariant.
func (h *AdminReservationHandler) Delete(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return respondError(c, http.StatusBadRequest, "invalid reservation id", nil, h.Cfg.IsProd())
	}
	if err := h.Reservations.Delete(c.Request().Context(), id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return respondError(c, http.StatusNotFound, "reservation not found", nil, h.Cfg.IsProd())
		}
		return respondError(c, http.StatusInternalServerError, "delete failed", err, h.Cfg.IsProd())
	}
	return c.NoContent(http.StatusNoContent)
}
