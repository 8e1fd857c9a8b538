package handler

import (
	"net/http"

	"stockdesk/internal/middleware"
	"stockdesk/internal/service"
	"stockdesk/pkg/response"

	"github.com/gin-gonic/gin"
)

// MaintenanceHandler exposes manual ledger corrections. They live under their own
// path prefix so they are never mixed with the request lifecycle routes.
type MaintenanceHandler struct {
	maintenanceService service.MaintenanceService
}

func NewMaintenanceHandler(maintenanceService service.MaintenanceService) *MaintenanceHandler {
	return &MaintenanceHandler{maintenanceService: maintenanceService}
}

func (h *MaintenanceHandler) RegisterRoutes(router *gin.RouterGroup) {
	group := router.Group("/maintenance")
	{
		group.DELETE("/items/:id/history/:entryId", h.DeleteAssignmentEntry)
		group.POST("/reconcile-totals", h.ReconcileTotals)
	}
}

// DeleteAssignmentEntry removes one assignment history entry and reverses its quantity effect
// @Summary      Delete assignment history entry
// @Tags         maintenance
// @Security     BearerAuth
// @Produce      json
// @Param        id       path      string  true  "Item ID"
// @Param        entryId  path      string  true  "History entry ID"
// @Success      200      {object}  response.Response{data=service.ItemResponse}
// @Failure      404      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/maintenance/items/{id}/history/{entryId} [delete]
func (h *MaintenanceHandler) DeleteAssignmentEntry(c *gin.Context) {
	item, err := h.maintenanceService.DeleteAssignmentEntry(c.Request.Context(), middleware.PrincipalFrom(c), c.Param("id"), c.Param("entryId"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, item))
}

// ReconcileTotals recomputes total quantity for every item from its history
// @Summary      Reconcile totals
// @Tags         maintenance
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=service.ReconcileResult}
// @Router       /api/maintenance/reconcile-totals [post]
func (h *MaintenanceHandler) ReconcileTotals(c *gin.Context) {
	p := middleware.PrincipalFrom(c)
	if p == nil {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Authentication required"))
		return
	}

	res, err := h.maintenanceService.ReconcileTotals(c.Request.Context(), p)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, res))
}
