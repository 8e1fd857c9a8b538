package handler

import (
	"net/http"

	"stockdesk/internal/middleware"
	"stockdesk/internal/service"
	"stockdesk/pkg/pagination"
	"stockdesk/pkg/response"

	"github.com/gin-gonic/gin"
)

type ItemHandler struct {
	ledgerService service.LedgerService
	countService  service.StockCountService
}

func NewItemHandler(ledgerService service.LedgerService, countService service.StockCountService) *ItemHandler {
	return &ItemHandler{ledgerService: ledgerService, countService: countService}
}

func (h *ItemHandler) RegisterRoutes(router *gin.RouterGroup) {
	items := router.Group("/items")
	{
		items.GET("", h.ListItems)
		items.POST("", h.CreateItem)
		items.GET("/:id", h.GetItem)
		items.DELETE("/:id", h.DeleteItem)
		items.POST("/:id/stock", h.AddStock)
		items.POST("/:id/assign", h.DirectAssign)
		items.POST("/:id/return", h.ReturnItem)
		items.POST("/:id/counts", h.RecordCount)
	}
	router.GET("/assignments", h.ListAssignments)
	router.GET("/reconciliations", h.ListReconciliations)
}

// ListItems handles retrieving paginated items
// @Summary      List items
// @Description  Retrieves a paginated list of items with on-hand, reserved and available counts
// @Tags         items
// @Security     BearerAuth
// @Produce      json
// @Param        page      query     int     false  "Page number (default 1)"
// @Param        limit     query     int     false  "Number of items per page (default 20)"
// @Param        search    query     string  false  "Search by item name"
// @Param        category  query     string  false  "Filter by category"
// @Success      200       {object}  response.Response{data=object}
// @Failure      401       {object}  response.Response
// @Router       /api/items [get]
func (h *ItemHandler) ListItems(c *gin.Context) {
	pg := pagination.Parse(c)

	items, total, err := h.ledgerService.ListItems(c.Request.Context(), middleware.PrincipalFrom(c), service.ItemFilter{
		Search:   c.Query("search"),
		Category: c.Query("category"),
		Page:     pg.Page,
		Limit:    pg.Limit,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, response.Paged("items", items, total, pg.Page, pg.Limit)))
}

// CreateItem registers a new item
// @Summary      Create item
// @Description  Creates an item; (category, name, is_scrap) must be unique
// @Tags         items
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateItemRequest  true  "Create Item Payload"
// @Success      201      {object}  response.Response{data=service.ItemResponse}
// @Failure      400      {object}  response.Response
// @Failure      403      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/items [post]
func (h *ItemHandler) CreateItem(c *gin.Context) {
	var req service.CreateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	item, err := h.ledgerService.CreateItem(c.Request.Context(), middleware.PrincipalFrom(c), req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, item))
}

// GetItem returns one item with its stock additions and assignment history
// @Summary      Get item
// @Tags         items
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Item ID"
// @Success      200  {object}  response.Response{data=service.ItemResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/items/{id} [get]
func (h *ItemHandler) GetItem(c *gin.Context) {
	item, err := h.ledgerService.GetItem(c.Request.Context(), middleware.PrincipalFrom(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, item))
}

// DeleteItem removes an item
// @Summary      Delete item
// @Description  Deletes an item that holds no reserved stock
// @Tags         items
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Item ID"
// @Success      200  {object}  response.Response
// @Failure      403  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/items/{id} [delete]
func (h *ItemHandler) DeleteItem(c *gin.Context) {
	if err := h.ledgerService.DeleteItem(c.Request.Context(), middleware.PrincipalFrom(c), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]string{"message": "Item deleted successfully"}))
}

// AddStock receives stock into an item
// @Summary      Add stock
// @Description  Increments quantity and total quantity and records a stock addition
// @Tags         items
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                   true  "Item ID"
// @Param        payload  body      service.AddStockRequest  true  "Add Stock Payload"
// @Success      200      {object}  response.Response{data=service.ItemResponse}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /api/items/{id}/stock [post]
func (h *ItemHandler) AddStock(c *gin.Context) {
	var req service.AddStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	item, err := h.ledgerService.AddStock(c.Request.Context(), middleware.PrincipalFrom(c), c.Param("id"), req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, item))
}

// DirectAssign hands stock to a user without a request
// @Summary      Direct assign
// @Description  Decrements available stock and records an assignment history entry (admin only)
// @Tags         items
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                       true  "Item ID"
// @Param        payload  body      service.DirectAssignRequest  true  "Direct Assign Payload"
// @Success      200      {object}  response.Response{data=service.ItemResponse}
// @Failure      400      {object}  response.Response
// @Failure      403      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /api/items/{id}/assign [post]
func (h *ItemHandler) DirectAssign(c *gin.Context) {
	var req service.DirectAssignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	item, err := h.ledgerService.DirectAssign(c.Request.Context(), middleware.PrincipalFrom(c), c.Param("id"), req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, item))
}

// ReturnItem takes an item back from its current assignee
// @Summary      Return item
// @Tags         items
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Item ID"
// @Success      200  {object}  response.Response{data=service.ItemResponse}
// @Failure      400  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/items/{id}/return [post]
func (h *ItemHandler) ReturnItem(c *gin.Context) {
	item, err := h.ledgerService.ReturnItem(c.Request.Context(), middleware.PrincipalFrom(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, item))
}

// RecordCount stores a physical count against the ledger
// @Summary      Record physical count
// @Tags         reconciliations
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                      true  "Item ID"
// @Param        payload  body      service.RecordCountRequest  true  "Count Payload"
// @Success      201      {object}  response.Response{data=model.Reconciliation}
// @Failure      400      {object}  response.Response
// @Failure      403      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /api/items/{id}/counts [post]
func (h *ItemHandler) RecordCount(c *gin.Context) {
	var req service.RecordCountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	rec, err := h.countService.RecordCount(c.Request.Context(), middleware.PrincipalFrom(c), c.Param("id"), req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, rec))
}

// ListReconciliations lists recorded physical counts
// @Summary      List reconciliations
// @Tags         reconciliations
// @Security     BearerAuth
// @Produce      json
// @Param        item_id  query     string  false  "Filter by item"
// @Param        page     query     int     false  "Page number (default 1)"
// @Param        limit    query     int     false  "Number of items per page (default 20)"
// @Success      200      {object}  response.Response{data=object}
// @Router       /api/reconciliations [get]
func (h *ItemHandler) ListReconciliations(c *gin.Context) {
	pg := pagination.Parse(c)

	recs, total, err := h.countService.ListReconciliations(c.Request.Context(), middleware.PrincipalFrom(c), c.Query("item_id"), pg.Page, pg.Limit)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, response.Paged("reconciliations", recs, total, pg.Page, pg.Limit)))
}

// ListAssignments lists immutable fulfillment assignment records
// @Summary      List assignments
// @Tags         assignments
// @Security     BearerAuth
// @Produce      json
// @Param        item_id  query     string  false  "Filter by item"
// @Param        page     query     int     false  "Page number (default 1)"
// @Param        limit    query     int     false  "Number of items per page (default 20)"
// @Success      200      {object}  response.Response{data=object}
// @Router       /api/assignments [get]
func (h *ItemHandler) ListAssignments(c *gin.Context) {
	pg := pagination.Parse(c)

	out, total, err := h.ledgerService.ListAssignments(c.Request.Context(), middleware.PrincipalFrom(c), c.Query("item_id"), pg.Page, pg.Limit)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, response.Paged("assignments", out, total, pg.Page, pg.Limit)))
}
