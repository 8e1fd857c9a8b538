package handler

import (
	"net/http"
	"strconv"

	"stockdesk/internal/middleware"
	"stockdesk/internal/service"
	"stockdesk/pkg/pagination"
	"stockdesk/pkg/response"

	"github.com/gin-gonic/gin"
)

type RequestHandler struct {
	requestService service.RequestService
}

func NewRequestHandler(requestService service.RequestService) *RequestHandler {
	return &RequestHandler{requestService: requestService}
}

func (h *RequestHandler) RegisterRoutes(router *gin.RouterGroup) {
	requests := router.Group("/requests")
	{
		requests.POST("", h.SubmitRequest)
		requests.GET("", h.ListRequests)
		requests.GET("/:id", h.GetRequest)
		requests.GET("/:id/assignments", h.GetAssignments)
		requests.POST("/:id/approve", h.ApproveRequest)
		requests.POST("/:id/reject", h.RejectRequest)
		requests.POST("/:id/fulfill", h.FulfillRequest)
	}
}

// bindOptional binds a JSON body when one was sent.
func bindOptional(c *gin.Context, dst interface{}) bool {
	if c.Request.ContentLength == 0 {
		return true
	}
	if err := c.ShouldBindJSON(dst); err != nil {
		bindError(c, err)
		return false
	}
	return true
}

// SubmitRequest reserves stock for a cart of items and creates a pending request
// @Summary      Submit request
// @Description  Reserves every line atomically; on shortage nothing is reserved and data.shortages lists the short lines
// @Tags         requests
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.SubmitRequestDTO  true  "Submit Request Payload"
// @Success      201      {object}  response.Response{data=model.Request}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Failure      409      {object}  response.Response{data=object}
// @Router       /api/requests [post]
func (h *RequestHandler) SubmitRequest(c *gin.Context) {
	var req service.SubmitRequestDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	created, err := h.requestService.Submit(c.Request.Context(), middleware.PrincipalFrom(c), req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, created))
}

// ListRequests lists requests visible to the caller
// @Summary      List requests
// @Description  Admin and warehouse see every request; other callers see their own
// @Tags         requests
// @Security     BearerAuth
// @Produce      json
// @Param        status  query     string  false  "Filter by status"
// @Param        mine    query     bool    false  "Only the caller's requests"
// @Param        page    query     int     false  "Page number (default 1)"
// @Param        limit   query     int     false  "Number of items per page (default 20)"
// @Success      200     {object}  response.Response{data=object}
// @Router       /api/requests [get]
func (h *RequestHandler) ListRequests(c *gin.Context) {
	pg := pagination.Parse(c)
	mine, _ := strconv.ParseBool(c.DefaultQuery("mine", "false"))

	requests, total, err := h.requestService.List(c.Request.Context(), middleware.PrincipalFrom(c), service.RequestFilter{
		Status: c.Query("status"),
		Mine:   mine,
		Page:   pg.Page,
		Limit:  pg.Limit,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, response.Paged("requests", requests, total, pg.Page, pg.Limit)))
}

// GetRequest returns a single request
// @Summary      Get request
// @Tags         requests
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Request ID"
// @Success      200  {object}  response.Response{data=model.Request}
// @Failure      404  {object}  response.Response
// @Router       /api/requests/{id} [get]
func (h *RequestHandler) GetRequest(c *gin.Context) {
	req, err := h.requestService.Get(c.Request.Context(), middleware.PrincipalFrom(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, req))
}

// GetAssignments returns the assignment records written when the request was fulfilled
// @Summary      Request assignments
// @Tags         requests
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Request ID"
// @Success      200  {object}  response.Response{data=[]model.Assignment}
// @Failure      404  {object}  response.Response
// @Router       /api/requests/{id}/assignments [get]
func (h *RequestHandler) GetAssignments(c *gin.Context) {
	out, err := h.requestService.Assignments(c.Request.Context(), middleware.PrincipalFrom(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, out))
}

// ApproveRequest moves a pending request to approved
// @Summary      Approve request
// @Tags         requests
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Request ID"
// @Success      200  {object}  response.Response{data=model.Request}
// @Failure      403  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/requests/{id}/approve [post]
func (h *RequestHandler) ApproveRequest(c *gin.Context) {
	req, err := h.requestService.Approve(c.Request.Context(), middleware.PrincipalFrom(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, req))
}

// RejectRequest moves a pending request to rejected and releases its stock
// @Summary      Reject request
// @Tags         requests
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string               true   "Request ID"
// @Param        payload  body      service.DecisionDTO  false  "Rejection reason"
// @Success      200      {object}  response.Response{data=model.Request}
// @Failure      403      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/requests/{id}/reject [post]
func (h *RequestHandler) RejectRequest(c *gin.Context) {
	var body service.DecisionDTO
	if !bindOptional(c, &body) {
		return
	}

	req, err := h.requestService.Reject(c.Request.Context(), middleware.PrincipalFrom(c), c.Param("id"), body.Reason)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, req))
}

// FulfillRequest consumes the reservation of an approved request
// @Summary      Fulfill request
// @Tags         requests
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string              true   "Request ID"
// @Param        payload  body      service.FulfillDTO  false  "Fulfillment note"
// @Success      200      {object}  response.Response{data=model.Request}
// @Failure      403      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/requests/{id}/fulfill [post]
func (h *RequestHandler) FulfillRequest(c *gin.Context) {
	var body service.FulfillDTO
	if !bindOptional(c, &body) {
		return
	}

	req, err := h.requestService.Fulfill(c.Request.Context(), middleware.PrincipalFrom(c), c.Param("id"), body.Note)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, req))
}
