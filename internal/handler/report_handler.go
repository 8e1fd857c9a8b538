package handler

import (
	"net/http"
	"strconv"

	"stockdesk/internal/middleware"
	"stockdesk/internal/service"
	"stockdesk/pkg/response"

	"github.com/gin-gonic/gin"
)

type ReportHandler struct {
	reportService service.ReportService
}

func NewReportHandler(reportService service.ReportService) *ReportHandler {
	return &ReportHandler{reportService: reportService}
}

func (h *ReportHandler) RegisterRoutes(router *gin.RouterGroup) {
	group := router.Group("/reports")
	{
		group.GET("/categories", h.CategorySummary)
		group.GET("/top-items", h.TopItems)
	}
}

// CategorySummary aggregates stock per category
// @Summary      Category summary
// @Tags         reports
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=[]model.CategorySummary}
// @Failure      403  {object}  response.Response
// @Router       /api/reports/categories [get]
func (h *ReportHandler) CategorySummary(c *gin.Context) {
	out, err := h.reportService.CategorySummary(c.Request.Context(), middleware.PrincipalFrom(c))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, out))
}

// TopItems ranks items by quantity handed out through completed requests
// @Summary      Top requested items
// @Tags         reports
// @Security     BearerAuth
// @Produce      json
// @Param        start_date  query     string  false  "Start date (YYYY-MM-DD)"
// @Param        end_date    query     string  false  "End date (YYYY-MM-DD)"
// @Param        limit       query     int     false  "Number of items (default 10)"
// @Success      200         {object}  response.Response{data=[]model.ItemRanking}
// @Failure      400         {object}  response.Response
// @Router       /api/reports/top-items [get]
func (h *ReportHandler) TopItems(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	out, err := h.reportService.TopRequestedItems(c.Request.Context(), middleware.PrincipalFrom(c), c.Query("start_date"), c.Query("end_date"), limit)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, out))
}
