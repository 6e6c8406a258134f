package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/memberdir/admin_api/internal/middleware"
	"github.com/memberdir/admin_api/internal/service"
	"github.com/memberdir/admin_api/internal/utils"
)

// DashboardHandler serves the landing dashboard.
type DashboardHandler struct {
	dashboardService *service.DashboardService
}

// NewDashboardHandler constructs a DashboardHandler.
func NewDashboardHandler(dashboardService *service.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboardService: dashboardService}
}

// GetDashboard handles GET /v1/dashboard
func (h *DashboardHandler) GetDashboard(c *gin.Context) {
	dash, err := h.dashboardService.Summary(c.Request.Context(), middleware.GetAccount(c))
	if err != nil {
		respondError(c, err, "Failed to load dashboard")
		return
	}
	utils.Success(c, 200, "Dashboard retrieved", dash)
}
