package handler

import (
	"fmt"
	"net/http"
	"time"

	"pharmacyos/internal/dto"
	"pharmacyos/internal/middleware"
	"pharmacyos/internal/service"

	"github.com/gin-gonic/gin"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type InventoryHandler struct {
	inventory service.InventoryService
	alerts    service.AlertService
}

func NewInventoryHandler(inventory service.InventoryService, alerts service.AlertService) *InventoryHandler {
	return &InventoryHandler{inventory: inventory, alerts: alerts}
}

// Expiring godoc
// @Summary      Batches expiring within N days
// @Tags         inventory
// @Produce      json
// @Security     BearerAuth
// @Param        days query int false "Window in days" default(30)
// @Success      200 {array} dto.BatchResponse
// @Router       /v1/inventory/expiring [get]
func (h *InventoryHandler) Expiring(c *gin.Context) {
	var filter dto.ExpiringFilter
	if !bindQuery(c, &filter) {
		return
	}
	resp, err := h.inventory.ExpiringWithin(c.Request.Context(), middleware.GetAuth(c), filter.Days)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Export godoc
// @Summary      Export every batch as an XLSX workbook
// @Tags         inventory
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security     BearerAuth
// @Success      200 {file} binary
// @Router       /v1/inventory/export [get]
func (h *InventoryHandler) Export(c *gin.Context) {
	data, err := h.inventory.ExportInventory(c.Request.Context(), middleware.GetAuth(c))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	name := fmt.Sprintf("inventory_%s.xlsx", time.Now().Format("20060102"))
	c.Header("Content-Disposition", `attachment; filename="`+name+`"`)
	c.Data(http.StatusOK, xlsxContentType, data)
}

// Alerts godoc
// @Summary      Stock and expiry alerts
// @Description  Recomputed on every call; at most 10 entries, stock alerts first.
// @Tags         inventory
// @Produce      json
// @Security     BearerAuth
// @Success      200 {array} dto.AlertResponse
// @Router       /v1/alerts [get]
func (h *InventoryHandler) Alerts(c *gin.Context) {
	resp, err := h.alerts.GetAlerts(c.Request.Context(), middleware.GetAuth(c))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
