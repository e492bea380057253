package handler

import (
	"net/http"

	"pharmacyos/internal/dto"
	"pharmacyos/internal/middleware"
	"pharmacyos/internal/service"

	"github.com/gin-gonic/gin"
)

// DrugsHandler serves the catalog, the barcode scanner lookup and each
// drug's batch ledger.
type DrugsHandler struct {
	catalog   service.CatalogService
	inventory service.InventoryService
}

func NewDrugsHandler(catalog service.CatalogService, inventory service.InventoryService) *DrugsHandler {
	return &DrugsHandler{catalog: catalog, inventory: inventory}
}

// CreateDrug godoc
// @Summary      Create a drug
// @Tags         drugs
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.CreateDrugRequest true "Drug"
// @Success      201 {object} dto.DrugResponse
// @Failure      422 {object} apierror.APIError
// @Router       /v1/drugs [post]
func (h *DrugsHandler) CreateDrug(c *gin.Context) {
	var req dto.CreateDrugRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.catalog.CreateDrug(c.Request.Context(), middleware.GetAuth(c), req)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// GetDrug godoc
// @Summary      Get a drug with its total stock
// @Tags         drugs
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Drug UUID"
// @Success      200 {object} dto.DrugResponse
// @Failure      404 {object} apierror.APIError
// @Router       /v1/drugs/{id} [get]
func (h *DrugsHandler) GetDrug(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	resp, err := h.catalog.GetDrug(c.Request.Context(), middleware.GetAuth(c), id)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// UpdateDrug godoc
// @Summary      Update price, reorder level or descriptive fields
// @Tags         drugs
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path string                true "Drug UUID"
// @Param        body body dto.UpdateDrugRequest true "Fields to change"
// @Success      200 {object} dto.DrugResponse
// @Router       /v1/drugs/{id} [put]
func (h *DrugsHandler) UpdateDrug(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateDrugRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.catalog.UpdateDrug(c.Request.Context(), middleware.GetAuth(c), id, req)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ListDrugs godoc
// @Summary      List drugs
// @Tags         drugs
// @Produce      json
// @Security     BearerAuth
// @Param        search query string false "Name, generic name or exact barcode"
// @Param        page   query int    false "Page"  default(1)
// @Param        limit  query int    false "Limit" default(50)
// @Success      200 {object} dto.DrugListResponse
// @Router       /v1/drugs [get]
func (h *DrugsHandler) ListDrugs(c *gin.Context) {
	var filter dto.DrugFilter
	if !bindQuery(c, &filter) {
		return
	}
	resp, err := h.catalog.ListDrugs(c.Request.Context(), middleware.GetAuth(c), filter)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// LookupBarcode godoc
// @Summary      Scanner lookup by barcode
// @Description  Served from Redis when cached (5 minutes, per organization).
// @Tags         drugs
// @Produce      json
// @Security     BearerAuth
// @Param        code path string true "Barcode"
// @Success      200 {object} dto.BarcodeLookupResponse
// @Failure      404 {object} apierror.APIError
// @Router       /v1/products/barcode/{code} [get]
func (h *DrugsHandler) LookupBarcode(c *gin.Context) {
	resp, err := h.catalog.LookupByBarcode(c.Request.Context(), middleware.GetAuth(c), c.Param("code"))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ListBatches godoc
// @Summary      List every batch of a drug in expiry order
// @Tags         batches
// @Produce      json
// @Security     BearerAuth
// @Param        id     path  string true  "Drug UUID"
// @Param        active query bool   false "Only sellable batches (FEFO order)"
// @Success      200 {array} dto.BatchResponse
// @Router       /v1/drugs/{id}/batches [get]
func (h *DrugsHandler) ListBatches(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	list := h.inventory.ListBatches
	if c.Query("active") == "true" {
		list = h.inventory.ActiveBatchesByExpiry
	}
	resp, err := list(c.Request.Context(), middleware.GetAuth(c), id)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ReceiveBatch godoc
// @Summary      Receive a new batch of stock
// @Tags         batches
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path string                  true "Drug UUID"
// @Param        body body dto.ReceiveBatchRequest true "Batch"
// @Success      201 {object} dto.BatchResponse
// @Failure      422 {object} apierror.APIError
// @Router       /v1/drugs/{id}/batches [post]
func (h *DrugsHandler) ReceiveBatch(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req dto.ReceiveBatchRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.inventory.ReceiveBatch(c.Request.Context(), middleware.GetAuth(c), id, req)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}
