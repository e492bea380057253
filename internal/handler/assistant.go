package handler

import (
	"net/http"

	"pharmacyos/internal/dto"
	"pharmacyos/internal/middleware"
	"pharmacyos/internal/service"

	"github.com/gin-gonic/gin"
)

type AssistantHandler struct{ svc service.AssistantService }

func NewAssistantHandler(svc service.AssistantService) *AssistantHandler {
	return &AssistantHandler{svc: svc}
}

// Chat godoc
// @Summary      Ask the pharmacist assistant
// @Description  Starts a session when session_id is omitted.
// @Tags         ai
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.ChatRequest true "Message"
// @Success      200 {object} dto.ChatResponse
// @Router       /v1/ai/chat [post]
func (h *AssistantHandler) Chat(c *gin.Context) {
	var req dto.ChatRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Chat(c.Request.Context(), middleware.GetAuth(c), req)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
