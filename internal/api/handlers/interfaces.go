package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jroosing/dnstrace/internal/api/models"
	"github.com/jroosing/dnstrace/internal/capture"
)

// Interfaces godoc
// @Summary Capture devices
// @Description Lists the network interfaces live capture can open
// @Tags system
// @Produce json
// @Success 200 {object} models.InterfacesResponse
// @Failure 500 {object} models.ErrorResponse
// @Failure 503 {object} models.ErrorResponse
// @Security ApiKeyAuth
// @Router /interfaces [get]
func (h *Handler) Interfaces(c *gin.Context) {
	_, _, _, list, _ := h.components()
	if list == nil {
		c.JSON(http.StatusServiceUnavailable, models.ErrorResponse{Error: "interface listing unavailable"})
		return
	}
	ifaces, err := list()
	if err != nil {
		h.logger.Error("failed to list interfaces", "err", err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to list interfaces"})
		return
	}
	if ifaces == nil {
		ifaces = []capture.Interface{}
	}
	c.JSON(http.StatusOK, models.InterfacesResponse{Count: len(ifaces), Interfaces: ifaces})
}
