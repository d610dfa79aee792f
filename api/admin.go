package api

import (
	"net/http"
	"time"

	"github.com/akarpov91/milesbook/internal/service/settlement"
	"github.com/gin-gonic/gin"
)

// AdminHandler exposes operational triggers, primarily an on-demand
// settlement sweep for testing and recovery.
type AdminHandler struct {
	settlement settlement.SettlementUseCase
}

func NewAdminHandler(settlementSvc settlement.SettlementUseCase) *AdminHandler {
	return &AdminHandler{settlement: settlementSvc}
}

func (h *AdminHandler) Register(router *gin.RouterGroup) {
	router.POST("/settlement/run", h.runSettlement)
}

func (h *AdminHandler) runSettlement(c *gin.Context) {
	report, err := h.settlement.RunSweep(c.Request.Context(), time.Now())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, report)
}
