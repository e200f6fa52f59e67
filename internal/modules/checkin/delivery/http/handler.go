package handler

import (
	"net/http"

	checkinService "anoa.com/rewardshub/internal/modules/checkin/service"
	"anoa.com/rewardshub/pkg/response"
	"github.com/gin-gonic/gin"
)

type CheckinHandler struct {
	service checkinService.CheckinService
}

func NewCheckinHandler(service checkinService.CheckinService) *CheckinHandler {
	return &CheckinHandler{service: service}
}

func (h *CheckinHandler) ClaimDailyPoints(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	result, err := h.service.ClaimDailyPoints(c.Request.Context(), userID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": result})
}

func (h *CheckinHandler) GetStatus(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	status, err := h.service.GetStatus(c.Request.Context(), userID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": status})
}
