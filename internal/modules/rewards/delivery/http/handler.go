package handler

import (
	"net/http"

	rewardsService "anoa.com/rewardshub/internal/modules/rewards/service"
	"anoa.com/rewardshub/pkg/response"
	"github.com/gin-gonic/gin"
)

type RewardsHandler struct {
	service rewardsService.RewardsService
}

func NewRewardsHandler(service rewardsService.RewardsService) *RewardsHandler {
	return &RewardsHandler{service: service}
}

func (h *RewardsHandler) GetSnapshot(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	snapshot, err := h.service.GetRewardsSnapshot(c.Request.Context(), userID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": snapshot})
}
