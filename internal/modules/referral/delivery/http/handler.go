package handler

import (
	"net/http"

	referralDto "anoa.com/rewardshub/internal/modules/referral/dto"
	referralService "anoa.com/rewardshub/internal/modules/referral/service"
	"anoa.com/rewardshub/pkg/apperror"
	"anoa.com/rewardshub/pkg/response"
	"anoa.com/rewardshub/pkg/validator"
	"github.com/gin-gonic/gin"
)

type ReferralHandler struct {
	service referralService.ReferralService
}

func NewReferralHandler(service referralService.ReferralService) *ReferralHandler {
	return &ReferralHandler{service: service}
}

func (h *ReferralHandler) ApplyReferral(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	var req referralDto.ApplyReferralRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ResponseError(c, apperror.New(http.StatusBadRequest, validator.FormatValidationError(err), apperror.ErrInvalidInput))
		return
	}

	result, err := h.service.ApplyReferral(c.Request.Context(), userID, req.RefCode)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": result})
}

func (h *ReferralHandler) GetStats(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	stats, err := h.service.GetStats(c.Request.Context(), userID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": stats})
}
