package handler

import (
	"net/http"

	ledgerDto "anoa.com/rewardshub/internal/modules/ledger/dto"
	ledgerService "anoa.com/rewardshub/internal/modules/ledger/service"
	"anoa.com/rewardshub/pkg/apperror"
	"anoa.com/rewardshub/pkg/dto"
	"anoa.com/rewardshub/pkg/response"
	"anoa.com/rewardshub/pkg/validator"
	"github.com/gin-gonic/gin"
)

type LedgerHandler struct {
	service ledgerService.LedgerService
}

func NewLedgerHandler(service ledgerService.LedgerService) *LedgerHandler {
	return &LedgerHandler{service: service}
}

func (h *LedgerHandler) GetBalance(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	balance, err := h.service.GetBalance(c.Request.Context(), userID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": ledgerDto.BalanceResponse{Balance: balance}})
}

func (h *LedgerHandler) GetHistory(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	var q dto.PageQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.ResponseError(c, apperror.New(http.StatusBadRequest, validator.FormatValidationError(err), apperror.ErrInvalidInput))
		return
	}

	history, err := h.service.GetHistory(c.Request.Context(), userID, q)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, history)
}

func (h *LedgerHandler) RebuildBalances(c *gin.Context) {
	drifted, err := h.service.RebuildBalances(c.Request.Context())
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": ledgerDto.RebuildResponse{DriftedUsers: drifted}})
}
