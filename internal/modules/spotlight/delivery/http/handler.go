package handler

import (
	"errors"
	"io"
	"net/http"

	"anoa.com/rewardshub/internal/entity"
	spotlightDto "anoa.com/rewardshub/internal/modules/spotlight/dto"
	spotlightService "anoa.com/rewardshub/internal/modules/spotlight/service"
	"anoa.com/rewardshub/pkg/apperror"
	"anoa.com/rewardshub/pkg/dto"
	"anoa.com/rewardshub/pkg/response"
	"anoa.com/rewardshub/pkg/validator"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type SpotlightHandler struct {
	catalog          spotlightService.CatalogService
	claims           spotlightService.ClaimService
	maxEvidenceBytes int64
}

func NewSpotlightHandler(catalog spotlightService.CatalogService, claims spotlightService.ClaimService, maxEvidenceBytes int64) *SpotlightHandler {
	return &SpotlightHandler{
		catalog:          catalog,
		claims:           claims,
		maxEvidenceBytes: maxEvidenceBytes,
	}
}

func parseID(c *gin.Context, param string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		return uuid.Nil, apperror.New(http.StatusBadRequest, "invalid "+param, apperror.ErrInvalidInput)
	}
	return id, nil
}

func (h *SpotlightHandler) GetActiveSpotlight(c *gin.Context) {
	spotlight, err := h.catalog.GetActiveSpotlight(c.Request.Context())
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": spotlight})
}

func (h *SpotlightHandler) SubmitClaim(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	spotlightID, err := parseID(c, "spotlight_id")
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	fileHeader, err := c.FormFile("evidence")
	if err != nil {
		response.ResponseError(c, apperror.New(http.StatusBadRequest, "an evidence file is required", apperror.ErrInvalidInput))
		return
	}
	if h.maxEvidenceBytes > 0 && fileHeader.Size > h.maxEvidenceBytes {
		response.ResponseError(c, apperror.New(http.StatusBadRequest, "evidence file is too large", apperror.ErrInvalidInput))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		response.ResponseError(c, apperror.New(http.StatusBadRequest, "failed to read evidence file", apperror.ErrInvalidInput))
		return
	}
	defer file.Close()

	var reader io.Reader = file
	if h.maxEvidenceBytes > 0 {
		reader = io.LimitReader(file, h.maxEvidenceBytes+1)
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		response.ResponseError(c, apperror.New(http.StatusBadRequest, "failed to read evidence file", apperror.ErrInvalidInput))
		return
	}

	claim, err := h.claims.SubmitSpotlightClaim(c.Request.Context(), userID, spotlightID, c.PostForm("external_email"), dto.EvidenceFile{
		Data:        data,
		FileName:    fileHeader.Filename,
		ContentType: fileHeader.Header.Get("Content-Type"),
	})
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": claim})
}

func (h *SpotlightHandler) GetLatestClaim(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	spotlightID, err := parseID(c, "spotlight_id")
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	claim, err := h.claims.GetLatestClaimStatus(c.Request.Context(), userID, spotlightID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": spotlightDto.LatestClaimResponse{Claim: claim}})
}

// Moderator endpoints

func (h *SpotlightHandler) ListClaims(c *gin.Context) {
	var q spotlightDto.ListClaimsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.ResponseError(c, apperror.New(http.StatusBadRequest, validator.FormatValidationError(err), apperror.ErrInvalidInput))
		return
	}

	claims, err := h.claims.ListClaims(c.Request.Context(), q)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, claims)
}

func (h *SpotlightHandler) ReviewClaim(c *gin.Context) {
	moderatorID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	claimID, err := parseID(c, "claim_id")
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	var req spotlightDto.ReviewClaimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ResponseError(c, apperror.New(http.StatusBadRequest, validator.FormatValidationError(err), apperror.ErrInvalidInput))
		return
	}

	claim, err := h.claims.ReviewClaim(c.Request.Context(), moderatorID, claimID, entity.ClaimStatus(req.Decision), req.Note)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": claim})
}

func (h *SpotlightHandler) CreateSpotlight(c *gin.Context) {
	var req spotlightDto.CreateSpotlightRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ResponseError(c, apperror.New(http.StatusBadRequest, validator.FormatValidationError(err), apperror.ErrInvalidInput))
		return
	}

	spotlight, err := h.catalog.CreateSpotlight(c.Request.Context(), req)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": spotlight})
}

func (h *SpotlightHandler) SetSpotlightActive(c *gin.Context) {
	spotlightID, err := parseID(c, "spotlight_id")
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	var req spotlightDto.SetActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ResponseError(c, apperror.New(http.StatusBadRequest, validator.FormatValidationError(err), apperror.ErrInvalidInput))
		return
	}

	if err := h.catalog.SetActive(c.Request.Context(), spotlightID, *req.IsActive); err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			response.ResponseError(c, apperror.New(http.StatusNotFound, "spotlight not found", err))
			return
		}
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "spotlight updated"})
}
