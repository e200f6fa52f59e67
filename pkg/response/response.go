package response

import (
	"errors"
	"log/slog"
	"net/http"

	"anoa.com/rewardshub/pkg/apperror"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// GetUserID retrieves the authenticated user ID from the context
func GetUserID(c *gin.Context) (uuid.UUID, error) {
	userIDStr, exists := c.Get("user_id")
	if !exists {
		return uuid.Nil, apperror.ErrNotAuthenticated
	}

	raw, ok := userIDStr.(string)
	if !ok {
		return uuid.Nil, apperror.ErrNotAuthenticated
	}

	userID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, apperror.ErrNotAuthenticated
	}

	return userID, nil
}

// ResponseError standardized error response
func ResponseError(c *gin.Context, err error) {
	code := apperror.MapErrorToStatus(err)

	msg := err.Error()
	var appErr *apperror.AppError
	if errors.As(err, &appErr) && appErr.Message != "" {
		msg = appErr.Message
	}

	// Storage and transport details stay in the logs.
	switch {
	case errors.Is(err, apperror.ErrEvidenceUploadFailed):
		slog.Warn("evidence upload failed", "path", c.FullPath(), "error", err)
		msg = apperror.ErrEvidenceUploadFailed.Error() + ", please try again"
	case errors.Is(err, apperror.ErrClaimRecordFailed):
		slog.Error("claim record failed", "path", c.FullPath(), "error", err)
		msg = apperror.ErrClaimRecordFailed.Error() + ", please try again"
	case code >= http.StatusInternalServerError:
		slog.Error("internal error", "path", c.FullPath(), "error", err)
		msg = "something went wrong, please try again"
	}

	c.JSON(code, gin.H{"error": msg})
}
