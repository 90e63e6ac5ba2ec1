package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"restaurant_orders/internal/apperrors"
	"restaurant_orders/internal/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

var kindStatus = map[apperrors.Kind]int{
	apperrors.KindValidation:    http.StatusBadRequest,
	apperrors.KindNotFound:      http.StatusNotFound,
	apperrors.KindAuthorization: http.StatusForbidden,
	apperrors.KindBusinessRule:  http.StatusUnprocessableEntity,
	apperrors.KindDependency:    http.StatusBadGateway,
}

// respondError maps error kinds onto HTTP statuses. Unclassified errors are
// masked behind a generic message; the detail only goes to the log.
func respondError(c *gin.Context, logger *zap.SugaredLogger, err error) {
	var appErr *apperrors.Error
	if errors.As(err, &appErr) {
		status, ok := kindStatus[appErr.Kind]
		if ok {
			if appErr.Kind == apperrors.KindDependency {
				logger.Errorw("dependency failure", "path", c.FullPath(), "error", err)
			}
			c.JSON(status, gin.H{"kind": appErr.Kind, "error": appErr.Message})
			return
		}
	}
	logger.Errorw("unexpected error", "path", c.FullPath(), "error", err)
	c.JSON(http.StatusInternalServerError, gin.H{
		"kind":  apperrors.KindInternal,
		"error": "internal server error",
	})
}

// callerIdentity reads the identity the auth middleware stored on the
// request context.
func callerIdentity(c *gin.Context) services.Identity {
	return services.Identity{
		UserID: c.GetUint("user_id"),
		Role:   c.GetString("user_role"),
	}
}

func paramID(c *gin.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return 0, apperrors.Validation("invalid id")
	}
	return uint(id), nil
}
