package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/cityofhelsinki/benefit-backend/internal/calculator"
	"github.com/cityofhelsinki/benefit-backend/internal/i18n"
	"github.com/cityofhelsinki/benefit-backend/internal/models"
	"github.com/cityofhelsinki/benefit-backend/internal/repositories"
	"github.com/cityofhelsinki/benefit-backend/internal/services"
	"github.com/cityofhelsinki/benefit-backend/internal/utils"
)

// actorFromContext builds the caller from what the auth middleware stored.
func actorFromContext(c *gin.Context) services.Actor {
	actor := services.Actor{Role: models.ActorRoleUnauthenticated}
	if role, ok := utils.GetRoleFromContext(c); ok && role != "" {
		actor.Role = models.ActorRole(role)
	}
	if userID, ok := utils.GetUserIDFromContext(c); ok {
		if parsed, err := uuid.Parse(userID); err == nil {
			actor.ID = &parsed
		}
	}
	if companyID, exists := c.Get("company_id"); exists {
		if companyIDStr, ok := companyID.(string); ok {
			if parsed, err := uuid.Parse(companyIDStr); err == nil {
				actor.CompanyID = &parsed
			}
		}
	}
	return actor
}

// respondError maps service errors to the response envelope.
func respondError(c *gin.Context, err error) {
	lang := utils.GetLangFromContext(c)

	var validationErr *services.ValidationError
	switch {
	case errors.As(err, &validationErr):
		utils.ValidationErrorResponse(c, validationErr.Errors)
	case errors.Is(err, repositories.ErrNotFound):
		utils.NotFoundResponse(c, "application")
	case errors.Is(err, services.ErrCompanyNotFound):
		utils.NotFoundResponse(c, "company")
	case errors.Is(err, services.ErrHandlerOnlyField):
		utils.ForbiddenResponse(c, i18n.T(lang, i18n.KeyApplicationHandlerOnlyField))
	case errors.Is(err, services.ErrNotEditable):
		utils.ForbiddenResponse(c, i18n.T(lang, i18n.KeyApplicationNotEditable))
	case errors.Is(err, services.ErrTransitionDenied):
		utils.ForbiddenResponse(c, i18n.T(lang, i18n.KeyApplicationInvalidTransition))
	case errors.Is(err, services.ErrForbidden):
		utils.ForbiddenResponse(c, "")
	case errors.Is(err, models.ErrInvalidStatus):
		utils.ErrorResponse(c, http.StatusBadRequest, "INVALID_STATUS",
			i18n.T(lang, i18n.KeyApplicationInvalidStatus), err.Error())
	case errors.Is(err, models.ErrInvalidStatusTransition):
		utils.ErrorResponse(c, http.StatusBadRequest, "INVALID_STATUS_TRANSITION",
			i18n.T(lang, i18n.KeyApplicationInvalidTransition), err.Error())
	case errors.Is(err, calculator.ErrCalculation):
		utils.ErrorResponse(c, http.StatusBadRequest, "CALCULATION_ERROR",
			i18n.T(lang, i18n.KeyApplicationCalculationFailed), err.Error())
	default:
		logrus.WithError(err).WithField("path", c.Request.URL.Path).Error("Request failed")
		utils.InternalErrorResponse(c, "")
	}
}
