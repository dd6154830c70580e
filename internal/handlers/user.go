// internal/handlers/user.go
package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/cityofhelsinki/benefit-backend/internal/models"
	"github.com/cityofhelsinki/benefit-backend/internal/utils"
)

type UserHandler struct {
	mockMode bool
}

type CurrentUser struct {
	ID        *uuid.UUID       `json:"id"`
	Name      string           `json:"name"`
	Role      models.ActorRole `json:"role"`
	CompanyID *uuid.UUID       `json:"company_id"`
	IsMock    bool             `json:"is_mock"`
}

func NewUserHandler(mockMode bool) *UserHandler {
	return &UserHandler{
		mockMode: mockMode,
	}
}

// GET /users/me
func (h *UserHandler) GetCurrentUser(c *gin.Context) {
	actor := actorFromContext(c)

	if actor.Role == models.ActorRoleUnauthenticated {
		if !h.mockMode {
			utils.ForbiddenResponse(c, "")
			return
		}
		utils.SuccessResponse(c, CurrentUser{
			Name:   "Mock User",
			Role:   models.ActorRoleUnauthenticated,
			IsMock: true,
		})
		return
	}

	name, _ := c.Get("name")
	nameStr, _ := name.(string)
	utils.SuccessResponse(c, CurrentUser{
		ID:        actor.ID,
		Name:      nameStr,
		Role:      actor.Role,
		CompanyID: actor.CompanyID,
	})
}
