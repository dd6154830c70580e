package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/cityofhelsinki/benefit-backend/internal/i18n"
	"github.com/cityofhelsinki/benefit-backend/internal/models"
	"github.com/cityofhelsinki/benefit-backend/internal/repositories"
	"github.com/cityofhelsinki/benefit-backend/internal/services"
	"github.com/cityofhelsinki/benefit-backend/internal/utils"
)

type ApplicationHandler struct {
	applicationService *services.ApplicationService
}

func NewApplicationHandler(applicationService *services.ApplicationService) *ApplicationHandler {
	return &ApplicationHandler{
		applicationService: applicationService,
	}
}

// GET /applications
func (h *ApplicationHandler) ListApplications(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	params := utils.GetPaginationParams(c)
	filter := repositories.ApplicationFilter{PaginationParams: params}

	if status := c.Query("status"); status != "" {
		s := models.ApplicationStatus(status)
		if !s.IsValid() {
			utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyApplicationInvalidStatus), nil)
			return
		}
		filter.Status = &s
	}
	if archived := c.Query("archived"); archived != "" {
		value, err := strconv.ParseBool(archived)
		if err != nil {
			utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "archived"), nil)
			return
		}
		filter.Archived = &value
	}

	actor := actorFromContext(c)
	apps, total, err := h.applicationService.List(c.Request.Context(), filter, actor)
	if err != nil {
		respondError(c, err)
		return
	}

	views := make([]interface{}, 0, len(apps))
	for i := range apps {
		views = append(views, h.view(actor, &apps[i]))
	}
	utils.PaginatedResponse(c, utils.CreatePaginationResult(views, total, params))
}

// POST /applications
func (h *ApplicationHandler) CreateApplication(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	var req services.CreateApplicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	actor := actorFromContext(c)
	app, err := h.applicationService.Create(c.Request.Context(), &req, actor)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.CreatedResponse(c, h.view(actor, app))
}

// GET /applications/:id
func (h *ApplicationHandler) GetApplication(c *gin.Context) {
	id, ok := applicationID(c)
	if !ok {
		return
	}

	actor := actorFromContext(c)
	app, err := h.applicationService.Get(c.Request.Context(), id, actor)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, h.view(actor, app))
}

// PUT /applications/:id
func (h *ApplicationHandler) UpdateApplication(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	id, ok := applicationID(c)
	if !ok {
		return
	}

	var req services.UpdateApplicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	actor := actorFromContext(c)
	app, err := h.applicationService.ApplyUpdate(c.Request.Context(), id, &req, actor)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, h.view(actor, app))
}

// view picks the representation the caller may see.
func (h *ApplicationHandler) view(actor services.Actor, app *models.Application) interface{} {
	if h.applicationService.ActsAsHandler(actor) {
		return services.NewHandlerApplicationView(app)
	}
	return services.NewApplicantApplicationView(app)
}

func applicationID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, i18n.T(utils.GetLangFromContext(c), i18n.KeyValidationInvalid, "application id"), nil)
		return uuid.Nil, false
	}
	return id, true
}
