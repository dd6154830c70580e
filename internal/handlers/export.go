package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/cityofhelsinki/benefit-backend/internal/i18n"
	"github.com/cityofhelsinki/benefit-backend/internal/services"
	"github.com/cityofhelsinki/benefit-backend/internal/utils"
)

type ExportHandler struct {
	exporter services.Exporter
}

func NewExportHandler(exporter services.Exporter) *ExportHandler {
	return &ExportHandler{
		exporter: exporter,
	}
}

// POST /handler/exports
func (h *ExportHandler) ExportDecided(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	result, err := h.exporter.ExportDecided(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	if result.Applications == 0 {
		utils.SuccessResponse(c, gin.H{
			"message": i18n.T(lang, i18n.KeyExportEmpty),
			"export":  result,
		})
		return
	}
	utils.CreatedResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyExportCreated, result.Applications),
		"export":  result,
	})
}
