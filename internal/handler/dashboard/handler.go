package dashboard

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/clinicbook/booking-api/internal/handler"
	"github.com/clinicbook/booking-api/internal/service/dashboard"
)

type Handler struct {
	service *dashboard.Service
}

func NewHandler(service *dashboard.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) GetStats(c *gin.Context) {
	stats, err := h.service.Stats(c.Request.Context())
	if err != nil {
		handler.WriteError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(stats))
}

func (h *Handler) GetWeeklyAppointments(c *gin.Context) {
	counts, err := h.service.WeeklyAppointments(c.Request.Context())
	if err != nil {
		handler.WriteError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(counts))
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	dash := r.Group("/dashboard")
	{
		dash.GET("", h.GetStats)
		dash.GET("/weekly-appointments", h.GetWeeklyAppointments)
	}
}
