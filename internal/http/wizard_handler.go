package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"uni-wizard/internal/domain"
	"uni-wizard/internal/service"
)

// WizardHandler expone las sesiones del wizard a un front end web.
type WizardHandler struct {
	logger   *zap.Logger
	registry *service.SessionRegistry
}

// NewWizardHandler crea una instancia de WizardHandler.
func NewWizardHandler(logger *zap.Logger, registry *service.SessionRegistry) *WizardHandler {
	return &WizardHandler{
		logger:   logger,
		registry: registry,
	}
}

// ListCountries maneja GET /countries.
func (h *WizardHandler) ListCountries(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"countries": domain.Countries()})
}

// CreateSession maneja POST /sessions.
func (h *WizardHandler) CreateSession(c *gin.Context) {
	snap, err := h.registry.Create(c.Request.Context())
	if err != nil {
		h.logger.Error("create wizard session failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create session"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"session": snap})
}

// GetSession maneja GET /sessions/:id.
func (h *WizardHandler) GetSession(c *gin.Context) {
	h.act(c, http.StatusOK, func(*service.WizardSession) (service.Cmd, error) { return nil, nil })
}

// DeleteSession maneja DELETE /sessions/:id.
func (h *WizardHandler) DeleteSession(c *gin.Context) {
	if err := h.registry.Delete(c.Param("id")); err != nil {
		h.writeError(c, err, service.SessionSnapshot{})
		return
	}
	c.Status(http.StatusNoContent)
}

// SelectCountry maneja POST /sessions/:id/country.
func (h *WizardHandler) SelectCountry(c *gin.Context) {
	var req struct {
		CountryCode string `json:"country_code" binding:"required"`
	}
	if !h.bind(c, &req) {
		return
	}
	h.act(c, http.StatusOK, func(s *service.WizardSession) (service.Cmd, error) {
		return s.SelectCountry(req.CountryCode)
	})
}

// Start maneja POST /sessions/:id/start.
func (h *WizardHandler) Start(c *gin.Context) {
	h.act(c, http.StatusOK, func(s *service.WizardSession) (service.Cmd, error) { return nil, s.Start() })
}

// UpdateProfile maneja PATCH /sessions/:id/profile.
func (h *WizardHandler) UpdateProfile(c *gin.Context) {
	var patch domain.ProfilePatch
	if !h.bind(c, &patch) {
		return
	}
	h.act(c, http.StatusOK, func(s *service.WizardSession) (service.Cmd, error) {
		return nil, s.UpdateProfile(patch)
	})
}

// ToggleCluster maneja POST /sessions/:id/clusters/toggle.
func (h *WizardHandler) ToggleCluster(c *gin.Context) {
	var req struct {
		SubjectCluster string `json:"subject_cluster" binding:"required"`
	}
	if !h.bind(c, &req) {
		return
	}
	h.act(c, http.StatusOK, func(s *service.WizardSession) (service.Cmd, error) {
		_, err := s.ToggleCluster(req.SubjectCluster)
		return nil, err
	})
}

// NextStep maneja POST /sessions/:id/next.
func (h *WizardHandler) NextStep(c *gin.Context) {
	h.act(c, http.StatusOK, func(s *service.WizardSession) (service.Cmd, error) { return nil, s.NextStep() })
}

// BackToProfile maneja POST /sessions/:id/back.
func (h *WizardHandler) BackToProfile(c *gin.Context) {
	h.act(c, http.StatusOK, func(s *service.WizardSession) (service.Cmd, error) { return nil, s.BackToProfile() })
}

// Submit maneja POST /sessions/:id/submit. El resultado llega por GET /sessions/:id.
func (h *WizardHandler) Submit(c *gin.Context) {
	h.act(c, http.StatusAccepted, func(s *service.WizardSession) (service.Cmd, error) { return s.Submit() })
}

// BackToForm maneja POST /sessions/:id/form.
func (h *WizardHandler) BackToForm(c *gin.Context) {
	h.act(c, http.StatusOK, func(s *service.WizardSession) (service.Cmd, error) { return nil, s.BackToForm() })
}

// Reset maneja POST /sessions/:id/reset.
func (h *WizardHandler) Reset(c *gin.Context) {
	h.act(c, http.StatusOK, func(s *service.WizardSession) (service.Cmd, error) {
		s.Reset()
		return nil, nil
	})
}

type courseRequest struct {
	CourseID domain.CourseID `json:"course_id" binding:"required"`
}

// SelectRecommendation maneja POST /sessions/:id/recommendations/select.
func (h *WizardHandler) SelectRecommendation(c *gin.Context) {
	var req courseRequest
	if !h.bind(c, &req) {
		return
	}
	h.act(c, http.StatusOK, func(s *service.WizardSession) (service.Cmd, error) {
		return nil, s.SelectRecommendation(req.CourseID)
	})
}

// ToggleCompare maneja POST /sessions/:id/compare/toggle.
func (h *WizardHandler) ToggleCompare(c *gin.Context) {
	var req courseRequest
	if !h.bind(c, &req) {
		return
	}
	h.act(c, http.StatusOK, func(s *service.WizardSession) (service.Cmd, error) {
		_, err := s.ToggleCompare(req.CourseID)
		return nil, err
	})
}

// ClearCompare maneja DELETE /sessions/:id/compare.
func (h *WizardHandler) ClearCompare(c *gin.Context) {
	h.act(c, http.StatusOK, func(s *service.WizardSession) (service.Cmd, error) {
		s.ClearCompare()
		return nil, nil
	})
}

// OpenBot maneja POST /sessions/:id/bot/open.
func (h *WizardHandler) OpenBot(c *gin.Context) {
	h.act(c, http.StatusOK, func(s *service.WizardSession) (service.Cmd, error) {
		return nil, s.OpenBot()
	})
}

// CloseBot maneja POST /sessions/:id/bot/close.
func (h *WizardHandler) CloseBot(c *gin.Context) {
	h.act(c, http.StatusOK, func(s *service.WizardSession) (service.Cmd, error) {
		s.CloseBot()
		return nil, nil
	})
}

// SendBotMessage maneja POST /sessions/:id/bot/messages. La respuesta se agrega después del delay.
func (h *WizardHandler) SendBotMessage(c *gin.Context) {
	var req struct {
		Message string `json:"message" binding:"required"`
	}
	if !h.bind(c, &req) {
		return
	}
	h.act(c, http.StatusAccepted, func(s *service.WizardSession) (service.Cmd, error) {
		return s.SendBotMessage(req.Message)
	})
}

func (h *WizardHandler) bind(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		h.logger.Warn("invalid wizard request", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return false
	}
	return true
}

// act ejecuta la acción en el runtime de la sesión y responde con la foto resultante.
func (h *WizardHandler) act(c *gin.Context, status int, fn service.Action) {
	rt, err := h.registry.Get(c.Param("id"))
	if err != nil {
		h.writeError(c, err, service.SessionSnapshot{})
		return
	}
	snap, err := rt.Do(c.Request.Context(), fn)
	if err != nil {
		h.writeError(c, err, snap)
		return
	}
	c.JSON(status, gin.H{"session": snap})
}

func (h *WizardHandler) writeError(c *gin.Context, err error, snap service.SessionSnapshot) {
	switch {
	case errors.Is(err, service.ErrSessionNotFound), errors.Is(err, service.ErrRuntimeStopped):
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
	case errors.Is(err, service.ErrValidationFailed):
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":             err.Error(),
			"academic_errors":   snap.AcademicErrors,
			"preference_errors": snap.PreferenceErrors,
			"session":           snap,
		})
	case errors.Is(err, service.ErrInvalidTransition), errors.Is(err, service.ErrSubmitInFlight):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "session": snap})
	case errors.Is(err, service.ErrCountryUnavailable),
		errors.Is(err, service.ErrUnknownCluster),
		errors.Is(err, service.ErrUnknownRecommendation),
		errors.Is(err, service.ErrEmptyQuestion):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "session": snap})
	default:
		h.logger.Error("wizard action failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
