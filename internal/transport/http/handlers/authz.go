package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/cevi/onlinemat-sub000/internal/core/domain"
	"github.com/cevi/onlinemat-sub000/internal/transport/http/middleware"
	"github.com/cevi/onlinemat-sub000/internal/usecase"
)

// DecisionMetrics counts authorization decisions by action, kind, and outcome.
type DecisionMetrics struct {
	Decisions *prometheus.CounterVec
}

// NewDecisionMetrics registers the decision counter with the provided registerer.
func NewDecisionMetrics(reg prometheus.Registerer) (*DecisionMetrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	decisions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "authz",
		Name:      "decisions_total",
		Help:      "Total number of authorization decisions partitioned by action, kind, and outcome.",
	}, []string{"action", "kind", "allowed"})

	if err := reg.Register(decisions); err != nil {
		if already, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := already.ExistingCollector.(*prometheus.CounterVec); ok {
				decisions = existing
			} else {
				return nil, fmt.Errorf("existing decisions collector has unexpected type %T", already.ExistingCollector)
			}
		} else {
			return nil, fmt.Errorf("register decisions collector: %w", err)
		}
	}

	return &DecisionMetrics{Decisions: decisions}, nil
}

func (m *DecisionMetrics) record(action domain.Action, kind domain.SubjectKind, allowed bool) {
	if m == nil || m.Decisions == nil {
		return
	}
	m.Decisions.With(prometheus.Labels{
		"action":  string(action),
		"kind":    string(kind),
		"allowed": strconv.FormatBool(allowed),
	}).Inc()
}

// AuthzHandler answers authorization queries for the authenticated caller.
type AuthzHandler struct {
	ability *usecase.AbilityService
	metrics *DecisionMetrics
	logger  *zap.Logger
}

// NewAuthzHandler builds the authorization query handler.
func NewAuthzHandler(ability *usecase.AbilityService, metrics *DecisionMetrics, logger *zap.Logger) *AuthzHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthzHandler{ability: ability, metrics: metrics, logger: logger}
}

// RegisterRoutes mounts the authz endpoints on the supplied group.
func (h *AuthzHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/check", h.Check)
	r.GET("/rules", h.Rules)
}

// Check evaluates a single authorization query for the caller.
func (h *AuthzHandler) Check(c *gin.Context) {
	if h.ability == nil {
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "authz handler not fully configured"))
		return
	}

	userID, ok := middleware.GetAuthenticatedUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "invalid authentication"))
		return
	}

	var req CheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid check payload"))
		return
	}

	action := domain.Action(strings.ToLower(strings.TrimSpace(req.Action)))
	if !domain.KnownAction(action) {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "unknown action"))
		return
	}

	kind := domain.SubjectKind(strings.ToLower(strings.TrimSpace(req.Kind)))
	if !domain.KnownKind(kind) {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "unknown subject kind"))
		return
	}

	subject := domain.ClassOf(kind)
	if req.Subject != nil {
		subject = domain.Subject{
			Kind:     kind,
			ID:       strings.TrimSpace(req.Subject.ID),
			TenantID: strings.TrimSpace(req.Subject.TenantID),
		}
	}

	allowed, err := h.ability.Can(c.Request.Context(), userID, action, subject)
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrUserNotFound, Status: http.StatusUnauthorized, Message: "unknown user"},
		}, http.StatusInternalServerError, "failed to evaluate authorization")
		return
	}

	h.metrics.record(action, kind, allowed)

	c.JSON(http.StatusOK, CheckResponse{Allowed: allowed})
}

// Rules returns the caller's compiled rule set.
func (h *AuthzHandler) Rules(c *gin.Context) {
	if h.ability == nil {
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "authz handler not fully configured"))
		return
	}

	userID, ok := middleware.GetAuthenticatedUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "invalid authentication"))
		return
	}

	store, err := h.ability.StoreFor(c.Request.Context(), userID)
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrUserNotFound, Status: http.StatusUnauthorized, Message: "unknown user"},
		}, http.StatusInternalServerError, "failed to load rules")
		return
	}

	rules := store.Rules()
	payload := make([]RulePayload, 0, len(rules))
	for _, rule := range rules {
		payload = append(payload, RulePayload{
			Action: string(rule.Action),
			Kind:   string(rule.Kind),
			Scope:  rule.Scope,
		})
	}

	c.JSON(http.StatusOK, RulesResponse{Rules: payload})
}
