// Package api implements the versioned /v1 JSON HTTP API of the
// hearing platform: hearing listing and detail, comment creation,
// vote/unvote and follow/unfollow toggles.
package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/patrickmn/go-cache"

	"github.com/civicvoice/hearing-go/internal/conf"
	"github.com/civicvoice/hearing-go/internal/datastore"
	"github.com/civicvoice/hearing-go/internal/datastore/entities"
	"github.com/civicvoice/hearing-go/internal/errors"
	"github.com/civicvoice/hearing-go/internal/logging"
	"github.com/civicvoice/hearing-go/internal/observability"
)

const (
	// mapCacheTTL bounds staleness of the hearing map endpoint, whose
	// geojson payloads are large and effectively immutable.
	mapCacheTTL = 5 * time.Minute

	defaultListLimit = 50
)

// UserResolver resolves the authenticated user of a request, nil when
// the request is anonymous.
type UserResolver func(c echo.Context) (*entities.User, error)

// Controller manages the API routes and handlers.
type Controller struct {
	Echo     *echo.Echo
	Group    *echo.Group
	DS       datastore.Interface
	Settings *conf.Settings

	logger       *slog.Logger
	metrics      *observability.Metrics
	mapCache     *cache.Cache
	userResolver UserResolver
}

// Option is a functional option for configuring the Controller.
type Option func(*Controller)

// WithUserResolver overrides how the authenticated user is resolved.
// The default resolver looks the Authorization token up in the users
// table.
func WithUserResolver(resolver UserResolver) Option {
	return func(c *Controller) {
		c.userResolver = resolver
	}
}

// New creates the API controller and registers all /v1 routes on e.
func New(e *echo.Echo, ds datastore.Interface, settings *conf.Settings, metrics *observability.Metrics, opts ...Option) *Controller {
	c := &Controller{
		Echo:     e,
		DS:       ds,
		Settings: settings,
		logger:   logging.ForService("api"),
		metrics:  metrics,
		mapCache: cache.New(mapCacheTTL, 2*mapCacheTTL),
	}
	c.userResolver = c.resolveTokenUser

	for _, opt := range opts {
		opt(c)
	}

	e.Use(middleware.Recover())
	e.Use(c.metricsMiddleware)

	c.Group = e.Group("/v1")
	c.Group.Use(c.authMiddleware)

	c.initHearingRoutes()
	c.initSectionRoutes()
	c.initCommentRoutes()

	e.GET("/metrics", echo.WrapHandler(metrics.Handler()))

	return c
}

// metricsMiddleware counts requests by method, route and status.
func (c *Controller) metricsMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		err := next(ctx)
		status := ctx.Response().Status
		if httpErr, ok := err.(*echo.HTTPError); ok {
			status = httpErr.Code
		}
		c.metrics.HTTPRequests.WithLabelValues(
			ctx.Request().Method, ctx.Path(), strconv.Itoa(status)).Inc()
		return err
	}
}

// authMiddleware resolves the request user, if any, and stashes it in
// the echo context. Anonymous requests proceed; handlers that need a
// user reject them with 403.
func (c *Controller) authMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		user, err := c.userResolver(ctx)
		if err != nil {
			return c.HandleError(ctx, err, "Authentication failed", http.StatusForbidden)
		}
		if user != nil {
			ctx.Set(contextKeyUser, user)
		}
		return next(ctx)
	}
}

const contextKeyUser = "user"

// resolveTokenUser is the default UserResolver: it maps an
// "Authorization: Token <token>" header to a user row. An absent
// header yields an anonymous request; an unknown token is an error.
func (c *Controller) resolveTokenUser(ctx echo.Context) (*entities.User, error) {
	header := ctx.Request().Header.Get(echo.HeaderAuthorization)
	if header == "" {
		return nil, nil
	}
	const prefix = "Token "
	if len(header) <= len(prefix) || header[:len(prefix)] != prefix {
		return nil, errors.Newf("malformed authorization header").
			Category(errors.CategoryForbidden).
			Component("api").
			Build()
	}
	user, err := c.DS.GetUserByToken(ctx.Request().Context(), header[len(prefix):])
	if err != nil {
		if errors.Is(err, datastore.ErrUserNotFound) {
			return nil, errors.Newf("unknown token").
				Category(errors.CategoryForbidden).
				Component("api").
				Build()
		}
		return nil, err
	}
	return user, nil
}

// currentUser returns the authenticated user of the request, nil for
// anonymous requests.
func currentUser(ctx echo.Context) *entities.User {
	user, _ := ctx.Get(contextKeyUser).(*entities.User)
	return user
}

// ErrorResponse is the JSON body of error replies.
type ErrorResponse struct {
	Error         string `json:"error"`
	Message       string `json:"message"`
	Code          int    `json:"code"`
	CorrelationID string `json:"correlation_id"`
}

// HandleError logs err and writes a JSON error response.
func (c *Controller) HandleError(ctx echo.Context, err error, message string, code int) error {
	resp := ErrorResponse{
		Message:       message,
		Code:          code,
		CorrelationID: uuid.NewString()[:8],
	}
	if err != nil {
		resp.Error = err.Error()
	}

	c.logger.Error("API error",
		"correlation_id", resp.CorrelationID,
		"message", message,
		"error", err,
		"code", code,
		"path", ctx.Request().URL.Path,
		"method", ctx.Request().Method,
		"ip", ctx.RealIP(),
	)
	return ctx.JSON(code, resp)
}

// handleStoreError maps datastore sentinel errors and error categories
// onto HTTP statuses.
func (c *Controller) handleStoreError(ctx echo.Context, err error, message string) error {
	switch errors.CategoryOf(err) {
	case errors.CategoryNotFound:
		return c.HandleError(ctx, err, message, http.StatusNotFound)
	case errors.CategoryValidation:
		return c.HandleError(ctx, err, message, http.StatusBadRequest)
	case errors.CategoryForbidden:
		return c.HandleError(ctx, err, message, http.StatusForbidden)
	case errors.CategoryConflict:
		return c.HandleError(ctx, err, message, http.StatusConflict)
	default:
		return c.HandleError(ctx, err, message, http.StatusInternalServerError)
	}
}

// statusResponse is the body of side-effect action replies, mirroring
// the wire format of the original service.
type statusResponse struct {
	Status string `json:"status"`
}

// respondToggle translates a toggle outcome into the
// created/not-modified/no-content wire protocol.
func (c *Controller) respondToggle(ctx echo.Context, kind string, result datastore.ToggleResult, createdMsg, removedMsg, unchangedMsg string) error {
	switch result {
	case datastore.ToggleCreated:
		c.metrics.Toggles.WithLabelValues(kind, "created").Inc()
		return ctx.JSON(http.StatusCreated, statusResponse{Status: createdMsg})
	case datastore.ToggleRemoved:
		c.metrics.Toggles.WithLabelValues(kind, "removed").Inc()
		return ctx.JSON(http.StatusNoContent, statusResponse{Status: removedMsg})
	default:
		c.metrics.Toggles.WithLabelValues(kind, "not_modified").Inc()
		return ctx.JSON(http.StatusNotModified, statusResponse{Status: unchangedMsg})
	}
}
