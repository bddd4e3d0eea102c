package api

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/artifact-explorer/artifact-explorer/internal/conf"
	"github.com/artifact-explorer/artifact-explorer/internal/datastore"
	"github.com/artifact-explorer/artifact-explorer/internal/errors"
	"github.com/artifact-explorer/artifact-explorer/internal/harvard"
	"github.com/artifact-explorer/artifact-explorer/internal/importer"
	"github.com/artifact-explorer/artifact-explorer/internal/logger"
	"github.com/artifact-explorer/artifact-explorer/internal/queries"
)

// DataStore is the read side of the datastore used by the API.
type DataStore interface {
	Ping(ctx context.Context) error
	Dialect() datastore.Dialect
	Browse(ctx context.Context, table, classification string, limit int) (*datastore.ResultSet, error)
	RunQuery(ctx context.Context, sqlText string, params ...any) (*datastore.ResultSet, error)
	RunCannedQuery(ctx context.Context, sqlText string, params ...any) (*datastore.ResultSet, error)
}

// Importer runs imports on behalf of the API.
type Importer interface {
	Import(ctx context.Context, classification string, pages int) (importer.Report, error)
	ExistingCount(ctx context.Context, classification string) (int64, error)
	Classifications() []string
}

// Controller holds the API dependencies and handlers.
type Controller struct {
	Group    *echo.Group
	DS       DataStore
	Importer Importer
	Catalog  *queries.Catalog
	Settings *conf.Settings
}

// NewController registers the API routes on group.
func NewController(group *echo.Group, ds DataStore, imp Importer, catalog *queries.Catalog, settings *conf.Settings) *Controller {
	c := &Controller{
		Group:    group,
		DS:       ds,
		Importer: imp,
		Catalog:  catalog,
		Settings: settings,
	}
	c.initRoutes()
	return c
}

func (c *Controller) initRoutes() {
	c.Group.GET("/health", c.HealthCheck)
	c.Group.GET("/classifications", c.ListClassifications)
	c.Group.POST("/imports", c.StartImport)
	c.Group.GET("/tables/:table", c.BrowseTable)
	c.Group.GET("/queries", c.ListQueries)
	c.Group.GET("/queries/:name", c.RunCannedQuery)
	c.Group.GET("/queries/:name/options/:param", c.ParamOptions)
	c.Group.POST("/query", c.RunQuery)
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error         string `json:"error"`
	Message       string `json:"message"`
	Code          int    `json:"code"`
	CorrelationID string `json:"correlation_id"`
	Details       any    `json:"details,omitempty"`
}

// NewErrorResponse creates a new API error response.
func NewErrorResponse(err error, message string, code int) *ErrorResponse {
	errorStr := message
	if err != nil {
		errorStr = err.Error()
	}
	return &ErrorResponse{
		Error:         errorStr,
		Message:       message,
		Code:          code,
		CorrelationID: uuid.NewString()[:8],
	}
}

// HandleError logs err under a fresh correlation ID and writes the JSON error body.
func (c *Controller) HandleError(ctx echo.Context, err error, message string, code int) error {
	return c.handleErrorWithDetails(ctx, err, message, code, nil)
}

func (c *Controller) handleErrorWithDetails(ctx echo.Context, err error, message string, code int, details any) error {
	resp := NewErrorResponse(err, message, code)
	resp.Details = details

	fields := []logger.Field{
		logger.String("correlation_id", resp.CorrelationID),
		logger.String("message", message),
		logger.Int("code", code),
		logger.String("path", ctx.Request().URL.Path),
		logger.String("method", ctx.Request().Method),
	}
	if err != nil {
		fields = append(fields, logger.Error(err))
	}
	if code >= http.StatusInternalServerError {
		GetLogger().Error("API error", fields...)
	} else {
		GetLogger().Debug("API error", fields...)
	}

	return ctx.JSON(code, resp)
}

// statusFor maps a pipeline error to an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, harvard.ErrFetchFailed):
		return http.StatusBadGateway
	case errors.Is(err, queries.ErrQueryNotFound), errors.Is(err, datastore.ErrUnknownTable):
		return http.StatusNotFound
	case errors.IsCategory(err, errors.CategoryValidation), errors.IsCategory(err, errors.CategoryQuery):
		return http.StatusBadRequest
	case errors.IsCategory(err, errors.CategoryCancellation), errors.IsCategory(err, errors.CategoryTimeout):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
