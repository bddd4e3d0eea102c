package api

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/artifact-explorer/artifact-explorer/internal/datastore"
	"github.com/artifact-explorer/artifact-explorer/internal/queries"
)

const healthTimeout = 2 * time.Second

// HealthCheck reports whether the process is up and the database reachable.
func (c *Controller) HealthCheck(ctx echo.Context) error {
	pingCtx, cancel := context.WithTimeout(ctx.Request().Context(), healthTimeout)
	defer cancel()

	database := "ok"
	if err := c.DS.Ping(pingCtx); err != nil {
		database = "error"
	}
	return ctx.JSON(http.StatusOK, map[string]string{"status": "ok", "database": database})
}

// ClassificationInfo is one preset classification with its stored artifact count.
type ClassificationInfo struct {
	Name     string `json:"name"`
	Existing int64  `json:"existing"`
}

// ListClassifications returns the preset list with the artifacts already stored for each.
func (c *Controller) ListClassifications(ctx echo.Context) error {
	names := c.Importer.Classifications()
	out := make([]ClassificationInfo, 0, len(names))
	for _, name := range names {
		n, err := c.Importer.ExistingCount(ctx.Request().Context(), name)
		if err != nil {
			return c.HandleError(ctx, err, "Failed to count stored artifacts", statusFor(err))
		}
		out = append(out, ClassificationInfo{Name: name, Existing: n})
	}
	return ctx.JSON(http.StatusOK, out)
}

// ImportRequest is the body of POST /imports.
type ImportRequest struct {
	Classification string `json:"classification"`
	Pages          int    `json:"pages"`
}

// StartImport runs an import synchronously and returns its report.
func (c *Controller) StartImport(ctx echo.Context) error {
	var req ImportRequest
	if err := ctx.Bind(&req); err != nil {
		return c.HandleError(ctx, err, "Invalid request body", http.StatusBadRequest)
	}

	req.Classification = strings.TrimSpace(req.Classification)
	if req.Classification == "" {
		return c.HandleError(ctx, nil, "classification is required", http.StatusBadRequest)
	}
	if req.Pages == 0 && c.Settings != nil {
		req.Pages = c.Settings.Harvard.DefaultPages
	}
	if req.Pages <= 0 {
		return c.HandleError(ctx, nil, "pages must be positive", http.StatusBadRequest)
	}

	report, err := c.Importer.Import(ctx.Request().Context(), req.Classification, req.Pages)
	if err != nil {
		return c.handleErrorWithDetails(ctx, err, "Import failed", statusFor(err), report)
	}
	return ctx.JSON(http.StatusOK, report)
}

// BrowseTable lists rows of one destination table for a classification.
func (c *Controller) BrowseTable(ctx echo.Context) error {
	limit := 0
	if raw := ctx.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return c.HandleError(ctx, err, "limit must be a non-negative integer", http.StatusBadRequest)
		}
		limit = n
	}

	rs, err := c.DS.Browse(ctx.Request().Context(), ctx.Param("table"), ctx.QueryParam("classification"), limit)
	if err != nil {
		return c.HandleError(ctx, err, "Failed to browse table", statusFor(err))
	}
	return ctx.JSON(http.StatusOK, rs)
}

// ListQueries returns the canned query catalog.
func (c *Controller) ListQueries(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, c.Catalog.All())
}

// CannedQueryResponse pairs a catalog entry with its result.
type CannedQueryResponse struct {
	Query  queries.Query        `json:"query"`
	Result *datastore.ResultSet `json:"result"`
}

// RunCannedQuery runs a catalog query; its parameters come from the query string.
func (c *Controller) RunCannedQuery(ctx echo.Context) error {
	q, err := c.Catalog.Lookup(ctx.Param("name"))
	if err != nil {
		return c.HandleError(ctx, err, "Unknown query", statusFor(err))
	}

	args := make(map[string]string)
	for name, values := range ctx.QueryParams() {
		if len(values) > 0 {
			args[name] = values[0]
		}
	}

	sql, params, err := q.Bind(args, c.DS.Dialect())
	if err != nil {
		return c.HandleError(ctx, err, "Invalid query parameters", statusFor(err))
	}

	rs, err := c.DS.RunCannedQuery(ctx.Request().Context(), sql, params...)
	if err != nil {
		return c.HandleError(ctx, err, "Query failed", statusFor(err))
	}
	return ctx.JSON(http.StatusOK, CannedQueryResponse{Query: q, Result: rs})
}

// ParamOptions lists the valid choices for one parameter of a catalog query.
func (c *Controller) ParamOptions(ctx echo.Context) error {
	q, err := c.Catalog.Lookup(ctx.Param("name"))
	if err != nil {
		return c.HandleError(ctx, err, "Unknown query", statusFor(err))
	}

	for _, p := range q.Params {
		if p.Name != ctx.Param("param") {
			continue
		}
		if p.OptionsQuery == "" {
			return ctx.JSON(http.StatusOK, &datastore.ResultSet{Columns: []string{}, Rows: [][]any{}})
		}
		rs, err := c.DS.RunCannedQuery(ctx.Request().Context(), p.OptionsQuery)
		if err != nil {
			return c.HandleError(ctx, err, "Failed to list options", statusFor(err))
		}
		return ctx.JSON(http.StatusOK, rs)
	}
	return c.HandleError(ctx, nil, "Unknown parameter", http.StatusNotFound)
}

// QueryRequest is the body of POST /query.
type QueryRequest struct {
	SQL    string `json:"sql"`
	Params []any  `json:"params"`
}

// RunQuery passes a caller-supplied statement through the read-only gateway.
func (c *Controller) RunQuery(ctx echo.Context) error {
	var req QueryRequest
	if err := ctx.Bind(&req); err != nil {
		return c.HandleError(ctx, err, "Invalid request body", http.StatusBadRequest)
	}
	if strings.TrimSpace(req.SQL) == "" {
		return c.HandleError(ctx, nil, "sql is required", http.StatusBadRequest)
	}

	rs, err := c.DS.RunQuery(ctx.Request().Context(), req.SQL, req.Params...)
	if err != nil {
		return c.HandleError(ctx, err, "Query failed", statusFor(err))
	}
	return ctx.JSON(http.StatusOK, rs)
}
