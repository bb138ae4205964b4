package dashboard

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	dashboardDomain "lumen/internal/core/domain/dashboard"
	"lumen/pkg/response"
	"lumen/pkg/ulid"
)

// ExecuteQueryRequest represents the request body for query execution
type ExecuteQueryRequest struct {
	TimeRange      *TimeRangeRequest      `json:"time_range,omitempty"`
	ForceRefresh   bool                   `json:"force_refresh,omitempty"`
	VariableValues map[string]interface{} `json:"variable_values,omitempty"`
}

// TimeRangeRequest represents time range parameters
type TimeRangeRequest struct {
	From     *time.Time `json:"from,omitempty"`
	To       *time.Time `json:"to,omitempty"`
	Relative string     `json:"relative,omitempty"` // "1h", "24h", "7d", "30d"
}

// ExecuteDashboardQueries handles POST /api/v1/projects/:projectId/dashboards/:dashboardId/execute
// @Summary Execute all widget queries for a dashboard
// @Description Execute queries for all widgets in a dashboard and return results
// @Tags Dashboards
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param projectId path string true "Project ID"
// @Param dashboardId path string true "Dashboard ID"
// @Param body body ExecuteQueryRequest false "Query execution parameters"
// @Success 200 {object} response.APIResponse{data=dashboard.DashboardQueryResults} "Query results"
// @Failure 400 {object} response.APIResponse{error=response.APIError} "Invalid parameters"
// @Failure 401 {object} response.APIResponse{error=response.APIError} "Unauthorized"
// @Failure 404 {object} response.APIResponse{error=response.APIError} "Dashboard not found"
// @Failure 500 {object} response.APIResponse{error=response.APIError} "Internal server error"
// @Router /api/v1/projects/{projectId}/dashboards/{dashboardId}/execute [post]
func (h *Handler) ExecuteDashboardQueries(c *gin.Context) {
	projectID, err := ulid.Parse(c.Param("projectId"))
	if err != nil {
		response.ValidationError(c, "invalid project_id", "project_id must be a valid ULID")
		return
	}

	dashboardID, err := ulid.Parse(c.Param("dashboardId"))
	if err != nil {
		response.ValidationError(c, "invalid dashboard_id", "dashboard_id must be a valid ULID")
		return
	}

	var req ExecuteQueryRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		response.ValidationError(c, "invalid request body", err.Error())
		return
	}

	// Convert request to domain type
	execReq := &dashboardDomain.QueryExecutionRequest{
		ProjectID:      projectID,
		DashboardID:    dashboardID,
		ForceRefresh:   req.ForceRefresh,
		VariableValues: req.VariableValues,
	}

	if req.TimeRange != nil {
		execReq.TimeRange = &dashboardDomain.TimeRange{
			From:     req.TimeRange.From,
			To:       req.TimeRange.To,
			Relative: req.TimeRange.Relative,
		}
	}

	results, err := h.queryService.ExecuteDashboardQueries(c.Request.Context(), execReq)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, results)
}

// ExecuteWidgetQuery handles POST /api/v1/projects/:projectId/dashboards/:dashboardId/widgets/:widgetId/execute
// @Summary Execute query for a single widget
// @Description Execute the query for a specific widget and return results
// @Tags Dashboards
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param projectId path string true "Project ID"
// @Param dashboardId path string true "Dashboard ID"
// @Param widgetId path string true "Widget ID"
// @Param body body ExecuteQueryRequest false "Query execution parameters"
// @Success 200 {object} response.APIResponse{data=dashboard.QueryResult} "Query result"
// @Failure 400 {object} response.APIResponse{error=response.APIError} "Invalid parameters"
// @Failure 401 {object} response.APIResponse{error=response.APIError} "Unauthorized"
// @Failure 404 {object} response.APIResponse{error=response.APIError} "Dashboard or widget not found"
// @Failure 500 {object} response.APIResponse{error=response.APIError} "Internal server error"
// @Router /api/v1/projects/{projectId}/dashboards/{dashboardId}/widgets/{widgetId}/execute [post]
func (h *Handler) ExecuteWidgetQuery(c *gin.Context) {
	projectID, err := ulid.Parse(c.Param("projectId"))
	if err != nil {
		response.ValidationError(c, "invalid project_id", "project_id must be a valid ULID")
		return
	}

	dashboardID, err := ulid.Parse(c.Param("dashboardId"))
	if err != nil {
		response.ValidationError(c, "invalid dashboard_id", "dashboard_id must be a valid ULID")
		return
	}

	widgetID := c.Param("widgetId")
	if widgetID == "" {
		response.ValidationError(c, "invalid widget_id", "widget_id is required")
		return
	}

	var req ExecuteQueryRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		response.ValidationError(c, "invalid request body", err.Error())
		return
	}

	// Convert request to domain type
	execReq := &dashboardDomain.QueryExecutionRequest{
		ProjectID:    projectID,
		DashboardID:  dashboardID,
		WidgetID:     &widgetID,
		ForceRefresh: req.ForceRefresh,
	}

	if req.TimeRange != nil {
		execReq.TimeRange = &dashboardDomain.TimeRange{
			From:     req.TimeRange.From,
			To:       req.TimeRange.To,
			Relative: req.TimeRange.Relative,
		}
	}

	results, err := h.queryService.ExecuteDashboardQueries(c.Request.Context(), execReq)
	if err != nil {
		response.Error(c, err)
		return
	}

	// Return just the single widget result
	if result, ok := results.Results[widgetID]; ok {
		response.Success(c, result)
		return
	}

	response.NotFound(c, "widget")
}

// GetViewDefinitions handles GET /api/v1/dashboards/view-definitions
// @Summary Get available view definitions
// @Description Get available views, measures, and dimensions for the query builder
// @Tags Dashboards
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.APIResponse{data=dashboard.ViewDefinitionResponse} "View definitions"
// @Failure 401 {object} response.APIResponse{error=response.APIError} "Unauthorized"
// @Failure 500 {object} response.APIResponse{error=response.APIError} "Internal server error"
// @Router /api/v1/dashboards/view-definitions [get]
func (h *Handler) GetViewDefinitions(c *gin.Context) {
	definitions, err := h.queryService.GetViewDefinitions(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, definitions)
}

// GetVariableOptions handles GET /api/v1/projects/:projectId/dashboards/variable-options
// @Summary Get variable options
// @Description Get distinct values for a dimension to populate variable dropdowns
// @Tags Dashboards
// @Produce json
// @Security BearerAuth
// @Param projectId path string true "Project ID"
// @Param view query string true "View type (traces, spans, scores)"
// @Param dimension query string true "Dimension field name"
// @Param limit query int false "Maximum number of options" default(100)
// @Success 200 {object} response.APIResponse{data=dashboard.VariableOptionsResponse} "Variable options"
// @Failure 400 {object} response.APIResponse{error=response.APIError} "Invalid parameters"
// @Failure 401 {object} response.APIResponse{error=response.APIError} "Unauthorized"
// @Failure 500 {object} response.APIResponse{error=response.APIError} "Internal server error"
// @Router /api/v1/projects/{projectId}/dashboards/variable-options [get]
func (h *Handler) GetVariableOptions(c *gin.Context) {
	projectID, err := ulid.Parse(c.Param("projectId"))
	if err != nil {
		response.ValidationError(c, "invalid project_id", "project_id must be a valid ULID")
		return
	}

	view := c.Query("view")
	if view == "" {
		response.ValidationError(c, "view required", "view query parameter is required")
		return
	}

	dimension := c.Query("dimension")
	if dimension == "" {
		response.ValidationError(c, "dimension required", "dimension query parameter is required")
		return
	}

	// Parse limit with default
	limit := 100
	if limitStr := c.Query("limit"); limitStr != "" {
		if parsedLimit, parseErr := strconv.Atoi(limitStr); parseErr == nil && parsedLimit > 0 {
			limit = parsedLimit
		}
	}

	req := &dashboardDomain.VariableOptionsRequest{
		ProjectID: projectID,
		View:      dashboardDomain.ViewType(view),
		Dimension: dimension,
		Limit:     limit,
	}

	result, err := h.queryService.GetVariableOptions(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}
