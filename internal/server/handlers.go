package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/patchbay-ui/patchbay/internal/editor"
	"github.com/patchbay-ui/patchbay/internal/project"
	"github.com/patchbay-ui/patchbay/internal/telemetry"
	"github.com/patchbay-ui/patchbay/internal/tools"
	"github.com/patchbay-ui/patchbay/internal/transform"
	"github.com/patchbay-ui/patchbay/internal/vfs"
)

// Handler contains the HTTP handlers for the patchbay API
type Handler struct {
	store        project.Store
	registry     *tools.ToolRegistry
	transformCfg transform.Config
}

// NewHandler creates a new handler with the given store. transformCfg's
// ModuleBasePath is overridden per request so module addresses land under the
// project's preview routes
func NewHandler(store project.Store, transformCfg transform.Config) *Handler {
	return &Handler{
		store:        store,
		registry:     tools.NewToolRegistry(),
		transformCfg: transformCfg,
	}
}

// CreateProjectRequest is the body of POST /api/projects
type CreateProjectRequest struct {
	Name  string            `json:"name"`
	Files map[string]string `json:"files,omitempty"`
}

// HandleCreateProject handles POST /api/projects
func (h *Handler) HandleCreateProject(c echo.Context) error {
	var req CreateProjectRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
	}

	// Validate the file mapping by building a tree from it
	if req.Files != nil {
		if _, err := vfs.NewFromMap(req.Files); err != nil {
			return mapError(c, err)
		}
	}

	p := project.New(req.Name, req.Files)
	if err := h.store.Create(c.Request().Context(), p); err != nil {
		return mapError(c, err)
	}
	return c.JSON(http.StatusCreated, p)
}

// HandleListProjects handles GET /api/projects
func (h *Handler) HandleListProjects(c echo.Context) error {
	projects, err := h.store.List(c.Request().Context())
	if err != nil {
		return mapError(c, err)
	}
	if projects == nil {
		projects = []*project.Project{}
	}
	return c.JSON(http.StatusOK, projects)
}

// HandleGetProject handles GET /api/projects/:id
func (h *Handler) HandleGetProject(c echo.Context) error {
	p, err := h.store.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return mapError(c, err)
	}
	return c.JSON(http.StatusOK, p)
}

// HandleDeleteProject handles DELETE /api/projects/:id
func (h *Handler) HandleDeleteProject(c echo.Context) error {
	if err := h.store.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return mapError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "project deleted"})
}

// SaveFilesRequest is the body of PUT /api/projects/:id/files
type SaveFilesRequest struct {
	Files map[string]string `json:"files"`
}

// HandleSaveFiles handles PUT /api/projects/:id/files. The whole file mapping
// is replaced; it must deserialize into a valid tree or the stored state is
// left untouched
func (h *Handler) HandleSaveFiles(c echo.Context) error {
	var req SaveFilesRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	if _, err := vfs.NewFromMap(req.Files); err != nil {
		return mapError(c, err)
	}

	if err := h.store.SaveFiles(c.Request().Context(), c.Param("id"), req.Files); err != nil {
		return mapError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "files saved"})
}

// ToolUseRequest is the body of POST /api/projects/:id/tools: one tool
// invocation from the generation agent's orchestrator
type ToolUseRequest struct {
	Tool  string          `json:"tool"`
	Input json.RawMessage `json:"input"`
}

// ToolUseResponse reports the outcome of a tool invocation
type ToolUseResponse struct {
	Result  string `json:"result"`
	IsError bool   `json:"isError"`
}

// HandleToolUse handles POST /api/projects/:id/tools. The project's tree is
// rebuilt from its stored mapping, the tool is applied, and on success the
// updated mapping is persisted. Input errors are reported in the response body
// so the orchestrator can relay them to the agent
func (h *Handler) HandleToolUse(c echo.Context) error {
	ctx := c.Request().Context()

	var req ToolUseRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if req.Tool == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "tool is required"})
	}

	p, err := h.store.Get(ctx, c.Param("id"))
	if err != nil {
		return mapError(c, err)
	}

	fs, err := vfs.NewFromMap(p.Files)
	if err != nil {
		return mapError(c, err)
	}
	toolCtx := &tools.ToolContext{FS: fs, Editor: editor.New(fs)}

	block := anthropic.ToolUseBlock{
		ID:    uuid.New().String(),
		Name:  req.Tool,
		Input: req.Input,
	}

	// Span names carry the editor command so traces distinguish a view from a
	// str_replace
	var input map[string]interface{}
	_ = json.Unmarshal(req.Input, &input)
	ctx, span := tracer().Start(ctx, telemetry.TransformToolName(req.Tool, input),
		trace.WithAttributes(attribute.String("project.id", p.ID)))
	resultBlock, err := h.registry.ProcessToolUse(ctx, block, toolCtx)
	span.SetAttributes(attribute.Bool("tool.is_error", resultBlock.IsError.Value))
	span.End()
	if err != nil {
		return mapError(c, err)
	}

	resp := ToolUseResponse{IsError: resultBlock.IsError.Value}
	if len(resultBlock.Content) > 0 && resultBlock.Content[0].OfText != nil {
		resp.Result = resultBlock.Content[0].OfText.Text
	}

	// A failed tool call leaves the tree unchanged, so persisting is safe
	// either way; skip the write when nothing could have changed
	if !resp.IsError {
		if err := h.store.SaveFiles(ctx, p.ID, fs.Serialize()); err != nil {
			return mapError(c, err)
		}
	}
	return c.JSON(http.StatusOK, resp)
}

// HandlePreview handles GET /api/projects/:id/preview, returning the complete
// transform result for the preview host
func (h *Handler) HandlePreview(c echo.Context) error {
	result, err := h.transformProject(c)
	if err != nil {
		return mapError(c, err)
	}
	return c.JSON(http.StatusOK, result)
}

// HandleImportMap handles GET /preview/:id/importmap.json in the shape the
// browser's module loader expects
func (h *Handler) HandleImportMap(c echo.Context) error {
	result, err := h.transformProject(c)
	if err != nil {
		return mapError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"imports": result.ImportMap})
}

// HandleStyles handles GET /preview/:id/styles.css
func (h *Handler) HandleStyles(c echo.Context) error {
	result, err := h.transformProject(c)
	if err != nil {
		return mapError(c, err)
	}
	return c.Blob(http.StatusOK, "text/css; charset=utf-8", []byte(result.Styles))
}

// HandleModule handles GET /preview/:id/modules/*, serving one rewritten
// module body by its synthetic address
func (h *Handler) HandleModule(c echo.Context) error {
	result, err := h.transformProject(c)
	if err != nil {
		return mapError(c, err)
	}

	address := h.moduleBasePath(c.Param("id")) + "/" + strings.TrimPrefix(c.Param("*"), "/")
	code, ok := result.Modules[address]
	if !ok {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "module not found"})
	}
	return c.Blob(http.StatusOK, "text/javascript; charset=utf-8", []byte(code))
}

// transformProject loads the project named in the request and runs a transform
// pass over its tree
func (h *Handler) transformProject(c echo.Context) (*transform.Result, error) {
	ctx := c.Request().Context()

	p, err := h.store.Get(ctx, c.Param("id"))
	if err != nil {
		return nil, err
	}
	fs, err := vfs.NewFromMap(p.Files)
	if err != nil {
		return nil, err
	}

	ctx, span := tracer().Start(ctx, "preview.render", trace.WithAttributes(
		attribute.String("project.id", p.ID),
		attribute.String("transform.pass_id", telemetry.NewPassID()),
	))
	defer span.End()

	cfg := h.transformCfg
	cfg.ModuleBasePath = h.moduleBasePath(p.ID)
	return transform.New(cfg).Transform(ctx, fs)
}

func tracer() trace.Tracer {
	return otel.Tracer("github.com/patchbay-ui/patchbay/internal/server")
}

func (h *Handler) moduleBasePath(projectID string) string {
	return fmt.Sprintf("/preview/%s/modules", projectID)
}

// HandleHealth handles GET /health
func (h *Handler) HandleHealth(c echo.Context) error {
	status := "healthy"
	if checker, ok := h.store.(interface {
		HealthCheck(ctx context.Context) error
	}); ok {
		if err := checker.HealthCheck(c.Request().Context()); err != nil {
			status = "degraded"
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"status": status})
}

// mapError translates core-layer errors into appropriate HTTP responses
func mapError(c echo.Context, err error) error {
	var tie tools.ToolInputError
	switch {
	case errors.Is(err, project.ErrProjectNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "project not found"})
	case errors.Is(err, vfs.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
	case errors.Is(err, vfs.ErrInvalidPath), errors.Is(err, vfs.ErrInvalidOperation):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	case errors.Is(err, vfs.ErrConflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
	case errors.Is(err, transform.ErrEntryNotFound), errors.Is(err, transform.ErrEntryTransform):
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": err.Error()})
	case errors.As(err, &tie):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": tie.Error()})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal server error"})
	}
}
