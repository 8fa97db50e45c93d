package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/patchbay-ui/patchbay/internal/project"
	"github.com/patchbay-ui/patchbay/internal/transform"
)

func newTestServer(t *testing.T) (*echo.Echo, project.Store) {
	t.Helper()
	store := project.NewMemoryStore()
	handler := NewHandler(store, transform.Config{})
	return SetupRouter(handler), store
}

func doJSON(t *testing.T, e *echo.Echo, method string, target string, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func seedProject(t *testing.T, store project.Store, files map[string]string) *project.Project {
	t.Helper()
	p := project.New("seeded", files)
	require.NoError(t, store.Create(context.Background(), p))
	return p
}

func TestCreateProject(t *testing.T) {
	e, _ := newTestServer(t)

	rec := doJSON(t, e, http.MethodPost, "/api/projects",
		`{"name": "demo", "files": {"/App.jsx": "export default null;"}}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var p project.Project
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))
	require.NotEmpty(t, p.ID)
	require.Equal(t, "demo", p.Name)
}

func TestCreateProjectRequiresName(t *testing.T) {
	e, _ := newTestServer(t)

	rec := doJSON(t, e, http.MethodPost, "/api/projects", `{"files": {}}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateProjectRejectsMalformedPaths(t *testing.T) {
	e, _ := newTestServer(t)

	rec := doJSON(t, e, http.MethodPost, "/api/projects",
		`{"name": "demo", "files": {"relative.js": "x"}}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetProjectNotFound(t *testing.T) {
	e, _ := newTestServer(t)

	rec := doJSON(t, e, http.MethodGet, "/api/projects/nope", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSaveFilesRoundTrip(t *testing.T) {
	e, store := newTestServer(t)
	p := seedProject(t, store, map[string]string{"/App.jsx": "v1"})

	rec := doJSON(t, e, http.MethodPut, "/api/projects/"+p.ID+"/files",
		`{"files": {"/App.jsx": "v2"}}`)
	require.Equal(t, http.StatusOK, rec.Code)

	got, err := store.Get(context.Background(), p.ID)
	require.NoError(t, err)
	require.Equal(t, "v2", got.Files["/App.jsx"])
}

func TestToolUseEditsAndPersists(t *testing.T) {
	e, store := newTestServer(t)
	p := seedProject(t, store, map[string]string{"/App.jsx": "const x = 1;"})

	body := `{"tool": "str_replace_based_edit_tool", "input": {"command": "str_replace", "path": "/App.jsx", "old_str": "x = 1", "new_str": "x = 2"}}`
	rec := doJSON(t, e, http.MethodPost, "/api/projects/"+p.ID+"/tools", body)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp ToolUseResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.False(t, resp.IsError)

	got, err := store.Get(context.Background(), p.ID)
	require.NoError(t, err)
	require.Equal(t, "const x = 2;", got.Files["/App.jsx"])
}

func TestToolUseInputErrorDoesNotPersist(t *testing.T) {
	e, store := newTestServer(t)
	p := seedProject(t, store, map[string]string{"/App.jsx": "dup dup"})

	body := `{"tool": "str_replace_based_edit_tool", "input": {"command": "str_replace", "path": "/App.jsx", "old_str": "dup", "new_str": "x"}}`
	rec := doJSON(t, e, http.MethodPost, "/api/projects/"+p.ID+"/tools", body)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp ToolUseResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.True(t, resp.IsError)
	require.Contains(t, resp.Result, "must be unique")

	got, err := store.Get(context.Background(), p.ID)
	require.NoError(t, err)
	require.Equal(t, "dup dup", got.Files["/App.jsx"])
}

func TestPreviewTransformsProject(t *testing.T) {
	e, store := newTestServer(t)
	p := seedProject(t, store, map[string]string{
		"/App.jsx":                "import Counter from \"./components/Counter\";\nexport default null;\n",
		"/components/Counter.jsx": "export default null;\n",
	})

	rec := doJSON(t, e, http.MethodGet, "/api/projects/"+p.ID+"/preview", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var result transform.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	require.Empty(t, result.Diagnostics)
	require.Equal(t, fmt.Sprintf("/preview/%s/modules/App.jsx", p.ID), result.EntryAddress)
	require.Contains(t, result.ImportMap, "/components/Counter.jsx")
}

func TestPreviewEntryNotFound(t *testing.T) {
	e, store := newTestServer(t)
	p := seedProject(t, store, map[string]string{"/other.js": "export {};"})

	rec := doJSON(t, e, http.MethodGet, "/api/projects/"+p.ID+"/preview", "")
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestImportMapEndpoint(t *testing.T) {
	e, store := newTestServer(t)
	p := seedProject(t, store, map[string]string{"/App.jsx": "import React from \"react\";\nexport default null;\n"})

	rec := doJSON(t, e, http.MethodGet, "/preview/"+p.ID+"/importmap.json", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var payload struct {
		Imports map[string]string `json:"imports"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	require.Equal(t, "https://esm.sh/react", payload.Imports["react"])
}

func TestModuleEndpointServesRewrittenCode(t *testing.T) {
	e, store := newTestServer(t)
	p := seedProject(t, store, map[string]string{"/App.jsx": "export default null;\n"})

	rec := doJSON(t, e, http.MethodGet, "/preview/"+p.ID+"/modules/App.jsx", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Header().Get(echo.HeaderContentType), "javascript")
	require.Equal(t, "export default null;\n", rec.Body.String())
}

func TestModuleEndpointUnknownAddress(t *testing.T) {
	e, store := newTestServer(t)
	p := seedProject(t, store, map[string]string{"/App.jsx": "export default null;\n"})

	rec := doJSON(t, e, http.MethodGet, "/preview/"+p.ID+"/modules/Nope.jsx", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStylesEndpoint(t *testing.T) {
	e, store := newTestServer(t)
	p := seedProject(t, store, map[string]string{
		"/App.jsx":  "import \"./main.css\";\nexport default null;\n",
		"/main.css": "body { margin: 0; }",
	})

	rec := doJSON(t, e, http.MethodGet, "/preview/"+p.ID+"/styles.css", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Header().Get(echo.HeaderContentType), "text/css")
	require.Contains(t, rec.Body.String(), "body { margin: 0; }")
}

func TestDeleteProject(t *testing.T) {
	e, store := newTestServer(t)
	p := seedProject(t, store, nil)

	rec := doJSON(t, e, http.MethodDelete, "/api/projects/"+p.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)

	_, err := store.Get(context.Background(), p.ID)
	require.ErrorIs(t, err, project.ErrProjectNotFound)
}

func TestHealth(t *testing.T) {
	e, _ := newTestServer(t)

	rec := doJSON(t, e, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "healthy")
}
