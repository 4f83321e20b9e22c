package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shorts/internal/config"
	"shorts/internal/engine"
	"shorts/internal/models"
	"shorts/internal/storage"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

type fakeOpener struct {
	mu     sync.Mutex
	opened []string
	err    error
}

func (f *fakeOpener) Open(dir string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.opened = append(f.opened, dir)
	return nil
}

type testEnv struct {
	server *Server
	root   string
	opener *fakeOpener
}

func newTestEnv(t *testing.T, mutate func(*config.Config)) *testEnv {
	t.Helper()
	root := t.TempDir()
	cfg := config.Default()
	cfg.Media.Root = root
	cfg.Media.DefaultCategories = []string{"여행", "음식"}
	if mutate != nil {
		mutate(&cfg)
	}
	store, err := storage.NewFileSystemProvider(root)
	require.NoError(t, err)
	organizer, err := engine.NewOrganizer(store, &cfg)
	require.NoError(t, err)
	require.NoError(t, organizer.Initialize())

	opener := &fakeOpener{}
	return &testEnv{
		server: NewServer(organizer, &cfg, opener),
		root:   root,
		opener: opener,
	}
}

func (e *testEnv) do(t *testing.T, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.server.Handler().ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func (e *testEnv) write(t *testing.T, rel, content string) {
	t.Helper()
	p := filepath.Join(e.root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
}

func categoryURL(name, suffix string) string {
	return "/api/categories/" + url.PathEscape(name) + suffix
}

func TestMoveFileScenario(t *testing.T) {
	env := newTestEnv(t, nil)
	env.write(t, "다운로드/clip.mp4", "video-bytes")

	w := env.do(t, http.MethodGet, "/api/downloads", nil)
	require.Equal(t, http.StatusOK, w.Code)
	downloads := decode[[]models.MediaFile](t, w)
	require.Len(t, downloads, 1)
	assert.Equal(t, "clip.mp4", downloads[0].Name)
	assert.Equal(t, models.KindVideo, downloads[0].Type)

	w = env.do(t, http.MethodPost, "/api/move-file", map[string]string{"fileName": "clip.mp4", "category": "여행"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	msg := decode[MessageResponse](t, w)
	assert.True(t, msg.Success)
	assert.Equal(t, "파일이 '여행' 카테고리로 이동됨", msg.Message)

	w = env.do(t, http.MethodGet, "/api/downloads", nil)
	assert.Empty(t, decode[[]models.MediaFile](t, w))

	w = env.do(t, http.MethodGet, categoryURL("여행", "/files"), nil)
	require.Equal(t, http.StatusOK, w.Code)
	files := decode[[]models.MediaFile](t, w)
	require.Len(t, files, 1)
	assert.Equal(t, "clip.mp4", files[0].Name)

	w = env.do(t, http.MethodGet, "/api/categories", nil)
	categories := decode[[]models.Category](t, w)
	require.Len(t, categories, 2)
	assert.Equal(t, "여행", categories[0].Name)
	assert.Equal(t, 1, categories[0].FileCount)

	// The listed path is servable.
	w = env.do(t, http.MethodGet, files[0].Path, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "video-bytes", w.Body.String())
}

func TestCategoryLifecycle(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.do(t, http.MethodPost, "/api/categories", map[string]string{"name": "운동"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "카테고리 '운동' 생성됨", decode[MessageResponse](t, w).Message)

	w = env.do(t, http.MethodPost, "/api/categories", map[string]string{"name": "운동"})
	require.Equal(t, http.StatusOK, w.Code)

	env.write(t, "카테고리/운동/run.mp4", "x")
	env.write(t, "다운로드/run.mp4", "y")

	w = env.do(t, http.MethodDelete, categoryURL("운동", ""), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "카테고리 '운동' 삭제됨", decode[MessageResponse](t, w).Message)

	_, err := os.Stat(filepath.Join(env.root, "카테고리", "운동"))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(env.root, "다운로드", "run (1).mp4"))
	assert.NoError(t, err)
}

func TestErrorStatusCodes(t *testing.T) {
	env := newTestEnv(t, nil)
	env.write(t, "다운로드/dup.mp4", "new")
	env.write(t, "카테고리/여행/dup.mp4", "old")

	tests := []struct {
		name   string
		method string
		target string
		body   any
		status int
	}{
		{"missing body field", http.MethodPost, "/api/categories", map[string]string{}, http.StatusBadRequest},
		{"traversal name", http.MethodPost, "/api/categories", map[string]string{"name": "../x"}, http.StatusBadRequest},
		{"hidden name", http.MethodPost, "/api/categories", map[string]string{"name": ".git"}, http.StatusBadRequest},
		{"delete missing", http.MethodDelete, categoryURL("없음", ""), nil, http.StatusNotFound},
		{"files of missing", http.MethodGet, categoryURL("없음", "/files"), nil, http.StatusNotFound},
		{"move missing file", http.MethodPost, "/api/move-file", map[string]string{"fileName": "ghost.mp4", "category": "여행"}, http.StatusNotFound},
		{"move escaping file", http.MethodPost, "/api/move-file", map[string]string{"fileName": "../ghost.mp4", "category": "여행"}, http.StatusBadRequest},
		{"move onto existing", http.MethodPost, "/api/move-file", map[string]string{"fileName": "dup.mp4", "category": "여행"}, http.StatusConflict},
		{"open missing category", http.MethodPost, "/api/open-category-folder", map[string]string{"category": "없음"}, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(t, tt.method, tt.target, tt.body)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
			resp := decode[ErrorResponse](t, w)
			assert.False(t, resp.Success)
			assert.NotEmpty(t, resp.Error)
		})
	}

	data, err := os.ReadFile(filepath.Join(env.root, "카테고리", "여행", "dup.mp4"))
	require.NoError(t, err)
	assert.Equal(t, "old", string(data))
}

func TestFolderEndpoints(t *testing.T) {
	env := newTestEnv(t, nil)
	require.NoError(t, os.RemoveAll(filepath.Join(env.root, "다운로드")))

	w := env.do(t, http.MethodGet, "/api/folder-status", nil)
	require.Equal(t, http.StatusOK, w.Code)
	status := decode[models.FolderStatus](t, w)
	assert.True(t, status.BaseFolder)
	assert.False(t, status.DownloadFolder)
	assert.True(t, status.CategoriesFolder)
	assert.Equal(t, []string{"여행", "음식"}, status.Categories)

	w = env.do(t, http.MethodPost, "/api/create-download-folder", nil)
	require.Equal(t, http.StatusOK, w.Code)
	folder := decode[FolderResponse](t, w)
	assert.True(t, folder.Success)
	assert.Equal(t, filepath.Join(env.root, "다운로드"), folder.Path)

	w = env.do(t, http.MethodGet, "/api/folder-status", nil)
	assert.True(t, decode[models.FolderStatus](t, w).DownloadFolder)
}

func TestOpenFolders(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.do(t, http.MethodPost, "/api/open-media-folder", nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = env.do(t, http.MethodPost, "/api/open-category-folder", map[string]string{"category": "음식"})
	require.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, []string{env.root, filepath.Join(env.root, "카테고리", "음식")}, env.opener.opened)

	env.opener.err = ErrOpenUnsupported
	w = env.do(t, http.MethodPost, "/api/open-media-folder", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAutoSortEndpoints(t *testing.T) {
	env := newTestEnv(t, func(cfg *config.Config) {
		cfg.AutoSort.Rules = []config.Rule{{Keyword: "food", Category: "음식"}}
	})
	env.write(t, "다운로드/street-food.mp4", "x")
	env.write(t, "다운로드/misc.mp4", "y")

	w := env.do(t, http.MethodGet, "/api/auto-sort/rules", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []config.Rule{{Keyword: "food", Category: "음식"}}, decode[[]config.Rule](t, w))

	w = env.do(t, http.MethodPost, "/api/auto-sort", nil)
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[AutoSortResponse](t, w)
	assert.True(t, resp.Success)
	require.Len(t, resp.Moved, 1)
	assert.Equal(t, "street-food.mp4", resp.Moved[0].FileName)
	assert.Empty(t, resp.Failed)

	_, err := os.Stat(filepath.Join(env.root, "카테고리", "음식", "street-food.mp4"))
	assert.NoError(t, err)
}

func TestHealthMetricsAndCORS(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.do(t, http.MethodGet, "/healthz", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))

	w = env.do(t, http.MethodOptions, "/api/categories", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	env.do(t, http.MethodGet, "/api/categories", nil)
	w = env.do(t, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "shorts_http_requests_total")
}

func TestCORSRestrictedOrigins(t *testing.T) {
	env := newTestEnv(t, func(cfg *config.Config) {
		cfg.Server.AllowedOrigins = []string{"http://localhost:3000"}
	})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()
	env.server.Handler().ServeHTTP(w, req)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("Origin", "http://evil.example")
	w = httptest.NewRecorder()
	env.server.Handler().ServeHTTP(w, req)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestStaticDirServesUnmatchedRoutes(t *testing.T) {
	static := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(static, "index.html"), []byte("<html>ui</html>"), 0o644))
	env := newTestEnv(t, func(cfg *config.Config) {
		cfg.Server.StaticDir = static
	})

	w := env.do(t, http.MethodGet, "/", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ui")
}
