package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"docshelf/config"
	"docshelf/database"
	"docshelf/repositories"
	"docshelf/services"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type testServer struct {
	t      *testing.T
	router *gin.Engine
	fs     afero.Fs
	redis  *miniredis.Miniredis
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := config.Default()
	cfg.Stats.CacheTTLSeconds = 60
	previousCfg := config.AppConfig
	config.AppConfig = cfg
	t.Cleanup(func() { config.AppConfig = previousCfg })

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := database.Open(&config.DatabaseConfig{
		Driver: "sqlite",
		DSN:    fmt.Sprintf("file:handlers_%s?mode=memory&cache=shared", name),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	fsys := afero.NewMemMapFs()
	repos := repositories.NewGormRepositories(db, client).BuildContainer()
	container := services.NewContainer(repos, services.NewFileStore(fsys))

	previousServices := appServices
	SetServices(container)
	t.Cleanup(func() { SetServices(previousServices) })

	_, err = container.User.EnsureDefaultUser(context.Background(), cfg.Auth.DefaultUserID)
	require.NoError(t, err)

	return &testServer{t: t, router: NewRouter(cfg), fs: fsys, redis: mr}
}

func (s *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *testServer) json(method, path string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	s.t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(s.t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := s.do(req)

	var env envelope
	require.NoError(s.t, json.Unmarshal(w.Body.Bytes(), &env), "body: %s", w.Body.String())
	return w, env
}

func (s *testServer) upload(path, field string, files map[string]string, fields map[string]string) (*httptest.ResponseRecorder, envelope) {
	s.t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for name, content := range files {
		part, err := mw.CreateFormFile(field, name)
		require.NoError(s.t, err)
		_, err = part.Write([]byte(content))
		require.NoError(s.t, err)
	}
	for k, v := range fields {
		require.NoError(s.t, mw.WriteField(k, v))
	}
	require.NoError(s.t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := s.do(req)

	var env envelope
	require.NoError(s.t, json.Unmarshal(w.Body.Bytes(), &env), "body: %s", w.Body.String())
	return w, env
}

func decodeData(t *testing.T, env envelope, out interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(env.Data, out), "data: %s", env.Data)
}

type folderJSON struct {
	ID       uint   `json:"id"`
	Name     string `json:"name"`
	ParentID *uint  `json:"parent_id"`
	Path     string `json:"path"`
}

type documentJSON struct {
	ID              uint     `json:"id"`
	Name            string   `json:"name"`
	FileType        string   `json:"file_type"`
	FileSize        int64    `json:"file_size"`
	Tags            []string `json:"tags"`
	Version         int      `json:"version"`
	IsLatestVersion bool     `json:"is_latest_version"`
	LineageID       uint     `json:"lineage_id"`
	FolderID        *uint    `json:"folder_id"`
}

func TestHealthCheck(t *testing.T) {
	s := newTestServer(t)
	w, env := s.json(http.MethodGet, "/api/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0, env.Code)

	var report services.HealthReport
	decodeData(t, env, &report)
	assert.Equal(t, map[string]string{"database": "ok", "redis": "ok"}, report.Components)

	s.redis.Close()
	w, env = s.json(http.MethodGet, "/api/health", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	decodeData(t, env, &report)
	assert.Equal(t, "degraded", report.Status)
	assert.Equal(t, "down", report.Components["redis"])
}

func TestCurrentUserEndpoint(t *testing.T) {
	s := newTestServer(t)
	w, env := s.json(http.MethodGet, "/api/users/me", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var user struct {
		ID   uint   `json:"id"`
		Role string `json:"role"`
	}
	decodeData(t, env, &user)
	assert.Equal(t, uint(1), user.ID)
	assert.Equal(t, "admin", user.Role)

	w, _ = s.json(http.MethodGet, "/api/users/99", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestFolderEndpoints(t *testing.T) {
	s := newTestServer(t)

	w, env := s.json(http.MethodPost, "/api/folders", map[string]interface{}{"name": "Accounting"})
	require.Equal(t, http.StatusCreated, w.Code, env.Message)
	var root folderJSON
	decodeData(t, env, &root)
	assert.Equal(t, "Accounting", root.Path)

	w, env = s.json(http.MethodPost, "/api/folders", map[string]interface{}{"name": "Invoices", "parentId": root.ID})
	require.Equal(t, http.StatusCreated, w.Code, env.Message)
	var child folderJSON
	decodeData(t, env, &child)
	assert.Equal(t, "Accounting/Invoices", child.Path)

	w, _ = s.json(http.MethodPost, "/api/folders", map[string]interface{}{"name": "Invoices", "parentId": root.ID})
	assert.Equal(t, http.StatusConflict, w.Code)

	w, env = s.json(http.MethodPost, "/api/folders", map[string]interface{}{"name": ""})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, string(env.Data), "name")

	_, env = s.json(http.MethodGet, "/api/folders/root/children", nil)
	var roots []folderJSON
	decodeData(t, env, &roots)
	require.Len(t, roots, 1)
	assert.Equal(t, root.ID, roots[0].ID)

	_, env = s.json(http.MethodGet, fmt.Sprintf("/api/folders/%d/children", root.ID), nil)
	var children []folderJSON
	decodeData(t, env, &children)
	require.Len(t, children, 1)

	w, _ = s.json(http.MethodPut, fmt.Sprintf("/api/folders/%d", root.ID), map[string]interface{}{"name": "Finance"})
	require.Equal(t, http.StatusOK, w.Code)
	_, env = s.json(http.MethodGet, fmt.Sprintf("/api/folders/%d", child.ID), nil)
	decodeData(t, env, &child)
	assert.Equal(t, "Finance/Invoices", child.Path)

	w, _ = s.json(http.MethodPut, fmt.Sprintf("/api/folders/%d", root.ID), map[string]interface{}{"parentId": child.ID})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	_, env = s.json(http.MethodGet, "/api/folders", nil)
	var all []folderJSON
	decodeData(t, env, &all)
	assert.Len(t, all, 2)

	w, _ = s.json(http.MethodDelete, fmt.Sprintf("/api/folders/%d", root.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	w, _ = s.json(http.MethodGet, fmt.Sprintf("/api/folders/%d", child.ID), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = s.json(http.MethodGet, "/api/folders/abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDocumentLifecycle(t *testing.T) {
	s := newTestServer(t)

	w, env := s.upload("/api/documents/upload", "files[]", map[string]string{"a.txt": "0123456789"}, map[string]string{"tags": "x,y"})
	require.Equal(t, http.StatusCreated, w.Code, env.Message)
	var uploaded []documentJSON
	decodeData(t, env, &uploaded)
	require.Len(t, uploaded, 1)
	v1 := uploaded[0]
	assert.Equal(t, "txt", v1.FileType)
	assert.Equal(t, int64(10), v1.FileSize)
	assert.Equal(t, []string{"x", "y"}, v1.Tags)
	assert.Equal(t, 1, v1.Version)
	assert.True(t, v1.IsLatestVersion)

	w, env = s.upload(fmt.Sprintf("/api/documents/%d/versions", v1.ID), "file", map[string]string{"a-v2.txt": "second version"}, nil)
	require.Equal(t, http.StatusCreated, w.Code, env.Message)
	var v2 documentJSON
	decodeData(t, env, &v2)
	assert.Equal(t, 2, v2.Version)
	assert.Equal(t, v1.ID, v2.LineageID)
	assert.Equal(t, []string{"x", "y"}, v2.Tags)

	_, env = s.json(http.MethodGet, fmt.Sprintf("/api/documents/%d/versions", v1.ID), nil)
	var versions []documentJSON
	decodeData(t, env, &versions)
	require.Len(t, versions, 2)
	assert.Equal(t, v1.ID, versions[0].ID)
	assert.Equal(t, v2.ID, versions[1].ID)

	_, env = s.json(http.MethodGet, "/api/documents", nil)
	var listed []documentJSON
	decodeData(t, env, &listed)
	require.Len(t, listed, 1)
	assert.Equal(t, v2.ID, listed[0].ID)

	_, env = s.json(http.MethodGet, "/api/search?q=a.txt&fileType=.TXT&tags=x", nil)
	var found []documentJSON
	decodeData(t, env, &found)
	require.Len(t, found, 1)
	assert.Equal(t, v2.ID, found[0].ID)

	_, env = s.json(http.MethodGet, "/api/search?q=%25", nil)
	decodeData(t, env, &found)
	assert.Empty(t, found)

	w, _ = s.json(http.MethodGet, "/api/search?status=archived", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w, _ = s.json(http.MethodGet, "/api/search?dateFrom=yesterday", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/documents/%d/download", v2.ID), nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "second version", w.Body.String())
	assert.Contains(t, w.Header().Get("Content-Disposition"), "a-v2.txt")

	w, env = s.json(http.MethodPut, fmt.Sprintf("/api/documents/%d", v2.ID), map[string]interface{}{"status": "pending", "description": "q3"})
	require.Equal(t, http.StatusOK, w.Code, env.Message)

	_, env = s.json(http.MethodGet, "/api/stats", nil)
	var stats repositories.DocumentStats
	decodeData(t, env, &stats)
	assert.Equal(t, repositories.DocumentStats{TotalDocuments: 1, PendingDocuments: 1, TotalStorage: int64(len("second version"))}, stats)
	assert.True(t, s.redis.Exists("stats:documents"))
	var rawStats map[string]int64
	decodeData(t, env, &rawStats)
	assert.Equal(t, map[string]int64{
		"totalDocuments":    1,
		"expiringDocuments": 0,
		"pendingDocuments":  1,
		"totalStorage":      int64(len("second version")),
	}, rawStats)

	_, env = s.json(http.MethodGet, "/api/activity?limit=10", nil)
	var activity []struct {
		Action string `json:"action"`
	}
	decodeData(t, env, &activity)
	require.NotEmpty(t, activity)
	assert.Equal(t, "update_document", activity[0].Action)

	w, _ = s.json(http.MethodGet, "/api/activity?limit=-1", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = s.json(http.MethodDelete, fmt.Sprintf("/api/documents/%d", v1.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, s.redis.Exists("stats:documents"))
	w, _ = s.json(http.MethodGet, fmt.Sprintf("/api/documents/%d", v2.ID), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	_, env = s.json(http.MethodGet, "/api/stats", nil)
	decodeData(t, env, &stats)
	assert.Equal(t, repositories.DocumentStats{}, stats)
}

func TestUploadRequiresFiles(t *testing.T) {
	s := newTestServer(t)

	w, _ := s.upload("/api/documents/upload", "other", map[string]string{"a.txt": "x"}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = s.upload("/api/documents/upload", "files", map[string]string{"a.txt": "x"}, map[string]string{"folderId": "999"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestShareLinkFlow(t *testing.T) {
	s := newTestServer(t)

	_, env := s.upload("/api/documents/upload", "files", map[string]string{"report.txt": "quarterly"}, nil)
	var docs []documentJSON
	decodeData(t, env, &docs)
	require.Len(t, docs, 1)

	w, env := s.json(http.MethodPost, fmt.Sprintf("/api/documents/%d/share", docs[0].ID), map[string]interface{}{"expiresIn": 24, "maxViews": 1})
	require.Equal(t, http.StatusCreated, w.Code, env.Message)
	var link struct {
		Share struct {
			ID         uint   `json:"id"`
			ShareToken string `json:"share_token"`
		} `json:"share"`
		URL string `json:"url"`
	}
	decodeData(t, env, &link)
	require.NotEmpty(t, link.Share.ShareToken)
	assert.True(t, strings.HasSuffix(link.URL, "/api/shares/"+link.Share.ShareToken))

	w, _ = s.json(http.MethodGet, "/api/shares/"+link.Share.ShareToken, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(httptest.NewRequest(http.MethodGet, "/api/shares/"+link.Share.ShareToken+"/download", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "quarterly", w.Body.String())

	w = s.do(httptest.NewRequest(http.MethodGet, "/api/shares/"+link.Share.ShareToken+"/download", nil))
	assert.Equal(t, http.StatusGone, w.Code)

	_, env = s.json(http.MethodGet, fmt.Sprintf("/api/documents/%d/shares", docs[0].ID), nil)
	var links []json.RawMessage
	decodeData(t, env, &links)
	assert.Len(t, links, 1)

	w, _ = s.json(http.MethodDelete, fmt.Sprintf("/api/shares/%d", link.Share.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	w, _ = s.json(http.MethodGet, "/api/shares/"+link.Share.ShareToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = s.json(http.MethodPost, fmt.Sprintf("/api/documents/%d/share", docs[0].ID), nil)
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestFavoritesAndPermissions(t *testing.T) {
	s := newTestServer(t)

	_, env := s.upload("/api/documents/upload", "files", map[string]string{"memo.txt": "hi"}, nil)
	var docs []documentJSON
	decodeData(t, env, &docs)
	require.Len(t, docs, 1)
	docID := docs[0].ID

	_, env = s.json(http.MethodPost, fmt.Sprintf("/api/documents/%d/favorite", docID), nil)
	var toggled struct {
		Favorite bool `json:"favorite"`
	}
	decodeData(t, env, &toggled)
	assert.True(t, toggled.Favorite)

	_, env = s.json(http.MethodGet, "/api/favorites", nil)
	var favorites []documentJSON
	decodeData(t, env, &favorites)
	require.Len(t, favorites, 1)
	assert.Equal(t, docID, favorites[0].ID)

	w, env := s.json(http.MethodPost, fmt.Sprintf("/api/documents/%d/permissions", docID), map[string]interface{}{
		"userId": 1, "userGroup": "finance", "permissions": []string{"read"},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, string(env.Data), "userGroup")

	w, env = s.json(http.MethodPost, fmt.Sprintf("/api/documents/%d/permissions", docID), map[string]interface{}{
		"userGroup": "finance", "permissions": []string{"read", "share"},
	})
	require.Equal(t, http.StatusCreated, w.Code, env.Message)
	var perm struct {
		ID          uint     `json:"id"`
		Permissions []string `json:"permissions"`
	}
	decodeData(t, env, &perm)
	assert.Equal(t, []string{"read", "share"}, perm.Permissions)

	_, env = s.json(http.MethodGet, fmt.Sprintf("/api/documents/%d/permissions", docID), nil)
	var perms []json.RawMessage
	decodeData(t, env, &perms)
	assert.Len(t, perms, 1)

	w, _ = s.json(http.MethodDelete, fmt.Sprintf("/api/documents/%d/permissions/%d", docID, perm.ID), nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestActingUserHeader(t *testing.T) {
	s := newTestServer(t)

	w, _ := s.json(http.MethodPost, "/api/users", map[string]interface{}{"username": "carol", "email": "carol@example.com"})
	require.Equal(t, http.StatusCreated, w.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/folders", strings.NewReader(`{"name":"Carol"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", "2")
	w = s.do(req)
	require.Equal(t, http.StatusCreated, w.Code)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	var folder struct {
		CreatedBy uint `json:"created_by"`
	}
	decodeData(t, env, &folder)
	assert.Equal(t, uint(2), folder.CreatedBy)
}

func TestMovedLineageStaysWholeAcrossFolderDeletes(t *testing.T) {
	s := newTestServer(t)

	var a, b folderJSON
	_, env := s.json(http.MethodPost, "/api/folders", map[string]interface{}{"name": "A"})
	decodeData(t, env, &a)
	_, env = s.json(http.MethodPost, "/api/folders", map[string]interface{}{"name": "B"})
	decodeData(t, env, &b)

	w, env := s.upload("/api/documents/upload", "files", map[string]string{"a.txt": "v1"}, map[string]string{"folderId": fmt.Sprint(a.ID)})
	require.Equal(t, http.StatusCreated, w.Code, env.Message)
	var uploaded []documentJSON
	decodeData(t, env, &uploaded)
	v1 := uploaded[0]

	w, env = s.upload(fmt.Sprintf("/api/documents/%d/versions", v1.ID), "file", map[string]string{"a.txt": "v2"}, nil)
	require.Equal(t, http.StatusCreated, w.Code, env.Message)
	var v2 documentJSON
	decodeData(t, env, &v2)

	w, env = s.json(http.MethodPut, fmt.Sprintf("/api/documents/%d", v2.ID), map[string]interface{}{"folderId": b.ID})
	require.Equal(t, http.StatusOK, w.Code, env.Message)

	var versions []documentJSON
	_, env = s.json(http.MethodGet, fmt.Sprintf("/api/documents/%d/versions", v1.ID), nil)
	decodeData(t, env, &versions)
	require.Len(t, versions, 2)
	for _, v := range versions {
		require.NotNil(t, v.FolderID)
		assert.Equal(t, b.ID, *v.FolderID, "version %d", v.Version)
	}

	// The old folder no longer holds any version, so deleting it leaves the chain intact.
	w, _ = s.json(http.MethodDelete, fmt.Sprintf("/api/folders/%d", a.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	_, env = s.json(http.MethodGet, fmt.Sprintf("/api/documents/%d/versions", v1.ID), nil)
	decodeData(t, env, &versions)
	require.Len(t, versions, 2)
	latest := 0
	for _, v := range versions {
		if v.IsLatestVersion {
			latest++
		}
	}
	assert.Equal(t, 1, latest)

	w, env = s.upload(fmt.Sprintf("/api/documents/%d/versions", v1.ID), "file", map[string]string{"a.txt": "v3"}, nil)
	require.Equal(t, http.StatusCreated, w.Code, env.Message)

	w, _ = s.json(http.MethodDelete, fmt.Sprintf("/api/folders/%d", b.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)

	w, _ = s.json(http.MethodGet, fmt.Sprintf("/api/documents/%d/versions", v1.ID), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	var listed []documentJSON
	_, env = s.json(http.MethodGet, "/api/documents", nil)
	decodeData(t, env, &listed)
	assert.Empty(t, listed)
}
