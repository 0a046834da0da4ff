package router

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"assessment-matrix/backend/config"
	"assessment-matrix/backend/internal/api/handler"
	"assessment-matrix/backend/internal/api/validator"
	"assessment-matrix/backend/internal/repository"
	"assessment-matrix/backend/internal/service"
	"assessment-matrix/backend/pkg/database"
	"assessment-matrix/backend/pkg/jwt"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type envelope struct {
	Code int             `json:"code"`
	Data json.RawMessage `json:"data"`
}

// newTestServer 基于临时 SQLite 文件组装完整的路由
func newTestServer(t *testing.T) *gin.Engine {
	t.Helper()
	logger := zap.NewNop()

	hash, err := bcrypt.GenerateFromPassword([]byte("secret123"), bcrypt.MinCost)
	require.NoError(t, err)

	cfg := &config.Config{
		Server:   config.ServerConfig{Port: 3000, BodyLimitBytes: 1 << 20},
		Database: config.DatabaseConfig{Driver: config.DriverSQLite, Path: filepath.Join(t.TempDir(), "matrix.db")},
		Auth: config.AuthConfig{
			JWTSecret:           "test-secret-key-for-unit-testing-2026",
			AccessTokenTTL:      time.Hour,
			TeacherUsername:     "teacher",
			TeacherPasswordHash: string(hash),
		},
		Limits:    config.DefaultLimits(),
		Retention: config.DefaultRetention(),
	}

	db, err := database.NewDB(&cfg.Database, "error", logger)
	require.NoError(t, err)
	sqlDB, _ := db.DB()
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, database.Migrate(db, cfg.Database.Driver, logger))
	require.NoError(t, validator.Setup())

	jwtMgr := jwt.NewManager(&cfg.Auth)
	svc := service.NewService(cfg, repository.NewRepository(db), jwtMgr, nil, logger)
	return Setup(cfg, handler.NewHandler(svc), db, jwtMgr, nil, logger)
}

func call(t *testing.T, r *gin.Engine, method, path, token string, body interface{}) (int, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	_ = json.Unmarshal(w.Body.Bytes(), &env)
	return w.Code, env
}

func login(t *testing.T, r *gin.Engine) string {
	t.Helper()
	code, env := call(t, r, "POST", "/api/v1/auth/login", "", map[string]string{"username": "teacher", "password": "secret123"})
	require.Equal(t, http.StatusOK, code)

	var tok struct {
		AccessToken string `json:"accessToken"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &tok))
	require.NotEmpty(t, tok.AccessToken)
	return tok.AccessToken
}

func TestHealth(t *testing.T) {
	r := newTestServer(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"database":"ok"`)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	r := newTestServer(t)

	code, _ := call(t, r, "GET", "/api/v1/courses", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	code, _ = call(t, r, "POST", "/api/v1/auth/login", "", map[string]string{"username": "teacher", "password": "nope"})
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestGradingFlow(t *testing.T) {
	r := newTestServer(t)
	token := login(t, r)

	code, _ := call(t, r, "POST", "/api/v1/courses", token, map[string]string{"courseName": "Math"})
	require.Equal(t, http.StatusCreated, code)

	for _, name := range []string{"Algebra", "Geometry"} {
		code, _ = call(t, r, "POST", "/api/v1/courses/Math/areas", token, map[string]string{"name": name})
		require.Equal(t, http.StatusCreated, code)
	}

	code, env := call(t, r, "POST", "/api/v1/courses/Math/students", token, map[string]string{"name": "Ann"})
	require.Equal(t, http.StatusCreated, code)
	var student struct {
		ID          string            `json:"id"`
		Assignments []json.RawMessage `json:"assignments"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &student))
	require.Len(t, student.Assignments, 2)
	base := "/api/v1/courses/Math/students/" + student.ID

	code, _ = call(t, r, "POST", base+"/assignments", token, map[string]interface{}{
		"requirements":   []string{"Geometry", "Unknown"},
		"levelColors":    []map[string]string{{"level": "E", "color": "green"}},
		"assignmentName": "Quiz 1",
	})
	require.Equal(t, http.StatusOK, code)

	// A=green 级联填充 E、C
	code, env = call(t, r, "PUT", base+"/grades", token, map[string]interface{}{
		"areaIndex": 1, "level": "A", "gradeColor": "green",
	})
	require.Equal(t, http.StatusOK, code)
	var grade struct {
		Grades  map[string]string `json:"grades"`
		Changed []string          `json:"changed"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &grade))
	assert.Equal(t, map[string]string{"E": "green", "C": "green", "A": "green"}, grade.Grades)
	assert.Equal(t, []string{"E", "C", "A"}, grade.Changed)

	// 非法组合被拒绝
	code, env = call(t, r, "PUT", base+"/grades", token, map[string]interface{}{
		"areaIndex": 1, "level": "C", "gradeColor": "grey",
	})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, 14001, env.Code)

	// 删除 Algebra 后 Geometry 移到位置 0，单元格随之移动
	code, _ = call(t, r, "DELETE", "/api/v1/courses/Math/areas/0", token, nil)
	require.Equal(t, http.StatusOK, code)

	code, env = call(t, r, "GET", base, token, nil)
	require.Equal(t, http.StatusOK, code)
	var detail struct {
		Assignments []struct {
			E      []struct{ Name string } `json:"E"`
			Grades map[string]string       `json:"grades"`
		} `json:"assignments"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &detail))
	require.Len(t, detail.Assignments, 1)
	require.Len(t, detail.Assignments[0].E, 1)
	assert.Equal(t, "Quiz 1", detail.Assignments[0].E[0].Name)
	assert.Equal(t, "green", detail.Assignments[0].Grades["A"])

	code, env = call(t, r, "DELETE", base+"/assignments/0/E/5", token, nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, 13002, env.Code)
}
