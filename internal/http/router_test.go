package http

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/yungbote/omex-backend/internal/data/plans"
	"github.com/yungbote/omex-backend/internal/data/repos"
	"github.com/yungbote/omex-backend/internal/data/repos/testutil"
	"github.com/yungbote/omex-backend/internal/http/handlers"
	"github.com/yungbote/omex-backend/internal/http/middleware"
	"github.com/yungbote/omex-backend/internal/platform/converter"
	"github.com/yungbote/omex-backend/internal/platform/objectstorage"
	"github.com/yungbote/omex-backend/internal/platform/validate"
	"github.com/yungbote/omex-backend/internal/services"
)

const converterScript = `#!/bin/sh
case "$1" in
  *.pdf) ;;
  *) echo "unexpected input $1" >&2; exit 2 ;;
esac
echo '[{"title":"Cells","content":"graph TD; A-->B"},{"title":"Genetics","content":"graph TD; C-->D"}]'
`

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log := testutil.Logger(t)
	db := testutil.DB(t)
	v := validate.New()

	bucket, err := objectstorage.NewLocalBucket(log, t.TempDir(), "http://localhost:8080/media")
	require.NoError(t, err)

	script := filepath.Join(t.TempDir(), "convert.sh")
	require.NoError(t, os.WriteFile(script, []byte(converterScript), 0o755))
	runner := converter.New(log, converter.Config{
		Command:        script,
		Timeout:        10 * time.Second,
		MaxConcurrency: 2,
		WorkDir:        t.TempDir(),
	})

	userRepo := repos.NewUserRepo(db, log)
	avatars, err := services.NewAvatarService(log, bucket)
	require.NoError(t, err)
	auth, err := services.NewAuthService(log, userRepo, avatars, v, services.AuthConfig{
		JWTSecretKey: "router-test-secret",
		BcryptCost:   bcrypt.MinCost,
	})
	require.NoError(t, err)
	quizzes, err := services.NewPlaceholderQuizGenerator()
	require.NoError(t, err)
	studyPlans := services.NewStudyPlanService(log, plans.NewMemoryStore(), services.NewPlanGenerator(quizzes, v), services.FlatReward{Amount: 50})

	return NewRouter(RouterConfig{
		Log:            log,
		AuthMiddleware: middleware.NewAuthMiddleware(log, auth),
		AuthHandler:    handlers.NewAuthHandler(log, auth),
		UserHandler:    handlers.NewUserHandler(log, services.NewUserService(log, userRepo)),
		MindmapHandler: handlers.NewMindmapHandler(log, services.NewConversionService(log, runner, bucket, services.DefaultUploadMaxSize)),
		StreakHandler:  handlers.NewStreakHandler(log, studyPlans),
		MediaHandler:   handlers.NewMediaHandler(log, bucket),
		HealthHandler:  handlers.NewHealthHandler(nil),
	})
}

func doJSON(t *testing.T, r http.Handler, method, path, token string, body any) (*httptest.ResponseRecorder, map[string]any) {
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
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	var out map[string]any
	if rec.Body.Len() > 0 && rec.Header().Get("Content-Type") != "text/plain; charset=utf-8" {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	}
	return rec, out
}

func uploadPDF(t *testing.T, r http.Handler, contentType string, body []byte) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="file"; filename="notes.pdf"`)
	h.Set("Content-Type", contentType)
	part, err := mw.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write(body)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/mindmap/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return rec, out
}

func TestStudyFlowEndToEnd(t *testing.T) {
	r := newTestRouter(t)

	rec, body := doJSON(t, r, http.MethodPost, "/api/auth/register", "", map[string]string{
		"email": "ada@example.com", "password": "Secret123", "firstName": "Ada", "lastName": "Lovelace",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	require.Equal(t, "success", body["status"])
	user := body["data"].(map[string]any)["user"].(map[string]any)
	require.Equal(t, "ada@example.com", user["email"])
	require.NotContains(t, user, "password")
	require.NotEmpty(t, user["avatarUrl"])

	rec, body = doJSON(t, r, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "ada@example.com", "password": "Secret123",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	token := body["data"].(map[string]any)["token"].(string)
	require.NotEmpty(t, token)

	rec, body = doJSON(t, r, http.MethodGet, "/api/auth/me", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "Ada", body["data"].(map[string]any)["user"].(map[string]any)["firstName"])

	rec, body = uploadPDF(t, r, "application/pdf", []byte("%PDF-1.4\n1 0 obj\n<<>>\nendobj\n%%EOF\n"))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Equal(t, true, body["success"])
	mindmaps := body["mindmaps"].([]any)
	require.Len(t, mindmaps, 2)

	rec, body = doJSON(t, r, http.MethodPost, "/api/streaks/initialize", token, map[string]any{"mindmaps": mindmaps})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.EqualValues(t, 100, body["tokens"])
	topics := body["study_plan"].([]any)
	require.Len(t, topics, 2)
	first := topics[0].(map[string]any)
	require.Equal(t, "Cells", first["topic"])
	require.EqualValues(t, 30, first["duration_minutes"])
	require.Len(t, first["subtopics"].([]any), 3)

	rec, body = doJSON(t, r, http.MethodGet, "/api/streaks/quiz/0/0", token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	questions := body["questions"].([]any)
	require.Len(t, questions, 3)

	answers := map[string]any{"0": "Option A", "1": 1, "2": "relation 3"}
	rec, body = doJSON(t, r, http.MethodPost, "/api/streaks/submit-quiz/0/0", token, map[string]any{"answers": answers})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.EqualValues(t, 3, body["score"])
	require.EqualValues(t, 3, body["total"])
	require.EqualValues(t, 100, body["percentage"])
	require.EqualValues(t, 50, body["tokens"])
	require.EqualValues(t, 150, body["balance"])

	rec, body = doJSON(t, r, http.MethodPost, "/api/streaks/submit-quiz/0/0", token, map[string]any{"answers": answers})
	require.Equal(t, http.StatusOK, rec.Code)
	require.EqualValues(t, 0, body["tokens"])
	require.Equal(t, true, body["already_awarded"])
	require.EqualValues(t, 150, body["balance"])

	rec, body = doJSON(t, r, http.MethodGet, "/api/streaks/plan", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.EqualValues(t, 150, body["tokens"])
}

func TestErrorEnvelopes(t *testing.T) {
	r := newTestRouter(t)

	rec, body := doJSON(t, r, http.MethodGet, "/api/streaks/plan", "", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "error", body["status"])
	require.Equal(t, "Not authorized to access this route", body["message"])

	rec, body = doJSON(t, r, http.MethodPost, "/api/auth/register", "", map[string]string{"email": "bad", "password": "Secret123"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "Please provide a valid email", body["message"])

	rec, _ = doJSON(t, r, http.MethodPost, "/api/auth/register", "", map[string]string{"email": "a@example.com", "password": "Secret123"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	rec, body = doJSON(t, r, http.MethodPost, "/api/auth/login", "", map[string]string{"email": "a@example.com", "password": "nope"})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "Invalid credentials", body["message"])

	rec, body = doJSON(t, r, http.MethodPost, "/api/auth/login", "", map[string]string{"email": "a@example.com", "password": "Secret123"})
	require.Equal(t, http.StatusOK, rec.Code)
	token := body["data"].(map[string]any)["token"].(string)

	rec, body = doJSON(t, r, http.MethodGet, "/api/streaks/quiz/0/0", token, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "Study plan not found", body["message"])

	rec, _ = doJSON(t, r, http.MethodPost, "/api/streaks/initialize", token, map[string]any{
		"mindmaps": []map[string]string{{"title": "Cells", "content": "x"}},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	for _, path := range []string{"/api/streaks/quiz/5/0", "/api/streaks/quiz/0/3", "/api/streaks/quiz/abc/0"} {
		rec, body = doJSON(t, r, http.MethodGet, path, token, nil)
		require.Equal(t, http.StatusNotFound, rec.Code, path)
		require.Equal(t, "Quiz not found", body["message"], path)
	}

	rec, body = doJSON(t, r, http.MethodPost, "/api/streaks/initialize", token, map[string]any{"mindmaps": []any{}})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "validation_error", body["code"])

	rec, body = uploadPDF(t, r, "text/plain", []byte("hello"))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "Only PDF files are allowed", body["message"])

	rec, body = uploadPDF(t, r, "application/pdf", []byte("not really a pdf"))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "Only PDF files are allowed", body["message"])
}

func TestHealthAndSecurityHeaders(t *testing.T) {
	r := newTestRouter(t)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthcheck", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "ok", rec.Body.String())
	require.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	require.NotEmpty(t, rec.Header().Get("X-Request-Id"))
}
