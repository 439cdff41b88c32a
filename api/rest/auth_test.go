package rest_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yomogi/linkup/api/rest"
	"github.com/yomogi/linkup/config"
	mw "github.com/yomogi/linkup/middleware"
	"github.com/yomogi/linkup/store"
	"github.com/yomogi/linkup/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const testPassword = "Sup3rSecret!"

// setupRouter builds the full authenticated route tree over a fresh DB.
func setupRouter(t *testing.T) (*gin.Engine, *store.Directory) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	c := testutil.SetupTestCache(t)
	sec := config.SecurityConfig{JWTSecret: "test-secret", JWTTTLH: 72 * time.Hour}
	dir := store.NewDirectory(db)

	authH := rest.NewAuthHandler(dir, c, sec, nil)
	profileH := rest.NewProfileHandler(dir, nil)
	socialH := rest.NewSocialHandler(dir, nil)
	msgH := rest.NewMessageHandler(dir, nil)
	mediaH := rest.NewMediaHandler(dir, nil)

	r := gin.New()
	r.POST("/api/auth/register", authH.Register)
	r.POST("/api/auth/login", authH.Login)

	authed := r.Group("/api", mw.Auth(sec, c))
	authed.POST("/auth/logout", authH.Logout)
	authed.POST("/auth/refresh", authH.Refresh)
	authed.GET("/profile", profileH.Get)
	authed.PUT("/profile/email", profileH.UpdateEmail)
	authed.PUT("/profile/password", profileH.UpdatePassword)
	authed.PUT("/profile/image", profileH.UpdateImage)
	authed.DELETE("/profile", profileH.Delete)
	authed.GET("/users/search", profileH.Search)
	authed.POST("/social/requests", socialH.SendRequest)
	authed.POST("/social/requests/respond", socialH.Respond)
	authed.GET("/social/requests", socialH.Incoming)
	authed.GET("/social/friends", socialH.Friends)
	authed.DELETE("/social/friends/:name", socialH.Unfriend)
	authed.POST("/messages", msgH.Send)
	authed.GET("/messages/:name", msgH.Conversation)
	authed.POST("/messages/:name/read", msgH.MarkRead)
	authed.GET("/unread", msgH.Unread)
	authed.POST("/media", mediaH.Post)
	authed.GET("/media/feed", mediaH.Feed)
	authed.GET("/media/mine", mediaH.Mine)
	authed.DELETE("/media/:id", mediaH.Delete)
	authed.PUT("/media/:id", mediaH.Update)

	return r, dir
}

func doJSON(r *gin.Engine, method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

// signup registers and logs in one user, returning the session token.
func signup(t *testing.T, r *gin.Engine, username, phone string) string {
	t.Helper()
	w := doJSON(r, http.MethodPost, "/api/auth/register", map[string]string{
		"username": username, "phone": phone, "password": testPassword,
	}, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = doJSON(r, http.MethodPost, "/api/auth/login", map[string]string{
		"identifier": username, "password": testPassword,
	}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	return decode(t, w)["token"].(string)
}

// ---- Register ----

func TestRegister_Success(t *testing.T) {
	r, _ := setupRouter(t)

	w := doJSON(r, http.MethodPost, "/api/auth/register", map[string]string{
		"username": "Alice", "phone": "1234567890",
		"password": testPassword, "email": "alice@example.com",
	}, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	acc := decode(t, w)["account"].(map[string]interface{})
	assert.Equal(t, "alice", acc["username"])
}

func TestRegister_ValidationPayload(t *testing.T) {
	r, _ := setupRouter(t)

	w := doJSON(r, http.MethodPost, "/api/auth/register", map[string]string{
		"username": "alice", "phone": "12345", "password": testPassword,
	}, "")
	require.Equal(t, http.StatusBadRequest, w.Code)

	errObj := decode(t, w)["error"].(map[string]interface{})
	assert.Equal(t, "validation", errObj["kind"])
	assert.Equal(t, "phone", errObj["field"])
}

func TestRegister_OverlongPasswordIsValidation(t *testing.T) {
	r, _ := setupRouter(t)

	// Meets every content rule but is longer than bcrypt accepts; must be a
	// 400 validation error, not a 500.
	w := doJSON(r, http.MethodPost, "/api/auth/register", map[string]string{
		"username": "alice", "phone": "1234567890",
		"password": "Aa1!" + strings.Repeat("a", 86),
	}, "")
	require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())

	errObj := decode(t, w)["error"].(map[string]interface{})
	assert.Equal(t, "validation", errObj["kind"])
	assert.Equal(t, "password", errObj["field"])
}

func TestRegister_Conflict(t *testing.T) {
	r, _ := setupRouter(t)
	signup(t, r, "alice", "1234567890")

	w := doJSON(r, http.MethodPost, "/api/auth/register", map[string]string{
		"username": "ALICE", "phone": "0987654321", "password": testPassword,
	}, "")
	require.Equal(t, http.StatusConflict, w.Code)

	errObj := decode(t, w)["error"].(map[string]interface{})
	assert.Equal(t, "conflict", errObj["kind"])
	assert.Equal(t, "username", errObj["field"])
}

// ---- Login ----

func TestLogin_ByPhone(t *testing.T) {
	r, _ := setupRouter(t)
	signup(t, r, "alice", "1234567890")

	w := doJSON(r, http.MethodPost, "/api/auth/login", map[string]string{
		"identifier": "1234567890", "password": testPassword,
	}, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "alice", decode(t, w)["username"])
}

func TestLogin_WrongPassword(t *testing.T) {
	r, _ := setupRouter(t)
	signup(t, r, "alice", "1234567890")

	w := doJSON(r, http.MethodPost, "/api/auth/login", map[string]string{
		"identifier": "alice", "password": "Wr0ngPass!",
	}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLogin_UnknownUserSameShape(t *testing.T) {
	r, _ := setupRouter(t)

	// An unknown identifier must be indistinguishable from a bad password.
	w := doJSON(r, http.MethodPost, "/api/auth/login", map[string]string{
		"identifier": "ghost", "password": testPassword,
	}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "invalid credentials", decode(t, w)["error"])
}

// ---- Sessions ----

func TestLogout_InvalidatesSession(t *testing.T) {
	r, _ := setupRouter(t)
	token := signup(t, r, "alice", "1234567890")

	w := doJSON(r, http.MethodPost, "/api/auth/logout", nil, token)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(r, http.MethodGet, "/api/profile", nil, token)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRefresh_RotatesToken(t *testing.T) {
	r, _ := setupRouter(t)
	token := signup(t, r, "alice", "1234567890")

	w := doJSON(r, http.MethodPost, "/api/auth/refresh", nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	newToken := decode(t, w)["token"].(string)
	require.NotEqual(t, token, newToken)

	// Old token is dead, new one works.
	w = doJSON(r, http.MethodGet, "/api/profile", nil, token)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	w = doJSON(r, http.MethodGet, "/api/profile", nil, newToken)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuthRequired(t *testing.T) {
	r, _ := setupRouter(t)

	w := doJSON(r, http.MethodGet, "/api/profile", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(r, http.MethodGet, "/api/profile", nil, "not-a-jwt")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
