package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	apirest "github.com/yomogi/linkup/api/rest"
	"github.com/yomogi/linkup/audit"
	"github.com/yomogi/linkup/cache"
	"github.com/yomogi/linkup/config"
	mw "github.com/yomogi/linkup/middleware"
	"github.com/yomogi/linkup/store"
	"github.com/yomogi/linkup/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"gorm.io/gorm"
)

const (
	// TestPassword satisfies the length, case, digit and symbol rules.
	TestPassword = "Sup3rSecret!"
	adminKey     = "integration-admin-key"
)

var testCounter uint64

// TestServer wraps a real HTTP server with the full route tree wired the
// same way main.go wires it.
type TestServer struct {
	DB     *gorm.DB
	Cache  cache.Cache
	Dir    *store.Directory
	Audit  *audit.Service
	Server *httptest.Server
	URL    string
	Sec    config.SecurityConfig
}

// NewTestServer builds a fully wired server on a throwaway database.
func NewTestServer(t *testing.T) *TestServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.SetupTestDB(t)
	c := testutil.SetupTestCache(t)
	logger := zap.NewNop()

	sec := config.SecurityConfig{
		JWTSecret:      "integration-test-secret",
		JWTTTLH:        72 * time.Hour,
		RateLimitRPS:   1000,
		RateLimitBurst: 2000,
	}

	dir := store.NewDirectory(db)
	auditSvc := audit.New(db, logger)

	authH := apirest.NewAuthHandler(dir, c, sec, auditSvc)
	profileH := apirest.NewProfileHandler(dir, auditSvc)
	socialH := apirest.NewSocialHandler(dir, auditSvc)
	msgH := apirest.NewMessageHandler(dir, auditSvc)
	mediaH := apirest.NewMediaHandler(dir, auditSvc)
	adminH := apirest.NewAdminHandler(db, dir, auditSvc)

	r := gin.New()
	r.Use(mw.TraceID(), mw.Recovery(logger))
	limiter := mw.NewRateLimiter(rate.Limit(sec.RateLimitRPS), sec.RateLimitBurst)
	r.Use(limiter.Handler())

	r.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(200, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	{
		authG := api.Group("/auth")
		authG.POST("/register", authH.Register)
		authG.POST("/login", authH.Login)
		authG.POST("/logout", mw.Auth(sec, c), authH.Logout)
		authG.POST("/refresh", mw.Auth(sec, c), authH.Refresh)

		authed := api.Group("", mw.Auth(sec, c))
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

		adminG := api.Group("/admin", apirest.AdminAuth(adminKey))
		adminG.GET("/metrics", adminH.Metrics)
		adminG.GET("/accounts", adminH.ListAccounts)
		adminG.DELETE("/accounts/:name", adminH.DeleteAccount)
	}

	server := httptest.NewServer(r)
	ts := &TestServer{
		DB:     db,
		Cache:  c,
		Dir:    dir,
		Audit:  auditSvc,
		Server: server,
		URL:    server.URL,
		Sec:    sec,
	}
	t.Cleanup(func() {
		server.Close()
		limiter.Stop()
		auditSvc.Stop(nil)
	})
	return ts
}

// Close shuts down the HTTP listener. The t.Cleanup hook covers the rest.
func (ts *TestServer) Close() {
	ts.Server.Close()
}

func (ts *TestServer) do(t *testing.T, method, path string, body interface{}, token string) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, ts.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

// Get issues an authenticated GET request.
func (ts *TestServer) Get(t *testing.T, path, token string) *http.Response {
	return ts.do(t, http.MethodGet, path, nil, token)
}

// PostJSON issues an authenticated POST with a JSON body.
func (ts *TestServer) PostJSON(t *testing.T, path string, body interface{}, token string) *http.Response {
	return ts.do(t, http.MethodPost, path, body, token)
}

// PutJSON issues an authenticated PUT with a JSON body.
func (ts *TestServer) PutJSON(t *testing.T, path string, body interface{}, token string) *http.Response {
	return ts.do(t, http.MethodPut, path, body, token)
}

// Delete issues an authenticated DELETE request.
func (ts *TestServer) Delete(t *testing.T, path, token string) *http.Response {
	return ts.do(t, http.MethodDelete, path, nil, token)
}

// ReadJSON decodes and closes a response body.
func ReadJSON(t *testing.T, resp *http.Response, target interface{}) {
	t.Helper()
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, target), "body: %s", string(data))
}

// Signup registers an account and logs it in, returning the session token.
func (ts *TestServer) Signup(t *testing.T, username, phone string) string {
	t.Helper()
	resp := ts.PostJSON(t, "/api/auth/register", map[string]string{
		"username": username,
		"phone":    phone,
		"password": TestPassword,
	}, "")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp = ts.PostJSON(t, "/api/auth/login", map[string]string{
		"identifier": username,
		"password":   TestPassword,
	}, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out map[string]interface{}
	ReadJSON(t, resp, &out)
	return out["token"].(string)
}

// Befriend sends a request from a to b and accepts it as b.
func (ts *TestServer) Befriend(t *testing.T, tokenA, tokenB, nameA string, nameB string) {
	t.Helper()
	resp := ts.PostJSON(t, "/api/social/requests", map[string]string{"receiver": nameB}, tokenA)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp = ts.PostJSON(t, "/api/social/requests/respond",
		map[string]string{"sender": nameA, "action": "accept"}, tokenB)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
}

// UniquePhone hands out distinct 10-digit numbers within a test run.
func UniquePhone() string {
	n := atomic.AddUint64(&testCounter, 1)
	return fmt.Sprintf("%010d", 9000000000+n)
}
