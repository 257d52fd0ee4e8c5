package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func testTokens() TokenService {
	return TokenService{Secret: []byte("test-secret"), Issuer: "mangastore-test", Duration: time.Hour}
}

func TestTokenService_SignParse(t *testing.T) {
	ts := testTokens()

	raw, exp, err := ts.Sign("scraper")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, 5*time.Second)

	claims, err := ts.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "scraper", claims.ClientID)
	assert.Equal(t, "scraper", claims.Subject)
}

func TestTokenService_RejectsForeignTokens(t *testing.T) {
	raw, _, err := testTokens().Sign("scraper")
	require.NoError(t, err)

	other := testTokens()
	other.Secret = []byte("another-secret")
	_, err = other.Parse(raw)
	assert.Error(t, err)

	wrongIssuer := testTokens()
	wrongIssuer.Issuer = "someone-else"
	_, err = wrongIssuer.Parse(raw)
	assert.Error(t, err)
}

func TestTokenService_RejectsExpired(t *testing.T) {
	ts := testTokens()
	ts.Duration = -time.Minute

	raw, _, err := ts.Sign("scraper")
	require.NoError(t, err)
	_, err = ts.Parse(raw)
	assert.Error(t, err)
}

func newRouter(t *testing.T, keyHash string) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	r := gin.New()
	NewHandler(keyHash, testTokens()).RegisterRoutes(r.Group("/auth"))
	r.GET("/private", AuthMiddleware(testTokens()), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"client": GetClaims(c).ClientID})
	})
	return r
}

func TestHandler_TokenThenPrivateRoute(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)
	r := newRouter(t, string(hash))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/auth/token", strings.NewReader(`{"client_id":"cli","key":"s3cret"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.NotEmpty(t, body.Token)

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/private", nil)
	req.Header.Set("Authorization", "Bearer "+body.Token)
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"client":"cli"}`, w.Body.String())
}

func TestHandler_WrongKey(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)
	r := newRouter(t, string(hash))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/auth/token", strings.NewReader(`{"client_id":"cli","key":"nope"}`))
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestHandler_Disabled(t *testing.T) {
	r := newRouter(t, "")

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/auth/token", strings.NewReader(`{"client_id":"cli","key":"x"}`))
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestMiddleware_MissingOrBadToken(t *testing.T) {
	r := newRouter(t, "")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/private", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/private", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
