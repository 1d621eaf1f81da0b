package handlers_test

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/identity-service/internal/api/http"
	"github.com/spec-kit/identity-service/internal/api/http/handlers"
	"github.com/spec-kit/identity-service/internal/auth"
	"github.com/spec-kit/identity-service/internal/config"
	"github.com/spec-kit/identity-service/internal/events"
	"github.com/spec-kit/identity-service/internal/observability"
	"github.com/spec-kit/identity-service/internal/persistence"
	"github.com/spec-kit/identity-service/internal/repository"
	"github.com/spec-kit/identity-service/internal/service"
)

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()

	repo := repository.NewMemoryAccountRepository()
	cfg := config.Config{
		Auth: config.AuthConfig{
			JWTSecret:   "test-secret",
			BcryptCost:  4,
			HashWorkers: 4,
		},
	}
	authService := service.NewAuthService(cfg, service.AuthDependencies{
		AccountRepo: repo,
		Dispatcher:  events.NewInMemoryDispatcher(),
		Logger:      zap.NewNop(),
	})
	guard := auth.NewGuard(authService.TokenCodec(), repo)

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, zap.NewNop(), observability.NewMetrics(), 0)
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health: handlers.NewHealthHandler("test", "dev", &persistence.Postgres{}, &persistence.Redis{}),
		Auth:   handlers.NewAuthHandler(authService),
		Guard:  guard,
	})
	return app
}

func postJSON(t *testing.T, app *fiber.App, path, body string) *http.Response {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()

	var parsed map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&parsed))
	return parsed
}

func registerAccount(t *testing.T, app *fiber.App, email, role string) (accessToken, refreshToken string) {
	t.Helper()

	body := fmt.Sprintf(`{"email":%q,"password":"longenough1","user_type":%q}`, email, role)
	resp := postJSON(t, app, "/auth/register", body)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	parsed := decodeBody(t, resp)
	authData := parsed["data"].(map[string]any)["auth"].(map[string]any)
	return authData["access_token"].(string), authData["refresh_token"].(string)
}

func TestRegisterThenMe(t *testing.T) {
	t.Parallel()

	app := newTestApp(t)
	accessToken, _ := registerAccount(t, app, "a@x.com", "consumer")

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+accessToken)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	parsed := decodeBody(t, resp)
	account := parsed["data"].(map[string]any)
	require.Equal(t, "a@x.com", account["email"])
	require.Equal(t, "consumer", account["user_type"])
	require.Equal(t, false, account["is_verified"])
	require.Equal(t, true, account["is_active"])
}

func TestLoginErrorPayloadsAreByteIdentical(t *testing.T) {
	t.Parallel()

	app := newTestApp(t)
	registerAccount(t, app, "known@x.com", "consumer")

	respAbsent := postJSON(t, app, "/auth/login", `{"email":"nobody@x.com","password":"longenough1"}`)
	respWrong := postJSON(t, app, "/auth/login", `{"email":"known@x.com","password":"wrongpassword"}`)

	require.Equal(t, http.StatusUnauthorized, respAbsent.StatusCode)
	require.Equal(t, http.StatusUnauthorized, respWrong.StatusCode)

	bodyAbsent, err := io.ReadAll(respAbsent.Body)
	require.NoError(t, err)
	bodyWrong, err := io.ReadAll(respWrong.Body)
	require.NoError(t, err)
	require.Equal(t, bodyAbsent, bodyWrong)
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	t.Parallel()

	app := newTestApp(t)
	accessToken, _ := registerAccount(t, app, "refresh@x.com", "consumer")

	resp := postJSON(t, app, "/auth/refresh", fmt.Sprintf(`{"refresh_token":%q}`, accessToken))
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	parsed := decodeBody(t, resp)
	errObj := parsed["error"].(map[string]any)
	require.Equal(t, "WRONG_TOKEN_KIND", errObj["code"])
}

func TestRefreshIssuesNewPair(t *testing.T) {
	t.Parallel()

	app := newTestApp(t)
	_, refreshToken := registerAccount(t, app, "rotate@x.com", "provider")

	resp := postJSON(t, app, "/auth/refresh", fmt.Sprintf(`{"refresh_token":%q}`, refreshToken))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	parsed := decodeBody(t, resp)
	data := parsed["data"].(map[string]any)
	require.NotEmpty(t, data["access_token"])
	require.NotEmpty(t, data["refresh_token"])
	require.Equal(t, "bearer", data["token_type"])
}

func TestForgotPasswordAlwaysAcknowledges(t *testing.T) {
	t.Parallel()

	app := newTestApp(t)
	registerAccount(t, app, "exists@x.com", "consumer")

	respKnown := postJSON(t, app, "/auth/forgot-password", `{"email":"exists@x.com"}`)
	respUnknown := postJSON(t, app, "/auth/forgot-password", `{"email":"ghost@x.com"}`)

	require.Equal(t, http.StatusOK, respKnown.StatusCode)
	require.Equal(t, http.StatusOK, respUnknown.StatusCode)

	bodyKnown, err := io.ReadAll(respKnown.Body)
	require.NoError(t, err)
	bodyUnknown, err := io.ReadAll(respUnknown.Body)
	require.NoError(t, err)
	require.Equal(t, bodyKnown, bodyUnknown)
}

func TestAdminGateOnAccountManagement(t *testing.T) {
	t.Parallel()

	app := newTestApp(t)
	consumerToken, _ := registerAccount(t, app, "consumer@x.com", "consumer")
	adminToken, _ := registerAccount(t, app, "admin@x.com", "admin")

	// Consumer may not manage accounts.
	req := httptest.NewRequest(http.MethodPost, "/accounts/1/deactivate", nil)
	req.Header.Set("Authorization", "Bearer "+consumerToken)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)

	// Admin may.
	req = httptest.NewRequest(http.MethodPost, "/accounts/1/deactivate", nil)
	req.Header.Set("Authorization", "Bearer "+adminToken)
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// Deactivated consumer can no longer log in.
	resp = postJSON(t, app, "/auth/login", `{"email":"consumer@x.com","password":"longenough1"}`)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	parsed := decodeBody(t, resp)
	errObj := parsed["error"].(map[string]any)
	require.Equal(t, "ACCOUNT_DEACTIVATED", errObj["code"])
}

func TestLogoutIsStateless(t *testing.T) {
	t.Parallel()

	app := newTestApp(t)
	accessToken, _ := registerAccount(t, app, "logout@x.com", "consumer")

	resp := postJSON(t, app, "/auth/logout", `{}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// Token still works; logout is a client-side discard.
	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+accessToken)
	meResp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, meResp.StatusCode)
}
