package router_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/mihas-katc/admissions-api/internal/config"
	"github.com/mihas-katc/admissions-api/internal/middleware"
	"github.com/mihas-katc/admissions-api/internal/router"
)

const testSecret = "router-secret"

func signedToken(t *testing.T, subject, role string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  subject,
		"role": role,
		"exp":  time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func newApp() *fiber.App {
	app := fiber.New()
	cfg := config.Config{AppName: "admissions", AppEnv: "test", AssessRateLimit: 5, AssessRateWindow: time.Minute}
	router.Register(app, cfg, router.Dependencies{
		JWTMiddleware: middleware.JWTProtected(testSecret),
	})
	return app
}

func TestHealthIsPublic(t *testing.T) {
	app := newApp()

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, "admissions", resp.Header.Get("X-Application"))
}

func TestMetricsEndpointIsExposed(t *testing.T) {
	app := newApp()

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestEligibilityRequiresToken(t *testing.T) {
	app := newApp()

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/eligibility/assessments/1", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestAdminRoutesRejectApplicants(t *testing.T) {
	app := newApp()

	req := httptest.NewRequest(http.MethodGet, "/api/admin/programs", nil)
	req.Header.Set("Authorization", "Bearer "+signedToken(t, "12", "applicant"))
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestAdminRoutesAdmitStaff(t *testing.T) {
	app := newApp()

	req := httptest.NewRequest(http.MethodGet, "/api/admin/programs", nil)
	req.Header.Set("Authorization", "Bearer "+signedToken(t, "3", "admissions"))
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.NotEqual(t, fiber.StatusForbidden, resp.StatusCode)
	require.NotEqual(t, fiber.StatusUnauthorized, resp.StatusCode)
}
