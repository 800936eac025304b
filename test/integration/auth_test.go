package integration

import (
	"bytes"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (app *TestApp) postJSON(t *testing.T, path string, body any, bearer string) *http.Response {
	t.Helper()

	data, err := json.Marshal(body)
	require.NoError(t, err)

	req, err := http.NewRequest("POST", app.Server.URL+path, bytes.NewReader(data))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := app.Client.Do(req)
	require.NoError(t, err)
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()

	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

type tokenPairResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type errorBody struct {
	Code string `json:"code"`
}

func TestCredentialAuthFlow(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	app := setupTestApp(t)
	defer app.Teardown(t)

	// 1. Register
	resp := app.postJSON(t, "/auth/register", map[string]string{
		"email": "flow@example.com", "password": "hunter22", "name": "Flow",
	}, "")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	// 2. Login
	resp = app.postJSON(t, "/auth/login", map[string]string{
		"email": "flow@example.com", "password": "hunter22",
	}, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	pair := decodeBody[tokenPairResponse](t, resp)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)

	// 3. Authenticated request
	req, err := http.NewRequest("GET", app.Server.URL+"/api/me", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+pair.AccessToken)

	resp, err = app.Client.Do(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	me := decodeBody[map[string]any](t, resp)
	assert.Equal(t, "flow@example.com", me["email"])

	// 4. Second login reuses the refresh token
	resp = app.postJSON(t, "/auth/login", map[string]string{
		"email": "flow@example.com", "password": "hunter22",
	}, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	second := decodeBody[tokenPairResponse](t, resp)
	assert.Equal(t, pair.RefreshToken, second.RefreshToken)

	// 5. Refresh exchange returns the same refresh token
	resp = app.postJSON(t, "/auth/refresh", map[string]string{
		"refresh_token": pair.RefreshToken,
	}, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	refreshed := decodeBody[tokenPairResponse](t, resp)
	assert.Equal(t, pair.RefreshToken, refreshed.RefreshToken)
	assert.NotEmpty(t, refreshed.AccessToken)

	// 6. Logout, then the old refresh token is dead
	resp = app.postJSON(t, "/auth/logout", nil, refreshed.AccessToken)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = app.postJSON(t, "/auth/refresh", map[string]string{
		"refresh_token": pair.RefreshToken,
	}, "")
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	body := decodeBody[errorBody](t, resp)
	assert.Contains(t, []string{"INVALID_REFRESH_TOKEN", "EXPIRED_REFRESH_TOKEN"}, body.Code)
}

func TestLoginFailures(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	app := setupTestApp(t)
	defer app.Teardown(t)

	resp := app.postJSON(t, "/auth/register", map[string]string{
		"email": "a@example.com", "password": "correct", "name": "A",
	}, "")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp = app.postJSON(t, "/auth/login", map[string]string{
		"email": "a@example.com", "password": "wrong",
	}, "")
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "BAD_CREDENTIAL", decodeBody[errorBody](t, resp).Code)

	resp = app.postJSON(t, "/auth/login", map[string]string{
		"email": "nobody@example.com", "password": "whatever",
	}, "")
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "USER_NOT_FOUND", decodeBody[errorBody](t, resp).Code)

	// Failed logins never touched the refresh store
	var count int
	require.NoError(t, app.DB.QueryRow("SELECT COUNT(*) FROM refresh_tokens").Scan(&count))
	assert.Zero(t, count)
}

func TestOAuth2LoginFlow(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	app := setupTestApp(t)
	defer app.Teardown(t)

	// Fresh federated login creates the account and issues a pair
	resp := app.postJSON(t, "/auth/oauth2/login", map[string]string{
		"credential": "google:g1:bo@example.com:Bo",
	}, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	pair := decodeBody[tokenPairResponse](t, resp)

	req, err := http.NewRequest("GET", app.Server.URL+"/api/me", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+pair.AccessToken)
	resp, err = app.Client.Do(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	me := decodeBody[map[string]any](t, resp)
	assert.Equal(t, "bo@example.com", me["email"])
	assert.Equal(t, "GOOGLE", me["provider"])

	// Re-login resolves to the same account and reuses the refresh token
	resp = app.postJSON(t, "/auth/oauth2/login", map[string]string{
		"credential": "google:g1:bo@example.com:Bo",
	}, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	again := decodeBody[tokenPairResponse](t, resp)
	assert.Equal(t, pair.RefreshToken, again.RefreshToken)

	// A credential the verifier rejects is a client error, not a server one
	resp = app.postJSON(t, "/auth/oauth2/login", map[string]string{
		"credential": "garbage",
	}, "")
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "INVALID_OAUTH2_CREDENTIAL", decodeBody[errorBody](t, resp).Code)
}

func TestOAuth2EmailConflict(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	app := setupTestApp(t)
	defer app.Teardown(t)

	resp := app.postJSON(t, "/auth/register", map[string]string{
		"email": "a@example.com", "password": "secret", "name": "A",
	}, "")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp = app.postJSON(t, "/auth/oauth2/login", map[string]string{
		"credential": "google:g1:a@example.com:Imposter",
	}, "")
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "OAUTH2_EMAIL_ALREADY_REGISTERED", decodeBody[errorBody](t, resp).Code)

	// No identity was created or modified
	var count int
	require.NoError(t, app.DB.QueryRow("SELECT COUNT(*) FROM users").Scan(&count))
	assert.Equal(t, 1, count)
}

func TestDeleteMeSoftDeletes(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	app := setupTestApp(t)
	defer app.Teardown(t)

	resp := app.postJSON(t, "/auth/register", map[string]string{
		"email": "gone@example.com", "password": "secret", "name": "Gone",
	}, "")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp = app.postJSON(t, "/auth/login", map[string]string{
		"email": "gone@example.com", "password": "secret",
	}, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	pair := decodeBody[tokenPairResponse](t, resp)

	req, err := http.NewRequest("DELETE", app.Server.URL+"/api/me", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+pair.AccessToken)
	resp, err = app.Client.Do(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	// The row survives with its deletion marker set, but lookups treat the
	// account as nonexistent.
	var deleted bool
	require.NoError(t, app.DB.QueryRow(
		"SELECT deleted_at IS NOT NULL FROM users WHERE email = 'gone@example.com'",
	).Scan(&deleted))
	assert.True(t, deleted)

	resp = app.postJSON(t, "/auth/login", map[string]string{
		"email": "gone@example.com", "password": "secret",
	}, "")
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()

	// Refresh after account deletion must fail too
	resp = app.postJSON(t, "/auth/refresh", map[string]string{
		"refresh_token": pair.RefreshToken,
	}, "")
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()
}
