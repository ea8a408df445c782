package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"time"

	"matchday/internal/auth"
	"matchday/internal/database"
	"matchday/internal/metrics"
	"matchday/internal/middleware"
	"matchday/internal/repository"
	"matchday/internal/services"
	"matchday/internal/storage"
	"matchday/internal/validation"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type apiClient struct {
	t      *testing.T
	router *gin.Engine
}

func newAPI(t *testing.T) *apiClient {
	t.Helper()
	auth.InitJWT("test-secret", time.Hour)

	db, err := database.OpenMemory()
	require.NoError(t, err)
	repo := repository.NewRepository(db)
	m := metrics.New()
	store := storage.NewMemory("/media")

	router := NewRouter(RouterConfig{
		AuthLimiter: middleware.NewIPRateLimiter(1000, 1000),
		Logger:      zerolog.Nop(),
		Metrics:     m,
		Store:       store,
		MediaPrefix: "/media",
	}, Services{
		Auth:        services.NewAuthService(repo),
		Teams:       services.NewTeamService(repo, store, m, 1024),
		Matches:     services.NewMatchService(repo, m),
		Predictions: services.NewPredictionService(repo, validation.DefaultRules(), m),
	})
	return &apiClient{t: t, router: router}
}

func (a *apiClient) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

// register creates a user and returns its token.
func (a *apiClient) register() string {
	a.t.Helper()
	w := a.do(http.MethodPost, "/auth/register", "", gin.H{
		"username": gofakeit.LetterN(12),
		"password": "password123",
	})
	require.Equal(a.t, http.StatusCreated, w.Code, w.Body.String())
	var out struct {
		Token string `json:"token"`
	}
	decode(a.t, w, &out)
	return out.Token
}

func (a *apiClient) createTeam(token, name string) uint {
	a.t.Helper()
	w := a.do(http.MethodPost, "/api/teams", token, gin.H{"name": name})
	require.Equal(a.t, http.StatusCreated, w.Code, w.Body.String())
	var out struct {
		Team struct {
			ID uint `json:"id"`
		} `json:"team"`
	}
	decode(a.t, w, &out)
	return out.Team.ID
}

func (a *apiClient) createMatch(token string, home, away uint, kickoff string) uint {
	a.t.Helper()
	w := a.do(http.MethodPost, "/api/matches", token, gin.H{
		"home_team_id": home,
		"away_team_id": away,
		"kickoff_at":   kickoff,
	})
	require.Equal(a.t, http.StatusCreated, w.Code, w.Body.String())
	var out struct {
		Match struct {
			ID uint `json:"id"`
		} `json:"match"`
	}
	decode(a.t, w, &out)
	return out.Match.ID
}

func decode(t *testing.T, w *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), dst), w.Body.String())
}

func errorBody(t *testing.T, w *httptest.ResponseRecorder) errorResponse {
	t.Helper()
	var out errorResponse
	decode(t, w, &out)
	return out
}

func TestScenario(t *testing.T) {
	api := newAPI(t)
	alice, bob := api.register(), api.register()

	red := api.createTeam(alice, "Red")
	blue := api.createTeam(alice, "Blue")
	match := api.createMatch(alice, red, blue, "2025-09-22T19:30")

	w := api.do(http.MethodPost, "/api/predictions", bob, gin.H{
		"match_id": match, "pick": "HOME", "p_home": 0.5, "p_draw": 0.3, "p_away": 0.2,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = api.do(http.MethodPost, "/api/predictions", bob, gin.H{"match_id": match, "pick": "AWAY"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, string(validation.DuplicateForUserAndMatch), errorBody(t, w).Code)

	w = api.do(http.MethodDelete, fmt.Sprintf("/api/teams/%d", red), alice, nil)
	require.Equal(t, http.StatusConflict, w.Code)
	body := errorBody(t, w)
	assert.Equal(t, "referential_block", body.Code)
	require.Len(t, body.BlockingMatches, 1)
	assert.Equal(t, match, body.BlockingMatches[0].ID)

	w = api.do(http.MethodGet, fmt.Sprintf("/api/matches/%d", match), bob, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var got struct {
		Match struct {
			Status          string  `json:"status"`
			KickoffAt       string  `json:"kickoff_at"`
			Outcome         *string `json:"outcome"`
			PredictionCount int64   `json:"prediction_count"`
		} `json:"match"`
	}
	decode(t, w, &got)
	assert.Equal(t, "SCHEDULED", got.Match.Status)
	assert.Equal(t, "2025-09-22T19:30:00Z", got.Match.KickoffAt)
	assert.Nil(t, got.Match.Outcome)
	assert.Equal(t, int64(1), got.Match.PredictionCount)
}

func TestRequiresAuthentication(t *testing.T) {
	api := newAPI(t)

	w := api.do(http.MethodGet, "/api/teams", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = api.do(http.MethodGet, "/auth/me", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = api.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestLoginAndMe(t *testing.T) {
	api := newAPI(t)
	username := gofakeit.LetterN(12)

	w := api.do(http.MethodPost, "/auth/register", "", gin.H{"username": username, "password": "password123"})
	require.Equal(t, http.StatusCreated, w.Code)

	w = api.do(http.MethodPost, "/auth/register", "", gin.H{"username": username, "password": "password123"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = api.do(http.MethodPost, "/auth/login", "", gin.H{"username": username, "password": "wrong-password"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = api.do(http.MethodPost, "/auth/login", "", gin.H{"username": username, "password": "password123"})
	require.Equal(t, http.StatusOK, w.Code)
	var login struct {
		Token string `json:"token"`
	}
	decode(t, w, &login)

	w = api.do(http.MethodGet, "/auth/me", login.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), username)
	assert.NotContains(t, w.Body.String(), "password")
}

func TestMatchValidationResponses(t *testing.T) {
	api := newAPI(t)
	token := api.register()
	red := api.createTeam(token, "Red")
	blue := api.createTeam(token, "Blue")

	tests := []struct {
		name   string
		body   gin.H
		status int
		code   string
		field  string
	}{
		{
			name:   "same team",
			body:   gin.H{"home_team_id": red, "away_team_id": red, "kickoff_at": "2025-09-22T19:30"},
			status: http.StatusBadRequest, code: string(validation.SameTeam),
		},
		{
			name:   "unknown team",
			body:   gin.H{"home_team_id": red, "away_team_id": 999, "kickoff_at": "2025-09-22T19:30"},
			status: http.StatusBadRequest, code: string(validation.UnknownTeam), field: "away_team_id",
		},
		{
			name:   "bad status",
			body:   gin.H{"home_team_id": red, "away_team_id": blue, "kickoff_at": "2025-09-22T19:30", "status": "ABANDONED"},
			status: http.StatusBadRequest, code: string(validation.InvalidStatus), field: "status",
		},
		{
			name:   "bad kickoff",
			body:   gin.H{"home_team_id": red, "away_team_id": blue, "kickoff_at": "next tuesday"},
			status: http.StatusBadRequest, code: "invalid",
		},
		{
			name:   "missing kickoff",
			body:   gin.H{"home_team_id": red, "away_team_id": blue},
			status: http.StatusBadRequest, code: "invalid", field: "kickoff_at",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := api.do(http.MethodPost, "/api/matches", token, tt.body)
			require.Equal(t, tt.status, w.Code, w.Body.String())
			body := errorBody(t, w)
			assert.Equal(t, tt.code, body.Code)
			if tt.field != "" {
				assert.Contains(t, body.Fields, tt.field)
			}
		})
	}
}

func TestFullTimeAliasAndOutcome(t *testing.T) {
	api := newAPI(t)
	token := api.register()
	red := api.createTeam(token, "Red")
	blue := api.createTeam(token, "Blue")
	match := api.createMatch(token, red, blue, "2025-09-22T19:30:00Z")

	w := api.do(http.MethodPut, fmt.Sprintf("/api/matches/%d", match), token, gin.H{
		"kickoff_at": "2025-09-22 19:30",
		"status":     "ft",
		"home_score": 0,
		"away_score": 2,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var got struct {
		Match struct {
			Status  string `json:"status"`
			Outcome string `json:"outcome"`
		} `json:"match"`
	}
	decode(t, w, &got)
	assert.Equal(t, "FULL_TIME", got.Match.Status)
	assert.Equal(t, "AWAY", got.Match.Outcome)

	w = api.do(http.MethodGet, "/api/matches?status=FULL_TIME", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Total int64 `json:"total"`
	}
	decode(t, w, &list)
	assert.Equal(t, int64(1), list.Total)
}

func TestPredictionValidationResponses(t *testing.T) {
	api := newAPI(t)
	token := api.register()
	red := api.createTeam(token, "Red")
	blue := api.createTeam(token, "Blue")
	match := api.createMatch(token, red, blue, "2025-09-22T19:30")

	w := api.do(http.MethodPost, "/api/predictions", token, gin.H{"match_id": match, "pick": "WIN"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, string(validation.InvalidPick), errorBody(t, w).Code)

	w = api.do(http.MethodPost, "/api/predictions", token, gin.H{"match_id": match, "pick": "HOME", "p_home": 1.5})
	require.Equal(t, http.StatusBadRequest, w.Code)
	body := errorBody(t, w)
	assert.Equal(t, string(validation.ProbabilityRange), body.Code)
	assert.Contains(t, body.Fields, "p_home")

	w = api.do(http.MethodPost, "/api/predictions", token, gin.H{"match_id": match, "pick": "HOME", "p_home": 0.5, "p_draw": 0.2, "p_away": 0.1})
	require.Equal(t, http.StatusBadRequest, w.Code)
	body = errorBody(t, w)
	assert.Equal(t, string(validation.ProbabilitySum), body.Code)
	assert.Empty(t, body.Fields)

	w = api.do(http.MethodPost, "/api/predictions", token, gin.H{"match_id": 999, "pick": "HOME"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, errorBody(t, w).Fields, "match_id")
}

func TestOwnershipHidesOtherUsersRecords(t *testing.T) {
	api := newAPI(t)
	alice, bob := api.register(), api.register()
	red := api.createTeam(alice, "Red")

	w := api.do(http.MethodPut, fmt.Sprintf("/api/teams/%d", red), bob, gin.H{"name": "Stolen"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = api.do(http.MethodDelete, fmt.Sprintf("/api/teams/%d", red), bob, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = api.do(http.MethodGet, fmt.Sprintf("/api/teams/%d", red), bob, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var detail struct {
		Permissions permissions `json:"permissions"`
	}
	decode(t, w, &detail)
	assert.False(t, detail.Permissions.CanEdit)

	w = api.do(http.MethodGet, fmt.Sprintf("/api/teams/%d", red), alice, nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &detail)
	assert.True(t, detail.Permissions.CanEdit)
	assert.True(t, detail.Permissions.CanDelete)

	w = api.do(http.MethodGet, "/api/teams?mine=true", bob, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Total int64 `json:"total"`
	}
	decode(t, w, &list)
	assert.Zero(t, list.Total)

	w = api.do(http.MethodDelete, fmt.Sprintf("/api/teams/%d", red), alice, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestInvalidQueryParameters(t *testing.T) {
	api := newAPI(t)
	token := api.register()

	for _, path := range []string{
		"/api/teams/abc",
		"/api/teams?limit=-1",
		"/api/matches?team_id=x",
		"/api/matches?from=yesterday",
		"/api/predictions?match_id=-3",
	} {
		w := api.do(http.MethodGet, path, token, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code, path)
	}
}

func TestUploadLogo(t *testing.T) {
	api := newAPI(t)
	token := api.register()
	red := api.createTeam(token, "Red")

	upload := func(contentType string, data []byte) *httptest.ResponseRecorder {
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="logo"; filename="red.png"`)
		h.Set("Content-Type", contentType)
		part, err := mw.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
		require.NoError(t, mw.Close())

		req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/api/teams/%d/logo", red), &buf)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		api.router.ServeHTTP(w, req)
		return w
	}

	w := upload("image/png", []byte("png-bytes"))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var got struct {
		Team struct {
			LogoURL string `json:"logo_url"`
		} `json:"team"`
	}
	decode(t, w, &got)
	assert.Contains(t, got.Team.LogoURL, "/media/teams/")

	w = upload("text/plain", []byte("hello"))
	assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)

	w = upload("image/png", bytes.Repeat([]byte("x"), 2048))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestParseKickoff(t *testing.T) {
	want := time.Date(2025, 9, 22, 19, 30, 0, 0, time.UTC)
	for _, in := range []string{
		"2025-09-22T19:30",
		"2025-09-22 19:30",
		"2025-09-22T19:30:00Z",
		"2025-09-22T21:30:00+02:00",
	} {
		got, err := ParseKickoff(in)
		require.NoError(t, err, in)
		assert.True(t, want.Equal(got), in)
		assert.Equal(t, time.UTC, got.Location())
	}

	_, err := ParseKickoff("22/09/2025")
	assert.Error(t, err)
}

func TestMetricsEndpoint(t *testing.T) {
	api := newAPI(t)
	api.do(http.MethodGet, "/health", "", nil)

	w := api.do(http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `matchday_http_requests_total{method="GET",route="/health",status="200"} 1`)
}

func TestAuthRateLimit(t *testing.T) {
	db, err := database.OpenMemory()
	require.NoError(t, err)
	router := NewRouter(RouterConfig{
		AuthLimiter: middleware.NewIPRateLimiter(0.001, 2),
		Logger:      zerolog.Nop(),
	}, Services{Auth: services.NewAuthService(repository.NewRepository(db))})
	api := &apiClient{t: t, router: router}

	body := gin.H{"username": "nobody", "password": "password123"}
	assert.Equal(t, http.StatusUnauthorized, api.do(http.MethodPost, "/auth/login", "", body).Code)
	assert.Equal(t, http.StatusUnauthorized, api.do(http.MethodPost, "/auth/login", "", body).Code)
	assert.Equal(t, http.StatusTooManyRequests, api.do(http.MethodPost, "/auth/login", "", body).Code)
}
