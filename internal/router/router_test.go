package router

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/anonto42/syrena/backend/internal/models"
	"github.com/anonto42/syrena/backend/internal/repositories/repotest"
	"github.com/anonto42/syrena/backend/pkg/config"
	"github.com/anonto42/syrena/backend/validators"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type apiClient struct {
	t *testing.T
	e *echo.Echo
}

func newAPI(t *testing.T) *apiClient {
	t.Helper()
	cfg := &config.Config{
		AuthProvider:   config.AuthProviderJWT,
		JWTSecret:      "test-secret",
		JWTExpiry:      time.Hour,
		RequestTimeout: 2 * time.Second,
		NotifyTimeout:  time.Second,
		SearchLimit:    20,
	}
	e := echo.New()
	e.Validator = validators.NewValidator()
	SetupRoutes(e, Deps{
		Config: cfg,
		Repos: Repositories{
			Users:         repotest.NewUserStore(),
			Friendships:   repotest.NewFriendshipStore(),
			Notifications: repotest.NewNotificationStore(),
			DeviceTokens:  repotest.NewDeviceTokenStore(),
			Places:        repotest.NewPlaceStore(),
			Comments:      repotest.NewCommentStore(),
		},
	})
	return &apiClient{t: t, e: e}
}

func (a *apiClient) do(method, path, token, body string) *httptest.ResponseRecorder {
	a.t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)
	return rec
}

type session struct {
	token string
	user  models.UserCompact
}

func (a *apiClient) signup(username string) session {
	a.t.Helper()
	body := `{"username":"` + username + `","display_name":"` + strings.ToUpper(username[:1]) + username[1:] +
		`","email":"` + username + `@example.com","password":"password123"}`
	rec := a.do(http.MethodPost, "/api/v1/auth/signup", "", body)
	require.Equal(a.t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp struct {
		Token string             `json:"token"`
		User  models.UserCompact `json:"user"`
	}
	require.NoError(a.t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return session{token: resp.Token, user: resp.User}
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	api := newAPI(t)
	for _, path := range []string{"/api/v1/friendships", "/api/v1/places", "/api/v1/notifications", "/api/v1/profile"} {
		rec := api.do(http.MethodGet, path, "", "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
	}
}

func TestSignInAfterSignup(t *testing.T) {
	api := newAPI(t)
	api.signup("alice")

	rec := api.do(http.MethodPost, "/api/v1/auth/signin", "", `{"email":"alice@example.com","password":"password123"}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = api.do(http.MethodPost, "/api/v1/auth/signin", "", `{"email":"alice@example.com","password":"wrong-password"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = api.do(http.MethodPost, "/api/v1/auth/signup", "", `{"username":"alice","email":"alice@example.com","password":"password123"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestFriendshipLifecycleOverHTTP(t *testing.T) {
	api := newAPI(t)
	alice, bob, carol := api.signup("alice"), api.signup("bob"), api.signup("carol")

	rec := api.do(http.MethodPost, "/api/v1/friendships", alice.token, `{"addressee_id":"`+bob.user.ID.String()+`"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	request := decode[models.Friendship](t, rec)
	assert.Equal(t, models.FriendshipPending, request.Status)

	// duplicate in either direction
	rec = api.do(http.MethodPost, "/api/v1/friendships", alice.token, `{"addressee_id":"`+bob.user.ID.String()+`"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	rec = api.do(http.MethodPost, "/api/v1/friendships", bob.token, `{"addressee_id":"`+alice.user.ID.String()+`"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = api.do(http.MethodGet, "/api/v1/friendships", bob.token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	view := decode[struct {
		Friends  []json.RawMessage `json:"friends"`
		Incoming []json.RawMessage `json:"pending_received"`
		Outgoing []json.RawMessage `json:"pending_sent"`
	}](t, rec)
	assert.Empty(t, view.Friends)
	assert.Len(t, view.Incoming, 1)
	assert.Empty(t, view.Outgoing)

	respondPath := "/api/v1/friendships/" + request.ID.String() + "/respond"
	rec = api.do(http.MethodPost, respondPath, alice.token, `{"action":"accept"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = api.do(http.MethodPost, respondPath, bob.token, `{"action":"maybe"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = api.do(http.MethodPost, respondPath, bob.token, `{"action":"accept"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, models.FriendshipAccepted, decode[models.Friendship](t, rec).Status)

	rec = api.do(http.MethodPost, respondPath, bob.token, `{"action":"decline"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	removePath := "/api/v1/friendships/" + request.ID.String()
	rec = api.do(http.MethodDelete, removePath, carol.token, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = api.do(http.MethodDelete, removePath, alice.token, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = api.do(http.MethodDelete, removePath, bob.token, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSendRequestValidation(t *testing.T) {
	api := newAPI(t)
	alice := api.signup("alice")

	tests := []struct {
		name string
		body string
		want int
	}{
		{"self", `{"addressee_id":"` + alice.user.ID.String() + `"}`, http.StatusBadRequest},
		{"missing", `{}`, http.StatusBadRequest},
		{"not a uuid", `{"addressee_id":"bob"}`, http.StatusBadRequest},
		{"unknown user", `{"addressee_id":"6b0f3c0e-8d8e-4c55-9a43-6d2f8f1ad001"}`, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := api.do(http.MethodPost, "/api/v1/friendships", alice.token, tt.body)
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
		})
	}
}

func TestSearchAnnotatesRelation(t *testing.T) {
	api := newAPI(t)
	alice, bob := api.signup("alice"), api.signup("bob")
	api.signup("bobby")

	rec := api.do(http.MethodPost, "/api/v1/friendships", alice.token, `{"addressee_id":"`+bob.user.ID.String()+`"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = api.do(http.MethodGet, "/api/v1/users/search?q=bob", alice.token, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	hits := decode[[]models.Candidate](t, rec)
	require.Len(t, hits, 2)
	assert.Equal(t, "bob", hits[0].User.Username)
	assert.Equal(t, models.RelationOutgoing, hits[0].Relation)
	assert.Equal(t, models.RelationNone, hits[1].Relation)

	rec = api.do(http.MethodGet, "/api/v1/users/search?q=b", alice.token, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPlaceVisibilityFollowsFriendship(t *testing.T) {
	api := newAPI(t)
	alice, bob := api.signup("alice"), api.signup("bob")

	rec := api.do(http.MethodPost, "/api/v1/places", alice.token,
		`{"name":"Corner Cafe","lat":23.78,"lng":90.41,"place_types":["cafe"]}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	place := decode[models.Place](t, rec)
	assert.Equal(t, "cafe", place.Category)

	friendPlaces := "/api/v1/users/" + alice.user.ID.String() + "/places"
	rec = api.do(http.MethodGet, friendPlaces, bob.token, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = api.do(http.MethodGet, "/api/v1/places", bob.token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[[]models.Place](t, rec))

	visit := "/api/v1/places/" + place.ID.Hex() + "/visit"
	rec = api.do(http.MethodPost, visit, bob.token, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = api.do(http.MethodPost, "/api/v1/friendships", alice.token, `{"addressee_id":"`+bob.user.ID.String()+`"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	id := decode[models.Friendship](t, rec).ID
	rec = api.do(http.MethodPost, "/api/v1/friendships/"+id.String()+"/respond", bob.token, `{"action":"accept"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = api.do(http.MethodGet, friendPlaces, bob.token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]models.Place](t, rec), 1)

	for i := 0; i < 2; i++ {
		rec = api.do(http.MethodPost, visit, bob.token, "")
		require.Equal(t, http.StatusOK, rec.Code)
		visited := decode[models.Place](t, rec)
		assert.Equal(t, 1, visited.VisitCount)
		assert.True(t, visited.Visited)
	}

	rec = api.do(http.MethodDelete, visit, bob.token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	unvisited := decode[models.Place](t, rec)
	assert.Equal(t, 0, unvisited.VisitCount)
	assert.False(t, unvisited.Visited)

	rec = api.do(http.MethodGet, "/api/v1/places/"+place.ID.Hex(), bob.token, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = api.do(http.MethodDelete, "/api/v1/places/"+place.ID.Hex(), bob.token, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = api.do(http.MethodDelete, "/api/v1/places/"+place.ID.Hex(), alice.token, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestPlaceCommentsOverHTTP(t *testing.T) {
	api := newAPI(t)
	alice, bob, carol := api.signup("alice"), api.signup("bob"), api.signup("carol")

	rec := api.do(http.MethodPost, "/api/v1/places", alice.token, `{"name":"Corner Cafe","lat":23.78,"lng":90.41}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	comments := "/api/v1/places/" + decode[models.Place](t, rec).ID.Hex() + "/comments"

	rec = api.do(http.MethodPost, "/api/v1/friendships", alice.token, `{"addressee_id":"`+bob.user.ID.String()+`"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	id := decode[models.Friendship](t, rec).ID
	rec = api.do(http.MethodPost, "/api/v1/friendships/"+id.String()+"/respond", bob.token, `{"action":"accept"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	// carol is a stranger to alice
	rec = api.do(http.MethodGet, comments, carol.token, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = api.do(http.MethodPost, comments, carol.token, `{"content":"hi"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = api.do(http.MethodPost, comments, bob.token, `{"content":""}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	type commentView struct {
		models.Comment
		Author *models.UserCompact `json:"author"`
	}
	rec = api.do(http.MethodPost, comments, bob.token, `{"content":"best flat white in town"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[commentView](t, rec)
	require.NotNil(t, created.Author)
	assert.Equal(t, "bob", created.Author.Username)

	rec = api.do(http.MethodGet, comments, alice.token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[[]commentView](t, rec)
	require.Len(t, list, 1)
	assert.Equal(t, "best flat white in town", list[0].Content)

	commentPath := "/api/v1/comments/" + created.ID.String()
	rec = api.do(http.MethodPut, commentPath, alice.token, `{"content":"mine now"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = api.do(http.MethodDelete, commentPath, alice.token, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = api.do(http.MethodDelete, commentPath, carol.token, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = api.do(http.MethodPut, commentPath, bob.token, `{"content":"still the best"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "still the best", decode[models.Comment](t, rec).Content)

	rec = api.do(http.MethodDelete, commentPath, bob.token, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = api.do(http.MethodDelete, commentPath, bob.token, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreatePlaceValidation(t *testing.T) {
	api := newAPI(t)
	alice := api.signup("alice")

	for name, body := range map[string]string{
		"missing lat":      `{"name":"x","lng":1}`,
		"lat out of range": `{"name":"x","lat":91,"lng":1}`,
		"unknown category": `{"name":"x","lat":1,"lng":1,"category":"spaceport"}`,
		"blank name":       `{"name":"","lat":1,"lng":1}`,
	} {
		rec := api.do(http.MethodPost, "/api/v1/places", alice.token, body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, name)
	}
}

func TestFriendRequestLandsInInbox(t *testing.T) {
	api := newAPI(t)
	alice, bob := api.signup("alice"), api.signup("bob")

	rec := api.do(http.MethodPost, "/api/v1/friendships", alice.token, `{"addressee_id":"`+bob.user.ID.String()+`"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = api.do(http.MethodGet, "/api/v1/notifications/unread-count", bob.token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	count := decode[struct {
		Data struct {
			Count int64 `json:"count"`
		} `json:"data"`
	}](t, rec)
	assert.Equal(t, int64(1), count.Data.Count)

	rec = api.do(http.MethodPut, "/api/v1/notifications/read-all", bob.token, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = api.do(http.MethodGet, "/api/v1/notifications/unread-count", bob.token, "")
	assert.Contains(t, rec.Body.String(), `"count":0`)
}

func TestCategoriesAndMetrics(t *testing.T) {
	api := newAPI(t)
	alice := api.signup("alice")

	rec := api.do(http.MethodGet, "/api/v1/places/categories", alice.token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]models.Category](t, rec), 10)

	rec = api.do(http.MethodGet, "/metrics", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "http_requests_total")
}
