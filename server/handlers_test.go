package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"coinpulse/config"
	"coinpulse/model"
	"coinpulse/repository"

	"github.com/stretchr/testify/require"
)

const testJWTSecret = "handler-test-secret"

// fakeUserRepo is an in-memory UserRepository with the same duplicate email
// behavior as the MySQL implementation.
type fakeUserRepo struct {
	byID    map[int64]*model.User
	byEmail map[string]*model.User
	nextID  int64
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		byID:    make(map[int64]*model.User),
		byEmail: make(map[string]*model.User),
		nextID:  1,
	}
}

func (r *fakeUserRepo) CreateUser(user *model.User) (int64, error) {
	if _, exists := r.byEmail[user.Email]; exists {
		return 0, repository.ErrDuplicateEmail
	}
	stored := *user
	stored.ID = r.nextID
	stored.CreatedAt = time.Now().UTC()
	stored.UpdatedAt = stored.CreatedAt
	r.nextID++
	r.byID[stored.ID] = &stored
	r.byEmail[stored.Email] = &stored
	return stored.ID, nil
}

func (r *fakeUserRepo) GetUserByID(id int64) (*model.User, error) {
	return r.byID[id], nil
}

func (r *fakeUserRepo) GetUserByEmail(email string) (*model.User, error) {
	return r.byEmail[email], nil
}

// fakePrefRepo mimics the single-statement upsert keyed by user_id.
type fakePrefRepo struct {
	byUser map[int64]*model.Preference
}

func newFakePrefRepo() *fakePrefRepo {
	return &fakePrefRepo{byUser: make(map[int64]*model.Preference)}
}

func (r *fakePrefRepo) Save(ctx context.Context, pref *model.Preference) error {
	stored := *pref
	r.byUser[pref.UserID] = &stored
	return nil
}

func (r *fakePrefRepo) GetByUserID(ctx context.Context, userID int64) (*model.Preference, error) {
	return r.byUser[userID], nil
}

// fakeVoteRepo mimics the (user_id, section) upsert and idempotent clear.
type fakeVoteRepo struct {
	byKey map[string]*model.Vote
}

func newFakeVoteRepo() *fakeVoteRepo {
	return &fakeVoteRepo{byKey: make(map[string]*model.Vote)}
}

func voteKey(userID int64, section string) string {
	return fmt.Sprintf("%d#%s", userID, section)
}

func (r *fakeVoteRepo) SetVote(ctx context.Context, vote *model.Vote) error {
	stored := *vote
	r.byKey[voteKey(vote.UserID, vote.Section)] = &stored
	return nil
}

func (r *fakeVoteRepo) ClearVote(ctx context.Context, userID int64, section string) error {
	delete(r.byKey, voteKey(userID, section))
	return nil
}

func (r *fakeVoteRepo) GetByUserID(ctx context.Context, userID int64) ([]model.Vote, error) {
	var votes []model.Vote
	for _, v := range r.byKey {
		if v.UserID == userID {
			votes = append(votes, *v)
		}
	}
	return votes, nil
}

type handlerFixture struct {
	handler *APIHandler
	users   *fakeUserRepo
	prefs   *fakePrefRepo
	votes   *fakeVoteRepo
	cfg     *config.Config
}

func newHandlerFixture(t *testing.T) *handlerFixture {
	t.Helper()

	cfg := &config.Config{JWTSecret: testJWTSecret}
	users := newFakeUserRepo()
	prefs := newFakePrefRepo()
	votes := newFakeVoteRepo()

	return &handlerFixture{
		handler: NewAPIHandler(users, prefs, votes, nil, nil, nil, nil, cfg),
		users:   users,
		prefs:   prefs,
		votes:   votes,
		cfg:     cfg,
	}
}

// registerAndLogin registers a user through the handlers and returns their
// session token.
func (f *handlerFixture) registerAndLogin(t *testing.T, name, email, password string) string {
	t.Helper()

	rec := httptest.NewRecorder()
	f.handler.RegisterHandler(rec, jsonRequest(t, http.MethodPost, "/api/auth/register", map[string]string{
		"name": name, "email": email, "password": password,
	}))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	f.handler.LoginHandler(rec, jsonRequest(t, http.MethodPost, "/api/auth/login", map[string]string{
		"email": email, "password": password,
	}))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.NotEmpty(t, body.Token)
	return body.Token
}

// do runs a request through AuthMiddleware into next, attaching the token if
// one is given.
func (f *handlerFixture) do(t *testing.T, next http.HandlerFunc, req *http.Request, token string) *httptest.ResponseRecorder {
	t.Helper()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.handler.AuthMiddleware(next)(rec, req)
	return rec
}

func jsonRequest(t *testing.T, method, path string, body interface{}) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, json.NewEncoder(&buf).Encode(body))
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}
