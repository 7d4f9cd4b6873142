package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"cropadvisor/models"
	"cropadvisor/recommend"
	"cropadvisor/store"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var testNow = time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)

const testSecret = "test-secret"

type fakeUsers struct {
	mu   sync.Mutex
	byID map[primitive.ObjectID]*models.User
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{byID: map[primitive.ObjectID]*models.User{}}
}

func (f *fakeUsers) Create(ctx context.Context, u *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	for _, other := range f.byID {
		if other.Email == u.Email {
			return store.ErrDuplicate
		}
	}
	u.ID = primitive.NewObjectID()
	cp := *u
	f.byID[u.ID] = &cp
	return nil
}

func (f *fakeUsers) ByEmail(ctx context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byID {
		if u.Email == strings.ToLower(strings.TrimSpace(email)) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *fakeUsers) ByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUsers) PhoneTaken(ctx context.Context, phone string, except primitive.ObjectID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, u := range f.byID {
		if id != except && u.Phone == phone {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeUsers) UpdateProfile(ctx context.Context, id primitive.ObjectID, p store.ProfileUpdate) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	if p.Name != nil {
		u.Name = *p.Name
	}
	if p.Phone != nil {
		u.Phone = *p.Phone
	}
	if p.Location != nil {
		u.Location = *p.Location
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUsers) SetActive(ctx context.Context, id primitive.ObjectID, active bool) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	u.IsActive = active
	cp := *u
	return &cp, nil
}

func (f *fakeUsers) TouchLogin(ctx context.Context, id primitive.ObjectID, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.byID[id]; ok {
		u.LastLogin = at
	}
	return nil
}

func (f *fakeUsers) List(ctx context.Context, q store.UserQuery) ([]models.User, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var all []models.User
	s := strings.ToLower(q.Search)
	for _, u := range f.byID {
		if s == "" || strings.Contains(strings.ToLower(u.Name), s) || strings.Contains(u.Email, s) {
			all = append(all, *u)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Email < all[j].Email })
	return window(all, q.Page), int64(len(all)), nil
}

func (f *fakeUsers) Delete(ctx context.Context, id primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[id]; !ok {
		return store.ErrNotFound
	}
	delete(f.byID, id)
	return nil
}

func (f *fakeUsers) Counts(ctx context.Context) (int64, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var active int64
	for _, u := range f.byID {
		if u.IsActive {
			active++
		}
	}
	return int64(len(f.byID)), active, nil
}

func (f *fakeUsers) RegistrationsByMonth(ctx context.Context, since time.Time) ([]store.MonthlyCount, error) {
	n, _, _ := f.Counts(ctx)
	return []store.MonthlyCount{{Year: testNow.Year(), Month: int(testNow.Month()), Count: n}}, nil
}

type fakeRecs struct {
	mu        sync.Mutex
	items     []models.Recommendation
	deleteErr error // returned by DeleteByUser when set
}

func (f *fakeRecs) Create(ctx context.Context, r *models.Recommendation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r.ID = primitive.NewObjectID()
	f.items = append(f.items, *r)
	return nil
}

func (f *fakeRecs) ByIDForUser(ctx context.Context, id, userID primitive.ObjectID) (*models.Recommendation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.items {
		if r.ID == id && r.UserID == userID {
			cp := r
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *fakeRecs) owned(userID *primitive.ObjectID) []models.Recommendation {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Recommendation
	for i := len(f.items) - 1; i >= 0; i-- {
		if userID == nil || f.items[i].UserID == *userID {
			out = append(out, f.items[i])
		}
	}
	return out
}

func (f *fakeRecs) ListForUser(ctx context.Context, userID primitive.ObjectID, p store.Page) ([]models.Recommendation, int64, error) {
	all := f.owned(&userID)
	return window(all, p), int64(len(all)), nil
}

func (f *fakeRecs) List(ctx context.Context, p store.Page) ([]models.Recommendation, int64, error) {
	all := f.owned(nil)
	return window(all, p), int64(len(all)), nil
}

func (f *fakeRecs) AllForUser(ctx context.Context, userID primitive.ObjectID) ([]models.Recommendation, error) {
	return f.owned(&userID), nil
}

func (f *fakeRecs) Recent(ctx context.Context, limit int) ([]models.Recommendation, error) {
	return window(f.owned(nil), store.Page{Page: 1, Limit: limit}), nil
}

func (f *fakeRecs) DeleteForUser(ctx context.Context, id, userID primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, r := range f.items {
		if r.ID == id && r.UserID == userID {
			f.items = append(f.items[:i], f.items[i+1:]...)
			return nil
		}
	}
	return store.ErrNotFound
}

func (f *fakeRecs) DeleteByUser(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return 0, f.deleteErr
	}
	kept := f.items[:0]
	var n int64
	for _, r := range f.items {
		if r.UserID == userID {
			n++
			continue
		}
		kept = append(kept, r)
	}
	f.items = kept
	return n, nil
}

func (f *fakeRecs) Count(ctx context.Context, userID *primitive.ObjectID) (int64, error) {
	return int64(len(f.owned(userID))), nil
}

func (f *fakeRecs) MonthlyCounts(ctx context.Context, userID *primitive.ObjectID, since time.Time) ([]store.MonthlyCount, error) {
	counts := map[[2]int]int64{}
	for _, r := range f.owned(userID) {
		if !r.CreatedAt.Before(since) {
			counts[[2]int{r.CreatedAt.Year(), int(r.CreatedAt.Month())}]++
		}
	}
	out := []store.MonthlyCount{}
	for k, n := range counts {
		out = append(out, store.MonthlyCount{Year: k[0], Month: k[1], Count: n})
	}
	return out, nil
}

func (f *fakeRecs) TopCrops(ctx context.Context, userID *primitive.ObjectID, limit int) ([]store.CropCount, error) {
	counts := map[string]int64{}
	for _, r := range f.owned(userID) {
		for _, name := range r.CropNames() {
			counts[name]++
		}
	}
	out := []store.CropCount{}
	for name, n := range counts {
		out = append(out, store.CropCount{Name: name, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeRecs) SoilDistribution(ctx context.Context, userID *primitive.ObjectID) ([]store.SoilCount, error) {
	counts := map[string]int64{}
	for _, r := range f.owned(userID) {
		counts[r.SoilType]++
	}
	out := []store.SoilCount{}
	for soil, n := range counts {
		out = append(out, store.SoilCount{SoilType: soil, Count: n})
	}
	return out, nil
}

func (f *fakeRecs) TopUsers(ctx context.Context, limit int) ([]store.UserUsage, error) {
	counts := map[primitive.ObjectID]int64{}
	for _, r := range f.owned(nil) {
		counts[r.UserID]++
	}
	out := []store.UserUsage{}
	for id, n := range counts {
		out = append(out, store.UserUsage{UserID: id, RecommendationCount: n})
	}
	return out, nil
}

func window[T any](all []T, p store.Page) []T {
	p = p.Normalize()
	start := int(p.Skip())
	if start >= len(all) {
		return []T{}
	}
	end := start + p.Limit
	if end > len(all) {
		end = len(all)
	}
	return all[start:end]
}

type staticWeather struct{}

func (staticWeather) Current(ctx context.Context, lat, lon float64) models.Weather {
	return fallbackWeather
}

type testEnv struct {
	app   *App
	h     http.Handler
	users *fakeUsers
	recs  *fakeRecs
}

func newTestEnv(t *testing.T, remote recommend.Remote) *testEnv {
	t.Helper()
	users, recs := newFakeUsers(), &fakeRecs{}
	clock := func() time.Time { return testNow }
	app := &App{
		cfg: &Config{
			JWTSecret:   testSecret,
			JWTTTL:      time.Hour,
			Env:         "test",
			CORSOrigins: []string{"http://localhost:3000"},
			AI:          AIConfig{Timeout: 30 * time.Second, HealthTimeout: 5 * time.Second},
			RateLimit:   RateLimitConfig{Requests: 1000, Window: time.Minute},
		},
		users:   users,
		recs:    recs,
		advisor: recommend.NewAdvisor(remote, recommend.WithClock(clock), recommend.WithLogger(zap.NewNop())),
		weather: staticWeather{},
		limiter: newIPLimiter(1000, time.Minute),
		now:     clock,
	}
	return &testEnv{app: app, h: app.routes(), users: users, recs: recs}
}

// addUser stores an account with password "secret1" and returns it with a token.
func (e *testEnv) addUser(t *testing.T, email string, role models.Role) (*models.User, string) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("secret1"), bcrypt.MinCost)
	require.NoError(t, err)
	u := &models.User{
		Name:         "Test " + string(role),
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
		IsActive:     true,
		CreatedAt:    testNow,
	}
	require.NoError(t, e.users.Create(context.Background(), u))
	tok, err := signJWT(testSecret, time.Hour, u, testNow)
	require.NoError(t, err)
	return u, tok
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(b))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.h.ServeHTTP(rec, req)
	return rec
}

type testEnvelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Errors  []fieldError    `json:"errors"`
	Error   string          `json:"error"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) testEnvelope {
	t.Helper()
	var env testEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return env
}

func errorFields(env testEnvelope) []string {
	out := make([]string, 0, len(env.Errors))
	for _, e := range env.Errors {
		out = append(out, e.Field)
	}
	return out
}
