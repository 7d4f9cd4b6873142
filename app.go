package main

import (
	"context"
	"os"
	"time"

	"cropadvisor/models"
	"cropadvisor/recommend"
	"cropadvisor/store"

	"github.com/rotisserie/eris"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type userStore interface {
	Create(ctx context.Context, u *models.User) error
	ByEmail(ctx context.Context, email string) (*models.User, error)
	ByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	PhoneTaken(ctx context.Context, phone string, except primitive.ObjectID) (bool, error)
	UpdateProfile(ctx context.Context, id primitive.ObjectID, p store.ProfileUpdate) (*models.User, error)
	SetActive(ctx context.Context, id primitive.ObjectID, active bool) (*models.User, error)
	TouchLogin(ctx context.Context, id primitive.ObjectID, at time.Time) error
	List(ctx context.Context, q store.UserQuery) ([]models.User, int64, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	Counts(ctx context.Context) (total, active int64, err error)
	RegistrationsByMonth(ctx context.Context, since time.Time) ([]store.MonthlyCount, error)
}

type recommendationStore interface {
	Create(ctx context.Context, r *models.Recommendation) error
	ByIDForUser(ctx context.Context, id, userID primitive.ObjectID) (*models.Recommendation, error)
	ListForUser(ctx context.Context, userID primitive.ObjectID, p store.Page) ([]models.Recommendation, int64, error)
	List(ctx context.Context, p store.Page) ([]models.Recommendation, int64, error)
	AllForUser(ctx context.Context, userID primitive.ObjectID) ([]models.Recommendation, error)
	Recent(ctx context.Context, limit int) ([]models.Recommendation, error)
	DeleteForUser(ctx context.Context, id, userID primitive.ObjectID) error
	DeleteByUser(ctx context.Context, userID primitive.ObjectID) (int64, error)
	Count(ctx context.Context, userID *primitive.ObjectID) (int64, error)
	MonthlyCounts(ctx context.Context, userID *primitive.ObjectID, since time.Time) ([]store.MonthlyCount, error)
	TopCrops(ctx context.Context, userID *primitive.ObjectID, limit int) ([]store.CropCount, error)
	SoilDistribution(ctx context.Context, userID *primitive.ObjectID) ([]store.SoilCount, error)
	TopUsers(ctx context.Context, limit int) ([]store.UserUsage, error)
}

type weatherProvider interface {
	Current(ctx context.Context, lat, lon float64) models.Weather
}

type App struct {
	cfg     *Config
	users   userStore
	recs    recommendationStore
	advisor *recommend.Advisor
	weather weatherProvider
	limiter *ipLimiter
	now     func() time.Time
	ping    func(context.Context) error
	close   func(context.Context) error
}

func newApp(ctx context.Context, cfg *Config) (*App, error) {
	st, err := store.Open(ctx, cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		return nil, err
	}
	if err := st.EnsureIndexes(ctx); err != nil {
		_ = st.Close(context.Background())
		return nil, err
	}

	if cfg.AI.APIBaseURL == "" {
		zap.L().Warn("AI_API_BASE_URL empty, serving fallback recommendations only")
	}
	advisor, err := newAdvisor(cfg.AI, false)
	if err != nil {
		_ = st.Close(context.Background())
		return nil, err
	}

	return &App{
		cfg:     cfg,
		users:   st.Users,
		recs:    st.Recommendations,
		advisor: advisor,
		weather: newWeatherClient(cfg.OpenWeather),
		limiter: newIPLimiter(cfg.RateLimit.Requests, cfg.RateLimit.Window),
		now:     time.Now,
		ping:    st.Ping,
		close:   st.Close,
	}, nil
}

// newAdvisor builds the recommendation advisor. The model client is skipped when
// offline or when no base URL is configured; AI_TABLES_FILE replaces the
// built-in rule tables.
func newAdvisor(ai AIConfig, offline bool) (*recommend.Advisor, error) {
	var opts []recommend.Option
	if ai.TablesFile != "" {
		data, err := os.ReadFile(ai.TablesFile)
		if err != nil {
			return nil, eris.Wrap(err, "config: read rule tables")
		}
		tables, err := recommend.ParseTables(data)
		if err != nil {
			return nil, eris.Wrapf(err, "config: rule tables %s", ai.TablesFile)
		}
		opts = append(opts, recommend.WithTables(tables))
	}

	var remote recommend.Remote
	if !offline && ai.APIBaseURL != "" {
		remote = recommend.NewHTTPClient(ai.APIBaseURL,
			recommend.WithTimeouts(ai.Timeout, ai.HealthTimeout))
	}
	return recommend.NewAdvisor(remote, opts...), nil
}
