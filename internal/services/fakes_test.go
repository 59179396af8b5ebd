package services

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/hubfolio/hubfolio-backend/internal/storage"
	"github.com/hubfolio/hubfolio-backend/internal/types"
)

type fakeObjectStore struct {
	objects  map[string][]byte
	getErr   error
	putErr   error
	putCalls int
	lastKey  string
}

func newFakeObjectStore() *fakeObjectStore {
	return &fakeObjectStore{objects: map[string][]byte{}}
}

func (f *fakeObjectStore) Get(ctx context.Context, key string) ([]byte, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	data, ok := f.objects[key]
	if !ok {
		return nil, storage.ErrObjectNotFound
	}
	return data, nil
}

func (f *fakeObjectStore) Put(ctx context.Context, key string, data []byte, contentType string) error {
	if f.putErr != nil {
		return f.putErr
	}
	f.putCalls++
	f.lastKey = key
	f.objects[key] = data
	return nil
}

func (f *fakeObjectStore) Exists(ctx context.Context, key string) (bool, error) {
	_, ok := f.objects[key]
	return ok, nil
}

func (f *fakeObjectStore) Stat(ctx context.Context, key string) (*storage.ObjectInfo, error) {
	data, ok := f.objects[key]
	if !ok {
		return nil, storage.ErrObjectNotFound
	}
	return &storage.ObjectInfo{Key: key, Size: int64(len(data)), LastModified: time.Now()}, nil
}

func (f *fakeObjectStore) List(ctx context.Context, prefix string) ([]storage.ObjectInfo, error) {
	var out []storage.ObjectInfo
	for k, v := range f.objects {
		if len(k) >= len(prefix) && k[:len(prefix)] == prefix {
			out = append(out, storage.ObjectInfo{Key: k, Size: int64(len(v))})
		}
	}
	return out, nil
}

func (f *fakeObjectStore) Remove(ctx context.Context, key string) error {
	delete(f.objects, key)
	return nil
}

func (f *fakeObjectStore) EnsureBucket(ctx context.Context) error { return nil }

func (f *fakeObjectStore) Ping(ctx context.Context) bool { return true }

type fakeUserRepo struct {
	upsertCalls int
	upsertErrAt map[int]error
	lastUser    *types.User
	existing    map[int64]bool
	existsErr   error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{existing: map[int64]bool{}, upsertErrAt: map[int]error{}}
}

func (f *fakeUserRepo) Upsert(ctx context.Context, tx *gorm.DB, user *types.User) error {
	f.upsertCalls++
	if err, ok := f.upsertErrAt[f.upsertCalls]; ok {
		return err
	}
	f.lastUser = user
	f.existing[user.UserID] = true
	return nil
}

func (f *fakeUserRepo) Exists(ctx context.Context, tx *gorm.DB, userID int64) (bool, error) {
	if f.existsErr != nil {
		return false, f.existsErr
	}
	return f.existing[userID], nil
}

type fakePortfolioRepo struct {
	createCalls      int
	createErrAt      map[int]error
	metricsCalls     int
	metricsErrAt     map[int]error
	withMetricsCalls int
	withMetricsErr   error
	lastPortfolio    *types.Portfolio
	nextID           int64
}

func newFakePortfolioRepo() *fakePortfolioRepo {
	return &fakePortfolioRepo{createErrAt: map[int]error{}, metricsErrAt: map[int]error{}}
}

func (f *fakePortfolioRepo) Create(ctx context.Context, tx *gorm.DB, portfolio *types.Portfolio) error {
	f.createCalls++
	if err, ok := f.createErrAt[f.createCalls]; ok {
		return err
	}
	f.nextID++
	portfolio.PortfolioID = f.nextID
	f.lastPortfolio = portfolio
	return nil
}

func (f *fakePortfolioRepo) CalculateMetrics(ctx context.Context, tx *gorm.DB, portfolioID int64) error {
	f.metricsCalls++
	if err, ok := f.metricsErrAt[f.metricsCalls]; ok {
		return err
	}
	return nil
}

func (f *fakePortfolioRepo) CreateWithMetrics(ctx context.Context, portfolio *types.Portfolio) (int64, error) {
	f.withMetricsCalls++
	if f.withMetricsErr != nil {
		return 0, f.withMetricsErr
	}
	f.nextID++
	portfolio.PortfolioID = f.nextID
	f.lastPortfolio = portfolio
	return f.nextID, nil
}

type fakePredictionRepo struct {
	createCalls    int
	createErr      error
	lastPrediction *types.Prediction
}

func (f *fakePredictionRepo) Create(ctx context.Context, tx *gorm.DB, prediction *types.Prediction) error {
	f.createCalls++
	if f.createErr != nil {
		return f.createErr
	}
	prediction.PredictionID = int64(f.createCalls)
	f.lastPrediction = prediction
	return nil
}

type fakeTelemetry struct {
	calls      int
	lastUserID int64
	lastResult *types.PredictionResult
	result     DeliveryResult
}

func (f *fakeTelemetry) ForwardPrediction(ctx context.Context, userID int64, result *types.PredictionResult) DeliveryResult {
	f.calls++
	f.lastUserID = userID
	f.lastResult = result
	return f.result
}

type fakeModel struct {
	output float64
	err    error
	lastIn []float64
}

func (f *fakeModel) Predict(features []float64) (float64, error) {
	f.lastIn = features
	if f.err != nil {
		return 0, f.err
	}
	return f.output, nil
}
