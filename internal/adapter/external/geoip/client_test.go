package geoip

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Riesling1623/honeydash/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockStore struct {
	mock.Mock
}

func (m *MockStore) GetBatch(ctx context.Context, ips []string) (map[string]*entity.GeoLocation, error) {
	args := m.Called(ctx, ips)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]*entity.GeoLocation), args.Error(1)
}

func (m *MockStore) Store(ctx context.Context, ip string, geo *entity.GeoLocation) error {
	args := m.Called(ctx, ip, geo)
	return args.Error(0)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func ipAPIServer(t *testing.T, hits *int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(hits, 1)
		ip := strings.TrimPrefix(r.URL.Path, "/json/")
		w.Header().Set("Content-Type", "application/json")
		switch ip {
		case "192.0.2.50":
			_, _ = w.Write([]byte(`{"status":"success","country":"Netherlands","countryCode":"NL","regionName":"North Holland","city":"Amsterdam","lat":52.37,"lon":4.89,"timezone":"Europe/Amsterdam","isp":"Example BV","query":"192.0.2.50"}`))
		case "192.0.2.99":
			_, _ = w.Write([]byte(`{"status":"fail","message":"reserved range","query":"192.0.2.99"}`))
		default:
			w.WriteHeader(http.StatusTooManyRequests)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testConfig(apiURL string) Config {
	cfg := DefaultConfig()
	cfg.APIURL = apiURL + "/json"
	cfg.RatePerMinute = 600
	return cfg
}

func TestLookupBatch_Sources(t *testing.T) {
	var hits int32
	srv := ipAPIServer(t, &hits)

	results := map[string]int{}
	cfg := testConfig(srv.URL)
	cfg.OnLookup = func(r string) { results[r]++ }

	client := NewClient(cfg, DefaultStaticTable(), nil, testLogger())
	got := client.LookupBatch(context.Background(), []string{"8.8.8.8", "10.0.0.13", "192.0.2.50", "192.0.2.99", "192.0.2.50"})

	require.Contains(t, got, "8.8.8.8")
	assert.Equal(t, "Mountain View", got["8.8.8.8"].City)

	// 13 % 10 = 3 -> fourth built-in entry
	require.Contains(t, got, "10.0.0.13")
	assert.Equal(t, "Moscow", got["10.0.0.13"].City)

	require.Contains(t, got, "192.0.2.50")
	assert.Equal(t, "Amsterdam", got["192.0.2.50"].City)
	require.NotNil(t, got["192.0.2.50"].Latitude)
	assert.InDelta(t, 52.37, *got["192.0.2.50"].Latitude, 0.001)

	assert.NotContains(t, got, "192.0.2.99")
	assert.Len(t, got, 3)
	assert.Equal(t, int32(2), atomic.LoadInt32(&hits))
	assert.Equal(t, map[string]int{ResultStatic: 1, ResultPrivate: 1, ResultAPI: 1, ResultError: 1}, results)
	assert.Equal(t, 1, client.CacheSize())

	// second round comes from the cache
	again := client.LookupBatch(context.Background(), []string{"192.0.2.50"})
	assert.Equal(t, got["192.0.2.50"], again["192.0.2.50"])
	assert.Equal(t, int32(2), atomic.LoadInt32(&hits))
	assert.Equal(t, 1, results[ResultCache])
}

func TestLookupBatch_PrivateMappingDisabled(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MapPrivate = false
	cfg.RatePerMinute = 0

	client := NewClient(cfg, DefaultStaticTable(), nil, testLogger())
	got := client.LookupBatch(context.Background(), []string{"192.168.1.4", "localhost"})
	assert.Empty(t, got)
}

func TestLookupBatch_Store(t *testing.T) {
	var hits int32
	srv := ipAPIServer(t, &hits)

	lat := 1.0
	stored := &entity.GeoLocation{Country: "Spain", CountryCode: "ES", Latitude: &lat}
	store := new(MockStore)
	store.On("GetBatch", mock.Anything, []string{"198.51.100.8", "192.0.2.50"}).
		Return(map[string]*entity.GeoLocation{"198.51.100.8": stored}, nil)
	store.On("Store", mock.Anything, "192.0.2.50", mock.AnythingOfType("*entity.GeoLocation")).Return(nil)

	client := NewClient(testConfig(srv.URL), nil, store, testLogger())
	got := client.LookupBatch(context.Background(), []string{"198.51.100.8", "192.0.2.50"})

	assert.Equal(t, stored, got["198.51.100.8"])
	assert.Equal(t, "Amsterdam", got["192.0.2.50"].City)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
	store.AssertExpectations(t)
}

func TestLookupBatch_StoreFailureFallsBackToAPI(t *testing.T) {
	var hits int32
	srv := ipAPIServer(t, &hits)

	store := new(MockStore)
	store.On("GetBatch", mock.Anything, mock.Anything).Return(nil, errors.New("clickhouse down"))
	store.On("Store", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("clickhouse down"))

	client := NewClient(testConfig(srv.URL), nil, store, testLogger())
	got := client.LookupBatch(context.Background(), []string{"192.0.2.50"})

	assert.Contains(t, got, "192.0.2.50")
}

func TestLookup_Cancelled(t *testing.T) {
	var hits int32
	srv := ipAPIServer(t, &hits)

	cfg := testConfig(srv.URL)
	cfg.RatePerMinute = 1
	client := NewClient(cfg, nil, nil, testLogger())

	_, err := client.Lookup(context.Background(), "192.0.2.50")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	got := client.LookupBatch(ctx, []string{"192.0.2.51", "192.0.2.52"})
	assert.Empty(t, got)
}

func TestStaticTable(t *testing.T) {
	table := DefaultStaticTable()
	require.Len(t, table, 10)

	geo, ok := table.Find("77.88.8.8")
	require.True(t, ok)
	assert.Equal(t, "FR", geo.CountryCode)

	_, ok = table.Find("4.4.4.4")
	assert.False(t, ok)

	geo, ok = table.MapPrivate("localhost")
	require.True(t, ok)
	assert.Equal(t, "Sydney", geo.City)

	geo, ok = table.MapPrivate("172.16.0.20")
	require.True(t, ok)
	assert.Equal(t, "Mountain View", geo.City)

	_, ok = table.MapPrivate("172.32.0.1")
	assert.False(t, ok)

	geo.City = "mutated"
	fresh, _ := table.MapPrivate("172.16.0.20")
	assert.Equal(t, "Mountain View", fresh.City)
}

func TestIsPrivate(t *testing.T) {
	for ip, want := range map[string]bool{
		"10.1.2.3":    true,
		"172.31.0.1":  true,
		"192.168.0.1": true,
		"127.0.0.1":   true,
		"::1":         true,
		"localhost":   true,
		"8.8.8.8":     false,
		"not-an-ip":   false,
	} {
		assert.Equal(t, want, IsPrivate(ip), ip)
	}
}

func TestLoadStaticTable(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "geo.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
- ip: 203.0.113.200
  country: Brazil
  country_code: BR
  city: São Paulo
  latitude: -23.55
  longitude: -46.63
- ip: 203.0.113.201
  country: Kenya
  country_code: KE
`), 0o644))

	table, err := LoadStaticTable(path)
	require.NoError(t, err)
	require.Len(t, table, 2)
	assert.Equal(t, "São Paulo", table[0].City)
	require.NotNil(t, table[0].Latitude)
	assert.InDelta(t, -23.55, *table[0].Latitude, 0.0001)
	assert.Nil(t, table[1].Latitude)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("- country: Nowhere\n"), 0o644))
	_, err = LoadStaticTable(bad)
	assert.Error(t, err)
}

func TestGeoCache_Eviction(t *testing.T) {
	cache := newGeoCache(10)
	for i := 0; i < 25; i++ {
		cache.Set(string(rune('a'+i)), &entity.GeoLocation{}, time.Hour)
	}
	assert.LessOrEqual(t, cache.Size(), 10)

	cache.Set("expired", &entity.GeoLocation{}, -time.Second)
	_, ok := cache.Get("expired")
	assert.False(t, ok)
}
