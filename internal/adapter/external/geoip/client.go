package geoip

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/Riesling1623/honeydash/internal/entity"
)

// Lookup results reported to the OnLookup hook
const (
	ResultCache   = "cache"
	ResultStatic  = "static"
	ResultPrivate = "private"
	ResultStore   = "store"
	ResultAPI     = "api"
	ResultError   = "error"
)

// Store persists resolved locations across restarts
type Store interface {
	GetBatch(ctx context.Context, ips []string) (map[string]*entity.GeoLocation, error)
	Store(ctx context.Context, ip string, geo *entity.GeoLocation) error
}

// Client provides geolocation lookups for IP addresses.
// Uses ip-api.com (free tier: 45 requests/minute) behind a local cache.
type Client struct {
	httpClient *http.Client
	cache      *geoCache
	limiter    *rate.Limiter
	static     StaticTable
	store      Store
	config     Config
	logger     *slog.Logger
}

// Config holds GeoIP client configuration
type Config struct {
	// APIURL is the ip-api.com compatible JSON endpoint; the IP is appended as a path segment
	APIURL string
	// CacheTTL is how long to cache geolocation results
	CacheTTL time.Duration
	// Timeout for HTTP requests
	Timeout time.Duration
	// MaxCacheSize is the maximum number of entries in the cache
	MaxCacheSize int
	// RatePerMinute caps provider requests; zero disables the provider
	RatePerMinute int
	// MapPrivate resolves private addresses through the static table
	MapPrivate bool
	// OnLookup is called with one of the Result* values per resolved or failed IP
	OnLookup func(result string)
}

// DefaultConfig returns sensible default configuration
func DefaultConfig() Config {
	return Config{
		APIURL:        "http://ip-api.com/json",
		CacheTTL:      24 * time.Hour,
		Timeout:       5 * time.Second,
		MaxCacheSize:  1000,
		RatePerMinute: 45,
		MapPrivate:    true,
	}
}

// geoCache provides thread-safe caching for geolocation results
type geoCache struct {
	mu      sync.RWMutex
	entries map[string]*cacheEntry
	maxSize int
}

type cacheEntry struct {
	data      *entity.GeoLocation
	expiresAt time.Time
}

func newGeoCache(maxSize int) *geoCache {
	if maxSize <= 0 {
		maxSize = 1
	}
	return &geoCache{
		entries: make(map[string]*cacheEntry),
		maxSize: maxSize,
	}
}

func (c *geoCache) Get(ip string) (*entity.GeoLocation, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[ip]
	if !ok || time.Now().After(entry.expiresAt) {
		return nil, false
	}
	return entry.data, true
}

func (c *geoCache) Set(ip string, data *entity.GeoLocation, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[ip]; !exists && len(c.entries) >= c.maxSize {
		c.evictLocked()
	}

	c.entries[ip] = &cacheEntry{
		data:      data,
		expiresAt: time.Now().Add(ttl),
	}
}

// evictLocked drops expired entries, then roughly 10% of the rest
func (c *geoCache) evictLocked() {
	now := time.Now()
	for key, entry := range c.entries {
		if now.After(entry.expiresAt) {
			delete(c.entries, key)
		}
	}
	if len(c.entries) < c.maxSize {
		return
	}

	toDelete := c.maxSize / 10
	if toDelete < 1 {
		toDelete = 1
	}
	count := 0
	for key := range c.entries {
		delete(c.entries, key)
		count++
		if count >= toDelete {
			break
		}
	}
}

func (c *geoCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// NewClient creates a new GeoIP client. static may be nil for no pinned
// entries and store may be nil to disable persistence.
func NewClient(config Config, static StaticTable, store Store, logger *slog.Logger) *Client {
	var limiter *rate.Limiter
	if config.RatePerMinute > 0 {
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(config.RatePerMinute)), config.RatePerMinute)
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		cache:   newGeoCache(config.MaxCacheSize),
		limiter: limiter,
		static:  static,
		store:   store,
		config:  config,
		logger:  logger,
	}
}

// ipAPIResponse represents the response from ip-api.com
type ipAPIResponse struct {
	Status      string   `json:"status"`
	Message     string   `json:"message"`
	Country     string   `json:"country"`
	CountryCode string   `json:"countryCode"`
	RegionName  string   `json:"regionName"`
	City        string   `json:"city"`
	Lat         *float64 `json:"lat"`
	Lon         *float64 `json:"lon"`
	Timezone    string   `json:"timezone"`
	ISP         string   `json:"isp"`
	Query       string   `json:"query"`
}

// LookupLocal resolves ip without any network or database access
func (c *Client) LookupLocal(ip string) (*entity.GeoLocation, string, bool) {
	if cached, ok := c.cache.Get(ip); ok {
		return cached, ResultCache, true
	}
	if geo, ok := c.static.Find(ip); ok {
		return geo, ResultStatic, true
	}
	if c.config.MapPrivate {
		if geo, ok := c.static.MapPrivate(ip); ok {
			return geo, ResultPrivate, true
		}
	}
	return nil, "", false
}

// Lookup performs a geolocation lookup for a single IP address
func (c *Client) Lookup(ctx context.Context, ip string) (*entity.GeoLocation, error) {
	results := c.LookupBatch(ctx, []string{ip})
	if geo, ok := results[ip]; ok {
		return geo, nil
	}
	return nil, fmt.Errorf("no location for %s", ip)
}

// LookupBatch resolves ips, leaving out any that cannot be located
func (c *Client) LookupBatch(ctx context.Context, ips []string) map[string]*entity.GeoLocation {
	results := make(map[string]*entity.GeoLocation, len(ips))

	var pending []string
	seen := make(map[string]struct{}, len(ips))
	for _, ip := range ips {
		if _, dup := seen[ip]; dup {
			continue
		}
		seen[ip] = struct{}{}

		if geo, source, ok := c.LookupLocal(ip); ok {
			results[ip] = geo
			c.record(source)
			continue
		}
		pending = append(pending, ip)
	}

	if len(pending) > 0 && c.store != nil {
		stored, err := c.store.GetBatch(ctx, pending)
		if err != nil {
			c.logger.Warn("Failed to read stored geolocations", "error", err)
		}
		remaining := pending[:0]
		for _, ip := range pending {
			if geo, ok := stored[ip]; ok {
				results[ip] = geo
				c.cache.Set(ip, geo, c.config.CacheTTL)
				c.record(ResultStore)
				continue
			}
			remaining = append(remaining, ip)
		}
		pending = remaining
	}

	for _, ip := range pending {
		geo, err := c.fetch(ctx, ip)
		if err != nil {
			c.logger.Warn("Geolocation lookup failed", "ip", ip, "error", err)
			c.record(ResultError)
			if ctx.Err() != nil {
				break
			}
			continue
		}

		results[ip] = geo
		c.cache.Set(ip, geo, c.config.CacheTTL)
		c.record(ResultAPI)

		if c.store != nil {
			if err := c.store.Store(ctx, ip, geo); err != nil {
				c.logger.Warn("Failed to persist geolocation", "ip", ip, "error", err)
			}
		}
	}

	return results
}

func (c *Client) fetch(ctx context.Context, ip string) (*entity.GeoLocation, error) {
	if c.limiter == nil || c.config.APIURL == "" {
		return nil, fmt.Errorf("geolocation provider disabled")
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	url := fmt.Sprintf("%s/%s?fields=status,message,country,countryCode,regionName,city,lat,lon,timezone,isp,query",
		strings.TrimRight(c.config.APIURL, "/"), ip)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("geoip lookup failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geoip api returned status %d", resp.StatusCode)
	}

	var apiResp ipAPIResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	if apiResp.Status != "success" {
		return nil, fmt.Errorf("geoip lookup failed: %s", apiResp.Message)
	}

	return &entity.GeoLocation{
		Country:     orUnknown(apiResp.Country),
		CountryCode: apiResp.CountryCode,
		City:        orUnknown(apiResp.City),
		Region:      orUnknown(apiResp.RegionName),
		Latitude:    apiResp.Lat,
		Longitude:   apiResp.Lon,
		ISP:         orUnknown(apiResp.ISP),
		Timezone:    orUnknown(apiResp.Timezone),
	}, nil
}

func (c *Client) record(result string) {
	if c.config.OnLookup != nil {
		c.config.OnLookup(result)
	}
}

func orUnknown(s string) string {
	if s == "" {
		return "Unknown"
	}
	return s
}

// CacheSize returns the number of cached provider results
func (c *Client) CacheSize() int {
	return c.cache.Size()
}
