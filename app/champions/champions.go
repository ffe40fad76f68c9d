// Package champions provides champion metadata from Riot Data Dragon, names, titles and splash images.
// The catalog is cached in memory, fetched with retries and protected by a circuit breaker,
// the last good catalog is served when Data Dragon is not available.
package champions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	cache "github.com/go-pkgz/expirable-cache/v3"
	"github.com/go-pkgz/repeater"
	"github.com/sony/gobreaker/v2"
)

// ErrNotFound is returned for unknown champion key
var ErrNotFound = errors.New("champion not found")

// Champion is a champion metadata
type Champion struct {
	ID    string `json:"id"`  // ddragon id, used in image names, e.g. MonkeyKing
	Key   int    `json:"key"` // numeric key, the feature used by predictor
	Name  string `json:"name"`
	Title string `json:"title"`
	Image string `json:"image"` // splash image url
}

// Config defines client parameters
type Config struct {
	URL        string        // champion.json url
	ImagesURL  string        // base url of splash images
	Timeout    time.Duration // http timeout for a single request
	TTL        time.Duration // how long the catalog is cached
	Retries    int           // number of fetch attempts
	RetryDelay time.Duration // delay between attempts
}

// Client loads champions catalog from Data Dragon
type Client struct {
	Config
	httpClient *http.Client
	cache      cache.Cache[string, *catalog]
	breaker    *gobreaker.CircuitBreaker[*catalog]
	last       atomic.Pointer[catalog] // last good catalog, served if upstream fails
}

type catalog struct {
	list  []Champion // sorted by name
	byKey map[int]Champion
}

// ddragonResponse is a subset of champion.json
type ddragonResponse struct {
	Version string `json:"version"`
	Data    map[string]struct {
		ID    string `json:"id"`
		Key   string `json:"key"`
		Name  string `json:"name"`
		Title string `json:"title"`
	} `json:"data"`
}

// New makes a client with defaults for missing config values
func New(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 24 * time.Hour
	}
	if cfg.Retries <= 0 {
		cfg.Retries = 3
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = time.Second
	}
	cfg.ImagesURL = strings.TrimSuffix(cfg.ImagesURL, "/")

	res := &Client{
		Config:     cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		cache:      cache.NewCache[string, *catalog]().WithTTL(cfg.TTL).WithMaxKeys(1),
	}
	res.breaker = gobreaker.NewCircuitBreaker[*catalog](gobreaker.Settings{
		Name:        "ddragon",
		MaxRequests: 1,
		Timeout:     time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Printf("[INFO] circuit breaker %s: %s -> %s", name, from, to)
		},
	})
	return res
}

// All returns all champions sorted by name
func (c *Client) All(ctx context.Context) ([]Champion, error) {
	cat, err := c.catalog(ctx)
	if err != nil {
		return nil, err
	}
	res := make([]Champion, len(cat.list))
	copy(res, cat.list)
	return res, nil
}

// Search returns champions with the name starting with prefix, case-insensitive, sorted by name.
// Empty prefix matches nothing.
func (c *Client) Search(ctx context.Context, prefix string) ([]Champion, error) {
	prefix = strings.ToLower(strings.TrimSpace(prefix))
	if prefix == "" {
		return []Champion{}, nil
	}
	cat, err := c.catalog(ctx)
	if err != nil {
		return nil, err
	}
	res := []Champion{}
	for _, ch := range cat.list {
		if strings.HasPrefix(strings.ToLower(ch.Name), prefix) {
			res = append(res, ch)
		}
	}
	return res, nil
}

// ByKey returns champion by numeric key, ErrNotFound for unknown key
func (c *Client) ByKey(ctx context.Context, key int) (Champion, error) {
	cat, err := c.catalog(ctx)
	if err != nil {
		return Champion{}, err
	}
	ch, ok := cat.byKey[key]
	if !ok {
		return Champion{}, fmt.Errorf("%w: %d", ErrNotFound, key)
	}
	return ch, nil
}

// ImageURL returns splash image url for champion id
func (c *Client) ImageURL(id string) string {
	return c.ImagesURL + "/" + id + "_0.jpg"
}

func (c *Client) catalog(ctx context.Context) (*catalog, error) {
	if cat, ok := c.cache.Get(c.URL); ok {
		return cat, nil
	}

	cat, err := c.breaker.Execute(func() (*catalog, error) {
		var res *catalog
		err := repeater.NewDefault(c.Retries, c.RetryDelay).Do(ctx, func() error {
			var e error
			res, e = c.fetch(ctx)
			if e != nil {
				log.Printf("[DEBUG] failed to fetch champions: %v", e)
			}
			return e
		})
		if err == nil && res == nil { // canceled before the first attempt
			err = fmt.Errorf("champions not fetched: %w", context.Cause(ctx))
		}
		return res, err
	})
	if err != nil {
		if last := c.last.Load(); last != nil {
			log.Printf("[WARN] can't refresh champions, serving cached list: %v", err)
			return last, nil
		}
		return nil, fmt.Errorf("failed to load champions: %w", err)
	}

	c.cache.Set(c.URL, cat, 0)
	c.last.Store(cat)
	return cat, nil
}

func (c *Client) fetch(ctx context.Context) (*catalog, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to get %s: %w", c.URL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("unexpected status %d from %s", resp.StatusCode, c.URL)
	}

	var dd ddragonResponse
	if err = json.NewDecoder(resp.Body).Decode(&dd); err != nil {
		return nil, fmt.Errorf("failed to decode champions: %w", err)
	}
	if len(dd.Data) == 0 {
		return nil, errors.New("no champions in response")
	}

	res := &catalog{list: make([]Champion, 0, len(dd.Data)), byKey: make(map[int]Champion, len(dd.Data))}
	for name, d := range dd.Data {
		key, e := strconv.Atoi(d.Key)
		if e != nil {
			log.Printf("[WARN] skip champion %s with bad key %q", name, d.Key)
			continue
		}
		ch := Champion{ID: d.ID, Key: key, Name: d.Name, Title: d.Title, Image: c.ImageURL(d.ID)}
		res.list = append(res.list, ch)
		res.byKey[key] = ch
	}
	sort.Slice(res.list, func(i, j int) bool { return res.list[i].Name < res.list[j].Name })
	log.Printf("[INFO] loaded %d champions, version %s", len(res.list), dd.Version)
	return res, nil
}
