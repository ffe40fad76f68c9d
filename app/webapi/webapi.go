// Package webapi provides http server answering win/loss odds for enemy champions.
// It serves the prediction api, champion search for the ui, model management and the embedded ui itself.
package webapi

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/didip/tollbooth/v8"
	"github.com/didip/tollbooth/v8/limiter"
	"github.com/go-pkgz/lgr"
	"github.com/go-pkgz/rest"
	"github.com/go-pkgz/routegroup"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/umputun/should-i-play/app/champions"
	"github.com/umputun/should-i-play/app/predictor"
	"github.com/umputun/should-i-play/app/storage"
	"github.com/umputun/should-i-play/lib/bayes"
)

//go:generate moq --out mocks/predictor.go --pkg mocks --with-resets --skip-ensure . Predictor
//go:generate moq --out mocks/champions.go --pkg mocks --with-resets --skip-ensure . Champions
//go:generate moq --out mocks/prediction_logger.go --pkg mocks --with-resets --skip-ensure . PredictionLogger

//go:embed assets/*
var assetsFS embed.FS

const authUser = "should-i-play"

// Server is a web API server.
type Server struct {
	Config
	validate *validator.Validate
}

// Config defines server parameters
type Config struct {
	Version       string           // version to show in /ping
	ListenAddr    string           // listen address
	Predictor     Predictor        // win/loss predictor
	Champions     Champions        // champions metadata
	PredictionLog PredictionLogger // optional log of predictions
	AuthPasswd    string           // basic auth password for user "should-i-play", protects write endpoints
	RateLimit     float64          // max requests per second per ip, 0 for default
	Dbg           bool             // debug mode
}

// Predictor answers odds and manages training data
type Predictor interface {
	Predict(keys []int) (predictor.Odds, error)
	Record(ctx context.Context, match storage.Match) (storage.Match, error)
	Reload(ctx context.Context) error
	Stats() predictor.Stats
}

// Champions provides champions metadata
type Champions interface {
	Search(ctx context.Context, prefix string) ([]champions.Champion, error)
	ByKey(ctx context.Context, key int) (champions.Champion, error)
}

// PredictionLogger saves predictions
type PredictionLogger interface {
	Save(keys []int, odds predictor.Odds)
}

// PredictionLoggerFunc is a function adapter for PredictionLogger
type PredictionLoggerFunc func(keys []int, odds predictor.Odds)

// Save calls f(keys, odds)
func (f PredictionLoggerFunc) Save(keys []int, odds predictor.Odds) { f(keys, odds) }

// championRef is an enemy champion in prediction request, only the key is used for prediction
type championRef struct {
	Name string `json:"name"`
	Key  int    `json:"key" validate:"gt=0"`
}

// predictRequest is a list of enemy champions, an empty list asks for the overall win rate
type predictRequest struct {
	Champions []championRef `validate:"max=5,dive"`
}

type matchRequest struct {
	ID      string `json:"id" validate:"omitempty,max=64"`
	Enemies []int  `json:"enemies" validate:"min=1,max=5,dive,gt=0"`
	Win     bool   `json:"win"`
}

// NewServer creates a new web API server.
func NewServer(config Config) *Server {
	return &Server{Config: config, validate: validator.New()}
}

// Run starts server and accepts prediction requests until the context is canceled.
func (s *Server) Run(ctx context.Context) error {
	if s.AuthPasswd != "" {
		log.Printf("[INFO] basic auth enabled for webapi write endpoints")
	} else {
		log.Printf("[WARN] basic auth disabled, write endpoints are not protected")
	}

	srv := &http.Server{Addr: s.ListenAddr, Handler: s.router(), ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout: 5 * time.Second, WriteTimeout: 30 * time.Second, IdleTimeout: 30 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("[WARN] failed to shutdown webapi server: %v", err)
		} else {
			log.Printf("[INFO] webapi server stopped")
		}
	}()

	log.Printf("[INFO] start webapi server on %s", s.ListenAddr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to run server: %w", err)
	}
	return nil
}

// router makes http handler with all middlewares and routes
func (s *Server) router() http.Handler {
	rate := s.RateLimit
	if rate <= 0 {
		rate = 50
	}
	lmt := tollbooth.NewLimiter(rate, nil)
	lmt.SetIPLookup(limiter.IPLookup{Name: "RemoteAddr"})

	router := routegroup.New(http.NewServeMux())
	router.Use(rest.Recoverer(lgr.Default()), rest.Throttle(1000))
	router.Use(rest.AppInfo("should-i-play", "umputun", s.Version), rest.Ping)
	router.Use(tollbooth.HTTPMiddleware(lmt))
	router.Use(rest.SizeLimit(1024 * 1024)) // 1M max request size
	return s.routes(router)
}

func (s *Server) routes(router *routegroup.Bundle) *routegroup.Bundle {
	router.HandleFunc("POST /api", s.predictHandler) // predict odds for enemy champions

	router.Mount("/api").Route(func(api *routegroup.Bundle) {
		api.HandleFunc("GET /champions", s.searchChampionsHandler)   // search champions by name prefix
		api.HandleFunc("GET /champions/{key}", s.getChampionHandler) // get champion by key
		api.HandleFunc("GET /model", s.modelStatsHandler)            // get model stats

		authAPI := api.With(s.authMiddleware(rest.BasicAuthWithUserPasswd(authUser, s.AuthPasswd)))
		authAPI.HandleFunc("POST /matches", s.recordMatchHandler) // record played match
		authAPI.HandleFunc("PUT /model", s.reloadModelHandler)    // retrain model from stored matches
	})

	router.Handle("GET /metrics", promhttp.Handler())

	// web ui
	router.HandleFunc("GET /", s.assetHandler("assets/index.html"))
	router.HandleFunc("GET /site.js", s.assetHandler("assets/site.js"))
	router.HandleFunc("GET /styles.css", s.assetHandler("assets/styles.css"))
	return router
}

// predictHandler handles POST /api request.
// It gets a list of enemy champions [{"name":"Yasuo","key":157}] and returns {"positive":..., "negative":...} percentages.
func (s *Server) predictHandler(w http.ResponseWriter, r *http.Request) {
	req := predictRequest{}
	if err := json.NewDecoder(r.Body).Decode(&req.Champions); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		rest.RenderJSON(w, rest.JSON{"error": "can't decode request", "details": err.Error()})
		log.Printf("[WARN] can't decode request: %v", err)
		return
	}
	if req.Champions == nil {
		w.WriteHeader(http.StatusBadRequest)
		rest.RenderJSON(w, rest.JSON{"error": "invalid request", "details": "champions list expected"})
		return
	}
	if err := s.validate.Struct(req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		rest.RenderJSON(w, rest.JSON{"error": "invalid request", "details": err.Error()})
		return
	}

	keys := make([]int, 0, len(req.Champions))
	for _, ch := range req.Champions {
		keys = append(keys, ch.Key)
	}

	odds, err := s.Predictor.Predict(keys)
	if err != nil {
		if errors.Is(err, bayes.ErrNotTrained) {
			w.WriteHeader(http.StatusServiceUnavailable)
			rest.RenderJSON(w, rest.JSON{"error": "model is not trained yet", "details": err.Error()})
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
		rest.RenderJSON(w, rest.JSON{"error": "can't predict", "details": err.Error()})
		return
	}
	log.Printf("[DEBUG] prediction for %v: %+v", keys, odds)
	if s.PredictionLog != nil {
		s.PredictionLog.Save(keys, odds)
	}
	rest.RenderJSON(w, odds)
}

// searchChampionsHandler handles GET /api/champions?q=prefix request
func (s *Server) searchChampionsHandler(w http.ResponseWriter, r *http.Request) {
	res, err := s.Champions.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		w.WriteHeader(http.StatusBadGateway)
		rest.RenderJSON(w, rest.JSON{"error": "can't load champions", "details": err.Error()})
		return
	}
	rest.RenderJSON(w, res)
}

// getChampionHandler handles GET /api/champions/{key} request
func (s *Server) getChampionHandler(w http.ResponseWriter, r *http.Request) {
	key, err := strconv.Atoi(r.PathValue("key"))
	if err != nil || key <= 0 {
		w.WriteHeader(http.StatusBadRequest)
		rest.RenderJSON(w, rest.JSON{"error": "invalid champion key", "key": r.PathValue("key")})
		return
	}
	ch, err := s.Champions.ByKey(r.Context(), key)
	if err != nil {
		code := http.StatusBadGateway
		if errors.Is(err, champions.ErrNotFound) {
			code = http.StatusNotFound
		}
		w.WriteHeader(code)
		rest.RenderJSON(w, rest.JSON{"error": "can't get champion", "details": err.Error()})
		return
	}
	rest.RenderJSON(w, ch)
}

// modelStatsHandler handles GET /api/model request
func (s *Server) modelStatsHandler(w http.ResponseWriter, _ *http.Request) {
	rest.RenderJSON(w, s.Predictor.Stats())
}

// recordMatchHandler handles POST /api/matches request, stores a played match {"enemies":[157,238],"win":true}.
// The model is not retrained, call PUT /api/model to apply.
func (s *Server) recordMatchHandler(w http.ResponseWriter, r *http.Request) {
	req := matchRequest{}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		rest.RenderJSON(w, rest.JSON{"error": "can't decode request", "details": err.Error()})
		return
	}
	if err := s.validate.Struct(req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		rest.RenderJSON(w, rest.JSON{"error": "invalid request", "details": err.Error()})
		return
	}

	match, err := s.Predictor.Record(r.Context(), storage.Match{ExtID: req.ID, Enemies: req.Enemies, Win: req.Win})
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		rest.RenderJSON(w, rest.JSON{"error": "can't record match", "details": err.Error()})
		return
	}
	log.Printf("[INFO] match recorded, id: %s, win: %v, enemies: %v", match.ExtID, match.Win, match.Enemies)
	rest.RenderJSON(w, rest.JSON{"recorded": true, "match": match})
}

// reloadModelHandler handles PUT /api/model request, it retrains the model from stored matches
func (s *Server) reloadModelHandler(w http.ResponseWriter, r *http.Request) {
	if err := s.Predictor.Reload(r.Context()); err != nil {
		code := http.StatusInternalServerError
		if errors.Is(err, bayes.ErrNoTrainingData) {
			code = http.StatusConflict
		}
		w.WriteHeader(code)
		rest.RenderJSON(w, rest.JSON{"error": "can't reload model", "details": err.Error()})
		return
	}
	rest.RenderJSON(w, rest.JSON{"reloaded": true, "stats": s.Predictor.Stats()})
}

// assetHandler serves embedded ui file
func (s *Server) assetHandler(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		http.ServeFileFS(w, r, assetsFS, name)
	}
}

func (s *Server) authMiddleware(mw func(next http.Handler) http.Handler) func(next http.Handler) http.Handler {
	if s.AuthPasswd == "" {
		return func(next http.Handler) http.Handler {
			return next
		}
	}
	return func(next http.Handler) http.Handler {
		return mw(next)
	}
}
