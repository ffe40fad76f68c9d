package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"math"
	"net/url"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/go-pkgz/lgr"
	"github.com/go-pkgz/repeater"
	"github.com/jessevdk/go-flags"
	"golang.org/x/sync/errgroup"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/umputun/should-i-play/app/champions"
	"github.com/umputun/should-i-play/app/predictor"
	"github.com/umputun/should-i-play/app/storage"
	"github.com/umputun/should-i-play/app/storage/engine"
	"github.com/umputun/should-i-play/app/webapi"
	"github.com/umputun/should-i-play/lib/bayes"
)

type options struct {
	DB  string `long:"db" env:"DB" default:"should-i-play.db" description:"database, sqlite file or postgres url"`
	GID string `long:"gid" env:"GID" default:"yasuo" description:"group id of stored matches, the champion played"`

	Server struct {
		Listen     string  `long:"listen" env:"LISTEN" default:":8000" description:"listen address"`
		AuthPasswd string  `long:"auth" env:"AUTH" default:"" description:"basic auth password for write endpoints, user should-i-play"`
		Rate       float64 `long:"rate" env:"RATE" default:"50" description:"max requests per second per client"`
	} `group:"server" namespace:"server" env-namespace:"SERVER"`

	Import struct {
		File  string `long:"file" env:"FILE" description:"nedb datafile with matches to import on start"`
		Watch bool   `long:"watch" env:"WATCH" description:"import again and retrain on datafile change"`
	} `group:"import" namespace:"import" env-namespace:"IMPORT"`

	Retrain struct {
		Interval time.Duration `long:"interval" env:"INTERVAL" default:"0s" description:"retrain model from database periodically, 0 to disable"`
	} `group:"retrain" namespace:"retrain" env-namespace:"RETRAIN"`

	Champions struct {
		URL     string        `long:"url" env:"URL" default:"https://ddragon.leagueoflegends.com/cdn/10.6.1/data/en_US/champion.json" description:"champions data url"`
		Images  string        `long:"images" env:"IMAGES" default:"https://ddragon.leagueoflegends.com/cdn/img/champion/splash" description:"champion splash images base url"`
		Timeout time.Duration `long:"timeout" env:"TIMEOUT" default:"10s" description:"champions data http timeout"`
		TTL     time.Duration `long:"ttl" env:"TTL" default:"24h" description:"champions data cache ttl"`
	} `group:"champions" namespace:"champions" env-namespace:"CHAMPIONS"`

	Logger struct {
		Enabled    bool   `long:"enabled" env:"ENABLED" description:"enable predictions rotated logs"`
		FileName   string `long:"file" env:"FILE" default:"should-i-play.log" description:"location of predictions log"`
		MaxSize    string `long:"max-size" env:"MAX_SIZE" default:"100M" description:"maximum size before it gets rotated"`
		MaxBackups int    `long:"max-backups" env:"MAX_BACKUPS" default:"10" description:"maximum number of old log files to retain"`
	} `group:"logger" namespace:"logger" env-namespace:"LOGGER"`

	Convert string `long:"convert" env:"CONVERT" description:"write postgres sql dump of sqlite database to the file (- for stdout) and exit"`
	Dbg     bool   `long:"dbg" env:"DEBUG" description:"debug mode"`
}

var revision = "local"

func main() {
	fmt.Printf("should-i-play %s\n", revision)
	var opts options
	p := flags.NewParser(&opts, flags.PrintErrors|flags.PassDoubleDash|flags.HelpFlag)
	if _, err := p.Parse(); err != nil {
		var flagsErr *flags.Error
		if !errors.As(err, &flagsErr) || flagsErr.Type != flags.ErrHelp {
			log.Printf("[ERROR] cli error: %v", err)
		}
		os.Exit(2)
	}

	setupLog(opts.Dbg, opts.Server.AuthPasswd, dbPassword(opts.DB))
	log.Printf("[DEBUG] options: %+v", opts)

	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		// catch signal and invoke graceful termination
		stop := make(chan os.Signal, 1)
		signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
		<-stop
		log.Printf("[WARN] interrupt signal")
		cancel()
	}()

	if err := execute(ctx, opts); err != nil {
		log.Printf("[ERROR] %v", err)
		os.Exit(1)
	}
}

func execute(ctx context.Context, opts options) error {
	db, err := makeDB(ctx, opts)
	if err != nil {
		return err
	}
	defer db.Close()

	if opts.Convert != "" {
		return convert(ctx, db, opts.Convert)
	}

	matches, err := storage.NewMatches(ctx, db)
	if err != nil {
		return fmt.Errorf("can't make matches storage, %w", err)
	}
	pred := predictor.New(matches)

	if err = loadModel(ctx, pred, matches, opts.Import.File); err != nil {
		return err
	}

	loggerWr, err := makePredictionLogWriter(opts)
	if err != nil {
		return fmt.Errorf("can't make prediction log writer, %w", err)
	}
	defer loggerWr.Close()

	srv := webapi.NewServer(webapi.Config{
		Version:       revision,
		ListenAddr:    opts.Server.Listen,
		Predictor:     pred,
		Champions:     makeChampions(opts),
		PredictionLog: predictionLogger(opts, loggerWr),
		AuthPasswd:    opts.Server.AuthPasswd,
		RateLimit:     opts.Server.Rate,
		Dbg:           opts.Dbg,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.Run(gctx) })
	g.Go(func() error { return pred.Run(gctx, opts.Retrain.Interval) })
	if opts.Import.Watch && opts.Import.File != "" {
		g.Go(func() error { return pred.Watch(gctx, opts.Import.File) })
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("service failed, %w", err)
	}
	return nil
}

// makeDB connects to database, postgres connection is retried as the server may be still starting
func makeDB(ctx context.Context, opts options) (*engine.SQL, error) {
	repeats := 1
	if strings.HasPrefix(opts.DB, "postgres") {
		repeats = 5
	}

	var db *engine.SQL
	err := repeater.NewDefault(repeats, time.Second).Do(ctx, func() error {
		var e error
		if db, e = engine.New(ctx, opts.DB, opts.GID); e != nil {
			log.Printf("[WARN] can't connect to database, %v", e)
		}
		return e
	})
	if err == nil && db == nil {
		err = ctx.Err()
	}
	if err != nil {
		return nil, fmt.Errorf("can't make db engine, %w", err)
	}
	log.Printf("[INFO] database %s, type: %s, gid: %s", safeDBURL(opts.DB), db.Type(), db.GID())
	return db, nil
}

// loadModel imports nedb datafile if set and trains the initial model.
// Empty database is not an error, the api answers "not trained" until matches are recorded.
func loadModel(ctx context.Context, pred *predictor.Predictor, matches *storage.Matches, importFile string) error {
	if importFile != "" {
		fh, err := os.Open(importFile) //nolint:gosec // file name from cli
		if err != nil {
			return fmt.Errorf("can't open import file, %w", err)
		}
		stats, err := matches.ImportNeDB(ctx, fh)
		fh.Close()
		if stats == nil {
			return fmt.Errorf("can't import %s, %w", importFile, err)
		}
		if err != nil {
			log.Printf("[WARN] some records in %s skipped, %v", importFile, err)
		}
		log.Printf("[INFO] imported %s, %+v", importFile, *stats)
	}

	if err := pred.Reload(ctx); err != nil {
		if !errors.Is(err, bayes.ErrNoTrainingData) {
			return fmt.Errorf("can't load model, %w", err)
		}
		log.Printf("[WARN] no matches in database, predictions disabled until matches recorded and model reloaded")
	}
	return nil
}

// convert writes postgres dump of sqlite database to the file, "-" for stdout
func convert(ctx context.Context, db *engine.SQL, fileName string) (err error) {
	var wr io.Writer = os.Stdout
	if fileName != "-" {
		fh, ferr := os.Create(fileName) //nolint:gosec // file name from cli
		if ferr != nil {
			return fmt.Errorf("can't create %s, %w", fileName, ferr)
		}
		defer func() {
			if cerr := fh.Close(); cerr != nil && err == nil {
				err = cerr
			}
		}()
		wr = fh
	}
	if err = engine.NewConverter(db, storage.Tables...).SqliteToPostgres(ctx, wr); err != nil {
		return fmt.Errorf("can't convert database, %w", err)
	}
	log.Printf("[INFO] database converted to %s", fileName)
	return nil
}

func makeChampions(opts options) *champions.Client {
	return champions.New(champions.Config{
		URL:       opts.Champions.URL,
		ImagesURL: opts.Champions.Images,
		Timeout:   opts.Champions.Timeout,
		TTL:       opts.Champions.TTL,
	})
}

// predictionLogger returns nil if predictions log disabled, the server skips logging in this case
func predictionLogger(opts options, wr io.Writer) webapi.PredictionLogger {
	if !opts.Logger.Enabled {
		return nil
	}
	return makePredictionLogger(wr)
}

// makePredictionLogger creates logger of predictions, it writes json lines to the provided writer
func makePredictionLogger(wr io.Writer) webapi.PredictionLogger {
	return webapi.PredictionLoggerFunc(func(keys []int, odds predictor.Odds) {
		m := struct {
			TimeStamp string  `json:"ts"`
			Enemies   []int   `json:"enemies"`
			Positive  float64 `json:"positive"`
			Negative  float64 `json:"negative"`
		}{
			TimeStamp: time.Now().In(time.Local).Format(time.RFC3339),
			Enemies:   keys,
			Positive:  odds.Positive,
			Negative:  odds.Negative,
		}
		line, err := json.Marshal(&m)
		if err != nil {
			log.Printf("[WARN] can't marshal json, %v", err)
			return
		}
		if _, err := wr.Write(append(line, '\n')); err != nil {
			log.Printf("[WARN] can't write to log, %v", err)
		}
	})
}

// makePredictionLogWriter creates log writer to keep predictions
// it parses options and makes lumberjack logger with rotation
func makePredictionLogWriter(opts options) (accessLog io.WriteCloser, err error) {
	if !opts.Logger.Enabled {
		return nopWriteCloser{io.Discard}, nil
	}

	maxSize, perr := sizeParse(opts.Logger.MaxSize)
	if perr != nil {
		return nil, fmt.Errorf("can't parse logger MaxSize: %w", perr)
	}

	maxSize /= 1048576

	log.Printf("[INFO] logger enabled for %s, max size %dM", opts.Logger.FileName, maxSize)
	return &lumberjack.Logger{
		Filename:   opts.Logger.FileName,
		MaxSize:    int(maxSize), //nolint:gosec // in MB, can't overflow
		MaxBackups: opts.Logger.MaxBackups,
		Compress:   true,
		LocalTime:  true,
	}, nil
}

// sizeParse parses size with k/m/g/t suffix into bytes
func sizeParse(inp string) (uint64, error) {
	if inp == "" {
		return 0, errors.New("empty value")
	}
	for i, sfx := range []string{"k", "m", "g", "t"} {
		if strings.HasSuffix(inp, strings.ToUpper(sfx)) || strings.HasSuffix(inp, strings.ToLower(sfx)) {
			val, err := strconv.Atoi(inp[:len(inp)-1])
			if err != nil {
				return 0, fmt.Errorf("can't parse %s: %w", inp, err)
			}
			return uint64(float64(val) * math.Pow(float64(1024), float64(i+1))), nil
		}
	}
	return strconv.ParseUint(inp, 10, 64)
}

// dbPassword extracts password from postgres url, to hide it in logs
func dbPassword(dbURL string) string {
	u, err := url.Parse(dbURL)
	if err != nil || u.User == nil {
		return ""
	}
	passwd, _ := u.User.Password()
	return passwd
}

// safeDBURL returns database url without password
func safeDBURL(dbURL string) string {
	u, err := url.Parse(dbURL)
	if err != nil || u.User == nil {
		return dbURL
	}
	return u.Redacted()
}

type nopWriteCloser struct{ io.Writer }

func (n nopWriteCloser) Close() error { return nil }

func setupLog(dbg bool, secrets ...string) {
	logOpts := []lgr.Option{lgr.Msec, lgr.LevelBraces, lgr.StackTraceOnError}
	if dbg {
		logOpts = []lgr.Option{lgr.Debug, lgr.CallerFile, lgr.CallerFunc, lgr.Msec, lgr.LevelBraces, lgr.StackTraceOnError}
	}

	colorizer := lgr.Mapper{
		ErrorFunc:  func(s string) string { return color.New(color.FgHiRed).Sprint(s) },
		WarnFunc:   func(s string) string { return color.New(color.FgRed).Sprint(s) },
		InfoFunc:   func(s string) string { return color.New(color.FgYellow).Sprint(s) },
		DebugFunc:  func(s string) string { return color.New(color.FgWhite).Sprint(s) },
		CallerFunc: func(s string) string { return color.New(color.FgBlue).Sprint(s) },
		TimeFunc:   func(s string) string { return color.New(color.FgCyan).Sprint(s) },
	}
	logOpts = append(logOpts, lgr.Map(colorizer))

	nonEmpty := make([]string, 0, len(secrets))
	for _, s := range secrets {
		if s != "" {
			nonEmpty = append(nonEmpty, s)
		}
	}
	if len(nonEmpty) > 0 {
		logOpts = append(logOpts, lgr.Secret(nonEmpty...))
	}
	lgr.SetupStdLogger(logOpts...)
	lgr.Setup(logOpts...)
}
