// Command envquery loads the configured environment databases and override
// files, answers one query and prints the result as JSON.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/mohammed-shakir/seaenv/internal/backing/deck41"
	"github.com/mohammed-shakir/seaenv/internal/backing/gebco"
	"github.com/mohammed-shakir/seaenv/internal/backing/results"
	"github.com/mohammed-shakir/seaenv/internal/backing/woa"
	"github.com/mohammed-shakir/seaenv/internal/cache/redisstore"
	"github.com/mohammed-shakir/seaenv/internal/core/config"
	"github.com/mohammed-shakir/seaenv/internal/core/geo"
	"github.com/mohammed-shakir/seaenv/internal/core/observability"
	"github.com/mohammed-shakir/seaenv/internal/logger"
	"github.com/mohammed-shakir/seaenv/internal/manager"
	"github.com/mohammed-shakir/seaenv/internal/metrics"
)

var Version = "dev"

type cfg struct {
	Query     string
	Tx        string
	Rx        string
	Time      string
	End       string
	Precision float64
	Samples   int
	Bearing   float64

	SSPFile        string
	BathymetryFile string
	SSP            string
	Bathymetry     string
	Sediment       string
	Altimetry      string
}

func main() {
	os.Exit(run())
}

func run() int {
	var c cfg
	flag.StringVar(&c.Query, "query", "bathymetry", "bathymetry, sediment, ssp, avg-ssp or altimetry")
	flag.StringVar(&c.Tx, "tx", "", "transmitter lat,lon[,depth]")
	flag.StringVar(&c.Rx, "rx", "", "receiver(s) lat,lon[,depth]; separate several with ';'")
	flag.StringVar(&c.Time, "time", "", "query time (RFC 3339); empty matches any time")
	flag.StringVar(&c.End, "end", "", "end of the avg-ssp interval (RFC 3339)")
	flag.Float64Var(&c.Precision, "precision", -1, "SSP depth precision in m; negative uses SEAENV_DEPTH_PRECISION")
	flag.IntVar(&c.Samples, "samples", 0, "avg-ssp sample count; 0 uses SEAENV_AVG_SSP_SAMPLES")
	flag.Float64Var(&c.Bearing, "bearing", 0, "bearing in degrees of file overrides")
	flag.StringVar(&c.SSPFile, "ssp-file", "", "SSP override file")
	flag.StringVar(&c.BathymetryFile, "bathymetry-file", "", "bathymetry override file, anchored at -tx")
	flag.StringVar(&c.SSP, "ssp", "", "global SSP override \"<N>|<depth>|<speed>...\"")
	flag.StringVar(&c.Bathymetry, "bathymetry", "", "bathymetry override \"<N>|<range>|<depth>...\" along -bearing from -tx")
	flag.StringVar(&c.Sediment, "sediment", "", "global sediment override \"<type>|<vel_c>|<vel_s>|<density>|<att_c>|<att_s>\"")
	flag.StringVar(&c.Altimetry, "altimetry", "", "global altimetry override \"<N>|<range>|<height>...\"")
	flag.Parse()

	env := config.FromEnv()
	if c.Precision < 0 {
		c.Precision = env.DepthPrecision
	}
	if c.Samples <= 0 {
		c.Samples = env.AvgSamples
	}

	zl := logger.Build(logger.Config{
		Level:     env.LogLevel,
		Console:   env.LogConsole,
		SampleN:   env.LogSampleN,
		Run:       env.Run,
		Component: "envquery",
	}, os.Stderr)
	appLog := logger.NewSlog(&zl)
	observability.SetRun(env.Run)

	prov, err := metrics.Init(metrics.Config{
		Enabled:  env.MetricsFile != "",
		Textfile: env.MetricsFile,
		Build:    metrics.BuildInfo{Version: Version},
	})
	if err != nil {
		appLog.Error("metrics init failed", "err", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx = logger.WithRun(logger.WithQueryID(ctx, ""), env.Run)

	mgr, err := open(ctx, env, appLog)
	if err != nil {
		appLog.Error("environment setup failed", "err", err)
		return 1
	}
	defer func() {
		if err := mgr.Close(); err != nil {
			appLog.Warn("close environment", "err", err)
		}
		if env.MetricsFile != "" {
			if err := prov.WriteTextfile(); err != nil {
				appLog.Warn("metrics textfile", "err", err)
			}
		}
	}()

	if err := importOverrides(mgr, c); err != nil {
		appLog.Error("override import failed", "err", err)
		return 1
	}

	out, err := answer(ctx, mgr, c)
	if err != nil {
		appLog.Error("query failed", "query", c.Query, "err", err)
		return 1
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		appLog.Error("encode result", "err", err)
		return 1
	}
	return 0
}

// open builds a manager over every database env names a path for.
func open(ctx context.Context, env config.Config, log *slog.Logger) (*manager.Manager, error) {
	opts := []manager.Option{manager.WithLogger(log)}
	var opened []io.Closer
	fail := func(err error) (*manager.Manager, error) {
		for _, c := range opened {
			_ = c.Close()
		}
		return nil, err
	}

	if p := env.Data.GEBCO; p != "" {
		db, err := gebco.Open(p, gebco.WithResolution(env.Data.GEBCORes), gebco.WithMaxRing(env.Data.MaxRing), gebco.WithLogger(log))
		if err != nil {
			return fail(err)
		}
		opened = append(opened, db)
		opts = append(opts, manager.WithBathymetryDB(db))
	}
	if p := env.Data.WOA; p != "" {
		db, err := woa.Open(p, woa.WithResolution(env.Data.WOARes), woa.WithMaxRing(env.Data.MaxRing), woa.WithLogger(log))
		if err != nil {
			return fail(err)
		}
		opened = append(opened, db)
		opts = append(opts, manager.WithSSPDB(db))
	}
	if env.Data.SedimentConfigured() {
		db, err := deck41.Open(deck41.Paths{
			Points:        env.Data.DECK41Points,
			MarsdenOne:    env.Data.DECK41One,
			MarsdenSquare: env.Data.DECK41Square,
		}, deck41.WithRadius(env.Data.DECK41RadiusM), deck41.WithLogger(log))
		if err != nil {
			return fail(err)
		}
		opened = append(opened, db)
		opts = append(opts, manager.WithSedimentDB(db))
	}

	rs, err := resultStore(ctx, env.Results)
	if err != nil {
		return fail(err)
	}
	if rs != nil {
		ro := []results.Option{results.WithLogger(log), results.WithTimeout(env.Results.OpTimeout)}
		// one connection per cache keeps Close independent
		second, err := resultStore(ctx, env.Results)
		if err != nil {
			_ = rs.Close()
			return fail(err)
		}
		opts = append(opts,
			manager.WithArrivalDB(results.NewArrivals(rs, ro...)),
			manager.WithPressureDB(results.NewPressures(second, ro...)),
		)
	}
	return manager.New(opts...), nil
}

func resultStore(ctx context.Context, rc config.ResultsCfg) (results.Store, error) {
	switch rc.Backend {
	case "", "none":
		return nil, nil
	case results.LRUBackend:
		return results.NewLRU(rc.LRUSize), nil
	case redisstore.Backend:
		return redisstore.New(ctx, rc.RedisAddr,
			redisstore.WithDB(rc.RedisDB),
			redisstore.WithPrefix(rc.Prefix),
			redisstore.WithTTL(rc.TTL),
		)
	}
	return nil, fmt.Errorf("unknown results backend %q", rc.Backend)
}

func importOverrides(m *manager.Manager, c cfg) error {
	bearing := geo.NormalizeAngle(c.Bearing * deg)
	t, err := parseTime(c.Time)
	if err != nil {
		return err
	}
	if c.SSP != "" {
		if err := m.ImportSSP(geo.AnyPoint, anyBearing, anyRange, t, c.SSP); err != nil {
			return err
		}
	}
	if c.Sediment != "" {
		if err := m.ImportSediment(geo.AnyPoint, anyBearing, anyRange, c.Sediment); err != nil {
			return err
		}
	}
	if c.Altimetry != "" {
		if err := m.ImportAltimetry(geo.AnyPoint, anyBearing, anyRange, t, c.Altimetry); err != nil {
			return err
		}
	}
	if c.Bathymetry != "" || c.BathymetryFile != "" {
		tx, err := parsePoint(c.Tx)
		if err != nil {
			return fmt.Errorf("bathymetry override anchor: %w", err)
		}
		if c.Bathymetry != "" {
			if err := m.ImportBathymetry(tx, bearing, c.Bathymetry); err != nil {
				return err
			}
		}
		if c.BathymetryFile != "" {
			if err := importFile(c.BathymetryFile, func(r io.Reader) error {
				return m.ImportBathymetryFile(tx, bearing, r)
			}); err != nil {
				return err
			}
		}
	}
	if c.SSPFile != "" {
		if err := importFile(c.SSPFile, func(r io.Reader) error {
			return m.ImportSSPFile(r, bearing, t)
		}); err != nil {
			return err
		}
	}
	return nil
}

func importFile(path string, fn func(io.Reader) error) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()
	return fn(f)
}

func answer(ctx context.Context, m *manager.Manager, c cfg) (any, error) {
	tx, err := parsePoint(c.Tx)
	if err != nil {
		return nil, fmt.Errorf("tx: %w", err)
	}
	rxs, err := parsePoints(c.Rx)
	if err != nil {
		return nil, fmt.Errorf("rx: %w", err)
	}
	t, err := parseTime(c.Time)
	if err != nil {
		return nil, err
	}
	rx := rxs[0]

	var (
		v     any
		found bool
	)
	switch strings.ToLower(c.Query) {
	case "bathymetry":
		if len(rxs) > 1 {
			v, found = m.BathymetryAlong(ctx, tx, rxs)
		} else {
			v, found = m.Bathymetry(ctx, tx, rx)
		}
	case "sediment":
		if len(rxs) > 1 {
			v, found, err = m.SedimentAlong(ctx, tx, rxs)
		} else {
			v, found, err = m.Sediment(ctx, tx, rx)
		}
	case "ssp":
		v, found = m.SSP(ctx, tx, rx, t, c.Precision)
	case "avg-ssp":
		end, perr := parseTime(c.End)
		if perr != nil {
			return nil, perr
		}
		v, found, err = m.AverageSSP(ctx, tx, rx, t, end, c.Samples, c.Precision)
	case "altimetry":
		v, found = m.Altimetry(ctx, tx, rx, t)
	default:
		return nil, fmt.Errorf("unknown query %q", c.Query)
	}
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, errNotFound
	}
	return result{Query: c.Query, Tx: tx, Rx: rxs, Value: v}, nil
}

var errNotFound = errors.New("not found")

type result struct {
	Query string      `json:"query"`
	Tx    geo.Point   `json:"tx"`
	Rx    []geo.Point `json:"rx"`
	Value any         `json:"value"`
}

func parseTime(s string) (time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("time %q: %w", s, err)
	}
	return t, nil
}
