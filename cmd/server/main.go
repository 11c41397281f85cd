package main

import (
	"os"
	"path/filepath"

	"github.com/getsentry/raven-go"
	"github.com/sirupsen/logrus"

	"stopwatch/backend/internal/api"
	"stopwatch/backend/internal/config"
	"stopwatch/backend/internal/metrics"
	"stopwatch/backend/internal/prefs"
	"stopwatch/backend/internal/store"
	"stopwatch/backend/internal/util"
)

// version is injected at build time.
var version string

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("load configuration: %v", err)
	}

	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logrus.SetLevel(level)
	} else {
		logrus.WithField("level", cfg.LogLevel).Warn("unknown log level; using info")
	}

	reportErrors := false
	if cfg.SentryDSN != "" {
		if err := raven.SetDSN(cfg.SentryDSN); err != nil {
			logrus.WithError(err).Warn("configure sentry")
		} else {
			raven.SetRelease(version)
			reportErrors = true
		}
	}

	hook := metrics.NewNoopCommandHook()
	if cfg.StatsdAddr != "" {
		logrus.WithFields(logrus.Fields{
			"addr":        cfg.StatsdAddr,
			"sample_rate": cfg.StatsdRate,
		}).Info("configuring statsd metrics reporting")
		if hook, err = metrics.NewAsyncStatsdCommandHook(cfg.StatsdAddr, cfg.StatsdRate, version); err != nil {
			logrus.Fatalf("create statsd hook: %v", err)
		}
	} else {
		logrus.Debug("no statsd address configured; disabling metrics")
	}
	defer func() {
		if err := hook.Close(); err != nil {
			logrus.WithError(err).Warn("close metrics hook")
		}
	}()

	prefStore, closeStore, err := openPreferenceStore(cfg)
	if err != nil {
		logrus.Fatalf("open preference store: %v", err)
	}
	defer closeStore()

	manager, err := prefs.Load(prefStore)
	if err != nil {
		logrus.Fatalf("load preferences: %v", err)
	}

	server, err := api.NewServer(api.Config{
		Preferences:    manager,
		Clock:          util.SystemClock{},
		TickInterval:   cfg.TickInterval,
		AllowedOrigins: cfg.AllowedOrigins,
		Hook:           hook,
		ReportErrors:   reportErrors,
	})
	if err != nil {
		logrus.Fatalf("create server: %v", err)
	}
	defer server.Close()

	router, err := server.Router()
	if err != nil {
		logrus.Fatalf("configure router: %v", err)
	}

	logrus.Infof("starting stopwatch backend on :%s", cfg.Port)
	if err := router.Run(":" + cfg.Port); err != nil {
		logrus.Fatalf("server exited: %v", err)
	}
}

// openPreferenceStore returns the configured preference backend and a function releasing it.
func openPreferenceStore(cfg config.Config) (prefs.Store, func(), error) {
	switch cfg.PrefsBackend {
	case config.PrefsYAML:
		path := cfg.PrefsFile
		if path == "" {
			defaultPath, err := prefs.DefaultFilePath()
			if err != nil {
				return nil, nil, err
			}
			path = defaultPath
		}
		fileStore, err := prefs.NewFileStore(path)
		if err != nil {
			return nil, nil, err
		}
		logrus.WithField("path", path).Info("using YAML preference file")
		return fileStore, func() {}, nil
	case config.PrefsMemory:
		logrus.Warn("preferences are kept in memory and will not survive a restart")
		return prefs.NewMemoryStore(), func() {}, nil
	default:
		if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
			return nil, nil, err
		}
		db, err := store.Open(cfg.DBPath, cfg.SilentDB)
		if err != nil {
			return nil, nil, err
		}
		logrus.WithField("path", cfg.DBPath).Info("using SQLite preference store")
		return db, func() {
			if err := db.Close(); err != nil {
				logrus.WithError(err).Warn("close database")
			}
		}, nil
	}
}
