package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"

	"github.com/dzhang123/DynaCard/internal/adapters/http/api"
	"github.com/dzhang123/DynaCard/internal/adapters/repository"
	app "github.com/dzhang123/DynaCard/internal/app"
	"github.com/dzhang123/DynaCard/internal/config"
	"github.com/dzhang123/DynaCard/pkg/logger"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func TestOpenStore(t *testing.T) {
	convey.Convey("Given the store settings", t, func() {
		ctx := context.Background()

		convey.Convey("When the memory store is configured", func() {
			cfg := config.New()
			store, err := openStore(ctx, cfg)

			convey.Convey("Then an in-memory store is returned", func() {
				convey.So(err, convey.ShouldBeNil)
				_, ok := store.(*repository.MemoryStore)
				convey.So(ok, convey.ShouldBeTrue)
				convey.So(store.Close(), convey.ShouldBeNil)
			})
		})

		convey.Convey("When the sqlite store is configured", func() {
			cfg := config.New()
			cfg.Store = config.StoreSQLite
			cfg.SQLitePath = filepath.Join(t.TempDir(), "cards.db")
			store, err := openStore(ctx, cfg)

			convey.Convey("Then the database file is created", func() {
				convey.So(err, convey.ShouldBeNil)
				defer store.Close()
				_, ok := store.(*repository.SQLiteStore)
				convey.So(ok, convey.ShouldBeTrue)
				_, statErr := os.Stat(cfg.SQLitePath)
				convey.So(statErr, convey.ShouldBeNil)
			})
		})

		convey.Convey("When the sqlite path cannot be opened", func() {
			cfg := config.New()
			cfg.Store = config.StoreSQLite
			cfg.SQLitePath = filepath.Join(t.TempDir(), "missing", "dir", "cards.db")
			_, err := openStore(ctx, cfg)

			convey.Convey("Then an error is returned", func() {
				convey.So(err, convey.ShouldNotBeNil)
			})
		})
	})
}

func TestSetupLogging(t *testing.T) {
	convey.Convey("Given logging settings", t, func() {
		convey.Reset(func() { _ = logger.Init() })

		convey.Convey("When json output goes to a file", func() {
			cfg := config.New()
			cfg.LogFormat = "json"
			cfg.LogFile = filepath.Join(t.TempDir(), "dynacard.log")
			convey.So(setupLogging(cfg), convey.ShouldBeNil)
			logger.Get().Info(context.Background(), "hello")
			convey.So(logger.Sync(), convey.ShouldBeNil)

			convey.Convey("Then the file holds a json line", func() {
				b, err := os.ReadFile(cfg.LogFile)
				convey.So(err, convey.ShouldBeNil)
				convey.So(string(b), convey.ShouldContainSubstring, `"msg":"hello"`)
			})
		})

		convey.Convey("When the format is unknown", func() {
			cfg := config.New()
			cfg.LogFormat = "xml"
			convey.So(setupLogging(cfg), convey.ShouldNotBeNil)
		})
	})
}

func TestMainApplicationComponents(t *testing.T) {
	convey.Convey("Given main application components", t, func() {
		convey.Convey("When running the metrics updaters until their context ends", func() {
			svc := app.New()
			ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
			defer cancel()

			convey.So(func() { startSystemMetricsUpdater(ctx) }, convey.ShouldNotPanic)
			convey.So(func() { startServiceMetricsUpdater(ctx, svc) }, convey.ShouldNotPanic)
		})

		convey.Convey("When updating metrics directly", func() {
			svc := app.New(app.WithWorkerCount(2))
			convey.So(svc.Start(context.Background()), convey.ShouldBeNil)
			defer func() { _ = svc.Stop(context.Background()) }()

			convey.So(updateSystemMetrics, convey.ShouldNotPanic)
			convey.So(func() { updateServiceMetrics(svc) }, convey.ShouldNotPanic)
		})
	})
}

func TestMainApplicationIntegration(t *testing.T) {
	convey.Convey("Given the wiring used by main", t, func() {
		_ = os.Setenv("DYNACARD_WORKER_COUNT", "2")
		_ = os.Setenv("DYNACARD_QUEUE_SIZE", "100")
		convey.Reset(func() {
			_ = os.Unsetenv("DYNACARD_WORKER_COUNT")
			_ = os.Unsetenv("DYNACARD_QUEUE_SIZE")
		})

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		cfg, err := config.Load(ctx)
		convey.So(err, convey.ShouldBeNil)
		store, err := openStore(ctx, cfg)
		convey.So(err, convey.ShouldBeNil)

		svc := app.New(
			app.WithWorkerCount(cfg.WorkerCount),
			app.WithQueueSize(cfg.QueueSize),
			app.WithMinAcceptableWeight(cfg.MinAcceptableWeight),
			app.WithStore(store),
		)
		convey.So(svc.Start(ctx), convey.ShouldBeNil)
		defer func() { _ = svc.Stop(context.Background()) }()

		handler := api.NewServer(svc, svc).Handler(ctx)

		convey.Convey("Then the HTTP surface answers", func() {
			for _, path := range []string{"/healthz", "/stats", "/openapi.yaml"} {
				w := httptest.NewRecorder()
				handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
				convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
			}
			convey.So(svc.GetStats()["workerCount"], convey.ShouldEqual, 2)
		})
	})
}
