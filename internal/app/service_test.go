package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	service "github.com/dzhang123/DynaCard/internal/app"
	"github.com/dzhang123/DynaCard/internal/cardgen"
	"github.com/dzhang123/DynaCard/internal/domain/cycle"
	"github.com/dzhang123/DynaCard/internal/domain/model"
	"github.com/dzhang123/DynaCard/internal/domain/shape"
	"github.com/dzhang123/DynaCard/pkg/logger"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func header(well string) model.Header {
	return model.Header{WellID: well, Timestamp: "2024-01-02 03:04:05", DeviceSerial: "DEV-7", SensorSerial: "SEN-9"}
}

func TestService_New(t *testing.T) {
	Convey("Given a new service with default options", t, func() {
		svc := service.New()

		Convey("Then it reports sensible defaults before starting", func() {
			stats := svc.GetStats()
			So(stats["started"], ShouldEqual, false)
			So(stats["minAcceptableWeight"], ShouldEqual, shape.DefaultMinAcceptableWeight)
			So(svc.MaxHistoryLimit(), ShouldEqual, 500)
		})
	})

	Convey("Given a new service with custom options", t, func() {
		svc := service.New(
			service.WithWorkerCount(8),
			service.WithQueueSize(50_000),
			service.WithDedupeSize(25_000),
			service.WithMinAcceptableWeight(250),
			service.WithMaxHistoryLimit(20),
		)

		Convey("Then the options are applied", func() {
			stats := svc.GetStats()
			So(stats["workerCount"], ShouldEqual, 8)
			So(stats["queueSize"], ShouldEqual, 50_000)
			So(stats["dedupeSize"], ShouldEqual, 25_000)
			So(stats["minAcceptableWeight"], ShouldEqual, 250.0)
			So(svc.MaxHistoryLimit(), ShouldEqual, 20)
		})
	})

	Convey("Given invalid option values", t, func() {
		svc := service.New(
			service.WithWorkerCount(0),
			service.WithQueueSize(-1),
			service.WithMinAcceptableWeight(-3),
			service.WithMaxHistoryLimit(0),
		)

		Convey("Then they are ignored", func() {
			stats := svc.GetStats()
			So(stats["workerCount"], ShouldBeGreaterThan, 0)
			So(stats["queueSize"], ShouldEqual, 10000)
			So(stats["minAcceptableWeight"], ShouldEqual, shape.DefaultMinAcceptableWeight)
			So(svc.MaxHistoryLimit(), ShouldEqual, 500)
		})
	})
}

func TestService_Lifecycle(t *testing.T) {
	Convey("Given a service that was never started", t, func() {
		svc := service.New()
		ctx := context.Background()

		Convey("Then async operations report ErrNotStarted", func() {
			_, err := svc.Submit(ctx, model.Job{ID: "x"})
			So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
			_, err = svc.Result(ctx, "x")
			So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
			_, err = svc.History(ctx, "W1", 1)
			So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
		})

		Convey("And stopping it is a no-op", func() {
			So(svc.Stop(ctx), ShouldBeNil)
		})
	})

	Convey("Given a started service", t, func() {
		svc := service.New(service.WithWorkerCount(2))
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		So(svc.Start(ctx), ShouldBeNil)
		Reset(func() { _ = svc.Stop(context.Background()) })

		Convey("Then starting again is harmless", func() {
			So(svc.Start(ctx), ShouldBeNil)
			So(svc.GetStats()["started"], ShouldEqual, true)
			So(svc.GetStats()["queueLength"], ShouldEqual, 0)
		})

		Convey("Then it stops cleanly", func() {
			So(svc.Stop(ctx), ShouldBeNil)
			So(svc.GetStats()["started"], ShouldEqual, false)

			Convey("And it cannot be started again on its closed store", func() {
				So(errors.Is(svc.Start(ctx), service.ErrStopped), ShouldBeTrue)
				So(svc.GetStats()["started"], ShouldEqual, false)
				_, err := svc.Submit(ctx, model.Job{ID: "late"})
				So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
				So(svc.Stop(ctx), ShouldBeNil)
			})
		})
	})
}

func TestService_Classify(t *testing.T) {
	Convey("Given a service", t, func() {
		at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
		svc := service.New(service.WithClock(func() time.Time { return at }))
		ctx := context.Background()

		Convey("When a fluid pound card is classified synchronously", func() {
			r, err := svc.Classify(ctx, model.Job{Header: header("W1"), Samples: cardgen.New().Samples(cardgen.FluidPound)})

			Convey("Then the result carries the label, report and diagnostics", func() {
				So(err, ShouldBeNil)
				So(r.ID, ShouldNotBeEmpty)
				So(r.Label, ShouldEqual, shape.FluidPound)
				So(r.ClassifiedAt, ShouldEqual, at)
				So(len(r.Edges), ShouldEqual, 4)
				So(r.Properties, ShouldNotBeNil)

				rep := r.Report()
				So(rep.WellID, ShouldEqual, "W1")
				So(rep.PumpStatus, ShouldEqual, "fluid pound")
				So(rep.DeviceSerial, ShouldEqual, "DEV-7")
			})
		})

		Convey("When the card never returns to zero degrees", func() {
			r, err := svc.Classify(ctx, model.Job{Samples: model.Samples{{Position: 90, Displacement: 1, Load: 100}}})

			Convey("Then the domain error and its code are reported", func() {
				So(errors.Is(err, cycle.ErrNoCycleFound), ShouldBeTrue)
				So(r.ErrorCode, ShouldEqual, model.CodeNoCycleFound)
			})
		})

		Convey("When a job overrides the flowing well threshold", func() {
			samples := cardgen.New().Samples(cardgen.FullPump)
			above := cardgen.DefaultMaxLoad + 1
			r, err := svc.Classify(ctx, model.Job{Samples: samples, MinAcceptableWeight: &above})

			Convey("Then the override decides the label", func() {
				So(err, ShouldBeNil)
				So(r.Label, ShouldEqual, shape.FlowingWell)
				So(r.Edges, ShouldBeEmpty)
			})

			Convey("And without it the service threshold applies", func() {
				r, err := svc.Classify(ctx, model.Job{Samples: samples})
				So(err, ShouldBeNil)
				So(r.Label, ShouldEqual, shape.FullPump)
			})
		})
	})
}
