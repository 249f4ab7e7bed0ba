package repository_test

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/dzhang123/DynaCard/internal/adapters/repository"
	"github.com/dzhang123/DynaCard/internal/cardgen"
	"github.com/dzhang123/DynaCard/internal/domain/model"
	"github.com/dzhang123/DynaCard/internal/domain/shape"
)

var base = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

// classified runs the classifier over a generated card and returns the stored form.
func classified(id, well string, s cardgen.Shape, at time.Time) model.Result {
	samples := cardgen.New().Samples(s)
	job := model.Job{
		ID:          id,
		Header:      model.Header{WellID: well, Timestamp: "2024-03-01 12:00", DeviceSerial: "D-1", SensorSerial: "S-1"},
		Samples:     samples,
		SubmittedAt: at.Add(-time.Second),
	}
	out, err := shape.New().Classify(samples)
	return model.NewResult(job, out, err, at)
}

func failed(id, well string, at time.Time) model.Result {
	job := model.Job{ID: id, Header: model.Header{WellID: well}, SubmittedAt: at}
	out, err := shape.New().Classify(nil)
	return model.NewResult(job, out, err, at)
}

func storeBehaviour(newStore func() repository.Store) {
	ctx := context.Background()

	Convey("Given an empty store", func() {
		store := newStore()
		Reset(func() { _ = store.Close() })

		n, err := store.Count(ctx)
		So(err, ShouldBeNil)
		So(n, ShouldEqual, 0)

		Convey("When a classified result is saved", func() {
			r := classified("a", "W1", cardgen.FullPump, base)
			So(r.Label, ShouldEqual, shape.FullPump)
			So(store.Save(ctx, r), ShouldBeNil)

			Convey("Then it can be read back by id", func() {
				got, err := store.Get(ctx, "a")
				So(err, ShouldBeNil)
				So(got.ID, ShouldEqual, "a")
				So(got.Header, ShouldResemble, r.Header)
				So(got.Label, ShouldEqual, shape.FullPump)
				So(got.PumpStatus, ShouldEqual, "full pump")
				So(got.PeakLoad, ShouldEqual, r.PeakLoad)
				So(got.ErrorCode, ShouldEqual, "")
				So(got.ClassifiedAt.Equal(r.ClassifiedAt), ShouldBeTrue)
				So(got.SubmittedAt.Equal(r.SubmittedAt), ShouldBeTrue)
				So(got.Samples, ShouldResemble, r.Samples)
				So(got.Edges, ShouldResemble, r.Edges)
				So(got.Properties, ShouldResemble, r.Properties)
			})

			Convey("And the count is one", func() {
				n, err := store.Count(ctx)
				So(err, ShouldBeNil)
				So(n, ShouldEqual, 1)
			})

			Convey("And saving the same id replaces it", func() {
				So(store.Save(ctx, classified("a", "W1", cardgen.GasInterference, base.Add(time.Minute))), ShouldBeNil)
				got, err := store.Get(ctx, "a")
				So(err, ShouldBeNil)
				So(got.Label, ShouldEqual, shape.GasInterference)
				n, _ := store.Count(ctx)
				So(n, ShouldEqual, 1)
			})
		})

		Convey("When a failed result is saved", func() {
			So(store.Save(ctx, failed("bad", "W1", base)), ShouldBeNil)

			Convey("Then the error code survives and the label is unclassified", func() {
				got, err := store.Get(ctx, "bad")
				So(err, ShouldBeNil)
				So(got.Failed(), ShouldBeTrue)
				So(got.ErrorCode, ShouldEqual, model.CodeNoCycleFound)
				So(got.Label, ShouldEqual, shape.Unclassified)
				So(got.Edges, ShouldBeEmpty)
				So(got.Properties, ShouldBeNil)
				So(got.Samples, ShouldBeEmpty)
			})
		})

		Convey("When an unknown id is requested", func() {
			_, err := store.Get(ctx, "missing")

			Convey("Then ErrNotFound is returned", func() {
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
			})
		})

		Convey("When several wells have history", func() {
			for i := 0; i < 5; i++ {
				So(store.Save(ctx, failed(fmt.Sprintf("w1-%d", i), "W1", base.Add(time.Duration(i)*time.Minute))), ShouldBeNil)
			}
			So(store.Save(ctx, failed("w2-0", "W2", base)), ShouldBeNil)
			// Same classification time as w1-4; saved later so listed first.
			So(store.Save(ctx, failed("w1-tie", "W1", base.Add(4*time.Minute))), ShouldBeNil)

			Convey("Then a well lists its most recent results first", func() {
				got, err := store.ListByWell(ctx, "W1", 3)
				So(err, ShouldBeNil)
				So(len(got), ShouldEqual, 3)
				So(got[0].ID, ShouldEqual, "w1-tie")
				So(got[1].ID, ShouldEqual, "w1-4")
				So(got[2].ID, ShouldEqual, "w1-3")
			})

			Convey("And a generous limit returns the whole well only", func() {
				got, err := store.ListByWell(ctx, "W1", 100)
				So(err, ShouldBeNil)
				So(len(got), ShouldEqual, 6)
				for _, r := range got {
					So(r.Header.WellID, ShouldEqual, "W1")
				}
			})

			Convey("And an unknown well lists nothing", func() {
				got, err := store.ListByWell(ctx, "W9", 10)
				So(err, ShouldBeNil)
				So(got, ShouldBeEmpty)
			})

			Convey("And a non-positive limit is rejected", func() {
				_, err := store.ListByWell(ctx, "W1", 0)
				So(errors.Is(err, repository.ErrInvalidLimit), ShouldBeTrue)
			})
		})
	})
}

func TestMemoryStore(t *testing.T) {
	Convey("MemoryStore", t, func() {
		storeBehaviour(func() repository.Store { return repository.NewMemoryStore() })
	})

	Convey("Given a bounded memory store", t, func() {
		ctx := context.Background()
		store := repository.NewMemoryStore(repository.WithMaxResults(2))

		for i := 0; i < 3; i++ {
			So(store.Save(ctx, failed(fmt.Sprintf("r%d", i), "W1", base.Add(time.Duration(i)*time.Second))), ShouldBeNil)
		}

		Convey("Then the oldest save is evicted", func() {
			n, _ := store.Count(ctx)
			So(n, ShouldEqual, 2)
			_, err := store.Get(ctx, "r0")
			So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
			got, err := store.ListByWell(ctx, "W1", 10)
			So(err, ShouldBeNil)
			So(len(got), ShouldEqual, 2)
		})

		Convey("Then a closed store rejects writes", func() {
			So(store.Close(), ShouldBeNil)
			err := store.Save(ctx, failed("late", "W1", base))
			So(errors.Is(err, repository.ErrClosed), ShouldBeTrue)
		})
	})
}

func TestSQLiteStore(t *testing.T) {
	Convey("SQLiteStore", t, func() {
		dir := t.TempDir()
		seq := 0
		storeBehaviour(func() repository.Store {
			seq++
			s, err := repository.NewSQLiteStore(context.Background(), filepath.Join(dir, fmt.Sprintf("results-%d.db", seq)))
			So(err, ShouldBeNil)
			return s
		})
	})

	Convey("Given a database file", t, func() {
		ctx := context.Background()
		path := filepath.Join(t.TempDir(), "results.db")
		store, err := repository.NewSQLiteStore(ctx, path, repository.WithBusyTimeout(time.Second))
		So(err, ShouldBeNil)
		So(store.Path(), ShouldEqual, path)
		So(store.Save(ctx, classified("keep", "W1", cardgen.FluidPound, base)), ShouldBeNil)
		So(store.Close(), ShouldBeNil)

		Convey("Then results survive reopening it", func() {
			reopened, err := repository.NewSQLiteStore(ctx, path)
			So(err, ShouldBeNil)
			defer reopened.Close()

			got, err := reopened.Get(ctx, "keep")
			So(err, ShouldBeNil)
			So(got.Label, ShouldEqual, shape.FluidPound)
			So(len(got.Edges), ShouldEqual, 4)
		})
	})
}
