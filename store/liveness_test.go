package store

import (
	"context"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestTransfer(t *testing.T) {
	Convey("Given the no-progress liveness policy", t, func() {
		window := 50 * time.Millisecond

		Convey("A transfer that stalls after initial progress is cancelled as stalled", func() {
			result, err := Transfer(context.Background(), window, nil,
				func(ctx context.Context, report ProgressFunc) (Result, error) {
					report(0.1)
					select {
					case <-ctx.Done():
						return Result{Status: StatusError}, ctx.Err()
					case <-time.After(10 * window):
						return Result{Status: StatusOK}, nil
					}
				})

			So(err, ShouldEqual, ErrStalled)
			So(result.Status, ShouldEqual, StatusStalled)
		})

		Convey("A slow transfer that keeps progressing never times out", func() {
			result, err := Transfer(context.Background(), window, nil,
				func(ctx context.Context, report ProgressFunc) (Result, error) {
					// Total duration spans several windows, but progress advances every half window.
					for i := 1; i <= 8; i++ {
						select {
						case <-ctx.Done():
							return Result{Status: StatusError}, ctx.Err()
						case <-time.After(window / 2):
							report(float64(i) / 8)
						}
					}
					return Result{Status: StatusOK, URL: "file:///done"}, nil
				})

			So(err, ShouldBeNil)
			So(result.Status, ShouldEqual, StatusOK)
			So(result.URL, ShouldEqual, "file:///done")
		})

		Convey("Progress observers still receive updates", func() {
			var seen []float64
			_, err := Transfer(context.Background(), window, func(p float64) { seen = append(seen, p) },
				func(ctx context.Context, report ProgressFunc) (Result, error) {
					report(0.5)
					report(1)
					return Result{Status: StatusOK}, nil
				})

			So(err, ShouldBeNil)
			So(seen, ShouldResemble, []float64{0.5, 1})
		})
	})
}
