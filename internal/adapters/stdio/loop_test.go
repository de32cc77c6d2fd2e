package stdio_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/kzero/skillpoints/internal/adapters/stdio"
	"github.com/kzero/skillpoints/internal/app"
	"github.com/kzero/skillpoints/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	_ = logger.Init()
}

type echoResponse struct {
	Echo string `json:"echo"`
}

func TestLoop(t *testing.T) {
	ctx := context.Background()

	Convey("Given a request/response loop", t, func() {
		Convey("When processing multiple requests", func() {
			in := strings.NewReader("one\ntwo\nthree\n")
			var out bytes.Buffer
			loop := stdio.New(in, &out, func(_ context.Context, line []byte) app.Outcome {
				return app.Ok(&echoResponse{Echo: string(line)})
			})

			err := loop.Run(ctx)

			Convey("Then responses should come back one per line, in order", func() {
				So(err, ShouldBeNil)
				lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
				So(len(lines), ShouldEqual, 3)
				for i, want := range []string{"one", "two", "three"} {
					var resp echoResponse
					So(json.Unmarshal([]byte(lines[i]), &resp), ShouldBeNil)
					So(resp.Echo, ShouldEqual, want)
				}
			})
		})

		Convey("When a request produces a fatal outcome", func() {
			in := strings.NewReader("ok\nboom\nnever\n")
			var out bytes.Buffer
			fatalErr := errors.New("bad request")
			var handled int
			loop := stdio.New(in, &out, func(_ context.Context, line []byte) app.Outcome {
				handled++
				if string(line) == "boom" {
					return app.Fatal(fatalErr)
				}
				return app.Ok(&echoResponse{Echo: string(line)})
			})

			err := loop.Run(ctx)

			Convey("Then the loop should stop with that error", func() {
				So(errors.Is(err, fatalErr), ShouldBeTrue)
			})

			Convey("Then no further requests should be processed", func() {
				So(handled, ShouldEqual, 2)
				So(strings.Count(out.String(), "\n"), ShouldEqual, 1)
			})
		})

		Convey("When a request produces diagnostics", func() {
			in := strings.NewReader("warn\nnext\n")
			var out bytes.Buffer
			loop := stdio.New(in, &out, func(_ context.Context, line []byte) app.Outcome {
				if string(line) == "warn" {
					return app.Warning(&echoResponse{Echo: "warned"}, app.Diagnostic{Message: "something odd"})
				}
				return app.Ok(&echoResponse{Echo: string(line)})
			})

			err := loop.Run(ctx)

			Convey("Then processing should continue past the warning", func() {
				So(err, ShouldBeNil)
				So(strings.Count(out.String(), "\n"), ShouldEqual, 2)
			})
		})

		Convey("When input contains blank lines", func() {
			in := strings.NewReader("\n\nreq\n\n")
			var out bytes.Buffer
			var handled int
			loop := stdio.New(in, &out, func(_ context.Context, _ []byte) app.Outcome {
				handled++
				return app.Ok(&echoResponse{Echo: "r"})
			})

			err := loop.Run(ctx)

			Convey("Then blank lines should be skipped", func() {
				So(err, ShouldBeNil)
				So(handled, ShouldEqual, 1)
			})
		})

		Convey("When input is empty", func() {
			loop := stdio.New(strings.NewReader(""), &bytes.Buffer{}, func(_ context.Context, _ []byte) app.Outcome {
				return app.Ok(nil)
			})

			Convey("Then the loop should exit cleanly", func() {
				So(loop.Run(ctx), ShouldBeNil)
			})
		})
	})
}
