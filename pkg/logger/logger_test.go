package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestLoggerInit(t *testing.T) {
	Convey("Given the global logger", t, func() {
		Convey("When it is initialized with defaults", func() {
			err := Init()

			Convey("Then Get returns a usable logger", func() {
				So(err, ShouldBeNil)
				So(Get(), ShouldNotBeNil)
				So(Sync(), ShouldBeNil)
			})
		})

		Convey("When it writes text to a buffer", func() {
			var buf bytes.Buffer
			So(Init(WithWriter(&buf)), ShouldBeNil)
			Get().Info(context.Background(), "loaded", Int("records", 3), String("game", "MyGame"))

			Convey("Then the fields and caller are rendered", func() {
				out := buf.String()
				So(out, ShouldContainSubstring, "msg=loaded")
				So(out, ShouldContainSubstring, "records=3")
				So(out, ShouldContainSubstring, "game=MyGame")
				So(out, ShouldContainSubstring, "logger_test.go")
			})
		})

		Convey("When it writes JSON", func() {
			var buf bytes.Buffer
			So(Init(WithWriter(&buf), WithJSON(true)), ShouldBeNil)
			Named("loader").Warn(context.Background(), "skipped", Error(errors.New("bad score")), Bool("strict", false))

			Convey("Then each line is a JSON object with the group applied", func() {
				var line map[string]any
				So(json.Unmarshal(buf.Bytes(), &line), ShouldBeNil)
				So(line["msg"], ShouldEqual, "skipped")
				group, ok := line["loader"].(map[string]any)
				So(ok, ShouldBeTrue)
				So(group["strict"], ShouldEqual, false)
			})
		})
	})
}

func TestLoggerLevels(t *testing.T) {
	Convey("Given a logger writing to a buffer", t, func() {
		var buf bytes.Buffer
		So(Init(WithWriter(&buf)), ShouldBeNil)
		ctx := context.Background()

		Convey("When the level is raised to warn", func() {
			So(SetLevelString("WARN"), ShouldBeNil)
			Get().Info(ctx, "hidden")
			Get().Debug(ctx, "hidden too")
			Get().Warn(ctx, "shown")
			Get().Error(ctx, "shown too")

			Convey("Then lower levels are suppressed", func() {
				out := buf.String()
				So(out, ShouldNotContainSubstring, "hidden")
				So(strings.Count(out, "shown"), ShouldEqual, 2)
			})
		})

		Convey("When an unknown level is given", func() {
			err := SetLevelString("loud")

			Convey("Then it is rejected", func() {
				So(err, ShouldNotBeNil)
				So(err.Error(), ShouldContainSubstring, "unknown log level")
			})
		})
	})
}

func TestLoggerNop(t *testing.T) {
	Convey("Given a nop logger", t, func() {
		l := Nop()

		Convey("Then logging does nothing and does not panic", func() {
			So(func() {
				l.Error(context.Background(), "dropped", Float64("score", 1.5))
				l.Named("x").Info(context.Background(), "dropped")
			}, ShouldNotPanic)
		})
	})
}
