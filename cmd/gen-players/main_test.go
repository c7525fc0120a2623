package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/smartystreets/goconvey/convey"
)

func TestRun(t *testing.T) {
	convey.Convey("Given the generator command", t, func() {
		ctx := context.Background()
		var stdout, stderr bytes.Buffer

		convey.Convey("When writing to stdout", func() {
			code := run(ctx, []string{"-n", "3", "--seed", "9"}, &stdout, &stderr)

			convey.Convey("Then a header and three rows are printed", func() {
				convey.So(code, convey.ShouldEqual, 0)
				lines := strings.Split(strings.TrimSpace(stdout.String()), "\n")
				convey.So(lines, convey.ShouldHaveLength, 4)
				convey.So(lines[0], convey.ShouldEqual, "name,score")
				convey.So(lines[1], convey.ShouldStartWith, "player0,")
			})
		})

		convey.Convey("When writing to a file", func() {
			path := filepath.Join(t.TempDir(), "players.csv")
			code := run(ctx, []string{"-n", "10", "--names", "uuid", "-o", path}, &stdout, &stderr)

			convey.Convey("Then the file holds the rows", func() {
				convey.So(code, convey.ShouldEqual, 0)
				data, err := os.ReadFile(path)
				convey.So(err, convey.ShouldBeNil)
				convey.So(strings.Count(string(data), "\n"), convey.ShouldEqual, 11)
				convey.So(stdout.Len(), convey.ShouldEqual, 0)
			})
		})

		convey.Convey("When the name style is unknown", func() {
			code := run(ctx, []string{"--names", "emoji"}, &stdout, &stderr)
			convey.So(code, convey.ShouldEqual, 2)
		})

		convey.Convey("When repeats is out of range", func() {
			code := run(ctx, []string{"--repeats", "1.5"}, &stdout, &stderr)
			convey.So(code, convey.ShouldEqual, 2)
		})
	})
}
