package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/okian/rankboard/internal/adapters/report"
	"github.com/smartystreets/goconvey/convey"
)

func writePlayers(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "players.csv")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRun(t *testing.T) {
	convey.Convey("Given a players file", t, func() {
		ctx := context.Background()
		path := writePlayers(t, "name,score\na,10\nb,20\nc,20\n")
		var stdout, stderr bytes.Buffer

		convey.Convey("When the board is loaded, edited and queried", func() {
			code := run(ctx, []string{
				"--csv", path, "--seed", "1", "--top", "2",
				"--set", "a=25", "--remove", "b",
				"--rank", "a", "--rank", "b",
			}, &stdout, &stderr)

			convey.Convey("Then the summary reflects every operation", func() {
				convey.So(code, convey.ShouldEqual, exitOK)
				out := stdout.String()
				convey.So(out, convey.ShouldContainSubstring, "Total players:  2")
				convey.So(out, convey.ShouldContainSubstring, "Top 2:")
				convey.So(out, convey.ShouldContainSubstring, "a found with score 25 at rank 1")
				convey.So(out, convey.ShouldContainSubstring, "b not found")
			})
		})

		convey.Convey("When JSON output and a structure dump are requested", func() {
			code := run(ctx, []string{"--csv", path, "--json", "--top", "3"}, &stdout, &stderr)

			convey.Convey("Then stdout carries the JSON summary", func() {
				convey.So(code, convey.ShouldEqual, exitOK)
				var s report.Summary
				convey.So(json.Unmarshal(stdout.Bytes(), &s), convey.ShouldBeNil)
				convey.So(s.Game, convey.ShouldEqual, "MyGame")
				convey.So(s.Size, convey.ShouldEqual, 3)
				convey.So(len(s.Top), convey.ShouldEqual, 3)
				convey.So(s.Top[0].Name, convey.ShouldEqual, "b")
			})
		})

		convey.Convey("When the structure is dumped", func() {
			code := run(ctx, []string{"--csv", path, "--game", "Arena", "--dump"}, &stdout, &stderr)

			convey.Convey("Then the levels follow the summary", func() {
				convey.So(code, convey.ShouldEqual, exitOK)
				out := stdout.String()
				convey.So(out, convey.ShouldContainSubstring, "Leaderboard structure for game: Arena\n")
				convey.So(out, convey.ShouldEndWith, "Level 0: b(20) -> c(20) -> a(10)\n")
			})
		})

		convey.Convey("When a metrics file is requested", func() {
			metricsPath := filepath.Join(t.TempDir(), "rankboard.prom")
			code := run(ctx, []string{"--csv", path, "--metrics-file", metricsPath}, &stdout, &stderr)

			convey.Convey("Then it is written in the text format", func() {
				convey.So(code, convey.ShouldEqual, exitOK)
				data, err := os.ReadFile(metricsPath)
				convey.So(err, convey.ShouldBeNil)
				convey.So(string(data), convey.ShouldContainSubstring, "rankboard_leaderboard_")
			})
		})
	})

	convey.Convey("Given bad input", t, func() {
		ctx := context.Background()
		var stdout, stderr bytes.Buffer

		convey.Convey("When an unknown flag is passed", func() {
			code := run(ctx, []string{"--nope"}, &stdout, &stderr)
			convey.So(code, convey.ShouldEqual, exitUsage)
		})

		convey.Convey("When --set is malformed", func() {
			code := run(ctx, []string{"--set", "alice"}, &stdout, &stderr)
			convey.So(code, convey.ShouldEqual, exitUsage)
		})

		convey.Convey("When the players file is missing", func() {
			code := run(ctx, []string{"--csv", filepath.Join(t.TempDir(), "none.csv")}, &stdout, &stderr)
			convey.So(code, convey.ShouldEqual, exitError)
		})

		convey.Convey("When the level cap is out of range", func() {
			code := run(ctx, []string{"--max-level", "0"}, &stdout, &stderr)
			convey.So(code, convey.ShouldEqual, exitUsage)
		})

		convey.Convey("When help is requested", func() {
			code := run(ctx, []string{"--help"}, &stdout, &stderr)
			convey.So(code, convey.ShouldEqual, exitOK)
			convey.So(stdout.String(), convey.ShouldContainSubstring, "--csv")
		})
	})
}

func TestParseAssignment(t *testing.T) {
	convey.Convey("Given name=score pairs", t, func() {
		name, score, err := parseAssignment(" player347 = 5000 ")
		convey.So(err, convey.ShouldBeNil)
		convey.So(name, convey.ShouldEqual, "player347")
		convey.So(score, convey.ShouldEqual, 5000)

		_, _, err = parseAssignment("=1")
		convey.So(err, convey.ShouldNotBeNil)
		_, _, err = parseAssignment("p=x")
		convey.So(err, convey.ShouldNotBeNil)
	})
}
