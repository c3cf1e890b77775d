package config

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"
)

func TestLoad(t *testing.T) {
	ctx := context.Background()

	convey.Convey("Given no configuration sources", t, func() {
		convey.Convey("Load returns the defaults", func() {
			cfg, err := Load(ctx)
			convey.So(err, convey.ShouldBeNil)
			convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
			convey.So(cfg.BusCapacity, convey.ShouldEqual, 1024)
			convey.So(cfg.HistoryWindow, convey.ShouldEqual, 10)
			convey.So(cfg.Epsilon, convey.ShouldEqual, 0)
		})
	})

	convey.Convey("Given environment overrides", t, func() {
		_ = os.Setenv("ANU_ADDR", ":7070")
		_ = os.Setenv("ANU_BUS_CAPACITY", "64")
		_ = os.Setenv("ANU_ROBOT_ID", "anu-test")
		_ = os.Setenv("ANU_PROBE_INTERVAL", "5s")
		defer func() {
			_ = os.Unsetenv("ANU_ADDR")
			_ = os.Unsetenv("ANU_BUS_CAPACITY")
			_ = os.Unsetenv("ANU_ROBOT_ID")
			_ = os.Unsetenv("ANU_PROBE_INTERVAL")
		}()

		convey.Convey("Load layers them over the defaults", func() {
			cfg, err := Load(ctx)
			convey.So(err, convey.ShouldBeNil)
			convey.So(cfg.Addr, convey.ShouldEqual, ":7070")
			convey.So(cfg.BusCapacity, convey.ShouldEqual, 64)
			convey.So(cfg.RobotID, convey.ShouldEqual, "anu-test")
			convey.So(cfg.ProbeInterval, convey.ShouldEqual, 5*time.Second)
			convey.So(cfg.DBPath, convey.ShouldEqual, "anu.db")
		})
	})

	convey.Convey("Given a YAML config file", t, func() {
		dir := t.TempDir()
		path := dir + "/anu.yaml"
		yaml := "addr: \":6060\"\nepsilon: 0.1\nfallback_prompt: \"One more time, slowly.\"\n"
		convey.So(os.WriteFile(path, []byte(yaml), 0o600), convey.ShouldBeNil)
		_ = os.Setenv("ANU_CONFIG", path)
		defer func() { _ = os.Unsetenv("ANU_CONFIG") }()

		convey.Convey("Load reads it", func() {
			cfg, err := Load(ctx)
			convey.So(err, convey.ShouldBeNil)
			convey.So(cfg.Addr, convey.ShouldEqual, ":6060")
			convey.So(cfg.Epsilon, convey.ShouldEqual, 0.1)
			convey.So(cfg.FallbackPrompt, convey.ShouldEqual, "One more time, slowly.")
		})

		convey.Convey("Environment still wins over the file", func() {
			_ = os.Setenv("ANU_ADDR", ":5050")
			defer func() { _ = os.Unsetenv("ANU_ADDR") }()

			cfg, err := Load(ctx)
			convey.So(err, convey.ShouldBeNil)
			convey.So(cfg.Addr, convey.ShouldEqual, ":5050")
		})
	})

	convey.Convey("Given invalid values", t, func() {
		convey.Convey("An out-of-range epsilon is rejected", func() {
			_ = os.Setenv("ANU_EPSILON", "1.5")
			defer func() { _ = os.Unsetenv("ANU_EPSILON") }()

			_, err := Load(ctx)
			convey.So(err, convey.ShouldNotBeNil)
			convey.So(err.Error(), convey.ShouldContainSubstring, "epsilon")
		})

		convey.Convey("An empty robot id is rejected", func() {
			_ = os.Setenv("ANU_ROBOT_ID", "")
			defer func() { _ = os.Unsetenv("ANU_ROBOT_ID") }()

			_, err := Load(ctx)
			convey.So(err, convey.ShouldNotBeNil)
		})
	})
}
