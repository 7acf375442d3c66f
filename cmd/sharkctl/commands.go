package main

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"

	shark "github.com/tj-smith47/shark-go"
	"github.com/tj-smith47/shark-go/internal/bridge"
	"github.com/tj-smith47/shark-go/internal/logging"
	"github.com/tj-smith47/shark-go/internal/mqtt"
)

type command struct {
	name    string
	args    []string
	summary string
	run     func(ctx context.Context, e *env, args []string) error
}

func (c command) argUsage() string {
	parts := make([]string, len(c.args))
	for i, a := range c.args {
		parts[i] = "<" + a + ">"
	}
	return strings.Join(parts, " ")
}

var commands = []command{
	{"devices", nil, "list devices", listDevices},
	{"metadata", []string{"dsn"}, "show device metadata", deviceMetadata},
	{"properties", []string{"dsn"}, "show raw device properties", deviceProperties},
	{"get", []string{"dsn", "property"}, "read a property (name without GET_)", getProperty},
	{"set", []string{"dsn", "property", "value"}, "write a property (name without SET_)", setProperty},
	{"clean", []string{"dsn"}, "start cleaning", vacuumCommand((*shark.Vacuum).Clean)},
	{"stop", []string{"dsn"}, "stop cleaning", vacuumCommand((*shark.Vacuum).Stop)},
	{"pause", []string{"dsn"}, "pause cleaning", vacuumCommand((*shark.Vacuum).Pause)},
	{"locate", []string{"dsn"}, "play the find-me signal", vacuumCommand((*shark.Vacuum).Locate)},
	{"mode", []string{"dsn"}, "show the operating mode", operatingMode},
	{"bridge", nil, "run the MQTT bridge", runBridge},
}

func lookupCommand(name string) (command, bool) {
	for _, c := range commands {
		if c.name == name {
			return c, true
		}
	}
	return command{}, false
}

func writeJSON(e *env, v any) error {
	enc := json.NewEncoder(e.stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func listDevices(ctx context.Context, e *env, _ []string) error {
	if err := e.client.Login(ctx); err != nil {
		return err
	}
	devices, err := e.client.ListDevices(ctx)
	if err != nil {
		return err
	}
	return writeJSON(e, devices)
}

func deviceMetadata(ctx context.Context, e *env, args []string) error {
	if err := e.client.Login(ctx); err != nil {
		return err
	}
	records, err := e.client.GetDeviceMetadata(ctx, args[0])
	if err != nil {
		return err
	}
	return writeJSON(e, records)
}

func deviceProperties(ctx context.Context, e *env, args []string) error {
	if err := e.client.Login(ctx); err != nil {
		return err
	}
	records, err := e.client.GetDeviceProperties(ctx, args[0])
	if err != nil {
		return err
	}
	return writeJSON(e, records)
}

func getProperty(ctx context.Context, e *env, args []string) error {
	if err := e.client.Login(ctx); err != nil {
		return err
	}
	prop, err := e.client.GetDeviceProperty(ctx, args[0], args[1])
	if err != nil {
		return err
	}
	return writeJSON(e, prop)
}

func setProperty(ctx context.Context, e *env, args []string) error {
	if err := e.client.Login(ctx); err != nil {
		return err
	}
	dp, err := e.client.SetDeviceProperty(ctx, args[0], args[1], parseValue(args[2]))
	if err != nil {
		return err
	}
	return writeJSON(e, dp)
}

// parseValue turns a command-line value into a bool, integer, float or string.
func parseValue(s string) any {
	switch s {
	case "true":
		return true
	case "false":
		return false
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}

func vacuumCommand(action func(*shark.Vacuum, context.Context) error) func(context.Context, *env, []string) error {
	return func(ctx context.Context, e *env, args []string) error {
		if err := e.client.Login(ctx); err != nil {
			return err
		}
		vac := shark.NewVacuum(e.client, shark.Device{SerialNumber: args[0]})
		if err := action(vac, ctx); err != nil {
			return err
		}
		return writeJSON(e, map[string]string{"dsn": args[0], "status": "ok"})
	}
}

func operatingMode(ctx context.Context, e *env, args []string) error {
	if err := e.client.Login(ctx); err != nil {
		return err
	}
	mode, err := shark.NewVacuum(e.client, shark.Device{SerialNumber: args[0]}).OperatingMode(ctx)
	if err != nil {
		return err
	}
	return writeJSON(e, map[string]any{"dsn": args[0], "mode": int64(mode), "name": mode.String()})
}

func runBridge(ctx context.Context, e *env, _ []string) error {
	if e.cfg.MQTT.Broker == "" {
		return errors.New("mqtt.broker is required for the bridge (set SHARK_MQTT_BROKER)")
	}
	logger := logging.New(e.cfg.Logging, version)

	conn, err := mqtt.Connect(e.cfg.MQTT, logger)
	if err != nil {
		return err
	}
	defer conn.Close()

	return bridge.New(e.client, conn, e.cfg.MQTT, logger).Run(ctx)
}
