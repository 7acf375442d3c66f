package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	shark "github.com/tj-smith47/shark-go"
	"github.com/tj-smith47/shark-go/internal/config"
	"github.com/tj-smith47/shark-go/internal/mqtt"
)

const (
	// commandTimeout bounds a single command sent to a vacuum.
	commandTimeout = 15 * time.Second

	// pollTimeout bounds one full poll of the device list.
	pollTimeout = 60 * time.Second

	defaultPollInterval = 60 * time.Second
)

// Commands accepted on a device command topic.
const (
	CommandClean  = "clean"
	CommandStop   = "stop"
	CommandPause  = "pause"
	CommandLocate = "locate"
)

// ErrUnknownCommand is returned for a command payload the bridge does not handle.
var ErrUnknownCommand = errors.New("bridge: unknown command")

// ErrUnknownDevice is returned for a command addressed to a device that has
// not been seen in the device list.
var ErrUnknownDevice = errors.New("bridge: unknown device")

// Publisher is the MQTT side of the bridge. *mqtt.Client implements it.
type Publisher interface {
	PublishRetained(topic string, payload []byte) error
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
}

// State is the payload of a device state topic.
type State struct {
	Connection    shark.ConnectionStatus `json:"connection"`
	OperatingMode *string                `json:"operating_mode"`
}

// Bridge connects one Shark account to an MQTT broker.
type Bridge struct {
	api      shark.SharkClient
	pub      Publisher
	topics   mqtt.Topics
	qos      byte
	interval time.Duration
	logger   *slog.Logger

	// ctx is the Run context; command handlers derive their timeouts from it.
	ctx   context.Context
	ctxMu sync.RWMutex

	devices   map[string]shark.Device
	info      map[string]shark.Device
	lastState map[string]State
	mu        sync.RWMutex
}

// New creates a bridge. Nothing happens until Run is called.
func New(api shark.SharkClient, pub Publisher, cfg config.MQTTConfig, logger *slog.Logger) *Bridge {
	if logger == nil {
		logger = slog.Default()
	}
	interval := cfg.PollInterval
	if interval <= 0 {
		interval = defaultPollInterval
	}
	return &Bridge{
		api:       api,
		pub:       pub,
		topics:    mqtt.NewTopics(cfg.TopicPrefix),
		qos:       byte(cfg.QoS),
		interval:  interval,
		logger:    logger.With("component", "bridge"),
		ctx:       context.Background(),
		devices:   make(map[string]shark.Device),
		info:      make(map[string]shark.Device),
		lastState: make(map[string]State),
	}
}

// Run logs in, subscribes to commands and polls until ctx is cancelled.
// It returns an error only if startup fails.
func (b *Bridge) Run(ctx context.Context) error {
	b.ctxMu.Lock()
	b.ctx = ctx
	b.ctxMu.Unlock()

	if err := b.api.Login(ctx); err != nil {
		return fmt.Errorf("login: %w", err)
	}

	topic := b.topics.AllDeviceCommands()
	if err := b.pub.Subscribe(topic, b.qos, b.handleCommand); err != nil {
		return fmt.Errorf("subscribe to commands: %w", err)
	}
	b.logger.Info("bridge started", "commands", topic, "poll_interval", b.interval)

	b.Poll(ctx)

	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			b.logger.Info("bridge stopped")
			return nil
		case <-ticker.C:
			b.Poll(ctx)
		}
	}
}

// Poll lists the account's devices, publishes info for new ones and state
// for any whose state changed.
func (b *Bridge) Poll(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, pollTimeout)
	defer cancel()

	devices, err := b.api.ListDevices(ctx)
	if err != nil {
		b.logClientError("list devices failed", err)
		return
	}

	for _, d := range devices {
		if b.remember(d) {
			b.publishInfo(d)
		}
		b.refreshState(ctx, d)
	}
}

// remember stores d for command lookup and reports whether its published
// description is missing or stale.
func (b *Bridge) remember(d shark.Device) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.devices[d.SerialNumber] = d
	prev, ok := b.info[d.SerialNumber]
	return !ok || prev != infoKey(d)
}

// infoKey drops the connection status, which is carried by the state topic.
func infoKey(d shark.Device) shark.Device {
	d.ConnectionStatus = ""
	return d
}

func (b *Bridge) device(dsn string) (shark.Device, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	d, ok := b.devices[dsn]
	return d, ok
}

func (b *Bridge) publishInfo(d shark.Device) {
	payload, err := json.Marshal(d)
	if err != nil {
		b.logger.Error("encode device info failed", "dsn", d.SerialNumber, "error", err)
		return
	}
	if err := b.pub.PublishRetained(b.topics.DeviceInfo(d.SerialNumber), payload); err != nil {
		b.logger.Warn("publish device info failed", "dsn", d.SerialNumber, "error", err)
		return
	}

	b.mu.Lock()
	b.info[d.SerialNumber] = infoKey(d)
	b.mu.Unlock()
}

// refreshState reads the operating mode of an online device and publishes the
// state if it changed. Offline devices are published without a mode.
func (b *Bridge) refreshState(ctx context.Context, d shark.Device) {
	state := State{Connection: d.ConnectionStatus}
	if d.Online() {
		mode, err := shark.NewVacuum(b.api, d).OperatingMode(ctx)
		if err != nil {
			b.logClientError("read operating mode failed", err, "dsn", d.SerialNumber)
		} else {
			name := mode.String()
			state.OperatingMode = &name
		}
	}

	if b.stateUnchanged(d.SerialNumber, state) {
		return
	}

	payload, err := json.Marshal(state)
	if err != nil {
		b.logger.Error("encode state failed", "dsn", d.SerialNumber, "error", err)
		return
	}
	if err := b.pub.PublishRetained(b.topics.DeviceState(d.SerialNumber), payload); err != nil {
		b.logger.Warn("publish state failed", "dsn", d.SerialNumber, "error", err)
		b.forgetState(d.SerialNumber)
	}
}

// stateUnchanged records state and reports whether it equals the last one.
func (b *Bridge) stateUnchanged(dsn string, state State) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	prev, ok := b.lastState[dsn]
	b.lastState[dsn] = state
	return ok && prev.Connection == state.Connection && equalMode(prev.OperatingMode, state.OperatingMode)
}

func (b *Bridge) forgetState(dsn string) {
	b.mu.Lock()
	delete(b.lastState, dsn)
	b.mu.Unlock()
}

func equalMode(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// handleCommand runs a command received on a device command topic.
func (b *Bridge) handleCommand(topic string, payload []byte) error {
	dsn, ok := b.topics.ParseDeviceCommand(topic)
	if !ok {
		return fmt.Errorf("unexpected command topic %q", topic)
	}
	d, ok := b.device(dsn)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownDevice, dsn)
	}

	command := strings.ToLower(strings.TrimSpace(string(payload)))

	b.ctxMu.RLock()
	parent := b.ctx
	b.ctxMu.RUnlock()
	ctx, cancel := context.WithTimeout(parent, commandTimeout)
	defer cancel()

	vac := shark.NewVacuum(b.api, d)
	var err error
	switch command {
	case CommandClean:
		err = vac.Clean(ctx)
	case CommandStop:
		err = vac.Stop(ctx)
	case CommandPause:
		err = vac.Pause(ctx)
	case CommandLocate:
		err = vac.Locate(ctx)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownCommand, command)
	}
	if err != nil {
		b.logClientError("command failed", err, "dsn", dsn, "command", command)
		return nil
	}

	b.logger.Info("command sent", "dsn", dsn, "command", command)
	if command != CommandLocate {
		b.refreshState(ctx, d)
	}
	return nil
}

// logClientError logs a client failure tagged with its error kind.
func (b *Bridge) logClientError(msg string, err error, args ...any) {
	args = append(args, "kind", shark.KindOf(err).String(), "error", err)
	b.logger.Warn(msg, args...)
}
