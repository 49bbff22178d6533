// Command button-sensor polls a GPIO push button, classifies presses into
// gestures and publishes them to MQTT.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sweeney/button-sensor/internal/button"
	"github.com/sweeney/button-sensor/internal/cli"
	"github.com/sweeney/button-sensor/internal/config"
	"github.com/sweeney/button-sensor/internal/gpio"
	"github.com/sweeney/button-sensor/internal/mqtt"
	"github.com/sweeney/button-sensor/internal/servo"
	"github.com/sweeney/button-sensor/internal/status"
	"github.com/sweeney/button-sensor/internal/uart"
	"github.com/sweeney/button-sensor/internal/web"
)

// options mirrors the command line flags.
type options struct {
	chip      string
	pin       int
	activeLow bool
	poll      time.Duration
	broker    string
	topic     string
	heartbeat time.Duration
	httpAddr  string
	serial    string
	baud      int
	pwm       string
}

func main() {
	configPath := flag.String("config", "", "YAML config file (flags given explicitly override it)")
	var o options
	flag.StringVar(&o.chip, "chip", gpio.DefaultChip, "GPIO chip")
	flag.IntVar(&o.pin, "pin", gpio.DefaultPin, "Line offset of the button")
	flag.BoolVar(&o.activeLow, "active-low", true, "Button pulls the line low when pressed")
	flag.DurationVar(&o.poll, "poll", 5*time.Millisecond, "GPIO polling interval")
	flag.StringVar(&o.broker, "broker", "tcp://localhost:1883", "MQTT broker address")
	flag.StringVar(&o.topic, "topic", mqtt.DefaultTopicPrefix, "MQTT topic prefix")
	flag.DurationVar(&o.heartbeat, "heartbeat", 15*time.Minute, "Heartbeat interval (0 to disable)")
	flag.StringVar(&o.httpAddr, "http", ":80", "HTTP status address (empty to disable)")
	flag.StringVar(&o.serial, "serial", "", "Serial console device (empty to disable)")
	flag.IntVar(&o.baud, "baud", uart.DefaultBaud, "Serial console baud rate")
	flag.StringVar(&o.pwm, "pwm", "", `Servo PWM output as "chip:channel" (empty to disable)`)
	printState := flag.Bool("print-state", false, "Print current button level and exit")

	flag.Parse()

	cfg := config.Default()
	isSet := func(string) bool { return true }
	if *configPath != "" {
		var err error
		if cfg, err = loadConfig(*configPath); err != nil {
			log.Fatalf("fatal: %v", err)
		}
		set := make(map[string]bool)
		flag.Visit(func(f *flag.Flag) { set[f.Name] = true })
		isSet = func(name string) bool { return set[name] }
	}
	if err := applyFlags(cfg, o, isSet); err != nil {
		log.Fatalf("fatal: %v", err)
	}

	if err := run(cfg, *configPath, *printState); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

// loadConfig loads the file named by -config, which must exist.
func loadConfig(path string) (*config.Config, error) {
	if !config.Exists(path) {
		return nil, fmt.Errorf("config file %s not found", path)
	}
	return config.Load(path)
}

// applyFlags copies the flags for which isSet reports true into cfg.
func applyFlags(cfg *config.Config, o options, isSet func(string) bool) error {
	if isSet("chip") {
		cfg.GPIO.Chip = o.chip
	}
	if isSet("pin") {
		if o.pin < 0 {
			return fmt.Errorf("invalid -pin %d", o.pin)
		}
		cfg.GPIO.Pin = o.pin
	}
	if isSet("active-low") {
		cfg.GPIO.ActiveLevel = "high"
		if o.activeLow {
			cfg.GPIO.ActiveLevel = "low"
		}
	}
	if isSet("poll") {
		if o.poll < time.Millisecond || o.poll > button.DebounceTime*time.Millisecond {
			return fmt.Errorf("-poll must be between 1ms and %dms, got %v", button.DebounceTime, o.poll)
		}
		cfg.GPIO.PollIntervalMs = int(o.poll.Milliseconds())
	}
	if isSet("broker") {
		cfg.MQTT.Broker = o.broker
	}
	if isSet("topic") {
		cfg.MQTT.TopicPrefix = o.topic
	}
	if isSet("heartbeat") {
		cfg.Heartbeat = int(o.heartbeat.Milliseconds())
	}
	if isSet("http") {
		cfg.HTTP.Addr = o.httpAddr
	}
	if isSet("serial") {
		cfg.Console.Port = o.serial
	}
	if isSet("baud") {
		cfg.Console.Baud = o.baud
	}
	if isSet("pwm") {
		if o.pwm == "" {
			cfg.Servo.Enabled = false
		} else {
			chip, channel, err := parsePWM(o.pwm)
			if err != nil {
				return err
			}
			cfg.Servo = config.ServoConfig{PWMChip: chip, Channel: channel, Enabled: true}
		}
	}
	return nil
}

// parsePWM parses "chip:channel".
func parsePWM(s string) (chip, channel int, err error) {
	var rest string
	n, _ := fmt.Sscanf(s, "%d:%d%s", &chip, &channel, &rest)
	if n != 2 || chip < 0 || channel < 0 {
		return 0, 0, fmt.Errorf("invalid -pwm %q, want chip:channel", s)
	}
	return chip, channel, nil
}

func statusConfig(cfg *config.Config) status.Config {
	return status.Config{
		Name:        cfg.Name,
		Chip:        cfg.GPIO.Chip,
		Pin:         cfg.GPIO.Pin,
		ActiveLevel: cfg.Level().String(),
		PollMs:      int64(cfg.GPIO.PollIntervalMs),
		DebounceMs:  button.DebounceTime,
		HeartbeatMs: int64(cfg.Heartbeat),
		Broker:      cfg.MQTT.Broker,
		HTTPAddr:    cfg.HTTP.Addr,
		Serial:      cfg.Console.Port,
	}
}

func run(cfg *config.Config, configPath string, printState bool) error {
	level := cfg.Level()

	gpioReader, err := gpio.NewRealReader(cfg.GPIO.Chip, cfg.GPIO.Pin, level == button.ActiveLow)
	if err != nil {
		return fmt.Errorf("init gpio: %w", err)
	}
	defer gpioReader.Close()

	if printState {
		high, err := gpioReader.Read()
		if err != nil {
			return fmt.Errorf("read gpio: %w", err)
		}
		fmt.Printf("%s %s:%d: level=%s pressed=%t\n",
			cfg.Name, cfg.GPIO.Chip, cfg.GPIO.Pin, levelString(high), high == (level == button.ActiveHigh))
		return nil
	}

	publisher, err := mqtt.NewRealPublisher(mqtt.Options{
		Broker:   cfg.MQTT.Broker,
		ClientID: cfg.MQTT.ClientID,
		Topics:   mqtt.NewTopics(cfg.MQTT.TopicPrefix),
	})
	if err != nil {
		return fmt.Errorf("init mqtt: %w", err)
	}
	defer publisher.Close()

	// Tracker first so STARTUP carries a full snapshot.
	tracker := status.NewTracker(time.Now(), statusConfig(cfg))
	tracker.SetMQTTConnected(publisher.IsConnected())

	snap := tracker.Snapshot()
	startupEvent := mqtt.SystemEvent{
		Timestamp:  snap.Now,
		Event:      "STARTUP",
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, "STARTUP", ""),
	}
	if err := publisher.PublishSystem(startupEvent); err != nil {
		log.Printf("failed to publish startup event: %v", err)
	} else {
		log.Printf("published startup event")
	}

	if configPath != "" {
		watcher, err := config.NewWatcher(configPath)
		if err != nil {
			log.Printf("config watcher disabled: %v", err)
		} else {
			watcher.OnReload(func(c *config.Config) {
				// Line and polarity are bound at startup.
				if c.GPIO.Chip != cfg.GPIO.Chip || c.GPIO.Pin != cfg.GPIO.Pin || c.Level() != level {
					log.Printf("config: gpio changes take effect after restart")
				}
				tracker.SetConfig(statusConfig(c))
			})
			watcher.Start()
			defer watcher.Stop()
		}
	}

	if cfg.HTTP.Addr != "" {
		srv := web.New(cfg.HTTP.Addr, tracker)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("http server error: %v", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Printf("http status server listening on %s", cfg.HTTP.Addr)
	}

	var sv *servo.Servo
	if cfg.Servo.Enabled {
		d, err := servo.NewSysfsDriver(servo.DefaultSysfsRoot, cfg.Servo.PWMChip, cfg.Servo.Channel)
		if err != nil {
			return fmt.Errorf("init servo: %w", err)
		}
		sv = servo.New(d)
		defer sv.Close()
		log.Printf("servo on pwmchip%d/pwm%d", cfg.Servo.PWMChip, cfg.Servo.Channel)
	}

	if cfg.Console.Port != "" {
		port, err := uart.Open(cfg.Console.Port, cfg.Console.Baud)
		if err != nil {
			return fmt.Errorf("init console: %w", err)
		}
		defer port.Close()

		tx, err := newTransmitter(port, cfg.Console, tracker)
		if err != nil {
			return fmt.Errorf("init console: %w", err)
		}
		registry, err := newRegistry(tracker, sv, tx)
		if err != nil {
			return fmt.Errorf("init console: %w", err)
		}
		console := uart.NewConsole(port, tx, registry)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go func() {
			if err := console.Serve(ctx); err != nil {
				log.Printf("console: %v", err)
			}
			if d := console.Dropped(); d > 0 {
				log.Printf("console: discarded %d overlong lines", d)
			}
		}()
		log.Printf("console on %s at %d baud", cfg.Console.Port, cfg.Console.Baud)
	}

	poll := time.Duration(cfg.GPIO.PollIntervalMs) * time.Millisecond
	heartbeat := time.Duration(cfg.Heartbeat) * time.Millisecond
	log.Printf("started: button=%s line=%s:%d active=%s poll=%v broker=%s heartbeat=%v",
		cfg.Name, cfg.GPIO.Chip, cfg.GPIO.Pin, level, poll, cfg.MQTT.Broker, heartbeat)

	ticker := time.NewTicker(poll)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	return runLoop(gpioReader, level, cfg.Name, publisher, publisher, tracker, heartbeat, time.Now, ticker.C, sigCh)
}

// newTransmitter frames console output per cc and mirrors its counters into
// tracker after every transmission.
func newTransmitter(w io.Writer, cc config.ConsoleConfig, tracker *status.Tracker) (*uart.Transmitter, error) {
	tx := uart.NewTransmitter(w)
	err := tx.Configure(uart.TransConfig{
		BufferSize: cc.TxBuffer,
		AddNewline: true,
		Newline:    cc.Newline,
	})
	if err != nil {
		return nil, err
	}
	tx.SetCallback(func(bool) {
		st := tx.Status()
		tracker.SetConsoleStats(status.ConsoleStats{
			BytesSent: st.BytesSent,
			TxCount:   st.TxCount,
			TxErrors:  st.TxErrors,
			LastTx:    st.LastTx,
		})
	})
	return tx, nil
}

// newRegistry builds the console command table. The servo command is only
// registered when sv is non-nil, the transmit commands when tx is.
func newRegistry(tracker *status.Tracker, sv *servo.Servo, tx *uart.Transmitter) (*cli.Registry, error) {
	r := cli.NewRegistry()
	cmds := []*cli.Command{
		cli.HelpCommand(r),
		cli.StatusCommand(func() button.Flags { return tracker.Snapshot().Flags }),
	}
	if sv != nil {
		cmds = append(cmds, cli.ServoCommand(sv))
	}
	cmds = append(cmds, cli.TemperatureCommands(&cli.Thresholds{})...)
	if tx != nil {
		cmds = append(cmds, uart.Commands(tx)...)
	}
	if err := r.Register(cmds...); err != nil {
		return nil, err
	}
	return r, nil
}

func runLoop(gpioReader gpio.Reader, level button.ActiveLevel, name string, publisher mqtt.Publisher, mqttStatus mqtt.ConnectionStatus, tracker *status.Tracker, heartbeat time.Duration, now func() time.Time, tick <-chan time.Time, sig <-chan os.Signal) error {
	startTime := now()

	// The latch starts at the idle level so no edge is seen before the
	// first successful read.
	latch := gpio.NewLatch(gpioReader, level == button.ActiveLow)
	var btn button.Button
	button.Init(&btn, latch, level)

	var pending []button.EventKind
	for _, kind := range button.Kinds() {
		btn.SetCallback(kind, func() { pending = append(pending, kind) })
	}

	for {
		select {
		case s := <-sig:
			log.Printf("received %v, shutting down", s)
			signalName := "UNKNOWN"
			if s == syscall.SIGINT {
				signalName = "SIGINT"
			} else if s == syscall.SIGTERM {
				signalName = "SIGTERM"
			}
			event := mqtt.SystemEvent{
				Timestamp: now(),
				Event:     "SHUTDOWN",
				Reason:    signalName,
				Retained:  true,
			}
			if tracker != nil {
				if mqttStatus != nil {
					tracker.SetMQTTConnected(mqttStatus.IsConnected())
				}
				snap := tracker.Snapshot()
				event.RawPayload = status.FormatStatusEvent(snap, "SHUTDOWN", signalName)
			}
			if err := publisher.PublishSystem(event); err != nil {
				log.Printf("failed to publish shutdown event: %v", err)
			} else {
				log.Printf("published shutdown event")
			}
			return nil

		case <-tick:
			t := now()
			if err := latch.Sample(); err != nil {
				log.Printf("gpio read error: %v", err)
				continue
			}

			pending = pending[:0]
			btn.Handle(uint32(t.Sub(startTime).Milliseconds()))
			flags := btn.Flags()

			for _, kind := range pending {
				log.Printf("event: %s %s (pressed=%t)", name, kind, flags.Pressed)
				if tracker != nil {
					tracker.Record(kind, t)
				}
				err := publisher.Publish(mqtt.Event{
					Timestamp: t,
					Button:    name,
					Kind:      kind,
					Flags:     flags,
				})
				if err != nil {
					log.Printf("publish error: %v", err)
				}
			}

			if tracker == nil {
				continue
			}
			tracker.Update(flags)
			if mqttStatus != nil {
				tracker.SetMQTTConnected(mqttStatus.IsConnected())
			}

			if tracker.HeartbeatDue(t, heartbeat) {
				snap := tracker.Snapshot()
				log.Printf("heartbeat: uptime=%v pressed=%d short=%d long=%d very_long=%d double=%d",
					snap.Uptime().Round(time.Second), snap.Counts.Pressed, snap.Counts.ShortPress,
					snap.Counts.LongPress, snap.Counts.VeryLong, snap.Counts.DoublePress)
				hbEvent := mqtt.SystemEvent{
					Timestamp:  t,
					Event:      "HEARTBEAT",
					RawPayload: status.FormatStatusEvent(snap, "HEARTBEAT", ""),
				}
				if err := publisher.PublishSystem(hbEvent); err != nil {
					log.Printf("heartbeat publish error: %v", err)
				}
			}
		}
	}
}

func levelString(high bool) string {
	if high {
		return "HIGH"
	}
	return "LOW"
}
