// Command inverter-ctl drives a compressor/fan inverter through one GPIO
// line, with an HTTP control surface and MQTT telemetry.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sweeney/inverter-ctl/internal/cf10b"
	"github.com/sweeney/inverter-ctl/internal/config"
	"github.com/sweeney/inverter-ctl/internal/gpio"
	"github.com/sweeney/inverter-ctl/internal/logic"
	"github.com/sweeney/inverter-ctl/internal/machine"
	"github.com/sweeney/inverter-ctl/internal/mqtt"
	"github.com/sweeney/inverter-ctl/internal/status"
	"github.com/sweeney/inverter-ctl/internal/web"
)

// commandQueueLen bounds pending HTTP commands between polls.
const commandQueueLen = 8

func main() {
	configPath := flag.String("config", "", "Config file path (empty = built-in frequency-drive variant)")
	poll := flag.Duration("poll", 15*time.Millisecond, "Control loop polling interval")
	broker := flag.String("broker", "tcp://192.168.1.200:1883", "MQTT broker address (empty to disable)")
	heartbeat := flag.Duration("heartbeat", 15*time.Minute, "Heartbeat interval (0 to disable)")
	httpAddr := flag.String("http", ":80", "HTTP status/control address (empty to disable)")
	serialDev := flag.String("serial-dev", "", "Device file for serial profile frames (e.g. /dev/serial0)")
	printState := flag.Bool("print-state", false, "Print interlock input state and exit")

	flag.Parse()

	if err := run(*configPath, *poll, *broker, *heartbeat, *httpAddr, *serialDev, *printState); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

func run(configPath string, poll time.Duration, broker string, heartbeat time.Duration, httpAddr, serialDev string, printState bool) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	// Interlock input
	var reader gpio.Reader = gpio.NullReader{}
	if cfg.Pins.In > 0 {
		r, err := gpio.NewRealReader(cfg.Pins.In)
		if err != nil {
			return fmt.Errorf("init interlock input: %w", err)
		}
		reader = r
	}
	defer reader.Close()

	// Print state mode
	if printState {
		asserted, err := reader.Read()
		if err != nil {
			return fmt.Errorf("read interlock: %w", err)
		}
		if asserted {
			fmt.Println("interlock: asserted")
		} else {
			fmt.Println("interlock: clear")
		}
		return nil
	}

	// Output line
	out, err := gpio.NewRPiOutput(cfg.Pins.Out)
	if err != nil {
		return fmt.Errorf("init output pin: %w", err)
	}
	defer out.Close()

	profile := cfg.ToProfile()
	modes := cfg.ToModes()

	var wave gpio.Waveform
	if cfg.HardwarePWM && profile.Kind == logic.KindFrequency {
		wave = out
	}
	pin := machine.NewPinController(out, wave, profile.ActiveHigh)

	var opts []machine.Option
	if serialDev != "" {
		tx, err := newFileTransmitter(serialDev)
		if err != nil {
			return fmt.Errorf("open serial device: %w", err)
		}
		defer tx.Close()
		opts = append(opts, machine.WithTransmitter(tx))
	}

	mach := machine.New(pin, profile, modes, time.Now(), opts...)

	var led indicator = nullLed{}
	if cfg.Pins.Led > 0 {
		l, err := gpio.NewRPiLed(cfg.Pins.Led)
		if err != nil {
			return fmt.Errorf("init led pin: %w", err)
		}
		led = l
	}

	// MQTT is optional; a dead broker must not keep the drive from running.
	var publisher mqtt.Publisher
	var mqttStatus mqtt.ConnectionStatus
	if broker != "" {
		p, err := mqtt.NewRealPublisher(broker)
		if err != nil {
			log.Printf("mqtt unavailable, continuing without telemetry: %v", err)
		} else {
			publisher = p
			mqttStatus = p
			defer p.Close()
		}
	}

	tracker := status.NewTracker(time.Now(), statusConfig(cfg, poll, heartbeat, broker, httpAddr))
	tracker.SetModes(modeInfos(modes))

	// Publish startup event with full status snapshot
	if publisher != nil {
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
	}

	commands := make(chan machine.Command, commandQueueLen)

	// Start HTTP status/control server
	if httpAddr != "" {
		srv := web.New(httpAddr, tracker, commands)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("http server error: %v", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Printf("http server listening on %s", httpAddr)
	}

	log.Printf("started: profile=%s kind=%s poll=%v broker=%s heartbeat=%v", profile.Name, profile.Kind, poll, broker, heartbeat)

	ticker := time.NewTicker(poll)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	hupCh := make(chan os.Signal, 1)
	signal.Notify(hupCh, syscall.SIGHUP)

	return runLoop(mach, reader, led, publisher, mqttStatus, tracker, configPath, poll, heartbeat, broker, httpAddr, time.Now, ticker.C, sigCh, hupCh, commands)
}

func runLoop(mach *machine.Machine, reader gpio.Reader, led indicator, publisher mqtt.Publisher, mqttStatus mqtt.ConnectionStatus, tracker *status.Tracker, configPath string, poll, heartbeat time.Duration, broker, httpAddr string, now func() time.Time, tick <-chan time.Time, sig, hup <-chan os.Signal, commands <-chan machine.Command) error {
	publish := func(events []logic.Event) {
		for _, event := range events {
			log.Printf("event: %s mode=%q freq=%dHz armed=%v", event.Type, event.Mode, event.FrequencyHz, event.Armed)
			if publisher == nil {
				continue
			}
			if err := publisher.Publish(event); err != nil {
				log.Printf("publish error: %v", err)
				// Don't crash on publish failure
			}
		}
	}

	updateTracker := func() {
		tracker.Update(string(mach.State()), mach.ActiveModeIndex(), mach.ActiveModeName(),
			mach.CurrentFrequencyHz(), mach.Armed(), mach.InputLevel(), mach.LimitEnabled(),
			mach.RemainingMs(), mach.Counts())
		if mqttStatus != nil {
			tracker.SetMQTTConnected(mqttStatus.IsConnected())
		}
	}

	for {
		select {
		case s := <-sig:
			log.Printf("received %v, shutting down", s)
			t := now()

			// Leave the line safe before the process exits.
			publish(mach.PowerOff(t))
			led.Set(false)
			updateTracker()

			signalName := "UNKNOWN"
			if s == syscall.SIGINT {
				signalName = "SIGINT"
			} else if s == syscall.SIGTERM {
				signalName = "SIGTERM"
			}
			if publisher != nil {
				snap := tracker.Snapshot()
				event := mqtt.SystemEvent{
					Timestamp:  t,
					Event:      "SHUTDOWN",
					Reason:     signalName,
					Retained:   true,
					RawPayload: status.FormatStatusEvent(snap, "SHUTDOWN", signalName),
				}
				if err := publisher.PublishSystem(event); err != nil {
					log.Printf("failed to publish shutdown event: %v", err)
				} else {
					log.Printf("published shutdown event")
				}
			}
			return nil

		case <-hup:
			if configPath == "" {
				log.Printf("SIGHUP: no config file, reload ignored")
				continue
			}
			cfg, err := config.Load(configPath)
			if err != nil {
				log.Printf("SIGHUP: reload failed, keeping current profile: %v", err)
				continue
			}
			// Pin assignment changes need a restart; everything else is live.
			modes := cfg.ToModes()
			mach.SetModeTable(modes)
			publish(mach.ApplyProfile(cfg.ToProfile(), now()))
			tracker.SetConfig(statusConfig(cfg, poll, heartbeat, broker, httpAddr))
			tracker.SetModes(modeInfos(modes))
			updateTracker()
			log.Printf("SIGHUP: reloaded profile %s from %s", cfg.Profile.Name, configPath)

		case cmd := <-commands:
			publish(mach.Apply(cmd, now()))
			updateTracker()

		case <-tick:
			t := now()
			raw, err := reader.Read()
			if err != nil {
				log.Printf("interlock read error: %v", err)
				continue
			}

			publish(mach.Tick(t, raw))
			led.Set(mach.IndicatorLevel(t))

			if hbData := mach.CheckHeartbeat(t, heartbeat); hbData != nil {
				counts := hbData.Counts
				log.Printf("heartbeat: uptime=%v power_cycles=%d mode_changes=%d trips=%d shutoffs=%d",
					hbData.Uptime, counts.PowerCycles, counts.ModeChanges, counts.InterlockTrips, counts.AutoShutoffs)

				if publisher != nil {
					updateTracker()
					snap := tracker.Snapshot()
					hbEvent := mqtt.SystemEvent{
						Timestamp:  hbData.Timestamp,
						Event:      "HEARTBEAT",
						RawPayload: status.FormatStatusEvent(snap, "HEARTBEAT", ""),
					}
					if err := publisher.PublishSystem(hbEvent); err != nil {
						log.Printf("heartbeat publish error: %v", err)
					}
				}
			}

			updateTracker()
		}
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

func statusConfig(cfg *config.Config, poll, heartbeat time.Duration, broker, httpAddr string) status.Config {
	return status.Config{
		Profile:     cfg.Profile.Name,
		Kind:        cfg.Profile.Kind,
		PollMs:      poll.Milliseconds(),
		DebounceMs:  int64(cfg.Profile.DebounceMs),
		HeartbeatMs: heartbeat.Milliseconds(),
		Broker:      broker,
		HTTPAddr:    httpAddr,
		OutPin:      cfg.Pins.Out,
		InPin:       cfg.Pins.In,
	}
}

func modeInfos(modes []logic.Mode) []status.ModeInfo {
	infos := make([]status.ModeInfo, len(modes))
	for i, m := range modes {
		infos[i] = status.ModeInfo{
			Index:       i,
			Name:        m.Name,
			FrequencyHz: m.FrequencyHz,
			TimeoutS:    int64(m.Timeout / time.Second),
		}
	}
	return infos
}

// indicator is the LED surface the loop writes every tick.
type indicator interface {
	Set(on bool)
}

type nullLed struct{}

func (nullLed) Set(on bool) {}

// fileTransmitter writes serial frames to a device file, one frame per
// write. Line discipline (baud, parity) is configured out of band.
type fileTransmitter struct {
	f *os.File
}

func newFileTransmitter(dev string) (*fileTransmitter, error) {
	f, err := os.OpenFile(dev, os.O_WRONLY, 0)
	if err != nil {
		return nil, err
	}
	return &fileTransmitter{f: f}, nil
}

func (t *fileTransmitter) Transmit(frame cf10b.Frame) error {
	if _, err := t.f.Write(frame[:]); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	return nil
}

func (t *fileTransmitter) Close() error {
	return t.f.Close()
}
