package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/itohio/gofan/pkg/api"
	"github.com/itohio/gofan/pkg/config"
	"github.com/itohio/gofan/pkg/link"
	"github.com/itohio/gofan/pkg/meter"
	"github.com/itohio/gofan/pkg/sample"
	"github.com/itohio/gofan/pkg/telemetry"
)

func main() {
	var (
		portFlag           = flag.String("p", "", "Serial port override (e.g., COM3 or /dev/ttyACM0)")
		configFlag         = flag.String("config", "config.yaml", "Configuration file path")
		mockFlag           = flag.Bool("mock", false, "Use simulated controller instead of serial port")
		targetFlag         = flag.Int("target", -1, "Setpoint to send on connect in °C (0-255, -1 = keep controller's)")
		averageSamplesFlag = flag.Int("average-samples", -1, "Number of readings to average (1 = disabled, overrides config)")
		listFlag           = flag.Bool("list", false, "List serial ports and exit")
		httpFlag           = flag.String("http", "", "Status API address override (e.g., :8080)")
	)
	flag.Parse()

	if *listFlag {
		ports, err := link.Ports()
		if err != nil {
			log.Fatalf("Failed to list ports: %v", err)
		}
		for _, p := range ports {
			fmt.Println(p.Name)
		}
		return
	}

	cfg, err := config.Load(*configFlag)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if *portFlag != "" {
		cfg.Serial.Port = *portFlag
	}
	if *httpFlag != "" {
		cfg.Monitor.HTTPAddr = *httpFlag
	}
	if *averageSamplesFlag > 0 {
		cfg.Monitor.AverageSamples = *averageSamplesFlag
	}
	if *targetFlag > 255 {
		log.Fatalf("Target %d out of range 0-255", *targetFlag)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var device link.Link
	if *mockFlag {
		device = link.NewMock(cfg)
		log.Printf("Using simulated controller")
	} else {
		device = link.New(cfg.Serial.Port, cfg.Serial.BaudRate, link.DefaultBufferSize)
	}

	if err := device.Connect(); err != nil {
		if *mockFlag {
			log.Fatalf("Failed to connect to simulated controller: %v", err)
		}
		log.Fatalf("Failed to connect to %s: %v", cfg.Serial.Port, err)
	}
	if !*mockFlag {
		log.Printf("Connected to serial port: %s", cfg.Serial.Port)
	}

	if err := run(ctx, cfg, device, *targetFlag); err != nil {
		log.Fatal(err)
	}
}

// run logs temperature statistics from a connected device until ctx is done
// or the device stops delivering readings. The device is closed on return.
func run(ctx context.Context, cfg *config.Config, device link.Link, target int) error {
	if target >= 0 {
		if err := device.SetTarget(uint8(target)); err != nil {
			device.Close()
			return fmt.Errorf("failed to send setpoint: %w", err)
		}
		log.Printf("Setpoint set to %d °C", target)
	}

	var wg sync.WaitGroup

	readings := device.Readings()
	if cfg.MQTT.Broker != "" {
		pub, err := telemetry.Connect(cfg.MQTT)
		if err != nil {
			log.Printf("MQTT disabled: %v", err)
		} else {
			defer pub.Close()

			var forPublisher <-chan link.Reading
			readings, forPublisher = teeChannel(readings)

			wg.Add(1)
			go func() {
				defer wg.Done()
				pub.Forward(context.Background(), forPublisher)
			}()
			log.Printf("Publishing readings to %s on %s", cfg.MQTT.Broker, cfg.MQTT.Topic)
		}
	}

	var convert sample.Converter
	if cfg.Monitor.AverageSamples > 1 {
		convert = sample.NewAveragingConverter(cfg.Monitor.AverageSamples, 500)
	} else {
		convert = sample.NewConverter(500)
	}

	tempMeter := meter.New(cfg.Monitor.Window)
	tempMeter.OnUpdate(newStatsLogger(cfg.Monitor.LogInterval, logStats).update)

	meterDone := make(chan struct{})
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer close(meterDone)
		tempMeter.ProcessSamples(convert(readings))
	}()

	apiDone := make(chan struct{})
	apiCtx, stopAPI := context.WithCancel(ctx)
	defer stopAPI()
	if cfg.Monitor.HTTPAddr != "" {
		srv := api.NewServer(cfg.Monitor.HTTPAddr, tempMeter, device)
		go func() {
			defer close(apiDone)
			if err := srv.Run(apiCtx); err != nil {
				log.Printf("API stopped: %v", err)
			}
		}()
	} else {
		close(apiDone)
	}

	var err error
	select {
	case <-ctx.Done():
	case <-meterDone:
		// The link stopped delivering readings on its own
		err = fmt.Errorf("link closed unexpectedly")
	}

	stopAPI()
	<-apiDone

	// Closing the link closes the readings channel, which drains the pipeline
	if cerr := device.Close(); cerr != nil {
		log.Printf("Error closing link: %v", cerr)
	}
	wg.Wait()
	log.Printf("Disconnected")
	return err
}

// statsLogger reports window statistics at most once per interval, paced by
// sample timestamps.
type statsLogger struct {
	interval time.Duration
	logf     func(meter.Stats)
	last     time.Time
}

func newStatsLogger(interval time.Duration, logf func(meter.Stats)) *statsLogger {
	return &statsLogger{interval: interval, logf: logf}
}

func (l *statsLogger) update(latest sample.Sample, stats meter.Stats) {
	if !l.last.IsZero() && latest.Timestamp.Sub(l.last) < l.interval {
		return
	}
	l.last = latest.Timestamp
	l.logf(stats)
}

func logStats(st meter.Stats) {
	if st.Count == 0 {
		log.Printf("No readings yet")
		return
	}
	log.Printf("T=%.1f °C  mean=%.2f  min=%.1f  max=%.1f  slope=%+.2f °C/min  (%d readings)",
		st.Last, st.Mean, st.Min, st.Max, st.Slope, st.Count)
}

// teeChannel duplicates every value from in onto two channels. Both outputs
// close when in closes.
func teeChannel(in <-chan link.Reading) (<-chan link.Reading, <-chan link.Reading) {
	a := make(chan link.Reading, 100)
	b := make(chan link.Reading, 100)

	go func() {
		defer close(a)
		defer close(b)
		for r := range in {
			a <- r
			select {
			case b <- r:
			default:
				// Publisher is lagging, the monitor still gets every reading
			}
		}
	}()

	return a, b
}
