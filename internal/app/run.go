package app

import (
	"context"
	"io"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"

	serial "github.com/jacobsa/go-serial/serial"

	"github.com/relabs-tech/bike_client/internal/alert"
	"github.com/relabs-tech/bike_client/internal/bike"
	"github.com/relabs-tech/bike_client/internal/config"
	"github.com/relabs-tech/bike_client/internal/display"
	"github.com/relabs-tech/bike_client/internal/gps"
	"github.com/relabs-tech/bike_client/internal/rpc"
	"github.com/relabs-tech/bike_client/internal/session"
)

// Run wires the whole bike client together and blocks until SIGINT/SIGTERM.
// Each loop is its own goroutine observing the shared context; shutdown
// waits for all of them to drain before releasing the hardware.
func Run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	b := bike.New(cfg.BikeID, cfg.Seed, true)

	pub, err := alert.Connect(cfg.MQTTBroker, cfg.MQTTClientID)
	if err != nil {
		return err
	}
	defer pub.Close()

	var (
		wg     sync.WaitGroup
		hasFix func() bool
	)

	switch cfg.GPSMode {
	case config.GPSModeNMEA:
		port, err := openSerial(cfg.GPSSerialPort, cfg.GPSBaudRate)
		if err != nil {
			return err
		}
		defer port.Close()
		hasFix = func() bool {
			_, ok := b.LastReading()
			return ok
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			RunNMEAPoller(ctx, port, b)
		}()
	default:
		reader, err := gps.Open(cfg.GPSSerialPort, cfg.GPSBaudRate)
		if err != nil {
			return err
		}
		defer reader.Close()
		hasFix = func() bool { return reader.Status().HasFix() }
		wg.Add(1)
		go func() {
			defer wg.Done()
			RunGPSPoller(ctx, reader, b)
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		RunGeofence(ctx, b, pub, cfg.GeofenceInterval, cfg.GeofenceThresholdKm)
	}()

	// Display hardware is optional; the client still runs without it.
	screen, err := display.OpenScreen()
	if err != nil {
		log.Printf("display: screen unavailable: %v", err)
		screen = nil
	} else {
		defer screen.Close()
	}
	led, err := display.OpenLED(cfg.LEDRedPin, cfg.LEDGreenPin, cfg.LEDBluePin)
	if err != nil {
		log.Printf("display: led unavailable: %v", err)
		led = nil
	} else {
		defer led.Close()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		RunDisplay(ctx, b, screen, led, hasFix, cfg.DisplayInterval)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := RunStatusServer(ctx, b, hasFix, cfg.StatusAddr); err != nil {
			log.Printf("status: server error: %v", err)
		}
	}()

	engine := rpc.NewEngine(b)
	manager := session.NewManager(b, engine, cfg.ServerURL, cfg.MasterKey,
		cfg.ReconnectBackoff, cfg.TelemetryInterval)
	wg.Add(1)
	go func() {
		defer wg.Done()
		// An irrecoverable auth failure stops the session only; the GPS
		// and geofence loops keep running against the last known state.
		if err := manager.Run(ctx); err != nil {
			log.Printf("session: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("bike: shutting down")
	wg.Wait()
	return nil
}

func openSerial(portName string, baudRate uint) (io.ReadWriteCloser, error) {
	return serial.Open(serial.OpenOptions{
		PortName:        portName,
		BaudRate:        baudRate,
		DataBits:        8,
		StopBits:        1,
		MinimumReadSize: 1,
		ParityMode:      serial.PARITY_NONE,
	})
}
