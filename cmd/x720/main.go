package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli"

	"x720/internal/bus"
	"x720/internal/config"
	"x720/internal/poller"
	"x720/internal/sensor"
	"x720/internal/server"
	"x720/internal/x720"
)

func main() {
	app := cli.NewApp()

	app.Name = "x720"
	app.Usage = "serve X720 UPS battery voltage and capacity"
	app.Version = "0.1.0"

	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "config, c",
			Usage: "load configuration from `FILE`",
		},
		cli.BoolFlag{
			Name:  "debug",
			Usage: "enable debug logging",
		},
	}
	app.Commands = []cli.Command{
		{
			Name:   "read",
			Usage:  "initialize the gauge, print one reading and exit",
			Action: read,
		},
	}
	app.Action = serve

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func setup(c *cli.Context) (*config.Config, *bus.Periph, *x720.Driver, error) {
	log.SetFormatter(&log.TextFormatter{DisableColors: true})

	cfg, err := config.Load(c.GlobalString("config"))
	if err != nil {
		return nil, nil, nil, err
	}
	if cfg.Debug || c.GlobalBool("debug") {
		log.SetLevel(log.DebugLevel)
	}

	b, err := bus.Open(cfg.BusName())
	if err != nil {
		log.WithError(err).Errorf("X720 sensor not detected at 0x%02x", cfg.Address)
		return nil, nil, nil, err
	}
	drv := x720.New(b, &x720.Opts{
		Addr:   cfg.Address,
		Logger: log.StandardLogger(),
	})
	return cfg, b, drv, nil
}

func read(c *cli.Context) error {
	cfg, b, drv, err := setup(c)
	if err != nil {
		return err
	}
	defer b.Close()

	if err := drv.Initialize(); err != nil {
		log.Error("X720 sensor failed to initialize")
		return err
	}
	set, err := sensor.NewSet(cfg.Name, cfg.Monitored)
	if err != nil {
		return err
	}
	r, _ := drv.Latest()
	set.Update(r)
	for _, e := range set.Entities() {
		fmt.Printf("%s: %.1f %s\n", e.Name, *e.State, e.Unit)
	}
	return nil
}

func serve(c *cli.Context) error {
	cfg, b, drv, err := setup(c)
	if err != nil {
		return err
	}
	defer b.Close()

	set, err := sensor.NewSet(cfg.Name, cfg.Monitored)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(cfg.Name, set, drv, log.StandardLogger())
	serveHTTP := func(ctx context.Context) error {
		return srv.Run(ctx, cfg.Listen)
	}
	poll := func(ctx context.Context) error {
		// The settle wait runs off the serving path; the HTTP endpoint
		// reports "initializing" meanwhile.
		select {
		case err := <-drv.InitializeAsync():
			if err != nil {
				log.WithError(err).Error("X720 sensor failed to initialize")
				return cli.NewExitError(err.Error(), 1)
			}
		case <-ctx.Done():
			return ctx.Err()
		}

		if r, ok := drv.Latest(); ok {
			set.Update(r)
		}
		log.WithFields(log.Fields{
			"bus":      b.String(),
			"interval": cfg.ScanInterval,
		}).Info("polling X720")
		return poller.Run(ctx, drv, cfg.ScanInterval, log.StandardLogger(), set.Update)
	}
	return runAll(ctx, serveHTTP, poll)
}

// runAll runs serveHTTP in the background and work in the foreground. When
// either one returns the other is cancelled. A server error takes precedence
// over the work result; cancellation is not an error.
func runAll(ctx context.Context, serveHTTP, work func(context.Context) error) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	srvErr := make(chan error, 1)
	go func() {
		err := serveHTTP(ctx)
		if err != nil {
			log.WithError(err).Error("Server failed")
		}
		srvErr <- err
		cancel()
	}()

	err := work(ctx)
	cancel()
	if serr := <-srvErr; serr != nil {
		return serr
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
