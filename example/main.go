package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/Gurux/gxserial-go"
	"github.com/Gurux/gxserialrpc-go"
	"github.com/Gurux/gxserialrpc-go/api"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

var (
	config   = flag.String("c", "", "Settings file (.toml or .yaml).")
	port     = flag.String("S", "", "Port name. The first available port is used if not set.")
	baudRate = flag.Int("b", 0, "Baud rate.")
	t        = flag.String("t", "", "Trace level.")
	w        = flag.Duration("w", 0, "Request timeout.")
	lang     = flag.String("lang", "", "Used language.")
	level    = flag.String("v", "", "Log level (trace, debug, info, warn, error).")
	list     = flag.Bool("l", false, "List available serial ports.")
	metrics  = flag.String("metrics", "", "Serve Prometheus metrics on this address, for example :9100.")
	debug    = flag.Bool("debug", false, "Print device debug lines.")
)

func usage() {
	fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] command [name=value ...]\n\nFlags:\n", os.Args[0])
	flag.PrintDefaults()
	fmt.Fprintln(flag.CommandLine.Output(), "\nCommands:")
	for _, s := range api.Specs() {
		var params []string
		for _, p := range s.Params {
			arg := p.Name + "=" + p.Kind.String()
			if p.Optional {
				arg = "[" + arg + "]"
			}
			params = append(params, arg)
		}
		fmt.Fprintf(flag.CommandLine.Output(), "  %-26s %s\n", s.Name, strings.Join(params, " "))
	}
}

// parseCommand builds the command from the command line arguments.
func parseCommand(args []string) (api.Command, error) {
	spec, ok := api.Lookup(args[0])
	if !ok {
		return nil, fmt.Errorf("unknown command %q", args[0])
	}
	values := map[string]string{}
	for _, arg := range args[1:] {
		name, value, ok := strings.Cut(arg, "=")
		if !ok {
			return nil, fmt.Errorf("argument %q is not name=value", arg)
		}
		values[name] = value
	}
	a, err := spec.ParseArgs(values)
	if err != nil {
		return nil, err
	}
	return spec.Build(a), nil
}

func main() {
	flag.Usage = usage
	flag.Parse()
	if *list {
		ret, err := gxserial.GetPortNames()
		if err != nil {
			fmt.Fprintln(os.Stderr, "Failed to get available serial ports: ", err)
			os.Exit(1)
		}
		fmt.Println("Available serial ports: " + strings.Join(ret, ","))
		return
	}
	if flag.NArg() == 0 {
		flag.Usage()
		return
	}
	if err := run(flag.Args()); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	cmd, err := parseCommand(args)
	if err != nil {
		return err
	}
	settings, err := gxserialrpc.LoadSettings(*config)
	if err != nil {
		return err
	}
	if *port != "" {
		settings.Port = *port
	}
	if *baudRate != 0 {
		settings.BaudRate = *baudRate
	}
	if *t != "" {
		settings.Trace = *t
	}
	if *w != 0 {
		settings.RequestTimeout = *w
	}
	if *lang != "" {
		settings.Language = *lang
	}
	if *level != "" {
		settings.LogLevel = *level
	}
	if err := settings.Validate(); err != nil {
		return err
	}
	log := gxserialrpc.NewLogger(os.Stderr, settings.LogLevel)

	reg := prometheus.NewRegistry()
	opts := []gxserialrpc.Option{
		gxserialrpc.WithSettings(settings),
		gxserialrpc.WithLogger(log),
		gxserialrpc.WithMetrics(gxserialrpc.NewMetrics(reg)),
	}
	if *debug {
		opts = append(opts, gxserialrpc.WithDebugLines(func(line string) {
			fmt.Printf("Device: %s\n", line)
		}))
	}
	if *metrics != "" {
		serveMetrics(*metrics, reg, log)
	}

	media, err := gxserialrpc.NewGXSerialMedia(settings, log)
	if err != nil {
		return err
	}
	client := gxserialrpc.NewGXClient(media, opts...)
	//Close the connection.
	defer func() {
		if err := client.Close(); err != nil {
			log.Error().Err(err).Msg("close failed")
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	fmt.Printf("Host port: %s\n", media)
	if err := client.Open(ctx); err != nil {
		return err
	}
	value, err := client.SendRequest(ctx, cmd, nil)
	var de *gxserialrpc.DeviceError
	switch {
	case errors.As(err, &de):
		fmt.Printf("Device error %s: %s %s\n", de.Kind, de.Message, de.Arg)
	case err != nil:
		return err
	default:
		fmt.Printf("%s: %v\n", cmd.CommandName(), value)
	}
	// Failures the device could not associate with a request.
	for {
		r, ok := client.ErrorQueue().TryGet()
		if !ok {
			break
		}
		client.ErrorQueue().TaskDone()
		fmt.Printf("Unsolicited error: %s\n", r.Err)
	}
	return nil
}

func serveMetrics(addr string, reg *prometheus.Registry, log zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Str("addr", addr).Msg("metrics server stopped")
		}
	}()
}
