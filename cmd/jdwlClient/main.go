package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/jdwl-go/jdwl/internal/batch"
	"github.com/jdwl-go/jdwl/pkg/config"
	"github.com/jdwl-go/jdwl/pkg/gateway"
	"github.com/jdwl-go/jdwl/pkg/logger"
	"github.com/jdwl-go/jdwl/pkg/procedures"
	"github.com/jdwl-go/jdwl/pkg/signing"
)

func main() {
	app := &cli.App{
		Name:  "jdwl-client",
		Usage: "Signed-request client for the JD Logistics open gateway",
		Description: `Calls JD Logistics gateway procedures with signed envelopes.

This client can:
- Call any registered procedure and print its unwrapped result
- Compute the gateway signature for an arbitrary field set
- List the procedure registry
- Run batches of calls concurrently from a JSON lines file`,
		Version: "1.0.0",
		Flags:   globalFlags(),
		Commands: []*cli.Command{
			{
				Name:  "call",
				Usage: "Call a procedure and print its unwrapped result",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "method",
						Usage:    "Procedure name, e.g. jingdong.ldop.waybill.query",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "payload",
						Usage: "Business payload as JSON",
						Value: "{}",
					},
					&cli.BoolFlag{
						Name:  "raw",
						Usage: "Print the whole response object instead of the unwrapped result",
					},
					&cli.BoolFlag{
						Name:  "allow-unregistered",
						Usage: "Allow procedure names missing from the registry",
					},
				},
				Action: callCommand,
			},
			{
				Name:  "sign",
				Usage: "Print the signature of a field set",
				Flags: []cli.Flag{
					&cli.StringSliceFlag{
						Name:     "field",
						Usage:    "Field as key=value, repeatable",
						Required: true,
					},
				},
				Action: signCommand,
			},
			{
				Name:   "procedures",
				Usage:  "List registered procedures",
				Action: proceduresCommand,
			},
			{
				Name:  "batch",
				Usage: "Run calls from a JSON lines file concurrently",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "file",
						Usage:    `JSON lines file, one {"method":...,"payload":{...}} per line ("-" for stdin)`,
						Required: true,
					},
					&cli.IntFlag{
						Name:  "concurrency",
						Usage: "Maximum calls in flight",
						Value: batch.DefaultConcurrency,
					},
					&cli.Float64Flag{
						Name:  "qps",
						Usage: "Maximum calls started per second (0 = unlimited)",
						Value: 0,
					},
				},
				Action: batchCommand,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// globalFlags returns the credential and behaviour flags shared by every command
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Usage:   "Path to a YAML config file",
			EnvVars: []string{config.EnvJDWLConfigFile},
		},
		&cli.StringFlag{
			Name:    "app-key",
			Usage:   "Gateway app key",
			EnvVars: []string{config.EnvJDWLAppKey},
		},
		&cli.StringFlag{
			Name:    "app-secret",
			Usage:   "Gateway app secret",
			EnvVars: []string{config.EnvJDWLAppSecret},
		},
		&cli.StringFlag{
			Name:    "access-token",
			Usage:   "Gateway access token",
			EnvVars: []string{config.EnvJDWLAccessToken},
		},
		&cli.StringFlag{
			Name:    "timezone",
			Usage:   "IANA timezone for envelope timestamps (default: local)",
			EnvVars: []string{config.EnvJDWLTimezone},
		},
		&cli.DurationFlag{
			Name:    "timeout",
			Usage:   "HTTP timeout per call",
			Value:   config.DefaultTimeout,
			EnvVars: []string{config.EnvJDWLTimeout},
		},
		&cli.BoolFlag{
			Name:    "permissive",
			Usage:   "Log failures and return an empty result instead of failing",
			EnvVars: []string{config.EnvJDWLPermissive},
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Usage:   "Enable verbose logging",
			EnvVars: []string{config.EnvJDWLVerbose},
		},
	}
}

// loadGatewayConfig merges the config file with flags and environment, flags winning
func loadGatewayConfig(c *cli.Context) (*config.GatewayConfig, error) {
	cfg := &config.GatewayConfig{}
	if path := c.String("config"); path != "" {
		fileCfg, err := config.LoadGatewayConfigFromFile(path)
		if err != nil {
			return nil, err
		}
		cfg = fileCfg
	}
	flagCfg := &config.GatewayConfig{
		AppKey:      c.String("app-key"),
		AppSecret:   c.String("app-secret"),
		AccessToken: c.String("access-token"),
		Timezone:    c.String("timezone"),
		Permissive:  c.Bool("permissive"),
		Verbose:     c.Bool("verbose"),
	}
	if c.IsSet("timeout") || cfg.Timeout == 0 {
		flagCfg.Timeout = c.Duration("timeout")
	}
	cfg.Merge(flagCfg)
	if c.IsSet("permissive") {
		cfg.Permissive = c.Bool("permissive")
	}
	if c.IsSet("verbose") {
		cfg.Verbose = c.Bool("verbose")
	}
	return cfg, nil
}

// createClient creates a new gateway client from CLI context
func createClient(c *cli.Context) (*gateway.Client, *zap.Logger, error) {
	cfg, err := loadGatewayConfig(c)
	if err != nil {
		return nil, nil, fmt.Errorf("configuration error: %w", err)
	}

	l, err := logger.NewLogger(&logger.LoggerConfig{Debug: cfg.Verbose})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create logger: %w", err)
	}

	client, err := gateway.NewClientFromGatewayConfig(cfg, l)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create gateway client: %w", err)
	}
	return client, l, nil
}

// callCommand handles the call subcommand
func callCommand(c *cli.Context) error {
	method := c.String("method")
	if _, ok := procedures.Lookup(method); !ok && !c.Bool("allow-unregistered") {
		return fmt.Errorf("unknown procedure %s (use --allow-unregistered to call it anyway)", method)
	}

	payload := json.RawMessage(c.String("payload"))
	if !json.Valid(payload) {
		return fmt.Errorf("payload is not valid JSON")
	}

	client, l, err := createClient(c)
	if err != nil {
		return err
	}
	defer func() { _ = l.Sync() }()

	var out any
	if c.Bool("raw") {
		resp, err := client.Do(c.Context, method, payload)
		if err != nil {
			return fmt.Errorf("failed to call %s: %w", method, err)
		}
		out = resp
	} else {
		result, err := client.Call(c.Context, method, payload)
		if err != nil {
			return fmt.Errorf("failed to call %s: %w", method, err)
		}
		out = result
	}

	return printJSON(out)
}

// signCommand handles the sign subcommand
func signCommand(c *cli.Context) error {
	cfg, err := loadGatewayConfig(c)
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}
	if cfg.AppSecret == "" {
		return fmt.Errorf("app secret is required")
	}

	fields := make(map[string]string)
	for _, kv := range c.StringSlice("field") {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			return fmt.Errorf("invalid field %q, expected key=value", kv)
		}
		fields[k] = v
	}

	fmt.Println(signing.SignEnvelope(fields, cfg.AppSecret))
	return nil
}

// proceduresCommand handles the procedures subcommand
func proceduresCommand(c *cli.Context) error {
	all := procedures.All()
	sort.Slice(all, func(i, j int) bool { return all[i].Name < all[j].Name })

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "NAME\tRESPONSE KEY\tDESCRIPTION")
	for _, p := range all {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", p.Name, p.ResponseKey(), p.Description)
	}
	return w.Flush()
}

// batchCommand handles the batch subcommand
func batchCommand(c *cli.Context) error {
	path := c.String("file")
	in := os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("failed to open batch file: %w", err)
		}
		defer func() { _ = f.Close() }()
		in = f
	}

	calls, err := batch.ReadCalls(in)
	if err != nil {
		return err
	}

	client, l, err := createClient(c)
	if err != nil {
		return err
	}
	defer func() { _ = l.Sync() }()

	runner, err := batch.NewRunner(client, &batch.Config{
		Concurrency: c.Int("concurrency"),
		QPS:         c.Float64("qps"),
		Logger:      l,
	})
	if err != nil {
		return fmt.Errorf("failed to create batch runner: %w", err)
	}

	results, runErr := runner.Run(c.Context, calls)

	w := bufio.NewWriter(os.Stdout)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	for _, res := range results {
		if err := enc.Encode(res); err != nil {
			return fmt.Errorf("failed to write result: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		return err
	}
	return runErr
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
