package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/joseph-ayodele/health-reports/internal/common"
	"github.com/joseph-ayodele/health-reports/internal/export"
	"github.com/joseph-ayodele/health-reports/internal/ingest"
	"github.com/joseph-ayodele/health-reports/internal/pipeline"
	repo "github.com/joseph-ayodele/health-reports/internal/repository"
	"github.com/joseph-ayodele/health-reports/internal/server"
)

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().RunContext(ctx, os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

var keyFlag = &cli.StringFlag{
	Name:    "key",
	Usage:   "OpenRouter API key",
	EnvVars: []string{"OPENROUTER_API_KEY"},
}

var jsonFlag = &cli.BoolFlag{Name: "json", Usage: "print the report as JSON"}

func newApp() *cli.App {
	return &cli.App{
		Name:  "scanreport",
		Usage: "extract and classify measurements from health report PDFs and images",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}, Usage: "log pipeline events to stderr"},
		},
		Commands: []*cli.Command{
			{
				Name:      "scan",
				Usage:     "analyze one report file",
				ArgsUsage: "FILE",
				Flags: []cli.Flag{
					keyFlag,
					jsonFlag,
					&cli.BoolFlag{Name: "no-save", Usage: "do not store the report"},
				},
				Action: scan,
			},
			{
				Name:   "models",
				Usage:  "list vision-capable providers",
				Flags:  []cli.Flag{keyFlag},
				Action: models,
			},
			{
				Name:  "verify",
				Usage: "check that the API key is accepted",
				Flags: []cli.Flag{
					keyFlag,
					&cli.StringFlag{Name: "model", Usage: "model used for the check"},
				},
				Action: verify,
			},
			{
				Name:   "latest",
				Usage:  "print the stored report",
				Flags:  []cli.Flag{jsonFlag},
				Action: latest,
			},
			{
				Name:  "export",
				Usage: "write a report to an XLSX workbook",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "id", Usage: "report id (default latest)"},
					&cli.StringFlag{Name: "out", Usage: "output file", Required: true},
				},
				Action: exportXLSX,
			},
			{
				Name:   "clear",
				Usage:  "delete stored reports",
				Action: clearReports,
			},
		},
	}
}

func setup(c *cli.Context) (*common.Config, *slog.Logger) {
	cfg := common.LoadConfig()
	var w io.Writer = io.Discard
	if c.Bool("verbose") {
		w = os.Stderr
	}
	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)
	return cfg, logger
}

func openReports(c *cli.Context, cfg *common.Config, logger *slog.Logger) (repo.ReportRepository, func(), error) {
	db, err := server.ConnectDB(c.Context, cfg.Database, logger)
	if err != nil {
		return nil, nil, err
	}
	return repo.NewReportRepository(db, logger), func() { server.CloseDB(db, logger) }, nil
}

func scan(c *cli.Context) error {
	path := c.Args().First()
	if path == "" {
		return cli.Exit("scan requires a FILE argument", 2)
	}
	cfg, logger := setup(c)

	doc, err := ingest.LoadDocument(path)
	if err != nil {
		return err
	}

	var sink pipeline.ReportSink
	if !c.Bool("no-save") {
		reports, closeDB, err := openReports(c, cfg, logger)
		if err != nil {
			return err
		}
		defer closeDB()
		sink = reports
	}

	comps, err := pipeline.Build(cfg, sink, logger)
	if err != nil {
		return err
	}

	out := c.App.Writer
	rep, err := comps.Processor.Process(c.Context, doc, pipeline.RunConfig{
		Credential: c.String("key"),
		Observer:   progressPrinter{w: c.App.ErrWriter},
	})
	if err != nil {
		if rep == nil {
			return err
		}
		fmt.Fprintf(c.App.ErrWriter, "warning: %v\n", err)
	}

	if c.Bool("json") {
		return writeJSON(out, rep)
	}
	printReport(out, rep)
	return nil
}

func models(c *cli.Context) error {
	cfg, logger := setup(c)
	comps, err := pipeline.Build(cfg, nil, logger)
	if err != nil {
		return err
	}
	for _, id := range comps.Directory.ListVisionCapable(c.Context, c.String("key")) {
		fmt.Fprintln(c.App.Writer, id)
	}
	return nil
}

func verify(c *cli.Context) error {
	cfg, logger := setup(c)
	comps, err := pipeline.Build(cfg, nil, logger)
	if err != nil {
		return err
	}
	if err := comps.Client.VerifyCredential(c.Context, c.String("key"), c.String("model")); err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, "key OK")
	return nil
}

func latest(c *cli.Context) error {
	cfg, logger := setup(c)
	reports, closeDB, err := openReports(c, cfg, logger)
	if err != nil {
		return err
	}
	defer closeDB()

	rep, err := reports.Latest(c.Context)
	if err != nil {
		return err
	}
	if c.Bool("json") {
		return writeJSON(c.App.Writer, rep)
	}
	printReport(c.App.Writer, rep)
	return nil
}

func exportXLSX(c *cli.Context) error {
	cfg, logger := setup(c)
	reports, closeDB, err := openReports(c, cfg, logger)
	if err != nil {
		return err
	}
	defer closeDB()

	b, err := export.NewService(reports, logger).ReportXLSX(c.Context, c.String("id"))
	if err != nil {
		return err
	}
	out := c.String("out")
	if err := os.WriteFile(out, b, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", out, err)
	}
	fmt.Fprintf(c.App.Writer, "wrote %s (%d bytes)\n", out, len(b))
	return nil
}

func clearReports(c *cli.Context) error {
	cfg, logger := setup(c)
	reports, closeDB, err := openReports(c, cfg, logger)
	if err != nil {
		return err
	}
	defer closeDB()

	n, err := reports.Clear(c.Context)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "deleted %d report(s)\n", n)
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
