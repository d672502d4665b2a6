package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	locations "github.com/paulstuart/go-locations"
	"github.com/paulstuart/go-locations/internal/logger"
)

type config struct {
	Src     string
	Dest    string
	WithGob bool
	Verbose bool
}

// loadConfig starts from the package defaults, applies the environment and
// then the command line flags, so a flag always wins
func loadConfig(args []string, getenv func(string) string) (config, error) {
	cfg := config{
		Src:  locations.LocationDatFile,
		Dest: locations.LocationJSONFile,
	}
	if v := getenv("LOCATION_SRC"); v != "" {
		cfg.Src = v
	}
	if v := getenv("LOCATION_DEST"); v != "" {
		cfg.Dest = v
	}
	cfg.WithGob, _ = strconv.ParseBool(getenv("LOCATION_GOB"))

	fs := flag.NewFlagSet("extract", flag.ContinueOnError)
	fs.StringVar(&cfg.Src, "src", cfg.Src, "legacy location database (Latin-1 text)")
	fs.StringVar(&cfg.Dest, "dest", cfg.Dest, "json file to create")
	fs.BoolVar(&cfg.WithGob, "gob", cfg.WithGob, "also save a gob.gz snapshot next to the json file")
	fs.BoolVar(&cfg.Verbose, "v", false, "log every skipped line")
	if err := fs.Parse(args); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// run converts the database and writes the summary line to out
func run(cfg config, out io.Writer, l *slog.Logger) error {
	skipped := 0
	doc, err := locations.ConvertWithResults(cfg.Src, cfg.Dest, func(lineNo int, res locations.LineResult) {
		if res.Kind != locations.LineSkipped {
			return
		}
		skipped++
		if cfg.Verbose {
			l.Info("line_skipped", "line", lineNo, "reason", res.Reason.String(), "field", res.Field)
		}
	})
	if err != nil {
		return err
	}
	l.Debug("convert_done", "countries", len(doc), "cities", doc.CityCount(), "skipped", skipped)

	if cfg.WithGob {
		gobFile := locations.GobFileFor(cfg.Dest)
		if err := locations.GobDump(gobFile, doc); err != nil {
			return fmt.Errorf("can't save %q -- %w", gobFile, err)
		}
		l.Debug("gob_written", "path", gobFile)
	}

	_, err = fmt.Fprintf(out, "Successfully extracted %d countries to %s\n", len(doc), cfg.Dest)
	return err
}

func main() {
	// .env is optional, values already set in the environment win
	_ = godotenv.Load(".env")
	logger.Setup()

	cfg, err := loadConfig(os.Args[1:], os.Getenv)
	if err != nil {
		os.Exit(2)
	}
	if err := run(cfg, os.Stdout, logger.L()); err != nil {
		logger.L().Error("extract_error", "src", cfg.Src, "dest", cfg.Dest, "err", err)
		os.Exit(1)
	}
}
