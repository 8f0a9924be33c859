// Command curriculumgen converts a numbered science outline into the
// curriculum document the server loads.
//
//	curriculumgen -in outline.txt -out curriculum.json
//
// The output format follows the -out extension (.yaml/.yml or JSON) unless
// -format is given. Structural warnings such as unknown prerequisites are
// printed to stderr and do not fail the run.
package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/phrazzld/sciencepath/internal/catalog"
	"github.com/phrazzld/sciencepath/internal/domain/curriculum"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	if err := run(os.Args[1:], os.Stdin, os.Stdout, logger); err != nil {
		logger.Error("curriculum generation failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(args []string, stdin io.Reader, stdout io.Writer, logger *slog.Logger) error {
	fs := flag.NewFlagSet("curriculumgen", flag.ContinueOnError)
	in := fs.String("in", "-", "outline file, or - for stdin")
	out := fs.String("out", "-", "output file, or - for stdout")
	format := fs.String("format", "", "json or yaml (default: from -out extension)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	src := stdin
	if *in != "-" {
		f, err := os.Open(*in)
		if err != nil {
			return fmt.Errorf("failed to open outline: %w", err)
		}
		defer f.Close()
		src = f
	}

	doc, err := catalog.ParseOutline(src)
	if err != nil {
		return err
	}
	if len(doc.Topics) == 0 {
		return fmt.Errorf("outline contains no numbered topics")
	}

	for _, w := range curriculum.New(doc).Warnings() {
		logger.Warn("curriculum warning", slog.String("warning", w))
	}

	f := catalog.Format(*format)
	if f == "" {
		f = catalog.FormatJSON
		if *out != "-" {
			f = catalog.FormatFromPath(*out)
		}
	}
	data, err := catalog.Encode(doc, f)
	if err != nil {
		return err
	}

	if *out == "-" {
		_, err = stdout.Write(data)
		return err
	}
	if err := os.WriteFile(*out, data, 0o644); err != nil {
		return fmt.Errorf("failed to write curriculum: %w", err)
	}
	logger.Info("curriculum written", slog.String("path", *out), slog.Int("topic_count", len(doc.Topics)))
	return nil
}
