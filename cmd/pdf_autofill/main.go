// Command pdf_autofill fills and signs every PDF form in the input
// directory, writing filled_<name> and signed_filled_<name> next to the
// configured output directory.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/a3tai/mcp-pdf-autofill/internal/app"
	"github.com/a3tai/mcp-pdf-autofill/internal/config"
	"github.com/a3tai/mcp-pdf-autofill/internal/pdf"
)

var version = "dev" // This will be set by build flags

var errAborted = errors.New("aborted")

var (
	contextText = pflag.String("context", "", "Free text about the person or entity the forms are for")
	noPrompt    = pflag.Bool("no-prompt", false, "Never prompt for context, even on a terminal")
)

func main() {
	cfg, err := config.LoadFromFlags()
	if errors.Is(err, config.ErrVersionRequested) {
		fmt.Printf("pdf_autofill %s\n", version)
		return
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger := app.NewLogger(cfg.LogLevel, os.Stderr)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	text := *contextText
	if text == "" && !*noPrompt && term.IsTerminal(int(os.Stdin.Fd())) {
		text, err = askContext(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading context: %v\n", err)
			os.Exit(1)
		}
	}

	svc, err := app.NewService(cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := run(ctx, svc, cfg.PDFDirectory, text, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// batchRunner is the part of pdf.Service the batch run needs
type batchRunner interface {
	ProcessDirectory(ctx context.Context, req pdf.ProcessDirectoryRequest) (*pdf.ProcessDirectoryResult, error)
}

// run processes dir and prints one line per completed document. Documents
// completed before a failure are still reported.
func run(ctx context.Context, svc batchRunner, dir, text string, out io.Writer) error {
	result, err := svc.ProcessDirectory(ctx, pdf.ProcessDirectoryRequest{
		Directory: dir,
		Context:   strings.TrimSpace(text),
	})
	if result != nil {
		for _, p := range result.Processed {
			fmt.Fprintf(out, "%s -> %s\n", p.Path, p.SignedPath)
		}
		if result.Found == 0 {
			fmt.Fprintf(out, "No PDF files found in %s\n", result.Directory)
		} else {
			fmt.Fprintf(out, "Processed %d of %d document(s)\n", len(result.Processed), result.Found)
		}
	}
	return err
}

func askContext(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	var out string
	prompt := &survey.Multiline{
		Message: "Additional information for the forms (optional)",
		Help:    "Names, addresses, dates... Leave empty to let the model invent plausible values.",
	}
	if err := survey.AskOne(prompt, &out); err != nil {
		if errors.Is(err, terminal.InterruptErr) {
			return "", errAborted
		}
		return "", err
	}
	return out, nil
}
