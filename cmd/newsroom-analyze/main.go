// Command newsroom-analyze runs a deep analysis of one article against the
// analysis service, or replays a captured event stream, and prints progress.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/gosuda/newsroom/internal/analysis"
)

var verbose bool //nolint:gochecknoglobals // cobra persistent flag

func main() {
	_ = godotenv.Load()

	root := &cobra.Command{
		Use:           "newsroom-analyze",
		Short:         "Run or replay a deep article analysis",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log decoder diagnostics to stderr")

	root.AddCommand(runCmd())
	root.AddCommand(replayCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func logger() zerolog.Logger {
	if !verbose {
		return zerolog.Nop()
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
}

func runCmd() *cobra.Command {
	var (
		endpoint    string
		apiKey      string
		req         analysis.ArticleRequest
		contentFile string
		timeout     time.Duration
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Stream a live analysis from the analysis service",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if req.Headline == "" || req.URL == "" {
				return errors.New("--headline and --url are required")
			}
			if contentFile != "" {
				data, err := os.ReadFile(contentFile)
				if err != nil {
					return fmt.Errorf("reading content: %w", err)
				}
				req.Content = string(data)
			}
			if req.Date == "" {
				req.Date = time.Now().Format(time.DateOnly)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			client := analysis.NewClient(endpoint, apiKey, analysis.StreamingHTTPClient(timeout))
			session := analysis.NewSession(client, logger())

			p := newPrinter(cmd.OutOrStdout())
			session.OnUpdate(p.print)
			session.Start(ctx, req)

			st, err := session.Wait(context.Background())
			if err != nil {
				return err
			}
			return p.finish(session.Status(), st)
		},
	}

	f := cmd.Flags()
	f.StringVar(&endpoint, "endpoint", envOr("NEWSROOM_ANALYSIS_ENDPOINT", "http://localhost:8000/api/analyze/stream"), "analysis stream endpoint")
	f.StringVar(&apiKey, "api-key", os.Getenv("NEWSROOM_ANALYSIS_API_KEY"), "analysis service API key")
	f.StringVar(&req.Headline, "headline", "", "article headline")
	f.StringVar(&req.URL, "url", "", "article URL")
	f.StringVar(&req.Summary, "summary", "", "article summary")
	f.StringVar(&req.Source, "source", "", "publisher name")
	f.StringVar(&req.Date, "date", "", "publication date (YYYY-MM-DD, default today)")
	f.StringVar(&contentFile, "content-file", "", "file holding the article body")
	f.DurationVar(&timeout, "header-timeout", 30*time.Second, "time to wait for the stream to open")

	return cmd
}

func replayCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "replay <file>",
		Short: "Fold a captured event stream (or - for stdin) into analysis state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var in io.Reader = cmd.InOrStdin()
			if args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}

			p := newPrinter(cmd.OutOrStdout())
			st, status, err := replay(cmd.Context(), in, logger(), p.print)
			if err != nil {
				return err
			}
			return p.finish(status, st)
		},
	}
}

// replay folds every event in r into a fresh state, calling fn after each
// applied event. Like a live session it reads to the end of the stream.
func replay(ctx context.Context, r io.Reader, log zerolog.Logger, fn func(analysis.State)) (analysis.State, analysis.SessionStatus, error) {
	st := analysis.InitialState()
	st.IsStreaming = true

	err := analysis.NewDecoder(log).Stream(ctx, r, func(ev analysis.Event) bool {
		st = analysis.Apply(st, ev)
		fn(st)
		return true
	})
	st.IsStreaming = false
	if err != nil {
		return st, analysis.StatusError, fmt.Errorf("replay: %w", err)
	}
	if st.Error != nil {
		return st, analysis.StatusError, nil
	}
	return st, analysis.StatusComplete, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// printer writes one line per visible change between successive states.
type printer struct {
	w      io.Writer
	phase  string
	agents map[string]analysis.AgentState
	synth  analysis.SynthesisStatus
}

func newPrinter(w io.Writer) *printer {
	return &printer{w: w, agents: make(map[string]analysis.AgentState)}
}

func (p *printer) print(st analysis.State) {
	if st.PhaseName != "" && st.PhaseName != p.phase {
		p.phase = st.PhaseName
		fmt.Fprintf(p.w, "== phase %d: %s\n", st.CurrentPhase, st.PhaseName)
	}
	for _, name := range analysis.AgentNames {
		a := st.Agents[name]
		if prev, ok := p.agents[name]; ok && prev == a.Status {
			continue
		}
		p.agents[name] = a.Status
		if a.Status == analysis.AgentWaiting {
			continue
		}
		line := fmt.Sprintf("[%3d%%] %-14s %s", st.Progress, name, a.Status)
		if a.Error != "" {
			line += ": " + a.Error
		}
		fmt.Fprintln(p.w, line)
	}
	if st.SynthesisStatus != p.synth {
		p.synth = st.SynthesisStatus
		if st.SynthesisStatus != analysis.SynthesisWaiting {
			fmt.Fprintf(p.w, "[%3d%%] %-14s %s\n", st.Progress, "synthesis", st.SynthesisStatus)
		}
	}
}

func (p *printer) finish(status analysis.SessionStatus, st analysis.State) error {
	switch status {
	case analysis.StatusError:
		return fmt.Errorf("analysis failed: %s", st.ErrorMessage())
	case analysis.StatusCancelled:
		fmt.Fprintln(p.w, "analysis cancelled")
		return nil
	}

	if !st.HasResult() {
		fmt.Fprintln(p.w, "stream ended without a report")
		return nil
	}

	var out bytes.Buffer
	if err := json.Indent(&out, st.FinalResponse, "", "  "); err != nil {
		return fmt.Errorf("formatting report: %w", err)
	}
	fmt.Fprintln(p.w, out.String())
	return nil
}
