package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"ham-practice/internal/app"
	"ham-practice/internal/config"
	"ham-practice/internal/domain"
	"ham-practice/internal/infra/memory"
	"ham-practice/internal/infra/sqlite"
	transport "ham-practice/internal/transport/http"
)

const practiceHelp = `commands:
  banks              list banks
  load ID            practice a whole bank
  wrong ID           practice the questions you got wrong
  random ID          build a random exam set
  s LABELS           select option(s), e.g. "s B" or "s AC"
  c                  check the current question
  submit             score the random set
  j N|ID             jump to a question number or id
  n, p               next / previous question
  reset              clear the current selection
  show               print the current question
  q                  quit`

// NewPracticeCmd runs an interactive terminal practice loop against a remote provider.
func NewPracticeCmd(configPath *string) *cobra.Command {
	var apiBase, dbPath, learner string
	cmd := &cobra.Command{
		Use:   "practice",
		Short: "Practice interactively in the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			if apiBase == "" {
				apiBase = cfg.Provider.URL
			}
			if apiBase == "" {
				return fmt.Errorf("provider url not configured (use --api or HAM_API_BASE)")
			}
			if dbPath == "" {
				dbPath = cfg.SQLite.Path
			}
			if dbPath == "" {
				dbPath = defaultProgressPath()
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			store, err := sqlite.Open(ctx, dbPath)
			if err != nil {
				return err
			}
			defer store.Close()

			client := transport.NewProviderClient(apiBase, config.TTLDuration(cfg.Provider.Timeout, 0))
			banks := memory.NewBankRepository(client, config.TTLDuration(cfg.Bank.CacheTTL, 0))
			engine := app.NewEngine(banks, app.NewTracker(store, learner), engineOptions(cfg))
			return runPractice(ctx, engine, client.PDFURL, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&apiBase, "api", "", "bank provider base URL (defaults to HAM_API_BASE)")
	cmd.Flags().StringVar(&dbPath, "db", "", "SQLite file for progress (defaults to sqlite.path)")
	cmd.Flags().StringVar(&learner, "learner", "", "progress namespace")
	return cmd
}

func defaultProgressPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "ham-practice.db"
	}
	dir = filepath.Join(dir, "ham-practice")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "ham-practice.db"
	}
	return filepath.Join(dir, "progress.db")
}

func runPractice(ctx context.Context, engine *app.Engine, pdfURL func(domain.BankSummary) string, in io.Reader, out io.Writer) error {
	if err := engine.Resume(ctx); err != nil {
		fmt.Fprintf(out, "error: %v\n", err)
	}
	printView(out, engine.Snapshot())

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		cmd, arg := strings.ToLower(fields[0]), strings.Join(fields[1:], " ")

		switch cmd {
		case "q", "quit", "exit":
			return nil
		case "help", "h", "?":
			fmt.Fprintln(out, practiceHelp)
			continue
		case "banks":
			banks, err := engine.ListBanks(ctx)
			if err != nil {
				fmt.Fprintf(out, "error: %v (showing fallback list)\n", err)
			}
			for _, b := range banks {
				marker := ""
				if !b.HasQuestions {
					marker = " (PDF only)"
				}
				fmt.Fprintf(out, "  %-8s %s%s  %s\n", b.ID, b.Label, marker, pdfURL(b))
			}
			continue
		case "load", "wrong", "random":
			if arg == "" {
				fmt.Fprintln(out, "usage: "+cmd+" ID")
				continue
			}
			var err error
			switch cmd {
			case "load":
				err = engine.LoadBank(ctx, arg)
			case "wrong":
				err = engine.LoadWrong(ctx, arg)
			default:
				err = engine.BuildRandom(ctx, arg)
			}
			if err != nil {
				fmt.Fprintf(out, "error: %v\n", err)
			}
		case "s", "select":
			for _, r := range strings.ReplaceAll(arg, " ", "") {
				engine.Select(string(r))
			}
		case "c", "check":
			if result, ok := engine.Check(); ok {
				fmt.Fprintln(out, result.Summary)
			}
		case "submit":
			score, err := engine.SubmitRandom()
			if err != nil {
				fmt.Fprintf(out, "error: %v\n", err)
				continue
			}
			fmt.Fprintf(out, "score: %d/%d\n", score.Correct, score.Total)
			continue
		case "j", "jump":
			if err := engine.Jump(arg); err != nil && !errors.Is(err, domain.ErrInvalidTarget) {
				fmt.Fprintf(out, "error: %v\n", err)
				continue
			}
		case "n", "next":
			engine.Next()
		case "p", "prev", "previous":
			engine.Previous()
		case "reset":
			engine.Reset()
		case "show":
		default:
			fmt.Fprintf(out, "unknown command %q, try help\n", cmd)
			continue
		}
		printView(out, engine.Snapshot())
	}
}

func printView(out io.Writer, v app.View) {
	switch v.State {
	case app.StateEmpty:
		fmt.Fprintln(out, "no bank loaded")
		return
	case app.StateExhausted:
		fmt.Fprintf(out, "[%s/%s] no questions left\n", v.BankID, v.Mode)
		return
	}
	q := v.Question
	kind := "single"
	if q.Multi {
		kind = "multi"
	}
	fmt.Fprintf(out, "[%s/%s] %d/%d  %s (%s)  wrong: %d\n", v.BankID, v.Mode, v.Index+1, v.Total, q.ID, kind, v.WrongCount)
	fmt.Fprintln(out, q.Prompt)
	for _, opt := range q.Options {
		mark := " "
		switch {
		case opt.Wrong:
			mark = "x"
		case opt.Correct:
			mark = "+"
		case opt.Selected:
			mark = "*"
		}
		fmt.Fprintf(out, " %s %s. %s\n", mark, opt.Label, opt.Text)
	}
}
