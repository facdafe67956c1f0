package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "github.com/lib/pq"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/liamcoop/modelbench/evaluators"
	"github.com/liamcoop/modelbench/model"
	"github.com/liamcoop/modelbench/results"
	"github.com/liamcoop/modelbench/runner"
)

func newCategoriesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List the benchmark categories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			ids := a.registry.Categories()
			if a.jsonOut {
				return writeJSON(out, ids)
			}
			for _, id := range ids {
				e, err := a.registry.Get(id)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "%-24s %s\n", id, e.Description)
			}
			return nil
		},
	}
}

type evaluateOutput struct {
	Category string          `json:"category"`
	Failures []model.Failure `json:"failures"`
	Score    int             `json:"score"`
}

func newEvaluateCmd(a *app) *cobra.Command {
	var category, modelPath, expectationPath string

	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Score one generated model against an expectation file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(modelPath)
			if err != nil {
				return fmt.Errorf("failed to read model: %w", err)
			}
			m, err := model.Parse(data)
			if err != nil {
				return err
			}

			exp, err := loadExpectation(expectationPath)
			if err != nil {
				return err
			}

			failures, err := a.registry.Evaluate(category, m, exp)
			if err != nil {
				return err
			}

			result := evaluateOutput{Category: category, Failures: failures, Score: evaluators.Score(failures)}
			out := cmd.OutOrStdout()
			if a.jsonOut {
				if err := writeJSON(out, result); err != nil {
					return err
				}
			} else {
				printFailures(out, failures)
				fmt.Fprintf(out, "score: %d\n", result.Score)
			}

			if result.Score == 0 {
				return errTestsFailed
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&category, "category", "", "Benchmark category (see bench categories)")
	cmd.Flags().StringVar(&modelPath, "model", "", "Path to the generated model JSON")
	cmd.Flags().StringVar(&expectationPath, "expectation", "", "Path to the expectation (YAML or JSON)")
	cmd.MarkFlagRequired("category")
	cmd.MarkFlagRequired("model")
	cmd.MarkFlagRequired("expectation")
	return cmd
}

func newRunCmd(a *app) *cobra.Command {
	var suitePath, databaseURL string
	var concurrency, burst int
	var ratePerSecond float64

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a benchmark suite using its recorded responses",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := a.cfg
			if cmd.Flags().Changed("concurrency") {
				cfg.Concurrency = concurrency
			}
			if cmd.Flags().Changed("rate") {
				cfg.RatePerSecond = ratePerSecond
			}
			if cmd.Flags().Changed("burst") {
				cfg.Burst = burst
			}
			if cmd.Flags().Changed("database") {
				cfg.DatabaseURL = databaseURL
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			suite, err := runner.LoadSuite(suitePath)
			if err != nil {
				return err
			}

			store, closeStore, err := openStore(cfg.DatabaseURL)
			if err != nil {
				return err
			}
			defer closeStore()

			r := runner.New(a.registry, runner.FixtureGenerator{}, store, runner.Options{
				Concurrency:   cfg.Concurrency,
				RatePerSecond: cfg.RatePerSecond,
				Burst:         cfg.Burst,
			})
			report, err := r.Run(cmd.Context(), suite)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if a.jsonOut {
				if err := writeJSON(out, report); err != nil {
					return err
				}
			} else {
				printReport(out, report)
			}

			if report.Summary.Failed > 0 {
				return errTestsFailed
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&suitePath, "suite", "", "Path to the suite file (YAML or JSON)")
	cmd.Flags().IntVar(&concurrency, "concurrency", 0, "Maximum tests in flight (overrides BENCH_CONCURRENCY)")
	cmd.Flags().Float64Var(&ratePerSecond, "rate", 0, "Tests started per second, 0 for unlimited (overrides BENCH_RATE_PER_SECOND)")
	cmd.Flags().IntVar(&burst, "burst", 0, "Rate limiter burst (overrides BENCH_BURST)")
	cmd.Flags().StringVar(&databaseURL, "database", "", "Store results in PostgreSQL (overrides DATABASE_URL)")
	cmd.MarkFlagRequired("suite")
	return cmd
}

// openStore returns an in-memory store unless databaseURL is set
func openStore(databaseURL string) (results.Store, func(), error) {
	if databaseURL == "" {
		return results.NewInMemoryStore(), func() {}, nil
	}

	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return results.NewPostgresStore(db), func() { db.Close() }, nil
}

// loadExpectation decodes ".json" files as JSON and anything else as YAML
func loadExpectation(path string) (model.Expectation, error) {
	var exp model.Expectation

	data, err := os.ReadFile(path)
	if err != nil {
		return exp, fmt.Errorf("failed to read expectation: %w", err)
	}

	if strings.EqualFold(filepath.Ext(path), ".json") {
		err = json.Unmarshal(data, &exp)
	} else {
		err = yaml.Unmarshal(data, &exp)
	}
	if err != nil {
		return exp, fmt.Errorf("failed to parse expectation %s: %w", path, err)
	}
	return exp, nil
}

func printFailures(out io.Writer, failures []model.Failure) {
	for _, f := range failures {
		fmt.Fprintf(out, "  - %s: %s\n", f.Type, f.Details)
	}
}

func printReport(out io.Writer, report *runner.Report) {
	for _, res := range report.Results {
		status := "PASS"
		if !res.Passed() {
			status = "FAIL"
		}
		fmt.Fprintf(out, "%s %s [%s] %s\n", status, res.TestName, res.Category, res.Duration)
		printFailures(out, res.Failures)
	}

	s := report.Summary
	fmt.Fprintf(out, "\nrun %s: %d passed, %d failed, %d total\n", s.RunID, s.Passed, s.Failed, s.Total)
	for _, id := range sortedKeys(s.ByCategory) {
		c := s.ByCategory[id]
		fmt.Fprintf(out, "  %-24s %d/%d\n", id, c.Passed, c.Total)
	}
}

func sortedKeys(m map[string]runner.CategorySummary) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
