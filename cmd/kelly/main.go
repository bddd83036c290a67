package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/cypherlabdev/kelly-calculator-service/internal/config"
	"github.com/cypherlabdev/kelly-calculator-service/internal/render"
	"github.com/cypherlabdev/kelly-calculator-service/internal/worksheet"
	"github.com/cypherlabdev/kelly-calculator-service/pkg/kelly"
)

var (
	configFile string
	bankroll   string
	asJSON     bool
	verbose    bool

	cfg    *config.Config
	logger zerolog.Logger
	sheet  *worksheet.Handler
	calc   *kelly.Calculator
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Path to configuration file")
	rootCmd.PersistentFlags().StringVarP(&bankroll, "bankroll", "b", "", "Bankroll used for stake amounts (overrides config)")
	rootCmd.PersistentFlags().BoolVar(&asJSON, "json", false, "Print the table as JSON")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log to stderr")

	calcCmd.Flags().Float64("odds", 0, "Decimal odds")
	calcCmd.Flags().Float64("prob", 0, "Win probability in [0,1]")
	_ = calcCmd.MarkFlagRequired("odds")
	_ = calcCmd.MarkFlagRequired("prob")

	rootCmd.AddCommand(parseCmd, uploadCmd, sampleCmd, calcCmd)
}

var rootCmd = &cobra.Command{
	Use:           "kelly",
	Short:         "Kelly stake calculator for decimal odds lines",
	Long:          `Parses "match,odds1,odds2,..." lines, normalizes implied probabilities and prints Kelly stake fractions per outcome.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := loadConfig(); err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		setupDependencies()
		return nil
	},
}

var parseCmd = &cobra.Command{
	Use:   "parse [file...]",
	Short: "Parse odds lines from files or stdin",
	RunE: func(cmd *cobra.Command, args []string) error {
		table, err := newTable()
		if err != nil {
			return err
		}

		if len(args) == 0 {
			data, err := io.ReadAll(cmd.InOrStdin())
			if err != nil {
				return fmt.Errorf("failed to read stdin: %w", err)
			}
			table, err = run(cmd.Context(), table, worksheet.ParseText{Text: string(data)})
			if err != nil {
				return err
			}
			return printTable(cmd.OutOrStdout(), table)
		}

		for _, path := range args {
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", path, err)
			}
			if table, err = run(cmd.Context(), table, worksheet.ParseText{Text: string(data)}); err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
		}
		return printTable(cmd.OutOrStdout(), table)
	},
}

var uploadCmd = &cobra.Command{
	Use:   "upload <csv>",
	Short: "Load a CSV file, skipping a header row",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		table, err := newTable()
		if err != nil {
			return err
		}

		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("failed to open %s: %w", args[0], err)
		}
		defer f.Close()

		table, err = run(cmd.Context(), table, worksheet.UploadFile{Filename: filepath.Base(args[0]), Body: f})
		if err != nil {
			return err
		}
		return printTable(cmd.OutOrStdout(), table)
	},
}

var sampleCmd = &cobra.Command{
	Use:   "sample",
	Short: "Print the sample match",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		table, err := newTable()
		if err != nil {
			return err
		}
		if table, err = run(cmd.Context(), table, worksheet.AddSample{}); err != nil {
			return err
		}
		return printTable(cmd.OutOrStdout(), table)
	},
}

var calcCmd = &cobra.Command{
	Use:   "calc",
	Short: "Compute the Kelly fraction for one price",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		odds, _ := cmd.Flags().GetFloat64("odds")
		prob, _ := cmd.Flags().GetFloat64("prob")
		if math.IsNaN(prob) || prob < 0 || prob > 1 {
			return fmt.Errorf("prob must be within [0,1], got %v", prob)
		}

		out := cmd.OutOrStdout()
		f, ok := kelly.Fraction(odds, prob)
		if !ok {
			fmt.Fprintf(out, "odds %v: %s (odds must be above 1)\n", odds, render.NoBetMarker)
			return nil
		}

		fractional := f * cfg.Kelly.FractionalRatio
		if f <= 0 {
			fmt.Fprintf(out, "kelly %s: %s\n", render.Percent(f), render.NoBetMarker)
			return nil
		}
		fmt.Fprintf(out, "kelly %s, fractional (x%v) %s\n", render.Percent(f), cfg.Kelly.FractionalRatio, render.Percent(fractional))

		if amount, err := bankrollAmount(); err == nil && amount.IsPositive() {
			fmt.Fprintf(out, "stake %s\n", amount.Mul(decimal.NewFromFloat(fractional)).StringFixed(2))
		}
		return nil
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig() error {
	var err error
	cfg, err = config.LoadConfig(configFile)
	if err != nil {
		return err
	}
	return config.Validate(cfg)
}

func setupDependencies() {
	level := zerolog.WarnLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		Level(level).
		With().Timestamp().Str("service", "kelly-cli").Logger()

	calc = kelly.NewCalculator(cfg.Kelly.ToKellyParams(), logger)
	sheet = worksheet.NewHandler(worksheet.Config{SampleLine: cfg.Kelly.SampleLine}, calc, logger)
}

func bankrollAmount() (decimal.Decimal, error) {
	if bankroll == "" {
		return cfg.Kelly.BankrollDecimal(), nil
	}
	amount, err := decimal.NewFromString(bankroll)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid bankroll %q: %w", bankroll, err)
	}
	if amount.IsNegative() {
		return decimal.Zero, fmt.Errorf("bankroll must not be negative, got %s", bankroll)
	}
	return amount, nil
}

func newTable() (render.Table, error) {
	amount, err := bankrollAmount()
	if err != nil {
		return render.Table{}, err
	}
	return render.Table{Bankroll: amount}, nil
}

func run(ctx context.Context, table render.Table, cmd worksheet.Command) (render.Table, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	next, result, err := sheet.Handle(ctx, table, cmd)
	if err != nil {
		return table, err
	}
	logger.Debug().
		Str("command", result.Command).
		Int("matches", result.Matches).
		Int("skipped", result.Skipped).
		Msg("command applied")
	return next, nil
}

func printTable(w io.Writer, table render.Table) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(table)
	}
	return render.WriteText(w, table)
}
