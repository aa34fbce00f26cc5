package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"gouq/app"
	"gouq/internal/config"
	"gouq/internal/container"
	"gouq/models"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	// .env is optional
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:   "uq",
		Short: "Uncertainty quantification and sensitivity analysis of models",
		Long: `Run polynomial chaos or Monte Carlo uncertainty quantification on a
registered model. Engine defaults come from UQ_* environment variables and
may be overridden by flags.

Registered models: ` + strings.Join(models.Names(), ", "),
		SilenceUsage: true,
	}

	rootCmd.AddCommand(
		newPCCmd(),
		newMCCmd(),
		newModelsCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// commonFlags are shared by the analysis commands
type commonFlags struct {
	problem         string
	output          string
	seed            uint64
	allowIncomplete bool
	cpus            int
	logLevel        string
}

func (f *commonFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.problem, "problem", "", "YAML problem file (model, parameters, correlation)")
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "Write JSON results to this file instead of stdout")
	cmd.Flags().Uint64Var(&f.seed, "seed", 0, "Seed for every random stream")
	cmd.Flags().BoolVar(&f.allowIncomplete, "allow-incomplete", false, "Fit features even if some evaluations failed")
	cmd.Flags().IntVar(&f.cpus, "cpus", 0, "Concurrent model evaluations (0 = all CPUs)")
	cmd.Flags().StringVar(&f.logLevel, "log-level", "", "ERROR, WARN, INFO, DEBUG or TRACE")
	_ = cmd.MarkFlagRequired("problem")
}

func (f *commonFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed("seed") {
		cfg.Engine.Seed = f.seed
		cfg.Engine.Seeded = true
	}
	if cmd.Flags().Changed("allow-incomplete") {
		cfg.Engine.AllowIncomplete = f.allowIncomplete
	}
	if cmd.Flags().Changed("cpus") {
		cfg.Engine.CPUs = f.cpus
	}
	if f.logLevel != "" {
		cfg.Logging.Level = f.logLevel
	}
}

func newPCCmd() *cobra.Command {
	var common commonFlags
	var method string
	var rosenblatt bool
	var p, quadratureOrder, collocationNodes, pcSamples int

	cmd := &cobra.Command{
		Use:   "pc",
		Short: "Polynomial chaos expansion",
		Long: `Build a polynomial chaos surrogate of every model feature and report mean,
variance, 5th/95th percentiles and Sobol indices.

Example: uq pc --problem coffee.yaml --method spectral --rosenblatt --seed 1`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, &common, func(cfg *config.Config) {
				if cmd.Flags().Changed("p") {
					cfg.Engine.P = p
				}
				if cmd.Flags().Changed("quadrature-order") {
					cfg.Engine.QuadratureOrder = quadratureOrder
				}
				if cmd.Flags().Changed("collocation-nodes") {
					cfg.Engine.NrCollocationNodes = collocationNodes
				}
				if cmd.Flags().Changed("samples") {
					cfg.Engine.NrPCMCSamples = pcSamples
				}
			}, app.MethodPolynomialChaos, method, rosenblatt)
		},
	}

	common.register(cmd)
	cmd.Flags().StringVar(&method, "method", "collocation", "collocation or spectral")
	cmd.Flags().BoolVar(&rosenblatt, "rosenblatt", false, "Build the expansion in an independent standard normal space")
	cmd.Flags().IntVar(&p, "p", 3, "Total polynomial degree")
	cmd.Flags().IntVar(&quadratureOrder, "quadrature-order", 4, "Quadrature level of the spectral method")
	cmd.Flags().IntVar(&collocationNodes, "collocation-nodes", 0, "Collocation samples (0 = twice the basis size plus two)")
	cmd.Flags().IntVar(&pcSamples, "samples", 50, "Surrogate samples for percentiles")

	return cmd
}

func newMCCmd() *cobra.Command {
	var common commonFlags
	var samples int
	var rule string

	cmd := &cobra.Command{
		Use:   "mc",
		Short: "Monte Carlo uncertainty quantification",
		Long: `Evaluate the model on random samples of the inputs and report mean,
variance and 5th/95th percentiles of every feature.

Example: uq mc --problem coffee.yaml --samples 1000 --rule M`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, &common, func(cfg *config.Config) {
				if cmd.Flags().Changed("samples") {
					cfg.Engine.NrMCSamples = samples
				}
				if cmd.Flags().Changed("rule") {
					cfg.Engine.MCRule = rule
				}
			}, app.MethodMonteCarlo, "", false)
		},
	}

	common.register(cmd)
	cmd.Flags().IntVar(&samples, "samples", 30, "Number of model evaluations")
	cmd.Flags().StringVar(&rule, "rule", "R", "Sampling rule: R (random), H (Halton), M (Hammersley), L (Latin hypercube)")

	return cmd
}

func newModelsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List registered models",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range models.Names() {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}
}

func run(cmd *cobra.Command, common *commonFlags, override func(*config.Config), method app.Method, pcMethod string, rosenblatt bool) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	common.apply(cmd, cfg)
	override(cfg)

	c, err := container.New(cfg)
	if err != nil {
		return err
	}
	defer c.Shutdown(ctx)

	problem, err := config.LoadProblem(common.problem)
	if err != nil {
		return err
	}

	res, err := c.Quantification.QuantifyProblem(ctx, problem, method, pcMethod, rosenblatt)
	if err != nil {
		return err
	}

	jsonData, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode results: %w", err)
	}
	if common.output == "" {
		fmt.Fprintln(cmd.OutOrStdout(), string(jsonData))
		return nil
	}
	return os.WriteFile(common.output, append(jsonData, '\n'), 0o644)
}
