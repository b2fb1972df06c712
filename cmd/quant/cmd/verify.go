package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/quant/artifact"
	"github.com/rustyeddy/quant/verify"
)

var verifyStorePath string

var verifyCmd = &cobra.Command{
	Use:   "verify <result-hash>",
	Short: "Re-verify a stored backtest result",
	Args:  cobra.ExactArgs(1),
	RunE:  runVerify,
}

func init() {
	verifyCmd.Flags().StringVar(&verifyStorePath, "store", "./quantstore", "path to artifact repository")
}

func runVerify(cmd *cobra.Command, args []string) error {
	repo, err := artifact.Open(verifyStorePath, nil)
	if err != nil {
		return err
	}
	defer repo.Close()

	a, err := repo.Get(artifact.Hash(args[0]))
	if err != nil {
		return err
	}
	result, ok := a.(artifact.BacktestResult)
	if !ok {
		return fmt.Errorf("artifact %s is a %s, not a backtest result", args[0], a.Kind())
	}

	// Re-check against the policy recorded in the run's config when the
	// config artifact is still in the store.
	policy := verify.DefaultPolicy()
	if cfgArt, err := repo.Get(artifact.Hash(result.ConfigHash)); err == nil {
		if cfg, ok := cfgArt.(artifact.BacktestConfig); ok {
			policy = cfg.Policy
		}
	}

	report, err := verify.New(policy).Verify(result.Stats, result.Fills, result.EquityCurve)
	if err != nil {
		return err
	}

	printReport(os.Stdout, report)
	if report.HasCritical() {
		return fmt.Errorf("verification found critical violations")
	}
	return nil
}

func printReport(w io.Writer, report verify.Report) {
	if report.Passed {
		fmt.Fprintln(w, "verification: PASSED")
		return
	}
	fmt.Fprintf(w, "verification: FAILED (%d violations)\n", report.Count())
	for _, v := range report.Violations {
		fmt.Fprintf(w, "  [%s] %s: %s\n", v.Severity, v.Rule, v.Message)
		for _, ev := range v.Evidence {
			fmt.Fprintf(w, "      %s\n", ev)
		}
	}
}
