package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/homematch/pkg/errors"
	"github.com/matzehuels/homematch/pkg/ingest"
	"github.com/matzehuels/homematch/pkg/marketdoc"
)

// importCommand creates the import command for converting registry exports.
func (c *CLI) importCommand() *cobra.Command {
	var (
		opts      = ingest.DefaultOptions()
		output    string
		incomeCap int
	)

	cmd := &cobra.Command{
		Use:   "import [export.csv]",
		Short: "Convert a registry export into a market document",
		Long: `Convert a semicolon-separated registry export into a market document.

Every record describes one house together with the household that received
it. Households earning more than --income-cap are skipped. Loaded pairs start
connected with probability --connect-prob, so a fraction of the market is left
for the optimizer to rewire. --ratio trims trailing houses or households until
the market has the requested house:household ratio.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := errors.ValidateRatio(opts.Ratio); err != nil {
				return err
			}
			if opts.ConnectProb < 0 || opts.ConnectProb > 1 {
				return errors.New(errors.ErrCodeInvalidInput, "connect probability must be within [0, 1], got %v", opts.ConnectProb)
			}
			opts.IncomeCap = c.Config.Scoring.IncomeThreshold
			if cmd.Flags().Changed("income-cap") {
				opts.IncomeCap = incomeCap
			}
			opts.Logger = c.Logger
			return c.runImport(args[0], opts, output)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <input>.json)")
	cmd.Flags().IntVar(&opts.StartLine, "start", 0, "lines to skip before reading (0 skips the header)")
	cmd.Flags().IntVarP(&opts.Count, "count", "n", 0, "records to read (0 = all)")
	cmd.Flags().IntVar(&incomeCap, "income-cap", 0, "skip households above this income (0 disables; default from config)")
	cmd.Flags().Float64Var(&opts.ConnectProb, "connect-prob", 0, "probability that an imported pair starts connected")
	cmd.Flags().Uint64Var(&opts.Seed, "seed", 0, "random seed for --connect-prob")
	cmd.Flags().Float64Var(&opts.Ratio, "ratio", 0, "target house:household ratio (0 keeps the market as read)")

	return cmd
}

// runImport reads the export and writes the market document.
func (c *CLI) runImport(input string, opts ingest.Options, output string) error {
	prog := newProgress(c.Logger)
	m, stats, err := ingest.ReadFile(input, opts)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidMarket, err, "import %s", input)
	}
	prog.done(fmt.Sprintf("Imported %d records", stats.Records))

	if output == "" {
		output = derivedPath(input, ".json")
	}
	if err := marketdoc.WriteFile(marketdoc.FromMatching(m), output); err != nil {
		return fmt.Errorf("write %s: %w", output, err)
	}

	printSuccess("Imported %d houses and %d households", m.HouseCount(), m.HouseholdCount())
	printKeyValue("Connected", fmt.Sprintf("%d", stats.Connected))
	if stats.Skipped > 0 {
		printKeyValue("Skipped", fmt.Sprintf("%d above income cap", stats.Skipped))
	}
	if stats.RemovedHouses > 0 || stats.RemovedHouseholds > 0 {
		printKeyValue("Balanced", fmt.Sprintf("removed %d houses, %d households", stats.RemovedHouses, stats.RemovedHouseholds))
	}
	printFile(output)
	printNextStep("Optimize it", "homematch optimize "+output)
	return nil
}
