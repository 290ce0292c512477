package main

import (
	goflag "flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"k8s.io/klog/v2"

	"q.log/exactlp/instance"
	"q.log/exactlp/model"
	"q.log/exactlp/simplex"
	"q.log/exactlp/solver"
)

const (
	flagNoPresolve = "no-presolve"
	flagNoScale    = "no-scale"
	flagFixed      = "fixed-parse-mode"
	flagMaxPivots  = "max-pivots"
	flagPricing    = "pricing"
	flagRefactor   = "refactor-interval"
	flagVerify     = "verify"
	flagDump       = "dump"
	flagConfig     = "config"
)

func newCommand(out io.Writer) *cobra.Command {
	vip := viper.New()
	var bindErr error
	cmd := &cobra.Command{
		Use:           "exactlp <problem-file>",
		Short:         "An exact linear program solver",
		Long:          "exactlp solves a linear program read from an MPS file in exact rational arithmetic.",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(c *cobra.Command, args []string) error {
			if bindErr != nil {
				return errors.Wrap(bindErr, "bind flags")
			}
			if path := vip.GetString(flagConfig); path != "" {
				vip.SetConfigFile(path)
				if err := vip.ReadInConfig(); err != nil {
					return errors.Wrapf(err, "read config %s", path)
				}
			}
			return run(out, args[0], vip)
		},
	}

	flags := cmd.Flags()
	flags.Bool(flagNoPresolve, false, "Disable presolving")
	flags.Bool(flagNoScale, false, "Disable scaling")
	flags.Bool(flagFixed, false, "Parsing mode that requires MPS fields to be in an exact column (2, 5, 15, 25, 40 and 50)")
	flags.Int(flagMaxPivots, 0, "Pivot limit per simplex phase, 0 for none")
	flags.String(flagPricing, simplex.Bland.String(), "Entering column rule: bland or dantzig")
	flags.Int(flagRefactor, solver.DefaultConfig().RefactorInterval, "Basis updates between refactorizations")
	flags.Bool(flagVerify, true, "Check the solution exactly against the problem read")
	flags.Bool(flagDump, false, "Print the problem before solving")
	flags.String(flagConfig, "", "Optional config file with the flag values")

	klogFlags := goflag.NewFlagSet("klog", goflag.ContinueOnError)
	klog.InitFlags(klogFlags)
	cmd.PersistentFlags().AddGoFlagSet(klogFlags)

	bindErr = vip.BindPFlags(flags)
	vip.SetEnvPrefix("EXACTLP")
	vip.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	vip.AutomaticEnv()
	return cmd
}

func run(out io.Writer, filename string, vip *viper.Viper) error {
	cfg := solver.DefaultConfig()
	cfg.Presolve = !vip.GetBool(flagNoPresolve)
	cfg.Scale = !vip.GetBool(flagNoScale)
	cfg.MaxPivots = vip.GetInt(flagMaxPivots)
	cfg.RefactorInterval = vip.GetInt(flagRefactor)
	cfg.Verify = vip.GetBool(flagVerify)
	cfg.Progress = out
	rule, err := simplex.ParseRule(vip.GetString(flagPricing))
	if err != nil {
		return err
	}
	cfg.Pricing = rule

	fmt.Fprintf(out, "Reading problem file: %q...\n", filename)
	m, err := instance.NewReader(filename, vip.GetBool(flagFixed)).Read()
	if err != nil {
		return errors.Wrap(err, "couldn't read the problem")
	}
	klog.V(1).InfoS("problem read", "name", m.Name, "rows", m.NumRows(), "cols", m.NumCols(), "sense", m.Sense)
	if vip.GetBool(flagDump) {
		m.Dump(out)
	}

	sol, err := solver.Solve(m, cfg)
	if err != nil {
		return err
	}
	if sol.Presolved {
		if sol.Status == model.FiniteOptimum {
			fmt.Fprintln(out, "Solution computed during presolve.")
		}
	} else {
		fmt.Fprintln(out, "Solution computed:")
	}
	fmt.Fprint(out, sol)
	if sol.Status != model.FiniteOptimum {
		fmt.Fprintln(out)
	}
	return nil
}

func main() {
	defer klog.Flush()
	if err := newCommand(os.Stdout).Execute(); err != nil {
		klog.Errorf("exactlp: %v", err)
		klog.Flush()
		os.Exit(1)
	}
}
