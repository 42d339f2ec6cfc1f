package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/johnayoung/go-amm-sim/pkg/makers/constantproduct"
	"github.com/johnayoung/go-amm-sim/pkg/makers/constantsum"
	"github.com/johnayoung/go-amm-sim/pkg/makers/proactive"
	"github.com/johnayoung/go-amm-sim/pkg/marketmaker"
	"github.com/johnayoung/go-amm-sim/pkg/metrics"
	"github.com/johnayoung/go-amm-sim/pkg/poolstate"
	"github.com/johnayoung/go-amm-sim/pkg/primitives"
	"github.com/johnayoung/go-amm-sim/pkg/simulate"
	"github.com/johnayoung/go-amm-sim/pkg/token"
	"github.com/johnayoung/go-amm-sim/pkg/traffic"
)

func newSimulateCmd() *cobra.Command {
	var (
		variant    string
		inToken    string
		outToken   string
		inBalance  float64
		outBalance float64
		inPrice    float64
		outPrice   float64
		k          float64
		amounts    string
		arb        bool
		arbActions int
		resetTx    bool
	)

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run a two-token simulation and report the resulting economics",
		RunE: func(cmd *cobra.Command, args []string) error {
			in := token.ID(inToken)
			out := token.ID(outToken)

			prices := token.PriceMap{
				in:  primitives.MustPrice(primitives.NewDecimalFromFloat(inPrice)),
				out: primitives.MustPrice(primitives.NewDecimalFromFloat(outPrice)),
			}

			pair := poolstate.PairKey{In: in, Out: out}
			mirror := poolstate.PairKey{In: out, Out: in}
			requireKRange := variant == "pmm"

			pool, err := poolstate.NewPairwise(
				[]poolstate.PairKey{pair, mirror},
				[]primitives.Decimal{primitives.NewDecimalFromFloat(inBalance), primitives.NewDecimalFromFloat(outBalance)},
				[]primitives.Decimal{primitives.NewDecimalFromFloat(outBalance), primitives.NewDecimalFromFloat(inBalance)},
				[]primitives.Decimal{primitives.NewDecimalFromFloat(k), primitives.NewDecimalFromFloat(k)},
				requireKRange,
			)
			if err != nil {
				return err
			}

			maker, err := newMaker(variant, pool)
			if err != nil {
				return err
			}

			tradeAmounts, err := parseAmounts(amounts)
			if err != nil {
				return err
			}
			tape := traffic.AmountTraverser{InType: in, OutType: out, Amounts: tradeAmounts}.Generate()

			baseline := maker.Snapshot()

			engine := simulate.NewEngine(simulate.Config{
				ResetTx:    resetTx,
				Arb:        arb,
				ArbActions: arbActions,
				Logger:     logger,
			})

			result, err := engine.Run(context.Background(), maker, []simulate.Batch{{Prices: prices, Tape: tape}})
			if err != nil {
				return err
			}

			return printReport(cmd, baseline, result, prices)
		},
	}

	cmd.Flags().StringVar(&variant, "variant", "amm", "curve variant: amm, csmm, pmm")
	cmd.Flags().StringVar(&inToken, "in-token", "A", "input token identifier")
	cmd.Flags().StringVar(&outToken, "out-token", "B", "output token identifier")
	cmd.Flags().Float64Var(&inBalance, "in-balance", 1000, "initial input-side pool balance")
	cmd.Flags().Float64Var(&outBalance, "out-balance", 1000, "initial output-side pool balance")
	cmd.Flags().Float64Var(&inPrice, "in-price", 1, "oracle price of the input token")
	cmd.Flags().Float64Var(&outPrice, "out-price", 1, "oracle price of the output token")
	cmd.Flags().Float64Var(&k, "k", 0.5, "curve shape parameter k, PMM only")
	cmd.Flags().StringVar(&amounts, "amounts", "10,20,30", "comma-separated trade amounts")
	cmd.Flags().BoolVar(&arb, "arb", false, "run arbitrage after each trade")
	cmd.Flags().IntVar(&arbActions, "arb-actions", 4, "max arbitrage swaps per pass")
	cmd.Flags().BoolVar(&resetTx, "reset-tx", false, "revert pool state after every transaction")

	return cmd
}

func newMaker(variant string, pool *poolstate.Pairwise) (marketmaker.MarketMaker, error) {
	switch strings.ToLower(variant) {
	case "amm":
		return constantproduct.NewAMM(pool), nil
	case "csmm":
		return constantsum.NewCSMM(pool), nil
	case "pmm":
		return proactive.NewPMM(pool), nil
	default:
		return nil, fmt.Errorf("unknown variant %q (use amm, csmm, or pmm)", variant)
	}
}

func parseAmounts(csv string) ([]primitives.Decimal, error) {
	parts := strings.Split(csv, ",")
	out := make([]primitives.Decimal, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		f, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid amount %q: %w", p, err)
		}
		out = append(out, primitives.NewDecimalFromFloat(f))
	}
	return out, nil
}

func printReport(cmd *cobra.Command, baseline poolstate.Snapshot, result *simulate.Result, prices token.PriceMap) error {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "executed %d transactions\n", len(result.Transactions))

	for i, tx := range result.Transactions {
		impact, err := metrics.PriceImpact(tx)
		if err != nil {
			return err
		}
		slippage, err := metrics.Slippage(tx)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "  [%d] %s %s -> %s %s (impact=%s slippage=%s)\n",
			i, tx.InVal, tx.InType, tx.OutVal, tx.OutType, impact, slippage)
	}

	if len(result.Snapshots) > 0 {
		final := result.Snapshots[len(result.Snapshots)-1]
		il, err := metrics.ImpermanentLoss(baseline, final, prices)
		if err != nil {
			return err
		}
		eff, err := metrics.CapitalEfficiency(baseline, final, prices)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "impermanent loss/gain: %s\ncapital efficiency: %s\n", il, eff)
	}

	return nil
}
