package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/johnayoung/go-amm-sim/pkg/makers/constantproduct"
	"github.com/johnayoung/go-amm-sim/pkg/makers/constantsum"
	"github.com/johnayoung/go-amm-sim/pkg/makers/proactive"
	"github.com/johnayoung/go-amm-sim/pkg/marketmaker"
	"github.com/johnayoung/go-amm-sim/pkg/poolstate"
	"github.com/johnayoung/go-amm-sim/pkg/primitives"
	"github.com/johnayoung/go-amm-sim/pkg/simulate"
	"github.com/johnayoung/go-amm-sim/pkg/token"
	"github.com/johnayoung/go-amm-sim/pkg/traffic"
)

// newSimulateMultiCmd drives the multi-token variants (mamm, mcsmm, mpmm)
// over a Multi pool holding an arbitrary number of tokens, trading one
// chosen pair inside it (spec §4.2, §4.3, §4.4 multi-asset generalizations).
func newSimulateMultiCmd() *cobra.Command {
	var (
		variant    string
		tokens     string
		balances   string
		prices     string
		k          float64
		inToken    string
		outToken   string
		amounts    string
		arb        bool
		arbActions int
		resetTx    bool
	)

	cmd := &cobra.Command{
		Use:   "simulate-multi",
		Short: "Run a multi-token simulation over mamm, mcsmm, or mpmm and report the resulting economics",
		RunE: func(cmd *cobra.Command, args []string) error {
			tokenIDs, err := parseTokens(tokens)
			if err != nil {
				return err
			}
			balanceVals, err := parseAmounts(balances)
			if err != nil {
				return err
			}
			priceVals, err := parseAmounts(prices)
			if err != nil {
				return err
			}
			if len(tokenIDs) != len(balanceVals) || len(tokenIDs) != len(priceVals) {
				return fmt.Errorf("tokens, balances, and prices must all list the same count of entries")
			}

			priceMap := make(token.PriceMap, len(tokenIDs))
			ks := make([]primitives.Decimal, len(tokenIDs))
			for i, tok := range tokenIDs {
				priceMap[tok] = primitives.MustPrice(priceVals[i])
				ks[i] = primitives.NewDecimalFromFloat(k)
			}

			requireKRange := variant == "mpmm"
			pool, err := poolstate.NewMulti(tokenIDs, balanceVals, ks, requireKRange)
			if err != nil {
				return err
			}

			maker, err := newMultiMaker(variant, pool)
			if err != nil {
				return err
			}

			tradeAmounts, err := parseAmounts(amounts)
			if err != nil {
				return err
			}
			in := token.ID(inToken)
			out := token.ID(outToken)
			tape := traffic.AmountTraverser{InType: in, OutType: out, Amounts: tradeAmounts}.Generate()

			baseline := maker.Snapshot()

			engine := simulate.NewEngine(simulate.Config{
				ResetTx:    resetTx,
				Arb:        arb,
				ArbActions: arbActions,
				Logger:     logger,
			})

			result, err := engine.Run(context.Background(), maker, []simulate.Batch{{Prices: priceMap, Tape: tape}})
			if err != nil {
				return err
			}

			return printReport(cmd, baseline, result, priceMap)
		},
	}

	cmd.Flags().StringVar(&variant, "variant", "mamm", "curve variant: mamm, mcsmm, mpmm")
	cmd.Flags().StringVar(&tokens, "tokens", "A,B,C", "comma-separated token identifiers held in the pool")
	cmd.Flags().StringVar(&balances, "balances", "1000,1000,1000", "comma-separated starting balance per token, same order as --tokens")
	cmd.Flags().StringVar(&prices, "prices", "1,1,1", "comma-separated oracle price per token, same order as --tokens")
	cmd.Flags().Float64Var(&k, "k", 0.5, "curve shape parameter k applied to every token, mpmm only")
	cmd.Flags().StringVar(&inToken, "in-token", "A", "input token identifier for the traded pair")
	cmd.Flags().StringVar(&outToken, "out-token", "B", "output token identifier for the traded pair")
	cmd.Flags().StringVar(&amounts, "amounts", "10,20,30", "comma-separated trade amounts")
	cmd.Flags().BoolVar(&arb, "arb", false, "run arbitrage after each trade")
	cmd.Flags().IntVar(&arbActions, "arb-actions", 4, "max arbitrage swaps per pass")
	cmd.Flags().BoolVar(&resetTx, "reset-tx", false, "revert pool state after every transaction")

	return cmd
}

func newMultiMaker(variant string, pool *poolstate.Multi) (marketmaker.MarketMaker, error) {
	switch strings.ToLower(variant) {
	case "mamm":
		return constantproduct.NewMAMM(pool), nil
	case "mcsmm":
		return constantsum.NewMCSMM(pool), nil
	case "mpmm":
		return proactive.NewMPMM(pool), nil
	default:
		return nil, fmt.Errorf("unknown multi-token variant %q (use mamm, mcsmm, or mpmm)", variant)
	}
}

func parseTokens(csv string) ([]token.ID, error) {
	parts := strings.Split(csv, ",")
	out := make([]token.ID, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, token.ID(p))
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("tokens list cannot be empty")
	}
	return out, nil
}
