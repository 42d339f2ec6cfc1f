package cli

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"

	"github.com/daoleno/uniswapv3-sdk/constants"

	"github.com/johnayoung/go-amm-sim/pkg/implementations/concentrated_liquidity"
	"github.com/johnayoung/go-amm-sim/pkg/mechanisms"
)

// newSpotV3Cmd wires the kept-and-adapted Uniswap V3 tick-math wrapper
// (pkg/implementations/concentrated_liquidity) into a standalone reference
// utility: given the same raw tick/sqrt-price/liquidity a V3 pool would
// carry for a balance, it reports the spot price a V3 position would quote
// for it, so an analyst can diff that against one of the simulator's own
// pairwise pools. It is a reference point, not a MarketMaker implementation:
// V3's tick/range liquidity model has no analogue to the flat pairwise
// pool the simulate command drives (see DESIGN.md).
func newSpotV3Cmd() *cobra.Command {
	var (
		currentTick  int
		sqrtPriceX96 string
		liquidity    string
		feeTier      int
	)

	cmd := &cobra.Command{
		Use:   "spot-v3",
		Short: "Report the Uniswap V3 spot price for a given tick/sqrt-price/liquidity",
		RunE: func(cmd *cobra.Command, args []string) error {
			fee := constants.FeeAmount(feeTier)
			pool, err := concentrated_liquidity.NewPool(
				"spot-v3-reference",
				common.HexToAddress("0x0000000000000000000000000000000000000001"),
				18,
				common.HexToAddress("0x0000000000000000000000000000000000000002"),
				18,
				fee,
			)
			if err != nil {
				return err
			}

			state, err := pool.Calculate(context.Background(), mechanisms.PoolParams{
				Metadata: map[string]interface{}{
					"current_tick":   currentTick,
					"sqrt_price_x96": sqrtPriceX96,
					"liquidity":      liquidity,
				},
			})
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "spot price: %s\nliquidity: %s\n", state.SpotPrice, state.Liquidity)
			return nil
		},
	}

	cmd.Flags().IntVar(&currentTick, "tick", 0, "current pool tick")
	cmd.Flags().StringVar(&sqrtPriceX96, "sqrt-price-x96", "", "current sqrt price in Q64.96 format")
	cmd.Flags().StringVar(&liquidity, "liquidity", "0", "current pool liquidity")
	cmd.Flags().IntVar(&feeTier, "fee", 3000, "fee tier (500, 3000, 10000)")

	return cmd
}
