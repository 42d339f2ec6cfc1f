package constantproduct

import "github.com/johnayoung/go-amm-sim/pkg/marketmaker"

var (
	_ marketmaker.MarketMaker = (*AMM)(nil)
	_ marketmaker.MarketMaker = (*MAMM)(nil)
)
