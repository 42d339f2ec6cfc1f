package constantsum

import (
	"github.com/johnayoung/go-amm-sim/pkg/marketmaker"
	"github.com/johnayoung/go-amm-sim/pkg/poolstate"
	"github.com/johnayoung/go-amm-sim/pkg/primitives"
	"github.com/johnayoung/go-amm-sim/pkg/token"
	"github.com/johnayoung/go-amm-sim/pkg/txrecord"
)

// MCSMM is the multi-token constant-sum maker, sharing CSMM's trade-at-
// market-rate behavior across any pair of tokens in a single Multi pool.
type MCSMM struct {
	pool   *poolstate.Multi
	prices token.PriceMap
	cfg    marketmaker.SimulationConfig
}

// NewMCSMM builds an MCSMM over an already-constructed Multi pool.
func NewMCSMM(pool *poolstate.Multi) *MCSMM {
	return &MCSMM{pool: pool}
}

func (m *MCSMM) Variant() marketmaker.Variant { return marketmaker.VariantMCSMM }

func (m *MCSMM) Configure(cfg marketmaker.SimulationConfig) { m.cfg = cfg }

func (m *MCSMM) SetPrices(prices token.PriceMap) { m.prices = prices }

func (m *MCSMM) Swap(tx txrecord.InputTx, outAmt *primitives.Decimal) (txrecord.OutputTx, poolstate.Snapshot, error) {
	inBal, err := m.pool.Get(tx.InType)
	if err != nil {
		return txrecord.OutputTx{}, nil, err
	}
	outBal, err := m.pool.Get(tx.OutType)
	if err != nil {
		return txrecord.OutputTx{}, nil, err
	}
	marketRate, err := m.prices.MarketRate(tx.InType, tx.OutType)
	if err != nil {
		return txrecord.OutputTx{}, nil, err
	}

	var inVal, outVal primitives.Decimal
	if outAmt != nil {
		outVal = *outAmt
		inVal, err = outVal.Div(marketRate)
		if err != nil {
			return txrecord.OutputTx{}, nil, err
		}
	} else {
		inVal = tx.InVal
		outVal = inVal.Mul(marketRate)
	}

	newIn := inBal.Balance.Add(inVal)
	newOut := outBal.Balance.Sub(outVal)

	if newOut.IsNegative() {
		zero := primitives.Zero()
		out := txrecord.OutputTx{
			InType:       tx.InType,
			OutType:      tx.OutType,
			InVal:        zero,
			OutVal:       zero,
			InPoolInit:   inBal.Balance,
			OutPoolInit:  outBal.Balance,
			InPoolAfter:  inBal.Balance,
			OutPoolAfter: outBal.Balance,
			MarketRate:   marketRate,
			AfterRate:    marketRate,
		}
		return out, m.pool.Snapshot(), nil
	}

	m.pool.Set(tx.InType, newIn)
	m.pool.Set(tx.OutType, newOut)

	out := txrecord.OutputTx{
		InType:       tx.InType,
		OutType:      tx.OutType,
		InVal:        inVal,
		OutVal:       outVal,
		InPoolInit:   inBal.Balance,
		OutPoolInit:  outBal.Balance,
		InPoolAfter:  newIn,
		OutPoolAfter: newOut,
		MarketRate:   marketRate,
		AfterRate:    marketRate,
	}
	return out, m.pool.Snapshot(), nil
}

func (m *MCSMM) CalculateEquilibriums(intype, outtype token.ID) (primitives.Decimal, primitives.Decimal, error) {
	inBal, err := m.pool.Get(intype)
	if err != nil {
		return primitives.Decimal{}, primitives.Decimal{}, err
	}
	outBal, err := m.pool.Get(outtype)
	if err != nil {
		return primitives.Decimal{}, primitives.Decimal{}, err
	}
	return inBal.Balance, outBal.Balance, nil
}

func (m *MCSMM) Arbitrage() ([]txrecord.OutputTx, []poolstate.Snapshot, error) {
	return nil, nil, nil
}

func (m *MCSMM) Snapshot() poolstate.Snapshot { return m.pool.Snapshot() }

type mcsmmCheckpoint struct {
	pool *poolstate.Multi
}

func (m *MCSMM) CheckpointState() any {
	return mcsmmCheckpoint{pool: m.pool.Snapshot()}
}

func (m *MCSMM) RestoreState(checkpoint any) {
	cp := checkpoint.(mcsmmCheckpoint)
	m.pool = cp.pool
}

var (
	_ marketmaker.MarketMaker = (*CSMM)(nil)
	_ marketmaker.MarketMaker = (*MCSMM)(nil)
)
