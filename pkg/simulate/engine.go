// Package simulate provides the single dispatch point that drives traffic
// through a marketmaker.MarketMaker over a sequence of batches. It never
// branches on which curve variant it holds: one driver is shared by every
// maker variant instead of each variant owning its own traffic loop.
package simulate

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/johnayoung/go-amm-sim/pkg/marketmaker"
	"github.com/johnayoung/go-amm-sim/pkg/poolstate"
	"github.com/johnayoung/go-amm-sim/pkg/token"
	"github.com/johnayoung/go-amm-sim/pkg/txrecord"
)

// Batch is one unit of simulated traffic: a price map the maker trades
// under, and the transaction tape to execute against it (spec §3, §5).
type Batch struct {
	Prices token.PriceMap
	Tape   []txrecord.InputTx
}

// Config configures one simulation run.
type Config struct {
	// ResetTx reverts the maker's pool (and equilibrium, for PMM/MPMM)
	// state to the checkpoint taken at the start of each transaction,
	// discarding its effect before the next one executes (spec §6
	// configure_simulation "reset_tx").
	ResetTx bool

	// Arb runs the maker's arbitrage pass after every transaction.
	Arb bool

	// ArbActions bounds how many arbitrage swaps one pass may perform.
	ArbActions int

	// Logger receives one Info line per batch and one Debug line per
	// transaction; defaults to logrus.StandardLogger() if nil.
	Logger *logrus.Logger
}

// Result accumulates every executed transaction, its resulting snapshot,
// and the batch boundary each one falls in (spec §3 "Simulation result").
// RunID identifies the run in logs so concurrent runs' output can be told
// apart.
type Result struct {
	RunID        string
	Transactions []txrecord.OutputTx
	Snapshots    []poolstate.Snapshot
	BatchIndex   []int
}

// Engine is the simulation driver. It is not safe for concurrent use; run
// separate Engines for concurrent simulations.
type Engine struct {
	config Config
}

// NewEngine builds an Engine with the given configuration.
func NewEngine(config Config) *Engine {
	if config.Logger == nil {
		config.Logger = logrus.StandardLogger()
	}
	return &Engine{config: config}
}

// Run executes batches in order against maker, applying Config.ResetTx and
// Config.Arb after every transaction. It respects ctx cancellation between
// transactions.
func (e *Engine) Run(ctx context.Context, maker marketmaker.MarketMaker, batches []Batch) (*Result, error) {
	if maker == nil {
		return nil, fmt.Errorf("market maker cannot be nil")
	}
	if len(batches) == 0 {
		return nil, fmt.Errorf("batches cannot be empty")
	}

	maker.Configure(marketmaker.SimulationConfig{
		ResetTx:    e.config.ResetTx,
		Arb:        e.config.Arb,
		ArbActions: e.config.ArbActions,
	})

	result := &Result{RunID: uuid.NewString()}
	e.config.Logger.WithField("run_id", result.RunID).Info("starting simulation run")

	for batchIdx, batch := range batches {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("simulation cancelled: %w", ctx.Err())
		default:
		}

		maker.SetPrices(batch.Prices)
		e.config.Logger.WithFields(logrus.Fields{"batch": batchIdx, "transactions": len(batch.Tape)}).Info("running batch")

		for txIdx, tx := range batch.Tape {
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("simulation cancelled: %w", ctx.Err())
			default:
			}

			e.config.Logger.WithFields(logrus.Fields{"batch": batchIdx, "tx": txIdx}).Debug("executing transaction")

			checkpoint := maker.CheckpointState()

			if err := e.executeOne(maker, tx, batchIdx, txIdx, result); err != nil {
				return nil, err
			}

			if e.config.ResetTx {
				maker.RestoreState(checkpoint)
			}
		}
	}

	return result, nil
}

func (e *Engine) executeOne(maker marketmaker.MarketMaker, tx txrecord.InputTx, batchIdx, txIdx int, result *Result) error {
	if tx.IsArb {
		txs, snaps, err := maker.Arbitrage()
		if err != nil {
			return fmt.Errorf("arbitrage failed at batch %d tx %d: %w", batchIdx, txIdx, err)
		}
		for i, out := range txs {
			result.Transactions = append(result.Transactions, out)
			result.Snapshots = append(result.Snapshots, snaps[i])
			result.BatchIndex = append(result.BatchIndex, batchIdx)
		}
		return nil
	}

	out, snap, err := maker.Swap(tx, nil)
	if err != nil {
		return fmt.Errorf("swap failed at batch %d tx %d: %w", batchIdx, txIdx, err)
	}
	result.Transactions = append(result.Transactions, out)
	result.Snapshots = append(result.Snapshots, snap)
	result.BatchIndex = append(result.BatchIndex, batchIdx)

	if e.config.Arb {
		arbTxs, arbSnaps, err := maker.Arbitrage()
		if err != nil {
			return fmt.Errorf("post-trade arbitrage failed at batch %d tx %d: %w", batchIdx, txIdx, err)
		}
		for i, arbOut := range arbTxs {
			result.Transactions = append(result.Transactions, arbOut)
			result.Snapshots = append(result.Snapshots, arbSnaps[i])
			result.BatchIndex = append(result.BatchIndex, batchIdx)
		}
	}

	return nil
}
