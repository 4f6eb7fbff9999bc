// Command analyze prints quick, human-readable statistics about Klondike
// deals: how deep the aces are buried, how many moves the opening offers,
// and how many stock cards are playable on the first pass. It analyzes
// either a range of seeds or the hand sequence of a config file.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/urfave/cli/v3"

	"github.com/wricardo/klondike/game/engine"
)

// DealStats summarizes one opening position.
type DealStats struct {
	Seed          uint64 `json:"seed,omitempty"`
	Hand          int    `json:"hand"`
	FaceUp        int    `json:"face_up"`
	AcesExposed   int    `json:"aces_exposed"`
	AcesInStock   int    `json:"aces_in_stock"`
	AceDepth      int    `json:"ace_depth"` // cards covering the tableau aces, summed
	KingsBuried   int    `json:"kings_buried"`
	OpeningMoves  int    `json:"opening_moves"`
	StockPlayable int    `json:"stock_playable"` // stock cards playable when turned, first pass
}

// Summary averages a set of deals.
type Summary struct {
	Deals            int     `json:"deals"`
	AvgAceDepth      float64 `json:"avg_ace_depth"`
	AvgOpeningMoves  float64 `json:"avg_opening_moves"`
	AvgStockPlayable float64 `json:"avg_stock_playable"`
	NoOpeningMoves   int     `json:"no_opening_moves"`
}

func analysisConfig(seed uint64) *engine.GameConfig {
	return &engine.GameConfig{
		Name:        "analysis",
		Description: "deal analysis",
		Seed:        seed,
		Messages: engine.Messages{
			Welcome: "analysis",
			Victory: "won in %d",
		},
	}
}

// analyzeDeal measures the engine's current position. It plays through the
// stock once, so the engine is left mid-pass.
func analyzeDeal(eng *engine.GameEngine) DealStats {
	state := eng.GetState()

	var stats DealStats
	for _, col := range state.Tableau {
		for row, slot := range col {
			if slot.FaceUp {
				stats.FaceUp++
			}
			switch slot.Card.Rank {
			case engine.Ace:
				if slot.FaceUp {
					stats.AcesExposed++
				}
				stats.AceDepth += len(col) - 1 - row
			case engine.King:
				if !slot.FaceUp && row > 0 {
					stats.KingsBuried++
				}
			}
		}
	}
	for _, slot := range state.Stock {
		if slot.Card.Rank == engine.Ace {
			stats.AcesInStock++
		}
	}

	stats.OpeningMoves = len(eng.GetPossibleMoves())

	for range state.Stock {
		eng.DrawStock()
		for _, m := range eng.GetPossibleMoves() {
			if m.From.Kind == engine.RefStockReveal {
				stats.StockPlayable++
				break
			}
		}
	}

	return stats
}

// analyzeSeeds analyzes one deal per seed in [from, from+count).
func analyzeSeeds(from uint64, count int) ([]DealStats, error) {
	results := make([]DealStats, 0, count)
	for i := 0; i < count; i++ {
		seed := from + uint64(i)
		if seed == 0 {
			// Seed 0 means a random deal
			continue
		}
		eng, err := engine.NewEngine(analysisConfig(seed))
		if err != nil {
			return nil, err
		}
		stats := analyzeDeal(eng)
		stats.Seed = seed
		stats.Hand = 1
		results = append(results, stats)
	}
	return results, nil
}

// analyzeConfig analyzes the first hands dealt by a config file, following
// its seed through successive resets.
func analyzeConfig(path string, hands int) ([]DealStats, error) {
	config, err := engine.LoadGameConfig(path)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	eng, err := engine.NewEngine(config)
	if err != nil {
		return nil, err
	}

	results := make([]DealStats, 0, hands)
	for hand := 1; hand <= hands; hand++ {
		if hand > 1 {
			eng.Reset()
		}
		stats := analyzeDeal(eng)
		stats.Seed = config.Seed
		stats.Hand = hand
		results = append(results, stats)
	}
	return results, nil
}

func summarize(deals []DealStats) Summary {
	s := Summary{Deals: len(deals)}
	if len(deals) == 0 {
		return s
	}
	var depth, moves, playable int
	for _, d := range deals {
		depth += d.AceDepth
		moves += d.OpeningMoves
		playable += d.StockPlayable
		if d.OpeningMoves == 0 {
			s.NoOpeningMoves++
		}
	}
	n := float64(len(deals))
	s.AvgAceDepth = float64(depth) / n
	s.AvgOpeningMoves = float64(moves) / n
	s.AvgStockPlayable = float64(playable) / n
	return s
}

func printTable(w io.Writer, deals []DealStats) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SEED\tHAND\tACES UP\tACE DEPTH\tACES IN STOCK\tKINGS BURIED\tOPENING MOVES\tSTOCK PLAYABLE")
	for _, d := range deals {
		fmt.Fprintf(tw, "%d\t%d\t%d\t%d\t%d\t%d\t%d\t%d\n",
			d.Seed, d.Hand, d.AcesExposed, d.AceDepth, d.AcesInStock, d.KingsBuried, d.OpeningMoves, d.StockPlayable)
	}
	tw.Flush()

	s := summarize(deals)
	fmt.Fprintf(w, "\n%d deals | avg ace depth %.2f | avg opening moves %.2f | avg stock playable %.2f\n",
		s.Deals, s.AvgAceDepth, s.AvgOpeningMoves, s.AvgStockPlayable)
	if s.NoOpeningMoves > 0 {
		fmt.Fprintf(w, "⚠️  %d deals open with no tableau move; they start on the stock\n", s.NoOpeningMoves)
	}
}

func newCommand(w io.Writer) *cli.Command {
	return &cli.Command{
		Name:  "analyze",
		Usage: "print opening statistics for Klondike deals",
		Flags: []cli.Flag{
			&cli.Uint64Flag{Name: "from", Value: 1, Usage: "first seed of the range"},
			&cli.IntFlag{Name: "count", Value: 20, Usage: "number of seeds to analyze"},
			&cli.StringFlag{Name: "config", Usage: "analyze the hand sequence of this config file instead of a seed range"},
			&cli.IntFlag{Name: "hands", Value: 5, Usage: "hands to deal from --config"},
			&cli.BoolFlag{Name: "json", Usage: "print JSON instead of a table"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			var (
				deals []DealStats
				err   error
			)
			if path := cmd.String("config"); path != "" {
				deals, err = analyzeConfig(path, int(cmd.Int("hands")))
			} else {
				deals, err = analyzeSeeds(cmd.Uint64("from"), int(cmd.Int("count")))
			}
			if err != nil {
				return err
			}

			if cmd.Bool("json") {
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				return enc.Encode(map[string]interface{}{
					"deals":   deals,
					"summary": summarize(deals),
				})
			}
			printTable(w, deals)
			return nil
		},
	}
}

func main() {
	if err := newCommand(os.Stdout).Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
