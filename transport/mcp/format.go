package mcp

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/wricardo/klondike/game/engine"
	"github.com/wricardo/klondike/game/service"
)

// parseRef reads the short ref notation (stock, waste, f2, t3, t3:5) or the
// long form printed by EntityRef.String (foundation(2), tableau_card(3,5)).
func parseRef(s string) (engine.EntityRef, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	bad := fmt.Errorf("%w: %q", engine.ErrInvalidRef, s)

	var ref engine.EntityRef
	switch v {
	case "", "none":
		return engine.NoRef(), nil
	case "stock", "stock_hidden":
		return engine.StockHiddenRef(), nil
	case "waste", "stock_reveal":
		return engine.StockRevealRef(), nil
	}

	if open := strings.IndexByte(v, '('); open > 0 && strings.HasSuffix(v, ")") {
		kind, err := engine.ParseRefKind(v[:open])
		if err != nil {
			return engine.EntityRef{}, err
		}
		nums, err := atoiList(strings.Split(v[open+1:len(v)-1], ","))
		if err != nil {
			return engine.EntityRef{}, bad
		}
		switch {
		case kind == engine.RefFoundation && len(nums) == 1:
			ref = engine.FoundationRef(nums[0])
		case kind == engine.RefTableauPile && len(nums) == 1:
			ref = engine.TableauPileRef(nums[0])
		case kind == engine.RefTableauCard && len(nums) == 2:
			ref = engine.TableauCardRef(nums[0], nums[1])
		default:
			return engine.EntityRef{}, bad
		}
	} else {
		switch v[0] {
		case 'f':
			n, err := strconv.Atoi(v[1:])
			if err != nil {
				return engine.EntityRef{}, bad
			}
			ref = engine.FoundationRef(n)
		case 't':
			colText, rowText, hasRow := strings.Cut(v[1:], ":")
			col, err := strconv.Atoi(colText)
			if err != nil {
				return engine.EntityRef{}, bad
			}
			if !hasRow {
				ref = engine.TableauPileRef(col)
				break
			}
			row, err := strconv.Atoi(rowText)
			if err != nil {
				return engine.EntityRef{}, bad
			}
			ref = engine.TableauCardRef(col, row)
		default:
			return engine.EntityRef{}, bad
		}
	}

	if !ref.Valid() {
		return engine.EntityRef{}, fmt.Errorf("%w: %q is off the board", engine.ErrInvalidRef, s)
	}
	return ref, nil
}

func atoiList(parts []string) ([]int, error) {
	nums := make([]int, len(parts))
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, err
		}
		nums[i] = n
	}
	return nums, nil
}

// formatRef is the inverse of parseRef's short notation.
func formatRef(ref engine.EntityRef) string {
	switch ref.Kind {
	case engine.RefStockHidden:
		return "stock"
	case engine.RefStockReveal:
		return "waste"
	case engine.RefFoundation:
		return fmt.Sprintf("f%d", ref.Stack)
	case engine.RefTableauPile:
		return fmt.Sprintf("t%d", ref.Col)
	case engine.RefTableauCard:
		return fmt.Sprintf("t%d:%d", ref.Col, ref.Row)
	}
	return "none"
}

func formatCards(cards []engine.Card) string {
	parts := make([]string, len(cards))
	for i, c := range cards {
		parts[i] = c.String()
	}
	return strings.Join(parts, " ")
}

func withIntent(intent, text string) string {
	if intent == "" {
		return text
	}
	return fmt.Sprintf("Intent: %s\n%s", intent, text)
}

func formatSessionInfo(session *service.SessionInfo) string {
	return fmt.Sprintf("Session: %s\nConfig: %s\nCreated: %s\n\n%s",
		session.ID, session.ConfigName,
		session.CreatedAt.Format("2006-01-02 15:04:05"),
		formatGameState(session.GameState))
}

func formatGameState(state *engine.GameState) string {
	if state == nil {
		return "No game state available"
	}

	var b strings.Builder

	status := "in progress"
	if state.Won {
		status = "🎉 WON"
	}
	b.WriteString(fmt.Sprintf("Deal: %s | Moves: %d | Total: %d | %s\n\n",
		state.DealID, state.Moves, state.TotalMoves, status))

	b.WriteString("Foundations:")
	for i := range state.Foundations {
		f := &state.Foundations[i]
		top := "--"
		if card, ok := f.Top(); ok {
			top = card.String()
		}
		b.WriteString(fmt.Sprintf("  f%d [%s]", i, top))
	}
	b.WriteString("\n")

	hidden := len(state.Stock) - state.StockIdx - 1
	waste := "--"
	if state.StockIdx >= 0 && state.StockIdx < len(state.Stock) {
		waste = state.Stock[state.StockIdx].Card.String()
	}
	b.WriteString(fmt.Sprintf("Stock: %d face down | Waste: %s\n", hidden, waste))

	if !state.Selection.IsNone() {
		b.WriteString(fmt.Sprintf("Selected: %s\n", formatRef(state.Selection)))
	}

	b.WriteString("\nTableau (## is face down, * is selected):\n")
	for col, pile := range state.Tableau {
		b.WriteString(fmt.Sprintf("t%d:", col))
		if len(pile) == 0 {
			b.WriteString(" (empty)")
		}
		for row, slot := range pile {
			text := "##"
			if slot.FaceUp {
				text = slot.Card.String()
			}
			mark := ""
			sel := state.Selection
			if sel.Kind == engine.RefTableauCard && sel.Col == col && row >= sel.Row {
				mark = "*"
			}
			b.WriteString(fmt.Sprintf(" %d:%s%s", row, text, mark))
		}
		b.WriteString("\n")
	}

	if state.Message != "" {
		b.WriteString(fmt.Sprintf("\nMessage: %s", state.Message))
	}

	return b.String()
}

func formatClickResult(result *service.ClickResult) string {
	var b strings.Builder
	res := result.Result

	switch res.Outcome {
	case engine.OutcomeMoved:
		b.WriteString(fmt.Sprintf("✓ Moved %s: %s → %s\n", formatCards(res.Cards), formatRef(res.From), formatRef(res.To)))
		if res.Revealed != nil {
			b.WriteString(fmt.Sprintf("Revealed %s\n", res.Revealed))
		}
	case engine.OutcomeDrew:
		b.WriteString(fmt.Sprintf("✓ Drew %s\n", formatCards(res.Cards)))
	case engine.OutcomeRecycled:
		b.WriteString("✓ Stock recycled\n")
	case engine.OutcomeSelected:
		b.WriteString(fmt.Sprintf("Selected %s (%s)\n", formatRef(res.From), formatCards(result.SelectedCards)))
	case engine.OutcomeRejected:
		b.WriteString(fmt.Sprintf("✗ Illegal move %s → %s; selection kept\n", formatRef(res.From), formatRef(res.To)))
	case engine.OutcomeCleared:
		b.WriteString("Selection cleared\n")
	case engine.OutcomeIgnored:
		b.WriteString("Click ignored\n")
	default:
		b.WriteString(fmt.Sprintf("Outcome: %s\n", res.Outcome))
	}

	if len(result.Events) > 0 {
		b.WriteString("Events:\n")
		for _, event := range result.Events {
			b.WriteString(fmt.Sprintf("- %s: %s\n", event.Type, event.Message))
		}
	}

	b.WriteString("\n")
	b.WriteString(formatGameState(result.GameState))
	return b.String()
}

func formatStepLine(idx int, step engine.MoveResult) string {
	line := fmt.Sprintf("%d. %s %s", idx, step.Outcome, formatRef(step.From))
	if !step.To.IsNone() {
		line += " → " + formatRef(step.To)
	}
	if len(step.Cards) > 0 {
		line += " [" + formatCards(step.Cards) + "]"
	}
	if step.Revealed != nil {
		line += " revealed " + step.Revealed.String()
	}
	return line + "\n"
}

func formatBulkClickResult(sessionID string, result *service.BulkClickResult) string {
	var b strings.Builder

	configName := ""
	if result.GameState != nil {
		configName = result.GameState.ConfigName
	}
	b.WriteString(fmt.Sprintf("Session: %s • Config: %s\n", sessionID, configName))
	b.WriteString(fmt.Sprintf("Executed %d/%d clicks, %d moves made\n",
		result.ClicksExecuted, result.RequestedClicks, result.MovesMade))
	if result.Truncated {
		b.WriteString(fmt.Sprintf("Truncated to the limit of %d clicks\n", result.Limit))
	}
	if result.StoppedReason != "" {
		b.WriteString(fmt.Sprintf("Stopped on click %d: %s\n", result.StoppedOnClick, result.StoppedReason))
	}

	if len(result.Steps) > 0 {
		b.WriteString("\nSteps (this call):\n")
		for i, step := range result.Steps {
			b.WriteString(formatStepLine(i+1, step))
		}
	}

	if len(result.Events) > 0 {
		b.WriteString("\nEvents:\n")
		for _, event := range result.Events {
			b.WriteString(fmt.Sprintf("- %s: %s\n", event.Type, event.Message))
		}
	}

	b.WriteString("\n")
	b.WriteString(formatGameState(result.GameState))
	return b.String()
}

func formatHints(hints *service.HintsResponse) string {
	if hints.Won {
		return "The game is won. Reset to play again."
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("Legal moves (%d):\n", hints.Count))
	for _, m := range hints.Moves {
		b.WriteString(fmt.Sprintf("- %s → %s [%s]\n", formatRef(m.From), formatRef(m.To), formatCards(m.Cards)))
	}
	if hints.Count == 0 {
		b.WriteString("- none on the board\n")
	}

	switch {
	case !hints.CanDraw:
		b.WriteString("\nNo stock left to draw\n")
	case hints.StockRemaining > 0:
		b.WriteString(fmt.Sprintf("\nDraw: %d cards left in the stock\n", hints.StockRemaining))
	default:
		b.WriteString("\nStock exhausted; drawing recycles the waste\n")
	}
	return b.String()
}

func formatHistory(history *service.HistoryResponse) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Move History (Page %d/%d), total moves: %d\n\n",
		history.Page, history.TotalPages, history.TotalMoves))

	for _, move := range history.Moves {
		line := fmt.Sprintf("%d. %s", move.MoveNumber, move.Action)
		if move.Action == engine.ActionMove {
			line += fmt.Sprintf(" %s → %s [%s]", formatRef(move.From), formatRef(move.To), formatCards(move.Cards))
		} else if len(move.Cards) > 0 {
			line += " " + formatCards(move.Cards)
		}
		if move.Revealed != nil {
			line += " revealed " + move.Revealed.String()
		}
		b.WriteString(line + "\n")
	}
	if len(history.Moves) == 0 {
		b.WriteString("(no moves yet)\n")
	}

	return b.String()
}
