package game

import (
	"prize_engine/internal/attribution"
	"prize_engine/internal/prize"
)

// Default slot reel symbols.
const (
	SymbolCherry  = "cherry"
	SymbolLemon   = "lemon"
	SymbolStar    = "star"
	SymbolSeven   = "seven"
	SymbolDiamond = "diamond"
	SymbolBell    = "bell"
)

var defaultSymbols = []string{SymbolCherry, SymbolLemon, SymbolStar, SymbolSeven, SymbolDiamond, SymbolBell}

// premiumSymbols are preferred for winning triples when a prize carries no
// symbol of its own.
var premiumSymbols = []string{SymbolSeven, SymbolDiamond, SymbolStar}

// JackpotOutcome is a symbol triple: all three equal for winners, pairwise
// distinct for losers (never exactly two equal).
type JackpotOutcome struct {
	IsWinner bool      `json:"is_winner"`
	Symbols  [3]string `json:"symbols"`
	PrizeID  string    `json:"prize_id,omitempty"`
}

type JackpotAdapter struct {
	rng          attribution.RandomSource
	symbols      []string
	prizeSymbols map[string]string // explicit prize id -> symbol mapping
}

func NewJackpotAdapter(rng attribution.RandomSource, symbols []string, prizeSymbols map[string]string) *JackpotAdapter {
	if len(symbols) < 3 {
		symbols = defaultSymbols
	}
	return &JackpotAdapter{rng: rng, symbols: symbols, prizeSymbols: prizeSymbols}
}

func (a *JackpotAdapter) Render(res attribution.Result) JackpotOutcome {
	if !res.IsWinner || res.Prize == nil {
		return JackpotOutcome{Symbols: a.losingTriple()}
	}
	sym := a.winningSymbol(res.Prize)
	return JackpotOutcome{
		IsWinner: true,
		Symbols:  [3]string{sym, sym, sym},
		PrizeID:  res.Prize.PrizeID,
	}
}

// winningSymbol resolves the symbol shown on a winning triple, in priority
// order: explicit mapping, prize symbol metadata, prize image reference,
// premium set, first available symbol.
func (a *JackpotAdapter) winningSymbol(p *prize.Prize) string {
	if sym, ok := a.prizeSymbols[p.PrizeID]; ok && sym != "" {
		return sym
	}
	if p.SymbolID != "" {
		return p.SymbolID
	}
	if p.ImageRef != "" {
		return p.ImageRef
	}
	for _, sym := range premiumSymbols {
		for _, s := range a.symbols {
			if s == sym {
				return sym
			}
		}
	}
	return a.symbols[0]
}

// losingTriple draws three pairwise-distinct symbols, redrawing on any
// collision so a losing spin can never look like a near-win pair or a win.
func (a *JackpotAdapter) losingTriple() [3]string {
	n := len(a.symbols)
	for {
		s := [3]string{
			a.symbols[a.rng.Intn(n)],
			a.symbols[a.rng.Intn(n)],
			a.symbols[a.rng.Intn(n)],
		}
		if s[0] != s[1] && s[0] != s[2] && s[1] != s[2] {
			return s
		}
	}
}
