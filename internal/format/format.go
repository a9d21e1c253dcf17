// Package format renders lamport and token values for terminal display.
package format

import (
	"fmt"
	"time"

	"github.com/nueramator/ZeroGlaze-Streaming/internal/curve"
)

// Sol formats a lamport amount as SOL.
func Sol(lamports uint64) string {
	sol := float64(lamports) / curve.LamportsPerSol
	if lamports == 0 {
		return "0 SOL"
	}
	if sol < 0.0001 {
		return "<0.0001 SOL"
	}
	return fmt.Sprintf("%.4f SOL", sol)
}

// TokenAmount formats a raw token count with K/M/B suffixes.
func TokenAmount(amount uint64) string {
	switch {
	case amount == 0:
		return "0"
	case amount >= 1_000_000_000:
		return fmt.Sprintf("%.2fB", float64(amount)/1e9)
	case amount >= 1_000_000:
		return fmt.Sprintf("%.2fM", float64(amount)/1e6)
	case amount >= 1_000:
		return fmt.Sprintf("%.2fK", float64(amount)/1e3)
	default:
		return fmt.Sprintf("%d", amount)
	}
}

// Percent formats a percentage with an explicit sign.
func Percent(value float64) string {
	if value >= 0 {
		return fmt.Sprintf("+%.2f%%", value)
	}
	return fmt.Sprintf("%.2f%%", value)
}

// Price formats a price in lamports per raw token.
func Price(lamportsPerToken float64) string {
	if lamportsPerToken == 0 {
		return "0"
	}
	if lamportsPerToken < 0.01 {
		return fmt.Sprintf("%.2e lamports", lamportsPerToken)
	}
	return fmt.Sprintf("%.4f lamports", lamportsPerToken)
}

// TruncateAddress shortens a base58 address for display.
func TruncateAddress(address string) string {
	const chars = 4
	if len(address) <= chars*2 {
		return address
	}
	return address[:chars] + "..." + address[len(address)-chars:]
}

// TimeAgo renders a relative timestamp.
func TimeAgo(t time.Time) string {
	seconds := int64(time.Since(t).Seconds())
	switch {
	case seconds < 60:
		return "just now"
	case seconds < 3600:
		return fmt.Sprintf("%dm ago", seconds/60)
	case seconds < 86400:
		return fmt.Sprintf("%dh ago", seconds/3600)
	case seconds < 604800:
		return fmt.Sprintf("%dd ago", seconds/86400)
	default:
		return t.Format("Jan 2, 2006")
	}
}
