// Package farm renders the transfer statistics view shown by `nutfarm stats`.
package farm

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/okunev/nutfarm/internal/domain"
)

type RenderOptions struct {
	Recipient string
}

func renderView(stats map[domain.AccountID]domain.StatsRecord, opts RenderOptions, s styles) string {
	lines := []string{
		s.title.Render("Nut Farm Transfers"),
		s.header.Render(fmt.Sprintf("accounts: %d", len(stats))),
	}
	if opts.Recipient != "" {
		lines = append(lines, s.header.Render("recipient: "+opts.Recipient))
	}

	if len(stats) == 0 {
		lines = append(lines, s.empty.Render("No transfers recorded yet."))
		return lipgloss.JoinVertical(lipgloss.Left, lines...)
	}

	accounts := sortedAccounts(stats)
	var grandTotal, grandRuns int64
	for _, record := range stats {
		grandTotal += record.Total
		grandRuns += record.Runs
	}

	for _, account := range accounts {
		lines = append(lines, s.section.Render(renderAccount(account, stats[account], grandTotal, s)))
	}

	summary := fmt.Sprintf("total: %s nuts over %d transfers", formatAmount(grandTotal), grandRuns)
	lines = append(lines, s.section.Render(s.total.Render(summary)))

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func renderAccount(account domain.AccountID, record domain.StatsRecord, grandTotal int64, s styles) string {
	var share float64
	if grandTotal > 0 {
		share = float64(record.Total) / float64(grandTotal) * 100
	}

	detail := lipgloss.JoinHorizontal(
		lipgloss.Top,
		renderShareBar(share, 24, s),
		" ",
		s.detail.Render(fmt.Sprintf("%s nuts", formatAmount(record.Total))),
		" ",
		s.meta.Render(fmt.Sprintf("(%s, %2.0f%%)", runsLabel(record.Runs), share)),
	)

	return lipgloss.JoinVertical(
		lipgloss.Left,
		s.account.Render(string(account)),
		detail,
	)
}

func renderShareBar(percent float64, width int, s styles) string {
	if width <= 0 {
		return ""
	}

	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}

	filled := int(math.Round(float64(width) * percent / 100))
	if filled > width {
		filled = width
	}

	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		s.barBracket.Render("["),
		s.barFill.Render(strings.Repeat("=", filled)),
		s.barEmpty.Render(strings.Repeat("-", width-filled)),
		s.barBracket.Render("]"),
	)
}

func runsLabel(runs int64) string {
	if runs == 1 {
		return "1 transfer"
	}
	return fmt.Sprintf("%d transfers", runs)
}

func formatAmount(v int64) string {
	digits := fmt.Sprintf("%d", v)
	if len(digits) <= 3 {
		return digits
	}

	var b strings.Builder
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(digits[i : i+3])
	}

	return b.String()
}

func sortedAccounts(stats map[domain.AccountID]domain.StatsRecord) []domain.AccountID {
	accounts := make([]domain.AccountID, 0, len(stats))
	for account := range stats {
		accounts = append(accounts, account)
	}
	sort.Slice(accounts, func(i, j int) bool { return accounts[i] < accounts[j] })
	return accounts
}
