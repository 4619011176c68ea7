package tui

import (
	"strconv"
	"strings"
)

// truncate shortens a string to max length with ellipsis
func truncate(s string, max int) string {
	if max <= 3 || len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}

// splitRows parses "a|b|c; d|e|f" into rows padded to cols columns
func splitRows(s string, cols int) [][]string {
	var rows [][]string
	for _, line := range strings.Split(s, ";") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		parts := strings.Split(line, "|")
		row := make([]string, cols)
		for i := 0; i < cols && i < len(parts); i++ {
			row[i] = strings.TrimSpace(parts[i])
		}
		rows = append(rows, row)
	}
	return rows
}

func joinRows(rows [][]string) string {
	lines := make([]string, len(rows))
	for i, r := range rows {
		lines[i] = strings.Join(r, "|")
	}
	return strings.Join(lines, "; ")
}

func atoiOrZero(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.Atoi(s)
}
