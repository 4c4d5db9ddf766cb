package hcs

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseWellPosition converts a plate position label like "A01" or "H12" into
// 1-based (row, col) indices. Rows beyond Z continue as AA, AB, ... for
// 1536-well formats.
func ParseWellPosition(pos string) (row, col int, err error) {
	p := strings.ToUpper(strings.TrimSpace(pos))
	if p == "" {
		return 0, 0, fmt.Errorf("empty well position")
	}

	i := 0
	for i < len(p) && p[i] >= 'A' && p[i] <= 'Z' {
		row = row*26 + int(p[i]-'A') + 1
		i++
	}
	if i == 0 {
		return 0, 0, fmt.Errorf("well position %q has no row letters", pos)
	}

	col, err = strconv.Atoi(p[i:])
	if err != nil || col < 1 {
		return 0, 0, fmt.Errorf("well position %q has invalid column", pos)
	}
	return row, col, nil
}

// FormatWellPosition renders 1-based (row, col) indices back to a label.
func FormatWellPosition(row, col int) string {
	var letters []byte
	for row > 0 {
		row--
		letters = append([]byte{byte('A' + row%26)}, letters...)
		row /= 26
	}
	return fmt.Sprintf("%s%02d", letters, col)
}
