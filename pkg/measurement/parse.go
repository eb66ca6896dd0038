package measurement

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"unicode"

	"github.com/aretw0/elementx/pkg/domain"
)

// Lines starting with one of these are comments.
const commentPrefixes = "#;*!%"

// Lines mentioning any of these words are column headers.
var headerWords = []string{"theta", "angle", "field", "moment", "temp", "intensity", "header", "scan"}

func isSeparator(r rune) bool {
	return unicode.IsSpace(r) || r == ',' || r == ';'
}

// ParseRaw reads the numeric rows of an instrument export. The first two
// fields of each data row become X and Y; rows that do not parse are skipped.
// Only a read error is returned; an unreadable file simply yields no points.
func ParseRaw(r io.Reader) ([]domain.Point, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var points []domain.Point
	for sc.Scan() {
		line := strings.TrimSpace(strings.ToValidUTF8(sc.Text(), ""))
		if line == "" || strings.ContainsRune(commentPrefixes, rune(line[0])) {
			continue
		}
		if isHeader(line) {
			continue
		}

		fields := strings.FieldsFunc(line, isSeparator)
		if len(fields) < 2 {
			continue
		}
		x, errX := strconv.ParseFloat(fields[0], 64)
		y, errY := strconv.ParseFloat(fields[1], 64)
		if errX != nil || errY != nil || !finite(x) || !finite(y) {
			continue
		}
		points = append(points, domain.Point{X: x, Y: y})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read measurement file: %w", err)
	}
	return points, nil
}

func isHeader(line string) bool {
	lower := strings.ToLower(line)
	for _, w := range headerWords {
		if strings.Contains(lower, w) {
			return true
		}
	}
	return false
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
