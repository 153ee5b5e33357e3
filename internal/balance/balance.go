// Package balance computes signed totals over movements and renders them as CSV.
//
// Amounts are coerced with ToNumber, which never fails: input that is not a
// number yields NaN, and NaN propagates through ComputeBalance. Callers that
// need a usable figure must check math.IsNaN on the result.
package balance

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/hongminglow/finance-api/internal/models"
)

// Entry is the minimal movement shape the engine works on. Amount may be any
// Go numeric type, a string, or a models.Amount.
type Entry struct {
	ID       int64
	Amount   any
	Type     models.MovementType
	Concept  string
	Date     string
	UserName string
}

// ToNumber coerces v to a float64. Numbers pass through, strings are parsed
// as decimals (blank is 0), and everything else is NaN.
func ToNumber(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int32:
		return float64(n)
	case int64:
		return float64(n)
	case uint:
		return float64(n)
	case uint32:
		return float64(n)
	case uint64:
		return float64(n)
	case string:
		return models.StringAmount(n).Float()
	case models.Amount:
		return n.Float()
	default:
		return math.NaN()
	}
}

// ComputeBalance adds INCOME amounts and subtracts EXPENSE amounts, starting
// from 0. Entries of any other type leave the total unchanged.
func ComputeBalance(entries []Entry) float64 {
	total := 0.0
	for _, e := range entries {
		switch e.Type {
		case models.Income:
			total += ToNumber(e.Amount)
		case models.Expense:
			total -= ToNumber(e.Amount)
		}
	}
	return total
}

// Header is the first CSV line.
const Header = "id,concept,amount,type,date,user"

// GenerateCSV renders entries in the given order. Concept and user are always
// quoted; the remaining columns are written verbatim. No trailing newline.
func GenerateCSV(entries []Entry) string {
	var b strings.Builder
	b.WriteString(Header)
	for _, e := range entries {
		b.WriteByte('\n')
		b.WriteString(strconv.FormatInt(e.ID, 10))
		b.WriteByte(',')
		b.WriteString(quote(e.Concept))
		b.WriteByte(',')
		b.WriteString(formatAmount(e.Amount))
		b.WriteByte(',')
		b.WriteString(string(e.Type))
		b.WriteByte(',')
		b.WriteString(e.Date)
		b.WriteByte(',')
		b.WriteString(quote(e.UserName))
	}
	return b.String()
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func formatAmount(v any) string {
	switch n := v.(type) {
	case nil:
		return ""
	case string:
		return n
	case models.Amount:
		return n.String()
	case float64:
		return strconv.FormatFloat(n, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(n), 'f', -1, 32)
	default:
		return fmt.Sprint(n)
	}
}
