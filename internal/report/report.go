// Package report assembles the cumulative-balance report shown to administrators.
package report

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/hongminglow/finance-api/internal/balance"
	"github.com/hongminglow/finance-api/internal/models"
	"github.com/hongminglow/finance-api/internal/storage"
)

// DateLayout is how movement dates are rendered in reports and CSV exports.
const DateLayout = "2006-01-02T15:04:05.000Z07:00"

// Chart describes the canvas the cumulative series is projected onto.
type Chart struct {
	Width   float64
	Height  float64
	Padding float64
}

// DefaultChart is the 800x200 canvas with 20px padding.
var DefaultChart = Chart{Width: 800, Height: 200, Padding: 20}

// Value is a float that encodes NaN and infinities as JSON null.
type Value float64

func (v Value) MarshalJSON() ([]byte, error) {
	f := float64(v)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return []byte("null"), nil
	}
	return json.Marshal(f)
}

// Point is one movement on the cumulative-balance series.
type Point struct {
	ID         int64               `json:"id"`
	Concept    string              `json:"concept"`
	Date       time.Time           `json:"date"`
	Type       models.MovementType `json:"type"`
	UserName   string              `json:"userName,omitempty"`
	Amount     Value               `json:"amount"`
	Cumulative Value               `json:"cumulative"`
	X          Value               `json:"x"`
	Y          Value               `json:"y"`
}

// Report is the assembled balance report.
type Report struct {
	Balance   Value      `json:"balance"`
	Valid     bool       `json:"valid"`
	Points    []Point    `json:"points"`
	Polyline  string     `json:"polyline"`
	FirstDate *time.Time `json:"firstDate,omitempty"`
	LastDate  *time.Time `json:"lastDate,omitempty"`
}

// Assemble builds the report from movements. The series is ordered by
// ascending date; movements sharing a date keep their input order.
func Assemble(movements []models.Movement, chart Chart) Report {
	sorted := make([]models.Movement, len(movements))
	copy(sorted, movements)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Date.Before(sorted[j].Date) })

	points := make([]Point, 0, len(sorted))
	cum := 0.0
	for _, m := range sorted {
		amt := m.Amount.Float()
		if m.Type == models.Income {
			cum += amt
		} else {
			cum -= amt
		}
		points = append(points, Point{
			ID:         m.ID,
			Concept:    m.Concept,
			Date:       m.Date,
			Type:       m.Type,
			UserName:   ownerName(m),
			Amount:     Value(amt),
			Cumulative: Value(cum),
		})
	}

	total := balance.ComputeBalance(Entries(movements))
	r := Report{
		Balance:  Value(total),
		Valid:    !math.IsNaN(total),
		Points:   points,
		Polyline: project(points, chart),
	}
	if len(points) > 0 {
		first, last := points[0].Date, points[len(points)-1].Date
		r.FirstDate, r.LastDate = &first, &last
	}
	return r
}

// project fills X and Y on every point and returns the "x,y x,y" polyline.
func project(points []Point, c Chart) string {
	if len(points) == 0 {
		return ""
	}
	lo, hi := 0.0, 0.0
	for _, p := range points {
		lo = math.Min(lo, float64(p.Cumulative))
		hi = math.Max(hi, float64(p.Cumulative))
	}
	span := hi - lo
	if span == 0 || math.IsNaN(span) {
		// NaN span mirrors `range || 1`.
		span = 1
	}
	steps := float64(len(points) - 1)
	if steps == 0 {
		steps = 1
	}

	coords := make([]string, len(points))
	for i := range points {
		x := c.Padding + (float64(i)/steps)*(c.Width-c.Padding*2)
		y := c.Padding + (1-(float64(points[i].Cumulative)-lo)/span)*(c.Height-c.Padding*2)
		points[i].X, points[i].Y = Value(x), Value(y)
		coords[i] = formatFloat(x) + "," + formatFloat(y)
	}
	return strings.Join(coords, " ")
}

// Entries converts movements into balance engine entries, preserving order.
func Entries(movements []models.Movement) []balance.Entry {
	entries := make([]balance.Entry, 0, len(movements))
	for _, m := range movements {
		entries = append(entries, balance.Entry{
			ID:       m.ID,
			Amount:   m.Amount,
			Type:     m.Type,
			Concept:  m.Concept,
			Date:     m.Date.UTC().Format(DateLayout),
			UserName: ownerName(m),
		})
	}
	return entries
}

func ownerName(m models.Movement) string {
	if m.User == nil {
		return ""
	}
	return m.User.Name
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// Service reads movements from the store and assembles reports.
type Service struct {
	movements storage.MovementStore
	chart     Chart
}

// NewService creates a report service over the movement store.
func NewService(movements storage.MovementStore) *Service {
	return &Service{movements: movements, chart: DefaultChart}
}

// Build fetches movements oldest first and assembles the report.
func (s *Service) Build(ctx context.Context) (Report, error) {
	movements, err := s.movements.ListMovements(ctx, storage.Ascending)
	if err != nil {
		return Report{}, fmt.Errorf("list movements for report: %w", err)
	}
	return Assemble(movements, s.chart), nil
}

// CSV renders the oldest-first movement list with balance.GenerateCSV.
func (s *Service) CSV(ctx context.Context) (string, error) {
	movements, err := s.movements.ListMovements(ctx, storage.Ascending)
	if err != nil {
		return "", fmt.Errorf("list movements for csv: %w", err)
	}
	return balance.GenerateCSV(Entries(movements)), nil
}
