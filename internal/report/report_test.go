package report

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hongminglow/finance-api/internal/models"
	"github.com/hongminglow/finance-api/internal/storage"
)

func day(n int) time.Time {
	return time.Date(2026, 1, n, 0, 0, 0, 0, time.UTC)
}

func sample() []models.Movement {
	owner := &models.UserRef{ID: "u1", Name: "Ana"}
	return []models.Movement{
		{ID: 1, Amount: models.StringAmount("100"), Concept: "Salary", Date: day(1), Type: models.Income, UserID: "u1", User: owner},
		{ID: 2, Amount: models.NumberAmount(30), Concept: "Rent", Date: day(2), Type: models.Expense, UserID: "u1", User: owner},
		{ID: 3, Amount: models.StringAmount("20.5"), Concept: "Food", Date: day(3), Type: models.Expense, UserID: "u1", User: owner},
	}
}

func TestAssembleCumulativeSeries(t *testing.T) {
	r := Assemble(sample(), DefaultChart)

	require.Len(t, r.Points, 3)
	assert.InDelta(t, 100, float64(r.Points[0].Cumulative), 1e-9)
	assert.InDelta(t, 70, float64(r.Points[1].Cumulative), 1e-9)
	assert.InDelta(t, 49.5, float64(r.Points[2].Cumulative), 1e-9)
	assert.InDelta(t, 49.5, float64(r.Balance), 1e-9)
	assert.True(t, r.Valid)

	// min 0, max 100: first point sits at the top edge, x spans the padded width.
	assert.Equal(t, Value(20), r.Points[0].X)
	assert.Equal(t, Value(20), r.Points[0].Y)
	assert.Equal(t, Value(400), r.Points[1].X)
	assert.Equal(t, Value(780), r.Points[2].X)
	assert.True(t, strings.HasPrefix(r.Polyline, "20,20 400,"))
	assert.Equal(t, day(1), *r.FirstDate)
	assert.Equal(t, day(3), *r.LastDate)
}

func TestAssembleSortsByDate(t *testing.T) {
	m := sample()
	shuffled := []models.Movement{m[2], m[0], m[1]}
	r := Assemble(shuffled, DefaultChart)

	ids := []int64{r.Points[0].ID, r.Points[1].ID, r.Points[2].ID}
	assert.Equal(t, []int64{1, 2, 3}, ids)
	assert.InDelta(t, 49.5, float64(r.Balance), 1e-9)
}

func TestAssembleSinglePointAndEmpty(t *testing.T) {
	empty := Assemble(nil, DefaultChart)
	assert.Empty(t, empty.Points)
	assert.Equal(t, "", empty.Polyline)
	assert.Equal(t, Value(0), empty.Balance)
	assert.Nil(t, empty.FirstDate)

	one := Assemble(sample()[:1], DefaultChart)
	require.Len(t, one.Points, 1)
	assert.Equal(t, "20,20", one.Polyline)
}

func TestAssembleNaNEncodesAsNull(t *testing.T) {
	bad := sample()
	bad[1].Amount = models.StringAmount("oops")
	r := Assemble(bad, DefaultChart)
	assert.False(t, r.Valid)

	raw, err := json.Marshal(r)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"balance":null`)
	assert.Contains(t, string(raw), `"valid":false`)
}

type listStub struct {
	storage.MovementStore
	order storage.SortOrder
	items []models.Movement
	err   error
}

func (s *listStub) ListMovements(_ context.Context, order storage.SortOrder) ([]models.Movement, error) {
	s.order = order
	return s.items, s.err
}

func TestServiceBuildAndCSV(t *testing.T) {
	stub := &listStub{items: sample()}
	svc := NewService(stub)

	r, err := svc.Build(context.Background())
	require.NoError(t, err)
	assert.Equal(t, storage.Ascending, stub.order)
	assert.Len(t, r.Points, 3)

	csv, err := svc.CSV(context.Background())
	require.NoError(t, err)
	lines := strings.Split(csv, "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, `1,"Salary",100,INCOME,2026-01-01T00:00:00.000Z,"Ana"`, lines[1])
	assert.Equal(t, `2,"Rent",30,EXPENSE,2026-01-02T00:00:00.000Z,"Ana"`, lines[2])
}

func TestServicePropagatesStoreError(t *testing.T) {
	boom := errors.New("db down")
	svc := NewService(&listStub{err: boom})

	_, err := svc.Build(context.Background())
	assert.ErrorIs(t, err, boom)
	_, err = svc.CSV(context.Background())
	assert.ErrorIs(t, err, boom)
}
