package dailylog

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/cybercaja/cybercaja/internal/bizdate"
	"github.com/cybercaja/cybercaja/internal/shared"
)

type memoryLogRepo struct {
	logs   []Log
	nextID int64
}

func (r *memoryLogRepo) Create(ctx context.Context, input Input) (*Log, error) {
	r.nextID++
	log := Log{
		ID:               r.nextID,
		Date:             input.Date,
		CashIncome:       input.CashIncome,
		YapeIncome:       input.YapeIncome,
		NightShiftIncome: input.NightShiftIncome,
		ShortageAmount:   input.ShortageAmount,
		TotalRegister:    input.TotalRegister,
		Notes:            input.Notes,
		CreatedBy:        input.CreatedBy,
		CreatedAt:        time.Now(),
	}
	r.logs = append(r.logs, log)
	return &log, nil
}

func (r *memoryLogRepo) ByDate(ctx context.Context, date bizdate.Date) ([]Log, error) {
	var out []Log
	for _, l := range r.logs {
		if l.Date.Equal(date) {
			out = append(out, l)
		}
	}
	return out, nil
}

func (r *memoryLogRepo) ByDateRange(ctx context.Context, start, end bizdate.Date) ([]Log, error) {
	var out []Log
	for _, l := range r.logs {
		if !l.Date.Before(start) && !l.Date.After(end) {
			out = append(out, l)
		}
	}
	return out, nil
}

type countingInvalidator struct{ bumps int }

func (c *countingInvalidator) Bump(ctx context.Context) error {
	c.bumps++
	return nil
}

func TestCreateAppendsAndBumpsCache(t *testing.T) {
	repo := &memoryLogRepo{}
	inv := &countingInvalidator{}
	svc := NewService(repo, inv, nil, nil, nil)
	ctx := context.Background()

	date := bizdate.MustParse("2024-05-10")
	first, err := svc.Create(ctx, Input{Date: date, CashIncome: 100, TotalRegister: 120})
	require.NoError(t, err)
	require.NotZero(t, first.ID)

	// Append-only: a second closing on the same date coexists.
	_, err = svc.Create(ctx, Input{Date: date, CashIncome: 40})
	require.NoError(t, err)

	logs, err := svc.ByDate(ctx, date)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	require.Equal(t, 2, inv.bumps)
}

func TestCreateRejectsNegativeAmounts(t *testing.T) {
	svc := NewService(&memoryLogRepo{}, nil, nil, nil, nil)
	_, err := svc.Create(context.Background(), Input{
		Date:       bizdate.MustParse("2024-05-10"),
		CashIncome: -10,
	})
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestCreateRejectsFutureDate(t *testing.T) {
	svc := NewService(&memoryLogRepo{}, nil, nil, nil, nil)
	_, err := svc.Create(context.Background(), Input{Date: bizdate.Today().Next()})
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestCreateRejectsMissingDate(t *testing.T) {
	svc := NewService(&memoryLogRepo{}, nil, nil, nil, nil)
	_, err := svc.Create(context.Background(), Input{CashIncome: 10})
	require.ErrorIs(t, err, shared.ErrValidation)
}
