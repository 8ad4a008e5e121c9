package expense

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/cybercaja/cybercaja/internal/bizdate"
	"github.com/cybercaja/cybercaja/internal/shared"
)

type memoryExpenseRepo struct {
	expenses map[int64]*Expense
	nextID   int64
}

func newMemoryExpenseRepo() *memoryExpenseRepo {
	return &memoryExpenseRepo{expenses: make(map[int64]*Expense)}
}

func (r *memoryExpenseRepo) Create(ctx context.Context, input Input) (*Expense, error) {
	r.nextID++
	exp := &Expense{
		ID:          r.nextID,
		Category:    input.Category,
		Beneficiary: input.Beneficiary,
		Description: input.Description,
		Amount:      input.Amount,
		Date:        input.Date,
		CreatedBy:   input.CreatedBy,
		CreatedAt:   time.Now(),
	}
	r.expenses[exp.ID] = exp
	return exp, nil
}

func (r *memoryExpenseRepo) Delete(ctx context.Context, id int64) (*Expense, error) {
	exp, ok := r.expenses[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	delete(r.expenses, id)
	return exp, nil
}

func (r *memoryExpenseRepo) ByDate(ctx context.Context, date bizdate.Date) ([]Expense, error) {
	var out []Expense
	for _, e := range r.expenses {
		if e.Date.Equal(date) {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (r *memoryExpenseRepo) ByDateRange(ctx context.Context, start, end bizdate.Date) ([]Expense, error) {
	var out []Expense
	for _, e := range r.expenses {
		if !e.Date.Before(start) && !e.Date.After(end) {
			out = append(out, *e)
		}
	}
	return out, nil
}

type countingInvalidator struct{ bumps int }

func (c *countingInvalidator) Bump(ctx context.Context) error {
	c.bumps++
	return nil
}

func TestCreateValidExpense(t *testing.T) {
	inv := &countingInvalidator{}
	svc := NewService(newMemoryExpenseRepo(), inv, nil, nil, nil)

	exp, err := svc.Create(context.Background(), Input{
		Category:    CategoryOther,
		Description: "cable hdmi",
		Amount:      35,
		Date:        bizdate.MustParse("2024-05-10"),
	})
	require.NoError(t, err)
	require.NotZero(t, exp.ID)
	require.Equal(t, 1, inv.bumps)
}

func TestCreateStaffPaymentNeedsBeneficiary(t *testing.T) {
	svc := NewService(newMemoryExpenseRepo(), nil, nil, nil, nil)

	_, err := svc.Create(context.Background(), Input{
		Category: CategoryStaffPayment,
		Amount:   50,
		Date:     bizdate.MustParse("2024-05-10"),
	})
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.Create(context.Background(), Input{
		Category:    CategoryStaffPayment,
		Beneficiary: "Rosa",
		Amount:      50,
		Date:        bizdate.MustParse("2024-05-10"),
	})
	require.NoError(t, err)
}

func TestCreateRejectsBadInput(t *testing.T) {
	svc := NewService(newMemoryExpenseRepo(), nil, nil, nil, nil)
	ctx := context.Background()

	_, err := svc.Create(ctx, Input{Category: Category("FOOD"), Amount: 5, Date: bizdate.MustParse("2024-05-10")})
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.Create(ctx, Input{Category: CategoryOther, Amount: -5, Date: bizdate.MustParse("2024-05-10")})
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.Create(ctx, Input{Category: CategoryOther, Amount: 5, Date: bizdate.Today().Next()})
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestDeleteRemovesAndBumps(t *testing.T) {
	repo := newMemoryExpenseRepo()
	inv := &countingInvalidator{}
	svc := NewService(repo, inv, nil, nil, nil)
	ctx := context.Background()

	exp, err := svc.Create(ctx, Input{Category: CategoryOther, Amount: 5, Date: bizdate.MustParse("2024-05-10")})
	require.NoError(t, err)

	_, err = svc.Delete(ctx, exp.ID)
	require.NoError(t, err)
	require.Equal(t, 2, inv.bumps)

	_, err = svc.Delete(ctx, exp.ID)
	require.ErrorIs(t, err, shared.ErrNotFound)
}
