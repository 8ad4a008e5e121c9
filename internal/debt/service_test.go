package debt

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/cybercaja/cybercaja/internal/bizdate"
	"github.com/cybercaja/cybercaja/internal/shared"
)

type memoryDebtRepo struct {
	debts  map[int64]*Debt
	nextID int64
}

func newMemoryDebtRepo() *memoryDebtRepo {
	return &memoryDebtRepo{debts: make(map[int64]*Debt)}
}

func (r *memoryDebtRepo) Create(ctx context.Context, input CreateInput) (*Debt, error) {
	r.nextID++
	d := &Debt{
		ID:           r.nextID,
		CustomerName: input.CustomerName,
		Amount:       input.Amount,
		Date:         input.Date,
		Status:       StatusPending,
		CreatedBy:    input.CreatedBy,
		CreatedAt:    time.Now(),
	}
	r.debts[d.ID] = d
	return d, nil
}

func (r *memoryDebtRepo) Get(ctx context.Context, id int64) (*Debt, error) {
	d, ok := r.debts[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	copied := *d
	return &copied, nil
}

func (r *memoryDebtRepo) MarkPaid(ctx context.Context, id int64, method PaymentMethod, paymentDate bizdate.Date, paidAt time.Time) (*Debt, error) {
	d, ok := r.debts[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	// Conditional update: only a PENDING row matches.
	if d.Status != StatusPending {
		return nil, fmt.Errorf("%w: debt is %s", ErrInvalidTransition, d.Status)
	}
	d.Status = StatusPaid
	d.PaymentMethod = method
	d.PaymentDate = &paymentDate
	d.PaidAt = &paidAt
	copied := *d
	return &copied, nil
}

func (r *memoryDebtRepo) MarkCancelled(ctx context.Context, id int64, cancelledAt time.Time) (*Debt, error) {
	d, ok := r.debts[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	if d.Status != StatusPending {
		return nil, fmt.Errorf("%w: debt is %s", ErrInvalidTransition, d.Status)
	}
	d.Status = StatusCancelled
	d.CancelledAt = &cancelledAt
	copied := *d
	return &copied, nil
}

func (r *memoryDebtRepo) Query(ctx context.Context, filter QueryFilter) ([]Debt, int, error) {
	var out []Debt
	for _, d := range r.debts {
		if filter.Status != "" && d.Status != filter.Status {
			continue
		}
		out = append(out, *d)
	}
	return out, len(out), nil
}

func (r *memoryDebtRepo) PaidByCreationDateRange(ctx context.Context, start, end bizdate.Date) ([]Debt, error) {
	return nil, nil
}

func (r *memoryDebtRepo) PendingByCreationDateRange(ctx context.Context, start, end bizdate.Date) ([]Debt, error) {
	return nil, nil
}

type countingInvalidator struct{ bumps int }

func (c *countingInvalidator) Bump(ctx context.Context) error {
	c.bumps++
	return nil
}

type recordingWarmer struct{ months []string }

func (w *recordingWarmer) EnqueueMonthWarmup(ctx context.Context, year, month int) error {
	w.months = append(w.months, fmt.Sprintf("%04d-%02d", year, month))
	return nil
}

func fixedClock(iso string) Clock {
	t, err := time.Parse(time.RFC3339, iso)
	if err != nil {
		panic(err)
	}
	return func() time.Time { return t }
}

func newTestService(repo RepositoryPort) (*Service, *countingInvalidator, *recordingWarmer) {
	inv := &countingInvalidator{}
	warm := &recordingWarmer{}
	svc := NewService(repo, inv, warm, nil, nil, fixedClock("2024-05-20T20:00:00-05:00"))
	return svc, inv, warm
}

func TestCreateIssuesPendingDebt(t *testing.T) {
	svc, inv, _ := newTestService(newMemoryDebtRepo())
	d, err := svc.Create(context.Background(), CreateInput{
		CustomerName: "Luis",
		Amount:       12.5,
		Date:         bizdate.MustParse("2024-05-10"),
	})
	require.NoError(t, err)
	require.Equal(t, StatusPending, d.Status)
	require.Equal(t, 1, inv.bumps)
}

func TestCreateRejectsBlankNameNegativeAmountFutureDate(t *testing.T) {
	svc, _, _ := newTestService(newMemoryDebtRepo())
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateInput{CustomerName: "  ", Amount: 5, Date: bizdate.MustParse("2024-05-10")})
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.Create(ctx, CreateInput{CustomerName: "Luis", Amount: -1, Date: bizdate.MustParse("2024-05-10")})
	require.ErrorIs(t, err, shared.ErrValidation)

	future := bizdate.Today().Next()
	_, err = svc.Create(ctx, CreateInput{CustomerName: "Luis", Amount: 5, Date: future})
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestPaySetsPaymentFields(t *testing.T) {
	repo := newMemoryDebtRepo()
	svc, _, warm := newTestService(repo)
	ctx := context.Background()

	d, err := svc.Create(ctx, CreateInput{CustomerName: "Ana", Amount: 20, Date: bizdate.MustParse("2024-05-10")})
	require.NoError(t, err)

	paid, err := svc.Pay(ctx, d.ID, PayCash, bizdate.MustParse("2024-05-18"))
	require.NoError(t, err)
	require.Equal(t, StatusPaid, paid.Status)
	require.Equal(t, PayCash, paid.PaymentMethod)
	require.Equal(t, "2024-05-18", paid.PaymentDate.String())
	// paid_at pairs the payment business date with the current Lima
	// wall clock.
	require.Equal(t, 18, paid.PaidAt.Day())
	require.Equal(t, 20, paid.PaidAt.Hour())

	// One warmup from create, one from pay: creation and payment month
	// coincide here so the pay enqueues a single month.
	require.Equal(t, []string{"2024-05", "2024-05"}, warm.months)
}

func TestPayTwiceFailsWithoutClobbering(t *testing.T) {
	repo := newMemoryDebtRepo()
	svc, _, _ := newTestService(repo)
	ctx := context.Background()

	d, err := svc.Create(ctx, CreateInput{CustomerName: "Ana", Amount: 20, Date: bizdate.MustParse("2024-05-10")})
	require.NoError(t, err)

	first, err := svc.Pay(ctx, d.ID, PayCash, bizdate.MustParse("2024-05-15"))
	require.NoError(t, err)

	_, err = svc.Pay(ctx, d.ID, PayYape, bizdate.MustParse("2024-05-16"))
	require.ErrorIs(t, err, ErrInvalidTransition)

	// The winner's fields are untouched.
	after, err := repo.Get(ctx, d.ID)
	require.NoError(t, err)
	require.Equal(t, PayCash, after.PaymentMethod)
	require.Equal(t, first.PaymentDate.String(), after.PaymentDate.String())
	require.True(t, first.PaidAt.Equal(*after.PaidAt))
}

func TestPayBeforeCreationFailsConsistency(t *testing.T) {
	svc, _, _ := newTestService(newMemoryDebtRepo())
	ctx := context.Background()

	d, err := svc.Create(ctx, CreateInput{CustomerName: "Ana", Amount: 20, Date: bizdate.MustParse("2024-05-10")})
	require.NoError(t, err)

	_, err = svc.Pay(ctx, d.ID, PayCash, bizdate.MustParse("2024-05-05"))
	require.ErrorIs(t, err, ErrConsistency)
	// Both dates appear in the message for the operator.
	require.Contains(t, err.Error(), "05/05/2024")
	require.Contains(t, err.Error(), "10/05/2024")
}

func TestPayRejectsFutureAndUnknownMethod(t *testing.T) {
	svc, _, _ := newTestService(newMemoryDebtRepo())
	ctx := context.Background()

	d, err := svc.Create(ctx, CreateInput{CustomerName: "Ana", Amount: 20, Date: bizdate.Today()})
	require.NoError(t, err)

	_, err = svc.Pay(ctx, d.ID, PaymentMethod("CARD"), bizdate.Today())
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.Pay(ctx, d.ID, PayYape, bizdate.Today().Next())
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestCancelPendingThenNothingElse(t *testing.T) {
	svc, inv, _ := newTestService(newMemoryDebtRepo())
	ctx := context.Background()

	d, err := svc.Create(ctx, CreateInput{CustomerName: "Ana", Amount: 20, Date: bizdate.MustParse("2024-05-10")})
	require.NoError(t, err)

	cancelled, err := svc.Cancel(ctx, d.ID)
	require.NoError(t, err)
	require.Equal(t, StatusCancelled, cancelled.Status)
	require.NotNil(t, cancelled.CancelledAt)

	_, err = svc.Pay(ctx, d.ID, PayCash, bizdate.MustParse("2024-05-11"))
	require.ErrorIs(t, err, ErrInvalidTransition)

	_, err = svc.Cancel(ctx, d.ID)
	require.ErrorIs(t, err, ErrInvalidTransition)

	require.Equal(t, 2, inv.bumps) // create + cancel, not the failed attempts
}

func TestPayMissingDebt(t *testing.T) {
	svc, _, _ := newTestService(newMemoryDebtRepo())
	_, err := svc.Pay(context.Background(), 99, PayCash, bizdate.MustParse("2024-05-10"))
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestPayAcrossMonthsWarmsBoth(t *testing.T) {
	repo := newMemoryDebtRepo()
	svc, _, warm := newTestService(repo)
	ctx := context.Background()

	d, err := svc.Create(ctx, CreateInput{CustomerName: "Ana", Amount: 20, Date: bizdate.MustParse("2024-04-28")})
	require.NoError(t, err)
	warm.months = nil

	_, err = svc.Pay(ctx, d.ID, PayYape, bizdate.MustParse("2024-05-03"))
	require.NoError(t, err)
	require.Equal(t, []string{"2024-04", "2024-05"}, warm.months)
}
