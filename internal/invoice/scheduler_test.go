package invoice_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"github.com/MrJamesThe3rd/fleetspend/internal/invoice"
)

type accountsFunc func(ctx context.Context) ([]uuid.UUID, error)

func (f accountsFunc) ListActiveIDs(ctx context.Context) ([]uuid.UUID, error) { return f(ctx) }

func TestScheduler_RunOnce_BillsPreviousMonth(t *testing.T) {
	now := time.Date(2024, 4, 2, 9, 0, 0, 0, time.UTC)
	f := newFixture(t, now)

	empty := uuid.New()
	accounts := accountsFunc(func(context.Context) ([]uuid.UUID, error) {
		return []uuid.UUID{accountID, empty}, nil
	})

	f.repo.EXPECT().BeginGeneration(gomock.Any(), accountID, march).Return(f.gtx, nil)
	f.gtx.EXPECT().FindByPeriod(gomock.Any()).Return(&invoice.Invoice{ID: uuid.New()}, nil)

	emptyTx := invoice.NewMockGenerationTx(gomock.NewController(t))
	f.repo.EXPECT().BeginGeneration(gomock.Any(), empty, march).Return(emptyTx, nil)
	emptyTx.EXPECT().FindByPeriod(gomock.Any()).Return(nil, nil)
	emptyTx.EXPECT().ListBillable(gomock.Any()).Return(nil, nil)
	emptyTx.EXPECT().Rollback().Return(nil)
	f.gtx.EXPECT().Rollback().Return(nil)

	s := invoice.NewScheduler(accounts, f.svc, time.Hour, time.UTC)
	s.SetClock(func() time.Time { return now })

	assert.Equal(t, 1, s.RunOnce(context.Background()))
}

func TestScheduler_RunOnce_ListFailure(t *testing.T) {
	f := newFixture(t, time.Now())

	accounts := accountsFunc(func(context.Context) ([]uuid.UUID, error) {
		return nil, errors.New("db down")
	})

	assert.Equal(t, 0, invoice.NewScheduler(accounts, f.svc, time.Hour, time.UTC).RunOnce(context.Background()))
}

func TestScheduler_Run_StopsOnCancel(t *testing.T) {
	f := newFixture(t, time.Now())

	ctx, cancel := context.WithCancel(context.Background())
	accounts := accountsFunc(func(context.Context) ([]uuid.UUID, error) {
		cancel()
		return nil, nil
	})

	done := make(chan struct{})

	go func() {
		invoice.NewScheduler(accounts, f.svc, time.Hour, time.UTC).Run(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop")
	}
}
