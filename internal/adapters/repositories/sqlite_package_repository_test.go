package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"cafe-pickup-service/internal/domain"
	"cafe-pickup-service/internal/ports"
)

func testRepo(t *testing.T) *SqlitePackageRepository {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	// in-memory databases vanish if a second connection opens
	db.SetMaxOpenConns(1)

	require.NoError(t, InitSchema(db))
	return NewSqlitePackageRepository(db)
}

func fixture(i int) *domain.Package {
	now := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC).Add(time.Duration(i) * time.Minute)
	return &domain.Package{
		CustomerName:       fmt.Sprintf("Customer %d", i),
		CustomerEmail:      fmt.Sprintf("customer%d@example.com", i),
		TrackingNumber:     fmt.Sprintf("SF%04d", i),
		PickupCode:         fmt.Sprintf("%06d", i),
		Status:             domain.StatusWarehouseArrived,
		WarehouseArrivalAt: now,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
}

func TestCreateAndGet(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	pkg := fixture(1)
	pkg.Notes = "fragile"
	require.NoError(t, repo.Create(ctx, pkg))
	require.NotZero(t, pkg.ID)

	got, err := repo.GetByID(ctx, pkg.ID)
	require.NoError(t, err)

	assert.Equal(t, pkg.CustomerName, got.CustomerName)
	assert.Equal(t, pkg.TrackingNumber, got.TrackingNumber)
	assert.Equal(t, pkg.PickupCode, got.PickupCode)
	assert.Equal(t, domain.StatusWarehouseArrived, got.Status)
	assert.True(t, got.WarehouseArrivalAt.Equal(pkg.WarehouseArrivalAt))
	assert.Nil(t, got.CafeArrivalAt)
	assert.Nil(t, got.PickupAt)
	assert.False(t, got.WarehouseEmailSent)
	assert.Equal(t, "fragile", got.Notes)
}

func TestGetMissing(t *testing.T) {
	repo := testRepo(t)

	_, err := repo.GetByID(context.Background(), 42)
	assert.ErrorIs(t, err, ports.ErrNotFound)
}

func TestCreateDuplicateTrackingNumber(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, fixture(1)))

	dup := fixture(2)
	dup.TrackingNumber = "SF0001"
	assert.Error(t, repo.Create(ctx, dup))
}

func TestUpdateRoundTrip(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	pkg := fixture(1)
	require.NoError(t, repo.Create(ctx, pkg))

	now := time.Date(2026, 5, 2, 10, 0, 0, 0, time.UTC)
	pkg.ApplyStatus(domain.StatusCafeArrived, now)
	require.NoError(t, repo.Update(ctx, pkg))

	got, err := repo.GetByID(ctx, pkg.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCafeArrived, got.Status)
	require.NotNil(t, got.CafeArrivalAt)
	assert.True(t, got.CafeArrivalAt.Equal(now))
}

func TestUpdateMissing(t *testing.T) {
	repo := testRepo(t)

	pkg := fixture(1)
	pkg.ID = 42
	assert.ErrorIs(t, repo.Update(context.Background(), pkg), ports.ErrNotFound)
}

func TestDeleteFreesTrackingNumber(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	pkg := fixture(1)
	require.NoError(t, repo.Create(ctx, pkg))
	require.NoError(t, repo.Delete(ctx, pkg.ID))

	_, err := repo.GetByID(ctx, pkg.ID)
	assert.ErrorIs(t, err, ports.ErrNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, pkg.ID), ports.ErrNotFound)

	// the tracking number is reusable once the row is gone
	again := fixture(1)
	assert.NoError(t, repo.Create(ctx, again))
}

func TestDeleteWhere(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	picked := fixture(1)
	picked.ApplyStatus(domain.StatusPickedUp, time.Now().UTC())
	require.NoError(t, repo.Create(ctx, picked))
	require.NoError(t, repo.Create(ctx, fixture(2)))
	require.NoError(t, repo.Create(ctx, fixture(3)))

	n, err := repo.DeleteWhere(ctx, domain.StatusPickedUp)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	n, err = repo.DeleteWhere(ctx, "")
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
}

func TestListOrderingAndPagination(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	// 1 and 3 reach the cafe, 3 later than 1; 2 stays at the warehouse
	base := time.Date(2026, 5, 3, 9, 0, 0, 0, time.UTC)
	for i := 1; i <= 3; i++ {
		pkg := fixture(i)
		if i != 2 {
			pkg.ApplyStatus(domain.StatusCafeArrived, base.Add(time.Duration(i)*time.Hour))
		}
		require.NoError(t, repo.Create(ctx, pkg))
	}

	pkgs, total, err := repo.List(ctx, ports.ListQuery{Page: 1, PerPage: 10})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, pkgs, 3)
	assert.Equal(t, "SF0003", pkgs[0].TrackingNumber)
	assert.Equal(t, "SF0001", pkgs[1].TrackingNumber)
	assert.Equal(t, "SF0002", pkgs[2].TrackingNumber, "packages not yet at the cafe sort last")

	pkgs, total, err = repo.List(ctx, ports.ListQuery{Page: 2, PerPage: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, pkgs, 1)
	assert.Equal(t, "SF0002", pkgs[0].TrackingNumber)
}

func TestListFilters(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	arrived := fixture(1)
	arrived.ApplyStatus(domain.StatusCafeArrived, time.Now().UTC())
	require.NoError(t, repo.Create(ctx, arrived))

	other := fixture(2)
	other.CustomerName = "Amelie Laurent"
	require.NoError(t, repo.Create(ctx, other))

	pkgs, total, err := repo.List(ctx, ports.ListQuery{Status: domain.StatusCafeArrived})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, pkgs, 1)
	assert.Equal(t, "SF0001", pkgs[0].TrackingNumber)

	pkgs, total, err = repo.List(ctx, ports.ListQuery{Search: "amelie"})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, pkgs, 1)
	assert.Equal(t, "Amelie Laurent", pkgs[0].CustomerName)

	_, total, err = repo.List(ctx, ports.ListQuery{Search: "no-such-customer"})
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestListByIDs(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	first := fixture(1)
	second := fixture(2)
	require.NoError(t, repo.Create(ctx, first))
	require.NoError(t, repo.Create(ctx, second))

	pkgs, err := repo.ListByIDs(ctx, []int64{second.ID, 404})
	require.NoError(t, err)
	require.Len(t, pkgs, 1)
	assert.Equal(t, second.ID, pkgs[0].ID)

	pkgs, err = repo.ListByIDs(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, pkgs)
}

func TestListPendingEmail(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	pending := fixture(1)
	require.NoError(t, repo.Create(ctx, pending))

	alreadySent := fixture(2)
	alreadySent.WarehouseEmailSent = true
	require.NoError(t, repo.Create(ctx, alreadySent))

	atCafe := fixture(3)
	atCafe.ApplyStatus(domain.StatusCafeArrived, time.Now().UTC())
	require.NoError(t, repo.Create(ctx, atCafe))

	pkgs, err := repo.ListPendingEmail(ctx, domain.NotifyWarehouseArrival)
	require.NoError(t, err)
	require.Len(t, pkgs, 1)
	assert.Equal(t, pending.ID, pkgs[0].ID)

	pkgs, err = repo.ListPendingEmail(ctx, domain.NotifyCafeArrival)
	require.NoError(t, err)
	require.Len(t, pkgs, 1)
	assert.Equal(t, atCafe.ID, pkgs[0].ID)
}

func TestMarkEmailSent(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	pkg := fixture(1)
	require.NoError(t, repo.Create(ctx, pkg))

	at := time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC)
	require.NoError(t, repo.MarkEmailSent(ctx, pkg.ID, domain.NotifyWarehouseArrival, at))

	got, err := repo.GetByID(ctx, pkg.ID)
	require.NoError(t, err)
	assert.True(t, got.WarehouseEmailSent)
	assert.False(t, got.CafeEmailSent)
	assert.True(t, got.UpdatedAt.Equal(at))

	assert.ErrorIs(t, repo.MarkEmailSent(ctx, 404, domain.NotifyWarehouseArrival, at), ports.ErrNotFound)
}

func TestExistenceProbes(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, fixture(1)))

	ok, err := repo.TrackingNumberExists(ctx, "SF0001")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.TrackingNumberExists(ctx, "SF9999")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = repo.PickupCodeExists(ctx, "000001")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.PickupCodeExists(ctx, "999999")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStats(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	now := time.Date(2026, 5, 5, 15, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Create(ctx, fixture(1)))

	today := fixture(2)
	today.ApplyStatus(domain.StatusCafeArrived, now.Add(-time.Hour))
	require.NoError(t, repo.Create(ctx, today))

	yesterday := fixture(3)
	yesterday.ApplyStatus(domain.StatusCafeArrived, now.Add(-26*time.Hour))
	require.NoError(t, repo.Create(ctx, yesterday))

	done := fixture(4)
	done.ApplyStatus(domain.StatusPickedUp, now)
	require.NoError(t, repo.Create(ctx, done))

	st, err := repo.Stats(ctx, now)
	require.NoError(t, err)

	assert.Equal(t, 4, st.Total)
	assert.Equal(t, 1, st.WarehouseArrived)
	assert.Equal(t, 2, st.CafeArrived)
	assert.Equal(t, 1, st.PickedUp)
	assert.Equal(t, 1, st.TodayCafeArrived)
}

func TestCreateBatchRollsBackOnFailure(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	first := fixture(1)
	clash := fixture(2)
	clash.TrackingNumber = first.TrackingNumber

	err := repo.CreateBatch(ctx, []*domain.Package{first, clash})
	require.Error(t, err)

	pkgs, total, err := repo.List(ctx, ports.ListQuery{})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, pkgs)
}
