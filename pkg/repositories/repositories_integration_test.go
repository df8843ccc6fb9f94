//go:build integration

package repositories

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/canvass-hq/canvass-engine/pkg/apperrors"
	"github.com/canvass-hq/canvass-engine/pkg/models"
	"github.com/canvass-hq/canvass-engine/pkg/testhelpers"
)

// uniqueAddress returns a collision-free address for the shared test database.
func uniqueAddress(prefix string) string {
	return fmt.Sprintf("%s %s", prefix, uuid.New().String()[:8])
}

func TestLocationRepository_CreateAndGet(t *testing.T) {
	tdb := testhelpers.GetTestDB(t)
	repo := NewLocationRepository(tdb.DB)
	ctx := context.Background()

	addr := uniqueAddress("Hauptstrasse")
	loc, err := repo.Create(ctx, addr)
	require.NoError(t, err)
	assert.Positive(t, loc.ID)
	assert.NotEqual(t, uuid.Nil, loc.UUID)
	assert.Equal(t, addr, loc.Address)
	assert.Zero(t, loc.DoorCount)

	got, err := repo.Get(ctx, loc.ID)
	require.NoError(t, err)
	assert.Equal(t, loc.ID, got.ID)
	assert.Equal(t, addr, got.Address)
}

func TestLocationRepository_DuplicateAddress(t *testing.T) {
	tdb := testhelpers.GetTestDB(t)
	repo := NewLocationRepository(tdb.DB)
	ctx := context.Background()

	addr := uniqueAddress("Ringstrasse")
	_, err := repo.Create(ctx, addr)
	require.NoError(t, err)

	_, err = repo.Create(ctx, addr)
	assert.ErrorIs(t, err, apperrors.ErrAddressExists)
}

func TestLocationRepository_GetNotFound(t *testing.T) {
	tdb := testhelpers.GetTestDB(t)
	repo := NewLocationRepository(tdb.DB)

	_, err := repo.Get(context.Background(), 999999999)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestLocationRepository_ApplyDeltaClampsAtZero(t *testing.T) {
	tdb := testhelpers.GetTestDB(t)
	repo := NewLocationRepository(tdb.DB)
	ctx := context.Background()

	loc, err := repo.Create(ctx, uniqueAddress("Gasse"))
	require.NoError(t, err)

	// A decrement below zero must clamp, not error
	got, err := repo.ApplyDelta(ctx, loc.ID, models.AggregateDelta{Leads: -5, DoorsOpened: 1})
	require.NoError(t, err)
	assert.Zero(t, got.Leads)
	assert.Equal(t, 1, got.DoorsOpened)
}

func TestLocationRepository_IncrementKnockCount(t *testing.T) {
	tdb := testhelpers.GetTestDB(t)
	repo := NewLocationRepository(tdb.DB)
	ctx := context.Background()

	loc, err := repo.Create(ctx, uniqueAddress("Allee"))
	require.NoError(t, err)

	for i := 1; i <= 3; i++ {
		got, err := repo.IncrementKnockCount(ctx, loc.ID)
		require.NoError(t, err)
		assert.Equal(t, i, got.DoorCount)
	}
}

func TestLocationRepository_AdjustCounters(t *testing.T) {
	tdb := testhelpers.GetTestDB(t)
	repo := NewLocationRepository(tdb.DB)
	ctx := context.Background()

	loc, err := repo.Create(ctx, uniqueAddress("Platz"))
	require.NoError(t, err)

	got, err := repo.AdjustCounters(ctx, loc.ID, []models.CounterOp{
		{Field: models.FieldDoorCount, Delta: 10},
		{Field: models.FieldLeads, Delta: 2},
		{Field: models.FieldLeads, Delta: -5}, // accumulates to -3, clamps to 0
	})
	require.NoError(t, err)
	assert.Equal(t, 10, got.DoorCount)
	assert.Zero(t, got.Leads)
}

func TestDoorStatusRepository_GetOrInit(t *testing.T) {
	tdb := testhelpers.GetTestDB(t)
	locRepo := NewLocationRepository(tdb.DB)
	doorRepo := NewDoorStatusRepository(tdb.DB)
	ctx := context.Background()

	loc, err := locRepo.Create(ctx, uniqueAddress("Weg"))
	require.NoError(t, err)

	key := models.DoorKey{LocationID: loc.ID, Stiege: "A", Stockwerk: "1", Tuere: "1"}

	err = tdb.DB.InTx(ctx, func(ctx context.Context) error {
		status, created, err := doorRepo.GetOrInitForUpdate(ctx, key)
		require.NoError(t, err)
		assert.True(t, created)
		assert.Equal(t, models.StatusNotOpened, status)
		return nil
	})
	require.NoError(t, err)

	// Second call finds the existing row
	err = tdb.DB.InTx(ctx, func(ctx context.Context) error {
		status, created, err := doorRepo.GetOrInitForUpdate(ctx, key)
		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, models.StatusNotOpened, status)
		return nil
	})
	require.NoError(t, err)
}

func TestDoorStatusRepository_UnknownLocation(t *testing.T) {
	tdb := testhelpers.GetTestDB(t)
	doorRepo := NewDoorStatusRepository(tdb.DB)
	ctx := context.Background()

	key := models.DoorKey{LocationID: 999999999, Stiege: "A", Stockwerk: "1", Tuere: "1"}
	err := tdb.DB.InTx(ctx, func(ctx context.Context) error {
		_, _, err := doorRepo.GetOrInitForUpdate(ctx, key)
		return err
	})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestDoorStatusRepository_SetStatusAndList(t *testing.T) {
	tdb := testhelpers.GetTestDB(t)
	locRepo := NewLocationRepository(tdb.DB)
	doorRepo := NewDoorStatusRepository(tdb.DB)
	ctx := context.Background()

	loc, err := locRepo.Create(ctx, uniqueAddress("Hof"))
	require.NoError(t, err)

	for i, status := range []models.DoorStatusValue{models.StatusOpened, models.StatusLead, models.StatusRejection} {
		key := models.DoorKey{LocationID: loc.ID, Stiege: "B", Stockwerk: "1", Tuere: fmt.Sprint(i + 1)}
		err := tdb.DB.InTx(ctx, func(ctx context.Context) error {
			if _, _, err := doorRepo.GetOrInitForUpdate(ctx, key); err != nil {
				return err
			}
			return doorRepo.SetStatus(ctx, key, status)
		})
		require.NoError(t, err)
	}

	events, err := doorRepo.ListEvents(ctx, &loc.ID, 10)
	require.NoError(t, err)
	require.Len(t, events, 3)
	// Most recently updated first
	assert.Equal(t, models.StatusRejection, events[0].Status)
	assert.Equal(t, loc.Address, events[0].Address)

	limited, err := doorRepo.ListEvents(ctx, &loc.ID, 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestLeadRepository_InsertAndDuplicate(t *testing.T) {
	tdb := testhelpers.GetTestDB(t)
	locRepo := NewLocationRepository(tdb.DB)
	leadRepo := NewLeadRepository(tdb.DB)
	ctx := context.Background()

	loc, err := locRepo.Create(ctx, uniqueAddress("Markt"))
	require.NoError(t, err)

	lead := &models.Lead{
		LocationID: loc.ID,
		Stiege:     "A",
		Stockwerk:  "3",
		Tuere:      "12",
		FirstName:  "Anna",
	}
	require.NoError(t, leadRepo.Insert(ctx, lead))
	assert.Positive(t, lead.ID)
	assert.NotEqual(t, uuid.Nil, lead.LeadUUID)

	dup := &models.Lead{
		LocationID: loc.ID,
		Stiege:     "A",
		Stockwerk:  "3",
		Tuere:      "12",
		FirstName:  "Bernd",
	}
	err = leadRepo.Insert(ctx, dup)
	assert.True(t, errors.Is(err, apperrors.ErrDuplicateLead), "expected ErrDuplicateLead, got %v", err)

	leads, err := leadRepo.List(ctx, &loc.ID, 10)
	require.NoError(t, err)
	require.Len(t, leads, 1)
	assert.Equal(t, "Anna", leads[0].FirstName)
	assert.Equal(t, loc.Address, leads[0].Address)
}
