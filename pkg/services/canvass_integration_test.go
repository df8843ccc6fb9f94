//go:build integration

package services

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/canvass-hq/canvass-engine/pkg/apperrors"
	"github.com/canvass-hq/canvass-engine/pkg/config"
	"github.com/canvass-hq/canvass-engine/pkg/models"
	"github.com/canvass-hq/canvass-engine/pkg/repositories"
	"github.com/canvass-hq/canvass-engine/pkg/testhelpers"
)

type integrationEnv struct {
	canvass  CanvassService
	location LocationService
	loc      *models.Location
}

func newIntegrationEnv(t *testing.T) *integrationEnv {
	t.Helper()
	tdb := testhelpers.GetTestDB(t)

	doorRepo := repositories.NewDoorStatusRepository(tdb.DB)
	locRepo := repositories.NewLocationRepository(tdb.DB)
	leadRepo := repositories.NewLeadRepository(tdb.DB)

	cfg := config.CanvassConfig{
		DoorEventsPageSize:   300,
		LeadsPageSize:        200,
		RecentLocationsLimit: 20,
		TxMaxRetries:         5,
	}

	canvass := NewCanvassService(tdb.DB, doorRepo, locRepo, leadRepo, cfg, zap.NewNop())
	location := NewLocationService(locRepo, cfg.RecentLocationsLimit, zap.NewNop())

	loc, err := location.Create(context.Background(),
		fmt.Sprintf("Teststrasse %s", uuid.New().String()[:8]))
	require.NoError(t, err)

	return &integrationEnv{canvass: canvass, location: location, loc: loc}
}

func door(env *integrationEnv, tuere string) models.DoorKey {
	return models.DoorKey{LocationID: env.loc.ID, Stiege: "1", Stockwerk: "2", Tuere: tuere}
}

// Full canvassing pass on one door: repeated knocks, the resident opens,
// first rejects, then converts to a lead.
func TestCanvassWorkflow_FullDoorLifecycle(t *testing.T) {
	env := newIntegrationEnv(t)
	ctx := context.Background()
	key := door(env, "5")

	loc, err := env.canvass.Knock(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, 1, loc.DoorCount)
	assert.Zero(t, loc.DoorsOpened)

	// Nobody home, come back later
	loc, err = env.canvass.Knock(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, 2, loc.DoorCount)

	loc, err = env.canvass.AdvanceStatus(ctx, key, models.StatusOpened)
	require.NoError(t, err)
	assert.Equal(t, 1, loc.DoorsOpened)

	loc, err = env.canvass.AdvanceStatus(ctx, key, models.StatusRejection)
	require.NoError(t, err)
	assert.Equal(t, 1, loc.Rejections)
	assert.Equal(t, 1, loc.DoorsOpened)

	// Changed their mind: rejection converts to lead, counters swap
	lead, loc, err := env.canvass.RecordLead(ctx, key, "Anna", nil)
	require.NoError(t, err)
	assert.Equal(t, "Anna", lead.FirstName)
	assert.Equal(t, 1, loc.Leads)
	assert.Zero(t, loc.Rejections)
	assert.Equal(t, 1, loc.DoorsOpened)
	assert.Equal(t, 2, loc.DoorCount)

	// A repeat conversion on the same door is rejected without unwinding
	_, _, err = env.canvass.RecordLead(ctx, key, "Bernd", nil)
	assert.ErrorIs(t, err, apperrors.ErrDuplicateLead)

	final, err := env.location.Get(ctx, env.loc.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, final.Leads)
	assert.Zero(t, final.Rejections)
}

func TestCanvassWorkflow_SkippedStatusJump(t *testing.T) {
	env := newIntegrationEnv(t)
	ctx := context.Background()
	key := door(env, "6")

	// Straight from untouched to lead: opening is implied
	loc, err := env.canvass.AdvanceStatus(ctx, key, models.StatusLead)
	require.NoError(t, err)
	assert.Equal(t, 1, loc.DoorsOpened)
	assert.Equal(t, 1, loc.Leads)
}

func TestCanvassWorkflow_DowngradeIgnored(t *testing.T) {
	env := newIntegrationEnv(t)
	ctx := context.Background()
	key := door(env, "7")

	_, err := env.canvass.AdvanceStatus(ctx, key, models.StatusLead)
	require.NoError(t, err)

	loc, err := env.canvass.AdvanceStatus(ctx, key, models.StatusOpened)
	require.NoError(t, err)
	assert.Equal(t, 1, loc.Leads, "downgrade must not change counters")
	assert.Equal(t, 1, loc.DoorsOpened)

	events, err := env.canvass.ListDoorEvents(ctx, &env.loc.ID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, models.StatusLead, events[0].Status, "downgrade must not change the door")
}

func TestCanvassWorkflow_ConcurrentKnocks(t *testing.T) {
	env := newIntegrationEnv(t)
	ctx := context.Background()
	key := door(env, "8")

	const workers = 10
	var wg sync.WaitGroup
	errs := make(chan error, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.canvass.Knock(ctx, key)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}

	loc, err := env.location.Get(ctx, env.loc.ID)
	require.NoError(t, err)
	assert.Equal(t, workers, loc.DoorCount, "every knock must count exactly once")

	events, err := env.canvass.ListDoorEvents(ctx, &env.loc.ID)
	require.NoError(t, err)
	assert.Len(t, events, 1, "concurrent knocks must initialize a single door record")
	assert.Equal(t, models.StatusNotOpened, events[0].Status)
}

func TestCanvassWorkflow_ConcurrentAdvancesConverge(t *testing.T) {
	env := newIntegrationEnv(t)
	ctx := context.Background()
	key := door(env, "9")

	// Racing rejection and lead advances: whoever lands second is either a
	// no-op downgrade peer or a lateral swap, so the terminal counters must
	// sum to exactly one converted door.
	const workers = 8
	targets := []models.DoorStatusValue{models.StatusOpened, models.StatusRejection, models.StatusLead}
	var wg sync.WaitGroup
	errs := make(chan error, workers)

	for i := 0; i < workers; i++ {
		target := targets[i%len(targets)]
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.canvass.AdvanceStatus(ctx, key, target)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}

	loc, err := env.location.Get(ctx, env.loc.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, loc.DoorsOpened)
	assert.Equal(t, 1, loc.Leads+loc.Rejections, "exactly one terminal outcome per door")
}

func TestCanvassWorkflow_LeadListing(t *testing.T) {
	env := newIntegrationEnv(t)
	ctx := context.Background()

	last := "Muster"
	_, _, err := env.canvass.RecordLead(ctx, door(env, "10"), "Anna", &last)
	require.NoError(t, err)
	_, _, err = env.canvass.RecordLead(ctx, door(env, "11"), "Bernd", nil)
	require.NoError(t, err)

	leads, err := env.canvass.ListLeads(ctx, &env.loc.ID)
	require.NoError(t, err)
	require.Len(t, leads, 2)
	// Newest first
	assert.Equal(t, "Bernd", leads[0].FirstName)
	assert.Equal(t, env.loc.Address, leads[0].Address)
	require.NotNil(t, leads[1].LastName)
	assert.Equal(t, "Muster", *leads[1].LastName)
}
