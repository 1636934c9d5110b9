package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestCoordinatorService(t *testing.T) {
	fx := newFixture()
	f := fx.w.addFacility("Sunrise", austinLat, austinLng)
	other := fx.w.addFacility("Lakeside", austinLat, austinLng)
	ana := fx.w.addCoordinator(f.ID, "Ana", "+15550001", "ana@sunrise.test")
	bo := fx.w.addCoordinator(f.ID, "Bo", "+15550002", "bo@sunrise.test")
	fx.w.addCoordinator(other.ID, "Cy", "+15550003", "cy@lakeside.test")
	svc := NewCoordinatorService(fx.w.stores().Coordinators, zap.NewNop())
	ctx := context.Background()

	list, err := svc.ListByFacility(ctx, f.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, ana.ID, list[0].ID)
	assert.Equal(t, bo.ID, list[1].ID)

	c, err := svc.Get(ctx, bo.ID)
	require.NoError(t, err)
	assert.Equal(t, "Bo", c.FirstName)

	require.NoError(t, svc.Delete(ctx, bo.ID))
	_, err = svc.Get(ctx, bo.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, bo.ID), ErrNotFound)

	list, err = svc.ListByFacility(ctx, f.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
