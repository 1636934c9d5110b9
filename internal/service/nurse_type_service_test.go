package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"shiftdesk/internal/model"
)

func newNurseTypeService(fx *fixture) *NurseTypeService {
	return NewNurseTypeService(fx.w.stores().NurseTypes, fx.tx, zap.NewNop())
}

func TestNurseTypeService_AddAndList(t *testing.T) {
	fx := newFixture()
	svc := newNurseTypeService(fx)
	ctx := context.Background()

	_, err := svc.Add(ctx, "   ")
	assert.ErrorIs(t, err, ErrInvalidInput)

	nt, err := svc.Add(ctx, "  LVN ")
	require.NoError(t, err)
	assert.Equal(t, "LVN", nt.NurseType)

	_, err = svc.Add(ctx, "CNA")
	require.NoError(t, err)

	list, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []model.NurseType{{ID: nt.ID, NurseType: "LVN"}, {ID: nt.ID + 1, NurseType: "CNA"}}, list)
}

func TestNurseTypeService_DeleteCascades(t *testing.T) {
	fx := newFixture()
	cna := fx.w.addType("CNA")
	fx.w.addType("RN")
	f := fx.w.addFacility("Sunrise", austinLat, austinLng)
	gone := fx.w.addNurse("Jane", "cna", "AM", "+15551111", nearLat, nearLng)
	kept := fx.w.addNurse("Kim", "RN", "AM", "+15552222", nearLat, nearLng)
	fx.w.addShift(f.ID, nil, "CNA", "AM", fx.day(1), nil)
	svc := newNurseTypeService(fx)

	require.NoError(t, svc.Delete(context.Background(), cna.ID))
	assert.Equal(t, 1, fx.tx.calls)
	assert.Len(t, fx.w.types, 1)
	assert.NotContains(t, fx.w.nurses, gone.ID)
	assert.Contains(t, fx.w.nurses, kept.ID)
	assert.Empty(t, fx.w.shifts)
}

func TestNurseTypeService_Rename(t *testing.T) {
	fx := newFixture()
	cna := fx.w.addType("CNA")
	n := fx.w.addNurse("Jane", "CNA", "AM", "+15551111", nearLat, nearLng)
	other := fx.w.addNurse("Kim", "CNA/LVN", "AM", "+15552222", nearLat, nearLng)
	svc := newNurseTypeService(fx)
	ctx := context.Background()

	assert.ErrorIs(t, svc.Rename(ctx, cna.ID, ""), ErrInvalidInput)
	assert.Zero(t, fx.tx.calls)

	require.NoError(t, svc.Rename(ctx, cna.ID, "Certified Nurse Aide"))
	assert.Equal(t, "Certified Nurse Aide", fx.w.types[cna.ID].NurseType)
	assert.Equal(t, "Certified Nurse Aide", fx.w.nurses[n.ID].NurseType)
	assert.Equal(t, "CNA/LVN", fx.w.nurses[other.ID].NurseType)
}

func TestNurseTypeService_MissingType(t *testing.T) {
	fx := newFixture()
	svc := newNurseTypeService(fx)
	ctx := context.Background()

	assert.ErrorIs(t, svc.Delete(ctx, 42), ErrNotFound)
	assert.ErrorIs(t, svc.Rename(ctx, 42, "RN"), ErrNotFound)
	assert.Equal(t, 2, fx.tx.calls)
}
