package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"shiftdesk/internal/geo"
)

func newNurseService(fx *fixture) *NurseService {
	return NewNurseService(fx.w.stores(), fx.matcher, fx.geocoder, fx.tx, zap.NewNop())
}

func TestNurseService_AddDuplicate(t *testing.T) {
	fx := newFixture()
	existing := fx.w.addNurse("Jane", "CNA", "AM", "+15551111", nearLat, nearLng)
	svc := newNurseService(fx)

	_, err := svc.Add(context.Background(), NurseInput{FirstName: "Other", Email: "JANE@example.com", Phone: "+15559999"})
	require.ErrorIs(t, err, ErrDuplicate)

	var dup *DuplicateNurseError
	require.True(t, errors.As(err, &dup))
	assert.Equal(t, existing.ID, dup.Nurse.ID)
}

func TestNurseService_AddGeocodes(t *testing.T) {
	fx := newFixture()
	fx.geocoder.points["Round Rock, TX"] = geo.Point{Lat: nearLat, Lng: nearLng}
	svc := newNurseService(fx)

	n, err := svc.Add(context.Background(), NurseInput{
		FirstName: "Jane", LastName: "Doe", Email: "jane@example.com", Phone: "+15551111",
		Position: "CNA", Shift: "AM", Location: "Round Rock, TX", TalentID: "42",
	})
	require.NoError(t, err)
	require.True(t, n.HasLocation())
	assert.Equal(t, "CNA", n.NurseType)
	assert.Equal(t, "42", n.TalentID)
}

func TestNurseService_EditRegeocodesWhenMoved(t *testing.T) {
	fx := newFixture()
	n := fx.w.addNurse("Jane", "CNA", "AM", "+15551111", nearLat, nearLng)
	n.Location = "Round Rock, TX"
	fx.geocoder.points["Dallas, TX"] = geo.Point{Lat: dallasLat, Lng: dallasLng}
	svc := newNurseService(fx)
	ctx := context.Background()

	in := NurseInput{FirstName: "Jane", LastName: "Doe", Email: n.Email, Phone: n.MobileNumber,
		Position: "RN", Shift: "PM", Location: "Round Rock, TX"}
	require.NoError(t, svc.Edit(ctx, n.ID, in))
	assert.Empty(t, fx.geocoder.queries)
	assert.Equal(t, "RN", fx.w.nurses[n.ID].NurseType)

	in.Location = "Dallas, TX"
	require.NoError(t, svc.Edit(ctx, n.ID, in))
	assert.InDelta(t, dallasLat, *fx.w.nurses[n.ID].Lat, 1e-9)
}

func TestNurseService_EditUnknownPlaceClearsLocation(t *testing.T) {
	fx := newFixture()
	f := fx.w.addFacility("Sunrise", austinLat, austinLng)
	n := fx.w.addNurse("Jane", "CNA", "AM", "+15551111", nearLat, nearLng)
	n.Location = "Round Rock, TX"
	svc := newNurseService(fx)
	ctx := context.Background()

	got, err := svc.Available(ctx, AvailabilityQuery{FacilityID: f.ID, NurseType: "CNA", Shift: "AM", Date: fx.day(1)})
	require.NoError(t, err)
	require.Len(t, got, 1)

	in := NurseInput{FirstName: "Jane", Email: n.Email, Phone: n.MobileNumber, Position: "CNA", Shift: "AM", Location: "Nowhere, ZZ"}
	require.NoError(t, svc.Edit(ctx, n.ID, in))
	assert.False(t, fx.w.nurses[n.ID].HasLocation())
	assert.Equal(t, "Nowhere, ZZ", fx.w.nurses[n.ID].Location)

	got, err = svc.Available(ctx, AvailabilityQuery{FacilityID: f.ID, NurseType: "CNA", Shift: "AM", Date: fx.day(1)})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestNurseService_GeocodesOutsideTransaction(t *testing.T) {
	fx := newFixture()
	fx.geocoder.points["Dallas, TX"] = geo.Point{Lat: dallasLat, Lng: dallasLng}
	n := fx.w.addNurse("Jane", "CNA", "AM", "+15551111", nearLat, nearLng)
	svc := newNurseService(fx)

	require.NoError(t, svc.Edit(context.Background(), n.ID, NurseInput{
		FirstName: "Jane", Email: n.Email, Phone: n.MobileNumber, Location: "Dallas, TX",
	}))
	assert.Equal(t, []string{"Dallas, TX"}, fx.geocoder.queries)
	assert.Equal(t, 1, fx.tx.calls)
	assert.Zero(t, fx.geocoder.inTx)
}

func TestNurseService_EditGeocoderDownLeavesRow(t *testing.T) {
	fx := newFixture()
	n := fx.w.addNurse("Jane", "CNA", "AM", "+15551111", nearLat, nearLng)
	fx.geocoder.err = errors.New("timeout")
	svc := newNurseService(fx)

	err := svc.Edit(context.Background(), n.ID, NurseInput{FirstName: "Renamed", Email: n.Email, Phone: n.MobileNumber, Location: "Dallas, TX"})
	assert.ErrorIs(t, err, ErrGeocodeFailed)
	assert.Equal(t, "Jane", fx.w.nurses[n.ID].FirstName)
	assert.Zero(t, fx.tx.calls)
}

func TestNurseService_EditOwnContactIsNotConflict(t *testing.T) {
	fx := newFixture()
	n := fx.w.addNurse("Jane", "CNA", "AM", "+15551111", nearLat, nearLng)
	other := fx.w.addNurse("Kim", "CNA", "AM", "+15552222", nearLat, nearLng)
	svc := newNurseService(fx)
	ctx := context.Background()

	require.NoError(t, svc.Edit(ctx, n.ID, NurseInput{FirstName: "Jane", Email: n.Email, Phone: n.MobileNumber}))

	err := svc.Edit(ctx, n.ID, NurseInput{FirstName: "Jane", Email: n.Email, Phone: other.MobileNumber})
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestNurseService_GetMissingIsNil(t *testing.T) {
	fx := newFixture()
	n, err := newNurseService(fx).Get(context.Background(), 7)
	require.NoError(t, err)
	assert.Nil(t, n)
}

func TestNurseService_Available(t *testing.T) {
	fx := newFixture()
	f := fx.w.addFacility("Sunrise", austinLat, austinLng)
	near := fx.w.addNurse("Near", "CNA", "AM", "+15551111", nearLat, nearLng)
	fx.w.addNurse("Far", "CNA", "AM", "+15552222", dallasLat, dallasLng)
	busy := fx.w.addNurse("Busy", "CNA", "AM", "+15553333", nearLat, nearLng)
	fx.w.addNurse("Night", "CNA", "NOC", "+15554444", nearLat, nearLng)
	date := fx.day(3)
	fx.w.addShift(f.ID, nil, "RN", "PM", date, &busy.ID)

	got, err := newNurseService(fx).Available(context.Background(), AvailabilityQuery{
		FacilityID: f.ID, NurseType: "cna", Shift: "am", Date: date,
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, near.ID, got[0].ID)
}

func TestNurseService_AvailableWithoutFacilityLocation(t *testing.T) {
	fx := newFixture()
	f := fx.w.addFacility("Sunrise", 0, 0)
	f.Lat, f.Lng = nil, nil

	_, err := newNurseService(fx).Available(context.Background(), AvailabilityQuery{FacilityID: f.ID, NurseType: "CNA", Shift: "AM"})
	assert.ErrorIs(t, err, ErrLocationIncomplete)

	_, err = newNurseService(fx).Available(context.Background(), AvailabilityQuery{FacilityID: 404})
	assert.ErrorIs(t, err, ErrNotFound)
}
