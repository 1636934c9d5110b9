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

func newFacilityService(fx *fixture) *FacilityService {
	return NewFacilityService(fx.w.stores(), fx.geocoder, fx.tx, zap.NewNop())
}

func TestTemplateInput_Hours(t *testing.T) {
	in := TemplateInput{AMTimeStart: "07:00", AMTimeEnd: "15:30", AMMealStart: "12:00", AMMealEnd: "12:30"}
	h, err := in.Hours()
	require.NoError(t, err)
	assert.Equal(t, 8.0, h)

	h, err = TemplateInput{}.Hours()
	require.NoError(t, err)
	assert.Zero(t, h)

	_, err = TemplateInput{AMTimeStart: "7am"}.Hours()
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestFacilityService_AddGeocodesAndSavesChildren(t *testing.T) {
	fx := newFixture()
	fx.geocoder.points["Austin, TX 78701"] = geo.Point{Lat: austinLat, Lng: austinLng}
	svc := newFacilityService(fx)

	f, err := svc.Add(context.Background(), FacilityInput{
		Name:         "Sunrise Care",
		CityStateZip: "Austin, TX 78701",
		Nurses: []TemplateInput{
			{NurseType: "CNA", Rate: 30, AMTimeStart: "07:00", AMTimeEnd: "15:00"},
		},
		Coordinators: []CoordinatorInput{
			{FirstName: "Ana", LastName: "Lee", Phone: "+15550001", Email: "ana@sunrise.test"},
		},
	})
	require.NoError(t, err)
	require.True(t, f.HasLocation())
	assert.InDelta(t, austinLat, *f.Lat, 1e-9)

	detail, err := svc.Get(context.Background(), f.ID)
	require.NoError(t, err)
	require.Len(t, detail.Services, 1)
	assert.Equal(t, "CNA", detail.Services[0].Role)
	assert.Equal(t, 8.0, detail.Services[0].Hours)
	assert.Equal(t, "07:00", *detail.Services[0].AMTimeStart)
	assert.Nil(t, detail.Services[0].PMTimeStart)
	require.Len(t, detail.Coordinators, 1)
	assert.Equal(t, f.ID, detail.Coordinators[0].FacilityID)
}

func TestFacilityService_AddUnknownPlaceSavesWithoutLocation(t *testing.T) {
	fx := newFixture()
	svc := newFacilityService(fx)

	f, err := svc.Add(context.Background(), FacilityInput{Name: "Nowhere", CityStateZip: "Atlantis"})
	require.NoError(t, err)
	assert.False(t, f.HasLocation())
	assert.Equal(t, []string{"Atlantis"}, fx.geocoder.queries)
}

func TestFacilityService_AddGeocoderDown(t *testing.T) {
	fx := newFixture()
	fx.geocoder.err = errors.New("connection refused")
	svc := newFacilityService(fx)

	_, err := svc.Add(context.Background(), FacilityInput{Name: "Sunrise", CityStateZip: "Austin, TX"})
	assert.ErrorIs(t, err, ErrGeocodeFailed)
	assert.Empty(t, fx.w.facilities)
}

func TestFacilityService_AddRejectsTakenContact(t *testing.T) {
	fx := newFixture()
	other := fx.w.addFacility("Other", austinLat, austinLng)
	fx.w.addCoordinator(other.ID, "Bo", "+15550001", "bo@other.test")
	svc := newFacilityService(fx)

	_, err := svc.Add(context.Background(), FacilityInput{
		Name:         "Sunrise",
		Coordinators: []CoordinatorInput{{FirstName: "Ana", Phone: "+15550001", Email: "ana@sunrise.test"}},
	})
	assert.ErrorIs(t, err, ErrDuplicate)
	assert.Len(t, fx.w.facilities, 1)
}

func TestFacilityService_EditRegeocodesOnlyWhenMoved(t *testing.T) {
	fx := newFixture()
	f := fx.w.addFacility("Sunrise", austinLat, austinLng)
	c := fx.w.addCoordinator(f.ID, "Ana", "+15550001", "ana@sunrise.test")
	fx.geocoder.points["Dallas, TX"] = geo.Point{Lat: dallasLat, Lng: dallasLng}
	svc := newFacilityService(fx)
	ctx := context.Background()

	in := FacilityInput{
		Name:         "Sunrise Care",
		CityStateZip: f.CityStateZip,
		Coordinators: []CoordinatorInput{
			{ID: c.ID, FirstName: "Ana", Phone: "+15550001", Email: "ana@sunrise.test"},
			{FirstName: "New", Phone: "+15550002", Email: "new@sunrise.test"},
		},
	}
	require.NoError(t, svc.Edit(ctx, f.ID, in))
	assert.Empty(t, fx.geocoder.queries)
	assert.Equal(t, "Sunrise Care", fx.w.facilities[f.ID].Name)
	assert.Len(t, fx.w.coordinators, 2)

	in.CityStateZip = "Dallas, TX"
	in.Coordinators = nil
	require.NoError(t, svc.Edit(ctx, f.ID, in))
	assert.Equal(t, []string{"Dallas, TX"}, fx.geocoder.queries)
	assert.InDelta(t, dallasLat, *fx.w.facilities[f.ID].Lat, 1e-9)
}

func TestFacilityService_EditUnknownPlaceClearsLocation(t *testing.T) {
	fx := newFixture()
	f := fx.w.addFacility("Sunrise", austinLat, austinLng)
	svc := newFacilityService(fx)

	require.NoError(t, svc.Edit(context.Background(), f.ID, FacilityInput{Name: "Sunrise", CityStateZip: "Atlantis"}))
	assert.False(t, fx.w.facilities[f.ID].HasLocation())
	assert.Equal(t, "Atlantis", fx.w.facilities[f.ID].CityStateZip)
}

func TestFacilityService_GeocodesOutsideTransaction(t *testing.T) {
	fx := newFixture()
	fx.geocoder.points["Dallas, TX"] = geo.Point{Lat: dallasLat, Lng: dallasLng}
	svc := newFacilityService(fx)
	ctx := context.Background()

	f, err := svc.Add(ctx, FacilityInput{Name: "Sunrise", CityStateZip: "Austin, TX 78701"})
	require.NoError(t, err)
	require.NoError(t, svc.Edit(ctx, f.ID, FacilityInput{Name: "Sunrise", CityStateZip: "Dallas, TX"}))

	assert.Equal(t, []string{"Austin, TX 78701", "Dallas, TX"}, fx.geocoder.queries)
	assert.Equal(t, 2, fx.tx.calls)
	assert.Zero(t, fx.geocoder.inTx)
}

func TestFacilityService_EditMissing(t *testing.T) {
	fx := newFixture()
	err := newFacilityService(fx).Edit(context.Background(), 99, FacilityInput{Name: "x"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFacilityService_List(t *testing.T) {
	fx := newFixture()
	for _, name := range []string{"Alpha", "Beta", "Gamma"} {
		fx.w.addFacility(name, austinLat, austinLng)
	}
	svc := newFacilityService(fx)
	ctx := context.Background()

	list, p, err := svc.List(ctx, "", 2, 2, false)
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, 3, p.Total)
	assert.Equal(t, 2, p.TotalPages)
	require.Len(t, list, 1)
	assert.Equal(t, "Gamma", list[0].Name)

	list, p, err = svc.List(ctx, "a", 1, 10, true)
	require.NoError(t, err)
	assert.Nil(t, p)
	assert.Len(t, list, 3)
}

func TestFacilityService_DeleteService(t *testing.T) {
	fx := newFixture()
	f := fx.w.addFacility("Sunrise", austinLat, austinLng)
	fx.w.addTemplate(f.ID, "CNA", "07:00:00", "15:00:00")
	fx.w.addTemplate(f.ID, "RN", "07:00:00", "15:00:00")

	require.NoError(t, newFacilityService(fx).DeleteService(context.Background(), f.ID, "cna"))
	require.Len(t, fx.w.templates, 1)
	for _, tpl := range fx.w.templates {
		assert.Equal(t, "RN", tpl.Role)
	}
}
