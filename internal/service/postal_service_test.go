package service

import (
	"context"
	"errors"
	"testing"

	"Kampung_Community/internal/model"
	"Kampung_Community/internal/pkg"
	"Kampung_Community/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidatePostalCode(t *testing.T) {
	assert.NoError(t, ValidatePostalCode("520123"))
	for _, bad := range []string{"", "52012", "5201234", "52O123", "５２０１２３"} {
		testutil.AssertIs(t, ValidatePostalCode(bad), pkg.ErrInvalidParam, bad)
	}
	assert.Equal(t, "52", SectorOf("520123"))
}

func TestClassify(t *testing.T) {
	tampines := model.PostalSector{Sector: "52", District: 18, Location: "Tampines, Pasir Ris", Region: "East"}
	cases := []struct {
		name string
		addr *pkg.Address
		want Classification
	}{
		{
			name: "building name wins",
			addr: &pkg.Address{BlockNo: "9", RoadName: "TAMPINES CENTRAL 1", Building: "TAMPINES ONE"},
			want: Classification{Kind: model.KindBuilding, Name: "Tampines One", Slug: "tampines-one"},
		},
		{
			name: "hdb marker falls to estate",
			addr: &pkg.Address{BlockNo: "123", RoadName: "TAMPINES STREET 11", Building: "HDB-TAMPINES"},
			want: Classification{Kind: model.KindEstate, Name: "Tampines", Slug: "tampines"},
		},
		{
			name: "multi word town",
			addr: &pkg.Address{BlockNo: "406", RoadName: "ANG MO KIO AVENUE 10"},
			want: Classification{Kind: model.KindEstate, Name: "Ang Mo Kio", Slug: "ang-mo-kio"},
		},
		{
			name: "lorong prefix skipped",
			addr: &pkg.Address{BlockNo: "79", RoadName: "LORONG 1 TOA PAYOH"},
			want: Classification{Kind: model.KindEstate, Name: "Toa Payoh", Slug: "toa-payoh"},
		},
		{
			name: "jalan prefix skipped",
			addr: &pkg.Address{BlockNo: "104", RoadName: "JALAN BUKIT MERAH"},
			want: Classification{Kind: model.KindEstate, Name: "Bukit Merah", Slug: "bukit-merah"},
		},
		{
			name: "unsluggable building falls to estate",
			addr: &pkg.Address{BlockNo: "201", RoadName: "TAMPINES STREET 21", Building: "大华大厦"},
			want: Classification{Kind: model.KindEstate, Name: "Tampines", Slug: "tampines"},
		},
		{
			name: "symbol only building falls to sector",
			addr: &pkg.Address{Building: "#"},
			want: Classification{Kind: model.KindSector, Name: "District 18 · Tampines, Pasir Ris", Slug: "district-18-tampines-pasir-ris"},
		},
		{
			name: "no town falls to sector",
			addr: &pkg.Address{BlockNo: "1", RoadName: "AVENUE 3"},
			want: Classification{Kind: model.KindSector, Name: "District 18 · Tampines, Pasir Ris", Slug: "district-18-tampines-pasir-ris"},
		},
		{
			name: "no address",
			want: Classification{Kind: model.KindSector, Name: "District 18 · Tampines, Pasir Ris", Slug: "district-18-tampines-pasir-ris"},
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, Classify(c.addr, tampines))
		})
	}
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "peoples-park", Slugify("People's Park"))
	assert.Equal(t, "ang-mo-kio", Slugify("  Ang  Mo Kio  "))
	assert.Equal(t, "the-pinnacle-duxton", Slugify("The Pinnacle@Duxton"))
}

func TestLookupCachesClassification(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.geocoder.Addresses["520201"] = []pkg.Address{{BlockNo: "201", RoadName: "TAMPINES STREET 21", Postal: "520201"}}

	res, err := e.postal.Lookup(ctx, "520201")
	require.NoError(t, err)
	assert.Equal(t, model.KindEstate, res.Kind)
	assert.Equal(t, "tampines", res.Community.Slug)
	assert.Equal(t, 18, res.Community.District)
	assert.Equal(t, "East", res.Sector.Region)

	again, err := e.postal.Lookup(ctx, "520201")
	require.NoError(t, err)
	assert.Equal(t, res.Community.ID, again.Community.ID)
	assert.Equal(t, 1, e.geocoder.Calls, "second lookup is served from cache")
	assert.True(t, e.mr.Exists("postal:lookup:520201"))
	assert.Empty(t, res.Nearby)

	e.geocoder.Addresses["529510"] = []pkg.Address{{BlockNo: "1", RoadName: "TAMPINES CENTRAL 5", Building: "TAMPINES ONE", Postal: "529510"}}
	mall, err := e.postal.Lookup(ctx, "529510")
	require.NoError(t, err)
	assert.Equal(t, "tampines-one", mall.Community.Slug)
	require.Len(t, mall.Nearby, 1, "same sector, excluding itself")
	assert.Equal(t, "tampines", mall.Nearby[0].Slug)
}

func TestLookupFallsBackToSector(t *testing.T) {
	e := newEnv(t)
	e.geocoder.Err = errors.New("onemap down")

	res, err := e.postal.Lookup(context.Background(), "560123")
	require.NoError(t, err)
	assert.Equal(t, model.KindSector, res.Kind)
	assert.Equal(t, "district-20-bishan-ang-mo-kio", res.Community.Slug)
	assert.Nil(t, res.Address)
}

func TestLookupErrors(t *testing.T) {
	e := newEnv(t)
	_, err := e.postal.Lookup(context.Background(), "12ab56")
	testutil.AssertIs(t, err, pkg.ErrInvalidParam)

	// 74 不属于任何邮区
	_, err = e.postal.Lookup(context.Background(), "740000")
	testutil.AssertIs(t, err, pkg.ErrNotFound)

	_, err = e.postal.GetSector(context.Background(), "7")
	testutil.AssertIs(t, err, pkg.ErrInvalidParam)
	ps, err := e.postal.GetSector(context.Background(), "08")
	require.NoError(t, err)
	assert.Equal(t, 2, ps.District)
}
