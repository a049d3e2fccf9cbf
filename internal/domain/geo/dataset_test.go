package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAliasTargetsAreCanonical(t *testing.T) {
	canonical := make(map[string]bool, len(canonicalProvinces))
	for _, p := range canonicalProvinces {
		canonical[p.Name] = true
	}

	for alias, target := range Aliases() {
		assert.True(t, canonical[target],
			"alias %q maps to %q which is not a canonical province", alias, target)
	}
}

func TestProvinceListIsStable(t *testing.T) {
	ps := Provinces()
	require.Len(t, ps, 34)

	seen := make(map[int]bool, len(ps))
	for _, p := range ps {
		assert.False(t, seen[p.ID], "duplicate province ID %d", p.ID)
		seen[p.ID] = true
		assert.NotEmpty(t, p.Name)
	}
}

func TestDistrictAndWardLookup(t *testing.T) {
	hcmc, ok := ProvinceByID(5)
	require.True(t, ok)
	assert.Equal(t, "Thành phố Hồ Chí Minh", hcmc.Name)

	districts := DistrictsOf(hcmc.ID)
	require.NotEmpty(t, districts)
	for _, d := range districts {
		assert.Equal(t, hcmc.ID, d.ProvinceID)
	}

	wards := WardsOf(101)
	require.NotEmpty(t, wards)
	for _, w := range wards {
		assert.Equal(t, 101, w.DistrictID)
	}

	assert.Empty(t, DistrictsOf(9999))
	assert.Empty(t, WardsOf(9999))
}

func TestSearch(t *testing.T) {
	results := Search("ben nghe")
	require.Len(t, results, 1)
	assert.Equal(t, "ward", results[0].Level)
	assert.Equal(t, "Phường Bến Nghé", results[0].Name)
	assert.Equal(t, "Quận 1", results[0].ParentName)

	results = Search("cu chi")
	assert.Len(t, results, 2) // district and its ward

	assert.Empty(t, Search(""))
	assert.Empty(t, Search("xyzzy"))
}

func TestValidate(t *testing.T) {
	res := Validate(Address{Province: "Hòa Bình", District: "q1", Ward: "p5"})
	assert.True(t, res.ProvinceKnown)
	assert.True(t, res.ProvinceAliased)
	assert.Equal(t, "Phú Thọ", res.Address.Province)
	assert.Equal(t, "Quận 1", res.Address.District)
	assert.Equal(t, "Phường 5", res.Address.Ward)

	res = Validate(Address{Province: "Nghệ An"})
	assert.True(t, res.ProvinceKnown)
	assert.False(t, res.ProvinceAliased)

	res = Validate(Address{Province: "Atlantis"})
	assert.False(t, res.ProvinceKnown)
	assert.Equal(t, "Atlantis", res.Address.Province)
}
