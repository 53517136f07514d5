package sdmx

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlatIndex_RoundTripLaw(t *testing.T) {
	sizeSets := [][]int{
		{3, 2, 4},
		{1, 1, 1},
		{5},
		{2, 2, 2, 2},
	}
	for _, sizes := range sizeSets {
		total := 1
		for _, s := range sizes {
			total *= s
		}
		for i := 0; i < total; i++ {
			idx := DecodeFlatIndex(i, sizes)
			got := EncodeFlatIndex(idx, sizes)
			assert.Equal(t, i, got, "sizes=%v i=%d decoded=%v", sizes, i, idx)
		}
	}
}

func testDSD() DSD {
	return DSD{
		Agency: "OECD",
		Dataflow: "LFS",
		TimeDimName: "TIME_PERIOD",
		Dimensions: []Dimension{
			{ID: "LOCATION", Codes: []string{"USA", "CAN"}},
			{ID: "UNIT", Codes: []string{"PC_ACT", "THS_PER"}},
			{ID: "TIME_PERIOD", Codes: []string{"2020", "2021"}},
		},
	}
}

func TestDecodeFlatValueArray_DecodesCartesianProductInDeclaredOrder(t *testing.T) {
	dsd := testDSD()
	// order: LOCATION(2) x UNIT(2) x TIME(2) = 8 flat cells.
	one := func(v float64) *float64 { return &v }
	values := []*float64{
		one(4.0), one(4.2), // USA, PC_ACT, 2020/2021
		one(160), one(162), // USA, THS_PER, 2020/2021
		one(5.5), one(5.1), // CAN, PC_ACT, 2020/2021
		one(21), one(22), // CAN, THS_PER, 2020/2021
	}

	obs := DecodeFlatValueArray(values, dsd)
	require.Len(t, obs, 8)

	cube := &Cube{DSD: dsd, Observations: obs}
	usaRate := cube.Filter(map[string]string{"LOCATION": "USA", "UNIT": "PC_ACT"})
	require.Len(t, usaRate, 2)
	byPeriod := map[string]float64{}
	for _, o := range usaRate {
		byPeriod[o.TimePeriod] = *o.Value
	}
	assert.Equal(t, 4.0, byPeriod["2020"])
	assert.Equal(t, 4.2, byPeriod["2021"])

	usaHeadcount := cube.Filter(map[string]string{"LOCATION": "USA", "UNIT": "THS_PER"})
	require.Len(t, usaHeadcount, 2)
	assert.Equal(t, 160.0, *usaHeadcount[0].Value)
}

func TestDecodeFlatValueArray_SkipsNullCells(t *testing.T) {
	dsd := testDSD()
	one := func(v float64) *float64 { return &v }
	values := []*float64{one(4.0), nil, one(160), one(162), one(5.5), one(5.1), one(21), one(22)}

	obs := DecodeFlatValueArray(values, dsd)
	assert.Len(t, obs, 7, "a nil cell in the flat array must be dropped, not decoded as a zero observation")
}

func TestDecodeFlatDataMessage_DecodesDataSetsValueArray(t *testing.T) {
	dsd := testDSD()
	body := []byte(`{"data":{"dataSets":[{"value":[4.0,4.2,160,162,5.5,5.1,21,22]}]}}`)

	cube, err := DecodeFlatDataMessage(body, dsd, json.Unmarshal)
	require.NoError(t, err)
	require.Len(t, cube.Observations, 8)

	matched := cube.Filter(map[string]string{"LOCATION": "CAN", "UNIT": "PC_ACT"})
	require.Len(t, matched, 2)
}

func TestDecodeFlatDataMessage_NoDataSetsReturnsEmptyCube(t *testing.T) {
	dsd := testDSD()
	body := []byte(`{"data":{"dataSets":[]}}`)

	cube, err := DecodeFlatDataMessage(body, dsd, json.Unmarshal)
	require.NoError(t, err)
	assert.Empty(t, cube.Observations)
}

func TestDSD_Sizes_MatchesDimensionCardinality(t *testing.T) {
	dsd := testDSD()
	assert.Equal(t, []int{2, 2, 2}, dsd.Sizes())
}
