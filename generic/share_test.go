package generic_test

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/propmoney/cam-engine/generic"
)

func dec(s string) decimal.Decimal { return generic.MustParseDecimal(s) }

func TestShare_FractionOfWhole(t *testing.T) {
	// GIVEN: 250 m2 out of 1000 m2
	// WHEN: Computing the share
	// THEN: It is exactly one quarter

	share, err := generic.Share(generic.NewArea(250), generic.NewArea(1000))
	require.NoError(t, err)
	assert.True(t, share.Equal(dec("0.25")), "got %s", share)
}

func TestShare_RejectsNonPositiveWhole(t *testing.T) {
	for _, whole := range []float64{0, -10} {
		_, err := generic.Share(generic.NewArea(10), generic.NewArea(whole))
		assert.ErrorIs(t, err, generic.ErrInvalidArea, "whole=%v", whole)
	}
}

func TestShare_RejectsUnitMismatch(t *testing.T) {
	_, err := generic.Share(generic.NewMoney(10), generic.NewArea(100))
	assert.True(t, errors.Is(err, generic.ErrUnitMismatch))
}

func TestApportion_MultipliesBeforeDividing(t *testing.T) {
	// GIVEN: 200 000 NOK over a 100/900 m2 split of 1000 m2
	// WHEN: Apportioning to each part
	// THEN: Parts are exact and sum to the total

	total := generic.NewMoney(200000)
	whole := generic.NewArea(1000)

	small, err := generic.Apportion(total, generic.NewArea(100), whole)
	require.NoError(t, err)
	large, err := generic.Apportion(total, generic.NewArea(900), whole)
	require.NoError(t, err)

	assert.True(t, small.Value.Equal(dec("20000")), "got %s", small.Value)
	assert.True(t, large.Value.Equal(dec("180000")), "got %s", large.Value)
	assert.True(t, small.Add(large).Value.Equal(total.Value))
	assert.Equal(t, generic.UnitCurrency, small.Unit)
}

func TestApportion_ThirdsStayWithinACent(t *testing.T) {
	// GIVEN: 100 NOK split in three equal parts
	total := generic.NewMoney(100)
	whole := generic.NewArea(3)

	part, err := generic.Apportion(total, generic.NewArea(1), whole)
	require.NoError(t, err)

	sum := generic.Sum(generic.UnitCurrency, part, part, part)
	assert.True(t, generic.WithinTolerance(sum.Value, total.Value, dec("0.01")))
	assert.True(t, part.Cents().Value.Equal(dec("33.33")))
}

func TestWithinTolerance_Boundary(t *testing.T) {
	tol := dec("0.001")

	assert.True(t, generic.WithinTolerance(dec("1"), dec("0.999"), tol), "exactly at tolerance is within")
	assert.False(t, generic.WithinTolerance(dec("1"), dec("0.9989"), tol))
	assert.True(t, generic.WithinTolerance(dec("0.999"), dec("1"), tol), "symmetric")
}

func TestAmount_CentsRoundsHalfAwayFromZero(t *testing.T) {
	monthly := generic.NewMoney(50000).Div(decimal.NewFromInt(12))

	assert.True(t, monthly.Cents().Value.Equal(dec("4166.67")), "got %s", monthly.Cents().Value)
	assert.True(t, generic.NewMoney(0.125).Cents().Value.Equal(dec("0.13")))
}

func TestSum_EmptyIsZeroOfUnit(t *testing.T) {
	total := generic.Sum(generic.UnitSquareMeters)
	assert.True(t, total.IsZero())
	assert.Equal(t, generic.UnitSquareMeters, total.Unit)
}

func TestMustParseDecimal_PanicsOnBadInput(t *testing.T) {
	assert.True(t, generic.MustParseDecimal("1.15").Equal(decimal.RequireFromString("1.15")))
	assert.Panics(t, func() { generic.MustParseDecimal("12,5") })
}
