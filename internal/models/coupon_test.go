package models

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCouponDiscountFor(t *testing.T) {
	t.Parallel()

	percentage := &Coupon{DiscountType: DiscountPercentage, DiscountValue: 15}
	require.InDelta(t, 15.0, percentage.DiscountFor(100), 0.001)
	require.InDelta(t, 7.50, percentage.DiscountFor(50), 0.001)

	fixed := &Coupon{DiscountType: DiscountFixed, DiscountValue: 20}
	require.InDelta(t, 20.0, fixed.DiscountFor(100), 0.001)

	// Never exceeds the order value.
	require.InDelta(t, 12.0, fixed.DiscountFor(12), 0.001)

	full := &Coupon{DiscountType: DiscountPercentage, DiscountValue: 100}
	require.InDelta(t, 80.0, full.DiscountFor(80), 0.001)
}

func TestAddressFormat(t *testing.T) {
	t.Parallel()

	address := &Address{
		Street: "Rua das Flores", Number: "100",
		Neighborhood: "Centro", City: "São Paulo", State: "SP",
	}
	require.Equal(t, "Rua das Flores, 100\nCentro, São Paulo/SP", address.Format())

	address.Complement = "Apto 42"
	require.Equal(t, "Rua das Flores, 100 - Apto 42\nCentro, São Paulo/SP", address.Format())
}
