package domain

// Credits is a monetary amount in integer minor units. The game has a single
// currency, so there is no currency code and no floating point anywhere in
// money paths.
type Credits int64

func (c Credits) IsPositive() bool {
	return c > 0
}

func (c Credits) IsNegative() bool {
	return c < 0
}

// Neg returns the negated amount.
func (c Credits) Neg() Credits {
	return -c
}

// Min returns the smaller of c and other.
func (c Credits) Min(other Credits) Credits {
	if other < c {
		return other
	}
	return c
}

// MulUnits multiplies a per-unit price by a unit count.
func (c Credits) MulUnits(units int64) Credits {
	return c * Credits(units)
}
