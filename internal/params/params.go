package params

const (
	SecParam = 256
	SecBytes = SecParam / 8

	// BitsSafePrime is the default bit length of the consortium's field prime.
	// Callers may request a different size at setup; it is fixed thereafter.
	BitsSafePrime = 256

	// PrimalityIterations is the number of iterations used when checking primality.
	//
	// More iterations mean fewer false positives, but more expensive calculations.
	//
	// 20 is the same number that Go uses internally.
	PrimalityIterations = 20
)
