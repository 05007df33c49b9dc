package sample

import (
	"errors"
	"fmt"
	"io"
	"math"
	"math/big"
	"sync"
	"sync/atomic"

	"github.com/cronokirby/saferith"
	"github.com/quorumnet/threshold-keys/internal/params"
	"github.com/quorumnet/threshold-keys/pkg/pool"
)

// primes generates an array containing all the odd prime numbers < below.
func primes(below uint32) []uint32 {
	sieve := make([]bool, below)
	// Initially, all numbers starting from 2 are considered prime
	for i := 2; i < len(sieve); i++ {
		sieve[i] = true
	}
	// Now, we remove the multiples of every prime number we encounter
	for p := 2; p*p < len(sieve); p++ {
		if !sieve[p] {
			continue
		}
		// p itself is prime, so we don't want to exclude it, but every multiple
		// of p, starting from 2 * p isn't, so we exclude those
		for i := p << 1; i < len(sieve); i += p {
			sieve[i] = false
		}
	}
	// It is believed that there are approximately N / log N primes below N, so this
	// bounds is a decent estimate of our output size
	nF := float64(below)
	out := make([]uint32, 0, int(nF/math.Log(nF)))
	for p := uint32(3); p < below; p++ {
		if sieve[p] {
			out = append(out, p)
		}
	}

	return out
}

// The number of numbers to check after our initial prime guess
const sieveSize = 1 << 18

// The upper bound on the prime numbers used for sieving
const primeBound = 1 << 20

// maxPrimeIterations is the number of candidate windows to try before giving up.
//
// Each window covers sieveSize consecutive odd candidates, so exhausting this
// bound means something is wrong with the randomness source, not bad luck.
const maxPrimeIterations = 10_000

// ErrMaxPrimeIterations is the error returned when the safe prime search is exhausted.
var ErrMaxPrimeIterations = fmt.Errorf("sample: failed to generate a safe prime after %d attempts", maxPrimeIterations)

var errSearchExhausted = errors.New("sample: safe prime search exhausted")

// We want to avoid calculating our prime numbers multiple times, but we also
// don't want to waste time sieving them before they're needed. Using sync.Once
// lets us initialize this array of primes only once, the first time we need them.
var thePrimes []uint32
var initPrimes sync.Once

// We use a large buffer for sieving, but we would like to reuse these buffers
// to avoid allocating a bunch of them.
var sievePool = sync.Pool{
	New: func() interface{} {
		sieve := make([]bool, sieveSize)
		return &sieve
	},
}

// trySafePrime samples a random candidate of the given bit length, and scans
// the window of numbers above it for a safe prime. Returns nil if the window
// contains none.
func trySafePrime(rand io.Reader, bits int) *saferith.Nat {
	initPrimes.Do(func() {
		thePrimes = primes(primeBound)
	})

	bytes := make([]byte, (bits+7)/8)

	_, err := io.ReadFull(rand, bytes)
	if err != nil {
		return nil
	}

	// The number of significant bits in the first byte of our number
	lastBits := bits % 8
	if lastBits == 0 {
		lastBits = 8
	}
	// Clear bits in the first byte to make sure the candidate has a size <= bits.
	bytes[0] &= uint8(int(1<<lastBits) - 1)
	// Don't let the value be too small, i.e. set the most significant two bits.
	if lastBits >= 2 {
		bytes[0] |= 0b11 << (lastBits - 2)
	} else {
		bytes[0] |= 1
		bytes[1] |= 0b1000_0000
	}
	// For both p and (p - 1) / 2 to be prime, it must be the case that p = 3 mod 4,
	// so we set the low two bits and keep them that way while sieving.
	bytes[len(bytes)-1] |= 3

	base := new(big.Int).SetBytes(bytes)

	// sieve checks the candidacy of base, base+1, base+2, etc.
	sievePtr := sievePool.Get().(*[]bool)
	sieve := *sievePtr
	defer sievePool.Put(sievePtr)
	for i := 0; i < len(sieve); i++ {
		sieve[i] = true
	}
	// Remove candidates that aren't 3 mod 4
	for i := 1; i+2 < len(sieve); i += 4 {
		sieve[i] = false
		sieve[i+1] = false
		sieve[i+2] = false
	}
	// A trial prime r only rules out a candidate x when x is a proper multiple
	// of r, or x - 1 is a proper multiple of 2r. At small bit sizes a candidate
	// can itself appear among the trial primes (x = r), or have its half among
	// them (x = 2r + 1); such r must not sieve, or every safe prime in the
	// window removes itself. 2r + 1 < base rules out both cases, since every
	// candidate is at least base. thePrimes is sorted, so we can stop at the
	// first trial prime past the bound.
	trialBound := uint64(math.MaxUint64)
	if base.IsUint64() {
		trialBound = (base.Uint64() - 1) / 2
	}

	// sieve out primes
	remainder := new(big.Int)
	for _, prime := range thePrimes {
		if uint64(prime) >= trialBound {
			break
		}
		// We want to eliminate all x = 0, 1 mod r, so we figure out where the
		// next multiple is, relative to base, and eliminate from there.
		//
		// If x = 0 mod r, then x can't be prime. If x = 1 mod r, then (x - 1) / 2
		// can't be prime, so x can't be a safe prime.
		remainder.SetUint64(uint64(prime))
		remainder.Mod(base, remainder)
		r := int(remainder.Uint64())
		primeInt := int(prime)
		firstMultiple := primeInt - r
		if r == 0 {
			firstMultiple = 0
		}
		for i := firstMultiple; i+1 < len(sieve); i += primeInt {
			sieve[i] = false
			sieve[i+1] = false
		}
	}
	p := new(big.Int)
	q := new(big.Int)
	for delta := 0; delta < len(sieve); delta++ {
		if !sieve[delta] {
			continue
		}

		p.SetUint64(uint64(delta))
		p.Add(p, base)
		if p.BitLen() > bits {
			return nil
		}
		// Since p is odd, this is equivalent to (p - 1) / 2
		q.Rsh(p, 1)
		// p is likely to be prime already, so let's first do the other check,
		// which is more likely to fail.
		if !q.ProbablyPrime(params.PrimalityIterations) {
			continue
		}
		// This will do a single iteration of miller rabin, which can be shown
		// to be sufficient when q is prime.
		if !p.ProbablyPrime(0) {
			continue
		}
		return new(saferith.Nat).SetBig(p, bits)
	}

	return nil
}

// SafePrime generates a random safe prime p with the given bit length, i.e.
// q := (p - 1) / 2 is also prime. This implies p = 3 mod 4.
//
// The search runs on the given pool, which may be nil, and is bounded: after
// maxPrimeIterations candidate windows it gives up and returns
// ErrMaxPrimeIterations instead of retrying forever.
func SafePrime(rand io.Reader, pl *pool.Pool, bits int) (*saferith.Nat, error) {
	if bits < 16 {
		return nil, fmt.Errorf("sample: safe prime size must be at least 16 bits, got %d", bits)
	}
	reader := pool.NewLockedReader(rand)
	var attempts int64
	results := pl.Search(1, func() interface{} {
		if atomic.AddInt64(&attempts, 1) > maxPrimeIterations {
			// a non nil result stops the search
			return errSearchExhausted
		}
		p := trySafePrime(reader, bits)
		// You have to do this, because of how Go handles nil.
		if p == nil {
			return nil
		}
		return p
	})
	p, ok := results[0].(*saferith.Nat)
	if !ok {
		return nil, ErrMaxPrimeIterations
	}
	return p, nil
}
