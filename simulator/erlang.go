package simulator

// Closed-form results for the M/M/n/n loss system. All functions are pure:
// they depend only on the arrival rate lambda, the per-channel service rate
// mu, and the channel count n.
//
// The truncated-Poisson sum for P0 is accumulated term by term (each term is
// the previous one times rho/k) rather than computing rho^k and k! separately,
// so intermediate values never overflow even for n in the hundreds.

// OfferedLoad returns rho = lambda / mu
func OfferedLoad(lambda, mu float64) float64 {
	return lambda / mu
}

// TheoreticalP0 returns the probability that all n channels are idle:
// P0 = 1 / sum_{k=0..n} rho^k/k!
func TheoreticalP0(lambda, mu float64, n int) float64 {
	rho := OfferedLoad(lambda, mu)
	term := 1.0
	sum := 1.0
	for k := 1; k <= n; k++ {
		term *= rho / float64(k)
		sum += term
	}
	return 1.0 / sum
}

// TheoreticalPReject returns the Erlang-B blocking probability:
// B = (rho^n/n!) * P0
func TheoreticalPReject(lambda, mu float64, n int) float64 {
	rho := OfferedLoad(lambda, mu)
	term := 1.0
	sum := 1.0
	for k := 1; k <= n; k++ {
		term *= rho / float64(k)
		sum += term
	}
	return term / sum
}

// ErlangB computes the blocking probability directly from the offered load
// using the numerically stable recursion B(0) = 1,
// B(k) = rho*B(k-1) / (k + rho*B(k-1)). Equivalent to TheoreticalPReject.
func ErlangB(rho float64, n int) float64 {
	b := 1.0
	for k := 1; k <= n; k++ {
		b = rho * b / (float64(k) + rho*b)
	}
	return b
}

// TheoreticalQ returns the relative throughput: the fraction of arrivals served
func TheoreticalQ(lambda, mu float64, n int) float64 {
	return 1.0 - TheoreticalPReject(lambda, mu, n)
}

// TheoreticalA returns the absolute throughput: served arrivals per model second
func TheoreticalA(lambda, mu float64, n int) float64 {
	return lambda * TheoreticalQ(lambda, mu, n)
}

// TheoreticalN returns the mean number of busy channels
func TheoreticalN(lambda, mu float64, n int) float64 {
	return OfferedLoad(lambda, mu) * TheoreticalQ(lambda, mu, n)
}
