package source

import "math/rand"

// maxVariation bounds how much one page's duration may differ from the
// previous one.
const maxVariation = 0.15

// Durations splits total seconds across n pages. Page 0 varies from the even
// share by up to ±15%, every later page varies from its predecessor by up to
// ±15%, and the result is rescaled to sum to total. Durations never drop
// below minimum before rescaling. The same seed yields the same split.
func Durations(total float64, n int, minimum float64, seed int64) []float64 {
	if n <= 0 || total <= 0 {
		return nil
	}
	r := rand.New(rand.NewSource(seed))
	vary := func() float64 { return r.Float64()*2*maxVariation - maxVariation }

	out := make([]float64, n)
	out[0] = total / float64(n) * (1 + vary())
	for i := 1; i < n; i++ {
		out[i] = out[i-1] * (1 + vary())
		if out[i] < minimum {
			out[i] = minimum
		}
	}

	sum := 0.0
	for _, d := range out {
		sum += d
	}
	scale := total / sum
	for i := range out {
		out[i] *= scale
	}
	return out
}

// Even splits total seconds into n equal pages.
func Even(total float64, n int) []float64 {
	if n <= 0 || total <= 0 {
		return nil
	}
	out := make([]float64, n)
	for i := range out {
		out[i] = total / float64(n)
	}
	return out
}
