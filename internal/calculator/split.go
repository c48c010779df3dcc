package calculator

import "math/bits"

// Split divides total into integer parts proportional to weights.
// Parts are computed with the largest-remainder method so they always sum to
// total; leftover units go to the largest fractional remainders, earlier
// entries winning ties. When every weight is zero the total is split equally.
// Negative weights are treated as zero. A negative total is split by
// magnitude and every part negated.
func Split(total int, weights []int) []int {
	parts := make([]int, len(weights))
	if len(weights) == 0 {
		return parts
	}
	if total < 0 {
		for i, part := range Split(-total, weights) {
			parts[i] = -part
		}
		return parts
	}

	w := make([]uint64, len(weights))
	var sum uint64
	for i, weight := range weights {
		if weight > 0 {
			w[i] = uint64(weight)
			sum += w[i]
		}
	}
	// No resources anywhere: everyone carries the same share.
	if sum == 0 {
		for i := range w {
			w[i] = 1
		}
		sum = uint64(len(w))
	}

	// total*w[i] is taken as a 128-bit product. w[i] <= sum keeps the
	// quotient within total, so Div64 cannot overflow.
	remainders := make([]uint64, len(w))
	assigned := 0
	for i := range w {
		hi, lo := bits.Mul64(uint64(total), w[i])
		quo, rem := bits.Div64(hi, lo, sum)
		parts[i] = int(quo)
		remainders[i] = rem
		assigned += parts[i]
	}

	for left := total - assigned; left > 0; left-- {
		best := -1
		for i, r := range remainders {
			if r > 0 && (best < 0 || r > remainders[best]) {
				best = i
			}
		}
		if best < 0 {
			break
		}
		parts[best]++
		remainders[best] = 0
	}
	return parts
}
