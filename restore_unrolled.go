//go:build !purego

package golpc

// restoreUnrolled dispatches on order to a specialised loop. Coefficients
// are widened once per call and the shift direction is folded into a
// branch-free (sum << ls) >> rs. Integer addition wraps modulo 2^64, so
// the regrouped sums below are bit-identical to the reference order.
func restoreUnrolled(samples []int32, blocksize, qlevel, order int, coeffs []int32) {
	if blocksize <= 0 {
		return
	}
	n := order + blocksize
	s := samples[:n:n]
	ls, rs := shiftAmounts(qlevel)

	switch order {
	case 0:
		// Empty sum: every target keeps its residual.
	case 1:
		restoreOrder1(s, coeffs, ls, rs)
	case 2:
		restoreOrder2(s, coeffs, ls, rs)
	case 3:
		restoreOrder3(s, coeffs, ls, rs)
	case 4:
		restoreOrder4(s, coeffs, ls, rs)
	case 5:
		restoreOrder5(s, coeffs, ls, rs)
	case 6:
		restoreOrder6(s, coeffs, ls, rs)
	case 7:
		restoreOrder7(s, coeffs, ls, rs)
	case 8:
		restoreOrder8(s, coeffs, ls, rs)
	case 12:
		restoreOrder12(s, coeffs, ls, rs)
	default:
		if order > MaxOrder {
			restoreReference(samples, blocksize, qlevel, order, coeffs)
			return
		}
		restoreOrderN(s, order, coeffs, ls, rs)
	}
}

func restoreOrder1(s []int32, coeffs []int32, ls, rs uint) {
	c0 := int64(coeffs[0])
	p1 := int64(s[0])
	for i := 1; i < len(s); i++ {
		v := s[i] + int32(((c0*p1)<<ls)>>rs)
		s[i] = v
		p1 = int64(v)
	}
}

func restoreOrder2(s []int32, coeffs []int32, ls, rs uint) {
	_ = coeffs[1]
	c0, c1 := int64(coeffs[0]), int64(coeffs[1])
	p1, p2 := int64(s[1]), int64(s[0])
	for i := 2; i < len(s); i++ {
		sum := c0*p1 + c1*p2
		v := s[i] + int32((sum<<ls)>>rs)
		s[i] = v
		p2, p1 = p1, int64(v)
	}
}

func restoreOrder3(s []int32, coeffs []int32, ls, rs uint) {
	_ = coeffs[2]
	c0, c1, c2 := int64(coeffs[0]), int64(coeffs[1]), int64(coeffs[2])
	p1, p2, p3 := int64(s[2]), int64(s[1]), int64(s[0])
	for i := 3; i < len(s); i++ {
		sum := c0*p1 + c1*p2 + c2*p3
		v := s[i] + int32((sum<<ls)>>rs)
		s[i] = v
		p3, p2, p1 = p2, p1, int64(v)
	}
}

func restoreOrder4(s []int32, coeffs []int32, ls, rs uint) {
	_ = coeffs[3]
	c0, c1, c2, c3 := int64(coeffs[0]), int64(coeffs[1]), int64(coeffs[2]), int64(coeffs[3])
	p1, p2, p3, p4 := int64(s[3]), int64(s[2]), int64(s[1]), int64(s[0])
	for i := 4; i < len(s); i++ {
		sum := c0*p1 + c1*p2 + c2*p3 + c3*p4
		v := s[i] + int32((sum<<ls)>>rs)
		s[i] = v
		p4, p3, p2, p1 = p3, p2, p1, int64(v)
	}
}

func restoreOrder5(s []int32, coeffs []int32, ls, rs uint) {
	_ = coeffs[4]
	c0, c1, c2, c3, c4 := int64(coeffs[0]), int64(coeffs[1]), int64(coeffs[2]), int64(coeffs[3]), int64(coeffs[4])
	for i := 5; i < len(s); i++ {
		h := s[i-5 : i : i]
		_ = h[4]
		sum := c0*int64(h[4]) + c1*int64(h[3]) + c2*int64(h[2]) + c3*int64(h[1]) + c4*int64(h[0])
		s[i] += int32((sum << ls) >> rs)
	}
}

func restoreOrder6(s []int32, coeffs []int32, ls, rs uint) {
	_ = coeffs[5]
	c0, c1, c2 := int64(coeffs[0]), int64(coeffs[1]), int64(coeffs[2])
	c3, c4, c5 := int64(coeffs[3]), int64(coeffs[4]), int64(coeffs[5])
	for i := 6; i < len(s); i++ {
		h := s[i-6 : i : i]
		_ = h[5]
		sum := c0*int64(h[5]) + c1*int64(h[4]) + c2*int64(h[3]) +
			c3*int64(h[2]) + c4*int64(h[1]) + c5*int64(h[0])
		s[i] += int32((sum << ls) >> rs)
	}
}

func restoreOrder7(s []int32, coeffs []int32, ls, rs uint) {
	_ = coeffs[6]
	c0, c1, c2, c3 := int64(coeffs[0]), int64(coeffs[1]), int64(coeffs[2]), int64(coeffs[3])
	c4, c5, c6 := int64(coeffs[4]), int64(coeffs[5]), int64(coeffs[6])
	for i := 7; i < len(s); i++ {
		h := s[i-7 : i : i]
		_ = h[6]
		sum := c0*int64(h[6]) + c1*int64(h[5]) + c2*int64(h[4]) + c3*int64(h[3]) +
			c4*int64(h[2]) + c5*int64(h[1]) + c6*int64(h[0])
		s[i] += int32((sum << ls) >> rs)
	}
}

func restoreOrder8(s []int32, coeffs []int32, ls, rs uint) {
	_ = coeffs[7]
	c0, c1, c2, c3 := int64(coeffs[0]), int64(coeffs[1]), int64(coeffs[2]), int64(coeffs[3])
	c4, c5, c6, c7 := int64(coeffs[4]), int64(coeffs[5]), int64(coeffs[6]), int64(coeffs[7])
	for i := 8; i < len(s); i++ {
		h := s[i-8 : i : i]
		_ = h[7]
		sum := c0*int64(h[7]) + c1*int64(h[6]) + c2*int64(h[5]) + c3*int64(h[4]) +
			c4*int64(h[3]) + c5*int64(h[2]) + c6*int64(h[1]) + c7*int64(h[0])
		s[i] += int32((sum << ls) >> rs)
	}
}

func restoreOrder12(s []int32, coeffs []int32, ls, rs uint) {
	_ = coeffs[11]
	c0, c1, c2, c3 := int64(coeffs[0]), int64(coeffs[1]), int64(coeffs[2]), int64(coeffs[3])
	c4, c5, c6, c7 := int64(coeffs[4]), int64(coeffs[5]), int64(coeffs[6]), int64(coeffs[7])
	c8, c9, c10, c11 := int64(coeffs[8]), int64(coeffs[9]), int64(coeffs[10]), int64(coeffs[11])
	for i := 12; i < len(s); i++ {
		h := s[i-12 : i : i]
		_ = h[11]
		lo := c0*int64(h[11]) + c1*int64(h[10]) + c2*int64(h[9]) + c3*int64(h[8]) +
			c4*int64(h[7]) + c5*int64(h[6])
		hi := c6*int64(h[5]) + c7*int64(h[4]) + c8*int64(h[3]) + c9*int64(h[2]) +
			c10*int64(h[1]) + c11*int64(h[0])
		sum := lo + hi
		s[i] += int32((sum << ls) >> rs)
	}
}

// restoreOrderN handles the remaining orders up to MaxOrder. Coefficients
// are stored reversed so the window s[i-order:i] lines up with them and the
// dot product runs forward over both with four accumulators.
func restoreOrderN(s []int32, order int, coeffs []int32, ls, rs uint) {
	var rc [MaxOrder]int64
	for j := 0; j < order; j++ {
		rc[order-1-j] = int64(coeffs[j])
	}
	w := rc[:order:order]
	for i := order; i < len(s); i++ {
		h := s[i-order : i : i]
		h = h[:len(w)]
		var a0, a1, a2, a3 int64
		k := 0
		for ; k+3 < len(w); k += 4 {
			a0 += w[k] * int64(h[k])
			a1 += w[k+1] * int64(h[k+1])
			a2 += w[k+2] * int64(h[k+2])
			a3 += w[k+3] * int64(h[k+3])
		}
		for ; k < len(w); k++ {
			a0 += w[k] * int64(h[k])
		}
		sum := (a0 + a1) + (a2 + a3)
		s[i] += int32((sum << ls) >> rs)
	}
}
