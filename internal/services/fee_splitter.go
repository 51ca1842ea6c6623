package services

// SplitFee divides total into count integer shares that sum to total and differ
// by at most one. The first total%count shares carry the extra unit. A zero
// count yields an empty slice, which writes off any non-zero total.
func SplitFee(total int64, count int) []int64 {
	if count <= 0 {
		return []int64{}
	}

	base := total / int64(count)
	shares := make([]int64, count)
	for i := range shares {
		shares[i] = base
	}

	remainder := total - base*int64(count)
	for i := int64(0); i < remainder; i++ {
		shares[i]++
	}
	return shares
}
