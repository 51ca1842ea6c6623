package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitFee(t *testing.T) {
	tests := []struct {
		name  string
		total int64
		count int
		want  []int64
	}{
		{"remainder to first shares", 100, 3, []int64{34, 33, 33}},
		{"even split", 90000, 3, []int64{30000, 30000, 30000}},
		{"single share", 7, 1, []int64{7}},
		{"more shares than units", 2, 5, []int64{1, 1, 0, 0, 0}},
		{"zero total", 0, 4, []int64{0, 0, 0, 0}},
		{"zero count", 100, 0, []int64{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SplitFee(tt.total, tt.count))
		})
	}
}

func TestSplitFee_Properties(t *testing.T) {
	for total := int64(0); total <= 250; total += 7 {
		for count := 1; count <= 12; count++ {
			shares := SplitFee(total, count)
			assert.Len(t, shares, count)

			var sum, min, max int64
			min, max = shares[0], shares[0]
			for _, s := range shares {
				sum += s
				if s < min {
					min = s
				}
				if s > max {
					max = s
				}
			}
			assert.Equal(t, total, sum, "total=%d count=%d", total, count)
			assert.LessOrEqual(t, max-min, int64(1), "total=%d count=%d", total, count)
		}
	}
}
