package statssvc

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestComparisonKey_OrderIndependent(t *testing.T) {
	h1 := ComparisonKey([]string{"B001", "B002"})
	h2 := ComparisonKey([]string{"B002", "B001"})
	require.Equal(t, h1, h2, "hash phải giống nhau với mọi thứ tự productIds")
}

func TestComparisonKey_DeduplicatesIDs(t *testing.T) {
	h1 := ComparisonKey([]string{"B001", "B002"})
	h2 := ComparisonKey([]string{"B001", "B001", "B002"})
	require.Equal(t, h1, h2, "productId trùng lặp không được đổi hash")
}

func TestComparisonKey_DifferentSetsDiffer(t *testing.T) {
	h1 := ComparisonKey([]string{"B001", "B002"})
	h2 := ComparisonKey([]string{"B001", "B003"})
	require.NotEqual(t, h1, h2)
}

func TestComparisonKey_HexSHA256(t *testing.T) {
	h := ComparisonKey([]string{"B001"})
	require.Len(t, h, 64, "hash phải là SHA-256 hex (64 ký tự)")
}
