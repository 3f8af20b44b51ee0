package statssvc

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/DITreneris/shopsentiment-sub001/internal/utility"
)

// normalizeProductIDs trim khoảng trắng, loại bỏ id rỗng rồi sort + loại trùng.
func normalizeProductIDs(productIDs []string) []string {
	cleaned := make([]string, 0, len(productIDs))
	for _, id := range productIDs {
		if id = strings.TrimSpace(id); id != "" {
			cleaned = append(cleaned, id)
		}
	}
	return utility.SortedUnique(cleaned)
}

// ComparisonKey sinh khóa định danh cho một tập sản phẩm so sánh:
// SHA-256 hex của danh sách productId đã sort + loại trùng, nối bằng "|".
// Nhờ đó [A,B], [B,A] và [A,A,B] đều trỏ về cùng một document cache.
func ComparisonKey(productIDs []string) string {
	ids := normalizeProductIDs(productIDs)
	sum := sha256.Sum256([]byte(strings.Join(ids, "|")))
	return hex.EncodeToString(sum[:])
}
