package utility

import "sort"

// SortedUnique trả về một slice mới đã sắp xếp và loại bỏ trùng lặp.
// Slice gốc không bị thay đổi.
func SortedUnique(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))
	for _, item := range items {
		if _, ok := seen[item]; ok {
			continue
		}
		seen[item] = struct{}{}
		out = append(out, item)
	}
	sort.Strings(out)
	return out
}
