package store

import (
	"context"
	"reflect"
	"sort"
	"sync"
	"time"

	"github.com/DITreneris/shopsentiment-sub001/internal/common"
	"github.com/DITreneris/shopsentiment-sub001/internal/utility"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MemoryStore triển khai DocumentStore trên bộ nhớ, dùng cho unit test.
// Documents được giữ dưới dạng map (qua bson round-trip) để filter semantics
// giống với MongoDB ở mức tập toán tử được hỗ trợ: equality, $in, $nin,
// $ne, $gt, $gte, $lt, $lte, $exists.
type MemoryStore[T any] struct {
	mu   sync.RWMutex
	docs []map[string]interface{}
}

// NewMemoryStore tạo một MemoryStore rỗng
func NewMemoryStore[T any]() *MemoryStore[T] {
	return &MemoryStore[T]{}
}

// InsertOne tạo mới một bản ghi
func (s *MemoryStore[T]) InsertOne(ctx context.Context, data T) (T, error) {
	var zero T

	dataMap, err := utility.ToMap(data)
	if err != nil {
		return zero, common.ErrInvalidFormat
	}

	now := time.Now().UnixMilli()
	dataMap["_id"] = primitive.NewObjectID()
	dataMap["createdAt"] = now
	dataMap["updatedAt"] = now

	s.mu.Lock()
	s.docs = append(s.docs, dataMap)
	s.mu.Unlock()

	return decodeDoc[T](dataMap)
}

// FindOne tìm một document theo điều kiện lọc
func (s *MemoryStore[T]) FindOne(ctx context.Context, filter bson.M, opts *options.FindOneOptions) (T, error) {
	var zero T

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, doc := range s.docs {
		if matchFilter(doc, filter) {
			return decodeDoc[T](doc)
		}
	}
	return zero, common.ErrNotFound
}

// Find tìm tất cả bản ghi theo điều kiện lọc
func (s *MemoryStore[T]) Find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]T, error) {
	s.mu.RLock()
	matched := []map[string]interface{}{}
	for _, doc := range s.docs {
		if matchFilter(doc, filter) {
			matched = append(matched, doc)
		}
	}
	s.mu.RUnlock()

	if opts != nil && opts.Sort != nil {
		applySort(matched, opts.Sort)
	}
	if opts != nil && opts.Limit != nil && int64(len(matched)) > *opts.Limit {
		matched = matched[:*opts.Limit]
	}

	results := make([]T, 0, len(matched))
	for _, doc := range matched {
		item, err := decodeDoc[T](doc)
		if err != nil {
			return nil, err
		}
		results = append(results, item)
	}
	return results, nil
}

// Upsert cập nhật document match filter hoặc tạo mới nếu chưa có
func (s *MemoryStore[T]) Upsert(ctx context.Context, filter bson.M, data T) (T, error) {
	var zero T

	setMap, err := upsertSetMap(data)
	if err != nil {
		return zero, common.ErrInvalidFormat
	}
	now := time.Now().UnixMilli()

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, doc := range s.docs {
		if matchFilter(doc, filter) {
			for k, v := range setMap {
				doc[k] = v
			}
			doc["updatedAt"] = now
			return decodeDoc[T](doc)
		}
	}

	// Không match - tạo mới, filter fields làm natural key
	newDoc := map[string]interface{}{}
	for k, v := range filter {
		if !isOperatorValue(v) {
			newDoc[k] = v
		}
	}
	for k, v := range setMap {
		newDoc[k] = v
	}
	newDoc["_id"] = primitive.NewObjectID()
	newDoc["createdAt"] = now
	newDoc["updatedAt"] = now
	s.docs = append(s.docs, newDoc)

	return decodeDoc[T](newDoc)
}

// UpsertMany upsert từng item theo natural key của nó
func (s *MemoryStore[T]) UpsertMany(ctx context.Context, data []T, keyOf KeyFunc[T]) (int64, error) {
	var count int64
	for _, item := range data {
		if _, err := s.Upsert(ctx, keyOf(item), item); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

// UpdateOne áp dụng update document thô ($set, $inc) lên document match filter
func (s *MemoryStore[T]) UpdateOne(ctx context.Context, filter bson.M, update bson.M) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, doc := range s.docs {
		if !matchFilter(doc, filter) {
			continue
		}
		if setVal, ok := update["$set"].(bson.M); ok {
			for k, v := range setVal {
				doc[k] = v
			}
		}
		if incVal, ok := update["$inc"].(bson.M); ok {
			for k, v := range incVal {
				cur, _ := toFloat(doc[k])
				delta, _ := toFloat(v)
				doc[k] = int64(cur + delta)
			}
		}
		doc["updatedAt"] = time.Now().UnixMilli()
		return nil
	}
	return nil
}

// DeleteMany xóa các document match filter
func (s *MemoryStore[T]) DeleteMany(ctx context.Context, filter bson.M) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var kept []map[string]interface{}
	var deleted int64
	for _, doc := range s.docs {
		if matchFilter(doc, filter) {
			deleted++
			continue
		}
		kept = append(kept, doc)
	}
	s.docs = kept
	return deleted, nil
}

// CountDocuments đếm số lượng document match filter
func (s *MemoryStore[T]) CountDocuments(ctx context.Context, filter bson.M) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int64
	for _, doc := range s.docs {
		if matchFilter(doc, filter) {
			count++
		}
	}
	return count, nil
}

// decodeDoc chuyển map về model qua bson round-trip
func decodeDoc[T any](doc map[string]interface{}) (T, error) {
	var result T
	raw, err := bson.Marshal(doc)
	if err != nil {
		return result, common.ErrInvalidFormat
	}
	if err := bson.Unmarshal(raw, &result); err != nil {
		return result, common.ErrInvalidFormat
	}
	return result, nil
}

// matchFilter đánh giá filter bson.M trên một document
func matchFilter(doc map[string]interface{}, filter bson.M) bool {
	for field, cond := range filter {
		value, exists := doc[field]

		condMap, isMap := asConditionMap(cond)
		if !isMap {
			// Equality đơn giản
			if !exists || !equalValues(value, cond) {
				return false
			}
			continue
		}

		for op, operand := range condMap {
			switch op {
			case "$exists":
				want, _ := operand.(bool)
				if exists != want {
					return false
				}
			case "$eq":
				if !exists || !equalValues(value, operand) {
					return false
				}
			case "$ne":
				if exists && equalValues(value, operand) {
					return false
				}
			case "$in":
				if !exists || !anyValueIn(operand, value) {
					return false
				}
			case "$nin":
				if exists && anyValueIn(operand, value) {
					return false
				}
			case "$gt", "$gte", "$lt", "$lte":
				if !exists || !compareNumeric(value, operand, op) {
					return false
				}
			default:
				return false
			}
		}
	}
	return true
}

// asConditionMap nhận diện giá trị filter là operator map hay literal
func asConditionMap(cond interface{}) (map[string]interface{}, bool) {
	var m map[string]interface{}
	switch v := cond.(type) {
	case bson.M:
		m = v
	case map[string]interface{}:
		m = v
	default:
		return nil, false
	}
	for k := range m {
		if len(k) == 0 || k[0] != '$' {
			return nil, false
		}
	}
	return m, len(m) > 0
}

func isOperatorValue(v interface{}) bool {
	_, ok := asConditionMap(v)
	return ok
}

// anyValueIn áp dụng semantics $in của MongoDB: field mảng match khi bất kỳ
// phần tử nào của nó nằm trong operand, field scalar match khi chính nó nằm trong operand.
func anyValueIn(operand interface{}, value interface{}) bool {
	rv := reflect.ValueOf(value)
	if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
		for i := 0; i < rv.Len(); i++ {
			if containsValue(operand, rv.Index(i).Interface()) {
				return true
			}
		}
		return false
	}
	return containsValue(operand, value)
}

// containsValue kiểm tra value có trong slice operand không
func containsValue(operand interface{}, value interface{}) bool {
	rv := reflect.ValueOf(operand)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return false
	}
	for i := 0; i < rv.Len(); i++ {
		if equalValues(value, rv.Index(i).Interface()) {
			return true
		}
	}
	return false
}

// equalValues so sánh hai giá trị, chấp nhận khác biệt kiểu số sau bson round-trip
func equalValues(a, b interface{}) bool {
	if fa, ok := toFloat(a); ok {
		if fb, ok := toFloat(b); ok {
			return fa == fb
		}
		return false
	}
	return reflect.DeepEqual(a, b)
}

// compareNumeric so sánh theo toán tử $gt/$gte/$lt/$lte
func compareNumeric(value, operand interface{}, op string) bool {
	fv, ok1 := toFloat(value)
	fo, ok2 := toFloat(operand)
	if !ok1 || !ok2 {
		return false
	}
	switch op {
	case "$gt":
		return fv > fo
	case "$gte":
		return fv >= fo
	case "$lt":
		return fv < fo
	case "$lte":
		return fv <= fo
	}
	return false
}

// toFloat chuyển các kiểu số và thời gian về float64 để so sánh
func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	case time.Time:
		return float64(n.UnixMilli()), true
	case primitive.DateTime:
		return float64(n), true
	default:
		return 0, false
	}
}

// applySort sắp xếp documents theo sort spec (bson.D hoặc bson.M một key)
func applySort(docs []map[string]interface{}, sortSpec interface{}) {
	var key string
	order := 1

	switch spec := sortSpec.(type) {
	case bson.D:
		if len(spec) == 0 {
			return
		}
		key = spec[0].Key
		if o, ok := toFloat(spec[0].Value); ok && o < 0 {
			order = -1
		}
	case bson.M:
		for k, v := range spec {
			key = k
			if o, ok := toFloat(v); ok && o < 0 {
				order = -1
			}
			break
		}
	default:
		return
	}

	sort.SliceStable(docs, func(i, j int) bool {
		fi, oki := toFloat(docs[i][key])
		fj, okj := toFloat(docs[j][key])
		if oki && okj {
			if order > 0 {
				return fi < fj
			}
			return fi > fj
		}
		si, _ := docs[i][key].(string)
		sj, _ := docs[j][key].(string)
		if order > 0 {
			return si < sj
		}
		return si > sj
	})
}
