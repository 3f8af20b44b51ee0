package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type counterDoc struct {
	ID    primitive.ObjectID `bson:"_id,omitempty"`
	Name  string             `bson:"name"`
	Count int64              `bson:"count"`
	Tags  []string           `bson:"tags,omitempty"`
}

func seedCounters(t *testing.T) *MemoryStore[counterDoc] {
	t.Helper()
	s := NewMemoryStore[counterDoc]()
	ctx := context.Background()
	for _, doc := range []counterDoc{
		{Name: "alpha", Count: 1, Tags: []string{"a"}},
		{Name: "beta", Count: 5},
		{Name: "gamma", Count: 10, Tags: []string{"g"}},
	} {
		_, err := s.InsertOne(ctx, doc)
		require.NoError(t, err)
	}
	return s
}

func TestMemoryStore_FindWithOperators(t *testing.T) {
	s := seedCounters(t)
	ctx := context.Background()

	got, err := s.Find(ctx, bson.M{"count": bson.M{"$gte": int64(5)}}, nil)
	require.NoError(t, err)
	require.Len(t, got, 2)

	got, err = s.Find(ctx, bson.M{"name": bson.M{"$in": []string{"alpha", "gamma"}}}, nil)
	require.NoError(t, err)
	require.Len(t, got, 2)

	got, err = s.Find(ctx, bson.M{"name": bson.M{"$nin": []string{"alpha", "gamma"}}}, nil)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "beta", got[0].Name)

	got, err = s.Find(ctx, bson.M{"tags": bson.M{"$exists": false}}, nil)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "beta", got[0].Name)
}

func TestMemoryStore_InMatchesArrayFields(t *testing.T) {
	s := seedCounters(t)
	ctx := context.Background()

	// Semantics MongoDB: field mảng match $in khi bất kỳ phần tử nào nằm trong operand
	got, err := s.Find(ctx, bson.M{"tags": bson.M{"$in": []string{"a", "z"}}}, nil)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "alpha", got[0].Name)

	got, err = s.Find(ctx, bson.M{"tags": bson.M{"$in": []string{"z"}}}, nil)
	require.NoError(t, err)
	require.Empty(t, got)

	got, err = s.Find(ctx, bson.M{"tags": bson.M{"$nin": []string{"a"}}}, nil)
	require.NoError(t, err)
	require.Len(t, got, 2, "alpha chứa tag bị loại, beta và gamma còn lại")
}

func TestMemoryStore_FindSortAndLimit(t *testing.T) {
	s := seedCounters(t)
	limit := int64(2)

	got, err := s.Find(context.Background(), bson.M{}, &options.FindOptions{
		Sort:  bson.D{{Key: "count", Value: -1}},
		Limit: &limit,
	})
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, "gamma", got[0].Name, "sort giảm dần theo count")
	require.Equal(t, "beta", got[1].Name)
}

func TestMemoryStore_UpsertInsertThenUpdate(t *testing.T) {
	s := NewMemoryStore[counterDoc]()
	ctx := context.Background()

	created, err := s.Upsert(ctx, bson.M{"name": "alpha"}, counterDoc{Name: "alpha", Count: 1})
	require.NoError(t, err)
	require.False(t, created.ID.IsZero(), "insert qua upsert phải sinh _id")

	updated, err := s.Upsert(ctx, bson.M{"name": "alpha"}, counterDoc{Name: "alpha", Count: 9})
	require.NoError(t, err)
	require.Equal(t, created.ID, updated.ID, "upsert lần 2 phải update document cũ")
	require.Equal(t, int64(9), updated.Count)

	count, err := s.CountDocuments(ctx, bson.M{"name": "alpha"})
	require.NoError(t, err)
	require.Equal(t, int64(1), count)
}

func TestMemoryStore_UpsertMany(t *testing.T) {
	s := NewMemoryStore[counterDoc]()
	items := []counterDoc{
		{Name: "alpha", Count: 1},
		{Name: "beta", Count: 2},
		{Name: "alpha", Count: 3},
	}

	n, err := s.UpsertMany(context.Background(), items, func(d counterDoc) bson.M {
		return bson.M{"name": d.Name}
	})
	require.NoError(t, err)
	require.Equal(t, int64(3), n)

	total, err := s.CountDocuments(context.Background(), bson.M{})
	require.NoError(t, err)
	require.Equal(t, int64(2), total, "trùng natural key phải gộp về một document")

	doc, err := s.FindOne(context.Background(), bson.M{"name": "alpha"}, nil)
	require.NoError(t, err)
	require.Equal(t, int64(3), doc.Count)
}

func TestMemoryStore_UpdateOneInc(t *testing.T) {
	s := seedCounters(t)
	ctx := context.Background()

	err := s.UpdateOne(ctx, bson.M{"name": "beta"}, bson.M{"$inc": bson.M{"count": 1}})
	require.NoError(t, err)

	doc, err := s.FindOne(ctx, bson.M{"name": "beta"}, nil)
	require.NoError(t, err)
	require.Equal(t, int64(6), doc.Count)

	// Không match: no-op, không lỗi
	err = s.UpdateOne(ctx, bson.M{"name": "missing"}, bson.M{"$inc": bson.M{"count": 1}})
	require.NoError(t, err)
}

func TestMemoryStore_DeleteMany(t *testing.T) {
	s := seedCounters(t)
	ctx := context.Background()

	deleted, err := s.DeleteMany(ctx, bson.M{"name": bson.M{"$nin": []string{"beta"}}})
	require.NoError(t, err)
	require.Equal(t, int64(2), deleted)

	total, err := s.CountDocuments(ctx, bson.M{})
	require.NoError(t, err)
	require.Equal(t, int64(1), total)
}

func TestMemoryStore_FindOneNotFound(t *testing.T) {
	s := NewMemoryStore[counterDoc]()
	_, err := s.FindOne(context.Background(), bson.M{"name": "ghost"}, nil)
	require.Error(t, err)
}
