package bulkwrite

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func TestOperationWriteModel(t *testing.T) {
	upsert := true
	collation := &options.Collation{Locale: "en", Strength: 2}
	filter := bson.D{{Key: "x", Value: 1}}
	update := bson.D{{Key: "$set", Value: bson.D{{Key: "a", Value: 1}}}}
	arrayFilters := []interface{}{bson.D{{Key: "elem.grade", Value: bson.D{{Key: "$gte", Value: 85}}}}}

	t.Run("insertOne", func(t *testing.T) {
		doc := bson.D{{Key: "x", Value: 1}}
		m, ok := InsertOneOperation{Document: doc}.WriteModel().(*mongo.InsertOneModel)
		require.True(t, ok)
		assert.Equal(t, doc, m.Document)
	})

	t.Run("replaceOne", func(t *testing.T) {
		op := ReplaceOneOperation{Filter: filter, Replacement: bson.D{{Key: "y", Value: 2}}, Collation: collation, Hint: "x_1", Upsert: &upsert}
		m, ok := op.WriteModel().(*mongo.ReplaceOneModel)
		require.True(t, ok)
		assert.Equal(t, filter, m.Filter)
		assert.Equal(t, bson.D{{Key: "y", Value: 2}}, m.Replacement)
		assert.Same(t, collation, m.Collation)
		assert.Equal(t, "x_1", m.Hint)
		require.NotNil(t, m.Upsert)
		assert.True(t, *m.Upsert)
	})

	t.Run("updateOne", func(t *testing.T) {
		op := UpdateOneOperation{Filter: filter, Update: update, ArrayFilters: arrayFilters}
		m, ok := op.WriteModel().(*mongo.UpdateOneModel)
		require.True(t, ok)
		assert.Equal(t, filter, m.Filter)
		assert.Equal(t, update, m.Update)
		assert.Nil(t, m.Upsert)
		assert.Nil(t, m.Collation)
		assert.Nil(t, m.Hint)
		require.NotNil(t, m.ArrayFilters)
		assert.Equal(t, arrayFilters, m.ArrayFilters.Filters)
	})

	t.Run("updateMany", func(t *testing.T) {
		op := UpdateManyOperation{Filter: filter, Update: update, Upsert: &upsert}
		m, ok := op.WriteModel().(*mongo.UpdateManyModel)
		require.True(t, ok)
		assert.Equal(t, update, m.Update)
		require.NotNil(t, m.Upsert)
		assert.True(t, *m.Upsert)
		assert.Nil(t, m.ArrayFilters)
	})

	t.Run("deleteOne", func(t *testing.T) {
		m, ok := DeleteOneOperation{Filter: filter, Hint: "x_1"}.WriteModel().(*mongo.DeleteOneModel)
		require.True(t, ok)
		assert.Equal(t, filter, m.Filter)
		assert.Equal(t, "x_1", m.Hint)
		assert.Nil(t, m.Collation)
	})

	t.Run("deleteMany", func(t *testing.T) {
		m, ok := DeleteManyOperation{Filter: filter, Collation: collation}.WriteModel().(*mongo.DeleteManyModel)
		require.True(t, ok)
		assert.Equal(t, filter, m.Filter)
		assert.Same(t, collation, m.Collation)
	})
}

func TestOperationKind(t *testing.T) {
	tests := []struct {
		op   Operation
		kind OperationKind
	}{
		{InsertOneOperation{}, KindInsertOne},
		{ReplaceOneOperation{}, KindReplaceOne},
		{UpdateOneOperation{}, KindUpdateOne},
		{UpdateManyOperation{}, KindUpdateMany},
		{DeleteOneOperation{}, KindDeleteOne},
		{DeleteManyOperation{}, KindDeleteMany},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			assert.Equal(t, tt.kind, tt.op.Kind())
		})
	}
}

func TestOperationMarshalBSON(t *testing.T) {
	upsert := false
	op := UpdateManyOperation{
		Filter:       bson.D{{Key: "x", Value: bson.D{{Key: "$gt", Value: 1}}}},
		Update:       bson.D{{Key: "$set", Value: bson.D{{Key: "a", Value: 2}}}},
		Upsert:       &upsert,
		ArrayFilters: []interface{}{bson.D{{Key: "e", Value: 1}}},
	}

	raw, err := bson.Marshal(op)
	require.NoError(t, err)

	out, err := bson.MarshalExtJSON(bson.Raw(raw), false, false)
	require.NoError(t, err)
	assert.JSONEq(t, `{"updateMany":{"filter":{"x":{"$gt":1}},"update":{"$set":{"a":2}},"upsert":false,"arrayFilters":[{"e":1}]}}`, string(out))
}
