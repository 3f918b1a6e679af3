package bulkwrite

import (
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// Result summarizes one flush. Count is the number of operations captured;
// when it is zero no call was made and Bulk is nil.
type Result struct {
	Name  string                 `json:"name"`
	Count int                    `json:"count"`
	Bulk  *mongo.BulkWriteResult `json:"bulk,omitempty"`
}

// Snapshot is the serialized form of an Accumulator's pending operations.
type Snapshot struct {
	Name       string
	Operations []Operation
}

// MarshalJSON renders the snapshot as relaxed extended JSON.
func (s Snapshot) MarshalJSON() ([]byte, error) {
	ops := s.Operations
	if ops == nil {
		ops = []Operation{}
	}
	return bson.MarshalExtJSON(bson.D{
		{Key: "name", Value: s.Name},
		{Key: "operations", Value: ops},
	}, false, false)
}
