package bulkwrite

import (
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// OperationKind is the tag of a pending write operation.
type OperationKind string

const (
	KindInsertOne  OperationKind = "insertOne"
	KindReplaceOne OperationKind = "replaceOne"
	KindUpdateOne  OperationKind = "updateOne"
	KindUpdateMany OperationKind = "updateMany"
	KindDeleteOne  OperationKind = "deleteOne"
	KindDeleteMany OperationKind = "deleteMany"
)

// Operation is a single pending write. Payloads are forwarded to the driver
// as they are; nothing here validates filters, documents or updates.
type Operation interface {
	bson.Marshaler

	// Kind returns the operation tag.
	Kind() OperationKind

	// WriteModel converts the operation into the driver's bulk write model.
	WriteModel() mongo.WriteModel

	operation()
}

var (
	_ Operation = InsertOneOperation{}
	_ Operation = ReplaceOneOperation{}
	_ Operation = UpdateOneOperation{}
	_ Operation = UpdateManyOperation{}
	_ Operation = DeleteOneOperation{}
	_ Operation = DeleteManyOperation{}
)

// InsertOneOperation inserts a single document.
type InsertOneOperation struct {
	Document interface{}
}

func (InsertOneOperation) operation() {}

func (InsertOneOperation) Kind() OperationKind { return KindInsertOne }

func (o InsertOneOperation) WriteModel() mongo.WriteModel {
	return mongo.NewInsertOneModel().SetDocument(o.Document)
}

func (o InsertOneOperation) MarshalBSON() ([]byte, error) {
	return marshalOperation(o.Kind(), bson.D{{Key: "document", Value: o.Document}})
}

// ReplaceOneOperation replaces the first document matching Filter.
type ReplaceOneOperation struct {
	Filter      interface{}
	Replacement interface{}
	Collation   *options.Collation
	Hint        interface{}
	Upsert      *bool
}

func (ReplaceOneOperation) operation() {}

func (ReplaceOneOperation) Kind() OperationKind { return KindReplaceOne }

func (o ReplaceOneOperation) WriteModel() mongo.WriteModel {
	m := mongo.NewReplaceOneModel().SetFilter(o.Filter).SetReplacement(o.Replacement)
	if o.Collation != nil {
		m.SetCollation(o.Collation)
	}
	if o.Hint != nil {
		m.SetHint(o.Hint)
	}
	if o.Upsert != nil {
		m.SetUpsert(*o.Upsert)
	}
	return m
}

func (o ReplaceOneOperation) MarshalBSON() ([]byte, error) {
	body := bson.D{
		{Key: "filter", Value: o.Filter},
		{Key: "replacement", Value: o.Replacement},
	}
	body = appendCommon(body, o.Collation, o.Hint, o.Upsert, nil)
	return marshalOperation(o.Kind(), body)
}

// UpdateOneOperation updates the first document matching Filter.
type UpdateOneOperation struct {
	Filter       interface{}
	Update       interface{}
	Collation    *options.Collation
	Hint         interface{}
	Upsert       *bool
	ArrayFilters []interface{}
}

func (UpdateOneOperation) operation() {}

func (UpdateOneOperation) Kind() OperationKind { return KindUpdateOne }

func (o UpdateOneOperation) WriteModel() mongo.WriteModel {
	m := mongo.NewUpdateOneModel().SetFilter(o.Filter).SetUpdate(o.Update)
	if o.Collation != nil {
		m.SetCollation(o.Collation)
	}
	if o.Hint != nil {
		m.SetHint(o.Hint)
	}
	if o.Upsert != nil {
		m.SetUpsert(*o.Upsert)
	}
	if o.ArrayFilters != nil {
		m.SetArrayFilters(options.ArrayFilters{Filters: o.ArrayFilters})
	}
	return m
}

func (o UpdateOneOperation) MarshalBSON() ([]byte, error) {
	body := bson.D{
		{Key: "filter", Value: o.Filter},
		{Key: "update", Value: o.Update},
	}
	body = appendCommon(body, o.Collation, o.Hint, o.Upsert, o.ArrayFilters)
	return marshalOperation(o.Kind(), body)
}

// UpdateManyOperation updates every document matching Filter.
type UpdateManyOperation struct {
	Filter       interface{}
	Update       interface{}
	Collation    *options.Collation
	Hint         interface{}
	Upsert       *bool
	ArrayFilters []interface{}
}

func (UpdateManyOperation) operation() {}

func (UpdateManyOperation) Kind() OperationKind { return KindUpdateMany }

func (o UpdateManyOperation) WriteModel() mongo.WriteModel {
	m := mongo.NewUpdateManyModel().SetFilter(o.Filter).SetUpdate(o.Update)
	if o.Collation != nil {
		m.SetCollation(o.Collation)
	}
	if o.Hint != nil {
		m.SetHint(o.Hint)
	}
	if o.Upsert != nil {
		m.SetUpsert(*o.Upsert)
	}
	if o.ArrayFilters != nil {
		m.SetArrayFilters(options.ArrayFilters{Filters: o.ArrayFilters})
	}
	return m
}

func (o UpdateManyOperation) MarshalBSON() ([]byte, error) {
	body := bson.D{
		{Key: "filter", Value: o.Filter},
		{Key: "update", Value: o.Update},
	}
	body = appendCommon(body, o.Collation, o.Hint, o.Upsert, o.ArrayFilters)
	return marshalOperation(o.Kind(), body)
}

// DeleteOneOperation deletes the first document matching Filter.
type DeleteOneOperation struct {
	Filter    interface{}
	Collation *options.Collation
	Hint      interface{}
}

func (DeleteOneOperation) operation() {}

func (DeleteOneOperation) Kind() OperationKind { return KindDeleteOne }

func (o DeleteOneOperation) WriteModel() mongo.WriteModel {
	m := mongo.NewDeleteOneModel().SetFilter(o.Filter)
	if o.Collation != nil {
		m.SetCollation(o.Collation)
	}
	if o.Hint != nil {
		m.SetHint(o.Hint)
	}
	return m
}

func (o DeleteOneOperation) MarshalBSON() ([]byte, error) {
	body := appendCommon(bson.D{{Key: "filter", Value: o.Filter}}, o.Collation, o.Hint, nil, nil)
	return marshalOperation(o.Kind(), body)
}

// DeleteManyOperation deletes every document matching Filter.
type DeleteManyOperation struct {
	Filter    interface{}
	Collation *options.Collation
	Hint      interface{}
}

func (DeleteManyOperation) operation() {}

func (DeleteManyOperation) Kind() OperationKind { return KindDeleteMany }

func (o DeleteManyOperation) WriteModel() mongo.WriteModel {
	m := mongo.NewDeleteManyModel().SetFilter(o.Filter)
	if o.Collation != nil {
		m.SetCollation(o.Collation)
	}
	if o.Hint != nil {
		m.SetHint(o.Hint)
	}
	return m
}

func (o DeleteManyOperation) MarshalBSON() ([]byte, error) {
	body := appendCommon(bson.D{{Key: "filter", Value: o.Filter}}, o.Collation, o.Hint, nil, nil)
	return marshalOperation(o.Kind(), body)
}

// marshalOperation renders {<kind>: body}, the same shape the shell and
// other drivers use for bulk write requests.
func marshalOperation(kind OperationKind, body bson.D) ([]byte, error) {
	return bson.Marshal(bson.D{{Key: string(kind), Value: body}})
}

func appendCommon(body bson.D, collation *options.Collation, hint interface{}, upsert *bool, arrayFilters []interface{}) bson.D {
	if collation != nil {
		body = append(body, bson.E{Key: "collation", Value: collation.ToDocument()})
	}
	if hint != nil {
		body = append(body, bson.E{Key: "hint", Value: hint})
	}
	if upsert != nil {
		body = append(body, bson.E{Key: "upsert", Value: *upsert})
	}
	if arrayFilters != nil {
		body = append(body, bson.E{Key: "arrayFilters", Value: arrayFilters})
	}
	return body
}
