package bootstrap

import (
	"go.mongodb.org/mongo-driver/bson"
)

// Collection names.
const (
	UsersCollection    = "users"
	ProductsCollection = "products"
)

// Index is a named index declaration. Keys keeps field order, which matters
// for compound and text indexes.
type Index struct {
	Name   string
	Keys   bson.D
	Unique bool
}

// CollectionSpec is a collection and the indexes it must carry.
type CollectionSpec struct {
	Name    string
	Indexes []Index
}

// Schema declares a database layout.
type Schema struct {
	Database    string
	Collections []CollectionSpec
}

// DefaultSchema returns the TradeCo layout for the named database.
//
// Index names follow MongoDB's default naming so that indexes created by
// other tools with the same keys are recognised as identical.
func DefaultSchema(database string) Schema {
	return Schema{
		Database: database,
		Collections: []CollectionSpec{
			{
				Name: UsersCollection,
				Indexes: []Index{
					{Name: "email_1", Keys: bson.D{{Key: "email", Value: 1}}, Unique: true},
					{Name: "username_1", Keys: bson.D{{Key: "username", Value: 1}}, Unique: true},
				},
			},
			{
				Name: ProductsCollection,
				Indexes: []Index{
					{Name: "user_id_1", Keys: bson.D{{Key: "user_id", Value: 1}}},
					{Name: "categoria_1", Keys: bson.D{{Key: "categoria", Value: 1}}},
					{Name: "created_at_-1", Keys: bson.D{{Key: "created_at", Value: -1}}},
					{
						Name: "nombre_text_descripcion_text",
						Keys: bson.D{{Key: "nombre", Value: "text"}, {Key: "descripcion", Value: "text"}},
					},
				},
			},
		},
	}
}
