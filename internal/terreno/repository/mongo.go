package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/terrenospy/terrenospy/internal/terreno"
)

// MongoRepo mirrors the full listing document into a Mongo collection. The
// flat data.json file stays authoritative; the mirror gives deployments a
// queryable copy and a second recovery source. One document per save, keyed
// by a fixed id, replace-upsert, with the same last-writer-wins semantics as
// the file store.
type MongoRepo struct {
	col *mongo.Collection
}

const mirrorID = "terrenos_py"

type mirrorDoc struct {
	ID       string            `bson:"_id"`
	Terrenos []terreno.Terreno `bson:"terrenos"`
	SavedAt  time.Time         `bson:"savedAt"`
}

func NewMongoRepo(col *mongo.Collection) *MongoRepo {
	return &MongoRepo{col: col}
}

// Save upserts the whole working set as one document.
func (m *MongoRepo) Save(ctx context.Context, ts []terreno.Terreno) error {
	doc := mirrorDoc{ID: mirrorID, Terrenos: ts, SavedAt: time.Now().UTC()}
	opts := options.Replace().SetUpsert(true)
	_, err := m.col.ReplaceOne(ctx, bson.M{"_id": mirrorID}, doc, opts)
	return err
}

// Load returns the mirrored working set, or ErrNotFound when no mirror
// document has been written yet.
func (m *MongoRepo) Load(ctx context.Context) ([]terreno.Terreno, error) {
	var doc mirrorDoc
	err := m.col.FindOne(ctx, bson.M{"_id": mirrorID}).Decode(&doc)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return doc.Terrenos, nil
}
