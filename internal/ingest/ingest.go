package ingest

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/itsmops/refdata-validator/pkg/models"
)

// metadataCollection tracks what was ingested and when
const metadataCollection = "data_metadata"

// Ingestor seeds MongoDB collections from validated tables. Each dataset
// maps to the collection of the same name; existing documents are replaced
// wholesale, the way the dashboard reseeded its collections.
type Ingestor struct {
	Client   *mongo.Client
	Database string
	Logger   *logrus.Logger
}

// NewIngestor connects to MongoDB and verifies the connection
func NewIngestor(ctx context.Context, uri, database string, logger *logrus.Logger) (*Ingestor, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		logger.Errorf("Failed to connect to MongoDB: %v", err)
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		logger.Errorf("Failed to ping MongoDB: %v", err)
		return nil, err
	}

	logger.Infof("Connected to MongoDB at %s", uri)
	return &Ingestor{Client: client, Database: database, Logger: logger}, nil
}

// IngestTable replaces the collection contents with the table's rows,
// stamping each document with ingest metadata
func (ing *Ingestor) IngestTable(ctx context.Context, table models.Table, sourceName string) error {
	db := ing.Client.Database(ing.Database)
	collection := db.Collection(table.Name)

	if _, err := collection.DeleteMany(ctx, bson.D{}); err != nil {
		ing.Logger.Errorf("Failed to clear collection %s: %v", table.Name, err)
		return err
	}

	if len(table.Rows) > 0 {
		now := time.Now().UTC()
		docs := make([]interface{}, 0, len(table.Rows))
		for _, row := range table.Rows {
			doc := bson.M{}
			for _, col := range table.Columns {
				doc[col] = row[col]
			}
			doc["_ingested_at"] = now
			doc["_source"] = sourceName
			docs = append(docs, doc)
		}

		if _, err := collection.InsertMany(ctx, docs); err != nil {
			ing.Logger.Errorf("Failed to insert into collection %s: %v", table.Name, err)
			return err
		}
	}

	ing.Logger.Infof("Ingested %d documents into collection %s", len(table.Rows), table.Name)
	return ing.updateMetadata(ctx, table.Name, len(table.Rows), sourceName)
}

// IngestAll ingests tables in load-plan order
func (ing *Ingestor) IngestAll(ctx context.Context, order []string, tables map[string]models.Table, sourceName string) error {
	for _, name := range order {
		table, ok := tables[name]
		if !ok {
			continue
		}
		if err := ing.IngestTable(ctx, table, sourceName); err != nil {
			return err
		}
	}
	return nil
}

// Stats returns the document count of each named collection
func (ing *Ingestor) Stats(ctx context.Context, names []string) (map[string]int64, error) {
	db := ing.Client.Database(ing.Database)
	stats := make(map[string]int64, len(names))
	for _, name := range names {
		count, err := db.Collection(name).CountDocuments(ctx, bson.D{})
		if err != nil {
			return nil, err
		}
		stats[name] = count
	}
	return stats, nil
}

func (ing *Ingestor) updateMetadata(ctx context.Context, collection string, count int, sourceName string) error {
	metadata := bson.M{
		"_id":           collection + "_metadata",
		"collection":    collection,
		"record_count":  count,
		"source":        sourceName,
		"last_ingested": time.Now().UTC(),
		"status":        "success",
	}

	_, err := ing.Client.Database(ing.Database).Collection(metadataCollection).ReplaceOne(
		ctx,
		bson.M{"_id": collection + "_metadata"},
		metadata,
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		ing.Logger.Errorf("Failed to update ingest metadata for %s: %v", collection, err)
	}
	return err
}

// Close disconnects the client
func (ing *Ingestor) Close() error {
	if ing.Client == nil {
		return nil
	}
	return ing.Client.Disconnect(context.Background())
}
