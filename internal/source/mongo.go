package source

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/itsmops/refdata-validator/pkg/models"
)

// ingest bookkeeping fields stamped by the ingestor, stripped on read
var ingestFields = map[string]bool{
	"_id":          true,
	"_ingested_at": true,
	"_source":      true,
}

// MongoSource fetches datasets from MongoDB collections named after them
type MongoSource struct {
	Client   *mongo.Client
	Database string
	Logger   *logrus.Logger
}

// NewMongoSource connects to MongoDB and verifies the connection with a
// ping, the same handshake the dashboard's ingest manager performed
func NewMongoSource(ctx context.Context, uri, database string, logger *logrus.Logger) (*MongoSource, error) {
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
	return &MongoSource{Client: client, Database: database, Logger: logger}, nil
}

// Fetch reads every document of the collection named after the dataset
func (s *MongoSource) Fetch(ctx context.Context, name string) (models.Table, error) {
	collection := s.Client.Database(s.Database).Collection(name)

	cursor, err := collection.Find(ctx, bson.D{})
	if err != nil {
		s.Logger.Errorf("Error querying collection %s: %v", name, err)
		return models.Table{}, err
	}

	var docs []bson.M
	if err := cursor.All(ctx, &docs); err != nil {
		return models.Table{}, err
	}

	table := models.Table{Name: name}
	seen := make(map[string]bool)

	for _, doc := range docs {
		row := make(models.Record, len(doc))
		for field, value := range doc {
			if ingestFields[field] {
				continue
			}
			if !seen[field] {
				seen[field] = true
				table.Columns = append(table.Columns, field)
			}
			row[field] = stringifyBSON(value)
		}
		table.Rows = append(table.Rows, row)
	}

	if s.Logger != nil {
		s.Logger.Debugf("Read %d documents from collection %s", len(table.Rows), name)
	}
	return table, nil
}

// Close disconnects the client
func (s *MongoSource) Close() error {
	if s.Client == nil {
		return nil
	}
	return s.Client.Disconnect(context.Background())
}

func stringifyBSON(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	default:
		return fmt.Sprintf("%v", val)
	}
}
