package persistence

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/talgya/gridworld/internal/env"
)

const mongoOpTimeout = 5 * time.Second

// Mongo is a snapshot store backed by MongoDB, for deployments where the
// visualization stack reads world history out of a shared database.
type Mongo struct {
	client    *mongo.Client
	snapshots *mongo.Collection
}

// OpenMongo connects to MongoDB and prepares the snapshot collection.
func OpenMongo(ctx context.Context, uri, database string) (*Mongo, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return &Mongo{
		client:    client,
		snapshots: client.Database(database).Collection("snapshots"),
	}, nil
}

// Close disconnects from MongoDB.
func (m *Mongo) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}

// SaveSnapshot implements env.PersistenceSink. Inventory maps are re-keyed
// as strings because BSON documents cannot carry integer keys.
func (m *Mongo) SaveSnapshot(s env.Snapshot) error {
	ctx, cancel := context.WithTimeout(context.Background(), mongoOpTimeout)
	defer cancel()

	agents := make(bson.A, 0, len(s.Agents))
	for _, a := range s.Agents {
		inv := make(bson.M, len(a.Inventory))
		for id, qty := range a.Inventory {
			inv[strconv.Itoa(int(id))] = qty
		}
		agents = append(agents, bson.M{
			"id":                a.ID,
			"name":              a.Name,
			"color":             a.Color,
			"x":                 a.X,
			"y":                 a.Y,
			"step_reward":       a.StepReward,
			"cumulative_reward": a.CumulativeReward,
			"balance":           a.Balance,
			"inventory":         inv,
		})
	}

	doc := bson.M{
		"run_id":   s.RunID,
		"episode":  s.Episode,
		"timestep": s.Timestep,
		"grid":     s.Grid,
		"agents":   agents,
		"saved_at": time.Now().UTC(),
	}

	if _, err := m.snapshots.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert snapshot: %w", err)
	}
	return nil
}
