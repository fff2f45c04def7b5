package graph

import (
	"context"
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/sirupsen/logrus"
)

const mergeConnectionCypher = `
	MERGE (a:User {id: $from})
	MERGE (b:User {id: $to})
	MERGE (a)-[r:CONNECTED]->(b)
	SET r.status = $status,
		r.score = $score,
		r.updated_at = datetime($updated_at)`

// Edge is one directed partner relationship mirrored into the graph.
type Edge struct {
	From      string
	To        string
	Status    string
	Score     float64
	UpdatedAt time.Time
}

func (e Edge) params() map[string]interface{} {
	updatedAt := e.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now()
	}
	return map[string]interface{}{
		"from":       e.From,
		"to":         e.To,
		"status":     e.Status,
		"score":      e.Score,
		"updated_at": updatedAt.UTC().Format(time.RFC3339),
	}
}

// ConnectionGraph mirrors partner connections into Neo4j as CONNECTED relationships.
type ConnectionGraph struct {
	driver   neo4j.DriverWithContext
	database string
	logger   *logrus.Logger
}

func NewConnectionGraph(driver neo4j.DriverWithContext, database string, logger *logrus.Logger) *ConnectionGraph {
	return &ConnectionGraph{
		driver:   driver,
		database: database,
		logger:   logger,
	}
}

// MergeConnection creates or updates the edge, creating both user nodes when missing.
func (g *ConnectionGraph) MergeConnection(ctx context.Context, edge Edge) error {
	if edge.From == "" || edge.To == "" {
		return fmt.Errorf("connection edge requires both user ids")
	}

	session := g.driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeWrite,
		DatabaseName: g.database,
	})
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (interface{}, error) {
		result, err := tx.Run(ctx, mergeConnectionCypher, edge.params())
		if err != nil {
			return nil, err
		}
		return result.Consume(ctx)
	})
	if err != nil {
		return fmt.Errorf("failed to merge connection %s->%s: %w", edge.From, edge.To, err)
	}

	g.logger.WithFields(logrus.Fields{
		"from":   edge.From,
		"to":     edge.To,
		"status": edge.Status,
	}).Debug("Mirrored partner connection")

	return nil
}
