package graph

import (
	"context"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestEdge_Params(t *testing.T) {
	at := time.Date(2025, 3, 10, 9, 30, 0, 0, time.FixedZone("CET", 3600))
	params := Edge{From: "u1", To: "u2", Status: "accepted", Score: 87.5, UpdatedAt: at}.params()

	assert.Equal(t, "u1", params["from"])
	assert.Equal(t, "u2", params["to"])
	assert.Equal(t, "accepted", params["status"])
	assert.Equal(t, 87.5, params["score"])
	assert.Equal(t, "2025-03-10T08:30:00Z", params["updated_at"])
}

func TestEdge_ParamsDefaultsTimestamp(t *testing.T) {
	params := Edge{From: "u1", To: "u2"}.params()

	parsed, err := time.Parse(time.RFC3339, params["updated_at"].(string))
	assert.NoError(t, err)
	assert.WithinDuration(t, time.Now(), parsed, time.Minute)
}

func TestConnectionGraph_MergeConnectionRequiresIDs(t *testing.T) {
	g := NewConnectionGraph(nil, "neo4j", logrus.New())

	err := g.MergeConnection(context.Background(), Edge{From: "u1"})
	assert.Error(t, err)
}
