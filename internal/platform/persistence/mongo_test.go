package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// mongo.Connect does not dial, so an unreachable address gives a usable client
func newUnreachableMongo(t *testing.T) *MongoDB {
	t.Helper()
	client, err := mongo.Connect(context.Background(), options.Client().
		ApplyURI("mongodb://127.0.0.1:1").
		SetServerSelectionTimeout(50*time.Millisecond))
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Disconnect(context.Background()) })

	return &MongoDB{
		logger:   discardLogger,
		client:   client,
		database: client.Database("voucher_alerts"),
		timeout:  100 * time.Millisecond,
	}
}

func TestMongoDB_Accessors(t *testing.T) {
	m := newUnreachableMongo(t)

	assert.Equal(t, "voucher_alerts", m.Database().Name())
	assert.Equal(t, "alerts", m.Collection("alerts").Name())
}

func TestMongoDB_PingUnreachable(t *testing.T) {
	m := newUnreachableMongo(t)

	err := m.Ping(context.Background())
	assert.ErrorContains(t, err, "failed to ping MongoDB")
}
