package kafka

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/couchcryptid/fire-index-etl/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapMessageToRawEvent(t *testing.T) {
	now := time.Now()
	msg := kafkago.Message{
		Key:       []byte("scene-1"),
		Value:     []byte(`{"uri":"/data/scene-1.json"}`),
		Topic:     "fire-scene-requests",
		Partition: 2,
		Offset:    42,
		Time:      now,
		Headers: []kafkago.Header{
			{Key: "source", Value: []byte("archive")},
		},
	}

	raw := mapMessageToRawEvent(msg)

	assert.Equal(t, []byte("scene-1"), raw.Key)
	assert.JSONEq(t, `{"uri":"/data/scene-1.json"}`, string(raw.Value))
	assert.Equal(t, "fire-scene-requests", raw.Topic)
	assert.Equal(t, 2, raw.Partition)
	assert.Equal(t, int64(42), raw.Offset)
	assert.Equal(t, now, raw.Timestamp)
	assert.Equal(t, "archive", raw.Headers["source"])
	assert.Nil(t, raw.Commit)
}

func TestSerializeToMessage(t *testing.T) {
	now := time.Date(2025, 8, 12, 12, 5, 0, 0, time.UTC)
	notice := domain.ProductNotice{
		SceneID:    "mtg-1",
		Mode:       domain.ModeNight,
		BitDepth:   8,
		Path:       "out/mtg-1/composite_night_fire_8b.tif",
		Rows:       4,
		Cols:       5,
		ProducedAt: now,
	}

	msg, err := serializeToMessage(notice)
	require.NoError(t, err)

	assert.Equal(t, []byte("mtg-1"), msg.Key)
	var got domain.ProductNotice
	require.NoError(t, json.Unmarshal(msg.Value, &got))
	assert.Equal(t, notice, got)

	require.Len(t, msg.Headers, 2)
	assert.Equal(t, "mode", msg.Headers[0].Key)
	assert.Equal(t, []byte("night"), msg.Headers[0].Value)
	assert.Equal(t, "produced_at", msg.Headers[1].Key)
	assert.Equal(t, []byte(now.Format(time.RFC3339)), msg.Headers[1].Value)
}
