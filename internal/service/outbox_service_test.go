package service

import (
	"context"
	"errors"
	"testing"

	"Kampung_Community/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

func TestOutboxRelayerDeliversAndRetries(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	alice := e.register(t, "alice@example.com", "Alice")
	e.communityWith(t, "jurong-east", alice)
	_, err := e.posts.CreatePost(ctx, alice, "jurong-east", "Block party", "")
	require.NoError(t, err)

	var got []string
	failing := true
	sender := func(_ context.Context, ob *model.ActivityOutbox) error {
		if failing && ob.EventType == model.EventPostCreated {
			return errors.New("broker unavailable")
		}
		got = append(got, ob.EventType)
		return nil
	}
	relayer := NewOutboxRelayer(e.db, sender, zap.NewNop())

	assert.Equal(t, 1, relayer.DrainOnce(ctx))
	assert.Equal(t, []string{model.EventCommunityJoined}, got)

	var failed model.ActivityOutbox
	require.NoError(t, e.db.Where("event_type = ?", model.EventPostCreated).First(&failed).Error)
	assert.Equal(t, int8(model.OutboxFailed), failed.Status)
	assert.Equal(t, 1, failed.Retry)
	assert.Equal(t, "Block party", gjson.GetBytes(failed.Payload, "title").String())

	failing = false
	assert.Equal(t, 1, relayer.DrainOnce(ctx))
	assert.Equal(t, 0, relayer.DrainOnce(ctx))
	assert.Equal(t, []string{model.EventCommunityJoined, model.EventPostCreated}, got)
}

func TestLogSender(t *testing.T) {
	err := LogSender(zap.NewNop())(context.Background(), &model.ActivityOutbox{EventType: model.EventPostCreated})
	assert.NoError(t, err)
}
