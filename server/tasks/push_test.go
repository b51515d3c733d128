package tasks_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inference-gateway/a2a/server/tasks"
	"github.com/inference-gateway/a2a/types"
)

func TestInMemoryPushConfigStoreSetDefaultsID(t *testing.T) {
	store := tasks.NewInMemoryPushConfigStore()
	ctx := context.Background()

	saved, err := store.Set(ctx, "task-1", types.PushNotificationConfig{URL: "https://example.com/hook"})
	require.NoError(t, err)
	require.NotNil(t, saved.ID)
	assert.Equal(t, "task-1", *saved.ID)
}

func TestInMemoryPushConfigStoreGetList(t *testing.T) {
	store := tasks.NewInMemoryPushConfigStore()
	ctx := context.Background()

	_, err := store.Get(ctx, "task-1", "")
	assert.ErrorIs(t, err, tasks.ErrPushConfigNotFound)

	first, err := store.Set(ctx, "task-1", types.PushNotificationConfig{URL: "https://example.com/a"})
	require.NoError(t, err)
	_, err = store.Set(ctx, "task-1", types.PushNotificationConfig{
		ID:  types.StringPtr("cfg-2"),
		URL: "https://example.com/b",
	})
	require.NoError(t, err)

	got, err := store.Get(ctx, "task-1", *first.ID)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/a", got.URL)

	got, err = store.Get(ctx, "task-1", "cfg-2")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/b", got.URL)

	_, err = store.Get(ctx, "task-1", "missing")
	assert.ErrorIs(t, err, tasks.ErrPushConfigNotFound)

	configs, err := store.List(ctx, "task-1")
	require.NoError(t, err)
	assert.Len(t, configs, 2)

	configs, err = store.List(ctx, "unknown")
	require.NoError(t, err)
	assert.Empty(t, configs)
}

func TestInMemoryPushConfigStoreDelete(t *testing.T) {
	store := tasks.NewInMemoryPushConfigStore()
	ctx := context.Background()

	saved, err := store.Set(ctx, "task-1", types.PushNotificationConfig{URL: "https://example.com/hook"})
	require.NoError(t, err)

	require.NoError(t, store.Delete(ctx, "task-1", *saved.ID))
	_, err = store.Get(ctx, "task-1", *saved.ID)
	assert.ErrorIs(t, err, tasks.ErrPushConfigNotFound)

	assert.NoError(t, store.Delete(ctx, "task-1", "missing"))
}

func TestHTTPPushNotificationSenderDelivers(t *testing.T) {
	var (
		mu       sync.Mutex
		received []types.Task
		token    string
	)
	webhook := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var task types.Task
		require.NoError(t, json.NewDecoder(r.Body).Decode(&task))
		mu.Lock()
		received = append(received, task)
		token = r.Header.Get(tasks.NotificationTokenHeader)
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer webhook.Close()

	store := tasks.NewInMemoryPushConfigStore()
	ctx := context.Background()
	_, err := store.Set(ctx, "task-1", types.PushNotificationConfig{
		URL:   webhook.URL,
		Token: types.StringPtr("secret-token"),
	})
	require.NoError(t, err)

	sender := tasks.NewHTTPPushNotificationSender(store, nil, nil)
	task := sampleTask("task-1")
	task.Status.State = types.TaskStateCompleted
	sender.SendNotification(ctx, task)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, received, 1)
	assert.Equal(t, "task-1", received[0].ID)
	assert.Equal(t, types.TaskStateCompleted, received[0].Status.State)
	assert.Equal(t, "secret-token", token)
}

func TestHTTPPushNotificationSenderSwallowsFailures(t *testing.T) {
	webhook := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer webhook.Close()

	store := tasks.NewInMemoryPushConfigStore()
	ctx := context.Background()
	_, err := store.Set(ctx, "task-1", types.PushNotificationConfig{URL: webhook.URL})
	require.NoError(t, err)
	_, err = store.Set(ctx, "task-1", types.PushNotificationConfig{
		ID:  types.StringPtr("dead"),
		URL: "http://127.0.0.1:1/unreachable",
	})
	require.NoError(t, err)

	sender := tasks.NewHTTPPushNotificationSender(store, nil, nil)
	assert.NotPanics(t, func() {
		sender.SendNotification(ctx, sampleTask("task-1"))
	})
}

func TestHTTPPushNotificationSenderNoConfigsIsNoop(t *testing.T) {
	sender := tasks.NewHTTPPushNotificationSender(tasks.NewInMemoryPushConfigStore(), nil, nil)
	assert.NotPanics(t, func() {
		sender.SendNotification(context.Background(), sampleTask("task-1"))
	})
}
