package server_test

import (
	"context"
	"testing"

	a2apb "github.com/a2aproject/a2a-go/a2apb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	grpc "google.golang.org/grpc"
	codes "google.golang.org/grpc/codes"
	status "google.golang.org/grpc/status"

	protoconv "github.com/inference-gateway/a2a/protoconv"
	server "github.com/inference-gateway/a2a/server"
	"github.com/inference-gateway/a2a/server/tasks"
	"github.com/inference-gateway/a2a/types"
)

func newGRPCHandler(executor server.AgentExecutor, store tasks.TaskStore, card *types.AgentCard) *server.GRPCHandler {
	handler := server.NewDefaultRequestHandler(executor, store, nil)
	return server.NewGRPCHandler(handler, func() *types.AgentCard { return card }, nil)
}

// fakeStreamServer collects responses sent on a server stream.
type fakeStreamServer struct {
	grpc.ServerStream
	ctx  context.Context
	sent []*a2apb.StreamResponse
}

func (s *fakeStreamServer) Send(resp *a2apb.StreamResponse) error {
	s.sent = append(s.sent, resp)
	return nil
}

func (s *fakeStreamServer) Context() context.Context {
	return s.ctx
}

func sendMessageRequest(t *testing.T, text string) *a2apb.SendMessageRequest {
	t.Helper()
	msg, err := protoconv.MessageToProto(types.NewUserTextMessage(text))
	require.NoError(t, err)
	return &a2apb.SendMessageRequest{Request: msg}
}

func TestGRPCSendMessage(t *testing.T) {
	handler := newGRPCHandler(completingExecutor(), tasks.NewInMemoryTaskStore(), nil)

	resp, err := handler.SendMessage(context.Background(), sendMessageRequest(t, "hello"))
	require.NoError(t, err)

	task := resp.GetTask()
	require.NotNil(t, task, "expected a task payload")
	assert.Equal(t, a2apb.TaskState_TASK_STATE_COMPLETED, task.GetStatus().GetState())
}

func TestGRPCSendMessageMissingMessage(t *testing.T) {
	handler := newGRPCHandler(completingExecutor(), tasks.NewInMemoryTaskStore(), nil)

	_, err := handler.SendMessage(context.Background(), &a2apb.SendMessageRequest{})
	require.Error(t, err)
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestGRPCSendStreamingMessage(t *testing.T) {
	handler := newGRPCHandler(completingExecutor(), tasks.NewInMemoryTaskStore(), nil)

	stream := &fakeStreamServer{ctx: context.Background()}
	err := handler.SendStreamingMessage(sendMessageRequest(t, "stream it"), stream)
	require.NoError(t, err)
	require.Len(t, stream.sent, 2)

	final := stream.sent[1].GetStatusUpdate()
	require.NotNil(t, final)
	assert.True(t, final.GetFinal())
	assert.Equal(t, a2apb.TaskState_TASK_STATE_COMPLETED, final.GetStatus().GetState())
}

func TestGRPCGetTask(t *testing.T) {
	ctx := context.Background()
	store := tasks.NewInMemoryTaskStore()
	task := types.NewTask(*types.NewUserTextMessage("work"))
	require.NoError(t, store.Save(ctx, task))

	handler := newGRPCHandler(completingExecutor(), store, nil)

	got, err := handler.GetTask(ctx, &a2apb.GetTaskRequest{Name: protoconv.TaskName(task.ID)})
	require.NoError(t, err)
	assert.Equal(t, task.ID, got.GetId())
}

func TestGRPCGetTaskNotFound(t *testing.T) {
	handler := newGRPCHandler(completingExecutor(), tasks.NewInMemoryTaskStore(), nil)

	_, err := handler.GetTask(context.Background(), &a2apb.GetTaskRequest{Name: protoconv.TaskName("missing")})
	require.Error(t, err)
	assert.Equal(t, codes.NotFound, status.Code(err))
}

func TestGRPCGetTaskBadName(t *testing.T) {
	handler := newGRPCHandler(completingExecutor(), tasks.NewInMemoryTaskStore(), nil)

	_, err := handler.GetTask(context.Background(), &a2apb.GetTaskRequest{Name: "not-a-resource-name"})
	require.Error(t, err)
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestGRPCCancelTaskTerminal(t *testing.T) {
	ctx := context.Background()
	store := tasks.NewInMemoryTaskStore()
	task := types.NewTask(*types.NewUserTextMessage("done"))
	task.Status.State = types.TaskStateCompleted
	require.NoError(t, store.Save(ctx, task))

	handler := newGRPCHandler(completingExecutor(), store, nil)

	_, err := handler.CancelTask(ctx, &a2apb.CancelTaskRequest{Name: protoconv.TaskName(task.ID)})
	require.Error(t, err)
	assert.Equal(t, codes.FailedPrecondition, status.Code(err))
}

func TestGRPCPushNotificationConfigLifecycle(t *testing.T) {
	ctx := context.Background()
	store := tasks.NewInMemoryTaskStore()
	task := types.NewTask(*types.NewUserTextMessage("notify me"))
	require.NoError(t, store.Save(ctx, task))

	handler := newGRPCHandler(completingExecutor(), store, nil)

	created, err := handler.CreateTaskPushNotificationConfig(ctx, &a2apb.CreateTaskPushNotificationConfigRequest{
		Parent: protoconv.TaskName(task.ID),
		Config: &a2apb.TaskPushNotificationConfig{
			PushNotificationConfig: &a2apb.PushNotificationConfig{Url: "https://example.com/hook"},
		},
	})
	require.NoError(t, err)

	taskID, configID, err := protoconv.ParsePushConfigName(created.GetName())
	require.NoError(t, err)
	assert.Equal(t, task.ID, taskID)
	require.NotEmpty(t, configID)

	got, err := handler.GetTaskPushNotificationConfig(ctx, &a2apb.GetTaskPushNotificationConfigRequest{
		Name: protoconv.PushConfigName(task.ID, configID),
	})
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/hook", got.GetPushNotificationConfig().GetUrl())

	list, err := handler.ListTaskPushNotificationConfig(ctx, &a2apb.ListTaskPushNotificationConfigRequest{
		Parent: protoconv.TaskName(task.ID),
	})
	require.NoError(t, err)
	require.Len(t, list.GetConfigs(), 1)

	_, err = handler.DeleteTaskPushNotificationConfig(ctx, &a2apb.DeleteTaskPushNotificationConfigRequest{
		Name: protoconv.PushConfigName(task.ID, configID),
	})
	require.NoError(t, err)

	_, err = handler.GetTaskPushNotificationConfig(ctx, &a2apb.GetTaskPushNotificationConfigRequest{
		Name: protoconv.PushConfigName(task.ID, configID),
	})
	require.Error(t, err)
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestGRPCGetAgentCard(t *testing.T) {
	card := &types.AgentCard{
		Name:            "test-agent",
		Description:     "A test agent",
		URL:             "http://localhost:8080/a2a",
		Version:         "1.0.0",
		ProtocolVersion: types.ProtocolVersion,
	}
	handler := newGRPCHandler(completingExecutor(), tasks.NewInMemoryTaskStore(), card)

	got, err := handler.GetAgentCard(context.Background(), &a2apb.GetAgentCardRequest{})
	require.NoError(t, err)
	assert.Equal(t, "test-agent", got.GetName())
}

func TestGRPCGetAgentCardMissing(t *testing.T) {
	handler := newGRPCHandler(completingExecutor(), tasks.NewInMemoryTaskStore(), nil)

	_, err := handler.GetAgentCard(context.Background(), &a2apb.GetAgentCardRequest{})
	require.Error(t, err)
	assert.Equal(t, codes.NotFound, status.Code(err))
}
