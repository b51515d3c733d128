// Package protoconv converts between the JSON wire model in types and the
// a2a.v1 protobuf messages used by the gRPC transport.
package protoconv

import (
	"encoding/base64"
	"fmt"

	a2apb "github.com/a2aproject/a2a-go/a2apb"
	structpb "google.golang.org/protobuf/types/known/structpb"
	timestamppb "google.golang.org/protobuf/types/known/timestamppb"

	types "github.com/inference-gateway/a2a/types"
)

func metadataToProto(metadata map[string]any) (*structpb.Struct, error) {
	if len(metadata) == 0 {
		return nil, nil
	}
	s, err := structpb.NewStruct(metadata)
	if err != nil {
		return nil, fmt.Errorf("failed to convert metadata: %w", err)
	}
	return s, nil
}

func metadataFromProto(s *structpb.Struct) map[string]any {
	if s == nil || len(s.GetFields()) == 0 {
		return nil
	}
	return s.AsMap()
}

// RoleToProto maps a wire role onto the proto enum.
func RoleToProto(role types.Role) a2apb.Role {
	switch role {
	case types.RoleUser:
		return a2apb.Role_ROLE_USER
	case types.RoleAgent:
		return a2apb.Role_ROLE_AGENT
	default:
		return a2apb.Role_ROLE_UNSPECIFIED
	}
}

// RoleFromProto maps the proto enum onto a wire role.
func RoleFromProto(role a2apb.Role) types.Role {
	switch role {
	case a2apb.Role_ROLE_USER:
		return types.RoleUser
	case a2apb.Role_ROLE_AGENT:
		return types.RoleAgent
	default:
		return ""
	}
}

// TaskStateToProto maps a wire task state onto the proto enum.
func TaskStateToProto(state types.TaskState) a2apb.TaskState {
	switch state {
	case types.TaskStateSubmitted:
		return a2apb.TaskState_TASK_STATE_SUBMITTED
	case types.TaskStateWorking:
		return a2apb.TaskState_TASK_STATE_WORKING
	case types.TaskStateInputRequired:
		return a2apb.TaskState_TASK_STATE_INPUT_REQUIRED
	case types.TaskStateAuthRequired:
		return a2apb.TaskState_TASK_STATE_AUTH_REQUIRED
	case types.TaskStateCompleted:
		return a2apb.TaskState_TASK_STATE_COMPLETED
	case types.TaskStateCanceled:
		return a2apb.TaskState_TASK_STATE_CANCELLED
	case types.TaskStateFailed:
		return a2apb.TaskState_TASK_STATE_FAILED
	case types.TaskStateRejected:
		return a2apb.TaskState_TASK_STATE_REJECTED
	default:
		return a2apb.TaskState_TASK_STATE_UNSPECIFIED
	}
}

// TaskStateFromProto maps the proto enum onto a wire task state.
func TaskStateFromProto(state a2apb.TaskState) types.TaskState {
	switch state {
	case a2apb.TaskState_TASK_STATE_SUBMITTED:
		return types.TaskStateSubmitted
	case a2apb.TaskState_TASK_STATE_WORKING:
		return types.TaskStateWorking
	case a2apb.TaskState_TASK_STATE_INPUT_REQUIRED:
		return types.TaskStateInputRequired
	case a2apb.TaskState_TASK_STATE_AUTH_REQUIRED:
		return types.TaskStateAuthRequired
	case a2apb.TaskState_TASK_STATE_COMPLETED:
		return types.TaskStateCompleted
	case a2apb.TaskState_TASK_STATE_CANCELLED:
		return types.TaskStateCanceled
	case a2apb.TaskState_TASK_STATE_FAILED:
		return types.TaskStateFailed
	case a2apb.TaskState_TASK_STATE_REJECTED:
		return types.TaskStateRejected
	default:
		return types.TaskStateUnknown
	}
}

// PartToProto converts a single part.
func PartToProto(part types.Part) (*a2apb.Part, error) {
	switch part.Kind {
	case types.PartKindText:
		return &a2apb.Part{Part: &a2apb.Part_Text{Text: part.Text}}, nil

	case types.PartKindFile:
		if part.File == nil {
			return nil, fmt.Errorf("file part missing file content")
		}
		filePart := &a2apb.FilePart{}
		if part.File.MimeType != nil {
			filePart.MimeType = *part.File.MimeType
		}
		switch {
		case part.File.Bytes != nil:
			raw, err := base64.StdEncoding.DecodeString(*part.File.Bytes)
			if err != nil {
				return nil, fmt.Errorf("failed to decode file bytes: %w", err)
			}
			filePart.File = &a2apb.FilePart_FileWithBytes{FileWithBytes: raw}
		case part.File.URI != nil:
			filePart.File = &a2apb.FilePart_FileWithUri{FileWithUri: *part.File.URI}
		default:
			return nil, fmt.Errorf("file part carries neither bytes nor uri")
		}
		return &a2apb.Part{Part: &a2apb.Part_File{File: filePart}}, nil

	case types.PartKindData:
		data, err := structpb.NewStruct(part.Data)
		if err != nil {
			return nil, fmt.Errorf("failed to convert data part: %w", err)
		}
		return &a2apb.Part{Part: &a2apb.Part_Data{Data: &a2apb.DataPart{Data: data}}}, nil

	default:
		return nil, fmt.Errorf("unknown part kind: %q", part.Kind)
	}
}

// PartFromProto converts a single proto part.
func PartFromProto(part *a2apb.Part) (types.Part, error) {
	switch p := part.GetPart().(type) {
	case *a2apb.Part_Text:
		return types.NewTextPart(p.Text), nil

	case *a2apb.Part_File:
		file := &types.FileContent{}
		if mime := p.File.GetMimeType(); mime != "" {
			file.MimeType = types.StringPtr(mime)
		}
		switch f := p.File.GetFile().(type) {
		case *a2apb.FilePart_FileWithBytes:
			file.Bytes = types.StringPtr(base64.StdEncoding.EncodeToString(f.FileWithBytes))
		case *a2apb.FilePart_FileWithUri:
			file.URI = types.StringPtr(f.FileWithUri)
		default:
			return types.Part{}, fmt.Errorf("file part carries neither bytes nor uri")
		}
		return types.NewFilePart(file), nil

	case *a2apb.Part_Data:
		return types.NewDataPart(p.Data.GetData().AsMap()), nil

	default:
		return types.Part{}, fmt.Errorf("unknown proto part variant %T", p)
	}
}

// PartsToProto converts a part slice.
func PartsToProto(parts []types.Part) ([]*a2apb.Part, error) {
	out := make([]*a2apb.Part, len(parts))
	for i, part := range parts {
		converted, err := PartToProto(part)
		if err != nil {
			return nil, err
		}
		out[i] = converted
	}
	return out, nil
}

// PartsFromProto converts a proto part slice.
func PartsFromProto(parts []*a2apb.Part) ([]types.Part, error) {
	out := make([]types.Part, len(parts))
	for i, part := range parts {
		converted, err := PartFromProto(part)
		if err != nil {
			return nil, err
		}
		out[i] = converted
	}
	return out, nil
}

// MessageToProto converts a message.
func MessageToProto(msg *types.Message) (*a2apb.Message, error) {
	if msg == nil {
		return nil, nil
	}

	content, err := PartsToProto(msg.Parts)
	if err != nil {
		return nil, err
	}
	metadata, err := metadataToProto(msg.Metadata)
	if err != nil {
		return nil, err
	}

	out := &a2apb.Message{
		MessageId:  msg.MessageID,
		Role:       RoleToProto(msg.Role),
		Parts:      content,
		Metadata:   metadata,
		Extensions: msg.Extensions,
	}
	if msg.ContextID != nil {
		out.ContextId = *msg.ContextID
	}
	if msg.TaskID != nil {
		out.TaskId = *msg.TaskID
	}
	return out, nil
}

// MessageFromProto converts a proto message.
func MessageFromProto(msg *a2apb.Message) (*types.Message, error) {
	if msg == nil {
		return nil, nil
	}

	parts, err := PartsFromProto(msg.GetParts())
	if err != nil {
		return nil, err
	}

	out := &types.Message{
		Kind:       types.KindMessage,
		MessageID:  msg.GetMessageId(),
		Role:       RoleFromProto(msg.GetRole()),
		Parts:      parts,
		Metadata:   metadataFromProto(msg.GetMetadata()),
		Extensions: msg.GetExtensions(),
	}
	if ctx := msg.GetContextId(); ctx != "" {
		out.ContextID = types.StringPtr(ctx)
	}
	if task := msg.GetTaskId(); task != "" {
		out.TaskID = types.StringPtr(task)
	}
	return out, nil
}

// TaskStatusToProto converts a task status.
func TaskStatusToProto(status types.TaskStatus) (*a2apb.TaskStatus, error) {
	update, err := MessageToProto(status.Message)
	if err != nil {
		return nil, err
	}

	out := &a2apb.TaskStatus{
		State:  TaskStateToProto(status.State),
		Update: update,
	}
	if status.Timestamp != nil {
		out.Timestamp = timestamppb.New(*status.Timestamp)
	}
	return out, nil
}

// TaskStatusFromProto converts a proto task status.
func TaskStatusFromProto(status *a2apb.TaskStatus) (types.TaskStatus, error) {
	if status == nil {
		return types.TaskStatus{State: types.TaskStateUnknown}, nil
	}

	message, err := MessageFromProto(status.GetUpdate())
	if err != nil {
		return types.TaskStatus{}, err
	}

	out := types.TaskStatus{
		State:   TaskStateFromProto(status.GetState()),
		Message: message,
	}
	if status.GetTimestamp() != nil {
		out.Timestamp = types.TimePtr(status.GetTimestamp().AsTime().UTC())
	}
	return out, nil
}

// ArtifactToProto converts an artifact.
func ArtifactToProto(artifact types.Artifact) (*a2apb.Artifact, error) {
	parts, err := PartsToProto(artifact.Parts)
	if err != nil {
		return nil, err
	}
	metadata, err := metadataToProto(artifact.Metadata)
	if err != nil {
		return nil, err
	}

	out := &a2apb.Artifact{
		ArtifactId: artifact.ArtifactID,
		Parts:      parts,
		Metadata:   metadata,
		Extensions: artifact.Extensions,
	}
	if artifact.Name != nil {
		out.Name = *artifact.Name
	}
	if artifact.Description != nil {
		out.Description = *artifact.Description
	}
	return out, nil
}

// ArtifactFromProto converts a proto artifact.
func ArtifactFromProto(artifact *a2apb.Artifact) (types.Artifact, error) {
	parts, err := PartsFromProto(artifact.GetParts())
	if err != nil {
		return types.Artifact{}, err
	}

	out := types.Artifact{
		ArtifactID: artifact.GetArtifactId(),
		Parts:      parts,
		Metadata:   metadataFromProto(artifact.GetMetadata()),
		Extensions: artifact.GetExtensions(),
	}
	if name := artifact.GetName(); name != "" {
		out.Name = types.StringPtr(name)
	}
	if desc := artifact.GetDescription(); desc != "" {
		out.Description = types.StringPtr(desc)
	}
	return out, nil
}

// TaskToProto converts a task snapshot.
func TaskToProto(task *types.Task) (*a2apb.Task, error) {
	if task == nil {
		return nil, nil
	}

	status, err := TaskStatusToProto(task.Status)
	if err != nil {
		return nil, err
	}
	metadata, err := metadataToProto(task.Metadata)
	if err != nil {
		return nil, err
	}

	out := &a2apb.Task{
		Id:        task.ID,
		ContextId: task.ContextID,
		Status:    status,
		Metadata:  metadata,
	}
	for i := range task.Artifacts {
		artifact, err := ArtifactToProto(task.Artifacts[i])
		if err != nil {
			return nil, err
		}
		out.Artifacts = append(out.Artifacts, artifact)
	}
	for i := range task.History {
		msg, err := MessageToProto(&task.History[i])
		if err != nil {
			return nil, err
		}
		out.History = append(out.History, msg)
	}
	return out, nil
}

// TaskFromProto converts a proto task.
func TaskFromProto(task *a2apb.Task) (*types.Task, error) {
	if task == nil {
		return nil, nil
	}

	status, err := TaskStatusFromProto(task.GetStatus())
	if err != nil {
		return nil, err
	}

	out := &types.Task{
		Kind:      types.KindTask,
		ID:        task.GetId(),
		ContextID: task.GetContextId(),
		Status:    status,
		Metadata:  metadataFromProto(task.GetMetadata()),
	}
	for _, artifact := range task.GetArtifacts() {
		converted, err := ArtifactFromProto(artifact)
		if err != nil {
			return nil, err
		}
		out.Artifacts = append(out.Artifacts, converted)
	}
	for _, msg := range task.GetHistory() {
		converted, err := MessageFromProto(msg)
		if err != nil {
			return nil, err
		}
		out.History = append(out.History, *converted)
	}
	return out, nil
}

// StatusUpdateToProto converts a status update event.
func StatusUpdateToProto(event *types.TaskStatusUpdateEvent) (*a2apb.TaskStatusUpdateEvent, error) {
	status, err := TaskStatusToProto(event.Status)
	if err != nil {
		return nil, err
	}
	metadata, err := metadataToProto(event.Metadata)
	if err != nil {
		return nil, err
	}

	return &a2apb.TaskStatusUpdateEvent{
		TaskId:    event.TaskID,
		ContextId: event.ContextID,
		Status:    status,
		Final:     event.Final,
		Metadata:  metadata,
	}, nil
}

// StatusUpdateFromProto converts a proto status update event.
func StatusUpdateFromProto(event *a2apb.TaskStatusUpdateEvent) (*types.TaskStatusUpdateEvent, error) {
	status, err := TaskStatusFromProto(event.GetStatus())
	if err != nil {
		return nil, err
	}

	return &types.TaskStatusUpdateEvent{
		Kind:      types.KindStatusUpdate,
		TaskID:    event.GetTaskId(),
		ContextID: event.GetContextId(),
		Status:    status,
		Final:     event.GetFinal(),
		Metadata:  metadataFromProto(event.GetMetadata()),
	}, nil
}

// ArtifactUpdateToProto converts an artifact update event.
func ArtifactUpdateToProto(event *types.TaskArtifactUpdateEvent) (*a2apb.TaskArtifactUpdateEvent, error) {
	artifact, err := ArtifactToProto(event.Artifact)
	if err != nil {
		return nil, err
	}
	metadata, err := metadataToProto(event.Metadata)
	if err != nil {
		return nil, err
	}

	out := &a2apb.TaskArtifactUpdateEvent{
		TaskId:    event.TaskID,
		ContextId: event.ContextID,
		Artifact:  artifact,
		Metadata:  metadata,
	}
	if event.Append != nil {
		out.Append = *event.Append
	}
	if event.LastChunk != nil {
		out.LastChunk = *event.LastChunk
	}
	return out, nil
}

// ArtifactUpdateFromProto converts a proto artifact update event.
func ArtifactUpdateFromProto(event *a2apb.TaskArtifactUpdateEvent) (*types.TaskArtifactUpdateEvent, error) {
	artifact, err := ArtifactFromProto(event.GetArtifact())
	if err != nil {
		return nil, err
	}

	return &types.TaskArtifactUpdateEvent{
		Kind:      types.KindArtifactUpdate,
		TaskID:    event.GetTaskId(),
		ContextID: event.GetContextId(),
		Artifact:  artifact,
		Append:    types.BoolPtr(event.GetAppend()),
		LastChunk: types.BoolPtr(event.GetLastChunk()),
		Metadata:  metadataFromProto(event.GetMetadata()),
	}, nil
}

// SendParamsToProto converts message send parameters into a send request.
func SendParamsToProto(params *types.MessageSendParams) (*a2apb.SendMessageRequest, error) {
	msg, err := MessageToProto(&params.Message)
	if err != nil {
		return nil, err
	}
	metadata, err := metadataToProto(params.Metadata)
	if err != nil {
		return nil, err
	}

	out := &a2apb.SendMessageRequest{
		Request:  msg,
		Metadata: metadata,
	}
	if params.Configuration != nil {
		cfg := &a2apb.SendMessageConfiguration{
			AcceptedOutputModes: params.Configuration.AcceptedOutputModes,
			Blocking:            params.Configuration.Blocking,
		}
		if params.Configuration.HistoryLength != nil {
			cfg.HistoryLength = int32(*params.Configuration.HistoryLength)
		}
		if params.Configuration.PushNotificationConfig != nil {
			cfg.PushNotification = PushConfigToProto(*params.Configuration.PushNotificationConfig)
		}
		out.Configuration = cfg
	}
	return out, nil
}

// SendParamsFromProto converts a send request into message send parameters.
func SendParamsFromProto(req *a2apb.SendMessageRequest) (*types.MessageSendParams, error) {
	msg, err := MessageFromProto(req.GetRequest())
	if err != nil {
		return nil, err
	}
	if msg == nil {
		return nil, fmt.Errorf("send request carries no message")
	}

	out := &types.MessageSendParams{
		Message:  *msg,
		Metadata: metadataFromProto(req.GetMetadata()),
	}
	if cfg := req.GetConfiguration(); cfg != nil {
		converted := &types.MessageSendConfiguration{
			AcceptedOutputModes: cfg.GetAcceptedOutputModes(),
			Blocking:            cfg.GetBlocking(),
		}
		if cfg.GetHistoryLength() != 0 {
			converted.HistoryLength = types.IntPtr(int(cfg.GetHistoryLength()))
		}
		if cfg.GetPushNotification() != nil {
			pushConfig := PushConfigFromProto(cfg.GetPushNotification())
			converted.PushNotificationConfig = &pushConfig
		}
		out.Configuration = converted
	}
	return out, nil
}

// PushConfigToProto converts a push notification config.
func PushConfigToProto(config types.PushNotificationConfig) *a2apb.PushNotificationConfig {
	out := &a2apb.PushNotificationConfig{Url: config.URL}
	if config.ID != nil {
		out.Id = *config.ID
	}
	if config.Token != nil {
		out.Token = *config.Token
	}
	if config.Authentication != nil {
		out.Authentication = &a2apb.AuthenticationInfo{
			Schemes: config.Authentication.Schemes,
		}
		if config.Authentication.Credentials != nil {
			out.Authentication.Credentials = *config.Authentication.Credentials
		}
	}
	return out
}

// PushConfigFromProto converts a proto push notification config.
func PushConfigFromProto(config *a2apb.PushNotificationConfig) types.PushNotificationConfig {
	out := types.PushNotificationConfig{URL: config.GetUrl()}
	if id := config.GetId(); id != "" {
		out.ID = types.StringPtr(id)
	}
	if token := config.GetToken(); token != "" {
		out.Token = types.StringPtr(token)
	}
	if auth := config.GetAuthentication(); auth != nil {
		out.Authentication = &types.AuthenticationInfo{Schemes: auth.GetSchemes()}
		if creds := auth.GetCredentials(); creds != "" {
			out.Authentication.Credentials = types.StringPtr(creds)
		}
	}
	return out
}

// TaskPushConfigToProto converts a task-scoped push config to its resource
// representation.
func TaskPushConfigToProto(config types.TaskPushNotificationConfig) *a2apb.TaskPushNotificationConfig {
	configID := config.TaskID
	if config.PushNotificationConfig.ID != nil && *config.PushNotificationConfig.ID != "" {
		configID = *config.PushNotificationConfig.ID
	}
	return &a2apb.TaskPushNotificationConfig{
		Name:                   PushConfigName(config.TaskID, configID),
		PushNotificationConfig: PushConfigToProto(config.PushNotificationConfig),
	}
}

// TaskPushConfigFromProto converts a push config resource back to its
// task-scoped form.
func TaskPushConfigFromProto(config *a2apb.TaskPushNotificationConfig) (types.TaskPushNotificationConfig, error) {
	taskID, _, err := ParsePushConfigName(config.GetName())
	if err != nil {
		return types.TaskPushNotificationConfig{}, err
	}
	return types.TaskPushNotificationConfig{
		TaskID:                 taskID,
		PushNotificationConfig: PushConfigFromProto(config.GetPushNotificationConfig()),
	}, nil
}

// EventToStreamResponse wraps an event in a stream response frame.
func EventToStreamResponse(event types.Event) (*a2apb.StreamResponse, error) {
	switch ev := event.(type) {
	case *types.Message:
		msg, err := MessageToProto(ev)
		if err != nil {
			return nil, err
		}
		return &a2apb.StreamResponse{Payload: &a2apb.StreamResponse_Msg{Msg: msg}}, nil

	case *types.Task:
		task, err := TaskToProto(ev)
		if err != nil {
			return nil, err
		}
		return &a2apb.StreamResponse{Payload: &a2apb.StreamResponse_Task{Task: task}}, nil

	case *types.TaskStatusUpdateEvent:
		update, err := StatusUpdateToProto(ev)
		if err != nil {
			return nil, err
		}
		return &a2apb.StreamResponse{Payload: &a2apb.StreamResponse_StatusUpdate{StatusUpdate: update}}, nil

	case *types.TaskArtifactUpdateEvent:
		update, err := ArtifactUpdateToProto(ev)
		if err != nil {
			return nil, err
		}
		return &a2apb.StreamResponse{Payload: &a2apb.StreamResponse_ArtifactUpdate{ArtifactUpdate: update}}, nil

	default:
		return nil, fmt.Errorf("unknown event kind: %q", event.EventKind())
	}
}

// EventFromStreamResponse unwraps a stream response frame into an event.
func EventFromStreamResponse(resp *a2apb.StreamResponse) (types.Event, error) {
	switch payload := resp.GetPayload().(type) {
	case *a2apb.StreamResponse_Msg:
		return MessageFromProto(payload.Msg)
	case *a2apb.StreamResponse_Task:
		return TaskFromProto(payload.Task)
	case *a2apb.StreamResponse_StatusUpdate:
		return StatusUpdateFromProto(payload.StatusUpdate)
	case *a2apb.StreamResponse_ArtifactUpdate:
		return ArtifactUpdateFromProto(payload.ArtifactUpdate)
	default:
		return nil, fmt.Errorf("unknown stream response payload %T", payload)
	}
}

// EventToSendResponse wraps a terminal event in a send response. Only tasks
// and messages are valid send results.
func EventToSendResponse(event types.Event) (*a2apb.SendMessageResponse, error) {
	switch ev := event.(type) {
	case *types.Message:
		msg, err := MessageToProto(ev)
		if err != nil {
			return nil, err
		}
		return &a2apb.SendMessageResponse{Payload: &a2apb.SendMessageResponse_Msg{Msg: msg}}, nil

	case *types.Task:
		task, err := TaskToProto(ev)
		if err != nil {
			return nil, err
		}
		return &a2apb.SendMessageResponse{Payload: &a2apb.SendMessageResponse_Task{Task: task}}, nil

	default:
		return nil, fmt.Errorf("event kind %q is not a valid send result", event.EventKind())
	}
}

// EventFromSendResponse unwraps a send response into its task or message.
func EventFromSendResponse(resp *a2apb.SendMessageResponse) (types.Event, error) {
	switch payload := resp.GetPayload().(type) {
	case *a2apb.SendMessageResponse_Msg:
		return MessageFromProto(payload.Msg)
	case *a2apb.SendMessageResponse_Task:
		return TaskFromProto(payload.Task)
	default:
		return nil, fmt.Errorf("unknown send response payload %T", payload)
	}
}
