package protoconv

import (
	"fmt"
	"strings"
)

// TaskName builds the resource name for a task, "tasks/{id}".
func TaskName(taskID string) string {
	return "tasks/" + taskID
}

// ParseTaskName extracts the task id from a "tasks/{id}" resource name.
func ParseTaskName(name string) (string, error) {
	rest, ok := strings.CutPrefix(name, "tasks/")
	if !ok || rest == "" || strings.Contains(rest, "/") {
		return "", fmt.Errorf("invalid task resource name: %q", name)
	}
	return rest, nil
}

// PushConfigName builds the resource name for a push notification config,
// "tasks/{id}/pushNotificationConfigs/{configId}".
func PushConfigName(taskID, configID string) string {
	return "tasks/" + taskID + "/pushNotificationConfigs/" + configID
}

// ParsePushConfigName extracts task and config ids from a push config
// resource name.
func ParsePushConfigName(name string) (taskID, configID string, err error) {
	rest, ok := strings.CutPrefix(name, "tasks/")
	if !ok {
		return "", "", fmt.Errorf("invalid push config resource name: %q", name)
	}
	taskID, configID, ok = strings.Cut(rest, "/pushNotificationConfigs/")
	if !ok || taskID == "" || strings.Contains(configID, "/") {
		return "", "", fmt.Errorf("invalid push config resource name: %q", name)
	}
	return taskID, configID, nil
}
