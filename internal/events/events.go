// Package events provides an event system for capture, invocation and task notifications.
package events

import "time"

// EventType represents the type of event
type EventType string

const (
	// EventErrorCaptured is emitted when the capture hub records an error
	EventErrorCaptured EventType = "error_captured"
	// EventInvocation is emitted for each completed driver invocation
	EventInvocation EventType = "invocation"
	// EventTaskStarted is emitted when a background task begins running
	EventTaskStarted EventType = "task_started"
	// EventTaskCompleted is emitted when a background task finishes successfully
	EventTaskCompleted EventType = "task_completed"
	// EventTaskFailed is emitted when a background task fails
	EventTaskFailed EventType = "task_failed"
	// EventRunStarted is emitted when a driver run begins
	EventRunStarted EventType = "run_started"
	// EventRunFinished is emitted when a driver run ends
	EventRunFinished EventType = "run_finished"
)

// Event represents a capture, invocation or task event
type Event struct {
	Type      EventType         `json:"type"`
	Timestamp time.Time         `json:"timestamp"`
	Source    string            `json:"source"`
	Data      EventData         `json:"data,omitempty"`
	Tags      map[string]string `json:"tags,omitempty"`
}

// EventData contains event-specific data
type EventData struct {
	Category string `json:"category,omitempty"`
	Scenario string `json:"scenario,omitempty"`
	Success  bool   `json:"success,omitempty"`
	TaskID   string `json:"task_id,omitempty"`
	TaskName string `json:"task_name,omitempty"`
	Error    string `json:"error,omitempty"`
}

// NewErrorCapturedEvent creates an error capture event
func NewErrorCapturedEvent(source, category string, err error, tags map[string]string) Event {
	errMsg := ""
	if err != nil {
		errMsg = err.Error()
	}
	return Event{
		Type:      EventErrorCaptured,
		Timestamp: time.Now(),
		Source:    source,
		Tags:      tags,
		Data: EventData{
			Category: category,
			Error:    errMsg,
		},
	}
}

// NewInvocationEvent creates an invocation event
func NewInvocationEvent(source, scenario, category string, success bool) Event {
	return Event{
		Type:      EventInvocation,
		Timestamp: time.Now(),
		Source:    source,
		Data: EventData{
			Scenario: scenario,
			Category: category,
			Success:  success,
		},
	}
}

// NewTaskStartedEvent creates a task started event
func NewTaskStartedEvent(taskID, taskName string) Event {
	return Event{
		Type:      EventTaskStarted,
		Timestamp: time.Now(),
		Source:    "tasks",
		Data: EventData{
			TaskID:   taskID,
			TaskName: taskName,
		},
	}
}

// NewTaskCompletedEvent creates a task completed event
func NewTaskCompletedEvent(taskID, taskName string) Event {
	return Event{
		Type:      EventTaskCompleted,
		Timestamp: time.Now(),
		Source:    "tasks",
		Data: EventData{
			TaskID:   taskID,
			TaskName: taskName,
		},
	}
}

// NewTaskFailedEvent creates a task failed event
func NewTaskFailedEvent(taskID, taskName string, err error) Event {
	errMsg := ""
	if err != nil {
		errMsg = err.Error()
	}
	return Event{
		Type:      EventTaskFailed,
		Timestamp: time.Now(),
		Source:    "tasks",
		Data: EventData{
			TaskID:   taskID,
			TaskName: taskName,
			Error:    errMsg,
		},
	}
}

// NewRunStartedEvent creates a run started event
func NewRunStartedEvent() Event {
	return Event{
		Type:      EventRunStarted,
		Timestamp: time.Now(),
		Source:    "driver",
	}
}

// NewRunFinishedEvent creates a run finished event
func NewRunFinishedEvent() Event {
	return Event{
		Type:      EventRunFinished,
		Timestamp: time.Now(),
		Source:    "driver",
	}
}
