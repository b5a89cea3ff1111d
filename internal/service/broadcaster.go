package service

// Dashboard event types
const (
	EventResultReady = "result_ready"
)

// Broadcaster interface for WebSocket broadcasting (avoids import cycle)
type Broadcaster interface {
	// BroadcastToDashboard reaches recruiters watching the profile or all profiles
	BroadcastToDashboard(profile string, msgType string, payload interface{})
}
