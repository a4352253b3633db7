package messaging

// HealthStatus represents the health state of a messaging connection.
type HealthStatus struct {
	Connected bool   `json:"connected"`
	Error     string `json:"error,omitempty"`
}

// CheckPublisherHealth reports whether publisher is usable.
func CheckPublisherHealth(publisher Publisher) HealthStatus {
	status := HealthStatus{}

	if publisher == nil {
		status.Error = "publisher is nil"
		return status
	}

	status.Connected = publisher.IsConnected()
	if !status.Connected {
		status.Error = "not connected to message broker"
	}
	return status
}
