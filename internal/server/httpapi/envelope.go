package httpapi

// Envelope is the uniform response body: a success flag, an optional
// human-readable message, an optional cached indicator for the read
// endpoints, and the payload.
type Envelope struct {
	Success bool   `json:"success"`
	Cached  *bool  `json:"cached,omitempty"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func okCached(cached bool, data any) Envelope {
	return Envelope{Success: true, Cached: &cached, Data: data}
}

func okMessage(message string, data any) Envelope {
	return Envelope{Success: true, Message: message, Data: data}
}

func fail(message string) Envelope {
	return Envelope{Success: false, Message: message}
}
