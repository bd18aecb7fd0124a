package types

// Envelope is the uniform response shape returned by every endpoint. Response
// carries the payload on success and a human-readable error string on failure.
type Envelope struct {
	Success  bool `json:"success"`
	Response any  `json:"response"`
}
