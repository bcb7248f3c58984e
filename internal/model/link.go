package model

// ConnectivityState is mutated exclusively by the network supervisor.
type ConnectivityState struct {
	Connected  bool `json:"connected"`
	RetryCount int  `json:"retry_count"`
}
