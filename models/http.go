package models

// UpdateRequest is one flushed batch: the frozen queue prefix, addressed to a
// single profile.
type UpdateRequest struct {
	// ProfileKey is the profile updates without their own key apply to.
	ProfileKey ProfileKey `json:"profile_key"`

	// Updates are sent in queue order and must be applied in that order.
	Updates []PendingUpdate `json:"updates"`

	// Length is len(Updates). The server rejects a mismatching batch.
	Length int `json:"length"`
}

// UpdateStatus is the per-update outcome reported by the server.
type UpdateStatus string

const (
	UpdateStatusOK     UpdateStatus = "ok"
	UpdateStatusFailed UpdateStatus = "failed"
)

// UpdateResult is the server verdict on one update of a batch.
type UpdateResult struct {
	ID      string       `json:"id"`
	Status  UpdateStatus `json:"status"`
	Message string       `json:"message,omitempty"`
}

// UpdateResponse carries one result per submitted update, in submission
// order.
type UpdateResponse struct {
	Results []UpdateResult `json:"results"`

	// LastModified is the store clock after the batch was applied.
	LastModified int64 `json:"last_modified"`
}

// ProfileRequest asks for the state of one profile. An empty SyncToken asks
// for a full load.
type ProfileRequest struct {
	ProfileKey ProfileKey `json:"profile_key"`
	SyncToken  string     `json:"sync_token,omitempty"`
}

// ProfileResponse is the result of a load.
type ProfileResponse struct {
	ProfileKey ProfileKey `json:"profile_key"`

	// Items are the settings and profile records changed since the request
	// token, tombstones included. On a full load only live records are sent.
	Items []ProfileItem `json:"items"`

	// SyncToken is the marker to send on the next incremental load.
	SyncToken string `json:"sync_token"`

	// LastModified is the newest modification reflected by Items.
	LastModified int64 `json:"last_modified"`

	// Full is true when Items is the complete profile rather than a delta.
	Full bool `json:"full"`
}

// DeleteResponse reports how many records a wipe removed.
type DeleteResponse struct {
	Deleted int64 `json:"deleted"`
}

// ErrorResponse is the JSON body of a failed API call.
type ErrorResponse struct {
	Error string `json:"error"`
}
