package hudsync

import (
	"encoding/json"
	"fmt"
)

// BatchType marks an envelope carrying multiple updates.
const BatchType = "batch"

// Batch is the wire shape for a coalesced flush: one message per
// subject, all updates inside stamped with the sender.
type Batch struct {
	Type      string   `json:"type"`
	Subject   string   `json:"subject"`
	UserID    string   `json:"userId"`
	Timestamp int64    `json:"timestamp"`
	Updates   []Update `json:"updates"`
}

// DecodeEnvelope unpacks an incoming message, tolerating both the batch
// shape and a legacy single-update shape.
func DecodeEnvelope(raw []byte) ([]Update, error) {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(raw, &head); err != nil {
		return nil, fmt.Errorf("hudsync: undecodable message: %w", err)
	}

	if head.Type == BatchType {
		var batch Batch
		if err := json.Unmarshal(raw, &batch); err != nil {
			return nil, fmt.Errorf("hudsync: malformed batch message: %w", err)
		}
		for i := range batch.Updates {
			if batch.Updates[i].UserID == "" {
				batch.Updates[i].UserID = batch.UserID
			}
			if batch.Updates[i].Subject == "" {
				batch.Updates[i].Subject = batch.Subject
			}
			if batch.Updates[i].Timestamp == 0 {
				batch.Updates[i].Timestamp = batch.Timestamp
			}
		}
		return batch.Updates, nil
	}

	switch UpdateType(head.Type) {
	case UpdateClearAll, UpdateGridConfig, UpdateCell, UpdateContainer, UpdateWeaponSet:
	default:
		return nil, fmt.Errorf("hudsync: unknown message type %q", head.Type)
	}
	var single Update
	if err := json.Unmarshal(raw, &single); err != nil {
		return nil, fmt.Errorf("hudsync: malformed update message: %w", err)
	}
	return []Update{single}, nil
}
