package trendyol

import (
	"context"
	"encoding/json"
	"log"
	"strings"
)

// BatchStatus is the normalized processing state of one batch.
type BatchStatus string

const (
	StatusProcessing BatchStatus = "Processing"
	StatusSucceeded  BatchStatus = "Succeeded"
	StatusFailed     BatchStatus = "Failed"
	StatusUnknown    BatchStatus = "Unknown"
)

// ItemResult is the outcome of one item inside a batch.
type ItemResult struct {
	Index          int
	Succeeded      bool
	FailureReasons []string
}

// BatchResult is the normalized poll outcome. Raw always holds the original
// body so an Unknown status stays diagnosable.
type BatchResult struct {
	BatchID string
	Status  BatchStatus
	Items   []ItemResult
	Raw     []byte
}

// BatchStatusSource provides raw status bodies. Implemented by Client.
type BatchStatusSource interface {
	GetBatchStatus(ctx context.Context, batchID string) ([]byte, error)
}

// StatusPoller normalizes the status endpoint's response shapes. The remote
// has been observed answering with a plain status field, with item/failure
// counts only, and with a nested items array carrying per-item failure
// reasons; all three map onto one BatchResult. Anything unparseable becomes
// Unknown, never a silent success.
type StatusPoller struct {
	source BatchStatusSource
}

// NewStatusPoller wraps a status source.
func NewStatusPoller(source BatchStatusSource) *StatusPoller {
	return &StatusPoller{source: source}
}

// batchStatusBody is the superset of all observed response shapes.
type batchStatusBody struct {
	Status          string `json:"status"`
	BatchRequestID  string `json:"batchRequestId"`
	ItemCount       *int   `json:"itemCount"`
	FailedItemCount *int   `json:"failedItemCount"`
	Items           []struct {
		Status         string   `json:"status"`
		FailureReasons []string `json:"failureReasons"`
	} `json:"items"`
}

// Poll fetches and normalizes the status of one batch.
func (p *StatusPoller) Poll(ctx context.Context, batchID string) (BatchResult, error) {
	raw, err := p.source.GetBatchStatus(ctx, batchID)
	if err != nil {
		return BatchResult{BatchID: batchID, Status: StatusUnknown}, err
	}
	return Normalize(batchID, raw), nil
}

// Normalize maps one raw status body onto a BatchResult.
func Normalize(batchID string, raw []byte) BatchResult {
	result := BatchResult{BatchID: batchID, Status: StatusUnknown, Raw: raw}

	var body batchStatusBody
	if err := json.Unmarshal(raw, &body); err != nil {
		log.Printf("Unparseable status body for batch %s: %v", batchID, err)
		return result
	}

	// Shape 3: nested items array. Per-item results are authoritative when
	// present, regardless of what the top-level status field claims.
	if len(body.Items) > 0 {
		failed := 0
		for i, item := range body.Items {
			ok := itemSucceeded(item.Status)
			if !ok {
				failed++
			}
			result.Items = append(result.Items, ItemResult{
				Index:          i,
				Succeeded:      ok,
				FailureReasons: item.FailureReasons,
			})
		}
		switch {
		case overallProcessing(body.Status):
			result.Status = StatusProcessing
		case failed == 0:
			result.Status = StatusSucceeded
		default:
			result.Status = StatusFailed
		}
		return result
	}

	// Shape 1: plain status field.
	if body.Status != "" {
		result.Status = normalizeOverall(body.Status)
		return result
	}

	// Shape 2: counts only.
	if body.ItemCount != nil {
		failed := 0
		if body.FailedItemCount != nil {
			failed = *body.FailedItemCount
		}
		if failed == 0 {
			result.Status = StatusSucceeded
		} else {
			result.Status = StatusFailed
		}
		return result
	}

	return result
}

func itemSucceeded(status string) bool {
	switch strings.ToUpper(status) {
	case "SUCCESS", "SUCCEEDED", "COMPLETED":
		return true
	}
	return false
}

func overallProcessing(status string) bool {
	switch strings.ToUpper(status) {
	case "PROCESSING", "IN_PROGRESS", "QUEUED":
		return true
	}
	return false
}

func normalizeOverall(status string) BatchStatus {
	switch strings.ToUpper(status) {
	case "COMPLETED", "SUCCESS", "SUCCEEDED", "DONE":
		return StatusSucceeded
	case "PROCESSING", "IN_PROGRESS", "QUEUED":
		return StatusProcessing
	case "FAILED", "ERROR", "REJECTED":
		return StatusFailed
	}
	return StatusUnknown
}
