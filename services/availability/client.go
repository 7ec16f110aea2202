// Package availability is the HTTP client for the external scheduling
// authority. Its answers during date selection are advisory; the same client
// is reused for the authoritative submission-time re-check.
package availability

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"healthtrip/models"
)

// Client talks to the scheduling authority.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	Logger     *zap.Logger
}

func NewClient(baseURL string, logger *zap.Logger) *Client {
	return &Client{
		BaseURL:    baseURL,
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
		Logger:     logger,
	}
}

// ListAvailableSlots fetches the presented slots for one day. An empty slice
// is a legitimate "no availability" answer, not an error.
func (c *Client) ListAvailableSlots(ctx context.Context, doctorID, hospitalID, date string) ([]models.SlotInfo, error) {
	q := url.Values{}
	q.Set("doctorId", doctorID)
	q.Set("hospitalId", hospitalID)
	q.Set("date", date)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/availability?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build availability request: %w", err)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("availability service unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("availability service returned %d: %s", resp.StatusCode, string(msg))
	}

	var slots []models.SlotInfo
	if err := json.NewDecoder(resp.Body).Decode(&slots); err != nil {
		return nil, fmt.Errorf("failed to decode slot listing: %w", err)
	}
	return slots, nil
}

type conflictProbe struct {
	DoctorID   string `json:"doctorId"`
	HospitalID string `json:"hospitalId"`
	Date       string `json:"date"`
	Time       string `json:"time,omitempty"`
}

// CheckConflict asks whether the tuple is already booked. A transport failure
// is returned as an error and must not be read as "no conflict" by callers.
func (c *Client) CheckConflict(ctx context.Context, doctorID, hospitalID, date, timeOfDay string) (*models.ConflictResult, error) {
	payload, err := json.Marshal(conflictProbe{
		DoctorID:   doctorID,
		HospitalID: hospitalID,
		Date:       date,
		Time:       timeOfDay,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal conflict probe: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/availability/conflict", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build conflict probe: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("availability service unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("availability service returned %d: %s", resp.StatusCode, string(msg))
	}

	var result models.ConflictResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode conflict result: %w", err)
	}
	if c.Logger != nil && result.HasConflict {
		c.Logger.Debug("conflict reported",
			zap.String("doctorID", doctorID), zap.String("date", date), zap.String("time", timeOfDay))
	}
	return &result, nil
}
