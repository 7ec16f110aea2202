// Package reservation is the HTTP client for the reservation creation
// service. It translates the service's structured conflict answer into a
// distinct error type so callers can tell a lost booking race from a plain
// transport failure.
package reservation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"healthtrip/models"
)

// ConflictDeclined is returned when the creation endpoint rejects the draft
// because the slot was taken between the re-check and the insert.
type ConflictDeclined struct {
	Date string
	Time string
}

func (e *ConflictDeclined) Error() string {
	return fmt.Sprintf("reservation declined: slot %s %s already booked", e.Date, e.Time)
}

// Client talks to the reservation service.
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

type conflictBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Date    string `json:"date"`
	Time    string `json:"time"`
}

// Create posts the full draft payload. The idempotency key makes a retried
// submission safe after an ambiguous failure: the service deduplicates on it.
func (c *Client) Create(ctx context.Context, reqBody models.ReservationRequest, idempotencyKey string) (*models.ReservationReceipt, error) {
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal reservation request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/reservations", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build reservation request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Idempotency-Key", idempotencyKey)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("reservation service unreachable: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusCreated:
		var receipt models.ReservationReceipt
		if err := json.NewDecoder(resp.Body).Decode(&receipt); err != nil {
			return nil, fmt.Errorf("failed to decode reservation receipt: %w", err)
		}
		if c.Logger != nil {
			c.Logger.Info("reservation committed",
				zap.String("reservationID", receipt.ReservationID),
				zap.String("reservationNumber", receipt.ReservationNumber))
		}
		return &receipt, nil

	case resp.StatusCode == http.StatusConflict:
		var body conflictBody
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			// A 409 without the structured body still means the race was lost.
			return nil, &ConflictDeclined{Date: reqBody.AppointmentDate, Time: reqBody.AppointmentTime}
		}
		return nil, &ConflictDeclined{Date: body.Date, Time: body.Time}

	default:
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("reservation service returned %d: %s", resp.StatusCode, string(msg))
	}
}
