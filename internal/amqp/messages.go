package amqp

import (
	"encoding/json"
	"time"

	"appsales/internal/core"
)

// ReportCompletedMessage announces that a period report was produced.
// It carries totals only; consumers read the records from a report sink.
type ReportCompletedMessage struct {
	Period    string     `json:"period"`
	Year      int        `json:"year"`
	Month     int        `json:"month"`
	Count     int        `json:"count"`
	TotalPaid core.Money `json:"total_paid"`
	Apps      int        `json:"apps"`
	Timestamp time.Time  `json:"timestamp"`
}

func NewReportCompletedMessage(r core.Report, now time.Time) *ReportCompletedMessage {
	return &ReportCompletedMessage{
		Period:    r.Period.String(),
		Year:      r.Period.Year,
		Month:     r.Period.Month,
		Count:     r.Summary.Count,
		TotalPaid: r.Summary.TotalPaid,
		Apps:      len(r.Apps),
		Timestamp: now.UTC(),
	}
}

func (m *ReportCompletedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func ReportCompletedMessageFromJSON(data []byte) (*ReportCompletedMessage, error) {
	var msg ReportCompletedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
