package core

import "fmt"

// Summary totals every record fetched for a period.
type Summary struct {
	Count     int      `json:"count"`
	TotalPaid Money    `json:"total_paid"`
	Data      []Record `json:"data"`
}

// AppSummary totals the records of one application. The application id is the
// grouping key; AppName is carried for display.
type AppSummary struct {
	ID        string   `json:"id"`
	AppName   string   `json:"app_name"`
	Count     int      `json:"count"`
	TotalPaid Money    `json:"total_paid"`
	Data      []Record `json:"data"`
}

// Summarize totals records and partitions them by application id in a single
// left-to-right pass. Buckets are ordered by first appearance of their id and
// keep the app name seen first. Every record lands in exactly one bucket.
func Summarize(records []Record) (Summary, []AppSummary, error) {
	if records == nil {
		records = []Record{}
	}

	var total Money
	apps := make([]AppSummary, 0)
	index := make(map[string]int)

	for _, r := range records {
		amount, err := ParseAmount(r.Node.NetAmount.Amount)
		if err != nil {
			return Summary{}, nil, fmt.Errorf("record %s: %w", r.Node.ID, err)
		}
		total = total.Add(amount)

		appID := r.Node.App.ID
		if i, ok := index[appID]; ok {
			app := &apps[i]
			app.Data = append(app.Data, r)
			app.Count++
			app.TotalPaid = app.TotalPaid.Add(amount)
			continue
		}
		index[appID] = len(apps)
		apps = append(apps, AppSummary{
			ID:        appID,
			AppName:   r.Node.App.Name,
			Count:     1,
			TotalPaid: amount,
			Data:      []Record{r},
		})
	}

	return Summary{Count: len(records), TotalPaid: total, Data: records}, apps, nil
}
