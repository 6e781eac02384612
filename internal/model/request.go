package model

import (
	"fmt"

	"github.com/HolgerKurtz/meta-ads-insights/internal/query"
)

// InsightsRequest is the wire form of a query selection. Dates are ISO
// calendar dates; empty selections take the registry defaults.
type InsightsRequest struct {
	AccountID      string   `json:"account_id"`
	AccessToken    string   `json:"access_token"`
	Level          string   `json:"level,omitempty"`
	DatePreset     string   `json:"date_preset,omitempty"`
	TimeIncrement  string   `json:"time_increment,omitempty"`
	Breakdowns     []string `json:"breakdowns,omitempty"`
	Fields         []string `json:"fields,omitempty"`
	StartDate      string   `json:"start_date,omitempty"`
	EndDate        string   `json:"end_date,omitempty"`
	ConversionGoal string   `json:"conversion_goal,omitempty"`
}

// Spec converts the request into a query spec. It fails only on dates that
// are not in YYYY-MM-DD form.
func (r InsightsRequest) Spec() (query.Spec, error) {
	start, err := query.ParseDate(r.StartDate)
	if err != nil {
		return query.Spec{}, fmt.Errorf("start_date: %w", err)
	}
	end, err := query.ParseDate(r.EndDate)
	if err != nil {
		return query.Spec{}, fmt.Errorf("end_date: %w", err)
	}
	return query.Spec{
		AccountID:      r.AccountID,
		AccessToken:    r.AccessToken,
		Level:          r.Level,
		DatePreset:     r.DatePreset,
		TimeIncrement:  r.TimeIncrement,
		Breakdowns:     r.Breakdowns,
		Fields:         r.Fields,
		StartDate:      start,
		EndDate:        end,
		ConversionGoal: r.ConversionGoal,
	}, nil
}
