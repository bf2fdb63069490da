package model

import (
	"time"

	"cloud.google.com/go/civil"
)

// Holiday is a named date on which appointments are not scheduled.
type Holiday struct {
	ID   string     `json:"id"`
	Name string     `json:"holiday_name"`
	Date civil.Date `json:"holiday_date"`
}

// ConsentType is a consent version and the window in which it applies.
// (Version, AppLabel, ModelName) is unique.
type ConsentType struct {
	ID            string    `json:"id"`
	AppLabel      string    `json:"app_label"`
	ModelName     string    `json:"model_name"`
	Version       string    `json:"version"`
	StartDatetime time.Time `json:"start_datetime"`
	EndDatetime   time.Time `json:"end_datetime"`
}
