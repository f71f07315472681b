package report

import "time"

// Overview is the headline count set for the reports page. Request figures
// follow the caller's request scope; equipment and teams are global.
type Overview struct {
	TotalEquipment int64 `json:"total_equipment" gorm:"column:total_equipment"`
	TotalRequests  int64 `json:"total_requests" gorm:"column:total_requests"`
	TotalTeams     int64 `json:"total_teams" gorm:"column:total_teams"`
	OpenRequests   int64 `json:"open_requests" gorm:"column:open_requests"`
}

// RequestRow is one line of the request sheet in the spreadsheet export.
type RequestRow struct {
	ID            int64     `gorm:"column:id"`
	Subject       string    `gorm:"column:subject"`
	Type          string    `gorm:"column:type"`
	Status        string    `gorm:"column:status"`
	Equipment     string    `gorm:"column:equipment"`
	Technician    *string   `gorm:"column:technician"`
	Team          *string   `gorm:"column:team"`
	ScheduledDate time.Time `gorm:"column:scheduled_date"`
}
