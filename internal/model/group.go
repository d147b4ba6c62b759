package model

type Group struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	YearFrom     int    `json:"year_from"`
	YearTo       int    `json:"year_to"`
	ShowWebsite  bool   `json:"show_website"`
	ContactEmail string `json:"contact_email,omitempty"`
}
