package model

import (
	"time"

	"github.com/pkg/errors"
)

// DateLayout is the wire layout of calendar dates (birth dates, excursion days).
const DateLayout = "2006-01-02"

type Gender string

const (
	GenderMale    Gender = "male"
	GenderFemale  Gender = "female"
	GenderDiverse Gender = "diverse"
)

var ErrUnknownGender = errors.New("unknown gender")

func ParseGender(s string) (Gender, error) {
	switch g := Gender(s); g {
	case GenderMale, GenderFemale, GenderDiverse:
		return g, nil
	}
	return "", errors.Wrap(ErrUnknownGender, s)
}

type Member struct {
	ID                string              `json:"id"`
	Prename           string              `json:"prename"`
	Lastname          string              `json:"lastname"`
	Email             string              `json:"email,omitempty"`
	AlternativeEmail  string              `json:"alternative_email,omitempty"`
	Phone             string              `json:"phone,omitempty"`
	Street            string              `json:"street,omitempty"`
	PostalCode        string              `json:"postal_code,omitempty"`
	Town              string              `json:"town,omitempty"`
	BirthDate         time.Time           `json:"birth_date"`
	Gender            Gender              `json:"gender"`
	Groups            []string            `json:"groups"`
	SwimmingBadge     bool                `json:"swimming_badge"`
	ClimbingBadge     string              `json:"climbing_badge,omitempty"`
	DAVBadgeNo        string              `json:"dav_badge_no,omitempty"`
	Comments          string              `json:"comments,omitempty"`
	EmergencyContacts []*EmergencyContact `json:"emergency_contacts"`
}

func (m *Member) Name() string {
	return m.Prename + " " + m.Lastname
}

type EmergencyContact struct {
	ID       string `json:"id"`
	MemberID string `json:"member_id"`
	Name     string `json:"name"`
	Relation string `json:"relation,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Position int    `json:"position"`
}

// IsBlank reports whether every user-facing field of the contact is empty.
func (c *EmergencyContact) IsBlank() bool {
	return c.Name == "" && c.Relation == "" && c.Phone == ""
}
