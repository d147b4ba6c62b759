package memberscsv

import (
	"fmt"
	"regexp"
	"strconv"
)

const (
	ColID               = "id"
	ColPrename          = "prename"
	ColLastname         = "lastname"
	ColEmail            = "email"
	ColAlternativeEmail = "alternative_email"
	ColPhone            = "phone"
	ColStreet           = "street"
	ColPostalCode       = "postal_code"
	ColTown             = "town"
	ColBirthDate        = "birth_date"
	ColGender           = "gender"
	ColGroups           = "groups"
	ColSwimmingBadge    = "swimming_badge"
	ColClimbingBadge    = "climbing_badge"
	ColDAVBadgeNo       = "dav_badge_no"
	ColComments         = "comments"
)

// GroupSeparator joins group names inside the groups column.
const GroupSeparator = ";"

// flatColumns lists the per-member columns in canonical order.
var flatColumns = []string{
	ColID,
	ColPrename,
	ColLastname,
	ColEmail,
	ColAlternativeEmail,
	ColPhone,
	ColStreet,
	ColPostalCode,
	ColTown,
	ColBirthDate,
	ColGender,
	ColGroups,
	ColSwimmingBadge,
	ColClimbingBadge,
	ColDAVBadgeNo,
	ColComments,
}

const (
	contactName     = "name"
	contactRelation = "relation"
	contactPhone    = "phone"
)

// contactFields lists the sub-columns of one emergency contact group in canonical order.
var contactFields = []string{contactName, contactRelation, contactPhone}

var contactColumnRe = regexp.MustCompile(`^emergency_contact_([1-9][0-9]*)_(name|relation|phone)$`)

// ContactColumn returns the column name of field in the n-th (1-based) emergency contact group.
func ContactColumn(n int, field string) string {
	return fmt.Sprintf("emergency_contact_%d_%s", n, field)
}

// parseContactColumn splits an emergency contact column name into its group
// number and sub-field.
func parseContactColumn(name string) (int, string, bool) {
	m := contactColumnRe.FindStringSubmatch(name)
	if m == nil {
		return 0, "", false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, "", false
	}
	return n, m[2], true
}

// Header returns the canonical header for the given emergency contact width.
func Header(contactGroups int) []string {
	h := make([]string, 0, len(flatColumns)+contactGroups*len(contactFields))
	h = append(h, flatColumns...)
	for n := 1; n <= contactGroups; n++ {
		for _, f := range contactFields {
			h = append(h, ContactColumn(n, f))
		}
	}
	return h
}
