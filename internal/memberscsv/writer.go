package memberscsv

import (
	"encoding/csv"
	"io"
	"strings"

	"github.com/jdav-kompass/kompass/internal/model"
	"github.com/pkg/errors"
)

// Writer encodes members as CSV rows with a fixed emergency contact width.
// The header is written before the first row, or on Flush when no row was
// written.
type Writer struct {
	w             *csv.Writer
	contactGroups int
	wroteHeader   bool
}

func NewWriter(w io.Writer, contactGroups int) *Writer {
	return &Writer{
		w:             csv.NewWriter(w),
		contactGroups: contactGroups,
	}
}

func (w *Writer) writeHeader() error {
	if w.wroteHeader {
		return nil
	}
	w.wroteHeader = true
	return w.w.Write(Header(w.contactGroups))
}

func (w *Writer) Write(m *model.Member) error {
	if len(m.EmergencyContacts) > w.contactGroups {
		return errors.Wrapf(ErrTooManyContacts, "member %s has %d, width is %d", m.ID, len(m.EmergencyContacts), w.contactGroups)
	}
	if err := w.writeHeader(); err != nil {
		return err
	}
	return w.w.Write(encodeMember(m, w.contactGroups))
}

func (w *Writer) Flush() error {
	if err := w.writeHeader(); err != nil {
		return err
	}
	w.w.Flush()
	return w.w.Error()
}

func encodeMember(m *model.Member, contactGroups int) []string {
	swimming := "false"
	if m.SwimmingBadge {
		swimming = "true"
	}

	record := make([]string, 0, len(flatColumns)+contactGroups*len(contactFields))
	record = append(record,
		m.ID,
		m.Prename,
		m.Lastname,
		m.Email,
		m.AlternativeEmail,
		m.Phone,
		m.Street,
		m.PostalCode,
		m.Town,
		m.BirthDate.Format(model.DateLayout),
		string(m.Gender),
		strings.Join(m.Groups, GroupSeparator),
		swimming,
		m.ClimbingBadge,
		m.DAVBadgeNo,
		m.Comments,
	)

	for i := 0; i < contactGroups; i++ {
		if i < len(m.EmergencyContacts) {
			c := m.EmergencyContacts[i]
			record = append(record, c.Name, c.Relation, c.Phone)
			continue
		}
		record = append(record, "", "", "")
	}
	return record
}

// ContactWidth returns the widest emergency contact list among members.
func ContactWidth(members []*model.Member) int {
	width := 0
	for _, m := range members {
		width = max(width, len(m.EmergencyContacts))
	}
	return width
}

// Encode writes members in the given order. The emergency contact width is
// the larger of minContactGroups and the widest member.
func Encode(w io.Writer, members []*model.Member, minContactGroups int) error {
	cw := NewWriter(w, max(minContactGroups, ContactWidth(members)))
	for _, m := range members {
		if err := cw.Write(m); err != nil {
			return err
		}
	}
	return cw.Flush()
}
