package service

import (
	"github.com/jdav-kompass/kompass/internal/model"
	"github.com/jdav-kompass/kompass/internal/repository"
)

func toRepoMember(m *model.Member) *repository.Member {
	return &repository.Member{
		ID:               m.ID,
		Prename:          m.Prename,
		Lastname:         m.Lastname,
		Email:            m.Email,
		AlternativeEmail: m.AlternativeEmail,
		Phone:            m.Phone,
		Street:           m.Street,
		PostalCode:       m.PostalCode,
		Town:             m.Town,
		BirthDate:        m.BirthDate,
		Gender:           string(m.Gender),
		SwimmingBadge:    m.SwimmingBadge,
		ClimbingBadge:    m.ClimbingBadge,
		DAVBadgeNo:       m.DAVBadgeNo,
		Comments:         m.Comments,
	}
}

func toRepoContact(c *model.EmergencyContact) *repository.EmergencyContact {
	return &repository.EmergencyContact{
		ID:       c.ID,
		MemberID: c.MemberID,
		Name:     c.Name,
		Relation: c.Relation,
		Phone:    c.Phone,
		Position: c.Position,
	}
}

func toModelMember(m *repository.Member, groups []string, contacts []*repository.EmergencyContact) *model.Member {
	res := &model.Member{
		ID:                m.ID,
		Prename:           m.Prename,
		Lastname:          m.Lastname,
		Email:             m.Email,
		AlternativeEmail:  m.AlternativeEmail,
		Phone:             m.Phone,
		Street:            m.Street,
		PostalCode:        m.PostalCode,
		Town:              m.Town,
		BirthDate:         m.BirthDate,
		Gender:            model.Gender(m.Gender),
		Groups:            groups,
		SwimmingBadge:     m.SwimmingBadge,
		ClimbingBadge:     m.ClimbingBadge,
		DAVBadgeNo:        m.DAVBadgeNo,
		Comments:          m.Comments,
		EmergencyContacts: make([]*model.EmergencyContact, 0, len(contacts)),
	}
	for _, c := range contacts {
		res.EmergencyContacts = append(res.EmergencyContacts, &model.EmergencyContact{
			ID:       c.ID,
			MemberID: c.MemberID,
			Name:     c.Name,
			Relation: c.Relation,
			Phone:    c.Phone,
			Position: c.Position,
		})
	}
	return res
}

func toModelExcursion(e *repository.Excursion) *model.Excursion {
	return &model.Excursion{
		ID:             e.ID,
		Name:           e.Name,
		Place:          e.Place,
		Start:          e.Start,
		End:            e.End,
		LeaderIDs:      e.LeaderIDs,
		ParticipantIDs: e.ParticipantIDs,
	}
}

func toModelStatement(s *repository.Statement) *model.Statement {
	return &model.Statement{
		ID:               s.ID,
		ExcursionID:      s.ExcursionID,
		CreatedBy:        s.CreatedBy,
		Status:           s.Status,
		ShortDescription: s.ShortDescription,
	}
}
