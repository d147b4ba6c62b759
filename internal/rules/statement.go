package rules

import "github.com/jdav-kompass/kompass/internal/model"

// StatementResource exposes a financial statement and, when it belongs to
// one, its excursion.
type StatementResource struct {
	Statement *model.Statement
	Trip      *model.Excursion
}

func (s StatementResource) Creator() Field[string] {
	if s.Statement.CreatedBy == nil {
		return Lacks[string]()
	}
	return Has(*s.Statement.CreatedBy)
}

func (s StatementResource) Status() Field[model.StatementStatus] {
	return Has(s.Statement.Status)
}

func (s StatementResource) Excursion() Field[*model.Excursion] {
	if s.Trip == nil {
		return Lacks[*model.Excursion]()
	}
	return Has(s.Trip)
}
