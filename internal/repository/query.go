package repository

import (
	"github.com/stephenafamo/bob"
	"github.com/stephenafamo/bob/dialect/psql"
)

// inArgs turns values into bind parameters for an IN list.
func inArgs[T any](values []T) []bob.Expression {
	res := make([]bob.Expression, 0, len(values))
	for _, v := range values {
		res = append(res, psql.Arg(v))
	}
	return res
}
