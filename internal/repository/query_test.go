package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGroupNamesQuery(t *testing.T) {
	sql, args, err := groupNamesQuery([]string{"m-1", "m-2"}).Build(context.Background())
	require.NoError(t, err)

	assert.Contains(t, sql, `"member_groups"."member_id" IN ($1, $2)`)
	assert.Equal(t, []any{"m-1", "m-2"}, args)
}

func TestContactsByMembersQuery(t *testing.T) {
	sql, args, err := contactsByMembersQuery([]string{"m-1", "m-2", "m-3"}).Build(context.Background())
	require.NoError(t, err)

	assert.Contains(t, sql, `"member_id" IN ($1, $2, $3)`)
	assert.Equal(t, []any{"m-1", "m-2", "m-3"}, args)
}

func TestInArgs(t *testing.T) {
	assert.Empty(t, inArgs([]string{}))
	assert.Len(t, inArgs([]int64{1, 2}), 2)
}

func TestSetStatementColumnQuery(t *testing.T) {
	sql, args, err := setStatementColumnQuery(7, "short_description", "Hüttentour").Build(context.Background())
	require.NoError(t, err)

	assert.Contains(t, sql, `UPDATE statement`)
	assert.Contains(t, sql, `"short_description" = $1`)
	assert.Contains(t, sql, `"id" = $2`)
	assert.Equal(t, []any{"Hüttentour", int64(7)}, args)
}
