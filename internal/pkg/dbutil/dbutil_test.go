package dbutil

import (
	"fmt"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/require"
)

func TestFinalizeRebindsAndSwapsLimit(t *testing.T) {
	query, args := Finalize("SELECT * FROM bookings WHERE customer_id=? ORDER BY ctime DESC LIMIT ?,?", []interface{}{"c1", 0, 20})
	require.Equal(t, "SELECT * FROM bookings WHERE customer_id=$1 ORDER BY ctime DESC LIMIT $2 OFFSET $3", query)
	require.Equal(t, []interface{}{"c1", 20, 0}, args)
}

func TestFinalizeWithoutLimit(t *testing.T) {
	query, args := Finalize("INSERT INTO customers (id,name) VALUES (?,?)", []interface{}{"c1", "Jane"})
	require.Equal(t, "INSERT INTO customers (id,name) VALUES ($1,$2)", query)
	require.Equal(t, []interface{}{"c1", "Jane"}, args)
}

func TestIsConflict(t *testing.T) {
	require.True(t, IsConflict(&pq.Error{Code: uniqueViolation}))
	require.True(t, IsConflict(fmt.Errorf("insert: %w", &pq.Error{Code: uniqueViolation})))
	require.False(t, IsConflict(&pq.Error{Code: "23503"}))
	require.False(t, IsConflict(nil))
}
