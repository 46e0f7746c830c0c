// Package psqlbuilder provides squirrel builders preconfigured for PostgreSQL
// ($1, $2, ... placeholders).
package psqlbuilder

import "github.com/Masterminds/squirrel"

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

// Select starts a SELECT statement.
func Select(columns ...string) squirrel.SelectBuilder {
	return psql.Select(columns...)
}

// Insert starts an INSERT statement.
func Insert(table string) squirrel.InsertBuilder {
	return psql.Insert(table)
}

// Update starts an UPDATE statement.
func Update(table string) squirrel.UpdateBuilder {
	return psql.Update(table)
}

// Delete starts a DELETE statement.
func Delete(table string) squirrel.DeleteBuilder {
	return psql.Delete(table)
}
