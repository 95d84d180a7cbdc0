package errors

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

// PGDiag is the part of a postgres error report worth logging. Both the pgx
// and lib/pq drivers surface it.
type PGDiag struct {
	Code       string `json:"pg_code,omitempty"`
	Constraint string `json:"pg_constraint,omitempty"`
	Table      string `json:"pg_table,omitempty"`
	Column     string `json:"pg_column,omitempty"`
	Detail     string `json:"pg_detail,omitempty"`
	Message    string `json:"pg_message,omitempty"`
}

func postgresDiag(err error) PGDiag {
	var pgxErr *pgconn.PgError
	if errors.As(err, &pgxErr) {
		return PGDiag{pgxErr.Code, pgxErr.ConstraintName, pgxErr.TableName, pgxErr.ColumnName, pgxErr.Detail, pgxErr.Message}
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return PGDiag{string(pqErr.Code), pqErr.Constraint, pqErr.Table, pqErr.Column, pqErr.Detail, pqErr.Message}
	}
	return PGDiag{}
}

func (p PGDiag) put(fields map[string]any) {
	if p.Code == "" {
		return
	}
	fields["pg_code"] = p.Code
	for key, value := range map[string]string{
		"pg_constraint": p.Constraint,
		"pg_table":      p.Table,
		"pg_column":     p.Column,
		"pg_detail":     p.Detail,
		"pg_message":    p.Message,
	} {
		if value != "" {
			fields[key] = value
		}
	}
}

// ErrorDump flattens an error chain into loggable fields.
type ErrorDump struct {
	TopMessage string   `json:"top_message"`
	Code       Code     `json:"code,omitempty"`
	Reason     string   `json:"reason,omitempty"`
	Retryable  bool     `json:"retryable"`
	Chain      []string `json:"chain,omitempty"`
	Postgres   PGDiag   `json:"postgres"`
}

func Dump(err error) ErrorDump {
	if err == nil {
		return ErrorDump{}
	}
	d := ErrorDump{
		TopMessage: err.Error(),
		Reason:     Reason(err),
		Retryable:  IsRetryable(err),
		Postgres:   postgresDiag(err),
	}
	if te := As(err); te != nil {
		d.Code = te.Code()
	}
	for e := err; e != nil; e = errors.Unwrap(e) {
		d.Chain = append(d.Chain, fmt.Sprintf("%T: %v", e, e))
	}
	return d
}

// Fields renders the dump as logger fields.
func (d ErrorDump) Fields() map[string]any {
	fields := map[string]any{
		"error":       d.TopMessage,
		"error_chain": d.Chain,
		"retryable":   d.Retryable,
	}
	if d.Code != "" {
		fields["error_code"] = d.Code
	}
	if d.Reason != "" {
		fields["error_reason"] = d.Reason
	}
	d.Postgres.put(fields)
	return fields
}
