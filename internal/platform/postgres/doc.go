// Package postgres implements store.EntityStore on PostgreSQL. Every resource
// type shares one records table holding attributes as JSONB, with
// relationships kept in a separate link table. Schema changes ship as embedded
// goose migrations.
package postgres
