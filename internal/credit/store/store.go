package store

import (
	"embed"

	"credito/pkg/platform/sentinel"
)

// ErrNotFound is returned when no credit matches a credit number.
var ErrNotFound = sentinel.ErrNotFound

// Migrations holds the schema for the credito table.
//
//go:embed migrations/*.sql
var Migrations embed.FS

// MigrationsDir is the directory inside Migrations holding the SQL files.
const MigrationsDir = "migrations"
