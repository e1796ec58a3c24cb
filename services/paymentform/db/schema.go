package db

import (
	_ "embed"
)

//go:embed schema.sql
var Schema string

type Method string

const (
	METHOD_MANUAL Method = "manual"
	METHOD_CHECK  Method = "check"
)
