package sqliteutil

import (
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/tursodatabase/libsql-client-go/libsql"
	_ "modernc.org/sqlite"
)

// Config points either at a local sqlite file or a remote libsql database,
// `url` takes precedence when both are specified.
type Config struct {
	File      string `json:"file"`
	Url       string `json:"url"`
	AuthToken string `json:"auth_token"`
}

func (c Config) Validate() error {
	if c.File == "" && c.Url == "" {
		return fmt.Errorf("database: either file or url must be specified")
	}
	if c.Url != "" {
		_, err := url.Parse(c.Url)
		if err != nil {
			return fmt.Errorf("database: invalid url: %w", err)
		}
	}
	return nil
}

// OpenDB opens the configured database and applies the schema to it.
func (c Config) OpenDB(schema string) (*sql.DB, error) {
	err := c.Validate()
	if err != nil {
		return nil, err
	}

	var db *sql.DB
	if c.Url != "" {
		db, err = openLibsql(c.Url, c.AuthToken)
	} else {
		db, err = openFile(c.File)
	}
	if err != nil {
		return nil, err
	}

	err = applySchema(db, schema)
	if err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// OpenMemory opens an in-memory sqlite database with the given schema applied.
func OpenMemory(schema string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, err
	}
	// every new connection to :memory: is a separate database
	db.SetMaxOpenConns(1)
	err = applySchema(db, schema)
	if err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func openFile(path string) (*sql.DB, error) {
	err := os.MkdirAll(filepath.Dir(path), 0700)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// sqlite only supports a single writer, see
	// https://stackoverflow.com/questions/35804884/sqlite-concurrent-writing-performance
	db.SetMaxOpenConns(1)
	_, err = db.Exec("PRAGMA journal_mode=WAL")
	if err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func openLibsql(dbUrl, authToken string) (*sql.DB, error) {
	if authToken == "" {
		return sql.Open("libsql", dbUrl)
	}
	parsed, err := url.Parse(dbUrl)
	if err != nil {
		return nil, err
	}
	query := parsed.Query()
	query.Set("authToken", authToken)
	parsed.RawQuery = query.Encode()
	return sql.Open("libsql", parsed.String())
}

func applySchema(db *sql.DB, schema string) error {
	if strings.TrimSpace(schema) == "" {
		return nil
	}
	_, err := db.Exec(schema)
	if err != nil && !strings.Contains(err.Error(), "already exists") {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
