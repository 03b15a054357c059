// Package sql wraps database/sql with the error handling and statement
// building conventions used across this repository. The migration pipeline
// runs every statement in auto-commit mode, so the connection intentionally
// carries no transaction state.
package sql

import (
	"database/sql"
	"fmt"
	"os"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/labinsight/dbops/e"
	"github.com/rs/zerolog/log"

	// Including postgres library for SQL connections
	_ "github.com/lib/pq"
)

const (
	ECode020101 = e.Code0201 + "01"
	ECode020102 = e.Code0201 + "02"
	ECode020103 = e.Code0201 + "03"
	ECode020104 = e.Code0201 + "04"
)

// Connection wrapper of the *sql.DB
type Connection struct {
	DB *sql.DB
}

// ConnParam connection parameters used to initialize a connection
type ConnParam struct {
	Host       string
	Port       string
	User       string
	Password   string
	DBName     string
	SSLMode    string
	SearchPath string
}

// GetConnParamFromENV initializes new connection parameters and populates from ENV variables
func GetConnParamFromENV() (cp *ConnParam) {
	cp = &ConnParam{}

	if os.Getenv("DBHOST") != "" {
		cp.Host = os.Getenv("DBHOST")
	}
	if os.Getenv("DBPORT") != "" {
		cp.Port = os.Getenv("DBPORT")
	}
	if os.Getenv("DBUSER") != "" {
		cp.User = os.Getenv("DBUSER")
	}
	if os.Getenv("DBPASS") != "" {
		cp.Password = os.Getenv("DBPASS")
	}
	if os.Getenv("DBNAME") != "" {
		cp.DBName = os.Getenv("DBNAME")
	}
	if os.Getenv("SSLMODE") != "" {
		cp.SSLMode = fmt.Sprintf("sslmode=%s", os.Getenv("SSLMODE"))
	}
	if os.Getenv("DBSEARCHPATH") != "" {
		cp.SearchPath = fmt.Sprintf("search_path=%s", os.Getenv("DBSEARCHPATH"))
	}

	return cp
}

// GetConnectionStr returns a connection string
func GetConnectionStr(cp *ConnParam) (connStr string) {
	var csb strings.Builder

	if cp == nil {
		cp = GetConnParamFromENV()
	}

	_, _ = csb.WriteString("host=")
	_, _ = csb.WriteString(cp.Host)
	_, _ = csb.WriteString(" port=")
	_, _ = csb.WriteString(cp.Port)
	_, _ = csb.WriteString(" user=")
	_, _ = csb.WriteString(cp.User)
	_, _ = csb.WriteString(" password=")
	_, _ = csb.WriteString(cp.Password)
	_, _ = csb.WriteString(" dbname=")
	_, _ = csb.WriteString(cp.DBName)

	_, _ = csb.WriteString(" ")
	if cp.SSLMode != "" {
		_, _ = csb.WriteString(cp.SSLMode)
	} else {
		_, _ = csb.WriteString("sslmode=require")
	}

	if cp.SearchPath != "" {
		_, _ = csb.WriteString(" ")
		_, _ = csb.WriteString(cp.SearchPath)
	}

	return csb.String()
}

// NewPostgresConn initializes a new Postgres connection
func NewPostgresConn(cp *ConnParam) (conn *Connection, err error) {
	if cp == nil {
		cp = GetConnParamFromENV()
	}

	sqlConn, err := sql.Open("postgres", GetConnectionStr(cp))
	if err != nil {
		return nil, e.W(err, ECode020101, "Failed to connect to DB")
	}
	if err := sqlConn.Ping(); err != nil {
		return nil, e.W(err, ECode020102, "Failed to ping DB")
	}

	return &Connection{DB: sqlConn}, nil
}

// Close closes the underlying DB handle, logging instead of returning
// any error so it is safe on all exit paths
func (c *Connection) Close() {
	if c == nil || c.DB == nil {
		return
	}

	if err := c.DB.Close(); err != nil {
		log.Warn().Err(err).Msg("[Connection.Close.1]")
	}
}

// Query wrapper for sql.Query
func (c *Connection) Query(query string, args ...interface{}) (rows *Rows, err error) {
	sqlRows, err := c.DB.Query(query, args...)
	if err != nil {
		// Not logging args because it may contain sensitive information. The
		// caller can log them if needed
		return nil, e.W(err, ECode020103, fmt.Sprintf("query: %s\n", query))
	}

	return &Rows{
		rows:  sqlRows,
		query: query,
	}, nil
}

// Exec wrapper for sql.Exec
func (c *Connection) Exec(query string, args ...interface{}) (res sql.Result, err error) {
	res, err = c.DB.Exec(query, args...)
	if err != nil {
		// Not logging args because it may contain sensitive information. The
		// caller can log them if needed
		return nil, e.W(err, ECode020104, fmt.Sprintf("query: %s\n", query))
	}

	return res, nil
}

// QueryRow wrapper for sql.QueryRow
func (c *Connection) QueryRow(query string, args ...interface{}) (row *Row) {
	return &Row{
		row:   c.DB.QueryRow(query, args...),
		query: query,
	}
}

// Select wrapper for github.com/Masterminds/squirrel.Select
func (c *Connection) Select(columns ...string) sq.SelectBuilder {
	return sq.StatementBuilder.PlaceholderFormat(sq.Dollar).Select(columns...)
}

// Insert wrapper for github.com/Masterminds/squirrel.Insert
func (c *Connection) Insert(table string) sq.InsertBuilder {
	return sq.StatementBuilder.PlaceholderFormat(sq.Dollar).Insert(table)
}

// ToSQLAndQuery converts the select builder to a SQL statement and bind
// parameters, then attempts to execute the query, returning the rows
func (c *Connection) ToSQLAndQuery(sb sq.SelectBuilder) (rows *Rows, err error) {
	stmt, bindList, err := sb.ToSql()
	if err != nil {
		return nil, e.W(err, ECode020103, fmt.Sprintf("stmt: %s\n", stmt))
	}

	return c.Query(stmt, bindList...)
}

// ExecInsert wrapper to generate SQL/bind list and then execute insert query
func (c *Connection) ExecInsert(ib sq.InsertBuilder) (err error) {
	stmt, bindList, err := ib.ToSql()
	if err != nil {
		// Not logging args because it may contain sensitive information. The
		// caller can log them if needed
		return e.W(err, ECode020104, fmt.Sprintf("stmt: %s\n", stmt))
	}

	if _, err := c.Exec(stmt, bindList...); err != nil {
		return e.W(err, ECode020104)
	}

	return nil
}
