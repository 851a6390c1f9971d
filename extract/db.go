package extract

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/ClickHouse/clickhouse-go/v2"
	_ "github.com/jackc/pgx/stdlib"

	"github.com/invertedv/cpscovid"
)

// All code interacting with a database is here.  An extract stored in a
// ClickHouse or Postgres table is read with the same required columns as the
// file loaders (lower-cased field names).

const (
	ch = "clickhouse"
	pg = "postgres"
)

// Dialect wraps a database/sql connection for one of the supported databases.
type Dialect struct {
	db      *sql.DB
	dialect string
}

func NewDialect(dialect string, db *sql.DB) (*Dialect, error) {
	dialect = strings.ToLower(dialect)

	switch dialect {
	case ch, pg:
	default:
		return nil, fmt.Errorf("unsupported database %s", dialect)
	}

	return &Dialect{db: db, dialect: dialect}, nil
}

func (d *Dialect) DB() *sql.DB {
	return d.db
}

func (d *Dialect) DialectName() string {
	return d.dialect
}

func (d *Dialect) Close() error {
	return d.db.Close()
}

// OpenCH opens a ClickHouse connection on the native port.
func OpenCH(host, user, password string) *sql.DB {
	return clickhouse.OpenDB(
		&clickhouse.Options{
			Addr: []string{host + ":9000"},
			Auth: clickhouse.Auth{
				Database: "default",
				Username: user,
				Password: password,
			},
		})
}

// OpenPG opens a Postgres connection through the pgx database/sql driver.
func OpenPG(host, user, password, dbName string) (*sql.DB, error) {
	dsn := fmt.Sprintf("postgres://%s:%s@%s:5432/%s", user, password, host, dbName)
	return sql.Open("pgx", dsn)
}

// RowCount returns the number of rows qry produces.
func (d *Dialect) RowCount(qry string) (int, error) {
	qryC := fmt.Sprintf("SELECT count(*) AS n FROM (%s) a", qry)

	row := d.db.QueryRow(qryC)

	var n int
	if e := row.Scan(&n); e != nil {
		return 0, e
	}

	return n, nil
}

// LoadTable reads the extract from table.  where may be empty or a SQL
// condition restricting the rows.
func (d *Dialect) LoadTable(table, where string) ([]cpscovid.Raw, error) {
	qry := fmt.Sprintf("SELECT year, month, wtfinl, age, sex, marst, race, educ, empstat, ind FROM %s", table)
	if where != "" {
		qry += " WHERE " + where
	}

	rows, e := d.db.Query(qry)
	if e != nil {
		return nil, fmt.Errorf("cannot read extract from %s: %w", table, e)
	}
	defer func() { _ = rows.Close() }()

	var raws []cpscovid.Raw
	for rows.Next() {
		var r cpscovid.Raw
		if e := rows.Scan(&r.Year, &r.Month, &r.Weight, &r.Age, &r.Sex, &r.Marst, &r.Race, &r.Educ, &r.EmpStat, &r.Ind); e != nil {
			return nil, fmt.Errorf("cannot read extract from %s: %w", table, e)
		}
		raws = append(raws, r)
	}

	if e := rows.Err(); e != nil {
		return nil, fmt.Errorf("cannot read extract from %s: %w", table, e)
	}

	return raws, nil
}
