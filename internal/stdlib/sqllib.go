package stdlib

import (
	"database/sql"
	"fmt"

	_ "github.com/denisenkom/go-mssqldb"
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"saurus/internal/errors"
	"saurus/internal/value"
	"saurus/internal/vm"
)

// InstallSQL registers sql-open/sql-query/sql-exec/sql-close, a thin
// Saurus-value wrapper over database/sql, grounded on the connection
// pool and scan-into-map pattern of db_manager.go's Connect/Query.
func InstallSQL(s *vm.State) {
	s.SetGlobal("sql-open", s.NewNative("sql-open", 2, nativeSQLOpen), true)
	s.SetGlobal("sql-query", s.NewNative("sql-query", -1, nativeSQLQuery), true)
	s.SetGlobal("sql-exec", s.NewNative("sql-exec", -1, nativeSQLExec), true)
	s.SetGlobal("sql-close", s.NewNative("sql-close", 1, nativeSQLClose), true)
}

func sqlDriverName(dbType string) string {
	switch dbType {
	case "sqlite", "sqlite3":
		return "sqlite3"
	case "postgres", "postgresql":
		return "postgres"
	case "mysql":
		return "mysql"
	case "mssql", "sqlserver":
		return "sqlserver"
	default:
		return ""
	}
}

func nativeSQLOpen(s *vm.State, n int) int {
	base := s.Top() - n
	dbType := s.CheckString(s.Arg(base, 0), "sql-open")
	dsn := s.CheckString(s.Arg(base, 1), "sql-open")

	driver := sqlDriverName(dbType)
	if driver == "" {
		s.Error(errors.UserError, "sql-open: unsupported database type: %s", dbType)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		s.Error(errors.ResourceError, "sql-open: %s", err.Error())
	}
	if err := db.Ping(); err != nil {
		db.Close()
		s.Error(errors.ResourceError, "sql-open: ping failed: %s", err.Error())
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)

	s.Push(s.NewNativeData(db))
	return 1
}

func checkedDB(s *vm.State, v value.Value, what string) *sql.DB {
	s.CheckKind(v, value.NativeData, what)
	db, ok := s.NativeDataOf(v).(*sql.DB)
	if !ok {
		s.Error(errors.TypeError, "%s: not a SQL connection", what)
	}
	return db
}

// nativeSQLQuery runs a query returning rows, each scanned into a
// Saurus map keyed by column name, collected into a vector —
// db_manager.go's Query adapted to Saurus's persistent collections
// instead of Go maps/slices.
func nativeSQLQuery(s *vm.State, n int) int {
	base := s.Top() - n
	if err := s.CheckArgs(base, n, value.NativeData, value.String); err != nil {
		panic(err)
	}
	db := checkedDB(s, s.Arg(base, 0), "sql-query")
	query := s.CheckString(s.Arg(base, 1), "sql-query")

	args := make([]interface{}, n-2)
	for i := 2; i < n; i++ {
		args[i-2] = sqlArgOf(s, s.Arg(base, i))
	}

	rows, err := db.Query(query, args...)
	if err != nil {
		s.Error(errors.ResourceError, "sql-query: %s", err.Error())
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		s.Error(errors.ResourceError, "sql-query: %s", err.Error())
	}

	values := make([]interface{}, len(columns))
	ptrs := make([]interface{}, len(columns))
	for i := range values {
		ptrs[i] = &values[i]
	}

	results := s.NewVector()
	acc := s.VectorOf(results)
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			s.Error(errors.ResourceError, "sql-query: %s", err.Error())
		}
		rowMap := s.NewMap()
		m := s.MapOf(rowMap)
		for i, col := range columns {
			m = m.Insert(s.NewString(col), sqlValueOf(s, values[i]))
		}
		acc = acc.Push(s.NewMapFrom(m))
	}
	if err := rows.Err(); err != nil {
		s.Error(errors.ResourceError, "sql-query: %s", err.Error())
	}

	s.Push(s.NewVectorFrom(acc))
	return 1
}

func nativeSQLExec(s *vm.State, n int) int {
	base := s.Top() - n
	if err := s.CheckArgs(base, n, value.NativeData, value.String); err != nil {
		panic(err)
	}
	db := checkedDB(s, s.Arg(base, 0), "sql-exec")
	query := s.CheckString(s.Arg(base, 1), "sql-exec")

	args := make([]interface{}, n-2)
	for i := 2; i < n; i++ {
		args[i-2] = sqlArgOf(s, s.Arg(base, i))
	}

	result, err := db.Exec(query, args...)
	if err != nil {
		s.Error(errors.ResourceError, "sql-exec: %s", err.Error())
	}
	affected, err := result.RowsAffected()
	if err != nil {
		s.Error(errors.ResourceError, "sql-exec: %s", err.Error())
	}
	s.Push(s.NewNumber(float64(affected)))
	return 1
}

func nativeSQLClose(s *vm.State, n int) int {
	v := s.Arg(s.Top()-n, 0)
	db := checkedDB(s, v, "sql-close")
	if err := db.Close(); err != nil {
		s.Error(errors.ResourceError, "sql-close: %s", err.Error())
	}
	s.ClearNativeData(v)
	return 0
}

func sqlArgOf(s *vm.State, v value.Value) interface{} {
	switch v.Kind() {
	case value.Number:
		return v.AsNumber()
	case value.String:
		return s.Stringify(v)
	case value.Boolean:
		return v.AsBool()
	case value.Nil:
		return nil
	default:
		s.Error(errors.TypeError, "sql argument: unsupported value kind %s", v.Kind())
		return nil
	}
}

func sqlValueOf(s *vm.State, v interface{}) value.Value {
	switch x := v.(type) {
	case nil:
		return s.NewNil()
	case []byte:
		return s.NewString(string(x))
	case string:
		return s.NewString(x)
	case int64:
		return s.NewNumber(float64(x))
	case float64:
		return s.NewNumber(x)
	case bool:
		return s.NewBool(x)
	default:
		return s.NewString(fmt.Sprintf("%v", x))
	}
}
