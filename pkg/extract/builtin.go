// SPDX-License-Identifier: Apache-2.0

// Package extract implements the reference extractor (C2): walking SQL and
// pl/pgsql abstract syntax trees to discover every catalog object a given
// piece of source text references, so the differ can order statements by
// dependency.
package extract

// builtInNames is the set of unqualified type/object names that never count
// as a dependency on a user-defined catalog object, because they always
// resolve to a pg_catalog built-in regardless of search_path.
var builtInNames = map[string]bool{
	"bool": true, "boolean": true, "bytea": true, "char": true, "bpchar": true,
	"varchar": true, "character": true, "text": true, "name": true,
	"int2": true, "smallint": true, "int4": true, "int": true, "integer": true,
	"int8": true, "bigint": true, "float4": true, "real": true,
	"float8": true, "double precision": true, "numeric": true, "decimal": true,
	"money": true, "date": true, "time": true, "timetz": true,
	"timestamp": true, "timestamptz": true, "interval": true,
	"uuid": true, "json": true, "jsonb": true, "xml": true,
	"point": true, "line": true, "lseg": true, "box": true, "path": true,
	"polygon": true, "circle": true, "cidr": true, "inet": true, "macaddr": true,
	"macaddr8": true, "bit": true, "varbit": true, "tsvector": true, "tsquery": true,
	"regclass": true, "regproc": true, "regtype": true, "oid": true, "void": true,
	"record": true, "trigger": true, "event_trigger": true, "anyelement": true,
	"anyarray": true, "anynonarray": true, "anyenum": true, "serial": true,
	"bigserial": true, "smallserial": true,
}

// builtInFunctions is the set of unqualified function names resolved from
// pg_catalog regardless of search_path, and so also never a dependency.
var builtInFunctions = map[string]bool{
	"now": true, "current_timestamp": true, "current_date": true, "current_time": true,
	"localtime": true, "localtimestamp": true, "current_user": true, "session_user": true,
	"current_role": true, "current_schema": true, "current_catalog": true, "user": true,
	"count": true, "sum": true, "avg": true, "min": true, "max": true,
	"coalesce": true, "nullif": true, "greatest": true, "least": true,
	"length": true, "upper": true, "lower": true, "trim": true, "substring": true,
	"concat": true, "concat_ws": true, "array_agg": true, "jsonb_build_object": true,
	"json_build_object": true, "to_char": true, "to_date": true, "to_timestamp": true,
	"to_number": true, "generate_series": true, "gen_random_uuid": true,
	"uuid_generate_v4": true, "extract": true, "cast": true, "row_number": true,
}

// isBuiltIn reports whether an unqualified name should be elided from
// dependency lists because it always resolves to a pg_catalog built-in.
func isBuiltIn(name string) bool {
	return builtInNames[name] || builtInFunctions[name]
}

// RegisterBuiltInNames extends the built-in type/object allow-list with
// project-specific entries, for names that resolve unqualified through a
// search_path the extractor cannot see (e.g. an extension-provided type
// always installed ahead of time). Intended to be called once at startup
// from a loaded project configuration.
func RegisterBuiltInNames(names ...string) {
	for _, n := range names {
		builtInNames[n] = true
	}
}

// RegisterBuiltInFunctions extends the built-in function allow-list the
// same way RegisterBuiltInNames does for types.
func RegisterBuiltInFunctions(names ...string) {
	for _, n := range names {
		builtInFunctions[n] = true
	}
}
