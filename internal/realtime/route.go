package realtime

import "strings"

// Params holds the named segments extracted from a matched path. Keys keep
// their leading colon, so the schema "/wiki/:id" binds Params[":id"].
type Params map[string]string

// Handler owns a routed connection. It is invoked once per successful
// upgrade, before the connection's pumps start, so it can register callbacks
// and queue initial messages without racing inbound frames.
type Handler func(conn *Conn, params Params)

type route struct {
	schema  string
	handler Handler
}

// Table is an ordered set of path schemas mapped to handlers. Routes are
// registered at startup and never mutated afterwards; dispatch walks them in
// registration order and stops at the first match.
type Table struct {
	routes []route
}

// NewTable creates an empty route table.
func NewTable() *Table {
	return &Table{}
}

// Handle registers handler for the given schema. Registration order is
// dispatch order.
func (t *Table) Handle(schema string, handler Handler) {
	t.routes = append(t.routes, route{schema: schema, handler: handler})
}

// lookup returns the handler and params of the first schema matching path.
func (t *Table) lookup(path string) (Handler, Params, bool) {
	for _, rt := range t.routes {
		if params, ok := Match(rt.schema, path); ok {
			return rt.handler, params, true
		}
	}
	return nil, nil, false
}

// Match reports whether path matches schema and returns the bound parameters.
//
// Both schema and path are split on "/" with empty segments discarded, so
// leading, trailing and duplicate slashes are tolerated. A schema segment
// beginning with ':' always matches and binds the path segment under that
// name; any other segment must equal the path segment exactly (case
// sensitive, no decoding). A path shorter than the schema never matches; a
// path longer than the schema matches, with the extra segments ignored and
// left out of the params.
func Match(schema, path string) (Params, bool) {
	schemaSegs := splitPath(schema)
	pathSegs := splitPath(path)

	if len(pathSegs) < len(schemaSegs) {
		return nil, false
	}

	params := make(Params)
	for i, seg := range schemaSegs {
		if strings.HasPrefix(seg, ":") {
			params[seg] = pathSegs[i]
			continue
		}
		if seg != pathSegs[i] {
			return nil, false
		}
	}
	return params, true
}

// splitPath splits p on "/" and drops empty segments.
func splitPath(p string) []string {
	var segs []string
	for _, seg := range strings.Split(p, "/") {
		if seg != "" {
			segs = append(segs, seg)
		}
	}
	return segs
}
