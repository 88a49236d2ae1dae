// Package rest exposes typed resources as paginated, filterable REST
// collections.
//
// A resource type implements Resource[T]: it declares its fields, a default
// sort order, the filters it accepts and a validation hook. NewEngine checks
// the declaration once and the resulting Engine serves list and lifecycle
// operations on top of any Store[T]. Register mounts an engine on an
// httputil.Router.
//
// List requests take these query parameters:
//
//	Parameter            | Description
//	---------------------|------------------------------------------------
//	?startRow=0          | Offset of the first row (default 0)
//	?pageSize=10         | Rows per page (default 10, 0 returns all rows)
//	?orderBy=name asc    | Comma separated "<field> asc|desc" list
//	?eq.quantity=3       | Numeric or date equality
//	?gt.quantity=3       | Numeric greater than (also ge., lt., le.)
//	?from.deadlineDate=  | Date strictly after (YYYY-MM-DD)
//	?to.deadlineDate=    | Date strictly before
//	?like.name=box       | Substring match
//	?obj.orderUuid=...   | Exact match on an identifier or enum
//
// Which parameters apply to which field is up to each resource; unknown
// parameters are ignored. Filters combine with AND.
//
// The response body is the JSON array of the page; the resolved window and
// the total number of matches come back in the startRow, pageSize and
// listSize headers.
//
// Mutations accept "Prefer: return=minimal" to get 204 No Content instead of
// the stored entity.
package rest
