package constants

// Query parameter names accepted by the HTTP API.
const (
	// QueryParamTotal is the item count for which a page count is computed.
	// Used in: server/server.go
	QueryParamTotal = "total"

	// QueryParamKind filters the route listing by endpoint kind.
	// Used in: server/server.go
	QueryParamKind = "kind"

	// QueryParamPage selects a page of a backend list response.
	// Used in: drift/checker.go
	// Purpose: The drift probe always asks for the first page
	QueryParamPage = "page"
)

// MaxPaginationTotal caps the total accepted by the pagination endpoint.
// Used in: server/server.go
// Purpose: Rejects absurd values before any arithmetic is done
const MaxPaginationTotal = 1_000_000_000
