package client

// State is the execution state of a submitted statement as reported by the
// warehouse. PENDING and RUNNING are non-terminal; everything else is final.
type State string

// Statement execution states.
const (
	StatePending   State = "PENDING"
	StateRunning   State = "RUNNING"
	StateSucceeded State = "SUCCEEDED"
	StateFailed    State = "FAILED"
	StateCanceled  State = "CANCELED"
	StateClosed    State = "CLOSED"
)

// Terminal reports whether no further state transition can occur.
func (s State) Terminal() bool {
	switch s {
	case StateSucceeded, StateFailed, StateCanceled, StateClosed:
		return true
	default:
		return false
	}
}

// Column describes one column of a result set, in manifest order.
type Column struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// Result is the immutable envelope of a successfully executed statement.
// Rows are concatenated across all result chunks in their original order.
type Result struct {
	Columns  []Column `json:"columns"`
	Rows     [][]any  `json:"rows"`
	RowCount int      `json:"row_count"`
}

// submitRequest is the body of POST /api/2.0/sql/statements.
type submitRequest struct {
	Statement   string `json:"statement"`
	WarehouseID string `json:"warehouse_id"`
	WaitTimeout string `json:"wait_timeout"`
	Format      string `json:"format"`
	Disposition string `json:"disposition"`
}

// statementResponse is the body returned by both the submit and the status
// endpoints. Manifest and Result are only present once the statement succeeded.
type statementResponse struct {
	StatementID string          `json:"statement_id"`
	Status      *statementState `json:"status"`
	Manifest    *resultManifest `json:"manifest"`
	Result      *resultChunk    `json:"result"`
}

// statementState carries the execution state and, for failed statements, the
// upstream error detail.
type statementState struct {
	State State     `json:"state"`
	Error *apiError `json:"error"`
}

// apiError is the upstream error body, returned inside a failed statement's
// status and as the payload of non-2xx responses.
type apiError struct {
	ErrorCode string `json:"error_code"`
	Message   string `json:"message"`
}

// resultManifest describes the shape of a successful result.
type resultManifest struct {
	Schema          *resultSchema `json:"schema"`
	TotalChunkCount int           `json:"total_chunk_count"`
	TotalRowCount   int64         `json:"total_row_count"`
}

// resultSchema holds the ordered column descriptors.
type resultSchema struct {
	Columns []manifestColumn `json:"columns"`
}

// manifestColumn is a single column descriptor from the manifest.
type manifestColumn struct {
	Name     string `json:"name"`
	TypeText string `json:"type_text"`
	TypeName string `json:"type_name"`
	Position int    `json:"position"`
}

// resultChunk is one chunk of row data. NextChunkIndex is nil on the last
// chunk; otherwise it references the chunk to fetch next.
type resultChunk struct {
	DataArray      [][]any `json:"data_array"`
	RowCount       int64   `json:"row_count"`
	ChunkIndex     int     `json:"chunk_index"`
	NextChunkIndex *int    `json:"next_chunk_index"`
}

// tokenResponse is the body of a successful OAuth client-credentials exchange.
type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}
