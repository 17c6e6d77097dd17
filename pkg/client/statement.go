package client

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
)

const (
	// resultFormat requests row data as JSON arrays.
	resultFormat = "JSON_ARRAY"

	// resultDisposition requests rows inline in the status response rather
	// than via external links.
	resultDisposition = "INLINE"

	// submitWaitTimeout tells the submit endpoint to return immediately;
	// completion is observed through polling.
	submitWaitTimeout = "0s"

	// cancelTimeout bounds the best-effort remote cancel issued when the
	// caller abandons an execution.
	cancelTimeout = 5 * time.Second
)

// Execute submits a SQL statement and waits for its completion. warehouseID
// overrides the configured default when non-empty. On success the returned
// envelope contains the ordered column descriptors and every row across all
// result chunks. All faults are *Error values classified by ErrorKind.
func (c *Client) Execute(ctx context.Context, sql, warehouseID string) (*Result, error) {
	wh := warehouseID
	if wh == "" {
		wh = c.cfg.WarehouseID
	}
	if wh == "" {
		return nil, configErr("no warehouse id: provide one per statement or configure a default")
	}

	execID := uuid.NewString()
	log := c.log.With("exec_id", execID, "warehouse_id", wh)
	log.Debug("submitting statement")

	resp, err := c.submit(ctx, sql, wh)
	if err != nil {
		return nil, err
	}
	if resp.StatementID == "" {
		return nil, transportErr("submit response contained no statement_id")
	}
	log = log.With("statement_id", resp.StatementID)

	state := responseState(resp)
	if !state.Terminal() {
		resp, err = c.poll(ctx, resp.StatementID, state, log)
		if err != nil {
			return nil, err
		}
		state = responseState(resp)
	}

	switch state {
	case StateSucceeded:
		log.Debug("statement succeeded")
		return c.assemble(ctx, resp)
	case StateCanceled:
		return nil, &Error{
			Kind:    KindCanceled,
			Message: "statement execution canceled: " + upstreamMessage(resp),
			State:   state,
			Code:    upstreamCode(resp),
		}
	default: // FAILED, CLOSED
		return nil, &Error{
			Kind:    KindFailed,
			Message: "statement execution failed: " + upstreamMessage(resp),
			State:   state,
			Code:    upstreamCode(resp),
		}
	}
}

// submit creates the statement and returns the initial response.
func (c *Client) submit(ctx context.Context, sql, warehouseID string) (*statementResponse, error) {
	body := submitRequest{
		Statement:   sql,
		WarehouseID: warehouseID,
		WaitTimeout: submitWaitTimeout,
		Format:      resultFormat,
		Disposition: resultDisposition,
	}
	var resp statementResponse
	if err := c.doJSON(ctx, http.MethodPost, statementsPath, body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// poll drives the statement to a terminal state: wait one full interval, check
// status, repeat. Each wait-and-check consumes one unit of the fixed budget;
// the loop exits on the first terminal state or when the budget runs out. Only
// "still pending" is ever retried; transport faults abort immediately.
func (c *Client) poll(ctx context.Context, statementID string, lastState State, log *slog.Logger) (*statementResponse, error) {
	for attempt := 1; attempt <= c.cfg.MaxPolls; attempt++ {
		select {
		case <-ctx.Done():
			c.cancelRemote(statementID)
			return nil, transportErr("statement polling abandoned: %v", ctx.Err())
		case <-c.clock.After(c.cfg.PollInterval):
		}

		resp, err := c.getStatement(ctx, statementID)
		if err != nil {
			return nil, err
		}

		state := responseState(resp)
		log.Debug("polled statement", "attempt", attempt, "state", state)
		if state.Terminal() {
			return resp, nil
		}
		lastState = state
	}

	return nil, &Error{
		Kind:    KindTimeout,
		Message: fmt.Sprintf("statement did not complete within %d polls of %s", c.cfg.MaxPolls, c.cfg.PollInterval),
		State:   lastState,
	}
}

// getStatement fetches the current status (and, once succeeded, the manifest
// and first result chunk).
func (c *Client) getStatement(ctx context.Context, statementID string) (*statementResponse, error) {
	var resp statementResponse
	if err := c.doJSON(ctx, http.MethodGet, statementsPath+"/"+statementID, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// assemble builds the result envelope, following next_chunk_index until the
// final chunk so rows keep their original order.
func (c *Client) assemble(ctx context.Context, resp *statementResponse) (*Result, error) {
	res := &Result{
		Columns: manifestColumns(resp.Manifest),
		Rows:    [][]any{},
	}

	chunk := resp.Result
	for chunk != nil {
		res.Rows = append(res.Rows, chunk.DataArray...)
		if chunk.NextChunkIndex == nil {
			break
		}
		next, err := c.getChunk(ctx, resp.StatementID, *chunk.NextChunkIndex)
		if err != nil {
			return nil, err
		}
		chunk = next
	}

	res.RowCount = len(res.Rows)
	return res, nil
}

// getChunk fetches one result chunk by index.
func (c *Client) getChunk(ctx context.Context, statementID string, index int) (*resultChunk, error) {
	path := fmt.Sprintf("%s/%s/result/chunks/%d", statementsPath, statementID, index)
	var chunk resultChunk
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &chunk); err != nil {
		return nil, err
	}
	return &chunk, nil
}

// cancelRemote issues one best-effort cancel for an abandoned statement. The
// warehouse may still run the statement to completion; failures are dropped.
func (c *Client) cancelRemote(statementID string) {
	ctx, cancel := context.WithTimeout(context.Background(), cancelTimeout)
	defer cancel()

	path := statementsPath + "/" + statementID + "/cancel"
	if err := c.doJSON(ctx, http.MethodPost, path, nil, nil); err != nil {
		c.log.Debug("best-effort statement cancel failed", "statement_id", statementID, "error", err)
	}
}

// responseState extracts the state, defaulting to PENDING when the status
// block is absent.
func responseState(resp *statementResponse) State {
	if resp.Status == nil || resp.Status.State == "" {
		return StatePending
	}
	return resp.Status.State
}

// manifestColumns converts the manifest schema into envelope columns.
func manifestColumns(m *resultManifest) []Column {
	if m == nil || m.Schema == nil {
		return []Column{}
	}
	cols := make([]Column, 0, len(m.Schema.Columns))
	for _, mc := range m.Schema.Columns {
		typ := mc.TypeText
		if typ == "" {
			typ = mc.TypeName
		}
		cols = append(cols, Column{Name: mc.Name, Type: typ})
	}
	return cols
}

// upstreamMessage extracts the upstream error message, if any.
func upstreamMessage(resp *statementResponse) string {
	if resp.Status != nil && resp.Status.Error != nil && resp.Status.Error.Message != "" {
		return resp.Status.Error.Message
	}
	return "no error details provided"
}

// upstreamCode extracts the upstream error code, if any.
func upstreamCode(resp *statementResponse) string {
	if resp.Status != nil && resp.Status.Error != nil {
		return resp.Status.Error.ErrorCode
	}
	return ""
}
