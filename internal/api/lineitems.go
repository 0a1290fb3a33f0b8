package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/fraszczakszymon/dfp-query-tool/internal/lineitem"
)

// CreateLineItem creates a line item from the submitted form.
func (s *Server) CreateLineItem(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	const endpoint = "create_line_item"
	status := http.StatusCreated

	var form lineitem.Form
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		status = http.StatusBadRequest
		writeJSON(w, status, errorBody{Error: "invalid json"})
	} else if result, err := s.LineItems.Create(r.Context(), form); err != nil {
		status = s.writeError(w, r, err)
	} else {
		writeJSON(w, status, result)
	}

	s.Metrics.IncrementRequests(endpoint, r.Method, strconv.Itoa(status))
	s.Metrics.RecordRequestLatency(endpoint, r.Method, time.Since(start))
}

// ListLineItems lists an order's non-archived line items.
func (s *Server) ListLineItems(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	const endpoint = "list_line_items"
	status := http.StatusOK

	orderID, err := strconv.ParseInt(mux.Vars(r)["orderId"], 10, 64)
	if err != nil {
		status = http.StatusBadRequest
		writeJSON(w, status, errorBody{Error: "invalid order id"})
	} else if items, err := s.LineItems.LineItemsByOrder(r.Context(), orderID); err != nil {
		status = s.writeError(w, r, err)
	} else {
		writeJSON(w, status, items)
	}

	s.Metrics.IncrementRequests(endpoint, r.Method, strconv.Itoa(status))
	s.Metrics.RecordRequestLatency(endpoint, r.Method, time.Since(start))
}

// GetLineItem fetches one line item by ID.
func (s *Server) GetLineItem(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	const endpoint = "get_line_item"
	status := http.StatusOK

	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		status = http.StatusBadRequest
		writeJSON(w, status, errorBody{Error: "invalid id"})
	} else if li, err := s.LineItems.LineItemByID(r.Context(), id); err != nil {
		status = s.writeError(w, r, err)
	} else {
		writeJSON(w, status, li)
	}

	s.Metrics.IncrementRequests(endpoint, r.Method, strconv.Itoa(status))
	s.Metrics.RecordRequestLatency(endpoint, r.Method, time.Since(start))
}

// targetingRequest is the body of targeting add/remove calls. Names are
// numeric here; textual resolution only happens during creation.
type targetingRequest struct {
	KeyID    int64   `json:"keyId"`
	ValueIDs []int64 `json:"valueIds"`
}

// AddTargeting adds a key/value pair to the line item's targeting.
func (s *Server) AddTargeting(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	const endpoint = "add_targeting"
	status := http.StatusOK

	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	var req targetingRequest
	if err != nil {
		status = http.StatusBadRequest
		writeJSON(w, status, errorBody{Error: "invalid id"})
	} else if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		status = http.StatusBadRequest
		writeJSON(w, status, errorBody{Error: "invalid json"})
	} else if changed, err := s.LineItems.AddTargeting(r.Context(), id, req.KeyID, req.ValueIDs); err != nil {
		status = s.writeError(w, r, err)
	} else {
		writeJSON(w, status, map[string]bool{"changed": changed})
	}

	s.Metrics.IncrementRequests(endpoint, r.Method, strconv.Itoa(status))
	s.Metrics.RecordRequestLatency(endpoint, r.Method, time.Since(start))
}

// RemoveTargeting removes a key/value pair from the line item's targeting.
func (s *Server) RemoveTargeting(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	const endpoint = "remove_targeting"
	status := http.StatusOK

	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	var req targetingRequest
	if err != nil {
		status = http.StatusBadRequest
		writeJSON(w, status, errorBody{Error: "invalid id"})
	} else if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		status = http.StatusBadRequest
		writeJSON(w, status, errorBody{Error: "invalid json"})
	} else if err := s.LineItems.RemoveTargeting(r.Context(), id, req.KeyID, req.ValueIDs); err != nil {
		status = s.writeError(w, r, err)
	} else {
		writeJSON(w, status, map[string]string{"status": "removed"})
	}

	s.Metrics.IncrementRequests(endpoint, r.Method, strconv.Itoa(status))
	s.Metrics.RecordRequestLatency(endpoint, r.Method, time.Since(start))
}
