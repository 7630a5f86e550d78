package fabricfake

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/mattjoyce/fabctl/internal/fabric"
)

// acceptOperation registers a scripted operation whose final result is
// result, and answers 202 with the standard polling headers.
func (s *Server) acceptOperation(w http.ResponseWriter, result any) {
	op := &operation{
		id:        uuid.NewString(),
		remaining: s.runningPolls,
		fail:      s.failOps,
		result:    result,
	}
	op.resultURL = s.httpServer.URL + "/v1/operations/" + op.id + "/result"

	s.mu.Lock()
	s.operations[op.id] = op
	s.mu.Unlock()

	w.Header().Set("Location", s.httpServer.URL+"/v1/operations/"+op.id)
	w.Header().Set("x-ms-operation-id", op.id)
	w.Header().Set("Retry-After", "1")
	w.WriteHeader(http.StatusAccepted)
}

// pollOperation serves the scripted Running/terminal sequence. Once the
// operation succeeds the poll response advertises the result URL via the
// Location header; the state itself never embeds the result.
func (s *Server) pollOperation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "operationID")

	s.mu.Lock()
	op, ok := s.operations[id]
	if ok && op.fail == nil && op.remaining > 0 {
		op.remaining--
		s.mu.Unlock()
		writeJSON(w, http.StatusOK, fabric.OperationState{Status: fabric.OperationRunning})
		return
	}
	if ok {
		op.done = op.fail == nil
	}
	s.mu.Unlock()

	if !ok {
		writeError(w, http.StatusNotFound, "OperationNotFound", "The operation does not exist.")
		return
	}

	if op.fail != nil {
		writeJSON(w, http.StatusOK, fabric.OperationState{
			Status: fabric.OperationFailed,
			Error:  op.fail,
		})
		return
	}

	w.Header().Set("Location", op.resultURL)
	writeJSON(w, http.StatusOK, fabric.OperationState{Status: fabric.OperationSucceeded})
}

// operationResult serves the final payload of a succeeded operation.
func (s *Server) operationResult(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "operationID")

	s.mu.Lock()
	op, ok := s.operations[id]
	done := ok && op.done
	s.mu.Unlock()

	if !ok {
		writeError(w, http.StatusNotFound, "OperationNotFound", "The operation does not exist.")
		return
	}
	if !done {
		writeError(w, http.StatusBadRequest, "OperationNotComplete", "The operation has not completed.")
		return
	}
	writeJSON(w, http.StatusOK, op.result)
}
