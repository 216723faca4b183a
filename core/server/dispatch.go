package server

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/calltree/calltree/core/schema"
	"github.com/calltree/calltree/ports"
)

// dispatch builds the http.HandlerFunc for one endpoint. The handler
// function itself is looked up per request so Register can swap it.
func (s *Server) dispatch(key routeKey, ep schema.Endpoint) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww, ok := w.(middleware.WrapResponseWriter)
		if !ok {
			ww = middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		}

		if s.collector != nil {
			s.collector.RequestsInFlight.Inc()
			defer s.collector.RequestsInFlight.Dec()
		}

		logger := s.logger.With().
			Str("request_id", uuid.NewString()).
			Str("verb", string(key.verb)).
			Str("path", key.path).
			Logger()

		s.mu.RLock()
		fn := s.table[key]
		s.mu.RUnlock()

		s.serve(ww, r, key, ep, fn, logger)

		if s.collector != nil {
			s.collector.ObserveRequest(string(key.verb), key.path,
				strconv.Itoa(responseStatus(ww)), time.Since(start))
		}

		logger.Debug().
			Int("status", responseStatus(ww)).
			Dur("elapsed", time.Since(start)).
			Msg("request dispatched")
	}
}

// serve runs the per-request protocol. The steps are strictly sequential:
// metadata resolution, input extraction, deserialization, validation,
// invocation, output validation, response finalization. Every failure
// branch writes a response and halts; nothing is retried.
func (s *Server) serve(ww middleware.WrapResponseWriter, r *http.Request, key routeKey, ep schema.Endpoint, fn HandlerFunc, logger zerolog.Logger) {
	// Step 1: metadata resolution.
	meta, ok := s.resolveMetadata(ww, r, ep, logger)
	if !ok {
		return
	}

	// Steps 2-4: input extraction, deserialization, validation.
	input, ok := s.extractInput(ww, r, key.verb, ep, logger)
	if !ok {
		return
	}

	// Step 5: invocation.
	out, err := fn(&Context{Request: r, Response: ww}, input, meta)
	if err != nil {
		logger.Error().Err(err).Msg("handler failed")
		if !wroteResponse(ww) {
			writeErrorBody(ww, http.StatusInternalServerError, "internal error")
		}
		return
	}

	// Step 6: output validation and serialization.
	var body string
	hasBody := false
	if !ep.Output.IsNone() {
		value := out
		if v, declared := ep.Output.Validator(); declared {
			res := v.SafeParse(out)
			if !res.OK {
				logger.Error().Int("issues", len(res.Issues)).Msg("handler output failed validation")
				if !wroteResponse(ww) {
					writeIssues(ww, http.StatusInternalServerError, res.Issues)
				}
				return
			}
			value = res.Data
		}

		text, err := s.transformer.Serialize(value)
		if err != nil {
			logger.Error().Err(err).Msg("serialize response failed")
			if !wroteResponse(ww) {
				writeErrorBody(ww, http.StatusInternalServerError, "serialize response")
			}
			return
		}
		body, hasBody = text, true
	}

	// Step 7: finalization. Skipped entirely when the handler already
	// responded itself.
	if wroteResponse(ww) {
		return
	}

	if ep.CacheControl != "" {
		ww.Header().Set("Cache-Control", ep.CacheControl)
	}
	if hasBody {
		ww.Header().Set("Content-Type", s.transformer.ContentType())
	}

	status := http.StatusOK
	if key.verb == schema.Post {
		status = http.StatusCreated
	}
	ww.WriteHeader(status)

	if hasBody {
		if _, err := io.WriteString(ww, body); err != nil {
			logger.Error().Err(err).Msg("write response body failed")
		}
	}
}

// resolveMetadata runs step 1. Returns (metadata, true) to continue or
// (nil, false) after writing a failure response.
func (s *Server) resolveMetadata(ww middleware.WrapResponseWriter, r *http.Request, ep schema.Endpoint, logger zerolog.Logger) (any, bool) {
	if ep.Metadata == schema.MetadataUnused {
		return nil, true
	}
	required := ep.Metadata == schema.MetadataRequired

	if s.metadata == nil {
		if required {
			writeErrorBody(ww, http.StatusBadRequest, "request metadata is required but no resolver is configured")
			return nil, false
		}
		return nil, true
	}

	meta, err := s.metadata.Resolve(r, required)
	if err != nil {
		logger.Warn().Err(err).Msg("metadata resolution failed")
		writeErrorBody(ww, http.StatusBadRequest, "could not resolve request metadata")
		return nil, false
	}
	if meta == nil && required {
		writeErrorBody(ww, http.StatusBadRequest, "request metadata is required")
		return nil, false
	}
	return meta, true
}

// extractInput runs steps 2-4. Returns (input, true) to continue or
// (nil, false) after writing a failure response. Endpoints declaring no
// input never touch the wire payload.
func (s *Server) extractInput(ww middleware.WrapResponseWriter, r *http.Request, verb schema.Verb, ep schema.Endpoint, logger zerolog.Logger) (any, bool) {
	if ep.Input.IsNone() {
		return nil, true
	}

	// Step 2: extraction. GET carries the payload in the reserved query
	// parameter (already URL-decoded by the stdlib); every other verb
	// carries it as raw body text.
	var text string
	if verb == schema.Get {
		values, present := r.URL.Query()[schema.BodyParam]
		if !present || len(values) == 0 {
			writeErrorBody(ww, http.StatusBadRequest, "no payload in "+schema.BodyParam+" query parameter")
			return nil, false
		}
		text = values[0]
	} else {
		raw, err := io.ReadAll(io.LimitReader(r.Body, s.maxBody))
		if err != nil {
			logger.Warn().Err(err).Msg("read request body failed")
			writeErrorBody(ww, http.StatusBadRequest, "could not read request body")
			return nil, false
		}
		if len(raw) == 0 {
			writeErrorBody(ww, http.StatusBadRequest, "no payload in request body")
			return nil, false
		}
		text = string(raw)
	}

	// Step 3: deserialization.
	value, err := s.transformer.Deserialize(text)
	if err != nil {
		writeErrorBody(ww, http.StatusBadRequest, "malformed payload")
		return nil, false
	}

	// Step 4: validation. Raw payloads pass through unchanged.
	if v, declared := ep.Input.Validator(); declared {
		res := v.SafeParse(value)
		if !res.OK {
			writeIssues(ww, http.StatusBadRequest, res.Issues)
			return nil, false
		}
		return res.Data, true
	}
	return value, true
}

// wroteResponse reports whether the handler (or an earlier step) already
// started the response.
func wroteResponse(ww middleware.WrapResponseWriter) bool {
	return ww.Status() != 0 || ww.BytesWritten() > 0
}

// responseStatus returns the status actually sent, defaulting to 200 when
// a bare Write started the response.
func responseStatus(ww middleware.WrapResponseWriter) int {
	if ww.Status() == 0 {
		return http.StatusOK
	}
	return ww.Status()
}

// errorBody is the wire shape of simple error responses.
type errorBody struct {
	Error string `json:"error"`
}

// writeErrorBody writes a {"error": ...} response. Error bodies are always
// JSON regardless of the configured transformer.
func writeErrorBody(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorBody{Error: msg})
}

// writeIssues writes a validation failure as a JSON array of issues, one
// entry per violated constraint.
func writeIssues(w http.ResponseWriter, status int, issues []ports.Issue) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(issues)
}
