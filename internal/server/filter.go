package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/project-relgate/relgate/internal/assertion"
	"github.com/project-relgate/relgate/internal/attr"
	"github.com/project-relgate/relgate/internal/metadata"
	"github.com/project-relgate/relgate/internal/policy"
	"github.com/project-relgate/relgate/internal/request"
)

// FilterServer handles attribute filtering requests
type FilterServer struct {
	engine  *policy.Engine
	store   metadata.Store
	decoder *assertion.Decoder // nil when assertion decoding is not configured
	logger  *slog.Logger
}

// NewFilterServer creates a filter server
func NewFilterServer(engine *policy.Engine, store metadata.Store, decoder *assertion.Decoder, logger *slog.Logger) *FilterServer {
	if logger == nil {
		logger = slog.Default()
	}
	return &FilterServer{
		engine:  engine,
		store:   store,
		decoder: decoder,
		logger:  logger,
	}
}

// FilterRequest is the request body of POST /v1/filter.
// The attribute bag is given either inline or as a signed assertion.
type FilterRequest struct {
	// RelyingParty is the entity identifier of the relying application
	RelyingParty string `json:"relying_party"`

	// Attributes is the inline attribute bag
	Attributes map[string][]string `json:"attributes,omitempty"`

	// Assertion is a signed attribute assertion, accepted when the server
	// has an assertion decoder configured
	Assertion string `json:"assertion,omitempty"`

	// Destination and Source name the entities whose metadata should be
	// consulted; they are resolved through the metadata store
	Destination string `json:"destination,omitempty"`
	Source      string `json:"source,omitempty"`
}

// FilterResponse is the response body of POST /v1/filter
type FilterResponse struct {
	ExchangeID string              `json:"exchange_id"`
	Attributes map[string][]string `json:"attributes"`
}

// errorResponse is the JSON error body
type errorResponse struct {
	Error       string `json:"error"`
	Description string `json:"error_description,omitempty"`
}

// HandleFilter handles POST /v1/filter
func (s *FilterServer) HandleFilter(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req FilterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "request body is not valid JSON")
		return
	}

	if req.RelyingParty == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "relying_party is required")
		return
	}
	if req.Attributes != nil && req.Assertion != "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "attributes and assertion are mutually exclusive")
		return
	}

	// Build the bag from the inline attributes or the assertion
	var bag attr.Bag
	switch {
	case req.Assertion != "":
		if s.decoder == nil {
			writeError(w, http.StatusBadRequest, "invalid_request", "assertion decoding is not configured")
			return
		}
		decoded, err := s.decoder.Decode(ctx, req.Assertion)
		if err != nil {
			s.logger.Debug("Assertion rejected", "error", err.Error())
			writeError(w, http.StatusBadRequest, "invalid_assertion", "assertion could not be verified")
			return
		}
		bag = decoded
	case req.Attributes != nil:
		bag = attr.Bag(req.Attributes)
	default:
		bag = attr.Bag{}
	}

	destination, ok := s.lookupEntity(w, r, req.Destination)
	if !ok {
		return
	}
	source, ok := s.lookupEntity(w, r, req.Source)
	if !ok {
		return
	}

	rc := request.New(req.RelyingParty, destination, source)

	if err := s.engine.Process(ctx, bag, rc); err != nil {
		if policy.IsConfigurationError(err) {
			s.logger.Error("Filtering failed on configuration", "exchange_id", rc.ExchangeID, "error", err.Error())
			writeError(w, http.StatusInternalServerError, "configuration_error", "attribute filtering is misconfigured")
			return
		}
		s.logger.Error("Filtering failed", "exchange_id", rc.ExchangeID, "error", err.Error())
		writeError(w, http.StatusInternalServerError, "internal_error", "attribute filtering failed")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(FilterResponse{
		ExchangeID: rc.ExchangeID,
		Attributes: bag,
	})
}

// lookupEntity resolves an entity through the metadata store.
// An unknown entity is not an error: the exchange proceeds without that
// party's metadata. Store failures are.
func (s *FilterServer) lookupEntity(w http.ResponseWriter, r *http.Request, entityID string) (*metadata.Entity, bool) {
	if entityID == "" {
		return nil, true
	}
	entity, err := s.store.Lookup(r.Context(), entityID)
	if err != nil {
		if errors.Is(err, metadata.ErrNotFound) {
			s.logger.Debug("No metadata for entity", "entity_id", entityID)
			return nil, true
		}
		s.logger.Error("Metadata lookup failed", "entity_id", entityID, "error", err.Error())
		writeError(w, http.StatusInternalServerError, "metadata_error", "metadata lookup failed")
		return nil, false
	}
	return entity, true
}

// writeError writes a JSON error response
func writeError(w http.ResponseWriter, status int, code, description string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorResponse{
		Error:       code,
		Description: description,
	})
}
