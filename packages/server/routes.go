package server

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/abdul-hamid-achik/colrun/packages/core/collection"
	"github.com/abdul-hamid-achik/colrun/packages/core/env"
	"github.com/abdul-hamid-achik/colrun/packages/core/runner"
	"github.com/abdul-hamid-achik/colrun/packages/output"
)

const HealthStatusOK = "ok"

// HealthResponse is the response for GET /health.
type HealthResponse struct {
	Body struct {
		Status      string    `json:"status" example:"ok"`
		Timestamp   time.Time `json:"timestamp"`
		Version     string    `json:"version"`
		Collection  string    `json:"collection" doc:"Name of the loaded collection"`
		Environment string    `json:"environment" doc:"Name of the server environment"`
	}
}

// CollectionResponse is the response for GET /collection.
type CollectionResponse struct {
	Body struct {
		Info  collection.Info       `json:"info"`
		Items []collection.ItemInfo `json:"items" doc:"Flattened items, addressable by index"`
	}
}

// EnvironmentResponse is the response for GET /environment.
type EnvironmentResponse struct {
	Body *env.Environment
}

// ExecuteRequest selects the items to run, in order.
type ExecuteRequest struct {
	Body struct {
		SelectedIndices []int            `json:"selectedIndices" doc:"Item indices to run, in order; repeats allowed"`
		Environment     *env.Environment `json:"environment,omitempty" required:"false" doc:"Run against this environment instead of the server's"`
	}
}

// ExecuteResponse is the response for POST /execute.
type ExecuteResponse struct {
	Body *runner.BatchResult
}

func (s *Server) registerRoutes(api huma.API) {
	huma.Register(
		api,
		huma.Operation{
			OperationID: "getHealth",
			Method:      http.MethodGet,
			Path:        "/health",
			Summary:     "Report server health",
			Tags:        []string{"Health"},
		},
		func(ctx context.Context, _ *struct{}) (*HealthResponse, error) {
			return s.handleHealth(), nil
		},
	)

	huma.Register(
		api,
		huma.Operation{
			OperationID: "getCollection",
			Method:      http.MethodGet,
			Path:        "/collection",
			Summary:     "Describe the loaded collection",
			Tags:        []string{"Collection"},
		},
		func(ctx context.Context, _ *struct{}) (*CollectionResponse, error) {
			resp := &CollectionResponse{}
			resp.Body.Info = s.collection.Info
			resp.Body.Items = s.collection.Items()
			return resp, nil
		},
	)

	huma.Register(
		api,
		huma.Operation{
			OperationID: "getEnvironment",
			Method:      http.MethodGet,
			Path:        "/environment",
			Summary:     "Show the server environment",
			Tags:        []string{"Environment"},
		},
		func(ctx context.Context, _ *struct{}) (*EnvironmentResponse, error) {
			e := s.Environment()
			if !s.reveal {
				e = output.MaskEnvironment(e)
			}
			return &EnvironmentResponse{Body: e}, nil
		},
	)

	huma.Register(
		api,
		huma.Operation{
			OperationID: "execute",
			Method:      http.MethodPost,
			Path:        "/execute",
			Summary:     "Run selected items in order",
			Tags:        []string{"Execution"},
		},
		func(ctx context.Context, input *ExecuteRequest) (*ExecuteResponse, error) {
			return s.handleExecute(ctx, input)
		},
	)
}

func (s *Server) handleHealth() *HealthResponse {
	resp := &HealthResponse{}
	resp.Body.Status = HealthStatusOK
	resp.Body.Timestamp = time.Now().UTC()
	resp.Body.Version = s.version
	resp.Body.Collection = s.collection.Info.Name
	resp.Body.Environment = s.Environment().Name
	return resp
}

func (s *Server) handleExecute(ctx context.Context, input *ExecuteRequest) (*ExecuteResponse, error) {
	if len(input.Body.SelectedIndices) == 0 {
		return nil, ErrNoSelection
	}

	s.logger.Info("Executing selection", "items", len(input.Body.SelectedIndices), "suppliedEnvironment", input.Body.Environment != nil)
	result := s.execute(ctx, input.Body.SelectedIndices, input.Body.Environment)
	return &ExecuteResponse{Body: result}, nil
}
