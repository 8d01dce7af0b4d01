// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"net/http"
	"net/netip"
	"reflect"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3gen"
	"github.com/telekom/pathmon/pkg"
	"github.com/telekom/pathmon/pkg/session"
	"github.com/telekom/pathmon/pkg/stats"
	"github.com/telekom/pathmon/pkg/store"
)

const (
	mediaJSON = "application/json"
	mediaYAML = "application/yaml"
	mediaCSV  = "text/csv"
	mediaText = "text/plain"
)

type response struct {
	status  int
	desc    string
	content openapi3.Content
}

// OpenAPI returns the OpenAPI document of the API.
func OpenAPI() (*openapi3.T, error) {
	snapshot, err := schemaFor("snapshot", session.Snapshot{})
	if err != nil {
		return nil, err
	}
	entries, err := schemaFor("session list", []store.Entry{})
	if err != nil {
		return nil, err
	}
	rows, err := schemaFor("export rows", []store.Row{})
	if err != nil {
		return nil, err
	}
	start, err := schemaFor("start request", StartRequest{})
	if err != nil {
		return nil, err
	}
	accepted, err := schemaFor("start response", StartResponse{})
	if err != nil {
		return nil, err
	}
	saved, err := schemaFor("save response", SaveResponse{})
	if err != nil {
		return nil, err
	}
	failure, err := schemaFor("error", ErrorResponse{})
	if err != nil {
		return nil, err
	}

	version := pkg.Version
	if version == "" {
		version = "dev"
	}
	doc := &openapi3.T{
		OpenAPI: "3.0.3",
		Info: &openapi3.Info{
			Title:       "pathmon",
			Description: "Continuous latency and loss monitoring of every hop on the path to a target",
			Version:     version,
		},
		Paths: openapi3.NewPaths(),
	}

	jsonOf := func(ref *openapi3.SchemaRef) openapi3.Content {
		return openapi3.NewContentWithSchemaRef(ref, []string{mediaJSON})
	}
	errorResp := func(status int, desc string) response {
		return response{status: status, desc: desc, content: jsonOf(failure)}
	}
	exportContent := openapi3.NewContent()
	exportContent[mediaCSV] = openapi3.NewMediaType().WithSchema(openapi3.NewStringSchema())
	exportContent[mediaJSON] = openapi3.NewMediaType().WithSchemaRef(rows)
	exportContent[mediaYAML] = openapi3.NewMediaType().WithSchema(openapi3.NewStringSchema())

	windowParam := &openapi3.ParameterRef{Value: openapi3.NewQueryParameter("window").
		WithDescription("Only return time series points of this trailing duration, e.g. 5m").
		WithSchema(openapi3.NewStringSchema())}
	summaryParam := &openapi3.ParameterRef{Value: openapi3.NewQueryParameter("summary").
		WithDescription("Omit the time series").
		WithSchema(openapi3.NewBoolSchema())}
	formatParam := &openapi3.ParameterRef{Value: openapi3.NewQueryParameter("format").
		WithDescription("Export format, csv by default").
		WithSchema(openapi3.NewStringSchema().WithEnum(
			string(store.ExportCSV), string(store.ExportJSON), string(store.ExportYAML), string(store.ExportSummary)))}
	nameParam := &openapi3.ParameterRef{Value: openapi3.NewPathParameter("name").
		WithDescription("Name of a saved session").
		WithSchema(openapi3.NewStringSchema())}

	lifecycle := func(id, summary string) *openapi3.Operation {
		return &openapi3.Operation{
			OperationID: id,
			Summary:     summary,
			Tags:        []string{"Session"},
			Responses: responses(
				response{status: http.StatusOK, desc: "The session without time series", content: jsonOf(snapshot)},
				errorResp(http.StatusConflict, "The transition is not allowed in the current state"),
			),
		}
	}

	doc.Paths.Set("/v1/session", &openapi3.PathItem{
		Get: &openapi3.Operation{
			OperationID: "getSession",
			Summary:     "Returns a snapshot of the current session",
			Tags:        []string{"Session"},
			Parameters:  openapi3.Parameters{windowParam, summaryParam},
			Responses: responses(
				response{status: http.StatusOK, desc: "The current session", content: jsonOf(snapshot)},
				errorResp(http.StatusBadRequest, "Invalid query parameters"),
			),
		},
		Post: &openapi3.Operation{
			OperationID: "startSession",
			Summary:     "Discovers the path to a target and starts monitoring it",
			Tags:        []string{"Session"},
			RequestBody: &openapi3.RequestBodyRef{Value: openapi3.NewRequestBody().WithRequired(true).WithJSONSchemaRef(start)},
			Responses: responses(
				response{status: http.StatusAccepted, desc: "Discovery started", content: jsonOf(accepted)},
				errorResp(http.StatusBadRequest, "Invalid target or interval"),
				errorResp(http.StatusConflict, "A session is already active"),
			),
		},
	})
	doc.Paths.Set("/v1/session/pause", &openapi3.PathItem{Post: lifecycle("pauseSession", "Pauses probing of every hop")})
	doc.Paths.Set("/v1/session/resume", &openapi3.PathItem{Post: lifecycle("resumeSession", "Resumes probing of every hop")})
	doc.Paths.Set("/v1/session/stop", &openapi3.PathItem{Post: lifecycle("stopSession", "Stops the session for good")})
	doc.Paths.Set("/v1/session/export", &openapi3.PathItem{
		Get: &openapi3.Operation{
			OperationID: "exportSession",
			Summary:     "Exports the current session",
			Tags:        []string{"Export"},
			Parameters:  openapi3.Parameters{formatParam},
			Responses: responses(
				response{status: http.StatusOK, desc: "The exported session", content: exportContent},
				errorResp(http.StatusBadRequest, "Unknown export format"),
				errorResp(http.StatusConflict, "There is no session"),
			),
		},
	})
	doc.Paths.Set("/v1/session/save", &openapi3.PathItem{
		Post: &openapi3.Operation{
			OperationID: "saveSession",
			Summary:     "Saves the current session",
			Tags:        []string{"Store"},
			Responses: responses(
				response{status: http.StatusCreated, desc: "The name of the saved session", content: jsonOf(saved)},
				errorResp(http.StatusConflict, "There is no session"),
				errorResp(http.StatusInternalServerError, "The session could not be written"),
			),
		},
	})
	doc.Paths.Set("/v1/session/stream", &openapi3.PathItem{
		Get: &openapi3.Operation{
			OperationID: "streamSession",
			Summary:     "Pushes a snapshot per tick over a websocket",
			Tags:        []string{"Session"},
			Parameters:  openapi3.Parameters{windowParam, summaryParam},
			Responses: responses(
				response{status: http.StatusSwitchingProtocols, desc: "Websocket of JSON snapshots"},
				errorResp(http.StatusBadRequest, "Invalid query parameters"),
			),
		},
	})
	doc.Paths.Set("/v1/sessions", &openapi3.PathItem{
		Get: &openapi3.Operation{
			OperationID: "listSessions",
			Summary:     "Lists saved sessions, most recent first",
			Tags:        []string{"Store"},
			Responses: responses(
				response{status: http.StatusOK, desc: "The saved sessions", content: jsonOf(entries)},
			),
		},
	})
	doc.Paths.Set("/v1/sessions/{name}", &openapi3.PathItem{
		Get: &openapi3.Operation{
			OperationID: "loadSession",
			Summary:     "Loads a saved session",
			Tags:        []string{"Store"},
			Parameters:  openapi3.Parameters{nameParam, windowParam, summaryParam},
			Responses: responses(
				response{status: http.StatusOK, desc: "The saved session", content: jsonOf(snapshot)},
				errorResp(http.StatusNotFound, "There is no such session"),
				errorResp(http.StatusUnprocessableEntity, "The saved session is corrupt"),
			),
		},
	})
	doc.Paths.Set("/v1/sessions/{name}/export", &openapi3.PathItem{
		Get: &openapi3.Operation{
			OperationID: "exportSavedSession",
			Summary:     "Exports a saved session",
			Tags:        []string{"Export"},
			Parameters:  openapi3.Parameters{nameParam, formatParam},
			Responses: responses(
				response{status: http.StatusOK, desc: "The exported session", content: exportContent},
				errorResp(http.StatusNotFound, "There is no such session"),
			),
		},
	})
	doc.Paths.Set("/v1/sessions/{name}/restore", &openapi3.PathItem{
		Post: &openapi3.Operation{
			OperationID: "restoreSession",
			Summary:     "Makes a saved session the current one for review",
			Tags:        []string{"Store"},
			Parameters:  openapi3.Parameters{nameParam},
			Responses: responses(
				response{status: http.StatusOK, desc: "The restored session without time series", content: jsonOf(snapshot)},
				errorResp(http.StatusNotFound, "There is no such session"),
				errorResp(http.StatusConflict, "A session is active"),
			),
		},
	})
	doc.Paths.Set("/metrics", &openapi3.PathItem{
		Get: &openapi3.Operation{
			OperationID: "metrics",
			Summary:     "Prometheus metrics of every monitored hop",
			Tags:        []string{"Metrics"},
			Responses: responses(response{
				status:  http.StatusOK,
				desc:    "Metrics in the Prometheus text format",
				content: openapi3.NewContentWithSchema(openapi3.NewStringSchema(), []string{mediaText}),
			}),
		},
	})
	return doc, nil
}

func responses(rs ...response) *openapi3.Responses {
	opts := make([]openapi3.NewResponsesOption, 0, len(rs))
	for _, r := range rs {
		opts = append(opts, openapi3.WithStatus(r.status, &openapi3.ResponseRef{
			Value: openapi3.NewResponse().WithDescription(r.desc).WithContent(r.content),
		}))
	}
	return openapi3.NewResponses(opts...)
}

// schemaFor reflects the schema of a value as it is encoded to JSON.
func schemaFor(name string, v any) (*openapi3.SchemaRef, error) {
	ref, err := openapi3gen.NewSchemaRefForValue(v, nil, openapi3gen.SchemaCustomizer(customizeSchema))
	if err != nil {
		return nil, ErrCreateOpenapiSchema{name: name, err: err}
	}
	return ref, nil
}

// customizeSchema fixes the schemas of types with custom JSON encodings.
func customizeSchema(_ string, t reflect.Type, _ reflect.StructTag, schema *openapi3.Schema) error {
	switch t {
	case reflect.TypeFor[netip.Addr]():
		addr := openapi3.NewStringSchema()
		addr.Description = "IP address, empty for hops that never answered"
		*schema = *addr
	case reflect.TypeFor[stats.Point]():
		*schema = *openapi3.NewObjectSchema().
			WithProperty("timestamp", openapi3.NewDateTimeSchema()).
			WithProperty("latencyMs", openapi3.NewFloat64Schema().WithNullable())
	case reflect.TypeFor[session.Snapshot]():
		schema.WithProperty("intervalSeconds", openapi3.NewFloat64Schema())
	case reflect.TypeFor[map[int]stats.Statistics]():
		schema.Description = "Statistics keyed by hop index"
	}
	return nil
}
