package pandugo

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
)

// Option represents a configuration option for New.
type Option func(*Client)

// Middleware wraps the underlying HTTP transport for cross-cutting concerns
// (tracing, extra headers, request logging).
type Middleware func(req *http.Request, next RoundTripper) (*http.Response, error)

// RoundTripper represents the HTTP transport interface middleware wraps.
type RoundTripper interface {
	RoundTrip(*http.Request) (*http.Response, error)
}

// RoundTripperFunc adapts a function to the RoundTripper interface.
type RoundTripperFunc func(*http.Request) (*http.Response, error)

func (f RoundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

// ListParams are the query parameters accepted by the list endpoints.
type ListParams struct {
	Limit   int
	Offset  int
	Filters map[string]string
}

// values encodes the parameters as a canonical query string source.
// url.Values.Encode sorts keys, which keeps cache keys deterministic.
func (p ListParams) values() url.Values {
	v := url.Values{}
	if p.Limit > 0 {
		v.Set("limit", strconv.Itoa(p.Limit))
	}
	if p.Offset > 0 {
		v.Set("offset", strconv.Itoa(p.Offset))
	}
	for key, val := range p.Filters {
		v.Set(key, val)
	}
	return v
}

// recordProbe extracts the identity fields validated at the boundary. The
// client transports payloads, it does not model the upstream domain.
type recordProbe struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	State string `json:"state"`
}

// Guide is a guide record from the upstream API. ID, Name and State are
// validated at the boundary; Raw carries the full payload untransformed.
type Guide struct {
	ID    string
	Name  string
	State string
	Raw   json.RawMessage
}

func (g *Guide) UnmarshalJSON(data []byte) error {
	var probe recordProbe
	if err := json.Unmarshal(data, &probe); err != nil {
		return err
	}
	g.ID, g.Name, g.State = probe.ID, probe.Name, probe.State
	g.Raw = append([]byte(nil), data...)
	return nil
}

func (g Guide) MarshalJSON() ([]byte, error) {
	if g.Raw != nil {
		return g.Raw, nil
	}
	return json.Marshal(recordProbe{ID: g.ID, Name: g.Name, State: g.State})
}

// Feature is a feature record from the upstream API.
type Feature struct {
	ID   string
	Name string
	Raw  json.RawMessage
}

func (f *Feature) UnmarshalJSON(data []byte) error {
	var probe recordProbe
	if err := json.Unmarshal(data, &probe); err != nil {
		return err
	}
	f.ID, f.Name = probe.ID, probe.Name
	f.Raw = append([]byte(nil), data...)
	return nil
}

func (f Feature) MarshalJSON() ([]byte, error) {
	if f.Raw != nil {
		return f.Raw, nil
	}
	return json.Marshal(recordProbe{ID: f.ID, Name: f.Name})
}

// Page is a page record from the upstream API.
type Page struct {
	ID   string
	Name string
	Raw  json.RawMessage
}

func (p *Page) UnmarshalJSON(data []byte) error {
	var probe recordProbe
	if err := json.Unmarshal(data, &probe); err != nil {
		return err
	}
	p.ID, p.Name = probe.ID, probe.Name
	p.Raw = append([]byte(nil), data...)
	return nil
}

func (p Page) MarshalJSON() ([]byte, error) {
	if p.Raw != nil {
		return p.Raw, nil
	}
	return json.Marshal(recordProbe{ID: p.ID, Name: p.Name})
}

// Report is a report record from the upstream API.
type Report struct {
	ID   string
	Name string
	Raw  json.RawMessage
}

func (r *Report) UnmarshalJSON(data []byte) error {
	var probe recordProbe
	if err := json.Unmarshal(data, &probe); err != nil {
		return err
	}
	r.ID, r.Name = probe.ID, probe.Name
	r.Raw = append([]byte(nil), data...)
	return nil
}

func (r Report) MarshalJSON() ([]byte, error) {
	if r.Raw != nil {
		return r.Raw, nil
	}
	return json.Marshal(recordProbe{ID: r.ID, Name: r.Name})
}

// PipelineStage is one stage of an aggregation pipeline: source selection,
// time-series window, filter, group, sort and similar documents.
type PipelineStage map[string]any

// AggregationRequest is the structured query document POSTed to the
// aggregation endpoint.
type AggregationRequest struct {
	Name      string          `json:"name,omitempty"`
	RequestID string          `json:"requestId,omitempty"`
	Pipeline  []PipelineStage `json:"pipeline"`
}

// AggregationRow is one untransformed result row.
type AggregationRow = json.RawMessage

// aggregationEnvelope covers the object response shape; the endpoint may also
// return a bare array of rows.
type aggregationEnvelope struct {
	Results []AggregationRow `json:"results"`
}
