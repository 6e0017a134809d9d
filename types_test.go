package pandugo

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestGuideUnmarshalKeepsRawPayload(t *testing.T) {
	payload := `{"id":"g1","name":"Welcome","state":"published","audience":{"segment":"trial"},"steps":[{"type":"lightbox"}]}`

	var guide Guide
	if err := json.Unmarshal([]byte(payload), &guide); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if guide.ID != "g1" || guide.Name != "Welcome" || guide.State != "published" {
		t.Errorf("identity fields not extracted: %+v", guide)
	}
	if string(guide.Raw) != payload {
		t.Errorf("raw payload altered: %s", guide.Raw)
	}

	// Marshalling round-trips the original payload, fields the typed view
	// does not model included.
	out, err := json.Marshal(guide)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(out), "lightbox") {
		t.Errorf("marshal dropped unmodeled fields: %s", out)
	}
}

func TestFeatureUnmarshalToleratesMissingFields(t *testing.T) {
	var feature Feature
	if err := json.Unmarshal([]byte(`{"id":"f1"}`), &feature); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if feature.ID != "f1" || feature.Name != "" {
		t.Errorf("unexpected feature: %+v", feature)
	}
}

func TestListParamsValues(t *testing.T) {
	params := ListParams{
		Limit:  25,
		Offset: 50,
		Filters: map[string]string{
			"state": "published",
		},
	}

	v := params.values()
	if got := v.Get("limit"); got != "25" {
		t.Errorf("limit = %q", got)
	}
	if got := v.Get("offset"); got != "50" {
		t.Errorf("offset = %q", got)
	}
	if got := v.Get("state"); got != "published" {
		t.Errorf("state = %q", got)
	}

	// Zero values stay out of the query string.
	empty := ListParams{}.values()
	if encoded := empty.Encode(); encoded != "" {
		t.Errorf("empty params encoded as %q", encoded)
	}
}

func TestAggregationRequestMarshal(t *testing.T) {
	req := AggregationRequest{
		Name: "active-accounts",
		Pipeline: []PipelineStage{
			{"source": map[string]any{"events": nil}},
			{"timeSeries": map[string]any{"period": "dayRange", "count": -30}},
		},
	}

	out, err := json.Marshal(req)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	s := string(out)
	if !strings.Contains(s, `"pipeline"`) || !strings.Contains(s, `"dayRange"`) {
		t.Errorf("unexpected payload: %s", s)
	}
	// Empty optional fields are omitted.
	if strings.Contains(s, "requestId") {
		t.Errorf("empty requestId should be omitted: %s", s)
	}
}
