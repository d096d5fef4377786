package profiler

import (
	"time"

	"github.com/GriffinCanCode/elasticbundle/internal/collector"
	"github.com/GriffinCanCode/elasticbundle/internal/shared/id"
)

// Profile is what one served request left behind
type Profile struct {
	Token      id.Token      `json:"token"`
	RequestID  id.RequestID  `json:"request_id,omitempty"`
	Method     string        `json:"method"`
	URL        string        `json:"url"`
	StatusCode int           `json:"status_code"`
	Time       time.Time     `json:"time"`
	Duration   time.Duration `json:"duration_ns"`

	// Elasticsearch is the call collector's state at the end of the request
	Elasticsearch collector.Snapshot `json:"elasticsearch"`
}

// Summary is the list view of a profile
type Summary struct {
	Token      id.Token  `json:"token"`
	Method     string    `json:"method"`
	URL        string    `json:"url"`
	StatusCode int       `json:"status_code"`
	Time       time.Time `json:"time"`
	Calls      int       `json:"calls"`
	CallTime   float64   `json:"call_time"`
	Link       string    `json:"link"`
}

// Summary returns the list view
func (p *Profile) Summary() Summary {
	return Summary{
		Token:      p.Token,
		Method:     p.Method,
		URL:        p.URL,
		StatusCode: p.StatusCode,
		Time:       p.Time,
		Calls:      len(p.Elasticsearch.Traces),
		CallTime:   p.Elasticsearch.Total,
		Link:       Link(p.Token),
	}
}

// Link returns the profile's URL on the profiler routes
func Link(token id.Token) string {
	return RoutePrefix + "/" + token.String()
}
