package observability

const (
	MUsecaseRequests         MetricKey = "usecase_requests_total"
	MUsecaseDuration         MetricKey = "usecase_duration_seconds"
	MHTTPRequests            MetricKey = "http_requests_total"
	MHTTPRequestDuration     MetricKey = "http_request_duration_seconds"
	MExternalRequests        MetricKey = "external_requests_total"
	MExternalRequestDuration MetricKey = "external_request_duration_seconds"
	MBotUpdates              MetricKey = "bot_updates_total"
)

var metricHelp = map[MetricKey]string{
	MUsecaseRequests:         "Total number of use case invocations.",
	MUsecaseDuration:         "Duration of use case execution in seconds.",
	MHTTPRequests:            "HTTP requests served.",
	MHTTPRequestDuration:     "HTTP request latency in seconds.",
	MExternalRequests:        "Calls to external peers (chat API, broker, event bus).",
	MExternalRequestDuration: "Duration of external calls in seconds.",
	MBotUpdates:              "Inbound chat updates handled.",
}

// Help is the exposition help text for k, falling back to the key itself.
func (k MetricKey) Help() string {
	if h, ok := metricHelp[k]; ok {
		return h
	}
	return string(k)
}
