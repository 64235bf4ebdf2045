package observability

// Metric name prefix
const (
	MetricPrefix = "luckydraw"
)

// Metric names
const (
	// Engine metrics
	DrawOperationsTotal   = MetricPrefix + "_draw_operations_total"
	DrawOperationDuration = MetricPrefix + "_draw_operation_duration_ms"
	StockRacesLostTotal   = MetricPrefix + "_stock_races_lost_total"
	WinnerConflictsTotal  = MetricPrefix + "_winner_conflicts_total"

	// Notification metrics
	NotificationFailuresTotal = MetricPrefix + "_notification_failures_total"

	// HTTP metrics
	HTTPRequestsTotal   = MetricPrefix + "_http_requests_total"
	HTTPRequestDuration = MetricPrefix + "_http_request_duration_ms"
)

// Label keys
const (
	LabelOperation = "operation"
	LabelResult    = "result"
	LabelPrizeID   = "prize_id"
	LabelSink      = "sink"

	// HTTP labels
	LabelPath   = "path"
	LabelMethod = "method"
	LabelStatus = "status"
)

// Notification sinks
const (
	SinkNATS    = "nats"
	SinkDiscord = "discord"
)
