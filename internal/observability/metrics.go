package observability

const (
	MUsecaseRequests         MetricKey = "usecase_requests_total"
	MUsecaseDuration         MetricKey = "usecase_duration_seconds"
	MHTTPRequests            MetricKey = "http_requests_total"
	MHTTPRequestDuration     MetricKey = "http_request_duration_seconds"
	MExternalRequests        MetricKey = "external_requests_total"
	MExternalRequestDuration MetricKey = "external_request_duration_seconds"

	MSettlementConflicts MetricKey = "settlement_conflicts_total"
	MUnitsSold           MetricKey = "units_sold_total"
	MChangeCoins         MetricKey = "change_coins_total"
	MDepositedCents      MetricKey = "deposits_cents_total"
)
