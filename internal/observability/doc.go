// Package observability builds the service logger and the Prometheus
// metrics registry.
//
// Metrics cover HTTP traffic per chi route pattern and every authorization
// decision taken by services/authz, labelled by check and outcome.
package observability
