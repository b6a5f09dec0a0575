// Callisto is the management plane for a locally-run Claude proxy.
//
// It watches the account's usage windows through the official usage API,
// classifies them into burn-rate statuses, and serves the result to a
// browser console, a CLI, and Prometheus:
//   - Usage window classification (green/orange/red/gray burn rates)
//   - Background polling with snapshot cache and history
//   - API key registry with per-key token accounting and cost estimates
//   - Embedded admin console with live websocket updates
//
// Usage:
//
//	# Start the management server with default configuration
//	callisto run
//
//	# Start with a custom configuration file
//	callisto run --config /path/to/callisto.yaml
//
//	# Show the current usage windows in the terminal
//	callisto usage
//
//	# Manage proxy API keys
//	callisto keys create --name "ci-bot"
//	callisto keys list
//
//	# Show version information
//	callisto version
//
// For complete documentation, see: https://github.com/mercator-hq/callisto
package main

func main() {
	Execute()
}
