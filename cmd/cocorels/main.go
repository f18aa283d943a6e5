// Cocorels runs the CoCorels ethical scoring kernel.
//
// The kernel scores proposed actions against twelve ethical criteria. Cheap
// calls are answered by a deterministic fast path; complex ones are handed to
// a bounded slow path that assesses sub-traits, resolves conflicts between
// them and aggregates the result, under a hard deadline.
//
// Usage:
//
//	# Start the HTTP server with defaults
//	cocorels run
//
//	# Start with a configuration file
//	cocorels run --config /etc/cocorels/config.yaml
//
//	# Score one action from the command line
//	cocorels evaluate --action "share the patient record" --complexity 8000
//
//	# Run a containment check
//	cocorels check --action "disable the rate limiter" --source agent-7
//
//	# Query and verify the audit trail
//	cocorels audit query --path slow --format csv
//	cocorels audit verify --key keys/audit.pem.pub
package main

func main() {
	Execute()
}
