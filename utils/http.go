// utils/http.go
package utils

import (
	"net/http"
	"time"
)

// ServiceHTTPClient is shared by every outbound service-to-service call so
// keep-alive connections are reused across the payment client and the payout
// rails poller. Callers put tighter deadlines on the request context.
var ServiceHTTPClient = &http.Client{
	Timeout: 30 * time.Second,
}
