package api

import (
	"net/http"

	"github.com/newrelic/go-agent/v3/newrelic"
)

// TracingMiddleware reports request transactions to New Relic. A nil app
// disables tracing.
func TracingMiddleware(app *newrelic.Application) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if app == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			txn := app.StartTransaction(r.Method + " " + r.URL.Path)
			defer txn.End()

			txn.SetWebRequestHTTP(r)
			w = txn.SetWebResponse(w)
			r = newrelic.RequestWithTransactionContext(r, txn)

			next.ServeHTTP(w, r)
		})
	}
}
