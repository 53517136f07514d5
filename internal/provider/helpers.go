package provider

import (
	"github.com/hanlulong/openecon-data-sub002/internal/httpclient"
	"github.com/hanlulong/openecon-data-sub002/internal/model"
)

// translateTransportError maps the pool's transport-level error types onto
// the QueryError taxonomy, so every adapter's breaker.Call sees only
// *model.QueryError and IsFailure classification (internal/breaker) works
// uniformly regardless of which adapter produced the error.
func translateTransportError(providerName string, err error) error {
	switch e := err.(type) {
	case *httpclient.TimeoutError:
 return model.NewTimeoutError(providerName)
	case *httpclient.NetworkError:
 return model.NewNetworkError(providerName, e.Cause)
	default:
 return model.NewNetworkError(providerName, err)
	}
}

// frequencyOrDefault returns req's explicit frequency override if present,
// else the adapter's natural cadence for the series.
func frequencyOrDefault(override *model.Frequency, natural model.Frequency) model.Frequency {
	if override != nil {
 return *override
	}
	return natural
}
