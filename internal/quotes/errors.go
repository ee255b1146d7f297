package quotes

import "fmt"

// UpstreamError is a non-2xx response from a quotes provider.
type UpstreamError struct {
	Provider   string
	StatusCode int
	Status     string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s returned %s", e.Provider, e.Status)
}

// DataUnavailableError means the provider answered but the payload
// carried no usable data: empty result envelope, delisted or malformed
// symbol, or ragged series arrays.
type DataUnavailableError struct {
	Provider string
	Symbol   string
	Reason   string
}

func (e *DataUnavailableError) Error() string {
	return fmt.Sprintf("%s: no data for %s: %s", e.Provider, e.Symbol, e.Reason)
}

// QuoteUnavailableError is the single unified failure surfaced when
// both the primary and the fallback provider failed. Provider-specific
// error shapes stay wrapped inside, never leaked to the caller's
// control flow.
type QuoteUnavailableError struct {
	Symbol    string
	Primary   error
	Secondary error
}

func (e *QuoteUnavailableError) Error() string {
	return fmt.Sprintf("quote unavailable for %s", e.Symbol)
}

func (e *QuoteUnavailableError) Unwrap() []error {
	var errs []error
	if e.Primary != nil {
		errs = append(errs, e.Primary)
	}
	if e.Secondary != nil {
		errs = append(errs, e.Secondary)
	}
	return errs
}
