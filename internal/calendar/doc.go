// Package calendar models calendar time as half-open intervals and defines
// the Gateway contract the booking logic talks to.
//
// Two gateways are provided. GoogleGateway reads and writes one Google
// Calendar through the v3 API with a service-account token source, a
// client-side rate limit and a per-call timeout. MemoryGateway keeps events
// in process memory and can check and insert atomically.
//
// Overlap is always the half-open test
//
//	a.Start < b.End && b.Start < a.End
//
// so an event ending at 10:00 never conflicts with a request starting at 10:00.
package calendar
