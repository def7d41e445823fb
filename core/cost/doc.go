// Package cost normalizes provider-reported token usage into a canonical
// breakdown and prices it against per-model USD-per-million-token schedules.
package cost
