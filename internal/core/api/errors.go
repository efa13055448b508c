package api

// Error mapping is done inline in handlers.
// Auth errors are mapped by the auth interceptor.
// Store errors map to UNAVAILABLE.
// Empty utterances map to INVALID_ARGUMENT.
// Cancelled or expired contexts map to CANCELED or DEADLINE_EXCEEDED.
