// Package cache provides the usage snapshot cache.
//
// The cache holds exactly one value: the most recent successful usage
// snapshot. Its TTL (default 60s) is what keeps console refreshes and
// API calls from hammering the upstream quota endpoint between poller
// cycles. Failed fetches are never cached; the previous entry keeps
// serving until it expires.
//
// Two backends exist. Memory is the default: a single in-process slot
// with monotonic-clock expiry. Redis shares the slot across instances
// through a single JSON value with a server-side TTL, for deployments
// running more than one callisto in front of the same account.
package cache
