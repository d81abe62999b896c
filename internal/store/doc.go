// Package store provides durable persistence for task state and the
// request-fingerprint index. Redis is the system of record; the task store
// additionally keeps a bounded in-process cache that serves reads only when
// Redis is unreachable and is never authoritative across restarts.
package store
