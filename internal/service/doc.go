// Package service implements the request orchestration layer: fingerprint
// deduplication, task creation, and hand-off to the work queue. It is thin
// composition over the stores and the queue; execution itself lives in the
// task package.
package service
