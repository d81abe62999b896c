// Package task manages background job execution. The supervisor drains the
// durable work queue with a bounded pool of workers, invokes the generation
// engine under a hard wall-clock timeout, and writes exactly one terminal
// state per task through the result normalizer, so long-running generation
// never blocks HTTP request handling.
package task
