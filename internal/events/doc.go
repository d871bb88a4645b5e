// Package events provides a small in-process publish/subscribe mechanism.
//
// Intake emits a JobSubmitted event after a job has been durably recorded.
// Handlers such as the poller use it only as a hint to look for work early;
// the job registry stays the source of truth, so a lost event delays a job
// by at most one poll interval.
package events
