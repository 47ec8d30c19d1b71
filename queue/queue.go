// Package queue defines the narrow contract the credential manager uses
// to hand an outbound message to the email worker: a single queued row
// per user, content already rendered, no generic job/payload machinery.
package queue

import "context"

// Enqueuer is satisfied by db.Store. It exists as its own interface so
// credential.Manager doesn't need to depend on the full store surface.
type Enqueuer interface {
	EmailEnqueue(ctx context.Context, username, content string) error
}
