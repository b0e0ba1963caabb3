package secondary

import (
	"context"

	"gitlab.com/code-engine.net/internal/domain"
)

// TaskPublisher defines the interface for enqueueing submissions onto the
// broker for asynchronous judging
type TaskPublisher interface {
	// PublishTask enqueues one job; the message must survive a broker restart
	PublishTask(ctx context.Context, job *domain.QueuedJob) error
}
