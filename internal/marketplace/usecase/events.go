package usecase

import (
	"context"

	"github.com/Abdurahmanit/merchsy/internal/marketplace/domain"
	"github.com/Abdurahmanit/merchsy/internal/platform/logger"
	"go.uber.org/zap"
)

const (
	SubjectAccountRegistered = "account.registered"
	SubjectAccountFollowed   = "account.followed"
	SubjectAccountUnfollowed = "account.unfollowed"
	SubjectItemCreated       = "item.created"
	SubjectCommentCreated    = "comment.created"
)

// publish is best effort: the write already succeeded, so a lost event is
// only logged. A nil publisher disables events.
func publish(ctx context.Context, pub domain.EventPublisher, log *logger.Logger, subject string, payload any) {
	if pub == nil {
		return
	}
	if err := pub.Publish(ctx, subject, payload); err != nil {
		log.Warn("Failed to publish event", zap.String("subject", subject), zap.Error(err))
	}
}
