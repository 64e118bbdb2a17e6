package job

import (
	"context"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/mont-sinai/chorale/internal/repo"
)

// SignupCleanupJob deletes accounts that never finished email
// verification. Their OTP keys expired long ago, so the rows are dead
// weight and the email addresses stay blocked for re-signup.
type SignupCleanupJob struct {
	users      *repo.UserRepo
	maxAgeDays int
}

func NewSignupCleanupJob(users *repo.UserRepo, maxAgeDays int) *SignupCleanupJob {
	return &SignupCleanupJob{users: users, maxAgeDays: maxAgeDays}
}

func (j *SignupCleanupJob) Name() string {
	return "signup_cleanup"
}

func (j *SignupCleanupJob) Run(ctx context.Context) error {
	if j.users == nil {
		return nil
	}
	maxAgeDays := j.maxAgeDays
	if maxAgeDays <= 0 {
		maxAgeDays = 30
	}
	cutoff := time.Now().Add(-time.Duration(maxAgeDays) * 24 * time.Hour).Unix()
	deleted, err := j.users.DeleteUnverifiedBefore(ctx, cutoff)
	if err != nil {
		return err
	}
	if deleted > 0 {
		logutil.GetLogger(ctx).Info("removed unverified accounts", zap.Int64("count", deleted))
	}
	return nil
}
