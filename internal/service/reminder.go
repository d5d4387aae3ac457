package service

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/fintrack/loan-engine/internal/config"
	"github.com/fintrack/loan-engine/internal/domain"
	"github.com/fintrack/loan-engine/internal/repository"
	customError "github.com/fintrack/loan-engine/pkg/errors"
)

// dispatchLockKey serializes concurrent batch invocations. The partial
// unique index on reminders is the backstop if the lock is unavailable.
const dispatchLockKey = "reminders:dispatch:lock"

// Sender delivers one reminder through the external email collaborator.
type Sender interface {
	Send(ctx context.Context, candidate *domain.ReminderCandidate) error
}

// ReminderService sends at most one reminder per installment per calendar
// day, across all users, bounded by a global daily cap.
type ReminderService struct {
	loanRepo     repository.LoanRepository
	reminderRepo repository.ReminderRepository
	sender       Sender
	redis        *redis.Client
	config       *config.Config
	now          func() time.Time
}

func NewReminderService(
	loanRepo repository.LoanRepository,
	reminderRepo repository.ReminderRepository,
	sender Sender,
	redisClient *redis.Client,
	cfg *config.Config,
) *ReminderService {
	return &ReminderService{
		loanRepo:     loanRepo,
		reminderRepo: reminderRepo,
		sender:       sender,
		redis:        redisClient,
		config:       cfg,
		now:          time.Now,
	}
}

// Dispatch runs one sequential reminder batch over installments due
// tomorrow and still PENDING. Delivery failures are recorded and skipped;
// only storage failures abort the batch.
func (s *ReminderService) Dispatch(ctx context.Context) (*domain.DispatchReport, error) {
	now := s.now().In(s.config.GetReminderLocation())
	today := startOfDay(now)
	tomorrowStart := today.AddDate(0, 0, 1)
	tomorrowEnd := today.AddDate(0, 0, 2)

	if s.redis != nil {
		acquired, err := s.redis.SetNX(ctx, dispatchLockKey, "1", s.config.GetReminderLockTTL()).Result()
		if err != nil {
			// The unique index still prevents duplicate sends, so a lock
			// outage degrades rather than stops dispatch.
			log.Printf("reminder dispatch lock unavailable, continuing: %v", err)
		} else if !acquired {
			return nil, customError.WrapDispatchInProgress()
		} else {
			// Release on a fresh context: the caller may have abandoned
			// the request, and the lock must not linger until TTL.
			defer func() {
				releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				s.redis.Del(releaseCtx, dispatchLockKey)
			}()
		}
	}

	dailyCap := s.config.Reminder.DailyCap
	report := &domain.DispatchReport{Items: []*domain.DispatchItem{}}

	sentToday, err := s.reminderRepo.CountSentSince(ctx, today)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	if sentToday >= dailyCap {
		log.Printf("daily reminder cap (%d) already reached, skipping batch", dailyCap)
		return report, nil
	}

	candidates, err := s.loanRepo.ListReminderCandidates(ctx, tomorrowStart, tomorrowEnd)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	for _, candidate := range candidates {
		if sentToday+report.Sent >= dailyCap {
			log.Printf("daily reminder cap (%d) reached during batch", dailyCap)
			break
		}

		if candidate.Email == "" {
			continue
		}

		alreadySent, err := s.reminderRepo.HasSentSince(ctx, candidate.InstallmentID, today)
		if err != nil {
			return nil, customError.WrapDatabaseError(err)
		}
		if alreadySent {
			continue
		}

		var deliveryErr *customError.BusinessError
		if sendErr := s.sender.Send(ctx, candidate); sendErr != nil {
			deliveryErr = customError.WrapDeliveryFailed(sendErr)
		}

		record := &domain.ReminderRecord{
			ID:            uuid.New(),
			UserID:        candidate.UserID,
			LoanID:        candidate.LoanID,
			InstallmentID: candidate.InstallmentID,
			Channel:       domain.ReminderChannelEmail,
			Status:        domain.ReminderStatusSent,
			Message:       "automatic payment reminder sent",
			SentOn:        today,
			CreatedAt:     s.now(),
		}
		if deliveryErr != nil {
			// PENDING records do not count toward dedup, so the
			// installment is retried on a later invocation.
			record.Status = domain.ReminderStatusPending
			record.Message = deliveryErr.Message
		}

		if err = s.reminderRepo.Create(ctx, record); err != nil {
			if errors.Is(err, customError.ErrDuplicateReminder) {
				// A concurrent batch won the race for this installment.
				log.Printf("duplicate reminder suppressed for installment %s", candidate.InstallmentID)
				continue
			}
			return nil, customError.WrapDatabaseError(err)
		}

		if deliveryErr == nil {
			report.Sent++
		}

		item := &domain.DispatchItem{
			InstallmentID: candidate.InstallmentID,
			Email:         candidate.Email,
			Status:        record.Status,
		}
		if deliveryErr != nil {
			item.Error = deliveryErr.Message
		}
		report.Items = append(report.Items, item)
		report.Processed++
	}

	return report, nil
}
