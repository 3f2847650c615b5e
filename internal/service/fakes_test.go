package service

import (
	"context"
	"time"

	"app/internal/model"
	"app/internal/repository"
	"app/internal/whop"
)

// fakePollRepo is an in-memory PollRepository for service tests.
type fakePollRepo struct {
	polls map[string]*model.Poll

	createErr   error
	deleted     []string
	activateOut []model.Poll
	expireOut   []model.Poll
	activeCount int
	totalCount  int
}

func newFakePollRepo() *fakePollRepo {
	return &fakePollRepo{polls: make(map[string]*model.Poll)}
}

func (f *fakePollRepo) CreatePollWithOptions(ctx context.Context, p *model.Poll, optionTexts []string, maxActive int) error {
	if f.createErr != nil {
		return f.createErr
	}
	if maxActive > 0 && f.activeCount >= maxActive {
		return repository.ErrPollLimitReached
	}
	p.ID = "poll_" + p.Question
	p.CreatedAt = time.Now()
	for i, text := range optionTexts {
		p.Options = append(p.Options, model.PollOption{
			ID:         p.ID + "_opt_" + text,
			PollID:     p.ID,
			OptionText: text,
			CreatedAt:  time.Now().Add(time.Duration(i) * time.Millisecond),
		})
	}
	f.polls[p.ID] = p
	return nil
}

func (f *fakePollRepo) GetPollByID(ctx context.Context, pollID string) (*model.Poll, error) {
	return f.polls[pollID], nil
}

func (f *fakePollRepo) ListByExperience(ctx context.Context, experienceID, userID string) ([]model.Poll, error) {
	var out []model.Poll
	for _, p := range f.polls {
		if p.ExperienceID == experienceID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f *fakePollRepo) ListByCompany(ctx context.Context, companyID, userID string) ([]model.Poll, error) {
	var out []model.Poll
	for _, p := range f.polls {
		if p.CompanyID == companyID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f *fakePollRepo) DeletePoll(ctx context.Context, pollID string) error {
	delete(f.polls, pollID)
	f.deleted = append(f.deleted, pollID)
	return nil
}

func (f *fakePollRepo) ActivateDue(ctx context.Context, now time.Time) ([]model.Poll, error) {
	return f.activateOut, nil
}

func (f *fakePollRepo) ExpireDue(ctx context.Context, now time.Time) ([]model.Poll, error) {
	return f.expireOut, nil
}

func (f *fakePollRepo) CountActiveByCreator(ctx context.Context, userID, companyID, experienceID string, now time.Time) (int, error) {
	return f.activeCount, nil
}

func (f *fakePollRepo) CountCreatedByCreator(ctx context.Context, userID, companyID, experienceID string) (int, error) {
	return f.totalCount, nil
}

// fakeVoteRepo records cast votes without a database.
type fakeVoteRepo struct {
	castErr error
	casts   []string // "pollID/optionID/userID"
	voted   map[string]bool
}

func newFakeVoteRepo() *fakeVoteRepo {
	return &fakeVoteRepo{voted: make(map[string]bool)}
}

func (f *fakeVoteRepo) CastVote(ctx context.Context, pollID, optionID, userID string) error {
	if f.castErr != nil {
		return f.castErr
	}
	f.casts = append(f.casts, pollID+"/"+optionID+"/"+userID)
	f.voted[pollID+"/"+userID] = true
	return nil
}

func (f *fakeVoteRepo) HasVoted(ctx context.Context, pollID, userID string) (bool, error) {
	return f.voted[pollID+"/"+userID], nil
}

// fakeSubRepo is an in-memory SubscriptionRepository keyed by
// user/company/experience.
type fakeSubRepo struct {
	subs map[string]*model.UserSubscription
}

func newFakeSubRepo() *fakeSubRepo {
	return &fakeSubRepo{subs: make(map[string]*model.UserSubscription)}
}

func subKey(userID, companyID, experienceID string) string {
	return userID + "/" + companyID + "/" + experienceID
}

func (f *fakeSubRepo) GetSubscription(ctx context.Context, userID, companyID, experienceID string) (*model.UserSubscription, error) {
	return f.subs[subKey(userID, companyID, experienceID)], nil
}

func (f *fakeSubRepo) InitializeFree(ctx context.Context, userID, companyID, experienceID string) error {
	key := subKey(userID, companyID, experienceID)
	if _, ok := f.subs[key]; !ok {
		f.subs[key] = &model.UserSubscription{
			UserID:       userID,
			CompanyID:    companyID,
			ExperienceID: experienceID,
			Status:       model.TierFree,
		}
	}
	return nil
}

func (f *fakeSubRepo) UpsertSubscription(ctx context.Context, sub *model.UserSubscription) error {
	f.subs[subKey(sub.UserID, sub.CompanyID, sub.ExperienceID)] = sub
	return nil
}

func (f *fakeSubRepo) SetStatus(ctx context.Context, userID, companyID, experienceID string, status model.SubscriptionStatus, endsAt *time.Time) error {
	key := subKey(userID, companyID, experienceID)
	sub, ok := f.subs[key]
	if !ok {
		sub = &model.UserSubscription{UserID: userID, CompanyID: companyID, ExperienceID: experienceID}
		f.subs[key] = sub
	}
	sub.Status = status
	sub.EndsAt = endsAt
	return nil
}

// fakeNotifRepo is an in-memory launch notification dedupe set.
type fakeNotifRepo struct {
	claimed map[string]bool
}

func newFakeNotifRepo() *fakeNotifRepo {
	return &fakeNotifRepo{claimed: make(map[string]bool)}
}

func (f *fakeNotifRepo) TryMarkSent(ctx context.Context, pollID, experienceID, creatorUserID string) (bool, error) {
	if f.claimed[pollID] {
		return false, nil
	}
	f.claimed[pollID] = true
	return true, nil
}

// fakeAccess returns a fixed access level for every check.
type fakeAccess struct {
	level whop.AccessLevel
	err   error
}

func (f *fakeAccess) CheckCompanyAccess(ctx context.Context, userID, companyID string) (*whop.AccessResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &whop.AccessResult{
		HasAccess:   f.level != whop.AccessNone,
		AccessLevel: f.level,
	}, nil
}

// fakePushSender records notifications instead of calling the platform.
type fakePushSender struct {
	sendErr error
	sent    []whop.PushNotification
}

func (f *fakePushSender) SendPushNotification(ctx context.Context, n whop.PushNotification) error {
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, n)
	return nil
}
