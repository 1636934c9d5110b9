package assistant

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Assistant asks the model to classify inbound chat and to draft outbound texts.
type Assistant struct {
	model  Model
	now    func() time.Time
	logger *zap.Logger
}

func New(model Model, logger *zap.Logger) *Assistant {
	return &Assistant{model: model, now: time.Now, logger: logger}
}

// WithClock replaces the clock used for "today" in prompts.
func (a *Assistant) WithClock(now func() time.Time) *Assistant {
	a.now = now
	return a
}

func (a *Assistant) CoordinatorIntent(ctx context.Context, text string, history []Turn) (*CoordinatorReply, error) {
	raw, err := a.model.Generate(ctx, CoordinatorIntake(text, history, a.now()))
	if err != nil {
		return nil, err
	}
	reply, err := ParseCoordinatorReply(raw)
	if err != nil {
		a.logger.Warn("Unparseable coordinator reply", zap.String("raw", raw), zap.Error(err))
		return nil, err
	}
	return reply, nil
}

func (a *Assistant) NurseIntent(ctx context.Context, text string, history []Turn) (*NurseReply, error) {
	raw, err := a.model.Generate(ctx, NurseIntake(text, history, a.now()))
	if err != nil {
		return nil, err
	}
	reply, err := ParseNurseReply(raw)
	if err != nil {
		a.logger.Warn("Unparseable nurse reply", zap.String("raw", raw), zap.Error(err))
		return nil, err
	}
	return reply, nil
}

// DraftInvitation writes the text offering an open shift to one nurse.
func (a *Assistant) DraftInvitation(ctx context.Context, in Invitation) (string, error) {
	raw, err := a.model.Generate(ctx, InvitationPrompt(in))
	if err != nil {
		return "", err
	}
	return ParseMessage(raw)
}

// DraftFollowUp writes the text relaying a coordinator's question to a nurse.
func (a *Assistant) DraftFollowUp(ctx context.Context, nurseName, question, facilityName string) (string, error) {
	raw, err := a.model.Generate(ctx, FollowUpPrompt(nurseName, question, facilityName))
	if err != nil {
		return "", err
	}
	return ParseMessage(raw)
}
