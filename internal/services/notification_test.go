package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-telegram/bot"
	tgmodels "github.com/go-telegram/bot/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/irfndi/celebrum-odds/internal/config"
	"github.com/irfndi/celebrum-odds/internal/models"
)

type recordingSender struct {
	sent []*bot.SendMessageParams
	err  error
}

func (r *recordingSender) SendMessage(_ context.Context, params *bot.SendMessageParams) (*tgmodels.Message, error) {
	if r.err != nil {
		return nil, r.err
	}
	r.sent = append(r.sent, params)
	return &tgmodels.Message{ID: len(r.sent)}, nil
}

func telegramConfig() config.TelegramConfig {
	return config.TelegramConfig{BotToken: "token", ChatID: 4242, AlertCooldown: "30m"}
}

func plannedOpportunity(id string, margin float64) models.PlannedOpportunity {
	commence := time.Date(2026, 11, 1, 0, 30, 0, 0, time.UTC)
	return models.PlannedOpportunity{
		Opportunity: models.ArbitrageOpportunity{
			ID:     id,
			Event:  models.Event{ID: "Lakers vs Celtics", Name: "Lakers vs Celtics", League: "nba", CommenceTime: &commence},
			Market: models.MarketH2H,
			Legs: []models.ArbitrageLeg{
				{Outcome: "Lakers", Bookmaker: "FanDuel", DecimalOdds: 2.10},
				{Outcome: "Celtics", Bookmaker: "Bet_Rivers", DecimalOdds: 2.05},
			},
			ProfitMarginPercent: margin,
		},
	}
}

func TestNotificationService_Disabled(t *testing.T) {
	svc := NewNotificationServiceWithSender(nil, config.TelegramConfig{}, nil, quietLogger())
	assert.False(t, svc.Enabled())

	sent, err := svc.NotifyOpportunities(context.Background(), []models.PlannedOpportunity{plannedOpportunity("a", 3)})
	require.NoError(t, err)
	assert.Zero(t, sent)

	noChat := NewNotificationServiceWithSender(&recordingSender{}, config.TelegramConfig{BotToken: "x"}, nil, quietLogger())
	assert.False(t, noChat.Enabled())
}

func TestNewNotificationService_NoToken(t *testing.T) {
	svc, err := NewNotificationService(config.TelegramConfig{}, nil, quietLogger())
	require.NoError(t, err)
	assert.False(t, svc.Enabled())
}

func TestNotificationService_NotifyOpportunities(t *testing.T) {
	sender := &recordingSender{}
	svc := NewNotificationServiceWithSender(sender, telegramConfig(), nil, quietLogger())

	planned := plannedOpportunity("a", 2.47)
	planned.Plan = &models.StakePlan{
		TotalStake:       decimal.NewFromInt(1000),
		GuaranteedProfit: decimal.RequireFromString("24.70"),
		LegStakes: []models.LegStake{
			{Outcome: "Lakers", Stake: decimal.RequireFromString("493.97")},
			{Outcome: "Celtics", Stake: decimal.RequireFromString("506.03")},
		},
	}

	sent, err := svc.NotifyOpportunities(context.Background(), []models.PlannedOpportunity{planned})
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
	require.Len(t, sender.sent, 1)

	msg := sender.sent[0]
	assert.Equal(t, int64(4242), msg.ChatID)
	assert.Equal(t, tgmodels.ParseModeMarkdown, msg.ParseMode)
	assert.Contains(t, msg.Text, "*1. Lakers vs Celtics*")
	assert.Contains(t, msg.Text, "Nba · h2h")
	assert.Contains(t, msg.Text, "Nov 1 00:30 UTC")
	assert.Contains(t, msg.Text, "Margin: *2.47%*")
	assert.Contains(t, msg.Text, "Lakers @ FanDuel: 2.10 (+110), stake 493.97")
	assert.Contains(t, msg.Text, `Celtics @ Bet\_Rivers: 2.05 (+105), stake 506.03`)
	assert.Contains(t, msg.Text, "Profit on 1000.00: *24.70*")
}

func TestNotificationService_TruncatesLongLists(t *testing.T) {
	sender := &recordingSender{}
	svc := NewNotificationServiceWithSender(sender, telegramConfig(), nil, quietLogger())

	opps := []models.PlannedOpportunity{
		plannedOpportunity("a", 5), plannedOpportunity("b", 4), plannedOpportunity("c", 3),
		plannedOpportunity("d", 2), plannedOpportunity("e", 1),
	}
	sent, err := svc.NotifyOpportunities(context.Background(), opps)
	require.NoError(t, err)
	assert.Equal(t, 5, sent)
	assert.Contains(t, sender.sent[0].Text, "Found 5 opportunities")
	assert.Contains(t, sender.sent[0].Text, "...and 2 more opportunities")
	assert.NotContains(t, sender.sent[0].Text, "*4. ")
}

func TestNotificationService_Cooldown(t *testing.T) {
	sender := &recordingSender{}
	dedup := new(MockOpportunityStore)
	dedup.On("MarkNotified", mock.Anything, "a", 30*time.Minute).Return(false, nil)
	dedup.On("MarkNotified", mock.Anything, "b", 30*time.Minute).Return(true, nil)
	dedup.On("MarkNotified", mock.Anything, "c", 30*time.Minute).Return(false, errors.New("redis down"))

	svc := NewNotificationServiceWithSender(sender, telegramConfig(), dedup, quietLogger())
	sent, err := svc.NotifyOpportunities(context.Background(), []models.PlannedOpportunity{
		plannedOpportunity("a", 3), plannedOpportunity("b", 2), plannedOpportunity("c", 1),
	})
	require.NoError(t, err)
	// a is muted, c is sent because the cooldown could not be checked.
	assert.Equal(t, 2, sent)
	assert.Contains(t, sender.sent[0].Text, "Found 2 opportunities")
	dedup.AssertExpectations(t)
}

func TestNotificationService_AllMuted(t *testing.T) {
	sender := &recordingSender{}
	dedup := new(MockOpportunityStore)
	dedup.On("MarkNotified", mock.Anything, mock.Anything, mock.Anything).Return(false, nil)

	svc := NewNotificationServiceWithSender(sender, telegramConfig(), dedup, quietLogger())
	sent, err := svc.NotifyOpportunities(context.Background(), []models.PlannedOpportunity{plannedOpportunity("a", 3)})
	require.NoError(t, err)
	assert.Zero(t, sent)
	assert.Empty(t, sender.sent)
}

func TestNotificationService_SendFailure(t *testing.T) {
	sender := &recordingSender{err: errors.New("chat not found")}
	svc := NewNotificationServiceWithSender(sender, telegramConfig(), nil, quietLogger())

	sent, err := svc.NotifyOpportunities(context.Background(), []models.PlannedOpportunity{plannedOpportunity("a", 3)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chat not found")
	assert.Zero(t, sent)
}

func TestEscapeMarkdown(t *testing.T) {
	assert.Equal(t, "a\\_b \\*c\\* \\`d\\` \\[e]", escapeMarkdown("a_b *c* `d` [e]"))
}
