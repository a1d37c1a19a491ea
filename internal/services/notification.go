package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-telegram/bot"
	tgmodels "github.com/go-telegram/bot/models"
	"github.com/sirupsen/logrus"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/irfndi/celebrum-odds/internal/arbitrage"
	"github.com/irfndi/celebrum-odds/internal/config"
	"github.com/irfndi/celebrum-odds/internal/models"
	"github.com/irfndi/celebrum-odds/internal/telemetry"
)

// maxAlertOpportunities caps how many opportunities one message lists.
const maxAlertOpportunities = 3

// MessageSender is the part of *bot.Bot the notifier uses.
type MessageSender interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*tgmodels.Message, error)
}

// NotificationService posts arbitrage alerts to a Telegram chat. An
// opportunity is announced at most once per cooldown.
type NotificationService struct {
	sender   MessageSender
	chatID   int64
	cooldown time.Duration
	dedup    OpportunityStore
	tracer   *telemetry.BusinessTracer
	logger   *logrus.Logger
	title    cases.Caser
}

// NewNotificationService creates the Telegram notifier. Without a bot token
// or chat ID the service is a no-op. dedup may be nil.
func NewNotificationService(cfg config.TelegramConfig, dedup OpportunityStore, logger *logrus.Logger) (*NotificationService, error) {
	var sender MessageSender
	if cfg.BotToken != "" {
		b, err := bot.New(cfg.BotToken, bot.WithSkipGetMe())
		if err != nil {
			return nil, fmt.Errorf("failed to create telegram bot: %w", err)
		}
		sender = b
	}
	return NewNotificationServiceWithSender(sender, cfg, dedup, logger), nil
}

// NewNotificationServiceWithSender builds the notifier around an existing sender.
func NewNotificationServiceWithSender(sender MessageSender, cfg config.TelegramConfig, dedup OpportunityStore, logger *logrus.Logger) *NotificationService {
	if logger == nil {
		logger = logrus.New()
	}
	return &NotificationService{
		sender:   sender,
		chatID:   cfg.ChatID,
		cooldown: cfg.GetAlertCooldown(),
		dedup:    dedup,
		tracer:   telemetry.NewBusinessTracer(),
		logger:   logger,
		title:    cases.Title(language.English),
	}
}

// Enabled reports whether alerts can be delivered.
func (ns *NotificationService) Enabled() bool {
	return ns.sender != nil && ns.chatID != 0
}

// NotifyOpportunities sends one message covering every opportunity not
// announced within the cooldown and returns how many it covered.
func (ns *NotificationService) NotifyOpportunities(ctx context.Context, opportunities []models.PlannedOpportunity) (int, error) {
	if !ns.Enabled() || len(opportunities) == 0 {
		return 0, nil
	}

	fresh := ns.filterFresh(ctx, opportunities)
	if len(fresh) == 0 {
		return 0, nil
	}

	ctx, span := ns.tracer.TraceNotification(ctx, "arbitrage", "telegram")
	defer span.End()

	_, err := ns.sender.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    ns.chatID,
		Text:      ns.formatArbitrageMessage(fresh),
		ParseMode: tgmodels.ParseModeMarkdown,
	})
	if err != nil {
		ns.tracer.RecordNotificationResult(span, 0, err)
		return 0, fmt.Errorf("failed to send telegram message: %w", err)
	}

	ns.tracer.RecordNotificationResult(span, len(fresh), nil)
	return len(fresh), nil
}

// filterFresh drops opportunities already announced within the cooldown. If
// the dedup store fails the opportunity is announced anyway.
func (ns *NotificationService) filterFresh(ctx context.Context, opportunities []models.PlannedOpportunity) []models.PlannedOpportunity {
	if ns.dedup == nil {
		return opportunities
	}

	fresh := make([]models.PlannedOpportunity, 0, len(opportunities))
	for _, o := range opportunities {
		first, err := ns.dedup.MarkNotified(ctx, o.Opportunity.ID, ns.cooldown)
		if err != nil {
			ns.logger.WithField("opportunity_id", o.Opportunity.ID).WithError(err).Warn("Failed to check alert cooldown")
			first = true
		}
		if first {
			fresh = append(fresh, o)
		}
	}
	return fresh
}

func (ns *NotificationService) formatArbitrageMessage(opportunities []models.PlannedOpportunity) string {
	var b strings.Builder
	b.WriteString("🚀 *Sportsbook Arbitrage*\n\n")
	fmt.Fprintf(&b, "Found %d opportunities:\n\n", len(opportunities))

	top := opportunities
	if len(top) > maxAlertOpportunities {
		top = top[:maxAlertOpportunities]
	}

	for i, planned := range top {
		opp := planned.Opportunity
		fmt.Fprintf(&b, "*%d. %s*\n", i+1, escapeMarkdown(opp.Event.Name))
		fmt.Fprintf(&b, "🏟 %s · %s", escapeMarkdown(ns.title.String(opp.Event.League)), escapeMarkdown(opp.Market))
		if opp.LineKey != nil {
			fmt.Fprintf(&b, " %s", escapeMarkdown(*opp.LineKey))
		}
		b.WriteString("\n")
		if opp.Event.CommenceTime != nil {
			fmt.Fprintf(&b, "🕒 %s UTC\n", opp.Event.CommenceTime.UTC().Format("Jan 2 15:04"))
		}
		fmt.Fprintf(&b, "💰 Margin: *%.2f%%*\n", opp.ProfitMarginPercent)

		stakes := make(map[string]string, len(opp.Legs))
		if planned.Plan != nil {
			for _, ls := range planned.Plan.LegStakes {
				stakes[ls.Outcome] = ls.Stake.StringFixed(2)
			}
		}
		for _, leg := range opp.Legs {
			name := leg.Outcome
			if leg.OutcomeName != "" {
				name = leg.OutcomeName
			}
			if leg.Line != nil {
				name += " " + strconv.FormatFloat(*leg.Line, 'f', -1, 64)
			}
			price := strconv.FormatFloat(leg.DecimalOdds, 'f', 2, 64)
			if american, err := arbitrage.FormatAmerican(leg.DecimalOdds); err == nil {
				price += " (" + american + ")"
			}
			fmt.Fprintf(&b, "  • %s @ %s: %s", escapeMarkdown(name), escapeMarkdown(leg.Bookmaker), price)
			if stake, ok := stakes[leg.Outcome]; ok {
				fmt.Fprintf(&b, ", stake %s", stake)
			}
			b.WriteString("\n")
		}
		if planned.Plan != nil {
			fmt.Fprintf(&b, "  Profit on %s: *%s*\n", planned.Plan.TotalStake.StringFixed(2), planned.Plan.GuaranteedProfit.StringFixed(2))
		}
		b.WriteString("\n")
	}

	if len(opportunities) > maxAlertOpportunities {
		fmt.Fprintf(&b, "...and %d more opportunities\n\n", len(opportunities)-maxAlertOpportunities)
	}
	b.WriteString("⚡ *Act fast!* Prices move quickly.")
	return b.String()
}

var markdownEscaper = strings.NewReplacer("_", "\\_", "*", "\\*", "`", "\\`", "[", "\\[")

func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}
