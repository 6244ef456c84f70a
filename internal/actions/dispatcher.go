package actions

import (
	"context"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"threat-monitor/internal/config"
	"threat-monitor/internal/logging"
	"threat-monitor/internal/models"
	"threat-monitor/internal/utils"
)

// Sender delivers one alert through one channel.
type Sender interface {
	Send(ctx context.Context, action models.AlertAction, alert models.ThreatAlert) error
}

// Dispatcher fans fired alerts out to the delivery channels a rule declares.
// Delivery runs asynchronously and is fully isolated from the emission path:
// a failing or slow channel never blocks alert persistence.
type Dispatcher struct {
	senders map[models.ActionType]Sender
	logger  *logging.Logger
	limiter *rate.Limiter
	timeout time.Duration
}

// NewDispatcher builds a dispatcher with the default channel senders
// registered.
func NewDispatcher(cfg config.Config, logger *logging.Logger) *Dispatcher {
	timeout := time.Duration(cfg.Delivery.TimeoutSeconds) * time.Second
	client := &http.Client{Timeout: timeout}

	d := &Dispatcher{
		senders: make(map[models.ActionType]Sender),
		logger:  logger,
		limiter: rate.NewLimiter(rate.Limit(float64(cfg.Delivery.RatePerSecond)), cfg.Delivery.RatePerSecond),
		timeout: timeout,
	}
	d.Register(models.ActionWebhook, &WebhookSender{Client: client})
	d.Register(models.ActionSlack, &SlackSender{Client: client})
	d.Register(models.ActionTeams, &TeamsSender{Client: client})
	d.Register(models.ActionPagerDuty, &PagerDutySender{Client: client})
	d.Register(models.ActionEmail, &EmailSender{Config: cfg})
	d.Register(models.ActionLog, &LogSender{Logger: logger})
	// ui delivery is satisfied by the websocket hub, which subscribes to
	// the alert store directly; declaring the action on a rule is harmless.
	d.Register(models.ActionUI, noopSender{})
	return d
}

// Register wires a sender for an action type, replacing any previous one.
func (d *Dispatcher) Register(t models.ActionType, s Sender) {
	d.senders[t] = s
}

// Dispatch delivers the alert through every enabled action. Each delivery
// runs in its own goroutine with retry and rate limiting.
func (d *Dispatcher) Dispatch(acts []models.AlertAction, alert models.ThreatAlert) {
	for _, act := range acts {
		if !act.Enabled {
			continue
		}
		sender, ok := d.senders[act.Type]
		if !ok {
			d.logger.Warnf("No sender registered for action type %q, skipping", act.Type)
			continue
		}
		go d.deliver(sender, act, alert)
	}
}

func (d *Dispatcher) deliver(sender Sender, act models.AlertAction, alert models.ThreatAlert) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Errorf("Delivery via %q panicked: %v", act.Type, r)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), d.timeout+30*time.Second)
	defer cancel()

	if err := d.limiter.Wait(ctx); err != nil {
		d.logger.Errorf("Delivery via %q rate limit wait failed: %v", act.Type, err)
		return
	}

	err := utils.Retry(ctx, d.logger, 3, time.Second, func() error {
		return sender.Send(ctx, act, alert)
	})
	if err != nil {
		d.logger.Errorf("Delivery via %q failed for alert %s: %v", act.Type, alert.ID, err)
		return
	}
	d.logger.Infof("Alert %s delivered via %q", alert.ID, act.Type)
}

type noopSender struct{}

func (noopSender) Send(context.Context, models.AlertAction, models.ThreatAlert) error {
	return nil
}

// LogSender writes the alert to the service log.
type LogSender struct {
	Logger *logging.Logger
}

func (s *LogSender) Send(_ context.Context, _ models.AlertAction, alert models.ThreatAlert) error {
	s.Logger.Infof("ALERT [%s] %s (rule=%s source=%s indicators=%v)",
		alert.Severity, alert.Title, alert.RuleName, alert.Source, alert.Indicators)
	return nil
}
