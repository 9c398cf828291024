// Package metrics exposes game engine activity to Prometheus.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shadowcraft/shadowcraft-server-go/internal/game/rules"
)

// Collector holds the engine metrics and the registry they live in.
type Collector struct {
	GamesStarted    prometheus.Counter
	GamesFinished   *prometheus.CounterVec
	GamesActive     prometheus.Gauge
	GameTurns       prometheus.Histogram
	Actions         *prometheus.CounterVec
	ActionsRejected prometheus.Counter
	EffectsResolved *prometheus.CounterVec
	CardsDestroyed  prometheus.Counter
	CardsBanished   prometheus.Counter
	DamageDealt     prometheus.Counter
	ShadowsGained   prometheus.Counter

	Registry *prometheus.Registry
}

// NewCollector creates and registers the engine metrics.
func NewCollector(serviceName string) *Collector {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	labels := prometheus.Labels{"service": serviceName}
	c := &Collector{
		Registry: reg,

		GamesStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "shadowcraft_games_started_total",
			Help:        "Total number of games started",
			ConstLabels: labels,
		}),
		GamesFinished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "shadowcraft_games_finished_total",
			Help:        "Total number of games finished, by outcome",
			ConstLabels: labels,
		}, []string{"outcome"}),
		GamesActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "shadowcraft_games_active",
			Help:        "Current number of games in progress",
			ConstLabels: labels,
		}),
		GameTurns: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:        "shadowcraft_game_turns",
			Help:        "Number of turns played per finished game",
			ConstLabels: labels,
			Buckets:     []float64{2, 4, 6, 8, 10, 12, 15, 20, 30, 50},
		}),
		Actions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "shadowcraft_actions_total",
			Help:        "Total number of accepted player actions, by kind",
			ConstLabels: labels,
		}, []string{"kind"}),
		ActionsRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "shadowcraft_actions_rejected_total",
			Help:        "Total number of rejected player actions",
			ConstLabels: labels,
		}),
		EffectsResolved: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "shadowcraft_effects_resolved_total",
			Help:        "Total number of card effects resolved, by op",
			ConstLabels: labels,
		}, []string{"op"}),
		CardsDestroyed: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "shadowcraft_cards_destroyed_total",
			Help:        "Total number of cards destroyed",
			ConstLabels: labels,
		}),
		CardsBanished: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "shadowcraft_cards_banished_total",
			Help:        "Total number of cards banished",
			ConstLabels: labels,
		}),
		DamageDealt: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "shadowcraft_damage_dealt_total",
			Help:        "Total damage dealt to monsters and leaders",
			ConstLabels: labels,
		}),
		ShadowsGained: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "shadowcraft_shadows_gained_total",
			Help:        "Total shadows gained by players",
			ConstLabels: labels,
		}),
	}

	reg.MustRegister(
		c.GamesStarted,
		c.GamesFinished,
		c.GamesActive,
		c.GameTurns,
		c.Actions,
		c.ActionsRejected,
		c.EffectsResolved,
		c.CardsDestroyed,
		c.CardsBanished,
		c.DamageDealt,
		c.ShadowsGained,
	)
	return c
}

// Observe records one engine event. It satisfies rules.Listener and is
// attached with Engine.Subscribe.
func (c *Collector) Observe(evt rules.Event) {
	switch evt.Type {
	case rules.EventGameStarted:
		c.GamesStarted.Inc()
		c.GamesActive.Inc()
	case rules.EventGameOver:
		outcome := "win"
		if evt.SourceID == "" {
			outcome = "aborted"
		}
		c.GamesFinished.WithLabelValues(outcome).Inc()
		c.GamesActive.Dec()
		c.GameTurns.Observe(float64(evt.Turn))
	case rules.EventCardPlayed:
		c.Actions.WithLabelValues("play").Inc()
	case rules.EventAttack:
		c.Actions.WithLabelValues("attack").Inc()
	case rules.EventCardEvolved:
		c.Actions.WithLabelValues("evolve").Inc()
	case rules.EventTurnEnded:
		c.Actions.WithLabelValues("end_turn").Inc()
	case rules.EventActionRejected:
		c.ActionsRejected.Inc()
	case rules.EventEffectResolved:
		op := evt.Data
		if op == "" {
			op = "unknown"
		}
		c.EffectsResolved.WithLabelValues(op).Inc()
	case rules.EventCardDestroyed:
		c.CardsDestroyed.Inc()
	case rules.EventCardBanished:
		c.CardsBanished.Inc()
	case rules.EventDamage:
		if evt.Amount > 0 {
			c.DamageDealt.Add(float64(evt.Amount))
		}
	case rules.EventShadowsGained:
		if evt.Amount > 0 {
			c.ShadowsGained.Add(float64(evt.Amount))
		}
	}
}

// Handler returns an HTTP handler for the metrics endpoint.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.Registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}
