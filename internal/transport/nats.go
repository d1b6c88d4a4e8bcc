package transport

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/avvvet/homebuddy-agent/internal/agent"
	"github.com/avvvet/homebuddy-agent/internal/analytics"
	"github.com/avvvet/homebuddy-agent/internal/config"
	"github.com/avvvet/homebuddy-agent/internal/models"
)

// NATSTransport exposes the agent and the dashboard aggregates over NATS
// request/reply
type NATSTransport struct {
	conn         *nats.Conn
	config       *config.Config
	orchestrator *agent.Orchestrator
	analytics    *analytics.Service
}

func NewNATSTransport(cfg *config.Config, orchestrator *agent.Orchestrator, analyticsService *analytics.Service) (*NATSTransport, error) {
	conn, err := nats.Connect(cfg.NatsURL,
		nats.Name(cfg.ServiceName),
		nats.Timeout(cfg.NatsTimeout),
		nats.ReconnectWait(2*time.Second),
		nats.MaxReconnects(-1), // Infinite reconnects
	)
	if err != nil {
		return nil, err
	}

	log.Printf("Connected to NATS server: %s", cfg.NatsURL)

	return &NATSTransport{
		conn:         conn,
		config:       cfg,
		orchestrator: orchestrator,
		analytics:    analyticsService,
	}, nil
}

func (nt *NATSTransport) Start() error {
	subjects := map[string]nats.MsgHandler{
		nt.config.NatsTurnSubject:       nt.handleTurn,
		nt.config.NatsHistorySubject:    nt.handleHistory,
		nt.config.NatsClearSubject:      nt.handleClear,
		nt.config.NatsSummarySubject:    nt.handleSummary,
		nt.config.NatsYearlySubject:     nt.handleYearly,
		nt.config.NatsCategoriesSubject: nt.handleCategoryAnalysis,
		nt.config.NatsTrendsSubject:     nt.handleTrends,
		nt.config.NatsStatsSubject:      nt.handleStats,
	}

	for subject, handler := range subjects {
		if _, err := nt.conn.Subscribe(subject, handler); err != nil {
			return err
		}
		log.Printf("Subscribed to subject: %s", subject)
	}

	return nil
}

func (nt *NATSTransport) handleTurn(msg *nats.Msg) {
	var request models.TurnRequest
	if err := json.Unmarshal(msg.Data, &request); err != nil {
		log.Printf("Error parsing turn request: %v", err)
		nt.respondError(msg, "invalid request format")
		return
	}

	ctx, cancel := nt.requestContext()
	defer cancel()

	// Turn never fails; degraded replies come back as values
	response := nt.orchestrator.Turn(ctx, request.SessionID, request.Message)
	nt.respond(msg, response)
}

func (nt *NATSTransport) handleHistory(msg *nats.Msg) {
	var request models.HistoryRequest
	if err := json.Unmarshal(msg.Data, &request); err != nil {
		log.Printf("Error parsing history request: %v", err)
		nt.respondError(msg, "invalid request format")
		return
	}

	ctx, cancel := nt.requestContext()
	defer cancel()

	turns, err := nt.orchestrator.History(ctx, request.SessionID)
	if err != nil {
		log.Printf("Error loading history for %s: %v", request.SessionID, err)
		nt.respondError(msg, "failed to load history")
		return
	}

	nt.respond(msg, &models.HistoryResponse{SessionID: request.SessionID, Turns: turns})
}

func (nt *NATSTransport) handleClear(msg *nats.Msg) {
	var request models.ClearRequest
	if err := json.Unmarshal(msg.Data, &request); err != nil {
		log.Printf("Error parsing clear request: %v", err)
		nt.respondError(msg, "invalid request format")
		return
	}

	ctx, cancel := nt.requestContext()
	defer cancel()

	if err := nt.orchestrator.Clear(ctx, request.SessionID); err != nil {
		log.Printf("Error clearing session %s: %v", request.SessionID, err)
		nt.respondError(msg, "failed to clear session")
		return
	}

	nt.respond(msg, &models.ClearResponse{SessionID: request.SessionID, Cleared: true})
}

func (nt *NATSTransport) handleSummary(msg *nats.Msg) {
	var request models.SummaryRequest
	if len(msg.Data) > 0 {
		if err := json.Unmarshal(msg.Data, &request); err != nil {
			log.Printf("Error parsing summary request: %v", err)
			nt.respondError(msg, "invalid request format")
			return
		}
	}

	ctx, cancel := nt.requestContext()
	defer cancel()

	summary, err := nt.analytics.MonthlySummary(ctx, request.Year, request.Month)
	if err != nil {
		log.Printf("Error computing summary: %v", err)
		nt.respondError(msg, "failed to compute summary")
		return
	}

	nt.respond(msg, summary)
}

func (nt *NATSTransport) handleYearly(msg *nats.Msg) {
	var request models.YearlyRequest
	if len(msg.Data) > 0 {
		if err := json.Unmarshal(msg.Data, &request); err != nil {
			log.Printf("Error parsing yearly request: %v", err)
			nt.respondError(msg, "invalid request format")
			return
		}
	}

	ctx, cancel := nt.requestContext()
	defer cancel()

	summary, err := nt.analytics.YearlySummary(ctx, request.Year)
	if err != nil {
		log.Printf("Error computing yearly summary: %v", err)
		nt.respondError(msg, "failed to compute yearly summary")
		return
	}

	nt.respond(msg, summary)
}

func (nt *NATSTransport) handleCategoryAnalysis(msg *nats.Msg) {
	ctx, cancel := nt.requestContext()
	defer cancel()

	analysis, err := nt.analytics.CategoryAnalysis(ctx)
	if err != nil {
		log.Printf("Error computing category analysis: %v", err)
		nt.respondError(msg, "failed to compute category analysis")
		return
	}

	nt.respond(msg, analysis)
}

func (nt *NATSTransport) handleTrends(msg *nats.Msg) {
	var request models.TrendRequest
	if len(msg.Data) > 0 {
		if err := json.Unmarshal(msg.Data, &request); err != nil {
			log.Printf("Error parsing trends request: %v", err)
			nt.respondError(msg, "invalid request format")
			return
		}
	}

	ctx, cancel := nt.requestContext()
	defer cancel()

	trends, err := nt.analytics.TrendAnalysis(ctx, request.Months)
	if err != nil {
		log.Printf("Error computing trend analysis: %v", err)
		nt.respondError(msg, "failed to compute trend analysis")
		return
	}

	nt.respond(msg, trends)
}

func (nt *NATSTransport) handleStats(msg *nats.Msg) {
	ctx, cancel := nt.requestContext()
	defer cancel()

	stats, err := nt.analytics.Stats(ctx)
	if err != nil {
		log.Printf("Error computing stats: %v", err)
		nt.respondError(msg, "failed to compute stats")
		return
	}

	nt.respond(msg, stats)
}

func (nt *NATSTransport) requestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), nt.config.NatsTimeout)
}

func (nt *NATSTransport) respond(msg *nats.Msg, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Printf("Error marshaling response: %v", err)
		return
	}
	if err := msg.Respond(data); err != nil {
		log.Printf("Error sending response: %v", err)
	}
}

func (nt *NATSTransport) respondError(msg *nats.Msg, message string) {
	nt.respond(msg, map[string]string{"error": message})
}

func (nt *NATSTransport) Close() error {
	if nt.conn != nil {
		nt.conn.Close()
		log.Println("NATS connection closed")
	}
	return nil
}
