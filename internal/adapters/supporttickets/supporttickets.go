// Package supporttickets implements the ports.SupportTickets collaborator
// by persisting escalations to the core platform's support_tickets table.
package supporttickets

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"campotech-ai-engine/internal/ports"
)

// Adapter satisfies ports.SupportTickets against the same connection pool
// the Data-Store adapter uses, writing to a separate table.
type Adapter struct {
	pool *pgxpool.Pool
}

// New builds an Adapter.
func New(pool *pgxpool.Pool) *Adapter {
	return &Adapter{pool: pool}
}

// Report files a support ticket for an escalated conversation.
func (a *Adapter) Report(ctx context.Context, ticket ports.SupportTicket) error {
	contextJSON, err := json.Marshal(ticket.Context)
	if err != nil {
		return fmt.Errorf("marshal support ticket context: %w", err)
	}

	query := `
		INSERT INTO support_tickets (id, type, description, context, created_at)
		VALUES ($1, $2, $3, $4, now())`

	if _, err := a.pool.Exec(ctx, query, uuid.New(), ticket.Type, ticket.Description, contextJSON); err != nil {
		return fmt.Errorf("file support ticket: %w", err)
	}
	return nil
}
