package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"forex-portal-go/internal/models"
)

// NewTicket is the body of POST /support/tickets
type NewTicket struct {
	Subject  string `json:"subject" validate:"required"`
	Category string `json:"category" validate:"required"`
	Priority string `json:"priority,omitempty" validate:"omitempty,oneof=low medium high"`
	Message  string `json:"message" validate:"required"`
}

func (c *Client) ListTickets(ctx context.Context) ([]models.Ticket, error) {
	var tickets []models.Ticket
	if err := c.do(ctx, request{method: http.MethodGet, path: "/support/tickets"}, nil, &tickets); err != nil {
		return nil, fmt.Errorf("unable to list tickets: %w", err)
	}
	return tickets, nil
}

func (c *Client) CreateTicket(ctx context.Context, ticket NewTicket) (*models.Ticket, error) {
	var created models.Ticket
	if err := c.do(ctx, request{method: http.MethodPost, path: "/support/tickets"}, ticket, &created); err != nil {
		return nil, fmt.Errorf("unable to open ticket: %w", err)
	}
	return &created, nil
}

func (c *Client) GetTicket(ctx context.Context, id string) (*models.Ticket, error) {
	var ticket models.Ticket
	r := request{method: http.MethodGet, path: "/support/tickets/" + url.PathEscape(id)}
	if err := c.do(ctx, r, nil, &ticket); err != nil {
		return nil, fmt.Errorf("unable to get ticket %s: %w", id, err)
	}
	return &ticket, nil
}

func (c *Client) ReplyTicket(ctx context.Context, id, message string) (*models.TicketMessage, error) {
	payload := struct {
		Message string `json:"message"`
	}{Message: message}

	var reply models.TicketMessage
	r := request{method: http.MethodPost, path: "/support/tickets/" + url.PathEscape(id) + "/reply"}
	if err := c.do(ctx, r, payload, &reply); err != nil {
		return nil, fmt.Errorf("unable to reply to ticket %s: %w", id, err)
	}
	return &reply, nil
}
