package services

import (
	"bytes"
	"context"
	"crypto/rand"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"time"

	qrcode "github.com/skip2/go-qrcode"

	"github.com/trucoapp/tournament-manager/storage"
)

const (
	ticketIDPrefix       = "TRU"
	ticketIDSuffixLength = 9
	ticketQRSize         = 512
)

const base36Charset = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// Ticket is the self-contained snapshot that travels inside a payment URL.
// No database row exists for it until the player submits the form.
type Ticket struct {
	TicketID       string  `json:"ticket_id"`
	TournamentID   *int    `json:"tournament_id,omitempty"`
	TournamentName string  `json:"tournament_name"`
	Amount         float64 `json:"amount"`
	Date           string  `json:"date"`
	OrganizerName  string  `json:"organizer_name"`

	// Pre-fill fields carried by the registration-linked variant.
	PlayerID    *int   `json:"player_id,omitempty"`
	PlayerName  string `json:"player_name,omitempty"`
	PlayerPhone string `json:"player_phone,omitempty"`
	PlayerEmail string `json:"player_email,omitempty"`
}

// IssuedTicket is what the admin gets back from issuing a QR ticket.
type IssuedTicket struct {
	Ticket     Ticket  `json:"ticket"`
	PaymentURL string  `json:"payment_url"`
	QRImageURL *string `json:"qr_image_url,omitempty"`
}

type TicketService interface {
	GenerateTicketID() string
	BuildPaymentURL(baseURL string, ticket Ticket) string
	BuildRegistrationURL(baseURL string, tournamentID int, tournamentName string) string
	ParseTicketURL(raw string) (*Ticket, error)
	RenderPNG(paymentURL string) ([]byte, error)
	// Issue mints an id, builds the URL, renders the QR and, when an uploader
	// is configured, publishes the PNG so the admin can print or share it.
	Issue(ctx context.Context, baseURL string, ticket Ticket) (*IssuedTicket, error)
}

type ticketService struct {
	uploader storage.FileUploader // nil disables publishing
	logger   *slog.Logger
}

func NewTicketService(uploader storage.FileUploader, logger *slog.Logger) TicketService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ticketService{uploader: uploader, logger: logger}
}

// GenerateTicketID returns ids shaped like TRU-1700000000000-ABC123XYZ.
// The random suffix comes from crypto/rand; real uniqueness is enforced by
// the unique constraint on payment_records.ticket_id at submission time.
func (s *ticketService) GenerateTicketID() string {
	suffix := make([]byte, ticketIDSuffixLength)
	randomBytes := make([]byte, ticketIDSuffixLength)
	if _, err := rand.Read(randomBytes); err != nil {
		// rand.Read failing is effectively unheard of; fall back to a
		// time-derived suffix rather than refusing to issue a ticket.
		for i := range suffix {
			suffix[i] = base36Charset[int(time.Now().UnixNano()>>uint(i))%len(base36Charset)]
		}
	} else {
		for i, b := range randomBytes {
			suffix[i] = base36Charset[int(b)%len(base36Charset)]
		}
	}
	return fmt.Sprintf("%s-%d-%s", ticketIDPrefix, time.Now().UnixMilli(), suffix)
}

func (s *ticketService) BuildPaymentURL(baseURL string, ticket Ticket) string {
	params := url.Values{}
	params.Set("tournament", ticket.TournamentName)
	params.Set("amount", strconv.FormatFloat(ticket.Amount, 'f', -1, 64))
	params.Set("date", ticket.Date)
	params.Set("organizer", ticket.OrganizerName)
	if ticket.TournamentID != nil {
		params.Set("tournamentId", strconv.Itoa(*ticket.TournamentID))
	}
	if ticket.PlayerID != nil {
		params.Set("playerId", strconv.Itoa(*ticket.PlayerID))
	}
	if ticket.PlayerName != "" {
		params.Set("playerName", ticket.PlayerName)
	}
	if ticket.PlayerPhone != "" {
		params.Set("phone", ticket.PlayerPhone)
	}
	if ticket.PlayerEmail != "" {
		params.Set("email", ticket.PlayerEmail)
	}
	return fmt.Sprintf("%s/pagar/%s?%s", strings.TrimSuffix(baseURL, "/"), ticket.TicketID, params.Encode())
}

func (s *ticketService) BuildRegistrationURL(baseURL string, tournamentID int, tournamentName string) string {
	params := url.Values{}
	params.Set("tournamentId", strconv.Itoa(tournamentID))
	params.Set("tournamentName", tournamentName)
	return fmt.Sprintf("%s/registro?%s", strings.TrimSuffix(baseURL, "/"), params.Encode())
}

// ParseTicketURL reconstructs the ticket from a payment URL. The form lives
// on query-string decoding alone: percent escapes and '+' as space are both
// accepted. A missing or unparseable amount silently becomes 0, matching the
// issuing side's fallback.
func (s *ticketService) ParseTicketURL(raw string) (*Ticket, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid ticket url: %w", err)
	}

	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(segments) < 2 || segments[len(segments)-2] != "pagar" || segments[len(segments)-1] == "" {
		return nil, fmt.Errorf("ticket url is missing the /pagar/{ticketId} segment")
	}
	ticketID := segments[len(segments)-1]

	q, err := url.ParseQuery(u.RawQuery)
	if err != nil {
		return nil, fmt.Errorf("invalid ticket url query: %w", err)
	}

	return TicketFromQuery(ticketID, q), nil
}

// TicketFromQuery builds the snapshot from already-decoded query values.
// Shared by the URL parser and the public payment-form handler.
func TicketFromQuery(ticketID string, q url.Values) *Ticket {
	ticket := &Ticket{
		TicketID:       ticketID,
		TournamentName: q.Get("tournament"),
		Date:           q.Get("date"),
		OrganizerName:  q.Get("organizer"),
		PlayerName:     q.Get("playerName"),
		PlayerPhone:    q.Get("phone"),
		PlayerEmail:    q.Get("email"),
	}

	if ticket.TournamentName == "" {
		ticket.TournamentName = "Torneo de Truco"
	}
	if ticket.Date == "" {
		ticket.Date = time.Now().Format("2006-01-02")
	}
	if ticket.OrganizerName == "" {
		ticket.OrganizerName = "Organizador"
	}

	// Silent zero fallback, kept from the original issuing flow.
	if amount, err := strconv.ParseFloat(q.Get("amount"), 64); err == nil {
		ticket.Amount = amount
	}

	if id, err := strconv.Atoi(q.Get("tournamentId")); err == nil && id > 0 {
		ticket.TournamentID = &id
	}
	if id, err := strconv.Atoi(q.Get("playerId")); err == nil && id > 0 {
		ticket.PlayerID = &id
	}

	return ticket
}

// RenderPNG encodes the payment URL at high error correction so the code
// survives print reproduction.
func (s *ticketService) RenderPNG(paymentURL string) ([]byte, error) {
	png, err := qrcode.Encode(paymentURL, qrcode.High, ticketQRSize)
	if err != nil {
		return nil, fmt.Errorf("failed to render ticket qr: %w", err)
	}
	return png, nil
}

func (s *ticketService) Issue(ctx context.Context, baseURL string, ticket Ticket) (*IssuedTicket, error) {
	if ticket.TicketID == "" {
		ticket.TicketID = s.GenerateTicketID()
	}
	if ticket.Date == "" {
		ticket.Date = time.Now().Format("2006-01-02")
	}

	paymentURL := s.BuildPaymentURL(baseURL, ticket)
	issued := &IssuedTicket{Ticket: ticket, PaymentURL: paymentURL}

	if s.uploader == nil {
		return issued, nil
	}

	png, err := s.RenderPNG(paymentURL)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("tickets/boleta-pago-%s.png", ticket.TicketID)
	result, err := s.uploader.Upload(ctx, key, "image/png", bytes.NewReader(png))
	if err != nil {
		// Publishing is a convenience; the URL and local render still work.
		s.logger.Warn("failed to publish ticket qr image",
			slog.String("ticket_id", ticket.TicketID),
			slog.Any("error", err),
		)
		return issued, nil
	}
	issued.QRImageURL = &result.Location
	return issued, nil
}
