package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/trucoapp/tournament-manager/models"
	"github.com/trucoapp/tournament-manager/repositories"
	"github.com/trucoapp/tournament-manager/utils"
)

const exportVersion = "1.0"

// ExportEnvelope is the backup file format. The version field guards imports
// against files produced by a different format generation.
type ExportEnvelope struct {
	ExportDate time.Time               `json:"exportDate"`
	Version    string                  `json:"version"`
	Data       repositories.BackupData `json:"data"`
}

type ExportService interface {
	// ExportJSON snapshots the five collections into one envelope.
	ExportJSON(ctx context.Context) (*ExportEnvelope, error)
	// ImportJSON replaces the whole dataset with the envelope's contents in
	// a single transaction. A failed import leaves the data untouched.
	ImportJSON(ctx context.Context, payload []byte) error
	// ExportPaymentsCSV renders the payment list for spreadsheets. Dangling
	// references come out as "Desconocido" and "Sin torneo".
	ExportPaymentsCSV(ctx context.Context) ([]byte, error)

	// Per-collection CSV renditions of the remaining registry data.
	ExportPlayersCSV(ctx context.Context) ([]byte, error)
	ExportTournamentsCSV(ctx context.Context) ([]byte, error)
	ExportMatchesCSV(ctx context.Context) ([]byte, error)
	ExportRecordsCSV(ctx context.Context) ([]byte, error)
}

type exportService struct {
	txRunner       TxRunner
	backupRepo     repositories.BackupRepository
	playerRepo     repositories.PlayerRepository
	tournamentRepo repositories.TournamentRepository
	matchRepo      repositories.MatchRepository
	paymentRepo    repositories.PaymentRepository
	recordRepo     repositories.PaymentRecordRepository
}

func NewExportService(
	txRunner TxRunner,
	backupRepo repositories.BackupRepository,
	playerRepo repositories.PlayerRepository,
	tournamentRepo repositories.TournamentRepository,
	matchRepo repositories.MatchRepository,
	paymentRepo repositories.PaymentRepository,
	recordRepo repositories.PaymentRecordRepository,
) ExportService {
	return &exportService{
		txRunner:       txRunner,
		backupRepo:     backupRepo,
		playerRepo:     playerRepo,
		tournamentRepo: tournamentRepo,
		matchRepo:      matchRepo,
		paymentRepo:    paymentRepo,
		recordRepo:     recordRepo,
	}
}

func (s *exportService) ExportJSON(ctx context.Context) (*ExportEnvelope, error) {
	envelope := &ExportEnvelope{
		ExportDate: time.Now(),
		Version:    exportVersion,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		players, err := s.playerRepo.List(gctx)
		if err != nil {
			return fmt.Errorf("failed to export players: %w", err)
		}
		envelope.Data.Players = players
		return nil
	})
	g.Go(func() error {
		tournaments, err := s.tournamentRepo.List(gctx, repositories.ListTournamentsFilter{})
		if err != nil {
			return fmt.Errorf("failed to export tournaments: %w", err)
		}
		for i := range tournaments {
			participants, pErr := s.tournamentRepo.ListParticipants(gctx, tournaments[i].ID)
			if pErr != nil {
				return fmt.Errorf("failed to export participants of tournament %d: %w", tournaments[i].ID, pErr)
			}
			tournaments[i].Participants = participants
		}
		envelope.Data.Tournaments = tournaments
		return nil
	})
	g.Go(func() error {
		matches, err := s.matchRepo.List(gctx, repositories.ListMatchesFilter{})
		if err != nil {
			return fmt.Errorf("failed to export matches: %w", err)
		}
		envelope.Data.Matches = matches
		return nil
	})
	g.Go(func() error {
		payments, err := s.paymentRepo.List(gctx, repositories.ListPaymentsFilter{})
		if err != nil {
			return fmt.Errorf("failed to export payments: %w", err)
		}
		envelope.Data.Payments = payments
		return nil
	})
	g.Go(func() error {
		records, err := s.recordRepo.List(gctx, nil)
		if err != nil {
			return fmt.Errorf("failed to export payment records: %w", err)
		}
		envelope.Data.PaymentRecords = records
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return envelope, nil
}

func (s *exportService) ImportJSON(ctx context.Context, payload []byte) error {
	var envelope ExportEnvelope
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}
	if envelope.Version != exportVersion {
		return fmt.Errorf("%w: unsupported export version %q", ErrValidationFailed, envelope.Version)
	}

	return s.txRunner.RunInTx(ctx, func(exec repositories.SQLExecutor) error {
		return s.backupRepo.ReplaceAll(ctx, exec, &envelope.Data)
	})
}

func (s *exportService) ExportPaymentsCSV(ctx context.Context) ([]byte, error) {
	var (
		payments    []models.Payment
		players     []models.Player
		tournaments []models.Tournament
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		payments, err = s.paymentRepo.List(gctx, repositories.ListPaymentsFilter{})
		return err
	})
	g.Go(func() error {
		var err error
		players, err = s.playerRepo.List(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		tournaments, err = s.tournamentRepo.List(gctx, repositories.ListTournamentsFilter{})
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	playerNames := make(map[int]string, len(players))
	for _, p := range players {
		playerNames[p.ID] = p.Name
	}
	tournamentNames := make(map[int]string, len(tournaments))
	for _, t := range tournaments {
		tournamentNames[t.ID] = t.Name
	}

	rows := [][]string{{"Fecha", "Tipo", "Jugador", "Torneo", "Monto", "Estado", "Notas"}}
	for _, p := range payments {
		playerName := "Desconocido"
		if p.PlayerID != nil {
			if name, ok := playerNames[*p.PlayerID]; ok {
				playerName = name
			}
		}
		tournamentName := "Sin torneo"
		if p.TournamentID != nil {
			if name, ok := tournamentNames[*p.TournamentID]; ok {
				tournamentName = name
			}
		}
		notes := ""
		if p.Notes != nil {
			notes = *p.Notes
		}
		rows = append(rows, []string{
			p.Date.Format("2006-01-02"),
			string(p.Type),
			playerName,
			tournamentName,
			utils.FormatAmountARS(p.Amount),
			string(p.Status),
			notes,
		})
	}
	return renderCSV(rows), nil
}

func (s *exportService) ExportPlayersCSV(ctx context.Context) ([]byte, error) {
	players, err := s.playerRepo.List(ctx)
	if err != nil {
		return nil, err
	}

	rows := [][]string{{"Nombre", "Teléfono", "Email", "Registrado"}}
	for _, p := range players {
		phone := ""
		if p.Phone != nil {
			phone = *p.Phone
		}
		email := ""
		if p.Email != nil {
			email = *p.Email
		}
		rows = append(rows, []string{
			p.Name,
			phone,
			email,
			p.RegisteredAt.Format("2006-01-02"),
		})
	}
	return renderCSV(rows), nil
}

func (s *exportService) ExportTournamentsCSV(ctx context.Context) ([]byte, error) {
	tournaments, err := s.tournamentRepo.List(ctx, repositories.ListTournamentsFilter{})
	if err != nil {
		return nil, err
	}

	rows := [][]string{{"Nombre", "Fecha", "Inscripción", "Premios", "Estado", "Participantes"}}
	for _, t := range tournaments {
		count, countErr := s.tournamentRepo.CountParticipants(ctx, t.ID)
		if countErr != nil {
			return nil, countErr
		}
		rows = append(rows, []string{
			t.Name,
			t.Date.Format("2006-01-02"),
			utils.FormatAmountARS(t.EntryFee),
			utils.FormatAmountARS(t.PrizePool),
			string(t.Status),
			strconv.Itoa(count),
		})
	}
	return renderCSV(rows), nil
}

func (s *exportService) ExportMatchesCSV(ctx context.Context) ([]byte, error) {
	var (
		matches     []models.Match
		players     []models.Player
		tournaments []models.Tournament
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		matches, err = s.matchRepo.List(gctx, repositories.ListMatchesFilter{})
		return err
	})
	g.Go(func() error {
		var err error
		players, err = s.playerRepo.List(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		tournaments, err = s.tournamentRepo.List(gctx, repositories.ListTournamentsFilter{})
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	playerNames := make(map[int]string, len(players))
	for _, p := range players {
		playerNames[p.ID] = p.Name
	}
	tournamentNames := make(map[int]string, len(tournaments))
	for _, t := range tournaments {
		tournamentNames[t.ID] = t.Name
	}
	nameOf := func(id int) string {
		if name, ok := playerNames[id]; ok {
			return name
		}
		return "Desconocido"
	}

	rows := [][]string{{"Fecha", "Torneo", "Jugador 1", "Jugador 2", "Resultado", "Estado"}}
	for _, m := range matches {
		tournamentName := "Sin torneo"
		if name, ok := tournamentNames[m.TournamentID]; ok {
			tournamentName = name
		}
		result := ""
		if m.Player1Score != nil && m.Player2Score != nil {
			result = fmt.Sprintf("%d - %d", *m.Player1Score, *m.Player2Score)
		}
		rows = append(rows, []string{
			m.Date.Format("2006-01-02"),
			tournamentName,
			nameOf(m.Player1ID),
			nameOf(m.Player2ID),
			result,
			string(m.Status),
		})
	}
	return renderCSV(rows), nil
}

func (s *exportService) ExportRecordsCSV(ctx context.Context) ([]byte, error) {
	records, err := s.recordRepo.List(ctx, nil)
	if err != nil {
		return nil, err
	}

	rows := [][]string{{"Fecha", "Ticket", "Jugador", "Torneo", "Monto", "Método", "Estado"}}
	for _, rec := range records {
		method := ""
		if rec.PaymentMethod != nil {
			method = *rec.PaymentMethod
		}
		rows = append(rows, []string{
			rec.SubmittedAt.Format("2006-01-02"),
			rec.TicketID,
			rec.PlayerName,
			rec.TournamentName,
			utils.FormatAmountARS(rec.Amount),
			method,
			string(rec.Status),
		})
	}
	return renderCSV(rows), nil
}

// renderCSV writes every field double-quoted behind a UTF-8 BOM so Excel
// opens the file with accents intact. encoding/csv only quotes when forced
// to, which is why the quoting is done by hand here.
func renderCSV(rows [][]string) []byte {
	var buf bytes.Buffer
	buf.Write([]byte{0xEF, 0xBB, 0xBF})
	for _, row := range rows {
		for i, field := range row {
			if i > 0 {
				buf.WriteByte(',')
			}
			buf.WriteByte('"')
			buf.WriteString(strings.ReplaceAll(field, `"`, `""`))
			buf.WriteByte('"')
		}
		buf.WriteString("\r\n")
	}
	return buf.Bytes()
}
