// Package service serializes scoring operations on one session and persists
// the snapshot after every successful mutation.
package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	apperrors "github.com/louisbranch/courtside/internal/platform/errors"
	"github.com/louisbranch/courtside/internal/services/scoring/domain/ledger"
	"github.com/louisbranch/courtside/internal/services/scoring/domain/pairing"
	"github.com/louisbranch/courtside/internal/services/scoring/domain/roster"
	"github.com/louisbranch/courtside/internal/services/scoring/domain/round"
	"github.com/louisbranch/courtside/internal/services/scoring/domain/session"
	"github.com/louisbranch/courtside/internal/services/scoring/domain/settlement"
	"github.com/louisbranch/courtside/internal/services/scoring/storage"
)

const tracerName = "github.com/louisbranch/courtside/internal/services/scoring/service"

// Repository is the persistence the service needs.
type Repository interface {
	Load(ctx context.Context, sessionID string) (session.State, error)
	Save(ctx context.Context, sessionID string, s session.State) (string, error)
}

// Service owns the in-memory state of one session.
type Service struct {
	mu        sync.Mutex
	engine    *session.Engine
	repo      Repository
	sessionID string
	tracer    trace.Tracer

	state    session.State
	revision string
}

// View is the full session as returned to clients.
type View struct {
	SessionID string                           `json:"sessionId"`
	Revision  string                           `json:"revision"`
	Players   []roster.Player                  `json:"players"`
	Boards    map[round.Mode]settlement.Board  `json:"boards"`
	UI        session.UI                       `json:"ui"`
	Layouts   map[round.Mode][]round.Court     `json:"layouts"`
	Standings map[round.Mode][]ledger.Standing `json:"standings"`
}

// LayoutView is the tentative layout of a social mode. Reason explains an
// empty layout.
type LayoutView struct {
	Mode       round.Mode     `json:"mode"`
	CourtCount int            `json:"courtCount"`
	Courts     []round.Court  `json:"courts"`
	Resting    []string       `json:"resting"`
	Reason     apperrors.Code `json:"reason,omitempty"`
}

// RoundResult is what a committed social round returns.
type RoundResult struct {
	Record     round.Record      `json:"record"`
	Delta      ledger.Totals     `json:"delta"`
	Standings  []ledger.Standing `json:"standings"`
	NextLayout LayoutView        `json:"nextLayout"`
}

// Open loads the session from repo. A missing snapshot starts an empty
// session; a malformed one is logged and replaced by an empty session on
// the next save.
func Open(ctx context.Context, repo Repository, engine *session.Engine, sessionID string) (*Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("repository is required")
	}
	if engine == nil {
		return nil, fmt.Errorf("engine is required")
	}
	if err := storage.ValidateSessionID(sessionID); err != nil {
		return nil, err
	}

	state, err := repo.Load(ctx, sessionID)
	switch {
	case err == nil:
	case errors.Is(err, storage.ErrNotFound):
		state = session.New()
	case apperrors.HasCode(err, apperrors.CodeMalformedSnapshot):
		log.Printf("session %s snapshot is unreadable, starting empty: %v", sessionID, err)
		state = session.New()
	default:
		return nil, fmt.Errorf("load session %s: %w", sessionID, err)
	}

	return &Service{
		engine:    engine,
		repo:      repo,
		sessionID: sessionID,
		tracer:    otel.Tracer(tracerName),
		state:     engine.Restore(state),
	}, nil
}

// SessionID returns the id of the served session.
func (s *Service) SessionID() string {
	return s.sessionID
}

// Revision is the content hash of the last saved snapshot, empty until the
// first save.
func (s *Service) Revision() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.revision
}

// Session returns the full session view.
func (s *Service) Session(ctx context.Context) View {
	_, span := s.tracer.Start(ctx, "scoring.Session")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewLocked()
}

// AddPlayer appends a player to the roster.
func (s *Service) AddPlayer(ctx context.Context, name, color string) (roster.Player, error) {
	var player roster.Player
	err := s.mutate(ctx, "scoring.AddPlayer", func(st session.State) (session.State, error) {
		next, p, err := s.engine.AddPlayer(st, name, color)
		player = p
		return next, err
	})
	return player, err
}

// RemovePlayer drops a player from the roster. History is kept.
func (s *Service) RemovePlayer(ctx context.Context, playerID string) error {
	return s.mutate(ctx, "scoring.RemovePlayer", func(st session.State) (session.State, error) {
		return s.engine.RemovePlayer(st, playerID)
	}, attribute.String("player.id", playerID))
}

// PlayerHistory returns every court the player appeared on. Players who left
// the roster are still found while their records exist.
func (s *Service) PlayerHistory(ctx context.Context, playerID string) (session.History, error) {
	_, span := s.tracer.Start(ctx, "scoring.PlayerHistory", trace.WithAttributes(attribute.String("player.id", playerID)))
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()
	h := session.PlayerHistory(s.state, playerID)
	if _, ok := roster.Lookup(s.state.Players, playerID); !ok && len(h.Entries) == 0 {
		return session.History{}, apperrors.WithMetadata(apperrors.CodePlayerNotFound, "player not found", map[string]string{"PlayerID": playerID})
	}
	return h, nil
}

// Standings ranks the roster by total in mode.
func (s *Service) Standings(ctx context.Context, mode round.Mode) ([]ledger.Standing, error) {
	_, span := s.tracer.Start(ctx, "scoring.Standings", trace.WithAttributes(attribute.String("mode", string(mode))))
	defer span.End()

	if _, err := round.ParseMode(string(mode)); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Standings(mode), nil
}

// Layout returns the tentative layout of a social mode.
func (s *Service) Layout(ctx context.Context, mode round.Mode) (LayoutView, error) {
	_, span := s.tracer.Start(ctx, "scoring.Layout", trace.WithAttributes(attribute.String("mode", string(mode))))
	defer span.End()

	if err := requireSocial(mode); err != nil {
		return LayoutView{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return layoutView(s.state, mode), nil
}

// Reshuffle replaces the tentative layout with a fresh one.
func (s *Service) Reshuffle(ctx context.Context, mode round.Mode) (LayoutView, error) {
	if err := requireSocial(mode); err != nil {
		return LayoutView{}, err
	}
	var view LayoutView
	err := s.mutate(ctx, "scoring.Reshuffle", func(st session.State) (session.State, error) {
		next, _, err := s.engine.GenerateLayout(st, mode)
		view = layoutView(next, mode)
		return next, err
	}, attribute.String("mode", string(mode)))
	return view, err
}

// SetCourts changes the requested court count of a social mode.
func (s *Service) SetCourts(ctx context.Context, mode round.Mode, count int) (LayoutView, error) {
	var view LayoutView
	err := s.mutate(ctx, "scoring.SetCourts", func(st session.State) (session.State, error) {
		next, _, err := s.engine.OnCourtCountChanged(st, mode, count)
		view = layoutView(next, mode)
		return next, err
	}, attribute.String("mode", string(mode)), attribute.Int("courts.requested", count))
	return view, err
}

// CommitRound scores the tentative layout and returns the next one. courts
// is the layout as the caller last read it, with scores filled in.
func (s *Service) CommitRound(ctx context.Context, mode round.Mode, courts []round.CourtResult) (RoundResult, error) {
	var result RoundResult
	err := s.mutate(ctx, "scoring.CommitRound", func(st session.State) (session.State, error) {
		next, out, err := s.engine.CommitRound(st, mode, courts)
		if err != nil {
			return st, err
		}
		result = RoundResult{
			Record:     out.Record,
			Delta:      out.Delta,
			Standings:  next.Standings(mode),
			NextLayout: layoutView(next, mode),
		}
		return next, nil
	}, attribute.String("mode", string(mode)), attribute.Int("courts.scored", len(courts)))
	return result, err
}

// CommitMatch records a fixed 2v2 match.
func (s *Service) CommitMatch(ctx context.Context, in session.MatchInput) (round.Record, error) {
	var rec round.Record
	err := s.mutate(ctx, "scoring.CommitMatch", func(st session.State) (session.State, error) {
		next, r, err := s.engine.CommitMatch(st, in)
		rec = r
		return next, err
	}, attribute.String("match.kind", in.Kind))
	return rec, err
}

// ResetTotals clears the totals of mode.
func (s *Service) ResetTotals(ctx context.Context, mode round.Mode) error {
	return s.mutate(ctx, "scoring.ResetTotals", func(st session.State) (session.State, error) {
		return s.engine.ResetTotals(st, mode)
	}, attribute.String("mode", string(mode)))
}

// ClearHistory empties the record list of mode.
func (s *Service) ClearHistory(ctx context.Context, mode round.Mode) error {
	return s.mutate(ctx, "scoring.ClearHistory", func(st session.State) (session.State, error) {
		return s.engine.ClearHistory(st, mode)
	}, attribute.String("mode", string(mode)))
}

// SetActiveTab stores the mode the client last displayed.
func (s *Service) SetActiveTab(ctx context.Context, mode round.Mode) error {
	return s.mutate(ctx, "scoring.SetActiveTab", func(st session.State) (session.State, error) {
		return s.engine.SetActiveTab(st, mode)
	}, attribute.String("mode", string(mode)))
}

// ExportSnapshot returns the encoded snapshot of the current state.
func (s *Service) ExportSnapshot(ctx context.Context) ([]byte, error) {
	_, span := s.tracer.Start(ctx, "scoring.ExportSnapshot")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()
	return storage.EncodeSnapshot(s.state)
}

// ImportSnapshot replaces the whole session with a decoded snapshot.
func (s *Service) ImportSnapshot(ctx context.Context, payload []byte) (View, error) {
	decoded, err := storage.DecodeSnapshot(payload)
	if err != nil {
		return View{}, err
	}
	err = s.mutate(ctx, "scoring.ImportSnapshot", func(session.State) (session.State, error) {
		return s.engine.Restore(decoded), nil
	}, attribute.Int("snapshot.bytes", len(payload)))
	if err != nil {
		return View{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewLocked(), nil
}

// mutate applies op under the lock and saves the result. The in-memory
// state only advances when the save succeeds.
func (s *Service) mutate(ctx context.Context, name string, op func(session.State) (session.State, error), attrs ...attribute.KeyValue) error {
	ctx, span := s.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := op(s.state)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(apperrors.CodeOf(err)))
		return err
	}
	revision, err := s.repo.Save(ctx, s.sessionID, next)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "save failed")
		log.Printf("save session %s: %v", s.sessionID, err)
		return fmt.Errorf("save session: %w", err)
	}
	s.state = next
	s.revision = revision
	return nil
}

func (s *Service) viewLocked() View {
	st := s.state
	view := View{
		SessionID: s.sessionID,
		Revision:  s.revision,
		Players:   st.Players,
		Boards:    make(map[round.Mode]settlement.Board, len(round.Modes)),
		UI:        st.UI,
		Layouts:   map[round.Mode][]round.Court{},
		Standings: make(map[round.Mode][]ledger.Standing, len(round.Modes)),
	}
	for _, mode := range round.Modes {
		view.Boards[mode] = st.Board(mode)
		view.Standings[mode] = st.Standings(mode)
		if mode.Social() {
			view.Layouts[mode] = st.Layout(mode)
		}
	}
	return view
}

func layoutView(st session.State, mode round.Mode) LayoutView {
	courts := st.Layout(mode)
	playing := make(map[string]bool, len(courts)*4)
	for _, c := range courts {
		for _, id := range c.Players() {
			playing[id] = true
		}
	}
	resting := []string{}
	for _, p := range st.Players {
		if !playing[p.ID] {
			resting = append(resting, p.ID)
		}
	}
	view := LayoutView{Mode: mode, CourtCount: st.CourtCount(mode), Courts: courts, Resting: resting}
	if len(st.Players) < pairing.PlayersPerCourt {
		view.Reason = apperrors.CodeInsufficientPlayers
	}
	return view
}

func requireSocial(mode round.Mode) error {
	parsed, err := round.ParseMode(string(mode))
	if err != nil {
		return err
	}
	if !parsed.Social() {
		return apperrors.WithMetadata(apperrors.CodeInvalidMode, "mode is not social", map[string]string{"Mode": string(mode)})
	}
	return nil
}
