// Package store persists rooms, room players, hands, hand players,
// and hand actions to SQLite through database/sql and the
// mattn/go-sqlite3 driver.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/vctt94/holdemcore/pkg/cards"
	"github.com/vctt94/holdemcore/pkg/engine"
)

// Store is the persistence boundary for Rooms, Room Players, Hands,
// Hand Players, and Hand Actions. It holds no business logic:
// callers (pkg/manager) are responsible for validating invariants
// before writing and for the pessimistic locking discipline.
type Store struct {
	db *sql.DB
}

// Open creates dbPath's parent directory if needed and opens (or
// creates) the SQLite database, applying the schema.
func Open(dbPath string) (*Store, error) {
	if dbPath != ":memory:" {
		if dir := filepath.Dir(dbPath); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("store: create db directory: %w", err)
			}
		}
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("store: open: %w", err)
	}
	// SQLite allows only one writer; a single connection turns
	// concurrent callers into a queue instead of a "database is
	// locked" error, which is what pkg/manager's in-process hand/room
	// locks are already assuming.
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS rooms (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			owner_id TEXT NOT NULL,
			max_seats INTEGER NOT NULL,
			small_blind INTEGER NOT NULL,
			big_blind INTEGER NOT NULL,
			min_buy_in INTEGER NOT NULL,
			max_buy_in INTEGER NOT NULL,
			status TEXT NOT NULL,
			invite_code TEXT NOT NULL DEFAULT '',
			auto_start_delay_ms INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_rooms_invite_code
			ON rooms(invite_code) WHERE invite_code != '' AND status != 'CLOSED'`,
		`CREATE TABLE IF NOT EXISTS room_players (
			room_id TEXT NOT NULL,
			user_id TEXT NOT NULL,
			seat INTEGER NOT NULL,
			status TEXT NOT NULL,
			stack INTEGER NOT NULL,
			PRIMARY KEY (room_id, user_id),
			FOREIGN KEY (room_id) REFERENCES rooms(id) ON DELETE CASCADE
		)`,
		`CREATE TABLE IF NOT EXISTS hands (
			id TEXT PRIMARY KEY,
			room_id TEXT NOT NULL,
			hand_number INTEGER NOT NULL,
			dealer_seat INTEGER NOT NULL,
			small_blind INTEGER NOT NULL,
			big_blind INTEGER NOT NULL,
			community_cards TEXT NOT NULL DEFAULT '[]',
			pot_total INTEGER NOT NULL DEFAULT 0,
			state TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL,
			settled_at TIMESTAMP,
			UNIQUE (room_id, hand_number),
			FOREIGN KEY (room_id) REFERENCES rooms(id)
		)`,
		`CREATE TABLE IF NOT EXISTS hand_players (
			hand_id TEXT NOT NULL,
			user_id TEXT NOT NULL,
			seat INTEGER NOT NULL,
			hole_cards TEXT NOT NULL DEFAULT '[]',
			status TEXT NOT NULL,
			bet_total INTEGER NOT NULL DEFAULT 0,
			street_bet INTEGER NOT NULL DEFAULT 0,
			won_amount INTEGER NOT NULL DEFAULT 0,
			best_hand_category TEXT NOT NULL DEFAULT '',
			best_hand_cards TEXT NOT NULL DEFAULT '[]',
			PRIMARY KEY (hand_id, user_id),
			FOREIGN KEY (hand_id) REFERENCES hands(id) ON DELETE CASCADE
		)`,
		`CREATE TABLE IF NOT EXISTS hand_actions (
			hand_id TEXT NOT NULL,
			sequence_num INTEGER NOT NULL,
			user_id TEXT NOT NULL DEFAULT '',
			action_type TEXT NOT NULL,
			amount INTEGER NOT NULL DEFAULT 0,
			hand_state TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL,
			PRIMARY KEY (hand_id, sequence_num),
			FOREIGN KEY (hand_id) REFERENCES hands(id) ON DELETE CASCADE
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("store: migrate: %w", err)
		}
	}
	return nil
}

// --- Rooms -----------------------------------------------------------

// CreateRoom inserts a new room. The caller is responsible for having
// validated the room invariants (blind ratio, buy-in range) beforehand.
func (s *Store) CreateRoom(r *engine.Room) error {
	_, err := s.db.Exec(`
		INSERT INTO rooms (id, name, owner_id, max_seats, small_blind, big_blind,
			min_buy_in, max_buy_in, status, invite_code, auto_start_delay_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		string(r.ID), r.Name, string(r.OwnerID), r.MaxSeats, r.SmallBlind, r.BigBlind,
		r.MinBuyIn, r.MaxBuyIn, string(r.Status), r.InviteCode, r.AutoStartDelay.Milliseconds(), r.CreatedAt)
	if err != nil {
		return fmt.Errorf("store: create room: %w", err)
	}
	return nil
}

// GetRoom loads a room by id.
func (s *Store) GetRoom(id engine.ID) (*engine.Room, error) {
	row := s.db.QueryRow(`
		SELECT id, name, owner_id, max_seats, small_blind, big_blind,
			min_buy_in, max_buy_in, status, invite_code, auto_start_delay_ms, created_at
		FROM rooms WHERE id = ?`, string(id))
	return scanRoom(row)
}

// FindRoomByInviteCode looks up a non-closed room by its case-insensitive
// invite code.
func (s *Store) FindRoomByInviteCode(code string) (*engine.Room, error) {
	row := s.db.QueryRow(`
		SELECT id, name, owner_id, max_seats, small_blind, big_blind,
			min_buy_in, max_buy_in, status, invite_code, auto_start_delay_ms, created_at
		FROM rooms WHERE lower(invite_code) = lower(?) AND status != 'CLOSED'`, code)
	return scanRoom(row)
}

// ListRooms returns every non-closed room.
func (s *Store) ListRooms() ([]*engine.Room, error) {
	rows, err := s.db.Query(`
		SELECT id, name, owner_id, max_seats, small_blind, big_blind,
			min_buy_in, max_buy_in, status, invite_code, auto_start_delay_ms, created_at
		FROM rooms WHERE status != 'CLOSED' ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("store: list rooms: %w", err)
	}
	defer rows.Close()

	var out []*engine.Room
	for rows.Next() {
		r, err := scanRoom(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// SetRoomStatus updates a room's lifecycle status.
func (s *Store) SetRoomStatus(id engine.ID, status engine.RoomStatus) error {
	_, err := s.db.Exec(`UPDATE rooms SET status = ? WHERE id = ?`, string(status), string(id))
	if err != nil {
		return fmt.Errorf("store: set room status: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRoom(row rowScanner) (*engine.Room, error) {
	var r engine.Room
	var status string
	var autoStartMs int64
	if err := row.Scan(&r.ID, &r.Name, &r.OwnerID, &r.MaxSeats, &r.SmallBlind, &r.BigBlind,
		&r.MinBuyIn, &r.MaxBuyIn, &status, &r.InviteCode, &autoStartMs, &r.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, engine.NewError(engine.CodeRoomNotFound, "room not found")
		}
		return nil, fmt.Errorf("store: scan room: %w", err)
	}
	r.Status = engine.RoomStatus(status)
	r.AutoStartDelay = time.Duration(autoStartMs) * time.Millisecond
	return &r, nil
}

// --- Room Players ------------------------------------------------------

// UpsertRoomPlayer inserts or replaces a room player row (join, or an
// update to stack/status).
func (s *Store) UpsertRoomPlayer(p *engine.RoomPlayer) error {
	_, err := s.db.Exec(`
		INSERT INTO room_players (room_id, user_id, seat, status, stack)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(room_id, user_id) DO UPDATE SET
			seat = excluded.seat, status = excluded.status, stack = excluded.stack`,
		string(p.RoomID), string(p.UserID), p.Seat, string(p.Status), p.Stack)
	if err != nil {
		return fmt.Errorf("store: upsert room player: %w", err)
	}
	return nil
}

// ListRoomPlayers returns every room player row for a room, in seat order.
func (s *Store) ListRoomPlayers(roomID engine.ID) ([]*engine.RoomPlayer, error) {
	rows, err := s.db.Query(`
		SELECT room_id, user_id, seat, status, stack FROM room_players
		WHERE room_id = ? ORDER BY seat`, string(roomID))
	if err != nil {
		return nil, fmt.Errorf("store: list room players: %w", err)
	}
	defer rows.Close()

	var out []*engine.RoomPlayer
	for rows.Next() {
		var p engine.RoomPlayer
		var status string
		if err := rows.Scan(&p.RoomID, &p.UserID, &p.Seat, &status, &p.Stack); err != nil {
			return nil, fmt.Errorf("store: scan room player: %w", err)
		}
		p.Status = engine.RoomPlayerStatus(status)
		out = append(out, &p)
	}
	return out, rows.Err()
}

// GetRoomPlayer loads one room player row, or nil if absent.
func (s *Store) GetRoomPlayer(roomID, userID engine.ID) (*engine.RoomPlayer, error) {
	row := s.db.QueryRow(`
		SELECT room_id, user_id, seat, status, stack FROM room_players
		WHERE room_id = ? AND user_id = ?`, string(roomID), string(userID))
	var p engine.RoomPlayer
	var status string
	if err := row.Scan(&p.RoomID, &p.UserID, &p.Seat, &status, &p.Stack); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("store: get room player: %w", err)
	}
	p.Status = engine.RoomPlayerStatus(status)
	return &p, nil
}

// CreditRoomPlayerStacks adds each delta to the named user's stack at
// roomID, used at settlement inside the same
// transaction as marking the hand SETTLEMENT.
func (s *Store) CreditRoomPlayerStacks(tx *sql.Tx, roomID engine.ID, deltas map[engine.ID]int64) error {
	stmt, err := tx.Prepare(`UPDATE room_players SET stack = stack + ? WHERE room_id = ? AND user_id = ?`)
	if err != nil {
		return fmt.Errorf("store: prepare credit stacks: %w", err)
	}
	defer stmt.Close()
	for userID, delta := range deltas {
		if delta == 0 {
			continue
		}
		if _, err := stmt.Exec(delta, string(roomID), string(userID)); err != nil {
			return fmt.Errorf("store: credit stack for %s: %w", userID, err)
		}
	}
	return nil
}

// SetRoomPlayerStatus updates a room player's status (e.g. to
// SITTING_OUT when a stack hits zero at settlement, or LEFT on leave).
func (s *Store) SetRoomPlayerStatus(tx *sql.Tx, roomID, userID engine.ID, status engine.RoomPlayerStatus) error {
	_, err := tx.Exec(`UPDATE room_players SET status = ? WHERE room_id = ? AND user_id = ?`,
		string(status), string(roomID), string(userID))
	if err != nil {
		return fmt.Errorf("store: set room player status: %w", err)
	}
	return nil
}

// Begin starts a raw transaction, for callers (pkg/manager) that need
// to span multiple store calls atomically (e.g. LeaveRoom marking a
// room player LEFT through SetRoomPlayerStatus).
func (s *Store) Begin() (*sql.Tx, error) {
	return s.db.Begin()
}

// --- Hands ---------------------------------------------------------------

// NextHandNumber returns maxPrev+1 for a room, 1 if the room has no
// prior hands. Callers must hold the room's in-process lock.
func (s *Store) NextHandNumber(roomID engine.ID) (int64, error) {
	var max sql.NullInt64
	err := s.db.QueryRow(`SELECT MAX(hand_number) FROM hands WHERE room_id = ?`, string(roomID)).Scan(&max)
	if err != nil {
		return 0, fmt.Errorf("store: next hand number: %w", err)
	}
	if !max.Valid {
		return 1, nil
	}
	return max.Int64 + 1, nil
}

// CreateHand atomically persists a newly-started hand: the hand row,
// every hand player row, and the blind-post hand actions.
func (s *Store) CreateHand(h *engine.Hand, players []*engine.HandPlayer, actions []*engine.HandAction) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("store: create hand: begin: %w", err)
	}
	defer tx.Rollback()

	if err := insertHand(tx, h); err != nil {
		return err
	}
	for _, p := range players {
		if err := insertHandPlayer(tx, p); err != nil {
			return err
		}
	}
	for _, a := range actions {
		if err := insertHandAction(tx, a); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func insertHand(tx *sql.Tx, h *engine.Hand) error {
	communityJSON, err := json.Marshal(cards.Codes(h.CommunityCards))
	if err != nil {
		return fmt.Errorf("store: marshal community cards: %w", err)
	}
	_, err = tx.Exec(`
		INSERT INTO hands (id, room_id, hand_number, dealer_seat, small_blind, big_blind,
			community_cards, pot_total, state, created_at, settled_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			community_cards = excluded.community_cards, pot_total = excluded.pot_total,
			state = excluded.state, settled_at = excluded.settled_at`,
		string(h.ID), string(h.RoomID), h.HandNumber, h.DealerSeat, h.SmallBlind, h.BigBlind,
		string(communityJSON), h.PotTotal, string(h.State), h.CreatedAt, nullableTime(h.SettledAt))
	if err != nil {
		return fmt.Errorf("store: insert hand: %w", err)
	}
	return nil
}

func insertHandPlayer(tx *sql.Tx, p *engine.HandPlayer) error {
	holeJSON, err := json.Marshal(cards.Codes(p.HoleCards[:]))
	if err != nil {
		return fmt.Errorf("store: marshal hole cards: %w", err)
	}
	bestJSON, err := json.Marshal(cards.Codes(p.BestHandCards))
	if err != nil {
		return fmt.Errorf("store: marshal best hand cards: %w", err)
	}
	_, err = tx.Exec(`
		INSERT INTO hand_players (hand_id, user_id, seat, hole_cards, status, bet_total,
			street_bet, won_amount, best_hand_category, best_hand_cards)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(hand_id, user_id) DO UPDATE SET
			status = excluded.status, bet_total = excluded.bet_total,
			street_bet = excluded.street_bet, won_amount = excluded.won_amount,
			best_hand_category = excluded.best_hand_category, best_hand_cards = excluded.best_hand_cards`,
		string(p.HandID), string(p.UserID), p.Seat, string(holeJSON), string(p.Status), p.BetTotal,
		p.StreetBet, p.WonAmount, p.BestHandCategory, string(bestJSON))
	if err != nil {
		return fmt.Errorf("store: insert hand player: %w", err)
	}
	return nil
}

func insertHandAction(tx *sql.Tx, a *engine.HandAction) error {
	_, err := tx.Exec(`
		INSERT INTO hand_actions (hand_id, sequence_num, user_id, action_type, amount, hand_state, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		string(a.HandID), a.SequenceNum, string(a.UserID), string(a.ActionType), a.Amount, string(a.HandState), a.CreatedAt)
	if err != nil {
		return fmt.Errorf("store: insert hand action: %w", err)
	}
	return nil
}

// SaveHandProgress atomically persists the effect of one processAction
// call: the hand row, every hand player row, and any newly appended
// hand actions, all in one transaction.
// If settleDeltas is non-nil the room players named in it are credited
// in the same transaction (settlement).
func (s *Store) SaveHandProgress(h *engine.Hand, players []*engine.HandPlayer, newActions []*engine.HandAction, settleDeltas map[engine.ID]int64, sittingOut []engine.ID) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("store: save hand progress: begin: %w", err)
	}
	defer tx.Rollback()

	if err := insertHand(tx, h); err != nil {
		return err
	}
	for _, p := range players {
		if err := insertHandPlayer(tx, p); err != nil {
			return err
		}
	}
	for _, a := range newActions {
		if err := insertHandAction(tx, a); err != nil {
			return err
		}
	}
	if settleDeltas != nil {
		if err := s.CreditRoomPlayerStacks(tx, h.RoomID, settleDeltas); err != nil {
			return err
		}
		for _, userID := range sittingOut {
			if err := s.SetRoomPlayerStatus(tx, h.RoomID, userID, engine.RoomPlayerSittingOut); err != nil {
				return err
			}
		}
	}
	return tx.Commit()
}

// GetHand loads a hand by id.
func (s *Store) GetHand(id engine.ID) (*engine.Hand, error) {
	row := s.db.QueryRow(`
		SELECT id, room_id, hand_number, dealer_seat, small_blind, big_blind,
			community_cards, pot_total, state, created_at, settled_at
		FROM hands WHERE id = ?`, string(id))
	return scanHand(row)
}

// LatestHandForRoom returns the most recently created hand for a room,
// or nil if the room has never had a hand.
func (s *Store) LatestHandForRoom(roomID engine.ID) (*engine.Hand, error) {
	row := s.db.QueryRow(`
		SELECT id, room_id, hand_number, dealer_seat, small_blind, big_blind,
			community_cards, pot_total, state, created_at, settled_at
		FROM hands WHERE room_id = ? ORDER BY hand_number DESC LIMIT 1`, string(roomID))
	h, err := scanHand(row)
	if err != nil {
		if engine.CodeOf(err) == engine.CodeHandNotFound {
			return nil, nil
		}
		return nil, err
	}
	return h, nil
}

func scanHand(row rowScanner) (*engine.Hand, error) {
	var h engine.Hand
	var state, communityJSON string
	var settledAt sql.NullTime
	if err := row.Scan(&h.ID, &h.RoomID, &h.HandNumber, &h.DealerSeat, &h.SmallBlind, &h.BigBlind,
		&communityJSON, &h.PotTotal, &state, &h.CreatedAt, &settledAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, engine.NewError(engine.CodeHandNotFound, "hand not found")
		}
		return nil, fmt.Errorf("store: scan hand: %w", err)
	}
	h.State = engine.HandState(state)
	if settledAt.Valid {
		h.SettledAt = settledAt.Time
	}
	var codes []string
	if err := json.Unmarshal([]byte(communityJSON), &codes); err != nil {
		return nil, fmt.Errorf("store: unmarshal community cards: %w", err)
	}
	communityCards, err := parseCodes(codes)
	if err != nil {
		return nil, err
	}
	h.CommunityCards = communityCards
	return &h, nil
}

func parseCodes(codes []string) ([]cards.Card, error) {
	out := make([]cards.Card, len(codes))
	for i, c := range codes {
		card, err := cards.ParseCode(c)
		if err != nil {
			return nil, fmt.Errorf("store: parse card code %q: %w", c, err)
		}
		out[i] = card
	}
	return out, nil
}

// ListHandPlayers returns every hand player row for a hand, in seat order.
func (s *Store) ListHandPlayers(handID engine.ID) ([]*engine.HandPlayer, error) {
	rows, err := s.db.Query(`
		SELECT hand_id, user_id, seat, hole_cards, status, bet_total, street_bet,
			won_amount, best_hand_category, best_hand_cards
		FROM hand_players WHERE hand_id = ? ORDER BY seat`, string(handID))
	if err != nil {
		return nil, fmt.Errorf("store: list hand players: %w", err)
	}
	defer rows.Close()

	var out []*engine.HandPlayer
	for rows.Next() {
		p, err := scanHandPlayer(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func scanHandPlayer(row rowScanner) (*engine.HandPlayer, error) {
	var p engine.HandPlayer
	var status, holeJSON, bestJSON string
	if err := row.Scan(&p.HandID, &p.UserID, &p.Seat, &holeJSON, &status, &p.BetTotal, &p.StreetBet,
		&p.WonAmount, &p.BestHandCategory, &bestJSON); err != nil {
		return nil, fmt.Errorf("store: scan hand player: %w", err)
	}
	p.Status = engine.HandPlayerStatus(status)

	var holeCodes []string
	if err := json.Unmarshal([]byte(holeJSON), &holeCodes); err != nil {
		return nil, fmt.Errorf("store: unmarshal hole cards: %w", err)
	}
	holeCards, err := parseCodes(holeCodes)
	if err != nil {
		return nil, err
	}
	copy(p.HoleCards[:], holeCards)

	var bestCodes []string
	if err := json.Unmarshal([]byte(bestJSON), &bestCodes); err != nil {
		return nil, fmt.Errorf("store: unmarshal best hand cards: %w", err)
	}
	best, err := parseCodes(bestCodes)
	if err != nil {
		return nil, err
	}
	p.BestHandCards = best

	return &p, nil
}

// ListHandActions returns a hand's append-only action log, ordered by
// sequenceNum.
func (s *Store) ListHandActions(handID engine.ID) ([]*engine.HandAction, error) {
	rows, err := s.db.Query(`
		SELECT hand_id, sequence_num, user_id, action_type, amount, hand_state, created_at
		FROM hand_actions WHERE hand_id = ? ORDER BY sequence_num`, string(handID))
	if err != nil {
		return nil, fmt.Errorf("store: list hand actions: %w", err)
	}
	defer rows.Close()

	var out []*engine.HandAction
	for rows.Next() {
		var a engine.HandAction
		var actionType, handState string
		if err := rows.Scan(&a.HandID, &a.SequenceNum, &a.UserID, &actionType, &a.Amount, &handState, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("store: scan hand action: %w", err)
		}
		a.ActionType = engine.ActionType(actionType)
		a.HandState = engine.HandState(handState)
		out = append(out, &a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SequenceNum < out[j].SequenceNum })
	return out, rows.Err()
}

// LastSequenceNum returns the highest sequenceNum recorded for a hand,
// 0 if it has none yet.
func (s *Store) LastSequenceNum(handID engine.ID) (int64, error) {
	var max sql.NullInt64
	err := s.db.QueryRow(`SELECT MAX(sequence_num) FROM hand_actions WHERE hand_id = ?`, string(handID)).Scan(&max)
	if err != nil {
		return 0, fmt.Errorf("store: last sequence num: %w", err)
	}
	if !max.Valid {
		return 0, nil
	}
	return max.Int64, nil
}

func nullableTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}
