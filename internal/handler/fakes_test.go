package handler

import (
	"context"
	"database/sql"
	"errors"
	"net/http/httptest"
	"sort"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/exam-seating/internal/model"
	"github.com/iliyamo/exam-seating/internal/queue"
	"github.com/iliyamo/exam-seating/internal/repository"
	"github.com/iliyamo/exam-seating/internal/utils"
)

// fakeRooms is an in-memory RoomStore and RoomReader.
type fakeRooms struct {
	next uint64
	defs map[uint64]*model.RoomDefinition
}

func newFakeRooms() *fakeRooms {
	return &fakeRooms{defs: map[uint64]*model.RoomDefinition{}}
}

func cloneDef(d *model.RoomDefinition) *model.RoomDefinition {
	out := *d
	out.Rows = append([]model.RoomRow(nil), d.Rows...)
	out.Roster = append([]model.RosterEntry(nil), d.Roster...)
	out.Pins = append([]model.RoomPin(nil), d.Pins...)
	return &out
}

func (f *fakeRooms) CreateWithDefinition(_ context.Context, def *model.RoomDefinition) error {
	for _, d := range f.defs {
		if d.Room.Code == def.Room.Code {
			return repository.ErrRoomExists
		}
	}
	f.next++
	def.Room.ID = f.next
	f.defs[def.Room.ID] = cloneDef(def)
	return nil
}

func (f *fakeRooms) GetByIDAndOwner(_ context.Context, id, ownerID uint64) (*model.Room, error) {
	d, ok := f.defs[id]
	if !ok || d.Room.OwnerID != ownerID {
		return nil, repository.ErrRoomNotFound
	}
	room := d.Room
	return &room, nil
}

func (f *fakeRooms) UpdateWithRows(_ context.Context, room *model.Room, rows []model.RoomRow) error {
	d, ok := f.defs[room.ID]
	if !ok || d.Room.OwnerID != room.OwnerID {
		return repository.ErrRoomNotFound
	}
	for id, other := range f.defs {
		if id != room.ID && other.Room.Code == room.Code {
			return repository.ErrRoomExists
		}
	}
	d.Room.Code, d.Room.Name = room.Code, room.Name
	if rows != nil {
		d.Rows = append([]model.RoomRow(nil), rows...)
	}
	return nil
}

func (f *fakeRooms) DeleteByIDAndOwner(_ context.Context, id, ownerID uint64) error {
	d, ok := f.defs[id]
	if !ok {
		return sql.ErrNoRows
	}
	if d.Room.OwnerID != ownerID {
		return repository.ErrForbidden
	}
	delete(f.defs, id)
	return nil
}

func (f *fakeRooms) LoadDefinition(_ context.Context, id uint64) (*model.RoomDefinition, error) {
	d, ok := f.defs[id]
	if !ok {
		return nil, repository.ErrRoomNotFound
	}
	return cloneDef(d), nil
}

func (f *fakeRooms) ListAll(context.Context) ([]model.Room, error) {
	var out []model.Room
	for _, d := range f.defs {
		if d.Room.IsActive {
			out = append(out, d.Room)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

type fakeRoster struct{ f *fakeRooms }

func (s fakeRoster) Replace(_ context.Context, roomID uint64, entries []model.RosterEntry) error {
	s.f.defs[roomID].Roster = append([]model.RosterEntry(nil), entries...)
	return nil
}

type fakePins struct{ f *fakeRooms }

func (s fakePins) Replace(_ context.Context, roomID uint64, pins []model.RoomPin) error {
	s.f.defs[roomID].Pins = append([]model.RoomPin(nil), pins...)
	return nil
}

type fakePublisher struct {
	events []queue.SeatingPublishedEvent
	err    error
}

func (p *fakePublisher) PublishSeating(_ context.Context, ev queue.SeatingPublishedEvent) (string, error) {
	if p.err != nil {
		return "", p.err
	}
	p.events = append(p.events, ev)
	return "evt-1", nil
}

// fakeUsers is an in-memory UserStore.
type fakeUsers struct {
	byID map[uint64]model.User
}

func (u *fakeUsers) Create(_ context.Context, email, password, role string, cost int) (uint64, error) {
	for _, existing := range u.byID {
		if existing.Email == email {
			return 0, repository.ErrEmailExists
		}
	}
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	id := uint64(len(u.byID) + 1)
	u.byID[id] = model.User{ID: id, Email: email, PasswordHash: hash, Role: role, IsActive: true}
	return id, nil
}

func (u *fakeUsers) GetByEmail(_ context.Context, email string) (model.User, error) {
	for _, existing := range u.byID {
		if existing.Email == email {
			return existing, nil
		}
	}
	return model.User{}, sql.ErrNoRows
}

func (u *fakeUsers) GetByID(_ context.Context, id uint64) (model.User, error) {
	if existing, ok := u.byID[id]; ok {
		return existing, nil
	}
	return model.User{}, sql.ErrNoRows
}

type storedToken struct {
	userID  uint64
	exp     time.Time
	revoked bool
}

// fakeTokens is an in-memory TokenStore keyed by token hash.
type fakeTokens struct {
	byHash map[string]*storedToken
}

func (t *fakeTokens) StoreRefresh(_ context.Context, userID uint64, hash string, exp time.Time) error {
	t.byHash[hash] = &storedToken{userID: userID, exp: exp}
	return nil
}

func (t *fakeTokens) ValidateRefresh(_ context.Context, hash string) (uint64, error) {
	tok, ok := t.byHash[hash]
	if !ok || tok.revoked || time.Now().After(tok.exp) {
		return 0, sql.ErrNoRows
	}
	return tok.userID, nil
}

func (t *fakeTokens) RevokeByHash(_ context.Context, hash string) error {
	if tok, ok := t.byHash[hash]; ok {
		tok.revoked = true
	}
	return nil
}

func (t *fakeTokens) RevokeAllForUser(_ context.Context, userID uint64) error {
	for _, tok := range t.byHash {
		if tok.userID == userID {
			tok.revoked = true
		}
	}
	return nil
}

var errBroker = errors.New("broker down")

// newCtx builds an echo context for calling a handler directly.  uid 0
// leaves the request anonymous; an empty id sets no :id parameter.
func newCtx(method, target, body string, uid uint64, id string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if uid != 0 {
		c.Set("user_id", uid)
		c.Set("role", model.RoleOwner)
	}
	if id != "" {
		c.SetParamNames("id")
		c.SetParamValues(id)
	}
	return c, rec
}
