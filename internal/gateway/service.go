package gateway

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/squadbid/gavel/internal/auction"
	"github.com/squadbid/gavel/internal/events"
	"github.com/squadbid/gavel/internal/roomstore"
	"github.com/squadbid/gavel/internal/timerd"
)

// Config holds gateway configuration.
type Config struct {
	ConnectionConfig ConnectionConfig
	OverlayDuration  time.Duration
}

// DefaultConfig returns the default gateway configuration.
func DefaultConfig() Config {
	return Config{
		ConnectionConfig: DefaultConnectionConfig(),
		OverlayDuration:  timerd.DefaultOverlayDuration,
	}
}

// Service glues the pieces of the gateway together: websocket connections,
// the store subscription that fans room documents out to them, and one timer
// driver per connection (every client independently drives the countdown,
// exactly as the concurrency model requires).
type Service struct {
	app   *auction.App
	store roomstore.Store
	cm    *ConnectionManager
	clock clockwork.Clock
	cfg   Config

	driversMu sync.Mutex
	drivers   map[string]*timerd.Driver // keyed by connection ID

	unsubscribe func()
}

// NewService creates the gateway service.
func NewService(cfg Config, app *auction.App, store roomstore.Store, clock clockwork.Clock) *Service {
	s := &Service{
		app:     app,
		store:   store,
		cm:      NewConnectionManager(cfg.ConnectionConfig),
		clock:   clock,
		cfg:     cfg,
		drivers: make(map[string]*timerd.Driver),
	}
	s.cm.onConnect = s.handleConnect
	s.cm.onDisconnect = s.handleDisconnect
	s.cm.onIntent = s.handleIntent
	return s
}

// Start runs the connection manager and the store subscription until the
// context ends.
func (s *Service) Start(ctx context.Context) error {
	unsub, err := s.store.SubscribeAll(ctx, s.handleRoomEvent)
	if err != nil {
		return err
	}
	s.unsubscribe = unsub

	go s.cm.Start(ctx)

	<-ctx.Done()
	log.Info().Msg("gateway service shutting down")
	s.unsubscribe()
	return nil
}

// Stats exposes connection counts.
func (s *Service) Stats() map[string]interface{} {
	return s.cm.Stats()
}

// handleRoomEvent reacts to one store fan-out: push the snapshot to every
// connection in the room and feed the per-connection timer drivers.
func (s *Service) handleRoomEvent(env events.Envelope) {
	var msg ServerMessage
	switch env.Type {
	case events.TypeRoomUpdated:
		if env.Room == nil {
			return
		}
		msg = ServerMessage{Type: "RoomSnapshot", Room: env.Room}
	case events.TypeRoomDeleted:
		msg = ServerMessage{Type: "RoomDeleted"}
	default:
		return
	}

	data, err := json.Marshal(msg)
	if err != nil {
		log.Error().Err(err).Str("room_id", env.RoomID).Msg("encode server message")
		return
	}
	s.cm.BroadcastToRoom(env.RoomID, data)

	if env.Type != events.TypeRoomUpdated {
		return
	}
	for _, conn := range s.cm.ConnectionsForRoom(env.RoomID) {
		s.driversMu.Lock()
		driver := s.drivers[conn.ID]
		s.driversMu.Unlock()
		if driver != nil {
			driver.Observe(*env.Room)
		}
	}
}

// handleConnect seeds the new connection with the current document and
// starts its countdown driver.
func (s *Service) handleConnect(conn *Connection) {
	driver := timerd.New(conn.RoomID, s.app, s.clock, s.cfg.OverlayDuration)

	s.driversMu.Lock()
	s.drivers[conn.ID] = driver
	s.driversMu.Unlock()

	ctx, cancel := context.WithTimeout(conn.Context(), 5*time.Second)
	defer cancel()
	if r, err := s.store.Get(ctx, conn.RoomID); err == nil {
		driver.Observe(r)
		if data, err := json.Marshal(ServerMessage{Type: "RoomSnapshot", Room: &r}); err == nil {
			s.cm.SendToConnection(conn, data)
		}
	} else {
		log.Warn().Err(err).Str("room_id", conn.RoomID).Msg("initial snapshot read failed")
	}

	go driver.Run(conn.Context())
}

func (s *Service) handleDisconnect(conn *Connection) {
	s.driversMu.Lock()
	delete(s.drivers, conn.ID)
	s.driversMu.Unlock()
}
