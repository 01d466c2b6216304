package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"upkeep/config"
	"upkeep/internal/auth"
	"upkeep/internal/service"
	"upkeep/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = (wsPongWait * 9) / 10
)

var attendanceUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// AttendanceGateway is the realtime channel for the attendance workflow: one
// socket per client, authenticate first, then event dispatch. All state
// changes go through the AttendanceService; the gateway only validates,
// relays and broadcasts.
type AttendanceGateway struct {
	cfg               *config.JWTConfig
	hub               *ws.Hub
	presence          *ws.PresenceRegistry
	svc               *service.AttendanceService
	timerSyncInterval time.Duration
}

func NewAttendanceGateway(cfg *config.JWTConfig, hub *ws.Hub, presence *ws.PresenceRegistry, svc *service.AttendanceService, timerSyncInterval time.Duration) *AttendanceGateway {
	return &AttendanceGateway{
		cfg:               cfg,
		hub:               hub,
		presence:          presence,
		svc:               svc,
		timerSyncInterval: timerSyncInterval,
	}
}

// Upgrade accepts the socket and runs the connection's read loop. The
// connection starts anonymous; every event except authenticate is rejected
// until a valid token is presented.
func (g *AttendanceGateway) Upgrade() gin.HandlerFunc {
	return func(c *gin.Context) {
		conn, err := attendanceUpgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		client := &ws.Client{
			Send: make(chan []byte, 256),
		}
		g.hub.Register(client)
		defer func() {
			g.handleDisconnect(client)
			client.Close()
		}()

		conn.SetReadDeadline(time.Now().Add(wsPongWait))
		conn.SetPongHandler(func(string) error {
			conn.SetReadDeadline(time.Now().Add(wsPongWait))
			return nil
		})
		go writePump(client, conn)

		for {
			_, raw, err := conn.ReadMessage()
			if err != nil {
				break
			}
			var env ws.Envelope
			if json.Unmarshal(raw, &env) != nil {
				g.hub.SendToClient(client, ws.Outbound{Event: ws.EvError, Data: ws.BlockedPayload{Reason: "malformed message"}})
				continue
			}
			g.dispatch(client, env)
		}
	}
}

func writePump(c *ws.Client, conn *websocket.Conn) {
	ticker := time.NewTicker(wsPingPeriod)
	defer ticker.Stop()
	for {
		select {
		case msg, ok := <-c.Send:
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, nil)
				return
			}
			conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (g *AttendanceGateway) dispatch(client *ws.Client, env ws.Envelope) {
	if env.Event == ws.EvAuthenticate {
		g.handleAuthenticate(client, env.Data)
		return
	}
	if _, ok := g.presence.Get(client); !ok {
		g.hub.SendToClient(client, ws.Outbound{Event: ws.EvError, Data: ws.BlockedPayload{Reason: "authenticate first"}})
		return
	}
	switch env.Event {
	case ws.EvStartAttendance:
		g.handleStart(client, env.Data)
	case ws.EvTransferAttendance:
		g.handleTransfer(client, env.Data)
	case ws.EvFinishAttendance:
		g.handleFinish(client, env.Data)
	case ws.EvCancelAttendance:
		g.handleCancel(client, env.Data)
	case ws.EvGetActiveAttendances:
		g.sendActiveSnapshot(client)
	default:
		g.hub.SendToClient(client, ws.Outbound{Event: ws.EvError, Data: ws.BlockedPayload{Reason: "unknown event"}})
	}
}

func (g *AttendanceGateway) handleAuthenticate(client *ws.Client, data json.RawMessage) {
	var p ws.AuthenticatePayload
	if json.Unmarshal(data, &p) != nil || p.Token == "" {
		g.hub.SendToClient(client, ws.Outbound{Event: ws.EvError, Data: ws.BlockedPayload{Reason: "token required"}})
		return
	}
	claims, err := auth.ParseAccessToken(g.cfg, p.Token)
	if err != nil {
		g.hub.SendToClient(client, ws.Outbound{Event: ws.EvError, Data: ws.BlockedPayload{Reason: "invalid token"}})
		return
	}
	client.CollaboratorID = claims.CollaboratorID
	client.Name = claims.Name
	client.Role = claims.Role
	g.hub.Reindex(client)
	entry := g.presence.Add(client, claims.CollaboratorID, claims.Name, claims.Role)

	g.hub.SendToClient(client, ws.Outbound{Event: ws.EvAuthenticated, Data: entry})

	// A reconnecting client restores its UI from the resume push instead of
	// re-deriving state.
	if open, err := g.svc.FindByCollaborator(claims.CollaboratorID); err != nil {
		log.Printf("ws: resume lookup for collaborator %d: %v", claims.CollaboratorID, err)
	} else if open != nil {
		g.hub.SendToClient(client, ws.Outbound{Event: ws.EvResumeAttendance, Data: open})
	}

	g.sendActiveSnapshot(client)
	g.sendTimerSnapshot(client)

	g.hub.BroadcastOthers(client, ws.Outbound{
		Event: ws.EvUserConnected,
		Data:  ws.UserPresencePayload{CollaboratorID: claims.CollaboratorID, Name: claims.Name},
	})
}

func (g *AttendanceGateway) handleStart(client *ws.Client, data json.RawMessage) {
	var p ws.StartPayload
	if json.Unmarshal(data, &p) != nil || p.TicketID == 0 {
		g.hub.SendToClient(client, ws.Outbound{Event: ws.EvError, Data: ws.BlockedPayload{Reason: "ticket_id required"}})
		return
	}
	row, err := g.svc.Start(p.TicketID, client.CollaboratorID)
	if err != nil {
		g.replyDomainError(client, err)
		return
	}
	g.hub.SendToClient(client, ws.Outbound{Event: ws.EvAttendanceStarted, Data: row})
	g.hub.BroadcastOthers(client, ws.Outbound{Event: ws.EvUserStartedAttendance, Data: row})
}

func (g *AttendanceGateway) handleTransfer(client *ws.Client, data json.RawMessage) {
	var p ws.TransferPayload
	if json.Unmarshal(data, &p) != nil || p.TicketID == 0 || p.ToCollaboratorID == 0 {
		g.hub.SendToClient(client, ws.Outbound{Event: ws.EvError, Data: ws.BlockedPayload{Reason: "ticket_id and to_collaborator_id required"}})
		return
	}
	// Fail fast before touching the ledger: a transfer to someone who is not
	// connected would strand the ticket.
	if !g.presence.IsOnline(p.ToCollaboratorID) {
		g.hub.SendToClient(client, ws.Outbound{Event: ws.EvAttendanceBlocked, Data: ws.BlockedPayload{Reason: "destination collaborator is not online"}})
		return
	}
	res, err := g.svc.Transfer(p.TicketID, client.CollaboratorID, p.ToCollaboratorID)
	if err != nil {
		g.replyDomainError(client, err)
		return
	}
	g.hub.SendToClient(client, ws.Outbound{Event: ws.EvTransferCompleted, Data: res})
	g.hub.BroadcastToCollaborator(p.ToCollaboratorID, ws.Outbound{
		Event: ws.EvTransferReceived,
		Data: ws.TransferReceivedPayload{
			TicketID:         res.TicketID,
			StartTime:        res.OriginalStartTime,
			PreservedSeconds: res.PreservedSeconds,
			TransferredBy:    client.Name,
			AutoOpen:         true,
		},
	})
	// List views everywhere converge on the new attendant.
	if row, err := g.svc.FindByTicket(p.TicketID); err == nil && row != nil {
		g.hub.BroadcastAll(ws.Outbound{Event: ws.EvUserStartedAttendance, Data: row})
	}
}

func (g *AttendanceGateway) handleFinish(client *ws.Client, data json.RawMessage) {
	var p ws.FinishPayload
	if json.Unmarshal(data, &p) != nil || p.TicketID == 0 {
		g.hub.SendToClient(client, ws.Outbound{Event: ws.EvError, Data: ws.BlockedPayload{Reason: "ticket_id required"}})
		return
	}
	res, err := g.svc.Finish(p.TicketID, p.DetractorID, p.Note)
	if err != nil {
		g.replyDomainError(client, err)
		return
	}
	g.hub.BroadcastAll(ws.Outbound{Event: ws.EvUserFinishedAttendance, Data: res})
}

func (g *AttendanceGateway) handleCancel(client *ws.Client, data json.RawMessage) {
	var p ws.CancelPayload
	if json.Unmarshal(data, &p) != nil || p.TicketID == 0 {
		g.hub.SendToClient(client, ws.Outbound{Event: ws.EvError, Data: ws.BlockedPayload{Reason: "ticket_id required"}})
		return
	}
	cancelled, err := g.svc.Cancel(p.TicketID)
	if err != nil {
		g.replyDomainError(client, err)
		return
	}
	g.hub.SendToClient(client, ws.Outbound{Event: ws.EvAttendanceCancelled, Data: gin.H{
		"ticket_id": p.TicketID,
		"cancelled": cancelled,
	}})
	if cancelled {
		g.hub.BroadcastOthers(client, ws.Outbound{Event: ws.EvUserCancelledAttendance, Data: gin.H{
			"ticket_id":       p.TicketID,
			"collaborator_id": client.CollaboratorID,
		}})
	}
}

func (g *AttendanceGateway) handleDisconnect(client *ws.Client) {
	entry, stillOnline := g.presence.Remove(client)
	if entry.CollaboratorID == 0 || stillOnline {
		return
	}
	// Attendance rows are untouched: disconnection is not cancellation.
	g.hub.BroadcastOthers(client, ws.Outbound{
		Event: ws.EvUserDisconnected,
		Data:  ws.UserPresencePayload{CollaboratorID: entry.CollaboratorID, Name: entry.Name},
	})
}

func (g *AttendanceGateway) sendActiveSnapshot(client *ws.Client) {
	rows, err := g.svc.ListActive()
	if err != nil {
		log.Printf("ws: active snapshot: %v", err)
		return
	}
	g.hub.SendToClient(client, ws.Outbound{Event: ws.EvActiveAttendances, Data: rows})
}

func (g *AttendanceGateway) sendTimerSnapshot(client *ws.Client) {
	snaps, err := g.svc.TimerSnapshots()
	if err != nil {
		log.Printf("ws: timer snapshot: %v", err)
		return
	}
	g.hub.SendToClient(client, ws.Outbound{Event: ws.EvTimersSync, Data: snaps})
}

// replyDomainError maps ledger failures to events for the sender only.
// Conflicts and validation refusals are expected traffic, not system errors.
func (g *AttendanceGateway) replyDomainError(client *ws.Client, err error) {
	var conflict *service.ConflictError
	var validation *service.ValidationError
	switch {
	case errors.As(err, &conflict):
		g.hub.SendToClient(client, ws.Outbound{Event: ws.EvAttendanceBlocked, Data: ws.BlockedPayload{Reason: conflict.Reason}})
	case errors.As(err, &validation):
		g.hub.SendToClient(client, ws.Outbound{Event: ws.EvAttendanceBlocked, Data: ws.BlockedPayload{Reason: validation.Reason}})
	case errors.Is(err, service.ErrNoOpenAttendance), errors.Is(err, service.ErrTicketNotFound):
		g.hub.SendToClient(client, ws.Outbound{Event: ws.EvError, Data: ws.BlockedPayload{Reason: err.Error()}})
	default:
		log.Printf("ws: attendance operation: %v", err)
		g.hub.SendToClient(client, ws.Outbound{Event: ws.EvError, Data: ws.BlockedPayload{Reason: "internal error"}})
	}
}

// RunTimerSync pushes the authoritative elapsed-time snapshot to every
// connected client on a fixed interval. Clients reconcile against this
// instead of trusting incremental events or local clocks.
func (g *AttendanceGateway) RunTimerSync(ctx context.Context) {
	ticker := time.NewTicker(g.timerSyncInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if g.hub.ClientCount() == 0 {
				continue
			}
			snaps, err := g.svc.TimerSnapshots()
			if err != nil {
				log.Printf("ws: timer sync: %v", err)
				continue
			}
			g.hub.BroadcastAll(ws.Outbound{Event: ws.EvTimersSync, Data: snaps})
		}
	}
}
