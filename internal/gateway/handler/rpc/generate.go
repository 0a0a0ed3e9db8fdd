package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"boron/internal/artifact"
	"boron/internal/gateway/middleware"
	"boron/internal/gateway/service/generate"
)

// GenerateHandler serves the streaming generation endpoint over a
// websocket: one inbound "generate" message per turn, ordered partial
// frames out, a terminal done/decline/error frame per turn.
type GenerateHandler struct {
	svc *generate.Service
}

func NewGenerateHandler(svc *generate.Service) *GenerateHandler {
	return &GenerateHandler{svc: svc}
}

const (
	generateWSWriteWait = 10 * time.Second
	generateWSPongWait  = 60 * time.Second
	generateWSPingEvery = (generateWSPongWait * 9) / 10
)

var generateWSUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin: func(_ *http.Request) bool {
		return true
	},
}

type generateWSInbound struct {
	Type  string `json:"type"`
	Input string `json:"input,omitempty"`
}

type generateWSOutbound struct {
	Type          string          `json:"type"`
	RoomID        string          `json:"roomId,omitempty"`
	Steps         []artifact.Step `json:"steps,omitempty"`
	NewSteps      []int           `json:"newSteps,omitempty"`
	TotalSteps    int             `json:"totalSteps,omitempty"`
	Text          string          `json:"text,omitempty"`
	IsProjectCode *bool           `json:"isProjectCode,omitempty"`
	Raw           json.RawMessage `json:"raw,omitempty"`
	Code          string          `json:"code,omitempty"`
	Message       string          `json:"message,omitempty"`
}

func (h *GenerateHandler) HandleGenerateWS(w http.ResponseWriter, r *http.Request) {
	roomID := strings.TrimSpace(r.URL.Query().Get("room_id"))
	if roomID == "" {
		http.Error(w, "room_id is required", http.StatusBadRequest)
		return
	}
	session, ok := middleware.SessionFrom(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := generateWSUpgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	if err := conn.SetReadDeadline(time.Now().Add(generateWSPongWait)); err != nil {
		log.Printf("generate ws set read deadline failed: %v", err)
		return
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(generateWSPongWait))
	})

	writeCh := make(chan generateWSOutbound, 32)
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		ticker := time.NewTicker(generateWSPingEvery)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case out := <-writeCh:
				if err := conn.SetWriteDeadline(time.Now().Add(generateWSWriteWait)); err != nil {
					return
				}
				if err := conn.WriteJSON(out); err != nil {
					return
				}
			case <-ticker.C:
				if err := conn.SetWriteDeadline(time.Now().Add(generateWSWriteWait)); err != nil {
					return
				}
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			}
		}
	}()

	push := func(out generateWSOutbound) bool {
		if out.RoomID == "" {
			out.RoomID = roomID
		}
		select {
		case writeCh <- out:
			return true
		case <-ctx.Done():
			return false
		}
	}

	for {
		var in generateWSInbound
		if err := conn.ReadJSON(&in); err != nil {
			cancel()
			<-writerDone
			return
		}
		switch strings.ToLower(strings.TrimSpace(in.Type)) {
		case "ping":
			push(generateWSOutbound{Type: "pong"})
		case "generate":
			stream, err := h.svc.Start(ctx, session, roomID, in.Input)
			if err != nil {
				push(generateWSOutbound{
					Type:    "error",
					Code:    startErrCode(err),
					Message: err.Error(),
				})
				continue
			}
			push(generateWSOutbound{Type: "started"})
			// Forward events off the read loop so pongs and inbound
			// pings keep being processed during a long turn.
			go func() {
				for ev := range stream.Events() {
					if !push(mapGenerateEvent(ev)) {
						return
					}
				}
			}()
		default:
			push(generateWSOutbound{
				Type:    "error",
				Code:    "invalid_argument",
				Message: "unsupported type: " + strings.TrimSpace(in.Type),
			})
		}
	}
}

func mapGenerateEvent(ev generate.Event) generateWSOutbound {
	switch ev.Kind {
	case generate.EventPartial:
		return generateWSOutbound{
			Type:       "partial",
			Steps:      ev.Response.Steps,
			NewSteps:   sortedIndices(ev.NewSteps),
			TotalSteps: ev.Response.Metadata.TotalSteps,
		}
	case generate.EventDecline:
		isCode := false
		return generateWSOutbound{
			Type:          "decline",
			Text:          ev.Text,
			IsProjectCode: &isCode,
		}
	case generate.EventDone:
		isCode := true
		return generateWSOutbound{
			Type:          "done",
			Steps:         ev.Response.Steps,
			TotalSteps:    ev.Response.Metadata.TotalSteps,
			IsProjectCode: &isCode,
			Raw:           ev.Raw,
		}
	default:
		return generateWSOutbound{
			Type:    "error",
			Code:    "internal",
			Message: ev.Text,
		}
	}
}

func startErrCode(err error) string {
	switch {
	case errors.Is(err, generate.ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, generate.ErrRoomNotFound):
		return "not_found"
	case errors.Is(err, generate.ErrTurnInFlight):
		return "turn_in_flight"
	case errors.Is(err, generate.ErrEmptyInput):
		return "invalid_argument"
	default:
		return "internal"
	}
}

func sortedIndices(set map[int]struct{}) []int {
	if len(set) == 0 {
		return nil
	}
	out := make([]int, 0, len(set))
	for i := range set {
		out = append(out, i)
	}
	sort.Ints(out)
	return out
}
