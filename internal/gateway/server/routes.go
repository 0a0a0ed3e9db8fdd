package server

import (
	"net/http"

	"boron/internal/gateway/handler"
	"boron/internal/gateway/handler/rpc"
	"boron/internal/gateway/middleware"
)

func NewMux(
	roomsHandler *handler.RoomsHandler,
	templateHandler *handler.TemplateHandler,
	snapshotHandler *handler.SnapshotHandler,
	sandboxHandler *handler.SandboxHandler,
	generateHandler *rpc.GenerateHandler,
	verifier middleware.SessionVerifier,
) http.Handler {
	mux := http.NewServeMux()

	authed := middleware.Session(verifier)

	// REST handlers
	mux.Handle("/api/rooms", authed(http.HandlerFunc(roomsHandler.HandleRooms)))
	mux.Handle("/api/rooms/turns", authed(http.HandlerFunc(roomsHandler.HandleTurns)))
	mux.Handle("/api/template", authed(http.HandlerFunc(templateHandler.HandleTemplate)))
	mux.Handle("/api/snapshot", authed(http.HandlerFunc(snapshotHandler.HandleSnapshot)))
	mux.Handle("/api/sandbox", authed(http.HandlerFunc(sandboxHandler.HandleSandbox)))

	// Streaming generation
	mux.Handle("/ws/generate", authed(http.HandlerFunc(generateHandler.HandleGenerateWS)))

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	// Middleware
	return middleware.CORS(mux)
}
