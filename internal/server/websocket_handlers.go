package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/MeKo-Tech/sigdet/internal/pdf"
	"github.com/MeKo-Tech/sigdet/internal/utils"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Allow connections from any origin in development
		// In production, you should check against allowed origins
		return true
	},
}

// WebSocketRequest is a detection request sent by the client.
type WebSocketRequest struct {
	Type       string  `json:"type"` // "image" or "pdf"
	Image      []byte  `json:"image,omitempty"`
	Filename   string  `json:"filename,omitempty"`
	Pages      string  `json:"pages,omitempty"`
	Confidence float64 `json:"confidence,omitempty"`
	IoU        float64 `json:"iou,omitempty"`
	RequestID  string  `json:"request_id,omitempty"`
}

// WebSocketConnWriter is an interface for writing WebSocket messages.
type WebSocketConnWriter interface {
	WriteMessage(messageType int, data []byte) error
}

// WebSocketResponse is a detection response or progress update.
type WebSocketResponse struct {
	Type      string  `json:"type"`
	Status    string  `json:"status"` // "processing", "page", "completed", "error"
	Progress  float64 `json:"progress,omitempty"`
	Page      int     `json:"page,omitempty"`
	Found     int     `json:"found,omitempty"`
	Result    any     `json:"result,omitempty"`
	Error     string  `json:"error,omitempty"`
	RequestID string  `json:"request_id,omitempty"`
}

// detectWebSocketHandler handles WebSocket connections for streaming
// detection with per-page progress.
func (s *Server) detectWebSocketHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("Failed to upgrade connection to WebSocket", "error", err)
		return
	}
	defer func() { _ = conn.Close() }()

	websocketConnections.Inc()
	defer websocketConnections.Dec()

	slog.Info("WebSocket connection established", "remote_addr", r.RemoteAddr)
	s.handleWebSocketConnection(conn)
}

func (s *Server) handleWebSocketConnection(conn *websocket.Conn) {
	_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	// Ping to keep the connection alive across long documents.
	done := make(chan struct{})
	defer close(done)
	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(10*time.Second)); err != nil {
					return
				}
			case <-done:
				return
			}
		}
	}()

	for {
		messageType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				slog.Error("WebSocket error", "error", err)
			}
			break
		}

		websocketMessagesTotal.WithLabelValues("received").Inc()
		if messageType == websocket.TextMessage {
			s.handleWebSocketMessage(conn, data)
		}
	}
}

func (s *Server) handleWebSocketMessage(conn *websocket.Conn, data []byte) {
	var req WebSocketRequest
	if err := json.Unmarshal(data, &req); err != nil {
		s.sendWebSocketError(conn, "", fmt.Sprintf("invalid request: %v", err))
		return
	}

	switch req.Type {
	case "image":
		s.processWebSocketImage(conn, req)
	case "pdf":
		s.processWebSocketPDF(conn, req)
	default:
		s.sendWebSocketError(conn, req.RequestID, fmt.Sprintf("unknown request type: %q", req.Type))
	}

	_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
}

func (s *Server) processWebSocketImage(conn *websocket.Conn, req WebSocketRequest) {
	if len(req.Image) == 0 {
		s.sendWebSocketError(conn, req.RequestID, "no image data provided")
		return
	}

	img, err := utils.DecodeImageBytes(req.Image)
	if err != nil {
		s.sendWebSocketError(conn, req.RequestID, fmt.Sprintf("failed to decode image: %v", err))
		return
	}

	s.sendWebSocketResponse(conn, WebSocketResponse{
		Type: "detect_response", Status: "processing", RequestID: req.RequestID,
	})

	result, err := s.pipeline.ProcessImageWithThresholds(img, req.Confidence, req.IoU)
	if err != nil {
		detectRequestsTotal.WithLabelValues("websocket_image", "error").Inc()
		s.sendWebSocketError(conn, req.RequestID, fmt.Sprintf("detection failed: %v", err))
		return
	}
	detectRequestsTotal.WithLabelValues("websocket_image", "success").Inc()

	s.sendWebSocketResponse(conn, WebSocketResponse{
		Type: "detect_response", Status: "completed", Progress: 1.0,
		Result: result, RequestID: req.RequestID,
	})
}

func (s *Server) processWebSocketPDF(conn *websocket.Conn, req WebSocketRequest) {
	if req.Filename == "" {
		s.sendWebSocketError(conn, req.RequestID, "no PDF filename provided")
		return
	}

	pages, err := pdf.ParsePageRange(req.Pages)
	if err != nil {
		s.sendWebSocketError(conn, req.RequestID, fmt.Sprintf("invalid page range: %v", err))
		return
	}

	s.sendWebSocketResponse(conn, WebSocketResponse{
		Type: "detect_response", Status: "processing", RequestID: req.RequestID,
	})

	opts := pdf.Options{
		Pages:         pages,
		ConfThreshold: req.Confidence,
		IoUThreshold:  req.IoU,
		OnPage: func(r pdf.PageResult) {
			s.sendWebSocketResponse(conn, WebSocketResponse{
				Type:      "detect_response",
				Status:    "page",
				Page:      r.PageNumber,
				Found:     r.SignatureCount(),
				RequestID: req.RequestID,
			})
		},
	}

	start := time.Now()
	result, err := s.pipeline.ProcessPDF(context.Background(), req.Filename, opts)
	if err != nil {
		detectRequestsTotal.WithLabelValues("websocket_pdf", "error").Inc()
		s.sendWebSocketError(conn, req.RequestID, fmt.Sprintf("PDF detection failed: %v", err))
		return
	}
	detectRequestsTotal.WithLabelValues("websocket_pdf", "success").Inc()
	detectDuration.WithLabelValues("websocket_pdf").Observe(time.Since(start).Seconds())

	s.sendWebSocketResponse(conn, WebSocketResponse{
		Type: "detect_response", Status: "completed", Progress: 1.0,
		Result: result, RequestID: req.RequestID,
	})
}

func (s *Server) sendWebSocketResponse(conn WebSocketConnWriter, response WebSocketResponse) {
	data, err := json.Marshal(response)
	if err != nil {
		slog.Error("Failed to marshal WebSocket response", "error", err)
		return
	}
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		slog.Error("Failed to send WebSocket message", "error", err)
		return
	}
	websocketMessagesTotal.WithLabelValues("sent").Inc()
}

func (s *Server) sendWebSocketError(conn WebSocketConnWriter, requestID, message string) {
	s.sendWebSocketResponse(conn, WebSocketResponse{
		Type:      "detect_response",
		Status:    "error",
		Error:     message,
		RequestID: requestID,
	})
}
