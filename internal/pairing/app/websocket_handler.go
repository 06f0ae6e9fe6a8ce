package app

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"pair_chat_service/internal/pairing/domain"
	"pair_chat_service/internal/pairing/repository"
	"pair_chat_service/pkg/logger"
	"pair_chat_service/pkg/middlewares"
	"pair_chat_service/pkg/token"

	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"
)

// PairingWebsocketHandler websocket 進入點, 串起配對/訂閱/評分流程
type PairingWebsocketHandler struct {
	matcher   *MatcherUseCase
	lifecycle *LifecycleUseCase
	hub       *SubscriptionHub
	ratingUC  *RatingUseCase
	userRepo  repository.UserRepository
	msgRepo   repository.MessageRepository
	roomRepo  repository.RoomRepository
	directory *DirectoryCache
	words     *WordDirectory
}

// NewPairingWebsocketHandler create PairingWebsocketHandler
func NewPairingWebsocketHandler(
	matcher *MatcherUseCase,
	lifecycle *LifecycleUseCase,
	hub *SubscriptionHub,
	ratingUC *RatingUseCase,
	userRepo repository.UserRepository,
	msgRepo repository.MessageRepository,
	roomRepo repository.RoomRepository,
	directory *DirectoryCache,
	words *WordDirectory,
) *PairingWebsocketHandler {
	return &PairingWebsocketHandler{
		matcher:   matcher,
		lifecycle: lifecycle,
		hub:       hub,
		ratingUC:  ratingUC,
		userRepo:  userRepo,
		msgRepo:   msgRepo,
		roomRepo:  roomRepo,
		directory: directory,
		words:     words,
	}
}

// connState 一條連線的本地狀態
// 身分可能晚於連線建立才確定 (gate), 同時最多訂閱一個房間
type connState struct {
	uid     string
	gate    *AuthGate
	session *RoomSession
	writeMu sync.Mutex
}

// HandleConnection 是 WebSocket 連線的進入點
func (h *PairingWebsocketHandler) HandleConnection(ctx context.Context, conn *websocket.Conn) {
	state := &connState{gate: NewAuthGate()}

	// token 在 upgrade 前驗過的話, 身分直接確定
	if v, ok := conn.Locals(middlewares.TokenUserID).(string); ok && v != "" {
		state.uid = v
	}
	logger.Log.Info("websocket connected", zap.String("uid", state.uid))

	ticker := time.NewTicker(10 * time.Minute)
	ctxConn, cancel := context.WithCancel(ctx)

	defer func() {
		ticker.Stop()
		if state.session != nil {
			state.session.Cancel()
		}
		logger.Log.Info("websocket close", zap.String("uid", state.uid))
		conn.Close()
		cancel()
	}()

	conn.SetCloseHandler(func(code int, text string) error {
		logger.Log.Infof("WebSocket closed:", conn.RemoteAddr())
		return nil
	})

	conn.SetPongHandler(func(appData string) error {
		return nil
	})

	// 定期發送 Ping
	go func() {
		for {
			select {
			case <-ticker.C:
				if err := conn.WriteMessage(websocket.PingMessage, []byte("ping")); err != nil {
					logger.Log.Errorf("Ping error:", err)
					return
				}
			case <-ctxConn.Done():
				return
			}
		}
	}()

	for {
		mt, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseNoStatusReceived,
			) {
				logger.Log.Infof("Connection closed:", err)
			} else {
				logger.Log.Errorf("websocket read error:", err)
			}
			return
		}
		if mt != websocket.TextMessage {
			h.sendError(conn, state, "unknown message type")
			continue
		}
		h.textMessageAction(ctxConn, conn, state, message)
	}
}

func (h *PairingWebsocketHandler) textMessageAction(ctx context.Context, conn *websocket.Conn, state *connState, msg []byte) {
	var req domain.WSRequest
	if err := json.Unmarshal(msg, &req); err != nil {
		logger.Log.Errorf("json unmarshal error:", err)
		return
	}

	resp := domain.WSResponse{Action: req.Action, Success: false, Payload: map[string]interface{}{}}

	// 身分還沒確定: 除了 auth 以外的動作先押進 gate, 等身分確定後重播
	if state.uid == "" && req.Action != string(domain.Authenticate) {
		raw := msg
		state.gate.Defer(func(ctx context.Context, uid string) {
			h.textMessageAction(ctx, conn, state, raw)
		})
		resp.Success = true
		resp.Payload["deferred"] = true
		h.sendResponse(conn, state, resp)
		return
	}

	switch req.Action {
	// 身分確定, 重播押著的動作
	case string(domain.Authenticate):
		claims, err := token.ParseJWTFunc(req.Token)
		if err != nil {
			resp.Error = "invalid token"
			break
		}
		state.uid = claims.UserID
		resp.Success = true
		resp.Payload["uid"] = claims.UserID
		h.sendResponse(conn, state, resp)
		state.gate.Settle(ctx, claims.UserID)
		return

	// 找一個開著的房或自己開一個, 然後掛上兩條 listener
	case string(domain.FindRoom):
		user, err := h.ensureUser(ctx, state.uid)
		if err != nil {
			resp.Error = err.Error()
			break
		}
		res, err := h.matcher.FindOrCreateSeat(ctx, user)
		if err != nil {
			resp.Error = err.Error()
			break
		}

		// 換房前先拆舊 listener, 避免跨房事件洩漏
		if state.session != nil {
			state.session.Cancel()
			state.session = nil
		}

		sess, err := h.hub.Attach(ctx, res.Room.ID, AttachOptions{
			LocalUID:    state.uid,
			Provisional: res.Created,
		})
		if err != nil {
			// listener 掛不上對這次房間 session 是致命的, caller 重跑配對
			resp.Error = err.Error()
			break
		}
		state.session = sess
		go h.pumpEvents(conn, state, sess)

		resp.Success = true
		resp.Payload["room_id"] = res.Room.ID
		resp.Payload["created"] = res.Created

	case string(domain.SendMessage):
		roomID := h.resolveRoomID(state, req.RoomID)
		if roomID == "" {
			resp.Error = "not in a room"
			break
		}
		msgID, err := h.msgRepo.Insert(ctx, &domain.Message{
			RoomID:  roomID,
			UID:     state.uid,
			Content: req.Content,
		})
		if err != nil {
			resp.Error = err.Error()
			break
		}
		// messageCount 與 activity 更新失敗不影響訊息本身
		if err := h.roomRepo.IncrementMessageCount(ctx, roomID); err != nil {
			logger.Log.Errorf("increment messageCount failed:", err)
		}
		if err := h.userRepo.Touch(ctx, state.uid); err != nil {
			logger.Log.Errorf("touch user failed:", err)
		}
		resp.Success = true
		resp.Payload["message_id"] = msgID

	case string(domain.LeaveRoom):
		roomID := h.resolveRoomID(state, req.RoomID)
		if roomID == "" {
			resp.Error = "not in a room"
			break
		}
		if state.session != nil {
			state.session.Cancel()
			state.session = nil
		}
		if err := h.lifecycle.Leave(ctx, roomID); err != nil && !errors.Is(err, domain.ErrNotFound) {
			resp.Error = err.Error()
			break
		}
		if err := h.userRepo.SetCurrentRoom(ctx, state.uid, ""); err != nil {
			logger.Log.Errorf("clear currentRoomId failed:", err)
		}
		resp.Success = true
		resp.Payload["left_room"] = roomID

	case string(domain.SubmitRating):
		roomID := h.resolveRoomID(state, req.RoomID)
		if roomID == "" {
			resp.Error = "not in a room"
			break
		}
		if err := h.ratingUC.SubmitRating(ctx, roomID, req.Target, req.Feedback); err != nil {
			resp.Error = err.Error()
			break
		}
		resp.Success = true

	case string(domain.GetWords):
		words, err := h.words.Words(ctx)
		if err != nil {
			resp.Error = err.Error()
			break
		}
		resp.Success = true
		resp.Payload["words"] = words

	default:
		h.sendError(conn, state, "unknown action")
		return
	}

	if resp.Error != "" {
		logger.Log.Error("websocket err",
			zap.String("uid", state.uid), zap.String("action", req.Action), zap.String("err", resp.Error))
	}
	h.sendResponse(conn, state, resp)
}

// pumpEvents 把一個房間 session 的對帳事件轉成 push 回前端
func (h *PairingWebsocketHandler) pumpEvents(conn *websocket.Conn, state *connState, sess *RoomSession) {
	for ev := range sess.Events() {
		switch ev.Kind {
		case domain.EventRoom:
			h.sendResponse(conn, state, domain.WSResponse{
				Action:  string(domain.NotifyRoom),
				Success: true,
				Payload: map[string]interface{}{"room": ev.Room},
			})

		case domain.EventMessages:
			h.sendResponse(conn, state, domain.WSResponse{
				Action:  string(domain.NotifyMessages),
				Success: true,
				Payload: map[string]interface{}{
					"messages": ev.Messages,
					"users":    h.directory.Snapshot(),
				},
			})

		case domain.EventReset:
			h.sendResponse(conn, state, domain.WSResponse{
				Action:  string(domain.NotifyReset),
				Success: true,
				Payload: map[string]interface{}{"reason": string(ev.Reason)},
			})
			// reset 後這個 session 已經沒有意義, 讓前端重跑 find_room
			sess.Cancel()
		}
	}
}

// ensureUser profile 不存在視為新 visitor, 建一份預設文件
func (h *PairingWebsocketHandler) ensureUser(ctx context.Context, uid string) (*domain.User, error) {
	user, err := h.userRepo.FindByID(ctx, uid)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	user = &domain.User{UID: uid, CurrentRoomID: ""}
	if err := h.userRepo.Upsert(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (h *PairingWebsocketHandler) resolveRoomID(state *connState, reqRoomID string) string {
	if reqRoomID != "" {
		return reqRoomID
	}
	if state.session != nil {
		return state.session.RoomID
	}
	return ""
}

// sendResponse - 發送 JSON 給前端
func (h *PairingWebsocketHandler) sendResponse(conn *websocket.Conn, state *connState, resp domain.WSResponse) {
	b, _ := json.Marshal(resp)
	state.writeMu.Lock()
	defer state.writeMu.Unlock()
	if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
		logger.Log.Errorf("write message error:", err)
	}
}

func (h *PairingWebsocketHandler) sendError(conn *websocket.Conn, state *connState, errorMsg string) {
	h.sendResponse(conn, state, domain.WSResponse{
		Action:  "error",
		Success: false,
		Payload: map[string]interface{}{"error": errorMsg},
	})
}
