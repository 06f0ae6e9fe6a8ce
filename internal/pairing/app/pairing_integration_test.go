package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"sync"
	"testing"
	"time"

	"pair_chat_service/internal/pairing/domain"
	"pair_chat_service/internal/pairing/repository"
	"pair_chat_service/pkg/database"
	"pair_chat_service/pkg/logger"
	"pair_chat_service/pkg/middlewares"
	"pair_chat_service/pkg/token"
	testtool "pair_chat_service/pkg/test_tool"

	"github.com/go-redis/redis/v8"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	gws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// **測試用的容器**
var mongoContainer testcontainers.Container
var redisContainer testcontainers.Container
var pairingApp *fiber.App
var pairingHandler *PairingWebsocketHandler
var testMongo *database.MongoDB

// **TestMain 初始化測試環境**
func TestMain(m *testing.M) {
	ctx := context.Background()
	logger.SetNewNop()
	var err error

	// **啟動 MongoDB**
	mongoContainer, mongoHost, mongoPort, err := testtool.SetupContainer(ctx, testcontainers.ContainerRequest{
		Image:        "mongo:latest",
		ExposedPorts: []string{"27017/tcp"},
		WaitingFor:   wait.ForListeningPort("27017/tcp"),
	})
	if err != nil {
		log.Printf("Failed to start MongoDB container, skipping integration tests: %v", err)
		os.Exit(0)
	}
	fmt.Printf("MongoDB running at %s:%s\n", mongoHost, mongoPort)

	// **啟動 Redis**
	redisContainer, redisHost, redisPort, err := testtool.SetupContainer(ctx, testcontainers.ContainerRequest{
		Image:        "redis:latest",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp"),
	})
	if err != nil {
		log.Printf("Failed to start Redis container, skipping integration tests: %v", err)
		_ = mongoContainer.Terminate(ctx)
		os.Exit(0)
	}
	fmt.Printf("Redis running at %s:%s\n", redisHost, redisPort)

	// **初始化 MongoDB**
	mongo, err := database.NewMongoDB(ctx, database.Connection{
		ConnectStr:    fmt.Sprintf("mongodb://%s:%s", mongoHost, mongoPort),
		RetryCount:    5,
		RetryInterval: 5,
	}, "test_pairing_db")
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer mongo.Close(ctx)
	testMongo = mongo

	// **初始化 Redis**
	redisClient := redis.NewClient(&redis.Options{
		Addr: fmt.Sprintf("%s:%s", redisHost, redisPort),
		DB:   0,
	})

	// **初始化 Repository**
	pubsub := repository.NewRedisPubSub(redisClient)
	roomRepo := repository.NewMongoRoomRepository(mongo.Database, pubsub)
	msgRepo := repository.NewMongoMessageRepository(mongo.Database, pubsub)
	userRepo := repository.NewMongoUserRepository(mongo.Database)
	wordRepo := repository.NewMongoWordRepository(mongo.Database)

	// **初始化 UseCases**
	lifecycleUC := NewLifecycleUseCase(roomRepo, msgRepo)
	matcherUC := NewMatcherUseCase(roomRepo, userRepo, lifecycleUC)
	directory := NewDirectoryCache(userRepo)
	hub := NewSubscriptionHub(pubsub, roomRepo, msgRepo, userRepo, directory)
	ratingUC := NewRatingUseCase(userRepo, msgRepo)
	words := NewWordDirectory(wordRepo)

	// **初始化 Fiber WebSocket Server**
	pairingHandler = NewPairingWebsocketHandler(
		matcherUC, lifecycleUC, hub, ratingUC,
		userRepo, msgRepo, roomRepo, directory, words,
	)

	pairingApp = fiber.New()
	pairingApp.Use("/ws", middlewares.OptionalJWTMiddleware())
	pairingApp.Get("/ws", websocket.New(func(c *websocket.Conn) {
		pairingHandler.HandleConnection(context.Background(), c)
	}))

	// **啟動 WebSocket Server**
	go func() {
		err := pairingApp.Listen(":8082")
		if err != nil {
			log.Fatalf("Failed to start WebSocket server: %v", err)
		}
	}()

	// **等待 WebSocket Server 啟動**
	time.Sleep(5 * time.Second)

	// **執行測試**
	code := m.Run()

	// **清理測試環境**
	_ = mongoContainer.Terminate(ctx)
	_ = redisContainer.Terminate(ctx)
	pairingApp.Shutdown()

	os.Exit(code)
}

func dialWS(t *testing.T, uid string) *gws.Conn {
	t.Helper()
	jwtToken, err := token.GenerateJWT(uid, string(token.RoleUser), "pairing_service_test")
	assert.NoError(t, err)

	wsURL := fmt.Sprintf("ws://127.0.0.1:8082/ws?%s=%s", middlewares.QueryToken, jwtToken)
	conn, _, err := gws.DefaultDialer.Dial(wsURL, nil)
	assert.NoError(t, err, "WebSocket 連線失敗")
	return conn
}

func readResponse(t *testing.T, conn *gws.Conn) domain.WSResponse {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(10 * time.Second))
	_, raw, err := conn.ReadMessage()
	assert.NoError(t, err, "接收訊息失敗")

	var resp domain.WSResponse
	assert.NoError(t, json.Unmarshal(raw, &resp))
	return resp
}

// readAction 丟掉 push 通知直到看到指定 action 的回應
func readAction(t *testing.T, conn *gws.Conn, action string) domain.WSResponse {
	t.Helper()
	for i := 0; i < 10; i++ {
		resp := readResponse(t, conn)
		if resp.Action == action {
			return resp
		}
	}
	t.Fatalf("no response for action %s", action)
	return domain.WSResponse{}
}

// 兩個 visitor 先後 find_room, 第二個應該進同一間房
func TestFindRoomPairsTwoVisitors(t *testing.T) {
	connA := dialWS(t, "it-user-a")
	defer connA.Close()
	connB := dialWS(t, "it-user-b")
	defer connB.Close()

	err := connA.WriteMessage(gws.TextMessage, []byte(`{"action": "find_room"}`))
	assert.NoError(t, err)
	respA := readAction(t, connA, "find_room")
	assert.True(t, respA.Success)
	roomA := respA.Payload["room_id"].(string)
	assert.NotEmpty(t, roomA)

	err = connB.WriteMessage(gws.TextMessage, []byte(`{"action": "find_room"}`))
	assert.NoError(t, err)
	respB := readAction(t, connB, "find_room")
	assert.True(t, respB.Success)
	assert.Equal(t, roomA, respB.Payload["room_id"])
	assert.Equal(t, false, respB.Payload["created"])
}

// 發送訊息後雙方都收到 notify_messages 推播
func TestSendMessageNotifiesRoom(t *testing.T) {
	connA := dialWS(t, "it-msg-a")
	defer connA.Close()
	connB := dialWS(t, "it-msg-b")
	defer connB.Close()

	assert.NoError(t, connA.WriteMessage(gws.TextMessage, []byte(`{"action": "find_room"}`)))
	readAction(t, connA, "find_room")
	assert.NoError(t, connB.WriteMessage(gws.TextMessage, []byte(`{"action": "find_room"}`)))
	readAction(t, connB, "find_room")

	assert.NoError(t, connA.WriteMessage(gws.TextMessage,
		[]byte(`{"action": "send_message", "content": "hello from a"}`)))
	resp := readAction(t, connA, "send_message")
	assert.True(t, resp.Success)

	notify := readAction(t, connB, "notify_messages")
	assert.True(t, notify.Success)
}

// 最後一人離開後房間退役, 不會再被配對
func TestLeaveRoomRetires(t *testing.T) {
	conn := dialWS(t, "it-leave-a")
	defer conn.Close()

	assert.NoError(t, conn.WriteMessage(gws.TextMessage, []byte(`{"action": "find_room"}`)))
	resp := readAction(t, conn, "find_room")
	roomID := resp.Payload["room_id"].(string)

	assert.NoError(t, conn.WriteMessage(gws.TextMessage, []byte(`{"action": "leave_room"}`)))
	resp = readAction(t, conn, "leave_room")
	assert.True(t, resp.Success)
	assert.Equal(t, roomID, resp.Payload["left_room"])
}

// 匿名連線先送動作, auth 之後重播
func TestDeferredActionReplaysAfterAuth(t *testing.T) {
	conn, _, err := gws.DefaultDialer.Dial("ws://127.0.0.1:8082/ws", nil)
	assert.NoError(t, err, "WebSocket 連線失敗")
	defer conn.Close()

	// 還沒 auth, 動作被押著
	assert.NoError(t, conn.WriteMessage(gws.TextMessage, []byte(`{"action": "find_room"}`)))
	resp := readAction(t, conn, "find_room")
	assert.True(t, resp.Success)
	assert.Equal(t, true, resp.Payload["deferred"])

	jwtToken, err := token.GenerateJWT("it-deferred-a", string(token.RoleUser), "pairing_service_test")
	assert.NoError(t, err)
	authReq := fmt.Sprintf(`{"action": "auth", "token": "%s"}`, jwtToken)
	assert.NoError(t, conn.WriteMessage(gws.TextMessage, []byte(authReq)))

	resp = readAction(t, conn, "auth")
	assert.True(t, resp.Success)

	// 重播的 find_room 結果
	resp = readAction(t, conn, "find_room")
	assert.True(t, resp.Success)
	assert.NotEmpty(t, resp.Payload["room_id"])
}

// 沒有進房也沒帶 room_id 的 submit_rating 要被拒絕
func TestSubmitRatingWithoutRoomRejected(t *testing.T) {
	conn := dialWS(t, "it-rate-a")
	defer conn.Close()

	assert.NoError(t, conn.WriteMessage(gws.TextMessage,
		[]byte(`{"action": "submit_rating", "target": "it-rate-b", "feedback": 1}`)))
	resp := readAction(t, conn, "submit_rating")
	assert.False(t, resp.Success)
	assert.Equal(t, "not in a room", resp.Error)
}

// 候選排序: exposeCount 最小優先, 同分取 timestamp 較早者
// 直接打 mongo, 用獨立 database 避免其他測試留下的房間
func TestFindOpenCandidateFairnessOrdering(t *testing.T) {
	ctx := context.Background()
	roomRepo := repository.NewMongoRoomRepository(testMongo.Client.Database("test_fairness_db"), nil)

	base := time.Now().UnixMilli()
	_, err := roomRepo.CreateRoom(ctx, &domain.Room{
		Name: "seen-often", Timestamp: base - 3000, UserCount: 1, ExposeCount: 3, Open: true,
	})
	assert.NoError(t, err)
	wantID, err := roomRepo.CreateRoom(ctx, &domain.Room{
		Name: "fresh-early", Timestamp: base - 2000, UserCount: 1, ExposeCount: 1, Open: true,
	})
	assert.NoError(t, err)
	_, err = roomRepo.CreateRoom(ctx, &domain.Room{
		Name: "fresh-late", Timestamp: base - 1000, UserCount: 1, ExposeCount: 1, Open: true,
	})
	assert.NoError(t, err)

	candidate, err := roomRepo.FindOpenCandidate(ctx)
	assert.NoError(t, err)
	assert.Equal(t, wantID, candidate.ID)
	assert.Equal(t, 1, candidate.ExposeCount)
}

// 兩個 matcher 同時在空房表上配對:
// 要嘛共用一間房且兩個座位都佔走, 要嘛各自開房各佔一個座位;
// 不允許兩邊都以為自己是同一間房的唯一住客
func TestConcurrentMatchersShareOrSplitCleanly(t *testing.T) {
	ctx := context.Background()
	db := testMongo.Client.Database("test_matcher_race_db")
	roomRepo := repository.NewMongoRoomRepository(db, nil)
	msgRepo := repository.NewMongoMessageRepository(db, nil)
	userRepo := repository.NewMongoUserRepository(db)
	lifecycle := NewLifecycleUseCase(roomRepo, msgRepo)
	matcher := NewMatcherUseCase(roomRepo, userRepo, lifecycle)

	type outcome struct {
		res *MatchResult
		err error
	}
	results := make([]outcome, 2)

	var wg sync.WaitGroup
	for i, uid := range []string{"it-race-a", "it-race-b"} {
		wg.Add(1)
		go func(i int, uid string) {
			defer wg.Done()
			res, err := matcher.FindOrCreateSeat(ctx, &domain.User{UID: uid})
			results[i] = outcome{res: res, err: err}
		}(i, uid)
	}
	wg.Wait()

	for _, r := range results {
		assert.NoError(t, r.err)
	}
	roomA := results[0].res.Room.ID
	roomB := results[1].res.Room.ID

	if roomA == roomB {
		// 共房: 儲存的房間兩個座位都被佔走, 一邊開房一邊入座
		stored, err := roomRepo.FindByID(ctx, roomA)
		assert.NoError(t, err)
		assert.Equal(t, domain.MaxSeats, stored.UserCount)
		assert.NotEqual(t, results[0].res.Created, results[1].res.Created)
	} else {
		// 各自開房: 兩間房都只佔一個座位, 等下一個 visitor
		for _, r := range results {
			stored, err := roomRepo.FindByID(ctx, r.res.Room.ID)
			assert.NoError(t, err)
			assert.Equal(t, 1, stored.UserCount)
			assert.True(t, r.res.Created)
		}
	}
}

// get_words 回傳字典
func TestGetWords(t *testing.T) {
	conn := dialWS(t, "it-words-a")
	defer conn.Close()

	assert.NoError(t, conn.WriteMessage(gws.TextMessage, []byte(`{"action": "get_words"}`)))
	resp := readAction(t, conn, "get_words")
	assert.True(t, resp.Success)
}
