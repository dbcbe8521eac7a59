package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"gardentrade/internal/app/chat"
	"gardentrade/internal/app/conversation"
	"gardentrade/internal/app/market"
	"gardentrade/internal/app/store/memory"
	"gardentrade/internal/app/trade"
	"gardentrade/internal/configs"
	"gardentrade/internal/pkg/errs"
	"gardentrade/internal/pkg/logx"
	"gardentrade/internal/pkg/pow"
)

func TestMain(m *testing.M) {
	logx.SetOutput(io.Discard, zerolog.Disabled)
	os.Exit(m.Run())
}

type envelope struct {
	Status  int
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type testServer struct {
	*httptest.Server
	trades *memory.TradeStore
}

func newTestServer(t *testing.T, powDifficulty int) *testServer {
	t.Helper()

	cfg, err := configs.Load(map[string]string{"DEMO_MODE": "true"})
	if err != nil {
		t.Fatalf("configs.Load: %v", err)
	}

	trades := memory.NewTradeStore(memory.SeedTrades(time.Now())...)
	catalog := trade.NewCatalog(trades)
	hub := chat.NewHub(time.Minute)
	guard := pow.NewGuard(powDifficulty)

	manager := market.NewManager(market.Deps{
		Users:        memory.NewUserStore(memory.AcceptAnyCredentials(), memory.WithBcryptCost(bcrypt.MinCost)),
		Catalog:      catalog,
		Messages:     memory.NewMessageStore(),
		Publisher:    hub,
		SeedGreeting: true,
	})

	deps := &AppDeps{
		Config:  cfg,
		Market:  manager,
		Catalog: catalog,
		Hub:     hub,
		Pow:     guard,
	}
	srv := httptest.NewServer(Router(deps))

	t.Cleanup(func() {
		srv.Close()
		manager.Shutdown()
		hub.Shutdown()
		guard.Stop()
		deps.Limiters.Stop()
	})

	return &testServer{Server: srv, trades: trades}
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) envelope {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, s.URL+path, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer res.Body.Close()

	var env envelope
	if err := json.NewDecoder(res.Body).Decode(&env); err != nil {
		t.Fatalf("decode %s %s: %v", method, path, err)
	}
	env.Status = res.StatusCode
	return env
}

func (s *testServer) login(t *testing.T, username string) string {
	t.Helper()

	env := s.do(t, http.MethodPost, "/api/auth/login", "", LoginInput{Username: username, Password: "pw"})
	if env.Code != 0 {
		t.Fatalf("login %s: code %d %s", username, env.Code, env.Message)
	}

	var out sessionResponse
	decode(t, env, &out)
	if out.Token == "" || out.Session.Username != username {
		t.Fatalf("login response = %+v", out)
	}
	return out.Token
}

func decode(t *testing.T, env envelope, dst any) {
	t.Helper()
	if err := json.Unmarshal(env.Data, dst); err != nil {
		t.Fatalf("decode data %s: %v", env.Data, err)
	}
}

func TestDemoScenarioOverHTTP(t *testing.T) {
	s := newTestServer(t, 0)
	token := s.login(t, "GardenMaster")

	var list struct {
		Trades []trade.Trade `json:"trades"`
	}
	decode(t, s.do(t, http.MethodGet, "/api/trades", token, nil), &list)
	if len(list.Trades) != 3 {
		t.Fatalf("listed %d trades, want 3", len(list.Trades))
	}

	var conv conversation.Conversation
	decode(t, s.do(t, http.MethodGet, "/api/conversations/1", token, nil), &conv)
	if len(conv.Messages) != 2 {
		t.Fatalf("got %d messages, want 2", len(conv.Messages))
	}

	env := s.do(t, http.MethodPost, "/api/conversations/1/messages", token, SendMessageInput{Body: "Да, интересно"})
	if env.Code != 0 {
		t.Fatalf("send: code %d", env.Code)
	}

	decode(t, s.do(t, http.MethodGet, "/api/conversations/1", token, nil), &conv)
	if len(conv.Messages) != 3 || conv.Messages[2].Sender != "GardenMaster" {
		t.Errorf("after send: %+v", conv.Messages)
	}
}

func TestCreateTradeValidationOverHTTP(t *testing.T) {
	s := newTestServer(t, 0)
	token := s.login(t, "GardenMaster")

	env := s.do(t, http.MethodPost, "/api/trades", token, map[string]any{
		"title":       "",
		"description": "desc",
		"offering":    []any{},
		"seeking":     []any{},
	})
	if env.Status != http.StatusOK || env.Code != errs.ErrTitleRequired {
		t.Fatalf("create = HTTP %d code %d, want 200/%d", env.Status, env.Code, errs.ErrTitleRequired)
	}
	if s.trades.Len() != 3 {
		t.Errorf("catalog size = %d, want 3", s.trades.Len())
	}

	env = s.do(t, http.MethodPost, "/api/trades", token, map[string]any{"title": "x", "extra": true})
	if env.Code != errs.ErrInvalidJSONFormat && env.Code != errs.ErrInvalidParams {
		t.Errorf("unknown field accepted: code %d", env.Code)
	}
}

func TestUnauthorized(t *testing.T) {
	s := newTestServer(t, 0)

	for _, path := range []string{"/api/trades", "/api/session", "/api/compose", "/api/conversations/1"} {
		env := s.do(t, http.MethodGet, path, "", nil)
		if env.Status != http.StatusUnauthorized || env.Code != errs.ErrUnauthorized {
			t.Errorf("GET %s = HTTP %d code %d, want 401", path, env.Status, env.Code)
		}
	}

	if env := s.do(t, http.MethodGet, "/api/trades", "not-a-jwt", nil); env.Code != errs.ErrUnauthorized {
		t.Errorf("garbage token: code %d", env.Code)
	}
}

func TestLogoutRevokesSession(t *testing.T) {
	s := newTestServer(t, 0)
	token := s.login(t, "Alice")

	if env := s.do(t, http.MethodPost, "/api/auth/logout", token, nil); env.Code != 0 {
		t.Fatalf("logout: code %d", env.Code)
	}
	if env := s.do(t, http.MethodGet, "/api/session", token, nil); env.Code != errs.ErrUnauthorized {
		t.Errorf("session after logout: code %d, want %d", env.Code, errs.ErrUnauthorized)
	}
}

func TestComposeFlowOverHTTP(t *testing.T) {
	s := newTestServer(t, 0)
	token := s.login(t, "Alice")

	s.do(t, http.MethodPost, "/api/compose/open", token, nil)
	s.do(t, http.MethodPut, "/api/compose", token, map[string]string{"title": "Орхидея за шекели"})
	s.do(t, http.MethodPost, "/api/compose/items", token, ComposeItemInput{Target: "offering", Kind: trade.KindPlant, Name: "Орхидея", Quantity: 1})
	s.do(t, http.MethodPost, "/api/compose/items", token, ComposeItemInput{Target: "offering", Kind: trade.KindPlant, Name: "Кактус", Quantity: 2})
	s.do(t, http.MethodPost, "/api/compose/items", token, ComposeItemInput{Target: "seeking", Kind: trade.KindCoins, Name: "Шекели", Quantity: 30})

	env := s.do(t, http.MethodDelete, "/api/compose/items/offering/1", token, nil)
	var snap struct {
		State    string       `json:"state"`
		Offering []trade.Item `json:"offering"`
	}
	decode(t, env, &snap)
	if snap.State != "submittable" || len(snap.Offering) != 1 {
		t.Fatalf("form = %+v", snap)
	}

	if env := s.do(t, http.MethodDelete, "/api/compose/items/offering/x", token, nil); env.Code != errs.ErrInvalidParams {
		t.Errorf("bad index: code %d", env.Code)
	}

	var posted trade.Trade
	decode(t, s.do(t, http.MethodPost, "/api/compose/submit", token, nil), &posted)
	if posted.Owner != "Alice" || posted.Title != "Орхидея за шекели" {
		t.Errorf("posted = %+v", posted)
	}

	var state market.State
	decode(t, s.do(t, http.MethodGet, "/api/session", token, nil), &state)
	if state.Compose.State != "empty" || state.Compose.Open {
		t.Errorf("form after submit = %+v", state.Compose)
	}
	if len(state.Trades) == 0 || state.Trades[0].ID != posted.ID {
		t.Errorf("new trade not first in listing")
	}
}

func TestRegisterRequiresProofOfWork(t *testing.T) {
	s := newTestServer(t, 1)

	input := RegisterInput{Username: "newbie", Email: "newbie@example.com", Password: "pw"}
	if env := s.do(t, http.MethodPost, "/api/auth/register", "", input); env.Code != errs.ErrPowChallengeRequired {
		t.Fatalf("register without proof: code %d", env.Code)
	}

	var challenge struct {
		Nonce      string `json:"nonce"`
		Difficulty int    `json:"difficulty"`
	}
	decode(t, s.do(t, http.MethodGet, "/api/auth/challenge", "", nil), &challenge)

	counter := 0
	for !pow.Solves(challenge.Nonce, strconv.Itoa(counter), challenge.Difficulty) {
		counter++
	}

	var proof struct {
		Token string `json:"token"`
	}
	decode(t, s.do(t, http.MethodPost, "/api/auth/challenge", "", ChallengeInput{Nonce: challenge.Nonce, Counter: strconv.Itoa(counter)}), &proof)

	data, _ := json.Marshal(input)
	req, _ := http.NewRequest(http.MethodPost, s.URL+"/api/auth/register", bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(pow.TokenHeaderKey, proof.Token)

	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	defer res.Body.Close()

	var env envelope
	json.NewDecoder(res.Body).Decode(&env)
	if env.Code != 0 {
		t.Fatalf("register with proof: code %d %s", env.Code, env.Message)
	}
}

func TestPushOverWebSocket(t *testing.T) {
	s := newTestServer(t, 0)
	owner := s.login(t, "GardenMaster")
	buyer := s.login(t, "PetLover")

	wsURL := "ws" + strings.TrimPrefix(s.URL, "http") + "/ws/trades/1?token=" + owner
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	var ev chat.Event
	if err := conn.ReadJSON(&ev); err != nil || ev.Type != chat.TypeSubscribed {
		t.Fatalf("first frame = %+v, %v", ev, err)
	}

	s.do(t, http.MethodPost, "/api/conversations/1/messages", buyer, SendMessageInput{Body: "Кролик есть!"})

	var push struct {
		Type    chat.EventType       `json:"type"`
		Payload conversation.Message `json:"payload"`
	}
	if err := conn.ReadJSON(&push); err != nil {
		t.Fatalf("read push: %v", err)
	}
	if push.Type != chat.TypeMessage || push.Payload.Sender != "PetLover" || push.Payload.Body != "Кролик есть!" {
		t.Errorf("push = %+v", push)
	}

	if _, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(s.URL, "http")+"/ws/trades/404?token="+owner, nil); err == nil {
		t.Error("subscription to unknown trade succeeded")
	}
}

func TestRouterLimitersCanBeStopped(t *testing.T) {
	cfg, err := configs.Load(map[string]string{})
	if err != nil {
		t.Fatalf("configs.Load: %v", err)
	}
	guard := pow.NewGuard(0)
	defer guard.Stop()

	provided := NewLimiters()
	deps := &AppDeps{Config: cfg, Pow: guard, Limiters: provided}
	Router(deps)
	if deps.Limiters != provided {
		t.Error("Router replaced the provided limiters")
	}
	provided.Stop()

	defaults := &AppDeps{Config: cfg, Pow: guard}
	Router(defaults)
	if defaults.Limiters == nil {
		t.Fatal("Router left Limiters unset")
	}

	stopped := make(chan struct{})
	go func() {
		defaults.Limiters.Stop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("Limiters.Stop did not return")
	}
}
