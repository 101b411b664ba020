package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"passportwatch/pkg/availability"
	"passportwatch/pkg/logger"
)

var milano = availability.Hit{
	Label:   "Milano",
	Text:    "Disponibile dal 10/05",
	FoundAt: time.Date(2026, 5, 1, 9, 30, 0, 0, time.UTC),
}

type stubAlerter struct {
	name  string
	err   error
	calls *[]string
}

func (s stubAlerter) Name() string { return s.name }

func (s stubAlerter) Alert(ctx context.Context, _ availability.Hit) error {
	if _, ok := ctx.Deadline(); !ok {
		return errors.New("alert context has no deadline")
	}
	*s.calls = append(*s.calls, s.name)
	return s.err
}

func TestMultiRunsEveryAlerter(t *testing.T) {
	var calls []string
	boom := errors.New("boom")

	m := NewMulti(time.Second,
		stubAlerter{name: "beep", calls: &calls},
		stubAlerter{name: "telegram", err: boom, calls: &calls},
		stubAlerter{name: "wechat", calls: &calls},
	)

	err := m.Alert(context.Background(), milano)
	if !errors.Is(err, boom) {
		t.Fatalf("Alert() error = %v, want wrapped boom", err)
	}
	if !strings.Contains(err.Error(), "telegram: boom") {
		t.Errorf("error should name the failing alerter: %v", err)
	}
	if strings.Join(calls, ",") != "beep,telegram,wechat" {
		t.Errorf("call order = %v", calls)
	}
	if got := strings.Join(m.Names(), ","); got != "beep,telegram,wechat" {
		t.Errorf("Names() = %s", got)
	}
}

func TestMultiEmpty(t *testing.T) {
	if err := NewMulti(0).Alert(context.Background(), milano); err != nil {
		t.Fatalf("empty Multi returned %v", err)
	}
}

func TestBeeper(t *testing.T) {
	b := NewBeeper(440, 500*time.Millisecond)

	var gotFreq float64
	var gotMs int
	b.beep = func(freq float64, ms int) error {
		gotFreq, gotMs = freq, ms
		return nil
	}

	if err := b.Alert(context.Background(), milano); err != nil {
		t.Fatal(err)
	}
	if gotFreq != 440 || gotMs != 500 {
		t.Errorf("beep(%v, %d), want beep(440, 500)", gotFreq, gotMs)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := b.Alert(ctx, milano); !errors.Is(err, context.Canceled) {
		t.Errorf("Alert() with cancelled ctx = %v", err)
	}
}

func TestTelegramNotifier(t *testing.T) {
	var got TelegramMessage
	var path string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	n, err := NewTelegramNotifier(TelegramOptions{BotToken: "123:abc", ChatID: "42", APIBase: srv.URL})
	if err != nil {
		t.Fatal(err)
	}

	if err := n.Alert(context.Background(), milano); err != nil {
		t.Fatalf("Alert() error = %v", err)
	}
	if path != "/bot123:abc/sendMessage" {
		t.Errorf("path = %s", path)
	}
	if got.ChatID != "42" || got.ParseMode != "Markdown" {
		t.Errorf("message = %+v", got)
	}
	if !strings.Contains(got.Text, "Milano") || !strings.Contains(got.Text, "Disponibile dal 10/05") {
		t.Errorf("text does not carry the hit: %q", got.Text)
	}
}

func TestTelegramNotifierEscapesPageText(t *testing.T) {
	var got TelegramMessage

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	n, err := NewTelegramNotifier(TelegramOptions{
		BotToken:  "t",
		ChatID:    "c",
		APIBase:   srv.URL,
		TargetURL: "https://example.test/scelta_sede",
	})
	if err != nil {
		t.Fatal(err)
	}

	hit := availability.Hit{Label: "Questura_Roma *Centro*", Text: "slot [10:00] `libero`", FoundAt: milano.FoundAt}
	if err := n.Alert(context.Background(), hit); err != nil {
		t.Fatalf("Alert() error = %v", err)
	}

	for _, want := range []string{
		`Questura\_Roma \*Centro\*`,
		"slot \\[10:00] \\`libero\\`",
		`https://example.test/scelta\_sede`,
		"*Office:*",
	} {
		if !strings.Contains(got.Text, want) {
			t.Errorf("text %q does not contain %q", got.Text, want)
		}
	}
}

func TestEscapeMarkdown(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Milano", "Milano"},
		{"Sede_Nord", `Sede\_Nord`},
		{"*a*", `\*a\*`},
		{"[x](y)", `\[x](y)`},
		{"`code`", "\\`code\\`"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := escapeMarkdown(tt.in); got != tt.want {
			t.Errorf("escapeMarkdown(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestTelegramNotifierLogsThroughContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	n, err := NewTelegramNotifier(TelegramOptions{BotToken: "t", ChatID: "42", APIBase: srv.URL})
	if err != nil {
		t.Fatal(err)
	}

	core, logs := observer.New(zap.InfoLevel)
	ctx := logger.WithRunID(logger.WithLogger(context.Background(), zap.New(core)), "run-7")

	if err := n.Alert(ctx, milano); err != nil {
		t.Fatalf("Alert() error = %v", err)
	}

	sent := logs.FilterMessage("Telegram message sent").All()
	if len(sent) != 1 {
		t.Fatalf("expected 1 sent entry, got %d", len(sent))
	}
	if got := sent[0].ContextMap()["run_id"]; got != "run-7" {
		t.Errorf("run_id = %v, want run-7", got)
	}
	if sent[0].LoggerName != "telegram" {
		t.Errorf("logger name = %q, want telegram", sent[0].LoggerName)
	}
}

func TestTelegramNotifierAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"ok":false,"error_code":400,"description":"chat not found"}`))
	}))
	defer srv.Close()

	n, _ := NewTelegramNotifier(TelegramOptions{BotToken: "t", ChatID: "c", APIBase: srv.URL})

	err := n.Alert(context.Background(), milano)
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Code != 400 {
		t.Fatalf("Alert() error = %v, want APIError 400", err)
	}
}

func TestNewTelegramNotifierRequiresCredentials(t *testing.T) {
	if _, err := NewTelegramNotifier(TelegramOptions{ChatID: "42"}); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("error = %v, want ErrNotConfigured", err)
	}
}

func TestWeChatNotifierRetries(t *testing.T) {
	var mu sync.Mutex
	attempts := 0
	var got webhookMessage

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		attempts++
		if attempts == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = w.Write([]byte(`{"errcode":0,"errmsg":"ok"}`))
	}))
	defer srv.Close()

	n, err := NewWeChatNotifier(WeChatOptions{
		WebhookURL:   srv.URL,
		MentionUsers: []string{"@all"},
		MaxRetries:   2,
		RetryDelay:   time.Millisecond,
	})
	if err != nil {
		t.Fatal(err)
	}

	if err := n.Alert(context.Background(), milano); err != nil {
		t.Fatalf("Alert() error = %v", err)
	}
	if attempts != 2 {
		t.Errorf("attempts = %d, want 2", attempts)
	}
	if got.MsgType != "text" || got.Text == nil || !strings.Contains(got.Text.Content, "Milano") {
		t.Errorf("message = %+v", got)
	}
	if len(got.Text.MentionedList) != 1 {
		t.Errorf("mentioned_list = %v", got.Text.MentionedList)
	}
}

func TestWeChatNotifierLogsRetriesThroughContext(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"errcode":0,"errmsg":"ok"}`))
	}))
	defer srv.Close()

	n, err := NewWeChatNotifier(WeChatOptions{WebhookURL: srv.URL, MaxRetries: 1, RetryDelay: time.Millisecond})
	if err != nil {
		t.Fatal(err)
	}

	core, logs := observer.New(zap.InfoLevel)
	ctx := logger.WithLogger(context.Background(), zap.New(core))

	hit := availability.Hit{Label: "Sede_Nord", Text: "libero", FoundAt: milano.FoundAt}
	if err := n.Alert(ctx, hit); err != nil {
		t.Fatalf("Alert() error = %v", err)
	}

	if got := logs.FilterMessage("WeChat message failed, retrying").Len(); got != 1 {
		t.Errorf("retry warnings = %d, want 1", got)
	}
	if got := logs.FilterMessage("WeChat message sent").Len(); got != 1 {
		t.Errorf("sent entries = %d, want 1", got)
	}
}

func TestWeChatMessageIsNotEscaped(t *testing.T) {
	hit := availability.Hit{Label: "Sede_Nord", Text: "libero", FoundAt: milano.FoundAt}
	if msg := formatHit(hit, "", nil); !strings.Contains(msg, "Sede_Nord") {
		t.Errorf("plain message altered the label: %q", msg)
	}
}

func TestWeChatNotifierGivesUp(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"errcode":93000,"errmsg":"invalid webhook url"}`))
	}))
	defer srv.Close()

	n, _ := NewWeChatNotifier(WeChatOptions{WebhookURL: srv.URL, MaxRetries: 1, RetryDelay: time.Millisecond})

	err := n.Alert(context.Background(), milano)
	if !errors.Is(err, ErrRetryExceeded) {
		t.Fatalf("error = %v, want ErrRetryExceeded", err)
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Code != 93000 {
		t.Errorf("last error not preserved: %v", err)
	}
}

type fakeWriter struct {
	msgs []kafka.Message
	err  error
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error { return nil }

func TestKafkaNotifier(t *testing.T) {
	w := &fakeWriter{}
	n := newKafkaNotifierWithWriter(w, "https://example.test/sceltaSede")

	ctx := logger.WithRunID(context.Background(), "run-123")
	if err := n.Alert(ctx, milano); err != nil {
		t.Fatalf("Alert() error = %v", err)
	}

	if len(w.msgs) != 1 {
		t.Fatalf("expected 1 message, got %d", len(w.msgs))
	}
	if string(w.msgs[0].Key) != "run-123" {
		t.Errorf("key = %s", w.msgs[0].Key)
	}

	var event HitEvent
	if err := json.Unmarshal(w.msgs[0].Value, &event); err != nil {
		t.Fatalf("decode event: %v", err)
	}
	if event.Hit.Label != "Milano" || event.RunID != "run-123" || event.TargetURL == "" {
		t.Errorf("event = %+v", event)
	}
}

func TestKafkaNotifierWriteError(t *testing.T) {
	n := newKafkaNotifierWithWriter(&fakeWriter{err: errors.New("write failed")}, "")
	if err := n.Alert(context.Background(), milano); err == nil {
		t.Fatal("expected error, got nil")
	}
}
