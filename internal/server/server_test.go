// internal/server/server_test.go
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"healthai/internal/gemini"
	"healthai/internal/i18n"
	"healthai/internal/models"
	"healthai/internal/storage"
)

const phoReply = "```json\n" + `{
  "name": {"vi": "Phở bò", "en": "Beef pho", "ja": "フォー"},
  "ingredients": {"vi": ["bánh phở", "thịt bò"], "en": ["rice noodles", "beef"], "ja": ["米麺", "牛肉"]},
  "calories": {"vi": "450 kcal", "en": "🔥 450 kcal", "ja": "450 kcal"},
  "protein": {"vi": "25g", "en": "25g", "ja": "25g"},
  "benefits": {"vi": "Giàu đạm", "en": ["High in protein"], "ja": ["高たんぱく"]}
}` + "\n```"

const banhMiReply = `{
  "name": {"vi": "Bánh mì", "en": "Banh mi", "ja": "バインミー"},
  "calories": {"vi": "300 kcal", "en": "300 kcal", "ja": "300 kcal"}
}`

type fakeAI struct {
	mu        sync.Mutex
	reply     string
	err       error
	chatReply string
	images    []string
	started   chan struct{}
	release   chan struct{}

	// replyFor overrides reply for a given image.
	replyFor map[string]string
	// failOnce fails the next call for a given image, then clears itself.
	failOnce map[string]error
}

func (f *fakeAI) AnalyzeImage(ctx context.Context, image string) (string, error) {
	f.mu.Lock()
	f.images = append(f.images, image)
	started, release := f.started, f.release
	reply, err := f.reply, f.err
	if r, ok := f.replyFor[image]; ok {
		reply = r
	}
	if e, ok := f.failOnce[image]; ok {
		delete(f.failOnce, image)
		reply, err = "", e
	}
	f.mu.Unlock()

	if started != nil {
		started <- struct{}{}
		<-release
	}
	return reply, err
}

func (f *fakeAI) sent() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.images...)
}

func (f *fakeAI) Chat(ctx context.Context, question string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.chatReply, nil
}

type testEnv struct {
	server *FoodServer
	http   *httptest.Server
	ai     *fakeAI
}

func newTestEnv(t *testing.T, ai *fakeAI) *testEnv {
	t.Helper()
	stor, err := storage.NewSQLiteStorage(filepath.Join(t.TempDir(), "healthai.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStorage: %v", err)
	}

	s := newFoodServer(&Config{}, stor, ai)
	ts := httptest.NewServer(s.routes())
	t.Cleanup(func() {
		ts.Close()
		s.Stop()
	})
	return &testEnv{server: s, http: ts, ai: ai}
}

// call posts a tool request and decodes the JSON text content into out.
func (e *testEnv) call(t *testing.T, name string, args map[string]interface{}, out interface{}) int {
	t.Helper()
	body, _ := json.Marshal(map[string]interface{}{"name": name, "arguments": args})
	resp, err := http.Post(e.http.URL+"/", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("POST %s: %v", name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return resp.StatusCode
	}

	var result struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if len(result.Content) != 1 || result.Content[0].Type != "text" {
		t.Fatalf("unexpected content %+v", result.Content)
	}
	if out != nil {
		if err := json.Unmarshal([]byte(result.Content[0].Text), out); err != nil {
			t.Fatalf("decode text content: %v", err)
		}
	}
	return resp.StatusCode
}

func analyzeArgs(lang string) map[string]interface{} {
	return analyzeImageArgs(lang, "aW1n")
}

func analyzeImageArgs(lang, image string) map[string]interface{} {
	return map[string]interface{}{
		"image_base64": image,
		"lang":         lang,
		"age":          "25",
		"weight":       70,
		"height":       "170",
	}
}

func TestAnalyzeFoodCommitsAndRenders(t *testing.T) {
	env := newTestEnv(t, &fakeAI{reply: phoReply})

	var res AnalysisResult
	if code := env.call(t, "analyze_food", analyzeArgs("en"), &res); code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	if res.Error != "" {
		t.Fatalf("unexpected error %q", res.Error)
	}
	if res.View.Name != "Beef pho" || res.View.Calories != "🔥 450 kcal" {
		t.Errorf("view = %+v", res.View)
	}
	if res.View.Fat != i18n.StringsFor(models.English).NoData {
		t.Errorf("missing fat rendered as %q", res.View.Fat)
	}
	if res.Burn == nil || res.Burn.FoodCalories != 450 || res.Burn.Activities[0].Minutes != 45 {
		t.Fatalf("burn = %+v", res.Burn)
	}
	if res.Entry == nil || res.Entry.Date == "" {
		t.Errorf("entry = %+v", res.Entry)
	}

	if n := env.server.foodLog.Len(); n != 1 {
		t.Errorf("food log has %d entries", n)
	}
}

func TestAnalyzeFoodInlineErrors(t *testing.T) {
	tests := []struct {
		name string
		ai   *fakeAI
		want string
	}{
		{"transport", &fakeAI{err: &gemini.TransportError{Kind: gemini.KindStatus, StatusCode: 500, Err: errors.New("boom")}}, i18n.StringsFor(models.Japanese).TransportError},
		{"parse", &fakeAI{reply: "I think this is soup."}, i18n.StringsFor(models.Japanese).ParseError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, tt.ai)

			var res AnalysisResult
			if code := env.call(t, "analyze_food", analyzeArgs("ja"), &res); code != http.StatusOK {
				t.Fatalf("status = %d", code)
			}
			if res.Error != tt.want {
				t.Errorf("error = %q, want %q", res.Error, tt.want)
			}
			if res.Record != nil || res.Burn != nil {
				t.Errorf("failed analysis returned data: %+v", res)
			}
			if n := env.server.foodLog.Len(); n != 0 {
				t.Errorf("failed analysis logged %d entries", n)
			}
		})
	}
}

func TestAnalyzeFoodRejectsConcurrentRequest(t *testing.T) {
	ai := &fakeAI{reply: phoReply, started: make(chan struct{}), release: make(chan struct{})}
	env := newTestEnv(t, ai)

	done := make(chan AnalysisResult)
	go func() {
		var res AnalysisResult
		env.call(t, "analyze_food", analyzeArgs("en"), &res)
		done <- res
	}()
	<-ai.started

	var busy AnalysisResult
	env.call(t, "analyze_food", analyzeArgs("en"), &busy)
	if busy.Error != i18n.StringsFor(models.English).Busy {
		t.Errorf("second analysis error = %q", busy.Error)
	}

	close(ai.release)
	if first := <-done; first.Error != "" {
		t.Errorf("first analysis failed: %q", first.Error)
	}
}

func TestEstimateBurnUsesCurrentRecord(t *testing.T) {
	env := newTestEnv(t, &fakeAI{reply: phoReply})

	var before struct {
		Burn *BurnView `json:"burn"`
	}
	env.call(t, "estimate_burn", map[string]interface{}{"age": "25", "weight": "70", "height": "170"}, &before)
	if before.Burn != nil {
		t.Fatalf("burn without a record = %+v", before.Burn)
	}

	env.call(t, "analyze_food", analyzeArgs("vi"), nil)

	var after struct {
		Burn *BurnView `json:"burn"`
	}
	env.call(t, "estimate_burn", map[string]interface{}{"lang": "vi", "age": 30, "weight": 60, "height": 160}, &after)
	if after.Burn == nil || after.Burn.FoodCalories != 450 {
		t.Fatalf("burn = %+v", after.Burn)
	}
	if len(after.Burn.Lines) != 4+len(after.Burn.Activities) {
		t.Errorf("lines = %v", after.Burn.Lines)
	}

	var missing struct {
		Burn *BurnView `json:"burn"`
	}
	env.call(t, "estimate_burn", map[string]interface{}{"lang": "vi", "age": "", "weight": 60, "height": 160}, &missing)
	if missing.Burn != nil {
		t.Errorf("burn with missing age = %+v", missing.Burn)
	}
}

func TestReanalyzeFood(t *testing.T) {
	ai := &fakeAI{reply: phoReply}
	env := newTestEnv(t, ai)

	if code := env.call(t, "reanalyze_food", nil, nil); code != http.StatusBadRequest {
		t.Fatalf("reanalyze before analyze: status = %d", code)
	}

	env.call(t, "analyze_food", analyzeArgs("en"), nil)
	var res AnalysisResult
	env.call(t, "reanalyze_food", map[string]interface{}{"lang": "en"}, &res)
	if res.Error != "" || res.View == nil {
		t.Fatalf("reanalyze = %+v", res)
	}
	if sent := ai.sent(); len(sent) != 2 || sent[1] != "aW1n" {
		t.Errorf("images sent = %v", sent)
	}
	if n := env.server.foodLog.Len(); n != 2 {
		t.Errorf("food log has %d entries after reanalyze, want 2", n)
	}
}

func TestReanalyzeRetriesFailedImage(t *testing.T) {
	ai := &fakeAI{
		reply:    phoReply,
		replyFor: map[string]string{"Qg==": banhMiReply},
		failOnce: map[string]error{
			"Qg==": &gemini.TransportError{Kind: gemini.KindNetwork, Err: errors.New("connection reset")},
		},
	}
	env := newTestEnv(t, ai)

	env.call(t, "analyze_food", analyzeImageArgs("en", "aW1n"), nil)

	var failed AnalysisResult
	env.call(t, "analyze_food", analyzeImageArgs("en", "Qg=="), &failed)
	if failed.Error == "" {
		t.Fatalf("expected inline transport error, got %+v", failed)
	}

	var res AnalysisResult
	env.call(t, "reanalyze_food", map[string]interface{}{"lang": "en"}, &res)
	if res.Error != "" || res.View == nil || res.View.Name != "Banh mi" {
		t.Fatalf("reanalyze = %+v", res)
	}

	want := []string{"aW1n", "Qg==", "Qg=="}
	if sent := ai.sent(); strings.Join(sent, ",") != strings.Join(want, ",") {
		t.Errorf("images sent = %v, want %v", sent, want)
	}

	entries := env.server.foodLog.Entries()
	if len(entries) != 2 {
		t.Fatalf("food log has %d entries, want 2", len(entries))
	}
	if got := entries[0].Name.Text(models.English, ""); got != "Banh mi" {
		t.Errorf("newest entry = %q, want Banh mi", got)
	}
	if got := entries[1].Name.Text(models.English, ""); got != "Beef pho" {
		t.Errorf("oldest entry = %q, want Beef pho", got)
	}
}

func TestInvalidImageKeepsCurrentRecord(t *testing.T) {
	ai := &fakeAI{
		reply:    phoReply,
		failOnce: map[string]error{"bad": fmt.Errorf("%w: not a JPEG", gemini.ErrInvalidInput)},
	}
	env := newTestEnv(t, ai)

	env.call(t, "analyze_food", analyzeArgs("en"), nil)
	if code := env.call(t, "analyze_food", analyzeImageArgs("en", "bad"), nil); code != http.StatusBadRequest {
		t.Fatalf("invalid image: status = %d, want 400", code)
	}

	var after struct {
		Burn *BurnView `json:"burn"`
	}
	env.call(t, "estimate_burn", map[string]interface{}{"lang": "en", "age": "25", "weight": 70, "height": 170}, &after)
	if after.Burn == nil || after.Burn.FoodCalories != 450 {
		t.Errorf("burn after rejected image = %+v", after.Burn)
	}

	var res AnalysisResult
	env.call(t, "reanalyze_food", map[string]interface{}{"lang": "en"}, &res)
	if sent := ai.sent(); len(sent) != 3 || sent[2] != "aW1n" {
		t.Errorf("reanalyze after rejected image sent %v", sent)
	}
	if env.server.foodLog.Len() != 2 {
		t.Errorf("food log len = %d, want 2", env.server.foodLog.Len())
	}
}

func TestFoodLogTools(t *testing.T) {
	env := newTestEnv(t, &fakeAI{reply: phoReply})

	var empty LogView
	env.call(t, "get_food_log", map[string]interface{}{"lang": "en"}, &empty)
	if empty.Empty != "No entries yet" || len(empty.Groups) != 0 {
		t.Errorf("empty log = %+v", empty)
	}

	env.call(t, "analyze_food", analyzeArgs("en"), nil)
	env.call(t, "analyze_food", analyzeArgs("en"), nil)

	var view LogView
	env.call(t, "get_food_log", map[string]interface{}{"lang": "en"}, &view)
	if len(view.Groups) != 1 || len(view.Groups[0].Rows) != 2 {
		t.Fatalf("log view = %+v", view)
	}
	if view.Groups[0].TotalCalories != 900 {
		t.Errorf("total = %v", view.Groups[0].TotalCalories)
	}
	if got := view.Groups[0].Rows[0].Text; got != "• Beef pho (450 kcal)" {
		t.Errorf("row = %q", got)
	}

	var cleared map[string]bool
	env.call(t, "clear_food_log", nil, &cleared)
	if !cleared["cleared"] || env.server.foodLog.Len() != 0 {
		t.Errorf("clear = %v, len = %d", cleared, env.server.foodLog.Len())
	}
}

func TestChatTool(t *testing.T) {
	env := newTestEnv(t, &fakeAI{chatReply: "Eat more greens."})

	var res map[string]string
	env.call(t, "chat", map[string]interface{}{"message": "What should I eat?"}, &res)
	if res["reply"] != "Eat more greens." {
		t.Errorf("reply = %v", res)
	}

	if code := env.call(t, "chat", map[string]interface{}{"message": "   "}, nil); code != http.StatusBadRequest {
		t.Errorf("blank message status = %d", code)
	}

	failing := newTestEnv(t, &fakeAI{err: &gemini.TransportError{Kind: gemini.KindNetwork, Err: errors.New("offline")}})
	var failed map[string]string
	failing.call(t, "chat", map[string]interface{}{"message": "hi", "lang": "en"}, &failed)
	if failed["error"] != i18n.StringsFor(models.English).ChatError {
		t.Errorf("chat error = %v", failed)
	}
}

func TestOnboardingAndStringsTools(t *testing.T) {
	env := newTestEnv(t, &fakeAI{})

	var state struct {
		Completed bool        `json:"completed"`
		Steps     []i18n.Step `json:"steps"`
	}
	env.call(t, "get_onboarding", nil, &state)
	if state.Completed || len(state.Steps) != 3 {
		t.Errorf("initial onboarding = %+v", state)
	}

	env.call(t, "complete_onboarding", nil, nil)
	env.call(t, "get_onboarding", nil, &state)
	if !state.Completed {
		t.Error("onboarding not marked completed")
	}

	var strs struct {
		Lang    models.LanguageTag `json:"lang"`
		Strings i18n.Bundle        `json:"strings"`
	}
	env.call(t, "get_strings", map[string]interface{}{"lang": "klingon"}, &strs)
	if strs.Lang != models.Vietnamese || strs.Strings.Minutes != "phút" {
		t.Errorf("fallback strings = %+v", strs)
	}
}

func TestNewFoodServerRejectsUnknownTransport(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "healthai.db")

	for _, transport := range []string{"stdio", "sse", "HTTP"} {
		s, err := NewFoodServer(&Config{Transport: transport, DBPath: dbPath})
		if err == nil {
			s.Stop()
			t.Errorf("transport %q: expected error", transport)
			continue
		}
		if !strings.Contains(err.Error(), "unsupported transport") {
			t.Errorf("transport %q: error = %v", transport, err)
		}
	}
	if _, err := os.Stat(dbPath); !os.IsNotExist(err) {
		t.Errorf("storage opened for a rejected transport (stat err = %v)", err)
	}
}

func TestHTTPSurface(t *testing.T) {
	env := newTestEnv(t, &fakeAI{})

	resp, err := http.Get(env.http.URL + "/health")
	if err != nil {
		t.Fatalf("GET /health: %v", err)
	}
	var health struct {
		Status string   `json:"status"`
		Tools  []string `json:"tools"`
	}
	json.NewDecoder(resp.Body).Decode(&health)
	resp.Body.Close()
	if health.Status != "OK" || len(health.Tools) != 9 {
		t.Errorf("health = %+v", health)
	}

	if code := env.call(t, "no_such_tool", nil, nil); code != http.StatusNotFound {
		t.Errorf("unknown tool status = %d", code)
	}

	resp, err = http.Get(env.http.URL + "/")
	if err != nil {
		t.Fatalf("GET /: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("GET / status = %d", resp.StatusCode)
	}

	resp, err = http.Post(env.http.URL+"/", "application/json", strings.NewReader("{"))
	if err != nil {
		t.Fatalf("POST bad json: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("bad json status = %d", resp.StatusCode)
	}
}
