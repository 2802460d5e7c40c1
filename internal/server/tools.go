// internal/server/tools.go
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"

	"github.com/ThinkInAIXYZ/go-mcp/protocol"

	"healthai/internal/gemini"
	"healthai/internal/i18n"
	"healthai/internal/models"
	"healthai/internal/nutrition"
)

var errInvalidParams = errors.New("invalid parameters")

type toolHandler func(context.Context, *protocol.CallToolRequest) (*protocol.CallToolResult, error)

// FormField is a biometric form value. Clients may send it as a string or
// a JSON number.
type FormField string

func (f *FormField) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = FormField(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("form field must be a string or number: %s", data)
	}
	*f = FormField(n.String())
	return nil
}

type BiometricParams struct {
	Lang   string    `json:"lang,omitempty" description:"Display language: vi, en or ja (defaults to vi)"`
	Age    FormField `json:"age,omitempty" description:"Age in years"`
	Weight FormField `json:"weight,omitempty" description:"Weight in kg"`
	Height FormField `json:"height,omitempty" description:"Height in cm"`
}

func (p BiometricParams) input() models.BiometricInput {
	return nutrition.ParseBiometrics(string(p.Age), string(p.Weight), string(p.Height))
}

type AnalyzeFoodParams struct {
	ImageBase64 string `json:"image_base64" description:"Base64-encoded JPEG of the meal"`
	BiometricParams
}

type ChatParams struct {
	Message string `json:"message" description:"Freeform nutrition question"`
	Lang    string `json:"lang,omitempty" description:"Language for error messages"`
}

type LangParams struct {
	Lang string `json:"lang,omitempty" description:"Display language: vi, en or ja"`
}

// AnalysisResult is returned by analyze_food and reanalyze_food. Error is a
// user-facing message; when set the other fields are empty.
type AnalysisResult struct {
	Error  string                  `json:"error,omitempty"`
	Lang   models.LanguageTag      `json:"lang"`
	Entry  *models.FoodLogEntry    `json:"entry,omitempty"`
	Record *models.NutritionRecord `json:"record,omitempty"`
	View   *NutritionView          `json:"view,omitempty"`
	Burn   *BurnView               `json:"burn"`
}

// extractParams safely extracts parameters from the request arguments
func extractParams(req *protocol.CallToolRequest, target interface{}) error {
	// Convert the Arguments map to JSON bytes, then unmarshal to target
	jsonBytes, err := json.Marshal(req.Arguments)
	if err != nil {
		return fmt.Errorf("%w: failed to marshal arguments: %v", errInvalidParams, err)
	}

	if err := json.Unmarshal(jsonBytes, target); err != nil {
		return fmt.Errorf("%w: %v", errInvalidParams, err)
	}

	return nil
}

func (s *FoodServer) tools() map[string]toolHandler {
	return map[string]toolHandler{
		"analyze_food":        s.handleAnalyzeFood,
		"reanalyze_food":      s.handleReanalyzeFood,
		"estimate_burn":       s.handleEstimateBurn,
		"chat":                s.handleChat,
		"get_food_log":        s.handleGetFoodLog,
		"clear_food_log":      s.handleClearFoodLog,
		"get_strings":         s.handleGetStrings,
		"get_onboarding":      s.handleGetOnboarding,
		"complete_onboarding": s.handleCompleteOnboarding,
	}
}

func toolNames() []string {
	var s FoodServer
	names := make([]string, 0, len(s.tools()))
	for name := range s.tools() {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// handleAnalyzeFood analyzes a meal photo and commits the result to the log
func (s *FoodServer) handleAnalyzeFood(ctx context.Context, req *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	var params AnalyzeFoodParams
	if err := extractParams(req, &params); err != nil {
		return nil, err
	}

	if params.ImageBase64 == "" {
		return nil, fmt.Errorf("%w: image_base64 is required", errInvalidParams)
	}

	return s.analyze(ctx, params.ImageBase64, params.BiometricParams)
}

// handleReanalyzeFood sends the last analyzed image again
func (s *FoodServer) handleReanalyzeFood(ctx context.Context, req *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	var params BiometricParams
	if err := extractParams(req, &params); err != nil {
		return nil, err
	}

	s.mu.RLock()
	image := s.lastImage
	s.mu.RUnlock()

	if image == "" {
		return nil, fmt.Errorf("%w: no image has been analyzed yet", errInvalidParams)
	}

	return s.analyze(ctx, image, params)
}

func (s *FoodServer) analyze(ctx context.Context, image string, params BiometricParams) (*protocol.CallToolResult, error) {
	lang := i18n.Resolve(params.Lang)
	bundle := i18n.StringsFor(lang)

	if !s.analyzing.CompareAndSwap(false, true) {
		return s.createJSONResponse(AnalysisResult{Error: bundle.Busy, Lang: lang})
	}
	defer s.analyzing.Store(false)

	raw, err := s.ai.AnalyzeImage(ctx, image)
	if errors.Is(err, gemini.ErrInvalidInput) {
		return nil, fmt.Errorf("%w: %v", errInvalidParams, err)
	}

	// Accepted input: reanalyze_food retries this image whatever happens below.
	s.mu.Lock()
	s.current = nil
	s.lastImage = image
	s.mu.Unlock()

	if err != nil {
		logTransportError("analyze image", err)
		return s.createJSONResponse(AnalysisResult{Error: bundle.TransportError, Lang: lang})
	}

	record, err := nutrition.Parse(raw)
	if err != nil {
		log.Printf("Warning: %v (reply %q)", err, truncate(raw, 200))
		return s.createJSONResponse(AnalysisResult{Error: bundle.ParseError, Lang: lang})
	}

	s.mu.Lock()
	s.current = record
	s.mu.Unlock()

	// Persistence failures are logged by the store and never reach the user.
	entry, _ := s.foodLog.Add(*record)

	return s.createJSONResponse(AnalysisResult{
		Lang:   lang,
		Entry:  &entry,
		Record: record,
		View:   renderRecord(record, lang),
		Burn:   renderBurn(nutrition.Estimate(record, params.input(), lang), lang),
	})
}

// handleEstimateBurn recomputes BMR and exercise suggestions from form state
func (s *FoodServer) handleEstimateBurn(ctx context.Context, req *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	var params BiometricParams
	if err := extractParams(req, &params); err != nil {
		return nil, err
	}

	lang := i18n.Resolve(params.Lang)

	s.mu.RLock()
	record := s.current
	s.mu.RUnlock()

	return s.createJSONResponse(map[string]interface{}{
		"lang": lang,
		"burn": renderBurn(nutrition.Estimate(record, params.input(), lang), lang),
	})
}

// handleChat forwards a nutrition question to the model
func (s *FoodServer) handleChat(ctx context.Context, req *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	var params ChatParams
	if err := extractParams(req, &params); err != nil {
		return nil, err
	}

	message := strings.TrimSpace(params.Message)
	if message == "" {
		return nil, fmt.Errorf("%w: message is required", errInvalidParams)
	}

	reply, err := s.ai.Chat(ctx, message)
	if err != nil {
		logTransportError("chat", err)
		return s.createJSONResponse(map[string]interface{}{
			"error": i18n.StringsFor(i18n.Resolve(params.Lang)).ChatError,
		})
	}

	return s.createJSONResponse(map[string]interface{}{
		"reply": reply,
	})
}

// handleGetFoodLog returns the log grouped by date
func (s *FoodServer) handleGetFoodLog(ctx context.Context, req *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	var params LangParams
	if err := extractParams(req, &params); err != nil {
		return nil, err
	}

	lang := i18n.Resolve(params.Lang)
	return s.createJSONResponse(renderLog(s.foodLog.GroupedByDate(), lang))
}

// handleClearFoodLog removes every log entry
func (s *FoodServer) handleClearFoodLog(ctx context.Context, req *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	// The durable delete finishes in the background; failures are logged.
	s.foodLog.ClearAll()

	return s.createJSONResponse(map[string]interface{}{
		"cleared": true,
	})
}

func (s *FoodServer) handleGetStrings(ctx context.Context, req *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	var params LangParams
	if err := extractParams(req, &params); err != nil {
		return nil, err
	}

	lang := i18n.Resolve(params.Lang)
	return s.createJSONResponse(map[string]interface{}{
		"lang":    lang,
		"strings": i18n.StringsFor(lang),
	})
}

func (s *FoodServer) handleGetOnboarding(ctx context.Context, req *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	completed, err := s.onboarding.Completed(ctx)
	if err != nil {
		log.Printf("Warning: failed to read onboarding flag: %v", err)
	}

	return s.createJSONResponse(map[string]interface{}{
		"completed": completed,
		"steps":     i18n.OnboardingSteps(),
	})
}

func (s *FoodServer) handleCompleteOnboarding(ctx context.Context, req *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	if err := s.onboarding.Complete(ctx); err != nil {
		log.Printf("Warning: failed to save onboarding flag: %v", err)
	}

	return s.createJSONResponse(map[string]interface{}{
		"completed": true,
	})
}

func logTransportError(op string, err error) {
	var te *gemini.TransportError
	if errors.As(err, &te) {
		log.Printf("Warning: %s failed (%s, status %d): %v", op, te.Kind, te.StatusCode, te.Err)
		return
	}
	log.Printf("Warning: %s failed: %v", op, err)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
