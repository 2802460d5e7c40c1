// internal/models/nutrition.go
package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// LanguageTag selects which projection of a localized field is shown.
type LanguageTag string

const (
	Vietnamese LanguageTag = "vi"
	English    LanguageTag = "en"
	Japanese   LanguageTag = "ja"
)

// Languages lists the recognized tags in display order.
var Languages = []LanguageTag{Vietnamese, English, Japanese}

// Valid reports whether l is one of the recognized tags.
func (l LanguageTag) Valid() bool {
	switch l {
	case Vietnamese, English, Japanese:
		return true
	}
	return false
}

// LocalizedValue holds one translation: either display text or an itemized list.
type LocalizedValue struct {
	Text  string
	Items []string
	List  bool
}

func TextValue(s string) LocalizedValue {
	return LocalizedValue{Text: s}
}

func ListValue(items ...string) LocalizedValue {
	return LocalizedValue{Items: items, List: true}
}

func (v LocalizedValue) IsEmpty() bool {
	if v.List {
		return len(v.Items) == 0
	}
	return strings.TrimSpace(v.Text) == ""
}

func (v LocalizedValue) MarshalJSON() ([]byte, error) {
	if v.List {
		items := v.Items
		if items == nil {
			items = []string{}
		}
		return json.Marshal(items)
	}
	return json.Marshal(v.Text)
}

// UnmarshalJSON accepts a string, a number (kept as its literal text) or an
// array of strings. Anything else is rejected.
func (v *LocalizedValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return fmt.Errorf("empty localized value")
	}

	switch c := data[0]; {
	case c == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = TextValue(s)
	case c == '[':
		var items []string
		if err := json.Unmarshal(data, &items); err != nil {
			return fmt.Errorf("localized list must hold strings: %w", err)
		}
		*v = ListValue(items...)
	case c == '-' || (c >= '0' && c <= '9'):
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return err
		}
		*v = TextValue(n.String())
	default:
		return fmt.Errorf("unsupported localized value %s", data)
	}
	return nil
}

// Localized maps a language tag to its translation of one field.
type Localized map[LanguageTag]LocalizedValue

// UnmarshalJSON skips null translations so they read as absent.
func (l *Localized) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == nil {
		*l = nil
		return nil
	}

	out := make(Localized, len(raw))
	for tag, msg := range raw {
		if bytes.Equal(bytes.TrimSpace(msg), []byte("null")) {
			continue
		}
		var v LocalizedValue
		if err := json.Unmarshal(msg, &v); err != nil {
			return fmt.Errorf("translation %q: %w", tag, err)
		}
		out[LanguageTag(tag)] = v
	}
	*l = out
	return nil
}

// Lookup returns the translation for lang, if any.
func (l Localized) Lookup(lang LanguageTag) (LocalizedValue, bool) {
	v, ok := l[lang]
	if !ok || v.IsEmpty() {
		return LocalizedValue{}, false
	}
	return v, true
}

// Text renders the translation for lang as one line, or placeholder when absent.
func (l Localized) Text(lang LanguageTag, placeholder string) string {
	v, ok := l.Lookup(lang)
	if !ok {
		return placeholder
	}
	if v.List {
		return strings.Join(v.Items, ", ")
	}
	return v.Text
}

// Items renders the translation for lang as a list. Scalar text becomes a
// single item.
func (l Localized) Items(lang LanguageTag) []string {
	v, ok := l.Lookup(lang)
	if !ok {
		return nil
	}
	if v.List {
		return append([]string(nil), v.Items...)
	}
	return []string{v.Text}
}

func (l Localized) Clone() Localized {
	if l == nil {
		return nil
	}
	out := make(Localized, len(l))
	for tag, v := range l {
		if v.Items != nil {
			v.Items = append([]string(nil), v.Items...)
		}
		out[tag] = v
	}
	return out
}

// NutritionRecord is the parsed result of one image analysis.
type NutritionRecord struct {
	Name        Localized `json:"name,omitempty"`
	Ingredients Localized `json:"ingredients,omitempty"`
	Calories    Localized `json:"calories,omitempty"`
	Protein     Localized `json:"protein,omitempty"`
	Carbs       Localized `json:"carbs,omitempty"`
	Fat         Localized `json:"fat,omitempty"`
	Benefits    Localized `json:"benefits,omitempty"`
}

func (r NutritionRecord) Clone() NutritionRecord {
	return NutritionRecord{
		Name:        r.Name.Clone(),
		Ingredients: r.Ingredients.Clone(),
		Calories:    r.Calories.Clone(),
		Protein:     r.Protein.Clone(),
		Carbs:       r.Carbs.Clone(),
		Fat:         r.Fat.Clone(),
		Benefits:    r.Benefits.Clone(),
	}
}

// FoodLogEntry is a NutritionRecord committed to the food log.
type FoodLogEntry struct {
	ID   string `json:"id"`
	Date string `json:"date"`
	NutritionRecord
}

// DateGroup is the slice of log entries sharing one date string.
type DateGroup struct {
	Date    string         `json:"date"`
	Entries []FoodLogEntry `json:"entries"`
}

// BiometricInput is transient form state; absent values are nil.
type BiometricInput struct {
	Age      *int
	WeightKg *float64
	HeightCm *float64
}

func (b BiometricInput) Complete() bool {
	return b.Age != nil && b.WeightKg != nil && b.HeightCm != nil
}
