// internal/server/render.go
package server

import (
	"fmt"
	"strconv"

	"healthai/internal/i18n"
	"healthai/internal/models"
	"healthai/internal/nutrition"
)

// NutritionView is a record projected onto one language, with placeholders
// for missing translations.
type NutritionView struct {
	Name        string   `json:"name"`
	Calories    string   `json:"calories"`
	Protein     string   `json:"protein"`
	Carbs       string   `json:"carbs"`
	Fat         string   `json:"fat"`
	Ingredients []string `json:"ingredients"`
	Benefits    []string `json:"benefits"`
}

// BurnView is BurnInfo plus the display lines shown under the record.
type BurnView struct {
	nutrition.BurnInfo
	Lines []string `json:"lines"`
}

type LogRow struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

type LogGroup struct {
	Date          string   `json:"date"`
	TotalCalories float64  `json:"total_calories"`
	Rows          []LogRow `json:"rows"`
}

type LogView struct {
	Lang   models.LanguageTag `json:"lang"`
	Title  string             `json:"title"`
	Empty  string             `json:"empty,omitempty"`
	Groups []LogGroup         `json:"groups"`
}

func renderRecord(rec *models.NutritionRecord, lang models.LanguageTag) *NutritionView {
	noData := i18n.StringsFor(lang).NoData
	return &NutritionView{
		Name:        rec.Name.Text(lang, noData),
		Calories:    rec.Calories.Text(lang, noData),
		Protein:     rec.Protein.Text(lang, noData),
		Carbs:       rec.Carbs.Text(lang, noData),
		Fat:         rec.Fat.Text(lang, noData),
		Ingredients: itemsOrPlaceholder(rec.Ingredients, lang, noData),
		Benefits:    itemsOrPlaceholder(rec.Benefits, lang, noData),
	}
}

func itemsOrPlaceholder(l models.Localized, lang models.LanguageTag, placeholder string) []string {
	if items := l.Items(lang); len(items) > 0 {
		return items
	}
	return []string{placeholder}
}

func renderBurn(info *nutrition.BurnInfo, lang models.LanguageTag) *BurnView {
	if info == nil {
		return nil
	}

	b := i18n.StringsFor(lang)
	lines := []string{
		fmt.Sprintf("%s: %s kcal", b.EnergyFromFood, formatKcal(info.FoodCalories)),
		fmt.Sprintf("%s %.0f kcal/day", b.BMRMale, info.MaleBMR),
		fmt.Sprintf("%s %.0f kcal/day", b.BMRFemale, info.FemaleBMR),
		fmt.Sprintf("%s %s kcal:", b.ExerciseSuggest, formatKcal(info.FoodCalories)),
	}
	for _, act := range info.Activities {
		lines = append(lines, fmt.Sprintf("• %s ~ %d %s", act.Name, act.Minutes, b.Minutes))
	}

	return &BurnView{BurnInfo: *info, Lines: lines}
}

func renderLog(groups []models.DateGroup, lang models.LanguageTag) LogView {
	b := i18n.StringsFor(lang)
	view := LogView{
		Lang:   lang,
		Title:  b.FoodLog,
		Groups: make([]LogGroup, 0, len(groups)),
	}
	if len(groups) == 0 {
		view.Empty = b.EmptyLog
		return view
	}

	for _, g := range groups {
		group := LogGroup{Date: g.Date, Rows: make([]LogRow, 0, len(g.Entries))}
		for _, e := range g.Entries {
			group.Rows = append(group.Rows, LogRow{ID: e.ID, Text: logRowText(e, lang, b.NoData)})
			group.TotalCalories += nutrition.ExtractCalories(e.Calories.Text(lang, ""))
		}
		view.Groups = append(view.Groups, group)
	}
	return view
}

func logRowText(e models.FoodLogEntry, lang models.LanguageTag, noData string) string {
	name := e.Name.Text(lang, noData)
	if kcal := nutrition.ExtractCalories(e.Calories.Text(lang, "")); kcal > 0 {
		return fmt.Sprintf("• %s (%s kcal)", name, formatKcal(kcal))
	}
	return fmt.Sprintf("• %s (%s)", name, e.Calories.Text(lang, noData))
}

func formatKcal(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
