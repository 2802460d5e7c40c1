// internal/nutrition/burn.go
package nutrition

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"healthai/internal/models"
)

// Activity is an exercise with a fixed burn rate.
type Activity struct {
	Key      string
	Name     map[models.LanguageTag]string
	CalPer30 float64
}

// Activities is the fixed suggestion table, in display order.
var Activities = []Activity{
	{
		Key:      "running",
		Name:     map[models.LanguageTag]string{models.Vietnamese: "🏃‍♂️ Chạy bộ", models.English: "Running", models.Japanese: "ランニング"},
		CalPer30: 300,
	},
	{
		Key:      "fast_walking",
		Name:     map[models.LanguageTag]string{models.Vietnamese: "🚶‍♀️ Đi bộ nhanh", models.English: "Fast Walking", models.Japanese: "早歩き"},
		CalPer30: 150,
	},
	{
		Key:      "cycling",
		Name:     map[models.LanguageTag]string{models.Vietnamese: "🚴‍♂️ Đạp xe", models.English: "Cycling", models.Japanese: "サイクリング"},
		CalPer30: 250,
	},
	{
		Key:      "swimming",
		Name:     map[models.LanguageTag]string{models.Vietnamese: "🏊‍♀️ Bơi lội", models.English: "Swimming", models.Japanese: "水泳"},
		CalPer30: 350,
	},
}

// ActivitySuggestion is one localized line of the exercise suggestion list.
type ActivitySuggestion struct {
	Key     string `json:"key"`
	Name    string `json:"name"`
	Minutes int    `json:"minutes"`
}

// BurnInfo is the derived energy view for one record and one set of biometrics.
type BurnInfo struct {
	FoodCalories float64              `json:"food_calories"`
	MaleBMR      float64              `json:"male_bmr"`
	FemaleBMR    float64              `json:"female_bmr"`
	Activities   []ActivitySuggestion `json:"activities"`
}

var digitRun = regexp.MustCompile(`[0-9]+`)

// ExtractCalories returns the first run of decimal digits in s, or 0.
func ExtractCalories(s string) float64 {
	m := digitRun.FindString(s)
	if m == "" {
		return 0
	}
	v, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0
	}
	return v
}

// MaleBMR is the Harris–Benedict estimate for men.
func MaleBMR(weightKg, heightCm float64, age int) float64 {
	return 88.362 + 13.397*weightKg + 4.799*heightCm - 5.677*float64(age)
}

// FemaleBMR is the Harris–Benedict estimate for women.
func FemaleBMR(weightKg, heightCm float64, age int) float64 {
	return 447.593 + 9.247*weightKg + 3.098*heightCm - 4.330*float64(age)
}

// MaxFoodCalories bounds the calorie figure Estimate accepts. Larger values
// are treated as a bad model reply rather than a meal.
const MaxFoodCalories = 100000

// maxMinutes caps MinutesToBurn so the result fits any int.
const maxMinutes = math.MaxInt32

// MinutesToBurn is how long an activity must last to burn foodCalories.
// The result is capped at math.MaxInt32.
func MinutesToBurn(foodCalories, calPer30 float64) int {
	if calPer30 <= 0 || foodCalories <= 0 || math.IsNaN(foodCalories) {
		return 0
	}
	m := math.Ceil(foodCalories * 30 / calPer30)
	if m >= maxMinutes {
		return maxMinutes
	}
	return int(m)
}

// ParseBiometrics turns raw form text into BiometricInput. Blank,
// non-numeric or non-positive values are left nil.
func ParseBiometrics(age, weight, height string) models.BiometricInput {
	var in models.BiometricInput

	if a, err := strconv.Atoi(strings.TrimSpace(age)); err == nil && a > 0 {
		in.Age = &a
	}
	if w, ok := positiveFloat(weight); ok {
		in.WeightKg = &w
	}
	if h, ok := positiveFloat(height); ok {
		in.HeightCm = &h
	}
	return in
}

func positiveFloat(s string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || v <= 0 || math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, false
	}
	return v, true
}

// Estimate derives BMR and exercise suggestions for rec. It returns nil when
// there is nothing to show: no record, incomplete biometrics, or no positive
// calorie figure in the lang translation. Figures above MaxFoodCalories
// count as absent.
func Estimate(rec *models.NutritionRecord, in models.BiometricInput, lang models.LanguageTag) *BurnInfo {
	if rec == nil || !in.Complete() {
		return nil
	}

	calories := ExtractCalories(rec.Calories.Text(lang, ""))
	if calories <= 0 || calories > MaxFoodCalories {
		return nil
	}

	w, h, a := *in.WeightKg, *in.HeightCm, *in.Age
	info := &BurnInfo{
		FoodCalories: calories,
		MaleBMR:      MaleBMR(w, h, a),
		FemaleBMR:    FemaleBMR(w, h, a),
		Activities:   make([]ActivitySuggestion, 0, len(Activities)),
	}
	for _, act := range Activities {
		info.Activities = append(info.Activities, ActivitySuggestion{
			Key:     act.Key,
			Name:    act.Name[lang],
			Minutes: MinutesToBurn(calories, act.CalPer30),
		})
	}
	return info
}
