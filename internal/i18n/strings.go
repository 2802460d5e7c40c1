// internal/i18n/strings.go
package i18n

import (
	"strings"

	"healthai/internal/models"
)

// DefaultLanguage is used for any unrecognized tag.
const DefaultLanguage = models.Vietnamese

// Bundle is the full set of UI strings for one language.
type Bundle struct {
	Title             string `json:"title"`
	Subtitle          string `json:"subtitle"`
	PickImage         string `json:"pick_image"`
	TitleModal        string `json:"title_modal"`
	Camera            string `json:"camera"`
	Gallery           string `json:"gallery"`
	Cancel            string `json:"cancel"`
	Analyzing         string `json:"analyzing"`
	Analysis          string `json:"analysis"`
	Calories          string `json:"calories"`
	Protein           string `json:"protein"`
	Carbs             string `json:"carbs"`
	Fat               string `json:"fat"`
	Benefits          string `json:"benefits"`
	Ingredients       string `json:"ingredients"`
	Weight            string `json:"weight"`
	Height            string `json:"height"`
	Age               string `json:"age"`
	BurnCalories      string `json:"burn_calories"`
	Walk              string `json:"walk"`
	Run               string `json:"run"`
	Minutes           string `json:"minutes"`
	EnergyFromFood    string `json:"energy_from_food"`
	BMRMale           string `json:"bmr_male"`
	BMRFemale         string `json:"bmr_female"`
	ExerciseSuggest   string `json:"exercise_suggest"`
	BMRTooltipTitle   string `json:"bmr_tooltip_title"`
	BMRTooltipContent string `json:"bmr_tooltip_content"`
	Guide             string `json:"guide"`
	FoodLog           string `json:"food_log"`
	Clear             string `json:"clear"`
	EmptyLog          string `json:"empty_log"`
	NoData            string `json:"no_data"`
	TransportError    string `json:"transport_error"`
	ParseError        string `json:"parse_error"`
	ChatError         string `json:"chat_error"`
	Busy              string `json:"busy"`
}

// Step is one onboarding screen.
type Step struct {
	Title     string `json:"title"`
	Body      string `json:"body"`
	NextLabel string `json:"next_label"`
}

var bundles = map[models.LanguageTag]Bundle{
	models.Vietnamese: {
		Title:           "🥗 HealthAI",
		Subtitle:        "Chụp ảnh món ăn → AI phân tích dinh dưỡng",
		PickImage:       "📷 Chọn ảnh món ăn",
		TitleModal:      "Chọn nguồn ảnh",
		Camera:          "📸 Chụp ảnh",
		Gallery:         "🖼️ Thư viện",
		Cancel:          "Hủy",
		Analyzing:       "Đang phân tích...",
		Analysis:        "🔄 Phân tích lại",
		Calories:        "🔥 Calories",
		Protein:         "💪 Protein",
		Carbs:           "🍚 Carbs",
		Fat:             "🥑 Fat",
		Benefits:        "🌱 Lợi ích",
		Ingredients:     "🥦 Nguyên liệu",
		Weight:          "⚖️ Cân nặng (kg)",
		Height:          "📏 Chiều cao (cm)",
		Age:             "🎂 Tuổi",
		BurnCalories:    "🏃 Vận động cần thiết",
		Walk:            "🚶 Đi bộ",
		Run:             "🏃 Chạy bộ",
		Minutes:         "phút",
		EnergyFromFood:  "⚡ Năng lượng từ món ăn",
		BMRMale:         "👨 Nam cần BMR ~",
		BMRFemale:       "👩 Nữ cần BMR ~",
		ExerciseSuggest: "🏋️ Gợi ý vận động để đốt",
		BMRTooltipTitle: "BMR là gì?",
		BMRTooltipContent: "BMR (Basal Metabolic Rate) là lượng năng lượng tối thiểu cơ thể cần để duy trì sự sống (thở, tim đập, tuần hoàn...). " +
			"Biết BMR giúp bạn ước tính số calo nên ăn và mức vận động cần thiết.",
		Guide: "👋 Chào mừng bạn đến với HealthAI!\n" +
			"👉 Hãy nhập tuổi, cân nặng, chiều cao và chọn ảnh món ăn mà bạn muốn phân tích.\n" +
			"🧠 Ứng dụng sẽ sử dụng AI để:\n" +
			" • Tính toán lượng calo trung bình phù hợp với cơ thể bạn.\n" +
			" • Phân tích dinh dưỡng trong món ăn bạn chọn.\n" +
			" • Gợi ý mức vận động cần thiết để cân bằng năng lượng.\n" +
			"✅ Mục tiêu: Giúp bạn hiểu rõ hơn về chế độ ăn uống và sức khoẻ hằng ngày.",
		FoodLog:        "📒 Nhật ký ăn uống",
		Clear:          "🗑️ Xóa tất cả",
		EmptyLog:       "Chưa có dữ liệu",
		NoData:         "❌ Không có dữ liệu",
		TransportError: "❌ Lỗi khi gọi Gemini API.",
		ParseError:     "⚠️ Không đọc được JSON từ Gemini.",
		ChatError:      "⚠️ Xin lỗi, có lỗi xảy ra.",
		Busy:           "⏳ Đang phân tích một ảnh khác, vui lòng đợi.",
	},
	models.English: {
		Title:           "🥗 HealthAI",
		Subtitle:        "Take a food photo → AI analyzes nutrition",
		PickImage:       "📷 Pick a food image",
		TitleModal:      "Choose image source",
		Camera:          "📸 Take photo",
		Gallery:         "🖼️ Gallery",
		Cancel:          "Cancel",
		Analyzing:       "Analyzing...",
		Analysis:        "🔄 Re-analyze",
		Calories:        "🔥 Calories",
		Protein:         "💪 Protein",
		Carbs:           "🍚 Carbs",
		Fat:             "🥑 Fat",
		Benefits:        "🌱 Benefits",
		Ingredients:     "🥦 Ingredients",
		Weight:          "⚖️ Weight (kg)",
		Height:          "📏 Height (cm)",
		Age:             "🎂 Age",
		BurnCalories:    "🏃 Exercise required",
		Walk:            "🚶 Walking",
		Run:             "🏃 Running",
		Minutes:         "min",
		EnergyFromFood:  "⚡ Energy from food",
		BMRMale:         "👨 Male BMR ~",
		BMRFemale:       "👩 Female BMR ~",
		ExerciseSuggest: "🏋️ Suggested exercise to burn",
		BMRTooltipTitle: "What is BMR?",
		BMRTooltipContent: "BMR (Basal Metabolic Rate) is the minimum energy your body needs to maintain vital functions (breathing, heartbeat, circulation...). " +
			"Knowing your BMR helps estimate calorie intake and exercise needs.",
		Guide: "👋 Welcome to HealthAI!\n" +
			"👉 Enter your age, weight, height and select the food image you want to analyze.\n" +
			"🧠 The app will use AI to:\n" +
			" • Calculate the average calorie intake suitable for your body.\n" +
			" • Analyze the nutrition in the food you choose.\n" +
			" • Suggest the necessary level of activity to balance energy.\n" +
			"✅ Objective: Help you better understand your daily diet and health.",
		FoodLog:        "📒 Food log",
		Clear:          "🗑️ Clear all",
		EmptyLog:       "No entries yet",
		NoData:         "❌ No data",
		TransportError: "❌ Error calling the Gemini API.",
		ParseError:     "⚠️ Could not read JSON from Gemini.",
		ChatError:      "⚠️ Sorry, something went wrong.",
		Busy:           "⏳ Another image is being analyzed, please wait.",
	},
	models.Japanese: {
		Title:           "🥗 ヘルスAI",
		Subtitle:        "料理の写真を撮る → AIが栄養を分析",
		PickImage:       "📷 食べ物の写真を選択",
		TitleModal:      "画像の取得方法を選択",
		Camera:          "📸 写真を撮る",
		Gallery:         "🖼️ ギャラリー",
		Cancel:          "キャンセル",
		Analyzing:       "分析中...",
		Analysis:        "🔄 再分析",
		Calories:        "🔥 カロリー",
		Protein:         "💪 たんぱく質",
		Carbs:           "🍚 炭水化物",
		Fat:             "🥑 脂質",
		Benefits:        "🌱 効能",
		Ingredients:     "🥦 材料",
		Weight:          "⚖️ 体重 (kg)",
		Height:          "📏 身長 (cm)",
		Age:             "🎂 年齢",
		BurnCalories:    "🏃 必要な運動量",
		Walk:            "🚶 ウォーキング",
		Run:             "🏃 ランニング",
		Minutes:         "分",
		EnergyFromFood:  "⚡ 食事からのエネルギー",
		BMRMale:         "👨 男性のBMR ~",
		BMRFemale:       "👩 女性のBMR ~",
		ExerciseSuggest: "🏋️ 消費するための運動",
		BMRTooltipTitle: "BMRとは？",
		BMRTooltipContent: "BMR（基礎代謝量）は、呼吸や心拍など生命維持に必要な最小限のエネルギーです。" +
			"BMRを知ることで、食事や運動の目安が分かります。",
		Guide: "👋 HealthAI へようこそ！\n" +
			"👉 年齢、体重、身長を入力し、分析したい食べ物の画像を選択してください。\n" +
			"🧠 アプリはAIを使用して以下のことを行います。\n" +
			" • あなたの体に適した平均カロリー摂取量を計算します。\n" +
			" • 選択した食品の栄養を分析します。\n" +
			" • エネルギーバランスを整えるために必要な活動レベルを提案します。\n" +
			"✅ 目的: 毎日の食事と健康状態をより深く理解できるようにします。",
		FoodLog:        "📒 食事記録",
		Clear:          "🗑️ すべて削除",
		EmptyLog:       "まだデータがありません",
		NoData:         "❌ データがありません",
		TransportError: "❌ Gemini API の呼び出しに失敗しました。",
		ParseError:     "⚠️ Gemini から JSON を読み取れませんでした。",
		ChatError:      "⚠️ 申し訳ありません、エラーが発生しました。",
		Busy:           "⏳ 別の画像を分析中です。しばらくお待ちください。",
	},
}

var onboarding = []Step{
	{
		Title: "👋 Chào mừng bạn đến với HealthAI!",
		Body: "Ứng dụng giúp bạn phân tích dinh dưỡng từ món ăn 🍜\n\n" +
			"👉 Nhập tuổi, cân nặng, chiều cao và chọn ảnh món ăn.\n\n" +
			"🧠 AI sẽ phân tích và gợi ý chế độ ăn phù hợp.",
		NextLabel: "Tiếp theo ➡️",
	},
	{
		Title: "👋 Welcome to HealthAI!",
		Body: "This app helps you analyze nutrition from your food 🍔\n\n" +
			"👉 Enter your age, weight, height, and choose a food photo.\n\n" +
			"🧠 AI will analyze and suggest a suitable diet.",
		NextLabel: "Next ➡️",
	},
	{
		Title: "👋 ヘルスAIへようこそ!",
		Body: "このアプリは料理の栄養を分析します 🍣\n\n" +
			"👉 年齢、体重、身長を入力し、食べ物の写真を選んでください。\n\n" +
			"🧠 AIが分析して適切な食事を提案します。",
		NextLabel: "始めましょう 🎉",
	},
}

// ParseLanguage maps user input such as "EN" or " ja " to a tag.
func ParseLanguage(s string) (models.LanguageTag, bool) {
	tag := models.LanguageTag(strings.ToLower(strings.TrimSpace(s)))
	return tag, tag.Valid()
}

// Resolve returns lang if recognized, otherwise DefaultLanguage.
func Resolve(s string) models.LanguageTag {
	if tag, ok := ParseLanguage(s); ok {
		return tag
	}
	return DefaultLanguage
}

// StringsFor returns the bundle for lang, falling back to DefaultLanguage.
func StringsFor(lang models.LanguageTag) Bundle {
	if b, ok := bundles[lang]; ok {
		return b
	}
	return bundles[DefaultLanguage]
}

// OnboardingSteps returns the onboarding screens in order.
func OnboardingSteps() []Step {
	return append([]Step(nil), onboarding...)
}
