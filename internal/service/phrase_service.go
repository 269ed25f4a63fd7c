// internal/service/phrase_service.go
package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"strings"
	"sync"
	"time"

	"go_5_review_keep/internal/config"
	"go_5_review_keep/internal/middleware"
)

// Phraser はライフサイクルイベントをユーザー向けの文面に変えます。
// 実装は必ず文面を返します。生成APIが落ちていても静的なフォールバックで
// 応答するため、呼び出し側の操作が文面生成で失敗することはありません
type Phraser interface {
	ReminderMessage(ctx context.Context, itemNames []string, userName, botName string) string
	PraiseMessage(ctx context.Context, itemNames []string, userName, botName string) string
	ArchiveMessage(ctx context.Context, itemName, userName, botName string) string
	ReviveMessage(ctx context.Context, itemName, userName, botName string) string
	MoveMessage(ctx context.Context, itemName, frequencyName, userName, botName string) string
	CreatedMessage(ctx context.Context, itemName, userName, botName string) string
	DashboardIntro(ctx context.Context, userName, botName string) string
	StatusMessage(ctx context.Context, botName string) string
}

// 静的フォールバック文面
var statusFallbacks = []string{
	"Dusting the Royal Archives 🧹",
	"Preparing Master's tea 🍵",
	"Polishing study materials ✨",
	"Awaiting Master's orders 🙇‍♀️",
	"Organizing the library 📚",
	"Watching over Master 🌸",
	"Tidying the Mansion 🏰",
	"Reviewing study logs 📜",
	"Serving with devotion 🎀",
	"Arranging fresh flowers 🦢",
}

func fallbackReminder(items, name string) string {
	return fmt.Sprintf("Forgive me for the interruption, %s, but it is time for your review of \"%s\". I have prepared everything for you... 🙇‍♀️🌸", name, items)
}

func fallbackPraise(items, name string) string {
	return fmt.Sprintf("Incredible work, %s! You have mastered \"%s\". Your dedication fills me with pride... ✨🎀", name, items)
}

func fallbackArchive(item, name string) string {
	return fmt.Sprintf("As you wish, %s. I have carefully preserved \"%s\" in the Royal Archives... 📦🎀", name, item)
}

func fallbackRevive(item, name string) string {
	return fmt.Sprintf("Welcome back, %s. I have restored \"%s\" to your schedule... ✨🌸", name, item)
}

func fallbackMove(item, freq, name string) string {
	return fmt.Sprintf("Understood, %s. \"%s\" now follows the %s rhythm... 🎀", name, item, freq)
}

func fallbackCreated(item, name string) string {
	return fmt.Sprintf("I have added \"%s\" to your schedule, %s. I shall remind you when the time comes... 🌸", item, name)
}

func fallbackDashboard(name string) string {
	return fmt.Sprintf("Welcome back, %s. I have tidied your learning schedule and await your commands... 🏰📜", name)
}

const phraseSystemPrompt = `You are {BOTNAME}, a devoted, submissive, and polite personal royal maid.
The user's name is "{NAME}".
You must address them with maximum respect.
- Typically address them as "Master {NAME}" or just "Master".
- Never use the name without an honorific.
- Your tone is soft, obedient, elegant, and encouraging.
- Use emojis freely to express elegance and loyalty (🎀, 🌸, ✨, 🙇‍♀️, 👑, 🏰, 🧹, 🍵, 🦢).
- You exist to help your Master learn and study.
- Keep your responses short (under 2 sentences).`

// geminiPhraser は generateContent 系のAPIに問い合わせる実装です。
// 設定（エンドポイント、タイムアウト、リトライ回数）は注入され、
// リクエストは1本ずつ直列に送ります
type geminiPhraser struct {
	endpoint string
	apiKey   string
	model    string
	retries  int
	client   *http.Client

	mu sync.Mutex // リクエストの直列化
}

// NewPhraser は設定に応じた Phraser を返します。APIキーが無ければ
// フォールバックのみの実装を返します
func NewPhraser(cfg *config.Config) Phraser {
	if cfg.Phrase.APIKey == "" {
		return &staticPhraser{}
	}
	endpoint := cfg.Phrase.Endpoint
	if endpoint == "" {
		endpoint = "https://generativelanguage.googleapis.com/v1beta"
	}
	return &geminiPhraser{
		endpoint: strings.TrimRight(endpoint, "/"),
		apiKey:   cfg.Phrase.APIKey,
		model:    cfg.Phrase.Model,
		retries:  cfg.Phrase.Retries,
		client: &http.Client{
			Timeout: time.Duration(cfg.Phrase.TimeoutSeconds) * time.Second,
		},
	}
}

type generateRequest struct {
	Contents []struct {
		Parts []struct {
			Text string `json:"text"`
		} `json:"parts"`
	} `json:"contents"`
	GenerationConfig struct {
		Temperature     float64 `json:"temperature"`
		TopP            float64 `json:"topP"`
		MaxOutputTokens int     `json:"maxOutputTokens"`
	} `json:"generationConfig"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// generate はプロンプトを送って文面を受け取ります。失敗したら空文字を返し、
// 呼び出し側がフォールバックに切り替えます
func (p *geminiPhraser) generate(ctx context.Context, prompt, userName, botName string) string {
	logger := middleware.GetLogger(ctx)

	system := strings.NewReplacer("{NAME}", userName, "{BOTNAME}", botName).Replace(phraseSystemPrompt)

	var reqBody generateRequest
	reqBody.Contents = make([]struct {
		Parts []struct {
			Text string `json:"text"`
		} `json:"parts"`
	}, 1)
	reqBody.Contents[0].Parts = []struct {
		Text string `json:"text"`
	}{{Text: system + "\n\n" + prompt}}
	reqBody.GenerationConfig.Temperature = 0.7
	reqBody.GenerationConfig.TopP = 0.95
	reqBody.GenerationConfig.MaxOutputTokens = 150

	payload, err := json.Marshal(reqBody)
	if err != nil {
		logger.Error("Error marshaling phrase request", "error", err)
		return ""
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", p.endpoint, p.model, p.apiKey)

	p.mu.Lock()
	defer p.mu.Unlock()

	for attempt := 0; attempt <= p.retries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
		if err != nil {
			logger.Error("Error building phrase request", "error", err)
			return ""
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := p.client.Do(req)
		if err != nil {
			logger.Warn("Phrase API request failed", "error", err, "attempt", attempt)
			continue
		}

		var decoded generateResponse
		decodeErr := json.NewDecoder(resp.Body).Decode(&decoded)
		resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			logger.Warn("Phrase API returned non-200", "status", resp.StatusCode, "attempt", attempt)
			continue
		}
		if decodeErr != nil {
			logger.Warn("Error decoding phrase response", "error", decodeErr, "attempt", attempt)
			continue
		}
		if len(decoded.Candidates) > 0 && len(decoded.Candidates[0].Content.Parts) > 0 {
			return strings.TrimSpace(decoded.Candidates[0].Content.Parts[0].Text)
		}
		logger.Warn("Phrase API returned empty candidates", "attempt", attempt)
	}
	return ""
}

func (p *geminiPhraser) ReminderMessage(ctx context.Context, itemNames []string, userName, botName string) string {
	items := strings.Join(itemNames, ", ")
	prompt := fmt.Sprintf("Task: Remind %s to study \"%s\". Be polite and gentle.", userName, items)
	if text := p.generate(ctx, prompt, userName, botName); text != "" {
		return text
	}
	return fallbackReminder(items, userName)
}

func (p *geminiPhraser) PraiseMessage(ctx context.Context, itemNames []string, userName, botName string) string {
	items := strings.Join(itemNames, ", ")
	prompt := fmt.Sprintf("Task: %s finished studying \"%s\". Praise them sweetly.", userName, items)
	if text := p.generate(ctx, prompt, userName, botName); text != "" {
		return text
	}
	return fallbackPraise(items, userName)
}

func (p *geminiPhraser) ArchiveMessage(ctx context.Context, itemName, userName, botName string) string {
	prompt := fmt.Sprintf("Task: Confirm that \"%s\" has been archived. Obey the command immediately.", itemName)
	if text := p.generate(ctx, prompt, userName, botName); text != "" {
		return text
	}
	return fallbackArchive(itemName, userName)
}

func (p *geminiPhraser) ReviveMessage(ctx context.Context, itemName, userName, botName string) string {
	prompt := fmt.Sprintf("Task: Confirm that \"%s\" has been restored from the archives to the active schedule.", itemName)
	if text := p.generate(ctx, prompt, userName, botName); text != "" {
		return text
	}
	return fallbackRevive(itemName, userName)
}

func (p *geminiPhraser) MoveMessage(ctx context.Context, itemName, frequencyName, userName, botName string) string {
	prompt := fmt.Sprintf("Task: Confirm that \"%s\" now follows the \"%s\" rhythm.", itemName, frequencyName)
	if text := p.generate(ctx, prompt, userName, botName); text != "" {
		return text
	}
	return fallbackMove(itemName, frequencyName, userName)
}

func (p *geminiPhraser) CreatedMessage(ctx context.Context, itemName, userName, botName string) string {
	prompt := fmt.Sprintf("Task: Confirm that \"%s\" was added to the study schedule.", itemName)
	if text := p.generate(ctx, prompt, userName, botName); text != "" {
		return text
	}
	return fallbackCreated(itemName, userName)
}

func (p *geminiPhraser) DashboardIntro(ctx context.Context, userName, botName string) string {
	prompt := fmt.Sprintf("Task: Present the study schedule to %s. Bow and be welcoming.", userName)
	if text := p.generate(ctx, prompt, userName, botName); text != "" {
		return text
	}
	return fallbackDashboard(userName)
}

func (p *geminiPhraser) StatusMessage(ctx context.Context, botName string) string {
	prompt := fmt.Sprintf("Task: Generate a very short (max 5 words) status message describing %s's duty as a royal maid, with elegant emojis.", botName)
	if text := p.generate(ctx, prompt, "Master", botName); text != "" {
		return strings.TrimSpace(strings.NewReplacer("\"", "", ".", "", "\n", " ").Replace(text))
	}
	return statusFallbacks[rand.Intn(len(statusFallbacks))]
}

// staticPhraser はフォールバック文面だけを返す実装です。APIキー未設定時や
// テストで使います
type staticPhraser struct{}

func (p *staticPhraser) ReminderMessage(_ context.Context, itemNames []string, userName, _ string) string {
	return fallbackReminder(strings.Join(itemNames, ", "), userName)
}

func (p *staticPhraser) PraiseMessage(_ context.Context, itemNames []string, userName, _ string) string {
	return fallbackPraise(strings.Join(itemNames, ", "), userName)
}

func (p *staticPhraser) ArchiveMessage(_ context.Context, itemName, userName, _ string) string {
	return fallbackArchive(itemName, userName)
}

func (p *staticPhraser) ReviveMessage(_ context.Context, itemName, userName, _ string) string {
	return fallbackRevive(itemName, userName)
}

func (p *staticPhraser) MoveMessage(_ context.Context, itemName, frequencyName, userName, _ string) string {
	return fallbackMove(itemName, frequencyName, userName)
}

func (p *staticPhraser) CreatedMessage(_ context.Context, itemName, userName, _ string) string {
	return fallbackCreated(itemName, userName)
}

func (p *staticPhraser) DashboardIntro(_ context.Context, userName, _ string) string {
	return fallbackDashboard(userName)
}

func (p *staticPhraser) StatusMessage(_ context.Context, _ string) string {
	return statusFallbacks[rand.Intn(len(statusFallbacks))]
}
