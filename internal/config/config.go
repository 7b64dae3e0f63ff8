// Package config загружает конфигурацию бота из переменных окружения.
// Используется envconfig для маппинга переменных окружения на поля структуры.
package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

// Бэкенды хранилища аккаунтов.
const (
	StoreBackendFile     = "file"
	StoreBackendPostgres = "postgres"
)

// Config содержит ВСЕ настройки приложения.
type Config struct {
	// --- Telegram ---
	TelegramBotToken string `envconfig:"TELEGRAM_BOT_TOKEN" required:"true"`
	// URL мини-приложения с кликером (кнопка "Начать игру")
	WebAppURL string `envconfig:"WEB_APP_URL" default:"https://clickerton.ru/clicker-app/index.html"`

	// --- Admin ---
	AdminIDsRaw       string  `envconfig:"ADMIN_IDS" default:""`
	AdminIDs          []int64 `envconfig:"-"` // заполним вручную из AdminIDsRaw
	AdminPasswordHash string  `envconfig:"ADMIN_PASSWORD_HASH" default:""`

	// --- Store ---
	// Бэкенд хранилища: "file" (users.json) или "postgres".
	StoreBackend  string `envconfig:"STORE_BACKEND" default:"file"`
	StoreFilePath string `envconfig:"STORE_FILE_PATH" default:"users.json"`
	// Папка для ночных бэкапов файлового хранилища
	StoreBackupDir string `envconfig:"STORE_BACKUP_DIR" default:"backups"`

	// --- Database (для STORE_BACKEND=postgres) ---
	// В Docker внутри контейнера "localhost" почти всегда неправильно.
	// Дефолт ставим "postgres" (имя сервиса в docker-compose).
	DBHost     string `envconfig:"DB_HOST" default:"postgres"`
	DBPort     int    `envconfig:"DB_PORT" default:"5432"`
	DBUser     string `envconfig:"DB_USER" default:"botuser"`
	DBPassword string `envconfig:"DB_PASSWORD" default:""`
	DBName     string `envconfig:"DB_NAME" default:"clicker_bot"`
	DBSSLMode  string `envconfig:"DB_SSLMODE" default:"disable"`
	DBMaxConns int32  `envconfig:"DB_MAX_CONNS" default:"25"`
	DBMinConns int32  `envconfig:"DB_MIN_CONNS" default:"5"`

	// --- Application ---
	AppEnv      string `envconfig:"APP_ENV" default:"development"`
	AppLogLevel string `envconfig:"APP_LOG_LEVEL" default:"debug"`

	// --- Bot runtime ---
	// Сколько апдейтов обрабатываем параллельно. Иначе "go на каждый апдейт" = утечка памяти при флуде.
	BotMaxInflight int `envconfig:"BOT_MAX_INFLIGHT" default:"64"`
	// Таймаут long polling (секунды)
	BotUpdateTimeoutSeconds int `envconfig:"BOT_UPDATE_TIMEOUT_SECONDS" default:"60"`

	// --- Economy ---
	// Монет за один клик, если мини-приложение не прислало своё значение
	ClickCoins int64 `envconfig:"ECONOMY_CLICK_COINS" default:"1"`
	// Монет за просмотр рекламы по умолчанию
	AdRewardCoins int64 `envconfig:"ECONOMY_AD_REWARD" default:"15"`
	// Бонус рефереру за приглашённого
	ReferralBonus int64 `envconfig:"ECONOMY_REFERRAL_BONUS" default:"50"`
	// Курс обмена: сколько монет стоит один гем
	ExchangeRate int64 `envconfig:"ECONOMY_EXCHANGE_RATE" default:"100000"`
	// Награда за победу в PvP
	PvPWinCoins   int64  `envconfig:"ECONOMY_PVP_WIN_COINS" default:"100"`
	PvPWinGemsRaw string `envconfig:"ECONOMY_PVP_WIN_GEMS" default:"0.01"`
	PvPWinGems    decimal.Decimal `envconfig:"-"` // заполним вручную из PvPWinGemsRaw

	// --- Languages ---
	SupportedLanguagesRaw string   `envconfig:"SUPPORTED_LANGUAGES" default:"ru,en"`
	SupportedLanguages    []string `envconfig:"-"`
	DefaultLanguage       string   `envconfig:"DEFAULT_LANGUAGE" default:"ru"`

	// --- Rate Limiting ---
	RateLimitRequests int           `envconfig:"RATE_LIMIT_REQUESTS" default:"10"`
	RateLimitWindow   time.Duration `envconfig:"RATE_LIMIT_WINDOW" default:"1m"`
}

// DatabaseDSN возвращает строку подключения к PostgreSQL в формате DSN.
func (c *Config) DatabaseDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode,
	)
}

// IsAdmin проверяет, входит ли пользователь в список администраторов.
func (c *Config) IsAdmin(userID int64) bool {
	for _, id := range c.AdminIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// IsSupportedLanguage проверяет, что тег языка есть в списке поддерживаемых.
func (c *Config) IsSupportedLanguage(tag string) bool {
	for _, lang := range c.SupportedLanguages {
		if lang == tag {
			return true
		}
	}
	return false
}

func (c *Config) Validate() error {
	if c.StoreBackend != StoreBackendFile && c.StoreBackend != StoreBackendPostgres {
		return fmt.Errorf("STORE_BACKEND должен быть %q или %q", StoreBackendFile, StoreBackendPostgres)
	}
	if c.StoreBackend == StoreBackendPostgres && c.DBPassword == "" {
		return fmt.Errorf("DB_PASSWORD обязателен при STORE_BACKEND=postgres")
	}
	if c.StoreBackend == StoreBackendFile && c.StoreFilePath == "" {
		return fmt.Errorf("STORE_FILE_PATH не задан")
	}
	if c.BotMaxInflight <= 0 {
		return fmt.Errorf("BOT_MAX_INFLIGHT должен быть > 0")
	}
	if c.BotUpdateTimeoutSeconds <= 0 {
		return fmt.Errorf("BOT_UPDATE_TIMEOUT_SECONDS должен быть > 0")
	}
	if c.DBMaxConns <= 0 || c.DBMinConns < 0 || c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("некорректные DB_MIN_CONNS/DB_MAX_CONNS")
	}
	if c.ExchangeRate <= 0 {
		return fmt.Errorf("ECONOMY_EXCHANGE_RATE должен быть > 0")
	}
	if c.ClickCoins <= 0 || c.AdRewardCoins <= 0 || c.ReferralBonus < 0 {
		return fmt.Errorf("некорректные экономические параметры")
	}
	if c.PvPWinGems.IsNegative() {
		return fmt.Errorf("ECONOMY_PVP_WIN_GEMS не может быть отрицательным")
	}
	if len(c.SupportedLanguages) == 0 {
		return fmt.Errorf("SUPPORTED_LANGUAGES пуст")
	}
	if !c.IsSupportedLanguage(c.DefaultLanguage) {
		return fmt.Errorf("DEFAULT_LANGUAGE %q нет в SUPPORTED_LANGUAGES", c.DefaultLanguage)
	}
	return nil
}

// Load читает переменные окружения и заполняет структуру Config.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("не удалось загрузить конфигурацию: %w", err)
	}

	ids, err := parseInt64CSV(cfg.AdminIDsRaw)
	if err != nil {
		return nil, fmt.Errorf("ADMIN_IDS parse: %w", err)
	}
	cfg.AdminIDs = ids

	cfg.SupportedLanguages = parseStringCSV(cfg.SupportedLanguagesRaw)

	gems, err := decimal.NewFromString(strings.TrimSpace(cfg.PvPWinGemsRaw))
	if err != nil {
		return nil, fmt.Errorf("ECONOMY_PVP_WIN_GEMS parse: %w", err)
	}
	cfg.PvPWinGems = gems

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func parseInt64CSV(s string) ([]int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	out := make([]int64, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		v, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("bad int64 %q: %w", p, err)
		}
		out = append(out, v)
	}
	return out, nil
}

func parseStringCSV(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
