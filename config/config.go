package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/caarlos0/env"
	"github.com/joho/godotenv"
)

// Configuration chứa thông tin tĩnh cần thiết để chạy ứng dụng.
// Nó chứa thông tin cơ sở dữ liệu, HTTP server và lịch chạy các worker.
type Configuration struct {
	InitMode              bool   `env:"INITMODE" envDefault:"false"`               // Chế độ khởi tạo (rebuild toàn bộ views khi khởi động)
	Address               string `env:"ADDRESS" envDefault:":8080"`                // Địa chỉ server
	MongoDB_ConnectionURI string `env:"MONGODB_CONNECTION_URI,required"`           // URL kết nối cơ sở dữ liệu
	MongoDB_DBName        string `env:"MONGODB_DBNAME,required"`                   // Tên cơ sở dữ liệu
	CORS_Origins          string `env:"CORS_ORIGINS" envDefault:"*"`               // Các origins được phép (phân cách bởi dấu phẩy, * = tất cả)
	CORS_AllowCredentials bool   `env:"CORS_ALLOW_CREDENTIALS" envDefault:"false"` // Cho phép gửi credentials
	RateLimit_Max         int    `env:"RATE_LIMIT_MAX" envDefault:"100"`           // Số request tối đa trong window (0 = disable rate limit)
	RateLimit_Window      int    `env:"RATE_LIMIT_WINDOW" envDefault:"60"`         // Thời gian window (giây)
	RateLimit_Enabled     bool   `env:"RATE_LIMIT_ENABLED" envDefault:"true"`      // Bật/tắt rate limiting

	// Lịch chạy các job cập nhật materialized views
	IncrementalInterval int `env:"STATS_INCREMENTAL_INTERVAL" envDefault:"300"`  // Chu kỳ incremental update (giây)
	FullRebuildInterval int `env:"STATS_FULL_REBUILD_INTERVAL" envDefault:"21600"` // Chu kỳ full rebuild (giây)
	KeyUpdateTimeout    int `env:"STATS_KEY_UPDATE_TIMEOUT" envDefault:"30"`     // Timeout cập nhật một key trong incremental run (giây)

	// Tham số aggregation
	MinKeywordCount  int `env:"STATS_MIN_KEYWORD_COUNT" envDefault:"10"` // Ngưỡng số review tối thiểu để một keyword được materialize
	TimeSeriesDays   int `env:"STATS_TIME_SERIES_DAYS" envDefault:"90"`  // Cửa sổ mặc định cho time series (ngày)
	PlatformDays     int `env:"STATS_PLATFORM_DAYS" envDefault:"30"`     // Cửa sổ mặc định cho platform stats (ngày)
	ComparisonTTL    int `env:"STATS_COMPARISON_TTL" envDefault:"3600"`  // TTL của product comparison (giây)
	WriteThroughMode bool `env:"STATS_WRITE_THROUGH" envDefault:"true"`  // Ghi kết quả live computation ngược vào cache

	// Redis hot cache (optional - để trống để tắt)
	RedisAddr     string `env:"REDIS_ADDR"`                    // Địa chỉ Redis, ví dụ "localhost:6379" (để trống = không dùng hot cache)
	RedisPassword string `env:"REDIS_PASSWORD"`                // Mật khẩu Redis
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`       // Redis database index
	RedisTTL      int    `env:"REDIS_TTL" envDefault:"300"`    // TTL của hot cache entries (giây)

	// TLS/HTTPS Configuration
	EnableTLS   bool   `env:"ENABLE_TLS" envDefault:"false"` // Bật HTTPS
	TLSCertFile string `env:"TLS_CERT_FILE"`                 // Đường dẫn đến file certificate (.crt hoặc .pem)
	TLSKeyFile  string `env:"TLS_KEY_FILE"`                  // Đường dẫn đến file private key (.key)
}

// getEnvPath trả về đường dẫn đến file env dựa trên môi trường
func getEnvPath() string {
	// Mặc định sử dụng môi trường development
	env := os.Getenv("GO_ENV")
	if env == "" {
		env = "development"
	}

	// Tìm thư mục config
	currentDir, err := os.Getwd()
	if err != nil {
		// Sử dụng fmt.Printf vì logger có thể chưa được init ở đây
		fmt.Printf("Không thể lấy được thư mục hiện tại: %v\n", err)
		return ""
	}

	// Tìm thư mục config/env
	for {
		envDir := filepath.Join(currentDir, "config", "env")
		if _, err := os.Stat(envDir); err == nil {
			envPath := filepath.Join(envDir, fmt.Sprintf("%s.env", env))
			return envPath
		}

		// Đi lên thư mục cha
		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			return ""
		}
		currentDir = parentDir
	}
}

// NewConfig sẽ đọc dữ liệu cấu hình từ file env được cung cấp
func NewConfig(files ...string) *Configuration {
	envPath := getEnvPath()
	if envPath == "" {
		// Sử dụng fmt.Printf vì logger có thể chưa được init ở đây
		fmt.Printf("Không tìm thấy thư mục config/env\n")
		return nil
	}

	err := godotenv.Load(envPath)
	if err != nil {
		fmt.Printf("Không thể load file env tại %s: %v\n", envPath, err)
		return nil
	}

	cfg := Configuration{}
	err = env.Parse(&cfg)
	if err != nil {
		fmt.Printf("Lỗi khi parse config: %+v\n", err)
		return nil
	}

	return &cfg
}
