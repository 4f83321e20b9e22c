package config

const (
	DefaultListenAddr         = ":3000"
	DefaultMediaRoot          = "./media"
	DefaultDownloadsDir       = "다운로드"
	DefaultCategoriesDir      = "카테고리"
	DefaultFolderCheckSeconds = 5
	DefaultSettleMillis       = 2000
	DefaultPollMillis         = 100
	DefaultLogLevel           = "info"
	DefaultLogFormat          = "auto"

	// LockFileName sits in the media root and is hidden from listings.
	LockFileName = ".shorts.lock"
)

// DefaultCategories are created on first start.
var DefaultCategories = []string{"여행", "요리", "게임", "교육", "라이프", "기술", "운동", "음악", "예술", "동물", "패션", "뷰티"}

var (
	DefaultImageExtensions = []string{".jpg", ".jpeg", ".png", ".gif", ".webp"}
	DefaultVideoExtensions = []string{".mp4", ".webm", ".mov", ".avi"}
)
