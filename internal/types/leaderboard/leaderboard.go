package leaderboard

// Row is one projected leaderboard line. Frozen users never appear.
type Row struct {
	Rank           int    `json:"rank"`
	PlatformUserID string `json:"platform_user_id"`
	CurrentStreak  int    `json:"current_streak"`
	LongestStreak  int    `json:"longest_streak"`
}

type Leaderboard struct {
	Rows       []*Row `json:"rows"`
	TotalUsers int    `json:"total_users"`
}
