package entity

type LanguageCount struct {
	Language string `json:"language" bson:"_id"`
	Count    int64  `json:"count" bson:"count"`
}

// CounterTotals is the sum of project counters over a set of projects.
type CounterTotals struct {
	Projects  int64 `json:"projects" bson:"projects"`
	Likes     int64 `json:"likes" bson:"likes"`
	Downloads int64 `json:"downloads" bson:"downloads"`
}

type PlatformStats struct {
	TotalProjects    int64           `json:"totalProjects"`
	TotalLikes       int64           `json:"totalLikes"`
	TotalDownloads   int64           `json:"totalDownloads"`
	PopularLanguages []LanguageCount `json:"popularLanguages"`
}

type AdminStats struct {
	Projects struct {
		Total     int64     `json:"total"`
		Likes     int64     `json:"likes"`
		Downloads int64     `json:"downloads"`
		Recent    []Project `json:"recent"`
	} `json:"projects"`
	Chats ConversationCounts `json:"chats"`
}

// Legend is an admin's public page: profile, latest projects and totals.
type Legend struct {
	*Admin
	Projects []Project     `json:"projects"`
	Stats    CounterTotals `json:"stats"`
}
