package models

import "time"

// Activity buckets repositories by how recently they were updated.
type Activity struct {
	Last30Days int `json:"last30Days"`
	Last90Days int `json:"last90Days"`
	Total      int `json:"total"`
}

// ProfileStats aggregates account-level figures for the owner.
type ProfileStats struct {
	Login       string    `json:"login"`
	Name        string    `json:"name"`
	Bio         string    `json:"bio"`
	AvatarURL   string    `json:"avatarUrl"`
	HTMLURL     string    `json:"htmlUrl"`
	Followers   int       `json:"followers"`
	Following   int       `json:"following"`
	PublicRepos int       `json:"publicRepos"`
	CreatedAt   time.Time `json:"createdAt"`
	TotalStars  int       `json:"totalStars"`
	TotalForks  int       `json:"totalForks"`
	TotalSize   int       `json:"totalSize"`
	Languages   []string  `json:"languages"`
	Activity    Activity  `json:"activity"`
}
