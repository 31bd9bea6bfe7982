package models

import "time"

// Status is the lifecycle state shown for a project.
type Status string

const (
	StatusInProgress Status = "In Progress"
	StatusCompleted  Status = "Completed"
	StatusArchived   Status = "Archived"
)

// Category groups projects on the site.
type Category string

const (
	CategoryWeb    Category = "Web Development"
	CategoryGame   Category = "Game Development"
	Category3D     Category = "3D Modeling"
	CategoryMobile Category = "Mobile Development"
)

// DefaultCategories returns the known categories in display order.
func DefaultCategories() []Category {
	return []Category{CategoryWeb, CategoryGame, Category3D, CategoryMobile}
}

// Repository is the display shape of a portfolio project. Remote repositories
// and custom projects share it; custom ones carry IsCustom.
type Repository struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Description     string    `json:"description"`
	LongDescription string    `json:"longDescription"`
	Technologies    []string  `json:"technologies"`
	GitHubLink      string    `json:"githubLink,omitempty"`
	Link            string    `json:"link,omitempty"`
	Status          Status    `json:"status"`
	Category        Category  `json:"category"`
	Featured        bool      `json:"featured"`
	Stars           int       `json:"stars"`
	Forks           int       `json:"forks"`
	Language        string    `json:"language,omitempty"`
	Topics          []string  `json:"topics"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
	Size            int       `json:"size"`
	IsPrivate       bool      `json:"isPrivate"`
	Archived        bool      `json:"archived"`
	Images          []string  `json:"images"`
	IsCustom        bool      `json:"isCustom,omitempty"`
}

// RepoListing is the lightweight shape used by the admin repository picker.
type RepoListing struct {
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Language    string    `json:"language"`
	Stars       int       `json:"stars"`
	Forks       int       `json:"forks"`
	Topics      []string  `json:"topics"`
	UpdatedAt   time.Time `json:"updatedAt"`
	URL         string    `json:"url"`
	Archived    bool      `json:"archived"`
	IsPrivate   bool      `json:"isPrivate,omitempty"`
}

// Participation holds weekly commit counts for the last 52 weeks.
type Participation struct {
	All   []int `json:"all"`
	Owner []int `json:"owner"`
}

// RepoDetail is a single repository with its commit activity. Participation
// is nil while GitHub is still computing it.
type RepoDetail struct {
	RepoListing
	Homepage      string         `json:"homepage,omitempty"`
	CreatedAt     time.Time      `json:"createdAt"`
	Participation *Participation `json:"participation"`
}
