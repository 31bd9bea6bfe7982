// Package aggregate merges, filters and summarizes portfolio projects.
package aggregate

import "github.com/joescharf/folio/internal/models"

// Stats summarizes a list of projects.
type Stats struct {
	Total      int            `json:"total"`
	ByCategory map[string]int `json:"byCategory"`
	ByStatus   map[string]int `json:"byStatus"`
	TotalStars int            `json:"totalStars"`
	TotalForks int            `json:"totalForks"`
	Languages  []string       `json:"languages"`
	Featured   int            `json:"featured"`
}

// Merge concatenates remote then custom projects. Remote projects are
// featured by name membership; custom projects keep their stored flag.
func Merge(remote, custom []models.Repository, featured []string) []models.Repository {
	want := set(featured)
	out := make([]models.Repository, 0, len(remote)+len(custom))
	for _, p := range remote {
		p.Featured = want[p.Name]
		out = append(out, p)
	}
	return append(out, custom...)
}

// Filter keeps projects whose category is enabled and whose name is not
// hidden.
func Filter(projects []models.Repository, categories, hidden []string) []models.Repository {
	enabled := set(categories)
	skip := set(hidden)
	out := []models.Repository{}
	for _, p := range projects {
		if enabled[string(p.Category)] && !skip[p.Name] {
			out = append(out, p)
		}
	}
	return out
}

// ByCategory returns the projects in category.
func ByCategory(projects []models.Repository, category models.Category) []models.Repository {
	out := []models.Repository{}
	for _, p := range projects {
		if p.Category == category {
			out = append(out, p)
		}
	}
	return out
}

// Featured returns the featured projects.
func Featured(projects []models.Repository) []models.Repository {
	out := []models.Repository{}
	for _, p := range projects {
		if p.Featured {
			out = append(out, p)
		}
	}
	return out
}

// Summarize counts projects. Stars and forks only include remote projects.
func Summarize(projects []models.Repository) Stats {
	s := Stats{
		Total:      len(projects),
		ByCategory: map[string]int{},
		ByStatus:   map[string]int{},
		Languages:  []string{},
	}
	seen := make(map[string]bool)
	for _, p := range projects {
		s.ByCategory[string(p.Category)]++
		s.ByStatus[string(p.Status)]++
		if !p.IsCustom {
			s.TotalStars += p.Stars
			s.TotalForks += p.Forks
		}
		for _, tech := range p.Technologies {
			if !seen[tech] {
				seen[tech] = true
				s.Languages = append(s.Languages, tech)
			}
		}
		if p.Featured {
			s.Featured++
		}
	}
	return s
}

func set(names []string) map[string]bool {
	m := make(map[string]bool, len(names))
	for _, n := range names {
		m[n] = true
	}
	return m
}
