// rows.go shapes store entities into export rows. Shaping owns the decisions the
// flattener deliberately does not make: which locale's translation to use, and how
// to reduce nested collections to counts and joined display strings.
package export

import (
	"strings"

	"github.com/portfolio-cms/portfolio-cms/internal/db/models"
)

// objectJoinSeparator joins display strings derived from arrays of objects
// (e.g. a work's composer names). Distinct from the flattener's ", " so a joined
// list survives flattening unambiguously.
const objectJoinSeparator = "; "

// pickTranslation selects the canonical translation for a work: the primary locale
// when present, otherwise the first available translation, otherwise empty values.
// Missing translations are a data-entry reality, never an export failure.
func pickTranslation(translations []models.WorkTranslation, primaryLocale string) (title, description string) {
	var fallback *models.WorkTranslation
	for i := range translations {
		tr := &translations[i]
		if tr.Locale == primaryLocale {
			if tr.Description != nil {
				description = *tr.Description
			}
			return tr.Title, description
		}
		if fallback == nil {
			fallback = tr
		}
	}
	if fallback != nil {
		if fallback.Description != nil {
			description = *fallback.Description
		}
		return fallback.Title, description
	}
	return "", ""
}

var workColumns = []string{
	"id", "slug", "title", "description", "year", "duration", "instrumentation",
	"published", "category", "label", "composersCount", "composers", "gallery", "createdAt",
}

func shapeWorks(works []*models.Work, primaryLocale string) ([]Row, []string) {
	rows := make([]Row, 0, len(works))
	for _, w := range works {
		title, description := pickTranslation(w.Translations, primaryLocale)

		composerNames := make([]string, 0, len(w.Contributions))
		for _, c := range w.Contributions {
			if c.Composer != nil && c.Composer.Name != "" {
				composerNames = append(composerNames, c.Composer.Name)
			}
		}

		var category, label string
		if w.Category != nil {
			category = w.Category.Name
		}
		if w.Label != nil {
			label = w.Label.Name
		}

		rows = append(rows, Row{
			"id":              w.ID,
			"slug":            w.Slug,
			"title":           title,
			"description":     description,
			"year":            intDeref(w.Year),
			"duration":        strDeref(w.Duration),
			"instrumentation": strDeref(w.Instrumentation),
			"published":       w.Published,
			"category":        category,
			"label":           label,
			"composersCount":  len(composerNames),
			"composers":       strings.Join(composerNames, objectJoinSeparator),
			"gallery":         w.GalleryPaths,
			"createdAt":       w.CreatedAt,
		})
	}
	return rows, workColumns
}

var composerColumns = []string{"id", "name", "bio", "worksCount", "works", "createdAt"}

func shapeComposers(composers []*models.Composer) ([]Row, []string) {
	rows := make([]Row, 0, len(composers))
	for _, c := range composers {
		rows = append(rows, Row{
			"id":         c.ID,
			"name":       c.Name,
			"bio":        strDeref(c.Bio),
			"worksCount": len(c.WorkTitles),
			"works":      strings.Join(c.WorkTitles, objectJoinSeparator),
			"createdAt":  c.CreatedAt,
		})
	}
	return rows, composerColumns
}

var categoryColumns = []string{"id", "slug", "name"}

func shapeCategories(categories []*models.Category) ([]Row, []string) {
	rows := make([]Row, 0, len(categories))
	for _, c := range categories {
		rows = append(rows, Row{
			"id":   c.ID,
			"slug": c.Slug,
			"name": c.Name,
		})
	}
	return rows, categoryColumns
}

var labelColumns = []string{"id", "name", "website"}

func shapeLabels(labels []*models.Label) ([]Row, []string) {
	rows := make([]Row, 0, len(labels))
	for _, l := range labels {
		rows = append(rows, Row{
			"id":      l.ID,
			"name":    l.Name,
			"website": strDeref(l.Website),
		})
	}
	return rows, labelColumns
}

var expertiseColumns = []string{"id", "slug", "title", "summary", "gallery", "createdAt"}

func shapeExpertises(expertises []*models.Expertise) ([]Row, []string) {
	rows := make([]Row, 0, len(expertises))
	for _, e := range expertises {
		rows = append(rows, Row{
			"id":        e.ID,
			"slug":      e.Slug,
			"title":     e.Title,
			"summary":   strDeref(e.Summary),
			"gallery":   e.GalleryPaths,
			"createdAt": e.CreatedAt,
		})
	}
	return rows, expertiseColumns
}

var assetColumns = []string{"id", "path", "alt", "width", "height", "aspectRatio", "createdAt"}

func shapeAssets(assets []*models.Asset) ([]Row, []string) {
	rows := make([]Row, 0, len(assets))
	for _, a := range assets {
		rows = append(rows, Row{
			"id":          a.ID,
			"path":        a.Path,
			"alt":         strDeref(a.Alt),
			"width":       intDeref(a.Width),
			"height":      intDeref(a.Height),
			"aspectRatio": floatDeref(a.AspectRatio),
			"createdAt":   a.CreatedAt,
		})
	}
	return rows, assetColumns
}

func strDeref(s *string) interface{} {
	if s == nil {
		return nil
	}
	return *s
}

func intDeref(i *int) interface{} {
	if i == nil {
		return nil
	}
	return *i
}

func floatDeref(f *float64) interface{} {
	if f == nil {
		return nil
	}
	return *f
}
