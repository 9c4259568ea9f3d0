package domain

import "time"

// Category is one of the fixed upstream content categories.
type Category string

const (
	CategoryBusiness      Category = "business"
	CategoryCrime         Category = "crime"
	CategoryDomestic      Category = "domestic"
	CategoryEducation     Category = "education"
	CategoryEntertainment Category = "entertainment"
	CategoryEnvironment   Category = "environment"
	CategoryFood          Category = "food"
	CategoryHealth        Category = "health"
	CategoryLifestyle     Category = "lifestyle"
	CategoryOther         Category = "other"
	CategoryPolitics      Category = "politics"
	CategoryScience       Category = "science"
	CategorySports        Category = "sports"
	CategoryTechnology    Category = "technology"
	CategoryTop           Category = "top"
	CategoryTourism       Category = "tourism"
	CategoryWorld         Category = "world"
)

var validCategories = map[Category]struct{}{
	CategoryBusiness: {}, CategoryCrime: {}, CategoryDomestic: {},
	CategoryEducation: {}, CategoryEntertainment: {}, CategoryEnvironment: {},
	CategoryFood: {}, CategoryHealth: {}, CategoryLifestyle: {},
	CategoryOther: {}, CategoryPolitics: {}, CategoryScience: {},
	CategorySports: {}, CategoryTechnology: {}, CategoryTop: {},
	CategoryTourism: {}, CategoryWorld: {},
}

func (c Category) IsValid() bool {
	_, ok := validCategories[c]
	return ok
}

// MaxPreferences caps how many categories a single request may select.
const MaxPreferences = 5

// FilterPreferences drops invalid category names and truncates the survivors
// to MaxPreferences, preserving input order.
func FilterPreferences(prefs []string) []Category {
	valid := make([]Category, 0, MaxPreferences)
	for _, p := range prefs {
		c := Category(p)
		if !c.IsValid() {
			continue
		}
		valid = append(valid, c)
		if len(valid) == MaxPreferences {
			break
		}
	}
	return valid
}

// ContentRecord is one enriched article. Immutable once produced by the
// fetch-and-enrich step.
type ContentRecord struct {
	Category    Category `json:"category"`
	Tags        []string `json:"tags"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Link        string   `json:"link"`
	Summary     string   `json:"summary"`
}

// CacheEntry is the persisted cache row for one category. At most one entry
// exists per category; a newer fetch supersedes it.
type CacheEntry struct {
	Category  Category      `json:"category"`
	Record    ContentRecord `json:"record"`
	FetchedAt time.Time     `json:"fetched_at"`
}

// Fresh reports whether the entry is still within the TTL at the given time.
func (e *CacheEntry) Fresh(now time.Time, ttl time.Duration) bool {
	return now.Sub(e.FetchedAt) < ttl
}

// Recipient identifies where a pipeline run's results are delivered.
type Recipient struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

// NotificationJob is the bundle handed independently to every sink.
// Ephemeral: constructed per pipeline run, never persisted.
type NotificationJob struct {
	Username string          `json:"username"`
	Email    string          `json:"email"`
	Items    []ContentRecord `json:"news"`
}
