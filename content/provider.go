package content

import (
	"context"
	"errors"
	"log"
	"math/rand"

	"partyquiz/flow"
	"partyquiz/models"

	"gorm.io/gorm"
)

// ErrNoContent is returned only when even the bundled fallback dataset has
// nothing usable for a request; transient remote failures never surface.
var ErrNoContent = errors.New("no content available")

type Provider struct {
	db *gorm.DB
}

func NewProvider(db *gorm.DB) *Provider {
	return &Provider{db: db}
}

// FetchQuestions returns quiz items for the given categories (empty means
// all). A remote error or an empty remote result falls back to the bundled
// dataset without surfacing an error.
func (p *Provider) FetchQuestions(ctx context.Context, categories []string) ([]Item, error) {
	var rows []models.Question
	query := p.db.WithContext(ctx)
	if len(categories) > 0 {
		query = query.Where("category IN ?", categories)
	}
	if err := query.Find(&rows).Error; err != nil {
		log.Printf("Content source error (questions), falling back to local dataset: %v", err)
		return localQuestions(categories), nil
	}
	if len(rows) == 0 {
		return localQuestions(categories), nil
	}

	items := make([]Item, len(rows))
	for i, q := range rows {
		items[i] = fromQuestion(q)
	}
	return items, nil
}

// FetchDebates returns debate items for the given categories (empty means
// all) with the same fallback behavior as FetchQuestions.
func (p *Provider) FetchDebates(ctx context.Context, categories []string) ([]Item, error) {
	var rows []models.Debate
	query := p.db.WithContext(ctx)
	if len(categories) > 0 {
		query = query.Where("category IN ?", categories)
	}
	if err := query.Find(&rows).Error; err != nil {
		log.Printf("Content source error (debates), falling back to local dataset: %v", err)
		return localDebates(categories), nil
	}
	if len(rows) == 0 {
		return localDebates(categories), nil
	}

	items := make([]Item, len(rows))
	for i, d := range rows {
		items[i] = fromDebate(d)
	}
	return items, nil
}

// Pool returns every known item keyed by id, for resolving a persisted
// content_order back into playable items.
func (p *Provider) Pool(ctx context.Context) (map[string]Item, error) {
	questions, err := p.FetchQuestions(ctx, nil)
	if err != nil {
		return nil, err
	}
	debates, err := p.FetchDebates(ctx, nil)
	if err != nil {
		return nil, err
	}

	pool := make(map[string]Item, len(questions)+len(debates))
	for _, it := range questions {
		pool[it.ID] = it
	}
	for _, it := range debates {
		pool[it.ID] = it
	}
	return pool, nil
}

// PlanOrder computes the full content_order for a session: for every content
// block in the script, shuffle the category-filtered pool and take the
// block's item count, skipping any item already placed by an earlier block.
// An item never appears twice across the whole script. When a pool runs
// short the block simply gets fewer items.
func (p *Provider) PlanOrder(ctx context.Context, script flow.Script) ([]string, error) {
	used := make(map[string]bool)
	var order []string

	for _, step := range script.Steps {
		if step.Kind != flow.StepContent {
			continue
		}

		var categories []string
		if step.Category != "" {
			categories = []string{step.Category}
		}

		var pool []Item
		var err error
		switch step.Items {
		case flow.ItemsDebate:
			pool, err = p.FetchDebates(ctx, categories)
		default:
			pool, err = p.FetchQuestions(ctx, categories)
		}
		if err != nil {
			return nil, err
		}

		rand.Shuffle(len(pool), func(i, j int) {
			pool[i], pool[j] = pool[j], pool[i]
		})

		taken := 0
		for _, it := range pool {
			if taken == step.Count {
				break
			}
			if used[it.ID] {
				continue
			}
			used[it.ID] = true
			order = append(order, it.ID)
			taken++
		}
	}

	if len(order) == 0 {
		return nil, ErrNoContent
	}
	return order, nil
}

func localQuestions(categories []string) []Item {
	return filterByCategory(LocalQuestions, categories)
}

func localDebates(categories []string) []Item {
	return filterByCategory(LocalDebates, categories)
}

func filterByCategory(items []Item, categories []string) []Item {
	if len(categories) == 0 {
		out := make([]Item, len(items))
		copy(out, items)
		return out
	}
	var out []Item
	for _, it := range items {
		for _, c := range categories {
			if it.Category == c {
				out = append(out, it)
				break
			}
		}
	}
	return out
}
