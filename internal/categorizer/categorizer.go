// Package categorizer assigns categories to transactions the UI left
// uncategorized, using keyword rules from a YAML file with an optional
// Gemini fallback. Categorization never fails an export: a transaction that
// cannot be categorized keeps the configured fallback label.
package categorizer

import (
	"context"
	"fmt"
	"os"
	"strings"

	"wio-csv/internal/models"

	"github.com/google/generative-ai-go/genai"
	"github.com/sirupsen/logrus"
	"google.golang.org/api/option"
	"gopkg.in/yaml.v3"
)

// CategoryConfig is one category and the keywords that map to it.
type CategoryConfig struct {
	Name     string   `yaml:"name"`
	Keywords []string `yaml:"keywords"`
}

// CategoriesConfig is the structure of the categories YAML file.
type CategoriesConfig struct {
	Categories []CategoryConfig `yaml:"categories"`
}

// Options configures a Categorizer.
type Options struct {
	CategoriesFile   string // YAML keyword rules; defaults apply when empty or missing
	AIEnabled        bool
	Model            string // Gemini model name
	APIKey           string
	FallbackCategory string // label used when nothing matches
}

// Categorizer fills empty Category fields on exported transactions.
type Categorizer struct {
	categories  []CategoryConfig
	opts        Options
	log         *logrus.Logger
	geminiModel *genai.GenerativeModel
}

// defaultCategories are used when no YAML rules could be loaded.
var defaultCategories = []CategoryConfig{
	{Name: "Groceries", Keywords: []string{"carrefour", "spinneys", "lulu", "waitrose", "supermarket", "grocery"}},
	{Name: "Restaurants", Keywords: []string{"restaurant", "cafe", "coffee", "pizzeria", "sushi", "deliveroo", "talabat"}},
	{Name: "Transport", Keywords: []string{"careem", "uber", "rta", "taxi", "salik", "parking", "metro"}},
	{Name: "Shopping", Keywords: []string{"amazon", "noon", "mall", "store", "shop"}},
	{Name: "Utilities", Keywords: []string{"dewa", "etisalat", "du ", "utility", "bill"}},
	{Name: "Transfers", Keywords: []string{"transfer", "to ", "iban"}},
}

// New creates a Categorizer, loading keyword rules from opts.CategoriesFile
// when it exists.
func New(opts Options, logger *logrus.Logger) *Categorizer {
	if logger == nil {
		logger = logrus.New()
	}
	c := &Categorizer{
		opts: opts,
		log:  logger,
	}
	c.loadCategories()
	return c
}

func (c *Categorizer) loadCategories() {
	if c.opts.CategoriesFile != "" {
		data, err := os.ReadFile(c.opts.CategoriesFile)
		if err == nil {
			var cfg CategoriesConfig
			if err := yaml.Unmarshal(data, &cfg); err == nil && len(cfg.Categories) > 0 {
				c.categories = cfg.Categories
				c.log.WithField("count", len(c.categories)).Debug("Loaded categories from YAML")
				return
			}
			c.log.WithField("file", c.opts.CategoriesFile).Warn("Could not parse categories YAML, using defaults")
		} else {
			c.log.WithField("file", c.opts.CategoriesFile).Debug("Categories file not found, using defaults")
		}
	}
	c.categories = defaultCategories
}

// Apply fills the Category field of every transaction that has none. It logs
// and moves on when a single transaction cannot be categorized.
func (c *Categorizer) Apply(ctx context.Context, transactions []models.Transaction) {
	for i := range transactions {
		if transactions[i].Category != "" {
			continue
		}
		transactions[i].Category = c.categorize(ctx, &transactions[i])
	}
}

func (c *Categorizer) categorize(ctx context.Context, tx *models.Transaction) string {
	if name, ok := c.matchKeywords(tx.Description); ok {
		c.log.WithFields(logrus.Fields{
			"description": tx.Description,
			"category":    name,
		}).Debug("Transaction categorized by keyword")
		return name
	}

	if c.opts.AIEnabled {
		name, err := c.categorizeWithGemini(ctx, tx)
		if err == nil && name != "" {
			return name
		}
		if err != nil {
			c.log.WithError(err).Warn("Gemini categorization failed")
		}
	}

	return c.opts.FallbackCategory
}

// matchKeywords does case-insensitive substring matching of configured
// keywords against the description.
func (c *Categorizer) matchKeywords(description string) (string, bool) {
	upper := strings.ToUpper(description)
	for _, category := range c.categories {
		for _, keyword := range category.Keywords {
			if keyword == "" {
				continue
			}
			if strings.Contains(upper, strings.ToUpper(keyword)) {
				return category.Name, true
			}
		}
	}
	return "", false
}

// ensureGeminiModel lazily initializes the Gemini client.
func (c *Categorizer) ensureGeminiModel(ctx context.Context) error {
	if c.geminiModel != nil {
		return nil
	}
	if c.opts.APIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY is not set")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(c.opts.APIKey))
	if err != nil {
		return fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := c.opts.Model
	if model == "" {
		model = "gemini-1.5-flash"
	}
	c.geminiModel = client.GenerativeModel(model)
	return nil
}

func (c *Categorizer) categorizeWithGemini(ctx context.Context, tx *models.Transaction) (string, error) {
	if err := c.ensureGeminiModel(ctx); err != nil {
		return "", err
	}

	names := make([]string, 0, len(c.categories))
	for _, category := range c.categories {
		names = append(names, category.Name)
	}

	prompt := fmt.Sprintf(`Categorize the following financial transaction:
Merchant: %s
Amount: %s %s
Date: %s

Assign this transaction to exactly one of the following categories:
%s

Respond with only the category name.`,
		tx.Description,
		tx.Amount.StringFixed(2),
		tx.Currency,
		tx.Date,
		strings.Join(names, ", "))

	resp, err := c.geminiModel.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("Gemini API error: %w", err)
	}
	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("no response from Gemini API")
	}

	answer := strings.TrimSpace(fmt.Sprintf("%v", resp.Candidates[0].Content.Parts[0]))

	// Only accept a known category name so a chatty response cannot leak
	// into the CSV.
	for _, name := range names {
		if strings.EqualFold(answer, name) {
			return name, nil
		}
	}
	return "", fmt.Errorf("unrecognized category %q from Gemini", answer)
}
