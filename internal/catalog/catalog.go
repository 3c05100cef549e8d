package catalog

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Category identifiers as they appear in the menu spreadsheet.
const (
	CategoryBurgers    = "burgers"
	CategorySandwiches = "sandwiches"
	CategoryMeals      = "meals"
	CategoryJuices     = "juices"
	CategoryDrinks     = "drinks"
	CategorySides      = "snacks_sides"
)

// NeedsSpice reports whether items of the category require a spicy /
// non-spicy preference before they can be added to an order.
func NeedsSpice(category string) bool {
	return category == CategoryBurgers || category == CategorySandwiches
}

type Item struct {
	ID       string
	Key      string // lowercase english name, the canonical identifier
	NameEN   string
	NameAR   string
	Price    float64
	Category string
}

type Catalog struct {
	items map[string]Item
	order []string // insertion order, for stable menu rendering
}

func New(items []Item) *Catalog {
	c := &Catalog{items: make(map[string]Item, len(items))}
	for _, it := range items {
		if _, dup := c.items[it.Key]; dup {
			continue
		}
		c.items[it.Key] = it
		c.order = append(c.order, it.Key)
	}
	return c
}

func (c *Catalog) Get(key string) (Item, bool) {
	it, ok := c.items[strings.ToLower(strings.TrimSpace(key))]
	return it, ok
}

func (c *Catalog) Len() int { return len(c.order) }

// Items returns all items in spreadsheet order.
func (c *Catalog) Items() []Item {
	out := make([]Item, 0, len(c.order))
	for _, k := range c.order {
		out = append(out, c.items[k])
	}
	return out
}

// Keys returns all catalog keys in spreadsheet order.
func (c *Catalog) Keys() []string {
	return append([]string(nil), c.order...)
}

// ByCategory returns the items of one category in spreadsheet order.
func (c *Catalog) ByCategory(category string) []Item {
	var out []Item
	for _, k := range c.order {
		if c.items[k].Category == category {
			out = append(out, c.items[k])
		}
	}
	return out
}

// Categories returns the distinct categories present, sorted.
func (c *Catalog) Categories() []string {
	seen := map[string]bool{}
	for _, it := range c.items {
		seen[it.Category] = true
	}
	out := make([]string, 0, len(seen))
	for cat := range seen {
		out = append(out, cat)
	}
	sort.Strings(out)
	return out
}

// Load reads the menu spreadsheet. The header row is discovered by scanning
// for a cell containing name_en/english/item, so sheets with banner rows
// above the table still load. Rows with a non-positive price are skipped.
func Load(path string) (*Catalog, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open menu file: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read menu sheet: %w", err)
	}
	return parseRows(rows)
}

func parseRows(rows [][]string) (*Catalog, error) {
	headerIdx := -1
	for i, row := range rows {
		joined := strings.ToLower(strings.Join(row, " "))
		if strings.Contains(joined, "name_en") || strings.Contains(joined, "english") || strings.Contains(joined, "item") {
			headerIdx = i
			break
		}
	}
	if headerIdx < 0 {
		return nil, fmt.Errorf("menu sheet has no header row with name_en/english/item")
	}

	cols := map[string]int{}
	for i, cell := range rows[headerIdx] {
		cols[strings.ToLower(strings.TrimSpace(cell))] = i
	}
	priceCol, ok := cols["price"]
	if !ok {
		return nil, fmt.Errorf("menu sheet has no price column")
	}
	enCol, ok := cols["name_en"]
	if !ok {
		// fall back to any english/item-ish column, then to the first column
		enCol = 0
		for name, i := range cols {
			if strings.Contains(name, "english") || strings.Contains(name, "item") {
				enCol = i
				break
			}
		}
	}

	var items []Item
	for _, row := range rows[headerIdx+1:] {
		nameEN := strings.TrimSpace(cell(row, enCol))
		if nameEN == "" {
			continue
		}
		price, err := strconv.ParseFloat(strings.TrimSpace(cell(row, priceCol)), 64)
		if err != nil || price <= 0 {
			// a zero or unparseable price would corrupt totals; skip the row
			continue
		}
		items = append(items, Item{
			ID:       strings.TrimSpace(cell(row, colOr(cols, "id"))),
			Key:      strings.ToLower(nameEN),
			NameEN:   nameEN,
			NameAR:   strings.TrimSpace(cell(row, colOr(cols, "name_ar"))),
			Price:    price,
			Category: strings.ToLower(strings.TrimSpace(cell(row, colOr(cols, "category")))),
		})
	}
	return New(items), nil
}

func colOr(cols map[string]int, name string) int {
	if i, ok := cols[name]; ok {
		return i
	}
	return -1
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}
