package services

import (
	"strings"

	"github.com/codyseavey/cardscout/internal/jsonval"
	"github.com/codyseavey/cardscout/internal/models"
)

// Container keys probed for the result list, in priority order.
var (
	recordListKeys       = []string{"items", "list", "data", "results", "cards", "products", "tradingCards"}
	responseDataListKeys = []string{"items", "list", "cards"}
)

// Candidate keys per logical attribute of a catalog record.
var (
	cardIDKeys       = []string{"id", "cardId", "tradingCardId", "productId", "item_id", "_id", "itemId"}
	cardNameKeys     = []string{"name", "title", "productName", "cardName"}
	cardImageKeys    = []string{"imageUrl", "image", "thumbnailUrl", "thumbnail", "img", "picture"}
	cardNumberKeys   = []string{"number", "cardNumber"}
	cardSetKeys      = []string{"setName", "series", "set"}
	cardDescKeys     = []string{"description", "subtitle"}
	cardURLKeys      = []string{"url", "link", "permalink"}
	nestedTextKeys   = []string{"name", "url", "src", "title"}
	maxFindDepth     = 8
	emptyRecordSlice = []jsonval.Value{}
)

// ExtractRecords locates the list of result records inside an upstream
// response whose envelope shape is unknown. It never returns nil.
//
// An array is returned as-is. For an object the record list keys are tried
// at the top level, then under "data", then under "response.data".
func ExtractRecords(v jsonval.Value) []jsonval.Value {
	if items, ok := v.AsArray(); ok {
		return items
	}
	if v.Kind() != jsonval.KindObject {
		return emptyRecordSlice
	}

	if items, ok := firstArray(v, recordListKeys); ok {
		return items
	}

	if data, ok := v.Get("data"); ok && data.Kind() == jsonval.KindObject {
		if items, ok := firstArray(data, recordListKeys); ok {
			return items
		}
	}

	if inner, ok := v.Path("response", "data"); ok {
		if items, ok := inner.AsArray(); ok {
			return items
		}
		if items, ok := firstArray(inner, responseDataListKeys); ok {
			return items
		}
	}

	return emptyRecordSlice
}

// FindRecords runs ExtractRecords breadth-first over nested objects and
// returns the first non-empty result. It is meant for state blobs embedded
// in HTML pages, where the list sits several levels deep.
func FindRecords(v jsonval.Value) []jsonval.Value {
	level := []jsonval.Value{v}
	for depth := 0; depth <= maxFindDepth && len(level) > 0; depth++ {
		var next []jsonval.Value
		for _, node := range level {
			if records := ExtractRecords(node); len(records) > 0 {
				return records
			}
			members, ok := node.AsObject()
			if !ok {
				continue
			}
			for _, m := range members {
				if m.Value.Kind() == jsonval.KindObject {
					next = append(next, m.Value)
				}
			}
		}
		level = next
	}
	return emptyRecordSlice
}

func firstArray(obj jsonval.Value, keys []string) ([]jsonval.Value, bool) {
	for _, key := range keys {
		if val, ok := obj.Get(key); ok {
			if items, ok := val.AsArray(); ok {
				return items, true
			}
		}
	}
	return nil, false
}

// ExtractCardID returns the first non-empty id-like field of a record.
func ExtractCardID(record jsonval.Value) string {
	return firstText(record, cardIDKeys)
}

// ProjectCard maps an untyped record onto CardSummary. Non-object records
// produce a summary with only Raw set.
func ProjectCard(record jsonval.Value) models.CardSummary {
	card := models.CardSummary{Raw: record}
	if record.Kind() != jsonval.KindObject {
		return card
	}

	card.ID = ExtractCardID(record)
	card.Name = firstText(record, cardNameKeys)
	card.ImageURL = firstText(record, cardImageKeys)
	card.Number = firstText(record, cardNumberKeys)
	card.SetName = firstText(record, cardSetKeys)
	card.Rarity = firstText(record, []string{"rarity"})
	card.Type = firstText(record, []string{"type"})
	card.Description = firstText(record, cardDescKeys)
	card.URL = firstText(record, cardURLKeys)

	if brand, ok := record.Get("brand"); ok && brand.Kind() == jsonval.KindObject {
		card.BrandName = firstText(brand, []string{"name"})
	} else {
		card.BrandName = firstText(record, []string{"brandName", "brand"})
	}

	if category, ok := record.Get("category"); ok && category.Kind() == jsonval.KindObject {
		card.CategoryID = firstText(category, []string{"id"})
		card.CategoryName = firstText(category, []string{"name"})
	} else {
		card.CategoryName = firstText(record, []string{"categoryName", "category"})
	}
	if card.CategoryID == "" {
		card.CategoryID = firstText(record, []string{"categoryId", "category_id"})
	}

	return card
}

// ProjectCards projects every record, keeping upstream order.
func ProjectCards(records []jsonval.Value) []models.CardSummary {
	cards := make([]models.CardSummary, 0, len(records))
	for _, r := range records {
		cards = append(cards, ProjectCard(r))
	}
	return cards
}

// firstText returns the first non-blank text found under keys. A value that
// is itself an object (e.g. "image": {"url": ...}) is searched one level
// down for a name/url/src/title.
func firstText(obj jsonval.Value, keys []string) string {
	for _, key := range keys {
		val, ok := obj.Get(key)
		if !ok {
			continue
		}
		if val.Kind() == jsonval.KindObject {
			if s := firstText(val, nestedTextKeys); s != "" {
				return s
			}
			continue
		}
		if s := strings.TrimSpace(val.Text()); s != "" {
			return s
		}
	}
	return ""
}
