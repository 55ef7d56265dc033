package dataset

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// LoadItemWorkbook reads the item metadata table from an Excel workbook
// (partition 8, read-only). The first sheet is used; a leading header row
// is detected and skipped. Expected columns: item_id, merchant_id,
// brand_id, category_id. Rows with an unusable item id are logged and
// skipped.
func LoadItemWorkbook(path string) ([]Item, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open item workbook: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, fmt.Errorf("item workbook %q has no sheets", path)
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read item sheet %q: %w", sheet, err)
	}

	items := make([]Item, 0, len(rows))
	for i, row := range rows {
		if len(row) < 4 {
			continue
		}
		if i == 0 && isItemHeader(row) {
			continue
		}

		itemID, err := parseID(row[0])
		if err != nil {
			slog.Warn("skipping item row with unusable item id",
				"path", path,
				"row", i+1,
				"error", err,
			)
			continue
		}

		items = append(items, Item{
			ItemID:     itemID,
			MerchantID: parseIDOrZero(row[1]),
			BrandID:    parseIDOrZero(row[2]),
			CategoryID: parseIDOrZero(row[3]),
		})
	}

	return dedupeItems(items), nil
}

// ItemKey identifies an item metadata row for joining against orders.
type ItemKey struct {
	ItemID     int64
	MerchantID int64
}

// IndexItems builds a join index keyed by (item_id, merchant_id). On
// duplicate keys the first row wins.
func IndexItems(items []Item) map[ItemKey]Item {
	index := make(map[ItemKey]Item, len(items))
	for _, item := range items {
		key := ItemKey{ItemID: item.ItemID, MerchantID: item.MerchantID}
		if _, ok := index[key]; !ok {
			index[key] = item
		}
	}
	return index
}

// ItemIDFromDetail extracts the item identifier from an order's encoded
// item_detail_info column (the prefix before the first ':'). Returns false
// when the prefix is not an integer.
func ItemIDFromDetail(detail string) (int64, bool) {
	prefix, _, _ := strings.Cut(detail, ":")
	id, err := strconv.ParseInt(strings.TrimSpace(prefix), 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

func isItemHeader(row []string) bool {
	_, err := strconv.ParseInt(strings.TrimSpace(row[0]), 10, 64)
	return err != nil
}

func dedupeItems(items []Item) []Item {
	seen := make(map[Item]struct{}, len(items))
	out := items[:0]
	for _, item := range items {
		if _, ok := seen[item]; ok {
			continue
		}
		seen[item] = struct{}{}
		out = append(out, item)
	}
	return out
}
