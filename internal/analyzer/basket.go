package analyzer

import (
	"sort"

	"github.com/blackwell-systems/salesprofile/internal/months"
	"github.com/blackwell-systems/salesprofile/internal/store"
)

// BasketMatrix records, for one client, which products were bought in which
// month. Rows follow calendar order and columns are sorted by product name.
type BasketMatrix struct {
	Months   []string `json:"months"`
	Products []string `json:"products"`
	Cells    [][]bool `json:"cells"`
}

// BuildBasketMatrix turns monthly product records into a purchase-indicator
// matrix. A row exists for every calendar month seen in records, even when
// every quantity that month is zero. Records for months not on the calendar
// are dropped.
func BuildBasketMatrix(cal months.Calendar, records []store.MonthlyRecord) BasketMatrix {
	qty := make(map[int]map[string]float64)
	productSet := make(map[string]struct{})

	for _, r := range records {
		idx, ok := monthIndex(cal, r.Month)
		if !ok {
			continue
		}
		row, ok := qty[idx]
		if !ok {
			row = make(map[string]float64)
			qty[idx] = row
		}
		row[r.Entity] += nonNegative(r.Quantity)
		productSet[r.Entity] = struct{}{}
	}

	m := BasketMatrix{Months: []string{}, Products: []string{}, Cells: [][]bool{}}
	if len(qty) == 0 {
		return m
	}

	for p := range productSet {
		m.Products = append(m.Products, p)
	}
	sort.Strings(m.Products)

	rows := make([]int, 0, len(qty))
	for idx := range qty {
		rows = append(rows, idx)
	}
	sort.Ints(rows)

	for _, idx := range rows {
		m.Months = append(m.Months, cal.Label(idx))
		cells := make([]bool, len(m.Products))
		for j, p := range m.Products {
			cells[j] = qty[idx][p] > 0
		}
		m.Cells = append(m.Cells, cells)
	}
	return m
}

// Rows returns the number of months in the matrix.
func (m BasketMatrix) Rows() int { return len(m.Months) }

// Cols returns the number of products in the matrix.
func (m BasketMatrix) Cols() int { return len(m.Products) }

// Purchased reports whether product was bought in month. Unknown months and
// products read as false.
func (m BasketMatrix) Purchased(month, product string) bool {
	i := indexOf(m.Months, month)
	j := indexOf(m.Products, product)
	if i < 0 || j < 0 {
		return false
	}
	return m.Cells[i][j]
}

// monthsBought counts the months in which column j was bought.
func (m BasketMatrix) monthsBought(j int) int {
	n := 0
	for _, row := range m.Cells {
		if row[j] {
			n++
		}
	}
	return n
}

func indexOf(list []string, s string) int {
	for i, v := range list {
		if v == s {
			return i
		}
	}
	return -1
}
