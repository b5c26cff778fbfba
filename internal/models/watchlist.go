package models

import "time"

// WatchItem is one instrument inside a watch group.
type WatchItem struct {
	Symbol  string    `json:"symbol"`
	Name    string    `json:"stock_name"`
	Note    string    `json:"note,omitempty"`
	AddedAt time.Time `json:"added_at"`
}

// WatchGroup is a named collection of watched instruments.
type WatchGroup struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	Items     []WatchItem `json:"stocks"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// Has reports whether the group already contains symbol.
func (g *WatchGroup) Has(symbol string) bool {
	for _, item := range g.Items {
		if item.Symbol == symbol {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the group.
func (g *WatchGroup) Clone() *WatchGroup {
	out := *g
	out.Items = append([]WatchItem(nil), g.Items...)
	return &out
}
