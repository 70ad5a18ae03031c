package domain

// MaxSelectedStores bounds how many stores can be compared at once.
const MaxSelectedStores = 4

// Store is a physical store branch.
type Store struct {
	ID            int64  `json:"store_id"`
	ChainName     string `json:"chain_name"`
	StoreName     string `json:"store_name"`
	StoreNumber   string `json:"store_number,omitempty"`
	City          string `json:"city"`
	Address       string `json:"address"`
	ChainImageURL string `json:"chain_image_url,omitempty"`
}

// SelectionChange is the outcome of toggling a store.
type SelectionChange string

const (
	SelectionAdded    SelectionChange = "added"
	SelectionRemoved  SelectionChange = "removed"
	SelectionRejected SelectionChange = "rejected"
)

// Selection is an insertion-ordered set of at most MaxSelectedStores store ids.
type Selection struct {
	StoreIDs []int64 `json:"store_ids"`
}

// Contains reports whether id is selected.
func (s *Selection) Contains(id int64) bool {
	for _, v := range s.StoreIDs {
		if v == id {
			return true
		}
	}
	return false
}

// Full reports whether no further store can be added.
func (s *Selection) Full() bool {
	return len(s.StoreIDs) >= MaxSelectedStores
}

// Toggle removes id when selected, otherwise appends it if there is room.
// At capacity an unselected id is ignored and the set is left unchanged.
func (s *Selection) Toggle(id int64) SelectionChange {
	for i, v := range s.StoreIDs {
		if v == id {
			s.StoreIDs = append(s.StoreIDs[:i:i], s.StoreIDs[i+1:]...)
			return SelectionRemoved
		}
	}
	if s.Full() {
		return SelectionRejected
	}
	s.StoreIDs = append(s.StoreIDs, id)
	return SelectionAdded
}

// IDs returns a copy of the selected ids in insertion order.
func (s *Selection) IDs() []int64 {
	return append([]int64{}, s.StoreIDs...)
}

// StoreBrowse is the accumulated state of paginated store discovery for one
// session. NextPage is zero-based.
type StoreBrowse struct {
	NextPage int     `json:"next_page"`
	PageSize int     `json:"page_size"`
	HasMore  bool    `json:"has_more"`
	Stores   []Store `json:"stores"`
}

// NewStoreBrowse starts discovery at page zero.
func NewStoreBrowse(pageSize int) *StoreBrowse {
	return &StoreBrowse{PageSize: pageSize, HasMore: true, Stores: []Store{}}
}

// ApplyPage merges one fetched page into the accumulated list. An empty page
// ends discovery.
func (b *StoreBrowse) ApplyPage(page []Store) {
	if len(page) == 0 {
		b.HasMore = false
		return
	}
	b.Stores = MergeStores(b.Stores, page)
	b.NextPage++
}

// MergeStores appends next to prev deduplicating by store id. A store keeps
// the position of its first occurrence and takes the value of its last.
func MergeStores(prev, next []Store) []Store {
	out := make([]Store, 0, len(prev)+len(next))
	index := make(map[int64]int, len(prev)+len(next))
	for _, group := range [][]Store{prev, next} {
		for _, s := range group {
			if i, ok := index[s.ID]; ok {
				out[i] = s
				continue
			}
			index[s.ID] = len(out)
			out = append(out, s)
		}
	}
	return out
}

// StoreQuery filters a one-shot store search. At least one field must be set.
type StoreQuery struct {
	City  string `json:"city,omitempty"`
	Chain string `json:"chain,omitempty"`
}

// IsEmpty reports whether neither filter is set.
func (q StoreQuery) IsEmpty() bool {
	return q.City == "" && q.Chain == ""
}

// StoreSearch is the result of a filtered query. It is kept apart from the
// paginated browse list.
type StoreSearch struct {
	Query  StoreQuery `json:"query"`
	Stores []Store    `json:"stores"`
}
