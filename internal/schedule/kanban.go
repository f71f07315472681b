// Package schedule derives the kanban and calendar views from a flat request
// collection. Everything here is pure and recomputed from scratch.
package schedule

import "github.com/frahmantamala/gearguard/internal/request"

var columnTitles = map[request.Status]string{
	request.StatusNew:        "New",
	request.StatusInProgress: "In Progress",
	request.StatusRepaired:   "Repaired",
	request.StatusScrap:      "Scrap",
}

type Column struct {
	Status   request.Status    `json:"status"`
	Title    string            `json:"title"`
	Count    int               `json:"count"`
	Requests []request.Request `json:"requests"`
}

type Board struct {
	Columns []Column `json:"columns"`
	Total   int      `json:"total"`
}

// ColumnFor maps a status to its bucket. Unknown values land in NEW.
func ColumnFor(s request.Status) request.Status {
	if s.Valid() {
		return s
	}
	return request.StatusNew
}

// Kanban partitions reqs into the four status columns, keeping input order
// within each column. Every request lands in exactly one column.
func Kanban(reqs []request.Request) Board {
	statuses := request.Statuses()
	index := make(map[request.Status]int, len(statuses))
	board := Board{Columns: make([]Column, len(statuses)), Total: len(reqs)}
	for i, s := range statuses {
		index[s] = i
		board.Columns[i] = Column{Status: s, Title: columnTitles[s], Requests: []request.Request{}}
	}
	for _, r := range reqs {
		col := &board.Columns[index[ColumnFor(r.Status)]]
		col.Requests = append(col.Requests, r)
		col.Count++
	}
	return board
}

func (b Board) Column(s request.Status) Column {
	for _, c := range b.Columns {
		if c.Status == s {
			return c
		}
	}
	return Column{Status: s}
}

// Values flattens service results for the pure groupings.
func Values(reqs []*request.Request) []request.Request {
	out := make([]request.Request, 0, len(reqs))
	for _, r := range reqs {
		if r != nil {
			out = append(out, *r)
		}
	}
	return out
}
