package entities

type Stats struct {
	Users struct {
		Total  int64 `json:"total"`
		Active int64 `json:"active"`
	} `json:"users"`
	Tasks struct {
		Total     int64 `json:"total"`
		Completed int64 `json:"completed"`
	} `json:"tasks"`
	Prizes struct {
		Total      int64 `json:"total"`
		Purchased  int64 `json:"purchased"`
		CoinsSpent int64 `json:"coinsSpent"`
	} `json:"prizes"`
	Reviews struct {
		Pending int64 `json:"pending"`
	} `json:"reviews"`
}
