package models

// Item элемент ленты аирдропов.
type Item struct {
	Source      string `json:"source"`
	Title       string `json:"title"`
	Placeholder bool   `json:"placeholder,omitempty"`
}

// PendingTitle текст заглушки для недоступного источника.
const PendingTitle = "Update pending"

// PendingItem возвращает заглушку источника.
func PendingItem(source string) Item {
	return Item{Source: source, Title: PendingTitle, Placeholder: true}
}

func (i Item) String() string {
	return i.Source + ": " + i.Title
}

// DisplayMode вид выдачи ленты.
type DisplayMode string

const (
	DisplayFull    DisplayMode = "full"
	DisplayPreview DisplayMode = "preview"
)

// DisplayResult лента, подготовленная для показа пользователю.
type DisplayResult struct {
	Mode   DisplayMode `json:"mode"`
	Items  []Item      `json:"items"`
	Upsell string      `json:"upsell,omitempty"`
}
