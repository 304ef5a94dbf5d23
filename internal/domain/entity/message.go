package entity

import "sort"

// ChatMessage - сообщение в чате заказа.
type ChatMessage struct {
	ID         string    `json:"id"`
	SenderID   string    `json:"sender_id"`
	SenderName *string   `json:"sender_name,omitempty"`
	Content    string    `json:"content"`
	CreatedAt  Timestamp `json:"created_at"`
}

// SortMessages упорядочивает сообщения по времени создания, сохраняя порядок равных.
func SortMessages(messages []ChatMessage) {
	sort.SliceStable(messages, func(i, j int) bool {
		return messages[i].CreatedAt.Before(messages[j].CreatedAt.Time)
	})
}
