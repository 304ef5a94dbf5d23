package entity

// Offer - объявление исполнителя о поездке. Статуса нет: присутствие в списке означает активность.
type Offer struct {
	ID                    string     `json:"id"`
	FetcherID             string     `json:"fetcher_id"`
	CurrentLocation       string     `json:"current_location"`
	Destination           string     `json:"destination"`
	ArrivalTime           string     `json:"arrival_time"`
	PickupCapability      string     `json:"pickup_capability"`
	ContactNumber         string     `json:"contact_number"`
	EstimatedDeliveryTime string     `json:"estimated_delivery_time"`
	DeliveryCharge        *float64   `json:"delivery_charge,omitempty"`
	Notes                 *string    `json:"notes,omitempty"`
	CreatedAt             *Timestamp `json:"created_at,omitempty"`
}

func (o *Offer) IsOwnedBy(userID string) bool {
	return o != nil && userID != "" && o.FetcherID == userID
}

// OfferInput - поля объявления при создании и редактировании.
type OfferInput struct {
	CurrentLocation       string   `json:"current_location"`
	Destination           string   `json:"destination"`
	ArrivalTime           string   `json:"arrival_time"`
	PickupCapability      string   `json:"pickup_capability"`
	ContactNumber         string   `json:"contact_number"`
	EstimatedDeliveryTime string   `json:"estimated_delivery_time"`
	DeliveryCharge        *float64 `json:"delivery_charge,omitempty"`
	Notes                 *string  `json:"notes,omitempty"`
}

// OffersOwnedBy отбирает объявления пользователя.
func OffersOwnedBy(offers []Offer, userID string) []Offer {
	owned := make([]Offer, 0, len(offers))
	for _, offer := range offers {
		if offer.IsOwnedBy(userID) {
			owned = append(owned, offer)
		}
	}
	return owned
}
