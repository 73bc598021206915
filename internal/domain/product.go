package domain

type Product struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	PictureURL  string  `json:"pictureUrl"`
	Brand       string  `json:"brand"`
	Type        string  `json:"type"`
}

type DeliveryMethod struct {
	ID           int64   `json:"id"`
	ShortName    string  `json:"shortName"`
	DeliveryTime string  `json:"deliveryTime"`
	Description  string  `json:"description"`
	Price        float64 `json:"price"`
}
