package anthropic

type modelsResponse struct {
	Data    []model `json:"data"`
	HasMore bool    `json:"has_more"`
}

type model struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	CreatedAt   string `json:"created_at"`
}
