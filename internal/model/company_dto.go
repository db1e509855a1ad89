package model

// CreateCompanyRequest represents the payload for registering a company
type CreateCompanyRequest struct {
	Name    string `json:"name" binding:"required"`
	CNPJ    string `json:"cnpj" binding:"required"`
	Address string `json:"address"`
	City    string `json:"city"`
	UF      string `json:"uf"`
	CEP     string `json:"cep"`
}

// CompanyResponse represents a company in API responses
type CompanyResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	CNPJ      string `json:"cnpj"`
	Address   string `json:"address"`
	City      string `json:"city"`
	UF        string `json:"uf"`
	CEP       string `json:"cep"`
	OwnerID   string `json:"ownerId"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}
